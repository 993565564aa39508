package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps runs in process memory. Snapshots are deep-copied on
// the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
}

// NewMemoryStore returns an empty store. Call Init before saving.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init prepares the store. Runs saved earlier survive a second Init.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	if s.runs == nil {
		s.runs = make(map[string]Run)
	}
	return nil
}

// SaveRun stores a copy of run, keeping the original CreatedAt when an
// update leaves it zero.
func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	snap, err := cloneSnapshot(run.Snapshot)
	if err != nil {
		return err
	}
	run.Snapshot = snap

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errStoreClosed
	}
	if prev, ok := s.runs[run.ID]; ok && run.CreatedAt.IsZero() {
		run.CreatedAt = prev.CreatedAt
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun returns a copy of the run with the given ID.
func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return Run{}, false, nil
	}

	snap, err := cloneSnapshot(run.Snapshot)
	if err != nil {
		return Run{}, false, err
	}
	run.Snapshot = snap
	return run, true, nil
}

// ListRuns returns run IDs ordered by creation time, then ID.
func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	return ids, nil
}

// DeleteRun removes a run if present.
func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	return nil
}
