package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/evolution/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned for snapshots written by another format version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot holds the complete state of a run for resuming.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	SpeciesID  string `json:"species_id"`
	Phase      string `json:"phase"`
	Generation int    `json:"generation"`
	EventID    string `json:"event_id,omitempty"`
	Extinct    bool   `json:"extinct"`

	Totals  Totals       `json:"totals"`
	Rounds  int          `json:"rounds"`
	Pending *RoundRecord `json:"pending,omitempty"`
	Round   *RoundRecord `json:"round,omitempty"`

	NextID    uint64   `json:"next_id"`
	UsedNames []string `json:"used_names,omitempty"`

	Individuals []components.Individual `json:"individuals"`
	History     []PopulationStats       `json:"history"`
	Bookmarks   []Bookmark              `json:"bookmarks,omitempty"`

	// Bookmark that triggered this snapshot, if any
	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// Marshal encodes a snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes and version-checks a snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}
	return &snapshot, nil
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%s_gen%d.json", snapshot.SpeciesID, snapshot.Generation)
	path := filepath.Join(dir, name)

	data, err := snapshot.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}
