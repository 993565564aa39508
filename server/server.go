// Package server exposes runs over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
	"github.com/pthm-cable/evolution/storage"
)

// errRunNotFound is returned when no live or stored run matches an id.
var errRunNotFound = errors.New("run not found")

// run is a live game guarded by its own lock. Commands on one run are
// serialized; different runs proceed independently.
type run struct {
	mu        sync.Mutex
	id        string
	game      *game.Game
	createdAt time.Time
}

// Server hosts run commands backed by a run store.
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string

	mu   sync.Mutex
	runs map[string]*run
}

// New builds a server bound to cfg and an initialized store.
func New(cfg *config.Config, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
		runs:   make(map[string]*run),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /species", s.handleSpecies)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /runs/{id}/start", s.handleStart)
	mux.HandleFunc("POST /runs/{id}/events", s.handleChooseEvent)
	mux.HandleFunc("POST /runs/{id}/results", s.handleShowResults)
	mux.HandleFunc("POST /runs/{id}/advance", s.handleAdvance)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.closeRuns()
		return nil
	}
}

func (s *Server) closeRuns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runs {
		if err := r.game.Close(); err != nil {
			s.logger.Error("failed to close run", "run", id, "error", err)
		}
	}
}

// createRun starts tracking a new idle game.
func (s *Server) createRun(ctx context.Context, speciesID string, seed int64) (*run, error) {
	id := s.newID()
	g, err := game.NewGame(s.cfg, game.Options{
		Seed:    seed,
		Species: speciesID,
		Logger:  s.logger.With("run", id),
	})
	if err != nil {
		return nil, err
	}

	r := &run{id: id, game: g, createdAt: s.clock()}
	if err := s.persist(ctx, r); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("persist run %s: %w", id, err)
	}

	s.mu.Lock()
	s.runs[id] = r
	s.mu.Unlock()
	return r, nil
}

// lookup returns a live run, resuming it from the store if needed.
func (s *Server) lookup(ctx context.Context, id string) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[id]; ok {
		return r, nil
	}

	stored, ok, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	if !ok {
		return nil, errRunNotFound
	}

	g, err := game.NewGame(s.cfg, game.Options{
		Seed:    stored.Snapshot.RNGSeed,
		Species: stored.SpeciesID,
		Logger:  s.logger.With("run", id),
	})
	if err != nil {
		return nil, fmt.Errorf("resume run %s: %w", id, err)
	}
	if err := g.Restore(stored.Snapshot); err != nil {
		return nil, fmt.Errorf("resume run %s: %w", id, err)
	}

	r := &run{id: id, game: g, createdAt: stored.CreatedAt}
	s.runs[id] = r
	return r, nil
}

// persist saves the run's current snapshot.
func (s *Server) persist(ctx context.Context, r *run) error {
	return s.store.SaveRun(ctx, storage.Run{
		ID:        r.id,
		SpeciesID: r.game.Species().ID,
		CreatedAt: r.createdAt,
		UpdatedAt: s.clock(),
		Snapshot:  r.game.Snapshot(),
	})
}
