package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
	"github.com/pthm-cable/evolution/traits"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createRunRequest struct {
	Species string `json:"species"`
	Seed    int64  `json:"seed"`
}

type chooseEventRequest struct {
	EventID string `json:"event_id"`
}

type runResponse struct {
	ID    string     `json:"id"`
	State game.State `json:"state"`
}

type speciesResponse struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Singular string               `json:"singular"`
	Plural   string               `json:"plural"`
	Emoji    string               `json:"emoji"`
	Traits   []traits.Spec        `json:"traits"`
	Events   []config.EventConfig `json:"events"`
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	out := make([]speciesResponse, 0, len(s.cfg.Species))
	for _, sp := range s.cfg.Species {
		out = append(out, speciesResponse{
			ID:       sp.ID,
			Name:     sp.Name,
			Singular: sp.Singular,
			Plural:   sp.Plural,
			Emoji:    sp.Emoji,
			Traits:   sp.Traits,
			Events:   sp.Events,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run, err := s.createRun(r.Context(), req.Species, req.Seed)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	writeJSON(w, http.StatusCreated, runResponse{ID: run.id, State: run.game.State()})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	writeJSON(w, http.StatusOK, runResponse{ID: run.id, State: run.game.State()})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(g *game.Game) (game.State, error) {
		return g.StartRun()
	})
}

func (s *Server) handleChooseEvent(w http.ResponseWriter, r *http.Request) {
	var req chooseEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" {
		writeJSONError(w, http.StatusBadRequest, "event_id is required")
		return
	}
	s.command(w, r, func(g *game.Game) (game.State, error) {
		return g.ChooseEvent(req.EventID)
	})
}

func (s *Server) handleShowResults(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(g *game.Game) (game.State, error) {
		return g.ShowResults()
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(g *game.Game) (game.State, error) {
		return g.AdvanceAfterResults()
	})
}

// command runs fn on the run named in the path under the run lock and
// persists the result. The live run is authoritative: a failed save is
// logged and the new state is still returned, and the next successful
// command stores it.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(*game.Game) (game.State, error)) {
	run, err := s.lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	state, err := fn(run.game)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}
	if err := s.persist(r.Context(), run); err != nil {
		s.logger.Error("failed to persist run", "run", run.id, "phase", state.Phase, "error", err)
	}
	writeJSON(w, http.StatusOK, runResponse{ID: run.id, State: state})
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errRunNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidCommand):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrUnknownEvent), errors.Is(err, game.ErrUnknownSpecies):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("command failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
