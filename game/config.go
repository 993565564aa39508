package game

import (
	"errors"
	"log/slog"
)

// Phase is the scheduler state of a run.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseSelectingEvent    Phase = "selecting_event"
	PhaseApplyingSelection Phase = "applying_selection"
	PhaseShowingResults    Phase = "showing_results"
	PhaseBreeding          Phase = "breeding"
)

// ParsePhase returns the phase named s.
func ParsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseIdle, PhaseSelectingEvent, PhaseApplyingSelection, PhaseShowingResults, PhaseBreeding:
		return p, true
	}
	return "", false
}

var (
	// ErrInvalidCommand is returned for a command that is not allowed in
	// the current phase. The state is left unchanged.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownEvent is returned when the chosen event does not belong to
	// the species.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnknownSpecies is returned when no species matches the requested id.
	ErrUnknownSpecies = errors.New("unknown species")
)

// Options configures a new game.
type Options struct {
	Seed        int64        // RNG seed (0 = time-based)
	Species     string       // Species id (empty = runner.species from config)
	OutputDir   string       // Directory for CSV output (empty = disabled)
	SnapshotDir string       // Directory for bookmark snapshots (empty = disabled)
	Logger      *slog.Logger // nil = slog.Default()
}
