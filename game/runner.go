package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/telemetry"
)

// RunResult summarizes a headless run.
type RunResult struct {
	Generations int              // Generations bred across all runs
	Extinctions int              // Runs that ended with no survivors
	Totals      telemetry.Totals // Totals of the last run
	Final       State
}

// LogValue implements slog.LogValuer for structured logging.
func (r RunResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generations", r.Generations),
		slog.Int("extinctions", r.Extinctions),
		slog.Int("total_survived", r.Totals.Survived),
		slog.Int("total_lost", r.Totals.Lost),
		slog.Int("final_generation", r.Final.Generation),
		slog.Int("final_alive", r.Final.AliveCount),
	)
}

// Runner drives a Game through its phases without a user, pausing between
// phases for the configured pacing.
type Runner struct {
	game    *Game
	chooser EventChooser
	pacing  config.PacingConfig

	generations int
	restart     bool

	resume *telemetry.Snapshot
}

// NewRunner creates a runner for g. The chooser gets its own RNG seeded
// from the game seed plus one.
func NewRunner(g *Game, runner config.RunnerConfig, pacing config.PacingConfig) (*Runner, error) {
	chooser, err := NewChooser(runner.Chooser, g.Species(), rand.New(rand.NewSource(g.Seed()+1)))
	if err != nil {
		return nil, err
	}
	return &Runner{
		game:        g,
		chooser:     chooser,
		pacing:      pacing,
		generations: runner.Generations,
		restart:     runner.RestartOnExtinction,
	}, nil
}

// wait pauses for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ResumeFrom makes the next Run continue from snap instead of starting a
// fresh run.
func (r *Runner) ResumeFrom(snap *telemetry.Snapshot) {
	r.resume = snap
}

// begin restores a pending snapshot or starts a new run.
func (r *Runner) begin() (State, error) {
	if r.resume == nil {
		return r.game.StartRun()
	}
	snap := r.resume
	r.resume = nil
	if err := r.game.Restore(snap); err != nil {
		return State{}, err
	}
	return r.game.State(), nil
}

// Run plays rounds until the generation limit is bred, the run goes
// extinct without restart, or ctx is cancelled. A zero generation limit
// runs until extinction.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	var res RunResult
	g := r.game

	state, err := r.begin()
	if err != nil {
		return res, err
	}

	for {
		switch state.Phase {
		case PhaseIdle:
			state, err = g.StartRun()

		case PhaseSelectingEvent:
			if r.generations > 0 && res.Generations >= r.generations {
				return r.finish(res), nil
			}
			if err = wait(ctx, r.pacing.Selection); err == nil {
				state, err = g.ChooseEvent(r.chooser.Choose(g.Species(), state))
			}

		case PhaseApplyingSelection:
			if err = wait(ctx, r.pacing.Reveal); err == nil {
				state, err = g.ShowResults()
			}

		case PhaseShowingResults:
			if err = wait(ctx, r.pacing.Breeding); err != nil {
				break
			}
			if state, err = g.AdvanceAfterResults(); err != nil {
				break
			}
			if state.Extinct {
				res.Extinctions++
				if err = wait(ctx, r.pacing.Extinction); err == nil && !r.restart {
					return r.finish(res), nil
				}
				break
			}
			res.Generations++
			err = wait(ctx, r.pacing.NextRound)

		default:
			err = fmt.Errorf("runner: unexpected phase %s", state.Phase)
		}

		if err != nil {
			return r.finish(res), err
		}
	}
}

func (r *Runner) finish(res RunResult) RunResult {
	res.Final = r.game.State()
	res.Totals = telemetry.Totals{
		Survived: res.Final.TotalSurvived,
		Lost:     res.Final.TotalLost,
	}
	r.game.logger.Debug("perf", "stats", r.game.Perf())
	return res
}
