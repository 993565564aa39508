package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/systems"
	"github.com/pthm-cable/evolution/telemetry"
)

// Game holds the complete state of one run for one species.
// A Game is not safe for concurrent use.
type Game struct {
	cfg     *config.Config
	species *config.SpeciesConfig
	seed    int64
	rng     *rand.Rand
	logger  *slog.Logger

	roster    *systems.Roster
	breeder   *systems.Breeder
	selector  *systems.Selector
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector

	// Output
	outputManager *telemetry.OutputManager
	snapshotDir   string

	// State
	phase      Phase
	generation int
	event      *config.EventConfig
	round      *telemetry.RoundRecord
	history    []telemetry.PopulationStats
	marks      []telemetry.Bookmark
	extinct    bool
}

// NewGame creates an idle game. Call StartRun to build the founders.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	speciesID := opts.Species
	if speciesID == "" {
		speciesID = cfg.Runner.Species
	}
	species, ok := cfg.SpeciesByID(speciesID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, speciesID)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := rand.New(rand.NewSource(seed))
	g := &Game{
		cfg:         cfg,
		species:     species,
		seed:        seed,
		rng:         rng,
		logger:      logger.With("species", species.ID),
		roster:      systems.NewRoster(),
		breeder:     systems.NewBreeder(species, rng),
		selector:    systems.NewSelector(cfg.Selection, rng),
		collector:   telemetry.NewCollector(),
		perf:        telemetry.NewPerfCollector(50),
		bookmarks:   telemetry.NewBookmarkDetector(),
		phase:       PhaseIdle,
		generation:  1,
		snapshotDir: opts.SnapshotDir,
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, fmt.Errorf("writing config: %w", err)
		}
		g.outputManager = om
	}

	return g, nil
}

// Species returns the simulated species.
func (g *Game) Species() *config.SpeciesConfig {
	return g.species
}

// Seed returns the RNG seed of the game.
func (g *Game) Seed() int64 {
	return g.seed
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Generation returns the current generation number.
func (g *Game) Generation() int {
	return g.generation
}

// Perf returns timing statistics of recent engine work.
func (g *Game) Perf() telemetry.PerfStats {
	return g.perf.Stats()
}

// Close flushes and closes run output.
func (g *Game) Close() error {
	return g.outputManager.Close()
}

// State is the observable engine state returned by every command.
type State struct {
	SpeciesID     string                      `json:"species_id"`
	Phase         Phase                       `json:"phase"`
	Generation    int                         `json:"generation"`
	Population    []components.Individual     `json:"population"`
	AliveCount    int                         `json:"alive_count"`
	AverageTraits map[string]int              `json:"average_traits"`
	CurrentEvent  *config.EventConfig         `json:"current_event,omitempty"`
	Round         *telemetry.RoundRecord      `json:"round,omitempty"`
	TotalSurvived int                         `json:"total_survived"`
	TotalLost     int                         `json:"total_lost"`
	History       []telemetry.PopulationStats `json:"history"`
	Extinct       bool                        `json:"extinct"`
	Bookmarks     []telemetry.Bookmark        `json:"bookmarks,omitempty"`
}

// State returns a copy of the current engine state.
func (g *Game) State() State {
	population := g.roster.Individuals()
	totals := g.collector.Totals()

	s := State{
		SpeciesID:     g.species.ID,
		Phase:         g.phase,
		Generation:    g.generation,
		Population:    population,
		AliveCount:    g.roster.AliveCount(),
		AverageTraits: telemetry.AverageTraits(population, g.species.Traits),
		TotalSurvived: totals.Survived,
		TotalLost:     totals.Lost,
		History:       append([]telemetry.PopulationStats(nil), g.history...),
		Extinct:       g.extinct,
		Bookmarks:     append([]telemetry.Bookmark(nil), g.marks...),
	}
	if g.event != nil {
		ev := *g.event
		s.CurrentEvent = &ev
	}
	if g.round != nil {
		r := *g.round
		s.Round = &r
	}
	return s
}

func (g *Game) setPhase(p Phase) {
	if g.phase == p {
		return
	}
	g.logger.Debug("phase", "from", g.phase, "to", p, "generation", g.generation)
	g.phase = p
}

func invalid(cmd string, p Phase) error {
	return fmt.Errorf("%w: %s in phase %s", ErrInvalidCommand, cmd, p)
}

// StartRun begins a new run from any phase: the roster, generation,
// history, totals and name pool are reset and a founder population is
// created.
func (g *Game) StartRun() (State, error) {
	g.roster.Clear()
	g.collector.Reset()
	g.breeder.Names().Reset()
	g.generation = 1
	g.history = nil
	g.marks = nil
	g.bookmarks.Reset()
	g.event = nil
	g.round = nil
	g.extinct = false

	g.roster.Replace(g.breeder.Founders(g.species.InitialPopulation))
	g.setPhase(PhaseSelectingEvent)

	g.logger.Info("run started",
		"seed", g.seed,
		"population", g.roster.Len(),
	)
	return g.State(), nil
}

// ChooseEvent applies the event with the given id to the current
// generation. Only allowed while selecting an event.
func (g *Game) ChooseEvent(id string) (State, error) {
	if g.phase != PhaseSelectingEvent {
		return g.State(), invalid("choose event", g.phase)
	}
	ev, ok := g.species.Event(id)
	if !ok {
		return g.State(), fmt.Errorf("%w: %q for %s", ErrUnknownEvent, id, g.species.ID)
	}

	start := time.Now()
	res, err := g.selector.Apply(g.roster, ev)
	g.perf.Record(telemetry.PerfSelection, time.Since(start))
	if err != nil {
		return g.State(), fmt.Errorf("applying %s: %w", ev.ID, err)
	}

	g.collector.BeginRound(g.generation, ev.ID, res.AliveBefore)
	g.event = &ev
	g.round = &telemetry.RoundRecord{
		Round:       g.collector.Rounds() + 1,
		Generation:  g.generation,
		EventID:     ev.ID,
		AliveBefore: res.AliveBefore,
		Survived:    res.Survived,
		Lost:        res.Lost,
	}
	g.setPhase(PhaseApplyingSelection)

	g.logger.Info("selection applied", "round", *g.round)
	return g.State(), nil
}

// ShowResults reveals the outcome of the current round and adds it to the
// cumulative totals. Repeating it while results are shown is a no-op.
func (g *Game) ShowResults() (State, error) {
	switch g.phase {
	case PhaseShowingResults:
		return g.State(), nil
	case PhaseApplyingSelection:
		g.revealResults()
		return g.State(), nil
	default:
		return g.State(), invalid("show results", g.phase)
	}
}

// AdvanceAfterResults ends the current round. With no survivors the run
// goes extinct and returns to idle; otherwise the survivors breed the next
// generation and a new event can be chosen.
func (g *Game) AdvanceAfterResults() (State, error) {
	switch g.phase {
	case PhaseApplyingSelection:
		g.revealResults()
	case PhaseShowingResults:
	default:
		return g.State(), invalid("advance", g.phase)
	}

	if g.roster.AliveCount() == 0 {
		g.goExtinct()
		return g.State(), nil
	}

	g.setPhase(PhaseBreeding)
	marks := g.breed()
	g.setPhase(PhaseSelectingEvent)
	if len(marks) > 0 && g.snapshotDir != "" {
		g.saveBookmarkSnapshot(marks[len(marks)-1])
	}
	return g.State(), nil
}
