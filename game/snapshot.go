package game

import (
	"fmt"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/telemetry"
	"github.com/pthm-cable/evolution/traits"
)

// Snapshot captures the full engine state for resuming later.
func (g *Game) Snapshot() *telemetry.Snapshot {
	s := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     g.seed,
		SpeciesID:   g.species.ID,
		Phase:       string(g.phase),
		Generation:  g.generation,
		Extinct:     g.extinct,
		Totals:      g.collector.Totals(),
		Rounds:      g.collector.Rounds(),
		Pending:     g.collector.Pending(),
		NextID:      g.breeder.NextIDValue(),
		UsedNames:   g.breeder.Names().Used(),
		Individuals: g.roster.Individuals(),
		History:     append([]telemetry.PopulationStats(nil), g.history...),
		Bookmarks:   append([]telemetry.Bookmark(nil), g.marks...),
	}
	if g.event != nil {
		s.EventID = g.event.ID
	}
	if g.round != nil {
		r := *g.round
		s.Round = &r
	}
	return s
}

// Restore replaces the engine state with a snapshot of the same species.
// The RNG is reseeded from the snapshot seed, so draws after a restore do
// not continue the original sequence.
func (g *Game) Restore(s *telemetry.Snapshot) error {
	if s.SpeciesID != g.species.ID {
		return fmt.Errorf("restore: snapshot species %q, game species %q", s.SpeciesID, g.species.ID)
	}
	phase, ok := ParsePhase(s.Phase)
	if !ok || phase == PhaseBreeding {
		return fmt.Errorf("restore: invalid phase %q", s.Phase)
	}

	var event *config.EventConfig
	if s.EventID != "" {
		ev, ok := g.species.Event(s.EventID)
		if !ok {
			return fmt.Errorf("restore: %w: %q", ErrUnknownEvent, s.EventID)
		}
		event = &ev
	}
	if s.Generation < 1 {
		return fmt.Errorf("restore: invalid generation %d", s.Generation)
	}
	for _, ind := range s.Individuals {
		if ind.Generation != s.Generation {
			return fmt.Errorf("restore: individual %s is generation %d, run is at %d", ind.ID, ind.Generation, s.Generation)
		}
		for _, t := range g.species.Traits {
			v, ok := ind.Traits[t.ID]
			if !ok {
				return fmt.Errorf("restore: individual %s has no trait %q", ind.ID, t.ID)
			}
			if v < traits.Min || v > traits.Max {
				return fmt.Errorf("restore: individual %s trait %q = %d out of range", ind.ID, t.ID, v)
			}
		}
	}

	g.seed = s.RNGSeed
	g.rng.Seed(s.RNGSeed)

	g.roster.Replace(s.Individuals)
	g.breeder.SetNextID(s.NextID)
	g.breeder.Names().Reset()
	g.breeder.Names().MarkUsed(s.UsedNames)
	g.collector.Restore(s.Totals, s.Rounds, s.Pending)

	g.phase = phase
	g.generation = s.Generation
	g.event = event
	g.round = nil
	if s.Round != nil {
		r := *s.Round
		g.round = &r
	}
	g.history = append([]telemetry.PopulationStats(nil), s.History...)
	g.marks = append([]telemetry.Bookmark(nil), s.Bookmarks...)
	g.extinct = s.Extinct

	// Rebuild detector baselines; round sizes are not kept in history.
	g.bookmarks.Reset()
	for _, h := range g.history {
		g.bookmarks.Check(telemetry.GenerationSample{Stats: h})
	}

	g.logger.Info("run restored", "phase", g.phase, "generation", g.generation)
	return nil
}

// SaveSnapshot writes the current state to dir and returns the file path.
func (g *Game) SaveSnapshot(dir string) (string, error) {
	path, err := telemetry.SaveSnapshot(g.Snapshot(), dir)
	if err != nil {
		return "", err
	}
	g.logger.Info("snapshot saved", "path", path)
	return path, nil
}
