package game

import (
	"time"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/telemetry"
)

// timed starts a timer for section; call the result to record it.
func (g *Game) timed(section string) func() {
	start := time.Now()
	return func() {
		g.perf.Record(section, time.Since(start))
	}
}

// revealResults closes the open round exactly once.
func (g *Game) revealResults() {
	defer g.timed(telemetry.PerfResults)()
	if rec, ok := g.collector.EndRound(g.roster.AliveCount()); ok {
		g.round = &rec
		g.writeRound(rec)
	}
	g.setPhase(PhaseShowingResults)
}

// breed records the finished generation, then replaces the roster with the
// survivors' offspring. It returns the generation's bookmarks.
func (g *Game) breed() []telemetry.Bookmark {
	survivors := g.roster.Survivors()

	stats := telemetry.PopulationStats{
		Generation:     g.generation,
		AverageTraits:  telemetry.AverageTraits(survivors, g.species.Traits),
		PopulationSize: len(survivors),
	}
	if g.event != nil {
		stats.EventID = g.event.ID
	}
	g.history = append(g.history, stats)
	marks := g.checkBookmarks(stats)
	g.perf.Time(telemetry.PerfOutput, func() {
		g.writeGeneration(stats, survivors)
	})

	var next []components.Individual
	g.perf.Time(telemetry.PerfBreeding, func() {
		next = g.breeder.Breed(survivors, g.generation+1)
		g.roster.Replace(next)
	})
	g.generation++
	g.event = nil
	g.round = nil

	g.logger.Info("generation bred",
		"generation", g.generation,
		"parents", len(survivors),
		"population", len(next),
	)
	return marks
}

// goExtinct ends the run with no survivors.
func (g *Game) goExtinct() {
	g.extinct = true
	g.event = nil
	g.setPhase(PhaseIdle)

	totals := g.collector.Totals()
	g.logger.Info("extinction",
		"generation", g.generation,
		"total_survived", totals.Survived,
		"total_lost", totals.Lost,
	)
}
