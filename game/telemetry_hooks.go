package game

import (
	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/telemetry"
)

// writeRound logs a revealed round and appends it to rounds.csv.
func (g *Game) writeRound(rec telemetry.RoundRecord) {
	g.logger.Info("round", "stats", rec)

	if g.outputManager != nil {
		if err := g.outputManager.WriteRound(rec); err != nil {
			g.logger.Error("failed to write round", "error", err)
		}
	}
}

// writeGeneration logs a history entry and writes it with its trait
// distributions.
func (g *Game) writeGeneration(stats telemetry.PopulationStats, survivors []components.Individual) {
	g.logger.Info("generation", "stats", stats)

	if g.outputManager == nil {
		return
	}
	if err := g.outputManager.WriteHistory(stats); err != nil {
		g.logger.Error("failed to write history", "error", err)
	}
	summaries := telemetry.Summarize(stats.Generation, survivors, g.species.Traits)
	if err := g.outputManager.WriteTraits(summaries); err != nil {
		g.logger.Error("failed to write traits", "error", err)
	}
	if err := g.outputManager.WritePerf(g.perf.Stats().ToCSV(stats.Generation)); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
}

// checkBookmarks records notable moments of the finished generation.
func (g *Game) checkBookmarks(stats telemetry.PopulationStats) []telemetry.Bookmark {
	sample := telemetry.GenerationSample{Stats: stats}
	if g.round != nil {
		sample.AliveBefore = g.round.AliveBefore
	}
	marks := g.bookmarks.Check(sample)
	for _, bm := range marks {
		g.marks = append(g.marks, bm)
		g.logger.Info("bookmark", "bookmark", bm)

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				g.logger.Error("failed to write bookmark", "error", err)
			}
		}
	}
	return marks
}

// saveBookmarkSnapshot saves the state reached after a bookmarked generation.
func (g *Game) saveBookmarkSnapshot(bm telemetry.Bookmark) {
	snapshot := g.Snapshot()
	snapshot.Bookmark = &bm

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "bookmark", bm.Type)
}
