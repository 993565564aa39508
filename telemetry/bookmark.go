package telemetry

import (
	"fmt"
	"log/slog"
	"sort"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkNearExtinction  BookmarkType = "near_extinction"
	BookmarkRecovery        BookmarkType = "recovery"
	BookmarkTraitShift      BookmarkType = "trait_shift"
)

// Thresholds
const (
	crashFraction   = 0.5 // Round lost more than this share of the population
	crashMinLost    = 3
	nearExtinctMax  = 2  // Survivors at or below this count
	recoveryFactor  = 3  // Survivors grew to this multiple of the recent low
	recoveryMinSize = 6  // and at least this many
	traitShiftDelta = 15 // Average trait moved this far from the baseline
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Generation  int          `csv:"generation" json:"generation"`
	Description string       `csv:"description" json:"description"`
}

// LogValue implements slog.LogValuer for structured logging.
func (b Bookmark) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(b.Type)),
		slog.Int("generation", b.Generation),
		slog.String("description", b.Description),
	)
}

// GenerationSample is what the detector sees at the end of a generation.
type GenerationSample struct {
	Stats       PopulationStats // Survivors and their trait averages
	AliveBefore int             // Population before the round's event
}

// BookmarkDetector detects notable moments across generations.
type BookmarkDetector struct {
	recentMin   int            // Lowest survivor count since the last recovery
	baseline    map[string]int // Trait averages at the last shift
	hasBaseline bool
}

// NewBookmarkDetector creates an empty detector.
func NewBookmarkDetector() *BookmarkDetector {
	return &BookmarkDetector{}
}

// Reset forgets all history.
func (bd *BookmarkDetector) Reset() {
	*bd = BookmarkDetector{}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(s GenerationSample) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkCrash(s); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkNearExtinction(s); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkRecovery(s); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	bookmarks = append(bookmarks, bd.checkTraitShift(s)...)

	size := s.Stats.PopulationSize
	if bd.recentMin == 0 || size < bd.recentMin {
		bd.recentMin = size
	}
	return bookmarks
}

func (bd *BookmarkDetector) checkCrash(s GenerationSample) *Bookmark {
	if s.AliveBefore == 0 {
		return nil
	}
	lost := s.AliveBefore - s.Stats.PopulationSize
	frac := float64(lost) / float64(s.AliveBefore)
	if frac <= crashFraction || lost < crashMinLost {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Generation:  s.Stats.Generation,
		Description: fmt.Sprintf("%s killed %.0f%% of the population (%d of %d)", s.Stats.EventID, frac*100, lost, s.AliveBefore),
	}
}

func (bd *BookmarkDetector) checkNearExtinction(s GenerationSample) *Bookmark {
	size := s.Stats.PopulationSize
	if size == 0 || size > nearExtinctMax {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNearExtinction,
		Generation:  s.Stats.Generation,
		Description: fmt.Sprintf("Only %d survived", size),
	}
}

func (bd *BookmarkDetector) checkRecovery(s GenerationSample) *Bookmark {
	if bd.recentMin == 0 || bd.recentMin > nearExtinctMax+1 {
		return nil
	}
	size := s.Stats.PopulationSize
	if size < bd.recentMin*recoveryFactor || size < recoveryMinSize {
		return nil
	}
	oldMin := bd.recentMin
	bd.recentMin = size
	return &Bookmark{
		Type:        BookmarkRecovery,
		Generation:  s.Stats.Generation,
		Description: fmt.Sprintf("Population recovered from %d to %d survivors", oldMin, size),
	}
}

// checkTraitShift reports traits whose average moved far from the baseline.
// A shifted trait becomes the new baseline for that trait.
func (bd *BookmarkDetector) checkTraitShift(s GenerationSample) []Bookmark {
	if s.Stats.PopulationSize == 0 {
		return nil
	}
	if !bd.hasBaseline {
		bd.baseline = make(map[string]int, len(s.Stats.AverageTraits))
		for k, v := range s.Stats.AverageTraits {
			bd.baseline[k] = v
		}
		bd.hasBaseline = true
		return nil
	}

	keys := make([]string, 0, len(s.Stats.AverageTraits))
	for k := range s.Stats.AverageTraits {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Bookmark
	for _, k := range keys {
		avg := s.Stats.AverageTraits[k]
		base, ok := bd.baseline[k]
		if !ok {
			bd.baseline[k] = avg
			continue
		}
		delta := avg - base
		if delta < traitShiftDelta && -delta < traitShiftDelta {
			continue
		}
		bd.baseline[k] = avg
		out = append(out, Bookmark{
			Type:        BookmarkTraitShift,
			Generation:  s.Stats.Generation,
			Description: fmt.Sprintf("Average %s moved from %d to %d", k, base, avg),
		})
	}
	return out
}
