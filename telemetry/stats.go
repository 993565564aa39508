// Package telemetry provides run statistics, CSV output, bookmarks and snapshots.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/traits"
)

// PopulationStats is one entry of the generation history.
type PopulationStats struct {
	Generation     int            `json:"generation"`
	AverageTraits  map[string]int `json:"average_traits"`
	PopulationSize int            `json:"population_size"`
	EventID        string         `json:"event_id,omitempty"`
}

// HistoryRecord is the CSV form of PopulationStats.
type HistoryRecord struct {
	Generation     int    `csv:"generation"`
	PopulationSize int    `csv:"population_size"`
	EventID        string `csv:"event_id"`
}

// Record returns the CSV row for s.
func (s PopulationStats) Record() HistoryRecord {
	return HistoryRecord{
		Generation:     s.Generation,
		PopulationSize: s.PopulationSize,
		EventID:        s.EventID,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PopulationStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", s.Generation),
		slog.Int("population", s.PopulationSize),
		slog.String("event", s.EventID),
	}
	keys := make([]string, 0, len(s.AverageTraits))
	for k := range s.AverageTraits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Int("avg_"+k, s.AverageTraits[k]))
	}
	return slog.GroupValue(attrs...)
}

// AverageTraits returns the rounded mean of each trait over alive
// individuals. With nobody alive every trait averages to 0.
func AverageTraits(individuals []components.Individual, specs []traits.Spec) map[string]int {
	out := make(map[string]int, len(specs))
	for _, spec := range specs {
		var sum, n int
		for _, ind := range individuals {
			if !ind.Alive {
				continue
			}
			sum += ind.Traits[spec.ID]
			n++
		}
		if n == 0 {
			out[spec.ID] = 0
			continue
		}
		out[spec.ID] = int(math.Round(float64(sum) / float64(n)))
	}
	return out
}

// TraitSummary describes the distribution of one trait across the alive
// population of a generation.
type TraitSummary struct {
	Generation int     `csv:"generation" json:"generation"`
	Trait      string  `csv:"trait" json:"trait"`
	Count      int     `csv:"count" json:"count"`
	Mean       float64 `csv:"mean" json:"mean"`
	Std        float64 `csv:"std" json:"std"`
	Min        float64 `csv:"min" json:"min"`
	Max        float64 `csv:"max" json:"max"`
	Median     float64 `csv:"median" json:"median"`
}

// Summarize computes a TraitSummary per trait, in specs order.
// Std is the sample standard deviation and is 0 below two individuals.
func Summarize(generation int, individuals []components.Individual, specs []traits.Spec) []TraitSummary {
	out := make([]TraitSummary, 0, len(specs))
	for _, spec := range specs {
		values := make([]float64, 0, len(individuals))
		for _, ind := range individuals {
			if ind.Alive {
				values = append(values, float64(ind.Traits[spec.ID]))
			}
		}

		sum := TraitSummary{Generation: generation, Trait: spec.ID, Count: len(values)}
		if len(values) > 0 {
			sort.Float64s(values)
			sum.Mean = stat.Mean(values, nil)
			sum.Min = floats.Min(values)
			sum.Max = floats.Max(values)
			sum.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
			if len(values) > 1 {
				sum.Std = stat.StdDev(values, nil)
			}
		}
		out = append(out, sum)
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s TraitSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("trait", s.Trait),
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("median", s.Median),
	)
}
