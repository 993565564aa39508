package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Timed sections of a generation.
const (
	PerfSelection = "selection"
	PerfResults   = "results"
	PerfBreeding  = "breeding"
	PerfOutput    = "output"
)

// PerfCollector tracks how long each engine section takes over a rolling
// window of samples per section.
type PerfCollector struct {
	windowSize int
	samples    map[string][]time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of samples kept per section.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 50
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make(map[string][]time.Duration),
	}
}

// Record adds a duration sample for the named section.
func (p *PerfCollector) Record(section string, d time.Duration) {
	s := append(p.samples[section], d)
	if len(s) > p.windowSize {
		s = s[1:]
	}
	p.samples[section] = s
}

// Time runs fn and records its duration under section.
func (p *PerfCollector) Time(section string, fn func()) {
	start := time.Now()
	fn()
	p.Record(section, time.Since(start))
}

// Reset drops all samples.
func (p *PerfCollector) Reset() {
	p.samples = make(map[string][]time.Duration)
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Sections []SectionStats
	Total    time.Duration // Sum of section averages
}

// SectionStats is the timing of one section over the window.
type SectionStats struct {
	Name    string
	Samples int
	Avg     time.Duration
	Max     time.Duration
	Pct     float64 // Share of Total
}

// Stats computes aggregated statistics over the current window.
// Sections are sorted by average duration, slowest first.
func (p *PerfCollector) Stats() PerfStats {
	var out PerfStats
	for name, s := range p.samples {
		if len(s) == 0 {
			continue
		}
		var sum, maxD time.Duration
		for _, d := range s {
			sum += d
			if d > maxD {
				maxD = d
			}
		}
		sec := SectionStats{
			Name:    name,
			Samples: len(s),
			Avg:     sum / time.Duration(len(s)),
			Max:     maxD,
		}
		out.Total += sec.Avg
		out.Sections = append(out.Sections, sec)
	}

	for i := range out.Sections {
		if out.Total > 0 {
			out.Sections[i].Pct = float64(out.Sections[i].Avg) / float64(out.Total) * 100
		}
	}
	sort.Slice(out.Sections, func(i, j int) bool {
		if out.Sections[i].Avg != out.Sections[j].Avg {
			return out.Sections[i].Avg > out.Sections[j].Avg
		}
		return out.Sections[i].Name < out.Sections[j].Name
	})
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("total_us", s.Total.Microseconds()),
	}
	for _, sec := range s.Sections {
		attrs = append(attrs,
			slog.Int64(sec.Name+"_avg_us", sec.Avg.Microseconds()),
			slog.Int64(sec.Name+"_max_us", sec.Max.Microseconds()),
		)
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Generation  int   `csv:"generation"`
	TotalUS     int64 `csv:"total_us"`
	SelectionUS int64 `csv:"selection_us"`
	ResultsUS   int64 `csv:"results_us"`
	BreedingUS  int64 `csv:"breeding_us"`
	OutputUS    int64 `csv:"output_us"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(generation int) PerfStatsCSV {
	row := PerfStatsCSV{
		Generation: generation,
		TotalUS:    s.Total.Microseconds(),
	}
	for _, sec := range s.Sections {
		us := sec.Avg.Microseconds()
		switch sec.Name {
		case PerfSelection:
			row.SelectionUS = us
		case PerfResults:
			row.ResultsUS = us
		case PerfBreeding:
			row.BreedingUS = us
		case PerfOutput:
			row.OutputUS = us
		}
	}
	return row
}
