package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/evolution/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir         string
	historyFile *os.File
	traitsFile  *os.File
	roundsFile  *os.File
	perfFile    *os.File
	marksFile   *os.File

	// Track if headers have been written
	historyHeaderWritten bool
	traitsHeaderWritten  bool
	roundsHeaderWritten  bool
	perfHeaderWritten    bool
	marksHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	files := []struct {
		name string
		dst  **os.File
	}{
		{"history.csv", &om.historyFile},
		{"traits.csv", &om.traitsFile},
		{"rounds.csv", &om.roundsFile},
		{"perf.csv", &om.perfFile},
		{"bookmarks.csv", &om.marksFile},
	}
	for _, f := range files {
		fh, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = fh
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeRecords marshals records, including the header only on first use.
func writeRecords(records any, f *os.File, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteHistory appends one generation entry to history.csv.
func (om *OutputManager) WriteHistory(s PopulationStats) error {
	if om == nil {
		return nil
	}
	records := []HistoryRecord{s.Record()}
	if err := writeRecords(records, om.historyFile, &om.historyHeaderWritten); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// WriteTraits appends trait summaries to traits.csv.
func (om *OutputManager) WriteTraits(summaries []TraitSummary) error {
	if om == nil || len(summaries) == 0 {
		return nil
	}
	if err := writeRecords(summaries, om.traitsFile, &om.traitsHeaderWritten); err != nil {
		return fmt.Errorf("writing traits: %w", err)
	}
	return nil
}

// WriteRound appends a completed round to rounds.csv.
func (om *OutputManager) WriteRound(r RoundRecord) error {
	if om == nil {
		return nil
	}
	records := []RoundRecord{r}
	if err := writeRecords(records, om.roundsFile, &om.roundsHeaderWritten); err != nil {
		return fmt.Errorf("writing round: %w", err)
	}
	return nil
}

// WritePerf appends a timing row to perf.csv.
func (om *OutputManager) WritePerf(row PerfStatsCSV) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{row}
	if err := writeRecords(records, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	records := []Bookmark{b}
	if err := writeRecords(records, om.marksFile, &om.marksHeaderWritten); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.historyFile, om.traitsFile, om.roundsFile, om.perfFile, om.marksFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
