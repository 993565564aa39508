package telemetry

import "log/slog"

// Totals are the cumulative survival counters of a run.
type Totals struct {
	Survived int `json:"total_survived"`
	Lost     int `json:"total_lost"`
}

// RoundRecord describes one completed selection round.
type RoundRecord struct {
	Round       int    `csv:"round" json:"round"`
	Generation  int    `csv:"generation" json:"generation"`
	EventID     string `csv:"event_id" json:"event_id"`
	AliveBefore int    `csv:"alive_before" json:"alive_before"`
	Survived    int    `csv:"survived" json:"survived"`
	Lost        int    `csv:"lost" json:"lost"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r RoundRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("round", r.Round),
		slog.Int("generation", r.Generation),
		slog.String("event", r.EventID),
		slog.Int("alive_before", r.AliveBefore),
		slog.Int("survived", r.Survived),
		slog.Int("lost", r.Lost),
	)
}

// Collector accumulates survival totals across rounds. Each round is
// counted at most once: EndRound without a matching BeginRound is a no-op.
type Collector struct {
	totals Totals
	rounds int

	open    bool
	current RoundRecord
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// BeginRound opens a round with the alive count before selection.
// An already open round is discarded.
func (c *Collector) BeginRound(generation int, eventID string, aliveBefore int) {
	c.current = RoundRecord{
		Round:       c.rounds + 1,
		Generation:  generation,
		EventID:     eventID,
		AliveBefore: aliveBefore,
	}
	c.open = true
}

// InRound reports whether a round is open and not yet counted.
func (c *Collector) InRound() bool {
	return c.open
}

// EndRound closes the open round with the alive count after selection and
// adds it to the totals. It returns false if no round was open.
func (c *Collector) EndRound(aliveAfter int) (RoundRecord, bool) {
	if !c.open {
		return RoundRecord{}, false
	}
	c.open = false

	rec := c.current
	rec.Survived = aliveAfter
	rec.Lost = rec.AliveBefore - aliveAfter
	c.totals.Survived += rec.Survived
	c.totals.Lost += rec.Lost
	c.rounds++
	return rec, true
}

// Totals returns the cumulative counters.
func (c *Collector) Totals() Totals {
	return c.totals
}

// Rounds returns the number of completed rounds.
func (c *Collector) Rounds() int {
	return c.rounds
}

// Reset clears all counters.
func (c *Collector) Reset() {
	*c = Collector{}
}

// Pending returns the open round, or nil when none is open.
func (c *Collector) Pending() *RoundRecord {
	if !c.open {
		return nil
	}
	rec := c.current
	return &rec
}

// Restore sets counters from a saved run, reopening pending if non-nil.
// The pending round is renumbered to follow the restored round count.
func (c *Collector) Restore(t Totals, rounds int, pending *RoundRecord) {
	*c = Collector{totals: t, rounds: rounds}
	if pending != nil {
		c.current = *pending
		c.current.Round = rounds + 1
		c.open = true
	}
}
