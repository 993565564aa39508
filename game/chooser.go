package game

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pthm-cable/evolution/config"
)

// EventChooser picks the next event for a headless run.
type EventChooser interface {
	Choose(species *config.SpeciesConfig, s State) string
}

// RandomChooser picks a uniformly random event.
type RandomChooser struct {
	rng *rand.Rand
}

func (c *RandomChooser) Choose(species *config.SpeciesConfig, _ State) string {
	return species.Events[c.rng.Intn(len(species.Events))].ID
}

// CycleChooser walks the event list in order, wrapping around.
type CycleChooser struct {
	next int
}

func (c *CycleChooser) Choose(species *config.SpeciesConfig, _ State) string {
	ev := species.Events[c.next%len(species.Events)]
	c.next++
	return ev.ID
}

// FixedChooser always picks the same event.
type FixedChooser struct {
	EventID string
}

func (c FixedChooser) Choose(_ *config.SpeciesConfig, _ State) string {
	return c.EventID
}

// NewChooser parses a chooser name: "random", "cycle" or "fixed:<event id>".
// The event of a fixed chooser must belong to species.
func NewChooser(name string, species *config.SpeciesConfig, rng *rand.Rand) (EventChooser, error) {
	switch {
	case name == "" || name == "random":
		return &RandomChooser{rng: rng}, nil
	case name == "cycle":
		return &CycleChooser{}, nil
	case strings.HasPrefix(name, "fixed:"):
		id := strings.TrimPrefix(name, "fixed:")
		if _, ok := species.Event(id); !ok {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnknownEvent, id, species.ID)
		}
		return FixedChooser{EventID: id}, nil
	default:
		return nil, fmt.Errorf("unknown chooser %q", name)
	}
}
