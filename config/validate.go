package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by every configuration rejection.
var ErrInvalidConfig = errors.New("invalid config")

// Validate rejects configurations the engine cannot run.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	sel := c.Selection
	if sel.Steepness <= 0 {
		add("selection.steepness must be positive, got %v", sel.Steepness)
	}
	if !isProbability(sel.Floor) || !isProbability(sel.Ceiling) || sel.Floor > sel.Ceiling {
		add("selection floor/ceiling must satisfy 0 <= floor <= ceiling <= 1, got %v/%v", sel.Floor, sel.Ceiling)
	}
	if sel.Jitter < 0 {
		add("selection.jitter must not be negative, got %v", sel.Jitter)
	}

	if len(c.Species) == 0 {
		add("at least one species is required")
	}

	seen := make(map[string]bool, len(c.Species))
	for _, sp := range c.Species {
		if sp.ID == "" {
			add("species id is required")
			continue
		}
		if seen[sp.ID] {
			add("duplicate species id %q", sp.ID)
		}
		seen[sp.ID] = true
		for _, p := range sp.validate() {
			add("species %q: %s", sp.ID, p)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (s *SpeciesConfig) validate() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(s.Traits) == 0 {
		add("no traits")
	}
	traitIDs := make(map[string]bool, len(s.Traits))
	for _, t := range s.Traits {
		if t.ID == "" {
			add("trait id is required")
			continue
		}
		if traitIDs[t.ID] {
			add("duplicate trait %q", t.ID)
		}
		traitIDs[t.ID] = true
	}

	if len(s.Names) == 0 {
		add("name pool is empty")
	}
	if s.InitialPopulation <= 0 {
		add("initial_population must be positive, got %d", s.InitialPopulation)
	}
	if s.PopulationCap <= 0 {
		add("population_cap must be positive, got %d", s.PopulationCap)
	}
	if s.Breeding.Min < 1 || s.Breeding.Max < s.Breeding.Min {
		add("breeding range must satisfy 1 <= min <= max, got %d-%d", s.Breeding.Min, s.Breeding.Max)
	}
	if s.InitialVariance < 0 {
		add("initial_variance must not be negative, got %v", s.InitialVariance)
	}
	if inh := s.Inheritance; inh != nil {
		if !isProbability(inh.MutationChance) {
			add("mutation_chance must be in [0,1], got %v", inh.MutationChance)
		}
		if inh.NormalVariance < 0 || inh.MutationVariance < 0 {
			add("inheritance variances must not be negative")
		}
	}

	if len(s.Events) == 0 {
		add("no events")
	}
	eventIDs := make(map[string]bool, len(s.Events))
	for _, ev := range s.Events {
		if ev.ID == "" {
			add("event id is required")
			continue
		}
		if eventIDs[ev.ID] {
			add("duplicate event %q", ev.ID)
		}
		eventIDs[ev.ID] = true

		switch ev.Policy {
		case PolicySigmoid, PolicyLinear:
			if !traitIDs[ev.DangerousTrait] {
				add("event %q references unknown trait %q", ev.ID, ev.DangerousTrait)
			}
			if ev.TraitDirection != DirectionLow && ev.TraitDirection != DirectionHigh {
				add("event %q has invalid trait_direction %q", ev.ID, ev.TraitDirection)
			}
		case PolicyFlat:
			if ev.DangerousTrait != "" && !traitIDs[ev.DangerousTrait] {
				add("event %q references unknown trait %q", ev.ID, ev.DangerousTrait)
			}
			if ev.FlatChance != nil && !isProbability(*ev.FlatChance) {
				add("event %q flat_chance must be in [0,1], got %v", ev.ID, *ev.FlatChance)
			}
		default:
			add("event %q has unknown policy %q", ev.ID, ev.Policy)
		}
	}

	return problems
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}
