// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/evolution/traits"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Selection   SelectionConfig   `yaml:"selection"`
	Inheritance InheritanceConfig `yaml:"inheritance"`
	Pacing      PacingConfig      `yaml:"pacing"`
	Runner      RunnerConfig      `yaml:"runner"`
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Species     []SpeciesConfig   `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SelectionConfig holds the constants of the three survival policies.
type SelectionConfig struct {
	Steepness  float64 `yaml:"steepness"`   // Sigmoid k
	Midpoint   float64 `yaml:"midpoint"`    // Effective trait value where sigmoid = 0.5
	Floor      float64 `yaml:"floor"`       // Lowest sigmoid survival chance
	Ceiling    float64 `yaml:"ceiling"`     // Highest sigmoid survival chance
	LinearBase float64 `yaml:"linear_base"` // Linear chance at effective 0
	LinearSpan float64 `yaml:"linear_span"` // Added chance at effective 100
	Jitter     float64 `yaml:"jitter"`      // Linear +/- uniform jitter
	FlatChance float64 `yaml:"flat_chance"` // Default chance for flat events
}

// InheritanceConfig holds variation applied when a parent breeds.
type InheritanceConfig struct {
	MutationChance   float64 `yaml:"mutation_chance"`
	NormalVariance   float64 `yaml:"normal_variance"`
	MutationVariance float64 `yaml:"mutation_variance"`
}

// InheritanceOverride is a species-level inheritance block. Unset fields
// keep the global value.
type InheritanceOverride struct {
	MutationChance   *float64 `yaml:"mutation_chance,omitempty"`
	NormalVariance   *float64 `yaml:"normal_variance,omitempty"`
	MutationVariance *float64 `yaml:"mutation_variance,omitempty"`
}

// apply returns base with the set fields of o replaced.
func (o *InheritanceOverride) apply(base InheritanceConfig) InheritanceConfig {
	if o == nil {
		return base
	}
	if o.MutationChance != nil {
		base.MutationChance = *o.MutationChance
	}
	if o.NormalVariance != nil {
		base.NormalVariance = *o.NormalVariance
	}
	if o.MutationVariance != nil {
		base.MutationVariance = *o.MutationVariance
	}
	return base
}

// PacingConfig holds presentation delays between phases.
// Zero values run the cycle back to back.
type PacingConfig struct {
	Selection  time.Duration `yaml:"selection"`  // Before selection is applied
	Reveal     time.Duration `yaml:"reveal"`     // Between selection and results
	Breeding   time.Duration `yaml:"breeding"`   // Between results and breeding
	NextRound  time.Duration `yaml:"next_round"` // After breeding
	Extinction time.Duration `yaml:"extinction"` // Before returning to idle
}

// RunnerConfig holds headless runner behavior.
type RunnerConfig struct {
	Species             string `yaml:"species"`
	Generations         int    `yaml:"generations"`
	Chooser             string `yaml:"chooser"` // random, cycle or fixed:<event id>
	RestartOnExtinction bool   `yaml:"restart_on_extinction"`
}

// StorageConfig selects the run store backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory or sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SpeciesConfig describes one species the engine can simulate.
// The engine is generic over this table.
type SpeciesConfig struct {
	ID                  string               `yaml:"id"`
	Name                string               `yaml:"name"`
	Singular            string               `yaml:"singular"`
	Plural              string               `yaml:"plural"`
	Emoji               string               `yaml:"emoji"`
	Traits              []traits.Spec        `yaml:"traits"`
	Events              []EventConfig        `yaml:"events"`
	Names               []string             `yaml:"names"`
	Breeding            BreedingRange        `yaml:"breeding"`
	PopulationCap       int                  `yaml:"population_cap"`
	InitialPopulation   int                  `yaml:"initial_population"`
	InitialVariance     float64              `yaml:"initial_variance"`
	InheritanceOverride *InheritanceOverride `yaml:"inheritance,omitempty"` // nil = global inheritance

	// Resolved inheritance, global values with the override applied
	Inheritance *InheritanceConfig `yaml:"-"`
}

// BreedingRange is the inclusive offspring count per survivor.
type BreedingRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Direction names which extreme of a trait is dangerous.
type Direction string

const (
	DirectionLow  Direction = "low"  // Low values die; survival rises with the trait
	DirectionHigh Direction = "high" // High values die; survival falls with the trait
)

// Policy selects how an event turns traits into a survival chance.
type Policy string

const (
	PolicySigmoid Policy = "sigmoid"
	PolicyLinear  Policy = "linear"
	PolicyFlat    Policy = "flat"
)

// TraitDriven reports whether the policy reads the dangerous trait.
func (p Policy) TraitDriven() bool {
	return p != PolicyFlat
}

// EventConfig describes an environmental event.
type EventConfig struct {
	ID             string    `yaml:"id" json:"id"`
	Name           string    `yaml:"name" json:"name"`
	Description    string    `yaml:"description" json:"description,omitempty"`
	Emoji          string    `yaml:"emoji" json:"emoji,omitempty"`
	DangerousTrait string    `yaml:"dangerous_trait" json:"dangerous_trait,omitempty"`
	TraitDirection Direction `yaml:"trait_direction" json:"trait_direction,omitempty"`
	Policy         Policy    `yaml:"policy" json:"policy"`
	FlatChance     *float64  `yaml:"flat_chance,omitempty" json:"flat_chance,omitempty"` // nil = selection.flat_chance
}

// Float returns a pointer to v, for optional config values.
func Float(v float64) *float64 {
	return &v
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]int // species id -> index into Species
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
// The result is validated; configuration errors wrap ErrInvalidConfig.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds a config from YAML bytes merged over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills per-species defaults and builds lookup tables.
func (c *Config) computeDerived() {
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.InitialVariance == 0 {
			sp.InitialVariance = 22
		}
		inh := sp.InheritanceOverride.apply(c.Inheritance)
		sp.Inheritance = &inh
		for j := range sp.Events {
			ev := &sp.Events[j]
			if ev.Policy == "" {
				ev.Policy = PolicySigmoid
			}
			if ev.Policy == PolicyFlat && ev.FlatChance == nil {
				ev.FlatChance = Float(c.Selection.FlatChance)
			}
			if ev.TraitDirection == "" && ev.Policy.TraitDriven() {
				ev.TraitDirection = DirectionLow
			}
		}
	}

	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.ID] = i
	}
}

// SpeciesByID returns the species with the given id.
func (c *Config) SpeciesByID(id string) (*SpeciesConfig, bool) {
	i, ok := c.Derived.SpeciesIndex[id]
	if !ok {
		return nil, false
	}
	return &c.Species[i], true
}

// Event returns the species event with the given id.
func (s *SpeciesConfig) Event(id string) (EventConfig, bool) {
	for _, ev := range s.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return EventConfig{}, false
}

// HasTrait reports whether the species declares the trait id.
func (s *SpeciesConfig) HasTrait(id string) bool {
	for _, t := range s.Traits {
		if t.ID == id {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
