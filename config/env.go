package config

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// overrideEnv holds raw environment overrides. Empty values leave the
// loaded configuration untouched.
type overrideEnv struct {
	Species             string `env:"EVOLVE_SPECIES"`
	Generations         int    `env:"EVOLVE_GENERATIONS"`
	Chooser             string `env:"EVOLVE_CHOOSER"`
	RestartOnExtinction string `env:"EVOLVE_RESTART_ON_EXTINCTION"`
	StoreBackend        string `env:"EVOLVE_STORE"`
	SQLitePath          string `env:"EVOLVE_SQLITE_PATH"`
	Addr                string `env:"EVOLVE_ADDR"`
}

// ApplyEnv overlays EVOLVE_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var raw overrideEnv
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if raw.Species != "" {
		c.Runner.Species = raw.Species
	}
	if raw.Generations > 0 {
		c.Runner.Generations = raw.Generations
	}
	if raw.Chooser != "" {
		c.Runner.Chooser = raw.Chooser
	}
	if raw.RestartOnExtinction != "" {
		restart, err := strconv.ParseBool(raw.RestartOnExtinction)
		if err != nil {
			return fmt.Errorf("parse EVOLVE_RESTART_ON_EXTINCTION: %w", err)
		}
		c.Runner.RestartOnExtinction = restart
	}
	if raw.StoreBackend != "" {
		c.Storage.Backend = raw.StoreBackend
	}
	if raw.SQLitePath != "" {
		c.Storage.SQLitePath = raw.SQLitePath
	}
	if raw.Addr != "" {
		c.Server.Addr = raw.Addr
	}
	return nil
}
