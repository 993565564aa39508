package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
	"github.com/pthm-cable/evolution/systems"
)

// Fitness weights
const (
	extinctionPenalty = 1.0 // Added per extinct seed
	contrastWeight    = 0.1 // Reward for chance(80) - chance(20)
)

// FitnessEvaluator runs headless games and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	target      float64 // Desired mean per-round survival rate
	baseConfig  *config.Config

	mu           sync.Mutex
	lastRate     float64
	lastExtinct  float64
	lastContrast float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, target float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		target:      target,
		baseConfig:  baseCfg,
	}
}

// LastMetrics returns survival rate, extinct fraction and contrast from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastMetrics() (rate, extinct, contrast float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRate, fe.lastExtinct, fe.lastContrast
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	rate    float64
	extinct bool
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the squared distance of the survival rate from the target,
// plus a penalty per extinction, minus a small reward for trait contrast.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(&cfg.Selection, x)

	// Run all seeds in parallel; games share the read-only config
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runGame(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var rateSum, extinct float64
	for _, r := range results {
		if r.err != nil {
			slog.Error("evaluation failed", "error", r.err)
			return math.Inf(1)
		}
		rateSum += r.rate
		if r.extinct {
			extinct++
		}
	}

	n := float64(len(fe.seeds))
	rate := rateSum / n
	contrast := systems.SigmoidChance(cfg.Selection, 80) - systems.SigmoidChance(cfg.Selection, 20)

	fe.mu.Lock()
	fe.lastRate = rate
	fe.lastExtinct = extinct / n
	fe.lastContrast = contrast
	fe.mu.Unlock()

	d := rate - fe.target
	return d*d + extinctionPenalty*extinct/n - contrastWeight*contrast
}

// runGame plays one seed for the configured number of generations.
func (fe *FitnessEvaluator) runGame(cfg *config.Config, seed int64) seedResult {
	g, err := game.NewGame(cfg, game.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		return seedResult{err: err}
	}
	defer g.Close()

	runner, err := game.NewRunner(g, config.RunnerConfig{
		Generations: fe.generations,
		Chooser:     "random",
	}, config.PacingConfig{})
	if err != nil {
		return seedResult{err: err}
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		return seedResult{err: err}
	}

	total := res.Totals.Survived + res.Totals.Lost
	if total == 0 {
		return seedResult{extinct: res.Extinctions > 0}
	}
	return seedResult{
		rate:    float64(res.Totals.Survived) / float64(total),
		extinct: res.Extinctions > 0,
	}
}

// copyConfig returns a shallow copy of the base config. Species tables are
// shared and never written during a run.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
