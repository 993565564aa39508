// Package main runs one headless game per seed and writes a CSV summary,
// for comparing how a species fares across many random histories.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
)

// SweepRecord is one row of the sweep summary.
type SweepRecord struct {
	Seed          int64  `csv:"seed"`
	Generations   int    `csv:"generations"`
	Extinct       bool   `csv:"extinct"`
	Survived      int    `csv:"total_survived"`
	Lost          int    `csv:"total_lost"`
	FinalAlive    int    `csv:"final_alive"`
	AverageTraits string `csv:"average_traits"`
}

// formatAverages renders trait averages as "a=1;b=2" in key order.
func formatAverages(avgs map[string]int) string {
	keys := make([]string, 0, len(avgs))
	for k := range avgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, avgs[k])
	}
	return strings.Join(parts, ";")
}

// runSeed plays one game to completion without pacing.
func runSeed(ctx context.Context, cfg *config.Config, seed int64, logger *slog.Logger) (SweepRecord, error) {
	g, err := game.NewGame(cfg, game.Options{Seed: seed, Logger: logger})
	if err != nil {
		return SweepRecord{}, err
	}
	defer g.Close()

	runner, err := game.NewRunner(g, config.RunnerConfig{
		Generations: cfg.Runner.Generations,
		Chooser:     cfg.Runner.Chooser,
	}, config.PacingConfig{})
	if err != nil {
		return SweepRecord{}, err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	return SweepRecord{
		Seed:          seed,
		Generations:   res.Generations,
		Extinct:       res.Extinctions > 0,
		Survived:      res.Totals.Survived,
		Lost:          res.Totals.Lost,
		FinalAlive:    res.Final.AliveCount,
		AverageTraits: formatAverages(res.Final.AverageTraits),
	}, nil
}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	species := flag.String("species", "", "Species to simulate (empty = use config)")
	generations := flag.Int("generations", 20, "Generations per run (0 = until extinction)")
	chooser := flag.String("chooser", "random", "Event chooser: random, cycle or fixed:<event id>")
	seeds := flag.Int("seeds", 16, "Number of seeds")
	firstSeed := flag.Int64("first-seed", 1, "First seed; later seeds count up from it")
	workers := flag.Int("workers", 4, "Parallel games")
	output := flag.String("output", "sweep.csv", "Summary CSV path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *species != "" {
		cfg.Runner.Species = *species
	}
	cfg.Runner.Generations = *generations
	cfg.Runner.Chooser = *chooser

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *workers < 1 {
		*workers = 1
	}

	records := make([]SweepRecord, *seeds)
	errs := make([]error, *seeds)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i], errs[i] = runSeed(ctx, cfg, *firstSeed+int64(i), logger)
			}
		}()
	}
	for i := 0; i < *seeds; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	done := records[:0]
	for i, rec := range records {
		if errs[i] != nil {
			slog.Error("run failed", "seed", *firstSeed+int64(i), "error", errs[i])
			continue
		}
		done = append(done, rec)
	}

	f, err := os.Create(*output)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&done, f); err != nil {
		slog.Error("failed to write summary", "error", err)
		os.Exit(1)
	}

	extinct := 0
	for _, rec := range done {
		if rec.Extinct {
			extinct++
		}
	}
	fmt.Printf("%d runs of %s written to %s (%d extinct)\n", len(done), cfg.Runner.Species, *output, extinct)
}
