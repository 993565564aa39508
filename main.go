package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/game"
	"github.com/pthm-cable/evolution/server"
	"github.com/pthm-cable/evolution/storage"
	"github.com/pthm-cable/evolution/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	species := flag.String("species", "", "Species to simulate (empty = use config)")
	generations := flag.Int("generations", -1, "Generations to breed (-1 = use config, 0 = until extinction)")
	chooser := flag.String("chooser", "", "Event chooser: random, cycle or fixed:<event id> (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark and final snapshots")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	fast := flag.Bool("fast", false, "Skip pacing delays")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of running headless")
	addr := flag.String("addr", "", "HTTP listen address (empty = use config)")
	debug := flag.Bool("debug", false, "Log phase transitions")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		slog.Error("failed to apply environment", "error", err)
		os.Exit(1)
	}

	// CLI flags win over config and environment
	if *species != "" {
		cfg.Runner.Species = *species
	}
	if *generations >= 0 {
		cfg.Runner.Generations = *generations
	}
	if *chooser != "" {
		cfg.Runner.Chooser = *chooser
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *fast {
		cfg.Pacing = config.PacingConfig{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if err := runServer(ctx, cfg, logger); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.NewGame(cfg, game.Options{
		Seed:        rngSeed,
		Species:     cfg.Runner.Species,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		Logger:      logger,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	runner, err := game.NewRunner(g, cfg.Runner, cfg.Pacing)
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	if *resume != "" {
		snap, err := telemetry.LoadSnapshot(*resume)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		runner.ResumeFrom(snap)
	}

	slog.Info("starting headless run",
		"seed", rngSeed,
		"species", cfg.Runner.Species,
		"generations", cfg.Runner.Generations,
		"chooser", cfg.Runner.Chooser,
	)

	res, err := runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("run finished", "result", res)

	if *snapshotDir != "" {
		if _, err := g.SaveSnapshot(*snapshotDir); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		}
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	return server.New(cfg, store, logger).ListenAndServe(ctx, cfg.Server.Addr)
}
