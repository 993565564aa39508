package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/evolution/config"
)

func TestNewChooser(t *testing.T) {
	cfg := testConfig(t, "")
	species, _ := cfg.SpeciesByID("hare")
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"random", false},
		{"cycle", false},
		{"fixed:wolves", false},
		{"fixed:meteor", true},
		{"roulette", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChooser(tt.name, species, rng)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewChooser(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestCycleChooserOrder(t *testing.T) {
	cfg := testConfig(t, "")
	species, _ := cfg.SpeciesByID("hare")
	c := &CycleChooser{}

	want := []string{"wolves", "heat", "calm", "wolves"}
	for i, w := range want {
		if got := c.Choose(species, State{}); got != w {
			t.Errorf("choice %d = %s, want %s", i, got, w)
		}
	}
}

func TestRunnerGenerationLimit(t *testing.T) {
	cfg := testConfig(t, "")
	g := newTestGame(t, cfg, 31)
	r, err := NewRunner(g, config.RunnerConfig{Generations: 5, Chooser: "fixed:calm"}, config.PacingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 5 || res.Extinctions != 0 {
		t.Errorf("result = %+v, want 5 generations, no extinction", res)
	}
	if res.Final.Generation != 6 || res.Final.Phase != PhaseSelectingEvent {
		t.Errorf("final generation/phase = %d/%s, want 6/selecting_event", res.Final.Generation, res.Final.Phase)
	}
	if len(res.Final.History) != 5 {
		t.Errorf("history has %d entries, want 5", len(res.Final.History))
	}
}

func TestRunnerStopsOnExtinction(t *testing.T) {
	cfg := testConfig(t, "selection: {floor: 0, ceiling: 0}\n")
	g := newTestGame(t, cfg, 32)
	r, err := NewRunner(g, config.RunnerConfig{Generations: 10, Chooser: "fixed:wolves"}, config.PacingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Extinctions != 1 || res.Generations != 0 {
		t.Errorf("result = %+v, want one extinction", res)
	}
	if !res.Final.Extinct || res.Final.Phase != PhaseIdle {
		t.Errorf("final extinct/phase = %v/%s", res.Final.Extinct, res.Final.Phase)
	}
	if res.Totals.Lost != 8 {
		t.Errorf("lost = %d, want 8", res.Totals.Lost)
	}
}

func TestRunnerRestartsOnExtinction(t *testing.T) {
	cfg := testConfig(t, "selection: {floor: 0, ceiling: 0}\n")
	g := newTestGame(t, cfg, 33)
	r, err := NewRunner(g, config.RunnerConfig{
		Generations:         2,
		Chooser:             "cycle",
		RestartOnExtinction: true,
	}, config.PacingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	// The cycle alternates deadly events with a calm year, so runs
	// keep dying and restarting until two generations have been bred.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Extinctions == 0 {
		t.Error("expected at least one extinction")
	}
	if res.Generations != 2 {
		t.Errorf("generations = %d, want 2", res.Generations)
	}
}

func TestRunnerHonorsContext(t *testing.T) {
	cfg := testConfig(t, "")
	g := newTestGame(t, cfg, 34)
	r, err := NewRunner(g, config.RunnerConfig{Chooser: "random"}, config.PacingConfig{Selection: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.Final.Phase != PhaseSelectingEvent {
		t.Errorf("phase = %s, want selecting_event", res.Final.Phase)
	}
}

func TestRunnerResumesMidRound(t *testing.T) {
	cfg := testConfig(t, "")
	src := newTestGame(t, cfg, 35)
	src.StartRun()
	src.ChooseEvent("calm")
	snap := src.Snapshot()

	g := newTestGame(t, cfg, 1)
	r, err := NewRunner(g, config.RunnerConfig{Generations: 2, Chooser: "fixed:calm"}, config.PacingConfig{})
	if err != nil {
		t.Fatal(err)
	}
	r.ResumeFrom(snap)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The resumed round completes, then one more generation is bred
	if res.Final.Generation != 3 || res.Generations != 2 {
		t.Errorf("final generation %d after %d bred, want 3 after 2", res.Final.Generation, res.Generations)
	}
	if res.Totals.Survived != 8+12 {
		t.Errorf("total survived = %d, want 20", res.Totals.Survived)
	}
}
