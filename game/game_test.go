package game

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/telemetry"
)

const hareYAML = `
species:
  - id: hare
    name: Hare
    initial_population: 8
    population_cap: 12
    breeding: {min: 3, max: 3}
    traits:
      - {id: speed, name: Speed}
    events:
      - {id: wolves, name: Wolves, dangerous_trait: speed, trait_direction: low}
      - {id: heat, name: Heat, dangerous_trait: speed, trait_direction: high, policy: linear}
      - {id: calm, name: Calm, policy: flat, flat_chance: 1}
    names: [A, B, C, D, E, F, G, H, I, J]
`

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(hareYAML + extra))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, seed int64) *Game {
	t.Helper()
	g, err := NewGame(cfg, Options{Seed: seed, Species: "hare", Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	t.Cleanup(func() {
		_ = g.Close()
	})
	return g
}

// mustState wraps a command result, failing the test on error:
// mustState(t)(g.StartRun()).
func mustState(t *testing.T) func(State, error) State {
	t.Helper()
	return func(s State, err error) State {
		t.Helper()
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
		return s
	}
}

func TestNewGameUnknownSpecies(t *testing.T) {
	_, err := NewGame(testConfig(t, ""), Options{Species: "dodo"})
	if !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("err = %v, want ErrUnknownSpecies", err)
	}
}

func TestStartRun(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 1)
	if g.Phase() != PhaseIdle {
		t.Fatalf("new game phase = %s, want idle", g.Phase())
	}

	s := mustState(t)(g.StartRun())
	if s.Phase != PhaseSelectingEvent || s.Generation != 1 {
		t.Errorf("phase/generation = %s/%d, want selecting_event/1", s.Phase, s.Generation)
	}
	if len(s.Population) != 8 || s.AliveCount != 8 {
		t.Errorf("population = %d (alive %d), want 8", len(s.Population), s.AliveCount)
	}
	if s.TotalSurvived != 0 || s.TotalLost != 0 || len(s.History) != 0 || s.CurrentEvent != nil {
		t.Errorf("fresh run carries state: %+v", s)
	}
	for _, ind := range s.Population {
		if ind.Generation != 1 || ind.ParentID != "" {
			t.Errorf("founder %s generation %d parent %q", ind.ID, ind.Generation, ind.ParentID)
		}
	}
}

func TestInvalidCommandsLeaveStateUnchanged(t *testing.T) {
	cfg := testConfig(t, "")

	tests := []struct {
		name    string
		setup   func(g *Game)
		command func(g *Game) (State, error)
		wantErr error
	}{
		{"choose while idle", func(g *Game) {},
			func(g *Game) (State, error) { return g.ChooseEvent("wolves") }, ErrInvalidCommand},
		{"show while idle", func(g *Game) {},
			func(g *Game) (State, error) { return g.ShowResults() }, ErrInvalidCommand},
		{"advance while idle", func(g *Game) {},
			func(g *Game) (State, error) { return g.AdvanceAfterResults() }, ErrInvalidCommand},
		{"show before choosing", func(g *Game) { g.StartRun() },
			func(g *Game) (State, error) { return g.ShowResults() }, ErrInvalidCommand},
		{"advance before choosing", func(g *Game) { g.StartRun() },
			func(g *Game) (State, error) { return g.AdvanceAfterResults() }, ErrInvalidCommand},
		{"unknown event", func(g *Game) { g.StartRun() },
			func(g *Game) (State, error) { return g.ChooseEvent("meteor") }, ErrUnknownEvent},
		{"choose twice", func(g *Game) { g.StartRun(); g.ChooseEvent("calm") },
			func(g *Game) (State, error) { return g.ChooseEvent("calm") }, ErrInvalidCommand},
		{"choose while showing results", func(g *Game) { g.StartRun(); g.ChooseEvent("calm"); g.ShowResults() },
			func(g *Game) (State, error) { return g.ChooseEvent("wolves") }, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, cfg, 3)
			tt.setup(g)
			before := g.State()

			after, err := tt.command(g)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(before, after) || !reflect.DeepEqual(before, g.State()) {
				t.Errorf("state changed by rejected command")
			}
		})
	}
}

func TestShowResultsCountsOnce(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 4)
	g.StartRun()

	chosen := mustState(t)(g.ChooseEvent("wolves"))
	if chosen.Phase != PhaseApplyingSelection || chosen.Round == nil {
		t.Fatalf("after choose: phase %s round %v", chosen.Phase, chosen.Round)
	}
	if chosen.TotalSurvived+chosen.TotalLost != 0 {
		t.Errorf("totals counted before reveal: %d/%d", chosen.TotalSurvived, chosen.TotalLost)
	}

	first := mustState(t)(g.ShowResults())
	second := mustState(t)(g.ShowResults())
	if first.TotalSurvived != second.TotalSurvived || first.TotalLost != second.TotalLost {
		t.Errorf("ShowResults counted twice: %d/%d then %d/%d",
			first.TotalSurvived, first.TotalLost, second.TotalSurvived, second.TotalLost)
	}
	if first.TotalSurvived+first.TotalLost != 8 {
		t.Errorf("survived %d + lost %d != 8", first.TotalSurvived, first.TotalLost)
	}
	if first.TotalSurvived != first.AliveCount {
		t.Errorf("TotalSurvived = %d, alive = %d", first.TotalSurvived, first.AliveCount)
	}
}

func TestAdvanceRevealsImplicitly(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 5)
	g.StartRun()
	g.ChooseEvent("calm")

	s := mustState(t)(g.AdvanceAfterResults())
	if s.Phase != PhaseSelectingEvent || s.Generation != 2 {
		t.Fatalf("phase/generation = %s/%d, want selecting_event/2", s.Phase, s.Generation)
	}
	if s.TotalSurvived != 8 || s.TotalLost != 0 {
		t.Errorf("totals = %d/%d, want 8/0", s.TotalSurvived, s.TotalLost)
	}
}

func TestAccountingAcrossGenerations(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 6)
	s := mustState(t)(g.StartRun())

	events := []string{"wolves", "heat", "calm"}
	sumBefore := 0
	for round := 0; round < 30 && !s.Extinct; round++ {
		gen := s.Generation
		parents := make(map[string]bool)
		for _, ind := range s.Population {
			parents[ind.ID] = true
		}

		sumBefore += s.AliveCount
		mustState(t)(g.ChooseEvent(events[round%len(events)]))
		shown := mustState(t)(g.ShowResults())
		if shown.TotalSurvived+shown.TotalLost != sumBefore {
			t.Fatalf("round %d: survived %d + lost %d != %d",
				round, shown.TotalSurvived, shown.TotalLost, sumBefore)
		}

		s = mustState(t)(g.AdvanceAfterResults())
		if s.Extinct {
			break
		}
		if s.Generation != gen+1 {
			t.Fatalf("generation = %d, want %d", s.Generation, gen+1)
		}
		if len(s.Population) > 12 {
			t.Fatalf("population %d exceeds cap", len(s.Population))
		}
		for _, ind := range s.Population {
			if ind.Generation != s.Generation || !ind.Alive {
				t.Fatalf("newborn %s: generation %d alive %v", ind.ID, ind.Generation, ind.Alive)
			}
			if !parents[ind.ParentID] {
				t.Fatalf("newborn %s has parent %q outside previous roster", ind.ID, ind.ParentID)
			}
			if v := ind.Traits["speed"]; v < 0 || v > 100 {
				t.Fatalf("trait out of range: %d", v)
			}
		}

		last := s.History[len(s.History)-1]
		if last.Generation != gen || last.PopulationSize != shown.AliveCount {
			t.Errorf("history entry %+v, want generation %d size %d", last, gen, shown.AliveCount)
		}
		if s.CurrentEvent != nil {
			t.Error("current event not cleared after breeding")
		}
	}
}

func TestBreedingCap(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 7)
	g.StartRun()
	g.ChooseEvent("calm")
	g.ShowResults()

	s := mustState(t)(g.AdvanceAfterResults())
	if len(s.Population) != 12 {
		t.Errorf("population = %d, want 12 (8 parents x 3 offspring capped)", len(s.Population))
	}
	if len(s.History) != 1 || s.History[0].PopulationSize != 8 || s.History[0].EventID != "calm" {
		t.Errorf("history = %+v", s.History)
	}
}

func TestExtinction(t *testing.T) {
	cfg := testConfig(t, "selection: {floor: 0, ceiling: 0}\n")
	g := newTestGame(t, cfg, 8)
	g.StartRun()
	g.ChooseEvent("wolves")
	g.ShowResults()

	s := mustState(t)(g.AdvanceAfterResults())
	if !s.Extinct || s.Phase != PhaseIdle {
		t.Fatalf("extinct/phase = %v/%s, want true/idle", s.Extinct, s.Phase)
	}
	if s.AliveCount != 0 || s.TotalLost != 8 || s.TotalSurvived != 0 {
		t.Errorf("alive %d, totals %d/%d", s.AliveCount, s.TotalSurvived, s.TotalLost)
	}
	if len(s.History) != 0 {
		t.Errorf("history = %+v, want empty", s.History)
	}

	// A new run is possible from idle
	s = mustState(t)(g.StartRun())
	if s.Extinct || s.Phase != PhaseSelectingEvent || s.AliveCount != 8 {
		t.Errorf("restart state: extinct %v phase %s alive %d", s.Extinct, s.Phase, s.AliveCount)
	}
}

func TestStartRunResetsMidRun(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 9)
	g.StartRun()
	g.ChooseEvent("calm")
	g.AdvanceAfterResults()
	g.ChooseEvent("wolves")

	s := mustState(t)(g.StartRun())
	if s.Generation != 1 || s.TotalSurvived != 0 || s.TotalLost != 0 || len(s.History) != 0 {
		t.Errorf("StartRun did not reset: %+v", s)
	}
	if s.Round != nil {
		t.Errorf("round carried over: %+v", s.Round)
	}
}

func TestSurvivalFrequencies(t *testing.T) {
	g := newTestGame(t, testConfig(t, ""), 10)

	var fast, fastSurvived, slow, slowSurvived int
	for trial := 0; trial < 1000; trial++ {
		g.StartRun()
		s := mustState(t)(g.ChooseEvent("wolves"))
		for _, ind := range s.Population {
			switch speed := ind.Traits["speed"]; {
			case speed >= 80:
				fast++
				if ind.Alive {
					fastSurvived++
				}
			case speed <= 20:
				slow++
				if ind.Alive {
					slowSurvived++
				}
			}
		}
	}

	if fast == 0 || slow == 0 {
		t.Fatalf("no extreme founders sampled: fast %d slow %d", fast, slow)
	}
	fastRate := float64(fastSurvived) / float64(fast)
	slowRate := float64(slowSurvived) / float64(slow)
	if fastRate < 0.90 {
		t.Errorf("fast survival = %.3f over %d, want ~0.95", fastRate, fast)
	}
	if slowRate > 0.10 {
		t.Errorf("slow survival = %.3f over %d, want ~0.05", slowRate, slow)
	}
}

func TestOutputFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	g, err := NewGame(testConfig(t, ""), Options{
		Seed:      11,
		Species:   "hare",
		OutputDir: dir,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatal(err)
	}

	g.StartRun()
	for i := 0; i < 3; i++ {
		g.ChooseEvent("calm")
		g.ShowResults()
		g.AdvanceAfterResults()
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"history.csv", "traits.csv", "rounds.csv", "perf.csv", "config.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if name == "config.yaml" {
			continue
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Errorf("%s has %d lines, want header + 3", name, len(lines))
		}
	}
}

func TestCrashRoundIsBookmarked(t *testing.T) {
	cfg := testConfig(t, "\nselection: {floor: 0.25, ceiling: 0.25}\n")
	snapDir := t.TempDir()
	g, err := NewGame(cfg, Options{Seed: 5, Species: "hare", SnapshotDir: snapDir, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	for try := 0; try < 50; try++ {
		g.StartRun()
		s := mustState(t)(g.ChooseEvent("wolves"))
		if s.Round.Survived < 1 || s.Round.Survived > 3 {
			continue
		}
		s = mustState(t)(g.AdvanceAfterResults())
		found := false
		for _, bm := range s.Bookmarks {
			if bm.Type == telemetry.BookmarkPopulationCrash && bm.Generation == 1 {
				found = true
			}
		}
		if !found {
			t.Errorf("no population_crash bookmark after %d of 8 survived: %+v", s.History[0].PopulationSize, s.Bookmarks)
		}

		snap, err := telemetry.LoadSnapshot(filepath.Join(snapDir, "snapshot_hare_gen2.json"))
		if err != nil {
			t.Fatalf("bookmark snapshot: %v", err)
		}
		if snap.Bookmark == nil || snap.Phase != string(PhaseSelectingEvent) {
			t.Errorf("snapshot bookmark/phase = %v/%s", snap.Bookmark, snap.Phase)
		}
		return
	}
	t.Fatal("no round with 1-3 survivors in 50 tries")
}
