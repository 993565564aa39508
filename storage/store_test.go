package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/telemetry"
	"github.com/pthm-cable/evolution/traits"
)

func testRun(id string, created time.Time, generation int) Run {
	return Run{
		ID:        id,
		SpeciesID: "bunny",
		CreatedAt: created,
		UpdatedAt: created,
		Snapshot: &telemetry.Snapshot{
			Version:    telemetry.SnapshotVersion,
			RNGSeed:    7,
			SpeciesID:  "bunny",
			Phase:      "selecting_event",
			Generation: generation,
			NextID:     9,
			Individuals: []components.Individual{{
				Identity: components.Identity{ID: "bunny-1", Name: "Clover", Generation: generation},
				Genome:   components.Genome{Traits: traits.Values{"speed": 61}},
				Vitality: components.Vitality{Alive: true},
			}},
		},
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	t.Cleanup(func() {
		_ = sqlite.Close()
	})
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}

			base := time.Unix(1700000000, 0)
			first := testRun(uuid.NewString(), base, 1)
			second := testRun(uuid.NewString(), base.Add(time.Minute), 1)
			for _, run := range []Run{first, second} {
				if err := store.SaveRun(ctx, run); err != nil {
					t.Fatalf("save run: %v", err)
				}
			}

			loaded, ok, err := store.GetRun(ctx, first.ID)
			if err != nil {
				t.Fatalf("get run: %v", err)
			}
			if !ok {
				t.Fatalf("expected run %s", first.ID)
			}
			if loaded.SpeciesID != "bunny" || !loaded.CreatedAt.Equal(base) {
				t.Fatalf("unexpected run loaded: %+v", loaded)
			}
			if loaded.Snapshot.NextID != 9 || loaded.Snapshot.Individuals[0].Traits["speed"] != 61 {
				t.Fatalf("unexpected snapshot loaded: %+v", loaded.Snapshot)
			}

			// Overwrite keeps the creation time
			updated := testRun(first.ID, base, 4)
			updated.UpdatedAt = base.Add(time.Hour)
			if err := store.SaveRun(ctx, updated); err != nil {
				t.Fatalf("update run: %v", err)
			}
			loaded, _, err = store.GetRun(ctx, first.ID)
			if err != nil {
				t.Fatalf("get updated run: %v", err)
			}
			if loaded.Snapshot.Generation != 4 || !loaded.CreatedAt.Equal(base) {
				t.Fatalf("update not applied: gen=%d created=%v", loaded.Snapshot.Generation, loaded.CreatedAt)
			}

			ids, err := store.ListRuns(ctx)
			if err != nil {
				t.Fatalf("list runs: %v", err)
			}
			if len(ids) != 2 || ids[0] != first.ID || ids[1] != second.ID {
				t.Fatalf("ListRuns = %v, want [%s %s]", ids, first.ID, second.ID)
			}

			if err := store.DeleteRun(ctx, first.ID); err != nil {
				t.Fatalf("delete run: %v", err)
			}
			if _, ok, err := store.GetRun(ctx, first.ID); err != nil || ok {
				t.Fatalf("deleted run still present: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			_, ok, err := store.GetRun(ctx, "nope")
			if err != nil || ok {
				t.Fatalf("GetRun(missing) = ok %v, err %v", ok, err)
			}
		})
	}
}

func TestSaveBeforeInitFails(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.SaveRun(ctx, testRun("r1", time.Unix(1, 0), 1))
			if !errors.Is(err, errStoreClosed) {
				t.Fatalf("SaveRun before Init = %v, want errStoreClosed", err)
			}
		})
	}
}

func TestSQLiteStoreReopens(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if err := store.SaveRun(ctx, testRun("r1", time.Unix(1, 0), 3)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, _, err := store.GetRun(ctx, "r1"); !errors.Is(err, errStoreClosed) {
		t.Fatalf("GetRun after Close = %v, want errStoreClosed", err)
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	run, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("GetRun after reopen = ok %v, err %v", ok, err)
	}
	if run.Snapshot.Generation != 3 {
		t.Fatalf("generation = %d, want 3", run.Snapshot.Generation)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("Init with empty path succeeded")
	}
}

func TestMemoryStoreDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}

	run := testRun("r1", time.Unix(1, 0), 1)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Snapshot.Individuals[0].Traits["speed"] = 0

	loaded, _, err := store.GetRun(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Snapshot.Individuals[0].Traits["speed"] != 61 {
		t.Error("stored snapshot changed through caller copy")
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if err := store.SaveRun(context.Background(), testRun("r", time.Now(), 1)); err == nil {
		t.Fatal("expected error before Init")
	}
}
