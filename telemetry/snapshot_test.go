package telemetry

import (
	"errors"
	"os"
	"testing"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/traits"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		RNGSeed:    42,
		SpeciesID:  "bunny",
		Phase:      "showing_results",
		Generation: 3,
		EventID:    "wolves",
		Totals:     Totals{Survived: 10, Lost: 6},
		Rounds:     2,
		Pending:    &RoundRecord{Round: 3, Generation: 3, EventID: "wolves", AliveBefore: 12},
		NextID:     37,
		UsedNames:  []string{"Snowball", "Clover"},
		Individuals: []components.Individual{
			{
				Identity: components.Identity{ID: "bunny-30", Name: "Clover", Generation: 3, ParentID: "bunny-12"},
				Genome:   components.Genome{Traits: traits.Values{"speed": 71, "fur": 44}},
				Vitality: components.Vitality{Alive: true},
			},
		},
		History: []PopulationStats{
			{Generation: 1, AverageTraits: map[string]int{"speed": 52}, PopulationSize: 5, EventID: "cold"},
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.SpeciesID != "bunny" || loaded.Phase != "showing_results" || loaded.Generation != 3 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Totals != snapshot.Totals || loaded.Rounds != 2 || loaded.NextID != 37 {
		t.Errorf("counters mismatch: %+v", loaded)
	}
	if loaded.Pending == nil || loaded.Pending.AliveBefore != 12 {
		t.Errorf("pending round lost: %+v", loaded.Pending)
	}
	if len(loaded.Individuals) != 1 {
		t.Fatalf("got %d individuals, want 1", len(loaded.Individuals))
	}
	ind := loaded.Individuals[0]
	if ind.ID != "bunny-30" || ind.ParentID != "bunny-12" || !ind.Alive || ind.Traits["speed"] != 71 {
		t.Errorf("individual mismatch: %+v", ind)
	}
	if len(loaded.History) != 1 || loaded.History[0].AverageTraits["speed"] != 52 {
		t.Errorf("history mismatch: %+v", loaded.History)
	}
}

func TestSnapshotRejectsOtherVersion(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte(`{"version": 99}`))
	if !errors.Is(err, ErrSnapshotVersion) {
		t.Errorf("err = %v, want ErrSnapshotVersion", err)
	}
}
