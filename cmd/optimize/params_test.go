package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/evolution/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	var sel config.SelectionConfig
	pv.ApplyToConfig(&sel, []float64{5, 10, -1, 2})

	want := []float64{0.5, 30, 0, 1}
	got := pv.ExtractFromConfig(sel)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestEvaluatePrefersTarget(t *testing.T) {
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 3, []int64{1, 2}, 0.6, cfg)

	fitness := fe.Evaluate(pv.DefaultVector())
	if math.IsInf(fitness, 0) || math.IsNaN(fitness) {
		t.Fatalf("fitness = %v", fitness)
	}
	rate, extinct, contrast := fe.LastMetrics()
	if rate < 0 || rate > 1 || extinct < 0 || extinct > 1 {
		t.Errorf("metrics out of range: rate %v extinct %v", rate, extinct)
	}
	if contrast <= 0 {
		t.Errorf("contrast = %v, want positive", contrast)
	}
}
