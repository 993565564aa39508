// Package main provides CMA-ES calibration for selection parameters.
package main

import (
	"github.com/pthm-cable/evolution/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the sigmoid policy parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "steepness", Path: "selection.steepness", Min: 0.02, Max: 0.5, Default: 0.15},
			{Name: "midpoint", Path: "selection.midpoint", Min: 30, Max: 70, Default: 50},
			{Name: "floor", Path: "selection.floor", Min: 0, Max: 0.2, Default: 0.02},
			{Name: "ceiling", Path: "selection.ceiling", Min: 0.8, Max: 1.0, Default: 0.98},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a selection config.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(sel *config.SelectionConfig, values []float64) {
	clamped := pv.Clamp(values)
	sel.Steepness = clamped[0]
	sel.Midpoint = clamped[1]
	sel.Floor = clamped[2]
	sel.Ceiling = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a selection config.
func (pv *ParamVector) ExtractFromConfig(sel config.SelectionConfig) []float64 {
	return []float64{sel.Steepness, sel.Midpoint, sel.Floor, sel.Ceiling}
}
