// Package traits defines heritable trait descriptors and trait value sampling.
package traits

import "sort"

// Min and Max bound every trait value.
const (
	Min = 0
	Max = 100
)

// Spec describes one trait axis of a species.
type Spec struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Emoji string `yaml:"emoji" json:"emoji,omitempty"`
	// LowIsGood inverts the display rating only. Survival math ignores it.
	LowIsGood bool `yaml:"low_is_good" json:"low_is_good,omitempty"`
}

// Values maps trait IDs to integer trait values in [Min, Max].
type Values map[string]int

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Keys returns the trait IDs in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clamp limits a value to [Min, Max].
func Clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// Rating is a display label for a trait value.
type Rating struct {
	Label string `json:"label"`
	Tier  int    `json:"tier"` // 0 (worst) .. 4 (best)
}

// Rate buckets a trait value into five display tiers, honoring LowIsGood.
func Rate(value int, spec Spec) Rating {
	if spec.LowIsGood {
		switch {
		case value <= 20:
			return Rating{Label: "Tiny!", Tier: 4}
		case value <= 40:
			return Rating{Label: "Small", Tier: 3}
		case value <= 60:
			return Rating{Label: "Medium", Tier: 2}
		case value <= 80:
			return Rating{Label: "Large", Tier: 1}
		default:
			return Rating{Label: "Huge!", Tier: 0}
		}
	}

	switch {
	case value >= 80:
		return Rating{Label: "Amazing!", Tier: 4}
	case value >= 60:
		return Rating{Label: "Good", Tier: 3}
	case value >= 40:
		return Rating{Label: "Average", Tier: 2}
	case value >= 20:
		return Rating{Label: "Poor", Tier: 1}
	default:
		return Rating{Label: "Weak", Tier: 0}
	}
}
