// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/evolution/traits"

// Identity holds the immutable lineage data of an individual.
type Identity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
	ParentID   string `json:"parent_id,omitempty"` // Empty for founders
}

// Genome holds an individual's trait values.
type Genome struct {
	Traits traits.Values `json:"traits"`
}

// Vitality holds whether the individual survived the current round.
// Alive only ever goes from true to false.
type Vitality struct {
	Alive bool `json:"is_alive"`
}

// Individual is the flattened view of one roster entity.
// It marshals to {id, name, generation, parent_id, traits, is_alive}.
type Individual struct {
	Identity
	Genome
	Vitality
}
