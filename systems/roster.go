// Package systems contains the roster, breeding and selection systems.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evolution/components"
)

// Roster holds the current generation as ECS entities.
// Entity order is preserved so that selection draws are reproducible for a
// fixed seed.
type Roster struct {
	world *ecs.World

	mapper *ecs.Map3[
		components.Identity,
		components.Genome,
		components.Vitality,
	]
	vitalityFilter *ecs.Filter1[components.Vitality]

	entities []ecs.Entity
}

// NewRoster creates an empty roster with its own ECS world.
func NewRoster() *Roster {
	world := ecs.NewWorld()
	return &Roster{
		world: world,
		mapper: ecs.NewMap3[
			components.Identity,
			components.Genome,
			components.Vitality,
		](world),
		vitalityFilter: ecs.NewFilter1[components.Vitality](world),
	}
}

// Add appends an individual and returns its entity.
func (r *Roster) Add(ind components.Individual) ecs.Entity {
	id := ind.Identity
	genome := components.Genome{Traits: ind.Traits.Clone()}
	vit := ind.Vitality
	entity := r.mapper.NewEntity(&id, &genome, &vit)
	r.entities = append(r.entities, entity)
	return entity
}

// Len returns the roster size, dead individuals included.
func (r *Roster) Len() int {
	return len(r.entities)
}

// Get returns the components of the i-th individual.
func (r *Roster) Get(i int) (*components.Identity, *components.Genome, *components.Vitality) {
	return r.mapper.Get(r.entities[i])
}

// Individual returns a copy of the i-th individual.
func (r *Roster) Individual(i int) components.Individual {
	id, genome, vit := r.Get(i)
	return components.Individual{
		Identity: *id,
		Genome:   components.Genome{Traits: genome.Traits.Clone()},
		Vitality: *vit,
	}
}

// Individuals returns copies of every individual in roster order.
func (r *Roster) Individuals() []components.Individual {
	out := make([]components.Individual, len(r.entities))
	for i := range r.entities {
		out[i] = r.Individual(i)
	}
	return out
}

// Survivors returns copies of the alive individuals in roster order.
func (r *Roster) Survivors() []components.Individual {
	var out []components.Individual
	for i := range r.entities {
		_, _, vit := r.Get(i)
		if vit.Alive {
			out = append(out, r.Individual(i))
		}
	}
	return out
}

// AliveCount counts alive individuals.
func (r *Roster) AliveCount() int {
	n := 0
	query := r.vitalityFilter.Query()
	for query.Next() {
		vit := query.Get()
		if vit.Alive {
			n++
		}
	}
	return n
}

// Replace swaps the whole roster for next in one step.
func (r *Roster) Replace(next []components.Individual) {
	r.Clear()
	for _, ind := range next {
		r.Add(ind)
	}
}

// Clear removes every individual.
func (r *Roster) Clear() {
	for _, e := range r.entities {
		r.mapper.Remove(e)
	}
	r.entities = r.entities[:0]
}
