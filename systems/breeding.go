package systems

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/traits"
)

// FounderMean is the trait mean of a fresh population.
const FounderMean = 50

// Breeder creates founders and offspring for one species.
// It owns the run's id counter and name pool.
type Breeder struct {
	species *config.SpeciesConfig
	rng     *rand.Rand
	sampler *traits.Sampler
	names   *NamePool
	nextID  uint64
}

// NewBreeder creates a breeder for species drawing from rng.
func NewBreeder(species *config.SpeciesConfig, rng *rand.Rand) *Breeder {
	return &Breeder{
		species: species,
		rng:     rng,
		sampler: traits.NewSampler(rng),
		names:   NewNamePool(species.Names, rng),
		nextID:  1,
	}
}

// Names returns the breeder's name pool.
func (b *Breeder) Names() *NamePool {
	return b.names
}

// NextIDValue returns the counter value the next individual will receive.
func (b *Breeder) NextIDValue() uint64 {
	return b.nextID
}

// SetNextID moves the id counter, used when resuming a saved run.
func (b *Breeder) SetNextID(n uint64) {
	if n > b.nextID {
		b.nextID = n
	}
}

func (b *Breeder) newID() string {
	id := fmt.Sprintf("%s-%d", b.species.ID, b.nextID)
	b.nextID++
	return id
}

// Founders creates size generation-1 individuals with independent traits
// drawn around FounderMean with the species' initial variance.
func (b *Breeder) Founders(size int) []components.Individual {
	out := make([]components.Individual, size)
	for i := range out {
		out[i] = b.Founder()
	}
	return out
}

// Founder creates one generation-1 individual.
func (b *Breeder) Founder() components.Individual {
	ind := components.Individual{
		Identity: components.Identity{
			ID:         b.newID(),
			Name:       b.names.Draw(),
			Generation: 1,
		},
		Genome:   components.Genome{Traits: make(traits.Values, len(b.species.Traits))},
		Vitality: components.Vitality{Alive: true},
	}
	for _, t := range b.species.Traits {
		ind.Traits[t.ID] = b.sampler.Sample(FounderMean, b.species.InitialVariance)
	}
	return ind
}

// Offspring creates a child of parent at the given generation.
// Each trait independently mutates with the species' mutation chance.
func (b *Breeder) Offspring(parent components.Individual, generation int) components.Individual {
	inh := b.species.Inheritance

	child := components.Individual{
		Identity: components.Identity{
			ID:         b.newID(),
			Name:       b.names.Draw(),
			Generation: generation,
			ParentID:   parent.ID,
		},
		Genome:   components.Genome{Traits: make(traits.Values, len(b.species.Traits))},
		Vitality: components.Vitality{Alive: true},
	}
	for _, t := range b.species.Traits {
		variance := inh.NormalVariance
		if b.rng.Float64() < inh.MutationChance {
			variance = inh.MutationVariance
		}
		child.Traits[t.ID] = b.sampler.Sample(float64(parent.Traits[t.ID]), variance)
	}
	return child
}

// OffspringCount draws a uniform count in the species' breeding range.
func (b *Breeder) OffspringCount() int {
	r := b.species.Breeding
	return r.Min + b.rng.Intn(r.Max-r.Min+1)
}

// Breed produces generation from survivors. Every parent gets
// OffspringCount children; the brood is then cut down to the species
// population cap by uniform random discard.
func (b *Breeder) Breed(survivors []components.Individual, generation int) []components.Individual {
	var brood []components.Individual
	for _, parent := range survivors {
		n := b.OffspringCount()
		for i := 0; i < n; i++ {
			brood = append(brood, b.Offspring(parent, generation))
		}
	}
	return CapPopulation(brood, b.species.PopulationCap, b.rng)
}

// CapPopulation keeps a uniformly random subset of size limit, preserving
// the relative order of kept individuals. No fitness weighting applies.
func CapPopulation(brood []components.Individual, limit int, rng *rand.Rand) []components.Individual {
	if limit <= 0 || len(brood) <= limit {
		return brood
	}
	keep := rng.Perm(len(brood))[:limit]
	sort.Ints(keep)
	out := make([]components.Individual, limit)
	for i, idx := range keep {
		out[i] = brood[idx]
	}
	return out
}
