package traits

import (
	"math"
	"math/rand"
)

// Sampler draws trait values from a normal distribution clamped to [Min, Max].
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler backed by rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample returns round(mean + z*variance) clamped to [Min, Max], where z is a
// standard normal deviate from the Box-Muller transform.
// variance is used as the scale of the deviate, matching how the rest of the
// simulation names it.
func (s *Sampler) Sample(mean, variance float64) int {
	z := s.standardNormal()
	v := math.Round(mean + z*variance)
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return int(v)
}

// standardNormal uses Box-Muller with u1 in (0,1].
func (s *Sampler) standardNormal() float64 {
	u1 := s.rng.Float64()
	for u1 == 0 {
		u1 = s.rng.Float64()
	}
	u2 := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
