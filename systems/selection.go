package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/evolution/components"
	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/traits"
)

// SelectionResult summarizes one selection round.
type SelectionResult struct {
	EventID     string
	AliveBefore int
	Survived    int
	Lost        int
}

// Selector decides survival for an environmental event.
type Selector struct {
	cfg config.SelectionConfig
	rng *rand.Rand
}

// NewSelector creates a selector with the given policy constants.
func NewSelector(cfg config.SelectionConfig, rng *rand.Rand) *Selector {
	return &Selector{cfg: cfg, rng: rng}
}

// EffectiveTrait normalizes a raw trait so higher always means safer.
func EffectiveTrait(raw int, dir config.Direction) float64 {
	if dir == config.DirectionHigh {
		return float64(traits.Max - raw)
	}
	return float64(raw)
}

// SigmoidChance maps an effective trait onto [Floor, Ceiling] through a
// logistic curve centered at Midpoint.
func SigmoidChance(cfg config.SelectionConfig, effective float64) float64 {
	s := 1 / (1 + math.Exp(-cfg.Steepness*(effective-cfg.Midpoint)))
	return cfg.Floor + s*(cfg.Ceiling-cfg.Floor)
}

// LinearChance is the gentler policy without jitter: base + effective/100*span.
func LinearChance(cfg config.SelectionConfig, effective float64) float64 {
	return cfg.LinearBase + effective/traits.Max*cfg.LinearSpan
}

// BaseChance returns the deterministic survival chance of genome under ev.
// Linear jitter is not included.
func (s *Selector) BaseChance(ev config.EventConfig, genome components.Genome) (float64, error) {
	switch ev.Policy {
	case config.PolicyFlat:
		if ev.FlatChance == nil {
			return s.cfg.FlatChance, nil
		}
		return *ev.FlatChance, nil
	case config.PolicyLinear, config.PolicySigmoid:
		raw, ok := genome.Traits[ev.DangerousTrait]
		if !ok {
			return 0, fmt.Errorf("event %q: individual has no trait %q", ev.ID, ev.DangerousTrait)
		}
		eff := EffectiveTrait(raw, ev.TraitDirection)
		if ev.Policy == config.PolicyLinear {
			return LinearChance(s.cfg, eff), nil
		}
		return SigmoidChance(s.cfg, eff), nil
	default:
		return 0, fmt.Errorf("event %q: unknown policy %q", ev.ID, ev.Policy)
	}
}

// Apply runs ev over every alive individual of the roster. An individual
// survives iff a uniform draw is strictly below its chance; dead individuals
// are skipped. The roster is checked before any draw, so a failed call
// changes nothing.
func (s *Selector) Apply(roster *Roster, ev config.EventConfig) (SelectionResult, error) {
	res := SelectionResult{EventID: ev.ID}

	chances := make([]float64, roster.Len())
	for i := 0; i < roster.Len(); i++ {
		_, genome, vit := roster.Get(i)
		if !vit.Alive {
			continue
		}
		c, err := s.BaseChance(ev, *genome)
		if err != nil {
			return SelectionResult{}, err
		}
		chances[i] = c
		res.AliveBefore++
	}

	for i := 0; i < roster.Len(); i++ {
		_, _, vit := roster.Get(i)
		if !vit.Alive {
			continue
		}
		chance := chances[i]
		if ev.Policy == config.PolicyLinear && s.cfg.Jitter > 0 {
			chance += (s.rng.Float64()*2 - 1) * s.cfg.Jitter
			chance = math.Max(0, math.Min(1, chance))
		}
		if s.rng.Float64() < chance {
			res.Survived++
		} else {
			vit.Alive = false
			res.Lost++
		}
	}

	return res, nil
}
