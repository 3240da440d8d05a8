// Package claims models the competing true and false claims circulating
// through the population. The claim list is a fixed-cardinality arena:
// daily mutation replaces a slot's content in place and never grows or
// shrinks the list, so downstream (agent x claim) matrices keep their
// shape for the whole run.
package claims

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// Claim holds the static and mutating attributes of one circulating claim.
type Claim struct {
	Name           string
	Topic          string
	Memeticity     float64
	Virality       float64
	Falsifiability float64
	Stealth        float64
	MutationRate   float64
	ViolationRisk  float64
	Persistence    float64
	Emotion        config.EmotionProfile
	IsTrue         bool
}

// Load converts resolved claim configs into the run's claim arena.
// With no configs it falls back to the built-in claim set.
func Load(cfgs []config.ClaimConfig) []Claim {
	if len(cfgs) == 0 {
		return defaultClaims()
	}
	out := make([]Claim, len(cfgs))
	for i, cc := range cfgs {
		out[i] = Claim{
			Name:           cc.Name,
			Topic:          cc.Topic,
			Memeticity:     *cc.Memeticity,
			Virality:       *cc.Virality,
			Falsifiability: *cc.Falsifiability,
			Stealth:        *cc.Stealth,
			MutationRate:   *cc.MutationRate,
			ViolationRisk:  *cc.ViolationRisk,
			Persistence:    *cc.Persistence,
			Emotion:        cc.Emotion,
			IsTrue:         cc.IsTrue,
		}
	}
	return out
}

func defaultClaims() []Claim {
	return []Claim{
		{
			Name: "silver_river", Topic: "health_rumor",
			Memeticity: 0.55, Virality: 1.0, Falsifiability: 0.7, Stealth: 0.4,
			MutationRate: 0.05, ViolationRisk: 0.3,
			Emotion: config.EmotionProfile{Fear: 0.6, Anger: 0.2, Hope: 0.2},
		},
		{
			Name: "market_shiver", Topic: "economic_panic",
			Memeticity: 0.6, Virality: 1.0, Falsifiability: 0.6, Stealth: 0.45,
			MutationRate: 0.04, ViolationRisk: 0.35,
			Emotion: config.EmotionProfile{Fear: 0.5, Anger: 0.3, Hope: 0.2},
		},
		{
			Name: "temple_echo", Topic: "moral_spiral",
			Memeticity: 0.5, Virality: 1.0, Falsifiability: 0.5, Stealth: 0.55,
			MutationRate: 0.06, ViolationRisk: 0.4,
			Emotion: config.EmotionProfile{Fear: 0.3, Anger: 0.4, Hope: 0.3},
		},
		{
			Name: "signal_fog", Topic: "tech_conspiracy",
			Memeticity: 0.58, Virality: 1.0, Falsifiability: 0.65, Stealth: 0.5,
			MutationRate: 0.05, ViolationRisk: 0.45,
			Emotion: config.EmotionProfile{Fear: 0.2, Anger: 0.5, Hope: 0.3},
		},
		{
			Name: "border_whisper", Topic: "outsider_threat",
			Memeticity: 0.62, Virality: 1.0, Falsifiability: 0.55, Stealth: 0.5,
			MutationRate: 0.04, ViolationRisk: 0.5,
			Emotion: config.EmotionProfile{Fear: 0.4, Anger: 0.4, Hope: 0.2},
		},
	}
}

// Mutate applies one day of stochastic mutation. Each claim mutates
// independently with probability equal to its own mutation rate: stealth
// is perturbed by N(0, 0.05) clamped to [0, 1], falsifiability drifts
// down by N(0, 0.03) clamped to [0.1, 1], and the name gains a "_m"
// suffix. Mutation replaces the slot; the arena's length never changes.
func Mutate(arena []Claim, rng *randx.Source) {
	for i := range arena {
		c := &arena[i]
		if rng.Float64() >= c.MutationRate {
			continue
		}
		c.Stealth = vecmath.Clamp(c.Stealth+rng.Normal(0, 0.05), 0, 1)
		c.Falsifiability = vecmath.Clamp(c.Falsifiability-rng.Normal(0, 0.03), 0.1, 1)
		c.Name += "_m"
	}
}

// TruthMask returns a per-slot mask of which claims are true.
func TruthMask(arena []Claim) []bool {
	mask := make([]bool, len(arena))
	for i, c := range arena {
		mask[i] = c.IsTrue
	}
	return mask
}

// PersistenceVec returns the per-slot persistence vector used to scale
// belief decay.
func PersistenceVec(arena []Claim) []float64 {
	out := make([]float64, len(arena))
	for i, c := range arena {
		out[i] = c.Persistence
	}
	return out
}

// alignmentTargets maps claim topics to ideology alignment points.
var alignmentTargets = map[string]float64{
	"health_rumor":    0.5,
	"economic_panic":  0.55,
	"moral_spiral":    0.7,
	"tech_conspiracy": 0.6,
	"outsider_threat": 0.8,
}

// AlignmentTargets returns the per-slot ideology alignment target,
// defaulting to 0.55 for unmapped topics.
func AlignmentTargets(arena []Claim) []float64 {
	out := make([]float64, len(arena))
	for i, c := range arena {
		if t, ok := alignmentTargets[c.Topic]; ok {
			out[i] = t
		} else {
			out[i] = 0.55
		}
	}
	return out
}
