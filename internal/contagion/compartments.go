// Package contagion implements the per-day claim dynamics: exposure
// aggregation, dual-channel sharing with moderation, and the belief
// update rule with truth protection and mutual exclusion. All state is
// dense (agent x claim); per-claim parameters are broadcast across rows.
package contagion

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// restraintCountThreshold is the accumulated share count at which an
// agent crosses into the restrained compartment regardless of the
// probabilistic transitions.
const restraintCountThreshold = 3.0

// State is the mutable per-day simulation state. Compartments are
// independent overlapping booleans: an agent can be exposed and doubtful
// at once, and restrained overlays either.
type State struct {
	NAgents, NClaims int

	Belief *vecmath.Matrix
	Memory *vecmath.Matrix // exponential moving average of raw exposure

	Exposed    *vecmath.Bool
	Doubtful   *vecmath.Bool
	Restrained *vecmath.Bool
	ShareCount *vecmath.Matrix // fatigue accumulator

	// TruthAdopters marks agents whose max true-claim belief crossed the
	// protection threshold at least once; the flag never clears.
	TruthAdopters []bool
}

// NewState allocates state with every belief at the baseline.
func NewState(nAgents, nClaims int, baselineBelief float64) *State {
	return &State{
		NAgents:       nAgents,
		NClaims:       nClaims,
		Belief:        vecmath.Full(nAgents, nClaims, baselineBelief),
		Memory:        vecmath.New(nAgents, nClaims),
		Exposed:       vecmath.NewBool(nAgents, nClaims),
		Doubtful:      vecmath.NewBool(nAgents, nClaims),
		Restrained:    vecmath.NewBool(nAgents, nClaims),
		ShareCount:    vecmath.New(nAgents, nClaims),
		TruthAdopters: make([]bool, nAgents),
	}
}

// seedBelief is the initial belief level of seeded agents.
const seedBelief = 0.85

// SeedClaims plants each claim in max(1, fraction*n_agents) distinct
// agents at a high initial belief. Seeded agents start exposed so they
// can share from day zero.
func (st *State) SeedClaims(rng *randx.Source, fraction float64) {
	count := int(fraction * float64(st.NAgents))
	if count < 1 {
		count = 1
	}
	if count > st.NAgents {
		count = st.NAgents
	}
	for k := 0; k < st.NClaims; k++ {
		for _, agent := range rng.Choice(st.NAgents, count) {
			st.Belief.Set(agent, k, seedBelief)
			st.Exposed.Set(agent, k, true)
		}
	}
}

// ApplyShareFatigue accumulates realized shares into the fatigue counter
// (negative shares count half) and moves sharers into the restrained
// compartment, either probabilistically per share or once the counter
// crosses the fixed threshold.
func (st *State) ApplyShareFatigue(pos, neg *vecmath.Bool, cfg *config.SEDPNRConfig, rng *randx.Source) {
	for i := 0; i < st.NAgents; i++ {
		for k := 0; k < st.NClaims; k++ {
			p := pos.At(i, k)
			n := neg.At(i, k)
			if !p && !n {
				continue
			}
			if p {
				st.ShareCount.Add(i, k, 1.0)
				if rng.Bernoulli(cfg.LambdaP) {
					st.Restrained.Set(i, k, true)
				}
			}
			if n {
				st.ShareCount.Add(i, k, 0.5)
				if rng.Bernoulli(cfg.LambdaN) {
					st.Restrained.Set(i, k, true)
				}
			}
			if st.ShareCount.At(i, k) >= restraintCountThreshold {
				st.Restrained.Set(i, k, true)
			}
		}
	}
}
