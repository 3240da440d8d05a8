package contagion

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// exposureFloor is the minimum total exposure that counts as having met
// a claim.
const exposureFloor = 1e-4

// BeliefEngine applies the daily belief-update chain. The step order is
// fixed; later rules override earlier ones.
type BeliefEngine struct {
	cfg    config.BeliefConfig
	sedpnr config.SEDPNRConfig

	reactanceEnabled bool
	mutualExclusion  bool
	// truthProtection is off when the config leaves the threshold unset.
	truthProtection bool
	truthThreshold  float64

	truthMask   []bool
	persistence []float64

	skepticism        []float64
	conflictTolerance []float64

	// ideologyMatch is 1 - |ideology - topic alignment target| per cell.
	ideologyMatch *vecmath.Matrix
	// culturalBonus is nil when cultural targeting is disabled or the
	// matching collaborator failed.
	culturalBonus *vecmath.Matrix
}

// NewBeliefEngine wires the per-run inputs of the belief update.
func NewBeliefEngine(
	bcfg config.BeliefConfig,
	sedpnr config.SEDPNRConfig,
	reactanceEnabled bool,
	truthMask []bool,
	persistence []float64,
	skepticism, conflictTolerance []float64,
	ideologyMatch, culturalBonus *vecmath.Matrix,
) *BeliefEngine {
	var threshold float64
	if bcfg.TruthProtectionThreshold != nil {
		threshold = *bcfg.TruthProtectionThreshold
	}
	return &BeliefEngine{
		cfg:               bcfg,
		sedpnr:            sedpnr,
		reactanceEnabled:  reactanceEnabled,
		mutualExclusion:   bcfg.MutualExclusionHard,
		truthProtection:   bcfg.TruthProtectionThreshold != nil,
		truthThreshold:    threshold,
		truthMask:         truthMask,
		persistence:       persistence,
		skepticism:        skepticism,
		conflictTolerance: conflictTolerance,
		ideologyMatch:     ideologyMatch,
		culturalBonus:     culturalBonus,
	}
}

// Step runs one day of compartment transitions and belief updates.
// Returns the agents whose truth protection activated today.
//
// Order:
//  1. S->E entry for cells with exposure above the floor
//  2. E->D progression
//  3. recovery out of E and D
//  4. exposure-memory EMA
//  5. adoption pressure p through the belief logit
//  6. correction from debunk pressure, reactance-dampened
//  7. belief += eta*p*(1-belief) - rho*correction, then decay to baseline
//  8. clamp to [0, 1]
//  9. truth protection, when configured (zero non-true beliefs, mark
//     the adopter)
// 10. optional hard mutual exclusion over non-true claims
func (e *BeliefEngine) Step(st *State, exposure, debunk, trustSignal, socialProof *vecmath.Matrix, rng *randx.Source) []int {
	n, nClaims := st.NAgents, st.NClaims

	for i := 0; i < n; i++ {
		for k := 0; k < nClaims; k++ {
			if exposure.At(i, k) > exposureFloor && !st.Exposed.At(i, k) && !st.Restrained.At(i, k) {
				if rng.Bernoulli(e.sedpnr.Alpha) {
					st.Exposed.Set(i, k, true)
				}
			}
			if st.Exposed.At(i, k) && !st.Doubtful.At(i, k) {
				if rng.Bernoulli(e.sedpnr.Gamma) {
					st.Doubtful.Set(i, k, true)
				}
			}
			if st.Exposed.At(i, k) && rng.Bernoulli(e.sedpnr.MuE) {
				st.Exposed.Set(i, k, false)
			}
			if st.Doubtful.At(i, k) && rng.Bernoulli(e.sedpnr.MuD) {
				st.Doubtful.Set(i, k, false)
			}
		}
	}

	decay := e.cfg.ExposureMemoryDecay
	for i := 0; i < n; i++ {
		skept := e.skepticism[i]
		reactance := 1.0
		if e.reactanceEnabled {
			reactance = 1 - e.cfg.ReactanceStrength*e.conflictTolerance[i]
		}
		for k := 0; k < nClaims; k++ {
			mem := decay*st.Memory.At(i, k) + (1-decay)*exposure.At(i, k)
			st.Memory.Set(i, k, mem)

			logit := e.cfg.Alpha*mem +
				e.cfg.Beta*trustSignal.At(i, k) +
				e.cfg.Gamma*e.ideologyMatch.At(i, k) +
				e.cfg.Delta*socialProof.At(i, k) -
				e.cfg.LambdaSkepticism*skept -
				e.cfg.MuDebunk*debunk.At(i, k)
			if e.culturalBonus != nil {
				logit += e.culturalBonus.At(i, k)
			}
			p := vecmath.Sigmoid(logit)

			correction := debunk.At(i, k) * reactance

			b := st.Belief.At(i, k)
			b += e.cfg.Eta*p*(1-b) - e.cfg.Rho*correction
			b += (e.cfg.BaselineBelief - b) * e.cfg.BeliefDecay * (1 - e.persistence[k])
			st.Belief.Set(i, k, vecmath.Clamp(b, 0, 1))
		}
	}

	var protected []int
	if e.truthProtection {
		protected = e.applyTruthProtection(st)
	}
	if e.mutualExclusion {
		e.applyMutualExclusion(st)
	}
	return protected
}

// applyTruthProtection zeroes every non-true belief of agents whose
// strongest true-claim belief is at or above the threshold, and marks
// them as permanent truth adopters.
func (e *BeliefEngine) applyTruthProtection(st *State) []int {
	maxTrue, argTrue := st.Belief.ColMax(e.truthMask)
	var activated []int
	for i := 0; i < st.NAgents; i++ {
		if argTrue[i] < 0 || maxTrue[i] < e.truthThreshold {
			continue
		}
		for k := 0; k < st.NClaims; k++ {
			if !e.truthMask[k] {
				st.Belief.Set(i, k, 0)
			}
		}
		st.Belief.Set(i, argTrue[i], maxTrue[i])
		if !st.TruthAdopters[i] {
			st.TruthAdopters[i] = true
			activated = append(activated, i)
		}
	}
	return activated
}

// applyMutualExclusion keeps only the single strongest non-true belief
// per non-protected agent. True beliefs are never touched.
func (e *BeliefEngine) applyMutualExclusion(st *State) {
	falseMask := make([]bool, st.NClaims)
	for k, isTrue := range e.truthMask {
		falseMask[k] = !isTrue
	}
	_, argFalse := st.Belief.ColMax(falseMask)
	for i := 0; i < st.NAgents; i++ {
		if st.TruthAdopters[i] || argFalse[i] < 0 {
			continue
		}
		for k := 0; k < st.NClaims; k++ {
			if falseMask[k] && k != argFalse[i] {
				st.Belief.Set(i, k, 0)
			}
		}
	}
}
