package contagion

import (
	"math"

	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/town"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// ageShareMultiplier maps age to the empirical sharing-frequency band.
// Seniors share misinformation roughly an order of magnitude more often
// than minors.
func ageShareMultiplier(age int) float64 {
	switch {
	case age < 18:
		return 0.5
	case age < 25:
		return 1.0
	case age < 35:
		return 2.0
	case age < 45:
		return 3.0
	case age < 55:
		return 4.0
	case age < 65:
		return 5.0
	default:
		return 7.0
	}
}

// Restrained agents keep a trickle of sharing activity rather than going
// silent entirely.
const (
	restrainedPosFactor = 0.1
	restrainedNegFactor = 0.5
)

// Sharer computes dual-channel sharing probabilities. It is built once
// per run; per-day inputs are the belief matrix and the compartments.
type Sharer struct {
	cfg      config.SharingConfig
	sedpnr   config.SEDPNRConfig
	friction float64

	ageLogit   []float64 // ln of the per-agent age multiplier
	skepticism []float64
	status     []float64
	conformity []float64
	emotions   *town.Emotions // nil when emotions are disabled
}

// NewSharer precomputes the per-agent terms of the sharing logit.
func NewSharer(t *town.Town, scfg config.SharingConfig, sedpnr config.SEDPNRConfig, platformFriction float64) *Sharer {
	ageLogit := make([]float64, t.NAgents)
	for i, age := range t.Demographics.Age {
		ageLogit[i] = math.Log(ageShareMultiplier(age))
	}
	return &Sharer{
		cfg:        scfg,
		sedpnr:     sedpnr,
		friction:   platformFriction,
		ageLogit:   ageLogit,
		skepticism: t.Traits.Skepticism,
		status:     t.Traits.StatusSeeking,
		conformity: t.Traits.Conformity,
		emotions:   t.Traits.Emotions,
	}
}

// Probabilities returns the positive (amplifying) and negative
// (debunking) per-agent-per-claim share probabilities.
//
// Both channels start from the configured base rate on the logit scale
// and shift additively: belief distance from 0.5 (opposite signs per
// channel), status seeking and conformity, the log age multiplier, and an
// emotion term (the negative channel responds to fear and anger only).
// Violation risk, scaled by the effective moderation strictness, and
// platform friction subtract from the positive channel only.
// Probabilities are then scaled by the claim's virality multiplier, gated
// by the SEDPNR compartments (doubtful coefficients take precedence over
// exposed; agents in neither compartment cannot share), and damped for
// restrained agents.
func (s *Sharer) Probabilities(st *State, arena []claims.Claim, strictness float64) (pos, neg *vecmath.Matrix) {
	n := st.NAgents
	nClaims := len(arena)
	pos = vecmath.New(n, nClaims)
	neg = vecmath.New(n, nClaims)
	base := vecmath.Logit(s.cfg.BaseShareRate)

	for i := 0; i < n; i++ {
		fear, anger, hope := 0.5, 0.5, 0.5
		if s.emotions != nil {
			fear, anger, hope = s.emotions.Fear[i], s.emotions.Anger[i], s.emotions.Hope[i]
		}
		common := base +
			s.cfg.StatusSensitivity*s.status[i] +
			s.cfg.ConformitySensitivity*s.conformity[i] +
			s.ageLogit[i]

		for k, c := range arena {
			exposedHere := st.Exposed.At(i, k)
			doubtfulHere := st.Doubtful.At(i, k)
			if !exposedHere && !doubtfulHere {
				continue
			}
			gatePos, gateNeg := s.sedpnr.BetaPosExposed, s.sedpnr.BetaNegExposed
			if doubtfulHere {
				gatePos, gateNeg = s.sedpnr.BetaPosDoubtful, s.sedpnr.BetaNegDoubtful
			}

			b := st.Belief.At(i, k)
			posEmotion := fear*c.Emotion.Fear + anger*c.Emotion.Anger + hope*c.Emotion.Hope
			negEmotion := 0.5*fear*c.Emotion.Fear + anger*c.Emotion.Anger

			posLogit := common +
				s.cfg.BeliefSensitivity*(b-0.5) +
				s.cfg.EmotionSensitivity*posEmotion -
				s.cfg.ModerationRiskSensitivity*c.ViolationRisk*strictness -
				s.friction
			negLogit := common +
				s.cfg.BeliefSensitivity*(0.5-b) +
				s.cfg.SkepticismSensitivity*s.skepticism[i] +
				s.cfg.NegEmotionSensitivity*negEmotion

			pp := vecmath.Sigmoid(posLogit) * c.Virality * gatePos
			np := vecmath.Sigmoid(negLogit) * (0.5 + 0.5*c.Virality) * gateNeg
			if st.Restrained.At(i, k) {
				pp *= restrainedPosFactor
				np *= restrainedNegFactor
			}
			pos.Set(i, k, vecmath.Clamp(pp, 0, 1))
			neg.Set(i, k, vecmath.Clamp(np, 0, 1))
		}
	}
	return pos, neg
}
