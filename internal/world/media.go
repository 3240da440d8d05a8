package world

import (
	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/town"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// FeedInjection computes the extra algorithmic-feed exposure each agent
// receives per claim: the agent's social-channel diet (national social
// boosted by algorithmic amplification), scaled by the configured
// injection rate, the claim's virality, and anger-driven outrage
// amplification.
func FeedInjection(t *town.Town, arena []claims.Claim, w *config.WorldConfig) *vecmath.Matrix {
	out := vecmath.New(t.NAgents, len(arena))
	if w.FeedInjectionRate <= 0 {
		return out
	}
	claimFactor := make([]float64, len(arena))
	for k, c := range arena {
		claimFactor[k] = w.FeedInjectionRate * c.Virality * (1 + w.OutrageAmplification*c.Emotion.Anger)
	}
	for i := 0; i < t.NAgents; i++ {
		diet := t.MediaDiet.Weights.Row(i)
		social := diet[town.ChannelLocalSocial] +
			diet[town.ChannelNationalSocial]*(1+w.AlgorithmicAmplification)
		for k := range arena {
			out.Set(i, k, social*claimFactor[k])
		}
	}
	return out
}
