package contagion

import (
	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/town"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// SocialExposure scatter-adds sharer indicators over the aggregate edge
// list: each incoming edge from a sharer on either channel contributes
// its edge weight to the destination agent's exposure. An agent sharing
// on both channels counts twice; a debunking share still spreads the
// claim. Duplicate destinations accumulate.
func SocialExposure(edges *town.EdgeList, posShares, negShares *vecmath.Bool, nAgents, nClaims int) *vecmath.Matrix {
	out := vecmath.New(nAgents, nClaims)
	for e := 0; e < edges.Len(); e++ {
		src := int(edges.Src[e])
		dst := int(edges.Dst[e])
		w := edges.Weight[e]
		for k := 0; k < nClaims; k++ {
			if posShares.At(src, k) {
				out.Add(dst, k, w)
			}
			if negShares.At(src, k) {
				out.Add(dst, k, w)
			}
		}
	}
	return out
}

// SocialProof returns, per agent and claim, the weighted fraction of
// network neighbors whose belief exceeds the threshold. The per-agent
// neighbor weight sums carry an epsilon, so isolated agents get zero
// instead of a division by zero.
func SocialProof(edges *town.EdgeList, belief *vecmath.Matrix, threshold float64, neighborWeightSum []float64) *vecmath.Matrix {
	out := vecmath.New(belief.Rows, belief.Cols)
	for e := 0; e < edges.Len(); e++ {
		src := int(edges.Src[e])
		dst := int(edges.Dst[e])
		w := edges.Weight[e]
		for k := 0; k < belief.Cols; k++ {
			if belief.At(src, k) > threshold {
				out.Add(dst, k, w)
			}
		}
	}
	for i := 0; i < out.Rows; i++ {
		row := out.Row(i)
		for k := range row {
			row[k] /= neighborWeightSum[i]
		}
	}
	return out
}

// churchTopicBias lifts church-channel exposure for morally or
// spiritually framed claims.
const churchTopicBias = 0.35

func channelReach(w *config.WorldConfig) [town.NumChannels]float64 {
	return [town.NumChannels]float64{
		town.ChannelLocalSocial:    w.LocalMediaReach,
		town.ChannelNationalSocial: w.NationalMediaReach,
		town.ChannelTV:             w.NationalMediaReach,
		town.ChannelLocalNews:      w.LocalMediaReach,
		town.ChannelChurch:         w.ChurchCentrality,
	}
}

// InstitutionExposure computes per-agent institutional exposure and
// debunk pressure.
//
// Exposure combines each agent's media-diet weights with per-channel
// reach and the claim's memeticity; social channels amplify anger-laden
// claims via outrage amplification, fragmentation widens broadcast
// reach, and the church channel is biased toward moral and spiritual
// topics. True claims additionally get the truth-campaign boost, added
// on top of the organic exposure so the campaign reaches agents the
// claim's own channels miss.
//
// Debunk pressure applies to false claims only. It starts from the
// agent's own institutional trust weighted by each institution's reach,
// shifted governance response and transparency factors keep a 0.5 floor,
// and falsifiability times (1 - stealth) scales per claim, all times the
// debunk intensity. True claims contribute extra debunk pressure to
// every false claim in proportion to the agent's accumulated true-claim
// exposure memory, through the same institutional aggregate.
func InstitutionExposure(
	t *town.Town,
	arena []claims.Claim,
	w *config.WorldConfig,
	debunkIntensity float64,
	memory *vecmath.Matrix,
) (exposure, debunk *vecmath.Matrix) {
	n := t.NAgents
	nClaims := len(arena)
	exposure = vecmath.New(n, nClaims)
	debunk = vecmath.New(n, nClaims)
	reach := channelReach(w)

	// Per-claim channel scale factors, broadcast across agents.
	scale := make([]float64, nClaims*town.NumChannels)
	for k, c := range arena {
		for ch := 0; ch < town.NumChannels; ch++ {
			f := reach[ch] * c.Memeticity
			switch ch {
			case town.ChannelLocalSocial, town.ChannelNationalSocial:
				f *= 1 + w.OutrageAmplification*c.Emotion.Anger
				if ch == town.ChannelNationalSocial {
					f *= 1 + w.AlgorithmicAmplification
				}
			case town.ChannelTV, town.ChannelLocalNews:
				f *= 1 + 0.5*w.MediaFragmentation
			case town.ChannelChurch:
				if c.Topic == "moral_spiral" || c.Topic == "spiritual" {
					f *= 1 + churchTopicBias
				}
			}
			scale[k*town.NumChannels+ch] = f
		}
	}

	response := 0.5 + 0.5*w.GovernanceResponseSpeed
	transparency := 0.5 + 0.5*w.GovernanceTransparency
	for i := 0; i < n; i++ {
		diet := t.MediaDiet.Weights.Row(i)
		debunkBase := t.Trust.Gov[i]*w.GovReach +
			t.Trust.LocalNews[i]*w.LocalMediaReach +
			t.Trust.NationalNews[i]*w.NationalMediaReach
		governance := debunkBase * response * transparency

		// Truth spillover: accumulated true-claim exposure pushes extra
		// debunk onto every false claim, through the same aggregate.
		var truthMemory float64
		for k := range arena {
			if arena[k].IsTrue {
				truthMemory += memory.At(i, k)
			}
		}

		for k := range arena {
			var e float64
			for ch := 0; ch < town.NumChannels; ch++ {
				e += diet[ch] * scale[k*town.NumChannels+ch]
			}
			if arena[k].IsTrue {
				e += w.TruthCampaignIntensity * governance
			} else {
				reachable := arena[k].Falsifiability * (1 - arena[k].Stealth)
				d := debunkIntensity * governance * reachable
				d += w.TruthCampaignIntensity * truthMemory * governance * reachable
				debunk.Set(i, k, d)
			}
			exposure.Set(i, k, e)
		}
	}
	return exposure, debunk
}
