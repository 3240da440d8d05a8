package contagion

import (
	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// moderationRisk is what the platform can see: violation risk discounted
// by how well the claim hides.
func moderationRisk(c *claims.Claim) float64 {
	return c.ViolationRisk * (1 - c.Stealth)
}

// ApplyModeration downranks positive sharing in place. Negative sharing
// is never moderated.
func ApplyModeration(pos *vecmath.Matrix, arena []claims.Claim, strictness float64, cfg *config.ModerationConfig) {
	for k := range arena {
		factor := 1 - cfg.DownrankEffect*strictness*moderationRisk(&arena[k])
		if factor < 0 {
			factor = 0
		}
		for i := 0; i < pos.Rows; i++ {
			pos.Set(i, k, pos.At(i, k)*factor)
		}
	}
}

// Warnings returns the per-claim warning-label signal emitted alongside
// downranking, consumed as extra debunk pressure.
func Warnings(arena []claims.Claim, strictness float64, cfg *config.ModerationConfig) []float64 {
	out := make([]float64, len(arena))
	for k := range arena {
		out[k] = cfg.WarningEffect * strictness * moderationRisk(&arena[k])
	}
	return out
}
