package claims

import (
	"strings"

	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// Cultural group ids used across the town and claim models.
const (
	GroupAnglo    = 0
	GroupHispanic = 1
	GroupBlack    = 2
	GroupAsian    = 3
	NumGroups     = 4
)

// culturalKeywords bucket claim names into the cultural group they target.
// Matching is a case-insensitive substring test against the claim name.
var culturalKeywords = [NumGroups][]string{
	GroupAnglo:    {"white_", "anglo", "conservative", "patriot", "traditional"},
	GroupHispanic: {"hispanic_", "latino", "immigration", "border", "family_values"},
	GroupBlack:    {"black_", "systemic", "justice", "disparity"},
	GroupAsian:    {"asian_", "model_minority", "cultural_erosion", "discrimination"},
}

// groupIdentityStrength modulates how strongly a targeted claim lands in
// each group; values follow identity-salience differences reported in the
// identity-protective cognition literature.
var groupIdentityStrength = [NumGroups]float64{0.25, 0.35, 0.40, 0.30}

// culturalBonusStrength is the base susceptibility lift for a targeted
// claim before identity-strength modulation.
const culturalBonusStrength = 0.30

// CulturalTarget returns the cultural group a claim's name targets, or -1
// when the claim carries no cultural targeting.
func CulturalTarget(name string) int {
	lower := strings.ToLower(name)
	for group, keywords := range culturalKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return group
			}
		}
	}
	return -1
}

// MatchingBonus computes the per-agent-per-claim belief-susceptibility
// bonus from cultural targeting. Agents in a claim's target group get the
// identity-strength-scaled bonus; every other (group, claim) pair gets a
// small independent noise term so outputs never degenerate to identical
// columns.
func MatchingBonus(arena []Claim, culturalGroups []int, rng *randx.Source) *vecmath.Matrix {
	nAgents := len(culturalGroups)
	bonus := vecmath.New(nAgents, len(arena))

	// Per (group, claim) cell values, sampled once and broadcast to agents.
	cell := make([]float64, NumGroups*len(arena))
	for k := range arena {
		target := CulturalTarget(arena[k].Name)
		for g := 0; g < NumGroups; g++ {
			if g == target {
				cell[g*len(arena)+k] = culturalBonusStrength * groupIdentityStrength[g]
			} else {
				noise := rng.Normal(0, 0.01)
				if noise < 0 {
					noise = -noise
				}
				cell[g*len(arena)+k] = vecmath.Clamp(noise, 0, 0.02)
			}
		}
	}

	for i, g := range culturalGroups {
		if g < 0 || g >= NumGroups {
			continue
		}
		copy(bonus.Row(i), cell[g*len(arena):(g+1)*len(arena)])
	}
	return bonus
}
