// Package world implements the institutional environment collaborators:
// daily trust updates and algorithmic feed injection.
package world

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/town"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// UpdateTrust erodes institutional trust in proportion to each agent's
// mean misinformation belief and recovers a fraction from visible debunk
// pressure. Peer and out-group trust are untouched. All values clamp to
// [0, 1]. No-op unless trust updates are enabled.
func UpdateTrust(
	tr *town.Trust,
	belief, debunk *vecmath.Matrix,
	truthMask []bool,
	w *config.WorldConfig,
) {
	if !w.TrustUpdateEnabled {
		return
	}
	nFalse := 0
	for _, isTrue := range truthMask {
		if !isTrue {
			nFalse++
		}
	}
	if nFalse == 0 {
		return
	}

	rate := w.TrustErosionRate
	for i := range tr.Gov {
		var misinfo, pressure float64
		for k, isTrue := range truthMask {
			if isTrue {
				continue
			}
			misinfo += belief.At(i, k)
			pressure += debunk.At(i, k)
		}
		misinfo /= float64(nFalse)
		pressure /= float64(nFalse)

		delta := -rate*misinfo + 0.5*rate*pressure
		tr.Gov[i] = vecmath.Clamp(tr.Gov[i]+delta, 0, 1)
		tr.LocalNews[i] = vecmath.Clamp(tr.LocalNews[i]+delta, 0, 1)
		tr.NationalNews[i] = vecmath.Clamp(tr.NationalNews[i]+delta, 0, 1)
	}
}
