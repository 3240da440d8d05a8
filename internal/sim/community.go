package sim

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/town"
)

// maxLabelPropagationPasses bounds the propagation loop; the labeling has
// always converged well before this on the generated networks.
const maxLabelPropagationPasses = 50

// DetectCommunities runs deterministic weighted label propagation over
// the aggregate edge list. Returns nil when the backend is disabled or
// the population exceeds the configured node cap; callers treat nil as
// "no community hint available".
//
// Each pass visits agents in index order and adopts the label with the
// highest incident weight among neighbors, breaking ties toward the
// lowest label, so identical inputs always produce identical labels.
func DetectCommunities(edges *town.EdgeList, nAgents int, cfg *config.MetricsConfig) []int {
	if cfg.CommunityBackend == "none" || nAgents == 0 || nAgents > cfg.CommunityMaxNodes {
		return nil
	}

	type neighbor struct {
		id int32
		w  float64
	}
	adj := make([][]neighbor, nAgents)
	for i := 0; i < edges.Len(); i++ {
		adj[edges.Dst[i]] = append(adj[edges.Dst[i]], neighbor{edges.Src[i], edges.Weight[i]})
	}

	labels := make([]int, nAgents)
	for i := range labels {
		labels[i] = i
	}

	weight := make(map[int]float64)
	for pass := 0; pass < maxLabelPropagationPasses; pass++ {
		changed := false
		for i := 0; i < nAgents; i++ {
			if len(adj[i]) == 0 {
				continue
			}
			clear(weight)
			for _, nb := range adj[i] {
				weight[labels[nb.id]] += nb.w
			}
			best, bestW := labels[i], weight[labels[i]]
			for label, w := range weight {
				if w > bestW || (w == bestW && label < best) {
					best, bestW = label, w
				}
			}
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// compact labels to a dense 0..k-1 range
	remap := make(map[int]int)
	for i, l := range labels {
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		labels[i] = id
	}
	return labels
}
