package town

import (
	"math"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
)

// BuildNetwork assembles the layered contact network: clique layers from
// the institutional group structure, a geographically decaying
// neighborhood layer, and a thin uniform long-range layer, then merges
// everything into a multiplier-weighted aggregate edge list.
func BuildNetwork(rng *randx.Source, t *Town, nc *config.NetworkConfig) Network {
	layers := map[string]*EdgeList{
		"family": cliqueLayer(t.HouseholdIDs),
		"work":   cliqueLayer(t.WorkplaceIDs),
		"school": cliqueLayer(t.SchoolIDs),
		"church": cliqueLayer(t.ChurchIDs),
	}
	layers["neighborhood"] = neighborhoodLayer(rng, t, nc)

	agg := &EdgeList{}
	// fixed merge order keeps the aggregate edge list identical per seed
	for _, name := range []string{"family", "work", "school", "church", "neighborhood"} {
		layer := layers[name]
		mult, ok := nc.LayerMultipliers[name]
		if !ok {
			mult = 1.0
		}
		for i := 0; i < layer.Len(); i++ {
			agg.append(layer.Src[i], layer.Dst[i], layer.Weight[i]*mult)
		}
	}

	sums := make([]float64, t.NAgents)
	for i := 0; i < agg.Len(); i++ {
		sums[agg.Dst[i]] += agg.Weight[i]
	}
	// epsilon keeps social-proof division safe for isolated agents
	for i := range sums {
		sums[i] += 1e-6
	}
	return Network{Layers: layers, Edges: agg, NeighborWeightSum: sums}
}

// cliqueLayer connects every pair sharing a group id with unit weight,
// emitting both directions. Agents with id -1 are unattached.
func cliqueLayer(groupIDs []int) *EdgeList {
	groups := make(map[int][]int32)
	maxID := -1
	for agent, g := range groupIDs {
		if g < 0 {
			continue
		}
		groups[g] = append(groups[g], int32(agent))
		if g > maxID {
			maxID = g
		}
	}
	edges := &EdgeList{}
	for g := 0; g <= maxID; g++ {
		members := groups[g]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				edges.append(members[i], members[j], 1.0)
				edges.append(members[j], members[i], 1.0)
			}
		}
	}
	return edges
}

// neighborhoodLayer samples acquaintance ties: Bernoulli(intra_p) within
// a neighborhood, Bernoulli(inter_p * exp(-d/geo_scale)) across, where d
// is grid distance between neighborhood centers. Weights are 0.5, softer
// than institutional cliques.
func neighborhoodLayer(rng *randx.Source, t *Town, nc *config.NetworkConfig) *EdgeList {
	edges := &EdgeList{}
	interDist := make([][]float64, t.Neighborhoods)
	for a := 0; a < t.Neighborhoods; a++ {
		interDist[a] = make([]float64, t.Neighborhoods)
		for b := 0; b < t.Neighborhoods; b++ {
			dx := t.Coords[a][0] - t.Coords[b][0]
			dy := t.Coords[a][1] - t.Coords[b][1]
			interDist[a][b] = math.Hypot(dx, dy)
		}
	}

	for i := 0; i < t.NAgents; i++ {
		for j := i + 1; j < t.NAgents; j++ {
			ni, nj := t.NeighborhoodIDs[i], t.NeighborhoodIDs[j]
			p := nc.IntraNeighborhoodP
			if ni != nj {
				p = nc.InterNeighborhoodP * math.Exp(-interDist[ni][nj]/nc.GeoScale)
			}
			if p > 0 && rng.Bernoulli(p) {
				edges.append(int32(i), int32(j), 0.5)
				edges.append(int32(j), int32(i), 0.5)
			}
		}
	}
	return edges
}
