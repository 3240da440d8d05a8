package sim

import (
	"context"
	"math"

	"github.com/nvandessel/infodemic/internal/store"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// recordMetrics computes the per-claim daily aggregates, appends them to
// the in-memory adoption history for the summary, and hands them to the
// recorder. Recorder failures are logged and the run continues.
func (e *Engine) recordMetrics(ctx context.Context, day int) {
	threshold := e.cfg.Sim.AdoptionThreshold
	n := e.state.NAgents

	trustGov := vecmath.Mean(e.town.Trust.Gov)
	trustLocal := vecmath.Mean(e.town.Trust.LocalNews)
	trustNational := vecmath.Mean(e.town.Trust.NationalNews)

	rows := make([]store.DayMetrics, e.state.NClaims)
	adoption := make([]float64, e.state.NClaims)
	polarization := make([]float64, e.state.NClaims)
	for k := 0; k < e.state.NClaims; k++ {
		adopters := 0
		var sum, sumSq float64
		for i := 0; i < n; i++ {
			b := e.state.Belief.At(i, k)
			sum += b
			sumSq += b * b
			if b >= threshold {
				adopters++
			}
		}
		mean := sum / float64(n)
		variance := sumSq/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}

		newAdopters := adopters - e.prevAdopters[k]
		if newAdopters < 0 {
			newAdopters = 0
		}
		e.prevAdopters[k] = adopters
		adoption[k] = float64(adopters) / float64(n)
		polarization[k] = math.Sqrt(variance)

		rows[k] = store.DayMetrics{
			Day:               day,
			Claim:             e.claimNames[k],
			AdoptionFraction:  adoption[k],
			MeanBelief:        mean,
			Polarization:      polarization[k],
			NewAdopters:       newAdopters,
			TrustGov:          trustGov,
			TrustLocalNews:    trustLocal,
			TrustNationalNews: trustNational,
		}
	}
	e.adoptionHistory = append(e.adoptionHistory, adoption)
	e.lastPolarization = polarization

	if err := e.rec.RecordDay(ctx, rows); err != nil {
		e.log.Warn("daily metrics not recorded", "day", day, "error", err)
	}
	if e.cfg.Metrics.ClusterPenetrationEnabled && e.shouldSnapshot(day) {
		e.recordClusterPenetration(ctx, day)
	}
}

// detectClusters runs community detection once over the static network
// and combines the labels with neighborhood ids into cluster ids.
func (e *Engine) detectClusters() {
	e.communities = DetectCommunities(e.town.Network.Edges, e.town.NAgents, &e.cfg.Metrics)
	if e.communities == nil {
		if e.cfg.Metrics.IncludeNeighborhoodClusters {
			e.clusters = e.town.NeighborhoodIDs
		}
		return
	}
	if !e.cfg.Metrics.IncludeNeighborhoodClusters {
		e.clusters = e.communities
		return
	}
	clusters := make([]int, e.town.NAgents)
	for i := range clusters {
		clusters[i] = e.town.NeighborhoodIDs[i]*1000 + e.communities[i]
	}
	e.clusters = clusters
}

func (e *Engine) recordCommunities(ctx context.Context) {
	if e.communities == nil {
		return
	}
	// labels are dense, so a slice count keeps row order stable
	max := 0
	for _, c := range e.communities {
		if c > max {
			max = c
		}
	}
	counts := make([]int, max+1)
	for _, c := range e.communities {
		counts[c]++
	}
	sizes := make([]store.CommunitySize, 0, len(counts))
	for c, size := range counts {
		if size > 0 {
			sizes = append(sizes, store.CommunitySize{Community: c, Size: size})
		}
	}
	if err := e.rec.RecordCommunities(ctx, sizes); err != nil {
		e.log.Warn("communities not recorded", "error", err)
	}
}

// recordClusterPenetration computes, per claim, the fraction of clusters
// holding at least one adopter.
func (e *Engine) recordClusterPenetration(ctx context.Context, day int) {
	if e.clusters == nil {
		return
	}
	threshold := e.cfg.Sim.AdoptionThreshold
	total := make(map[int]bool)
	for _, c := range e.clusters {
		total[c] = true
	}
	if len(total) == 0 {
		return
	}

	rows := make([]store.ClusterPenetration, e.state.NClaims)
	for k := 0; k < e.state.NClaims; k++ {
		penetrated := make(map[int]bool)
		for i := 0; i < e.state.NAgents; i++ {
			if e.state.Belief.At(i, k) >= threshold {
				penetrated[e.clusters[i]] = true
			}
		}
		rows[k] = store.ClusterPenetration{
			Day:      day,
			Claim:    e.claimNames[k],
			Fraction: float64(len(penetrated)) / float64(len(total)),
		}
	}
	if err := e.rec.RecordClusterPenetration(ctx, rows); err != nil {
		e.log.Warn("cluster penetration not recorded", "day", day, "error", err)
	}
}
