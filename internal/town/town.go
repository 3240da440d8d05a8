// Package town generates the synthetic population and its multi-layer
// contact network. Everything produced here is immutable for the rest of
// the run: the orchestrator reads agent attributes and the aggregate edge
// list but never writes them.
package town

// EdgeList is a weighted directed edge list in struct-of-arrays form.
// Undirected relationships appear twice, once per direction, so
// scatter-adds over Dst see traffic from both sides.
type EdgeList struct {
	Src    []int32
	Dst    []int32
	Weight []float64
}

// Len returns the number of directed edges.
func (e *EdgeList) Len() int { return len(e.Src) }

func (e *EdgeList) append(src, dst int32, w float64) {
	e.Src = append(e.Src, src)
	e.Dst = append(e.Dst, dst)
	e.Weight = append(e.Weight, w)
}

// Network holds the per-layer edge lists, the weighted aggregate, and the
// per-agent incident weight sums used to normalize social proof.
type Network struct {
	Layers map[string]*EdgeList

	// Edges is the multiplier-weighted union of all layers, with each
	// undirected tie emitted in both directions.
	Edges *EdgeList

	// NeighborWeightSum is the total incident edge weight per agent plus a
	// small epsilon, so dividing by it is always safe: isolated agents get
	// a near-zero denominator instead of a division by zero.
	NeighborWeightSum []float64
}

// Town is the immutable population + network snapshot consumed by the
// simulation.
type Town struct {
	NAgents       int
	Neighborhoods int

	// Coords are grid coordinates per neighborhood, used for geographic
	// edge-probability decay.
	Coords [][2]float64

	NeighborhoodIDs []int
	HouseholdIDs    []int
	WorkplaceIDs    []int
	SchoolIDs       []int
	ChurchIDs       []int // -1 for non-attendees

	Demographics   Demographics
	Traits         Traits
	Trust          Trust
	MediaDiet      MediaDiet
	Ideology       []float64
	CulturalGroups []int

	Network Network
}
