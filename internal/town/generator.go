package town

import (
	"math"

	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
)

// Generate builds the full immutable town: demographics, group structure,
// traits, trust, media diets, and the multi-layer network. All sampling
// draws from the single run RNG so the town is bit-reproducible per seed.
func Generate(cfg *config.Config, rng *randx.Source) *Town {
	n := cfg.Sim.NAgents
	t := &Town{NAgents: n}

	t.Neighborhoods, t.Coords = layoutNeighborhoods(&cfg.Town)
	t.NeighborhoodIDs = assignNeighborhoods(rng, n, &cfg.Town, t.Neighborhoods)

	t.Demographics = GenerateDemographics(rng, n, &cfg.Town)
	t.Demographics.Ethnicity = sampleEthnicity(rng, t.NeighborhoodIDs, &cfg.Town)
	t.CulturalGroups = assignCulturalGroups(rng, t.NeighborhoodIDs, t.Demographics.Ethnicity, &cfg.Town)

	t.HouseholdIDs = assignGroupsWithin(rng, t.NeighborhoodIDs, t.Neighborhoods,
		cfg.Town.HouseholdSizeMean, cfg.Town.HouseholdSizeStd, allAgents(n))
	t.WorkplaceIDs = assignGroupsWithin(rng, t.NeighborhoodIDs, t.Neighborhoods,
		cfg.Town.WorkplaceSizeMean, cfg.Town.WorkplaceSizeMean*0.3,
		selectAgents(t.Demographics.Age, func(a int) bool { return a >= 18 && a < 65 }))
	t.SchoolIDs = assignGroupsWithin(rng, t.NeighborhoodIDs, t.Neighborhoods,
		cfg.Town.SchoolSizeMean, cfg.Town.SchoolSizeMean*0.2,
		selectAgents(t.Demographics.Age, func(a int) bool { return a >= 5 && a < 18 }))
	t.ChurchIDs = assignChurches(rng, n, &cfg.Town)

	edu, income := neighborhoodCovariates(&cfg.Town, t.Neighborhoods)
	t.Traits = GenerateTraits(rng, n, &cfg.Traits, cfg.World.EmotionsEnabled,
		t.Demographics.Age, t.NeighborhoodIDs, edu, income)
	t.Trust = GenerateTrust(rng, n, &cfg.World, t.NeighborhoodIDs, income, edu)
	t.MediaDiet = GenerateMediaDiet(rng, n)
	t.Ideology = IdeologyProxy(t.Traits, t.Trust)

	t.Network = BuildNetwork(rng, t, &cfg.Network)
	return t
}

// layoutNeighborhoods places neighborhoods on a grid for geographic
// distance. Explicit specs win over n_neighborhoods.
func layoutNeighborhoods(tc *config.TownConfig) (int, [][2]float64) {
	count := tc.NNeighborhoods
	if len(tc.NeighborhoodSpecs) > 0 {
		count = len(tc.NeighborhoodSpecs)
	}
	cols := int(math.Ceil(math.Sqrt(float64(count))))
	if len(tc.NeighborhoodGrid) == 2 && tc.NeighborhoodGrid[0]*tc.NeighborhoodGrid[1] >= count {
		cols = tc.NeighborhoodGrid[1]
	}
	coords := make([][2]float64, count)
	for i := 0; i < count; i++ {
		coords[i] = [2]float64{float64(i / cols), float64(i % cols)}
	}
	return count, coords
}

func assignNeighborhoods(rng *randx.Source, n int, tc *config.TownConfig, count int) []int {
	ids := make([]int, n)
	if len(tc.NeighborhoodSpecs) > 0 {
		weights := make([]float64, count)
		for i, spec := range tc.NeighborhoodSpecs {
			weights[i] = spec.Population
			if weights[i] <= 0 {
				weights[i] = 1
			}
		}
		for i := range ids {
			ids[i] = rng.Categorical(weights)
		}
		return ids
	}
	for i := range ids {
		ids[i] = rng.IntN(count)
	}
	return ids
}

// sampleEthnicity draws per-agent ethnicity labels from each
// neighborhood's configured distribution. Returns nil when no spec
// carries one.
func sampleEthnicity(rng *randx.Source, neighborhoodIDs []int, tc *config.TownConfig) []string {
	hasAny := false
	for _, spec := range tc.NeighborhoodSpecs {
		if len(spec.Demographics.Ethnicity) > 0 {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return nil
	}

	type dist struct {
		labels  []string
		weights []float64
	}
	dists := make([]dist, len(tc.NeighborhoodSpecs))
	for i, spec := range tc.NeighborhoodSpecs {
		d := dist{}
		for _, label := range ethnicityLabels {
			if w, ok := spec.Demographics.Ethnicity[label]; ok && w > 0 {
				d.labels = append(d.labels, label)
				d.weights = append(d.weights, w)
			}
		}
		if len(d.labels) == 0 {
			d.labels = []string{"white"}
			d.weights = []float64{1}
		}
		dists[i] = d
	}

	out := make([]string, len(neighborhoodIDs))
	for i, nb := range neighborhoodIDs {
		d := dists[nb]
		out[i] = d.labels[rng.Categorical(d.weights)]
	}
	return out
}

// ethnicityGroup maps ethnicity labels onto cultural group ids.
var ethnicityGroup = map[string]int{
	"white":    claims.GroupAnglo,
	"hispanic": claims.GroupHispanic,
	"black":    claims.GroupBlack,
	"asian":    claims.GroupAsian,
}

// defaultCulturalComposition applies when neither specs nor ethnicity
// distributions pin down group membership.
var defaultCulturalComposition = []float64{0.60, 0.18, 0.12, 0.10}

func assignCulturalGroups(rng *randx.Source, neighborhoodIDs []int, ethnicity []string, tc *config.TownConfig) []int {
	n := len(neighborhoodIDs)
	groups := make([]int, n)

	hasComposition := false
	for _, spec := range tc.NeighborhoodSpecs {
		if len(spec.CulturalComposition) == claims.NumGroups {
			hasComposition = true
			break
		}
	}
	switch {
	case hasComposition:
		for i, nb := range neighborhoodIDs {
			comp := tc.NeighborhoodSpecs[nb].CulturalComposition
			if len(comp) != claims.NumGroups {
				comp = defaultCulturalComposition
			}
			groups[i] = rng.Categorical(comp)
		}
	case ethnicity != nil:
		for i, label := range ethnicity {
			if g, ok := ethnicityGroup[label]; ok {
				groups[i] = g
			} else {
				groups[i] = rng.Categorical(defaultCulturalComposition)
			}
		}
	default:
		for i := range groups {
			groups[i] = rng.Categorical(defaultCulturalComposition)
		}
	}
	return groups
}

func allAgents(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func selectAgents(ages []int, keep func(int) bool) []int {
	var out []int
	for i, a := range ages {
		if keep(a) {
			out = append(out, i)
		}
	}
	return out
}

// assignGroupsWithin packs eligible agents of each neighborhood into
// groups of normal-sampled size (minimum 1). Group ids are globally
// unique; ineligible agents get -1.
func assignGroupsWithin(
	rng *randx.Source,
	neighborhoodIDs []int,
	nNeighborhoods int,
	sizeMean, sizeStd float64,
	eligible []int,
) []int {
	ids := make([]int, len(neighborhoodIDs))
	for i := range ids {
		ids[i] = -1
	}

	byNeighborhood := make([][]int, nNeighborhoods)
	for _, agent := range eligible {
		nb := neighborhoodIDs[agent]
		byNeighborhood[nb] = append(byNeighborhood[nb], agent)
	}

	nextID := 0
	for _, members := range byNeighborhood {
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		pos := 0
		for pos < len(members) {
			size := int(math.Round(rng.Normal(sizeMean, sizeStd)))
			if size < 1 {
				size = 1
			}
			end := pos + size
			if end > len(members) {
				end = len(members)
			}
			for _, agent := range members[pos:end] {
				ids[agent] = nextID
			}
			nextID++
			pos = end
		}
	}
	return ids
}

// assignChurches samples church attendance town-wide at the configured
// rate, then packs attendees into congregations.
func assignChurches(rng *randx.Source, n int, tc *config.TownConfig) []int {
	ids := make([]int, n)
	var attendees []int
	for i := 0; i < n; i++ {
		ids[i] = -1
		if rng.Bernoulli(tc.ChurchAttendanceRate) {
			attendees = append(attendees, i)
		}
	}
	rng.Shuffle(len(attendees), func(i, j int) { attendees[i], attendees[j] = attendees[j], attendees[i] })

	nextID := 0
	pos := 0
	for pos < len(attendees) {
		size := int(math.Round(rng.Normal(tc.ChurchSizeMean, tc.ChurchSizeMean*0.25)))
		if size < 1 {
			size = 1
		}
		end := pos + size
		if end > len(attendees) {
			end = len(attendees)
		}
		for _, agent := range attendees[pos:end] {
			ids[agent] = nextID
		}
		nextID++
		pos = end
	}
	return ids
}

// neighborhoodCovariates extracts per-neighborhood education/income maps
// from the specs; both are nil when no specs provide them.
func neighborhoodCovariates(tc *config.TownConfig, count int) (edu, income map[int]float64) {
	for i, spec := range tc.NeighborhoodSpecs {
		if i >= count {
			break
		}
		if spec.Demographics.CollegeEducated != nil {
			if edu == nil {
				edu = make(map[int]float64)
			}
			edu[i] = *spec.Demographics.CollegeEducated
		}
		if spec.Demographics.MedianIncome != nil {
			if income == nil {
				income = make(map[int]float64)
			}
			income[i] = *spec.Demographics.MedianIncome
		}
	}
	return edu, income
}
