package town

import (
	"testing"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
)

func testConfig(n int) *config.Config {
	cfg := config.Default()
	cfg.Sim.NAgents = n
	cfg.Sim.Seed = 42
	return cfg
}

func TestGenerateBasicShape(t *testing.T) {
	cfg := testConfig(200)
	town := Generate(cfg, randx.New(cfg.Sim.Seed))

	if town.NAgents != 200 {
		t.Fatalf("NAgents = %d", town.NAgents)
	}
	if town.Neighborhoods != cfg.Town.NNeighborhoods {
		t.Errorf("Neighborhoods = %d, want %d", town.Neighborhoods, cfg.Town.NNeighborhoods)
	}
	for _, s := range [][]int{town.NeighborhoodIDs, town.HouseholdIDs, town.WorkplaceIDs, town.SchoolIDs, town.ChurchIDs, town.CulturalGroups} {
		if len(s) != 200 {
			t.Fatalf("id slice length = %d", len(s))
		}
	}
	for i, nb := range town.NeighborhoodIDs {
		if nb < 0 || nb >= town.Neighborhoods {
			t.Fatalf("agent %d: neighborhood %d out of range", i, nb)
		}
	}
	for i := 0; i < 200; i++ {
		if town.HouseholdIDs[i] < 0 {
			t.Fatalf("agent %d unhoused", i)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testConfig(150)
	a := Generate(cfg, randx.New(7))
	b := Generate(cfg, randx.New(7))

	for i := 0; i < 150; i++ {
		if a.NeighborhoodIDs[i] != b.NeighborhoodIDs[i] || a.HouseholdIDs[i] != b.HouseholdIDs[i] {
			t.Fatalf("agent %d differs between identically seeded runs", i)
		}
		if a.Traits.Skepticism[i] != b.Traits.Skepticism[i] {
			t.Fatalf("agent %d skepticism differs between identically seeded runs", i)
		}
	}
	if a.Network.Edges.Len() != b.Network.Edges.Len() {
		t.Fatalf("edge counts differ: %d vs %d", a.Network.Edges.Len(), b.Network.Edges.Len())
	}
}

func TestGroupAssignmentRespectsEligibility(t *testing.T) {
	cfg := testConfig(300)
	town := Generate(cfg, randx.New(3))

	for i, age := range town.Demographics.Age {
		if age < 5 || age >= 18 {
			if town.SchoolIDs[i] != -1 {
				t.Errorf("agent %d (age %d) assigned to school %d", i, age, town.SchoolIDs[i])
			}
		}
		if age < 18 || age >= 65 {
			if town.WorkplaceIDs[i] != -1 {
				t.Errorf("agent %d (age %d) assigned to workplace %d", i, age, town.WorkplaceIDs[i])
			}
		}
	}
}

func TestChurchAttendanceZero(t *testing.T) {
	cfg := testConfig(100)
	cfg.Town.ChurchAttendanceRate = 0
	town := Generate(cfg, randx.New(5))
	for i, id := range town.ChurchIDs {
		if id != -1 {
			t.Fatalf("agent %d attends church %d with zero attendance rate", i, id)
		}
	}
}

func TestHouseholdsStayInNeighborhood(t *testing.T) {
	cfg := testConfig(250)
	town := Generate(cfg, randx.New(11))

	households := make(map[int]int)
	for i, h := range town.HouseholdIDs {
		if nb, seen := households[h]; seen {
			if nb != town.NeighborhoodIDs[i] {
				t.Fatalf("household %d spans neighborhoods %d and %d", h, nb, town.NeighborhoodIDs[i])
			}
		} else {
			households[h] = town.NeighborhoodIDs[i]
		}
	}
}

func TestNeighborhoodSpecsDriveAssignment(t *testing.T) {
	cfg := testConfig(400)
	edu := 0.7
	income := 95000.0
	cfg.Town.NeighborhoodSpecs = []config.NeighborhoodSpec{
		{Name: "hillcrest", Population: 3, Demographics: config.NeighborhoodDemographics{
			Ethnicity:       map[string]float64{"white": 0.8, "asian": 0.2},
			CollegeEducated: &edu, MedianIncome: &income,
		}},
		{Name: "riverside", Population: 1, Demographics: config.NeighborhoodDemographics{
			Ethnicity: map[string]float64{"hispanic": 0.7, "black": 0.3},
		}},
	}
	town := Generate(cfg, randx.New(9))

	if town.Neighborhoods != 2 {
		t.Fatalf("Neighborhoods = %d, want 2", town.Neighborhoods)
	}
	counts := [2]int{}
	for _, nb := range town.NeighborhoodIDs {
		counts[nb]++
	}
	if counts[0] <= counts[1] {
		t.Errorf("population weighting ignored: counts = %v", counts)
	}
	if town.Demographics.Ethnicity == nil {
		t.Fatal("ethnicity not sampled despite spec distributions")
	}
	for i, label := range town.Demographics.Ethnicity {
		if town.NeighborhoodIDs[i] == 1 && (label == "white" || label == "asian") {
			t.Fatalf("agent %d in riverside sampled ethnicity %q", i, label)
		}
	}
}

func TestAgeCredibilityMonotone(t *testing.T) {
	ages := []int{80, 10, 45, 45, 30}
	cred := ageCredibility(ages, len(ages))
	if cred[0] <= cred[2] {
		t.Errorf("oldest agent credibility %v not above mid-age %v", cred[0], cred[2])
	}
	if cred[1] != 0.2 {
		t.Errorf("youngest agent credibility = %v, want floor 0.2", cred[1])
	}
	for i, c := range cred {
		if c < 0.2 || c > 0.95 {
			t.Errorf("credibility[%d] = %v out of [0.2, 0.95]", i, c)
		}
	}
}

func TestMediaDietRowsSumToOne(t *testing.T) {
	rng := randx.New(13)
	diet := GenerateMediaDiet(rng, 50)
	for i := 0; i < 50; i++ {
		sum := 0.0
		for c := 0; c < NumChannels; c++ {
			w := diet.Weights.At(i, c)
			if w < 0 {
				t.Fatalf("agent %d channel %d negative weight %v", i, c, w)
			}
			sum += w
		}
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("agent %d diet sums to %v", i, sum)
		}
	}
}

func TestIdeologyProxyBounds(t *testing.T) {
	cfg := testConfig(120)
	town := Generate(cfg, randx.New(21))
	for i, v := range town.Ideology {
		if v < 0 || v > 1 {
			t.Errorf("ideology[%d] = %v out of [0, 1]", i, v)
		}
	}
}
