package claims

import (
	"strings"
	"testing"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
)

func testClaim(name string, isTrue bool) Claim {
	return Claim{
		Name: name, Topic: "health_rumor",
		Memeticity: 0.25, Virality: 0.3, Falsifiability: 0.4, Stealth: 0.55,
		MutationRate: 0.06, ViolationRisk: 0.35, Persistence: 0.25,
		Emotion: config.EmotionProfile{Fear: 0.5, Anger: 0.4, Hope: 0.1},
		IsTrue:  isTrue,
	}
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	arena := Load(nil)
	if len(arena) != 5 {
		t.Fatalf("default arena size = %d, want 5", len(arena))
	}
	if arena[0].Name != "silver_river" {
		t.Errorf("first default claim = %q", arena[0].Name)
	}
}

func TestMutateAlwaysWhenRateOne(t *testing.T) {
	rng := randx.New(1)
	arena := []Claim{testClaim("rumor", false)}
	arena[0].MutationRate = 1.0
	orig := arena[0]

	for day := 0; day < 30; day++ {
		Mutate(arena, rng)
		after := arena[0]
		if !strings.HasSuffix(after.Name, strings.Repeat("_m", day+1)) {
			t.Fatalf("day %d: name %q missing mutation suffix", day, after.Name)
		}
		if after.Stealth < 0 || after.Stealth > 1 {
			t.Fatalf("stealth %v out of [0,1]", after.Stealth)
		}
		if after.Falsifiability < 0.1 || after.Falsifiability > 1 {
			t.Fatalf("falsifiability %v out of [0.1,1]", after.Falsifiability)
		}
		// everything else is carried over unchanged
		if after.Memeticity != orig.Memeticity || after.ViolationRisk != orig.ViolationRisk ||
			after.Emotion != orig.Emotion || after.Virality != orig.Virality ||
			after.Persistence != orig.Persistence || after.MutationRate != orig.MutationRate {
			t.Fatalf("mutation altered carried-over fields: %+v", after)
		}
	}
	if len(arena) != 1 {
		t.Fatalf("arena grew to %d slots", len(arena))
	}
	if arena[0].Stealth == orig.Stealth && arena[0].Falsifiability == orig.Falsifiability {
		t.Error("30 mutations left stealth and falsifiability unchanged")
	}
}

func TestMutateNeverWhenRateZero(t *testing.T) {
	rng := randx.New(2)
	arena := []Claim{testClaim("official", true)}
	arena[0].MutationRate = 0
	for day := 0; day < 100; day++ {
		Mutate(arena, rng)
	}
	if arena[0].Name != "official" {
		t.Errorf("zero-rate claim mutated: %q", arena[0].Name)
	}
}

func TestTruthMaskAndPersistence(t *testing.T) {
	arena := []Claim{testClaim("a", false), testClaim("b", true)}
	arena[1].Persistence = 0.75

	mask := TruthMask(arena)
	if mask[0] || !mask[1] {
		t.Errorf("TruthMask = %v", mask)
	}
	pv := PersistenceVec(arena)
	if pv[0] != 0.25 || pv[1] != 0.75 {
		t.Errorf("PersistenceVec = %v", pv)
	}
}

func TestAlignmentTargets(t *testing.T) {
	arena := []Claim{testClaim("a", false), testClaim("b", false)}
	arena[0].Topic = "outsider_threat"
	arena[1].Topic = "something_new"
	got := AlignmentTargets(arena)
	if got[0] != 0.8 {
		t.Errorf("outsider_threat target = %v, want 0.8", got[0])
	}
	if got[1] != 0.55 {
		t.Errorf("unmapped topic target = %v, want 0.55", got[1])
	}
}
