package contagion

import (
	"testing"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

func testEngine(nAgents int, truthMask []bool, mutate func(*config.Config)) *BeliefEngine {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	nClaims := len(truthMask)
	persistence := make([]float64, nClaims)
	for k := range persistence {
		persistence[k] = 0.25
	}
	skept := make([]float64, nAgents)
	tol := make([]float64, nAgents)
	for i := range skept {
		skept[i] = 0.5
		tol[i] = 0.5
	}
	match := vecmath.Full(nAgents, nClaims, 0.5)
	return NewBeliefEngine(cfg.Belief, cfg.SEDPNR, cfg.World.ReactanceEnabled,
		truthMask, persistence, skept, tol, match, nil)
}

func TestBeliefStaysClamped(t *testing.T) {
	e := testEngine(20, []bool{false, true}, nil)
	st := NewState(20, 2, 0.05)
	rng := randx.New(1)

	exposure := vecmath.Full(20, 2, 5.0)
	debunk := vecmath.Full(20, 2, 3.0)
	trust := vecmath.Full(20, 2, 1.0)
	proof := vecmath.Full(20, 2, 1.0)
	for day := 0; day < 50; day++ {
		e.Step(st, exposure, debunk, trust, proof, rng)
		for _, b := range st.Belief.Data {
			if b < 0 || b > 1 {
				t.Fatalf("day %d: belief %v out of [0,1]", day, b)
			}
		}
	}
}

func TestDoubtfulRequiresExposure(t *testing.T) {
	e := testEngine(50, []bool{false}, nil)
	st := NewState(50, 1, 0.05)
	rng := randx.New(2)

	exposure := vecmath.Full(50, 1, 1.0)
	zero := vecmath.New(50, 1)
	everExposed := make([]bool, 50)
	for day := 0; day < 30; day++ {
		for i := 0; i < 50; i++ {
			if st.Exposed.At(i, 0) {
				everExposed[i] = true
			}
		}
		e.Step(st, exposure, zero, zero, zero, rng)
		for i := 0; i < 50; i++ {
			if st.Exposed.At(i, 0) {
				everExposed[i] = true
			}
			if st.Doubtful.At(i, 0) && !everExposed[i] {
				t.Fatalf("day %d: agent %d doubtful without ever being exposed", day, i)
			}
		}
	}
}

func TestRestrainedAgentsDoNotEnterExposed(t *testing.T) {
	e := testEngine(10, []bool{false}, func(c *config.Config) {
		c.SEDPNR.Alpha = 1.0
		c.SEDPNR.MuE = 0
	})
	st := NewState(10, 1, 0.05)
	for i := 0; i < 10; i++ {
		st.Restrained.Set(i, 0, true)
	}
	rng := randx.New(3)
	exposure := vecmath.Full(10, 1, 1.0)
	zero := vecmath.New(10, 1)
	e.Step(st, exposure, zero, zero, zero, rng)
	for i := 0; i < 10; i++ {
		if st.Exposed.At(i, 0) {
			t.Fatalf("restrained agent %d entered exposed", i)
		}
	}
}

func TestTruthProtectionZeroesFalseBeliefs(t *testing.T) {
	e := testEngine(3, []bool{false, true, false}, func(c *config.Config) {
		threshold := 0.85
		c.Belief.TruthProtectionThreshold = &threshold
	})
	st := NewState(3, 3, 0.05)
	st.Belief.Set(0, 0, 0.7)
	st.Belief.Set(0, 1, 0.95) // above the protection threshold
	st.Belief.Set(0, 2, 0.4)
	st.Belief.Set(1, 1, 0.5) // below threshold, untouched
	st.Belief.Set(1, 0, 0.6)
	rng := randx.New(4)
	zero := vecmath.New(3, 3)

	activated := e.Step(st, zero, zero, zero, zero, rng)

	if st.Belief.At(0, 0) != 0 || st.Belief.At(0, 2) != 0 {
		t.Errorf("non-true beliefs not zeroed: %v, %v", st.Belief.At(0, 0), st.Belief.At(0, 2))
	}
	if st.Belief.At(0, 1) < e.truthThreshold {
		t.Errorf("protected true belief dropped to %v", st.Belief.At(0, 1))
	}
	if !st.TruthAdopters[0] {
		t.Error("agent 0 not marked as truth adopter")
	}
	if st.TruthAdopters[1] {
		t.Error("agent 1 marked despite sub-threshold true belief")
	}
	if len(activated) != 1 || activated[0] != 0 {
		t.Errorf("activated = %v, want [0]", activated)
	}
	if st.Belief.At(1, 0) == 0 {
		t.Error("unprotected agent's false belief was zeroed")
	}
}

func TestTruthProtectionOffWhenUnset(t *testing.T) {
	// the default config leaves the threshold unset, which disables the
	// protection step entirely
	e := testEngine(1, []bool{false, true}, nil)
	st := NewState(1, 2, 0.05)
	st.Belief.Set(0, 0, 0.7)
	st.Belief.Set(0, 1, 0.99)
	rng := randx.New(6)
	zero := vecmath.New(1, 2)

	activated := e.Step(st, zero, zero, zero, zero, rng)

	if len(activated) != 0 {
		t.Errorf("activated = %v, want none", activated)
	}
	if st.TruthAdopters[0] {
		t.Error("agent marked as truth adopter with protection unset")
	}
	if st.Belief.At(0, 0) == 0 {
		t.Error("false belief zeroed with protection unset")
	}
}

func TestMutualExclusionKeepsOneFalseClaim(t *testing.T) {
	e := testEngine(2, []bool{false, false, true}, func(c *config.Config) {
		c.Belief.MutualExclusionHard = true
		c.Belief.BeliefDecay = 0
	})
	st := NewState(2, 3, 0.05)
	st.Belief.Set(0, 0, 0.6)
	st.Belief.Set(0, 1, 0.8)
	st.Belief.Set(0, 2, 0.3)
	rng := randx.New(5)
	zero := vecmath.New(2, 3)

	e.Step(st, zero, zero, zero, zero, rng)

	if st.Belief.At(0, 0) != 0 {
		t.Errorf("weaker false belief survived: %v", st.Belief.At(0, 0))
	}
	if st.Belief.At(0, 1) == 0 {
		t.Error("strongest false belief was zeroed")
	}
	if st.Belief.At(0, 2) == 0 {
		t.Error("true belief touched by mutual exclusion")
	}
}

func TestDeterministicTrajectories(t *testing.T) {
	run := func() *State {
		e := testEngine(30, []bool{false, true}, nil)
		st := NewState(30, 2, 0.05)
		rng := randx.New(99)
		exposure := vecmath.Full(30, 2, 0.5)
		debunk := vecmath.Full(30, 2, 0.1)
		trust := vecmath.Full(30, 2, 0.5)
		proof := vecmath.Full(30, 2, 0.2)
		for day := 0; day < 40; day++ {
			e.Step(st, exposure, debunk, trust, proof, rng)
		}
		return st
	}
	a, b := run(), run()
	for i, v := range a.Belief.Data {
		if b.Belief.Data[i] != v {
			t.Fatalf("cell %d differs: %v vs %v", i, v, b.Belief.Data[i])
		}
	}
}

func TestSeedClaims(t *testing.T) {
	st := NewState(100, 2, 0.05)
	st.SeedClaims(randx.New(7), 0.05)
	for k := 0; k < 2; k++ {
		seeded := 0
		for i := 0; i < 100; i++ {
			if st.Belief.At(i, k) == seedBelief {
				seeded++
				if !st.Exposed.At(i, k) {
					t.Fatalf("seeded agent %d not exposed to claim %d", i, k)
				}
			}
		}
		if seeded != 5 {
			t.Errorf("claim %d seeded %d agents, want 5", k, seeded)
		}
	}
}

func TestSeedClaimsMinimumOne(t *testing.T) {
	st := NewState(10, 1, 0.05)
	st.SeedClaims(randx.New(8), 0)
	seeded := 0
	for i := 0; i < 10; i++ {
		if st.Belief.At(i, 0) == seedBelief {
			seeded++
		}
	}
	if seeded != 1 {
		t.Errorf("seeded %d agents with zero fraction, want 1", seeded)
	}
}
