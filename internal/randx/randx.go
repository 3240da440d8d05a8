// Package randx provides the single deterministic random source used for
// every stochastic draw in a run. One seeded PCG stream per run keeps
// trajectories bit-reproducible for identical configuration and seed;
// parallel sweeps must create one Source per run.
package randx

import (
	"math"
	"math/rand/v2"
)

// Source wraps a seeded generator with the distribution draws the
// simulation needs. It is not safe for concurrent use.
type Source struct {
	rng *rand.Rand
}

// New creates a Source seeded from seed. The same seed always yields the
// same draw sequence.
func New(seed int64) *Source {
	s := uint64(seed)
	return &Source{rng: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// IntN returns a uniform draw in [0, n).
func (s *Source) IntN(n int) int { return s.rng.IntN(n) }

// Normal returns a draw from N(mean, sd).
func (s *Source) Normal(mean, sd float64) float64 {
	return mean + sd*s.rng.NormFloat64()
}

// Bernoulli returns true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// Gamma returns a draw from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze method. Shapes below 1 are boosted via the U^(1/a) identity.
func (s *Source) Gamma(shape float64) float64 {
	if shape < 1 {
		u := s.rng.Float64()
		return s.Gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := s.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta returns a draw from Beta(a, b).
func (s *Source) Beta(a, b float64) float64 {
	x := s.Gamma(a)
	y := s.Gamma(b)
	return x / (x + y)
}

// Dirichlet fills out with a draw from Dirichlet(alphas).
// len(out) must equal len(alphas).
func (s *Source) Dirichlet(alphas []float64, out []float64) {
	var sum float64
	for i, a := range alphas {
		out[i] = s.Gamma(a)
		sum += out[i]
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return
	}
	for i := range out {
		out[i] /= sum
	}
}

// Shuffle pseudo-randomizes the order of n elements via swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int { return s.rng.Perm(n) }

// Choice samples k distinct indices from [0, n) without replacement.
// Panics if k > n.
func (s *Source) Choice(n, k int) []int {
	if k > n {
		panic("randx: Choice k > n")
	}
	perm := s.rng.Perm(n)
	return perm[:k]
}

// Categorical returns an index drawn from the given (not necessarily
// normalized) non-negative weights. A zero-sum weight vector yields a
// uniform draw.
func (s *Source) Categorical(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return s.rng.IntN(len(weights))
	}
	u := s.rng.Float64() * total
	var acc float64
	for i, w := range weights {
		if w > 0 {
			acc += w
		}
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}
