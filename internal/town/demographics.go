package town

import (
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// ethnicityLabels is the fixed label set sampled from neighborhood specs.
var ethnicityLabels = []string{"white", "hispanic", "black", "asian", "other"}

// Demographics holds per-agent demographic attributes.
type Demographics struct {
	Age            []int
	EducationLevel []int
	Occupation     []int
	Ethnicity      []string // nil when no neighborhood specs provide distributions
}

// GenerateDemographics samples ages in three bands (children, adults,
// seniors) at the configured fractions, then shuffles so band membership
// is uncorrelated with agent index.
func GenerateDemographics(rng *randx.Source, nAgents int, town *config.TownConfig) Demographics {
	children := int(float64(nAgents) * town.ChildrenFraction)
	seniors := int(float64(nAgents) * town.SeniorFraction)
	adults := nAgents - children - seniors

	ages := make([]int, 0, nAgents)
	for i := 0; i < children; i++ {
		ages = append(ages, rng.IntN(18))
	}
	for i := 0; i < adults; i++ {
		ages = append(ages, 18+rng.IntN(47))
	}
	for i := 0; i < seniors; i++ {
		ages = append(ages, 65+rng.IntN(town.MaxAge-65+1))
	}
	rng.Shuffle(nAgents, func(i, j int) { ages[i], ages[j] = ages[j], ages[i] })

	education := make([]int, nAgents)
	occupation := make([]int, nAgents)
	for i := 0; i < nAgents; i++ {
		education[i] = rng.IntN(len(town.EducationLevels))
		occupation[i] = rng.IntN(len(town.OccupationTypes))
	}
	return Demographics{Age: ages, EducationLevel: education, Occupation: occupation}
}

// Traits holds per-agent psychological attributes, all in [0, 1].
type Traits struct {
	Personality *vecmath.Matrix // n x 5, five-factor

	Skepticism             []float64
	NeedForClosure         []float64
	ConspiratorialTendency []float64
	Numeracy               []float64
	Conformity             []float64
	StatusSeeking          []float64
	Prosociality           []float64
	ConflictTolerance      []float64
	Credibility            []float64

	Emotions *Emotions // nil when emotions are disabled
}

// Emotions is the optional per-agent fear/anger/hope triplet.
type Emotions struct {
	Fear  []float64
	Anger []float64
	Hope  []float64
}

func betaSlice(rng *randx.Source, p config.BetaParams, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Beta(p.Alpha, p.Beta)
	}
	return out
}

// GenerateTraits samples the trait vector from the configured Beta
// families, then shifts skepticism, numeracy, conspiratorial tendency, and
// conformity by neighborhood education/income covariates using fixed
// linear sensitivity coefficients. Each adjusted trait is clamped back to
// [0, 1].
func GenerateTraits(
	rng *randx.Source,
	nAgents int,
	cfg *config.TraitConfig,
	emotionsEnabled bool,
	ages []int,
	neighborhoodIDs []int,
	eduByNeighborhood map[int]float64,
	incomeByNeighborhood map[int]float64,
) Traits {
	personality := vecmath.New(nAgents, 5)
	for j := 0; j < 5; j++ {
		for i := 0; i < nAgents; i++ {
			personality.Set(i, j, rng.Beta(cfg.Personality.Alpha, cfg.Personality.Beta))
		}
	}

	t := Traits{
		Personality:            personality,
		Skepticism:             betaSlice(rng, cfg.Cognitive, nAgents),
		NeedForClosure:         betaSlice(rng, cfg.Cognitive, nAgents),
		ConspiratorialTendency: betaSlice(rng, cfg.Cognitive, nAgents),
		Numeracy:               betaSlice(rng, cfg.Cognitive, nAgents),
		Conformity:             betaSlice(rng, cfg.Social, nAgents),
		StatusSeeking:          betaSlice(rng, cfg.Social, nAgents),
		Prosociality:           betaSlice(rng, cfg.Social, nAgents),
		ConflictTolerance:      betaSlice(rng, cfg.Social, nAgents),
	}

	if neighborhoodIDs != nil && eduByNeighborhood != nil {
		// Higher neighborhood education raises skepticism and numeracy and
		// lowers conspiratorial tendency.
		for i := 0; i < nAgents; i++ {
			edu, ok := eduByNeighborhood[neighborhoodIDs[i]]
			if !ok {
				continue
			}
			norm := (edu - 0.3) / 0.5
			t.Skepticism[i] = vecmath.Clamp(t.Skepticism[i]+0.25*norm, 0, 1)
			t.Numeracy[i] = vecmath.Clamp(t.Numeracy[i]+0.3*norm, 0, 1)
			t.ConspiratorialTendency[i] = vecmath.Clamp(t.ConspiratorialTendency[i]-0.25*norm, 0, 1)
		}
	}
	if neighborhoodIDs != nil && incomeByNeighborhood != nil {
		// Higher neighborhood income lowers conformity.
		for i := 0; i < nAgents; i++ {
			income, ok := incomeByNeighborhood[neighborhoodIDs[i]]
			if !ok {
				continue
			}
			norm := vecmath.Clamp((income-30000)/80000, 0, 1)
			t.Conformity[i] = vecmath.Clamp(t.Conformity[i]-0.2*(norm-0.5), 0, 1)
		}
	}

	if emotionsEnabled {
		t.Emotions = &Emotions{
			Fear:  betaSlice(rng, cfg.Emotion, nAgents),
			Anger: betaSlice(rng, cfg.Emotion, nAgents),
			Hope:  betaSlice(rng, cfg.Emotion, nAgents),
		}
	}

	t.Credibility = ageCredibility(ages, nAgents)
	return t
}

// ageCredibility maps each agent's age to its percentile rank so agents
// older than their peers carry more sharing credibility.
func ageCredibility(ages []int, nAgents int) []float64 {
	cred := make([]float64, nAgents)
	// rank via counting sort over the bounded age domain: rank[i] = number
	// of agents strictly younger plus ties seen before i.
	maxAge := 0
	for _, a := range ages {
		if a > maxAge {
			maxAge = a
		}
	}
	counts := make([]int, maxAge+2)
	for _, a := range ages {
		counts[a+1]++
	}
	for i := 1; i < len(counts); i++ {
		counts[i] += counts[i-1]
	}
	denom := float64(nAgents - 1)
	if denom < 1 {
		denom = 1
	}
	for i, a := range ages {
		rank := counts[a]
		counts[a]++
		cred[i] = vecmath.Clamp(0.2+0.75*float64(rank)/denom, 0.2, 0.95)
	}
	return cred
}

// Trust holds the six independent per-agent trust scalars.
type Trust struct {
	Gov          []float64
	Church       []float64
	LocalNews    []float64
	NationalNews []float64
	Friends      []float64
	Outgroups    []float64
}

// GenerateTrust jitters the configured baselines with normal noise and
// applies neighborhood income/education covariates, clamping to [0, 1].
func GenerateTrust(
	rng *randx.Source,
	nAgents int,
	world *config.WorldConfig,
	neighborhoodIDs []int,
	incomeByNeighborhood map[int]float64,
	eduByNeighborhood map[int]float64,
) Trust {
	jitter := func(base float64) []float64 {
		out := make([]float64, nAgents)
		for i := range out {
			out[i] = vecmath.Clamp(rng.Normal(base, world.TrustVariance), 0, 1)
		}
		return out
	}
	tr := Trust{
		Gov:          jitter(world.TrustBaselines["gov"]),
		Church:       jitter(world.TrustBaselines["church"]),
		LocalNews:    jitter(world.TrustBaselines["local_news"]),
		NationalNews: jitter(world.TrustBaselines["national_news"]),
		Friends:      jitter(world.TrustBaselines["friends"]),
		Outgroups:    jitter(world.TrustBaselines["outgroups"]),
	}

	if neighborhoodIDs != nil && incomeByNeighborhood != nil {
		// Higher income raises institutional trust.
		for i := 0; i < nAgents; i++ {
			income, ok := incomeByNeighborhood[neighborhoodIDs[i]]
			if !ok {
				continue
			}
			norm := vecmath.Clamp((income-30000)/80000, 0, 1)
			effect := (norm - 0.5) * 0.25
			tr.Gov[i] = vecmath.Clamp(tr.Gov[i]+effect, 0, 1)
			tr.LocalNews[i] = vecmath.Clamp(tr.LocalNews[i]+effect*0.8, 0, 1)
			tr.NationalNews[i] = vecmath.Clamp(tr.NationalNews[i]+effect*0.8, 0, 1)
		}
	}
	if neighborhoodIDs != nil && eduByNeighborhood != nil {
		// Higher education raises media trust and lowers church trust.
		for i := 0; i < nAgents; i++ {
			edu, ok := eduByNeighborhood[neighborhoodIDs[i]]
			if !ok {
				continue
			}
			effect := (edu - 0.3) / 0.5
			tr.LocalNews[i] = vecmath.Clamp(tr.LocalNews[i]+0.1*effect, 0, 1)
			tr.NationalNews[i] = vecmath.Clamp(tr.NationalNews[i]+0.1*effect, 0, 1)
			tr.Church[i] = vecmath.Clamp(tr.Church[i]-0.15*effect, 0, 1)
		}
	}
	return tr
}

// Media channel indices, shared with the exposure engine.
const (
	ChannelLocalSocial = iota
	ChannelNationalSocial
	ChannelTV
	ChannelLocalNews
	ChannelChurch
	NumChannels
)

// MediaChannels names the fixed channel set in index order.
var MediaChannels = []string{"local_social", "national_social", "tv", "local_news", "church"}

// MediaDiet holds each agent's simplex of channel weights.
type MediaDiet struct {
	Channels []string
	Weights  *vecmath.Matrix // n x NumChannels, rows sum to 1
}

// GenerateMediaDiet samples per-agent channel weights from a Dirichlet
// prior biased toward social and local-news consumption.
func GenerateMediaDiet(rng *randx.Source, nAgents int) MediaDiet {
	alphas := []float64{1.5, 1.2, 1.0, 1.3, 0.9}
	weights := vecmath.New(nAgents, NumChannels)
	for i := 0; i < nAgents; i++ {
		rng.Dirichlet(alphas, weights.Row(i))
	}
	return MediaDiet{Channels: MediaChannels, Weights: weights}
}

// IdeologyProxy derives a [0, 1] ideology scalar from traits and trust.
func IdeologyProxy(t Traits, tr Trust) []float64 {
	n := len(t.Skepticism)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		raw := 0.2*t.ConspiratorialTendency[i] +
			0.2*(1-t.Numeracy[i]) +
			0.15*t.Conformity[i] +
			0.15*(1-tr.Outgroups[i]) +
			0.15*tr.Church[i] +
			0.15*(1-tr.NationalNews[i])
		out[i] = vecmath.Clamp(raw, 0, 1)
	}
	return out
}
