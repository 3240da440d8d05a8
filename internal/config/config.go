// Package config provides configuration loading for infodemic simulations.
// Configs are YAML files with optional single-level inheritance via a
// top-level "base" key; unknown fields are tolerated. All defaults are
// applied before user values, and claim emotion presets (including the
// seed-driven "random" preset) are resolved once at load time.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SimConfig holds run-level parameters.
type SimConfig struct {
	NAgents           int     `yaml:"n_agents"`
	NSteps            int     `yaml:"n_steps"`
	Steps             *int    `yaml:"steps"` // alias for n_steps
	Seed              int64   `yaml:"seed"`
	SnapshotInterval  int     `yaml:"snapshot_interval"`
	AdoptionThreshold float64 `yaml:"adoption_threshold"`
	SeedFraction      float64 `yaml:"seed_fraction"`
	LogLevel          string  `yaml:"log_level"`
}

// NeighborhoodDemographics carries optional per-neighborhood covariates.
type NeighborhoodDemographics struct {
	Ethnicity       map[string]float64 `yaml:"ethnicity"`
	CollegeEducated *float64           `yaml:"college_educated"`
	MedianIncome    *float64           `yaml:"median_income"`
}

// NeighborhoodSpec describes one explicitly configured neighborhood.
type NeighborhoodSpec struct {
	Name                string                   `yaml:"name"`
	Population          float64                  `yaml:"population"`
	Demographics        NeighborhoodDemographics `yaml:"demographics"`
	CulturalComposition []float64                `yaml:"cultural_composition"`
}

// TownConfig holds the synthetic-town layout parameters.
type TownConfig struct {
	NNeighborhoods       int                `yaml:"n_neighborhoods"`
	NeighborhoodSpecs    []NeighborhoodSpec `yaml:"neighborhood_specs"`
	NeighborhoodGrid     []int              `yaml:"neighborhood_grid"`
	HouseholdSizeMean    float64            `yaml:"household_size_mean"`
	HouseholdSizeStd     float64            `yaml:"household_size_std"`
	WorkplaceSizeMean    float64            `yaml:"workplace_size_mean"`
	SchoolSizeMean       float64            `yaml:"school_size_mean"`
	ChurchSizeMean       float64            `yaml:"church_size_mean"`
	ChurchAttendanceRate float64            `yaml:"church_attendance_rate"`
	MinAge               int                `yaml:"min_age"`
	MaxAge               int                `yaml:"max_age"`
	ChildrenFraction     float64            `yaml:"children_fraction"`
	SeniorFraction       float64            `yaml:"senior_fraction"`
	EducationLevels      []string           `yaml:"education_levels"`
	OccupationTypes      []string           `yaml:"occupation_types"`
}

// BetaParams parameterize one Beta(alpha, beta) trait family.
type BetaParams struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
}

// TraitConfig holds the trait-sampling distributions.
type TraitConfig struct {
	Personality BetaParams `yaml:"personality"`
	Cognitive   BetaParams `yaml:"cognitive"`
	Social      BetaParams `yaml:"social"`
	Emotion     BetaParams `yaml:"emotion"`
}

// NetworkConfig holds multi-layer network topology parameters.
type NetworkConfig struct {
	MeanDegree         float64            `yaml:"mean_degree"`
	GeoScale           float64            `yaml:"geo_scale"`
	IntraNeighborhoodP float64            `yaml:"intra_neighborhood_p"`
	InterNeighborhoodP float64            `yaml:"inter_neighborhood_p"`
	LayerMultipliers   map[string]float64 `yaml:"layer_multipliers"`
}

// WorldConfig holds the media/institution environment.
type WorldConfig struct {
	ModerationStrictness     float64            `yaml:"moderation_strictness"`
	AlgorithmicAmplification float64            `yaml:"algorithmic_amplification"`
	OutrageAmplification     float64            `yaml:"outrage_amplification"`
	EmotionsEnabled          bool               `yaml:"emotions_enabled"`
	DebunkIntensity          float64            `yaml:"debunk_intensity"`
	FeedInjectionRate        float64            `yaml:"feed_injection_rate"`
	InterventionDay          *int               `yaml:"intervention_day"`
	InterventionType         string             `yaml:"intervention_type"`
	InterventionStrength     float64            `yaml:"intervention_strength"`
	TrustBaselines           map[string]float64 `yaml:"trust_baselines"`
	TrustVariance            float64            `yaml:"trust_variance"`
	PlatformFriction         float64            `yaml:"platform_friction"`
	GovernanceResponseSpeed  float64            `yaml:"governance_response_speed"`
	GovernanceTransparency   float64            `yaml:"governance_transparency"`
	MediaFragmentation       float64            `yaml:"media_fragmentation"`
	ReactanceEnabled         bool               `yaml:"reactance_enabled"`
	TrustUpdateEnabled       bool               `yaml:"trust_update_enabled"`
	TrustErosionRate         float64            `yaml:"trust_erosion_rate"`
	ChurchCentrality         float64            `yaml:"church_centrality"`
	LocalMediaReach          float64            `yaml:"local_media_reach"`
	NationalMediaReach       float64            `yaml:"national_media_reach"`
	GovReach                 float64            `yaml:"gov_reach"`
	TruthCampaignIntensity   float64            `yaml:"truth_campaign_intensity"`
	CulturalTargetingEnabled bool               `yaml:"cultural_targeting_enabled"`
}

// BeliefConfig holds belief-update coefficients.
type BeliefConfig struct {
	MutualExclusionHard      bool     `yaml:"mutual_exclusion_hard"`
	TruthProtectionThreshold *float64 `yaml:"truth_protection_threshold"`
	BaselineBelief           float64  `yaml:"baseline_belief"`
	SocialProofThreshold     float64  `yaml:"social_proof_threshold"`
	Eta                      float64  `yaml:"eta"`
	Rho                      float64  `yaml:"rho"`
	Alpha                    float64  `yaml:"alpha"`
	Beta                     float64  `yaml:"beta"`
	Gamma                    float64  `yaml:"gamma"`
	Delta                    float64  `yaml:"delta"`
	LambdaSkepticism         float64  `yaml:"lambda_skepticism"`
	MuDebunk                 float64  `yaml:"mu_debunk"`
	ExposureMemoryDecay      float64  `yaml:"exposure_memory_decay"`
	BeliefDecay              float64  `yaml:"belief_decay"`
	ReactanceStrength        float64  `yaml:"reactance_strength"`
}

// SharingConfig holds sharing-probability coefficients.
type SharingConfig struct {
	BaseShareRate             float64 `yaml:"base_share_rate"`
	BeliefSensitivity         float64 `yaml:"belief_sensitivity"`
	EmotionSensitivity        float64 `yaml:"emotion_sensitivity"`
	NegEmotionSensitivity     float64 `yaml:"neg_emotion_sensitivity"`
	StatusSensitivity         float64 `yaml:"status_sensitivity"`
	ConformitySensitivity     float64 `yaml:"conformity_sensitivity"`
	SkepticismSensitivity     float64 `yaml:"skepticism_sensitivity"`
	ModerationRiskSensitivity float64 `yaml:"moderation_risk_sensitivity"`
}

// ModerationConfig holds platform-moderation coefficients.
type ModerationConfig struct {
	WarningEffect  float64 `yaml:"warning_effect"`
	DownrankEffect float64 `yaml:"downrank_effect"`
}

// SEDPNRConfig holds the compartment-transition parameters of the
// Susceptible-Exposed-Doubtful-Positive/Negative-Restrained model.
type SEDPNRConfig struct {
	Alpha           float64 `yaml:"alpha"`   // S -> E entry probability
	Gamma           float64 `yaml:"gamma"`   // E -> D probability
	MuE             float64 `yaml:"mu_e"`    // E -> S recovery
	MuD             float64 `yaml:"mu_d"`    // D -> S recovery
	LambdaP         float64 `yaml:"lambda_p"` // P -> R after a positive share
	LambdaN         float64 `yaml:"lambda_n"` // N -> R after a negative share
	BetaPosExposed  float64 `yaml:"beta_pos_exposed"`
	BetaNegExposed  float64 `yaml:"beta_neg_exposed"`
	BetaPosDoubtful float64 `yaml:"beta_pos_doubtful"`
	BetaNegDoubtful float64 `yaml:"beta_neg_doubtful"`
}

// ClaimConfig is the raw per-claim block. Pointer fields left nil are
// filled from MisinformationDefaults or TruthDefaults at load time.
type ClaimConfig struct {
	Name             string   `yaml:"name"`
	Topic            string   `yaml:"topic"`
	Memeticity       *float64 `yaml:"memeticity"`
	Virality         *float64 `yaml:"virality"`
	Falsifiability   *float64 `yaml:"falsifiability"`
	Stealth          *float64 `yaml:"stealth"`
	MutationRate     *float64 `yaml:"mutation_rate"`
	ViolationRisk    *float64 `yaml:"violation_risk"`
	Persistence      *float64 `yaml:"persistence"`
	EmotionalProfile any      `yaml:"emotional_profile"`
	IsTrue           bool     `yaml:"is_true"`

	// Emotion is the resolved profile, populated by Load.
	Emotion EmotionProfile `yaml:"-"`
}

// MetricsConfig controls the metrics collaborators.
type MetricsConfig struct {
	CommunityBackend            string `yaml:"community_backend"` // "auto" or "none"
	CommunityMaxNodes           int    `yaml:"community_max_nodes"`
	IncludeNeighborhoodClusters bool   `yaml:"include_neighborhood_clusters"`
	ClusterPenetrationEnabled   bool   `yaml:"cluster_penetration_enabled"`
}

// OutputConfig controls snapshot persistence.
type OutputConfig struct {
	SaveSnapshots bool `yaml:"save_snapshots"`
}

// Config is the full validated simulation configuration.
type Config struct {
	Sim        SimConfig        `yaml:"sim"`
	Town       TownConfig       `yaml:"town"`
	Traits     TraitConfig      `yaml:"traits"`
	Network    NetworkConfig    `yaml:"network"`
	World      WorldConfig      `yaml:"world"`
	Belief     BeliefConfig     `yaml:"belief_update"`
	Sharing    SharingConfig    `yaml:"sharing"`
	Moderation ModerationConfig `yaml:"moderation"`
	SEDPNR     SEDPNRConfig     `yaml:"sedpnr"`
	Claims     []ClaimConfig    `yaml:"claims"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Output     OutputConfig     `yaml:"output"`
}

// Default returns a Config with every block at its default values.
func Default() *Config {
	return &Config{
		Sim: SimConfig{
			NAgents:           1000,
			NSteps:            200,
			Seed:              0,
			SnapshotInterval:  50,
			AdoptionThreshold: 0.75,
			SeedFraction:      0.01,
			LogLevel:          "info",
		},
		Town: TownConfig{
			NNeighborhoods:       5,
			NeighborhoodGrid:     []int{2, 3},
			HouseholdSizeMean:    3.0,
			HouseholdSizeStd:     1.0,
			WorkplaceSizeMean:    18.0,
			SchoolSizeMean:       22.0,
			ChurchSizeMean:       40.0,
			ChurchAttendanceRate: 0.25,
			MinAge:               0,
			MaxAge:               90,
			ChildrenFraction:     0.22,
			SeniorFraction:       0.16,
			EducationLevels:      []string{"none", "high_school", "some_college", "bachelors", "graduate"},
			OccupationTypes:      []string{"unemployed", "service", "blue_collar", "white_collar", "professional", "retired"},
		},
		Traits: TraitConfig{
			Personality: BetaParams{Alpha: 2.0, Beta: 2.0},
			Cognitive:   BetaParams{Alpha: 2.0, Beta: 2.0},
			Social:      BetaParams{Alpha: 2.0, Beta: 2.0},
			Emotion:     BetaParams{Alpha: 2.0, Beta: 2.0},
		},
		Network: NetworkConfig{
			MeanDegree:         8.0,
			GeoScale:           1.5,
			IntraNeighborhoodP: 0.05,
			InterNeighborhoodP: 0.01,
			LayerMultipliers: map[string]float64{
				"family": 1.6, "work": 1.1, "school": 1.0, "church": 1.2, "neighborhood": 0.8,
			},
		},
		World: WorldConfig{
			ModerationStrictness:     0.5,
			AlgorithmicAmplification: 0.3,
			OutrageAmplification:     0.2,
			EmotionsEnabled:          true,
			DebunkIntensity:          0.25,
			FeedInjectionRate:        0.15,
			TrustBaselines: map[string]float64{
				"gov": 0.55, "church": 0.45, "local_news": 0.5,
				"national_news": 0.45, "friends": 0.6, "outgroups": 0.3,
			},
			TrustVariance:            0.12,
			PlatformFriction:         0.2,
			GovernanceResponseSpeed:  0.5,
			GovernanceTransparency:   0.5,
			MediaFragmentation:       0.4,
			ReactanceEnabled:         false,
			TrustUpdateEnabled:       false,
			TrustErosionRate:         0.02,
			ChurchCentrality:         0.4,
			LocalMediaReach:          0.4,
			NationalMediaReach:       0.35,
			GovReach:                 0.3,
			TruthCampaignIntensity:   0.3,
			CulturalTargetingEnabled: true,
		},
		Belief: BeliefConfig{
			BaselineBelief:       0.05,
			SocialProofThreshold: 0.6,
			Eta:                  0.25,
			Rho:                  0.25,
			Alpha:                0.9,
			Beta:                 0.6,
			Gamma:                0.4,
			Delta:                0.5,
			LambdaSkepticism:     0.7,
			MuDebunk:             0.8,
			ExposureMemoryDecay:  0.75,
			BeliefDecay:          0.02,
			ReactanceStrength:    0.3,
		},
		Sharing: SharingConfig{
			BaseShareRate:             0.015,
			BeliefSensitivity:         2.0,
			EmotionSensitivity:        0.5,
			NegEmotionSensitivity:     0.35,
			StatusSensitivity:         0.5,
			ConformitySensitivity:     0.4,
			SkepticismSensitivity:     0.6,
			ModerationRiskSensitivity: 0.5,
		},
		Moderation: ModerationConfig{
			WarningEffect:  0.35,
			DownrankEffect: 0.4,
		},
		SEDPNR: SEDPNRConfig{
			Alpha:           0.4,
			Gamma:           0.25,
			MuE:             0.05,
			MuD:             0.08,
			LambdaP:         0.05,
			LambdaN:         0.08,
			BetaPosExposed:  1.0,
			BetaNegExposed:  0.5,
			BetaPosDoubtful: 0.6,
			BetaNegDoubtful: 1.2,
		},
		Metrics: MetricsConfig{
			CommunityBackend:            "auto",
			CommunityMaxNodes:           20000,
			IncludeNeighborhoodClusters: true,
			ClusterPenetrationEnabled:   true,
		},
		Output: OutputConfig{SaveSnapshots: true},
	}
}

// Load reads, merges, resolves, and validates the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// Single-level base inheritance: the child file wins on conflicts.
	if base, ok := raw["base"].(string); ok && base != "" {
		baseData, err := os.ReadFile(filepath.Join(filepath.Dir(path), base))
		if err != nil {
			return nil, fmt.Errorf("config: read base %s: %w", base, err)
		}
		var baseRaw map[string]any
		if err := yaml.Unmarshal(baseData, &baseRaw); err != nil {
			return nil, fmt.Errorf("config: parse base %s: %w", base, err)
		}
		raw = deepMerge(baseRaw, raw)
		delete(raw, "base")
	}

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("config: re-encode merged config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize resolves aliases, claim defaults, and emotion presets, then
// validates. It must be called after any programmatic mutation of a
// Config built outside Load.
func (c *Config) Finalize() error {
	if c.Sim.Steps != nil {
		c.Sim.NSteps = *c.Sim.Steps
		c.Sim.Steps = nil
	}
	for i := range c.Claims {
		if err := c.resolveClaim(&c.Claims[i]); err != nil {
			return err
		}
	}
	return c.validate()
}

func (c *Config) resolveClaim(cc *ClaimConfig) error {
	defaults := MisinformationDefaults
	if cc.IsTrue {
		defaults = TruthDefaults
	}
	fill := func(p **float64, v float64) {
		if *p == nil {
			x := v
			*p = &x
		}
	}
	fill(&cc.Memeticity, defaults.Memeticity)
	fill(&cc.Virality, defaults.Virality)
	fill(&cc.Falsifiability, defaults.Falsifiability)
	fill(&cc.Stealth, defaults.Stealth)
	fill(&cc.MutationRate, defaults.MutationRate)
	fill(&cc.ViolationRisk, defaults.ViolationRisk)
	fill(&cc.Persistence, defaults.Persistence)

	switch spec := cc.EmotionalProfile.(type) {
	case nil:
		name := "balanced_negative"
		if cc.IsTrue {
			name = "truth_factual"
		}
		cc.Emotion, _ = LookupPreset(name)
	case string:
		if spec == "random" && !cc.IsTrue {
			cc.Emotion, _ = LookupPreset(RandomMisinformationPreset(c.Sim.Seed))
			return nil
		}
		p, err := resolveEmotionProfile(spec)
		if err != nil {
			return fmt.Errorf("config: claim %q: %w", cc.Name, err)
		}
		cc.Emotion = p
	default:
		p, err := resolveEmotionProfile(cc.EmotionalProfile)
		if err != nil {
			return fmt.Errorf("config: claim %q: %w", cc.Name, err)
		}
		cc.Emotion = p
	}
	return nil
}

func (c *Config) validate() error {
	if c.Sim.NAgents <= 0 {
		return fmt.Errorf("config: sim.n_agents must be positive, got %d", c.Sim.NAgents)
	}
	if c.Sim.NSteps <= 0 {
		return fmt.Errorf("config: sim.n_steps must be positive, got %d", c.Sim.NSteps)
	}
	if c.Sim.SnapshotInterval <= 0 {
		return fmt.Errorf("config: sim.snapshot_interval must be positive, got %d", c.Sim.SnapshotInterval)
	}
	if c.Sim.AdoptionThreshold <= 0 || c.Sim.AdoptionThreshold > 1 {
		return fmt.Errorf("config: sim.adoption_threshold must be in (0, 1], got %v", c.Sim.AdoptionThreshold)
	}
	if c.Sim.SeedFraction < 0 || c.Sim.SeedFraction > 1 {
		return fmt.Errorf("config: sim.seed_fraction must be in [0, 1], got %v", c.Sim.SeedFraction)
	}
	if c.Town.NNeighborhoods <= 0 && len(c.Town.NeighborhoodSpecs) == 0 {
		return fmt.Errorf("config: town needs n_neighborhoods > 0 or neighborhood_specs")
	}
	if c.World.ModerationStrictness < 0 || c.World.ModerationStrictness > 1 {
		return fmt.Errorf("config: world.moderation_strictness must be in [0, 1], got %v", c.World.ModerationStrictness)
	}
	if c.Belief.BaselineBelief < 0 || c.Belief.BaselineBelief > 1 {
		return fmt.Errorf("config: belief_update.baseline_belief must be in [0, 1], got %v", c.Belief.BaselineBelief)
	}
	if t := c.Belief.TruthProtectionThreshold; t != nil && (*t <= 0 || *t > 1) {
		return fmt.Errorf("config: belief_update.truth_protection_threshold must be in (0, 1], got %v", *t)
	}
	if c.Sharing.BaseShareRate <= 0 || c.Sharing.BaseShareRate >= 1 {
		return fmt.Errorf("config: sharing.base_share_rate must be in (0, 1), got %v", c.Sharing.BaseShareRate)
	}
	for i, cc := range c.Claims {
		if cc.Name == "" {
			return fmt.Errorf("config: claims[%d] missing name", i)
		}
	}
	if c.World.InterventionDay != nil {
		switch c.World.InterventionType {
		case "moderation", "debunk":
		default:
			return fmt.Errorf("config: world.intervention_type must be \"moderation\" or \"debunk\", got %q",
				c.World.InterventionType)
		}
	}
	return nil
}

// deepMerge merges update over base, recursing into nested mappings.
func deepMerge(base, update map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		if vm, ok := v.(map[string]any); ok {
			if bm, ok := merged[k].(map[string]any); ok {
				merged[k] = deepMerge(bm, vm)
				continue
			}
		}
		merged[k] = v
	}
	return merged
}
