package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/infodemic/internal/randx"
)

// EmotionProfile is the {fear, anger, hope} triple attached to a claim.
type EmotionProfile struct {
	Fear  float64 `yaml:"fear"`
	Anger float64 `yaml:"anger"`
	Hope  float64 `yaml:"hope"`
}

// Preset pairs a named emotion profile with a short description.
type Preset struct {
	Name        string
	Profile     EmotionProfile
	Description string
}

// misinformationPresets are the five core misinformation emotion profiles.
// Order matters: the "random" preset draws an index into this slice.
var misinformationPresets = []Preset{
	{
		Name:        "fear_panic",
		Profile:     EmotionProfile{Fear: 0.65, Anger: 0.25, Hope: 0.10},
		Description: "Panic-inducing misinformation (health scares, economic collapse)",
	},
	{
		Name:        "anger_outrage",
		Profile:     EmotionProfile{Fear: 0.30, Anger: 0.60, Hope: 0.10},
		Description: "Outrage-inducing misinformation (conspiracy theories, political attacks)",
	},
	{
		Name:        "balanced_negative",
		Profile:     EmotionProfile{Fear: 0.50, Anger: 0.40, Hope: 0.10},
		Description: "Balanced negative emotions (typical misinformation)",
	},
	{
		Name:        "conspiracy",
		Profile:     EmotionProfile{Fear: 0.40, Anger: 0.55, Hope: 0.05},
		Description: "Conspiracy theory profile (deep state narratives, unfalsifiable claims)",
	},
	{
		Name:        "stealth_moderate",
		Profile:     EmotionProfile{Fear: 0.35, Anger: 0.35, Hope: 0.30},
		Description: "Stealth misinformation (evades detection, moderate emotions)",
	},
}

var truthPresets = []Preset{
	{
		Name:        "truth_factual",
		Profile:     EmotionProfile{Fear: 0.05, Anger: 0.00, Hope: 0.55},
		Description: "Factual truth with positive framing",
	},
	{
		Name:        "truth_neutral",
		Profile:     EmotionProfile{Fear: 0.10, Anger: 0.00, Hope: 0.20},
		Description: "Neutral, low-emotion truth",
	},
}

// Presets returns every named emotion preset, misinformation first.
func Presets() []Preset {
	out := make([]Preset, 0, len(misinformationPresets)+len(truthPresets))
	out = append(out, misinformationPresets...)
	out = append(out, truthPresets...)
	return out
}

// LookupPreset returns the profile for a preset name.
func LookupPreset(name string) (EmotionProfile, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p.Profile, true
		}
	}
	return EmotionProfile{}, false
}

// PresetNames returns all valid preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(misinformationPresets)+len(truthPresets))
	for _, p := range Presets() {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// RandomMisinformationPreset picks a misinformation preset name
// deterministically from the run seed. It is resolved once at load time,
// never per step.
func RandomMisinformationPreset(seed int64) string {
	rng := randx.New(seed)
	return misinformationPresets[rng.IntN(len(misinformationPresets))].Name
}

// resolveEmotionProfile turns a raw yaml emotional_profile value (preset
// name or {fear, anger, hope} mapping) into a concrete profile. The
// "random" sentinel must be handled by the caller before this point.
func resolveEmotionProfile(spec any) (EmotionProfile, error) {
	switch v := spec.(type) {
	case string:
		if p, ok := LookupPreset(v); ok {
			return p, nil
		}
		return EmotionProfile{}, fmt.Errorf(
			"unknown emotion preset %q (valid presets: %s)", v, strings.Join(PresetNames(), ", "))
	case map[string]any:
		var p EmotionProfile
		if f, ok := toFloat(v["fear"]); ok {
			p.Fear = f
		}
		if a, ok := toFloat(v["anger"]); ok {
			p.Anger = a
		}
		if h, ok := toFloat(v["hope"]); ok {
			p.Hope = h
		}
		return p, nil
	default:
		return EmotionProfile{}, fmt.Errorf("invalid emotional_profile type %T", spec)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// ClaimDefaults are the per-claim parameter defaults applied when a claim
// config leaves a field unset.
type ClaimDefaults struct {
	Memeticity     float64
	Virality       float64
	Falsifiability float64
	Stealth        float64
	MutationRate   float64
	ViolationRisk  float64
	Persistence    float64
}

// MisinformationDefaults reflect the observed ~6x spread advantage of
// false claims over true ones: virality 0.3 vs 0.05.
var MisinformationDefaults = ClaimDefaults{
	Memeticity:     0.25,
	Virality:       0.3,
	Falsifiability: 0.40,
	Stealth:        0.55,
	MutationRate:   0.06,
	ViolationRisk:  0.35,
	Persistence:    0.25,
}

// TruthDefaults describe verifiable claims: transparent, non-mutating,
// slow to spread but persistent once adopted.
var TruthDefaults = ClaimDefaults{
	Memeticity:     0.08,
	Virality:       0.05,
	Falsifiability: 1.0,
	Stealth:        0.0,
	MutationRate:   0.0,
	ViolationRisk:  0.0,
	Persistence:    0.75,
}
