// Package sim drives the daily simulation loop, wiring the town, claim,
// contagion, and world components together and emitting metrics and
// snapshots to the recorder.
package sim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/infodemic/internal/claims"
	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/contagion"
	"github.com/nvandessel/infodemic/internal/randx"
	"github.com/nvandessel/infodemic/internal/store"
	"github.com/nvandessel/infodemic/internal/town"
	"github.com/nvandessel/infodemic/internal/vecmath"
	"github.com/nvandessel/infodemic/internal/world"
)

// truthAdopterDecay is the daily multiplicative decay applied to the
// non-true beliefs of permanent truth adopters.
const truthAdopterDecay = 0.92

// Engine owns all mutable per-day state of one run. It is single
// threaded; parallel sweeps must build one Engine per run.
type Engine struct {
	cfg *config.Config
	log *slog.Logger
	rng *randx.Source
	rec store.Recorder

	town    *town.Town
	arena   []claims.Claim
	state   *contagion.State
	sharer  *contagion.Sharer
	beliefs *contagion.BeliefEngine

	// claimNames are the run-start slot names, stable across mutation.
	claimNames []string
	truthMask  []bool
	instTrust  []float64

	// effective intervention-adjusted values
	strictness      float64
	debunkIntensity float64

	communities []int
	clusters    []int

	prevAdopters     []int
	adoptionHistory  [][]float64
	lastPolarization []float64
}

// New generates the population and wires every collaborator for one run.
func New(cfg *config.Config, log *slog.Logger, rec store.Recorder) (*Engine, error) {
	rng := randx.New(cfg.Sim.Seed)
	t := town.Generate(cfg, rng)
	arena := claims.Load(cfg.Claims)
	if len(arena) == 0 {
		return nil, fmt.Errorf("sim: no claims to simulate")
	}

	state := contagion.NewState(cfg.Sim.NAgents, len(arena), cfg.Belief.BaselineBelief)
	state.SeedClaims(rng, cfg.Sim.SeedFraction)

	truthMask := claims.TruthMask(arena)
	match := ideologyMatch(t.Ideology, claims.AlignmentTargets(arena))
	var cultural *vecmath.Matrix
	if cfg.World.CulturalTargetingEnabled {
		cultural = claims.MatchingBonus(arena, t.CulturalGroups, rng)
	}

	beliefs := contagion.NewBeliefEngine(cfg.Belief, cfg.SEDPNR, cfg.World.ReactanceEnabled,
		truthMask, claims.PersistenceVec(arena),
		t.Traits.Skepticism, t.Traits.ConflictTolerance, match, cultural)

	names := make([]string, len(arena))
	for k := range arena {
		names[k] = arena[k].Name
	}
	instTrust := make([]float64, t.NAgents)
	for i := range instTrust {
		instTrust[i] = (t.Trust.Gov[i] + t.Trust.Church[i] +
			t.Trust.LocalNews[i] + t.Trust.NationalNews[i]) / 4
	}

	e := &Engine{
		cfg:             cfg,
		log:             log,
		rng:             rng,
		rec:             rec,
		town:            t,
		arena:           arena,
		state:           state,
		sharer:          contagion.NewSharer(t, cfg.Sharing, cfg.SEDPNR, cfg.World.PlatformFriction),
		beliefs:         beliefs,
		claimNames:      names,
		truthMask:       truthMask,
		instTrust:       instTrust,
		strictness:      cfg.World.ModerationStrictness,
		debunkIntensity: cfg.World.DebunkIntensity,
		prevAdopters:    make([]int, len(arena)),
	}
	e.detectClusters()
	return e, nil
}

// ideologyMatch broadcasts per-topic alignment targets into the
// (agent x claim) match matrix: 1 - |ideology - target|.
func ideologyMatch(ideology []float64, targets []float64) *vecmath.Matrix {
	m := vecmath.New(len(ideology), len(targets))
	for i, v := range ideology {
		for k, target := range targets {
			d := v - target
			if d < 0 {
				d = -d
			}
			m.Set(i, k, 1-d)
		}
	}
	return m
}

// Run executes the full daily loop and returns the run summary.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	info := store.RunInfo{
		ID:           runID,
		Seed:         e.cfg.Sim.Seed,
		ConfigDigest: configDigest(e.cfg),
		NAgents:      e.cfg.Sim.NAgents,
		NClaims:      len(e.arena),
		NSteps:       e.cfg.Sim.NSteps,
		StartedAt:    time.Now(),
	}
	if err := e.rec.BeginRun(ctx, info); err != nil {
		return nil, fmt.Errorf("sim: begin run: %w", err)
	}
	e.recordCommunities(ctx)
	e.snapshot(ctx, 0)

	e.log.Info("run started",
		"run_id", runID, "seed", e.cfg.Sim.Seed,
		"agents", e.cfg.Sim.NAgents, "claims", len(e.arena), "steps", e.cfg.Sim.NSteps)

	for day := 0; day < e.cfg.Sim.NSteps; day++ {
		e.step(ctx, day)
	}

	summary := e.buildSummary(runID)
	payload, err := summary.JSON()
	if err != nil {
		return nil, err
	}
	if err := e.rec.FinishRun(ctx, payload); err != nil {
		e.log.Warn("finish run not recorded", "error", err)
	}
	e.log.Info("run finished", "run_id", runID, "truth_adopters", summary.TruthAdopters)
	return summary, nil
}

// step advances one simulated day. The stage order is fixed.
func (e *Engine) step(ctx context.Context, day int) {
	n, nClaims := e.state.NAgents, e.state.NClaims

	claims.Mutate(e.arena, e.rng)
	e.applyIntervention(day)

	pos, neg := e.sharer.Probabilities(e.state, e.arena, e.strictness)
	contagion.ApplyModeration(pos, e.arena, e.strictness, &e.cfg.Moderation)
	warnings := contagion.Warnings(e.arena, e.strictness, &e.cfg.Moderation)

	posShares := vecmath.NewBool(n, nClaims)
	negShares := vecmath.NewBool(n, nClaims)
	for i := 0; i < n; i++ {
		for k := 0; k < nClaims; k++ {
			posShares.Set(i, k, e.rng.Bernoulli(pos.At(i, k)))
			negShares.Set(i, k, e.rng.Bernoulli(neg.At(i, k)))
		}
	}
	e.state.ApplyShareFatigue(posShares, negShares, &e.cfg.SEDPNR, e.rng)

	social := contagion.SocialExposure(e.town.Network.Edges, posShares, negShares, n, nClaims)
	proof := contagion.SocialProof(e.town.Network.Edges, e.state.Belief,
		e.cfg.Belief.SocialProofThreshold, e.town.Network.NeighborWeightSum)
	inst, debunk := contagion.InstitutionExposure(e.town, e.arena, &e.cfg.World,
		e.debunkIntensity, e.state.Memory)
	feed := world.FeedInjection(e.town, e.arena, &e.cfg.World)

	total := social.Clone()
	total.AddMatrix(inst)
	total.AddMatrix(feed)

	trustSignal := vecmath.New(n, nClaims)
	for i := 0; i < n; i++ {
		friends := e.town.Trust.Friends[i]
		institutional := e.instTrust[i]
		for k := 0; k < nClaims; k++ {
			weighted := social.At(i, k)*friends + inst.At(i, k)*institutional + feed.At(i, k)*friends
			trustSignal.Set(i, k, weighted/(total.At(i, k)+1e-6))
		}
	}

	// warning labels land as extra debunk pressure, weighted by how much
	// the agent trusts local news and notices labels
	for i := 0; i < n; i++ {
		factor := (0.5 + e.town.Traits.Skepticism[i]) * e.town.Trust.LocalNews[i]
		for k := 0; k < nClaims; k++ {
			debunk.Add(i, k, warnings[k]*factor)
		}
	}

	e.beliefs.Step(e.state, total, debunk, trustSignal, proof, e.rng)
	e.decayTruthAdopters()
	world.UpdateTrust(&e.town.Trust, e.state.Belief, debunk, e.truthMask, &e.cfg.World)

	if e.shouldSnapshot(day) {
		e.snapshot(ctx, day)
	}
	e.recordMetrics(ctx, day)

	e.log.Debug("day complete", "day", day, "positive_shares", posShares.Count())
}

// applyIntervention adjusts the effective moderation strictness or
// debunk intensity once, on the scheduled day.
func (e *Engine) applyIntervention(day int) {
	if e.cfg.World.InterventionDay == nil || day != *e.cfg.World.InterventionDay {
		return
	}
	strength := e.cfg.World.InterventionStrength
	switch e.cfg.World.InterventionType {
	case "moderation":
		e.strictness = vecmath.Clamp(e.strictness*(1+strength), 0, 1)
		e.log.Info("moderation intervention applied", "day", day, "strictness", e.strictness)
	case "debunk":
		e.debunkIntensity = vecmath.Clamp(e.debunkIntensity*(1+strength), 0, 1)
		e.log.Info("debunk intervention applied", "day", day, "intensity", e.debunkIntensity)
	}
}

// decayTruthAdopters gradually shrinks any regrown non-true belief of
// permanent truth adopters.
func (e *Engine) decayTruthAdopters() {
	for i, adopted := range e.state.TruthAdopters {
		if !adopted {
			continue
		}
		for k, isTrue := range e.truthMask {
			if !isTrue {
				e.state.Belief.Set(i, k, e.state.Belief.At(i, k)*truthAdopterDecay)
			}
		}
	}
}

// shouldSnapshot follows the fixed cadence: day 0 (taken before the
// loop), day 25, every snapshot_interval days, and the final day.
func (e *Engine) shouldSnapshot(day int) bool {
	if !e.cfg.Output.SaveSnapshots {
		return false
	}
	if day == 25 || day == e.cfg.Sim.NSteps-1 {
		return true
	}
	return (day+1)%e.cfg.Sim.SnapshotInterval == 0
}

func (e *Engine) snapshot(ctx context.Context, day int) {
	if !e.cfg.Output.SaveSnapshots {
		return
	}
	if err := e.rec.Snapshot(ctx, day, e.state.Belief.Clone(), e.claimNames); err != nil {
		e.log.Warn("snapshot not written", "day", day, "error", err)
	}
}

func configDigest(cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
