package sim

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/nvandessel/infodemic/internal/config"
	"github.com/nvandessel/infodemic/internal/store"
	"github.com/nvandessel/infodemic/internal/vecmath"
)

// captureRecorder keeps everything the engine emits in memory.
type captureRecorder struct {
	store.NopRecorder
	days         []store.DayMetrics
	pens         []store.ClusterPenetration
	snapshotDays []int
	summary      []byte
}

func (c *captureRecorder) RecordDay(_ context.Context, rows []store.DayMetrics) error {
	c.days = append(c.days, rows...)
	return nil
}

func (c *captureRecorder) Snapshot(_ context.Context, day int, _ *vecmath.Matrix, _ []string) error {
	c.snapshotDays = append(c.snapshotDays, day)
	return nil
}

func (c *captureRecorder) RecordClusterPenetration(_ context.Context, rows []store.ClusterPenetration) error {
	c.pens = append(c.pens, rows...)
	return nil
}

func (c *captureRecorder) FinishRun(_ context.Context, summary []byte) error {
	c.summary = summary
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenarioConfig(nAgents, steps int, seed int64) *config.Config {
	cfg := config.Default()
	cfg.Sim.NAgents = nAgents
	cfg.Sim.NSteps = steps
	cfg.Sim.Seed = seed
	cfg.Claims = []config.ClaimConfig{
		{Name: "silver_river", Topic: "health_rumor"},
		{Name: "official_report", Topic: "health_rumor", IsTrue: true},
	}
	if err := cfg.Finalize(); err != nil {
		panic(err)
	}
	return cfg
}

func runScenario(t *testing.T, cfg *config.Config) (*Summary, *captureRecorder) {
	t.Helper()
	rec := &captureRecorder{}
	eng, err := New(cfg, quietLogger(), rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary, rec
}

func TestInstitutionalTrustAveragesFourChannels(t *testing.T) {
	cfg := scenarioConfig(30, 5, 21)
	eng, err := New(cfg, quietLogger(), &captureRecorder{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr := eng.town.Trust
	for i, got := range eng.instTrust {
		want := (tr.Gov[i] + tr.Church[i] + tr.LocalNews[i] + tr.NationalNews[i]) / 4
		if got != want {
			t.Fatalf("agent %d institutional trust = %v, want %v", i, got, want)
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	run := func() []store.DayMetrics {
		_, rec := runScenario(t, scenarioConfig(80, 15, 7))
		return rec.days
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBeliefsStayClampedThroughRun(t *testing.T) {
	cfg := scenarioConfig(100, 30, 3)
	rec := &captureRecorder{}
	eng, err := New(cfg, quietLogger(), rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, b := range eng.state.Belief.Data {
		if b < 0 || b > 1 {
			t.Fatalf("belief %v out of [0,1] after run", b)
		}
	}
}

func TestFalseClaimSpreadsFasterEarly(t *testing.T) {
	cfg := scenarioConfig(300, 20, 11)
	_, rec := runScenario(t, cfg)

	// compare mean belief per claim on the last recorded day
	var falseBelief, trueBelief float64
	for _, row := range rec.days {
		if row.Day != cfg.Sim.NSteps-1 {
			continue
		}
		if row.Claim == "silver_river" {
			falseBelief = row.MeanBelief
		} else {
			trueBelief = row.MeanBelief
		}
	}
	if falseBelief <= trueBelief {
		t.Errorf("false-claim mean belief %v not above true claim %v in the early phase",
			falseBelief, trueBelief)
	}
}

func TestSnapshotCadence(t *testing.T) {
	cfg := scenarioConfig(50, 60, 5)
	cfg.Sim.SnapshotInterval = 50
	_, rec := runScenario(t, cfg)

	want := []int{0, 25, 49, 59}
	if len(rec.snapshotDays) != len(want) {
		t.Fatalf("snapshot days = %v, want %v", rec.snapshotDays, want)
	}
	for i, d := range want {
		if rec.snapshotDays[i] != d {
			t.Fatalf("snapshot days = %v, want %v", rec.snapshotDays, want)
		}
	}
}

func TestSnapshotsDisabled(t *testing.T) {
	cfg := scenarioConfig(40, 30, 5)
	cfg.Output.SaveSnapshots = false
	_, rec := runScenario(t, cfg)
	if len(rec.snapshotDays) != 0 {
		t.Errorf("snapshots written while disabled: %v", rec.snapshotDays)
	}
}

func TestModerationInterventionRaisesStrictness(t *testing.T) {
	cfg := scenarioConfig(40, 12, 9)
	day := 5
	cfg.World.InterventionDay = &day
	cfg.World.InterventionType = "moderation"
	cfg.World.InterventionStrength = 1.0

	rec := &captureRecorder{}
	eng, err := New(cfg, quietLogger(), rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := eng.strictness
	summary, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if eng.strictness <= before {
		t.Errorf("strictness %v did not rise from %v", eng.strictness, before)
	}
	if eng.strictness > 1 {
		t.Errorf("strictness %v above cap", eng.strictness)
	}
	if summary.InterventionEffect == nil {
		t.Error("summary missing intervention effect")
	}
}

func TestSummaryShape(t *testing.T) {
	summary, rec := runScenario(t, scenarioConfig(60, 10, 13))
	if summary.Days != 10 {
		t.Errorf("summary days = %d", summary.Days)
	}
	if len(summary.Claims) != 2 {
		t.Fatalf("summary claims = %d", len(summary.Claims))
	}
	for _, cs := range summary.Claims {
		if cs.PeakAdoption < cs.FinalAdoption {
			t.Errorf("claim %s: peak %v below final %v", cs.Name, cs.PeakAdoption, cs.FinalAdoption)
		}
		if cs.PeakDay < 0 || cs.PeakDay >= 10 {
			t.Errorf("claim %s: peak day %d out of range", cs.Name, cs.PeakDay)
		}
	}
	if len(rec.summary) == 0 {
		t.Error("summary JSON not recorded")
	}
}

func TestClusterPenetrationRows(t *testing.T) {
	cfg := scenarioConfig(60, 30, 17)
	_, rec := runScenario(t, cfg)
	if len(rec.pens) == 0 {
		t.Fatal("no cluster penetration rows recorded")
	}
	for _, row := range rec.pens {
		if row.Fraction < 0 || row.Fraction > 1 {
			t.Errorf("penetration %v out of [0,1]", row.Fraction)
		}
	}
}
