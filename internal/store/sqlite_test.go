package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/infodemic/internal/vecmath"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	rec, err := NewSQLiteRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func beginTestRun(t *testing.T, rec *SQLiteRecorder) {
	t.Helper()
	err := rec.BeginRun(context.Background(), RunInfo{
		ID: "run-1", Seed: 42, ConfigDigest: "abc",
		NAgents: 100, NClaims: 2, NSteps: 10, StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
}

func TestRecordDayRoundTrip(t *testing.T) {
	rec := newTestRecorder(t)
	beginTestRun(t, rec)
	ctx := context.Background()

	rows := []DayMetrics{
		{Day: 0, Claim: "rumor", AdoptionFraction: 0.1, MeanBelief: 0.2, Polarization: 0.05, NewAdopters: 3, TrustGov: 0.55, TrustLocalNews: 0.5, TrustNationalNews: 0.45},
		{Day: 0, Claim: "official", AdoptionFraction: 0.02, MeanBelief: 0.1, Polarization: 0.01, TrustGov: 0.55, TrustLocalNews: 0.5, TrustNationalNews: 0.45},
	}
	if err := rec.RecordDay(ctx, rows); err != nil {
		t.Fatalf("RecordDay: %v", err)
	}

	var count int
	var adoption float64
	err := rec.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(adoption_fraction) FROM daily_metrics WHERE run_id = 'run-1'`).
		Scan(&count, &adoption)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || adoption != 0.1 {
		t.Errorf("count=%d adoption=%v, want 2 and 0.1", count, adoption)
	}
}

func TestFinishRunStampsSummary(t *testing.T) {
	rec := newTestRecorder(t)
	beginTestRun(t, rec)
	ctx := context.Background()

	if err := rec.FinishRun(ctx, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	var finished, summary string
	err := rec.db.QueryRowContext(ctx,
		`SELECT finished_at, summary FROM runs WHERE id = 'run-1'`).Scan(&finished, &summary)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if finished == "" || summary != `{"ok":true}` {
		t.Errorf("finished=%q summary=%q", finished, summary)
	}
}

func TestRecordCommunitiesReplaces(t *testing.T) {
	rec := newTestRecorder(t)
	beginTestRun(t, rec)
	ctx := context.Background()

	if err := rec.RecordCommunities(ctx, []CommunitySize{{0, 50}, {1, 50}}); err != nil {
		t.Fatalf("RecordCommunities: %v", err)
	}
	if err := rec.RecordCommunities(ctx, []CommunitySize{{0, 100}}); err != nil {
		t.Fatalf("RecordCommunities again: %v", err)
	}
	var count int
	if err := rec.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM community_sizes WHERE run_id = 'run-1'`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("community rows = %d, want 1 after replace", count)
	}
}

func TestSnapshotWritesArrowFile(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewSQLiteRecorder(dir)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	beginTestRun(t, rec)
	ctx := context.Background()

	belief := vecmath.Full(10, 2, 0.3)
	names := []string{"rumor", "official"}
	if err := rec.Snapshot(ctx, 0, belief, names); err != nil {
		t.Fatalf("Snapshot day 0: %v", err)
	}
	if err := rec.Snapshot(ctx, 25, belief, names); err != nil {
		t.Fatalf("Snapshot day 25: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := OpenSnapshots(filepath.Join(dir, "snapshots.arrow"))
	if err != nil {
		t.Fatalf("OpenSnapshots: %v", err)
	}
	defer reader.Close()
	if got := reader.NumRecords(); got != 2 {
		t.Errorf("record batches = %d, want 2", got)
	}
}
