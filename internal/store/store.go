// Package store persists run metadata, daily metrics, and belief
// snapshots. SQLite holds the tabular data; snapshots go to an Arrow IPC
// file, one record batch per snapshot day.
package store

import (
	"context"
	"time"

	"github.com/nvandessel/infodemic/internal/vecmath"
)

// RunInfo identifies a run and its configuration.
type RunInfo struct {
	ID           string
	Seed         int64
	ConfigDigest string
	NAgents      int
	NClaims      int
	NSteps       int
	StartedAt    time.Time
}

// DayMetrics is one per-claim row of daily aggregates.
type DayMetrics struct {
	Day               int
	Claim             string
	AdoptionFraction  float64
	MeanBelief        float64
	Polarization      float64
	NewAdopters       int
	TrustGov          float64
	TrustLocalNews    float64
	TrustNationalNews float64
}

// ClusterPenetration is the fraction of clusters with at least one
// adopter of a claim on a given day.
type ClusterPenetration struct {
	Day      int
	Claim    string
	Fraction float64
}

// CommunitySize is one detected community and its member count.
type CommunitySize struct {
	Community int
	Size      int
}

// Recorder receives finalized daily state from the orchestrator. All
// methods see read-only copies; implementations may persist
// asynchronously.
type Recorder interface {
	BeginRun(ctx context.Context, info RunInfo) error
	RecordDay(ctx context.Context, rows []DayMetrics) error
	RecordClusterPenetration(ctx context.Context, rows []ClusterPenetration) error
	RecordCommunities(ctx context.Context, sizes []CommunitySize) error
	Snapshot(ctx context.Context, day int, belief *vecmath.Matrix, claimNames []string) error
	FinishRun(ctx context.Context, summaryJSON []byte) error
	Close() error
}

// NopRecorder discards everything; used by tests and the validate
// command.
type NopRecorder struct{}

func (NopRecorder) BeginRun(context.Context, RunInfo) error                 { return nil }
func (NopRecorder) RecordDay(context.Context, []DayMetrics) error           { return nil }
func (NopRecorder) RecordClusterPenetration(context.Context, []ClusterPenetration) error {
	return nil
}
func (NopRecorder) RecordCommunities(context.Context, []CommunitySize) error { return nil }
func (NopRecorder) Snapshot(context.Context, int, *vecmath.Matrix, []string) error {
	return nil
}
func (NopRecorder) FinishRun(context.Context, []byte) error { return nil }
func (NopRecorder) Close() error                            { return nil }
