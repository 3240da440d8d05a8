package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/infodemic/internal/vecmath"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRecorder persists a run into dir/run.db and belief snapshots
// into dir/snapshots.arrow.
type SQLiteRecorder struct {
	db        *sql.DB
	dir       string
	runID     string
	snapshots *SnapshotWriter
}

// NewSQLiteRecorder opens (creating if needed) the run database under
// dir and initializes the schema.
func NewSQLiteRecorder(dir string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create output dir: %w", err)
	}
	dbPath := filepath.Join(dir, "run.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRecorder{db: db, dir: dir}, nil
}

// BeginRun inserts the run row and remembers its id for later writes.
func (s *SQLiteRecorder) BeginRun(ctx context.Context, info RunInfo) error {
	s.runID = info.ID
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, config_digest, n_agents, n_claims, n_steps, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Seed, info.ConfigDigest,
		info.NAgents, info.NClaims, info.NSteps,
		info.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// RecordDay writes one batch of per-claim daily metrics in a single
// transaction.
func (s *SQLiteRecorder) RecordDay(ctx context.Context, rows []DayMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin daily metrics tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics
		(run_id, day, claim, adoption_fraction, mean_belief, polarization,
		 new_adopters, trust_gov, trust_local_news, trust_national_news)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare daily metrics: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, s.runID, r.Day, r.Claim,
			r.AdoptionFraction, r.MeanBelief, r.Polarization, r.NewAdopters,
			r.TrustGov, r.TrustLocalNews, r.TrustNationalNews); err != nil {
			return fmt.Errorf("store: insert daily metrics day %d: %w", r.Day, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit daily metrics: %w", err)
	}
	return nil
}

// RecordClusterPenetration writes the per-claim cluster penetration rows.
func (s *SQLiteRecorder) RecordClusterPenetration(ctx context.Context, rows []ClusterPenetration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin cluster tx: %w", err)
	}
	defer tx.Rollback()
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cluster_penetration (run_id, day, claim, fraction)
			VALUES (?, ?, ?, ?)`, s.runID, r.Day, r.Claim, r.Fraction); err != nil {
			return fmt.Errorf("store: insert cluster penetration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit cluster penetration: %w", err)
	}
	return nil
}

// RecordCommunities writes the detected community sizes, replacing any
// earlier rows for this run.
func (s *SQLiteRecorder) RecordCommunities(ctx context.Context, sizes []CommunitySize) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin communities tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM community_sizes WHERE run_id = ?`, s.runID); err != nil {
		return fmt.Errorf("store: clear communities: %w", err)
	}
	for _, c := range sizes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO community_sizes (run_id, community, size)
			VALUES (?, ?, ?)`, s.runID, c.Community, c.Size); err != nil {
			return fmt.Errorf("store: insert community: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit communities: %w", err)
	}
	return nil
}

// Snapshot appends one record batch of the belief matrix to the Arrow
// file, creating the writer on first use.
func (s *SQLiteRecorder) Snapshot(ctx context.Context, day int, belief *vecmath.Matrix, claimNames []string) error {
	if s.snapshots == nil {
		w, err := NewSnapshotWriter(filepath.Join(s.dir, "snapshots.arrow"), claimNames)
		if err != nil {
			return err
		}
		s.snapshots = w
	}
	return s.snapshots.Write(day, belief)
}

// FinishRun stamps the run row with the finish time and summary JSON.
func (s *SQLiteRecorder) FinishRun(ctx context.Context, summaryJSON []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, summary = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), string(summaryJSON), s.runID)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	return nil
}

// Close flushes the snapshot writer and closes the database.
func (s *SQLiteRecorder) Close() error {
	var firstErr error
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
