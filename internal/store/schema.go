package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    seed INTEGER NOT NULL,
    config_digest TEXT NOT NULL,
    n_agents INTEGER NOT NULL,
    n_claims INTEGER NOT NULL,
    n_steps INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    summary TEXT  -- JSON
);

CREATE TABLE IF NOT EXISTS daily_metrics (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day INTEGER NOT NULL,
    claim TEXT NOT NULL,
    adoption_fraction REAL NOT NULL,
    mean_belief REAL NOT NULL,
    polarization REAL NOT NULL,
    new_adopters INTEGER NOT NULL,
    trust_gov REAL NOT NULL,
    trust_local_news REAL NOT NULL,
    trust_national_news REAL NOT NULL,
    PRIMARY KEY (run_id, day, claim)
);
CREATE INDEX IF NOT EXISTS idx_daily_metrics_day ON daily_metrics(run_id, day);

CREATE TABLE IF NOT EXISTS cluster_penetration (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    day INTEGER NOT NULL,
    claim TEXT NOT NULL,
    fraction REAL NOT NULL,
    PRIMARY KEY (run_id, day, claim)
);

CREATE TABLE IF NOT EXISTS community_sizes (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    community INTEGER NOT NULL,
    size INTEGER NOT NULL,
    PRIMARY KEY (run_id, community)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates all tables and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("store: record schema version: %w", err)
	}
	return nil
}
