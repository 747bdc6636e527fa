package db

// SchemaSQL is the complete schema for fresh evo installs.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests
// load it via GetSchemaSQL() instead of hardcoding CREATE TABLE
// statements, so repository code referencing a column that does not
// exist here fails immediately with "no such column" at development
// time, not production.
const SchemaSQL = `
-- Areas (subsystems under evolution)
CREATE TABLE IF NOT EXISTS areas (
	name TEXT PRIMARY KEY,
	current_version TEXT NOT NULL,
	metric_names TEXT NOT NULL DEFAULT '[]',
	priority INTEGER NOT NULL DEFAULT 0,
	active_experiments INTEGER NOT NULL DEFAULT 0,
	total_experiments INTEGER NOT NULL DEFAULT 0,
	success_rate REAL NOT NULL DEFAULT 0,
	last_experiment_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Version records (append-only history per area)
CREATE TABLE IF NOT EXISTS version_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	area_name TEXT NOT NULL,
	version TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	improvement REAL NOT NULL DEFAULT 0,
	FOREIGN KEY (area_name) REFERENCES areas(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_version_records_area ON version_records(area_name);

-- Experiments (scheduling units)
CREATE TABLE IF NOT EXISTS experiments (
	id TEXT PRIMARY KEY,
	area_name TEXT NOT NULL,
	hypothesis TEXT NOT NULL,
	treatment TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL CHECK(status IN ('active', 'completed')) DEFAULT 'active',
	paused INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	FOREIGN KEY (area_name) REFERENCES areas(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_experiments_area ON experiments(area_name);
CREATE INDEX IF NOT EXISTS idx_experiments_status ON experiments(status);

-- Deployments (canary rollout state machine)
CREATE TABLE IF NOT EXISTS deployments (
	id TEXT PRIMARY KEY,
	variant_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('deploying', 'deployed', 'rolled_back', 'failed')) DEFAULT 'deploying',
	canary_percent REAL NOT NULL DEFAULT 0,
	canary_active INTEGER NOT NULL DEFAULT 0,
	rollback_plan TEXT NOT NULL DEFAULT '{}',
	current_config TEXT NOT NULL DEFAULT '{}',
	rollback_reason TEXT,
	rollback_threshold REAL NOT NULL DEFAULT 0,
	error_rate REAL NOT NULL DEFAULT 0,
	deployed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deployments_status ON deployments(status);

-- Config store (opaque configuration blobs keyed by name)
CREATE TABLE IF NOT EXISTS config_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the database schema on a fresh install.
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	_, err = db.Exec(SchemaSQL)
	return err
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to
// prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
