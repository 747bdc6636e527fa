// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/evo/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedArea inserts a test area and returns its name.
func seedArea(t *testing.T, db *sql.DB, name, version string) string {
	t.Helper()
	if name == "" {
		name = "prediction"
	}
	if version == "" {
		version = "1.0.0"
	}
	_, err := db.Exec("INSERT INTO areas (name, current_version, metric_names) VALUES (?, ?, '[\"accuracy\"]')", name, version)
	if err != nil {
		t.Fatalf("failed to seed area: %v", err)
	}
	return name
}

// seedExperiment inserts a test active experiment and returns its ID.
func seedExperiment(t *testing.T, db *sql.DB, id, area string, startedAt time.Time) string {
	t.Helper()
	if id == "" {
		id = "EXP-001"
	}
	if area == "" {
		area = "prediction"
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err := db.Exec(
		"INSERT INTO experiments (id, area_name, hypothesis, status, started_at) VALUES (?, ?, 'test hypothesis', 'active', ?)",
		id, area, startedAt,
	)
	if err != nil {
		t.Fatalf("failed to seed experiment: %v", err)
	}
	return id
}
