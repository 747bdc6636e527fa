package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/evo/internal/ports/secondary"
)

// ConfigStore implements secondary.ConfigStore with SQLite. Values are
// stored as JSON blobs keyed by name.
type ConfigStore struct {
	db *sql.DB
}

// NewConfigStore creates a new SQLite config store.
func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Get returns the configuration under key, or nil when unset.
func (s *ConfigStore) Get(ctx context.Context, key string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM config_store WHERE key = ?", key,
	).Scan(&raw)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config %q: %w", key, err)
	}

	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("failed to decode config %q: %w", key, err)
	}

	return config, nil
}

// Set overwrites the configuration under key.
func (s *ConfigStore) Set(ctx context.Context, key string, config map[string]any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO config_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to set config %q: %w", key, err)
	}

	return nil
}

// Ensure ConfigStore implements the interface.
var _ secondary.ConfigStore = (*ConfigStore)(nil)
