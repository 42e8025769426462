// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides durable local persistence for the conversation
// log and user settings, backed by a single-file SQLite key/value table.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/grokchat/internal/model"
)

// =============================================================================
// KEYS
// =============================================================================

// Well-known keys. The conversation log and the settings share one
// namespace; clearing the conversation never touches the settings keys.
const (
	KeyConversation = "conversation"
	KeyAPIKey       = "api_key"
	KeyUseForwarder = "use_forwarder"
	KeySystemPrompt = "system_prompt"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// =============================================================================
// STORE TYPE
// =============================================================================

// Store is a durable key/value store. All reads and writes go straight
// to SQLite; there is no in-memory cache to fall out of sync.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenDefault opens the store at its default location under the user's
// home directory (~/.grokchat/grokchat.db).
func OpenDefault() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(homeDir, ".grokchat", "grokchat.db"))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// RAW KEY/VALUE OPERATIONS
// =============================================================================

// Get returns the value for a key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, nil
}

// Set writes (or overwrites) the value for a key.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// SaveConversation persists the full turn log, replacing any prior log.
func (s *Store) SaveConversation(turns []*model.Turn) error {
	encoded, err := EncodeTurns(turns)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	return s.Set(KeyConversation, encoded)
}

// LoadConversation returns the persisted turn log. A missing or
// malformed log yields an empty slice, never an error: the conversation
// is user data worth degrading gracefully over, not failing over.
func (s *Store) LoadConversation() []*model.Turn {
	raw, err := s.Get(KeyConversation)
	if err != nil {
		return []*model.Turn{}
	}
	return DecodeTurns(raw)
}

// ClearConversation removes the turn log. Settings are preserved.
func (s *Store) ClearConversation() error {
	return s.Delete(KeyConversation)
}

// =============================================================================
// SETTINGS
// =============================================================================

// APIKey returns the stored credential, or "" when unset.
func (s *Store) APIKey() string {
	v, err := s.Get(KeyAPIKey)
	if err != nil {
		return ""
	}
	return v
}

// SetAPIKey stores the credential. An empty value removes it.
func (s *Store) SetAPIKey(key string) error {
	if key == "" {
		return s.Delete(KeyAPIKey)
	}
	return s.Set(KeyAPIKey, key)
}

// UseForwarder reports whether requests should route through the local
// forwarding server instead of calling the API directly.
func (s *Store) UseForwarder() bool {
	v, err := s.Get(KeyUseForwarder)
	if err != nil {
		return false
	}
	return v == "true"
}

// SetUseForwarder stores the forwarder routing preference.
func (s *Store) SetUseForwarder(enabled bool) error {
	if enabled {
		return s.Set(KeyUseForwarder, "true")
	}
	return s.Set(KeyUseForwarder, "false")
}

// SystemPrompt returns the stored system prompt, or "" when unset.
func (s *Store) SystemPrompt() string {
	v, err := s.Get(KeySystemPrompt)
	if err != nil {
		return ""
	}
	return v
}

// SetSystemPrompt stores the system prompt. An empty value removes it.
func (s *Store) SetSystemPrompt(prompt string) error {
	if prompt == "" {
		return s.Delete(KeySystemPrompt)
	}
	return s.Set(KeySystemPrompt, prompt)
}
