// Package storage holds the engine's local persistence and the in-memory
// registries used by the delivery layer.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/memonize/memonize/internal/domain/entities"
)

// LocalStore persists one JSON state snapshot per user in a SQLite file,
// so progress survives restarts and the app works fully offline.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore opens (or creates) the SQLite database at path and
// prepares the schema. Use ":memory:" for a throwaway store.
func NewLocalStore(path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer; one connection avoids lock errors
	// and makes ":memory:" behave as one database.
	db.SetMaxOpenConns(1)

	query := `
		CREATE TABLE IF NOT EXISTS local_state (
			user_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &LocalStore{db: db}, nil
}

// SaveState writes the user's state snapshot, replacing any previous one.
func (s *LocalStore) SaveState(userID string, state *entities.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	query := `
		INSERT INTO local_state (user_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, userID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// LoadState reads the user's state snapshot. A user without a snapshot
// yields (nil, nil).
func (s *LocalStore) LoadState(userID string) (*entities.PersistedState, error) {
	query := `SELECT state FROM local_state WHERE user_id = ?`

	var data string
	err := s.db.QueryRow(query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}

	var state entities.PersistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	return &state, nil
}

// DeleteState removes the user's snapshot.
func (s *LocalStore) DeleteState(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM local_state WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}
