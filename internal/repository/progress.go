// Package repository implements the remote progress store on PostgreSQL.
// The engine treats it as a black box document store: one serialized
// progress blob per user id, last writer wins, no merge.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memonize/memonize/internal/domain/entities"
)

var ErrProgressNotFound = errors.New("progress not found")

// ProgressRepository persists progress blobs keyed by user id.
type ProgressRepository struct {
	db *pgxpool.Pool
}

func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SaveProgress upserts the full progress blob for a user. The previous
// blob is replaced wholesale.
func (r *ProgressRepository) SaveProgress(ctx context.Context, userID string, blob *entities.ProgressBlob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal progress blob: %w", err)
	}

	query := `
		INSERT INTO user_progress (user_id, progress, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET
			progress = excluded.progress,
			updated_at = excluded.updated_at
	`

	_, err = r.db.Exec(ctx, query, userID, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	return nil
}

// LoadProgress fetches the stored blob for a user. Returns
// ErrProgressNotFound when the user has never synced.
func (r *ProgressRepository) LoadProgress(ctx context.Context, userID string) (*entities.ProgressBlob, error) {
	query := `
		SELECT progress
		FROM user_progress
		WHERE user_id = $1
	`

	var data []byte
	err := r.db.QueryRow(ctx, query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("load progress: %w", err)
	}

	var blob entities.ProgressBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("unmarshal progress blob: %w", err)
	}

	return &blob, nil
}

// DeleteProgress removes the stored blob for a user.
func (r *ProgressRepository) DeleteProgress(ctx context.Context, userID string) error {
	query := `DELETE FROM user_progress WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}

	return nil
}
