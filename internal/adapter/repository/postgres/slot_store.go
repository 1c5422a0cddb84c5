package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

const slotSchema = `
	CREATE TABLE IF NOT EXISTS kv_slots (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// slotStore implements domain.Store over the kv_slots table
type slotStore struct {
	db *DB
}

const (
	upsertSlotQuery = `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	deleteSlotQuery = `DELETE FROM kv_slots WHERE key = $1`
)

// NewSlotStore creates a new slot store
func NewSlotStore(db *DB) domain.BatchStore {
	return &slotStore{db: db}
}

// EnsureSchema creates the kv_slots table when it is missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, slotSchema); err != nil {
		return fmt.Errorf("failed to create kv_slots table: %w", err)
	}
	return nil
}

// Get retrieves the value of a slot
func (r *slotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM kv_slots WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get slot %s: %w", key, err)
	}

	return []byte(value), true, nil
}

// Set upserts the value of a slot
func (r *slotStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertSlotQuery, key, string(value)); err != nil {
		return fmt.Errorf("failed to set slot %s: %w", key, err)
	}
	return nil
}

// Delete removes a slot
func (r *slotStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteSlotQuery, key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// WriteBatch applies every write in a database transaction
func (r *slotStore) WriteBatch(ctx context.Context, writes []domain.SlotWrite) error {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, w := range writes {
		if w.Value == nil {
			_, err = dbTx.ExecContext(ctx, deleteSlotQuery, w.Key)
		} else {
			_, err = dbTx.ExecContext(ctx, upsertSlotQuery, w.Key, string(w.Value))
		}
		if err != nil {
			return fmt.Errorf("failed to write slot %s: %w", w.Key, err)
		}
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
