package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/delve/internal/savegame"
)

// SaveRepository stores encoded snapshots in the saves table, one row per slot.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the saves table migrated.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// Save upserts data into slot.
//
// Precondition: slot must satisfy savegame.ValidSlot.
// Postcondition: A later Load of slot returns data.
func (r *SaveRepository) Save(ctx context.Context, slot string, data []byte) error {
	if err := savegame.ValidSlot(slot); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO saves (slot, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		slot, data,
	)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	return nil
}

// Load returns the data stored in slot.
//
// Postcondition: Returns savegame.ErrNoSave when the slot is empty.
func (r *SaveRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := savegame.ValidSlot(slot); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM saves WHERE slot = $1`, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, savegame.ErrNoSave
		}
		return nil, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return data, nil
}

// Exists reports whether slot holds a save.
func (r *SaveRepository) Exists(ctx context.Context, slot string) (bool, error) {
	if err := savegame.ValidSlot(slot); err != nil {
		return false, err
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM saves WHERE slot = $1)`, slot).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slot %q: %w", slot, err)
	}
	return exists, nil
}

// Delete removes slot. Deleting an empty slot is not an error.
func (r *SaveRepository) Delete(ctx context.Context, slot string) error {
	if err := savegame.ValidSlot(slot); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return nil
}

var _ savegame.Store = (*SaveRepository)(nil)
