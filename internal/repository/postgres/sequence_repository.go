package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/material-tracker/internal/repository"
)

type sequenceRepository struct {
	db *DB
}

func NewSequenceRepository(db *DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments and returns the named counter in one statement, so concurrent
// callers never observe the same value.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO document_sequences (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET value = document_sequences.value + 1
		RETURNING value
	`
	var value int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

// AdvanceTo raises the named counter to at least value. It never lowers it.
func (r *sequenceRepository) AdvanceTo(ctx context.Context, name string, value int64) error {
	query := `
		INSERT INTO document_sequences (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name)
		DO UPDATE SET value = GREATEST(document_sequences.value, EXCLUDED.value)
	`
	if _, err := r.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return nil
}
