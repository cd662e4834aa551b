package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/repository"
)

type targetAgeRepository struct {
	db *DB
}

func NewTargetAgeRepository(db *DB) repository.TargetAgeRepository {
	return &targetAgeRepository{db: db}
}

func (r *targetAgeRepository) Get(ctx context.Context, partNumber string) (*domain.TargetAge, error) {
	var target domain.TargetAge
	query := `SELECT part_number, target_days, updated_at FROM part_targets WHERE part_number = $1`
	if err := r.db.GetContext(ctx, &target, query, partNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error getting target age: %w", err)
	}
	return &target, nil
}

func (r *targetAgeRepository) Set(ctx context.Context, partNumber string, days int) (*domain.TargetAge, error) {
	query := `
		INSERT INTO part_targets (part_number, target_days, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (part_number)
		DO UPDATE SET target_days = EXCLUDED.target_days, updated_at = NOW()
		RETURNING part_number, target_days, updated_at
	`
	var target domain.TargetAge
	if err := r.db.GetContext(ctx, &target, query, partNumber, days); err != nil {
		return nil, fmt.Errorf("failed to upsert target age: %w", err)
	}
	return &target, nil
}

func (r *targetAgeRepository) List(ctx context.Context) ([]domain.TargetAge, error) {
	targets := []domain.TargetAge{}
	query := `SELECT part_number, target_days, updated_at FROM part_targets ORDER BY part_number`
	if err := r.db.SelectContext(ctx, &targets, query); err != nil {
		return nil, fmt.Errorf("error listing target ages: %w", err)
	}
	return targets, nil
}
