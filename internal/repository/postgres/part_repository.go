package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/repository"
	"github.com/jmoiron/sqlx"
)

type partRepository struct {
	db *DB
}

func NewPartRepository(db *DB) repository.PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) Upsert(ctx context.Context, parts []domain.Part) (int, error) {
	if len(parts) == 0 {
		return 0, nil
	}

	count := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO parts (part_number, jenis_barang, material, mesin, satuan, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (part_number)
			DO UPDATE SET
				jenis_barang = EXCLUDED.jenis_barang,
				material = EXCLUDED.material,
				mesin = EXCLUDED.mesin,
				satuan = EXCLUDED.satuan,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, part := range parts {
			if _, err := stmt.ExecContext(ctx, part.PartNumber, part.JenisBarang, part.Material, part.Mesin, part.Satuan); err != nil {
				return fmt.Errorf("failed to upsert part %s: %w", part.PartNumber, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *partRepository) Get(ctx context.Context, partNumber string) (*domain.Part, error) {
	var part domain.Part
	query := `SELECT part_number, jenis_barang, material, mesin, satuan, updated_at FROM parts WHERE part_number = $1`
	if err := r.db.GetContext(ctx, &part, query, partNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error getting part: %w", err)
	}
	return &part, nil
}

func (r *partRepository) Search(ctx context.Context, search string, limit int) ([]domain.Part, error) {
	query := `
		SELECT part_number, jenis_barang, material, mesin, satuan, updated_at
		FROM parts
		WHERE 1=1
	`
	var args []interface{}
	argCounter := 1

	if search != "" {
		query += fmt.Sprintf(" AND (part_number ILIKE $%d OR material ILIKE $%d)", argCounter, argCounter)
		args = append(args, "%"+search+"%")
		argCounter++
	}

	query += " ORDER BY part_number"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, limit)
	}

	parts := []domain.Part{}
	if err := r.db.SelectContext(ctx, &parts, query, args...); err != nil {
		return nil, fmt.Errorf("error searching parts: %w", err)
	}
	return parts, nil
}
