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

const gangguanMaterialSelect = `
	SELECT
		m.id, m.gangguan_id, g.nomor_lh05, g.lokasi, m.part_number, m.jenis_barang,
		m.material, m.mesin, m.jumlah, m.status, m.locked_by_rab, m.updated_at
	FROM gangguan_materials m
	JOIN gangguan g ON g.id = m.gangguan_id
`

type gangguanRepository struct {
	db *DB
}

func NewGangguanRepository(db *DB) repository.GangguanRepository {
	return &gangguanRepository{db: db}
}

func (r *gangguanRepository) Create(ctx context.Context, g *domain.Gangguan) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO gangguan (nomor_lh05, tanggal, lokasi, komponen_gagal, penyebab)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			g.NomorLH05, g.Tanggal, g.Lokasi, g.KomponenGagal, g.Penyebab,
		).Scan(&g.ID, &g.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert gangguan: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO gangguan_materials (gangguan_id, part_number, jenis_barang, material, mesin, jumlah, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range g.Materials {
			m := &g.Materials[i]
			m.GangguanID = g.ID
			m.NomorLH05 = g.NomorLH05
			m.Lokasi = g.Lokasi
			if err := stmt.QueryRowxContext(ctx,
				g.ID, m.PartNumber, m.JenisBarang, m.Material, m.Mesin, m.Jumlah, string(m.Status),
			).Scan(&m.ID, &m.UpdatedAt); err != nil {
				return fmt.Errorf("failed to insert gangguan material: %w", err)
			}
		}

		return nil
	})
}

func (r *gangguanRepository) List(ctx context.Context) ([]domain.Gangguan, error) {
	reports := []domain.Gangguan{}
	query := `
		SELECT id, nomor_lh05, tanggal, lokasi, komponen_gagal, penyebab, created_at
		FROM gangguan
		ORDER BY tanggal DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("error listing gangguan: %w", err)
	}

	materials, err := r.ListMaterials(ctx, domain.ProcurementFilter{})
	if err != nil {
		return nil, err
	}

	byReport := make(map[int64][]domain.GangguanMaterial, len(reports))
	for _, m := range materials {
		byReport[m.GangguanID] = append(byReport[m.GangguanID], m)
	}
	for i := range reports {
		reports[i].Materials = byReport[reports[i].ID]
		if reports[i].Materials == nil {
			reports[i].Materials = []domain.GangguanMaterial{}
		}
	}

	return reports, nil
}

func (r *gangguanRepository) ListMaterials(ctx context.Context, filter domain.ProcurementFilter) ([]domain.GangguanMaterial, error) {
	filterClause, args := buildProcurementFilterClause(filter, "m", "g", 1)
	query := gangguanMaterialSelect + " WHERE 1=1" + filterClause + " ORDER BY g.tanggal DESC, m.id"

	materials := []domain.GangguanMaterial{}
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, fmt.Errorf("error listing gangguan materials: %w", err)
	}
	return materials, nil
}

func (r *gangguanRepository) UpdateMaterialStatus(ctx context.Context, id int64, status domain.ProcurementStatus) (*domain.GangguanMaterial, error) {
	var updated domain.GangguanMaterial

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE gangguan_materials
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND locked_by_rab = FALSE
		`, string(status), id)
		if err != nil {
			return fmt.Errorf("failed to update material status: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if err := tx.GetContext(ctx, &updated, gangguanMaterialSelect+" WHERE m.id = $1", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("error getting gangguan material: %w", err)
		}

		if affected == 0 {
			return domain.ErrStatusLocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
