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

const rabItemColumns = `
	id, rab_id, nomor_lh05, part_number, material, mesin, jumlah, unit_uld, harga_satuan, subtotal`

type rabRepository struct {
	db *DB
}

func NewRABRepository(db *DB) repository.RABRepository {
	return &rabRepository{db: db}
}

func (r *rabRepository) Create(ctx context.Context, rab *domain.RAB) error {
	if rab.Status == "" {
		rab.Status = domain.RABDraft
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO rab (nomor_rab, tanggal_rab, status, total_harga)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			rab.NomorRAB, rab.TanggalRAB, string(rab.Status), rab.TotalHarga,
		).Scan(&rab.ID, &rab.CreatedAt, &rab.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert RAB: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO rab_items (
				rab_id, nomor_lh05, part_number, material, mesin, jumlah, unit_uld, harga_satuan, subtotal
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range rab.Items {
			item := &rab.Items[i]
			item.RABID = rab.ID
			if err := stmt.QueryRowxContext(ctx,
				rab.ID, item.NomorLH05, item.PartNumber, item.Material, item.Mesin,
				item.Jumlah, item.UnitULD, item.HargaSatuan, item.Subtotal,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("failed to insert RAB item: %w", err)
			}
		}

		return nil
	})
}

func (r *rabRepository) Get(ctx context.Context, id int64) (*domain.RAB, error) {
	return r.get(ctx, r.db, id)
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (r *rabRepository) get(ctx context.Context, q queryer, id int64) (*domain.RAB, error) {
	var rab domain.RAB
	query := `SELECT id, nomor_rab, tanggal_rab, status, total_harga, created_at, updated_at FROM rab WHERE id = $1`
	if err := q.GetContext(ctx, &rab, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error getting RAB: %w", err)
	}

	rab.Items = []domain.RABItem{}
	itemsQuery := fmt.Sprintf(`SELECT %s FROM rab_items WHERE rab_id = $1 ORDER BY id`, rabItemColumns)
	if err := q.SelectContext(ctx, &rab.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("error listing RAB items: %w", err)
	}

	return &rab, nil
}

func (r *rabRepository) List(ctx context.Context) ([]domain.RAB, error) {
	rabs := []domain.RAB{}
	query := `
		SELECT id, nomor_rab, tanggal_rab, status, total_harga, created_at, updated_at
		FROM rab
		ORDER BY tanggal_rab DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &rabs, query); err != nil {
		return nil, fmt.Errorf("error listing RAB: %w", err)
	}

	var items []domain.RABItem
	itemsQuery := fmt.Sprintf(`SELECT %s FROM rab_items ORDER BY rab_id, id`, rabItemColumns)
	if err := r.db.SelectContext(ctx, &items, itemsQuery); err != nil {
		return nil, fmt.Errorf("error listing RAB items: %w", err)
	}

	byRAB := make(map[int64][]domain.RABItem, len(rabs))
	for _, item := range items {
		byRAB[item.RABID] = append(byRAB[item.RABID], item)
	}
	for i := range rabs {
		rabs[i].Items = byRAB[rabs[i].ID]
		if rabs[i].Items == nil {
			rabs[i].Items = []domain.RABItem{}
		}
	}

	return rabs, nil
}

// TransitionStatus locks the RAB row, checks the move is forward, then cascades
// to the linked gangguan materials in the same transaction. Lines an earlier RAB
// locked are only moved from Pengadaan to Tersedia, never back.
func (r *rabRepository) TransitionStatus(ctx context.Context, id int64, next domain.RABStatus) (*domain.RAB, int, error) {
	var (
		updated *domain.RAB
		touched int
	)

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current domain.RABStatus
		if err := tx.GetContext(ctx, &current, `SELECT status FROM rab WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("error locking RAB: %w", err)
		}

		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current, next)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE rab SET status = $1, updated_at = NOW() WHERE id = $2`, string(next), id,
		); err != nil {
			return fmt.Errorf("failed to update RAB status: %w", err)
		}

		if cascade, ok := next.CascadeStatus(); ok {
			res, err := tx.ExecContext(ctx, `
				UPDATE gangguan_materials m
				SET status = $1, locked_by_rab = TRUE, updated_at = NOW()
				FROM gangguan g, rab_items i
				WHERE g.id = m.gangguan_id
					AND i.rab_id = $2
					AND i.nomor_lh05 = g.nomor_lh05
					AND i.part_number = m.part_number
					AND (m.locked_by_rab = FALSE OR (m.status = $3 AND $1::text = $4))
			`, string(cascade), id, string(domain.ProcurementPengadaan), string(domain.ProcurementTersedia))
			if err != nil {
				return fmt.Errorf("failed to cascade RAB status: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			touched = int(affected)
		}

		rab, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = rab
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return updated, touched, nil
}
