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

const transactionColumns = `
	id, nomor_ba, tanggal, jenis_transaksi, lokasi_asal, lokasi_tujuan,
	pemeriksa, penerima, signature_pemeriksa_key, signature_penerima_key, created_at`

const materialColumns = `
	id, transaction_id, part_number, jenis_barang, material, mesin, status, serial_number, jumlah`

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Append(ctx context.Context, t *domain.Transaction) error {
	if len(t.Materials) == 0 {
		return errors.New("transaction must carry at least one material line")
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO transactions (
				nomor_ba, tanggal, jenis_transaksi, lokasi_asal, lokasi_tujuan,
				pemeriksa, penerima, signature_pemeriksa_key, signature_penerima_key
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (nomor_ba) DO NOTHING
			RETURNING id, created_at
		`
		err := tx.QueryRowxContext(ctx, query,
			t.NomorBA, t.Tanggal, t.JenisTransaksi, t.LokasiAsal, t.LokasiTujuan,
			t.Pemeriksa, t.Penerima, t.SignaturePemeriksa, t.SignaturePenerima,
		).Scan(&t.ID, &t.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: BA number %s", domain.ErrDuplicate, t.NomorBA)
		}
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO transaction_materials (
				transaction_id, line_no, part_number, jenis_barang, material, mesin, status, serial_number, jumlah
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range t.Materials {
			line := &t.Materials[i]
			line.TransactionID = t.ID
			err := stmt.QueryRowxContext(ctx,
				t.ID, i, line.PartNumber, line.JenisBarang, line.Material, line.Mesin,
				line.Status, line.SerialNumber, line.Jumlah,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("failed to insert material line: %w", err)
			}
		}

		return nil
	})
}

func (r *transactionRepository) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	query := fmt.Sprintf(`SELECT %s FROM transactions ORDER BY tanggal, id`, transactionColumns)
	if err := r.db.SelectContext(ctx, &transactions, query); err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	var lines []domain.MaterialLine
	linesQuery := fmt.Sprintf(`SELECT %s FROM transaction_materials ORDER BY transaction_id, line_no`, materialColumns)
	if err := r.db.SelectContext(ctx, &lines, linesQuery); err != nil {
		return nil, fmt.Errorf("error listing material lines: %w", err)
	}

	return attachMaterials(transactions, lines), nil
}

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	filterClause, args, idx := buildTransactionFilterClause(filter, "t", 1)

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t WHERE 1=1` + filterClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions t WHERE 1=1%s ORDER BY t.tanggal DESC, t.id DESC`, transactionColumns, filterClause)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var transactions []domain.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error listing transactions: %w", err)
	}
	if len(transactions) == 0 {
		return []domain.Transaction{}, total, nil
	}

	ids := make([]int64, len(transactions))
	for i, t := range transactions {
		ids[i] = t.ID
	}

	linesQuery, linesArgs, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM transaction_materials WHERE transaction_id IN (?) ORDER BY transaction_id, line_no`, materialColumns),
		ids,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("error building material query: %w", err)
	}

	var lines []domain.MaterialLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(linesQuery), linesArgs...); err != nil {
		return nil, 0, fmt.Errorf("error listing material lines: %w", err)
	}

	return attachMaterials(transactions, lines), total, nil
}

func (r *transactionRepository) GetByNomorBA(ctx context.Context, nomorBA string) (*domain.Transaction, error) {
	var t domain.Transaction
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE nomor_ba = $1`, transactionColumns)
	if err := r.db.GetContext(ctx, &t, query, nomorBA); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}

	linesQuery := fmt.Sprintf(`SELECT %s FROM transaction_materials WHERE transaction_id = $1 ORDER BY line_no`, materialColumns)
	if err := r.db.SelectContext(ctx, &t.Materials, linesQuery, t.ID); err != nil {
		return nil, fmt.Errorf("error listing material lines: %w", err)
	}

	return &t, nil
}

func attachMaterials(transactions []domain.Transaction, lines []domain.MaterialLine) []domain.Transaction {
	byTx := make(map[int64][]domain.MaterialLine, len(transactions))
	for _, line := range lines {
		byTx[line.TransactionID] = append(byTx[line.TransactionID], line)
	}

	out := make([]domain.Transaction, len(transactions))
	for i, t := range transactions {
		t.Materials = byTx[t.ID]
		if t.Materials == nil {
			t.Materials = []domain.MaterialLine{}
		}
		out[i] = t
	}
	return out
}
