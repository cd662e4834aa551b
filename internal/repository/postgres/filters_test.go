package postgres

import (
	"testing"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

func TestBuildTransactionFilterClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    domain.TransactionFilter
		wantSQL   string
		wantArgs  int
		wantIndex int
	}{
		{
			name:      "empty",
			filter:    domain.TransactionFilter{},
			wantSQL:   "",
			wantArgs:  0,
			wantIndex: 1,
		},
		{
			name:      "jenis only",
			filter:    domain.TransactionFilter{JenisTransaksi: "Keluar"},
			wantSQL:   " AND t.jenis_transaksi ILIKE $1",
			wantArgs:  1,
			wantIndex: 2,
		},
		{
			name:      "jenis and lokasi",
			filter:    domain.TransactionFilter{JenisTransaksi: "Masuk", Lokasi: "Gudang"},
			wantSQL:   " AND t.jenis_transaksi ILIKE $1 AND (LOWER(t.lokasi_asal) = LOWER($2) OR LOWER(t.lokasi_tujuan) = LOWER($2))",
			wantArgs:  2,
			wantIndex: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, idx := buildTransactionFilterClause(tt.filter, "t", 1)
			if sql != tt.wantSQL {
				t.Errorf("Expected %q, got %q", tt.wantSQL, sql)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("Expected %d args, got %d", tt.wantArgs, len(args))
			}
			if idx != tt.wantIndex {
				t.Errorf("Expected next index %d, got %d", tt.wantIndex, idx)
			}
		})
	}
}

func TestBuildProcurementFilterClause(t *testing.T) {
	filter := domain.ProcurementFilter{
		PartNumber: " P001 ",
		Unit:       "PLTD Sanggau",
		Status:     domain.ProcurementTunda,
	}

	sql, args := buildProcurementFilterClause(filter, "m", "g.", 1)

	want := " AND LOWER(m.part_number) = LOWER($1) AND LOWER(g.lokasi) = LOWER($2) AND m.status = $3"
	if sql != want {
		t.Errorf("Expected %q, got %q", want, sql)
	}
	if len(args) != 3 || args[0] != "P001" || args[2] != "Tunda" {
		t.Errorf("Unexpected args %v", args)
	}

	if sql, args := buildProcurementFilterClause(domain.ProcurementFilter{}, "m", "g", 1); sql != "" || args != nil {
		t.Errorf("Expected empty clause, got %q %v", sql, args)
	}
}
