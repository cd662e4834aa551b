package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

// buildTransactionFilterClause constructs SQL filter clauses for transaction listings
func buildTransactionFilterClause(filter domain.TransactionFilter, alias string, startIndex int) (string, []interface{}, int) {
	var (
		clauses []string
		args    []interface{}
	)
	prefix := normalizeAlias(alias)
	idx := startIndex

	if filter.JenisTransaksi != "" {
		clauses = append(clauses, fmt.Sprintf("%sjenis_transaksi ILIKE $%d", prefix, idx))
		args = append(args, "%"+filter.JenisTransaksi+"%")
		idx++
	}

	if filter.Lokasi != "" {
		clauses = append(clauses, fmt.Sprintf("(LOWER(%[1]slokasi_asal) = LOWER($%[2]d) OR LOWER(%[1]slokasi_tujuan) = LOWER($%[2]d))", prefix, idx))
		args = append(args, filter.Lokasi)
		idx++
	}

	if len(clauses) == 0 {
		return "", nil, idx
	}

	return " AND " + strings.Join(clauses, " AND "), args, idx
}

// buildProcurementFilterClause constructs SQL filter clauses for gangguan material listings
func buildProcurementFilterClause(filter domain.ProcurementFilter, materialAlias, gangguanAlias string, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	m := normalizeAlias(materialAlias)
	g := normalizeAlias(gangguanAlias)
	idx := startIndex

	if filter.PartNumber != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(%spart_number) = LOWER($%d)", m, idx))
		args = append(args, strings.TrimSpace(filter.PartNumber))
		idx++
	}

	if filter.Unit != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(%slokasi) = LOWER($%d)", g, idx))
		args = append(args, strings.TrimSpace(filter.Unit))
		idx++
	}

	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("%sstatus = $%d", m, idx))
		args = append(args, string(filter.Status))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
