package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrMissingPartColumn is returned when no header maps to a part number.
var ErrMissingPartColumn = errors.New("catalogue has no part number column")

type column int

const (
	colPartNumber column = iota
	colJenisBarang
	colMaterial
	colMesin
	colSatuan
)

// headerAliases maps normalised header text to a catalogue column.
var headerAliases = map[string]column{
	"part number":   colPartNumber,
	"part_number":   colPartNumber,
	"partnumber":    colPartNumber,
	"pn":            colPartNumber,
	"no part":       colPartNumber,
	"jenis barang":  colJenisBarang,
	"jenis_barang":  colJenisBarang,
	"jenis":         colJenisBarang,
	"material":      colMaterial,
	"nama material": colMaterial,
	"nama barang":   colMaterial,
	"mesin":         colMesin,
	"satuan":        colSatuan,
	"uom":           colSatuan,
}

// ParseXLSX reads parts from a workbook. An empty sheet name uses the first sheet.
func ParseXLSX(r io.Reader, sheet string) ([]domain.Part, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("catalogue workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return parseRows(rows)
}

// ParseCSV reads parts from a CSV file with a header row.
func ParseCSV(r io.Reader) ([]domain.Part, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue csv: %w", err)
	}
	return parseRows(rows)
}

// parseRows maps the header row and keeps the last row seen per part number.
func parseRows(rows [][]string) ([]domain.Part, error) {
	if len(rows) == 0 {
		return []domain.Part{}, nil
	}

	index := make(map[column]int)
	for i, h := range rows[0] {
		if col, ok := headerAliases[normaliseHeader(h)]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	if _, ok := index[colPartNumber]; !ok {
		return nil, ErrMissingPartColumn
	}

	cell := func(row []string, col column) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	positions := make(map[string]int)
	parts := make([]domain.Part, 0, len(rows)-1)
	for _, row := range rows[1:] {
		pn := cell(row, colPartNumber)
		if pn == "" {
			continue
		}
		part := domain.Part{
			PartNumber:  pn,
			JenisBarang: cell(row, colJenisBarang),
			Material:    cell(row, colMaterial),
			Mesin:       cell(row, colMesin),
			Satuan:      cell(row, colSatuan),
		}
		if pos, ok := positions[pn]; ok {
			parts[pos] = part
			continue
		}
		positions[pn] = len(parts)
		parts = append(parts, part)
	}

	return parts, nil
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.Join(strings.Fields(h), " ")
}
