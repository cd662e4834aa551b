package export

import (
	"fmt"
	"io"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	rabSheet         = "RAB"
	rabHeaderRow     = 4
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	rabMoneyFormat   = `#,##0.00`
	rabDateLayout    = "02-01-2006"
	rabFirstItemsRow = rabHeaderRow + 1
)

var rabHeaders = []string{
	"No",
	"Nomor LH05",
	"Part Number",
	"Material",
	"Mesin",
	"Jumlah",
	"Unit ULD",
	"Harga Satuan",
	"Subtotal",
}

// RABFilename is the download name of an exported RAB.
func RABFilename(rab *domain.RAB) string {
	return fmt.Sprintf("%s.xlsx", rab.NomorRAB)
}

// WriteRAB renders a RAB as a single-sheet workbook.
func WriteRAB(w io.Writer, rab *domain.RAB) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rabSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(rabMoneyFormat)})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	preamble := [][2]string{
		{"Nomor RAB", rab.NomorRAB},
		{"Tanggal", rab.TanggalRAB.Format(rabDateLayout)},
		{"Status", string(rab.Status)},
	}
	for i, kv := range preamble {
		row := i + 1
		if err := setRow(f, row, kv[0], kv[1]); err != nil {
			return err
		}
	}

	for i, h := range rabHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, rabHeaderRow)
		if err := f.SetCellValue(rabSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, rabHeaderRow)
	last, _ := excelize.CoordinatesToCellName(len(rabHeaders), rabHeaderRow)
	if err := f.SetCellStyle(rabSheet, first, last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	row := rabFirstItemsRow
	for i, item := range rab.Items {
		values := []interface{}{
			i + 1,
			item.NomorLH05,
			item.PartNumber,
			item.Material,
			item.Mesin,
			item.Jumlah,
			item.UnitULD,
			item.HargaSatuan.InexactFloat64(),
			item.Subtotal.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(rabSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write item row %d: %w", i+1, err)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(len(rabHeaders)-1, row)
	totalCell, _ := excelize.CoordinatesToCellName(len(rabHeaders), row)
	if err := f.SetCellValue(rabSheet, totalLabel, "Total"); err != nil {
		return fmt.Errorf("failed to write total label: %w", err)
	}
	if err := f.SetCellValue(rabSheet, totalCell, rab.TotalHarga.InexactFloat64()); err != nil {
		return fmt.Errorf("failed to write total: %w", err)
	}

	priceStart, _ := excelize.CoordinatesToCellName(len(rabHeaders)-1, rabFirstItemsRow)
	if err := f.SetCellStyle(rabSheet, priceStart, totalCell, moneyStyle); err != nil {
		return fmt.Errorf("failed to style prices: %w", err)
	}

	if err := f.SetColWidth(rabSheet, "B", "D", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, label, value string) error {
	labelCell, _ := excelize.CoordinatesToCellName(1, row)
	valueCell, _ := excelize.CoordinatesToCellName(2, row)
	if err := f.SetCellValue(rabSheet, labelCell, label); err != nil {
		return fmt.Errorf("failed to write %s: %w", label, err)
	}
	if err := f.SetCellValue(rabSheet, valueCell, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", label, err)
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
