package engine

import (
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

// StockIndex maps part numbers to their closing stock.
func StockIndex(records []domain.StockRecord) map[string]int {
	index := make(map[string]int, len(records))
	for _, record := range records {
		index[record.PartNumber] = record.StokAkhir
	}
	return index
}

// ClassifyAgainstStock sets the initial procurement status of each line:
// Tersedia when the warehouse holds enough stock, Pengadaan otherwise.
// Stock is reserved line by line so two lines for the same part cannot both claim it.
func ClassifyAgainstStock(lines []domain.GangguanMaterial, stock map[string]int) []domain.GangguanMaterial {
	remaining := make(map[string]int, len(stock))
	for part, qty := range stock {
		remaining[part] = qty
	}

	classified := make([]domain.GangguanMaterial, len(lines))
	for i, line := range lines {
		need := line.Jumlah
		if need < 0 {
			need = 0
		}

		if available := remaining[line.PartNumber]; available >= need {
			line.Status = domain.ProcurementTersedia
			remaining[line.PartNumber] = available - need
		} else {
			line.Status = domain.ProcurementPengadaan
		}
		classified[i] = line
	}

	return classified
}

// CountByStatus returns one count per procurement status, in dashboard order.
// Lines with an unknown status are ignored.
func CountByStatus(lines []domain.GangguanMaterial) ([]domain.ProcurementCount, int) {
	counts := make(map[domain.ProcurementStatus]int, len(domain.ProcurementStatuses))
	for _, line := range lines {
		counts[line.Status]++
	}

	result := make([]domain.ProcurementCount, 0, len(domain.ProcurementStatuses))
	total := 0
	for _, status := range domain.ProcurementStatuses {
		result = append(result, domain.ProcurementCount{Status: status, Count: counts[status]})
		total += counts[status]
	}

	return result, total
}

// FilterProcurement keeps the lines matching every non-empty field of filter.
// Part number and unit match case-insensitively; the unit is the gangguan location.
func FilterProcurement(lines []domain.GangguanMaterial, filter domain.ProcurementFilter) []domain.GangguanMaterial {
	part := strings.TrimSpace(filter.PartNumber)
	unit := strings.TrimSpace(filter.Unit)

	filtered := make([]domain.GangguanMaterial, 0, len(lines))
	for _, line := range lines {
		if part != "" && !strings.EqualFold(line.PartNumber, part) {
			continue
		}
		if unit != "" && !strings.EqualFold(line.Lokasi, unit) {
			continue
		}
		if filter.Status != "" && line.Status != filter.Status {
			continue
		}
		filtered = append(filtered, line)
	}

	return filtered
}
