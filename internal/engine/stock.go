package engine

import (
	"sort"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

const defaultTopOutboundLimit = 5

// StockAggregator folds the transaction log into per-part stock positions.
type StockAggregator struct {
	thresholds domain.StockThresholds
}

// NewStockAggregator creates a stock aggregator with the given classification thresholds.
func NewStockAggregator(thresholds domain.StockThresholds) *StockAggregator {
	return &StockAggregator{thresholds: thresholds}
}

// Compute returns one StockRecord per distinct part number, sorted by part number.
// Order of the input does not matter.
func (a *StockAggregator) Compute(transactions []domain.Transaction) []domain.StockRecord {
	byPart := make(map[string]*domain.StockRecord)

	for i := range transactions {
		tx := &transactions[i]
		masuk := tx.IsMasuk()

		for _, line := range tx.Materials {
			if line.PartNumber == "" {
				continue
			}

			record, ok := byPart[line.PartNumber]
			if !ok {
				record = &domain.StockRecord{PartNumber: line.PartNumber}
				byPart[line.PartNumber] = record
			}
			if record.Material == "" {
				record.Material = line.Material
			}
			if record.JenisBarang == "" {
				record.JenisBarang = line.JenisBarang
			}

			if masuk {
				record.StokMasuk += line.Quantity()
			} else {
				record.StokKeluar += line.Quantity()
			}
		}
	}

	records := make([]domain.StockRecord, 0, len(byPart))
	for _, record := range byPart {
		record.StokAkhir = record.StokMasuk - record.StokKeluar
		record.Status = a.Classify(record.StokAkhir)
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PartNumber < records[j].PartNumber
	})

	return records
}

// Classify maps a closing stock to Habis, Hampir Habis or Tersedia.
func (a *StockAggregator) Classify(stokAkhir int) string {
	switch {
	case stokAkhir <= 0:
		return domain.StockHabis
	case stokAkhir <= a.thresholds.Low:
		return domain.StockHampirHabis
	default:
		return domain.StockTersedia
	}
}

// Critical returns the records at or below threshold, lowest stock first.
func (a *StockAggregator) Critical(records []domain.StockRecord, threshold int) []domain.StockRecord {
	critical := make([]domain.StockRecord, 0)
	for _, record := range records {
		if record.StokAkhir <= threshold {
			critical = append(critical, record)
		}
	}

	sort.SliceStable(critical, func(i, j int) bool {
		if critical[i].StokAkhir != critical[j].StokAkhir {
			return critical[i].StokAkhir < critical[j].StokAkhir
		}
		return critical[i].PartNumber < critical[j].PartNumber
	})

	return critical
}

// TopOutbound ranks parts by how often they left stock.
// Ties are broken by total outbound quantity, then by part number.
func (a *StockAggregator) TopOutbound(transactions []domain.Transaction, limit int) []domain.OutboundRank {
	if limit <= 0 {
		limit = defaultTopOutboundLimit
	}

	byPart := make(map[string]*domain.OutboundRank)
	for i := range transactions {
		tx := &transactions[i]
		if tx.IsMasuk() {
			continue
		}
		for _, line := range tx.Materials {
			if line.PartNumber == "" {
				continue
			}
			rank, ok := byPart[line.PartNumber]
			if !ok {
				rank = &domain.OutboundRank{PartNumber: line.PartNumber, Material: line.Material}
				byPart[line.PartNumber] = rank
			}
			rank.Frequency++
			rank.TotalJumlah += line.Quantity()
		}
	}

	ranks := make([]domain.OutboundRank, 0, len(byPart))
	for _, rank := range byPart {
		ranks = append(ranks, *rank)
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Frequency != ranks[j].Frequency {
			return ranks[i].Frequency > ranks[j].Frequency
		}
		if ranks[i].TotalJumlah != ranks[j].TotalJumlah {
			return ranks[i].TotalJumlah > ranks[j].TotalJumlah
		}
		return ranks[i].PartNumber < ranks[j].PartNumber
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}

	return ranks
}
