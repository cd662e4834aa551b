package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

const day = 24 * time.Hour

// AgeTracker folds outbound legs into current installations per (serial, part) key.
type AgeTracker struct {
	policy domain.AgePolicy
}

// NewAgeTracker creates an age tracker. Zero values in policy fall back to 365 and 20 days.
func NewAgeTracker(policy domain.AgePolicy) *AgeTracker {
	if policy.DefaultTargetDays <= 0 {
		policy.DefaultTargetDays = 365
	}
	if policy.WarningWindowDays < 0 {
		policy.WarningWindowDays = 0
	}
	return &AgeTracker{policy: policy}
}

type ageKey struct {
	serial string
	part   string
}

// Compute builds the age report as of today. targets maps part numbers to their
// replacement target in days; parts without an entry use the default target.
func (t *AgeTracker) Compute(transactions []domain.Transaction, targets map[string]int, today time.Time, filter domain.AgeFilter) []domain.AgeRecord {
	current, order := t.fold(transactions)

	location := strings.TrimSpace(filter.Location)
	materialName := strings.ToLower(strings.TrimSpace(filter.MaterialName))

	records := make([]domain.AgeRecord, 0, len(order))
	for _, key := range order {
		record := current[key]

		if location != "" && !strings.EqualFold(record.Lokasi, location) {
			continue
		}
		if materialName != "" && !strings.Contains(strings.ToLower(record.Material), materialName) {
			continue
		}

		t.classify(record, t.targetFor(targets, key.part), today)
		records = append(records, *record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RemainingDays != records[j].RemainingDays {
			return records[i].RemainingDays < records[j].RemainingDays
		}
		if records[i].SerialNumber != records[j].SerialNumber {
			return records[i].SerialNumber < records[j].SerialNumber
		}
		return records[i].PartNumber < records[j].PartNumber
	})

	return records
}

// History returns the installation history of one (serial, part) pair, oldest first.
// An unknown pair yields an empty slice.
func (t *AgeTracker) History(transactions []domain.Transaction, serialNumber, partNumber string) []domain.HistoryEntry {
	current, _ := t.fold(transactions)

	record, ok := current[ageKey{serial: strings.TrimSpace(serialNumber), part: strings.TrimSpace(partNumber)}]
	if !ok {
		return []domain.HistoryEntry{}
	}

	return record.History
}

// Classify returns the lifecycle status for an age against a target.
func (t *AgeTracker) Classify(ageDays, targetDays int) string {
	switch {
	case ageDays >= targetDays:
		return domain.AgePerluDiganti
	case ageDays >= targetDays-t.policy.WarningWindowDays:
		return domain.AgeMendekatiBatas
	default:
		return domain.AgeTerpasang
	}
}

// fold walks outbound legs in date order and keeps the latest installation per key.
// The returned order lists keys by first appearance so callers iterate deterministically.
func (t *AgeTracker) fold(transactions []domain.Transaction) (map[ageKey]*domain.AgeRecord, []ageKey) {
	outbound := make([]*domain.Transaction, 0, len(transactions))
	for i := range transactions {
		if transactions[i].IsKeluar() {
			outbound = append(outbound, &transactions[i])
		}
	}

	sort.SliceStable(outbound, func(i, j int) bool {
		return outbound[i].Tanggal.Before(outbound[j].Tanggal)
	})

	current := make(map[ageKey]*domain.AgeRecord)
	order := make([]ageKey, 0)

	for _, tx := range outbound {
		for _, line := range tx.Materials {
			serial := strings.TrimSpace(line.SerialNumber)
			if serial == "" {
				continue
			}

			key := ageKey{serial: serial, part: line.PartNumber}
			record, ok := current[key]
			if !ok {
				record = &domain.AgeRecord{History: make([]domain.HistoryEntry, 0, 1)}
				current[key] = record
				order = append(order, key)
			}

			record.History = append(record.History, domain.HistoryEntry{
				PenggantianKe: len(record.History) + 1,
				Tanggal:       tx.Tanggal,
				NomorBA:       tx.NomorBA,
				LokasiTujuan:  tx.LokasiTujuan,
				Jumlah:        line.Quantity(),
				Pemeriksa:     tx.Pemeriksa,
				Penerima:      tx.Penerima,
			})

			record.SerialNumber = serial
			record.PartNumber = line.PartNumber
			record.Material = line.Material
			record.JenisBarang = line.JenisBarang
			record.Mesin = line.Mesin
			record.Lokasi = tx.LokasiTujuan
			record.InstallDate = tx.Tanggal
			record.NomorBA = tx.NomorBA
			record.TotalPenggantian = len(record.History)
		}
	}

	return current, order
}

func (t *AgeTracker) targetFor(targets map[string]int, partNumber string) int {
	if days, ok := targets[partNumber]; ok && days > 0 {
		return days
	}
	return t.policy.DefaultTargetDays
}

func (t *AgeTracker) classify(record *domain.AgeRecord, targetDays int, today time.Time) {
	record.AgeDays = DaysBetween(record.InstallDate, today)
	record.TargetAgeDays = targetDays
	record.RemainingDays = targetDays - record.AgeDays
	record.Status = t.Classify(record.AgeDays, targetDays)
}

// DaysBetween counts whole days from one date to another at UTC-midnight granularity.
func DaysBetween(from, to time.Time) int {
	return int(truncateDay(to).Sub(truncateDay(from)) / day)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
