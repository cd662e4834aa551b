package engine

import (
	"testing"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

func serialLine(part, serial string) domain.MaterialLine {
	l := line(part, 1)
	l.SerialNumber = serial
	return l
}

func keluarTo(tanggal, lokasi string, lines ...domain.MaterialLine) domain.Transaction {
	t := tx("Keluar", tanggal, lines...)
	t.LokasiTujuan = lokasi
	return t
}

func newTracker() *AgeTracker {
	return NewAgeTracker(domain.AgePolicy{DefaultTargetDays: 365, WarningWindowDays: 20})
}

func TestAgeTracker_SingleInstallation(t *testing.T) {
	tracker := newTracker()
	today := date("2024-03-02")
	transactions := []domain.Transaction{
		tx("Masuk", "2024-01-01", line("P001", 10)),
		tx("Keluar", "2024-02-01", serialLine("P001", "SN1")),
	}

	got := tracker.Compute(transactions, nil, today, domain.AgeFilter{})

	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	record := got[0]
	if record.SerialNumber != "SN1" || record.PartNumber != "P001" {
		t.Errorf("Expected SN1/P001, got %s/%s", record.SerialNumber, record.PartNumber)
	}
	if record.AgeDays != 30 {
		t.Errorf("Expected age 30, got %d", record.AgeDays)
	}
	if record.TargetAgeDays != 365 || record.RemainingDays != 335 {
		t.Errorf("Expected target 365 remaining 335, got %d/%d", record.TargetAgeDays, record.RemainingDays)
	}
	if record.Status != domain.AgeTerpasang {
		t.Errorf("Expected %s, got %s", domain.AgeTerpasang, record.Status)
	}
}

func TestAgeTracker_ReplacementHistory(t *testing.T) {
	tracker := newTracker()
	// Input deliberately out of order; the fold sorts by date.
	transactions := []domain.Transaction{
		keluarTo("2024-06-01", "Unit B", serialLine("P001", "SN1")),
		keluarTo("2024-02-01", "Unit A", serialLine("P001", "SN1")),
	}

	got := tracker.Compute(transactions, nil, date("2024-07-01"), domain.AgeFilter{})

	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	record := got[0]
	if record.TotalPenggantian != 2 {
		t.Errorf("Expected 2 replacements, got %d", record.TotalPenggantian)
	}
	if !record.InstallDate.Equal(date("2024-06-01")) {
		t.Errorf("Expected install date 2024-06-01, got %s", record.InstallDate)
	}
	if record.Lokasi != "Unit B" {
		t.Errorf("Expected current location Unit B, got %s", record.Lokasi)
	}
	if len(record.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(record.History))
	}
	first := record.History[0]
	if first.PenggantianKe != 1 || !first.Tanggal.Equal(date("2024-02-01")) || first.LokasiTujuan != "Unit A" {
		t.Errorf("Unexpected first history entry %+v", first)
	}
	if record.History[1].PenggantianKe != 2 {
		t.Errorf("Expected second entry numbered 2, got %d", record.History[1].PenggantianKe)
	}
}

func TestAgeTracker_SameDateKeepsInputOrder(t *testing.T) {
	tracker := newTracker()
	transactions := []domain.Transaction{
		keluarTo("2024-02-01", "First", serialLine("P001", "SN1")),
		keluarTo("2024-02-01", "Second", serialLine("P001", "SN1")),
	}

	got := tracker.Compute(transactions, nil, date("2024-02-02"), domain.AgeFilter{})
	if len(got) != 1 || got[0].Lokasi != "Second" {
		t.Fatalf("Expected the later input to be current, got %+v", got)
	}
}

func TestAgeTracker_Classify(t *testing.T) {
	tracker := newTracker()

	tests := []struct {
		name   string
		age    int
		target int
		want   string
	}{
		{"well within target", 10, 365, domain.AgeTerpasang},
		{"one day before window", 365 - 21, 365, domain.AgeTerpasang},
		{"window opens", 365 - 20, 365, domain.AgeMendekatiBatas},
		{"day before target", 364, 365, domain.AgeMendekatiBatas},
		{"target reached", 365, 365, domain.AgePerluDiganti},
		{"past target", 400, 365, domain.AgePerluDiganti},
		{"short custom target", 5, 30, domain.AgeTerpasang},
		{"custom target window", 10, 30, domain.AgeMendekatiBatas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracker.Classify(tt.age, tt.target); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAgeTracker_BoundariesThroughCompute(t *testing.T) {
	tracker := newTracker()
	install := date("2024-01-01")
	transactions := []domain.Transaction{
		keluarTo("2024-01-01", "Unit A", serialLine("P100", "SN1")),
	}
	targets := map[string]int{"P100": 100}

	tests := []struct {
		age  int
		want string
	}{
		{79, domain.AgeTerpasang},
		{80, domain.AgeMendekatiBatas},
		{100, domain.AgePerluDiganti},
	}

	for _, tt := range tests {
		today := install.AddDate(0, 0, tt.age)
		got := tracker.Compute(transactions, targets, today, domain.AgeFilter{})
		if len(got) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(got))
		}
		if got[0].AgeDays != tt.age || got[0].Status != tt.want {
			t.Errorf("Age %d: expected %s, got age %d status %s", tt.age, tt.want, got[0].AgeDays, got[0].Status)
		}
	}
}

func TestAgeTracker_SkipsLinesWithoutSerialAndInbound(t *testing.T) {
	tracker := newTracker()
	masuk := tx("Masuk", "2024-01-01", serialLine("P001", "SN9"))
	transactions := []domain.Transaction{
		masuk,
		keluarTo("2024-01-02", "Unit A", line("P001", 2), serialLine("P001", "  ")),
	}

	if got := tracker.Compute(transactions, nil, date("2024-02-01"), domain.AgeFilter{}); len(got) != 0 {
		t.Errorf("Expected no records, got %d", len(got))
	}
}

func TestAgeTracker_EmptyLog(t *testing.T) {
	tracker := newTracker()

	got := tracker.Compute(nil, nil, time.Now(), domain.AgeFilter{})
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}

	history := tracker.History(nil, "SN1", "P001")
	if history == nil || len(history) != 0 {
		t.Errorf("Expected empty history, got %v", history)
	}
}

func TestAgeTracker_Filters(t *testing.T) {
	tracker := newTracker()
	a := serialLine("P001", "SN1")
	a.Material = "Filter Oli"
	b := serialLine("P002", "SN2")
	b.Material = "Nozzle Injector"
	transactions := []domain.Transaction{
		keluarTo("2024-01-01", "PLTD Sanggau", a),
		keluarTo("2024-01-01", "PLTD Sintang", b),
	}
	today := date("2024-02-01")

	tests := []struct {
		name   string
		filter domain.AgeFilter
		want   []string
	}{
		{"no filter", domain.AgeFilter{}, []string{"SN1", "SN2"}},
		{"location case-insensitive", domain.AgeFilter{Location: "pltd sanggau"}, []string{"SN1"}},
		{"material substring", domain.AgeFilter{MaterialName: "inject"}, []string{"SN2"}},
		{"both filters disjoint", domain.AgeFilter{Location: "PLTD Sanggau", MaterialName: "nozzle"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tracker.Compute(transactions, nil, today, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d records, got %d", len(tt.want), len(got))
			}
			for i, serial := range tt.want {
				if got[i].SerialNumber != serial {
					t.Errorf("Position %d: expected %s, got %s", i, serial, got[i].SerialNumber)
				}
			}
		})
	}
}

func TestAgeTracker_SortedByRemainingDays(t *testing.T) {
	tracker := newTracker()
	transactions := []domain.Transaction{
		keluarTo("2024-05-01", "Unit", serialLine("P001", "SN-new")),
		keluarTo("2023-01-01", "Unit", serialLine("P001", "SN-old")),
		keluarTo("2024-01-01", "Unit", serialLine("P001", "SN-mid")),
	}

	got := tracker.Compute(transactions, nil, date("2024-06-01"), domain.AgeFilter{})

	want := []string{"SN-old", "SN-mid", "SN-new"}
	for i, serial := range want {
		if got[i].SerialNumber != serial {
			t.Errorf("Position %d: expected %s, got %s", i, serial, got[i].SerialNumber)
		}
	}
}

func TestAgeTracker_Idempotent(t *testing.T) {
	tracker := newTracker()
	transactions := []domain.Transaction{
		keluarTo("2024-02-01", "Unit A", serialLine("P001", "SN1"), serialLine("P002", "SN2")),
		keluarTo("2024-03-01", "Unit B", serialLine("P001", "SN1")),
	}
	today := date("2024-04-01")

	first := tracker.Compute(transactions, nil, today, domain.AgeFilter{})
	second := tracker.Compute(transactions, nil, today, domain.AgeFilter{})

	if len(first) != len(second) {
		t.Fatalf("Expected equal lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SerialNumber != second[i].SerialNumber ||
			first[i].AgeDays != second[i].AgeDays ||
			first[i].TotalPenggantian != second[i].TotalPenggantian {
			t.Errorf("Run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAgeTracker_History(t *testing.T) {
	tracker := newTracker()
	transactions := []domain.Transaction{
		keluarTo("2024-02-01", "Unit A", serialLine("P001", "SN1")),
		keluarTo("2024-06-01", "Unit B", serialLine("P001", "SN1")),
		keluarTo("2024-06-01", "Unit B", serialLine("P002", "SN1")),
	}

	history := tracker.History(transactions, "SN1", "P001")
	if len(history) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history))
	}
	if history[0].LokasiTujuan != "Unit A" || history[1].LokasiTujuan != "Unit B" {
		t.Errorf("Unexpected history order %+v", history)
	}

	if unknown := tracker.History(transactions, "SN404", "P001"); len(unknown) != 0 {
		t.Errorf("Expected empty history for unknown pair, got %d", len(unknown))
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 2, 1, 23, 30, 0, 0, time.UTC)
	to := time.Date(2024, 2, 2, 0, 15, 0, 0, time.UTC)

	if got := DaysBetween(from, to); got != 1 {
		t.Errorf("Expected 1 day across midnight, got %d", got)
	}
	if got := DaysBetween(to, from); got != -1 {
		t.Errorf("Expected -1 for reversed dates, got %d", got)
	}
}
