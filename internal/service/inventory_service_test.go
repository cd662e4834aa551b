package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/material-tracker/internal/cache"
	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/identifier"
	"github.com/andresuchdata/material-tracker/internal/repository"
	"github.com/andresuchdata/material-tracker/internal/repository/memory"
	"github.com/andresuchdata/material-tracker/internal/storage"
)

var errStoreDown = errors.New("connection refused")

// failingTransactions fails every read so services take their degraded path.
type failingTransactions struct {
	repository.TransactionRepository
}

func (failingTransactions) ListAll(context.Context) ([]domain.Transaction, error) {
	return nil, errStoreDown
}

// recordingCache counts invalidations and remembers the last stock report.
type recordingCache struct {
	cache.ReportCache
	stock         *domain.StockReport
	invalidations int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{ReportCache: cache.NewNoopReportCache()}
}

func (c *recordingCache) GetStock(context.Context) (*domain.StockReport, bool, error) {
	if c.stock == nil {
		return nil, false, nil
	}
	copied := *c.stock
	return &copied, true, nil
}

func (c *recordingCache) SetStock(_ context.Context, report *domain.StockReport) error {
	copied := *report
	c.stock = &copied
	return nil
}

func (c *recordingCache) InvalidateAll(context.Context) error {
	c.invalidations++
	c.stock = nil
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestInventory(transactions repository.TransactionRepository, targets repository.TargetAgeRepository, reportCache cache.ReportCache) *InventoryService {
	numbers := identifier.NewGenerator(identifier.NewMemorySequencer(), identifier.Options{Now: fixedNow})
	return NewInventoryService(
		transactions,
		targets,
		numbers,
		storage.NewSignatureStore(storage.NewMemoryStorage()),
		reportCache,
		InventoryOptions{
			Thresholds:       domain.StockThresholds{Low: 5, Critical: 10},
			AgePolicy:        domain.AgePolicy{DefaultTargetDays: 365, WarningWindowDays: 20},
			TopOutboundLimit: 5,
			Now:              fixedNow,
		},
	)
}

func submission(jenis, tanggal string, lines ...domain.MaterialLineInput) domain.TransactionInput {
	return domain.TransactionInput{
		Tanggal:        day(tanggal),
		JenisTransaksi: jenis,
		LokasiAsal:     "Gudang",
		LokasiTujuan:   "PLTD Sei Raya",
		Pemeriksa:      "Budi",
		Penerima:       "Andi",
		Materials:      lines,
	}
}

func material(part string, jumlah int) domain.MaterialLineInput {
	return domain.MaterialLineInput{PartNumber: part, Material: "Material " + part, Jumlah: jumlah}
}

func TestInventoryService_SubmitAndComputeStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reports := newRecordingCache()
	svc := newTestInventory(store.Transactions(), store.Targets(), reports)

	first, err := svc.SubmitTransaction(ctx, submission("Masuk", "2024-03-01", material("P001", 10), material("P002", 4)))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	second, err := svc.SubmitTransaction(ctx, submission("Keluar", "2024-04-01", material("P001", 3)))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}

	if first.NomorBA != "BA-2024-0001" || second.NomorBA != "BA-2024-0002" {
		t.Errorf("Expected BA-2024-0001 and BA-2024-0002, got %s and %s", first.NomorBA, second.NomorBA)
	}
	if reports.invalidations != 2 {
		t.Errorf("Expected 2 cache invalidations, got %d", reports.invalidations)
	}

	report := svc.ComputeStock(ctx)
	if report.Source != domain.SourceDatabase {
		t.Errorf("Expected source %s, got %s", domain.SourceDatabase, report.Source)
	}

	tests := []struct {
		part   string
		akhir  int
		status string
	}{
		{"P001", 7, domain.StockTersedia},
		{"P002", 4, domain.StockHampirHabis},
	}
	if len(report.Items) != len(tests) {
		t.Fatalf("Expected %d records, got %d", len(tests), len(report.Items))
	}
	for i, tt := range tests {
		got := report.Items[i]
		if got.PartNumber != tt.part || got.StokAkhir != tt.akhir || got.Status != tt.status {
			t.Errorf("Expected %s %d %s, got %s %d %s", tt.part, tt.akhir, tt.status, got.PartNumber, got.StokAkhir, got.Status)
		}
	}

	cached := svc.ComputeStock(ctx)
	if cached.Source != domain.SourceCache {
		t.Errorf("Expected second read from cache, got %s", cached.Source)
	}
}

func TestInventoryService_SubmitTransactionValidation(t *testing.T) {
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	tests := []struct {
		name  string
		input domain.TransactionInput
	}{
		{"no materials", submission("Masuk", "2024-03-01")},
		{"unknown direction", submission("Transfer", "2024-03-01", material("P001", 1))},
		{"zero quantity", submission("Masuk", "2024-03-01", material("P001", 0))},
		{"missing receiver", func() domain.TransactionInput {
			in := submission("Masuk", "2024-03-01", material("P001", 1))
			in.Penerima = ""
			return in
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitTransaction(context.Background(), tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || len(verr.Fields) == 0 {
				t.Errorf("Expected field details, got %v", err)
			}
		})
	}

	all, _ := store.Transactions().ListAll(context.Background())
	if len(all) != 0 {
		t.Errorf("Expected nothing recorded, got %d transactions", len(all))
	}
}

func TestInventoryService_StoresSignatures(t *testing.T) {
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	input := submission("Masuk", "2024-03-01", material("P001", 1))
	input.SignaturePemeriksa = []byte("\x89PNG\r\n\x1a\n0000")

	tx, err := svc.SubmitTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	if tx.SignaturePemeriksa == "" {
		t.Error("Expected a stored pemeriksa signature key")
	}
	if tx.SignaturePenerima != "" {
		t.Errorf("Expected no penerima signature, got %s", tx.SignaturePenerima)
	}
}

func TestInventoryService_GetSignature(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	input := submission("Masuk", "2024-03-01", material("P001", 1))
	input.SignaturePenerima = png
	if _, err := svc.SubmitTransaction(ctx, input); err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}

	data, contentType, err := svc.GetSignature(ctx, "BA-2024-0001", "Penerima")
	if err != nil {
		t.Fatalf("GetSignature failed: %v", err)
	}
	if string(data) != string(png) || contentType != "image/png" {
		t.Errorf("Expected the stored PNG, got %q (%s)", data, contentType)
	}

	if _, _, err := svc.GetSignature(ctx, "BA-2024-0001", "pemeriksa"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing signature, got %v", err)
	}
	if _, _, err := svc.GetSignature(ctx, "BA-2024-0001", "saksi"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for an unknown role, got %v", err)
	}
}

func TestInventoryService_ImportTransactionsAdvancesBANumbers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reports := newRecordingCache()
	svc := newTestInventory(store.Transactions(), store.Targets(), reports)

	legacy := func(nomor string) domain.Transaction {
		return domain.Transaction{
			NomorBA:        nomor,
			Tanggal:        day("2024-02-01"),
			JenisTransaksi: "Masuk",
			Materials:      []domain.MaterialLine{{PartNumber: "P001", Jumlah: 2}},
		}
	}

	imported, skipped, err := svc.ImportTransactions(ctx, []domain.Transaction{legacy("BA-2024-0001"), legacy("BA-2024-0004")})
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if imported != 2 || skipped != 0 {
		t.Errorf("Expected 2 imported and 0 skipped, got %d and %d", imported, skipped)
	}
	if reports.invalidations != 1 {
		t.Errorf("Expected 1 cache invalidation, got %d", reports.invalidations)
	}

	imported, skipped, err = svc.ImportTransactions(ctx, []domain.Transaction{legacy("BA-2024-0001")})
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if imported != 0 || skipped != 1 {
		t.Errorf("Expected a re-import to be skipped, got %d imported and %d skipped", imported, skipped)
	}

	tx, err := svc.SubmitTransaction(ctx, submission("Masuk", "2024-03-01", material("P001", 1)))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}
	if tx.NomorBA != "BA-2024-0005" {
		t.Errorf("Expected BA-2024-0005 after the imported numbers, got %s", tx.NomorBA)
	}

	if stock := svc.ComputeStock(ctx); len(stock.Items) != 1 || stock.Items[0].StokAkhir != 5 {
		t.Errorf("Expected imported stock to count, got %+v", stock.Items)
	}
}

func TestInventoryService_ImportTargetAges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reports := newRecordingCache()
	svc := newTestInventory(store.Transactions(), store.Targets(), reports)

	set, err := svc.ImportTargetAges(ctx, []domain.TargetAge{
		{PartNumber: "P001", TargetDays: 180},
		{PartNumber: " ", TargetDays: 90},
		{PartNumber: "P002", TargetDays: 0},
	})
	if err != nil {
		t.Fatalf("ImportTargetAges failed: %v", err)
	}
	if set != 1 || reports.invalidations != 1 {
		t.Errorf("Expected 1 target set and 1 invalidation, got %d and %d", set, reports.invalidations)
	}

	target, _ := svc.GetTargetAge(ctx, "P001")
	if target.TargetDays != 180 {
		t.Errorf("Expected 180, got %d", target.TargetDays)
	}
}

func TestInventoryService_DegradedReports(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestInventory(failingTransactions{}, store.Targets(), nil)

	stock := svc.ComputeStock(ctx)
	if stock.Source != domain.SourceUnavailable || stock.Error == "" {
		t.Errorf("Expected unavailable stock report with error, got %+v", stock.ReportMeta)
	}
	if stock.Items == nil || len(stock.Items) != 0 {
		t.Errorf("Expected empty non-nil items, got %v", stock.Items)
	}

	age := svc.ComputeAgeReport(ctx, domain.AgeFilter{})
	if age.Source != domain.SourceUnavailable || len(age.Items) != 0 {
		t.Errorf("Expected unavailable age report, got %+v", age.ReportMeta)
	}

	top := svc.ComputeTopOutboundMaterials(ctx, 0)
	if top.Source != domain.SourceUnavailable || len(top.Items) != 0 {
		t.Errorf("Expected unavailable outbound report, got %+v", top.ReportMeta)
	}

	history := svc.GetMaterialHistory(ctx, "SN1", "P001")
	if history.Source != domain.SourceUnavailable || history.Items == nil {
		t.Errorf("Expected unavailable history with empty items, got %+v", history.ReportMeta)
	}

	if _, err := svc.StockIndex(ctx); !errors.Is(err, errStoreDown) {
		t.Errorf("Expected wrapped store error, got %v", err)
	}
}

func TestInventoryService_CriticalStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	_, err := svc.SubmitTransaction(ctx, submission("Masuk", "2024-03-01",
		material("P001", 30), material("P002", 8), material("P003", 2)))
	if err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}

	critical := svc.ComputeCriticalStock(ctx, nil)
	if len(critical.Items) != 2 || critical.Items[0].PartNumber != "P003" || critical.Items[1].PartNumber != "P002" {
		t.Errorf("Expected P003 then P002, got %+v", critical.Items)
	}

	threshold := 2
	narrow := svc.ComputeCriticalStock(ctx, &threshold)
	if len(narrow.Items) != 1 || narrow.Items[0].PartNumber != "P003" {
		t.Errorf("Expected only P003, got %+v", narrow.Items)
	}
}

func TestInventoryService_AgeReportUsesTargets(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	line := material("P001", 1)
	line.SerialNumber = "SN1"
	if _, err := svc.SubmitTransaction(ctx, submission("Keluar", "2024-01-01", line)); err != nil {
		t.Fatalf("SubmitTransaction failed: %v", err)
	}

	report := svc.ComputeAgeReport(ctx, domain.AgeFilter{})
	if len(report.Items) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(report.Items))
	}
	// 2024-01-01 to 2024-12-01 is 335 days.
	if got := report.Items[0]; got.AgeDays != 335 || got.RemainingDays != 30 || got.Status != domain.AgeTerpasang {
		t.Errorf("Expected 335/30/%s, got %d/%d/%s", domain.AgeTerpasang, got.AgeDays, got.RemainingDays, got.Status)
	}

	if _, err := svc.SetTargetAge(ctx, "P001", 300); err != nil {
		t.Fatalf("SetTargetAge failed: %v", err)
	}

	report = svc.ComputeAgeReport(ctx, domain.AgeFilter{})
	if got := report.Items[0]; got.TargetAgeDays != 300 || got.RemainingDays != -35 || got.Status != domain.AgePerluDiganti {
		t.Errorf("Expected 300/-35/%s, got %d/%d/%s", domain.AgePerluDiganti, got.TargetAgeDays, got.RemainingDays, got.Status)
	}

	history := svc.GetMaterialHistory(ctx, "SN1", "P001")
	if len(history.Items) != 1 || history.Items[0].NomorBA != "BA-2024-0001" {
		t.Errorf("Expected one history entry for BA-2024-0001, got %+v", history.Items)
	}
}

func TestInventoryService_TargetAgeDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestInventory(store.Transactions(), store.Targets(), nil)

	target, err := svc.GetTargetAge(ctx, "P404")
	if err != nil {
		t.Fatalf("GetTargetAge failed: %v", err)
	}
	if target.TargetDays != 365 {
		t.Errorf("Expected default 365, got %d", target.TargetDays)
	}

	if _, err := svc.SetTargetAge(ctx, "P001", 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for zero days, got %v", err)
	}
	if _, err := svc.SetTargetAge(ctx, " ", 10); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for blank part, got %v", err)
	}
}
