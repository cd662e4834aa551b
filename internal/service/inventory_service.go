package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/cache"
	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/engine"
	"github.com/andresuchdata/material-tracker/internal/identifier"
	"github.com/andresuchdata/material-tracker/internal/repository"
	"github.com/andresuchdata/material-tracker/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// InventoryOptions carries the classification knobs of the inventory reports.
type InventoryOptions struct {
	Thresholds       domain.StockThresholds
	AgePolicy        domain.AgePolicy
	TopOutboundLimit int
	Now              func() time.Time
}

type InventoryService struct {
	transactions repository.TransactionRepository
	targets      repository.TargetAgeRepository
	numbers      *identifier.Generator
	signatures   *storage.SignatureStore
	cache        cache.ReportCache
	validate     *validator.Validate

	stock *engine.StockAggregator
	age   *engine.AgeTracker
	opts  InventoryOptions
}

func NewInventoryService(
	transactions repository.TransactionRepository,
	targets repository.TargetAgeRepository,
	numbers *identifier.Generator,
	signatures *storage.SignatureStore,
	cacheImpl cache.ReportCache,
	opts InventoryOptions,
) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AgePolicy.DefaultTargetDays <= 0 {
		opts.AgePolicy.DefaultTargetDays = 365
	}

	return &InventoryService{
		transactions: transactions,
		targets:      targets,
		numbers:      numbers,
		signatures:   signatures,
		cache:        cacheImpl,
		validate:     newValidator(),
		stock:        engine.NewStockAggregator(opts.Thresholds),
		age:          engine.NewAgeTracker(opts.AgePolicy),
		opts:         opts,
	}
}

func (s *InventoryService) meta(err error) domain.ReportMeta {
	if err != nil {
		return domain.ReportMeta{Source: domain.SourceUnavailable, Error: err.Error(), GeneratedAt: s.opts.Now()}
	}
	return domain.ReportMeta{Source: domain.SourceDatabase, GeneratedAt: s.opts.Now()}
}

// ComputeStock returns the stock position of every part. A store failure yields an
// empty report marked unavailable rather than an error.
func (s *InventoryService) ComputeStock(ctx context.Context) *domain.StockReport {
	if report, ok, err := s.cache.GetStock(ctx); err == nil && ok {
		report.Source = domain.SourceCache
		return report
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get stock failed")
	}

	transactions, err := s.transactions.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("inventory: transaction store unavailable")
		return &domain.StockReport{ReportMeta: s.meta(err), Items: []domain.StockRecord{}}
	}

	report := &domain.StockReport{ReportMeta: s.meta(nil), Items: s.stock.Compute(transactions)}

	if err := s.cache.SetStock(ctx, report); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set stock failed")
	}

	return report
}

// ComputeCriticalStock lists parts at or below threshold, lowest first. A nil
// threshold uses the configured critical threshold.
func (s *InventoryService) ComputeCriticalStock(ctx context.Context, threshold *int) *domain.StockReport {
	limit := s.opts.Thresholds.Critical
	if threshold != nil {
		limit = *threshold
	}

	report := s.ComputeStock(ctx)
	return &domain.StockReport{
		ReportMeta: report.ReportMeta,
		Items:      s.stock.Critical(report.Items, limit),
	}
}

// ComputeTopOutboundMaterials ranks parts by outbound frequency.
func (s *InventoryService) ComputeTopOutboundMaterials(ctx context.Context, limit int) *domain.TopOutboundReport {
	if limit <= 0 {
		limit = s.opts.TopOutboundLimit
	}

	if report, ok, err := s.cache.GetTopOutbound(ctx, limit); err == nil && ok {
		report.Source = domain.SourceCache
		return report
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get top outbound failed")
	}

	transactions, err := s.transactions.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("inventory: transaction store unavailable")
		return &domain.TopOutboundReport{ReportMeta: s.meta(err), Items: []domain.OutboundRank{}}
	}

	report := &domain.TopOutboundReport{ReportMeta: s.meta(nil), Items: s.stock.TopOutbound(transactions, limit)}

	if err := s.cache.SetTopOutbound(ctx, limit, report); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set top outbound failed")
	}

	return report
}

// ComputeAgeReport returns the current installation of every (serial, part) pair.
func (s *InventoryService) ComputeAgeReport(ctx context.Context, filter domain.AgeFilter) *domain.AgeReport {
	today := s.opts.Now()

	if report, ok, err := s.cache.GetAge(ctx, filter, today); err == nil && ok {
		report.Source = domain.SourceCache
		return report
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get age report failed")
	}

	transactions, targets, err := s.loadAgeInputs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("inventory: transaction store unavailable")
		return &domain.AgeReport{ReportMeta: s.meta(err), Items: []domain.AgeRecord{}}
	}

	report := &domain.AgeReport{
		ReportMeta: s.meta(nil),
		Items:      s.age.Compute(transactions, targets, today, filter),
	}

	if err := s.cache.SetAge(ctx, filter, today, report); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set age report failed")
	}

	return report
}

// loadAgeInputs reads the transaction log and the target table in parallel.
// A target table failure falls back to default targets; only the log is required.
func (s *InventoryService) loadAgeInputs(ctx context.Context) ([]domain.Transaction, map[string]int, error) {
	var (
		transactions []domain.Transaction
		targetRows   []domain.TargetAge
		targetsErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		targetRows, targetsErr = s.targets.List(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	targets := make(map[string]int, len(targetRows))
	if targetsErr != nil {
		log.Warn().Err(targetsErr).Msg("inventory: target ages unavailable, using defaults")
	}
	for _, row := range targetRows {
		targets[row.PartNumber] = row.TargetDays
	}

	return transactions, targets, nil
}

// GetMaterialHistory returns every installation of one (serial, part) pair, oldest first.
func (s *InventoryService) GetMaterialHistory(ctx context.Context, serialNumber, partNumber string) *domain.HistoryReport {
	report := &domain.HistoryReport{
		SerialNumber: serialNumber,
		PartNumber:   partNumber,
		Items:        []domain.HistoryEntry{},
	}

	transactions, err := s.transactions.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("inventory: transaction store unavailable")
		report.ReportMeta = s.meta(err)
		return report
	}

	report.ReportMeta = s.meta(nil)
	report.Items = s.age.History(transactions, serialNumber, partNumber)
	return report
}

// GenerateBANumber allocates the next BA number, taking the year from date when given.
func (s *InventoryService) GenerateBANumber(ctx context.Context, date *time.Time) (string, error) {
	return s.numbers.BANumber(ctx, date)
}

// GenerateLH05Number allocates the next disruption report number.
func (s *InventoryService) GenerateLH05Number(ctx context.Context) (string, error) {
	return s.numbers.LH05Number(ctx)
}

// SubmitTransaction validates and records a new BA, numbering it and storing its signatures.
func (s *InventoryService) SubmitTransaction(ctx context.Context, input domain.TransactionInput) (*domain.Transaction, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if !strings.Contains(input.JenisTransaksi, domain.DirectionMasuk) && !strings.Contains(input.JenisTransaksi, domain.DirectionKeluar) {
		return nil, invalidField("TransactionInput.JenisTransaksi", "direction")
	}

	nomorBA, err := s.numbers.BANumber(ctx, &input.Tanggal)
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		NomorBA:        nomorBA,
		Tanggal:        input.Tanggal,
		JenisTransaksi: input.JenisTransaksi,
		LokasiAsal:     input.LokasiAsal,
		LokasiTujuan:   input.LokasiTujuan,
		Pemeriksa:      input.Pemeriksa,
		Penerima:       input.Penerima,
		Materials:      make([]domain.MaterialLine, 0, len(input.Materials)),
	}
	for _, m := range input.Materials {
		tx.Materials = append(tx.Materials, domain.MaterialLine{
			PartNumber:   strings.TrimSpace(m.PartNumber),
			JenisBarang:  m.JenisBarang,
			Material:     m.Material,
			Mesin:        m.Mesin,
			Status:       m.Status,
			SerialNumber: strings.TrimSpace(m.SerialNumber),
			Jumlah:       m.Jumlah,
		})
	}

	if s.signatures != nil {
		if tx.SignaturePemeriksa, err = s.signatures.Save(ctx, "pemeriksa", input.SignaturePemeriksa); err != nil {
			return nil, err
		}
		if tx.SignaturePenerima, err = s.signatures.Save(ctx, "penerima", input.SignaturePenerima); err != nil {
			return nil, err
		}
	}

	if err := s.transactions.Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction %s: %w", nomorBA, err)
	}

	s.invalidate(ctx)

	log.Info().
		Str("nomor_ba", tx.NomorBA).
		Str("jenis", tx.JenisTransaksi).
		Int("lines", len(tx.Materials)).
		Msg("transaction recorded")

	return tx, nil
}

func (s *InventoryService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	return s.transactions.List(ctx, filter)
}

func (s *InventoryService) GetTransaction(ctx context.Context, nomorBA string) (*domain.Transaction, error) {
	return s.transactions.GetByNomorBA(ctx, nomorBA)
}

// GetSignature returns the stored signature of one signer of a transaction.
// role is pemeriksa or penerima.
func (s *InventoryService) GetSignature(ctx context.Context, nomorBA, role string) ([]byte, string, error) {
	tx, err := s.transactions.GetByNomorBA(ctx, nomorBA)
	if err != nil {
		return nil, "", err
	}

	var key string
	switch strings.ToLower(role) {
	case "pemeriksa":
		key = tx.SignaturePemeriksa
	case "penerima":
		key = tx.SignaturePenerima
	default:
		return nil, "", invalidField("role", "oneof")
	}
	if key == "" || s.signatures == nil {
		return nil, "", fmt.Errorf("%w: no %s signature on %s", domain.ErrNotFound, role, nomorBA)
	}

	return s.signatures.Load(ctx, key)
}

// SetTargetAge sets the replacement target of a part.
func (s *InventoryService) SetTargetAge(ctx context.Context, partNumber string, days int) (*domain.TargetAge, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return nil, invalidField("part_number", "required")
	}
	if days <= 0 {
		return nil, invalidField("target_days", "gt")
	}

	target, err := s.targets.Set(ctx, partNumber, days)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return target, nil
}

// GetTargetAge returns the target of a part, or the default target when none is set.
func (s *InventoryService) GetTargetAge(ctx context.Context, partNumber string) (*domain.TargetAge, error) {
	target, err := s.targets.Get(ctx, partNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.TargetAge{PartNumber: partNumber, TargetDays: s.opts.AgePolicy.DefaultTargetDays}, nil
	}
	return target, err
}

func (s *InventoryService) ListTargetAges(ctx context.Context) ([]domain.TargetAge, error) {
	return s.targets.List(ctx)
}

// ImportTransactions records transactions that already carry BA numbers, such as
// legacy exports. Numbers already on file are skipped, and the BA counter is moved
// past every imported number so later submissions never reuse one.
func (s *InventoryService) ImportTransactions(ctx context.Context, transactions []domain.Transaction) (imported, skipped int, err error) {
	numbers := make([]string, 0, len(transactions))
	for i := range transactions {
		tx := &transactions[i]
		numbers = append(numbers, tx.NomorBA)

		if err := s.transactions.Append(ctx, tx); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				skipped++
				continue
			}
			return imported, skipped, fmt.Errorf("failed to import %s: %w", tx.NomorBA, err)
		}
		imported++
	}

	if err := s.numbers.SyncBA(ctx, numbers); err != nil {
		return imported, skipped, err
	}
	if imported > 0 {
		s.invalidate(ctx)
	}

	return imported, skipped, nil
}

// ImportTargetAges sets many replacement targets and refreshes cached reports once.
func (s *InventoryService) ImportTargetAges(ctx context.Context, targets []domain.TargetAge) (int, error) {
	set := 0
	for _, target := range targets {
		partNumber := strings.TrimSpace(target.PartNumber)
		if partNumber == "" || target.TargetDays <= 0 {
			continue
		}
		if _, err := s.targets.Set(ctx, partNumber, target.TargetDays); err != nil {
			return set, fmt.Errorf("failed to set target for %s: %w", partNumber, err)
		}
		set++
	}

	if set > 0 {
		s.invalidate(ctx)
	}
	return set, nil
}

// StockIndex returns closing stock per part for callers that classify against it.
func (s *InventoryService) StockIndex(ctx context.Context) (map[string]int, error) {
	transactions, err := s.transactions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return engine.StockIndex(s.stock.Compute(transactions)), nil
}

func (s *InventoryService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
}
