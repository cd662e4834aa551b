package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/engine"
	"github.com/andresuchdata/material-tracker/internal/export"
	"github.com/andresuchdata/material-tracker/internal/identifier"
	"github.com/andresuchdata/material-tracker/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// StockSource provides closing stock per part number.
type StockSource interface {
	StockIndex(ctx context.Context) (map[string]int, error)
}

type ProcurementService struct {
	gangguan repository.GangguanRepository
	rabs     repository.RABRepository
	stock    StockSource
	numbers  *identifier.Generator
	validate *validator.Validate
	now      func() time.Time
}

func NewProcurementService(
	gangguan repository.GangguanRepository,
	rabs repository.RABRepository,
	stock StockSource,
	numbers *identifier.Generator,
) *ProcurementService {
	return &ProcurementService{
		gangguan: gangguan,
		rabs:     rabs,
		stock:    stock,
		numbers:  numbers,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *ProcurementService) meta(err error) domain.ReportMeta {
	if err != nil {
		return domain.ReportMeta{Source: domain.SourceUnavailable, Error: err.Error(), GeneratedAt: s.now()}
	}
	return domain.ReportMeta{Source: domain.SourceDatabase, GeneratedAt: s.now()}
}

// CreateGangguan files a disruption report, numbering it and classifying each
// required material against current stock.
func (s *ProcurementService) CreateGangguan(ctx context.Context, input domain.GangguanInput) (*domain.Gangguan, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	stock, err := s.stock.StockIndex(ctx)
	if err != nil {
		return nil, err
	}

	nomor, err := s.numbers.LH05Number(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.GangguanMaterial, 0, len(input.Materials))
	for _, m := range input.Materials {
		lines = append(lines, domain.GangguanMaterial{
			PartNumber:  strings.TrimSpace(m.PartNumber),
			JenisBarang: m.JenisBarang,
			Material:    m.Material,
			Mesin:       m.Mesin,
			Jumlah:      m.Jumlah,
		})
	}

	g := &domain.Gangguan{
		NomorLH05:     nomor,
		Tanggal:       input.Tanggal,
		Lokasi:        strings.TrimSpace(input.Lokasi),
		KomponenGagal: input.KomponenGagal,
		Penyebab:      input.Penyebab,
		Materials:     engine.ClassifyAgainstStock(lines, stock),
	}

	if err := s.gangguan.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to record gangguan %s: %w", nomor, err)
	}

	log.Info().
		Str("nomor_lh05", g.NomorLH05).
		Str("lokasi", g.Lokasi).
		Int("materials", len(g.Materials)).
		Msg("gangguan recorded")

	return g, nil
}

func (s *ProcurementService) ListGangguan(ctx context.Context) ([]domain.Gangguan, error) {
	return s.gangguan.List(ctx)
}

// GetProcurementSummary counts material lines per procurement status. Every status
// is present, with zero counts when nothing matches.
func (s *ProcurementService) GetProcurementSummary(ctx context.Context, filter domain.ProcurementFilter) *domain.ProcurementSummary {
	lines, err := s.gangguan.ListMaterials(ctx, domain.ProcurementFilter{PartNumber: filter.PartNumber, Unit: filter.Unit})
	if err != nil {
		log.Error().Err(err).Msg("procurement: gangguan store unavailable")
		counts, _ := engine.CountByStatus(nil)
		return &domain.ProcurementSummary{ReportMeta: s.meta(err), Counts: counts}
	}

	counts, total := engine.CountByStatus(lines)
	return &domain.ProcurementSummary{ReportMeta: s.meta(nil), Counts: counts, Total: total}
}

// ListProcurementItems lists material lines filtered by part number, unit and status.
func (s *ProcurementService) ListProcurementItems(ctx context.Context, filter domain.ProcurementFilter) *domain.ProcurementItems {
	lines, err := s.gangguan.ListMaterials(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("procurement: gangguan store unavailable")
		return &domain.ProcurementItems{ReportMeta: s.meta(err), Items: []domain.GangguanMaterial{}}
	}

	return &domain.ProcurementItems{ReportMeta: s.meta(nil), Items: engine.FilterProcurement(lines, filter)}
}

// UpdateMaterialStatus sets the procurement status of one material line by hand.
// Lines locked by a RAB transition reject the update with domain.ErrStatusLocked.
func (s *ProcurementService) UpdateMaterialStatus(ctx context.Context, id int64, label string) (*domain.GangguanMaterial, error) {
	status, ok := domain.ParseProcurementStatus(label)
	if !ok {
		return nil, invalidField("status", "oneof")
	}

	return s.gangguan.UpdateMaterialStatus(ctx, id, status)
}

// CreateRAB drafts a budget document and prices its items.
func (s *ProcurementService) CreateRAB(ctx context.Context, input domain.RABInput) (*domain.RAB, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	for i, item := range input.Items {
		if item.HargaSatuan.IsNegative() {
			return nil, invalidField(fmt.Sprintf("RABInput.Items[%d].HargaSatuan", i), "gte")
		}
	}

	nomor, err := s.numbers.RABNumber(ctx, input.TanggalRAB)
	if err != nil {
		return nil, err
	}

	rab := &domain.RAB{
		NomorRAB:   nomor,
		TanggalRAB: input.TanggalRAB,
		Status:     domain.RABDraft,
		Items:      make([]domain.RABItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		rab.Items = append(rab.Items, domain.RABItem{
			NomorLH05:   strings.TrimSpace(item.NomorLH05),
			PartNumber:  strings.TrimSpace(item.PartNumber),
			Material:    item.Material,
			Mesin:       item.Mesin,
			Jumlah:      item.Jumlah,
			UnitULD:     item.UnitULD,
			HargaSatuan: item.HargaSatuan,
		})
	}
	rab.Priced()

	if err := s.rabs.Create(ctx, rab); err != nil {
		return nil, fmt.Errorf("failed to record RAB %s: %w", nomor, err)
	}

	log.Info().
		Str("nomor_rab", rab.NomorRAB).
		Str("total", rab.TotalHarga.StringFixed(2)).
		Msg("RAB drafted")

	return rab, nil
}

func (s *ProcurementService) GetRAB(ctx context.Context, id int64) (*domain.RAB, error) {
	return s.rabs.Get(ctx, id)
}

func (s *ProcurementService) ListRAB(ctx context.Context) ([]domain.RAB, error) {
	return s.rabs.List(ctx)
}

// TransitionRAB moves a RAB forward and cascades the matching procurement status
// onto the linked gangguan materials.
func (s *ProcurementService) TransitionRAB(ctx context.Context, id int64, label string) (*domain.RAB, int, error) {
	next, ok := domain.ParseRABStatus(label)
	if !ok {
		return nil, 0, invalidField("status", "oneof")
	}

	rab, touched, err := s.rabs.TransitionStatus(ctx, id, next)
	if err != nil {
		return nil, 0, err
	}

	log.Info().
		Str("nomor_rab", rab.NomorRAB).
		Str("status", string(rab.Status)).
		Int("materials_updated", touched).
		Msg("RAB status changed")

	return rab, touched, nil
}

// ExportRAB writes a RAB as an XLSX workbook and returns its download name.
func (s *ProcurementService) ExportRAB(ctx context.Context, id int64, w io.Writer) (string, error) {
	rab, err := s.rabs.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := export.WriteRAB(w, rab); err != nil {
		return "", err
	}
	return export.RABFilename(rab), nil
}
