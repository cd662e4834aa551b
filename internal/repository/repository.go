package repository

import (
	"context"

	"github.com/andresuchdata/material-tracker/internal/domain"
)

// TransactionRepository is the append-only store of BA transactions and their material lines.
type TransactionRepository interface {
	Append(ctx context.Context, tx *domain.Transaction) error
	ListAll(ctx context.Context) ([]domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
	GetByNomorBA(ctx context.Context, nomorBA string) (*domain.Transaction, error)
}

// TargetAgeRepository stores replacement targets per part number.
type TargetAgeRepository interface {
	Get(ctx context.Context, partNumber string) (*domain.TargetAge, error)
	Set(ctx context.Context, partNumber string, days int) (*domain.TargetAge, error)
	List(ctx context.Context) ([]domain.TargetAge, error)
}

// SequenceRepository hands out values of named, durable counters.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
	AdvanceTo(ctx context.Context, name string, value int64) error
}

// GangguanRepository stores disruption reports and the procurement state of their materials.
type GangguanRepository interface {
	Create(ctx context.Context, g *domain.Gangguan) error
	List(ctx context.Context) ([]domain.Gangguan, error)
	ListMaterials(ctx context.Context, filter domain.ProcurementFilter) ([]domain.GangguanMaterial, error)
	// UpdateMaterialStatus fails with domain.ErrStatusLocked when a RAB owns the line.
	UpdateMaterialStatus(ctx context.Context, id int64, status domain.ProcurementStatus) (*domain.GangguanMaterial, error)
}

// RABRepository stores budget documents.
type RABRepository interface {
	Create(ctx context.Context, rab *domain.RAB) error
	Get(ctx context.Context, id int64) (*domain.RAB, error)
	List(ctx context.Context) ([]domain.RAB, error)
	// TransitionStatus moves a RAB forward and pushes the matching procurement status onto
	// every gangguan material sharing an item's LH05 number and part number, locking them.
	// It returns the updated RAB and the number of material lines touched.
	TransitionStatus(ctx context.Context, id int64, next domain.RABStatus) (*domain.RAB, int, error)
}

// PartRepository is the part catalogue.
type PartRepository interface {
	Upsert(ctx context.Context, parts []domain.Part) (int, error)
	Get(ctx context.Context, partNumber string) (*domain.Part, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Part, error)
}
