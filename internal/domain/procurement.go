package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusLocked      = errors.New("status locked by RAB")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("already recorded")
)

// Gangguan is a disruption report (LH05) listing the materials needed to recover.
type Gangguan struct {
	ID            int64              `json:"id" db:"id"`
	NomorLH05     string             `json:"nomor_lh05" db:"nomor_lh05"`
	Tanggal       time.Time          `json:"tanggal" db:"tanggal"`
	Lokasi        string             `json:"lokasi" db:"lokasi"`
	KomponenGagal string             `json:"komponen_gagal" db:"komponen_gagal"`
	Penyebab      string             `json:"penyebab" db:"penyebab"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	Materials     []GangguanMaterial `json:"materials" db:"-"`
}

// GangguanMaterial is a material required by a gangguan, with its procurement status.
type GangguanMaterial struct {
	ID          int64             `json:"id" db:"id"`
	GangguanID  int64             `json:"gangguan_id" db:"gangguan_id"`
	NomorLH05   string            `json:"nomor_lh05" db:"nomor_lh05"`
	Lokasi      string            `json:"lokasi" db:"lokasi"`
	PartNumber  string            `json:"part_number" db:"part_number"`
	JenisBarang string            `json:"jenis_barang" db:"jenis_barang"`
	Material    string            `json:"material" db:"material"`
	Mesin       string            `json:"mesin" db:"mesin"`
	Jumlah      int               `json:"jumlah" db:"jumlah"`
	Status      ProcurementStatus `json:"status" db:"status"`
	LockedByRAB bool              `json:"locked_by_rab" db:"locked_by_rab"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// GangguanInput is the payload accepted when a disruption report is filed.
type GangguanInput struct {
	Tanggal       time.Time           `json:"tanggal" validate:"required"`
	Lokasi        string              `json:"lokasi" validate:"required"`
	KomponenGagal string              `json:"komponen_gagal" validate:"required"`
	Penyebab      string              `json:"penyebab"`
	Materials     []MaterialLineInput `json:"materials" validate:"required,min=1,dive"`
}

// ProcurementFilter narrows the procurement detail listing.
type ProcurementFilter struct {
	PartNumber string            `json:"part_number"`
	Unit       string            `json:"unit"`
	Status     ProcurementStatus `json:"status"`
}

// ProcurementCount is the number of material lines in one status.
type ProcurementCount struct {
	Status ProcurementStatus `json:"status"`
	Count  int               `json:"count"`
}

// ProcurementSummary is the procurement dashboard.
type ProcurementSummary struct {
	ReportMeta
	Counts []ProcurementCount `json:"counts"`
	Total  int                `json:"total"`
}

// ProcurementItems wraps the procurement detail listing.
type ProcurementItems struct {
	ReportMeta
	Items []GangguanMaterial `json:"items"`
}

// RAB is a budget document (rencana anggaran biaya) for replacement materials.
type RAB struct {
	ID         int64           `json:"id" db:"id"`
	NomorRAB   string          `json:"nomor_rab" db:"nomor_rab"`
	TanggalRAB time.Time       `json:"tanggal_rab" db:"tanggal_rab"`
	Status     RABStatus       `json:"status" db:"status"`
	TotalHarga decimal.Decimal `json:"total_harga" db:"total_harga"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
	Items      []RABItem       `json:"items" db:"-"`
}

// RABItem is one priced line of a RAB, linked to a gangguan by LH05 number and part number.
type RABItem struct {
	ID          int64           `json:"id" db:"id"`
	RABID       int64           `json:"rab_id" db:"rab_id"`
	NomorLH05   string          `json:"nomor_lh05" db:"nomor_lh05"`
	PartNumber  string          `json:"part_number" db:"part_number"`
	Material    string          `json:"material" db:"material"`
	Mesin       string          `json:"mesin" db:"mesin"`
	Jumlah      int             `json:"jumlah" db:"jumlah"`
	UnitULD     string          `json:"unit_uld" db:"unit_uld"`
	HargaSatuan decimal.Decimal `json:"harga_satuan" db:"harga_satuan"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// RABInput is the payload accepted when a RAB is drafted.
type RABInput struct {
	TanggalRAB time.Time      `json:"tanggal_rab" validate:"required"`
	Items      []RABItemInput `json:"items" validate:"required,min=1,dive"`
}

// RABItemInput is a single line of a RABInput.
type RABItemInput struct {
	NomorLH05   string          `json:"nomor_lh05" validate:"required"`
	PartNumber  string          `json:"part_number" validate:"required"`
	Material    string          `json:"material" validate:"required"`
	Mesin       string          `json:"mesin"`
	Jumlah      int             `json:"jumlah" validate:"gt=0"`
	UnitULD     string          `json:"unit_uld"`
	HargaSatuan decimal.Decimal `json:"harga_satuan"`
}

// Priced fills in subtotals and the total from unit prices and quantities.
func (r *RAB) Priced() *RAB {
	total := decimal.Zero
	for i := range r.Items {
		r.Items[i].Subtotal = r.Items[i].HargaSatuan.Mul(decimal.NewFromInt(int64(r.Items[i].Jumlah)))
		total = total.Add(r.Items[i].Subtotal)
	}
	r.TotalHarga = total
	return r
}
