package domain

import (
	"strings"
	"time"
)

const (
	// DirectionMasuk marks material coming into a location.
	DirectionMasuk = "Masuk"
	// DirectionKeluar marks material leaving a location to be installed.
	DirectionKeluar = "Keluar"
)

// Transaction is a BA (berita acara) recording a material movement between two locations.
type Transaction struct {
	ID                 int64          `json:"id" db:"id"`
	NomorBA            string         `json:"nomor_ba" db:"nomor_ba"`
	Tanggal            time.Time      `json:"tanggal" db:"tanggal"`
	JenisTransaksi     string         `json:"jenis_transaksi" db:"jenis_transaksi"`
	LokasiAsal         string         `json:"lokasi_asal" db:"lokasi_asal"`
	LokasiTujuan       string         `json:"lokasi_tujuan" db:"lokasi_tujuan"`
	Pemeriksa          string         `json:"pemeriksa" db:"pemeriksa"`
	Penerima           string         `json:"penerima" db:"penerima"`
	SignaturePemeriksa string         `json:"signature_pemeriksa,omitempty" db:"signature_pemeriksa_key"`
	SignaturePenerima  string         `json:"signature_penerima,omitempty" db:"signature_penerima_key"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	Materials          []MaterialLine `json:"materials" db:"-"`
}

// IsMasuk reports whether the transaction adds to stock.
func (t *Transaction) IsMasuk() bool {
	return strings.Contains(t.JenisTransaksi, DirectionMasuk)
}

// IsKeluar reports whether the transaction installs material somewhere.
func (t *Transaction) IsKeluar() bool {
	return strings.Contains(t.JenisTransaksi, DirectionKeluar)
}

// MaterialLine is one material row owned by a Transaction.
type MaterialLine struct {
	ID            int64  `json:"id" db:"id"`
	TransactionID int64  `json:"transaction_id" db:"transaction_id"`
	PartNumber    string `json:"part_number" db:"part_number"`
	JenisBarang   string `json:"jenis_barang" db:"jenis_barang"`
	Material      string `json:"material" db:"material"`
	Mesin         string `json:"mesin" db:"mesin"`
	Status        string `json:"status" db:"status"`
	SerialNumber  string `json:"serial_number" db:"serial_number"`
	Jumlah        int    `json:"jumlah" db:"jumlah"`
}

// Quantity returns the line quantity, treating negative values from dirty history as zero.
func (m MaterialLine) Quantity() int {
	if m.Jumlah < 0 {
		return 0
	}
	return m.Jumlah
}

// TransactionInput is the payload accepted when a new BA is submitted.
type TransactionInput struct {
	Tanggal            time.Time           `json:"tanggal" validate:"required"`
	JenisTransaksi     string              `json:"jenis_transaksi" validate:"required"`
	LokasiAsal         string              `json:"lokasi_asal" validate:"required"`
	LokasiTujuan       string              `json:"lokasi_tujuan" validate:"required"`
	Pemeriksa          string              `json:"pemeriksa" validate:"required"`
	Penerima           string              `json:"penerima" validate:"required"`
	SignaturePemeriksa []byte              `json:"signature_pemeriksa,omitempty"`
	SignaturePenerima  []byte              `json:"signature_penerima,omitempty"`
	Materials          []MaterialLineInput `json:"materials" validate:"required,min=1,dive"`
}

// MaterialLineInput is a single material row of a TransactionInput.
type MaterialLineInput struct {
	PartNumber   string `json:"part_number" validate:"required"`
	JenisBarang  string `json:"jenis_barang"`
	Material     string `json:"material" validate:"required"`
	Mesin        string `json:"mesin"`
	Status       string `json:"status"`
	SerialNumber string `json:"serial_number"`
	Jumlah       int    `json:"jumlah" validate:"gt=0"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	JenisTransaksi string
	Lokasi         string
	Page           int
	PageSize       int
}

// Part is a catalogue row used to look up material details by part number.
type Part struct {
	PartNumber  string    `json:"part_number" db:"part_number"`
	JenisBarang string    `json:"jenis_barang" db:"jenis_barang"`
	Material    string    `json:"material" db:"material"`
	Mesin       string    `json:"mesin" db:"mesin"`
	Satuan      string    `json:"satuan" db:"satuan"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TargetAge is the replacement target configured for a part.
type TargetAge struct {
	PartNumber string    `json:"part_number" db:"part_number"`
	TargetDays int       `json:"target_days" db:"target_days"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
