package domain

import "time"

const (
	// SourceDatabase marks a report computed from the transaction store.
	SourceDatabase = "database"
	// SourceCache marks a report served from the report cache.
	SourceCache = "cache"
	// SourceUnavailable marks an empty report returned because the store could not be read.
	SourceUnavailable = "unavailable"
)

// ReportMeta tells callers where a derived report came from and whether it is degraded.
type ReportMeta struct {
	Source      string    `json:"source"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StockRecord is the derived stock position of one part.
type StockRecord struct {
	PartNumber  string `json:"part_number"`
	JenisBarang string `json:"jenis_barang"`
	Material    string `json:"material"`
	StokMasuk   int    `json:"stok_masuk"`
	StokKeluar  int    `json:"stok_keluar"`
	StokAkhir   int    `json:"stok_akhir"`
	Status      string `json:"status"`
}

// StockReport wraps the stock records returned to callers.
type StockReport struct {
	ReportMeta
	Items []StockRecord `json:"items"`
}

// HistoryEntry is one installation of a (serial, part) pair.
type HistoryEntry struct {
	PenggantianKe int       `json:"penggantian_ke"`
	Tanggal       time.Time `json:"tanggal"`
	NomorBA       string    `json:"nomor_ba"`
	LokasiTujuan  string    `json:"lokasi_tujuan"`
	Jumlah        int       `json:"jumlah"`
	Pemeriksa     string    `json:"pemeriksa"`
	Penerima      string    `json:"penerima"`
}

// AgeRecord is the current installation of a (serial, part) pair plus its replacement history.
type AgeRecord struct {
	SerialNumber     string         `json:"serial_number"`
	PartNumber       string         `json:"part_number"`
	Material         string         `json:"material"`
	JenisBarang      string         `json:"jenis_barang"`
	Mesin            string         `json:"mesin"`
	Lokasi           string         `json:"lokasi"`
	InstallDate      time.Time      `json:"install_date"`
	NomorBA          string         `json:"nomor_ba"`
	AgeDays          int            `json:"age_days"`
	TargetAgeDays    int            `json:"target_age_days"`
	RemainingDays    int            `json:"remaining_days"`
	Status           string         `json:"status"`
	TotalPenggantian int            `json:"total_penggantian"`
	History          []HistoryEntry `json:"history"`
}

// AgeFilter narrows the age report.
type AgeFilter struct {
	Location     string `json:"location"`
	MaterialName string `json:"material"`
}

// AgeReport wraps the age records returned to callers.
type AgeReport struct {
	ReportMeta
	Items []AgeRecord `json:"items"`
}

// HistoryReport wraps the installation history of one (serial, part) pair.
type HistoryReport struct {
	ReportMeta
	SerialNumber string         `json:"serial_number"`
	PartNumber   string         `json:"part_number"`
	Items        []HistoryEntry `json:"items"`
}

// OutboundRank is one entry of the most frequently issued materials.
type OutboundRank struct {
	Rank        int    `json:"rank"`
	PartNumber  string `json:"part_number"`
	Material    string `json:"material"`
	Frequency   int    `json:"frequency"`
	TotalJumlah int    `json:"total_jumlah"`
}

// TopOutboundReport wraps the outbound ranking.
type TopOutboundReport struct {
	ReportMeta
	Items []OutboundRank `json:"items"`
}

// StockThresholds controls stock status classification.
type StockThresholds struct {
	Low      int `json:"low"`
	Critical int `json:"critical"`
}

// AgePolicy controls lifecycle classification.
type AgePolicy struct {
	DefaultTargetDays int `json:"default_target_days"`
	WarningWindowDays int `json:"warning_window_days"`
}
