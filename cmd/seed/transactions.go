package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var legacyDateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", time.RFC3339}

func runImportTransactions(c *cli.Context) error {
	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", c.String("file"), err)
	}
	defer file.Close()

	transactions, err := parseLegacyTransactions(file)
	if err != nil {
		return err
	}

	inventory, err := newInventory(c)
	if err != nil {
		return err
	}

	imported, skipped, err := inventory.ImportTransactions(c.Context, transactions)
	if err != nil {
		return err
	}

	log.Info().Int("imported", imported).Int("skipped", skipped).Msg("transactions imported")
	return nil
}

// parseLegacyTransactions groups CSV rows by BA number, keeping first-seen order.
// Old exports stored the serial number in the status column of Keluar rows, and
// quantities that do not parse are taken as zero.
func parseLegacyTransactions(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"nomor_ba", "tanggal", "jenis_transaksi", "part_number"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var (
		transactions []domain.Transaction
		positions    = make(map[string]int)
		line         = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		nomorBA := get("nomor_ba")
		if nomorBA == "" || get("part_number") == "" {
			continue
		}

		pos, ok := positions[nomorBA]
		if !ok {
			tanggal, err := parseLegacyDate(get("tanggal"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			transactions = append(transactions, domain.Transaction{
				NomorBA:        nomorBA,
				Tanggal:        tanggal,
				JenisTransaksi: get("jenis_transaksi"),
				LokasiAsal:     get("lokasi_asal"),
				LokasiTujuan:   get("lokasi_tujuan"),
				Pemeriksa:      get("pemeriksa"),
				Penerima:       get("penerima"),
			})
			pos = len(transactions) - 1
			positions[nomorBA] = pos
		}

		tx := &transactions[pos]
		m := domain.MaterialLine{
			PartNumber:   get("part_number"),
			JenisBarang:  get("jenis_barang"),
			Material:     get("material"),
			Mesin:        get("mesin"),
			Status:       get("status"),
			SerialNumber: get("serial_number"),
			Jumlah:       parseQuantity(get("jumlah")),
		}
		if m.SerialNumber == "" && tx.IsKeluar() {
			m.SerialNumber = m.Status
		}
		tx.Materials = append(tx.Materials, m)
	}

	return transactions, nil
}

func parseLegacyDate(value string) (time.Time, error) {
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// parseQuantity reads whole quantities, accepting dotted thousands such as 1.000.
// Anything else that is not a non-negative integer counts as zero.
func parseQuantity(value string) int {
	if thousandsGrouped.MatchString(value) {
		value = strings.ReplaceAll(value, ".", "")
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
