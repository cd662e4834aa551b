package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/catalog"
	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/repository/postgres"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func runImportTargets(c *cli.Context) error {
	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", c.String("file"), err)
	}
	defer file.Close()

	rows, err := parseTargets(file)
	if err != nil {
		return err
	}

	inventory, err := newInventory(c)
	if err != nil {
		return err
	}

	set, err := inventory.ImportTargetAges(c.Context, rows)
	if err != nil {
		return err
	}

	log.Info().Int("targets", set).Msg("target ages imported")
	return nil
}

// parseTargets reads part_number,target_days rows; non-positive targets are skipped.
func parseTargets(r io.Reader) ([]domain.TargetAge, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read targets csv: %w", err)
	}

	rows := make([]domain.TargetAge, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			continue
		}
		part := strings.TrimSpace(record[0])
		days, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			if i == 0 {
				continue // header
			}
			log.Warn().Int("line", i+1).Str("value", record[1]).Msg("skipping unparsable target")
			continue
		}
		if part == "" || days <= 0 {
			continue
		}
		rows = append(rows, domain.TargetAge{PartNumber: part, TargetDays: days})
	}
	return rows, nil
}

func runImportCatalog(c *cli.Context) error {
	var src catalog.Source
	switch {
	case c.String("file") != "":
		src = catalog.LocalSource{Path: c.String("file")}
	case c.String("drive-folder") != "":
		credentials, err := os.ReadFile(c.String("credentials"))
		if err != nil {
			return fmt.Errorf("failed to read drive credentials: %w", err)
		}
		client, err := catalog.NewDriveClient(c.Context, credentials)
		if err != nil {
			return err
		}
		src = catalog.DriveSource{Client: client, FolderID: c.String("drive-folder")}
	default:
		return fmt.Errorf("either --file or --drive-folder is required")
	}

	db, err := repoDB(c)
	if err != nil {
		return err
	}

	_, err = catalog.NewService(postgres.NewPartRepository(db), c.String("sheet")).ImportCatalog(c.Context, src)
	return err
}
