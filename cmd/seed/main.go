package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/material-tracker/internal/cache"
	"github.com/andresuchdata/material-tracker/internal/config"
	"github.com/andresuchdata/material-tracker/internal/identifier"
	"github.com/andresuchdata/material-tracker/internal/repository/postgres"
	"github.com/andresuchdata/material-tracker/internal/service"
	"github.com/andresuchdata/material-tracker/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

type dbKeyType struct{}

var dbKey = dbKeyType{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

// repoDB wraps the command's connection for the postgres repositories.
func repoDB(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialised")
	}
	return postgres.Wrap(sqlx.NewDb(db, "pgx"), 1), nil
}

// newInventory builds the inventory service the import commands write through, so
// BA counters and cached reports stay in step with the server.
func newInventory(c *cli.Context) (*service.InventoryService, error) {
	db, err := repoDB(c)
	if err != nil {
		return nil, err
	}
	cfg := config.Load()

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("report cache unavailable, cached reports will expire on their own")
		reportCache = cache.NewNoopReportCache()
	}

	numbers := identifier.NewGenerator(postgres.NewSequenceRepository(db), identifier.Options{
		BAPolicy: identifier.ParsePolicy(cfg.Documents.BASequencePolicy),
		UnitCode: cfg.Documents.LH05UnitCode,
	})

	return service.NewInventoryService(
		postgres.NewTransactionRepository(db),
		postgres.NewTargetAgeRepository(db),
		numbers,
		nil,
		reportCache,
		service.InventoryOptions{},
	), nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	logger.Setup(os.Getenv("LOG_LEVEL"), "debug")

	app := &cli.App{
		Name:  "seed",
		Usage: "Prepare the material tracker database and import legacy data",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the schema migrations",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "transactions",
				Usage: "Import legacy BA transactions from a CSV export",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file with one row per material line",
						Required: true,
						EnvVars:  []string{"SEED_TRANSACTIONS_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runImportTransactions,
			},
			{
				Name:  "targets",
				Usage: "Set replacement targets from a part_number,target_days CSV",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file of target ages",
						Required: true,
						EnvVars:  []string{"SEED_TARGETS_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runImportTargets,
			},
			{
				Name:  "catalog",
				Usage: "Import the part catalogue from a local file or a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Local XLSX or CSV catalogue",
						EnvVars: []string{"CATALOG_LOCAL_PATH"},
					},
					&cli.StringFlag{
						Name:    "drive-folder",
						Usage:   "Google Drive folder holding the catalogue",
						EnvVars: []string{"CATALOG_DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:    "credentials",
						Usage:   "Service account key for Google Drive",
						EnvVars: []string{"GOOGLE_APPLICATION_CREDENTIALS"},
					},
					&cli.StringFlag{
						Name:    "sheet",
						Usage:   "Workbook sheet to read (defaults to the first)",
						EnvVars: []string{"CATALOG_SHEET"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runImportCatalog,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func runMigrate(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return fmt.Errorf("database connection not initialised")
	}
	if err := postgres.Migrate(c.Context, db); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}
