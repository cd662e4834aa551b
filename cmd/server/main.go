package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/material-tracker/internal/api"
	"github.com/andresuchdata/material-tracker/internal/cache"
	"github.com/andresuchdata/material-tracker/internal/catalog"
	"github.com/andresuchdata/material-tracker/internal/config"
	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/identifier"
	"github.com/andresuchdata/material-tracker/internal/repository/postgres"
	"github.com/andresuchdata/material-tracker/internal/service"
	"github.com/andresuchdata/material-tracker/internal/storage"
	"github.com/andresuchdata/material-tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.App.LogLevel, cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.DB.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		reportCache = cache.NewNoopReportCache()
	}

	signatures := storage.NewSignatureStore(newObjectStorage(ctx, cfg.Storage))

	numbers := identifier.NewGenerator(postgres.NewSequenceRepository(db), identifier.Options{
		BAPolicy: identifier.ParsePolicy(cfg.Documents.BASequencePolicy),
		UnitCode: cfg.Documents.LH05UnitCode,
	})

	inventory := service.NewInventoryService(
		postgres.NewTransactionRepository(db),
		postgres.NewTargetAgeRepository(db),
		numbers,
		signatures,
		reportCache,
		service.InventoryOptions{
			Thresholds: domain.StockThresholds{
				Low:      cfg.Inventory.StockLowThreshold,
				Critical: cfg.Inventory.StockCriticalThreshold,
			},
			AgePolicy: domain.AgePolicy{
				DefaultTargetDays: cfg.Inventory.DefaultTargetDays,
				WarningWindowDays: cfg.Inventory.WarningWindowDays,
			},
			TopOutboundLimit: cfg.Inventory.TopOutboundLimit,
		},
	)
	procurement := service.NewProcurementService(
		postgres.NewGangguanRepository(db),
		postgres.NewRABRepository(db),
		inventory,
		numbers,
	)
	parts := catalog.NewService(postgres.NewPartRepository(db), cfg.Catalog.Sheet)

	router := api.NewRouter(&api.Services{
		Inventory:   inventory,
		Procurement: procurement,
		Catalog:     parts,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// newObjectStorage returns the S3 bucket when configured, otherwise an in-process store.
func newObjectStorage(ctx context.Context, cfg config.StorageConfig) storage.ObjectStorage {
	if !cfg.Enabled {
		log.Warn().Msg("Object storage disabled, signatures are kept in memory")
		return storage.NewMemoryStorage()
	}

	client, err := storage.NewMinioClient(ctx, storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to object storage")
	}
	return client
}
