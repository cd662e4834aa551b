package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/material-tracker/internal/api/handlers"
	"github.com/andresuchdata/material-tracker/internal/api/middleware"
	"github.com/andresuchdata/material-tracker/internal/catalog"
	"github.com/andresuchdata/material-tracker/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Inventory   *service.InventoryService
	Procurement *service.ProcurementService
	Catalog     *catalog.Service
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", health)

	if services == nil {
		return router
	}

	if services.Inventory != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.Inventory)

		transactionGroup := apiGroup.Group("/transactions")
		{
			transactionGroup.POST("", inventoryHandler.SubmitTransaction)
			transactionGroup.GET("", inventoryHandler.ListTransactions)
			transactionGroup.GET("/:nomor_ba", inventoryHandler.GetTransaction)
			transactionGroup.GET("/:nomor_ba/signatures/:role", inventoryHandler.GetSignature)
		}

		stockGroup := apiGroup.Group("/stock")
		{
			stockGroup.GET("", inventoryHandler.GetStock)
			stockGroup.GET("/critical", inventoryHandler.GetCriticalStock)
			stockGroup.GET("/top-outbound", inventoryHandler.GetTopOutbound)
		}

		ageGroup := apiGroup.Group("/age")
		{
			ageGroup.GET("", inventoryHandler.GetAgeReport)
			ageGroup.GET("/history", inventoryHandler.GetMaterialHistory)
		}

		targetGroup := apiGroup.Group("/targets")
		{
			targetGroup.GET("", inventoryHandler.ListTargets)
			targetGroup.GET("/:part_number", inventoryHandler.GetTarget)
			targetGroup.PUT("/:part_number", inventoryHandler.SetTarget)
		}

		documentGroup := apiGroup.Group("/documents")
		{
			documentGroup.POST("/ba-number", inventoryHandler.GenerateBANumber)
			documentGroup.POST("/lh05-number", inventoryHandler.GenerateLH05Number)
		}
	}

	if services.Procurement != nil {
		procurementHandler := handlers.NewProcurementHandler(services.Procurement)

		gangguanGroup := apiGroup.Group("/gangguan")
		{
			gangguanGroup.POST("", procurementHandler.CreateGangguan)
			gangguanGroup.GET("", procurementHandler.ListGangguan)
		}

		procurementGroup := apiGroup.Group("/procurement")
		{
			procurementGroup.GET("/summary", procurementHandler.GetSummary)
			procurementGroup.GET("/items", procurementHandler.ListItems)
			procurementGroup.PATCH("/items/:id/status", procurementHandler.UpdateMaterialStatus)
		}

		rabGroup := apiGroup.Group("/rab")
		{
			rabGroup.POST("", procurementHandler.CreateRAB)
			rabGroup.GET("", procurementHandler.ListRAB)
			rabGroup.GET("/:id", procurementHandler.GetRAB)
			rabGroup.PATCH("/:id/status", procurementHandler.TransitionRAB)
			rabGroup.GET("/:id/export", procurementHandler.ExportRAB)
		}
	}

	if services.Catalog != nil {
		catalogHandler := handlers.NewCatalogHandler(services.Catalog)
		partGroup := apiGroup.Group("/parts")
		{
			partGroup.GET("", catalogHandler.SearchParts)
			partGroup.GET("/:part_number", catalogHandler.GetPart)
			partGroup.POST("/import", catalogHandler.ImportCatalog)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
