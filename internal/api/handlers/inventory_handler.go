package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// SubmitTransaction records a new BA.
func (h *InventoryHandler) SubmitTransaction(c *gin.Context) {
	var input domain.TransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	tx, err := h.service.SubmitTransaction(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "failed to record transaction")
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	filter := domain.TransactionFilter{
		JenisTransaksi: strings.TrimSpace(c.Query("jenis")),
		Lokasi:         strings.TrimSpace(c.Query("lokasi")),
		Page:           parsePositiveIntWithDefault(c.Query("page"), 1),
		PageSize:       parsePositiveIntWithDefault(c.Query("page_size"), 50),
	}

	items, total, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *InventoryHandler) GetTransaction(c *gin.Context) {
	tx, err := h.service.GetTransaction(c.Request.Context(), c.Param("nomor_ba"))
	if err != nil {
		respondError(c, err, "failed to fetch transaction")
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *InventoryHandler) GetSignature(c *gin.Context) {
	data, contentType, err := h.service.GetSignature(c.Request.Context(), c.Param("nomor_ba"), c.Param("role"))
	if err != nil {
		respondError(c, err, "failed to fetch signature")
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ComputeStock(c.Request.Context()))
}

func (h *InventoryHandler) GetCriticalStock(c *gin.Context) {
	threshold, ok := parseOptionalInt(c.Query("threshold"))
	if !ok {
		badRequest(c, "invalid threshold value")
		return
	}

	c.JSON(http.StatusOK, h.service.ComputeCriticalStock(c.Request.Context(), threshold))
}

func (h *InventoryHandler) GetTopOutbound(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 0)
	c.JSON(http.StatusOK, h.service.ComputeTopOutboundMaterials(c.Request.Context(), limit))
}

func (h *InventoryHandler) GetAgeReport(c *gin.Context) {
	filter := domain.AgeFilter{
		Location:     strings.TrimSpace(c.Query("location")),
		MaterialName: strings.TrimSpace(c.Query("material")),
	}

	c.JSON(http.StatusOK, h.service.ComputeAgeReport(c.Request.Context(), filter))
}

func (h *InventoryHandler) GetMaterialHistory(c *gin.Context) {
	serial := strings.TrimSpace(c.Query("serial"))
	part := strings.TrimSpace(c.Query("part_number"))
	if serial == "" || part == "" {
		badRequest(c, "serial and part_number parameters are required")
		return
	}

	c.JSON(http.StatusOK, h.service.GetMaterialHistory(c.Request.Context(), serial, part))
}

func (h *InventoryHandler) ListTargets(c *gin.Context) {
	targets, err := h.service.ListTargetAges(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch target ages")
		return
	}

	c.JSON(http.StatusOK, targets)
}

func (h *InventoryHandler) GetTarget(c *gin.Context) {
	target, err := h.service.GetTargetAge(c.Request.Context(), c.Param("part_number"))
	if err != nil {
		respondError(c, err, "failed to fetch target age")
		return
	}

	c.JSON(http.StatusOK, target)
}

type setTargetRequest struct {
	TargetDays int `json:"target_days"`
}

func (h *InventoryHandler) SetTarget(c *gin.Context) {
	var req setTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	target, err := h.service.SetTargetAge(c.Request.Context(), c.Param("part_number"), req.TargetDays)
	if err != nil {
		respondError(c, err, "failed to set target age")
		return
	}

	c.JSON(http.StatusOK, target)
}

// GenerateBANumber allocates a BA number; the optional date picks the year.
func (h *InventoryHandler) GenerateBANumber(c *gin.Context) {
	date, ok := parseOptionalDate(c.Query("date"))
	if !ok {
		badRequest(c, "invalid date value, expected YYYY-MM-DD")
		return
	}

	nomor, err := h.service.GenerateBANumber(c.Request.Context(), date)
	if err != nil {
		respondError(c, err, "failed to generate BA number")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"nomor_ba": nomor})
}

func (h *InventoryHandler) GenerateLH05Number(c *gin.Context) {
	nomor, err := h.service.GenerateLH05Number(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to generate LH05 number")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"nomor_lh05": nomor})
}
