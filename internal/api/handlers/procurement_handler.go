package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/andresuchdata/material-tracker/internal/domain"
	"github.com/andresuchdata/material-tracker/internal/export"
	"github.com/andresuchdata/material-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

type ProcurementHandler struct {
	service *service.ProcurementService
}

func NewProcurementHandler(service *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{service: service}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ProcurementHandler) CreateGangguan(c *gin.Context) {
	var input domain.GangguanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	g, err := h.service.CreateGangguan(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "failed to record gangguan")
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (h *ProcurementHandler) ListGangguan(c *gin.Context) {
	items, err := h.service.ListGangguan(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch gangguan")
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *ProcurementHandler) parseFilter(c *gin.Context) (domain.ProcurementFilter, bool) {
	filter := domain.ProcurementFilter{
		PartNumber: strings.TrimSpace(c.Query("part_number")),
		Unit:       strings.TrimSpace(c.Query("unit")),
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := domain.ParseProcurementStatus(raw)
		if !ok {
			badRequest(c, "invalid status value")
			return filter, false
		}
		filter.Status = status
	}
	return filter, true
}

// GetSummary returns per-status counts of procurement lines.
func (h *ProcurementHandler) GetSummary(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.GetProcurementSummary(c.Request.Context(), filter))
}

func (h *ProcurementHandler) ListItems(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.service.ListProcurementItems(c.Request.Context(), filter))
}

func (h *ProcurementHandler) UpdateMaterialStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	material, err := h.service.UpdateMaterialStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, "failed to update material status")
		return
	}

	c.JSON(http.StatusOK, material)
}

func (h *ProcurementHandler) CreateRAB(c *gin.Context) {
	var input domain.RABInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rab, err := h.service.CreateRAB(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "failed to create RAB")
		return
	}

	c.JSON(http.StatusCreated, rab)
}

func (h *ProcurementHandler) ListRAB(c *gin.Context) {
	rabs, err := h.service.ListRAB(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch RAB list")
		return
	}

	c.JSON(http.StatusOK, rabs)
}

func (h *ProcurementHandler) GetRAB(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rab, err := h.service.GetRAB(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch RAB")
		return
	}

	c.JSON(http.StatusOK, rab)
}

// TransitionRAB moves a RAB forward and reports how many linked materials changed.
func (h *ProcurementHandler) TransitionRAB(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rab, touched, err := h.service.TransitionRAB(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, "failed to change RAB status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rab":               rab,
		"materials_updated": touched,
	})
}

func (h *ProcurementHandler) ExportRAB(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename, err := h.service.ExportRAB(c.Request.Context(), id, &buf)
	if err != nil {
		respondError(c, err, "failed to export RAB")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
