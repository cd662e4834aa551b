package handlers

import (
	"io"
	"net/http"

	"github.com/andresuchdata/material-tracker/internal/catalog"
	"github.com/gin-gonic/gin"
)

const maxCatalogUpload = 20 << 20

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(catalog *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) SearchParts(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 0)

	parts, err := h.catalog.SearchParts(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		respondError(c, err, "failed to search parts")
		return
	}

	c.JSON(http.StatusOK, parts)
}

func (h *CatalogHandler) GetPart(c *gin.Context) {
	part, err := h.catalog.LookupPart(c.Request.Context(), c.Param("part_number"))
	if err != nil {
		respondError(c, err, "failed to fetch part")
		return
	}

	c.JSON(http.StatusOK, part)
}

// ImportCatalog replaces catalogue rows from an uploaded XLSX or CSV file.
func (h *CatalogHandler) ImportCatalog(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "no file provided")
		return
	}
	if header.Size > maxCatalogUpload {
		badRequest(c, "file too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "unable to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, "unable to read uploaded file")
		return
	}

	n, err := h.catalog.ImportCatalog(c.Request.Context(), catalog.UploadSource{Name: header.Filename, Data: data})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to import catalogue", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": n})
}
