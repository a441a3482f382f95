package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acstore/replenishment/internal/service"
)

type ReplanHandler struct {
	service *service.ReplanService
}

func NewReplanHandler(service *service.ReplanService) *ReplanHandler {
	return &ReplanHandler{service: service}
}

// GetSuggestion evaluates one product, optionally against a pending
// quotation: /suggestions/:product_id?coverage_days=30&quotation_id=Q123
func (h *ReplanHandler) GetSuggestion(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	coverageDays, ok := h.parseCoverageDays(c)
	if !ok {
		return
	}
	quotationID := strings.TrimSpace(c.Query("quotation_id"))

	rec, err := h.service.SuggestProduct(c.Request.Context(), productID, coverageDays, quotationID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// GetQuotationSuggestions evaluates every line of a pending quotation.
func (h *ReplanHandler) GetQuotationSuggestions(c *gin.Context) {
	quotationID := strings.TrimSpace(c.Param("quotation_id"))
	if quotationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quotation_id is required"})
		return
	}

	coverageDays, ok := h.parseCoverageDays(c)
	if !ok {
		return
	}

	records, err := h.service.SuggestQuotation(c.Request.Context(), quotationID, coverageDays)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"count": len(records),
	})
}

// GetMetrics returns the metric table of the most recent run, optionally
// narrowed by brand: /metrics?brand=acme
func (h *ReplanHandler) GetMetrics(c *gin.Context) {
	brand := strings.TrimSpace(c.Query("brand"))
	records, runDate, err := h.service.LatestMetrics(c.Request.Context(), brand)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runDate.IsZero() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no planning run available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     records,
		"count":    len(records),
		"run_date": runDate,
	})
}

// GetChanges returns the change report of the most recent run.
func (h *ReplanHandler) GetChanges(c *gin.Context) {
	changes, runDate, err := h.service.LatestChanges(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runDate.IsZero() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no planning run available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     changes,
		"count":    len(changes),
		"run_date": runDate,
	})
}

// GetFlags returns the reconciliation flags of the most recent run.
func (h *ReplanHandler) GetFlags(c *gin.Context) {
	flags, runDate, err := h.service.LatestFlags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runDate.IsZero() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no planning run available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     flags,
		"count":    len(flags),
		"run_date": runDate,
	})
}

// parseCoverageDays reads the optional coverage_days query parameter.
// Non-numeric or non-positive values are rejected up front, mirroring the
// engine's own validation.
func (h *ReplanHandler) parseCoverageDays(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("coverage_days"))
	if raw == "" {
		return 0, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coverage_days must be a positive integer"})
		return 0, false
	}
	return days, true
}
