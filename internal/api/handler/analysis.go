package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/repository"
	"github.com/marlow/watchdex/internal/service"
)

// AnalysisHandler handles the full analysis workflow and the history log.
type AnalysisHandler struct {
	analysis    *service.AnalysisService
	historyRepo *repository.AnalysisHistoryRepository
}

// NewAnalysisHandler creates a new analysis handler.
// Parameters:
//   - analysis: analysis workflow service.
//   - historyRepo: repository for the history log.
// Returns:
//   - *AnalysisHandler: initialized handler.
func NewAnalysisHandler(analysis *service.AnalysisService, historyRepo *repository.AnalysisHistoryRepository) *AnalysisHandler {
	return &AnalysisHandler{
		analysis:    analysis,
		historyRepo: historyRepo,
	}
}

// Analyze handles POST /api/v1/analyses: vision extraction, reference
// matching, and the history record in one call.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req service.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAnalyses handles GET /api/v1/analyses, newest first.
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if sessionID := c.Query("session_id"); sessionID != "" {
		sessionRecords, err := h.historyRepo.ListBySession(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    sessionRecords,
			"total":   len(sessionRecords),
		})
		return
	}

	records, total, err := h.historyRepo.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GetAnalysis handles GET /api/v1/analyses/:id.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	record, err := h.historyRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
