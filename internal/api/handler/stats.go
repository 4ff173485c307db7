package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/repository"
)

// StatsHandler serves catalog statistics.
type StatsHandler struct {
	refRepo     *repository.ReferenceRepository
	historyRepo *repository.AnalysisHistoryRepository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(refRepo *repository.ReferenceRepository, historyRepo *repository.AnalysisHistoryRepository) *StatsHandler {
	return &StatsHandler{
		refRepo:     refRepo,
		historyRepo: historyRepo,
	}
}

// GetStats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	verified, err := h.refRepo.CountByStatus(ctx, domain.VerificationVerified)
	if err != nil {
		respondError(c, err)
		return
	}
	pending, err := h.refRepo.CountByStatus(ctx, domain.VerificationPending)
	if err != nil {
		respondError(c, err)
		return
	}
	needsReview, err := h.refRepo.CountByStatus(ctx, domain.VerificationNeedsReview)
	if err != nil {
		respondError(c, err)
		return
	}
	analyses, err := h.historyRepo.Count(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"references_verified":     verified,
		"references_pending":      pending,
		"references_needs_review": needsReview,
		"total_analyses":          analyses,
	})
}
