package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/service"
)

// MatchHandler handles the reference matching endpoint.
type MatchHandler struct {
	matcher *service.MatchService
}

// NewMatchHandler creates a new match handler.
// Parameters:
//   - matcher: match service instance.
// Returns:
//   - *MatchHandler: initialized handler.
func NewMatchHandler(matcher *service.MatchService) *MatchHandler {
	return &MatchHandler{matcher: matcher}
}

// MatchRequest is the POST /references/match body.
type MatchRequest struct {
	Analysis  *domain.WatchPhotoExtraction `json:"analysis" binding:"required"`
	SessionID string                       `json:"session_id"`
}

// FindMatches handles POST /api/v1/references/match.
// An extraction matching no reference yields an empty list, not an error.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *MatchHandler) FindMatches(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request: "+err.Error())
		return
	}
	if req.Analysis.Empty() {
		respondValidation(c, "analysis must include at least one watch attribute")
		return
	}

	matches, err := h.matcher.FindMatches(c.Request.Context(), req.Analysis, req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
	})
}
