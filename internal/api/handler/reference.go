package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
)

// ReferenceHandler handles reference watch CRUD endpoints.
type ReferenceHandler struct {
	refRepo *repository.ReferenceRepository
}

// NewReferenceHandler creates a new reference handler.
// Parameters:
//   - refRepo: repository for reference watch records.
// Returns:
//   - *ReferenceHandler: initialized handler.
func NewReferenceHandler(refRepo *repository.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{refRepo: refRepo}
}

// CreateReferenceRequest is the POST /references body. Brand, model name,
// and reference number are mandatory; everything else is optional.
type CreateReferenceRequest struct {
	Brand               string                    `json:"brand" binding:"required"`
	ModelName           string                    `json:"model_name" binding:"required"`
	ReferenceNumber     string                    `json:"reference_number" binding:"required"`
	CollectionFamily    string                    `json:"collection_family"`
	CaseMaterial        string                    `json:"case_material"`
	DialColor           string                    `json:"dial_color"`
	BraceletType        string                    `json:"bracelet_type"`
	ConditionBaseline   string                    `json:"condition_baseline"`
	AuthenticityMarkers []string                  `json:"authenticity_markers"`
	VerificationStatus  domain.VerificationStatus `json:"verification_status"`
	VerifiedBy          string                    `json:"verified_by"`
	VerifiedAt          *time.Time                `json:"verified_at"`
	Source              string                    `json:"source"`
	Notes               string                    `json:"notes"`
	PhotoURLs           []string                  `json:"photo_urls"`
}

// ListReferences handles GET /api/v1/references.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ReferenceHandler) ListReferences(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := repository.ReferenceFilter{
		Brand: c.Query("brand"),
		Model: c.Query("model"),
		Page:  page,
		Limit: limit,
	}
	if status := c.Query("status"); status != "" {
		s := domain.VerificationStatus(status)
		if !s.Valid() {
			respondValidation(c, "unknown verification status: "+status)
			return
		}
		filter.Status = s
	}

	watches, total, err := h.refRepo.List(c.Request.Context(), filter)
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
		"data":    watches,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GetReference handles GET /api/v1/references/:id.
func (h *ReferenceHandler) GetReference(c *gin.Context) {
	watch, err := h.refRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, watch)
}

// CreateReference handles POST /api/v1/references.
// Returns 201 with the created record, or 400 when a required field is
// missing. Nothing is written on a validation failure.
func (h *ReferenceHandler) CreateReference(c *gin.Context) {
	var req CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request: "+err.Error())
		return
	}
	if req.VerificationStatus != "" && !req.VerificationStatus.Valid() {
		respondValidation(c, "unknown verification status: "+string(req.VerificationStatus))
		return
	}

	watch := &domain.ReferenceWatch{
		Brand:               req.Brand,
		ModelName:           req.ModelName,
		ReferenceNumber:     req.ReferenceNumber,
		CollectionFamily:    req.CollectionFamily,
		CaseMaterial:        req.CaseMaterial,
		DialColor:           req.DialColor,
		BraceletType:        req.BraceletType,
		ConditionBaseline:   req.ConditionBaseline,
		AuthenticityMarkers: req.AuthenticityMarkers,
		VerificationStatus:  req.VerificationStatus,
		VerifiedBy:          req.VerifiedBy,
		VerifiedAt:          req.VerifiedAt,
		Source:              req.Source,
		Notes:               req.Notes,
		PhotoURLs:           req.PhotoURLs,
	}
	if err := h.refRepo.Create(c.Request.Context(), watch); err != nil {
		respondError(c, err)
		return
	}

	logger.CtxInfo(c.Request.Context(), "Reference watch created: id=%s, brand=%s, reference_number=%s",
		watch.ID, watch.Brand, watch.ReferenceNumber)
	c.JSON(http.StatusCreated, watch)
}

// UpdateReference handles PATCH /api/v1/references/:id.
// Only fields present in the body are applied; an empty body is a no-op that
// returns the stored record.
func (h *ReferenceHandler) UpdateReference(c *gin.Context) {
	var update domain.ReferenceWatchUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondValidation(c, "invalid request: "+err.Error())
		return
	}
	if update.VerificationStatus != nil && !update.VerificationStatus.Valid() {
		respondValidation(c, "unknown verification status: "+string(*update.VerificationStatus))
		return
	}

	watch, err := h.refRepo.Update(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, watch)
}

// DeleteReference handles DELETE /api/v1/references/:id.
// Deletion is unconditional and permanent.
func (h *ReferenceHandler) DeleteReference(c *gin.Context) {
	id := c.Param("id")
	if err := h.refRepo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	logger.CtxInfo(c.Request.Context(), "Reference watch deleted: id=%s", id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "reference watch deleted",
	})
}
