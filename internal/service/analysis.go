package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
)

// Extractor produces a structured extraction from a set of photo URLs.
// Implemented by VisionService.
type Extractor interface {
	ExtractFromPhotos(ctx context.Context, photoURLs []string) (*domain.WatchPhotoExtraction, error)
}

// Matcher scores an extraction against the reference library.
// Implemented by MatchService.
type Matcher interface {
	FindMatches(ctx context.Context, extraction *domain.WatchPhotoExtraction, sessionID string) ([]domain.MatchResult, error)
}

// AnalysisService runs the full analysis workflow: vision extraction,
// reference matching, and the append-only history record.
type AnalysisService struct {
	vision      Extractor
	matcher     Matcher
	historyRepo *repository.AnalysisHistoryRepository
	logger      *logger.Logger
}

// NewAnalysisService creates a new analysis service.
// Parameters:
//   - vision: extractor for photo analysis.
//   - matcher: reference matcher.
//   - historyRepo: repository for the analysis history log.
//   - log: logger instance.
// Returns:
//   - *AnalysisService: initialized analysis service.
func NewAnalysisService(vision Extractor, matcher Matcher, historyRepo *repository.AnalysisHistoryRepository, log *logger.Logger) *AnalysisService {
	return &AnalysisService{
		vision:      vision,
		matcher:     matcher,
		historyRepo: historyRepo,
		logger:      log,
	}
}

// AnalysisRequest describes one analysis session.
type AnalysisRequest struct {
	PhotoURLs []string `json:"photo_urls" binding:"required,min=1"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id"`
}

// AnalysisResponse is the completed session returned to the caller.
type AnalysisResponse struct {
	HistoryID      string                       `json:"history_id,omitempty"`
	SessionID      string                       `json:"session_id"`
	Extraction     *domain.WatchPhotoExtraction `json:"extraction"`
	Matches        []domain.MatchResult         `json:"matches"`
	BestMatchScore float64                      `json:"best_match_score"`
	DurationMs     int64                        `json:"duration_ms"`
}

// Analyze runs extraction and matching for the given photos, then appends a
// history row. A history write failure is logged but does not fail the
// analysis itself.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: photos and session identifiers.
// Returns:
//   - *AnalysisResponse: extraction, ranked matches, and timing.
//   - error: non-nil if extraction or matching fails.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResponse, error) {
	start := time.Now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSessionID: sessionID,
		logger.FieldComponent: "analysis",
	})

	extraction, err := s.vision.ExtractFromPhotos(ctx, req.PhotoURLs)
	if err != nil {
		logger.CtxError(ctx, "Vision extraction failed: photos=%d, error=%v", len(req.PhotoURLs), err)
		return nil, err
	}

	matches, err := s.matcher.FindMatches(ctx, extraction, sessionID)
	if err != nil {
		logger.CtxError(ctx, "Reference matching failed: error=%v", err)
		return nil, err
	}

	duration := time.Since(start)
	bestScore := 0.0
	if len(matches) > 0 {
		bestScore = matches[0].Score
	}

	record := &domain.AnalysisHistory{
		SessionID:       sessionID,
		UserID:          req.UserID,
		PhotoURLs:       req.PhotoURLs,
		RawExtraction:   toJSONMap(extraction),
		Brand:           extraction.Brand,
		ModelName:       extraction.Model,
		ReferenceNumber: extraction.ReferenceNumber,
		ConfidenceLevel: extraction.ConfidenceLevel,
		OverallGrade:    extraction.OverallGrade,
		MatchResults:    domain.MatchResultList(matches),
		BestMatchScore:  bestScore,
		PhotoCount:      len(req.PhotoURLs),
		DurationMs:      duration.Milliseconds(),
	}
	if err := s.historyRepo.Append(ctx, record); err != nil {
		// History is an optional collaborator of the matching contract.
		logger.CtxWarn(ctx, "Failed to record analysis history: error=%v", err)
		record.ID = ""
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: duration.Milliseconds(),
		logger.FieldCount:      len(matches),
	}).Info(ctx, "Analysis completed: brand=%q, reference_number=%q, best_score=%.1f",
		extraction.Brand, extraction.ReferenceNumber, bestScore)

	return &AnalysisResponse{
		HistoryID:      record.ID,
		SessionID:      sessionID,
		Extraction:     extraction,
		Matches:        matches,
		BestMatchScore: bestScore,
		DurationMs:     duration.Milliseconds(),
	}, nil
}

// toJSONMap round-trips a struct through JSON into a generic map for storage.
func toJSONMap(v interface{}) domain.JSONMap {
	b, err := json.Marshal(v)
	if err != nil {
		return domain.JSONMap{}
	}
	var m domain.JSONMap
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.JSONMap{}
	}
	return m
}
