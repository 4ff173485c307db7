package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
)

// MatchWeights holds the per-field scoring weights. The defaults sum to 100,
// so a candidate matching every field scores exactly 100 and no further
// normalization is needed.
type MatchWeights struct {
	Brand           float64
	ReferenceNumber float64
	ModelName       float64
	CaseMaterial    float64
	DialColor       float64
	BraceletType    float64
}

// DefaultMatchWeights returns the standard scoring weights.
// Parameters: none.
// Returns:
//   - MatchWeights: brand 15, reference number 45, model 20, case 7, dial 7, bracelet 6.
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		Brand:           15,
		ReferenceNumber: 45,
		ModelName:       20,
		CaseMaterial:    7,
		DialColor:       7,
		BraceletType:    6,
	}
}

// MatchConfig holds configuration for the match service.
type MatchConfig struct {
	Weights        MatchWeights
	MinScore       float64 // candidates scoring below this are dropped
	CandidateLimit int     // cap on references fetched per request
}

// MatchService scores photo extractions against the reference watch library.
type MatchService struct {
	refRepo        *repository.ReferenceRepository
	logger         *logger.Logger
	weights        MatchWeights
	minScore       float64
	candidateLimit int
}

// NewMatchService creates a new match service.
// Parameters:
//   - refRepo: repository for reference watch candidates.
//   - log: logger instance.
//   - cfg: match configuration; nil or zero fields fall back to defaults.
// Returns:
//   - *MatchService: initialized match service.
func NewMatchService(refRepo *repository.ReferenceRepository, log *logger.Logger, cfg *MatchConfig) *MatchService {
	weights := DefaultMatchWeights()
	minScore := 10.0
	candidateLimit := 200
	if cfg != nil {
		if cfg.Weights != (MatchWeights{}) {
			weights = cfg.Weights
		}
		if cfg.MinScore > 0 {
			minScore = cfg.MinScore
		}
		if cfg.CandidateLimit > 0 {
			candidateLimit = cfg.CandidateLimit
		}
	}
	return &MatchService{
		refRepo:        refRepo,
		logger:         log,
		weights:        weights,
		minScore:       minScore,
		candidateLimit: candidateLimit,
	}
}

// FindMatches scores the extraction against the reference library and returns
// candidates sorted by descending score. An empty slice (not an error) is
// returned when no candidate exists or none clears the minimum threshold.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - extraction: structured attributes produced by the vision provider.
//   - sessionID: analysis session identifier; blank gets a generated value.
// Returns:
//   - []domain.MatchResult: ranked matches, best first.
//   - error: non-nil if candidate retrieval fails.
func (s *MatchService) FindMatches(ctx context.Context, extraction *domain.WatchPhotoExtraction, sessionID string) ([]domain.MatchResult, error) {
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSessionID: sessionID,
		logger.FieldComponent: "match",
	})

	var candidates []domain.ReferenceWatch
	var err error
	if strings.TrimSpace(extraction.Brand) != "" {
		candidates, err = s.refRepo.ListByBrand(ctx, strings.TrimSpace(extraction.Brand), s.candidateLimit)
	} else {
		candidates, err = s.refRepo.ListRecent(ctx, s.candidateLimit)
	}
	if err != nil {
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(candidates))
	for i := range candidates {
		score, fields := scoreCandidate(extraction, &candidates[i], s.weights)
		if score < s.minScore {
			continue
		}
		results = append(results, domain.MatchResult{
			ReferenceID:   candidates[i].ID,
			Score:         score,
			MatchedFields: fields,
			Reference:     candidates[i],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return matchLess(&results[i], &results[j])
	})

	logger.With(logger.Fields{logger.FieldCount: len(results)}).
		Info(ctx, "Reference matching completed: brand=%q, reference_number=%q, candidates=%d",
			extraction.Brand, extraction.ReferenceNumber, len(candidates))

	return results, nil
}

// matchLess orders results by score descending, then most recently verified,
// then most recently updated.
func matchLess(a, b *domain.MatchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	av, bv := a.Reference.VerifiedAt, b.Reference.VerifiedAt
	switch {
	case av != nil && bv == nil:
		return true
	case av == nil && bv != nil:
		return false
	case av != nil && bv != nil && !av.Equal(*bv):
		return av.After(*bv)
	}
	return a.Reference.UpdatedAt.After(b.Reference.UpdatedAt)
}

// scoreCandidate compares the extraction to one reference watch.
// Brand is a gate: when the extraction names a brand, a candidate with a
// different brand scores zero and drops out. Reference number is the
// dominant signal; model name matches fuzzily; physical attributes add
// smaller increments.
func scoreCandidate(e *domain.WatchPhotoExtraction, ref *domain.ReferenceWatch, w MatchWeights) (float64, []string) {
	brand := strings.TrimSpace(e.Brand)
	if brand != "" && !strings.EqualFold(brand, ref.Brand) {
		return 0, nil
	}

	var score float64
	var fields []string

	if brand != "" {
		score += w.Brand
		fields = append(fields, "brand")
	}
	if rn := strings.TrimSpace(e.ReferenceNumber); rn != "" && strings.EqualFold(rn, ref.ReferenceNumber) {
		score += w.ReferenceNumber
		fields = append(fields, "reference_number")
	}
	if model := strings.TrimSpace(e.Model); model != "" {
		if overlap := modelOverlap(model, ref.ModelName); overlap > 0 {
			score += w.ModelName * overlap
			fields = append(fields, "model_name")
		}
	}
	if attrEqual(e.CaseMaterial, ref.CaseMaterial) {
		score += w.CaseMaterial
		fields = append(fields, "case_material")
	}
	if attrEqual(e.DialColor, ref.DialColor) {
		score += w.DialColor
		fields = append(fields, "dial_color")
	}
	if attrEqual(e.BraceletType, ref.BraceletType) {
		score += w.BraceletType
		fields = append(fields, "bracelet_type")
	}

	return score, fields
}

// modelOverlap returns a 0..1 similarity between the extracted model name and
// the reference model name: 1 for substring containment either way,
// otherwise the fraction of extracted tokens present in the reference name.
func modelOverlap(extracted, reference string) float64 {
	a := strings.ToLower(strings.TrimSpace(extracted))
	b := strings.ToLower(strings.TrimSpace(reference))
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 1
	}

	tokens := strings.Fields(a)
	if len(tokens) == 0 {
		return 0
	}
	refTokens := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		refTokens[t] = true
	}
	matched := 0
	for _, t := range tokens {
		if refTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

func attrEqual(extracted, reference string) bool {
	extracted = strings.TrimSpace(extracted)
	reference = strings.TrimSpace(reference)
	return extracted != "" && reference != "" && strings.EqualFold(extracted, reference)
}

// generateSessionID builds a timestamp-derived fallback session identifier.
func generateSessionID() string {
	return fmt.Sprintf("session-%d", time.Now().UnixMilli())
}
