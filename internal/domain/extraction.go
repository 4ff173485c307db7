package domain

import "strings"

// WatchPhotoExtraction is the structured attribute set produced by the AI
// vision provider from a set of captured photos.
type WatchPhotoExtraction struct {
	Brand           string `json:"brand"`
	Model           string `json:"model"`
	ReferenceNumber string `json:"reference_number"`
	CaseMaterial    string `json:"case_material,omitempty"`
	DialColor       string `json:"dial_color,omitempty"`
	BraceletType    string `json:"bracelet_type,omitempty"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
	OverallGrade    string `json:"overall_grade,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Empty reports whether the extraction carries no usable attribute at all.
func (e *WatchPhotoExtraction) Empty() bool {
	return strings.TrimSpace(e.Brand) == "" &&
		strings.TrimSpace(e.Model) == "" &&
		strings.TrimSpace(e.ReferenceNumber) == "" &&
		strings.TrimSpace(e.CaseMaterial) == "" &&
		strings.TrimSpace(e.DialColor) == "" &&
		strings.TrimSpace(e.BraceletType) == ""
}

// MatchResult is a scored association between an extraction and a reference
// watch, computed at request time and never persisted as its own entity.
type MatchResult struct {
	ReferenceID   string         `json:"reference_id"`
	Score         float64        `json:"score"`
	MatchedFields []string       `json:"matched_fields"`
	Reference     ReferenceWatch `json:"reference"`
}
