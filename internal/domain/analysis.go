package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a custom type for storing arbitrary JSON objects in the database.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// MatchResultList stores a slice of match results as a JSON column.
type MatchResultList []MatchResult

// Value implements the driver.Valuer interface for database serialization.
func (l MatchResultList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *MatchResultList) Scan(value interface{}) error {
	if value == nil {
		*l = MatchResultList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan MatchResultList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// AnalysisHistory is one row per completed analysis session. Rows are
// append-only: created once when the session finishes and never mutated.
type AnalysisHistory struct {
	ID              string          `gorm:"type:text;primaryKey" json:"id"`
	SessionID       string          `gorm:"type:text;not null;index:idx_analysis_history_session" json:"session_id"`
	UserID          string          `gorm:"type:text;index:idx_analysis_history_user" json:"user_id,omitempty"`
	PhotoURLs       StringArray     `gorm:"type:text" json:"photo_urls"`
	RawExtraction   JSONMap         `gorm:"type:text" json:"raw_extraction"`
	Brand           string          `gorm:"type:text" json:"brand,omitempty"`
	ModelName       string          `gorm:"type:text" json:"model_name,omitempty"`
	ReferenceNumber string          `gorm:"type:text" json:"reference_number,omitempty"`
	ConfidenceLevel string          `gorm:"type:text" json:"confidence_level,omitempty"`
	OverallGrade    string          `gorm:"type:text" json:"overall_grade,omitempty"`
	MatchResults    MatchResultList `gorm:"type:text" json:"match_results"`
	BestMatchScore  float64         `json:"best_match_score"`
	PhotoCount      int             `json:"photo_count"`
	DurationMs      int64           `json:"duration_ms"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName returns the database table name for AnalysisHistory.
func (AnalysisHistory) TableName() string {
	return "analysis_history"
}
