package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// VerificationStatus represents the curation state of a reference watch record.
// Values include VerificationPending, VerificationVerified, and VerificationNeedsReview.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationVerified    VerificationStatus = "verified"
	VerificationNeedsReview VerificationStatus = "needs_review"
)

// Valid reports whether s is one of the known verification statuses.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationNeedsReview:
		return true
	}
	return false
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// ReferenceWatch is a canonical catalog record used as ground truth when
// matching AI photo extractions.
// Fields cover identity, physical observation attributes, condition baseline,
// authenticity indicators, and curation audit metadata.
type ReferenceWatch struct {
	ID                  string             `gorm:"type:text;primaryKey" json:"id"`
	Brand               string             `gorm:"type:text;not null;index:idx_reference_watches_brand" json:"brand"`
	ModelName           string             `gorm:"type:text;not null" json:"model_name"`
	CollectionFamily    string             `gorm:"type:text" json:"collection_family,omitempty"`
	ReferenceNumber     string             `gorm:"type:text;not null;index:idx_reference_watches_refnum" json:"reference_number"`
	CaseMaterial        string             `gorm:"type:text" json:"case_material,omitempty"`
	DialColor           string             `gorm:"type:text" json:"dial_color,omitempty"`
	BraceletType        string             `gorm:"type:text" json:"bracelet_type,omitempty"`
	ConditionBaseline   string             `gorm:"type:text" json:"condition_baseline,omitempty"`
	AuthenticityMarkers StringArray        `gorm:"type:text" json:"authenticity_markers"`
	VerificationStatus  VerificationStatus `gorm:"type:text;index:idx_reference_watches_status;default:pending" json:"verification_status"`
	VerifiedBy          string             `gorm:"type:text" json:"verified_by,omitempty"`
	VerifiedAt          *time.Time         `json:"verified_at,omitempty"`
	Source              string             `gorm:"type:text" json:"source,omitempty"`
	Notes               string             `gorm:"type:text" json:"notes,omitempty"`
	PhotoURLs           StringArray        `gorm:"type:text" json:"photo_urls"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// TableName returns the database table name for ReferenceWatch.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ReferenceWatch) TableName() string {
	return "reference_watches"
}

// ReferenceWatchUpdate describes a partial update to a reference watch.
// A nil field is untouched; a non-nil field overwrites the stored value even
// when it points at the zero value, so "omitted" and "explicitly cleared"
// stay distinguishable.
type ReferenceWatchUpdate struct {
	Brand               *string             `json:"brand"`
	ModelName           *string             `json:"model_name"`
	CollectionFamily    *string             `json:"collection_family"`
	ReferenceNumber     *string             `json:"reference_number"`
	CaseMaterial        *string             `json:"case_material"`
	DialColor           *string             `json:"dial_color"`
	BraceletType        *string             `json:"bracelet_type"`
	ConditionBaseline   *string             `json:"condition_baseline"`
	AuthenticityMarkers *StringArray        `json:"authenticity_markers"`
	VerificationStatus  *VerificationStatus `json:"verification_status"`
	VerifiedBy          *string             `json:"verified_by"`
	VerifiedAt          *time.Time          `json:"verified_at"`
	Source              *string             `json:"source"`
	Notes               *string             `json:"notes"`
	PhotoURLs           *StringArray        `json:"photo_urls"`
}

// Changes returns the set fields as a column/value map suitable for a
// database update. An empty map means the update is a no-op.
func (u *ReferenceWatchUpdate) Changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if u.Brand != nil {
		changes["brand"] = *u.Brand
	}
	if u.ModelName != nil {
		changes["model_name"] = *u.ModelName
	}
	if u.CollectionFamily != nil {
		changes["collection_family"] = *u.CollectionFamily
	}
	if u.ReferenceNumber != nil {
		changes["reference_number"] = *u.ReferenceNumber
	}
	if u.CaseMaterial != nil {
		changes["case_material"] = *u.CaseMaterial
	}
	if u.DialColor != nil {
		changes["dial_color"] = *u.DialColor
	}
	if u.BraceletType != nil {
		changes["bracelet_type"] = *u.BraceletType
	}
	if u.ConditionBaseline != nil {
		changes["condition_baseline"] = *u.ConditionBaseline
	}
	if u.AuthenticityMarkers != nil {
		changes["authenticity_markers"] = *u.AuthenticityMarkers
	}
	if u.VerificationStatus != nil {
		changes["verification_status"] = *u.VerificationStatus
	}
	if u.VerifiedBy != nil {
		changes["verified_by"] = *u.VerifiedBy
	}
	if u.VerifiedAt != nil {
		changes["verified_at"] = *u.VerifiedAt
	}
	if u.Source != nil {
		changes["source"] = *u.Source
	}
	if u.Notes != nil {
		changes["notes"] = *u.Notes
	}
	if u.PhotoURLs != nil {
		changes["photo_urls"] = *u.PhotoURLs
	}
	return changes
}
