package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// ErrNotFound signals that the targeted record does not exist. Callers can
// distinguish it from a backend failure with errors.Is.
var ErrNotFound = errors.New("record not found")

// ReferenceFilter holds list filters and pagination for reference watches.
// Brand and Model are case-insensitive substring filters; Status is an
// equality filter.
type ReferenceFilter struct {
	Brand  string
	Model  string
	Status domain.VerificationStatus
	Page   int
	Limit  int
}

func (f *ReferenceFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// ReferenceRepository handles reference watch data operations.
type ReferenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new ReferenceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ReferenceRepository: repository instance bound to db.
func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// List retrieves reference watches matching the filter, most recently updated
// first, plus the total count across all pages.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: list filters and pagination settings.
// Returns:
//   - []domain.ReferenceWatch: one page of matching records.
//   - int64: total number of matching records.
//   - error: non-nil if the query fails.
func (r *ReferenceRepository) List(ctx context.Context, filter ReferenceFilter) ([]domain.ReferenceWatch, int64, error) {
	filter.normalize()

	query := r.db.WithContext(ctx).Model(&domain.ReferenceWatch{})
	if filter.Brand != "" {
		query = query.Where("LOWER(brand) LIKE ?", "%"+strings.ToLower(filter.Brand)+"%")
	}
	if filter.Model != "" {
		query = query.Where("LOWER(model_name) LIKE ?", "%"+strings.ToLower(filter.Model)+"%")
	}
	if filter.Status != "" {
		query = query.Where("verification_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, eris.Wrap(err, "failed to count reference watches")
	}

	var watches []domain.ReferenceWatch
	if err := query.
		Order("updated_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&watches).Error; err != nil {
		return nil, 0, eris.Wrap(err, "failed to list reference watches")
	}
	return watches, total, nil
}

// ListByBrand retrieves references whose brand equals the given value,
// case-insensitively, bounding the matcher's candidate set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - brand: brand name to match exactly (case-insensitive).
//   - limit: maximum number of candidates to return.
// Returns:
//   - []domain.ReferenceWatch: matching candidates, most recently updated first.
//   - error: non-nil if the query fails.
func (r *ReferenceRepository) ListByBrand(ctx context.Context, brand string, limit int) ([]domain.ReferenceWatch, error) {
	var watches []domain.ReferenceWatch
	if err := r.db.WithContext(ctx).
		Where("LOWER(brand) = ?", strings.ToLower(brand)).
		Order("updated_at DESC").
		Limit(limit).
		Find(&watches).Error; err != nil {
		return nil, eris.Wrap(err, "failed to list reference watches by brand")
	}
	return watches, nil
}

// ListRecent retrieves the most recently updated references up to limit.
// Used by the matcher when the extraction names no brand.
func (r *ReferenceRepository) ListRecent(ctx context.Context, limit int) ([]domain.ReferenceWatch, error) {
	var watches []domain.ReferenceWatch
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&watches).Error; err != nil {
		return nil, eris.Wrap(err, "failed to list recent reference watches")
	}
	return watches, nil
}

// GetByID retrieves a reference watch by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record ID.
// Returns:
//   - *domain.ReferenceWatch: record if found.
//   - error: ErrNotFound when the record is absent, otherwise the wrapped failure.
func (r *ReferenceRepository) GetByID(ctx context.Context, id string) (*domain.ReferenceWatch, error) {
	var watch domain.ReferenceWatch
	if err := r.db.WithContext(ctx).First(&watch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to get reference watch")
	}
	return &watch, nil
}

// Create inserts a new reference watch record, assigning an ID and a default
// verification status when absent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - watch: record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ReferenceRepository) Create(ctx context.Context, watch *domain.ReferenceWatch) error {
	if watch.ID == "" {
		watch.ID = uuid.New().String()
	}
	if watch.VerificationStatus == "" {
		watch.VerificationStatus = domain.VerificationPending
	}
	if err := r.db.WithContext(ctx).Create(watch).Error; err != nil {
		return eris.Wrap(err, "failed to create reference watch")
	}
	return nil
}

// Update applies a partial update and returns the stored record afterwards.
// An update with no set fields leaves the record untouched.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record ID.
//   - update: set of fields to overwrite.
// Returns:
//   - *domain.ReferenceWatch: record after the update.
//   - error: ErrNotFound when the record is absent, otherwise the wrapped failure.
func (r *ReferenceRepository) Update(ctx context.Context, id string, update *domain.ReferenceWatchUpdate) (*domain.ReferenceWatch, error) {
	watch, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := update.Changes()
	if len(changes) == 0 {
		return watch, nil
	}

	if err := r.db.WithContext(ctx).Model(watch).Updates(changes).Error; err != nil {
		return nil, eris.Wrap(err, "failed to update reference watch")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a reference watch by ID. Deletion is permanent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record ID to delete.
// Returns:
//   - error: ErrNotFound when the record is absent, otherwise the wrapped failure.
func (r *ReferenceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.ReferenceWatch{}, "id = ?", id)
	if res.Error != nil {
		return eris.Wrap(res.Error, "failed to delete reference watch")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByReference checks whether a record with the given brand and
// reference number already exists (case-insensitive). Used by the import
// tool to skip duplicates.
func (r *ReferenceRepository) ExistsByReference(ctx context.Context, brand, referenceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ReferenceWatch{}).
		Where("LOWER(brand) = ? AND LOWER(reference_number) = ?",
			strings.ToLower(brand), strings.ToLower(referenceNumber)).
		Count(&count).Error; err != nil {
		return false, eris.Wrap(err, "failed to check reference watch existence")
	}
	return count > 0, nil
}

// CountByStatus counts reference watches by verification status.
func (r *ReferenceRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ReferenceWatch{}).
		Where("verification_status = ?", status).
		Count(&count).Error; err != nil {
		return 0, eris.Wrap(err, "failed to count reference watches")
	}
	return count, nil
}
