package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// AnalysisHistoryRepository handles the append-only analysis history log.
type AnalysisHistoryRepository struct {
	db *gorm.DB
}

// NewAnalysisHistoryRepository creates a new AnalysisHistoryRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *AnalysisHistoryRepository: repository instance bound to db.
func NewAnalysisHistoryRepository(db *gorm.DB) *AnalysisHistoryRepository {
	return &AnalysisHistoryRepository{db: db}
}

// Append inserts a new history row. Rows are never updated afterwards.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: history row to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *AnalysisHistoryRepository) Append(ctx context.Context, record *domain.AnalysisHistory) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return eris.Wrap(err, "failed to append analysis history")
	}
	return nil
}

// List retrieves history rows, most recently created first, plus the total count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - page: 1-based page number.
//   - limit: page size.
// Returns:
//   - []domain.AnalysisHistory: one page of rows.
//   - int64: total row count.
//   - error: non-nil if the query fails.
func (r *AnalysisHistoryRepository) List(ctx context.Context, page, limit int) ([]domain.AnalysisHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.AnalysisHistory{}).Count(&total).Error; err != nil {
		return nil, 0, eris.Wrap(err, "failed to count analysis history")
	}

	var records []domain.AnalysisHistory
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&records).Error; err != nil {
		return nil, 0, eris.Wrap(err, "failed to list analysis history")
	}
	return records, total, nil
}

// GetByID retrieves a history row by its ID.
// Returns ErrNotFound when the row is absent.
func (r *AnalysisHistoryRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisHistory, error) {
	var record domain.AnalysisHistory
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "failed to get analysis history")
	}
	return &record, nil
}

// ListBySession retrieves all history rows recorded under a session
// identifier, most recently created first.
func (r *AnalysisHistoryRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AnalysisHistory, error) {
	var records []domain.AnalysisHistory
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, eris.Wrap(err, "failed to list analysis history by session")
	}
	return records, nil
}

// Count returns the total number of history rows.
func (r *AnalysisHistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.AnalysisHistory{}).Count(&count).Error; err != nil {
		return 0, eris.Wrap(err, "failed to count analysis history")
	}
	return count, nil
}
