package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marlow/watchdex/internal/domain"
	applog "github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubExtractor struct {
	extraction *domain.WatchPhotoExtraction
	err        error
}

func (s *stubExtractor) ExtractFromPhotos(ctx context.Context, photoURLs []string) (*domain.WatchPhotoExtraction, error) {
	return s.extraction, s.err
}

type stubMatcher struct {
	matches []domain.MatchResult
	err     error
}

func (s *stubMatcher) FindMatches(ctx context.Context, extraction *domain.WatchPhotoExtraction, sessionID string) ([]domain.MatchResult, error) {
	return s.matches, s.err
}

func newTestHistoryRepo(t *testing.T) (*repository.AnalysisHistoryRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.AnalysisHistory{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return repository.NewAnalysisHistoryRepository(db), db
}

func TestAnalysisService_Analyze(t *testing.T) {
	historyRepo, _ := newTestHistoryRepo(t)

	extraction := &domain.WatchPhotoExtraction{
		Brand:           "Rolex",
		Model:           "Submariner Date",
		ReferenceNumber: "116610LN",
		ConfidenceLevel: "high",
	}
	matches := []domain.MatchResult{
		{ReferenceID: "ref-1", Score: 87, MatchedFields: []string{"brand", "reference_number"}},
		{ReferenceID: "ref-2", Score: 15, MatchedFields: []string{"brand"}},
	}

	svc := NewAnalysisService(
		&stubExtractor{extraction: extraction},
		&stubMatcher{matches: matches},
		historyRepo,
		applog.New(nil),
	)

	resp, err := svc.Analyze(context.Background(), &AnalysisRequest{
		PhotoURLs: []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
		SessionID: "session-42",
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.SessionID != "session-42" {
		t.Errorf("expected session-42, got %q", resp.SessionID)
	}
	if resp.BestMatchScore != 87 {
		t.Errorf("expected best score 87, got %.1f", resp.BestMatchScore)
	}
	if len(resp.Matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(resp.Matches))
	}
	if resp.HistoryID == "" {
		t.Fatal("expected a history record ID")
	}

	record, err := historyRepo.GetByID(context.Background(), resp.HistoryID)
	if err != nil {
		t.Fatalf("expected history row persisted: %v", err)
	}
	if record.SessionID != "session-42" || record.UserID != "user-1" {
		t.Errorf("history row has wrong identifiers: %+v", record)
	}
	if record.Brand != "Rolex" || record.ReferenceNumber != "116610LN" {
		t.Errorf("history row missing derived fields: %+v", record)
	}
	if record.PhotoCount != 2 {
		t.Errorf("expected photo count 2, got %d", record.PhotoCount)
	}
	if record.BestMatchScore != 87 {
		t.Errorf("expected best score 87, got %.1f", record.BestMatchScore)
	}
	if len(record.MatchResults) != 2 {
		t.Errorf("expected 2 stored match results, got %d", len(record.MatchResults))
	}
	if record.RawExtraction["brand"] != "Rolex" {
		t.Errorf("expected raw extraction stored, got %v", record.RawExtraction)
	}
}

func TestAnalysisService_Analyze_GeneratesSessionID(t *testing.T) {
	historyRepo, _ := newTestHistoryRepo(t)
	svc := NewAnalysisService(
		&stubExtractor{extraction: &domain.WatchPhotoExtraction{Brand: "Rolex"}},
		&stubMatcher{matches: []domain.MatchResult{}},
		historyRepo,
		applog.New(nil),
	)

	resp, err := svc.Analyze(context.Background(), &AnalysisRequest{
		PhotoURLs: []string{"https://example.com/a.jpg"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.SessionID, "session-") {
		t.Errorf("expected generated session ID, got %q", resp.SessionID)
	}
	if resp.BestMatchScore != 0 {
		t.Errorf("expected best score 0 with no matches, got %.1f", resp.BestMatchScore)
	}
}

func TestAnalysisService_Analyze_ExtractionErrorPropagates(t *testing.T) {
	historyRepo, _ := newTestHistoryRepo(t)
	wantErr := errors.New("vision provider unavailable")
	svc := NewAnalysisService(
		&stubExtractor{err: wantErr},
		&stubMatcher{},
		historyRepo,
		applog.New(nil),
	)

	_, err := svc.Analyze(context.Background(), &AnalysisRequest{
		PhotoURLs: []string{"https://example.com/a.jpg"},
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected extraction error, got %v", err)
	}

	count, err := historyRepo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no history row on failure, got %d", count)
	}
}

func TestAnalysisService_Analyze_MatcherErrorPropagates(t *testing.T) {
	historyRepo, _ := newTestHistoryRepo(t)
	wantErr := errors.New("database down")
	svc := NewAnalysisService(
		&stubExtractor{extraction: &domain.WatchPhotoExtraction{Brand: "Rolex"}},
		&stubMatcher{err: wantErr},
		historyRepo,
		applog.New(nil),
	)

	_, err := svc.Analyze(context.Background(), &AnalysisRequest{
		PhotoURLs: []string{"https://example.com/a.jpg"},
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected matcher error, got %v", err)
	}
}

func TestAnalysisService_Analyze_HistoryFailureIsNotFatal(t *testing.T) {
	historyRepo, db := newTestHistoryRepo(t)

	// Close the underlying connection so the history append fails.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := NewAnalysisService(
		&stubExtractor{extraction: &domain.WatchPhotoExtraction{Brand: "Rolex"}},
		&stubMatcher{matches: []domain.MatchResult{{ReferenceID: "ref-1", Score: 50}}},
		historyRepo,
		applog.New(nil),
	)

	resp, err := svc.Analyze(context.Background(), &AnalysisRequest{
		PhotoURLs: []string{"https://example.com/a.jpg"},
	})
	if err != nil {
		t.Fatalf("expected analysis to succeed despite history failure, got %v", err)
	}
	if resp.HistoryID != "" {
		t.Errorf("expected empty history ID when the write failed, got %q", resp.HistoryID)
	}
	if len(resp.Matches) != 1 {
		t.Errorf("expected matches returned regardless, got %d", len(resp.Matches))
	}
}
