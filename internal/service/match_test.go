package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marlow/watchdex/internal/domain"
	applog "github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRefRepo(t *testing.T) *repository.ReferenceRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.ReferenceWatch{}, &domain.AnalysisHistory{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return repository.NewReferenceRepository(db)
}

func newTestMatchService(t *testing.T, repo *repository.ReferenceRepository) *MatchService {
	t.Helper()
	return NewMatchService(repo, applog.New(nil), nil)
}

func mustCreate(t *testing.T, repo *repository.ReferenceRepository, watch *domain.ReferenceWatch) *domain.ReferenceWatch {
	t.Helper()
	if err := repo.Create(context.Background(), watch); err != nil {
		t.Fatalf("failed to create reference: %v", err)
	}
	return watch
}

func TestScoreCandidate(t *testing.T) {
	ref := &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "Submariner Date",
		ReferenceNumber: "116610LN",
		CaseMaterial:    "stainless steel",
		DialColor:       "black",
		BraceletType:    "oyster",
	}
	w := DefaultMatchWeights()

	tests := []struct {
		name       string
		extraction domain.WatchPhotoExtraction
		wantScore  float64
		wantFields []string
	}{
		{
			name: "full match scores 100",
			extraction: domain.WatchPhotoExtraction{
				Brand:           "Rolex",
				Model:           "Submariner Date",
				ReferenceNumber: "116610LN",
				CaseMaterial:    "stainless steel",
				DialColor:       "black",
				BraceletType:    "oyster",
			},
			wantScore:  100,
			wantFields: []string{"brand", "reference_number", "model_name", "case_material", "dial_color", "bracelet_type"},
		},
		{
			name:       "brand mismatch gates to zero",
			extraction: domain.WatchPhotoExtraction{Brand: "Omega", DialColor: "black"},
			wantScore:  0,
			wantFields: nil,
		},
		{
			name:       "brand only",
			extraction: domain.WatchPhotoExtraction{Brand: "rolex"},
			wantScore:  w.Brand,
			wantFields: []string{"brand"},
		},
		{
			name:       "reference number is case-insensitive",
			extraction: domain.WatchPhotoExtraction{Brand: "Rolex", ReferenceNumber: "116610ln"},
			wantScore:  w.Brand + w.ReferenceNumber,
			wantFields: []string{"brand", "reference_number"},
		},
		{
			name:       "no brand still scores attributes",
			extraction: domain.WatchPhotoExtraction{ReferenceNumber: "116610LN", DialColor: "Black"},
			wantScore:  w.ReferenceNumber + w.DialColor,
			wantFields: []string{"reference_number", "dial_color"},
		},
		{
			name:       "model substring gets full model weight",
			extraction: domain.WatchPhotoExtraction{Brand: "Rolex", Model: "Submariner"},
			wantScore:  w.Brand + w.ModelName,
			wantFields: []string{"brand", "model_name"},
		},
		{
			name:       "partial model token overlap",
			extraction: domain.WatchPhotoExtraction{Brand: "Rolex", Model: "Submariner Classic"},
			wantScore:  w.Brand + w.ModelName*0.5,
			wantFields: []string{"brand", "model_name"},
		},
		{
			name:       "empty attribute never matches empty attribute",
			extraction: domain.WatchPhotoExtraction{Brand: "Rolex", CaseMaterial: ""},
			wantScore:  w.Brand,
			wantFields: []string{"brand"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, fields := scoreCandidate(&tt.extraction, ref, w)
			if score != tt.wantScore {
				t.Errorf("expected score %.1f, got %.1f", tt.wantScore, score)
			}
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("expected fields %v, got %v", tt.wantFields, fields)
			}
			for i := range fields {
				if fields[i] != tt.wantFields[i] {
					t.Errorf("expected fields %v, got %v", tt.wantFields, fields)
					break
				}
			}
		})
	}
}

func TestModelOverlap(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		reference string
		want      float64
	}{
		{"exact", "Submariner Date", "Submariner Date", 1},
		{"substring of reference", "Submariner", "Submariner Date", 1},
		{"reference inside extraction", "Rolex Submariner Date watch", "Submariner Date", 1},
		{"half the tokens", "Submariner Classic", "Submariner Date", 0.5},
		{"no overlap", "Speedmaster", "Submariner Date", 0},
		{"blank extracted", "", "Submariner Date", 0},
		{"blank reference", "Submariner", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modelOverlap(tt.extracted, tt.reference); got != tt.want {
				t.Errorf("expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestMatchService_FindMatches_RanksExactReferenceFirst(t *testing.T) {
	repo := newTestRefRepo(t)
	svc := newTestMatchService(t, repo)
	ctx := context.Background()

	target := mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "Submariner Date",
		ReferenceNumber: "116610LN",
		DialColor:       "black",
	})
	mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "GMT-Master II",
		ReferenceNumber: "126710BLRO",
	})
	mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Omega",
		ModelName:       "Speedmaster Professional",
		ReferenceNumber: "310.30.42.50.01.001",
	})

	matches, err := svc.FindMatches(ctx, &domain.WatchPhotoExtraction{
		Brand:           "Rolex",
		Model:           "Submariner",
		ReferenceNumber: "116610LN",
		DialColor:       "black",
	}, "session-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches (Omega gated out), got %d", len(matches))
	}
	if matches[0].ReferenceID != target.ID {
		t.Errorf("expected exact reference first, got %s", matches[0].ReferenceID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("expected descending scores, got %.1f then %.1f", matches[0].Score, matches[1].Score)
	}
	if matches[1].Score != DefaultMatchWeights().Brand {
		t.Errorf("expected brand-only runner-up score, got %.1f", matches[1].Score)
	}
}

func TestMatchService_FindMatches_UnknownBrandIsEmptyNotError(t *testing.T) {
	repo := newTestRefRepo(t)
	svc := newTestMatchService(t, repo)

	mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "Submariner Date",
		ReferenceNumber: "116610LN",
	})

	matches, err := svc.FindMatches(context.Background(), &domain.WatchPhotoExtraction{
		Brand: "Richard Mille",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestMatchService_FindMatches_DropsBelowThreshold(t *testing.T) {
	repo := newTestRefRepo(t)
	svc := newTestMatchService(t, repo)

	mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "Submariner Date",
		ReferenceNumber: "116610LN",
		DialColor:       "black",
	})

	// Dial color alone scores 7, below the minimum of 10.
	matches, err := svc.FindMatches(context.Background(), &domain.WatchPhotoExtraction{
		DialColor: "black",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected sub-threshold candidate dropped, got %d matches", len(matches))
	}
}

func TestMatchService_FindMatches_TieBreaksOnVerifiedAt(t *testing.T) {
	repo := newTestRefRepo(t)
	svc := newTestMatchService(t, repo)
	ctx := context.Background()

	unverified := mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "Submariner Date",
		ReferenceNumber: "116610LN",
	})
	verified := mustCreate(t, repo, &domain.ReferenceWatch{
		Brand:           "Rolex",
		ModelName:       "GMT-Master II",
		ReferenceNumber: "126710BLRO",
	})

	status := domain.VerificationVerified
	at := time.Now().Add(-time.Hour)
	if _, err := repo.Update(ctx, verified.ID, &domain.ReferenceWatchUpdate{
		VerificationStatus: &status,
		VerifiedAt:         &at,
	}); err != nil {
		t.Fatalf("failed to verify reference: %v", err)
	}

	// Brand-only extraction scores both candidates equally.
	matches, err := svc.FindMatches(ctx, &domain.WatchPhotoExtraction{Brand: "Rolex"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ReferenceID != verified.ID {
		t.Errorf("expected verified reference to win the tie, got %s", matches[0].ReferenceID)
	}
	if matches[1].ReferenceID != unverified.ID {
		t.Errorf("expected unverified reference second, got %s", matches[1].ReferenceID)
	}
}

func TestGenerateSessionID(t *testing.T) {
	id := generateSessionID()
	if !strings.HasPrefix(id, "session-") {
		t.Errorf("expected session- prefix, got %q", id)
	}
	if len(id) <= len("session-") {
		t.Errorf("expected timestamp suffix, got %q", id)
	}
}
