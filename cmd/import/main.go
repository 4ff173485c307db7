package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"image"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/go-resty/resty/v2"
	"github.com/marlow/watchdex/internal/config"
	"github.com/marlow/watchdex/internal/domain"
	"github.com/marlow/watchdex/internal/logger"
	"github.com/marlow/watchdex/internal/repository"
	"github.com/marlow/watchdex/internal/storage"
)

// seedEntry is one reference watch record in the import file.
type seedEntry struct {
	Brand               string   `json:"brand"`
	ModelName           string   `json:"model_name"`
	ReferenceNumber     string   `json:"reference_number"`
	CollectionFamily    string   `json:"collection_family"`
	CaseMaterial        string   `json:"case_material"`
	DialColor           string   `json:"dial_color"`
	BraceletType        string   `json:"bracelet_type"`
	ConditionBaseline   string   `json:"condition_baseline"`
	AuthenticityMarkers []string `json:"authenticity_markers"`
	VerificationStatus  string   `json:"verification_status"`
	VerifiedBy          string   `json:"verified_by"`
	Source              string   `json:"source"`
	Notes               string   `json:"notes"`
	PhotoURLs           []string `json:"photo_urls"`
}

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "watchdex-import",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	seedFile := flag.String("file", "", "Path to JSON seed file (array of reference watches)")
	configPath := flag.String("config", "", "Path to config file")
	mirrorPhotos := flag.Bool("mirror-photos", false, "Download photos and re-host them in object storage")
	dryRun := flag.Bool("dry-run", false, "Validate the seed file without writing anything")
	flag.Parse()

	if *seedFile == "" {
		appLogger.Fatal("missing required -file flag")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	data, err := os.ReadFile(*seedFile)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read seed file")
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		appLogger.WithError(err).Fatal("Failed to parse seed file")
	}

	appLogger.WithFields(logger.Fields{
		"file":          *seedFile,
		"entries":       len(entries),
		"mirror_photos": *mirrorPhotos,
		"dry_run":       *dryRun,
	}).Info("Starting import")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	refRepo := repository.NewReferenceRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize S3-compatible storage only when photos get re-hosted
	var objectStorage storage.ObjectStorage
	if *mirrorPhotos {
		objectStorage, err = storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	httpClient := resty.New().SetTimeout(30 * time.Second)

	var created, skipped, failed int
	for i, entry := range entries {
		entryLog := appLogger.WithFields(logger.Fields{
			"index":            i,
			"brand":            entry.Brand,
			"reference_number": entry.ReferenceNumber,
		})

		if entry.Brand == "" || entry.ModelName == "" || entry.ReferenceNumber == "" {
			entryLog.Warn("Skipping entry with missing required fields")
			failed++
			continue
		}

		status := domain.VerificationStatus(entry.VerificationStatus)
		if entry.VerificationStatus != "" && !status.Valid() {
			entryLog.WithField("status", entry.VerificationStatus).Warn("Skipping entry with unknown verification status")
			failed++
			continue
		}

		exists, err := refRepo.ExistsByReference(ctx, entry.Brand, entry.ReferenceNumber)
		if err != nil {
			entryLog.WithError(err).Error("Duplicate check failed")
			failed++
			continue
		}
		if exists {
			entryLog.Info("Reference already catalogued, skipping")
			skipped++
			continue
		}

		if *dryRun {
			entryLog.Info("Dry run: entry valid")
			created++
			continue
		}

		watch := &domain.ReferenceWatch{
			Brand:               entry.Brand,
			ModelName:           entry.ModelName,
			ReferenceNumber:     entry.ReferenceNumber,
			CollectionFamily:    entry.CollectionFamily,
			CaseMaterial:        entry.CaseMaterial,
			DialColor:           entry.DialColor,
			BraceletType:        entry.BraceletType,
			ConditionBaseline:   entry.ConditionBaseline,
			AuthenticityMarkers: entry.AuthenticityMarkers,
			VerificationStatus:  status,
			VerifiedBy:          entry.VerifiedBy,
			Source:              entry.Source,
			Notes:               entry.Notes,
			PhotoURLs:           entry.PhotoURLs,
		}
		if err := refRepo.Create(ctx, watch); err != nil {
			entryLog.WithError(err).Error("Failed to create reference")
			failed++
			continue
		}

		if *mirrorPhotos && len(entry.PhotoURLs) > 0 {
			watch.PhotoURLs = mirrorWatchPhotos(ctx, entryLog, httpClient, objectStorage, watch.ID, entry.PhotoURLs)
			update := &domain.ReferenceWatchUpdate{PhotoURLs: &watch.PhotoURLs}
			if _, err := refRepo.Update(ctx, watch.ID, update); err != nil {
				entryLog.WithError(err).Error("Failed to save re-hosted photo URLs")
			}
		}

		entryLog.WithField("id", watch.ID).Info("Reference imported")
		created++
	}

	appLogger.WithFields(logger.Fields{
		"created": created,
		"skipped": skipped,
		"failed":  failed,
	}).Info("Import finished")
}

// mirrorWatchPhotos downloads each photo, verifies it decodes as an image, and
// uploads it to object storage. URLs that fail any step keep their original
// value so the record never loses a photo.
// Parameters:
//   - ctx: context for cancellation.
//   - log: entry-scoped logger.
//   - client: HTTP client for downloads.
//   - store: destination object storage.
//   - referenceID: owning reference watch ID.
//   - urls: source photo URLs.
// Returns:
//   - []string: storage-backed URLs, original values where mirroring failed.
func mirrorWatchPhotos(ctx context.Context, log *logger.Logger, client *resty.Client, store storage.ObjectStorage, referenceID string, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil || resp.StatusCode() != 200 {
			log.WithField("url", url).Warn("Photo download failed, keeping original URL")
			out = append(out, url)
			continue
		}
		body := resp.Body()

		cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
		if err != nil {
			log.WithField("url", url).Warn("Photo is not a decodable image, keeping original URL")
			out = append(out, url)
			continue
		}

		key := storage.PhotoKey(referenceID, url)
		contentType := "image/" + format
		if err := store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
			log.WithField("url", url).WithError(err).Warn("Photo upload failed, keeping original URL")
			out = append(out, url)
			continue
		}

		log.WithFields(logger.Fields{
			"key":    key,
			"format": format,
			"width":  cfg.Width,
			"height": cfg.Height,
		}).Info("Photo re-hosted")
		out = append(out, store.GetURL(key))
	}
	return out
}
