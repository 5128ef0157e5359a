package services

import (
	"fmt"
	"strings"
	"time"

	"wallapop-scanner/models"
	"wallapop-scanner/storage"
	"wallapop-scanner/utils"
)

// RiskScorer scores one listing against its batch statistics.
type RiskScorer interface {
	Score(l *models.Listing, stats *models.BatchStats) models.RiskAssessment
}

// IngestConfig carries the filter settings of the ingester.
type IngestConfig struct {
	// SearchKeyword must appear in the title for a listing to be relevant.
	SearchKeyword string
	// ExcludedKeywords reject accessory/parts listings by title.
	ExcludedKeywords []string
	// RiskThreshold is the minimum score a listing must reach to be kept.
	RiskThreshold int
}

// DefaultExcludedKeywords rejects the accessory listings that flood the
// iPhone category.
func DefaultExcludedKeywords() []string {
	return []string{"funda", "cargador", "case", "cristal templado", "protector", "carcasa"}
}

// IngestSummary is the per-run outcome count, one bucket per terminal state.
type IngestSummary struct {
	Accepted   int
	Duplicates int
	Filtered   int
	LowRisk    int
}

// Ingester owns the decision of what gets appended to the store. Each
// listing passes a short-circuiting filter chain: excluded title →
// irrelevant title → already seen → below risk threshold → accepted.
type Ingester struct {
	cfg    IngestConfig
	scorer RiskScorer
	store  storage.RecordStore
	mirror storage.RecordMirror // optional
	logger *utils.Logger
}

// NewIngester creates an Ingester. mirror may be nil.
func NewIngester(cfg IngestConfig, scorer RiskScorer, store storage.RecordStore, mirror storage.RecordMirror, logger *utils.Logger) *Ingester {
	return &Ingester{cfg: cfg, scorer: scorer, store: store, mirror: mirror, logger: logger}
}

// Ingest filters, scores and persists one batch of raw listings. The seen
// set is rebuilt from the store at the start of every call and grown
// in-memory as records are accepted, so running the same batch twice
// rejects everything as duplicate the second time.
func (ing *Ingester) Ingest(listings []*models.Listing, stats *models.BatchStats) (IngestSummary, error) {
	var summary IngestSummary

	seen, err := ing.store.SeenIDs()
	if err != nil {
		return summary, fmt.Errorf("ingest: rebuild seen ids: %w", err)
	}
	ing.logger.Info("[ingest] Seen-id set rebuilt: %d known listings", seen.Size())

	searchKeyword := strings.ToLower(ing.cfg.SearchKeyword)
	var accepted []*models.Record

	for _, l := range listings {
		title := strings.ToLower(l.Title)

		if containsAny(title, ing.cfg.ExcludedKeywords) {
			summary.Filtered++
			continue
		}

		if !strings.Contains(title, searchKeyword) {
			summary.Filtered++
			continue
		}

		if seen.Contains(l.ID) {
			summary.Duplicates++
			continue
		}

		assessment := ing.scorer.Score(l, stats)
		if assessment.Score < ing.cfg.RiskThreshold {
			summary.LowRisk++
			continue
		}

		rec := Normalize(l, assessment, time.Now().UTC())
		if err := ing.store.Append(rec); err != nil {
			return summary, fmt.Errorf("ingest: append %s: %w", l.ID, err)
		}
		seen.Add(l.ID)
		accepted = append(accepted, rec)
		summary.Accepted++

		ing.logger.Debug("[ingest] Accepted %s (score %d): %s", l.ID, assessment.Score, l.Title)
	}

	if ing.mirror != nil && len(accepted) > 0 {
		if err := ing.mirror.Write(accepted); err != nil {
			ing.logger.Warn("[ingest] Mirror write failed (store is intact): %v", err)
		}
	}

	ing.logger.Info("[ingest] Batch done — accepted %d | duplicates %d | filtered %d | low-risk %d",
		summary.Accepted, summary.Duplicates, summary.Filtered, summary.LowRisk)
	return summary, nil
}

// Normalize converts a raw listing plus its assessment into the persisted
// record shape. Missing optional fields fall back to defaults: the crawl
// instant replaces an absent creation timestamp, geolocation stays null
// when the API sent none.
func Normalize(l *models.Listing, assessment models.RiskAssessment, now time.Time) *models.Record {
	createdAt := now
	if l.CreatedAt > 0 {
		createdAt = time.UnixMilli(l.CreatedAt).UTC()
	}

	var imageURL string
	if len(l.Images) > 0 {
		imageURL = l.Images[0].URLs.Medium
	}

	var loc models.RecordLocation
	if l.Location != nil {
		loc.Geo = &models.GeoPoint{Lat: l.Location.Latitude, Lon: l.Location.Longitude}
		loc.City = l.Location.City
	}

	return &models.Record{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price.Amount,
		Currency:    l.Price.Currency,
		CategoryID:  l.CategoryID,
		UserID:      l.UserID,
		ImageURL:    imageURL,
		Location:    loc,
		Timestamps: models.Timestamps{
			CrawledAt: now,
			CreatedAt: createdAt,
		},
		Enrichment: assessment,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
