package services

import (
	"time"

	"github.com/google/uuid"

	"wallapop-scanner/models"
	"wallapop-scanner/utils"
)

// ListingFetcher retrieves the current batch of raw listings. A failed
// fetch degrades to a smaller (possibly empty) batch, never to an error
// that aborts the run.
type ListingFetcher interface {
	FetchAll() ([]*models.Listing, error)
}

// Pipeline wires one full ingestion cycle: fetch → batch statistics →
// filter/score/persist. It runs strictly sequentially; the monitor loop
// invokes one run per interval and never overlaps runs.
type Pipeline struct {
	fetcher        ListingFetcher
	ingester       *Ingester
	logger         *utils.Logger
	noiseFloor     float64
	fallbackMedian float64
}

// NewPipeline assembles a Pipeline from its collaborators.
func NewPipeline(fetcher ListingFetcher, ingester *Ingester, logger *utils.Logger, noiseFloor, fallbackMedian float64) *Pipeline {
	return &Pipeline{
		fetcher:        fetcher,
		ingester:       ingester,
		logger:         logger,
		noiseFloor:     noiseFloor,
		fallbackMedian: fallbackMedian,
	}
}

// Run executes one complete cycle and returns its outcome counts. Zero new
// listings is a valid outcome, not a failure.
func (p *Pipeline) Run() (IngestSummary, error) {
	runID := uuid.NewString()[:8]
	start := time.Now()
	p.logger.Info("[pipeline:%s] Cycle starting", runID)

	listings, err := p.fetcher.FetchAll()
	if err != nil {
		p.logger.Warn("[pipeline:%s] Fetch degraded: %v", runID, err)
	}
	if len(listings) == 0 {
		p.logger.Info("[pipeline:%s] Zero listings this cycle — nothing to ingest", runID)
		return IngestSummary{}, nil
	}

	stats := ComputeBatchStats(listings, p.noiseFloor, p.fallbackMedian)
	p.logger.Info("[pipeline:%s] Batch stats — median price %.2f over %d listings, %d distinct sellers",
		runID, stats.MedianPrice, len(listings), len(stats.SellerCounts))

	summary, err := p.ingester.Ingest(listings, stats)
	if err != nil {
		return summary, err
	}

	p.logger.Info("[pipeline:%s] Cycle complete in %s — %d new suspicious listings",
		runID, time.Since(start).Round(time.Millisecond), summary.Accepted)
	return summary, nil
}
