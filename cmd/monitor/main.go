package main

import (
	"os"
	"time"

	"wallapop-scanner/config"
	"wallapop-scanner/scraper/wallapop"
	"wallapop-scanner/search"
	"wallapop-scanner/services"
	"wallapop-scanner/storage"
	"wallapop-scanner/utils"
)

// The monitor runs one full pipeline cycle per interval and then pushes
// the store to Elasticsearch. Cycles never overlap: each one finishes
// before the next sleep starts.
func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	interval := time.Duration(cfg.MonitorIntervalSec) * time.Second
	logger.Info("=== Wallapop monitor starting — one cycle every %s ===", interval)

	store, err := storage.NewNDJSONStore(cfg.StorePath)
	if err != nil {
		logger.Error("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var mirror storage.RecordMirror
	if cfg.PostgresDSN != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.PostgresDSN)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL mirror: %v — continuing without it", err)
		} else {
			defer pgWriter.Close()
			mirror = pgWriter
		}
	}

	scorer := services.NewScorer(services.DefaultRuleConfig())
	ingester := services.NewIngester(services.IngestConfig{
		SearchKeyword:    cfg.SearchKeywords,
		ExcludedKeywords: services.DefaultExcludedKeywords(),
		RiskThreshold:    cfg.RiskThreshold,
	}, scorer, store, mirror, logger)

	fetcher := wallapop.New(cfg, logger)
	pipeline := services.NewPipeline(fetcher, ingester, logger, cfg.NoiseFloor, cfg.FallbackMedian)
	uploader := search.NewUploader(cfg, logger)

	for {
		summary, err := pipeline.Run()
		if err != nil {
			logger.Error("Cycle failed: %v — waiting for next cycle", err)
		} else if summary.Accepted > 0 {
			if _, err := uploader.UploadStore(cfg.StorePath); err != nil {
				logger.Error("Bulk upload failed: %v", err)
			}
		} else {
			logger.Info("No new listings this cycle — skipping upload")
		}

		logger.Info("Sleeping %s until next cycle", interval)
		time.Sleep(interval)
	}
}
