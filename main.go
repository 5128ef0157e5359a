package main

import (
	"os"

	"wallapop-scanner/config"
	"wallapop-scanner/scraper/wallapop"
	"wallapop-scanner/services"
	"wallapop-scanner/storage"
	"wallapop-scanner/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Wallapop Fraud Scanner starting ===")
	logger.Info("Config — keywords: %q | pages: %d | page size: %d | risk threshold: %d",
		cfg.SearchKeywords, cfg.MaxPages, cfg.PageSize, cfg.RiskThreshold)

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
			logger.Error("Failed to connect to PostgreSQL mirror: %v", err)
			logger.Error("Continuing without the mirror — the NDJSON store is unaffected")
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

	summary, err := pipeline.Run()
	if err != nil {
		logger.Error("Pipeline run failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Done — %d saved | %d duplicates | %d filtered | %d low-risk → %s",
		summary.Accepted, summary.Duplicates, summary.Filtered, summary.LowRisk, cfg.StorePath)
}
