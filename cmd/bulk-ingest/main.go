package main

import (
	"os"

	"wallapop-scanner/config"
	"wallapop-scanner/search"
	"wallapop-scanner/utils"
)

// One-shot upload of the NDJSON store to Elasticsearch. Useful after a
// manual pipeline run or to re-seed a rebuilt index.
func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	uploader := search.NewUploader(cfg, logger)
	count, err := uploader.UploadStore(cfg.StorePath)
	if err != nil {
		logger.Error("Bulk upload failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Bulk upload done — %d documents submitted from %s", count, cfg.StorePath)
}
