package search

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"wallapop-scanner/config"
	"wallapop-scanner/utils"
)

// Uploader ships the NDJSON store to Elasticsearch with a single _bulk
// request: one metadata line plus one document line per stored record,
// keyed by the record's id so re-uploads overwrite instead of duplicating.
type Uploader struct {
	cfg    *config.Config
	logger *utils.Logger
	client *resty.Client
	retry  *utils.RetryConfig
}

type bulkResponse struct {
	Errors bool              `json:"errors"`
	Items  []json.RawMessage `json:"items"`
}

// NewUploader creates an Uploader for the configured Elasticsearch cluster.
func NewUploader(cfg *config.Config, logger *utils.Logger) *Uploader {
	return &Uploader{
		cfg:    cfg,
		logger: logger,
		client: resty.New().SetTimeout(30 * time.Second),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// UploadStore reads the store file at path and submits every valid line.
// Malformed lines are skipped, matching the store's own scan rules. It
// returns the number of documents submitted.
func (u *Uploader) UploadStore(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			u.logger.Warn("[elastic] Store %s does not exist yet — nothing to upload", path)
			return 0, nil
		}
		return 0, fmt.Errorf("elastic: open store: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	count := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			u.logger.Debug("[elastic] Skipping malformed store line")
			continue
		}

		meta := map[string]map[string]string{
			"index": {"_index": u.cfg.ElasticIndex},
		}
		if probe.ID != "" {
			meta["index"]["_id"] = probe.ID
		}
		metaLine, err := json.Marshal(meta)
		if err != nil {
			return 0, fmt.Errorf("elastic: marshal bulk meta: %w", err)
		}

		body.Write(metaLine)
		body.WriteByte('\n')
		body.WriteString(line)
		body.WriteByte('\n')
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("elastic: scan store: %w", err)
	}

	if count == 0 {
		u.logger.Info("[elastic] Store is empty — nothing to upload")
		return 0, nil
	}

	u.logger.Info("[elastic] Uploading %d documents to %s/%s", count, u.cfg.ElasticURL, u.cfg.ElasticIndex)

	var result bulkResponse
	err = u.retry.Do("bulk-upload", func() error {
		resp, err := u.client.R().
			SetHeader("Content-Type", "application/x-ndjson").
			SetBasicAuth(u.cfg.ElasticUser, u.cfg.ElasticPassword).
			SetBody(body.Bytes()).
			SetResult(&result).
			ForceContentType("application/json").
			Post(u.cfg.ElasticURL + "/_bulk")
		if err != nil {
			return fmt.Errorf("bulk request: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("bulk request returned HTTP %d: %s", resp.StatusCode(), resp.String())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("elastic: %w", err)
	}

	if result.Errors {
		u.logger.Warn("[elastic] Bulk response reported per-item errors (%d items) — check index mappings",
			len(result.Items))
	} else {
		u.logger.Info("[elastic] %d documents indexed", count)
	}

	return count, nil
}
