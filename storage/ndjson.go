package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wallapop-scanner/models"
	"wallapop-scanner/utils"
)

// NDJSONStore is the append-only master file: one normalized record per
// line, UTF-8 JSON. A crash mid-run leaves a valid prefix of the file, and
// the next run's full scan recovers the seen-id set correctly.
type NDJSONStore struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewNDJSONStore opens (or creates) the store file in append mode.
// Intermediate directories are created automatically.
func NewNDJSONStore(path string) (*NDJSONStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ndjson: create store dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("ndjson: open %q: %w", path, err)
	}

	return &NDJSONStore{path: path, file: f}, nil
}

// SeenIDs scans the whole store and collects every persisted listing id.
// A missing file is an empty set, not an error. Malformed lines are
// skipped so one bad line never poisons deduplication.
func (s *NDJSONStore) SeenIDs() (*utils.IDSet, error) {
	ids := utils.NewIDSet()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("ndjson: open for scan: %w", err)
	}
	defer f.Close()

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
			continue
		}
		if probe.ID != "" {
			ids.Add(probe.ID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ndjson: scan %q: %w", s.path, err)
	}

	return ids, nil
}

// Append writes one record as a single NDJSON line.
func (s *NDJSONStore) Append(rec *models.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ndjson: marshal record %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("ndjson: append record %s: %w", rec.ID, err)
	}
	return nil
}

// Close closes the underlying file.
func (s *NDJSONStore) Close() error {
	return s.file.Close()
}
