package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wallapop-scanner/models"
)

func testRecord(id string) *models.Record {
	return &models.Record{
		ID:          id,
		Title:       "iphone 13",
		Description: "urgente, solo whatsapp",
		Price:       80.5,
		Currency:    "EUR",
		CategoryID:  24200,
		UserID:      "S1",
		ImageURL:    "https://img.example/1.jpg",
		Location: models.RecordLocation{
			Geo:  &models.GeoPoint{Lat: 40.4168, Lon: -3.7038},
			City: "Madrid",
		},
		Timestamps: models.Timestamps{
			CrawledAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
			CreatedAt: time.Date(2026, 8, 29, 11, 30, 0, 0, time.UTC),
		},
		Enrichment: models.RiskAssessment{
			Score:    100,
			Reasons:  []string{"price impossible for iphone 13"},
			Keywords: []string{"urgente", "whatsapp"},
		},
	}
}

func TestSeenIDsMissingFile(t *testing.T) {
	s := &NDJSONStore{path: filepath.Join(t.TempDir(), "nope.json")}

	ids, err := s.SeenIDs()
	if err != nil {
		t.Fatalf("SeenIDs on a missing file: %v", err)
	}
	if ids.Size() != 0 {
		t.Errorf("Size = %d; want 0 for a first run", ids.Size())
	}
}

func TestAppendAndRescan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.json")
	s, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatalf("NewNDJSONStore: %v", err)
	}
	defer s.Close()

	if err := s.Append(testRecord("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(testRecord("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	ids, err := s.SeenIDs()
	if err != nil {
		t.Fatalf("SeenIDs: %v", err)
	}
	if !ids.Contains("a") || !ids.Contains("b") || ids.Size() != 2 {
		t.Errorf("seen set = %d ids; want exactly a and b", ids.Size())
	}
}

func TestRescanSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.json")
	s, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatalf("NewNDJSONStore: %v", err)
	}
	defer s.Close()

	if err := s.Append(testRecord("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Simulate a crash mid-write: a truncated JSON line followed by blank
	// lines must not poison the rescan.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	f.WriteString(`{"id":"trunc","title":"ipho` + "\n\n")
	f.Close()
	if err := s.Append(testRecord("b")); err != nil {
		t.Fatalf("Append after corruption: %v", err)
	}

	ids, err := s.SeenIDs()
	if err != nil {
		t.Fatalf("SeenIDs: %v", err)
	}
	if ids.Size() != 2 || !ids.Contains("a") || !ids.Contains("b") {
		t.Errorf("seen set = %d ids; want a and b with the bad line skipped", ids.Size())
	}
}

func TestRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.json")
	s, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatalf("NewNDJSONStore: %v", err)
	}
	defer s.Close()

	want := testRecord("rt")
	if err := s.Append(want); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("store has no lines")
	}
	line := scanner.Bytes()

	var got models.Record
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("unmarshal stored line: %v", err)
	}
	if got.ID != want.ID || got.Price != want.Price || got.Currency != want.Currency {
		t.Errorf("round trip lost fields: got %+v", got)
	}
	if !got.Timestamps.CrawledAt.Equal(want.Timestamps.CrawledAt) ||
		!got.Timestamps.CreatedAt.Equal(want.Timestamps.CreatedAt) {
		t.Errorf("timestamps not preserved: %+v", got.Timestamps)
	}

	// The line must also be self-contained for downstream indexing:
	// price a JSON number, timestamps ISO-8601 UTC strings.
	var generic map[string]any
	if err := json.Unmarshal(line, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	if _, ok := generic["price"].(float64); !ok {
		t.Errorf("price persisted as %T; want JSON number", generic["price"])
	}
	ts := generic["timestamps"].(map[string]any)
	if _, err := time.Parse(time.RFC3339, ts["crawled_at"].(string)); err != nil {
		t.Errorf("crawled_at %q is not RFC3339: %v", ts["crawled_at"], err)
	}
}
