package models

import "time"

// Listing is one raw marketplace ad exactly as the Wallapop search API
// returns it. Immutable once fetched within a run.
type Listing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       Price    `json:"price"`
	CategoryID  int64    `json:"category_id"`
	UserID      string   `json:"user_id"`
	CreatedAt   int64    `json:"created_at"` // epoch milliseconds
	Location    *GeoInfo `json:"location"`
	Images      []Image  `json:"images"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type GeoInfo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
}

type Image struct {
	URLs ImageURLs `json:"urls"`
}

type ImageURLs struct {
	Medium string `json:"medium"`
}

// BatchStats holds the statistics derived from one fetch cycle. They are
// recomputed from scratch every cycle; nothing carries over.
type BatchStats struct {
	MedianPrice  float64
	SellerCounts map[string]int
}

// RiskAssessment is the scorer's verdict for a single listing. Reasons
// preserve rule-evaluation order and are empty exactly when the score is 0.
// It doubles as the enrichment object embedded in the persisted record.
type RiskAssessment struct {
	Score    int      `json:"risk_score"`
	Reasons  []string `json:"risk_factors"`
	Keywords []string `json:"suspicious_keywords"`
}

// Record is the normalized document persisted to the NDJSON store, one per
// line. Created once, never mutated, never deleted.
type Record struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	CategoryID  int64          `json:"category_id"`
	UserID      string         `json:"user_id"`
	ImageURL    string         `json:"image_url,omitempty"`
	Location    RecordLocation `json:"location"`
	Timestamps  Timestamps     `json:"timestamps"`
	Enrichment  RiskAssessment `json:"enrichment"`
}

type RecordLocation struct {
	Geo  *GeoPoint `json:"geo"`
	City string    `json:"city,omitempty"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Timestamps struct {
	CrawledAt time.Time `json:"crawled_at"`
	CreatedAt time.Time `json:"created_at"`
}
