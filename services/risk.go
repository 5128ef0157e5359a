package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"wallapop-scanner/models"
)

// phoneRegexp matches Spanish-style mobile numbers hidden in free text:
// leading 6 or 7, nine digits total, optionally separated by spaces, dots
// or dashes. Sellers embed these to pull buyers off the marketplace's
// messaging system.
var phoneRegexp = regexp.MustCompile(`[67](?:[\s.\-]?[0-9]){8}`)

// ReferenceEntry maps a lowercase model-name substring to the minimum
// expected resale price for that model.
type ReferenceEntry struct {
	Model string
	Price float64
}

// RuleConfig carries every knob of the risk scorer. It is passed in
// explicitly so the scorer stays pure and tests can inject their own
// tables and keyword lists.
type RuleConfig struct {
	// ReferenceTable is ordered most-specific-first; lookup returns the
	// first substring found in the title, never the longest.
	ReferenceTable []ReferenceEntry
	// CriticalKeywords add a flat contribution when any of them matches.
	CriticalKeywords []string
	// SuspiciousKeywords add a contribution per distinct match.
	SuspiciousKeywords []string
	// MassSellerMin is the per-batch listing count at which a seller is
	// treated as a scam farm.
	MassSellerMin int
	// MinDescriptionLen is the character count below which a description
	// counts as insufficient.
	MinDescriptionLen int
}

// DefaultRuleConfig returns the production rule set for the iPhone
// category.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		ReferenceTable: []ReferenceEntry{
			{"15 pro max", 900},
			{"15 pro", 750},
			{"15 plus", 650},
			{"iphone 15", 600},
			{"14 pro max", 700},
			{"14 pro", 600},
			{"14 plus", 500},
			{"iphone 14", 450},
			{"13 pro max", 550},
			{"13 pro", 480},
			{"13 mini", 350},
			{"iphone 13", 400},
			{"12 pro max", 400},
			{"12 pro", 350},
			{"12 mini", 230},
			{"iphone 12", 280},
			{"iphone 11", 200},
			{"iphone xs", 150},
			{"iphone xr", 140},
			{"iphone x", 130},
			{"iphone se", 120},
		},
		CriticalKeywords: []string{
			"bizum", "transferencia", "western union", "paypal familia",
			"whatsapp", "telegram",
			"réplica", "replica", "clon", "imitación",
		},
		SuspiciousKeywords: []string{
			"urgente", "bloqueado", "icloud", "sin factura", "envío gratis",
			"indiviso", "sin face id", "tara", "no enciende", "piezas",
			"no negociable", "seminuevo", "sin garantía", "no devoluciones",
			"sin accesorios",
		},
		MassSellerMin:     3,
		MinDescriptionLen: 15,
	}
}

// Scorer evaluates a fixed, ordered rule set against a single listing.
// It is deterministic and does no I/O.
type Scorer struct {
	cfg RuleConfig
}

// NewScorer creates a Scorer with the given rule configuration.
func NewScorer(cfg RuleConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score runs every rule in order against one listing and the statistics of
// the batch it arrived in. Each triggered rule appends its contribution and
// a reason; the total is clamped to 100 once, at the very end.
func (s *Scorer) Score(l *models.Listing, stats *models.BatchStats) models.RiskAssessment {
	score := 0
	var reasons []string
	var keywords []string

	price := l.Price.Amount
	title := strings.ToLower(l.Title)
	description := strings.ToLower(l.Description)
	text := title + " " + description

	// Rule a: price against the model's reference price, falling back to
	// the batch median when no model is recognized in the title.
	if ref, ok := s.lookupReference(title); ok {
		if price < ref.Price*0.4 {
			score += 95
			reasons = append(reasons, fmt.Sprintf("price impossible for %s", ref.Model))
		} else if price < ref.Price*0.6 {
			score += 60
			reasons = append(reasons, fmt.Sprintf("price very low for %s", ref.Model))
		}
	} else if stats.MedianPrice > 0 && price < stats.MedianPrice*0.4 {
		score += 40
		reasons = append(reasons, fmt.Sprintf("price far below batch median (%.0f)", stats.MedianPrice))
	}

	// Rule b: contact number hidden in the ad text.
	if phoneRegexp.MatchString(text) {
		score += 50
		reasons = append(reasons, "phone number embedded in description")
	}

	// Rule c: critical keywords score a flat contribution, however many match.
	if critical := matchKeywords(text, s.cfg.CriticalKeywords); len(critical) > 0 {
		score += 50
		reasons = append(reasons, "critical keywords: "+strings.Join(critical, ", "))
		keywords = append(keywords, critical...)
	}

	// Rule d: softer signals accumulate per distinct match.
	if suspicious := matchKeywords(text, s.cfg.SuspiciousKeywords); len(suspicious) > 0 {
		score += 15 * len(suspicious)
		reasons = append(reasons, "suspicious keywords: "+strings.Join(suspicious, ", "))
		keywords = append(keywords, suspicious...)
	}

	// Rule e: many listings from one seller within a single batch.
	if n := stats.SellerCounts[l.UserID]; s.cfg.MassSellerMin > 0 && n >= s.cfg.MassSellerMin {
		score += 25
		reasons = append(reasons, fmt.Sprintf("mass seller (%d items)", n))
	}

	// Rule f: low-effort description.
	if utf8.RuneCountInString(l.Description) < s.cfg.MinDescriptionLen {
		score += 10
		reasons = append(reasons, "insufficient description")
	}

	if score > 100 {
		score = 100
	}

	return models.RiskAssessment{Score: score, Reasons: reasons, Keywords: keywords}
}

// lookupReference returns the first reference entry whose model substring
// appears in the lowercased title. Insertion order encodes specificity, so
// first-match-wins is the contract here.
func (s *Scorer) lookupReference(title string) (ReferenceEntry, bool) {
	for _, entry := range s.cfg.ReferenceTable {
		if strings.Contains(title, entry.Model) {
			return entry, true
		}
	}
	return ReferenceEntry{}, false
}

// matchKeywords returns the distinct keywords found in text, preserving
// list order.
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
