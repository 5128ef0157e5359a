package services

import (
	"strings"
	"testing"

	"wallapop-scanner/models"
)

func newListing(title, desc string, price float64, userID string) *models.Listing {
	return &models.Listing{
		ID:          "l-" + userID + "-" + title,
		Title:       title,
		Description: desc,
		Price:       models.Price{Amount: price, Currency: "EUR"},
		UserID:      userID,
	}
}

func neutralStats() *models.BatchStats {
	return &models.BatchStats{MedianPrice: 450, SellerCounts: map[string]int{}}
}

func TestScoreClampedAt100(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing(
		"iphone 15 pro max urgente",
		"urgente, movil bloqueado de icloud, pago por bizum, llama al 612 34 56 78",
		50, "S1")

	got := s.Score(l, neutralStats())
	if got.Score != 100 {
		t.Errorf("Score = %d; want 100 (clamped)", got.Score)
	}
	if len(got.Reasons) == 0 {
		t.Error("expected reasons for a non-zero score")
	}
}

func TestZeroScoreHasNoReasons(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing(
		"iphone 15 como nuevo",
		"perfecto estado, con caja y factura original incluida",
		590, "S1")

	got := s.Score(l, neutralStats())
	if got.Score != 0 {
		t.Errorf("Score = %d; want 0", got.Score)
	}
	if len(got.Reasons) != 0 {
		t.Errorf("Reasons = %v; want empty for score 0", got.Reasons)
	}
}

func TestReferenceLookupFirstMatchWins(t *testing.T) {
	cfg := RuleConfig{
		ReferenceTable: []ReferenceEntry{
			{"15 pro max", 900},
			{"iphone 15", 600},
		},
		MassSellerMin:     3,
		MinDescriptionLen: 15,
	}
	s := NewScorer(cfg)

	// Title contains both "15 pro max" and "iphone 15" — the more
	// specific entry must win because it comes first in the table.
	l := newListing("iPhone 15 Pro Max 256GB", "vendo por no usarlo, impecable", 300, "S1")
	got := s.Score(l, neutralStats())

	if got.Score != 95 {
		t.Fatalf("Score = %d; want 95 (300 < 0.4×900)", got.Score)
	}
	if !strings.Contains(got.Reasons[0], "15 pro max") {
		t.Errorf("Reasons[0] = %q; want mention of %q", got.Reasons[0], "15 pro max")
	}
}

func TestReferencePriceTiers(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())

	tests := []struct {
		name      string
		price     float64
		wantScore int
	}{
		{"impossible", 300, 95}, // < 0.4 × 900
		{"very low", 500, 60},   // < 0.6 × 900
		{"plausible", 700, 0},
	}

	for _, tt := range tests {
		l := newListing("iphone 15 pro max", "telefono en perfecto estado", tt.price, "S1")
		got := s.Score(l, neutralStats())
		if got.Score != tt.wantScore {
			t.Errorf("%s (%.0f€): Score = %d; want %d", tt.name, tt.price, got.Score, tt.wantScore)
		}
	}
}

func TestMedianFallbackWhenNoReferenceMatch(t *testing.T) {
	cfg := RuleConfig{
		ReferenceTable:    []ReferenceEntry{{"iphone 15", 600}},
		MassSellerMin:     3,
		MinDescriptionLen: 15,
	}
	s := NewScorer(cfg)

	l := newListing("iphone 13 128gb", "telefono en perfecto estado", 80, "S1")
	got := s.Score(l, &models.BatchStats{MedianPrice: 450, SellerCounts: map[string]int{}})

	if got.Score != 40 {
		t.Fatalf("Score = %d; want 40 (80 < 0.4×450)", got.Score)
	}
	if !strings.Contains(got.Reasons[0], "450") {
		t.Errorf("Reasons[0] = %q; want it to cite the batch median 450", got.Reasons[0])
	}
}

func TestPhoneNumberRule(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())

	tests := []struct {
		desc string
		want bool
	}{
		{"llama al 612345678", true},
		{"llama al 612 34 56 78", true},
		{"contacto: 698-76-54-32", true},
		{"mi numero es 712.345.678", true},
		{"precio 600 euros, como nuevo", false},
		{"pantalla de 6.1 pulgadas intacta", false},
	}

	for _, tt := range tests {
		l := newListing("iphone 13", tt.desc, 400, "S1")
		got := s.Score(l, neutralStats())
		triggered := false
		for _, r := range got.Reasons {
			if strings.Contains(r, "phone number") {
				triggered = true
			}
		}
		if triggered != tt.want {
			t.Errorf("phone rule on %q: triggered = %v; want %v", tt.desc, triggered, tt.want)
		}
	}
}

func TestCriticalKeywordsScoreFlat(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing("iphone 13 con caja",
		"pago por bizum o transferencia, hablamos por whatsapp desde aqui",
		400, "S1")

	got := s.Score(l, neutralStats())
	if got.Score != 50 {
		t.Errorf("Score = %d; want flat 50 however many critical terms match", got.Score)
	}
	if len(got.Keywords) != 3 {
		t.Errorf("Keywords = %v; want the 3 distinct matched terms", got.Keywords)
	}
}

func TestSuspiciousKeywordsAccumulate(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing("iphone 13", "urgente, movil bloqueado de icloud", 400, "S1")

	got := s.Score(l, neutralStats())
	if got.Score != 45 {
		t.Errorf("Score = %d; want 45 (3 suspicious keywords × 15)", got.Score)
	}
	if len(got.Reasons) != 1 {
		t.Errorf("Reasons = %v; want a single reason listing all matched terms", got.Reasons)
	}
}

func TestMassSellerRuleAppliesToEveryListing(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	stats := &models.BatchStats{MedianPrice: 450, SellerCounts: map[string]int{"S9": 3}}

	for i := 0; i < 3; i++ {
		l := newListing("iphone 13", "telefono en buen estado, funciona perfecto", 400, "S9")
		got := s.Score(l, stats)
		if got.Score != 25 {
			t.Errorf("listing %d: Score = %d; want 25 for a mass seller", i, got.Score)
		}
		if !strings.Contains(got.Reasons[0], "mass seller (3 items)") {
			t.Errorf("listing %d: Reasons[0] = %q; want mass-seller reason", i, got.Reasons[0])
		}
	}
}

func TestShortDescriptionRule(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing("iphone 13", "ok", 400, "S1")

	got := s.Score(l, neutralStats())
	if got.Score != 10 {
		t.Errorf("Score = %d; want 10 for an insufficient description", got.Score)
	}
}

func TestSuspiciousListingEndToEnd(t *testing.T) {
	s := NewScorer(DefaultRuleConfig())
	l := newListing("iphone 13", "urgente, solo whatsapp", 80, "S1")
	stats := &models.BatchStats{MedianPrice: 450, SellerCounts: map[string]int{"S1": 1}}

	got := s.Score(l, stats)
	// 95 (price vs "iphone 13" reference) + 50 (whatsapp) + 15 (urgente),
	// clamped to 100.
	if got.Score != 100 {
		t.Fatalf("Score = %d; want 100", got.Score)
	}
	if got.Score < 40 {
		t.Error("listing must clear the default risk threshold")
	}
	if len(got.Reasons) != 3 {
		t.Errorf("Reasons = %v; want 3 in rule order", got.Reasons)
	}
	if !strings.Contains(got.Reasons[0], "iphone 13") {
		t.Errorf("Reasons[0] = %q; want the price rule first", got.Reasons[0])
	}
}
