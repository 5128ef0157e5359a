package services

import (
	"sort"

	"wallapop-scanner/models"
)

// ComputeBatchStats derives the statistics one fetch cycle is scored
// against: the median of all real prices in the batch and how many listings
// each seller posted. Prices at or below noiseFloor are data artifacts
// (free/placeholder listings), not offers, and are excluded from the
// median; seller counts cover the entire batch regardless of price.
//
// Pure function: an empty batch yields the fallback median and an empty
// seller map.
func ComputeBatchStats(listings []*models.Listing, noiseFloor, fallbackMedian float64) *models.BatchStats {
	stats := &models.BatchStats{
		MedianPrice:  fallbackMedian,
		SellerCounts: make(map[string]int),
	}

	var prices []float64
	for _, l := range listings {
		if l.Price.Amount > noiseFloor {
			prices = append(prices, l.Price.Amount)
		}
		if l.UserID != "" {
			stats.SellerCounts[l.UserID]++
		}
	}

	if len(prices) > 0 {
		stats.MedianPrice = median(prices)
	}

	return stats
}

// median returns the statistical median, averaging the two middle values
// for even-sized inputs.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
