package marketdata

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLabels returns short month names for the six calendar months ending
// at the month of now, oldest first.
func MonthLabels(now time.Time) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	labels := make([]string, PointCount)
	for i := 0; i < PointCount; i++ {
		labels[i] = first.AddDate(0, i-(PointCount-1), 0).Format("Jan")
	}
	return labels
}

// ChunkByIndex splits items into n contiguous index ranges. The split is
// positional only; listing dates are ignored. Chunks may be empty when
// len(items) < n.
func ChunkByIndex[T any](items []T, n int) [][]T {
	chunks := make([][]T, n)
	for i := 0; i < n; i++ {
		lo := i * len(items) / n
		hi := (i + 1) * len(items) / n
		chunks[i] = items[lo:hi]
	}
	return chunks
}

// Median sorts a copy of values. Even counts average the two middle values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Average is the floored arithmetic mean.
func Average(values []float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Floor().IntPart()
}

// ListingInventory approximates months of supply from a listing count.
func ListingInventory(count int) float64 {
	return Round1(float64(count) / 100 * 1.5)
}

// DaysOnMarketInventory approximates months of supply from average days on market.
func DaysOnMarketInventory(avgDays float64) float64 {
	return Round1(avgDays / 30 * 1.5)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
