package marketdata

import "time"

// Defaults applied when a provider entry lacks a numeric field.
const (
	DefaultPrice     int64   = 500000
	DefaultInventory float64 = 1.5
	DefaultSales     int     = 200
)

var staticSeries = [PointCount]struct {
	price     int64
	inventory float64
	sales     int
}{
	{price: 485000, inventory: 2.1, sales: 182},
	{price: 491000, inventory: 1.9, sales: 196},
	{price: 498500, inventory: 1.8, sales: 211},
	{price: 504000, inventory: 1.7, sales: 224},
	{price: 511500, inventory: 1.6, sales: 238},
	{price: 518000, inventory: 1.5, sales: 251},
}

// StaticData is the fixed dataset used both as the per-transform fallback
// and as the last resort when nothing else is available. Month labels are
// the six months ending at now.
func StaticData(now time.Time) []DataPoint {
	labels := MonthLabels(now)
	out := make([]DataPoint, PointCount)
	for i, s := range staticSeries {
		out[i] = DataPoint{
			Month:     labels[i],
			Price:     s.price,
			Inventory: s.inventory,
			Sales:     s.sales,
		}
	}
	return out
}
