package marketdata

import "time"

// PointCount is the length of every series the aggregator hands out.
const PointCount = 6

// FallbackSource is reported when no source and no cache entry produced data.
const FallbackSource = "fallback"

// DataPoint is one month of market statistics.
type DataPoint struct {
	Month     string   `json:"month"`
	Price     int64    `json:"price"`
	Inventory float64  `json:"inventory"`
	Sales     int      `json:"sales"`
	Area      string   `json:"area,omitempty"`
	Growth    *float64 `json:"growth,omitempty"`
	Volume    *int64   `json:"volume,omitempty"`
}

type Metadata struct {
	Area             string   `json:"area"`
	LastUpdated      int64    `json:"lastUpdated"`
	Source           string   `json:"source"`
	CacheAge         int64    `json:"cacheAge"`
	IsRealTime       bool     `json:"isRealTime"`
	AvailableSources []string `json:"availableSources"`
}

type Result struct {
	Data     []DataPoint `json:"data"`
	Metadata Metadata    `json:"metadata"`
}

// CacheEntry is what a Store keeps: the series, who produced it and when.
type CacheEntry struct {
	Data      []DataPoint `json:"data"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
}

// Age is measured against the caller's clock, never the store's.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && len(e.Data) == PointCount && e.Age(now) < ttl
}

// Snapshot is the document archived for every fresh fetch.
type Snapshot struct {
	Area      string      `json:"area"`
	Source    string      `json:"source"`
	FetchedAt time.Time   `json:"fetchedAt"`
	Data      []DataPoint `json:"data"`
}
