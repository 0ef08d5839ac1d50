package marketdata

import (
	"context"
	"fmt"
	"time"

	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached series counts as fresh.
const DefaultTTL = 30 * time.Minute

// Archiver receives a Snapshot for every fresh fetch.
type Archiver interface {
	IndexDocument(ctx context.Context, index string, doc interface{}) error
}

type Options struct {
	Sources      []Source
	Store        Store
	Logger       logger.Logger
	Area         string
	TTL          time.Duration
	Now          func() time.Time
	Archiver     Archiver
	ArchiveIndex string
}

// Aggregator serves the market series from cache or from the first
// source in the chain that answers.
type Aggregator struct {
	sources      []Source
	store        Store
	logger       logger.Logger
	area         string
	ttl          time.Duration
	now          func() time.Time
	archiver     Archiver
	archiveIndex string

	// refreshes collapses concurrent chain walks into one.
	refreshes singleflight.Group
}

func NewAggregator(opts Options) *Aggregator {
	a := &Aggregator{
		sources:      opts.Sources,
		store:        opts.Store,
		logger:       opts.Logger,
		area:         opts.Area,
		ttl:          opts.TTL,
		now:          opts.Now,
		archiver:     opts.Archiver,
		archiveIndex: opts.ArchiveIndex,
	}
	if a.store == nil {
		a.store = NewMemoryStore()
	}
	if a.logger == nil {
		a.logger = logger.NewNoOpLogger()
	}
	if a.ttl <= 0 {
		a.ttl = DefaultTTL
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.archiveIndex == "" {
		a.archiveIndex = "market-snapshots"
	}
	a.logger = a.logger.WithFields(map[string]interface{}{"component": "market-data"})
	return a
}

// Get never fails: it returns the cached series, a freshly fetched one, the
// last cached series however stale, or the static dataset, in that order.
func (a *Aggregator) Get(ctx context.Context, forceRefresh bool) *Result {
	if !forceRefresh {
		now := a.now()
		if entry := a.load(ctx); entry.Fresh(now, a.ttl) {
			metrics.MarketCacheLookups.WithLabelValues("hit").Inc()
			return a.result(entry, now)
		}
		metrics.MarketCacheLookups.WithLabelValues("miss").Inc()
	}

	// The walk is shared and its result cached, so it outlives the caller.
	walkCtx := context.WithoutCancel(ctx)
	v, _, shared := a.refreshes.Do("refresh", func() (interface{}, error) {
		return a.refresh(walkCtx), nil
	})
	res := v.(*Result)
	if shared {
		return res.clone()
	}
	return res
}

// Invalidate empties the cache slot.
func (a *Aggregator) Invalidate(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *Aggregator) Sources() []Source {
	return a.sources
}

func (a *Aggregator) AvailableSources() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		if s.Available() {
			names = append(names, s.Name())
		}
	}
	return names
}

// IsRealTime reports whether any live provider is configured.
func (a *Aggregator) IsRealTime() bool {
	for _, s := range a.sources {
		if s.RealTime() && s.Available() {
			return true
		}
	}
	return false
}

func (a *Aggregator) refresh(ctx context.Context) *Result {
	for _, src := range a.sources {
		name := src.Name()
		if !src.Available() {
			metrics.MarketSourceAttempts.WithLabelValues(name, "skipped").Inc()
			continue
		}

		start := time.Now()
		points, err := src.Fetch(ctx)
		metrics.MarketSourceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err == nil && len(points) != PointCount {
			err = errWrongLength(len(points))
		}
		if err != nil {
			metrics.MarketSourceAttempts.WithLabelValues(name, "error").Inc()
			a.logger.Warn("Market data source failed", map[string]interface{}{
				"source": name,
				"error":  err.Error(),
			})
			continue
		}
		metrics.MarketSourceAttempts.WithLabelValues(name, "success").Inc()

		entry := CacheEntry{Data: points, Source: name, Timestamp: a.now()}
		if err := a.store.Save(ctx, entry); err != nil {
			a.logger.Warn("Failed to cache market data", map[string]interface{}{
				"source": name,
				"error":  err.Error(),
			})
		}
		a.archive(ctx, entry)

		a.logger.Info("Market data refreshed", map[string]interface{}{"source": name})
		return a.result(&entry, entry.Timestamp)
	}

	now := a.now()
	if entry := a.load(ctx); entry != nil && len(entry.Data) == PointCount {
		a.logger.Warn("All market data sources failed, serving last cached data", map[string]interface{}{
			"source":   entry.Source,
			"cacheAge": entry.Age(now).Milliseconds(),
		})
		return a.result(entry, now)
	}

	a.logger.Error("All market data sources failed, serving static data", nil)
	return &Result{
		Data:     StaticData(now),
		Metadata: a.metadata(FallbackSource, now, now),
	}
}

// load treats an unreadable cache as empty.
func (a *Aggregator) load(ctx context.Context) *CacheEntry {
	entry, err := a.store.Load(ctx)
	if err != nil {
		metrics.MarketCacheLookups.WithLabelValues("error").Inc()
		a.logger.Warn("Market data cache unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return entry
}

func (a *Aggregator) archive(ctx context.Context, entry CacheEntry) {
	if a.archiver == nil {
		return
	}
	snap := Snapshot{
		Area:      a.area,
		Source:    entry.Source,
		FetchedAt: entry.Timestamp.UTC(),
		Data:      entry.Data,
	}
	if err := a.archiver.IndexDocument(ctx, a.archiveIndex, snap); err != nil {
		a.logger.Warn("Failed to archive market snapshot", map[string]interface{}{
			"index": a.archiveIndex,
			"error": err.Error(),
		})
	}
}

func (a *Aggregator) result(entry *CacheEntry, now time.Time) *Result {
	return &Result{
		Data:     append([]DataPoint(nil), entry.Data...),
		Metadata: a.metadata(entry.Source, entry.Timestamp, now),
	}
}

func (a *Aggregator) metadata(source string, updated, now time.Time) Metadata {
	return Metadata{
		Area:             a.area,
		LastUpdated:      updated.UnixMilli(),
		Source:           source,
		CacheAge:         now.Sub(updated).Milliseconds(),
		IsRealTime:       a.IsRealTime(),
		AvailableSources: a.AvailableSources(),
	}
}

func (r *Result) clone() *Result {
	cp := *r
	cp.Data = append([]DataPoint(nil), r.Data...)
	cp.Metadata.AvailableSources = append([]string(nil), r.Metadata.AvailableSources...)
	return &cp
}

func errWrongLength(n int) error {
	return fmt.Errorf("source returned %d points, want %d", n, PointCount)
}
