package marketdata

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketing-api/internal/common/config"
	"marketing-api/internal/common/errors"
	httpclient "marketing-api/internal/common/http"
	"marketing-api/internal/common/logger"
)

// Source names, in priority order.
const (
	SourceRentSpree = "RentSpree"
	SourceRapidAPI  = "RapidAPI"
	SourceZillow    = "Zillow"
	SourceRealtor   = "Realtor"
	SourceMLS       = "MLS"
	SourceSynthetic = "Enhanced Mock Data"
)

// Source is one market data provider in the fallback chain.
type Source interface {
	Name() string
	// Available reports whether the source is configured. Unavailable
	// sources are skipped without being called.
	Available() bool
	// RealTime is true for sources backed by a live provider.
	RealTime() bool
	Fetch(ctx context.Context) ([]DataPoint, error)
}

// SourceDependencies are shared by every HTTP source.
type SourceDependencies struct {
	Client *httpclient.Client
	Area   string
	Now    func() time.Time
	Logger logger.Logger
}

// HTTPSource fetches one provider endpoint and runs its transform.
type HTTPSource struct {
	name      string
	url       string
	headers   map[string]string
	available bool
	transform Transform
	deps      SourceDependencies
}

func (s *HTTPSource) Name() string    { return s.name }
func (s *HTTPSource) Available() bool { return s.available }
func (s *HTTPSource) RealTime() bool  { return true }

// URL is the request URL the source will call.
func (s *HTTPSource) URL() string { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]DataPoint, error) {
	raw, status, err := s.deps.Client.DoJSON(ctx, http.MethodGet, s.url, s.headers, nil)
	if err != nil {
		var netErr net.Error
		if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
			return nil, errors.NewMarketSourceTimeoutError(s.name)
		}
		return nil, errors.NewMarketSourceFailedError(s.name, err).WithMetadata("status", status)
	}

	points, fellBack, err := s.transform(raw, s.deps.Now(), s.deps.Area)
	if err != nil {
		return nil, errors.NewMarketSourceFailedError(s.name, err)
	}
	if fellBack {
		s.deps.Logger.Warn("Provider response missing expected data, using static dataset", map[string]interface{}{
			"source": s.name,
		})
	}
	return points, nil
}

// BuildSources returns the full chain in priority order. The synthetic
// source is always last.
func BuildSources(cfg config.MarketDataConfig, deps SourceDependencies, synthetic *SyntheticSource) []Source {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	p := cfg.Providers
	return []Source{
		NewRentSpreeSource(p.RentSpree, deps),
		NewRapidAPISource(p.RapidAPI, deps),
		NewZillowSource(p.Zillow, deps),
		NewRealtorSource(p.Realtor, deps),
		NewMLSSource(p.MLS, deps),
		synthetic,
	}
}

func NewRentSpreeSource(cfg config.ProviderConfig, deps SourceDependencies) *HTTPSource {
	base := baseURL(cfg, "https://api.rentspree.com/v1")
	q := url.Values{}
	q.Set("area", deps.Area)
	return &HTTPSource{
		name:      SourceRentSpree,
		url:       base + "/market-trends?" + q.Encode(),
		headers:   bearer(cfg.APIKey),
		available: cfg.APIKey != "",
		transform: TransformRentSpree,
		deps:      deps,
	}
}

func NewRapidAPISource(cfg config.ProviderConfig, deps SourceDependencies) *HTTPSource {
	host := orDefault(cfg.Host, "us-real-estate.p.rapidapi.com")
	city, state := SplitArea(deps.Area)
	q := url.Values{}
	q.Set("city", city)
	q.Set("state_code", state)
	q.Set("limit", "60")
	return &HTTPSource{
		name:      SourceRapidAPI,
		url:       baseURL(cfg, "https://"+host) + "/v2/for-sale?" + q.Encode(),
		headers:   rapidAPI(cfg.APIKey, host),
		available: cfg.APIKey != "",
		transform: TransformListings,
		deps:      deps,
	}
}

func NewZillowSource(cfg config.ProviderConfig, deps SourceDependencies) *HTTPSource {
	host := orDefault(cfg.Host, "zillow-com1.p.rapidapi.com")
	q := url.Values{}
	q.Set("location", deps.Area)
	q.Set("status_type", "RecentlySold")
	return &HTTPSource{
		name:      SourceZillow,
		url:       baseURL(cfg, "https://"+host) + "/propertyExtendedSearch?" + q.Encode(),
		headers:   rapidAPI(cfg.APIKey, host),
		available: cfg.APIKey != "",
		transform: TransformZestimates,
		deps:      deps,
	}
}

func NewRealtorSource(cfg config.ProviderConfig, deps SourceDependencies) *HTTPSource {
	host := orDefault(cfg.Host, "realtor.p.rapidapi.com")
	city, state := SplitArea(deps.Area)
	q := url.Values{}
	q.Set("city", city)
	q.Set("state_code", state)
	q.Set("limit", "60")
	q.Set("offset", "0")
	return &HTTPSource{
		name:      SourceRealtor,
		url:       baseURL(cfg, "https://"+host) + "/properties/v2/list-for-sale?" + q.Encode(),
		headers:   rapidAPI(cfg.APIKey, host),
		available: cfg.APIKey != "",
		transform: TransformListings,
		deps:      deps,
	}
}

// NewMLSSource needs both the key and the endpoint to be available.
func NewMLSSource(cfg config.ProviderConfig, deps SourceDependencies) *HTTPSource {
	q := url.Values{}
	q.Set("area", deps.Area)
	return &HTTPSource{
		name:      SourceMLS,
		url:       strings.TrimRight(cfg.BaseURL, "/") + "/market/stats?" + q.Encode(),
		headers:   bearer(cfg.APIKey),
		available: cfg.APIKey != "" && cfg.BaseURL != "",
		transform: TransformMLS,
		deps:      deps,
	}
}

// SplitArea turns "Austin, TX" into ("Austin", "TX").
func SplitArea(area string) (string, string) {
	city, state, _ := strings.Cut(area, ",")
	return strings.TrimSpace(city), strings.TrimSpace(state)
}

func baseURL(cfg config.ProviderConfig, def string) string {
	return strings.TrimRight(orDefault(cfg.BaseURL, def), "/")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func bearer(key string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + key}
}

func rapidAPI(key, host string) map[string]string {
	return map[string]string{
		"X-RapidAPI-Key":  key,
		"X-RapidAPI-Host": host,
	}
}
