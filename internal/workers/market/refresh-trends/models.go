package refreshtrends

import (
	"context"

	"marketing-api/internal/common/logger"
	"marketing-api/internal/marketdata"
)

type Input struct {
	// Force bypasses the cache; a job without the variable refreshes.
	Force bool `json:"force"`
}

type Output struct {
	Result *marketdata.Result
}

func (o *Output) Variables() map[string]interface{} {
	md := o.Result.Metadata
	return map[string]interface{}{
		"marketSource":      md.Source,
		"marketLastUpdated": md.LastUpdated,
		"marketIsRealTime":  md.IsRealTime,
		"marketData":        o.Result.Data,
	}
}

type MarketService interface {
	Get(ctx context.Context, forceRefresh bool) *marketdata.Result
}

type ServiceDependencies struct {
	Market MarketService
	Logger logger.Logger
}
