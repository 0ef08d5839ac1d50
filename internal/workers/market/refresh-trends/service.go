package refreshtrends

import (
	"context"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/logger"
)

type Service struct {
	market MarketService
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{market: deps.Market, logger: deps.Logger}
}

// Execute never fails once a market service is wired: the aggregator
// degrades to cached, synthetic or static data on its own.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.market == nil {
		return nil, errors.NewBusinessRuleError("market data unavailable", "market service is not configured")
	}

	res := s.market.Get(ctx, input.Force)
	s.logger.Info("Market trends refreshed", map[string]interface{}{
		"source":     res.Metadata.Source,
		"isRealTime": res.Metadata.IsRealTime,
		"points":     len(res.Data),
	})
	return &Output{Result: res}, nil
}
