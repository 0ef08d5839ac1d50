// Package app wires configuration into the market data and lead routing
// services shared by the API server, the worker manager and marketctl.
package app

import (
	"context"
	"fmt"
	"time"

	"marketing-api/internal/api"
	"marketing-api/internal/common/aws"
	"marketing-api/internal/common/config"
	"marketing-api/internal/common/database"
	"marketing-api/internal/common/ghl"
	httpclient "marketing-api/internal/common/http"
	"marketing-api/internal/common/kafka"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/observability"
	"marketing-api/internal/leads"
	"marketing-api/internal/marketdata"
)

const CacheBackendRedis = "redis"

type Services struct {
	Market   *marketdata.Aggregator
	Leads    *leads.Router
	CRM      *ghl.Client
	Ledger   *leads.PostgresLedger
	Producer *kafka.Producer
	Checks   map[string]api.Check

	closers []func() error
	logger  logger.Logger
}

// Options tune Build. The zero value connects with a single attempt.
type Options struct {
	Attempts     int
	InitialDelay time.Duration
	Now          func() time.Time
}

// Build connects every backend the configuration enables. Optional backends
// that are not configured are skipped; configured ones that cannot be reached
// fail the build.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability, opts Options) (*Services, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Services{Checks: map[string]api.Check{}, logger: log}

	store, err := s.cacheStore(ctx, cfg, opts)
	if err != nil {
		s.Close()
		return nil, err
	}

	var archiver marketdata.Archiver
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			s.Close()
			return nil, err
		}
		err = Retry(ctx, opts.Attempts, opts.InitialDelay, log, "Elasticsearch connection", es.Ping)
		if err != nil {
			s.Close()
			return nil, err
		}
		archiver = es
		s.Checks["elasticsearch"] = es.Ping
	}

	area := cfg.MarketData.Area
	client := httpclient.NewClient(config.GetDuration(cfg.MarketData.Timeout))
	sources := marketdata.BuildSources(cfg.MarketData, marketdata.SourceDependencies{
		Client: client,
		Area:   area,
		Now:    opts.Now,
		Logger: log,
	}, marketdata.NewSyntheticSource(opts.Now, nil))

	s.Market = marketdata.NewAggregator(marketdata.Options{
		Sources:      sources,
		Store:        store,
		Logger:       log,
		Area:         area,
		TTL:          config.GetDuration(cfg.MarketData.CacheTTL),
		Now:          opts.Now,
		Archiver:     archiver,
		ArchiveIndex: cfg.MarketData.ArchiveIndex,
	})

	if err := s.buildLeads(ctx, cfg, obs, opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Services) cacheStore(ctx context.Context, cfg *config.Config, opts Options) (marketdata.Store, error) {
	if cfg.MarketData.CacheBackend != CacheBackendRedis {
		return marketdata.NewMemoryStore(), nil
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	s.closers = append(s.closers, rdb.Close)
	if err := Retry(ctx, opts.Attempts, opts.InitialDelay, s.logger, "Redis connection", rdb.Ping); err != nil {
		return nil, err
	}
	s.Checks["redis"] = rdb.Ping

	return marketdata.NewRedisStore(rdb.Client, cfg.MarketData.Area, config.GetDuration(cfg.MarketData.CacheRetention)), nil
}

func (s *Services) buildLeads(ctx context.Context, cfg *config.Config, obs *observability.Observability, opts Options) error {
	if !cfg.CRM.Enabled() {
		s.logger.Warn("CRM not configured, lead routing disabled", nil)
		return nil
	}

	crmCfg := ghl.FromAppConfig(cfg.CRM)
	if err := crmCfg.Validate(); err != nil {
		return err
	}
	s.CRM = ghl.NewClient(crmCfg)
	s.Checks["crm"] = s.CRM.Ping

	deps := leads.Dependencies{
		CRM:    s.CRM,
		Config: crmCfg,
		Logger: s.logger,
		Tracer: obs.Tracer(),
		Now:    opts.Now,
	}

	if cfg.Database.Postgres.Enabled() {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, pg.Close)
		if err := Retry(ctx, opts.Attempts, opts.InitialDelay, s.logger, "PostgreSQL connection", pg.Ping); err != nil {
			return err
		}
		s.Ledger = leads.NewPostgresLedger(pg.DB)
		if err := s.Ledger.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare dispatch ledger: %w", err)
		}
		deps.Ledger = s.Ledger
		s.Checks["postgres"] = pg.Ping
	}

	if notifier, err := salesNotifier(ctx, cfg.Notifications); err != nil {
		return err
	} else if notifier != nil {
		deps.Notifier = notifier
	}

	if cfg.Kafka.Enabled() {
		s.Producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.LeadEventsTopic, s.logger)
		s.closers = append(s.closers, s.Producer.Close)
		deps.Events = s.Producer
	}

	s.Leads = leads.NewRouter(deps)
	return nil
}

func salesNotifier(ctx context.Context, cfg config.NotificationConfig) (*leads.SalesNotifier, error) {
	var (
		email leads.EmailSender
		sms   leads.SMSSender
	)
	if cfg.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.AWS.Region, cfg.Email.FromEmail)
		if err != nil {
			return nil, err
		}
		email = ses
	}
	if cfg.SMS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.AWS.Region, cfg.SMS.SenderID)
		if err != nil {
			return nil, err
		}
		sms = sns
	}
	if email == nil && sms == nil {
		return nil, nil
	}
	return leads.NewSalesNotifier(email, cfg.Email.SalesTeam, sms, cfg.SMS.SalesPhone), nil
}

// Close releases connections in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to close connection", map[string]interface{}{"error": err.Error()})
		}
	}
	s.closers = nil
}

// Retry runs op up to attempts times, doubling the delay between tries.
func Retry(ctx context.Context, attempts int, delay time.Duration, log logger.Logger, name string, op func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
