package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	MarketData    MarketDataConfig        `mapstructure:"market_data"`
	CRM           CRMConfig               `mapstructure:"crm"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Kafka         KafkaConfig             `mapstructure:"kafka"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address           string   `mapstructure:"address"`
	MetricsAddress    string   `mapstructure:"metrics_address"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	ReadTimeout       int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout      int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout   int      `mapstructure:"shutdown_timeout"` // milliseconds
	LeadRatePerMinute float64  `mapstructure:"lead_rate_per_minute"`
	LeadRateBurst     int      `mapstructure:"lead_rate_burst"`
}

// CacheRetention bounds how long a stale entry stays in Redis as the
// last-known-good fallback. Freshness is still decided by CacheTTL.
type MarketDataConfig struct {
	Area           string          `mapstructure:"area"`
	CacheTTL       int             `mapstructure:"cache_ttl"` // milliseconds
	CacheBackend   string          `mapstructure:"cache_backend"`
	CacheRetention int             `mapstructure:"cache_retention"` // milliseconds
	Timeout        int             `mapstructure:"timeout"`         // milliseconds
	ArchiveIndex   string          `mapstructure:"archive_index"`
	Providers      ProvidersConfig `mapstructure:"providers"`
}

type ProvidersConfig struct {
	RentSpree ProviderConfig `mapstructure:"rentspree"`
	RapidAPI  ProviderConfig `mapstructure:"rapidapi"`
	Zillow    ProviderConfig `mapstructure:"zillow"`
	Realtor   ProviderConfig `mapstructure:"realtor"`
	MLS       ProviderConfig `mapstructure:"mls"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Host    string `mapstructure:"host"`
}

type CRMConfig struct {
	LocationID    string             `mapstructure:"location_id"`
	APIKey        string             `mapstructure:"api_key"`
	WebhookSecret string             `mapstructure:"webhook_secret"`
	BaseURL       string             `mapstructure:"base_url"`
	APIVersion    string             `mapstructure:"api_version"`
	CalendarID    string             `mapstructure:"calendar_id"`
	Timeout       int                `mapstructure:"timeout"` // milliseconds
	Automations   CRMAutomations     `mapstructure:"automations"`
	Pipelines     CRMPipelines       `mapstructure:"pipelines"`
	CustomFields  CRMCustomFieldKeys `mapstructure:"custom_fields"`
}

// Enabled reports whether enough is configured to talk to the CRM.
func (c CRMConfig) Enabled() bool {
	return c.APIKey != "" && c.LocationID != ""
}

type CRMAutomations struct {
	DemoBookedWorkflow  string `mapstructure:"demo_booked_workflow"`
	ContactFormWorkflow string `mapstructure:"contact_form_workflow"`
	UrgentLeadWorkflow  string `mapstructure:"urgent_lead_workflow"`
}

type CRMPipelines struct {
	DemosPipeline    string `mapstructure:"demos_pipeline"`
	ContactsPipeline string `mapstructure:"contacts_pipeline"`
}

type CRMCustomFieldKeys struct {
	LeadScore string `mapstructure:"lead_score"`
	Source    string `mapstructure:"source"`
	Urgency   string `mapstructure:"urgency"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

func (p PostgresConfig) Enabled() bool {
	return p.Host != "" && p.Database != ""
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single URL shorthand
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

func (e ElasticsearchConfig) Enabled() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	LeadEventsTopic string   `mapstructure:"lead_events_topic"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.LeadEventsTopic != ""
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // for error handling
}

type NotificationConfig struct {
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		SalesTeam []string `mapstructure:"sales_team"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled    bool   `mapstructure:"enabled"`
		SalesPhone string `mapstructure:"sales_phone"`
		SenderID   string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
