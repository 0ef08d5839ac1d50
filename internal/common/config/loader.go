package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the plain environment variable names the
// marketing site has always used alongside the prefixed viper keys.
func overrideEmptyConfig(cfg *Config) {
	fromEnv(&cfg.MarketData.Providers.RentSpree.APIKey, "RENTSPREE_API_KEY")
	fromEnv(&cfg.MarketData.Providers.RapidAPI.APIKey, "RAPIDAPI_KEY")
	fromEnv(&cfg.MarketData.Providers.Zillow.APIKey, "ZILLOW_API_KEY")
	fromEnv(&cfg.MarketData.Providers.Realtor.APIKey, "REALTOR_API_KEY")
	fromEnv(&cfg.MarketData.Providers.MLS.APIKey, "MLS_API_KEY")
	fromEnv(&cfg.MarketData.Providers.MLS.BaseURL, "MLS_API_ENDPOINT")

	fromEnv(&cfg.CRM.APIKey, "GHL_API_KEY")
	fromEnv(&cfg.CRM.LocationID, "GHL_LOCATION_ID")
	fromEnv(&cfg.CRM.WebhookSecret, "GHL_WEBHOOK_SECRET")

	fromEnv(&cfg.Database.Postgres.User, "DB_USER")
	fromEnv(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func fromEnv(target *string, name string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(name); val != "" {
		*target = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketing-api"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":3000"
	}
	if cfg.HTTP.MetricsAddress == "" {
		cfg.HTTP.MetricsAddress = ":8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15000
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30000
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30000
	}
	if cfg.HTTP.LeadRatePerMinute == 0 {
		cfg.HTTP.LeadRatePerMinute = 10
	}
	if cfg.HTTP.LeadRateBurst == 0 {
		cfg.HTTP.LeadRateBurst = 5
	}

	if cfg.MarketData.Area == "" {
		cfg.MarketData.Area = "Austin, TX"
	}
	if cfg.MarketData.CacheTTL == 0 {
		cfg.MarketData.CacheTTL = 30 * 60 * 1000
	}
	if cfg.MarketData.CacheBackend == "" {
		cfg.MarketData.CacheBackend = "memory"
	}
	if cfg.MarketData.CacheRetention == 0 {
		cfg.MarketData.CacheRetention = 24 * 60 * 60 * 1000
	}
	if cfg.MarketData.Timeout == 0 {
		cfg.MarketData.Timeout = 10000
	}
	if cfg.MarketData.ArchiveIndex == "" {
		cfg.MarketData.ArchiveIndex = "market-snapshots"
	}

	if cfg.CRM.BaseURL == "" {
		cfg.CRM.BaseURL = "https://services.leadconnectorhq.com"
	}
	if cfg.CRM.APIVersion == "" {
		cfg.CRM.APIVersion = "2021-07-28"
	}
	if cfg.CRM.Timeout == 0 {
		cfg.CRM.Timeout = 15000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Kafka.LeadEventsTopic == "" {
		cfg.Kafka.LeadEventsTopic = "lead-events"
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.MarketData.CacheBackend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when market_data.cache_backend is redis")
		}
	default:
		return fmt.Errorf("market_data.cache_backend must be memory or redis, got %q", cfg.MarketData.CacheBackend)
	}

	if cfg.MarketData.CacheTTL < 0 {
		return fmt.Errorf("market_data.cache_ttl must be positive")
	}

	if mls := cfg.MarketData.Providers.MLS; mls.BaseURL != "" && !strings.HasPrefix(mls.BaseURL, "http") {
		return fmt.Errorf("market_data.providers.mls.base_url must be an http(s) URL")
	}

	if cfg.CRM.APIKey != "" && cfg.CRM.LocationID == "" {
		return fmt.Errorf("crm.location_id is required when crm.api_key is set")
	}

	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email alerts are enabled")
	}
	if cfg.Notifications.SMS.Enabled && cfg.Notifications.SMS.SalesPhone == "" {
		return fmt.Errorf("notifications.sms.sales_phone is required when sms alerts are enabled")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
