package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: marketing-api
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Address)
	assert.Equal(t, "memory", cfg.MarketData.CacheBackend)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.MarketData.CacheTTL))
	assert.Equal(t, 10*time.Second, GetDuration(cfg.MarketData.Timeout))
	assert.Equal(t, "2021-07-28", cfg.CRM.APIVersion)
	assert.Equal(t, "https://services.leadconnectorhq.com", cfg.CRM.BaseURL)
	assert.Equal(t, "lead-events", cfg.Kafka.LeadEventsTopic)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.CRM.Enabled())
	assert.False(t, cfg.Database.Postgres.Enabled())
}

func TestLoadFromFile_ProviderKeysFromEnvironment(t *testing.T) {
	t.Setenv("RENTSPREE_API_KEY", "rs-key")
	t.Setenv("RAPIDAPI_KEY", "rapid-key")
	t.Setenv("MLS_API_KEY", "mls-key")
	t.Setenv("MLS_API_ENDPOINT", "https://mls.example.com")

	path := writeConfig(t, `
market_data:
  providers:
    zillow:
      api_key: from-file
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	p := cfg.MarketData.Providers
	assert.Equal(t, "rs-key", p.RentSpree.APIKey)
	assert.Equal(t, "rapid-key", p.RapidAPI.APIKey)
	assert.Equal(t, "from-file", p.Zillow.APIKey)
	assert.Empty(t, p.Realtor.APIKey)
	assert.Equal(t, "mls-key", p.MLS.APIKey)
	assert.Equal(t, "https://mls.example.com", p.MLS.BaseURL)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_CRM_SECRET", "whsec")

	path := writeConfig(t, `
crm:
  location_id: loc-1
  api_key: key-1
  webhook_secret: ${TEST_CRM_SECRET}
  pipelines:
    demos_pipeline: pipe-demo
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "whsec", cfg.CRM.WebhookSecret)
	assert.Equal(t, "pipe-demo", cfg.CRM.Pipelines.DemosPipeline)
	assert.True(t, cfg.CRM.Enabled())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name: "redis backend without address",
			body: `
market_data:
  cache_backend: redis
`,
			errMsg: "database.redis.address is required",
		},
		{
			name: "unknown cache backend",
			body: `
market_data:
  cache_backend: memcached
`,
			errMsg: "cache_backend must be memory or redis",
		},
		{
			name: "crm key without location",
			body: `
crm:
  api_key: key-only
`,
			errMsg: "crm.location_id is required",
		},
		{
			name: "email alerts without sender",
			body: `
notifications:
  email:
    enabled: true
`,
			errMsg: "from_email is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWorkerConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
workers:
  lead-booking-route:
    enabled: true
  lead-contact-route:
    enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	wc := GetWorkerConfig(cfg, "lead-booking-route")
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, 3, wc.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "lead-contact-route"))
	assert.True(t, IsWorkerEnabled(cfg, "market-trends-refresh"))
}
