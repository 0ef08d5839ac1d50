package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	engine := NewRouter(testDependencies(t))

	w := serve(engine, http.MethodGet, "/health", nil, map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = serve(engine, http.MethodGet, "/health", nil, nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestSecurityHeaders(t *testing.T) {
	w := serve(NewRouter(testDependencies(t)), http.MethodGet, "/health", nil, nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	engine := NewRouter(testDependencies(t))

	w := serve(engine, http.MethodOptions, "/api/market-trends", nil, map[string]string{
		"Origin":                        "https://www.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://www.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(engine, http.MethodGet, "/api/market-trends", nil, map[string]string{
		"Origin": "https://evil.example.net",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSConfig_Wildcard(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"https://a.example.com", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowOrigins)
}

func (i *IPRateLimiter) tracked() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	now := testNow
	limiter := NewIPRateLimiter(1, 1, nil)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.limiter("203.0.113.1").Allow())
	assert.False(t, limiter.limiter("203.0.113.1").Allow())
	assert.True(t, limiter.limiter("203.0.113.2").Allow())
	assert.Equal(t, 2, limiter.tracked())

	now = now.Add(5 * time.Minute)
	limiter.limiter("203.0.113.2")
	assert.Equal(t, 2, limiter.tracked(), "nothing is idle long enough yet")

	now = now.Add(limiterIdleTTL)
	limiter.limiter("203.0.113.3")
	assert.Equal(t, 1, limiter.tracked())

	// an evicted client starts over with a full bucket
	assert.True(t, limiter.limiter("203.0.113.1").Allow())
	assert.Equal(t, 2, limiter.tracked())
}
