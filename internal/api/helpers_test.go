package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketing-api/internal/common/config"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/leads"
	"marketing-api/internal/marketdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)

type fakeMarket struct {
	result *marketdata.Result
	panics bool
	forced []bool
}

func (f *fakeMarket) Get(_ context.Context, forceRefresh bool) *marketdata.Result {
	f.forced = append(f.forced, forceRefresh)
	if f.panics {
		panic("provider exploded")
	}
	return f.result
}

type MockLeadRouter struct {
	mock.Mock
}

func (m *MockLeadRouter) HandleBooking(ctx context.Context, b leads.Booking) (*leads.Result, error) {
	args := m.Called(ctx, b)
	res, _ := args.Get(0).(*leads.Result)
	return res, args.Error(1)
}

func (m *MockLeadRouter) HandleContactForm(ctx context.Context, f leads.ContactForm) (*leads.Result, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).(*leads.Result)
	return res, args.Error(1)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Send(ctx context.Context, key string, event any) error {
	return m.Called(ctx, key, event).Error(0)
}

func testDependencies(t *testing.T) Dependencies {
	return Dependencies{
		App: config.AppConfig{Name: "marketing-api", Version: "test"},
		HTTP: config.HTTPConfig{
			AllowedOrigins:    []string{"https://www.example.com"},
			LeadRatePerMinute: 600,
			LeadRateBurst:     100,
		},
		Market: &fakeMarket{result: sampleResult()},
		Logger: logger.NewTestLogger(t),
		Now:    func() time.Time { return testNow },
	}
}

func sampleResult() *marketdata.Result {
	data := marketdata.StaticData(testNow)
	return &marketdata.Result{
		Data: data,
		Metadata: marketdata.Metadata{
			Area:             "Austin, TX",
			LastUpdated:      testNow.Add(-5 * time.Minute).UnixMilli(),
			Source:           marketdata.SourceRentSpree,
			CacheAge:         (5 * time.Minute).Milliseconds(),
			IsRealTime:       true,
			AvailableSources: []string{marketdata.SourceRentSpree, marketdata.SourceSynthetic},
		},
	}
}

func serve(engine http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}
