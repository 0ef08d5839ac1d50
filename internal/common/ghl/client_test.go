package ghl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketing-api/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		LocationID: "loc-1",
		APIKey:     "key-1",
		BaseURL:    baseURL,
		APIVersion: DefaultAPIVersion,
		CalendarID: "cal-1",
		Timeout:    5 * time.Second,
		Automations: Automations{
			DemoBookedWorkflow:  "wf-demo",
			ContactFormWorkflow: "wf-contact",
			UrgentLeadWorkflow:  "wf-urgent",
		},
		Pipelines: Pipelines{
			DemosPipeline:    "pipe-demo",
			ContactsPipeline: "pipe-contact",
		},
	}
}

func assertAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
	assert.Equal(t, DefaultAPIVersion, r.Header.Get("Version"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig("https://services.leadconnectorhq.com")
	require.NoError(t, cfg.Validate())

	missing := cfg
	missing.Pipelines.DemosPipeline = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DemosPipeline")

	badURL := cfg
	badURL.BaseURL = "not a url"
	assert.Error(t, badURL.Validate())
}

func TestClient_UpsertContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/upsert", r.URL.Path)
		assertAuthHeaders(t, r)

		var c Contact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		assert.Equal(t, "loc-1", c.LocationID)
		assert.Equal(t, "Jane", c.FirstName)
		assert.Equal(t, []string{"Demo Booked"}, c.Tags)
		require.Len(t, c.CustomFields, 1)
		assert.Equal(t, "cf-score", c.CustomFields[0].ID)

		_, _ = w.Write([]byte(`{"new":true,"contact":{"id":"contact-1"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	id, created, err := client.UpsertContact(context.Background(), Contact{
		FirstName:    "Jane",
		Email:        "jane@example.com",
		Tags:         []string{"Demo Booked"},
		CustomFields: []CustomField{{ID: "cf-score", Value: 85}},
	})

	require.NoError(t, err)
	assert.Equal(t, "contact-1", id)
	assert.True(t, created)
}

func TestClient_CreateOpportunity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/opportunities/", r.URL.Path)
		var o Opportunity
		require.NoError(t, json.NewDecoder(r.Body).Decode(&o))
		assert.Equal(t, "open", o.Status)
		assert.Equal(t, 50000, o.MonetaryValue)
		assert.Equal(t, "pipe-demo", o.PipelineID)
		_, _ = w.Write([]byte(`{"opportunity":{"id":"opp-1"}}`))
	}))
	defer srv.Close()

	id, err := NewClient(testConfig(srv.URL)).CreateOpportunity(context.Background(), Opportunity{
		PipelineID:    "pipe-demo",
		ContactID:     "contact-1",
		Name:          "Demo: Jane Doe",
		MonetaryValue: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, "opp-1", id)
}

func TestClient_TriggerWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/contact-1/workflow/wf-demo", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "eventStartTime")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"succeded":true}`))
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL)).TriggerWorkflow(context.Background(), WorkflowTrigger{
		ContactID:      "contact-1",
		WorkflowID:     "wf-demo",
		EventStartTime: time.Now(),
		Payload:        map[string]interface{}{"opportunityId": "opp-1"},
	})
	require.NoError(t, err)
}

func TestClient_TriggerWorkflow_Unconfigured(t *testing.T) {
	err := NewClient(testConfig("http://unused")).TriggerWorkflow(context.Background(), WorkflowTrigger{ContactID: "c"})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCRMNotConfigured, stdErr.Code)
}

func TestClient_CreateAppointment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/events/appointments", r.URL.Path)
		var a Appointment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		assert.Equal(t, "cal-1", a.CalendarID)
		assert.Equal(t, "confirmed", a.AppointmentStatus)
		_, _ = w.Write([]byte(`{"id":"appt-1"}`))
	}))
	defer srv.Close()

	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	id, err := NewClient(testConfig(srv.URL)).CreateAppointment(context.Background(), Appointment{
		ContactID: "contact-1",
		Title:     "Product demo",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "appt-1", id)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  errors.ErrorCode
		retryable bool
	}{
		{"client error", http.StatusUnprocessableEntity, errors.ErrCodeCRMRejected, false},
		{"unauthorized", http.StatusUnauthorized, errors.ErrCodeCRMRejected, false},
		{"server error", http.StatusBadGateway, errors.ErrCodeCRMAPIError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			_, err := NewClient(testConfig(srv.URL)).CreateOpportunity(context.Background(), Opportunity{})
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, tt.status, stdErr.Metadata["status"])
		})
	}
}

func TestClient_MissingIDIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"contact":{}}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(testConfig(srv.URL)).UpsertContact(context.Background(), Contact{Email: "a@b.co"})
	require.Error(t, err)
}

func TestClient_FindContactByEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/search/duplicate", r.URL.Path)
		assert.Equal(t, "loc-1", r.URL.Query().Get("locationId"))
		if r.URL.Query().Get("email") == "known@example.com" {
			_, _ = w.Write([]byte(`{"contact":{"id":"contact-9","email":"known@example.com"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"contact":null}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	found, err := client.FindContactByEmail(context.Background(), "known@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "contact-9", found.ID)

	missing, err := client.FindContactByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_Ping(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"contact":null}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	assert.NoError(t, client.Ping(context.Background()))

	status = http.StatusServiceUnavailable
	assert.NoError(t, client.Ping(context.Background()))

	status = http.StatusUnauthorized
	assert.Error(t, client.Ping(context.Background()))
}
