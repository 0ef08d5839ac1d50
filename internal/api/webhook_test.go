package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"marketing-api/internal/common/ghl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec-test"

var webhookBody = []byte(`{"type":"ContactCreate","contactId":"contact-1","locationId":"loc-1"}`)

func TestWebhook_Accepted(t *testing.T) {
	events := new(MockEvents)
	events.On("Send", mock.Anything, "contact-1", mock.MatchedBy(func(e CRMWebhookEvent) bool {
		return e.Type == "ContactCreate" && e.LocationID == "loc-1" && json.Valid(e.Payload)
	})).Return(nil).Once()

	deps := testDependencies(t)
	deps.WebhookSecret = webhookSecret
	deps.Events = events

	w := serve(NewRouter(deps), http.MethodPost, "/api/webhooks/crm", webhookBody, map[string]string{
		ghl.SignatureHeader: "sha256=" + ghl.Sign(webhookSecret, webhookBody),
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	events.AssertExpectations(t)
}

func TestWebhook_ForwardFailureStillAccepted(t *testing.T) {
	events := new(MockEvents)
	events.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("broker down"))

	deps := testDependencies(t)
	deps.WebhookSecret = webhookSecret
	deps.Events = events

	w := serve(NewRouter(deps), http.MethodPost, "/api/webhooks/crm", webhookBody, map[string]string{
		ghl.SignatureHeader: ghl.Sign(webhookSecret, webhookBody),
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestWebhook_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		signature  string
		body       []byte
		wantStatus int
	}{
		{"missing signature", webhookSecret, "", webhookBody, http.StatusUnauthorized},
		{"wrong secret", webhookSecret, ghl.Sign("other", webhookBody), webhookBody, http.StatusUnauthorized},
		{"no secret configured", "", ghl.Sign("", webhookBody), webhookBody, http.StatusUnauthorized},
		{"signed garbage", webhookSecret, ghl.Sign(webhookSecret, []byte("nope")), []byte("nope"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := new(MockEvents)
			deps := testDependencies(t)
			deps.WebhookSecret = tt.secret
			deps.Events = events

			w := serve(NewRouter(deps), http.MethodPost, "/api/webhooks/crm", tt.body, map[string]string{
				ghl.SignatureHeader: tt.signature,
			})

			require.Equal(t, tt.wantStatus, w.Code)
			events.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
