package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"marketing-api/internal/common/errors"
	"marketing-api/internal/common/ghl"
	"marketing-api/internal/common/logger"

	"github.com/gin-gonic/gin"
)

// EventPublisher is satisfied by the Kafka producer.
type EventPublisher interface {
	Send(ctx context.Context, key string, event any) error
}

// CRMWebhookEvent is forwarded to the event stream for every verified
// webhook delivery.
type CRMWebhookEvent struct {
	Type       string          `json:"type"`
	ContactID  string          `json:"contactId,omitempty"`
	LocationID string          `json:"locationId,omitempty"`
	ReceivedAt time.Time       `json:"receivedAt"`
	Payload    json.RawMessage `json:"payload"`
}

type webhookEnvelope struct {
	Type       string `json:"type"`
	ContactID  string `json:"contactId"`
	LocationID string `json:"locationId"`
}

type WebhookHandler struct {
	secret string
	events EventPublisher
	logger logger.Logger
	now    func() time.Time
}

func NewWebhookHandler(secret string, events EventPublisher, log logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &WebhookHandler{secret: secret, events: events, logger: log, now: time.Now}
}

// Receive handles POST /api/webhooks/crm.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	if !ghl.VerifySignature(h.secret, body, c.GetHeader(ghl.SignatureHeader)) {
		respondError(c, errors.NewWebhookSignatureError("signature does not match request body"))
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		respondError(c, errors.NewInputParsingError(err))
		return
	}

	h.logger.Info("CRM webhook received", map[string]interface{}{
		"type":      env.Type,
		"contactId": env.ContactID,
		"requestId": c.GetString(requestIDKey),
	})

	if h.events != nil {
		event := CRMWebhookEvent{
			Type:       env.Type,
			ContactID:  env.ContactID,
			LocationID: env.LocationID,
			ReceivedAt: h.now().UTC(),
			Payload:    json.RawMessage(body),
		}
		if err := h.events.Send(c.Request.Context(), env.ContactID, event); err != nil {
			h.logger.Warn("Failed to forward CRM webhook", map[string]interface{}{
				"type":  env.Type,
				"error": err.Error(),
			})
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
