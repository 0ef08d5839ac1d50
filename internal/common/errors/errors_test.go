package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCRMAPIError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  ErrorCode
		retryable bool
	}{
		{"transport failure", 0, ErrCodeCRMAPIError, true},
		{"bad request", 400, ErrCodeCRMRejected, false},
		{"not found", 404, ErrCodeCRMRejected, false},
		{"server error", 500, ErrCodeCRMAPIError, true},
		{"bad gateway", 502, ErrCodeCRMAPIError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCRMAPIError("create opportunity", tt.status, stderrors.New("boom"))
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, "create opportunity", err.Metadata["operation"])
			assert.Equal(t, tt.status, err.Metadata["status"])
			assert.Equal(t, "boom", err.Details)
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable code keeps its retry budget", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewCRMAPIError("upsert contact", 503, stderrors.New("unavailable")))
		assert.Equal(t, "CRM_API_ERROR", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
		assert.Equal(t, "CRM_API_ERROR", bpmn.ErrorVariables["originalErrorCode"])
	})

	t.Run("rejected request is not retried", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewCRMAPIError("upsert contact", 422, stderrors.New("bad email")))
		assert.Equal(t, "CRM_REQUEST_REJECTED", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})

	t.Run("mapped code is renamed", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewMarketSourceFailedError("zillow", stderrors.New("502")))
		assert.Equal(t, "MARKET_DATA_UNAVAILABLE", bpmn.Code)
	})

	t.Run("unmapped code passes through", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewResourceNotFoundError("contact", "c-1"))
		assert.Equal(t, string(ErrCodeResourceNotFound), bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	bpmn := &BPMNError{
		Code:           "LEAD_VALIDATION_FAILED",
		Message:        "Lead rejected",
		Retryable:      false,
		ErrorVariables: map[string]interface{}{"field": "email"},
	}
	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "LEAD_VALIDATION_FAILED", vars["errorCode"])
	assert.Equal(t, "Lead rejected", vars["errorMessage"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "email", vars["field"])
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeCRMAPIError:         "CRM",
		ErrCodeCRMNotConfigured:    "CRM",
		ErrCodeMarketSourceTimeout: "MARKET_DATA",
		ErrCodeCacheUnavailable:    "MARKET_DATA",
		ErrCodeLedgerWriteFailed:   "DATABASE",
		ErrCodeNotificationFailed:  "NOTIFICATION",
		ErrCodeEventPublishFailed:  "NOTIFICATION",
		ErrCodeWebhookSignature:    "AUTH",
		ErrCodeAuthentication:      "AUTH",
		ErrCodeLeadValidation:      "VALIDATION",
		ErrCodeInputParsingFailed:  "VALIDATION",
		ErrCodeInternal:            "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestAsAndNormalize(t *testing.T) {
	wrapped := fmt.Errorf("routing booking: %w", NewLeadValidationFailedError("email is required"))
	stdErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeLeadValidation, stdErr.Code)
	assert.Same(t, stdErr, Normalize(wrapped))

	plain := Normalize(stderrors.New("disk full"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "disk full", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCRMAPIError))
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeCRMRejected))
	assert.False(t, IsRetryableErrorCode(ErrCodeLeadValidation))
}
