package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInputParsingFailed  ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInvalidAction       ErrorCode = "INVALID_ACTION"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeWebhookSignature    ErrorCode = "WEBHOOK_SIGNATURE_INVALID"
	ErrCodeLeadValidation      ErrorCode = "LEAD_VALIDATION_FAILED"
	ErrCodeCRMNotConfigured    ErrorCode = "CRM_NOT_CONFIGURED"
	ErrCodeCRMAPIError         ErrorCode = "CRM_API_ERROR"
	ErrCodeCRMRejected         ErrorCode = "CRM_REQUEST_REJECTED"
	ErrCodeMarketSourceFailed  ErrorCode = "MARKET_SOURCE_FAILED"
	ErrCodeMarketSourceTimeout ErrorCode = "MARKET_SOURCE_TIMEOUT"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeLedgerWriteFailed   ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventPublishFailed  ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeExternalService     ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout             ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication      ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeBusinessRule        ErrorCode = "BUSINESS_RULE_VIOLATION"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// As unwraps err into a *StandardError when one is present in the chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse input",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidActionError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAction,
		Message:   "Invalid action",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewWebhookSignatureError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookSignature,
		Message:   "Webhook signature verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewLeadValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadValidation,
		Message:   "Lead data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCRMNotConfiguredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCRMNotConfigured,
		Message:   "CRM client not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCRMAPIError classifies a failed CRM call. Server errors and transport
// failures (status 0) are retryable, client errors are not.
func NewCRMAPIError(operation string, status int, err error) *StandardError {
	code := ErrCodeCRMAPIError
	retryable := true
	if status >= 400 && status < 500 {
		code = ErrCodeCRMRejected
		retryable = false
	}
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("CRM operation '%s' failed", operation),
		Details:   err.Error(),
		Retryable: retryable,
		Metadata: map[string]interface{}{
			"operation": operation,
			"status":    status,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewMarketSourceFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMarketSourceFailed,
		Message:   fmt.Sprintf("Market data source '%s' failed", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewMarketSourceTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMarketSourceTimeout,
		Message:   fmt.Sprintf("Market data source '%s' timed out", source),
		Details:   "request exceeded client timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Market data cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLedgerWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Dispatch ledger write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEventPublishFailedError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPublishFailed,
		Message:   "Lead event publish failed",
		Details:   fmt.Sprintf("topic: %s, error: %s", topic, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeInputParsingFailed: "INPUT_PARSING_FAILED",
	ErrCodeLeadValidation:     "LEAD_VALIDATION_FAILED",
	ErrCodeCRMNotConfigured:   "CRM_NOT_CONFIGURED",
	ErrCodeCRMAPIError:        "CRM_API_ERROR",
	ErrCodeCRMRejected:        "CRM_REQUEST_REJECTED",
	ErrCodeMarketSourceFailed: "MARKET_DATA_UNAVAILABLE",
	ErrCodeTimeout:            "TIMEOUT_ERROR",
	ErrCodeExternalService:    "EXTERNAL_SERVICE_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCRMAPIError,
		ErrCodeExternalService,
		ErrCodeCacheUnavailable,
		ErrCodeLedgerWriteFailed,
		ErrCodeNotificationFailed,
		ErrCodeEventPublishFailed:
		return 3

	case ErrCodeTimeout,
		ErrCodeMarketSourceTimeout,
		ErrCodeMarketSourceFailed:
		return 2

	default:
		return 0 // business errors are not retried
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CRM"):
		return "CRM"
	case strings.HasPrefix(codeStr, "MARKET") || strings.HasPrefix(codeStr, "CACHE"):
		return "MARKET_DATA"
	case strings.Contains(codeStr, "LEDGER"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SIGNATURE") || strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
