package api

import (
	stderrors "errors"
	"net/http"

	"marketing-api/internal/common/errors"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps public request bodies.
const MaxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusFor maps a StandardError code onto an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeLeadValidation, errors.ErrCodeValidationFailed,
		errors.ErrCodeInputParsingFailed, errors.ErrCodeInvalidAction:
		return http.StatusBadRequest
	case errors.ErrCodeWebhookSignature, errors.ErrCodeAuthentication:
		return http.StatusUnauthorized
	case errors.ErrCodeCRMNotConfigured:
		return http.StatusServiceUnavailable
	case errors.ErrCodeCRMAPIError, errors.ErrCodeCRMRejected:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Errors that are not a StandardError
// are reported as a bare 500.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	stdErr, ok := errors.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	status := statusFor(stdErr.Code)
	resp := ErrorResponse{Error: stdErr.Message, Code: string(stdErr.Code)}
	if status < http.StatusInternalServerError {
		resp.Details = stdErr.Details
	}
	c.JSON(status, resp)
}

// readBody reads at most MaxBodyBytes of the request body. On failure the
// response has already been written.
func readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	raw, err := c.GetRawData()
	if err == nil {
		return raw, true
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		_ = c.Error(err)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
		return nil, false
	}
	respondError(c, errors.NewInputParsingError(err))
	return nil, false
}
