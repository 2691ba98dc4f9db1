package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketpulse/internal/provider"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HTTPError is an error that already knows its response status.
type HTTPError struct {
	Status  int
	Message string
	Details string
}

func newHTTPError(status int, msg string) *HTTPError {
	return &HTTPError{Status: status, Message: msg}
}

func (e *HTTPError) Error() string { return e.Message }

// AuthError rejects a request at the bearer-key check.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// statusFor maps a quote error to a response status and client-facing
// message. Upstream and unknown errors never expose their cause.
func statusFor(err error) (int, string) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized, authErr.Message
	}
	switch provider.KindOf(err) {
	case provider.KindValidation, provider.KindNotFound:
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	var he *HTTPError
	if !errors.As(err, &he) {
		status, msg := statusFor(err)
		he = newHTTPError(status, msg)
	}
	if he.Status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(he.Status, errorResponse{Error: he.Message, Details: he.Details})
}
