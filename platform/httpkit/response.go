// Package httpkit holds the shared HTTP plumbing of the portal API:
// response envelopes, middleware and caller identity.
package httpkit

import (
	"errors"
	"net/http"

	"carbot_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope returned by every endpoint. Details
// carries field-level validation messages when present; the chat widget
// shows Error verbatim.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes a 200 response.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created writes a 201 response, used by the intake endpoints.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// Error writes an ErrorResponse with the given status.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError translates service errors into responses and reports whether
// it wrote one, so handlers read as `if httpkit.HandleError(c, err) { return }`.
// Typed *apperr.Error values map through their Kind; anything untyped is
// treated as a bad request rather than leaking internals with a 500.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
