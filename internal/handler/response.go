package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripledger/internal/ledger"
	"tripledger/internal/repository"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps ledger errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Role guard failures
	case errors.Is(err, ledger.ErrNotAdministrator),
		errors.Is(err, ledger.ErrNotRegisteredDriver):
		return http.StatusForbidden

	// Not found
	case errors.Is(err, ledger.ErrTripNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Rejected arithmetic
	case errors.Is(err, ledger.ErrFareOverflow):
		return http.StatusBadRequest

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
