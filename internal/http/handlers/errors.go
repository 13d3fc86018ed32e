// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants and the translation of
// service errors into HTTP responses. Services classify every failure with
// one of a few kinds (services.ErrInvalidArgument, services.ErrForbidden, ...);
// handlers never switch on concrete errors, they call failErr and let the
// kind pick the status and code.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "forbidden",
//	  "message": "forbidden: not a member of this room"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthenticated"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeUnavailable      = "unavailable"
)

// errorStatus maps an error to (status, code) by its kind.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrInvalidOperation):
		return http.StatusUnprocessableEntity, ErrCodeInvalidOperation
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// failErr writes the error envelope for a service error. Unclassified errors
// become a 500 with a generic message; their text only goes to the log.
func failErr(c *gin.Context, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		_ = c.Error(err)
		msg = "internal server error"
	case http.StatusServiceUnavailable:
		_ = c.Error(err)
		c.Header("Retry-After", "1")
		msg = "temporarily unavailable, retry"
	}
	fail(c, status, code, msg)
}
