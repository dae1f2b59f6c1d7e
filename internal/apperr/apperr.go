// Package apperr defines the closed set of API error codes as a tagged
// struct, plus the HTTP status each maps to, so handlers can build a
// {success: false, error: {code, message}} envelope from any error
// without inlining ad hoc gin.H{"error": err.Error()} calls.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/sanjshine99/care-app-backend/internal/domain"
)

// Error is an API-facing error carrying one of the closed ErrorCode
// values plus a human-readable message.
type Error struct {
	Code    domain.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Error.
func New(code domain.ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(code domain.ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// MissingDates, InvalidDateRange, etc. are convenience constructors for
// the named error codes.
func MissingDates(message string) *Error       { return New(domain.ErrMissingDates, message) }
func InvalidDateRange(message string) *Error   { return New(domain.ErrInvalidDateRange, message) }
func CareReceiverNotFound(id string) *Error {
	return Newf(domain.ErrCareReceiverNotFound, "care receiver %q not found", id)
}
func CareGiverNotFound(id string) *Error {
	return Newf(domain.ErrCareGiverNotFound, "care giver %q not found", id)
}
func AppointmentNotFound(id string) *Error {
	return Newf(domain.ErrAppointmentNotFound, "appointment %q not found", id)
}
func MissingFields(message string) *Error { return New(domain.ErrMissingFields, message) }
func Validation(message string) *Error    { return New(domain.ErrValidation, message) }
func Duplicate(message string) *Error     { return New(domain.ErrDuplicate, message) }

// HTTPStatus maps a closed ErrorCode to the HTTP status it should
// produce.
func HTTPStatus(code domain.ErrorCode) int {
	switch code {
	case domain.ErrMissingDates, domain.ErrInvalidDateRange, domain.ErrMissingFields, domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrCareReceiverNotFound, domain.ErrCareGiverNotFound, domain.ErrAppointmentNotFound:
		return http.StatusNotFound
	case domain.ErrDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err, returning nil if err is not one.
func As(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}
