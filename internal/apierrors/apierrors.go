// Package apierrors contains the error types exchanged between services and handlers.
package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents an error that should be translated into a specific HTTP response.
type APIError struct {
	detail         string
	httpStatusCode int
}

// Option configures an APIError.
type Option func(*APIError)

// WithDetail sets the error detail message.
func WithDetail(detail string) Option {
	return func(e *APIError) {
		e.detail = detail
	}
}

// WithHTTPStatusCode sets the HTTP status code the error should be answered with.
func WithHTTPStatusCode(statusCode int) Option {
	return func(e *APIError) {
		e.httpStatusCode = statusCode
	}
}

// NewAPIError creates a new APIError based on the given options.
func NewAPIError(opts ...Option) *APIError {
	apiError := &APIError{httpStatusCode: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(apiError)
	}
	return apiError
}

func (e *APIError) Error() string {
	return e.detail
}

// Detail gets the error detail message.
func (e *APIError) Detail() string {
	return e.detail
}

// HTTPStatusCode gets the HTTP status code associated to the error.
func (e *APIError) HTTPStatusCode() int {
	return e.httpStatusCode
}

func (e *APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Detail string `json:"detail"`
	}{Detail: e.detail})
}

// ValidationError represents a structural validation failure on a given field. It is
// always produced before any persistence attempt.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field string, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// ConflictError represents a booking or reschedule attempt that lost a race against
// a concurrent writer. The caller may retry after re-fetching availability.
type ConflictError struct {
	Detail string `json:"detail"`
}

// NewConflictError creates a new ConflictError.
func NewConflictError(detail string) *ConflictError {
	return &ConflictError{Detail: detail}
}

func (e *ConflictError) Error() string {
	return e.Detail
}

// NotFoundError represents a reference to an unknown resource.
type NotFoundError struct {
	Detail string `json:"detail"`
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(detail string) *NotFoundError {
	return &NotFoundError{Detail: detail}
}

func (e *NotFoundError) Error() string {
	return e.Detail
}

// ExternalServiceError represents a failure while calling an external collaborator.
// It never invalidates an already committed operation.
type ExternalServiceError struct {
	Service string
	Err     error
}

// NewExternalServiceError creates a new ExternalServiceError wrapping the given cause.
func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// StatusCodeFor resolves the HTTP status code the given error should be answered with.
func StatusCodeFor(err error) int {
	switch v := err.(type) {
	case *ValidationError:
		return http.StatusBadRequest
	case *NotFoundError:
		return http.StatusNotFound
	case *ConflictError:
		return http.StatusConflict
	case *APIError:
		return v.HTTPStatusCode()
	}
	return http.StatusInternalServerError
}
