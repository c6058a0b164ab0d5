package errors

import (
	"errors"
	"net/http"
	"strings"

	"site-content-store/internal/domain"

	"github.com/go-playground/validator/v10"
)

// APIError is the error shape every handler hands to the error middleware.
type APIError struct {
	Status   int               `json:"-"`
	Message  string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Internal error             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

// WithMessage returns a copy of the error with a custom message
func (e *APIError) WithMessage(msg string) *APIError {
	return &APIError{
		Status:   e.Status,
		Message:  msg,
		Fields:   e.Fields,
		Internal: e.Internal,
	}
}

func New(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Internal: err}
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

// StorageUnavailable marks a transient backend failure; clients retry with backoff.
func StorageUnavailable(err error) *APIError {
	return New(http.StatusServiceUnavailable, "Storage unavailable, try again later", err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError turns binding errors into a 422 listing the offending fields.
func NewValidationError(err error) *APIError {
	apiErr := UnprocessableEntity("Validation failed", err)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		apiErr.Fields = make(map[string]string, len(ve))
		for _, fe := range ve {
			apiErr.Fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return apiErr
}

// Invalid is a validation failure raised by a service rather than by binding.
func Invalid(field, reason string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Fields:  map[string]string{field: reason},
	}
}

// FromStore maps repository errors onto the API taxonomy. Anything that is
// not a known sentinel is treated as the storage being unavailable.
func FromStore(err error, notFound, conflict string) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(notFound, err)
	case errors.Is(err, domain.ErrConflict):
		return Conflict(conflict, err)
	default:
		return StorageUnavailable(err)
	}
}

// Is reports whether err is an APIError carrying status.
func Is(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
