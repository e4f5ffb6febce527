package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Failure codes raised by the upstream transport.
const (
	CodeNetwork = "NETWORK_ERROR"
	CodeHTTP    = "HTTP_ERROR"
	CodeDecode  = "DECODE_ERROR"
)

// FieldErrors maps a form field to its ordered validation messages.
type FieldErrors map[string][]string

// Clone returns an independent copy of the mapping.
func (f FieldErrors) Clone() FieldErrors {
	if f == nil {
		return nil
	}
	out := make(FieldErrors, len(f))
	for field, msgs := range f {
		out[field] = append([]string(nil), msgs...)
	}
	return out
}

// Error represents a typed failure with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// UpstreamStatus is the status returned by the course API, if any.
	UpstreamStatus int         `json:"upstream_status,omitempty"`
	Fields         FieldErrors `json:"fields,omitempty"`
	Body           []byte      `json:"-"`
	Err            error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned sentinels still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrBusy                = New("SCREEN_BUSY", http.StatusConflict, "another operation is in progress")
	ErrNotPersisted        = New("NOT_PERSISTED", http.StatusUnprocessableEntity, "record has no server identifier")
	ErrUnknownEntity       = New("UNKNOWN_ENTITY", http.StatusNotFound, "unknown entity kind")
	ErrUnsupportedRelation = New("UNSUPPORTED_RELATION", http.StatusBadRequest, "relation not supported for entity")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrFeatureDisabled     = New("FEATURE_DISABLED", http.StatusNotFound, "feature disabled")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrNetwork = New(CodeNetwork, http.StatusBadGateway, "course api unreachable")
	ErrHTTP    = New(CodeHTTP, http.StatusBadGateway, "course api request failed")
	ErrDecode  = New(CodeDecode, http.StatusBadGateway, "course api returned a malformed body")
)

// Network reports that no response was received.
func Network(err error) *Error {
	return Wrap(err, ErrNetwork.Code, ErrNetwork.Status, ErrNetwork.Message)
}

// Decode reports a body that could not be parsed into its schema.
func Decode(err error) *Error {
	return Wrap(err, ErrDecode.Code, ErrDecode.Status, ErrDecode.Message)
}

// HTTP reports a non-2xx response. Unprocessable-entity bodies are unpacked
// into Fields; any other status keeps the body for diagnostics only.
func HTTP(status int, body []byte) *Error {
	e := &Error{
		Code:           CodeHTTP,
		Status:         status,
		UpstreamStatus: status,
		Message:        fmt.Sprintf("course api responded %d", status),
		Body:           body,
	}
	if status >= http.StatusInternalServerError {
		e.Status = http.StatusBadGateway
	}
	if status == http.StatusUnprocessableEntity {
		var payload struct {
			Message string      `json:"message"`
			Errors  FieldErrors `json:"errors"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			e.Fields = payload.Errors
			if payload.Message != "" {
				e.Message = payload.Message
			}
		}
		if e.Fields == nil {
			e.Fields = FieldErrors{}
		}
	}
	return e
}

// IsNetwork reports whether err is a transport-level connectivity failure.
func IsNetwork(err error) bool {
	return hasCode(err, CodeNetwork)
}

// IsDecode reports whether err is a malformed-body failure.
func IsDecode(err error) bool {
	return hasCode(err, CodeDecode)
}

// IsUnprocessable reports whether err carries field-level validation detail.
func IsUnprocessable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeHTTP && e.UpstreamStatus == http.StatusUnprocessableEntity
}

// UpstreamStatus returns the course API status carried by err, or zero.
func UpstreamStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.UpstreamStatus
	}
	return 0
}

func hasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
