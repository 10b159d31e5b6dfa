// Package apperr defines the error kinds surfaced to API callers.
//
// Handlers and services return *Error values; a single echo error handler
// maps each Kind to an HTTP status and response envelope.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindMethodNotAllowed
	KindConflict
	KindPayloadTooLarge
	KindTooManyRequests
	KindBadGateway
	KindServiceUnavailable
	KindGatewayTimeout
)

var kindStatus = map[Kind]int{
	KindInternal:           http.StatusInternalServerError,
	KindInvalidInput:       http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindMethodNotAllowed:   http.StatusMethodNotAllowed,
	KindConflict:           http.StatusConflict,
	KindPayloadTooLarge:    http.StatusRequestEntityTooLarge,
	KindTooManyRequests:    http.StatusTooManyRequests,
	KindBadGateway:         http.StatusBadGateway,
	KindServiceUnavailable: http.StatusServiceUnavailable,
	KindGatewayTimeout:     http.StatusGatewayTimeout,
}

var kindCode = map[Kind]string{
	KindInternal:           "SERVER_ERROR",
	KindInvalidInput:       "BAD_REQUEST",
	KindUnauthorized:       "UNAUTHORIZED",
	KindForbidden:          "FORBIDDEN",
	KindNotFound:           "NOT_FOUND",
	KindMethodNotAllowed:   "METHOD_NOT_ALLOWED",
	KindConflict:           "CONFLICT",
	KindPayloadTooLarge:    "PAYLOAD_TOO_LARGE",
	KindTooManyRequests:    "TOO_MANY_REQUESTS",
	KindBadGateway:         "BAD_GATEWAY",
	KindServiceUnavailable: "SERVICE_UNAVAILABLE",
	KindGatewayTimeout:     "GATEWAY_TIMEOUT",
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable error code for the kind.
func (k Kind) Code() string {
	if c, ok := kindCode[k]; ok {
		return c
	}
	return kindCode[KindInternal]
}

func (k Kind) String() string { return k.Code() }

// KindFromStatus maps an HTTP status code back to a Kind.
// Unknown 4xx codes become KindInvalidInput; everything else is KindInternal.
func KindFromStatus(status int) Kind {
	for k, s := range kindStatus {
		if s == status {
			return k
		}
	}
	if status >= 400 && status < 500 {
		return KindInvalidInput
	}
	return KindInternal
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an error carrying a Kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind that wraps err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails returns a copy of e with details attached.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Invalid returns a KindInvalidInput error with one field error attached.
func Invalid(field, message string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: "Invalid Input",
		Details: []FieldError{{Field: field, Message: message}},
	}
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
