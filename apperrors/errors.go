// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL"
)

type AppError struct {
	Kind    Kind
	Message string
	// Fields carries per-field validation messages.
	Fields []string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *AppError {
	return New(KindInvalidInput, message, nil)
}

func Validation(message string, fields []string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message, Fields: fields}
}

func Unauthorized(message string) *AppError {
	return New(KindUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(KindNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(KindConflict, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(KindTooManyRequests, message, nil)
}

func Internal(message string, err error) *AppError {
	return New(KindInternal, message, err)
}

// As extracts an *AppError from err. Errors outside the taxonomy become Internal.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrorBody is the failure envelope written to clients.
type ErrorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Response returns the status and envelope for err. Internal causes are not
// exposed in the message.
func Response(err error) (int, ErrorBody) {
	appErr := As(err)
	message := appErr.Message
	if appErr.Kind == KindInternal && message == "" {
		message = "Internal server error"
	}
	return appErr.HTTPStatus(), ErrorBody{Success: false, Message: message, Errors: appErr.Fields}
}
