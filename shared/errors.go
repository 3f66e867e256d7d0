package shared

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status alongside a user-facing message. Services
// return these instead of raw errors so handlers can map them onto the wire
// without inspecting error strings.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func NewUnauthorizedError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message, Err: err}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message, Err: err}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message, Err: err}
}

func NewInternalError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Client-side failure taxonomy. The API client folds every transport failure
// into one of these so callers can branch without string matching.
var (
	// ErrOffline is returned before any request is attempted when the
	// connectivity signal reports the device offline.
	ErrOffline = errors.New("device is offline")

	// ErrTimeout distinguishes a cancelled slow call from a server fault.
	ErrTimeout = errors.New("request timed out")

	// ErrAuthExpired means the bearer credential was rejected. Callers must
	// trigger re-authentication, not treat this as offline.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInFlight rejects a second login or signup while one is still
	// running, so two sessions can never race for the stored credential.
	ErrAuthInFlight = errors.New("authentication already in progress")
)
