// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeCanceled
	ErrTypeHTTPStatus
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
)

// String returns a short name for logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeHTTPStatus:
		return "http_status"
	case ErrTypeInvalidRequest:
		return "invalid_request"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the API client.
// Message is always human-readable and safe to show in the UI.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int // Set for ErrTypeHTTPStatus
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrTimeout) works
// for any timeout.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// Sentinel errors for errors.Is checks.
var (
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout}
	ErrConnection = &ClientError{Type: ErrTypeConnection}
	ErrHTTPStatus = &ClientError{Type: ErrTypeHTTPStatus}
)

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsConnection checks if the automation API could not be reached.
func IsConnection(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return false
}

// StatusCode returns the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}
	return 0
}

// Message returns the user-facing text for err, or fallback when err has
// none.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Message != "" {
		return clientErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
