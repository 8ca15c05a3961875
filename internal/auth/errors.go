package auth

import (
	"fmt"
	"net/http"
)

// Code is the machine-readable outcome of a failed operation.
type Code string

const (
	CodeInvalidRequest      Code = "InvalidRequest"
	CodeTerminalNotFound    Code = "TerminalNotFound"
	CodeTerminalInactive    Code = "TerminalInactive"
	CodeInvalidAccessKey    Code = "InvalidAccessKey"
	CodeDeviceNotAuthorized Code = "DeviceNotAuthorized"
	CodeLocationInvalid     Code = "LocationInvalid"
	CodeInternalError       Code = "InternalError"
	CodeTokenExpired        Code = "TokenExpired"
	CodeTokenInvalid        Code = "TokenInvalid"
	CodeRateLimited         Code = "RateLimited"
)

// Category groups codes by how the caller should react.
type Category int

const (
	CategoryRequest Category = iota
	CategoryIdentity
	CategoryTrust
	CategoryToken
	CategoryInternal
)

// Error is a failed login, verify or renew. Reason is internal-only detail
// for the audit trail and logs; it never carries the access key.
type Error struct {
	Code       Code
	Category   Category
	Reason     string
	DistanceKm float64
	AccuracyM  float64
	Err        error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// PublicCode is the errorCode shown to clients. Identity failures collapse
// to InvalidAccessKey so a prober cannot tell which part was wrong.
func (e *Error) PublicCode() Code {
	if e.Category == CategoryIdentity {
		return CodeInvalidAccessKey
	}
	return e.Code
}

// PublicMessage is the human-readable error for clients.
func (e *Error) PublicMessage() string {
	switch e.Code {
	case CodeInvalidRequest:
		if e.Reason != "" {
			return "invalid request: " + e.Reason
		}
		return "invalid request"
	case CodeDeviceNotAuthorized:
		return "this terminal is registered to a different device; contact support to re-bind it"
	case CodeLocationInvalid:
		if e.Reason == "LocationImprecise" {
			return fmt.Sprintf("location accuracy %.0f m is too low; wait for a better GPS fix and retry", e.AccuracyM)
		}
		return fmt.Sprintf("terminal is %.2f km from the registered address; move closer to the registered address and retry", e.DistanceKm)
	case CodeTokenExpired:
		return "token expired; log in again"
	case CodeTokenInvalid:
		return "token invalid; log in again"
	case CodeInternalError:
		return "internal error"
	case CodeRateLimited:
		return "too many login attempts, try again later"
	}
	if e.Category == CategoryIdentity {
		return "authentication failed"
	}
	if e.Code == CodeTerminalInactive {
		return "terminal is no longer active; log in again or contact support"
	}
	return "request rejected"
}

// HTTPStatus maps the error category to a response status.
func (e *Error) HTTPStatus() int {
	if e.Code == CodeRateLimited {
		return http.StatusTooManyRequests
	}
	switch e.Category {
	case CategoryRequest:
		return http.StatusBadRequest
	case CategoryIdentity, CategoryToken:
		return http.StatusUnauthorized
	case CategoryTrust:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func invalidRequest(reason string) *Error {
	return &Error{Code: CodeInvalidRequest, Category: CategoryRequest, Reason: reason}
}

func identityError(code Code) *Error {
	return &Error{Code: code, Category: CategoryIdentity}
}

func trustError(code Code, reason string) *Error {
	return &Error{Code: code, Category: CategoryTrust, Reason: reason}
}

func tokenError(code Code) *Error {
	return &Error{Code: code, Category: CategoryToken}
}

func internalError(err error) *Error {
	return &Error{Code: CodeInternalError, Category: CategoryInternal, Reason: err.Error(), Err: err}
}
