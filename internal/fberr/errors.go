// Copyright 2026 FoodBlock Protocol
//
// Sentinel errors and error kinds for API responses
// Package fberr defines the FoodBlock error taxonomy (§7) as sentinel
// errors instead of ad hoc error strings.
package fberr

import "errors"

// Kind identifies an error's place in the §7 taxonomy, used by the HTTP
// layer to choose a status code without string-matching error messages.
type Kind string

const (
	KindBadRequest           Kind = "bad_request"
	KindInvalidSignature     Kind = "invalid_signature"
	KindPermissionDenied     Kind = "permission_denied"
	KindRateLimited          Kind = "rate_limited"
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindHashMismatch         Kind = "hash_mismatch"
	KindUnresolvedDependency Kind = "unresolved_dependency"
	KindUnavailable          Kind = "unavailable"
	KindInternal             Kind = "internal"
)

// HTTPStatus maps a Kind to the status code from §7's table.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest, KindHashMismatch:
		return 400
	case KindInvalidSignature, KindPermissionDenied:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindRateLimited:
		return 429
	case KindUnavailable:
		return 503
	default:
		return 500
	}
}

// Error is a FoodBlock error carrying a taxonomy Kind alongside the
// human-readable message that ends up in the {"error": "..."} envelope.
type Error struct {
	K   Kind
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() Kind { return e.K }

// New builds an *Error of the given kind.
func New(k Kind, msg string) *Error {
	return &Error{K: k, Msg: msg}
}

// Wrap builds an *Error of the given kind wrapping an underlying cause.
func Wrap(k Kind, msg string, err error) *Error {
	return &Error{K: k, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it is treated as internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.K
	}
	return KindInternal
}

// Sentinel errors for lookups where a Kind alone is enough context.
var (
	ErrNotFound             = New(KindNotFound, "not found")
	ErrHashMismatch         = New(KindHashMismatch, "hash mismatch")
	ErrInvalidSignature     = New(KindInvalidSignature, "invalid signature")
	ErrPermissionDenied     = New(KindPermissionDenied, "permission denied")
	ErrRateLimited          = New(KindRateLimited, "rate limited")
	ErrConflict             = New(KindConflict, "conflict")
	ErrUnresolvedDependency = New(KindUnresolvedDependency, "unresolved dependency")
	ErrUnavailable          = New(KindUnavailable, "service unavailable")
)
