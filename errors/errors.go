// Package errors provides error handling for declgen.
//
// It re-exports github.com/cockroachdb/errors so every package wraps errors the
// same way and carries stack traces and user hints up to the CLI:
//
//	if _, err := src.Discover(ctx); err != nil {
//	    return errors.Wrap(err, "discover symbols")
//	}
//
//	return errors.WithHint(err, "set discover.path in declgen.toml")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared across declgen. Wrap them to add context; check
// them with errors.Is.
var (
	// ErrNotFound indicates a snapshot, file or symbol does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input, e.g. a manifest entry
	// with an unknown kind
	ErrInvalidRequest = New("invalid request")

	// ErrUnsupportedFormat indicates an input format declgen cannot read
	ErrUnsupportedFormat = New("unsupported format")

	// ErrIncompatibleVersion indicates a manifest schema version outside the
	// supported range
	ErrIncompatibleVersion = New("incompatible version")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
