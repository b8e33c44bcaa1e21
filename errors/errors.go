// Package errors provides error handling for cardforge.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Marked sentinel errors for the pipeline error taxonomy
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrTemplateMissing) {
//	    // handle missing template
//	}
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
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
	Join      = crdb.Join
)

// Sentinel errors for the rendering/cache pipeline and its collaborators.
// Use these with errors.Is() for type-safe error checking. Wrap them with
// errors.Wrap()/errors.Mark() to add context while preserving the category.
var (
	// ErrValidation indicates a caller mistake (bad format token, bad result
	// cap). Surfaced immediately, never retried.
	ErrValidation = New("validation error")

	// ErrTemplateMissing indicates a required template does not exist. The
	// wrapping message names every candidate path attempted.
	ErrTemplateMissing = New("template missing")

	// ErrRender indicates a render executed but produced unusable output
	// where parsing was mandatory.
	ErrRender = New("render produced unusable output")

	// ErrTransform indicates the raster-transform dependency failed or is
	// absent. Propagated unchanged, no retry.
	ErrTransform = New("transform failed")

	// ErrStorage indicates a filesystem write or rename failure under the
	// cache root.
	ErrStorage = New("storage error")

	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = New("not found")

	// ErrDataNotReady indicates the catalog bundle has not been loaded yet
	ErrDataNotReady = New("catalog data not ready")
)

// IsValidation checks if an error is or wraps ErrValidation
func IsValidation(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsTemplateMissing checks if an error is or wraps ErrTemplateMissing
func IsTemplateMissing(err error) bool {
	return err != nil && Is(err, ErrTemplateMissing)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewValidationf creates a validation error with a formatted message
func NewValidationf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrValidation)
}

// NewNotFoundf creates a not-found error with a formatted message
func NewNotFoundf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}
