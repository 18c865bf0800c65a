// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Extraction errors: the file name does not carry a usable date token.
	ErrNoDateToken        = errors.New("no 8-digit date token in file name")
	ErrAmbiguousDateToken = errors.New("more than one 8-digit date token in file name")

	// Shape errors: the workbook does not have the layout the flavor expects.
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrShapeMismatch   = errors.New("spreadsheet shape mismatch")
	ErrUnknownFlavor   = errors.New("unknown spreadsheet flavor")
	ErrNoDataRows      = errors.New("no data rows after normalization")
	ErrIngestTimeout   = errors.New("ingest exceeded its time budget")
	ErrReconcileFailed = errors.New("reconciliation failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsFileError reports whether err fails a single file without implicating the
// rest of a sync run. Such files stay uncataloged and are picked up again by
// the next sync.
func IsFileError(err error) bool {
	return errors.Is(err, ErrNoDateToken) ||
		errors.Is(err, ErrAmbiguousDateToken) ||
		errors.Is(err, ErrSheetNotFound) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrNoDataRows) ||
		errors.Is(err, ErrIngestTimeout)
}

// AsTimeout maps a context deadline into ErrIngestTimeout, leaving other
// errors untouched.
func AsTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrIngestTimeout) {
		return fmt.Errorf("%w: %w", ErrIngestTimeout, err)
	}
	return err
}
