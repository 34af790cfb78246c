// Package types holds the error taxonomy and small helpers shared by the
// gamechanger backup, restore and comparison packages.
package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Error kinds. Callers test for them with errors.Is.
var (
	// ErrNotFound reports an unknown backup id or a missing source path.
	ErrNotFound = errors.New("not found")

	// ErrIncompatibleKind reports an attempt to compare a file backup with a service backup.
	ErrIncompatibleKind = errors.New("incompatible backup kinds")

	// ErrPartialFailure reports that some items of an otherwise completed batch failed.
	ErrPartialFailure = errors.New("partial failure")

	// ErrPermissionDenied reports an OS-level access refusal.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIntegrityViolation reports stored bytes that do not match their recorded hash.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrLocked reports a backup id collision or store lock contention.
	ErrLocked = errors.New("locked")

	// ErrIncomplete reports an operation that was interrupted before it finished.
	ErrIncomplete = errors.New("operation incomplete")

	// ErrConfig reports invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ItemError records the failure of a single item inside a batch operation.
type ItemError struct {
	// Item is the relative path or service name that failed.
	Item string `json:"item" yaml:"item"`

	// Message is the error text.
	Message string `json:"error" yaml:"error"`

	err error
}

// NewItemError builds an ItemError that keeps the original error for errors.Is.
func NewItemError(item string, err error) ItemError {
	return ItemError{Item: item, Message: err.Error(), err: err}
}

// Error implements error.
func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.Item, e.Message)
}

// Unwrap returns the underlying error, if it is still known.
func (e ItemError) Unwrap() error {
	return e.err
}

// PartialFailureError summarizes a batch in which some items failed.
type PartialFailureError struct {
	Op        string
	Succeeded int
	Failed    []ItemError
}

// Error implements error.
func (e *PartialFailureError) Error() string {
	items := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		items = append(items, f.Item)
	}
	if len(items) > 5 {
		items = append(items[:5], fmt.Sprintf("and %d more", len(e.Failed)-5))
	}
	return fmt.Sprintf("%s: %d succeeded, %d failed (%s)",
		e.Op, e.Succeeded, len(e.Failed), strings.Join(items, ", "))
}

// Unwrap lets errors.Is match ErrPartialFailure as well as the item causes.
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	errs = append(errs, ErrPartialFailure)
	for _, f := range e.Failed {
		if f.err != nil {
			errs = append(errs, f.err)
		}
	}
	return errs
}

// NewPartialFailure returns nil when nothing failed and a *PartialFailureError otherwise.
func NewPartialFailure(op string, succeeded int, failed []ItemError) error {
	if len(failed) == 0 {
		return nil
	}
	return &PartialFailureError{Op: op, Succeeded: succeeded, Failed: failed}
}

// IsPermission reports whether err is an access refusal from the OS or from our own taxonomy.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, fs.ErrPermission)
}

// Classify attaches a taxonomy kind to raw OS errors so callers can rely on errors.Is.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrPermission) && !errors.Is(err, ErrPermissionDenied):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
