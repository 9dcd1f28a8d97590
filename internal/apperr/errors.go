// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the derived part file path does not exist.
	ErrNotFound = errors.New("part file not found")
	// ErrUnavailable indicates the automation server could neither be
	// discovered nor launched.
	ErrUnavailable = errors.New("automation server unavailable")
	// ErrThreadAffinity indicates an automation call was attempted outside
	// the exclusive worker thread. This is a programming error and aborts
	// the whole run rather than a single file.
	ErrThreadAffinity = errors.New("automation call outside the exclusive worker thread")
)

// PropertyReadError reports that both the direct property-store read and the
// live automation fallback failed for one file. Both causes are kept so a
// diagnostic can show why each tier gave up.
type PropertyReadError struct {
	Path     string
	Direct   error // structured-storage read
	Fallback error // live automation read
}

func (e *PropertyReadError) Error() string {
	return fmt.Sprintf("read properties of %s: direct read: %v; automation fallback: %v",
		e.Path, e.Direct, e.Fallback)
}

// Unwrap exposes both causes to errors.Is / errors.As.
func (e *PropertyReadError) Unwrap() []error {
	return []error{e.Direct, e.Fallback}
}
