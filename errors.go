package assetcache

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrSourceUnreadable marks a member file that could not be read.
	// The member contributes empty content and the artifact is still written.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrDestinationUnwritable is returned when the output directory is missing
	// or cannot be written. No file is produced.
	ErrDestinationUnwritable = errors.New("destination unwritable")

	// ErrRemoteFetchFailed marks a remote member that timed out or returned a
	// non-success status. The member is skipped.
	ErrRemoteFetchFailed = errors.New("remote fetch failed")

	// ErrTransformFailed marks a member whose transform failed. The member's
	// untransformed content is used instead.
	ErrTransformFailed = errors.New("transform failed")

	// ErrMixedKinds is returned when a member's kind differs from the target's kind.
	ErrMixedKinds = errors.New("mixed asset kinds")

	// ErrUnknownKind is returned for extensions that are neither css nor js.
	ErrUnknownKind = errors.New("unknown asset kind")
)

// ValidationError represents one or more problems found in a request before
// any work was done.
type ValidationError struct {
	Errors []error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", ve.Errors[0])
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "validation failed with %d errors:\n", len(ve.Errors))
	for i, err := range ve.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ve *ValidationError) Unwrap() []error {
	return ve.Errors
}

// newValidationError creates a ValidationError from a slice of errors.
// Returns nil if the slice is empty.
func newValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// Diagnostic is a recoverable, per-member problem recorded while building an artifact.
type Diagnostic struct {
	Source string // Path or URL of the affected member
	Err    error  // Wraps one of the sentinel errors above
}

// String returns a one-line description of the diagnostic.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Source, d.Err)
}
