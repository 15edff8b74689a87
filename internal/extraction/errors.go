package extraction

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrExtractionFailed is returned when the provider call itself fails.
	ErrExtractionFailed = errors.New("field extraction failed")

	// ErrInvalidResponse is returned when a provider answers with a payload
	// that cannot be decoded into a RawResult.
	ErrInvalidResponse = errors.New("invalid extraction response")

	// ErrMissingCredentials is returned when a provider has no credentials configured.
	ErrMissingCredentials = errors.New("missing extraction provider credentials")

	// ErrInvalidConfiguration is returned when the provider configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid extraction configuration")

	// ErrQuotaExceeded is returned when provider API quota limits are exceeded.
	ErrQuotaExceeded = errors.New("extraction API quota exceeded")

	// ErrDocumentTooLarge is returned when the file exceeds provider size limits.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrUnsupportedFormat is returned when the file format cannot be sent to
	// the provider.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ExtractionError wraps errors with additional context about extraction failures.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "Extract", "decodeResponse").
	Op string

	// Provider is the extractor name.
	Provider string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extraction: %s/%s failed: %s: %v", e.Provider, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extraction: %s/%s failed: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(provider, op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var exErr *ExtractionError
	if errors.As(err, &exErr) {
		return err // Already wrapped
	}

	return &ExtractionError{Op: op, Provider: provider, Err: err, Details: details}
}
