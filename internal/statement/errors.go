package statement

import (
	"errors"
	"fmt"
)

// Common statement parsing errors
var (
	// ErrUnsupportedFormat is returned for file extensions the parser cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported statement format")

	// ErrParseFailed is returned when the file cannot be opened or decoded at all.
	ErrParseFailed = errors.New("statement parsing failed")

	// ErrNoHeaderRow is returned when no recognizable column header is found.
	ErrNoHeaderRow = errors.New("no recognizable header row in statement")
)

// StatementError wraps parsing errors with the failing format and operation.
type StatementError struct {
	// Op is the operation that failed.
	Op string

	// Format is the statement format being parsed (csv, xlsx, xls, pdf).
	Format string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("statement[%s]: %s failed: %s: %v", e.Format, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("statement[%s]: %s failed: %v", e.Format, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *StatementError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapParseError(format, op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var stErr *StatementError
	if errors.As(err, &stErr) {
		return err
	}

	return &StatementError{Op: op, Format: format, Err: err, Details: details}
}
