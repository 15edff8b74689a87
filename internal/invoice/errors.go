package invoice

import (
	"errors"
	"fmt"
)

// Common invoice service errors
var (
	// ErrInvalidInvoiceType is returned for a type other than purchase or sales.
	ErrInvalidInvoiceType = errors.New("invalid invoice type")

	// ErrExportedImmutable is returned when editing an exported invoice.
	ErrExportedImmutable = errors.New("exported invoices cannot be modified")

	// ErrEmptyFile is returned when an uploaded file has no content.
	ErrEmptyFile = errors.New("uploaded file is empty")

	// ErrNothingToExport is returned when no verified invoices exist for export.
	ErrNothingToExport = errors.New("no verified invoices to export")
)

// InvoiceError wraps errors with the operation that produced them.
type InvoiceError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *InvoiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *InvoiceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *InvoiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error as an InvoiceError if it isn't already one.
func wrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var invErr *InvoiceError
	if errors.As(err, &invErr) {
		return err
	}

	return &InvoiceError{Op: op, Err: err, Details: details}
}
