package generic

import "fmt"

// PdfError is the base error type for PDF operations.
type PdfError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PdfError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PdfError) Unwrap() error {
	return e.Cause
}

// PdfReadError is raised while reading or parsing a file.
type PdfReadError struct {
	PdfError
}

// NewPdfReadError creates a PdfReadError wrapping cause.
func NewPdfReadError(msg string, cause error) *PdfReadError {
	return &PdfReadError{PdfError: PdfError{Message: msg, Cause: cause}}
}

// PdfStreamError is raised when stream data cannot be decoded.
type PdfStreamError struct {
	PdfReadError
}

// NewPdfStreamError creates a PdfStreamError wrapping cause.
func NewPdfStreamError(msg string, cause error) *PdfStreamError {
	return &PdfStreamError{PdfReadError: PdfReadError{PdfError: PdfError{Message: msg, Cause: cause}}}
}

// PdfWriteError is raised while serializing a document.
type PdfWriteError struct {
	PdfError
}

// NewPdfWriteError creates a PdfWriteError wrapping cause.
func NewPdfWriteError(msg string, cause error) *PdfWriteError {
	return &PdfWriteError{PdfError: PdfError{Message: msg, Cause: cause}}
}
