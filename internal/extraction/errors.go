package extraction

import "fmt"

// ExtractionErrorCode represents specific extraction error types.
type ExtractionErrorCode string

const (
	ErrInvalidDocument     ExtractionErrorCode = "INVALID_DOCUMENT"
	ErrUnsupportedFormat   ExtractionErrorCode = "UNSUPPORTED_FORMAT"
	ErrEmptyDocument       ExtractionErrorCode = "EMPTY_DOCUMENT"
	ErrDocumentUnavailable ExtractionErrorCode = "DOCUMENT_UNAVAILABLE"
)

// ExtractionError is a structured error for documents that cannot be read
// at all. Missing sheets, rows or patterns are never reported this way.
type ExtractionError struct {
	Code     ExtractionErrorCode
	Message  string
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func newExtractionError(code ExtractionErrorCode, filename, msg string, cause error) *ExtractionError {
	return &ExtractionError{Code: code, Message: msg, Filename: filename, Cause: cause}
}
