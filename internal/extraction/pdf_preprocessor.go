package extraction

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 512 * 1024 // cap for extracted statement text
	scannedThreshold = 50         // chars per page below which a PDF has no usable text layer
)

// StatementText contains the plain text of a PDF statement.
type StatementText struct {
	PageCount int
	Text      string
	IsScanned bool
}

// ExtractPDFText reads the text layer of a PDF statement. It is wrapped in
// recover() because the pdf library panics on some malformed files.
func ExtractPDFText(data []byte) (result *StatementText, err error) {
	if len(data) == 0 {
		return nil, newExtractionError(ErrEmptyDocument, "", "empty PDF payload", nil)
	}
	result = &StatementText{PageCount: 1}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("[pdf-preprocessor] recovered from panic", "panic", r)
			result = nil
			err = newExtractionError(ErrInvalidDocument, "", "unreadable PDF", fmt.Errorf("panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newExtractionError(ErrInvalidDocument, "", "open PDF reader", err)
	}

	result.PageCount = reader.NumPage()
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return nil, newExtractionError(ErrInvalidDocument, "", "extract plain text", err)
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		return nil, newExtractionError(ErrInvalidDocument, "", "read plain text", err)
	}

	result.Text = string(textBytes)
	result.IsScanned = isLikelyScanned(result.Text, result.PageCount)
	return result, nil
}

// isLikelyScanned returns true if the PDF appears to be a scanned image
// (very little extractable text per page).
func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	charsPerPage := len(strings.TrimSpace(text)) / pages
	return charsPerPage < scannedThreshold
}

// isPDF sniffs the %PDF- magic header.
func isPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\r\n\t "), []byte("%PDF-"))
}
