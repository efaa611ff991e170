package extraction

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLikelyScanned(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pages    int
		expected bool
	}{
		{name: "empty text", text: "", pages: 3, expected: true},
		{name: "whitespace only", text: "   \n\n  ", pages: 1, expected: true},
		{name: "dense text", text: strings.Repeat("En Santander: dividendos 10,00 EUR\n", 10), pages: 2, expected: false},
		{name: "zero pages treated as one", text: strings.Repeat("x", 60), pages: 0, expected: false},
		{name: "sparse multi page", text: strings.Repeat("x", 120), pages: 5, expected: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isLikelyScanned(tt.text, tt.pages))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.7\n...")))
	assert.True(t, isPDF([]byte("\r\n%PDF-1.4")))
	assert.False(t, isPDF([]byte("PK\x03\x04")))
	assert.False(t, isPDF(nil))
}

func TestExtractPDFText_Errors(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		_, err := ExtractPDFText(nil)
		var extErr *ExtractionError
		require.True(t, errors.As(err, &extErr))
		assert.Equal(t, ErrEmptyDocument, extErr.Code)
	})

	t.Run("not a pdf", func(t *testing.T) {
		_, err := ExtractPDFText([]byte("this is plainly not a pdf document"))
		var extErr *ExtractionError
		require.True(t, errors.As(err, &extErr))
		assert.Equal(t, ErrInvalidDocument, extErr.Code)
	})
}
