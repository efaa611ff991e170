package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	eur := FormatCurrency(1234.5, "EUR")
	assert.Contains(t, eur, "€")
	assert.Contains(t, eur, "1,234.50")

	assert.Equal(t, FormatCurrency(10, "EUR"), FormatCurrency(10, ""), "EUR is the default")
	assert.Contains(t, FormatCurrency(10, "usd"), "$")
	assert.Equal(t, "12.30 XYZ", FormatCurrency(12.3, "XYZ"))
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"5.23%", 5.23, true},
		{" -1,5 % ", -1.5, true},
		{"7", 7, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"%", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePercent(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "3.14%", FormatPercent(3.14159))
	assert.Equal(t, "0.00%", FormatPercent(0))
}
