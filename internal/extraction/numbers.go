package extraction

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney parses an amount as printed in a statement. When both '.' and
// ',' appear the one occurring last is the decimal separator. A lone comma
// type is a decimal comma (the last comma when repeated). Repeated dots are
// grouping; a single dot is a decimal point. Unparseable input yields 0.
func ParseMoney(raw string) float64 {
	d, ok := parseDecimal(raw)
	if !ok {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// CleanNum converts a workbook cell to a number. Numeric cells are returned
// as-is; nil, blank and "NaN" are 0; text goes through the ParseMoney rules.
func CleanNum(cell any) float64 {
	switch v := cell.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return CleanNum(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "nan") {
			return 0
		}
		return ParseMoney(s)
	default:
		return 0
	}
}

// NormalizeCurrency maps currency symbols to ISO codes.
func NormalizeCurrency(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	switch c {
	case "€":
		return "EUR"
	case "$", "US$":
		return "USD"
	}
	return c
}

// Cents rounds an amount to integer cents.
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	negative := strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") ||
		(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = replaceAllButLast(s, ",", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
			s = replaceAllButLast(s, ".", "")
		}
	case lastComma >= 0:
		s = replaceAllButLast(s, ",", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.TrimRight(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

func replaceAllButLast(s, sep, with string) string {
	n := strings.Count(s, sep)
	if n <= 1 {
		return s
	}
	return strings.Replace(s, sep, with, n-1)
}
