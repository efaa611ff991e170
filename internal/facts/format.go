package facts

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a profile has no preferred currency.
const DefaultCurrency = "EUR"

// FormatCurrency renders amount in currency using the currency's own symbol
// and fraction digits. Unknown codes fall back to "<amount> <code>".
func FormatCurrency(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = DefaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", decimal.NewFromFloat(amount).StringFixed(2), code)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// ParsePercent reads strings such as "5.23%", "-1,5 %" or "7". It reports
// false for anything without a number.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}
