// Package extraction turns uploaded statements into structured report data:
// workbooks into report drafts and PDF statements into profit items.
package extraction

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

// bankAliases maps known bank keywords (folded, lower case) to display names.
var bankAliases = map[string]string{
	"santander":           "Santander",
	"bbva":                "BBVA",
	"caixabank":           "CaixaBank",
	"la caixa":            "CaixaBank",
	"bankinter":           "Bankinter",
	"sabadell":            "Sabadell",
	"ubs":                 "UBS",
	"julius baer":         "Julius Baer",
	"pictet":              "Pictet",
	"andbank":             "Andbank",
	"credit suisse":       "Credit Suisse",
	"morgan stanley":      "Morgan Stanley",
	"jp morgan":           "J.P. Morgan",
	"j.p. morgan":         "J.P. Morgan",
	"goldman sachs":       "Goldman Sachs",
	"interactive brokers": "Interactive Brokers",
	"renta 4":             "Renta 4",
	"inversis":            "Inversis",
}

// aliasesByLength lists alias keys longest first so "julius baer" wins
// over shorter overlapping keys.
var aliasesByLength = func() []string {
	keys := make([]string, 0, len(bankAliases))
	for k := range bankAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var (
	bankPrefixPattern = regexp.MustCompile(`(?i)^(banco |bank |entidad )`)
	bankSuffixPattern = regexp.MustCompile(`(?i)[\s,]+(s\.?a\.?|sa|ag|plc|ltd|inc)\.?$`)
	bankPunct         = regexp.MustCompile(`[*#:]+`)
)

// NormalizeBankName returns the display name for a bank as written in a
// statement header or workbook cell. Unknown names are title-cased.
func NormalizeBankName(raw string) string {
	cleaned := strings.TrimSpace(bankPunct.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return ""
	}
	key := strings.ToLower(textnorm.Fold(cleaned))
	key = bankPrefixPattern.ReplaceAllString(key, "")
	key = strings.TrimSpace(bankSuffixPattern.ReplaceAllString(key, ""))

	if name, ok := bankAliases[key]; ok {
		return name
	}
	for _, alias := range aliasesByLength {
		if strings.Contains(" "+key+" ", " "+alias+" ") {
			return bankAliases[alias]
		}
	}
	return formatBankName(cleaned)
}

func formatBankName(raw string) string {
	caser := cases.Title(language.Spanish)
	words := strings.Fields(raw)
	for i, word := range words {
		if len(word) > 3 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}
	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}
