package extraction

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

const (
	reitConfidence     = 0.9
	sectionConfidence  = 0.75
	fallbackConfidence = 0.6

	reitLabel     = "Dividendos REIT"
	reitSource    = "REIT USA"
	dividendLabel = "Dividendos"

	reitBlockChars = 1500
	windowBefore   = 60
	windowAfter    = 140
)

// ProfitRule detects profit items in normalized statement text.
type ProfitRule func(text string) []model.ProfitItem

// moneyExpr captures an amount with a currency before (group 1) or after
// (group 3) it; group 2 is the amount.
const moneyExpr = `(?:(US\$|\$|€|EUR|USD|GBP|CHF)\s*)?(\d[\d.,]*\d|\d)\s*(US\$|\$|€|EUR|USD|GBP|CHF)?`

var (
	reitHeadingRe = regexp.MustCompile(`(?is)RESULTADO\s+DE\s+LA\s+INVERSION.{0,200}?REIT`)

	dividendRe    = regexp.MustCompile(`(?i)\bDIVIDENDOS?\b[^0-9\n]{0,60}?` + moneyExpr)
	yieldRe       = regexp.MustCompile(`(?i)\bRENDIMIENTOS?\b(?:\s+(?:RECIBIDOS?|COBRADOS?))?[^0-9\n]{0,60}?` + moneyExpr)
	bankHeaderRe  = regexp.MustCompile(`(?im)^[ \t]*En[ \t]+([^:\n]{2,60}):`)
	reitCueRe     = regexp.MustCompile(`(?i)\bREITs?\b`)
	transferCueRe = regexp.MustCompile(`(?i)\b(compras?|suscripcion(es)?|suscrito|aportacion(es)?|depositos?|transferencias?|traspasos?|reinversion|purchases?|deposits?|transfers?|subscriptions?)\b`)
)

// TextProfitExtractor detects dividend/profit items in PDF statement text
// using layered rules from most to least specific.
type TextProfitExtractor struct {
	logger   *slog.Logger
	rules    []ProfitRule
	fallback ProfitRule
}

// NewTextProfitExtractor creates an extractor with the standard rule set:
// the REIT block rule, then per-bank sections, with the global dividend scan
// as fallback when neither finds anything.
func NewTextProfitExtractor(logger *slog.Logger) *TextProfitExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextProfitExtractor{
		logger:   logger,
		rules:    []ProfitRule{REITBlockRule, BankSectionRule},
		fallback: GlobalDividendRule,
	}
}

// Extract normalizes text, runs the rules in order and deduplicates.
func (e *TextProfitExtractor) Extract(text string) []model.ProfitItem {
	normalized := textnorm.Normalize(text)

	var items []model.ProfitItem
	for _, rule := range e.rules {
		items = append(items, rule(normalized)...)
	}
	if len(items) == 0 && e.fallback != nil {
		items = e.fallback(normalized)
		if len(items) > 0 {
			e.logger.Debug("[profits] fallback rule used", "items", len(items))
		}
	}

	deduped := DedupeProfits(items)
	e.logger.Debug("[profits] extraction complete", "candidates", len(items), "items", len(deduped))
	return deduped
}

// REITBlockRule reads the dividend line of the "RESULTADO DE LA INVERSION ...
// REIT" block.
func REITBlockRule(text string) []model.ProfitItem {
	loc := reitHeadingRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	block := text[loc[1]:min(len(text), loc[1]+reitBlockChars)]
	m := dividendRe.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	item, ok := itemFromMatch(m, reitLabel, reitSource, reitConfidence)
	if !ok {
		return nil
	}
	return []model.ProfitItem{item}
}

// BankSectionRule splits text at "En <bank>:" headers and reads dividend and
// yield lines in each section, skipping matches that sit next to REIT or
// purchase/transfer wording.
func BankSectionRule(text string) []model.ProfitItem {
	headers := bankHeaderRe.FindAllStringSubmatchIndex(text, -1)
	var items []model.ProfitItem
	for i, h := range headers {
		bank := NormalizeBankName(text[h[2]:h[3]])
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		body := text[h[1]:end]

		for _, re := range []*regexp.Regexp{dividendRe, yieldRe} {
			for _, loc := range re.FindAllStringSubmatchIndex(body, -1) {
				window := body[max(0, loc[0]-windowBefore):min(len(body), loc[0]+windowAfter)]
				if reitCueRe.MatchString(window) || transferCueRe.MatchString(window) {
					continue
				}
				item, ok := itemFromMatch(submatches(body, loc), dividendLabel, bank, sectionConfidence)
				if ok {
					items = append(items, item)
				}
			}
		}
	}
	return items
}

// GlobalDividendRule reports every dividend mention in the text without any
// context filtering.
func GlobalDividendRule(text string) []model.ProfitItem {
	var items []model.ProfitItem
	for _, m := range dividendRe.FindAllStringSubmatch(text, -1) {
		if item, ok := itemFromMatch(m, dividendLabel, "", fallbackConfidence); ok {
			items = append(items, item)
		}
	}
	return items
}

// itemFromMatch builds an item from a money match (groups as in moneyExpr,
// offset by the match itself). Matches without currency or with a zero
// amount are rejected.
func itemFromMatch(m []string, label, source string, confidence float64) (model.ProfitItem, bool) {
	if len(m) < 4 {
		return model.ProfitItem{}, false
	}
	currency := m[len(m)-1]
	if currency == "" {
		currency = m[len(m)-3]
	}
	if currency == "" {
		return model.ProfitItem{}, false
	}
	amount := math.Abs(ParseMoney(m[len(m)-2]))
	if amount == 0 {
		return model.ProfitItem{}, false
	}
	return model.ProfitItem{
		Label:      label,
		Amount:     amount,
		Currency:   NormalizeCurrency(currency),
		Source:     strings.TrimSpace(source),
		Confidence: confidence,
	}, true
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
