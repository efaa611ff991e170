package extraction

import (
	"fmt"
	"strings"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// DedupeProfits drops repeated mentions of the same payment. First
// occurrence wins. An exact repeat (label, currency, cents, source) is always
// dropped. A later item with an already-seen (currency, cents) pair is
// dropped only when it is a REIT item or has no source.
func DedupeProfits(items []model.ProfitItem) []model.ProfitItem {
	strict := make(map[string]struct{}, len(items))
	numeric := make(map[string]struct{}, len(items))
	out := make([]model.ProfitItem, 0, len(items))

	for _, item := range items {
		cents := Cents(item.Amount)
		currency := strings.ToUpper(strings.TrimSpace(item.Currency))

		strictKey := fmt.Sprintf("%s|%s|%d|%s",
			strings.ToLower(strings.TrimSpace(item.Label)), currency, cents,
			strings.ToLower(strings.TrimSpace(item.Source)))
		if _, dup := strict[strictKey]; dup {
			continue
		}

		numericKey := fmt.Sprintf("%s|%d", currency, cents)
		if _, seen := numeric[numericKey]; seen && isWeakEvidence(item) {
			continue
		}

		strict[strictKey] = struct{}{}
		numeric[numericKey] = struct{}{}
		out = append(out, item)
	}
	return out
}

func isWeakEvidence(item model.ProfitItem) bool {
	return strings.Contains(strings.ToLower(item.Label), "reit") || strings.TrimSpace(item.Source) == ""
}
