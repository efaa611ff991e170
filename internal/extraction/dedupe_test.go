package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestDedupeProfits(t *testing.T) {
	sourced := model.ProfitItem{Label: "Dividendos", Amount: 100, Currency: "EUR", Source: "Santander", Confidence: 0.75}
	sourceless := model.ProfitItem{Label: "Dividendos", Amount: 100, Currency: "EUR", Confidence: 0.6}
	reit := model.ProfitItem{Label: "Dividendos REIT", Amount: 100, Currency: "EUR", Source: "REIT USA", Confidence: 0.9}

	tests := []struct {
		name string
		in   []model.ProfitItem
		want []model.ProfitItem
	}{
		{
			name: "sourced first drops later sourceless",
			in:   []model.ProfitItem{sourced, sourceless},
			want: []model.ProfitItem{sourced},
		},
		{
			name: "sourceless first keeps both",
			in:   []model.ProfitItem{sourceless, sourced},
			want: []model.ProfitItem{sourceless, sourced},
		},
		{
			name: "later REIT item dropped",
			in:   []model.ProfitItem{sourced, reit},
			want: []model.ProfitItem{sourced},
		},
		{
			name: "REIT first then sourced keeps both",
			in:   []model.ProfitItem{reit, sourced},
			want: []model.ProfitItem{reit, sourced},
		},
		{
			name: "strict duplicate ignores case and padding",
			in: []model.ProfitItem{
				sourced,
				{Label: " DIVIDENDOS ", Amount: 100.004, Currency: "eur", Source: "santander "},
			},
			want: []model.ProfitItem{sourced},
		},
		{
			name: "different currency kept",
			in:   []model.ProfitItem{sourced, {Label: "Dividendos", Amount: 100, Currency: "USD"}},
			want: []model.ProfitItem{sourced, {Label: "Dividendos", Amount: 100, Currency: "USD"}},
		},
		{
			name: "two sourced banks with the same amount kept",
			in:   []model.ProfitItem{sourced, {Label: "Dividendos", Amount: 100, Currency: "EUR", Source: "UBS"}},
			want: []model.ProfitItem{sourced, {Label: "Dividendos", Amount: 100, Currency: "EUR", Source: "UBS"}},
		},
		{
			name: "empty",
			in:   nil,
			want: []model.ProfitItem{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeProfits(tt.in))
		})
	}
}
