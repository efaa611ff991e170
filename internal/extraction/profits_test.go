package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

const reitAndSantanderStatement = `RESULTADO DE LA INVERSIÓN EN REIT USA
Periodo enero - marzo
DIVIDENDOS COBRADOS: 1.200,50 EUR

En Santander:
Cartera gestionada sin movimientos relevantes.
Se han abonado dividendos de 1.200,50 EUR en la cuenta.
`

func TestREITBlockRule(t *testing.T) {
	t.Run("dividend inside block", func(t *testing.T) {
		items := REITBlockRule(textnorm.Normalize(reitAndSantanderStatement))
		require.Len(t, items, 1)
		assert.Equal(t, model.ProfitItem{
			Label: "Dividendos REIT", Amount: 1200.50, Currency: "EUR", Source: "REIT USA", Confidence: 0.9,
		}, items[0])
	})

	t.Run("no heading", func(t *testing.T) {
		assert.Empty(t, REITBlockRule("DIVIDENDOS COBRADOS: 10,00 EUR"))
	})

	t.Run("dividend beyond block length", func(t *testing.T) {
		text := "RESULTADO DE LA INVERSION REIT\n" + strings.Repeat("x", 1600) + "DIVIDENDOS: 10,00 EUR"
		assert.Empty(t, REITBlockRule(text))
	})

	t.Run("leading currency symbol", func(t *testing.T) {
		items := REITBlockRule("RESULTADO DE LA INVERSION - REIT\nDividendos netos: US$ 1,050.25")
		require.Len(t, items, 1)
		assert.Equal(t, "USD", items[0].Currency)
		assert.InDelta(t, 1050.25, items[0].Amount, 1e-9)
	})
}

func TestBankSectionRule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []model.ProfitItem
	}{
		{
			name: "dividend line per bank",
			text: "En Santander:\nDividendos 300,00 EUR\nEn UBS:\nRendimiento cobrado 1,250.00 USD\n",
			want: []model.ProfitItem{
				{Label: "Dividendos", Amount: 300, Currency: "EUR", Source: "Santander", Confidence: 0.75},
				{Label: "Dividendos", Amount: 1250, Currency: "USD", Source: "UBS", Confidence: 0.75},
			},
		},
		{
			name: "reit cue nearby discards",
			text: "En Bankinter:\nDividendos del fondo REIT 500,00 EUR\n",
			want: nil,
		},
		{
			name: "transfer cue nearby discards",
			text: "En BBVA:\nTransferencia de dividendos 800,00 EUR\n",
			want: nil,
		},
		{
			name: "purchase cue within window after the match discards",
			text: "En BBVA:\nDividendos 800,00 EUR por compra de acciones\n",
			want: nil,
		},
		{
			name: "amount without currency ignored",
			text: "En Sabadell:\nDividendos 800,00\n",
			want: nil,
		},
		{
			name: "text before first header ignored",
			text: "Dividendos 10,00 EUR\nEn Pictet:\nSin movimientos\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BankSectionRule(tt.text))
		})
	}
}

func TestGlobalDividendRule(t *testing.T) {
	items := GlobalDividendRule("Resumen\nDIVIDENDOS: 45,10 EUR\notros dividendos 12 €\ndividendos 0,00 EUR")
	require.Len(t, items, 2)
	assert.Equal(t, model.ProfitItem{Label: "Dividendos", Amount: 45.10, Currency: "EUR", Confidence: 0.6}, items[0])
	assert.InDelta(t, 12, items[1].Amount, 1e-9)
	assert.Equal(t, "EUR", items[1].Currency)
}

func TestTextProfitExtractor(t *testing.T) {
	e := NewTextProfitExtractor(nil)

	t.Run("REIT block and bank section keep both items", func(t *testing.T) {
		items := e.Extract(reitAndSantanderStatement)
		require.Len(t, items, 2)
		assert.Equal(t, "Dividendos REIT", items[0].Label)
		assert.Equal(t, "REIT USA", items[0].Source)
		assert.Equal(t, "Dividendos", items[1].Label)
		assert.Equal(t, "Santander", items[1].Source)
		assert.Equal(t, items[0].Amount, items[1].Amount)
	})

	t.Run("fallback only when earlier rules find nothing", func(t *testing.T) {
		items := e.Extract("Extracto trimestral\nDividendos brutos 99,99 EUR\n")
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Source)
		assert.Equal(t, 0.6, items[0].Confidence)
	})

	t.Run("fallback skipped when a section matched", func(t *testing.T) {
		items := e.Extract("Dividendos 5,00 EUR\nEn UBS:\nDividendos 7,00 EUR\n")
		require.Len(t, items, 1)
		assert.Equal(t, "UBS", items[0].Source)
	})

	t.Run("repeated mention in section deduplicated", func(t *testing.T) {
		items := e.Extract("En Santander:\nDividendos 10,00 EUR\nRendimiento recibido por dividendos 10,00 EUR\n")
		require.Len(t, items, 1)
	})

	t.Run("nothing found", func(t *testing.T) {
		assert.Empty(t, e.Extract("Saldo final 1.000,00 EUR"))
	})
}
