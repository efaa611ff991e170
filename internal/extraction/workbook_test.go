package extraction

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func totalsSheet() [][]any {
	return [][]any{
		{"Resumen patrimonial"},
		{"Banco", "Custodia", "Fuera custodia", "Deuda", "Patrimonio neto"},
		{"Santander", 60000.0, 5000.0, -20000.0, 45000.0},
		{"UBS", "40.000,00", nil, nil, "40.000,00"},
		{nil, 0.0, 0.0, 0.0, 0.0},
		{"Total", 100000.0, 5000.0, -20000.0, 85000.0},
		{},
		{"Fecha", nil, nil, nil, "Valor", "Mensual", "YTD"},
		{"2024-01-31", nil, nil, nil, 80000.0, 0.01, 0.01},
		{"2024-02-29", nil, nil, nil, 0.0, 0.02, 0.03},
		{45382.0, nil, nil, nil, 85000.0, 0.0625, 0.0725},
		{"no es fecha", nil, nil, nil, 1.0, 0.5, 0.5},
		{"2024-04-30", nil, nil, nil, 86000.0, 0.01, nil},
	}
}

func distributionSheet() [][]any {
	return [][]any{
		{nil, "Distribucion"},
		{nil, "TOTAL CARTERA", 85000.0, 1.0},
		{nil, "Liquidez", 5000.0, 0.0588},
		{nil, "rv usa", 50000.0, 0.5882},
		{nil, "Otros", 1.0, 0.0},
		{nil, "RF IG", 30000.0, 0.3529},
		{nil, "Total", 85000.0, 1.0},
	}
}

func newTestWorkbook() *Workbook {
	return NewWorkbook(map[string][][]any{
		SheetTotals:       totalsSheet(),
		SheetDistribution: distributionSheet(),
	})
}

func TestExtractTotals(t *testing.T) {
	e := NewWorkbookExtractor(nil)

	t.Run("total row", func(t *testing.T) {
		got := e.ExtractTotals(newTestWorkbook())
		assert.Equal(t, model.Totals{Custody: 100000, OffCustody: 5000, Debt: -20000, NetWorth: 85000}, got)
	})

	t.Run("case insensitive trimmed label", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetTotals: {{"  TOTAL ", 1.0, 2.0, 3.0, 4.0}}})
		assert.Equal(t, model.Totals{Custody: 1, OffCustody: 2, Debt: 3, NetWorth: 4}, e.ExtractTotals(wb))
	})

	t.Run("missing sheet", func(t *testing.T) {
		assert.Equal(t, model.Totals{}, e.ExtractTotals(NewWorkbook(nil)))
	})

	t.Run("no total row", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetTotals: {{"Subtotal", 1.0}, {"Totales", 2.0}}})
		assert.Equal(t, model.Totals{}, e.ExtractTotals(wb))
	})

	t.Run("nil workbook", func(t *testing.T) {
		assert.Equal(t, model.Totals{}, e.ExtractTotals(nil))
	})
}

func TestExtractBankBreakdown(t *testing.T) {
	e := NewWorkbookExtractor(nil)

	t.Run("rows between banco and total", func(t *testing.T) {
		banks := e.ExtractBankBreakdown(newTestWorkbook())
		require.Len(t, banks, 3)
		assert.Equal(t, model.BankPosition{Custody: 60000, OffCustody: 5000, Debt: -20000, NetWorth: 45000}, banks["Santander"])
		assert.Equal(t, model.BankPosition{Custody: 40000, NetWorth: 40000}, banks["UBS"])
		assert.Contains(t, banks, "Unknown")
	})

	t.Run("no closing total", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetTotals: {{"Banco"}, {"Santander", 1.0}}})
		assert.Empty(t, e.ExtractBankBreakdown(wb))
	})

	t.Run("no header", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetTotals: {{"Santander", 1.0}, {"Total", 1.0}}})
		assert.Empty(t, e.ExtractBankBreakdown(wb))
	})

	t.Run("adjacent header and total", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetTotals: {{"Bancos"}, {"total"}}})
		assert.Empty(t, e.ExtractBankBreakdown(wb))
	})
}

func TestExtractMonthlyHistory(t *testing.T) {
	e := NewWorkbookExtractor(nil)
	points := e.ExtractMonthlyHistory(newTestWorkbook())

	require.Len(t, points, 3)

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.InDelta(t, 80000, points[0].NetValue, 1e-9)
	assert.InDelta(t, 1.0, points[0].MonthlyReturnPct, 1e-9)
	require.NotNil(t, points[0].YTDReturnPct)
	assert.InDelta(t, 1.0, *points[0].YTDReturnPct, 1e-9)

	// excel serial 45382 is 2024-03-31
	assert.Equal(t, 2024, points[1].Date.Year())
	assert.Equal(t, time.March, points[1].Date.Month())
	assert.InDelta(t, 6.25, points[1].MonthlyReturnPct, 1e-9)
	require.NotNil(t, points[1].YTDReturnPct)
	assert.InDelta(t, 7.25, *points[1].YTDReturnPct, 1e-9)

	assert.Nil(t, points[2].YTDReturnPct)
}

func TestExtractAssetAllocation(t *testing.T) {
	e := NewWorkbookExtractor(nil)

	t.Run("enumeration order, sparse", func(t *testing.T) {
		rows := e.ExtractAssetAllocation(newTestWorkbook(), false)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"RV USA", "RF IG", "Liquidez", model.TotalCategory},
			[]string{rows[0].Category, rows[1].Category, rows[2].Category, rows[3].Category})
		assert.InDelta(t, 50000, rows[0].Value, 1e-9)
		assert.InDelta(t, 58.82, rows[0].Percentage, 1e-9)
		for _, r := range rows {
			assert.True(t, model.IsWalletCategory(r.Category), r.Category)
		}
	})

	t.Run("children sheet missing", func(t *testing.T) {
		assert.Empty(t, e.ExtractAssetAllocation(newTestWorkbook(), true))
	})

	t.Run("no anchor", func(t *testing.T) {
		wb := NewWorkbook(map[string][][]any{SheetDistribution: {{"Liquidez", 1.0, 1.0}}})
		assert.Empty(t, e.ExtractAssetAllocation(wb, false))
	})
}

func TestExtractDraft(t *testing.T) {
	e := NewWorkbookExtractor(nil)
	date := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	draft := e.ExtractDraft(newTestWorkbook(), "client-1", date)

	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, "client-1", draft.ClientID)
	assert.Equal(t, date, draft.ReportDate)
	assert.Equal(t, model.Snapshot{Custody: 100000, OffCustody: 5000, Debt: -20000, NetWorth: 85000}, draft.Snapshot)
	require.NotNil(t, draft.ExecutiveSummary.TotalNetWorth)
	assert.InDelta(t, 85000, *draft.ExecutiveSummary.TotalNetWorth, 1e-9)
	assert.InDelta(t, 20000, *draft.ExecutiveSummary.TotalDebt, 1e-9)
	assert.InDelta(t, 20000.0/85000.0, *draft.ExecutiveSummary.DebtToWorth, 1e-9)
	// trailing point has no YTD cell
	assert.Empty(t, draft.ExecutiveSummary.YTDReturn)
	assert.Len(t, draft.ExecutiveSummary.Banks, 3)
	for _, p := range draft.History {
		assert.Equal(t, "client-1", p.ClientID)
	}
	assert.Len(t, draft.ParentAllocation, 4)
}

func TestLoadWorkbook_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetTotals))
	require.NoError(t, f.SetSheetRow(SheetTotals, "A1", &[]any{"Banco", "Custodia"}))
	require.NoError(t, f.SetSheetRow(SheetTotals, "A2", &[]any{"Santander", 100000, 5000, -20000, 85000}))
	require.NoError(t, f.SetSheetRow(SheetTotals, "A3", &[]any{"total", 100000, 5000, -20000, 85000}))
	_, err := f.NewSheet("Notas")
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	wb, err := LoadWorkbook(buf.Bytes(), "extracto.xlsx")
	require.NoError(t, err)
	assert.Contains(t, wb.Sheets, SheetTotals)
	assert.NotContains(t, wb.Sheets, "Notas")

	totals := NewWorkbookExtractor(nil).ExtractTotals(wb)
	assert.Equal(t, model.Totals{Custody: 100000, OffCustody: 5000, Debt: -20000, NetWorth: 85000}, totals)
}

func TestLoadWorkbook_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		code     ExtractionErrorCode
	}{
		{name: "empty", data: nil, filename: "a.xlsx", code: ErrEmptyDocument},
		{name: "unsupported", data: []byte("a,b"), filename: "a.csv", code: ErrUnsupportedFormat},
		{name: "corrupt xlsx", data: []byte("not a zip"), filename: "a.xlsx", code: ErrInvalidDocument},
		{name: "corrupt xls", data: []byte("not ole2"), filename: "a.xls", code: ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWorkbook(tt.data, tt.filename)
			var extErr *ExtractionError
			require.True(t, errors.As(err, &extErr))
			assert.Equal(t, tt.code, extErr.Code)
		})
	}
}

func TestTypeCell(t *testing.T) {
	assert.Nil(t, typeCell("  "))
	assert.Equal(t, 12.5, typeCell("12.5"))
	assert.Equal(t, "1.200,50", typeCell("1.200,50"))
	assert.Equal(t, "Total", typeCell(" Total "))
}
