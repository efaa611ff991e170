package extraction

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// Known sheet names of a statement workbook.
const (
	SheetTotals               = "Totals"
	SheetDistribution         = "Distribution"
	SheetDistributionChildren = "Distribution-Children"
)

// Column layout of the Totals sheet.
const (
	colLabel      = 0
	colCustody    = 1
	colOffCustody = 2
	colDebt       = 3
	colNetWorth   = 4

	colHistoryDate    = 0
	colHistoryValue   = 4
	colHistoryMonthly = 5
	colHistoryYTD     = 6
)

// Workbook is the parsed grid of the known sheets of one upload. Cells are
// nil, float64, time.Time or string.
type Workbook struct {
	Sheets map[string][][]any
}

// NewWorkbook builds a workbook from sheet grids.
func NewWorkbook(sheets map[string][][]any) *Workbook {
	if sheets == nil {
		sheets = map[string][][]any{}
	}
	return &Workbook{Sheets: sheets}
}

// Sheet returns the rows of a sheet, matching the name case-insensitively.
// A missing sheet yields nil.
func (wb *Workbook) Sheet(name string) [][]any {
	if wb == nil {
		return nil
	}
	if rows, ok := wb.Sheets[name]; ok {
		return rows
	}
	for n, rows := range wb.Sheets {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return rows
		}
	}
	return nil
}

// WorkbookExtractor reads the quantitative sections of a report from a
// statement workbook. Every method is best-effort: missing sheets, rows or
// cells produce empty or zero results, never errors.
type WorkbookExtractor struct {
	logger *slog.Logger
}

// NewWorkbookExtractor creates a workbook extractor.
func NewWorkbookExtractor(logger *slog.Logger) *WorkbookExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExtractor{logger: logger}
}

// ExtractTotals reads the first row of the Totals sheet holding a "total"
// cell.
func (e *WorkbookExtractor) ExtractTotals(wb *Workbook) model.Totals {
	for _, row := range wb.Sheet(SheetTotals) {
		if rowHasCell(row, isTotalCell) {
			return positionFromRow(row)
		}
	}
	e.logger.Debug("[workbook] no total row found", "sheet", SheetTotals)
	return model.Totals{}
}

// ExtractBankBreakdown reads every row strictly between the "banco" header
// row and the next "total" row, keyed by its first column.
func (e *WorkbookExtractor) ExtractBankBreakdown(wb *Workbook) map[string]model.BankPosition {
	banks := make(map[string]model.BankPosition)
	rows := wb.Sheet(SheetTotals)

	start := -1
	for i, row := range rows {
		if rowHasCell(row, func(s string) bool { return strings.Contains(strings.ToLower(s), "banco") }) {
			start = i
			break
		}
	}
	if start < 0 {
		e.logger.Debug("[workbook] no bank header row found")
		return banks
	}

	end := -1
	for i := start + 1; i < len(rows); i++ {
		if rowHasCell(rows[i], isTotalCell) {
			end = i
			break
		}
	}
	if end < 0 {
		e.logger.Debug("[workbook] bank table has no closing total row")
		return banks
	}

	for _, row := range rows[start+1 : end] {
		name := strings.TrimSpace(cellString(cellAt(row, colLabel)))
		if name == "" {
			name = "Unknown"
		}
		banks[name] = positionFromRow(row)
	}
	return banks
}

// ExtractMonthlyHistory reads the rows of the Totals sheet that carry a date
// in the first column and a non-zero net value. Return fractions become
// percentages.
func (e *WorkbookExtractor) ExtractMonthlyHistory(wb *Workbook) []model.HistoryPoint {
	var points []model.HistoryPoint
	for _, row := range wb.Sheet(SheetTotals) {
		date, ok := cellDate(cellAt(row, colHistoryDate))
		if !ok {
			continue
		}
		value := CleanNum(cellAt(row, colHistoryValue))
		if value == 0 {
			continue
		}
		point := model.HistoryPoint{
			Date:             date,
			NetValue:         value,
			MonthlyReturnPct: CleanNum(cellAt(row, colHistoryMonthly)) * 100,
		}
		if ytd := cellAt(row, colHistoryYTD); !isBlank(ytd) {
			pct := CleanNum(ytd) * 100
			point.YTDReturnPct = &pct
		}
		points = append(points, point)
	}
	return points
}

// ExtractAssetAllocation reads the allocation table of the Distribution (or
// Distribution-Children) sheet. The "TOTAL CARTERA" cell fixes the category
// column; categories are looked up in wallet-category order and absent ones
// are omitted.
func (e *WorkbookExtractor) ExtractAssetAllocation(wb *Workbook, children bool) []model.AllocationRow {
	sheet := SheetDistribution
	if children {
		sheet = SheetDistributionChildren
	}
	rows := wb.Sheet(sheet)

	anchorRow, catCol := -1, -1
	for i, row := range rows {
		for j, cell := range row {
			if strings.Contains(strings.ToUpper(cellString(cell)), "TOTAL CARTERA") {
				anchorRow, catCol = i, j
				break
			}
		}
		if anchorRow >= 0 {
			break
		}
	}
	if anchorRow < 0 {
		e.logger.Debug("[workbook] no TOTAL CARTERA anchor", "sheet", sheet)
		return nil
	}

	categories := append(append([]string{}, model.WalletCategories...), model.TotalCategory)
	var result []model.AllocationRow
	for _, category := range categories {
		for _, row := range rows[anchorRow+1:] {
			if !strings.EqualFold(strings.TrimSpace(cellString(cellAt(row, catCol))), category) {
				continue
			}
			result = append(result, model.AllocationRow{
				Category:   category,
				Value:      CleanNum(cellAt(row, catCol+1)),
				Percentage: CleanNum(cellAt(row, catCol+2)) * 100,
			})
			break
		}
	}
	return result
}

// ExtractDraft assembles a report draft for review.
func (e *WorkbookExtractor) ExtractDraft(wb *Workbook, clientID string, reportDate time.Time) *model.ReportDraft {
	totals := e.ExtractTotals(wb)
	history := e.ExtractMonthlyHistory(wb)
	for i := range history {
		history[i].ClientID = clientID
	}

	netWorth := totals.NetWorth
	debt := math.Abs(totals.Debt)
	var ratio float64
	if netWorth != 0 {
		ratio = debt / netWorth
	}

	summary := model.ExecutiveSummary{
		TotalNetWorth: &netWorth,
		TotalDebt:     &debt,
		DebtToWorth:   &ratio,
		Banks:         e.ExtractBankBreakdown(wb),
	}
	if n := len(history); n > 0 && history[n-1].YTDReturnPct != nil {
		summary.YTDReturn = fmt.Sprintf("%.2f%%", *history[n-1].YTDReturnPct)
	}

	draft := &model.ReportDraft{
		ID:               uuid.New().String(),
		ClientID:         clientID,
		ReportDate:       reportDate,
		ExecutiveSummary: summary,
		Snapshot:         model.Snapshot(totals),
		History:          history,
		ParentAllocation: e.ExtractAssetAllocation(wb, false),
		ChildAllocation:  e.ExtractAssetAllocation(wb, true),
		CreatedAt:        time.Now(),
	}
	e.logger.Info("[workbook] draft extracted",
		"client_id", clientID,
		"banks", len(summary.Banks),
		"history_points", len(history),
		"parent_rows", len(draft.ParentAllocation),
		"child_rows", len(draft.ChildAllocation),
	)
	return draft
}

func positionFromRow(row []any) model.BankPosition {
	return model.BankPosition{
		Custody:    CleanNum(cellAt(row, colCustody)),
		OffCustody: CleanNum(cellAt(row, colOffCustody)),
		Debt:       CleanNum(cellAt(row, colDebt)),
		NetWorth:   CleanNum(cellAt(row, colNetWorth)),
	}
}

func isTotalCell(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "total")
}

func rowHasCell(row []any, match func(string) bool) bool {
	for _, cell := range row {
		if s, ok := cell.(string); ok && match(s) {
			return true
		}
	}
	return false
}

func cellAt(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func isBlank(cell any) bool {
	switch v := cell.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(v)
		return s == "" || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(v)
	}
	return false
}

// Excel serials between 1954 and 2119; smaller numbers are amounts or years.
const (
	minDateSerial = 20000
	maxDateSerial = 80000
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01/2006",
	"1/2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"Jan-06",
	"02.01.2006",
}

// cellDate reports whether a cell holds a date-like value.
func cellDate(cell any) (time.Time, bool) {
	switch v := cell.(type) {
	case time.Time:
		return v, !v.IsZero()
	case float64:
		if v < minDateSerial || v > maxDateSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
