package extraction

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var knownSheets = []string{SheetTotals, SheetDistribution, SheetDistributionChildren}

// LoadWorkbook parses an uploaded .xlsx (or legacy .xls) file and keeps the
// known sheets. A readable file that lacks some sheets is not an error.
func LoadWorkbook(data []byte, filename string) (*Workbook, error) {
	if len(data) == 0 {
		return nil, newExtractionError(ErrEmptyDocument, filename, "empty workbook payload", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		return loadXLS(data, filename)
	case ".xlsx", ".xlsm", "":
		wb, err := loadXLSX(data, filename)
		if err == nil || ext != "" {
			return wb, err
		}
		slog.Debug("[workbook] not an xlsx file, trying legacy xls", "filename", filename, "error", err)
		return loadXLS(data, filename)
	default:
		return nil, newExtractionError(ErrUnsupportedFormat, filename, fmt.Sprintf("unsupported workbook extension %q", ext), nil)
	}
}

func loadXLSX(data []byte, filename string) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newExtractionError(ErrInvalidDocument, filename, "open xlsx", err)
	}
	defer f.Close()

	wb := NewWorkbook(nil)
	for _, name := range f.GetSheetList() {
		known, ok := matchKnownSheet(name)
		if !ok {
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			slog.Warn("[workbook] unreadable sheet skipped", "filename", filename, "sheet", name, "error", err)
			continue
		}
		wb.Sheets[known] = typeRows(rows)
	}
	return wb, nil
}

func loadXLS(data []byte, filename string) (wb *Workbook, err error) {
	// extrame/xls panics on some truncated files
	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = newExtractionError(ErrInvalidDocument, filename, "open xls", fmt.Errorf("panic: %v", r))
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, newExtractionError(ErrInvalidDocument, filename, "open xls", err)
	}

	wb = NewWorkbook(nil)
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		known, ok := matchKnownSheet(sheet.Name)
		if !ok {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		wb.Sheets[known] = typeRows(rows)
	}
	return wb, nil
}

func matchKnownSheet(name string) (string, bool) {
	for _, known := range knownSheets {
		if strings.EqualFold(strings.TrimSpace(name), known) {
			return known, true
		}
	}
	return "", false
}

// typeRows converts raw cell text: blank -> nil, plain numeric -> float64,
// anything else stays a string.
func typeRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, raw := range row {
			cells[j] = typeCell(raw)
		}
		out[i] = cells
	}
	return out
}

func typeCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
