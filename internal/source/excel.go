package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "pulldata/internal/errors"
	"pulldata/internal/table"
)

// ExcelSource reads one sheet of an .xlsx or .xlsm workbook
type ExcelSource struct {
	path    string
	sheet   string
	columns []int
	logger  *slog.Logger
}

// NewExcelSource creates a workbook loader
func NewExcelSource(path, sheet string, columns []int, logger *slog.Logger) *ExcelSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelSource{path: path, sheet: sheet, columns: columns, logger: logger}
}

// Load reads the sheet as text. Cells are read raw so that numbers keep the
// digits stored in the workbook instead of their display format. Date cells
// are the exception and are rendered as "2006-01-02 15:04:05".
func (s *ExcelSource) Load(ctx context.Context) (*table.Table, error) {
	s.logger.InfoContext(ctx, "Reading workbook",
		slog.String("path", s.path),
		slog.String("sheet", s.sheet))

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", s.path)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q not found", s.sheet), err).
			WithContext("path", s.path)
	}

	rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet rows", err).WithContext("sheet", s.sheet)
	}

	if err := s.renderDates(f, rows); err != nil {
		return nil, err
	}

	t, err := selectColumns(rows, s.columns, fmt.Sprintf("sheet %q", s.sheet))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Workbook loaded",
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns)))
	return t, nil
}

// DateLayout is how date cells appear in the loaded table
const DateLayout = "2006-01-02 15:04:05"

// renderDates replaces the serial numbers of date formatted cells with text
func (s *ExcelSource) renderDates(f *excelize.File, rows [][]string) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	styles := make(map[int]bool)
	for r, row := range rows {
		for c, value := range row {
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return apperrors.NewParsingError("invalid cell position", err)
			}
			if kind, err := f.GetCellType(s.sheet, cell); err != nil ||
				kind == excelize.CellTypeSharedString || kind == excelize.CellTypeInlineString {
				continue
			}
			styleID, err := f.GetCellStyle(s.sheet, cell)
			if err != nil || styleID == 0 {
				continue
			}
			isDate, ok := styles[styleID]
			if !ok {
				isDate = dateStyle(f, styleID)
				styles[styleID] = isDate
			}
			if !isDate {
				continue
			}
			at, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				return apperrors.NewParsingError("invalid date cell", err).WithContext("cell", cell)
			}
			row[c] = at.Round(time.Second).Format(DateLayout)
		}
	}
	return nil
}

// dateStyle reports whether the style's number format shows a date or time
func dateStyle(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return dateFormat(*style.CustomNumFmt)
	}
	switch n := style.NumFmt; {
	case n >= 14 && n <= 22, n >= 27 && n <= 36, n >= 45 && n <= 47, n >= 50 && n <= 58:
		return true
	}
	return false
}

// dateFormat looks for date or time tokens outside quoted and bracketed text
func dateFormat(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	plain := b.String()
	return strings.ContainsAny(plain, "yd") || strings.Contains(plain, "h") ||
		(strings.Contains(plain, "m") && strings.Contains(plain, "s"))
}
