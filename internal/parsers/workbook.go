// Package parsers turns human-maintained spreadsheets into raw tables and
// coerces their cells into canonical values.
//
// Workbooks are read with excelize (.xlsx) or encoding/csv (.csv, treated as
// a single-sheet workbook). Reading is deliberately forgiving:
//   - headers are whitespace-trimmed and looked up case-insensitively
//   - numeric cells styled as dates are converted to dates on load
//   - unparseable cells become absent values instead of errors
//
// Example usage:
//
//	wb, err := parsers.OpenWorkbook(parsers.FileSource("revenue workbook", path), nil)
//	if err != nil {
//		return err
//	}
//	defer wb.Close()
//	sheet, _ := parsers.DefaultActualsRules()[0].Select(wb.SheetNames())
//	table, err := wb.ReadSheet(sheet)
package parsers

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"revenue-dashboard/internal/models"
	"revenue-dashboard/pkg/errors"
	"revenue-dashboard/pkg/logger"
)

// Workbook is an opened input from which sheets can be read
type Workbook interface {
	SheetNames() []string
	ReadSheet(name string) (*models.RawTable, error)
	Close() error
}

// OpenWorkbook opens a source according to its format
func OpenWorkbook(src Source, config *ReadConfig) (Workbook, error) {
	if config == nil {
		config = DefaultReadConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "read", config, err)
	}

	if !src.IsUpload() && strings.TrimSpace(src.Path) == "" {
		return nil, errors.InputError(errors.CodeMissingInput, src.Label(), nil)
	}

	if src.Format() == FormatCSV {
		wb, err := openCSV(src, config)
		if err != nil {
			return nil, err
		}
		return wb, nil
	}
	wb, err := openXLSX(src, config)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

type xlsxWorkbook struct {
	label      string
	file       *excelize.File
	config     *ReadConfig
	date1904   bool
	dateStyles map[int]bool
	logger     logger.Logger
}

func openXLSX(src Source, config *ReadConfig) (*xlsxWorkbook, error) {
	log := logger.GetGlobalLogger().WithComponent("workbook").WithField("source", src.Label())

	var (
		f   *excelize.File
		err error
	)
	if src.IsUpload() {
		f, err = excelize.OpenReader(bytes.NewReader(src.Content))
	} else {
		f, err = excelize.OpenFile(src.Path)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to open workbook")
		if os.IsNotExist(err) {
			return nil, errors.InputError(errors.CodeMissingInput, src.Label(), err)
		}
		if os.IsPermission(err) {
			return nil, errors.InputError(errors.CodeInputUnreadable, src.Label(), err)
		}
		return nil, errors.InputError(errors.CodeWorkbookCorrupted, src.Label(), err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	log.WithField("sheets", f.GetSheetList()).Debug("Opened workbook")
	return &xlsxWorkbook{
		label:      src.Label(),
		file:       f,
		config:     config,
		date1904:   date1904,
		dateStyles: make(map[int]bool),
		logger:     log,
	}, nil
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) ReadSheet(name string) (*models.RawTable, error) {
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(errors.CodeWorkbookCorrupted, w.label, name, err)
	}
	if len(rows) == 0 {
		return models.NewRawTable(name, nil, nil), nil
	}

	headers := rows[0]
	cells := make([][]any, 0, len(rows)-1)
	skipped := 0
	for r := 1; r < len(rows); r++ {
		raw := rows[r]
		if w.config.SkipEmptyRows && allBlank(raw) {
			skipped++
			continue
		}

		values := make([]any, len(headers))
		for c := 0; c < len(headers) && c < len(raw); c++ {
			values[c] = w.cellValue(name, c+1, r+1, raw[c])
		}
		cells = append(cells, values)

		if w.config.MaxRows > 0 && len(cells) >= w.config.MaxRows {
			break
		}
	}

	w.logger.WithFields(logger.Fields{
		"sheet":        name,
		"rows":         len(cells),
		"skipped_rows": skipped,
	}).Debug("Read sheet")
	return models.NewRawTable(name, headers, cells), nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}

// cellValue types a raw cell: blank -> nil, number -> float64, number with a
// date format -> time.Time, anything else -> string
func (w *xlsxWorkbook) cellValue(sheet string, col, row int, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return raw
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err == nil && w.isDateCell(sheet, axis) {
		if t, err := excelize.ExcelDateToTime(num, w.date1904); err == nil {
			return t
		}
	}
	return num
}

func (w *xlsxWorkbook) isDateCell(sheet, axis string) bool {
	styleID, err := w.file.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := w.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateStyle(style)
	}
	w.dateStyles[styleID] = isDate
	return isDate
}

// builtinDateFormats are the built-in number format ids that render a calendar date
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true,
	34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true,
	55: true, 56: true, 57: true, 58: true,
}

func isDateStyle(style *excelize.Style) bool {
	if style.CustomNumFmt != nil && strings.TrimSpace(*style.CustomNumFmt) != "" {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormats[style.NumFmt]
}

// isDateFormatCode reports whether a custom number format shows a year, day
// or month name. Quoted literals, escapes and [..] sections are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.ToLower(b.String())
	return strings.ContainsAny(cleaned, "yd") || strings.Contains(cleaned, "mmm")
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// csvWorkbook exposes a CSV file as a workbook with one sheet named after the file
type csvWorkbook struct {
	sheet string
	table *models.RawTable
}

func openCSV(src Source, config *ReadConfig) (*csvWorkbook, error) {
	log := logger.GetGlobalLogger().WithComponent("workbook").WithField("source", src.Label())

	var data []byte
	if src.IsUpload() {
		data = src.Content
	} else {
		var err error
		data, err = os.ReadFile(src.Path)
		if err != nil {
			log.WithError(err).Warn("Failed to read CSV file")
			if os.IsNotExist(err) {
				return nil, errors.InputError(errors.CodeMissingInput, src.Label(), err)
			}
			return nil, errors.InputError(errors.CodeInputUnreadable, src.Label(), err)
		}
	}

	if config.ValidateEncoding && !utf8.Valid(data) {
		return nil, errors.InputError(errors.CodeWorkbookCorrupted, src.Label(), nil).
			WithSuggestion("save the CSV file in UTF-8 encoding")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	name := src.Filename
	if !src.IsUpload() {
		name = src.Path
	}
	sheet := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if sheet == "" || sheet == "." {
		sheet = "Sheet1"
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	var headers []string
	var cells [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(errors.CodeWorkbookCorrupted, src.Label(), sheet, err)
		}
		if headers == nil {
			headers = record
			continue
		}
		if config.SkipEmptyRows && allBlank(record) {
			continue
		}

		values := make([]any, len(record))
		for i, field := range record {
			if strings.TrimSpace(field) != "" {
				values[i] = field
			}
		}
		cells = append(cells, values)

		if config.MaxRows > 0 && len(cells) >= config.MaxRows {
			break
		}
	}

	log.WithFields(logger.Fields{"sheet": sheet, "rows": len(cells)}).Debug("Read CSV sheet")
	return &csvWorkbook{sheet: sheet, table: models.NewRawTable(sheet, headers, cells)}, nil
}

func (w *csvWorkbook) SheetNames() []string {
	return []string{w.sheet}
}

func (w *csvWorkbook) ReadSheet(name string) (*models.RawTable, error) {
	if name != w.sheet {
		return nil, errors.ParseError(errors.CodeSheetNotFound, w.sheet, name, nil)
	}
	return w.table, nil
}

func (w *csvWorkbook) Close() error {
	return nil
}
