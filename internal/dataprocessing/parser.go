package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"stockpulse/pkg/contracts/domain"
)

// Workbook formats understood by ParseWorkbook
const (
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
	FormatCSV  = "csv"
)

// File-level failures. Any of these aborts the whole ingestion.
var (
	ErrUnsupportedFormat  = errors.New("unsupported workbook format")
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	ErrEmptyWorkbook      = errors.New("workbook has no header row")
)

// Sheet is the first sheet of a workbook as header-keyed rows.
type Sheet struct {
	Name    string
	Format  string
	Headers []string
	Rows    []domain.RawRow
}

// DetectFormat sniffs the payload and falls back to the file extension.
func DetectFormat(fileName string, data []byte) string {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXLSX
	case mtype.Is("application/vnd.ms-excel"), mtype.Is("application/x-ole-storage"):
		return FormatXLS
	case mtype.Is("text/csv"):
		return FormatCSV
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		// zip without the xl/ marker is still worth handing to excelize
		if mtype.Is("application/zip") {
			return FormatXLSX
		}
	case ".xls":
		if mtype.Is("application/x-ole-storage") {
			return FormatXLS
		}
	case ".csv", ".txt":
		if strings.HasPrefix(mtype.String(), "text/") {
			return FormatCSV
		}
	}
	return ""
}

// ParseWorkbook reads the first sheet of an xlsx, xls or csv payload.
// The first non-empty row is the header; fully empty rows are skipped.
func ParseWorkbook(fileName string, data []byte) (*Sheet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadableWorkbook)
	}

	format := DetectFormat(fileName, data)
	var (
		name  string
		table [][]any
		err   error
	)
	switch format {
	case FormatXLSX:
		name, table, err = readXLSX(data)
	case FormatXLS:
		name, table, err = readXLS(data)
	case FormatCSV:
		name, table, err = readCSV(fileName, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: name, Format: format}
	headerIdx := -1
	for i, row := range table {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet.Headers = buildHeaders(table[headerIdx])

	for _, row := range table[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		raw := make(domain.RawRow, len(sheet.Headers))
		for j, header := range sheet.Headers {
			var v any
			if j < len(row) {
				v = row[j]
			}
			raw[header] = v
		}
		sheet.Rows = append(sheet.Rows, raw)
	}
	return sheet, nil
}

// buildHeaders trims header cells and disambiguates blanks and duplicates.
func buildHeaders(row []any) []string {
	headers := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, cell := range row {
		h := strings.TrimSpace(cellText(cell))
		if h == "" {
			h = "__EMPTY"
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}

func isBlankRow(row []any) bool {
	for _, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}

// xlsxReader resolves typed cell values from an excelize workbook.
type xlsxReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func readXLSX(data []byte) (string, [][]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, ErrEmptyWorkbook
	}
	reader := &xlsxReader{f: f, sheet: sheets[0], dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		reader.date1904 = *props.Date1904
	}

	rows, err := f.GetRows(reader.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, reader.sheet, err)
	}

	table := make([][]any, len(rows))
	for i, row := range rows {
		values := make([]any, len(row))
		for j, raw := range row {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				values[j] = raw
				continue
			}
			values[j] = reader.value(ref, raw)
		}
		table[i] = values
	}
	return reader.sheet, table, nil
}

func (x *xlsxReader) value(ref, raw string) any {
	typ, err := x.f.GetCellType(x.sheet, ref)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return t
		}
		return raw
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		if x.isDateStyled(ref) {
			if t, err := excelize.ExcelDateToTime(num, x.date1904); err == nil {
				return t
			}
		}
		return num
	default:
		return raw
	}
}

func (x *xlsxReader) isDateStyled(ref string) bool {
	idx, err := x.f.GetCellStyle(x.sheet, ref)
	if err != nil || idx == 0 {
		return false
	}
	if known, ok := x.dateStyles[idx]; ok {
		return known
	}
	isDate := false
	if style, err := x.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	x.dateStyles[idx] = isDate
	return isDate
}

// isBuiltinDateFormat reports whether an ECMA-376 built-in number format id renders a date.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format carries day or year tokens.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
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
	lower := strings.ToLower(b.String())
	return strings.ContainsAny(lower, "dy")
}

func readXLS(data []byte) (name string, table [][]any, err error) {
	// extrame/xls panics on some malformed BIFF streams
	defer func() {
		if rec := recover(); rec != nil {
			name, table, err = "", nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, rec)
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return "", nil, ErrEmptyWorkbook
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		last := row.LastCol()
		values := make([]any, last)
		for j := row.FirstCol(); j < last; j++ {
			values[j] = xlsCellValue(row.Col(j))
		}
		table = append(table, values)
	}
	return sheet.Name, table, nil
}

// xlsSerialBase is day zero of the 1900 date system
var xlsSerialBase = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// xlsCellValue undoes the display rendering extrame/xls applies to numeric
// cells. A cell with a user-defined number format ("#,##0", "dd/mm/yyyy")
// arrives as an RFC3339 timestamp of its value read as a serial, so it is
// turned back into that serial. Every other cell is passed through as text.
func xlsCellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) == len(time.RFC3339)-5 && s[len(s)-1] == 'Z' {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return xlsSerialFromTime(t)
		}
	}
	return s
}

// xlsSerialFromTime inverts the library's serial-to-time conversion. Serials
// up to 61 go through a Julian path that keeps only minutes, so they are
// rounded to 2 decimals; later serials keep whole seconds and round to 4.
func xlsSerialFromTime(t time.Time) float64 {
	serial := float64(t.Unix()-xlsSerialBase.Unix()) / 86400
	if math.Abs(serial) < 62 {
		return math.Round(serial*100) / 100
	}
	return math.Round(serial*1e4) / 1e4
}

func readCSV(fileName string, data []byte) (string, [][]any, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// spreadsheet exports on Spanish-locale desktops are usually cp1252
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	r := csv.NewReader(src)
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}

	table := make([][]any, len(records))
	for i, rec := range records {
		values := make([]any, len(rec))
		for j, s := range rec {
			if strings.TrimSpace(s) != "" {
				values[j] = s
			}
		}
		table[i] = values
	}
	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return name, table, nil
}

// sniffDelimiter picks ';' or tab over ',' when they dominate the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
