package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"stockpulse/pkg/contracts/domain"
)

// serialEpochOffset is the spreadsheet serial of 1970-01-01
const serialEpochOffset = 25569

var (
	// Always day first: a month-day-year file with day <= 12 is misread.
	dayMonthYear  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	// xls date cells with a built-in format render as "2006.01", day dropped
	yearMonthOnly = regexp.MustCompile(`^\d{4}\.\d{2}$`)
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// textualDateLayouts are tried in order once the day-month-year pattern fails
var textualDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.UnixDate,
	time.ANSIC,
}

// Normalizer turns raw rows into movement records with typed fields.
// Dates are pinned to 12:00 in loc so a later zone conversion cannot move the day.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer creates a normalizer pinning dates in loc (UTC when nil)
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone dates are pinned in
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize fills the typed fields of a record. Process and period are left
// to the classifier. It never fails: bad fields fall back to defaults.
func (n *Normalizer) Normalize(row domain.RawRow) domain.MovementRecord {
	qty, hasQty := lookupColumn(row, domain.ColumnQuantity)
	entry, _ := lookupColumn(row, domain.ColumnEntry)
	exit, _ := lookupColumn(row, domain.ColumnExit)
	date, _ := lookupColumn(row, domain.ColumnDate)
	code, _ := lookupColumn(row, domain.ColumnMaterialCode)
	name, _ := lookupColumn(row, domain.ColumnMaterialName)
	receiver, _ := lookupColumn(row, domain.ColumnReceiver)
	sender, _ := lookupColumn(row, domain.ColumnSender)

	sourceName := valueText(name)
	rec := domain.MovementRecord{
		Date:               n.ParseDate(date),
		Quantity:           CoerceQuantity(qty),
		QuantityMissing:    !hasQty || qty == nil,
		EntryQuantity:      CoerceQuantity(entry),
		ExitQuantity:       CoerceQuantity(exit),
		MaterialCode:       valueText(code),
		MaterialName:       sourceName,
		SourceMaterialName: sourceName,
		ReceiverName:       valueText(receiver),
		SenderName:         valueText(sender),
	}
	if rec.MaterialCode == "" {
		rec.MaterialCode = domain.NoMaterialCode
	}
	if rec.MaterialName == "" {
		rec.MaterialName = domain.NoMaterialName
	}
	return rec
}

// CoerceQuantity parses a quantity cell. Absent or unparsable values yield 0.
// Strings contribute their leading numeric prefix ("12 und" is 12).
func CoerceQuantity(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(t))
		if m == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseDate resolves a date cell, returning nil when no strategy yields a
// valid calendar date. Strategies run in order: a time value, a
// day-month-year string, a textual layout, a spreadsheet serial.
func (n *Normalizer) ParseDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return n.pin(t.Year(), t.Month(), t.Day())
	case float64:
		return n.fromSerial(t)
	case int:
		return n.fromSerial(float64(t))
	case int64:
		return n.fromSerial(float64(t))
	case string:
		return n.parseDateText(strings.TrimSpace(t))
	default:
		return nil
	}
}

func (n *Normalizer) parseDateText(s string) *time.Time {
	if s == "" {
		return nil
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if !validCalendarDate(year, month, day) {
			return nil
		}
		return n.pin(year, time.Month(month), day)
	}
	for _, layout := range textualDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return n.pin(t.Year(), t.Month(), t.Day())
		}
	}
	if yearMonthOnly.MatchString(s) {
		return nil
	}
	// serials sometimes arrive as text from csv and xls sources
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return n.fromSerial(f)
	}
	return nil
}

func (n *Normalizer) fromSerial(serial float64) *time.Time {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	ms := math.Round((serial - serialEpochOffset) * 86400 * 1000)
	// keeps the result inside time.Time's representable years
	if math.Abs(ms) > 2.5e14 {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return n.pin(t.Year(), t.Month(), t.Day())
}

func (n *Normalizer) pin(year int, month time.Month, day int) *time.Time {
	if year < 1 || year > 9999 {
		return nil
	}
	t := time.Date(year, month, day, 12, 0, 0, 0, n.loc)
	return &t
}

func validCalendarDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= lastDay
}

// lookupColumn finds a column by exact trimmed header, falling back to an
// accent and case insensitive match ("Código Material" for "Codigo Material").
func lookupColumn(row domain.RawRow, column string) (any, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	want := foldText(column)
	for key, v := range row {
		if foldText(key) == want {
			return v, true
		}
	}
	return nil, false
}

// valueText renders a cell as trimmed text; absent cells are "".
func valueText(v any) string {
	return strings.TrimSpace(cellText(v))
}

// foldText uppercases, strips diacritics and collapses inner whitespace
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(strings.Join(strings.Fields(folded), " "))
}
