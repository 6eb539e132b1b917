package gridsheet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// excelEpoch is day zero of the serial date system used by date arithmetic.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Range is a rectangle of a sheet produced by evaluating a reference.
// Values are solved lazily on access.
type Range struct {
	table *Table
	area  Area
}

// Table returns the sheet snapshot the range points into.
func (r *Range) Table() *Table { return r.table }

// Area returns the rectangle covered.
func (r *Range) Area() Area { return r.area }

// Height returns the number of rows.
func (r *Range) Height() int { return r.area.Height() }

// Width returns the number of columns.
func (r *Range) Width() int { return r.area.Width() }

// At returns the solved value at the 0-based offset (y, x) inside the range.
// Evaluation errors are returned as error values.
func (r *Range) At(y, x int) any {
	v, err := r.table.solvePoint(Point{Y: r.area.Top + y, X: r.area.Left + x})
	if err != nil {
		return err
	}
	return v
}

// Values solves the whole range row by row.
func (r *Range) Values() [][]any {
	out := make([][]any, r.Height())
	for y := range out {
		row := make([]any, r.Width())
		for x := range row {
			row[x] = r.At(y, x)
		}
		out[y] = row
	}
	return out
}

// pending returns the first pending value in the range, if any.
func (r *Range) pending() *Pending {
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if p, ok := r.At(y, x).(*Pending); ok {
				return p
			}
		}
	}
	return nil
}

// strip reduces a value to a scalar: a range yields its top-left value and an
// error value is returned as the error.
func strip(v any) (any, error) {
	switch x := v.(type) {
	case *Range:
		return strip(x.At(0, 0))
	case error:
		return nil, x
	default:
		return v, nil
	}
}

// flatten lists every scalar of a range row by row; a scalar yields itself.
func flatten(v any) []any {
	r, ok := v.(*Range)
	if !ok {
		return []any{v}
	}
	out := make([]any, 0, r.Height()*r.Width())
	for _, row := range r.Values() {
		out = append(out, row...)
	}
	return out
}

func ensureNumber(v any) (float64, error) {
	v, err := strip(v)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return toSerial(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if strings.HasSuffix(s, "%") {
			n, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
			if err == nil {
				return n / 100, nil
			}
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, NewValueError("%q cannot be converted to a number", x)
		}
		return n, nil
	default:
		return 0, NewValueError("value of type %T cannot be converted to a number", v)
	}
}

func ensureString(v any) (string, error) {
	v, err := strip(v)
	if err != nil {
		return "", err
	}
	return formatValue(v), nil
}

func ensureBoolean(v any) (bool, error) {
	v, err := strip(v)
	if err != nil {
		return false, err
	}
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case float64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "TRUE":
			return true, nil
		case "FALSE", "":
			return false, nil
		}
		return false, NewValueError("%q cannot be converted to a boolean", x)
	default:
		return false, NewValueError("value of type %T cannot be converted to a boolean", v)
	}
}

func ensureDate(v any) (time.Time, error) {
	v, err := strip(v)
	if err != nil {
		return time.Time{}, err
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	if s, ok := v.(string); ok {
		if t, ok := parseDate(s); ok {
			return t, nil
		}
	}
	n, err := ensureNumber(v)
	if err != nil {
		return time.Time{}, err
	}
	return fromSerial(n)
}

func toSerial(t time.Time) float64 {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	frac := t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location())).Hours() / 24
	return math.Round(day.Sub(excelEpoch).Hours()/24) + frac
}

func fromSerial(n float64) (time.Time, error) {
	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return time.Time{}, NewNumError("%v is not a valid date serial", n)
	}
	return t, nil
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"}

// parseDate recognizes the date formats accepted as raw cell input.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatNumber renders a float with at most 15 significant digits.
func formatNumber(n float64) string {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return string(ErrorCodeNum)
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(n, 'g', 15, 64), 64)
	if err != nil {
		rounded = n
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// formatValue renders a scalar for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatNumber(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case *Pending:
		return PendingText
	case error:
		return string(errorCodeOf(x))
	default:
		return ""
	}
}

// normalizeValue stores every Go number kind as float64.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// parseInput converts raw edit text into a typed cell value.
func parseInput(s string) any {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "=") {
		return s
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if numberRegex.MatchString(s) || (len(s) > 1 && (s[0] == '-' || s[0] == '+') && numberRegex.MatchString(s[1:])) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	if t, ok := parseDate(s); ok {
		return t
	}
	return s
}
