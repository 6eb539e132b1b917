package gridsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Point is a 1-based cell position. Row 0 and column 0 are the header cells.
type Point struct {
	Y int
	X int
}

// Area is a normalized rectangle, inclusive on all sides.
type Area struct {
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Zone is a rectangle expressed as the two endpoints of a drag.
type Zone struct {
	StartY int
	StartX int
	EndY   int
	EndX   int
}

// Area normalizes the zone.
func (z Zone) Area() Area {
	return Area{
		Top:    min(z.StartY, z.EndY),
		Left:   min(z.StartX, z.EndX),
		Bottom: max(z.StartY, z.EndY),
		Right:  max(z.StartX, z.EndX),
	}
}

// Height returns the number of rows covered.
func (a Area) Height() int { return a.Bottom - a.Top + 1 }

// Width returns the number of columns covered.
func (a Area) Width() int { return a.Right - a.Left + 1 }

// Contains reports whether p lies inside the area.
func (a Area) Contains(p Point) bool {
	return p.Y >= a.Top && p.Y <= a.Bottom && p.X >= a.Left && p.X <= a.Right
}

// TopLeft returns the first cell of the area.
func (a Area) TopLeft() Point { return Point{Y: a.Top, X: a.Left} }

// Slide moves the area by (dy, dx).
func (a Area) Slide(dy, dx int) Area {
	return Area{Top: a.Top + dy, Left: a.Left + dx, Bottom: a.Bottom + dy, Right: a.Right + dx}
}

// String formats the area as "A1:B2".
func (a Area) String() string {
	return PointToAddress(a.TopLeft()) + ":" + PointToAddress(Point{Y: a.Bottom, X: a.Right})
}

// NewArea builds a normalized area from two corner points.
func NewArea(a, b Point) Area {
	return Zone{StartY: a.Y, StartX: a.X, EndY: b.Y, EndX: b.X}.Area()
}

// ColToName converts a 1-based column number to letters: 1 → "A", 27 → "AA".
func ColToName(x int) string {
	name, err := excelize.ColumnNumberToName(x)
	if err != nil {
		return ""
	}
	return name
}

// NameToCol converts column letters to a 1-based column number.
func NameToCol(name string) (int, error) {
	x, err := excelize.ColumnNameToNumber(strings.ToUpper(name))
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", name, err)
	}
	return x, nil
}

// PointToAddress formats a point as "B3". Header positions render as "".
func PointToAddress(p Point) string {
	if p.Y < 1 || p.X < 1 {
		return ""
	}
	name, err := excelize.CoordinatesToCellName(p.X, p.Y)
	if err != nil {
		return ""
	}
	return name
}

// AddressToPoint parses "B3" or "$B$3" into a point.
func AddressToPoint(addr string) (Point, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return Point{}, err
	}
	return a.Point, nil
}

// address is a parsed cell address together with its absolute markers.
type address struct {
	Point
	AbsCol bool
	AbsRow bool
}

var (
	cellAddressRegex = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)
	colAddressRegex  = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})$`)
	rowAddressRegex  = regexp.MustCompile(`^(\$?)([0-9]+)$`)
)

func parseAddress(s string) (address, error) {
	m := cellAddressRegex.FindStringSubmatch(s)
	if m == nil {
		return address{}, fmt.Errorf("invalid cell address %q", s)
	}
	col, row, err := excelize.CellNameToCoordinates(strings.ToUpper(m[2]) + m[4])
	if err != nil {
		return address{}, fmt.Errorf("invalid cell address %q: %w", s, err)
	}
	return address{Point: Point{Y: row, X: col}, AbsCol: m[1] == "$", AbsRow: m[3] == "$"}, nil
}

// parseLineAddress parses the column-only ("$A") or row-only ("3") half of a
// whole-column or whole-row range.
func parseLineAddress(s string) (n int, abs bool, isCol bool, err error) {
	if m := colAddressRegex.FindStringSubmatch(s); m != nil {
		x, err := NameToCol(m[2])
		return x, m[1] == "$", true, err
	}
	if m := rowAddressRegex.FindStringSubmatch(s); m != nil {
		y, err := strconv.Atoi(m[2])
		if err != nil || y < 1 {
			return 0, false, false, fmt.Errorf("invalid row %q", s)
		}
		return y, m[1] == "$", false, nil
	}
	return 0, false, false, fmt.Errorf("invalid line address %q", s)
}

func (a address) String() string {
	if a.Y < 1 || a.X < 1 {
		return string(ErrorCodeRef)
	}
	var b strings.Builder
	if a.AbsCol {
		b.WriteByte('$')
	}
	b.WriteString(ColToName(a.X))
	if a.AbsRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(a.Y))
	return b.String()
}

// slide shifts the relative parts of the address.
func (a address) slide(dy, dx int) address {
	if !a.AbsRow {
		a.Y += dy
	}
	if !a.AbsCol {
		a.X += dx
	}
	return a
}

// splitSheet splits "'My Sheet'!A1" into ("My Sheet", "A1", true).
func splitSheet(ref string) (sheet, rest string, ok bool) {
	inQuote := false
	for i := 0; i < len(ref); i++ {
		switch ref[i] {
		case '\'':
			inQuote = !inQuote
		case '!':
			if !inQuote {
				return unquoteSheetName(ref[:i]), ref[i+1:], true
			}
		}
	}
	return "", ref, false
}

func unquoteSheetName(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

var plainSheetNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// quoteSheetName quotes a sheet name for use in formula text when needed.
func quoteSheetName(name string) string {
	if plainSheetNameRegex.MatchString(name) && !cellAddressRegex.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
