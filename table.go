package gridsheet

import (
	"strings"
)

// Limits bounds the number of rows and columns of a sheet. A negative max is
// unbounded.
type Limits struct {
	MinRows int `koanf:"min_rows"`
	MaxRows int `koanf:"max_rows"`
	MinCols int `koanf:"min_cols"`
	MaxCols int `koanf:"max_cols"`
}

// DefaultLimits allows any size of at least one row and one column.
func DefaultLimits() Limits {
	return Limits{MinRows: 1, MaxRows: -1, MinCols: 1, MaxCols: -1}
}

// tableStore is the cell arena of one sheet, shared by all its snapshots.
type tableStore struct {
	name    string
	matrix  [][]ID // [y][x], row 0 and column 0 are headers
	cells   map[ID]*Cell
	lastID  ID
	index   map[ID]Point // nil until built; reset whenever matrix changes
	history *History
	limits  Limits
}

func (s *tableStore) newCell(layout *Cell) ID {
	s.lastID++
	c := &Cell{ID: s.lastID}
	if layout != nil {
		c.apply(*layout, fieldStyle|fieldWidth|fieldHeight)
	}
	s.cells[c.ID] = c
	return c.ID
}

func (s *tableStore) invalidateIndex() { s.index = nil }

// Table is a snapshot of one sheet. Mutations return a new snapshot that
// shares the cell arena; each snapshot keeps its own solved-value memo.
type Table struct {
	book    *Book
	sheetID int
	st      *tableStore
	memo    map[ID]*solvedEntry
	version int
}

type solvedEntry struct {
	value   any
	err     error
	solving bool
}

func newTable(b *Book, sheetID int, name string, init [][]any, o *tableOptions) *Table {
	rows, cols := o.rows, o.cols
	for _, row := range init {
		cols = max(cols, len(row))
	}
	rows = max(rows, len(init), o.limits.MinRows, 1)
	cols = max(cols, o.limits.MinCols, 1)

	st := &tableStore{
		name:    name,
		cells:   make(map[ID]*Cell),
		history: newHistory(o.historyLimit),
		limits:  o.limits,
	}
	st.matrix = make([][]ID, rows+1)
	for y := range st.matrix {
		line := make([]ID, cols+1)
		for x := range line {
			line[x] = st.newCell(nil)
		}
		st.matrix[y] = line
	}
	for y, row := range init {
		for x, v := range row {
			c := st.cells[st.matrix[y+1][x+1]]
			if s, ok := v.(string); ok {
				c.Value = parseInput(s)
			} else {
				c.Value = normalizeValue(v)
			}
		}
	}
	t := &Table{book: b, sheetID: sheetID, st: st, memo: make(map[ID]*solvedEntry)}
	for key, cell := range o.cells {
		p, ok := parseLayoutKey(key)
		if !ok {
			b.logger.Warn("ignoring invalid cell key", "sheet", name, "key", key)
			continue
		}
		if dst := st.cells[t.IDAt(p)]; dst != nil {
			dst.apply(cell, cell.presentFields())
		}
	}
	return t
}

// parseLayoutKey accepts "B3" for a cell, "B" for a column header and "3" for
// a row header.
func parseLayoutKey(key string) (Point, bool) {
	if a, err := parseAddress(key); err == nil {
		return a.Point, true
	}
	n, _, isCol, err := parseLineAddress(key)
	if err != nil {
		return Point{}, false
	}
	if isCol {
		return Point{Y: 0, X: n}, true
	}
	return Point{Y: n, X: 0}, true
}

func (t *Table) clone() *Table {
	return &Table{book: t.book, sheetID: t.sheetID, st: t.st, memo: make(map[ID]*solvedEntry), version: t.version + 1}
}

// Book returns the hub owning the sheet.
func (t *Table) Book() *Book { return t.book }

// SheetID returns the permanent id of the sheet.
func (t *Table) SheetID() int { return t.sheetID }

// Name returns the sheet name.
func (t *Table) Name() string { return t.st.name }

// Version counts the snapshots taken of the sheet so far.
func (t *Table) Version() int { return t.version }

// GetNumRows returns the number of data rows.
func (t *Table) GetNumRows() int { return len(t.st.matrix) - 1 }

// GetNumCols returns the number of data columns.
func (t *Table) GetNumCols() int {
	if len(t.st.matrix) == 0 {
		return 0
	}
	return len(t.st.matrix[0]) - 1
}

// GetArea returns the data area of the sheet.
func (t *Table) GetArea() Area {
	return Area{Top: 1, Left: 1, Bottom: t.GetNumRows(), Right: t.GetNumCols()}
}

func (t *Table) inBounds(p Point) bool {
	return p.Y >= 1 && p.X >= 1 && p.Y <= t.GetNumRows() && p.X <= t.GetNumCols()
}

func (t *Table) clip(p Point) Point {
	return Point{Y: min(p.Y, t.GetNumRows()), X: min(p.X, t.GetNumCols())}
}

// inMatrix includes the header row and column.
func (t *Table) inMatrix(p Point) bool {
	return p.Y >= 0 && p.X >= 0 && p.Y <= t.GetNumRows() && p.X <= t.GetNumCols()
}

// IDAt returns the id at p, or 0 outside the matrix.
func (t *Table) IDAt(p Point) ID {
	if !t.inMatrix(p) {
		return 0
	}
	return t.st.matrix[p.Y][p.X]
}

// PointOf returns the current position of id.
func (t *Table) PointOf(id ID) (Point, bool) {
	if t.st.index == nil {
		index := make(map[ID]Point, len(t.st.cells))
		for y, line := range t.st.matrix {
			for x, v := range line {
				index[v] = Point{Y: y, X: x}
			}
		}
		t.st.index = index
	}
	p, ok := t.st.index[id]
	return p, ok
}

// GetCellByPoint returns a copy of the cell at p.
func (t *Table) GetCellByPoint(p Point) (Cell, bool) {
	c := t.st.cells[t.IDAt(p)]
	if c == nil {
		return Cell{}, false
	}
	return *c, true
}

// GetCellByID returns a copy of the cell with the given id, including cells no
// longer placed in the matrix but still held by history.
func (t *Table) GetCellByID(id ID) (Cell, bool) {
	c := t.st.cells[id]
	if c == nil {
		return Cell{}, false
	}
	return *c, true
}

// HasCell reports whether the arena still holds id.
func (t *Table) HasCell(id ID) bool {
	_, ok := t.st.cells[id]
	return ok
}

// Solve returns the value of the cell at p, evaluating its formula if needed.
func (t *Table) Solve(p Point) (any, error) {
	return t.solvePoint(p)
}

func (t *Table) solvePoint(p Point) (any, error) {
	if !t.inMatrix(p) {
		return nil, nil
	}
	return t.solveID(t.IDAt(p), p)
}

// solveID memoizes formula results per snapshot. A cell found in the
// "solving" state is part of a reference cycle.
func (t *Table) solveID(id ID, p Point) (any, error) {
	if e, ok := t.memo[id]; ok {
		if e.solving {
			return nil, NewRefError("References are circulating")
		}
		return e.value, e.err
	}
	c := t.st.cells[id]
	if c == nil || !c.IsFormula() {
		if c == nil {
			return nil, nil
		}
		return c.Value, nil
	}
	t.memo[id] = &solvedEntry{solving: true}
	v, err := t.evaluate(c.Value.(string), p)
	t.memo[id] = &solvedEntry{value: v, err: err}
	return v, err
}

func (t *Table) evaluate(formula string, origin Point) (any, error) {
	expr, err := Parse(formula)
	if err != nil {
		return nil, err
	}
	v, err := expr.Evaluate(newEvalContext(t, origin))
	if err != nil {
		return nil, err
	}
	return strip(v)
}

// Stringify renders the cell at p. Raw mode shows formulas as typed, with
// addresses derived from the current positions of their ids.
func (t *Table) Stringify(p Point, raw bool) string {
	if raw {
		c := t.st.cells[t.IDAt(p)]
		if c == nil {
			return ""
		}
		if c.IsFormula() {
			return t.Display(c.Value.(string))
		}
		return formatValue(c.Value)
	}
	v, err := t.solvePoint(p)
	if err != nil {
		return string(errorCodeOf(err))
	}
	return formatValue(v)
}

// StringMatrix renders an area row by row.
func (t *Table) StringMatrix(area Area, raw bool) [][]string {
	out := make([][]string, 0, area.Height())
	for y := area.Top; y <= area.Bottom; y++ {
		row := make([]string, 0, area.Width())
		for x := area.Left; x <= area.Right; x++ {
			row = append(row, t.Stringify(Point{Y: y, X: x}, raw))
		}
		out = append(out, row)
	}
	return out
}

// usedArea returns the smallest area holding every non-blank data cell.
func (t *Table) usedArea() (Area, bool) {
	area := Area{Top: t.GetNumRows() + 1, Left: t.GetNumCols() + 1}
	found := false
	for y := 1; y <= t.GetNumRows(); y++ {
		for x := 1; x <= t.GetNumCols(); x++ {
			c := t.st.cells[t.st.matrix[y][x]]
			if c == nil || TypeOf(c.Value) == CellBlank {
				continue
			}
			found = true
			area.Top, area.Left = min(area.Top, y), min(area.Left, x)
			area.Bottom, area.Right = max(area.Bottom, y), max(area.Right, x)
		}
	}
	return area, found
}

// formulaCells lists the positions of every formula cell of the data area.
func (t *Table) formulaCells() []Point {
	var out []Point
	for y := 1; y <= t.GetNumRows(); y++ {
		for x := 1; x <= t.GetNumCols(); x++ {
			if c := t.st.cells[t.st.matrix[y][x]]; c != nil && c.IsFormula() {
				out = append(out, Point{Y: y, X: x})
			}
		}
	}
	return out
}

// absolutize rebinds every formula of the sheet to ids. With onlyUnresolved,
// only formulas still carrying an unresolved address are touched.
func (t *Table) absolutize(onlyUnresolved bool) {
	for _, p := range t.formulaCells() {
		c := t.st.cells[t.IDAt(p)]
		text := c.Value.(string)
		if onlyUnresolved && !strings.Contains(text, unresolvedMark) {
			continue
		}
		c.Value = t.identifyFormula(text, p, 0, 0)
	}
}
