package gridsheet

import (
	"log/slog"
	"slices"
)

// axis selects rows or columns for structural operations.
type axis int

const (
	rowAxis axis = iota
	colAxis
)

func (a axis) String() string {
	if a == rowAxis {
		return "rows"
	}
	return "cols"
}

func (a axis) coord(p Point) int {
	if a == rowAxis {
		return p.Y
	}
	return p.X
}

func (a axis) with(p Point, c int) Point {
	if a == rowAxis {
		p.Y = c
	} else {
		p.X = c
	}
	return p
}

func (t *Table) lineCount(ax axis) int {
	if ax == rowAxis {
		return t.GetNumRows()
	}
	return t.GetNumCols()
}

// line returns a copy of the ids of row or column i, header included.
func (t *Table) line(ax axis, i int) []ID {
	if ax == rowAxis {
		return slices.Clone(t.st.matrix[i])
	}
	out := make([]ID, len(t.st.matrix))
	for y, row := range t.st.matrix {
		out[y] = row[i]
	}
	return out
}

// insertLines places copies of lines at index at, shifting later lines.
func (t *Table) insertLines(ax axis, at int, lines [][]ID) {
	if ax == rowAxis {
		rows := make([][]ID, len(lines))
		for i, line := range lines {
			rows[i] = slices.Clone(line)
		}
		t.st.matrix = slices.Insert(t.st.matrix, at, rows...)
	} else {
		for y := range t.st.matrix {
			ids := make([]ID, len(lines))
			for i, line := range lines {
				ids[i] = line[y]
			}
			t.st.matrix[y] = slices.Insert(t.st.matrix[y], at, ids...)
		}
	}
	t.st.invalidateIndex()
}

// removeLines cuts n lines starting at index at and returns them.
func (t *Table) removeLines(ax axis, at, n int) [][]ID {
	lines := make([][]ID, n)
	for i := range lines {
		lines[i] = t.line(ax, at+i)
	}
	if ax == rowAxis {
		t.st.matrix = slices.Delete(t.st.matrix, at, at+n)
	} else {
		for y := range t.st.matrix {
			t.st.matrix[y] = slices.Delete(t.st.matrix[y], at, at+n)
		}
	}
	t.st.invalidateIndex()
	return lines
}

func (t *Table) header(ax axis, i int) *Cell {
	if ax == rowAxis {
		return t.st.cells[t.IDAt(Point{Y: i, X: 0})]
	}
	return t.st.cells[t.IDAt(Point{Y: 0, X: i})]
}

func (t *Table) reject(op string, reason error, attrs ...any) *Table {
	t.book.logger.Warn("operation skipped",
		append([]any{slog.String("op", op), slog.String("sheet", t.Name()), slog.String("reason", reason.Error())}, attrs...)...)
	return t
}

// InsertRows inserts numRows rows before row y. Layout (style and size) is
// copied from row baseY when it exists; baseY < y inserts below the base row.
func (t *Table) InsertRows(y, numRows, baseY int, opts ...MutationOption) *Table {
	return t.insert(rowAxis, y, numRows, baseY, newMutation(opts))
}

// InsertCols inserts numCols columns before column x, copying layout from
// column baseX.
func (t *Table) InsertCols(x, numCols, baseX int, opts ...MutationOption) *Table {
	return t.insert(colAxis, x, numCols, baseX, newMutation(opts))
}

// RemoveRows removes numRows rows starting at row y.
func (t *Table) RemoveRows(y, numRows int, opts ...MutationOption) *Table {
	return t.remove(rowAxis, y, numRows, newMutation(opts))
}

// RemoveCols removes numCols columns starting at column x.
func (t *Table) RemoveCols(x, numCols int, opts ...MutationOption) *Table {
	return t.remove(colAxis, x, numCols, newMutation(opts))
}

func (t *Table) insert(ax axis, at, n, base int, m *mutation) *Table {
	op := "insert_" + ax.String()
	count := t.lineCount(ax)
	if n <= 0 || at < 1 || at > count+1 {
		return t.reject(op, ErrLimitExceeded, slog.Int("at", at), slog.Int("count", n))
	}
	limit := t.st.limits.MaxRows
	if ax == colAxis {
		limit = t.st.limits.MaxCols
	}
	if limit >= 0 && count+n > limit {
		return t.reject(op, ErrLimitExceeded, slog.Int("max", limit), slog.Int("requested", count+n))
	}
	hasBase := base >= 1 && base <= count
	if m.operator == OperatorUser && hasBase {
		flag := PreventInsertRowsAbove
		switch {
		case ax == rowAxis && base < at:
			flag = PreventInsertRowsBelow
		case ax == colAxis && base < at:
			flag = PreventInsertColsRight
		case ax == colAxis:
			flag = PreventInsertColsLeft
		}
		if t.header(ax, base).Prevention.Any(flag) {
			return t.reject(op, ErrPrevented, slog.Int("base", base))
		}
	}

	var layout []ID
	if hasBase {
		layout = t.line(ax, base)
	}
	width := len(t.line(ax, 0))
	lines := make([][]ID, n)
	for i := range lines {
		line := make([]ID, width)
		for j := range line {
			var src *Cell
			if layout != nil {
				src = t.st.cells[layout[j]]
			}
			line[j] = t.st.newCell(src)
		}
		lines[i] = line
	}
	t.insertLines(ax, at, lines)

	var entry HistoryEntry
	if ax == rowAxis {
		entry = &HistoryAddRows{historyMeta: m.meta(t.book.registry.clock), Y: at, Rows: lines}
	} else {
		entry = &HistoryAddCols{historyMeta: m.meta(t.book.registry.clock), X: at, Cols: lines}
	}
	return t.commit(entry, eventFor(ax, true))
}

func (t *Table) remove(ax axis, at, n int, m *mutation) *Table {
	op := "remove_" + ax.String()
	count := t.lineCount(ax)
	if n <= 0 || at < 1 || at+n-1 > count {
		return t.reject(op, ErrLimitExceeded, slog.Int("at", at), slog.Int("count", n))
	}
	limit := t.st.limits.MinRows
	if ax == colAxis {
		limit = t.st.limits.MinCols
	}
	if count-n < max(limit, 1) {
		return t.reject(op, ErrLimitExceeded, slog.Int("min", limit), slog.Int("requested", count-n))
	}
	if m.operator == OperatorUser {
		flag := PreventDeleteRows
		if ax == colAxis {
			flag = PreventDeleteCols
		}
		for i := at; i < at+n; i++ {
			if t.header(ax, i).Prevention.Any(flag) {
				return t.reject(op, ErrPrevented, slog.Int("line", i))
			}
		}
	}

	before, after := t.remapRemoved(ax, at, n)
	lines := t.removeLines(ax, at, n)

	var entry HistoryEntry
	if ax == rowAxis {
		entry = &HistoryDeleteRows{historyMeta: m.meta(t.book.registry.clock), Y: at, Rows: lines, Before: before, After: after}
	} else {
		entry = &HistoryDeleteCols{historyMeta: m.meta(t.book.registry.clock), X: at, Cols: lines, Before: before, After: after}
	}
	return t.commit(entry, eventFor(ax, false))
}
