package gridsheet

import (
	"log/slog"
	"strings"
)

// Operator tells who issued a mutation. User edits honor prevention flags;
// system edits bypass them.
type Operator int

const (
	OperatorSystem Operator = iota
	OperatorUser
)

// String returns "SYSTEM" or "USER".
func (o Operator) String() string {
	if o == OperatorUser {
		return "USER"
	}
	return "SYSTEM"
}

type mutation struct {
	operator       Operator
	undoReflection any
	redoReflection any
}

// MutationOption configures one mutation.
type MutationOption func(*mutation)

// WithOperator sets who issued the mutation (default: OperatorSystem).
func WithOperator(op Operator) MutationOption {
	return func(m *mutation) { m.operator = op }
}

// WithReflection attaches opaque state handed back by Undo and Redo, such as
// the selection to restore.
func WithReflection(undo, redo any) MutationOption {
	return func(m *mutation) {
		m.undoReflection = undo
		m.redoReflection = redo
	}
}

func newMutation(opts []MutationOption) *mutation {
	m := &mutation{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *mutation) meta(clock Clock) historyMeta {
	return historyMeta{
		operator:       m.operator,
		undoReflection: m.undoReflection,
		redoReflection: m.redoReflection,
		appliedAt:      clock.Now(),
	}
}

// commit records entry, publishes a fresh snapshot of every sheet and returns
// the one for t.
func (t *Table) commit(entry HistoryEntry, kind EventKind) *Table {
	if entry != nil {
		t.purge(t.st.history.push(entry))
	}
	return t.book.refreshAll(t.sheetID, kind)
}

// cellChange is one pending write of selected fields to a position.
type cellChange struct {
	point Point
	cell  Cell
	mask  fieldMask
}

// preventionAt merges the flags of the cell at p with those of its row and
// column headers.
func (t *Table) preventionAt(p Point) Prevention {
	var prevention Prevention
	for _, q := range []Point{p, {Y: p.Y, X: 0}, {Y: 0, X: p.X}} {
		if c := t.st.cells[t.IDAt(q)]; c != nil {
			prevention |= c.Prevention
		}
	}
	return prevention
}

// restrict drops the fields a user may not change at p. Prevention flags
// themselves are never user-editable.
func (t *Table) restrict(p Point, mask fieldMask, m *mutation) fieldMask {
	if m.operator != OperatorUser {
		return mask
	}
	mask &^= fieldPrevention
	prevention := t.preventionAt(p)
	if prevention.Any(PreventWrite) {
		mask &^= fieldValue
	}
	if prevention.Any(PreventStyle) {
		mask &^= fieldStyle
	}
	if prevention.Any(PreventResize) {
		mask &^= fieldWidth | fieldHeight
	}
	return mask
}

// applyChanges writes changes under restriction checks and records them as a
// single Update entry. It returns t unchanged when nothing was written.
func (t *Table) applyChanges(changes []cellChange, m *mutation) *Table {
	before, after := make(map[ID]Cell), make(map[ID]Cell)
	for _, ch := range changes {
		id := t.IDAt(ch.point)
		c := t.st.cells[id]
		if c == nil {
			continue
		}
		mask := t.restrict(ch.point, ch.mask, m)
		if mask == 0 {
			continue
		}
		if _, seen := before[id]; !seen {
			before[id] = c.content()
		}
		src := ch.cell
		src.Value = normalizeValue(src.Value)
		if s, ok := src.Value.(string); ok && mask&fieldValue != 0 && strings.HasPrefix(s, "=") {
			src.Value = t.identifyFormula(s, ch.point, 0, 0)
		}
		c.apply(src, mask)
		after[id] = c.content()
	}
	if len(after) == 0 {
		t.book.logger.Debug("update wrote nothing", slog.String("sheet", t.Name()))
		return t
	}
	return t.commit(&HistoryUpdate{historyMeta: m.meta(t.book.registry.clock), Before: before, After: after}, EventUpdate)
}

// Write sets the value at p from raw edit text.
func (t *Table) Write(p Point, value string, opts ...MutationOption) *Table {
	return t.applyChanges([]cellChange{{point: p, cell: Cell{Value: parseInput(value)}, mask: fieldValue}}, newMutation(opts))
}

// WriteMatrix writes a block of raw edit text with its top-left at p.
func (t *Table) WriteMatrix(p Point, matrix [][]string, opts ...MutationOption) *Table {
	var changes []cellChange
	for y, row := range matrix {
		for x, v := range row {
			q := Point{Y: p.Y + y, X: p.X + x}
			if !t.inBounds(q) {
				continue
			}
			changes = append(changes, cellChange{point: q, cell: Cell{Value: parseInput(v)}, mask: fieldValue})
		}
	}
	return t.applyChanges(changes, newMutation(opts))
}

// Update applies a diff keyed by address ("B3", or "B"/"3" for headers).
// A partial update touches only the non-zero fields of each cell; otherwise
// every editable field is replaced.
func (t *Table) Update(diff map[string]Cell, partial bool, opts ...MutationOption) *Table {
	changes := make([]cellChange, 0, len(diff))
	for key, c := range diff {
		p, ok := parseLayoutKey(key)
		if !ok || !t.inMatrix(p) {
			t.book.logger.Warn("ignoring invalid cell key", slog.String("sheet", t.Name()), slog.String("key", key))
			continue
		}
		mask := fieldAll
		if partial {
			mask = c.presentFields()
		}
		changes = append(changes, cellChange{point: p, cell: c, mask: mask})
	}
	return t.applyChanges(changes, newMutation(opts))
}

// Move relocates the cells of src so that its top-left lands on dst. Moved
// cells keep their ids, so references to them follow; cells previously at the
// destination are detached and references to them become #REF!.
func (t *Table) Move(src Area, dst Point, opts ...MutationOption) *Table {
	m := newMutation(opts)
	dstArea := src.Slide(dst.Y-src.Top, dst.X-src.Left)
	if !t.inBounds(src.TopLeft()) || !t.inBounds(Point{Y: src.Bottom, X: src.Right}) ||
		!t.inBounds(dstArea.TopLeft()) || !t.inBounds(Point{Y: dstArea.Bottom, X: dstArea.Right}) {
		return t.reject("move", ErrLimitExceeded, slog.String("src", src.String()))
	}
	if dstArea == src {
		return t
	}
	if m.operator == OperatorUser {
		if t.anyPrevented(src, PreventMoveFrom) || t.anyPrevented(dstArea, PreventMoveTo) {
			return t.reject("move", ErrPrevented, slog.String("src", src.String()), slog.String("dst", dstArea.String()))
		}
	}

	region := Area{
		Top: min(src.Top, dstArea.Top), Left: min(src.Left, dstArea.Left),
		Bottom: max(src.Bottom, dstArea.Bottom), Right: max(src.Right, dstArea.Right),
	}
	beforeIDs := t.idBlock(region)
	moving := t.idBlock(src)
	for y := src.Top; y <= src.Bottom; y++ {
		for x := src.Left; x <= src.Right; x++ {
			if !dstArea.Contains(Point{Y: y, X: x}) {
				t.st.matrix[y][x] = t.st.newCell(nil)
			}
		}
	}
	for y, row := range moving {
		for x, id := range row {
			t.st.matrix[dstArea.Top+y][dstArea.Left+x] = id
		}
	}
	t.st.invalidateIndex()

	entry := &HistoryMove{historyMeta: m.meta(t.book.registry.clock), Region: region, Before: beforeIDs, After: t.idBlock(region)}
	return t.commit(entry, EventMove)
}

// Copy pastes src onto dst. A larger destination is tiled with the source
// pattern; a smaller one grows to the source size. Formulas slide their
// relative references by the distance copied.
func (t *Table) Copy(src, dst Area, opts ...MutationOption) *Table {
	m := newMutation(opts)
	h, w := src.Height(), src.Width()
	if dst.Height() < h {
		dst.Bottom = dst.Top + h - 1
	}
	if dst.Width() < w {
		dst.Right = dst.Left + w - 1
	}
	dst.Bottom = min(dst.Bottom, t.GetNumRows())
	dst.Right = min(dst.Right, t.GetNumCols())

	var changes []cellChange
	for y := dst.Top; y <= dst.Bottom; y++ {
		for x := dst.Left; x <= dst.Right; x++ {
			sp := Point{Y: src.Top + (y-dst.Top)%h, X: src.Left + (x-dst.Left)%w}
			sc := t.st.cells[t.IDAt(sp)]
			if sc == nil {
				continue
			}
			cell := sc.content()
			if sc.IsFormula() {
				cell.Value = t.identifyFormula(sc.Value.(string), Point{Y: y, X: x}, y-sp.Y, x-sp.X)
			}
			changes = append(changes, cellChange{point: Point{Y: y, X: x}, cell: cell, mask: fieldValue | fieldStyle})
		}
	}
	return t.applyChanges(changes, m)
}

func (t *Table) anyPrevented(area Area, flag Prevention) bool {
	for y := area.Top; y <= area.Bottom; y++ {
		for x := area.Left; x <= area.Right; x++ {
			if t.preventionAt(Point{Y: y, X: x}).Any(flag) {
				return true
			}
		}
	}
	return false
}

func (t *Table) idBlock(area Area) [][]ID {
	out := make([][]ID, area.Height())
	for y := range out {
		out[y] = make([]ID, area.Width())
		copy(out[y], t.st.matrix[area.Top+y][area.Left:area.Right+1])
	}
	return out
}

func (t *Table) placeBlock(area Area, ids [][]ID) {
	for y, row := range ids {
		copy(t.st.matrix[area.Top+y][area.Left:], row)
	}
	t.st.invalidateIndex()
}
