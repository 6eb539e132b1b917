package gridsheet

import "time"

// HistoryKind tags a history entry.
type HistoryKind int

const (
	HistoryKindUpdate HistoryKind = iota
	HistoryKindMove
	HistoryKindAddRows
	HistoryKindAddCols
	HistoryKindDeleteRows
	HistoryKindDeleteCols
)

// String returns a human-readable name for the HistoryKind.
func (k HistoryKind) String() string {
	switch k {
	case HistoryKindUpdate:
		return "UPDATE"
	case HistoryKindMove:
		return "MOVE"
	case HistoryKindAddRows:
		return "ADD_ROWS"
	case HistoryKindAddCols:
		return "ADD_COLS"
	case HistoryKindDeleteRows:
		return "DELETE_ROWS"
	case HistoryKindDeleteCols:
		return "DELETE_COLS"
	default:
		return "UNKNOWN"
	}
}

// HistoryEntry is one reversible mutation. The concrete types are
// HistoryUpdate, HistoryMove, HistoryAddRows, HistoryAddCols,
// HistoryDeleteRows and HistoryDeleteCols.
type HistoryEntry interface {
	Kind() HistoryKind
	Operator() Operator
	AppliedAt() time.Time
	// Reflection returns the opaque payloads handed back on undo and redo.
	Reflection() (undo, redo any)
	ids() []ID
}

type historyMeta struct {
	operator       Operator
	undoReflection any
	redoReflection any
	appliedAt      time.Time
}

func (h historyMeta) Operator() Operator           { return h.operator }
func (h historyMeta) AppliedAt() time.Time         { return h.appliedAt }
func (h historyMeta) Reflection() (undo, redo any) { return h.undoReflection, h.redoReflection }

// HistoryUpdate holds cell contents before and after a value or style edit.
type HistoryUpdate struct {
	historyMeta
	Before map[ID]Cell
	After  map[ID]Cell
}

// HistoryMove holds the id layout of the region touched by a move.
type HistoryMove struct {
	historyMeta
	Region Area
	Before [][]ID
	After  [][]ID
}

// HistoryAddRows holds the rows inserted at Y.
type HistoryAddRows struct {
	historyMeta
	Y    int
	Rows [][]ID
}

// HistoryAddCols holds the columns inserted at X.
type HistoryAddCols struct {
	historyMeta
	X    int
	Cols [][]ID
}

// HistoryDeleteRows holds the rows removed at Y and the formulas rewritten
// because of it.
type HistoryDeleteRows struct {
	historyMeta
	Y      int
	Rows   [][]ID
	Before map[CellKey]Cell
	After  map[CellKey]Cell
}

// HistoryDeleteCols holds the columns removed at X and the formulas rewritten
// because of it.
type HistoryDeleteCols struct {
	historyMeta
	X      int
	Cols   [][]ID
	Before map[CellKey]Cell
	After  map[CellKey]Cell
}

func (*HistoryUpdate) Kind() HistoryKind     { return HistoryKindUpdate }
func (*HistoryMove) Kind() HistoryKind       { return HistoryKindMove }
func (*HistoryAddRows) Kind() HistoryKind    { return HistoryKindAddRows }
func (*HistoryAddCols) Kind() HistoryKind    { return HistoryKindAddCols }
func (*HistoryDeleteRows) Kind() HistoryKind { return HistoryKindDeleteRows }
func (*HistoryDeleteCols) Kind() HistoryKind { return HistoryKindDeleteCols }

func (e *HistoryUpdate) ids() []ID {
	out := make([]ID, 0, len(e.Before))
	for id := range e.Before {
		out = append(out, id)
	}
	return out
}

func (e *HistoryMove) ids() []ID       { return append(flattenIDs(e.Before), flattenIDs(e.After)...) }
func (e *HistoryAddRows) ids() []ID    { return flattenIDs(e.Rows) }
func (e *HistoryAddCols) ids() []ID    { return flattenIDs(e.Cols) }
func (e *HistoryDeleteRows) ids() []ID { return flattenIDs(e.Rows) }
func (e *HistoryDeleteCols) ids() []ID { return flattenIDs(e.Cols) }

func flattenIDs(lines [][]ID) []ID {
	var out []ID
	for _, line := range lines {
		out = append(out, line...)
	}
	return out
}

// History is a bounded linear log kept in a ring buffer. index counts the
// entries currently applied; entries past it form the redo tail.
type History struct {
	ring  []HistoryEntry
	head  int
	size  int
	index int
}

func newHistory(limit int) *History {
	return &History{ring: make([]HistoryEntry, max(limit, 0))}
}

// Limit returns the capacity of the log.
func (h *History) Limit() int { return len(h.ring) }

func (h *History) at(i int) HistoryEntry { return h.ring[(h.head+i)%len(h.ring)] }

func (h *History) set(i int, e HistoryEntry) { h.ring[(h.head+i)%len(h.ring)] = e }

// push appends e after the current index. It returns the entries that left
// the log: the abandoned redo tail and, past the limit, the oldest entry.
func (h *History) push(e HistoryEntry) (dropped []HistoryEntry) {
	if len(h.ring) == 0 {
		return []HistoryEntry{e}
	}
	for h.size > h.index {
		dropped = append(dropped, h.at(h.size-1))
		h.set(h.size-1, nil)
		h.size--
	}
	if h.size == len(h.ring) {
		dropped = append(dropped, h.at(0))
		h.set(0, nil)
		h.head = (h.head + 1) % len(h.ring)
		h.size--
		h.index--
	}
	h.set(h.size, e)
	h.size++
	h.index = h.size
	return dropped
}

func (h *History) undo() (HistoryEntry, bool) {
	if h.index == 0 {
		return nil, false
	}
	h.index--
	return h.at(h.index), true
}

func (h *History) redo() (HistoryEntry, bool) {
	if h.index == h.size {
		return nil, false
	}
	e := h.at(h.index)
	h.index++
	return e, true
}

// retained lists the entries still in the log.
func (h *History) retained() []HistoryEntry {
	out := make([]HistoryEntry, 0, h.size)
	for i := 0; i < h.size; i++ {
		out = append(out, h.at(i))
	}
	return out
}

// GetHistoryIndex returns the position of the last applied entry, -1 when
// nothing is left to undo.
func (t *Table) GetHistoryIndex() int { return t.st.history.index - 1 }

// GetHistorySize returns the number of entries in the log.
func (t *Table) GetHistorySize() int { return t.st.history.size }

// Undo reverts the last applied entry and returns the new snapshot with the
// entry's undo reflection. With nothing to undo it returns t and nil.
func (t *Table) Undo() (*Table, any) {
	e, ok := t.st.history.undo()
	if !ok {
		return t, nil
	}
	t.revert(e)
	undo, _ := e.Reflection()
	return t.book.refreshAll(t.sheetID, EventUndo), undo
}

// Redo re-applies the next entry and returns the new snapshot with the
// entry's redo reflection.
func (t *Table) Redo() (*Table, any) {
	e, ok := t.st.history.redo()
	if !ok {
		return t, nil
	}
	t.replay(e)
	_, redo := e.Reflection()
	return t.book.refreshAll(t.sheetID, EventRedo), redo
}

func (t *Table) revert(e HistoryEntry) {
	switch e := e.(type) {
	case *HistoryUpdate:
		t.restoreCells(e.Before)
	case *HistoryMove:
		t.placeBlock(e.Region, e.Before)
	case *HistoryAddRows:
		t.removeLines(rowAxis, e.Y, len(e.Rows))
	case *HistoryAddCols:
		t.removeLines(colAxis, e.X, len(e.Cols))
	case *HistoryDeleteRows:
		t.insertLines(rowAxis, e.Y, e.Rows)
		t.restoreKeyed(e.Before)
	case *HistoryDeleteCols:
		t.insertLines(colAxis, e.X, e.Cols)
		t.restoreKeyed(e.Before)
	}
}

func (t *Table) replay(e HistoryEntry) {
	switch e := e.(type) {
	case *HistoryUpdate:
		t.restoreCells(e.After)
	case *HistoryMove:
		t.placeBlock(e.Region, e.After)
	case *HistoryAddRows:
		t.insertLines(rowAxis, e.Y, e.Rows)
	case *HistoryAddCols:
		t.insertLines(colAxis, e.X, e.Cols)
	case *HistoryDeleteRows:
		t.restoreKeyed(e.After)
		t.removeLines(rowAxis, e.Y, len(e.Rows))
	case *HistoryDeleteCols:
		t.restoreKeyed(e.After)
		t.removeLines(colAxis, e.X, len(e.Cols))
	}
}

func (t *Table) restoreCells(contents map[ID]Cell) {
	for id, content := range contents {
		if c := t.st.cells[id]; c != nil {
			c.apply(content, fieldAll)
		}
	}
}

// restoreKeyed restores formula cells that may live on other sheets.
func (t *Table) restoreKeyed(contents map[CellKey]Cell) {
	for k, content := range contents {
		owner := t.book.Table(k.SheetID)
		if owner == nil {
			continue
		}
		if c := owner.st.cells[k.ID]; c != nil {
			c.apply(content, fieldAll)
		}
	}
}

// purge deletes the cells of dropped entries that are neither placed in the
// matrix nor referenced by an entry still in the log.
func (t *Table) purge(dropped []HistoryEntry) {
	if len(dropped) == 0 {
		return
	}
	live := make(map[ID]struct{})
	for _, line := range t.st.matrix {
		for _, id := range line {
			live[id] = struct{}{}
		}
	}
	for _, e := range t.st.history.retained() {
		for _, id := range e.ids() {
			live[id] = struct{}{}
		}
	}
	for _, e := range dropped {
		for _, id := range e.ids() {
			if _, ok := live[id]; !ok {
				delete(t.st.cells, id)
			}
		}
	}
}
