package gridsheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedoWrite(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=A1*2"}})
	sheet = sheet.Write(pt("A1"), "5")
	assert.Equal(t, "10", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, 0, sheet.GetHistoryIndex())
	assert.Equal(t, 1, sheet.GetHistorySize())

	sheet, _ = sheet.Undo()
	assert.Equal(t, "2", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, -1, sheet.GetHistoryIndex())

	sheet, _ = sheet.Redo()
	assert.Equal(t, "10", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, 0, sheet.GetHistoryIndex())
}

func TestHistory_NothingToUndo(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1}})

	same, reflection := sheet.Undo()
	assert.Same(t, sheet, same)
	assert.Nil(t, reflection)

	same, reflection = sheet.Redo()
	assert.Same(t, sheet, same)
	assert.Nil(t, reflection)
}

func TestHistory_NewEntryDropsRedo(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1}})
	sheet = sheet.Write(pt("A1"), "2")
	sheet = sheet.Write(pt("A1"), "3")
	sheet, _ = sheet.Undo()
	assert.Equal(t, "2", sheet.Stringify(pt("A1"), false))

	sheet = sheet.Write(pt("A1"), "9")
	assert.Equal(t, 2, sheet.GetHistorySize())
	same, _ := sheet.Redo()
	assert.Equal(t, "9", same.Stringify(pt("A1"), false))
}

func TestHistory_Reflection(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1}})
	sheet = sheet.Write(pt("A1"), "2", WithReflection("select A1", "select B1"))

	sheet, undo := sheet.Undo()
	assert.Equal(t, "select A1", undo)
	_, redo := sheet.Redo()
	assert.Equal(t, "select B1", redo)
}

func TestHistory_LimitEvictsOldest(t *testing.T) {
	b := newTestBook(t, WithHistoryLimit(2))
	sheet := mustSheet(t, b, "Sheet1", [][]any{{0}})
	for _, v := range []string{"1", "2", "3"} {
		sheet = sheet.Write(pt("A1"), v)
	}
	assert.Equal(t, 2, sheet.GetHistorySize())

	sheet, _ = sheet.Undo()
	sheet, _ = sheet.Undo()
	assert.Equal(t, "1", sheet.Stringify(pt("A1"), false))
	same, _ := sheet.Undo()
	assert.Same(t, sheet, same)
}

func TestHistory_PurgesDetachedCells(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{"a", "b"}, {"c"}}, WithSheetHistoryLimit(1))
	overwritten := sheet.IDAt(pt("B1"))

	sheet = sheet.Move(areaOf("A1", "A1"), pt("B1"))
	assert.True(t, sheet.HasCell(overwritten))
	assert.Equal(t, "a", sheet.Stringify(pt("B1"), false))

	sheet = sheet.Write(pt("A2"), "x")
	assert.False(t, sheet.HasCell(overwritten))
	assert.Equal(t, 1, sheet.GetHistorySize())
}

func TestHistory_UndoRestoresExactly(t *testing.T) {
	mutations := map[string]func(*Table) *Table{
		"write": func(s *Table) *Table { return s.Write(pt("A1"), "=B2*3") },
		"matrix": func(s *Table) *Table {
			return s.WriteMatrix(pt("B2"), [][]string{{"x", "y"}, {"=A1", ""}})
		},
		"insert_rows": func(s *Table) *Table { return s.InsertRows(2, 2, 1) },
		"insert_cols": func(s *Table) *Table { return s.InsertCols(1, 1, 1) },
		"remove_rows": func(s *Table) *Table { return s.RemoveRows(1, 1) },
		"remove_cols": func(s *Table) *Table { return s.RemoveCols(2, 1) },
		"move":        func(s *Table) *Table { return s.Move(areaOf("A1", "A2"), pt("C2")) },
		"copy":        func(s *Table) *Table { return s.Copy(areaOf("C1", "C1"), areaOf("C2", "C3")) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			b := newTestBook(t)
			sheet := mustSheet(t, b, "Sheet1", [][]any{
				{1, 2, "=A1+B1"},
				{3, 4, "=SUM(A1:B2)"},
				{5, 6, "=A3*B3"},
			})
			before := sheet.StringMatrix(sheet.GetArea(), true)
			beforeValues := sheet.StringMatrix(sheet.GetArea(), false)

			applied := mutate(sheet)
			require.NotSame(t, sheet, applied)
			after := applied.StringMatrix(applied.GetArea(), true)
			afterValues := applied.StringMatrix(applied.GetArea(), false)

			undone, _ := applied.Undo()
			assert.Equal(t, before, undone.StringMatrix(undone.GetArea(), true))
			assert.Equal(t, beforeValues, undone.StringMatrix(undone.GetArea(), false))

			redone, _ := undone.Redo()
			assert.Equal(t, after, redone.StringMatrix(redone.GetArea(), true))
			assert.Equal(t, afterValues, redone.StringMatrix(redone.GetArea(), false))
		})
	}
}

func TestHistory_EntryKinds(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, 2}, {3, 4}})
	sheet = sheet.InsertRows(1, 1, 1, WithOperator(OperatorUser))
	h := sheet.st.history
	entry := h.at(h.index - 1)
	require.IsType(t, &HistoryAddRows{}, entry)
	assert.Equal(t, HistoryKindAddRows, entry.Kind())
	assert.Equal(t, OperatorUser, entry.Operator())
	assert.False(t, entry.AppliedAt().IsZero())
}

func TestHistory_AppliedAtUsesRegistryClock(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	b := newTestBook(t, WithRegistry(NewRegistry(WithClock(clock))))
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1}})
	sheet = sheet.Write(pt("A1"), "2")
	sheet = sheet.InsertRows(1, 1, 0)

	h := sheet.st.history
	assert.Equal(t, clock.now, h.at(0).AppliedAt())
	assert.Equal(t, clock.now, h.at(1).AppliedAt())
}
