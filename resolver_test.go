package gridsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_IDRefRoundTrip(t *testing.T) {
	ref, err := parseIDRef("#2!$15$")
	require.NoError(t, err)
	assert.Equal(t, idRef{SheetID: 2, ID: 15, AbsCol: true, AbsRow: true}, ref)
	assert.Equal(t, "#2!$15$", ref.String())

	ref, err = parseIDRef("#1!7$")
	require.NoError(t, err)
	assert.False(t, ref.AbsCol)
	assert.True(t, ref.AbsRow)

	for _, bad := range []string{"1!7", "#x!7", "#1!", "#1!0"} {
		_, err := parseIDRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolver_MoveKeepsReferences(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{7, "=A1"}}, WithSize(1, 3))
	sheet = sheet.Move(areaOf("A1", "A1"), pt("C1"))
	assert.Equal(t, "=C1", sheet.Stringify(pt("B1"), true))
	assert.Equal(t, "7", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, "", sheet.Stringify(pt("A1"), false))

	sheet, _ = sheet.Undo()
	assert.Equal(t, "=A1", sheet.Stringify(pt("B1"), true))
	assert.Equal(t, "7", sheet.Stringify(pt("A1"), false))
}

func TestResolver_MoveOverwritesTarget(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, 2, "=B1"}})
	sheet = sheet.Move(areaOf("A1", "A1"), pt("B1"))
	assert.Equal(t, "1", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, "#REF!", sheet.Stringify(pt("C1"), false))
}

func TestResolver_MovePrevented(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, 2}},
		WithCells(map[string]Cell{"B1": {Prevention: PreventMoveTo}}))
	assert.Same(t, sheet, sheet.Move(areaOf("A1", "A1"), pt("B1"), WithOperator(OperatorUser)))
	assert.Same(t, sheet, sheet.Move(areaOf("A1", "A1"), pt("Z9")))
}

func TestResolver_CopySlidesRelative(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=A1+$A$1"}, {2}})
	sheet = sheet.Copy(areaOf("B1", "B1"), areaOf("B2", "B2"))
	assert.Equal(t, "=A2+$A$1", sheet.Stringify(pt("B2"), true))
	assert.Equal(t, "3", sheet.Stringify(pt("B2"), false))
}

func TestResolver_CopyMixedAbsolute(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, 2, "=$A1*B$1"}, {3, 4}}, WithSize(2, 4))
	sheet = sheet.Copy(areaOf("C1", "C1"), areaOf("D2", "D2"))
	assert.Equal(t, "=$A2*C$1", sheet.Stringify(pt("D2"), true))
}

func TestResolver_CopyTilesDestination(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=A1*2"}, {2}, {3}})
	sheet = sheet.Copy(areaOf("B1", "B1"), areaOf("B2", "B3"))
	assert.Equal(t, [][]string{{"2"}, {"4"}, {"6"}}, sheet.StringMatrix(areaOf("B1", "B3"), false))
	assert.Equal(t, 1, sheet.GetHistorySize())
}

func TestResolver_CopyOffSheet(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=A1"}})
	sheet = sheet.Copy(areaOf("B1", "B1"), areaOf("A1", "A1"))
	assert.Equal(t, "=#REF!", sheet.Stringify(pt("A1"), true))
	assert.Equal(t, "#REF!", sheet.Stringify(pt("A1"), false))
}

func TestResolver_CrossSheet(t *testing.T) {
	b := newTestBook(t)
	mustSheet(t, b, "Data", [][]any{{10}})
	calc := mustSheet(t, b, "Calc", [][]any{{"=Data!A1*2"}})
	assert.Equal(t, "20", calc.Stringify(pt("A1"), false))
	assert.Equal(t, "=Data!A1*2", calc.Stringify(pt("A1"), true))

	b.TableByName("Data").Write(pt("A1"), "21")
	assert.Equal(t, "42", b.TableByName("Calc").Stringify(pt("A1"), false))
}

func TestResolver_QuotedSheetName(t *testing.T) {
	b := newTestBook(t)
	mustSheet(t, b, "My Sheet", [][]any{{1, 2}, {3, 4}})
	calc := mustSheet(t, b, "Calc", [][]any{{"=SUM('My Sheet'!A1:B2)", "='My Sheet'!B2"}})
	assert.Equal(t, "10", calc.Stringify(pt("A1"), false))
	assert.Equal(t, "4", calc.Stringify(pt("B1"), false))
	assert.Equal(t, "='My Sheet'!B2", calc.Stringify(pt("B1"), true))
}

func TestResolver_ForwardReference(t *testing.T) {
	b := newTestBook(t)
	calc := mustSheet(t, b, "Calc", [][]any{{"=Other!A1"}})
	assert.Equal(t, "#REF!", calc.Stringify(pt("A1"), false))
	assert.Equal(t, "=Other!A1", calc.Stringify(pt("A1"), true))

	mustSheet(t, b, "Other", [][]any{{5}})
	calc = b.TableByName("Calc")
	assert.Equal(t, "5", calc.Stringify(pt("A1"), false))
	c, ok := calc.GetCellByPoint(pt("A1"))
	require.True(t, ok)
	assert.NotContains(t, c.Value, unresolvedMark)
}

func TestResolver_WholeColumn(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=SUM(A:A)"}, {2}, {3}}, WithSize(3, 3))
	assert.Equal(t, "6", sheet.Stringify(pt("B1"), false))

	sheet = sheet.Copy(areaOf("B1", "B1"), areaOf("C1", "C1"))
	assert.Equal(t, "=SUM(B:B)", sheet.Stringify(pt("C1"), true))
}

func TestResolver_DisplayUnplacedID(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1}})
	assert.Equal(t, "=#REF!+1", sheet.Display("=#1!999+1"))
	assert.Equal(t, "plain", sheet.Display("plain"))
}

func TestResolver_RangePastExtentBinds(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, "=A1*2", "=SUM(A1:A2)"}})
	assert.Equal(t, "=SUM(A1:A1)", sheet.Stringify(pt("C1"), true))
	c, ok := sheet.GetCellByPoint(pt("C1"))
	require.True(t, ok)
	assert.NotContains(t, c.Value, unresolvedMark)

	sheet = sheet.InsertRows(1, 2, 0)
	assert.Equal(t, "=A3*2", sheet.Stringify(pt("B3"), true))
	assert.Equal(t, "2", sheet.Stringify(pt("B3"), false))
	assert.Equal(t, "=SUM(A3:A3)", sheet.Stringify(pt("C3"), true))
	assert.Equal(t, "1", sheet.Stringify(pt("C3"), false))
}

func TestResolver_RangeOutsideSheetStaysUnresolved(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{"=SUM(C1:D2)"}}, WithSize(2, 2))
	c, ok := sheet.GetCellByPoint(pt("A1"))
	require.True(t, ok)
	assert.Contains(t, c.Value, unresolvedMark)
	assert.Equal(t, "=SUM(C1:D2)", sheet.Stringify(pt("A1"), true))
}

func TestResolver_MovePreventedByHeader(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Sheet1", [][]any{{1, 2}, {3, 4}},
		WithCells(map[string]Cell{
			"B": {Prevention: PreventMoveTo},
			"2": {Prevention: PreventMoveFrom},
		}))

	assert.Same(t, sheet, sheet.Move(areaOf("A1", "A1"), pt("B1"), WithOperator(OperatorUser)))
	assert.Same(t, sheet, sheet.Move(areaOf("A2", "A2"), pt("A1"), WithOperator(OperatorUser)))
	next := sheet.Move(areaOf("B1", "B1"), pt("A1"), WithOperator(OperatorUser))
	assert.Equal(t, "2", next.Stringify(pt("A1"), false))
}
