package gridsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_ColumnNames(t *testing.T) {
	assert.Equal(t, "A", ColToName(1))
	assert.Equal(t, "Z", ColToName(26))
	assert.Equal(t, "AA", ColToName(27))

	x, err := NameToCol("ab")
	require.NoError(t, err)
	assert.Equal(t, 28, x)

	_, err = NameToCol("1")
	assert.Error(t, err)
}

func TestAddress_PointRoundTrip(t *testing.T) {
	p, err := AddressToPoint("C7")
	require.NoError(t, err)
	assert.Equal(t, Point{Y: 7, X: 3}, p)
	assert.Equal(t, "C7", PointToAddress(p))

	p, err = AddressToPoint("$B$3")
	require.NoError(t, err)
	assert.Equal(t, Point{Y: 3, X: 2}, p)

	assert.Equal(t, "", PointToAddress(Point{Y: 0, X: 2}))

	_, err = AddressToPoint("3B")
	assert.Error(t, err)
}

func TestAddress_AbsoluteMarkers(t *testing.T) {
	a, err := parseAddress("$A5")
	require.NoError(t, err)
	assert.True(t, a.AbsCol)
	assert.False(t, a.AbsRow)

	slid := a.slide(2, 3)
	assert.Equal(t, "$A7", slid.String())

	a, err = parseAddress("b$2")
	require.NoError(t, err)
	assert.Equal(t, "E$2", a.slide(4, 3).String())
}

func TestAddress_SlideOffSheet(t *testing.T) {
	a, err := parseAddress("A1")
	require.NoError(t, err)
	assert.Equal(t, "#REF!", a.slide(-1, 0).String())
}

func TestAddress_LineAddress(t *testing.T) {
	n, abs, isCol, err := parseLineAddress("$C")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, abs)
	assert.True(t, isCol)

	n, abs, isCol, err = parseLineAddress("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.False(t, abs)
	assert.False(t, isCol)

	_, _, _, err = parseLineAddress("0")
	assert.Error(t, err)
}

func TestAddress_SheetNames(t *testing.T) {
	sheet, rest, ok := splitSheet("'My ''Q1'' Sheet'!A1")
	require.True(t, ok)
	assert.Equal(t, "My 'Q1' Sheet", sheet)
	assert.Equal(t, "A1", rest)

	_, rest, ok = splitSheet("B2")
	assert.False(t, ok)
	assert.Equal(t, "B2", rest)

	assert.Equal(t, "Sheet1", quoteSheetName("Sheet1"))
	assert.Equal(t, "'My Sheet'", quoteSheetName("My Sheet"))
	assert.Equal(t, "'AB12'", quoteSheetName("AB12"))
	assert.Equal(t, "'it''s'", quoteSheetName("it's"))
}

func TestArea_Normalize(t *testing.T) {
	a := NewArea(Point{Y: 5, X: 4}, Point{Y: 2, X: 1})
	assert.Equal(t, Area{Top: 2, Left: 1, Bottom: 5, Right: 4}, a)
	assert.Equal(t, 4, a.Height())
	assert.Equal(t, 4, a.Width())
	assert.Equal(t, "A2:D5", a.String())
	assert.True(t, a.Contains(Point{Y: 3, X: 3}))
	assert.False(t, a.Contains(Point{Y: 6, X: 3}))
	assert.Equal(t, Area{Top: 3, Left: 3, Bottom: 6, Right: 6}, a.Slide(1, 2))
}
