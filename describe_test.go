package gridsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe_Cells(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "S", [][]any{{1, "=A1*2"}})
	out := sheet.Describe()

	assert.Contains(t, out, "Sheet: S (#1) 1x2")
	assert.Contains(t, out, "History: 0/0")
	assert.Contains(t, out, "Used: A1:B1")
	assert.Contains(t, out, "A1 Number: 1")
	assert.Contains(t, out, "B1 formula: =A1*2 -> 2")
}

func TestDescribe_Empty(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "Blank", nil, WithSize(2, 2))
	out := sheet.Describe()
	assert.Contains(t, out, "Sheet: Blank (#1) 2x2")
	assert.Contains(t, out, "(empty)")
}
