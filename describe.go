package gridsheet

import (
	"fmt"
	"strings"
)

// Describe returns a human-readable dump of the sheet: its size, history
// position and every non-blank cell of the used area with its raw text and,
// for formulas, the solved value. Useful for debugging during development.
func (t *Table) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sheet: %s (#%d) %dx%d version %d\n", t.Name(), t.sheetID, t.GetNumRows(), t.GetNumCols(), t.version)
	fmt.Fprintf(&b, "History: %d/%d\n", t.GetHistoryIndex()+1, t.GetHistorySize())

	area, ok := t.usedArea()
	if !ok {
		b.WriteString("  (empty)\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Used: %s\n", area)
	for y := area.Top; y <= area.Bottom; y++ {
		for x := area.Left; x <= area.Right; x++ {
			p := Point{Y: y, X: x}
			c := t.st.cells[t.IDAt(p)]
			if c == nil || TypeOf(c.Value) == CellBlank {
				continue
			}
			raw := t.Stringify(p, true)
			if !c.IsFormula() {
				fmt.Fprintf(&b, "  %s %s: %s\n", PointToAddress(p), TypeOf(c.Value), raw)
				continue
			}
			fmt.Fprintf(&b, "  %s formula: %s -> %s\n", PointToAddress(p), raw, t.Stringify(p, false))
			if deps := c.Dependents(); len(deps) > 0 {
				fmt.Fprintf(&b, "    dependents: %d\n", len(deps))
			}
		}
	}
	return b.String()
}
