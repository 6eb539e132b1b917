package gridsheet

import (
	"maps"
	"strings"
	"time"
)

// ID is the permanent identifier of a cell. Zero is never assigned.
type ID int

// CellKey identifies a cell across sheets.
type CellKey struct {
	SheetID int
	ID      ID
}

// Prevention is a bitmask of operations a user-sourced edit may not perform.
type Prevention uint32

const (
	PreventWrite Prevention = 1 << iota
	PreventStyle
	PreventResize
	PreventInsertRowsAbove
	PreventInsertRowsBelow
	PreventInsertColsLeft
	PreventInsertColsRight
	PreventDeleteRows
	PreventDeleteCols
	PreventMoveFrom
	PreventMoveTo

	PreventInsertRows = PreventInsertRowsAbove | PreventInsertRowsBelow
	PreventInsertCols = PreventInsertColsLeft | PreventInsertColsRight
	PreventDelete     = PreventDeleteRows | PreventDeleteCols
	PreventMove       = PreventMoveFrom | PreventMoveTo
	PreventReadOnly   = PreventWrite | PreventStyle | PreventResize | PreventInsertRows |
		PreventInsertCols | PreventDelete | PreventMove
)

// Has reports whether every bit of op is set.
func (p Prevention) Has(op Prevention) bool { return p&op == op }

// Any reports whether at least one bit of op is set.
func (p Prevention) Any(op Prevention) bool { return p&op != 0 }

// Cell is one slot of the grid. Value holds nil, float64, bool, string,
// time.Time, or formula text beginning with "=".
type Cell struct {
	ID         ID
	Value      any
	Style      map[string]string
	Width      int
	Height     int
	Prevention Prevention

	dependents map[CellKey]struct{}
	async      *AsyncCache
}

// Dependents returns the cells whose formulas reference this cell.
func (c *Cell) Dependents() []CellKey {
	out := make([]CellKey, 0, len(c.dependents))
	for k := range c.dependents {
		out = append(out, k)
	}
	return out
}

// Async returns the async-result cache of the cell, or nil.
func (c *Cell) Async() *AsyncCache { return c.async }

func (c *Cell) addDependent(k CellKey) {
	if c.dependents == nil {
		c.dependents = make(map[CellKey]struct{})
	}
	c.dependents[k] = struct{}{}
}

// IsFormula reports whether the cell holds formula text.
func (c *Cell) IsFormula() bool {
	s, ok := c.Value.(string)
	return ok && strings.HasPrefix(s, "=")
}

// content returns a copy of the user-editable fields, used by history diffs.
func (c *Cell) content() Cell {
	return Cell{
		ID:         c.ID,
		Value:      c.Value,
		Style:      maps.Clone(c.Style),
		Width:      c.Width,
		Height:     c.Height,
		Prevention: c.Prevention,
	}
}

// fieldMask selects which fields of a cell an update touches.
type fieldMask uint8

const (
	fieldValue fieldMask = 1 << iota
	fieldStyle
	fieldWidth
	fieldHeight
	fieldPrevention

	fieldAll = fieldValue | fieldStyle | fieldWidth | fieldHeight | fieldPrevention
)

// presentFields returns the mask of non-zero fields, used by partial updates.
func (c Cell) presentFields() fieldMask {
	var m fieldMask
	if c.Value != nil {
		m |= fieldValue
	}
	if c.Style != nil {
		m |= fieldStyle
	}
	if c.Width != 0 {
		m |= fieldWidth
	}
	if c.Height != 0 {
		m |= fieldHeight
	}
	if c.Prevention != 0 {
		m |= fieldPrevention
	}
	return m
}

func (c *Cell) apply(src Cell, mask fieldMask) {
	if mask&fieldValue != 0 {
		c.Value = src.Value
	}
	if mask&fieldStyle != 0 {
		c.Style = maps.Clone(src.Style)
	}
	if mask&fieldWidth != 0 {
		c.Width = src.Width
	}
	if mask&fieldHeight != 0 {
		c.Height = src.Height
	}
	if mask&fieldPrevention != 0 {
		c.Prevention = src.Prevention
	}
}

// CellType classifies a raw cell value.
type CellType int

const (
	CellBlank CellType = iota
	CellString
	CellNumber
	CellBoolean
	CellDate
	CellFormula
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	switch ct {
	case CellBlank:
		return "Blank"
	case CellString:
		return "String"
	case CellNumber:
		return "Number"
	case CellBoolean:
		return "Boolean"
	case CellDate:
		return "Date"
	case CellFormula:
		return "Formula"
	default:
		return "Unknown"
	}
}

// TypeOf classifies a raw value.
func TypeOf(v any) CellType {
	switch x := v.(type) {
	case nil:
		return CellBlank
	case float64, int:
		return CellNumber
	case bool:
		return CellBoolean
	case time.Time:
		return CellDate
	case string:
		if x == "" {
			return CellBlank
		}
		if strings.HasPrefix(x, "=") {
			return CellFormula
		}
		return CellString
	default:
		return CellString
	}
}
