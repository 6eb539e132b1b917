package gridsheet

import "strings"

// evalContext holds the sheet snapshot and the cell a formula is evaluated for.
type evalContext struct {
	table  *Table
	origin Point
}

func newEvalContext(t *Table, origin Point) *evalContext {
	return &evalContext{table: t, origin: origin}
}

func (c *evalContext) registry() *Registry { return c.table.book.registry }

// sheet returns the snapshot a reference prefix points to; "" is the current sheet.
func (c *evalContext) sheet(name string, qualified bool) (*Table, error) {
	if !qualified {
		return c.table, nil
	}
	t := c.table.book.TableByName(name)
	if t == nil {
		return nil, NewRefError("Unknown sheet: %s", name)
	}
	return t, nil
}

// resolveAddress resolves "A1", "$A$1" or "Sheet!A1". A leading "?" marks an
// address the resolver could not bind to an id and is ignored here.
func (c *evalContext) resolveAddress(text string) (*Table, address, error) {
	name, rest, qualified := splitSheet(strings.TrimPrefix(text, unresolvedMark))
	t, err := c.sheet(name, qualified)
	if err != nil {
		return nil, address{}, err
	}
	addr, err := parseAddress(rest)
	if err != nil {
		return nil, address{}, NewRefError("Invalid reference: %s", text)
	}
	return t, addr, nil
}

// resolveRange resolves "A1:B2", "A:B" or "2:3", optionally sheet-qualified,
// clipped to the sheet's extent.
func (c *evalContext) resolveRange(text string) (*Table, Area, error) {
	name, rest, qualified := splitSheet(strings.TrimPrefix(text, unresolvedMark))
	t, err := c.sheet(name, qualified)
	if err != nil {
		return nil, Area{}, err
	}
	area, err := t.parseArea(rest)
	if err != nil {
		return nil, Area{}, err
	}
	return t, area, nil
}

// resolveID locates "#sheet!id" in the id matrix of its sheet.
func (c *evalContext) resolveID(text string) (*Table, Point, error) {
	ref, err := parseIDRef(text)
	if err != nil {
		return nil, Point{}, NewRefError("Invalid reference: %s", text)
	}
	t := c.table
	if ref.SheetID != 0 && ref.SheetID != t.sheetID {
		t = c.table.book.Table(ref.SheetID)
		if t == nil {
			return nil, Point{}, NewRefError("Sheet %d does not exist", ref.SheetID)
		}
	}
	p, ok := t.PointOf(ref.ID)
	if !ok {
		return nil, Point{}, NewRefError("Reference has been deleted")
	}
	return t, p, nil
}

// parseArea parses the address part of a range against the sheet extent.
func (t *Table) parseArea(text string) (Area, error) {
	left, right, ok := strings.Cut(text, ":")
	if !ok || left == "" || right == "" {
		return Area{}, NewNameError("Invalid range: %s", text)
	}
	if _, r, q := splitSheet(right); q {
		right = r
	}
	var area Area
	if a, err := parseAddress(left); err == nil {
		b, err := parseAddress(right)
		if err != nil {
			return Area{}, NewRefError("Invalid range: %s", text)
		}
		area = NewArea(a.Point, b.Point)
	} else {
		n1, _, col1, err1 := parseLineAddress(left)
		n2, _, col2, err2 := parseLineAddress(right)
		if err1 != nil || err2 != nil || col1 != col2 {
			return Area{}, NewRefError("Invalid range: %s", text)
		}
		if col1 {
			area = Area{Top: 1, Left: min(n1, n2), Bottom: t.GetNumRows(), Right: max(n1, n2)}
		} else {
			area = Area{Top: min(n1, n2), Left: 1, Bottom: max(n1, n2), Right: t.GetNumCols()}
		}
	}
	area.Bottom = min(area.Bottom, t.GetNumRows())
	area.Right = min(area.Right, t.GetNumCols())
	if area.Top > area.Bottom || area.Left > area.Right {
		return Area{}, NewRefError("Range %s is out of range", text)
	}
	return area, nil
}
