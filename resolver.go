package gridsheet

import (
	"fmt"
	"strconv"
	"strings"
)

// unresolvedMark prefixes an address that could not be bound to an id.
const unresolvedMark = "?"

// idRef is the parsed form of "#sheet!id" with absolute markers: "$" before
// the id pins the column, "$" after it pins the row.
type idRef struct {
	SheetID int
	ID      ID
	AbsCol  bool
	AbsRow  bool
}

func parseIDRef(s string) (idRef, error) {
	if !strings.HasPrefix(s, "#") {
		return idRef{}, fmt.Errorf("invalid id reference %q", s)
	}
	var ref idRef
	body := s[1:]
	if sheet, rest, ok := strings.Cut(body, "!"); ok {
		n, err := strconv.Atoi(sheet)
		if err != nil {
			return idRef{}, fmt.Errorf("invalid sheet id in %q: %w", s, err)
		}
		ref.SheetID, body = n, rest
	}
	if strings.HasPrefix(body, "$") {
		ref.AbsCol, body = true, body[1:]
	}
	if strings.HasSuffix(body, "$") {
		ref.AbsRow, body = true, body[:len(body)-1]
	}
	n, err := strconv.Atoi(body)
	if err != nil || n <= 0 {
		return idRef{}, fmt.Errorf("invalid id in %q", s)
	}
	ref.ID = ID(n)
	return ref, nil
}

func (r idRef) String() string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(strconv.Itoa(r.SheetID))
	b.WriteByte('!')
	if r.AbsCol {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(int(r.ID)))
	if r.AbsRow {
		b.WriteByte('$')
	}
	return b.String()
}

// identifyFormula rewrites every reference of a formula into the canonical
// "#sheet!id" form as seen from origin, sliding relative parts by (dy, dx),
// and registers the origin cell as a dependent of everything it references.
func (t *Table) identifyFormula(formula string, origin Point, dy, dx int) string {
	tokens, err := Tokenize(strings.TrimPrefix(formula, "="))
	if err != nil {
		return formula
	}
	dep := CellKey{SheetID: t.sheetID, ID: t.IDAt(origin)}
	var b strings.Builder
	b.WriteByte('=')
	for _, tok := range tokens {
		switch tok.Type {
		case TokenRef:
			b.WriteString(t.identifyRef(tok.Text, dy, dx, dep))
		case TokenRange:
			b.WriteString(t.identifyRange(tok.Text, dy, dx, dep))
		case TokenID:
			b.WriteString(t.identifyID(tok.Text, dy, dx, dep))
		case TokenIDRange:
			left, right, _ := strings.Cut(tok.Text, ":")
			b.WriteString(t.identifyID(left, dy, dx, dep) + ":" + t.identifyID(right, dy, dx, dep))
			t.registerIDRange(tok.Text, dep)
		default:
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// target resolves the sheet part of an address reference.
func (t *Table) target(text string) (sheet *Table, prefix, rest string) {
	text = strings.TrimPrefix(text, unresolvedMark)
	name, rest, qualified := splitSheet(text)
	if !qualified {
		return t, "", rest
	}
	prefix = quoteSheetName(name) + "!"
	return t.book.TableByName(name), prefix, rest
}

func (t *Table) identifyRef(text string, dy, dx int, dep CellKey) string {
	target, prefix, rest := t.target(text)
	addr, err := parseAddress(rest)
	if err != nil {
		return text
	}
	addr = addr.slide(dy, dx)
	if addr.Y < 1 || addr.X < 1 {
		return string(ErrorCodeRef)
	}
	if target == nil || !target.inBounds(addr.Point) {
		return unresolvedMark + prefix + addr.String()
	}
	id := target.IDAt(addr.Point)
	target.st.cells[id].addDependent(dep)
	return idRef{SheetID: target.sheetID, ID: id, AbsCol: addr.AbsCol, AbsRow: addr.AbsRow}.String()
}

func (t *Table) identifyRange(text string, dy, dx int, dep CellKey) string {
	target, prefix, rest := t.target(text)
	left, right, _ := strings.Cut(rest, ":")
	if _, r, q := splitSheet(right); q {
		right = r
	}
	a, errA := parseAddress(left)
	b, errB := parseAddress(right)
	if errA != nil || errB != nil {
		return t.slideLineRange(text, prefix, left, right, dy, dx)
	}
	a, b = a.slide(dy, dx), b.slide(dy, dx)
	if a.Y < 1 || a.X < 1 || b.Y < 1 || b.X < 1 {
		return string(ErrorCodeRef)
	}
	if target == nil || !target.inBounds(NewArea(a.Point, b.Point).TopLeft()) {
		return unresolvedMark + prefix + a.String() + ":" + b.String()
	}
	// Endpoints past the extent bind to the last row or column.
	a.Point, b.Point = target.clip(a.Point), target.clip(b.Point)
	target.registerArea(NewArea(a.Point, b.Point), dep)
	ra := idRef{SheetID: target.sheetID, ID: target.IDAt(a.Point), AbsCol: a.AbsCol, AbsRow: a.AbsRow}
	rb := idRef{SheetID: target.sheetID, ID: target.IDAt(b.Point), AbsCol: b.AbsCol, AbsRow: b.AbsRow}
	return ra.String() + ":" + rb.String()
}

// slideLineRange keeps whole-column and whole-row ranges in address form,
// sliding only their relative parts.
func (t *Table) slideLineRange(text, prefix, left, right string, dy, dx int) string {
	n1, abs1, col1, err1 := parseLineAddress(left)
	n2, abs2, col2, err2 := parseLineAddress(right)
	if err1 != nil || err2 != nil || col1 != col2 {
		return text
	}
	shift := dy
	if col1 {
		shift = dx
	}
	if !abs1 {
		n1 += shift
	}
	if !abs2 {
		n2 += shift
	}
	if n1 < 1 || n2 < 1 {
		return string(ErrorCodeRef)
	}
	format := func(n int, abs bool) string {
		s := strconv.Itoa(n)
		if col1 {
			s = ColToName(n)
		}
		if abs {
			return "$" + s
		}
		return s
	}
	return prefix + format(n1, abs1) + ":" + format(n2, abs2)
}

func (t *Table) identifyID(text string, dy, dx int, dep CellKey) string {
	ref, err := parseIDRef(text)
	if err != nil {
		return text
	}
	target := t
	if ref.SheetID != 0 && ref.SheetID != t.sheetID {
		target = t.book.Table(ref.SheetID)
	}
	if target == nil {
		return text
	}
	ref.SheetID = target.sheetID
	if dy != 0 || dx != 0 {
		p, ok := target.PointOf(ref.ID)
		if !ok {
			return ref.String()
		}
		addr := address{Point: p, AbsCol: ref.AbsCol, AbsRow: ref.AbsRow}.slide(dy, dx)
		if addr.Y < 1 || addr.X < 1 {
			return string(ErrorCodeRef)
		}
		if !target.inBounds(addr.Point) {
			return unresolvedMark + target.prefixFor(t) + addr.String()
		}
		ref.ID = target.IDAt(addr.Point)
	}
	if c := target.st.cells[ref.ID]; c != nil {
		c.addDependent(dep)
	}
	return ref.String()
}

// registerIDRange registers dep on every cell spanned by an id range.
func (t *Table) registerIDRange(text string, dep CellKey) {
	ctx := newEvalContext(t, Point{})
	left, right, _ := strings.Cut(text, ":")
	ta, a, errA := ctx.resolveID(left)
	tb, b, errB := ctx.resolveID(right)
	if errA != nil || errB != nil || ta != tb {
		return
	}
	ta.registerArea(NewArea(a, b), dep)
}

func (t *Table) registerArea(area Area, dep CellKey) {
	for y := area.Top; y <= area.Bottom; y++ {
		for x := area.Left; x <= area.Right; x++ {
			if c := t.st.cells[t.IDAt(Point{Y: y, X: x})]; c != nil {
				c.addDependent(dep)
			}
		}
	}
}

// prefixFor returns the sheet prefix needed to reference t from viewer.
func (t *Table) prefixFor(viewer *Table) string {
	if viewer == nil || viewer.sheetID == t.sheetID {
		return ""
	}
	return quoteSheetName(t.Name()) + "!"
}

// Display renders formula text with ids replaced by the addresses they
// currently occupy.
func (t *Table) Display(formula string) string {
	if !strings.HasPrefix(formula, "=") {
		return formula
	}
	tokens, err := Tokenize(formula[1:])
	if err != nil {
		return formula
	}
	var b strings.Builder
	b.WriteByte('=')
	for _, tok := range tokens {
		switch tok.Type {
		case TokenID:
			b.WriteString(t.displayID(tok.Text, true))
		case TokenIDRange:
			left, right, _ := strings.Cut(tok.Text, ":")
			b.WriteString(t.displayID(left, true) + ":" + t.displayID(right, false))
		case TokenRef, TokenRange:
			b.WriteString(strings.TrimPrefix(tok.Text, unresolvedMark))
		default:
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

func (t *Table) displayID(text string, withSheet bool) string {
	ref, err := parseIDRef(text)
	if err != nil {
		return string(ErrorCodeRef)
	}
	target := t
	if ref.SheetID != 0 && ref.SheetID != t.sheetID {
		target = t.book.Table(ref.SheetID)
	}
	if target == nil {
		return string(ErrorCodeRef)
	}
	p, ok := target.PointOf(ref.ID)
	if !ok || p.Y < 1 || p.X < 1 {
		return string(ErrorCodeRef)
	}
	s := address{Point: p, AbsCol: ref.AbsCol, AbsRow: ref.AbsRow}.String()
	if withSheet {
		s = target.prefixFor(t) + s
	}
	return s
}

// remapRemoved fixes the formulas that depend on the lines [start, start+n)
// about to be removed along ax. Range endpoints on removed lines move to the
// nearest surviving line inside the range, and the dependents of removed cells
// move to the adjacent surviving cell. It returns the before and after content
// of every rewritten formula cell.
func (t *Table) remapRemoved(ax axis, start, n int) (before, after map[CellKey]Cell) {
	end := start + n - 1
	removed := make(map[ID]struct{})
	deps := make(map[CellKey]struct{})
	for i := start; i <= end; i++ {
		for _, id := range t.line(ax, i) {
			removed[id] = struct{}{}
			for k := range t.st.cells[id].dependents {
				deps[k] = struct{}{}
			}
		}
	}

	before, after = make(map[CellKey]Cell), make(map[CellKey]Cell)
	for k := range deps {
		owner := t.book.Table(k.SheetID)
		if owner == nil {
			continue
		}
		c := owner.st.cells[k.ID]
		if c == nil || !c.IsFormula() {
			continue
		}
		if _, gone := removed[k.ID]; gone && k.SheetID == t.sheetID {
			continue
		}
		text := c.Value.(string)
		rewritten := t.remapFormula(text, ax, start, end)
		if rewritten == text {
			continue
		}
		before[k] = c.content()
		c.Value = rewritten
		after[k] = c.content()
	}

	neighbor := start - 1
	if neighbor < 1 {
		neighbor = end + 1
	}
	if neighbor <= t.lineCount(ax) {
		survivors := t.line(ax, neighbor)
		for i := start; i <= end; i++ {
			for j, id := range t.line(ax, i) {
				for k := range t.st.cells[id].dependents {
					t.st.cells[survivors[j]].addDependent(k)
				}
			}
		}
	}
	return before, after
}

// remapFormula rewrites id-range endpoints of t that sit on removed lines.
func (t *Table) remapFormula(formula string, ax axis, start, end int) string {
	tokens, err := Tokenize(strings.TrimPrefix(formula, "="))
	if err != nil {
		return formula
	}
	var b strings.Builder
	b.WriteByte('=')
	for _, tok := range tokens {
		if tok.Type != TokenIDRange {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(t.remapIDRange(tok.Text, ax, start, end))
	}
	return b.String()
}

func (t *Table) remapIDRange(text string, ax axis, start, end int) string {
	left, right, _ := strings.Cut(text, ":")
	ra, errA := parseIDRef(left)
	rb, errB := parseIDRef(right)
	if errA != nil || errB != nil || ra.SheetID != t.sheetID || rb.SheetID != t.sheetID {
		return text
	}
	pa, okA := t.PointOf(ra.ID)
	pb, okB := t.PointOf(rb.ID)
	if !okA || !okB {
		return text
	}
	lo, hi := ax.coord(pa), ax.coord(pb)
	loIsA := lo <= hi
	if !loIsA {
		lo, hi = hi, lo
	}
	newLo, newHi := lo, hi
	if lo >= start && lo <= end {
		newLo = end + 1
	}
	if hi >= start && hi <= end {
		newHi = start - 1
	}
	if newLo > newHi || (newLo == lo && newHi == hi) {
		return text
	}
	if loIsA {
		pa, pb = ax.with(pa, newLo), ax.with(pb, newHi)
	} else {
		pa, pb = ax.with(pa, newHi), ax.with(pb, newLo)
	}
	ra.ID, rb.ID = t.IDAt(pa), t.IDAt(pb)
	return ra.String() + ":" + rb.String()
}
