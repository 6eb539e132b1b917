package gridsheet

import (
	"log/slog"
	"maps"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Direction is the axis and sense of an autofill drag.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionDown
	DirectionUp
	DirectionRight
	DirectionLeft
)

// String returns a human-readable name for the Direction.
func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionUp:
		return "up"
	case DirectionRight:
		return "right"
	case DirectionLeft:
		return "left"
	default:
		return "none"
	}
}

// Autofill extends the cells of a source area toward a drop point,
// continuing the sequences it finds.
type Autofill struct {
	table     *Table
	src       Area
	dst       Area
	direction Direction
}

// NewAutofill prepares a fill of src dragged to drop. A diagonal drag follows
// the axis with the larger overshoot, vertical on a tie.
func NewAutofill(t *Table, src Area, drop Point) *Autofill {
	a := &Autofill{table: t, src: src, dst: src}
	down, up := drop.Y-src.Bottom, src.Top-drop.Y
	right, left := drop.X-src.Right, src.Left-drop.X
	vertical, horizontal := max(down, up, 0), max(right, left, 0)
	switch {
	case vertical == 0 && horizontal == 0:
		return a
	case vertical >= horizontal && down > 0:
		a.direction = DirectionDown
		a.dst.Bottom = min(drop.Y, t.GetNumRows())
	case vertical >= horizontal:
		a.direction = DirectionUp
		a.dst.Top = max(drop.Y, 1)
	case right > 0:
		a.direction = DirectionRight
		a.dst.Right = min(drop.X, t.GetNumCols())
	default:
		a.direction = DirectionLeft
		a.dst.Left = max(drop.X, 1)
	}
	return a
}

// Direction returns the resolved drag direction.
func (a *Autofill) Direction() Direction { return a.direction }

// Dst returns the source area extended to the drop point.
func (a *Autofill) Dst() Area { return a.dst }

// Apply fills the cells of Dst outside the source as one undoable update.
func (a *Autofill) Apply(opts ...MutationOption) *Table {
	t := a.table
	if a.direction == DirectionNone || a.dst == a.src {
		return t
	}
	var changes []cellChange
	for _, line := range a.lines() {
		changes = append(changes, t.fillLine(line.src, line.fill)...)
	}
	t.book.logger.Debug("autofill", slog.String("sheet", t.Name()), slog.String("src", a.src.String()),
		slog.String("dst", a.dst.String()), slog.String("direction", a.direction.String()))
	return t.applyChanges(changes, newMutation(opts))
}

// fillPlan is one line along the drag: source points in sequence order and
// the points to fill, nearest first.
type fillPlan struct {
	src  []Point
	fill []Point
}

func (a *Autofill) lines() []fillPlan {
	var plans []fillPlan
	switch a.direction {
	case DirectionDown, DirectionUp:
		for x := a.src.Left; x <= a.src.Right; x++ {
			var p fillPlan
			if a.direction == DirectionDown {
				for y := a.src.Top; y <= a.src.Bottom; y++ {
					p.src = append(p.src, Point{Y: y, X: x})
				}
				for y := a.src.Bottom + 1; y <= a.dst.Bottom; y++ {
					p.fill = append(p.fill, Point{Y: y, X: x})
				}
			} else {
				for y := a.src.Bottom; y >= a.src.Top; y-- {
					p.src = append(p.src, Point{Y: y, X: x})
				}
				for y := a.src.Top - 1; y >= a.dst.Top; y-- {
					p.fill = append(p.fill, Point{Y: y, X: x})
				}
			}
			plans = append(plans, p)
		}
	case DirectionRight, DirectionLeft:
		for y := a.src.Top; y <= a.src.Bottom; y++ {
			var p fillPlan
			if a.direction == DirectionRight {
				for x := a.src.Left; x <= a.src.Right; x++ {
					p.src = append(p.src, Point{Y: y, X: x})
				}
				for x := a.src.Right + 1; x <= a.dst.Right; x++ {
					p.fill = append(p.fill, Point{Y: y, X: x})
				}
			} else {
				for x := a.src.Right; x >= a.src.Left; x-- {
					p.src = append(p.src, Point{Y: y, X: x})
				}
				for x := a.src.Left - 1; x >= a.dst.Left; x-- {
					p.fill = append(p.fill, Point{Y: y, X: x})
				}
			}
			plans = append(plans, p)
		}
	}
	return plans
}

// fillLine groups the source of one line into runs and replays them
// cyclically over the fill points.
func (t *Table) fillLine(src, fill []Point) []cellChange {
	cells := make([]*Cell, len(src))
	for i, p := range src {
		cells[i] = t.st.cells[t.IDAt(p)]
	}
	runOf := make([]*fillRun, len(src))
	indexIn := make([]int, len(src))
	for i := 0; i < len(src); {
		kind := fillKindOf(cells[i])
		j := i
		var values []any
		for j < len(src) && fillKindOf(cells[j]) == kind {
			values = append(values, cellValue(cells[j]))
			j++
		}
		r := newFillRun(kind, values)
		for k := i; k < j; k++ {
			runOf[k], indexIn[k] = r, k-i
		}
		i = j
	}

	changes := make([]cellChange, 0, len(fill))
	for n, fp := range fill {
		m, cycle := n%len(src), n/len(src)+1
		sp, sc := src[m], cells[m]
		var cell Cell
		if sc != nil {
			cell.Style = maps.Clone(sc.Style)
		}
		r := runOf[m]
		if r.kind == fillFormula {
			cell.Value = t.identifyFormula(sc.Value.(string), fp, fp.Y-sp.Y, fp.X-sp.X)
		} else {
			cell.Value = r.at(indexIn[m], cycle)
		}
		changes = append(changes, cellChange{point: fp, cell: cell, mask: fieldValue | fieldStyle})
	}
	return changes
}

func cellValue(c *Cell) any {
	if c == nil {
		return nil
	}
	return c.Value
}

type fillKind int

const (
	fillOther fillKind = iota
	fillNumber
	fillDate
	fillPrefixed
	fillFormula
)

// prefixedRegex matches text ending in digits, such as "Item 7" or "Q01".
var prefixedRegex = regexp.MustCompile(`^(.*\D)(\d+)$`)

func fillKindOf(c *Cell) fillKind {
	if c == nil {
		return fillOther
	}
	if c.IsFormula() {
		return fillFormula
	}
	switch v := c.Value.(type) {
	case float64, int:
		return fillNumber
	case time.Time:
		return fillDate
	case string:
		if prefixedRegex.MatchString(v) {
			return fillPrefixed
		}
	}
	return fillOther
}

// fillRun is a maximal group of same-kind source values with the step found
// between its first two members. A run whose members do not all keep that
// step is not steady and repeats verbatim.
type fillRun struct {
	kind   fillKind
	values []any
	steady bool

	delta  float64       // number and prefixed
	months int           // date, calendar step
	span   time.Duration // date, fixed step

	prefixes []string
	digits   []int
	widths   []int
}

const stepTolerance = 1e-9

func newFillRun(kind fillKind, values []any) *fillRun {
	r := &fillRun{kind: kind, values: values}
	switch kind {
	case fillNumber:
		r.numberStep()
	case fillDate:
		r.dateStep()
	case fillPrefixed:
		r.prefixedStep()
	}
	return r
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	}
	return 0
}

func (r *fillRun) numberStep() {
	if len(r.values) < 2 {
		return
	}
	r.delta = toFloat(r.values[1]) - toFloat(r.values[0])
	for i := 2; i < len(r.values); i++ {
		if math.Abs(toFloat(r.values[i])-toFloat(r.values[i-1])-r.delta) > stepTolerance {
			return
		}
	}
	r.steady = true
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func sameClock(a, b time.Time) bool {
	return a.Day() == b.Day() && a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

func (r *fillRun) dateStep() {
	if len(r.values) < 2 {
		r.span = day
		r.steady = true
		return
	}
	a, b := r.values[0].(time.Time), r.values[1].(time.Time)
	if months := monthsBetween(a, b); months != 0 && sameClock(a, b) {
		for i := 2; i < len(r.values); i++ {
			prev, cur := r.values[i-1].(time.Time), r.values[i].(time.Time)
			if monthsBetween(prev, cur) != months || !sameClock(prev, cur) {
				return
			}
		}
		r.months = months
		r.steady = true
		return
	}
	r.span = b.Sub(a)
	for i := 2; i < len(r.values); i++ {
		if r.values[i].(time.Time).Sub(r.values[i-1].(time.Time)) != r.span {
			return
		}
	}
	r.steady = true
}

func (r *fillRun) prefixedStep() {
	for _, v := range r.values {
		m := prefixedRegex.FindStringSubmatch(v.(string))
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return
		}
		r.prefixes = append(r.prefixes, m[1])
		r.digits = append(r.digits, n)
		r.widths = append(r.widths, len(m[2]))
	}
	for _, p := range r.prefixes[1:] {
		if p != r.prefixes[0] {
			return
		}
	}
	r.delta = 1
	if len(r.digits) > 1 {
		r.delta = float64(r.digits[1] - r.digits[0])
		for i := 2; i < len(r.digits); i++ {
			if float64(r.digits[i]-r.digits[i-1]) != r.delta {
				return
			}
		}
	}
	r.steady = true
}

// at returns member j of the run advanced by cycle whole repetitions.
func (r *fillRun) at(j, cycle int) any {
	if !r.steady {
		return r.values[j]
	}
	shift := len(r.values) * cycle
	switch r.kind {
	case fillNumber:
		return toFloat(r.values[j]) + r.delta*float64(shift)
	case fillDate:
		t := r.values[j].(time.Time)
		if r.months != 0 {
			return t.AddDate(0, r.months*shift, 0)
		}
		return t.Add(r.span * time.Duration(shift))
	case fillPrefixed:
		n := r.digits[j] + int(r.delta)*shift
		s := strconv.Itoa(abs(n))
		for len(s) < r.widths[j] {
			s = "0" + s
		}
		if n < 0 {
			s = "-" + s
		}
		return r.prefixes[j] + s
	default:
		return r.values[j]
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
