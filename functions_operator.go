package gridsheet

import (
	"cmp"
	"math"
	"strings"
	"time"
)

const day = 24 * time.Hour

func operatorFuncs() []*Function {
	binary := func(name, example, desc string, main func(a, b any) (any, error)) *Function {
		return &Function{
			Name:        name,
			Example:     example,
			Description: desc,
			MinArgs:     2,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				a, err := strip(args[0])
				if err != nil {
					return nil, err
				}
				b, err := strip(args[1])
				if err != nil {
					return nil, err
				}
				return main(a, b)
			},
		}
	}
	compare := func(name, example string, test func(c int) bool) *Function {
		return binary(name, example, "Compares two values.", func(a, b any) (any, error) {
			return test(compareValues(a, b)), nil
		})
	}
	return []*Function{
		binary("ADD", "ADD(1, 2)", "Adds two numbers. A date plus a number shifts the date by days.", add),
		binary("MINUS", "MINUS(3, 1)", "Subtracts the second number from the first. Two dates give the days between them.", subtract),
		binary("MULTIPLY", "MULTIPLY(2, 3)", "Multiplies two numbers.", numeric(func(a, b float64) (float64, error) { return a * b, nil })),
		binary("DIVIDE", "DIVIDE(6, 3)", "Divides the first number by the second.", numeric(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, NewDivZeroError("Division by zero")
			}
			return a / b, nil
		})),
		binary("POW", "POW(2, 8)", "Raises a number to a power.", numeric(pow)),
		binary("CONCAT", `CONCAT("a", "b")`, "Joins two values as text.", func(a, b any) (any, error) {
			return formatValue(a) + formatValue(b), nil
		}),
		compare("EQ", "EQ(1, 1)", func(c int) bool { return c == 0 }),
		compare("NE", "NE(1, 2)", func(c int) bool { return c != 0 }),
		compare("GT", "GT(2, 1)", func(c int) bool { return c > 0 }),
		compare("GTE", "GTE(2, 2)", func(c int) bool { return c >= 0 }),
		compare("LT", "LT(1, 2)", func(c int) bool { return c < 0 }),
		compare("LTE", "LTE(2, 2)", func(c int) bool { return c <= 0 }),
	}
}

func numeric(f func(a, b float64) (float64, error)) func(a, b any) (any, error) {
	return func(a, b any) (any, error) {
		x, err := ensureNumber(a)
		if err != nil {
			return nil, err
		}
		y, err := ensureNumber(b)
		if err != nil {
			return nil, err
		}
		n, err := f(x, y)
		if err != nil {
			return nil, err
		}
		return checkNumber(n)
	}
}

// checkNumber turns NaN and infinities into #NUM!.
func checkNumber(n float64) (any, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, NewNumError("Result is not a finite number")
	}
	return n, nil
}

func pow(a, b float64) (float64, error) {
	if a == 0 && b < 0 {
		return 0, NewDivZeroError("Division by zero")
	}
	return math.Pow(a, b), nil
}

func shiftDays(t time.Time, days float64) time.Time {
	return t.Add(time.Duration(days * float64(day)))
}

func add(a, b any) (any, error) {
	if t, ok := a.(time.Time); ok {
		n, err := ensureNumber(b)
		if err != nil {
			return nil, err
		}
		return shiftDays(t, n), nil
	}
	if t, ok := b.(time.Time); ok {
		n, err := ensureNumber(a)
		if err != nil {
			return nil, err
		}
		return shiftDays(t, n), nil
	}
	return numeric(func(x, y float64) (float64, error) { return x + y, nil })(a, b)
}

func subtract(a, b any) (any, error) {
	if t, ok := a.(time.Time); ok {
		if u, ok := b.(time.Time); ok {
			return t.Sub(u).Hours() / 24, nil
		}
		n, err := ensureNumber(b)
		if err != nil {
			return nil, err
		}
		return shiftDays(t, -n), nil
	}
	return numeric(func(x, y float64) (float64, error) { return x - y, nil })(a, b)
}

// typeRank orders mixed-type comparisons: numbers < text < booleans.
func typeRank(v any) int {
	switch v.(type) {
	case string:
		return 1
	case bool:
		return 2
	default:
		return 0
	}
}

// compareValues returns -1, 0 or 1. Blank compares as zero against numbers
// and as empty text against text; text compares case-insensitively.
func compareValues(a, b any) int {
	if a == nil {
		a = blankLike(b)
	}
	if b == nil {
		b = blankLike(a)
	}
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case string:
		return strings.Compare(strings.ToLower(x), strings.ToLower(b.(string)))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	x, errA := ensureNumber(a)
	y, errB := ensureNumber(b)
	if errA != nil || errB != nil {
		return strings.Compare(formatValue(a), formatValue(b))
	}
	return cmp.Compare(x, y)
}

func blankLike(other any) any {
	switch other.(type) {
	case string:
		return ""
	case bool:
		return false
	default:
		return 0.0
	}
}
