package gridsheet

import (
	"math"
	"strconv"
	"strings"
)

// numbersOf collects the numbers of args for aggregates. Scalars are coerced;
// inside ranges only numbers count and blanks, text and booleans are skipped.
// Errors propagate either way.
func numbersOf(args []any) ([]float64, error) {
	var out []float64
	for _, arg := range args {
		if _, ok := arg.(*Range); !ok {
			n, err := ensureNumber(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
			continue
		}
		for _, v := range flatten(arg) {
			switch x := v.(type) {
			case error:
				return nil, x
			case float64:
				out = append(out, x)
			case int:
				out = append(out, float64(x))
			}
		}
	}
	return out, nil
}

func unary(name, example, desc string, f func(float64) (float64, error)) *Function {
	return &Function{
		Name:        name,
		Example:     example,
		Description: desc,
		MinArgs:     1,
		MaxArgs:     1,
		Main: func(_ *Call, args []any) (any, error) {
			n, err := ensureNumber(args[0])
			if err != nil {
				return nil, err
			}
			r, err := f(n)
			if err != nil {
				return nil, err
			}
			return checkNumber(r)
		},
	}
}

func aggregate(name, example, desc string, f func(ns []float64) (any, error)) *Function {
	return &Function{
		Name:        name,
		Example:     example,
		Description: desc,
		MinArgs:     1,
		MaxArgs:     -1,
		Main: func(_ *Call, args []any) (any, error) {
			ns, err := numbersOf(args)
			if err != nil {
				return nil, err
			}
			return f(ns)
		},
	}
}

// roundTo rounds n to digits decimals with mode applied to the scaled value.
func roundTo(n, digits float64, mode func(float64) float64) float64 {
	scale := math.Pow(10, math.Trunc(digits))
	return mode(n*scale) / scale
}

func optionalNumber(args []any, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	return ensureNumber(args[i])
}

func rounding(name, desc string, mode func(float64) float64) *Function {
	return &Function{
		Name:        name,
		Example:     name + "(3.14159, 2)",
		Description: desc,
		MinArgs:     1,
		MaxArgs:     2,
		Main: func(_ *Call, args []any) (any, error) {
			n, err := ensureNumber(args[0])
			if err != nil {
				return nil, err
			}
			digits, err := optionalNumber(args, 1, 0)
			if err != nil {
				return nil, err
			}
			return checkNumber(roundTo(n, digits, mode))
		},
	}
}

func awayFromZero(n float64) float64 {
	if n < 0 {
		return -math.Ceil(-n)
	}
	return math.Ceil(n)
}

func towardZero(n float64) float64 { return math.Trunc(n) }

// significance rounds n to a multiple of sig using mode.
func significance(name, desc string, mode func(float64) float64) *Function {
	return &Function{
		Name:        name,
		Example:     name + "(2.5, 1)",
		Description: desc,
		MinArgs:     1,
		MaxArgs:     2,
		Main: func(_ *Call, args []any) (any, error) {
			n, err := ensureNumber(args[0])
			if err != nil {
				return nil, err
			}
			sig, err := optionalNumber(args, 1, 1)
			if err != nil {
				return nil, err
			}
			if sig == 0 {
				return 0.0, nil
			}
			if n > 0 && sig < 0 {
				return nil, NewNumError("Significance must have the sign of the number")
			}
			return checkNumber(mode(n/sig) * sig)
		},
	}
}

func mathFuncs() []*Function {
	return []*Function{
		aggregate("SUM", "SUM(A1:A10)", "Adds all numbers.", func(ns []float64) (any, error) {
			sum := 0.0
			for _, n := range ns {
				sum += n
			}
			rounded, _ := strconv.ParseFloat(strconv.FormatFloat(sum, 'f', 15, 64), 64)
			return rounded, nil
		}),
		aggregate("AVERAGE", "AVERAGE(A1:A10)", "Returns the arithmetic mean.", func(ns []float64) (any, error) {
			if len(ns) == 0 {
				return nil, NewDivZeroError("Division by zero")
			}
			sum := 0.0
			for _, n := range ns {
				sum += n
			}
			return sum / float64(len(ns)), nil
		}),
		aggregate("MAX", "MAX(A1:A10)", "Returns the largest number, or 0 when there is none.", func(ns []float64) (any, error) {
			if len(ns) == 0 {
				return 0.0, nil
			}
			out := ns[0]
			for _, n := range ns[1:] {
				out = math.Max(out, n)
			}
			return out, nil
		}),
		aggregate("MIN", "MIN(A1:A10)", "Returns the smallest number, or 0 when there is none.", func(ns []float64) (any, error) {
			if len(ns) == 0 {
				return 0.0, nil
			}
			out := ns[0]
			for _, n := range ns[1:] {
				out = math.Min(out, n)
			}
			return out, nil
		}),
		aggregate("PRODUCT", "PRODUCT(A1:A3)", "Multiplies all numbers.", func(ns []float64) (any, error) {
			if len(ns) == 0 {
				return 0.0, nil
			}
			out := 1.0
			for _, n := range ns {
				out *= n
			}
			return checkNumber(out)
		}),
		{
			Name:         "COUNT",
			Example:      "COUNT(A1:A10)",
			Description:  "Counts numeric values. Errors inside ranges are skipped.",
			MinArgs:      1,
			MaxArgs:      -1,
			AcceptErrors: true,
			Main: func(_ *Call, args []any) (any, error) {
				count := 0
				for _, arg := range args {
					for _, v := range flatten(arg) {
						switch v.(type) {
						case float64, int:
							count++
						}
					}
				}
				return float64(count), nil
			},
		},
		{
			Name:         "COUNTA",
			Example:      "COUNTA(A1:A10)",
			Description:  "Counts non-empty values, errors included.",
			MinArgs:      1,
			MaxArgs:      -1,
			AcceptErrors: true,
			Main: func(_ *Call, args []any) (any, error) {
				count := 0
				for _, arg := range args {
					for _, v := range flatten(arg) {
						if v != nil {
							count++
						}
					}
				}
				return float64(count), nil
			},
		},
		unary("ABS", "ABS(-2)", "Returns the absolute value.", func(n float64) (float64, error) { return math.Abs(n), nil }),
		rounding("ROUND", "Rounds half away from zero to a number of digits.", math.Round),
		rounding("ROUNDUP", "Rounds away from zero to a number of digits.", awayFromZero),
		rounding("ROUNDDOWN", "Rounds toward zero to a number of digits.", towardZero),
		significance("FLOOR", "Rounds down to a multiple of significance.", math.Floor),
		significance("CEILING", "Rounds up to a multiple of significance.", math.Ceil),
		unary("SQRT", "SQRT(16)", "Returns the square root.", func(n float64) (float64, error) {
			if n < 0 {
				return 0, NewNumError("SQRT of a negative number")
			}
			return math.Sqrt(n), nil
		}),
		{
			Name:        "POWER",
			Example:     "POWER(2, 10)",
			Description: "Raises a number to a power.",
			MinArgs:     2,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				return numeric(pow)(args[0], args[1])
			},
		},
		{
			Name:        "MOD",
			Example:     "MOD(7, 3)",
			Description: "Returns the remainder with the sign of the divisor.",
			MinArgs:     2,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				return numeric(func(a, b float64) (float64, error) {
					if b == 0 {
						return 0, NewDivZeroError("Division by zero")
					}
					return a - b*math.Floor(a/b), nil
				})(args[0], args[1])
			},
		},
		unary("INT", "INT(-2.5)", "Rounds down to the nearest integer.", func(n float64) (float64, error) { return math.Floor(n), nil }),
		{
			Name:        "PI",
			Example:     "PI()",
			Description: "Returns pi.",
			Main:        func(*Call, []any) (any, error) { return math.Pi, nil },
		},
		unary("EXP", "EXP(1)", "Returns e raised to a power.", func(n float64) (float64, error) { return math.Exp(n), nil }),
		unary("LN", "LN(10)", "Returns the natural logarithm.", func(n float64) (float64, error) {
			if n <= 0 {
				return 0, NewNumError("LN of a non-positive number")
			}
			return math.Log(n), nil
		}),
		{
			Name:        "LOG",
			Example:     "LOG(8, 2)",
			Description: "Returns the logarithm in a base, 10 by default.",
			MinArgs:     1,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				n, err := ensureNumber(args[0])
				if err != nil {
					return nil, err
				}
				base, err := optionalNumber(args, 1, 10)
				if err != nil {
					return nil, err
				}
				if n <= 0 || base <= 0 {
					return nil, NewNumError("LOG of a non-positive number")
				}
				if base == 1 {
					return nil, NewDivZeroError("Division by zero")
				}
				return checkNumber(math.Log(n) / math.Log(base))
			},
		},
		unary("LOG10", "LOG10(100)", "Returns the base-10 logarithm.", func(n float64) (float64, error) {
			if n <= 0 {
				return 0, NewNumError("LOG10 of a non-positive number")
			}
			return math.Log10(n), nil
		}),
		unary("SIN", "SIN(PI()/2)", "Returns the sine of an angle in radians.", func(n float64) (float64, error) { return math.Sin(n), nil }),
		unary("COS", "COS(0)", "Returns the cosine of an angle in radians.", func(n float64) (float64, error) { return math.Cos(n), nil }),
		unary("TAN", "TAN(0)", "Returns the tangent of an angle in radians.", func(n float64) (float64, error) { return math.Tan(n), nil }),
		unary("RADIANS", "RADIANS(180)", "Converts degrees to radians.", func(n float64) (float64, error) { return n * math.Pi / 180, nil }),
		unary("DEGREES", "DEGREES(PI())", "Converts radians to degrees.", func(n float64) (float64, error) { return n * 180 / math.Pi, nil }),
		{
			Name:        "RAND",
			Example:     "RAND()",
			Description: "Returns a random number in [0, 1).",
			Main:        func(c *Call, _ []any) (any, error) { return c.Random(), nil },
		},
		{
			Name:        "SUMIF",
			Example:     `SUMIF(A1:A10, ">5", B1:B10)`,
			Description: "Adds the cells matching a criterion, optionally from a parallel range.",
			MinArgs:     2,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				crit, err := newCriterion(args[1])
				if err != nil {
					return nil, err
				}
				tested := flatten(args[0])
				summed := tested
				if len(args) == 3 {
					summed = flatten(args[2])
				}
				sum := 0.0
				for i, v := range tested {
					if i >= len(summed) || !crit.match(v) {
						continue
					}
					switch x := summed[i].(type) {
					case error:
						return nil, x
					case float64:
						sum += x
					}
				}
				return sum, nil
			},
		},
		{
			Name:        "COUNTIF",
			Example:     `COUNTIF(A1:A10, "apple")`,
			Description: "Counts the cells matching a criterion.",
			MinArgs:     2,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				crit, err := newCriterion(args[1])
				if err != nil {
					return nil, err
				}
				count := 0
				for _, v := range flatten(args[0]) {
					if crit.match(v) {
						count++
					}
				}
				return float64(count), nil
			},
		},
	}
}

// criterion is a parsed SUMIF/COUNTIF condition such as ">=5" or "apple".
type criterion struct {
	op    string
	value any
}

func newCriterion(arg any) (*criterion, error) {
	v, err := strip(arg)
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return &criterion{op: "=", value: v}, nil
	}
	c := &criterion{op: "="}
	for _, op := range []string{">=", "<=", "<>", ">", "<", "="} {
		if rest, found := strings.CutPrefix(s, op); found {
			c.op = op
			s = rest
			break
		}
	}
	c.value = parseInput(s)
	return c, nil
}

func (c *criterion) match(v any) bool {
	if _, isErr := v.(error); isErr {
		return false
	}
	if c.value == nil {
		blank := v == nil || v == ""
		if c.op == "<>" {
			return !blank
		}
		return c.op == "=" && blank
	}
	if v == nil {
		return c.op == "<>"
	}
	if typeRank(v) != typeRank(c.value) {
		return c.op == "<>"
	}
	r := compareValues(v, c.value)
	switch c.op {
	case ">=":
		return r >= 0
	case "<=":
		return r <= 0
	case "<>":
		return r != 0
	case ">":
		return r > 0
	case "<":
		return r < 0
	default:
		return r == 0
	}
}
