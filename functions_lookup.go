package gridsheet

func asRange(v any, name string) (*Range, error) {
	r, ok := v.(*Range)
	if !ok {
		return nil, NewValueError("%s expects a range", name)
	}
	return r, nil
}

func optionalBool(args []any, i int, def bool) (bool, error) {
	if i >= len(args) {
		return def, nil
	}
	return ensureBoolean(args[i])
}

// lookupIndex finds key among values. Exact mode returns the first equal
// value; approximate mode assumes ascending order and returns the last value
// not greater than key. It returns -1 on a miss.
func lookupIndex(key any, values []any, exact bool) int {
	found := -1
	for i, v := range values {
		if _, isErr := v.(error); isErr {
			continue
		}
		c := compareValues(v, key)
		if exact {
			if c == 0 && typeRank(v) == typeRank(key) {
				return i
			}
			continue
		}
		if typeRank(v) != typeRank(key) || v == nil {
			continue
		}
		if c > 0 {
			break
		}
		found = i
	}
	return found
}

func tableLookup(name string, vertical bool) *Function {
	return &Function{
		Name:        name,
		Example:     name + "(key, A1:C10, 2, FALSE)",
		Description: "Finds key in the first line of a table and returns the value of another line.",
		MinArgs:     3,
		MaxArgs:     4,
		Main: func(_ *Call, args []any) (any, error) {
			key, err := strip(args[0])
			if err != nil {
				return nil, err
			}
			r, err := asRange(args[1], name)
			if err != nil {
				return nil, err
			}
			index, err := ensureNumber(args[2])
			if err != nil {
				return nil, err
			}
			approx, err := optionalBool(args, 3, true)
			if err != nil {
				return nil, err
			}
			lines := r.Width()
			if !vertical {
				lines = r.Height()
			}
			if index < 1 || int(index) > lines {
				return nil, NewRefError("%s index %v is outside the table", name, index)
			}

			var keys []any
			if vertical {
				for y := 0; y < r.Height(); y++ {
					keys = append(keys, r.At(y, 0))
				}
			} else {
				for x := 0; x < r.Width(); x++ {
					keys = append(keys, r.At(0, x))
				}
			}
			i := lookupIndex(key, keys, !approx)
			if i < 0 {
				return nil, NewNAError("%s did not find %s", name, formatValue(key))
			}
			if vertical {
				return r.At(i, int(index)-1), nil
			}
			return r.At(int(index)-1, i), nil
		},
	}
}

func lookupFuncs() []*Function {
	position := func(name string, row bool) *Function {
		return &Function{
			Name:        name,
			Example:     name + "(A1)",
			Description: "Returns the 1-based position of a reference, or of the calling cell.",
			MaxArgs:     1,
			Main: func(c *Call, args []any) (any, error) {
				p := c.Origin
				if len(args) == 1 {
					r, err := asRange(args[0], name)
					if err != nil {
						return nil, err
					}
					p = r.Area().TopLeft()
				}
				if row {
					return float64(p.Y), nil
				}
				return float64(p.X), nil
			},
		}
	}
	size := func(name string, rows bool) *Function {
		return &Function{
			Name:        name,
			Example:     name + "(A1:C10)",
			Description: "Returns the size of a range.",
			MinArgs:     1,
			MaxArgs:     1,
			Main: func(_ *Call, args []any) (any, error) {
				r, ok := args[0].(*Range)
				if !ok {
					return 1.0, nil
				}
				if rows {
					return float64(r.Height()), nil
				}
				return float64(r.Width()), nil
			},
		}
	}
	return []*Function{
		tableLookup("VLOOKUP", true),
		tableLookup("HLOOKUP", false),
		{
			Name:        "MATCH",
			Example:     "MATCH(key, A1:A10, 0)",
			Description: "Returns the 1-based position of key in a line. Type 1 finds the largest value not above key, 0 an exact match and -1 the smallest value not below key.",
			MinArgs:     2,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				key, err := strip(args[0])
				if err != nil {
					return nil, err
				}
				r, err := asRange(args[1], "MATCH")
				if err != nil {
					return nil, err
				}
				if r.Height() > 1 && r.Width() > 1 {
					return nil, NewNAError("MATCH expects a single row or column")
				}
				kind, err := optionalNumber(args, 2, 1)
				if err != nil {
					return nil, err
				}
				values := flatten(r)
				i := -1
				switch {
				case kind == 0:
					i = lookupIndex(key, values, true)
				case kind > 0:
					i = lookupIndex(key, values, false)
				default:
					for j, v := range values {
						if v == nil || typeRank(v) != typeRank(key) {
							continue
						}
						if compareValues(v, key) < 0 {
							break
						}
						i = j
					}
				}
				if i < 0 {
					return nil, NewNAError("MATCH did not find %s", formatValue(key))
				}
				return float64(i + 1), nil
			},
		},
		{
			Name:        "INDEX",
			Example:     "INDEX(A1:C10, 2, 3)",
			Description: "Returns the value at a 1-based row and column of a range.",
			MinArgs:     2,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				r, err := asRange(args[0], "INDEX")
				if err != nil {
					return nil, err
				}
				y, err := ensureNumber(args[1])
				if err != nil {
					return nil, err
				}
				x, err := optionalNumber(args, 2, 1)
				if err != nil {
					return nil, err
				}
				if r.Height() == 1 && len(args) == 2 {
					y, x = 1, y
				}
				if y < 1 || x < 1 || int(y) > r.Height() || int(x) > r.Width() {
					return nil, NewRefError("INDEX position is outside the range")
				}
				return r.At(int(y)-1, int(x)-1), nil
			},
		},
		position("ROW", true),
		position("COLUMN", false),
		size("ROWS", true),
		size("COLUMNS", false),
	}
}
