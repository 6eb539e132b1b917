package gridsheet

func booleans(args []any) ([]bool, error) {
	var out []bool
	for _, arg := range args {
		if _, ok := arg.(*Range); !ok {
			b, err := ensureBoolean(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
			continue
		}
		for _, v := range flatten(arg) {
			switch x := v.(type) {
			case error:
				return nil, x
			case nil, string:
			default:
				b, err := ensureBoolean(x)
				if err != nil {
					return nil, err
				}
				out = append(out, b)
			}
		}
	}
	if len(out) == 0 {
		return nil, NewValueError("No logical values")
	}
	return out, nil
}

func isFunc(name, desc string, test func(v any, err error) bool) *Function {
	return &Function{
		Name:         name,
		Example:      name + "(A1)",
		Description:  desc,
		MinArgs:      1,
		MaxArgs:      1,
		AcceptErrors: true,
		Main: func(_ *Call, args []any) (any, error) {
			v, err := strip(args[0])
			return test(v, err), nil
		},
	}
}

func logicFuncs() []*Function {
	constant := func(name string, v bool) *Function {
		return &Function{
			Name:        name,
			Example:     name + "()",
			Description: "Returns the logical value " + name + ".",
			Main:        func(*Call, []any) (any, error) { return v, nil },
		}
	}
	return []*Function{
		{
			Name:        "IF",
			Example:     `IF(A1 > 0, "positive", "other")`,
			Description: "Returns the second argument when the condition holds, the third (or FALSE) otherwise.",
			MinArgs:     2,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				cond, err := ensureBoolean(args[0])
				if err != nil {
					return nil, err
				}
				if cond {
					return args[1], nil
				}
				if len(args) == 3 {
					return args[2], nil
				}
				return false, nil
			},
		},
		{
			Name:         "IFERROR",
			Example:      `IFERROR(1/0, "n/a")`,
			Description:  "Returns the second argument when the first is an error.",
			MinArgs:      2,
			MaxArgs:      2,
			AcceptErrors: true,
			Main: func(_ *Call, args []any) (any, error) {
				if _, err := strip(args[0]); err != nil {
					return args[1], nil
				}
				return args[0], nil
			},
		},
		{
			Name:        "AND",
			Example:     "AND(A1, B1)",
			Description: "Returns TRUE when every value is true.",
			MinArgs:     1,
			MaxArgs:     -1,
			Main: func(_ *Call, args []any) (any, error) {
				bs, err := booleans(args)
				if err != nil {
					return nil, err
				}
				for _, b := range bs {
					if !b {
						return false, nil
					}
				}
				return true, nil
			},
		},
		{
			Name:        "OR",
			Example:     "OR(A1, B1)",
			Description: "Returns TRUE when any value is true.",
			MinArgs:     1,
			MaxArgs:     -1,
			Main: func(_ *Call, args []any) (any, error) {
				bs, err := booleans(args)
				if err != nil {
					return nil, err
				}
				for _, b := range bs {
					if b {
						return true, nil
					}
				}
				return false, nil
			},
		},
		{
			Name:        "NOT",
			Example:     "NOT(A1)",
			Description: "Inverts a logical value.",
			MinArgs:     1,
			MaxArgs:     1,
			Main: func(_ *Call, args []any) (any, error) {
				b, err := ensureBoolean(args[0])
				if err != nil {
					return nil, err
				}
				return !b, nil
			},
		},
		constant("TRUE", true),
		constant("FALSE", false),
		isFunc("ISBLANK", "Returns TRUE when the value is empty.", func(v any, err error) bool {
			return err == nil && v == nil
		}),
		isFunc("ISERROR", "Returns TRUE when the value is an error.", func(_ any, err error) bool {
			return err != nil
		}),
		isFunc("ISNUMBER", "Returns TRUE when the value is a number.", func(v any, err error) bool {
			if err != nil {
				return false
			}
			_, ok := v.(float64)
			return ok
		}),
	}
}
