package gridsheet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func textUnary(name, example, desc string, f func(s string) any) *Function {
	return &Function{
		Name:        name,
		Example:     example,
		Description: desc,
		MinArgs:     1,
		MaxArgs:     1,
		Main: func(_ *Call, args []any) (any, error) {
			s, err := ensureString(args[0])
			if err != nil {
				return nil, err
			}
			return f(s), nil
		},
	}
}

// textCount reads the optional character count of LEFT and RIGHT.
func textCount(args []any) (int, error) {
	n, err := optionalNumber(args, 1, 1)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, NewValueError("Character count must not be negative")
	}
	return int(n), nil
}

func textFuncs() []*Function {
	return []*Function{
		{
			Name:        "CONCATENATE",
			Example:     `CONCATENATE("a", B1, "c")`,
			Description: "Joins values as text. Ranges are joined row by row.",
			MinArgs:     1,
			MaxArgs:     -1,
			Main: func(_ *Call, args []any) (any, error) {
				var b strings.Builder
				for _, arg := range args {
					for _, v := range flatten(arg) {
						if err, ok := v.(error); ok {
							return nil, err
						}
						b.WriteString(formatValue(v))
					}
				}
				return b.String(), nil
			},
		},
		textUnary("LEN", `LEN("abc")`, "Returns the number of characters.", func(s string) any {
			return float64(len([]rune(s)))
		}),
		{
			Name:        "LEFT",
			Example:     `LEFT("abc", 2)`,
			Description: "Returns the first characters of a text.",
			MinArgs:     1,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				s, err := ensureString(args[0])
				if err != nil {
					return nil, err
				}
				n, err := textCount(args)
				if err != nil {
					return nil, err
				}
				r := []rune(s)
				return string(r[:min(n, len(r))]), nil
			},
		},
		{
			Name:        "RIGHT",
			Example:     `RIGHT("abc", 2)`,
			Description: "Returns the last characters of a text.",
			MinArgs:     1,
			MaxArgs:     2,
			Main: func(_ *Call, args []any) (any, error) {
				s, err := ensureString(args[0])
				if err != nil {
					return nil, err
				}
				n, err := textCount(args)
				if err != nil {
					return nil, err
				}
				r := []rune(s)
				return string(r[len(r)-min(n, len(r)):]), nil
			},
		},
		{
			Name:        "MID",
			Example:     `MID("abcdef", 2, 3)`,
			Description: "Returns characters from the middle of a text, starting at 1.",
			MinArgs:     3,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				s, err := ensureString(args[0])
				if err != nil {
					return nil, err
				}
				start, err := ensureNumber(args[1])
				if err != nil {
					return nil, err
				}
				n, err := ensureNumber(args[2])
				if err != nil {
					return nil, err
				}
				if start < 1 || n < 0 {
					return nil, NewValueError("MID start must be at least 1 and count not negative")
				}
				r := []rune(s)
				from := min(int(start)-1, len(r))
				to := min(from+int(n), len(r))
				return string(r[from:to]), nil
			},
		},
		textUnary("UPPER", `UPPER("abc")`, "Converts text to upper case.", func(s string) any { return cases.Upper(language.Und).String(s) }),
		textUnary("LOWER", `LOWER("ABC")`, "Converts text to lower case.", func(s string) any { return cases.Lower(language.Und).String(s) }),
		textUnary("PROPER", `PROPER("hello world")`, "Capitalizes the first letter of each word.", func(s string) any { return cases.Title(language.Und).String(s) }),
		textUnary("TRIM", `TRIM("  a   b ")`, "Removes leading, trailing and repeated spaces.", func(s string) any {
			return strings.Join(strings.Fields(s), " ")
		}),
	}
}
