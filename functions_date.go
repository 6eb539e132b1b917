package gridsheet

import "time"

func datePart(name, desc string, part func(t time.Time) int) *Function {
	return &Function{
		Name:        name,
		Example:     name + `("2024-03-15")`,
		Description: desc,
		MinArgs:     1,
		MaxArgs:     1,
		Main: func(_ *Call, args []any) (any, error) {
			t, err := ensureDate(args[0])
			if err != nil {
				return nil, err
			}
			return float64(part(t)), nil
		},
	}
}

func dateFuncs() []*Function {
	return []*Function{
		{
			Name:        "NOW",
			Example:     "NOW()",
			Description: "Returns the current date and time.",
			Main:        func(c *Call, _ []any) (any, error) { return c.Now(), nil },
		},
		{
			Name:        "TODAY",
			Example:     "TODAY()",
			Description: "Returns the current date.",
			Main: func(c *Call, _ []any) (any, error) {
				y, m, d := c.Now().Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
			},
		},
		{
			Name:        "DATE",
			Example:     "DATE(2024, 3, 15)",
			Description: "Builds a date from year, month and day. Out-of-range months and days roll over.",
			MinArgs:     3,
			MaxArgs:     3,
			Main: func(_ *Call, args []any) (any, error) {
				var parts [3]int
				for i := range parts {
					n, err := ensureNumber(args[i])
					if err != nil {
						return nil, err
					}
					parts[i] = int(n)
				}
				if parts[0] < 0 || parts[0] > 9999 {
					return nil, NewNumError("DATE year %d is out of range", parts[0])
				}
				return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), nil
			},
		},
		datePart("YEAR", "Returns the year of a date.", func(t time.Time) int { return t.Year() }),
		datePart("MONTH", "Returns the month of a date, 1 to 12.", func(t time.Time) int { return int(t.Month()) }),
		datePart("DAY", "Returns the day of the month of a date.", func(t time.Time) int { return t.Day() }),
	}
}
