package gridsheet

import (
	"fmt"
	"strings"
)

// Expression is a node of a parsed formula. The set of variants is closed:
// ValueExpression, RefExpression, RangeExpression, IDExpression,
// IDRangeExpression, FunctionExpression, UnreferencedExpression and
// InvalidRefExpression.
type Expression interface {
	Evaluate(ctx *evalContext) (any, error)
	String() string
	expression()
}

// ValueExpression is a literal.
type ValueExpression struct {
	Value any
}

// RefExpression is an address reference such as A1 or 'Other Sheet'!$B$2.
type RefExpression struct {
	Text string
}

// RangeExpression is an address range such as A1:B2.
type RangeExpression struct {
	Text string
}

// IDExpression is a position-independent reference such as #1!15.
type IDExpression struct {
	Text string
}

// IDRangeExpression is a position-independent range such as #1!15:#1!20.
type IDRangeExpression struct {
	Text string
}

// FunctionExpression calls a registered function. Operators are calls too.
type FunctionExpression struct {
	Name string
	Args []Expression
}

// UnreferencedExpression is a literal #REF!.
type UnreferencedExpression struct{}

// InvalidRefExpression is an identifier that is neither an address nor an id.
type InvalidRefExpression struct {
	Text string
}

func (*ValueExpression) expression()        {}
func (*RefExpression) expression()          {}
func (*RangeExpression) expression()        {}
func (*IDExpression) expression()           {}
func (*IDRangeExpression) expression()      {}
func (*FunctionExpression) expression()     {}
func (*UnreferencedExpression) expression() {}
func (*InvalidRefExpression) expression()   {}

func (e *ValueExpression) Evaluate(*evalContext) (any, error) { return e.Value, nil }

func (e *ValueExpression) String() string {
	if s, ok := e.Value.(string); ok {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return formatValue(e.Value)
}

func (e *RefExpression) Evaluate(ctx *evalContext) (any, error) {
	table, addr, err := ctx.resolveAddress(e.Text)
	if err != nil {
		return nil, err
	}
	if !table.inBounds(addr.Point) {
		return nil, NewRefError("Reference %s is out of range", e.Text)
	}
	return &Range{table: table, area: NewArea(addr.Point, addr.Point)}, nil
}

func (e *RefExpression) String() string { return e.Text }

func (e *RangeExpression) Evaluate(ctx *evalContext) (any, error) {
	table, area, err := ctx.resolveRange(e.Text)
	if err != nil {
		return nil, err
	}
	return &Range{table: table, area: area}, nil
}

func (e *RangeExpression) String() string { return e.Text }

func (e *IDExpression) Evaluate(ctx *evalContext) (any, error) {
	table, p, err := ctx.resolveID(e.Text)
	if err != nil {
		return nil, err
	}
	return &Range{table: table, area: NewArea(p, p)}, nil
}

func (e *IDExpression) String() string { return e.Text }

func (e *IDRangeExpression) Evaluate(ctx *evalContext) (any, error) {
	left, right, ok := strings.Cut(e.Text, ":")
	if !ok {
		return nil, NewRefError("Invalid id range %s", e.Text)
	}
	table, a, err := ctx.resolveID(left)
	if err != nil {
		return nil, err
	}
	other, b, err := ctx.resolveID(right)
	if err != nil {
		return nil, err
	}
	if other != table {
		return nil, NewRefError("Range %s spans sheets", e.Text)
	}
	return &Range{table: table, area: NewArea(a, b)}, nil
}

func (e *IDRangeExpression) String() string { return e.Text }

func (e *FunctionExpression) Evaluate(ctx *evalContext) (any, error) {
	fn, ok := ctx.registry().Lookup(e.Name)
	if !ok {
		return nil, NewNameError("Unknown function: %s", e.Name)
	}
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			if !fn.AcceptErrors {
				return nil, err
			}
			v = err
		}
		if p := pendingOf(v); p != nil {
			return p, nil
		}
		args[i] = v
	}
	return fn.call(&Call{Table: ctx.table, Origin: ctx.origin, Name: fn.Name}, args)
}

func (e *FunctionExpression) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
}

func (*UnreferencedExpression) Evaluate(*evalContext) (any, error) {
	return nil, NewRefError("Reference does not exist")
}

func (*UnreferencedExpression) String() string { return string(ErrorCodeRef) }

func (e *InvalidRefExpression) Evaluate(*evalContext) (any, error) {
	return nil, NewNameError("Unknown identifier: %s", e.Text)
}

func (e *InvalidRefExpression) String() string { return e.Text }

// pendingOf returns the pending marker carried by v, looking inside ranges.
func pendingOf(v any) *Pending {
	switch x := v.(type) {
	case *Pending:
		return x
	case *Range:
		return x.pending()
	}
	return nil
}
