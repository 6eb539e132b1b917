package gridsheet

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Formula cannot evaluate
	SeverityWarning                 // Formula evaluates but may not mean what was typed
)

// ValidationIssue is a single problem found in a formula cell.
type ValidationIssue struct {
	Severity Severity
	Point    Point
	Message  string
}

// String formats the issue as "[ERROR] A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, PointToAddress(v.Point), v.Message)
}

// Validate checks every formula of the sheet without evaluating it. Syntax
// errors, unknown functions and arity violations are errors; references that
// could not be bound to a cell are warnings.
func (t *Table) Validate() []ValidationIssue {
	var issues []ValidationIssue
	for _, p := range t.formulaCells() {
		text := t.st.cells[t.IDAt(p)].Value.(string)
		expr, err := Parse(text)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Point:    p,
				Message:  fmt.Sprintf("invalid formula syntax %q: %v", t.Display(text), err),
			})
			continue
		}
		issues = append(issues, t.validateExpression(p, expr)...)
	}
	return issues
}

func (t *Table) validateExpression(p Point, e Expression) []ValidationIssue {
	var issues []ValidationIssue
	switch x := e.(type) {
	case *FunctionExpression:
		fn, ok := t.book.registry.Lookup(x.Name)
		switch {
		case !ok:
			issues = append(issues, ValidationIssue{Severity: SeverityError, Point: p, Message: fmt.Sprintf("unknown function %s", x.Name)})
		case len(x.Args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(x.Args) > fn.MaxArgs):
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Point:    p,
				Message:  fmt.Sprintf("%s expects %s, got %d", fn.Name, fn.arity(), len(x.Args)),
			})
		}
		for _, arg := range x.Args {
			issues = append(issues, t.validateExpression(p, arg)...)
		}
	case *RefExpression:
		issues = append(issues, unresolvedIssue(p, x.Text)...)
	case *RangeExpression:
		issues = append(issues, unresolvedIssue(p, x.Text)...)
	case *InvalidRefExpression:
		issues = append(issues, ValidationIssue{Severity: SeverityError, Point: p, Message: fmt.Sprintf("unknown identifier %s", x.Text)})
	case *UnreferencedExpression:
		issues = append(issues, ValidationIssue{Severity: SeverityWarning, Point: p, Message: "reference to a deleted cell"})
	}
	return issues
}

func unresolvedIssue(p Point, text string) []ValidationIssue {
	if !strings.HasPrefix(text, unresolvedMark) {
		return nil
	}
	return []ValidationIssue{{
		Severity: SeverityWarning,
		Point:    p,
		Message:  fmt.Sprintf("reference %s is not bound to a cell", strings.TrimPrefix(text, unresolvedMark)),
	}}
}
