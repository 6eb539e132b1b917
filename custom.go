package gridsheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RegisterExpr adds a function whose body is an expr-lang expression. The
// evaluated arguments are available as args (scalars, or [][]any for
// ranges). For example:
//
//	r.RegisterExpr("HYPOT", "(args[0]**2 + args[1]**2)**0.5", 2, 2)
func (r *Registry) RegisterExpr(name, program string, minArgs, maxArgs int) error {
	if strings.TrimSpace(program) == "" {
		return fmt.Errorf("register %s: expression is required", name)
	}
	if _, err := r.compile(program); err != nil {
		return fmt.Errorf("register %s: compile expression %q: %w", name, program, err)
	}
	return r.Register(&Function{
		Name:        name,
		Example:     fmt.Sprintf("%s(...)", strings.ToUpper(name)),
		Description: program,
		MinArgs:     minArgs,
		MaxArgs:     maxArgs,
		Main: func(_ *Call, args []any) (any, error) {
			return r.runExpr(program, args)
		},
	})
}

func (r *Registry) compile(program string) (*vm.Program, error) {
	if cached, ok := r.programs.Load(program); ok {
		return cached.(*vm.Program), nil
	}
	compiled, err := expr.Compile(program, expr.Env(exprEnv([]any{})), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	r.programs.Store(program, compiled)
	return compiled, nil
}

func (r *Registry) runExpr(program string, args []any) (any, error) {
	compiled, err := r.compile(program)
	if err != nil {
		return nil, NewSyntaxError("compile expression %q: %v", program, err)
	}
	plain := make([]any, len(args))
	for i, a := range args {
		rng, ok := a.(*Range)
		switch {
		case ok && rng.Height() == 1 && rng.Width() == 1:
			v, err := strip(rng)
			if err != nil {
				return nil, err
			}
			plain[i] = v
		case ok:
			plain[i] = rng.Values()
		default:
			plain[i] = a
		}
	}
	out, err := expr.Run(compiled, exprEnv(plain))
	if err != nil {
		return nil, NewValueError("evaluate expression %q: %v", program, err)
	}
	return normalizeExprResult(out)
}

func exprEnv(args []any) map[string]any {
	return map[string]any{"args": args}
}

// normalizeExprResult maps expr results onto cell value types.
func normalizeExprResult(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64, time.Time:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case error:
		return nil, x
	default:
		return nil, NewValueError("expression returned unsupported type %T", v)
	}
}
