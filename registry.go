package gridsheet

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// Function is a named formula function.
type Function struct {
	Name        string
	Example     string
	Description string
	MinArgs     int
	MaxArgs     int // -1 = variadic

	// AcceptErrors passes argument errors to Main as error values instead of
	// propagating them (IFERROR, ISERROR).
	AcceptErrors bool

	// Validate coerces arguments after the arity check. Optional.
	Validate func(args []any) ([]any, error)

	// Main computes the result. Returning an *Async makes the call asynchronous.
	Main func(c *Call, args []any) (any, error)
}

// Call is one invocation of a function from a cell.
type Call struct {
	Table  *Table
	Origin Point
	Name   string
}

// Now returns the current time from the registry clock.
func (c *Call) Now() time.Time { return c.Table.book.registry.clock.Now() }

// Random returns a float in [0, 1) from the registry random source.
func (c *Call) Random() float64 { return c.Table.book.registry.rng.Float64() }

func (f *Function) call(c *Call, args []any) (any, error) {
	if len(args) < f.MinArgs || (f.MaxArgs >= 0 && len(args) > f.MaxArgs) {
		return nil, NewNAError("%s expects %s, got %d", f.Name, f.arity(), len(args))
	}
	if f.Validate != nil {
		var err error
		if args, err = f.Validate(args); err != nil {
			return nil, err
		}
	}
	result, err := f.Main(c, args)
	if err != nil {
		return nil, err
	}
	if a, ok := result.(*Async); ok {
		return c.Table.book.async.resolve(c, args, a)
	}
	return result, nil
}

func (f *Function) arity() string {
	switch {
	case f.MaxArgs < 0:
		return fmt.Sprintf("at least %d arguments", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d arguments", f.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", f.MinArgs, f.MaxArgs)
	}
}

// Clock provides the current time to NOW and TODAY.
type Clock interface {
	Now() time.Time
}

// WallClock is the default Clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// RandomGenerator provides random numbers to RAND.
type RandomGenerator interface {
	Float64() float64
}

// Registry maps case-insensitive function names to functions.
type Registry struct {
	functions map[string]*Function
	clock     Clock
	rng       RandomGenerator
	programs  sync.Map // expression text → compiled *vm.Program
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock sets the clock used by NOW and TODAY.
func WithClock(c Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// WithRandom sets the random source used by RAND.
func WithRandom(g RandomGenerator) RegistryOption {
	return func(r *Registry) { r.rng = g }
}

// NewRegistry creates a registry holding the built-in functions.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		functions: make(map[string]*Function),
		clock:     WallClock{},
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, group := range [][]*Function{operatorFuncs(), mathFuncs(), textFuncs(), logicFuncs(), lookupFuncs(), dateFuncs()} {
		for _, fn := range group {
			r.functions[fn.Name] = fn
		}
	}
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(fn *Function) error {
	if fn == nil || fn.Name == "" {
		return fmt.Errorf("register function: name is required")
	}
	if fn.Main == nil {
		return fmt.Errorf("register function %s: main is required", fn.Name)
	}
	fn.Name = strings.ToUpper(fn.Name)
	r.functions[fn.Name] = fn
	return nil
}

// Lookup finds a function by case-insensitive name.
func (r *Registry) Lookup(name string) (*Function, bool) {
	fn, ok := r.functions[strings.ToUpper(name)]
	return fn, ok
}

// Names lists every registered function, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
