package lambdify

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ============================================================
// Function: a compiled, reusable evaluator
// ============================================================

// Evaluator evaluates a compiled expression for positional arguments. The
// slice has already been checked against the parameter count.
type Evaluator func(args []Value) (Value, error)

// Backend turns a target expression into an Evaluator.
type Backend interface {
	Name() string
	Build(expr Expr, params []string, fns Functions) (Evaluator, error)
}

// Function is immutable and safe for concurrent use.
type Function struct {
	params  []string
	expr    Expr
	backend string
	eval    Evaluator
}

func (f *Function) Params() []string { return append([]string(nil), f.params...) }
func (f *Function) Expr() Expr       { return f.expr }
func (f *Function) Backend() string  { return f.backend }
func (f *Function) String() string {
	return fmt.Sprintf("(%s) -> %s", strings.Join(f.params, ", "), f.expr)
}

// Eval binds args to the parameters in order and evaluates the expression.
func (f *Function) Eval(args ...Value) (Value, error) {
	if len(args) != len(f.params) {
		return Value{}, &ArityError{Want: len(f.params), Got: len(args)}
	}
	for i, a := range args {
		if !a.IsValid() {
			return Value{}, fmt.Errorf("argument %d (%s): invalid value", i, f.params[i])
		}
	}
	return f.eval(args)
}

// Call evaluates with float arguments and returns a real result.
func (f *Function) Call(args ...float64) (float64, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = Float(a)
	}
	v, err := f.Eval(vals...)
	if err != nil {
		return math.NaN(), err
	}
	return Real(v)
}

// Func1 adapts a single-parameter function to a float callable.
func (f *Function) Func1() (func(float64) (float64, error), error) {
	if len(f.params) != 1 {
		return nil, &ArityError{Want: len(f.params), Got: 1}
	}
	return func(x float64) (float64, error) { return f.Call(x) }, nil
}

// Real converts v to float64. Bools map to 0 and 1; complex values with a
// non-zero imaginary part are rejected.
func Real(v Value) (float64, error) {
	if v.Kind() == KindComplex {
		c := v.Complex128()
		if imag(c) != 0 {
			return math.NaN(), fmt.Errorf("%w: %s", ErrNotReal, v)
		}
		return real(c), nil
	}
	f, ok := v.Float64()
	if !ok {
		return math.NaN(), fmt.Errorf("%w: %s", ErrNotReal, v)
	}
	return f, nil
}

// ============================================================
// Closure builder
// ============================================================

// Compile builds a Function over params. Names referenced by expr but absent
// from params are reported when evaluation reaches them, not here.
func Compile(expr Expr, params []string, opts ...Option) (*Function, error) {
	return newOptions(opts).compile(expr, params)
}

func (o *options) compile(expr Expr, params []string) (*Function, error) {
	if expr == nil {
		return nil, &CompilationError{Reason: "nil expression"}
	}
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p]; dup {
			return nil, &CompilationError{Reason: fmt.Sprintf("duplicate parameter %q", p)}
		}
		seen[p] = struct{}{}
	}
	eval, err := o.backend.Build(expr, params, o.functions)
	if err != nil {
		if !errors.Is(err, ErrCompilationFailed) {
			err = &CompilationError{Reason: o.backend.Name() + " backend", Err: err}
		}
		return nil, err
	}
	return &Function{
		params:  append([]string(nil), params...),
		expr:    expr,
		backend: o.backend.Name(),
		eval:    eval,
	}, nil
}

// ============================================================
// Interpreter backend
// ============================================================

// Interpreter resolves variables to parameter slots and callables to their
// implementations once, producing a tree of closures.
func Interpreter() Backend { return interpreter{} }

type interpreter struct{}

func (interpreter) Name() string { return "interpreter" }

func (interpreter) Build(expr Expr, params []string, fns Functions) (Evaluator, error) {
	b := closureBuilder{slots: make(map[string]int, len(params)), fns: fns}
	for i, p := range params {
		b.slots[p] = i
	}
	fn, err := b.build(expr)
	if err != nil {
		return nil, err
	}
	return Evaluator(fn), nil
}

type closure func(env []Value) (Value, error)

type closureBuilder struct {
	slots map[string]int
	fns   Functions
}

func (b *closureBuilder) build(e Expr) (closure, error) {
	switch v := e.(type) {
	case VarRef:
		i, ok := b.slots[v.Name]
		if !ok {
			name := v.Name
			return func([]Value) (Value, error) { return Value{}, &UnboundVariableError{Name: name} }, nil
		}
		return func(env []Value) (Value, error) { return env[i], nil }, nil

	case Literal:
		val := v.Value
		if !val.IsValid() {
			return nil, &CompilationError{Reason: "invalid literal"}
		}
		return func([]Value) (Value, error) { return val, nil }, nil

	case *Call:
		switch v.Callable {
		case callPiecewise:
			return b.piecewise(v)
		case callPair:
			return nil, &CompilationError{Callable: callPair, Reason: "condition pair outside piecewise"}
		}
		fn, ok := b.fns[v.Callable]
		if !ok || fn == nil {
			return nil, &CompilationError{Callable: v.Callable, Reason: "no native implementation"}
		}
		args := make([]closure, len(v.Args))
		for i, a := range v.Args {
			c, err := b.build(a)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		return func(env []Value) (Value, error) {
			vals := make([]Value, len(args))
			for i, a := range args {
				val, err := a(env)
				if err != nil {
					return Value{}, err
				}
				vals[i] = val
			}
			res, err := fn(vals)
			if err == nil && !res.IsValid() {
				return Value{}, evalErrorf(v.Callable, "returned an invalid value")
			}
			return res, err
		}, nil
	}
	return nil, &CompilationError{Reason: fmt.Sprintf("unsupported expression %T", e)}
}

// piecewise evaluates conditions in order and only the selected branch.
// No true condition yields NaN.
func (b *closureBuilder) piecewise(c *Call) (closure, error) {
	type branch struct{ value, cond closure }
	branches := make([]branch, len(c.Args))
	for i, a := range c.Args {
		p, ok := a.(*Call)
		if !ok || p.Callable != callPair || len(p.Args) != 2 {
			return nil, &CompilationError{
				Callable: callPiecewise,
				Reason:   fmt.Sprintf("argument %d is not an (expression, condition) pair", i),
			}
		}
		value, err := b.build(p.Args[0])
		if err != nil {
			return nil, err
		}
		cond, err := b.build(p.Args[1])
		if err != nil {
			return nil, err
		}
		branches[i] = branch{value: value, cond: cond}
	}
	return func(env []Value) (Value, error) {
		for _, br := range branches {
			c, err := br.cond(env)
			if err != nil {
				return Value{}, err
			}
			if c.Truth() {
				return br.value(env)
			}
		}
		return Float(math.NaN()), nil
	}, nil
}
