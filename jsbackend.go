package lambdify

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// ============================================================
// JavaScript backend
// ============================================================

// JavaScript generates ECMAScript source for the expression and compiles it
// with goja. Evaluation is in the float domain: exact literals are emitted as
// float quotients and complex literals are rejected at build time. Operators
// and Math functions are emitted natively; other callables call back into the
// function registry. Equality compares booleans as 0 and 1 and logical
// operators always yield booleans, as in the interpreter.
func JavaScript() Backend { return javaScript{} }

type javaScript struct{}

func (javaScript) Name() string { return "javascript" }

func (javaScript) Build(expr Expr, params []string, fns Functions) (Evaluator, error) {
	g := &jsGen{slots: make(map[string]int, len(params)), fns: fns}
	for i, p := range params {
		g.slots[p] = i
	}
	body, err := g.emit(expr)
	if err != nil {
		return nil, err
	}
	formals := make([]string, len(params))
	for i := range params {
		formals[i] = "p" + strconv.Itoa(i)
	}
	src := fmt.Sprintf("(function(%s) {\n\t\"use strict\";\n\treturn %s;\n})", strings.Join(formals, ", "), body)

	prog, err := goja.Compile("lambdify.js", src, true)
	if err != nil {
		return nil, &CompilationError{Reason: "generated source does not compile", Err: err}
	}
	p := &jsProgram{prog: prog, fns: fns}
	// Load one instance now so runtime setup failures surface at build time.
	inst, err := p.instance()
	if err != nil {
		return nil, &CompilationError{Reason: "loading generated function", Err: err}
	}
	p.pool.Put(inst)
	return p.eval, nil
}

var jsMath = map[string]string{
	"sin": "Math.sin", "cos": "Math.cos", "tan": "Math.tan",
	"asin": "Math.asin", "acos": "Math.acos", "atan": "Math.atan",
	"sinh": "Math.sinh", "cosh": "Math.cosh", "tanh": "Math.tanh",
	"asinh": "Math.asinh", "acosh": "Math.acosh", "atanh": "Math.atanh",
	"exp": "Math.exp", "sqrt": "Math.sqrt", "abs": "Math.abs",
	"floor": "Math.floor", "ceil": "Math.ceil", "sign": "Math.sign",
	"min": "Math.min", "max": "Math.max", "atan2": "Math.atan2",
	"^": "Math.pow",
}

var jsInfix = map[string]string{
	"+": " + ", "*": " * ", "/": " / ",
	"<": " < ", "<=": " <= ", ">": " > ", ">=": " >= ",
}

// jsTruth matches Value.Truth: anything but zero or false holds, NaN included.
func jsTruth(s string) string { return "(Number(" + s + ") !== 0)" }

func jsTruths(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = jsTruth(a)
	}
	return out
}

type jsGen struct {
	slots map[string]int
	fns   Functions
}

func (g *jsGen) emit(e Expr) (string, error) {
	switch v := e.(type) {
	case VarRef:
		if i, ok := g.slots[v.Name]; ok {
			return "p" + strconv.Itoa(i), nil
		}
		return "__unbound(" + strconv.QuoteToASCII(v.Name) + ")", nil
	case Literal:
		return jsLiteral(v.Value)
	case *Call:
		if v.Callable == callPiecewise {
			return g.piecewise(v)
		}
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			s, err := g.emit(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return g.call(v, args)
	}
	return "", &CompilationError{Reason: fmt.Sprintf("unsupported expression %T", e)}
}

func (g *jsGen) call(c *Call, args []string) (string, error) {
	switch c.Callable {
	case callPair:
		return "", &CompilationError{Callable: callPair, Reason: "condition pair outside piecewise"}
	case "-":
		switch len(args) {
		case 1:
			return "(-" + args[0] + ")", nil
		case 2:
			return "(" + args[0] + " - " + args[1] + ")", nil
		}
		return "", &CompilationError{Callable: "-", Reason: fmt.Sprintf("%d arguments", len(args))}
	case "!":
		if len(args) != 1 {
			return "", &CompilationError{Callable: "!", Reason: fmt.Sprintf("%d arguments", len(args))}
		}
		return "(!" + jsTruth(args[0]) + ")", nil
	case "==", "!=":
		if len(args) != 2 {
			return "", &CompilationError{Callable: c.Callable, Reason: fmt.Sprintf("%d arguments", len(args))}
		}
		op := " === "
		if c.Callable == "!=" {
			op = " !== "
		}
		return "(Number(" + args[0] + ")" + op + "Number(" + args[1] + "))", nil
	case "&":
		if len(args) == 0 {
			return "true", nil
		}
		return "(" + strings.Join(jsTruths(args), " && ") + ")", nil
	case "|":
		if len(args) == 0 {
			return "false", nil
		}
		return "(" + strings.Join(jsTruths(args), " || ") + ")", nil
	case "identity", "real", "conj":
		if len(args) != 1 {
			return "", &CompilationError{Callable: c.Callable, Reason: fmt.Sprintf("%d arguments", len(args))}
		}
		return "(" + args[0] + ")", nil
	case "log":
		if len(args) == 1 {
			return "Math.log(" + args[0] + ")", nil
		}
	}
	if op, ok := jsInfix[c.Callable]; ok {
		switch {
		case len(args) >= 2:
			return "(" + strings.Join(args, op) + ")", nil
		case len(args) == 1:
			return "(" + args[0] + ")", nil
		}
		return "", &CompilationError{Callable: c.Callable, Reason: "no arguments"}
	}
	if fn, ok := jsMath[c.Callable]; ok {
		return fn + "(" + strings.Join(args, ", ") + ")", nil
	}
	if fn, ok := g.fns[c.Callable]; !ok || fn == nil {
		return "", &CompilationError{Callable: c.Callable, Reason: "no native implementation"}
	}
	return "__call(" + strings.Join(append([]string{strconv.QuoteToASCII(c.Callable)}, args...), ", ") + ")", nil
}

// piecewise becomes a chain of conditional expressions ending in NaN.
func (g *jsGen) piecewise(c *Call) (string, error) {
	var b strings.Builder
	for i, a := range c.Args {
		p, ok := a.(*Call)
		if !ok || p.Callable != callPair || len(p.Args) != 2 {
			return "", &CompilationError{
				Callable: callPiecewise,
				Reason:   fmt.Sprintf("argument %d is not an (expression, condition) pair", i),
			}
		}
		value, err := g.emit(p.Args[0])
		if err != nil {
			return "", err
		}
		cond, err := g.emit(p.Args[1])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "(%s ? %s : ", jsTruth(cond), value)
	}
	b.WriteString("NaN")
	b.WriteString(strings.Repeat(")", len(c.Args)))
	return b.String(), nil
}

func jsLiteral(v Value) (string, error) {
	switch v.Kind() {
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindRational:
		if v.r.IsInt() {
			return "(" + v.r.Num().String() + ")", nil
		}
		return "(" + v.r.Num().String() + " / " + v.r.Denom().String() + ")", nil
	case KindFloat:
		return jsFloat(v.f), nil
	case KindComplex:
		return "", &CompilationError{Reason: fmt.Sprintf("complex literal %s is not supported by the javascript backend", v)}
	}
	return "", &CompilationError{Reason: "invalid literal"}
}

func jsFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "(-Infinity)"
	}
	return "(" + strconv.FormatFloat(f, 'g', -1, 64) + ")"
}

// ============================================================
// runtime pool
// ============================================================

// A goja runtime is single-threaded, so each concurrent caller borrows its
// own instance.
type jsProgram struct {
	prog *goja.Program
	fns  Functions
	pool sync.Pool
}

type jsInstance struct {
	vm *goja.Runtime
	fn goja.Callable
	// err holds a Go error raised by a helper during the current call.
	err error
}

func (p *jsProgram) instance() (*jsInstance, error) {
	if inst, ok := p.pool.Get().(*jsInstance); ok {
		return inst, nil
	}
	inst := &jsInstance{vm: goja.New()}
	if err := inst.vm.Set("__call", inst.callHelper(p.fns)); err != nil {
		return nil, err
	}
	if err := inst.vm.Set("__unbound", func(call goja.FunctionCall) goja.Value {
		panic(inst.raise(&UnboundVariableError{Name: call.Argument(0).String()}))
	}); err != nil {
		return nil, err
	}
	v, err := inst.vm.RunProgram(p.prog)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("generated program did not produce a function")
	}
	inst.fn = fn
	return inst, nil
}

func (inst *jsInstance) raise(err error) goja.Value {
	inst.err = err
	return inst.vm.NewGoError(err)
}

func (inst *jsInstance) callHelper(fns Functions) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		fn := fns[name]
		args := make([]Value, 0, len(call.Arguments))
		for _, a := range call.Arguments[1:] {
			if b, ok := a.Export().(bool); ok {
				args = append(args, Bool(b))
				continue
			}
			args = append(args, Float(a.ToFloat()))
		}
		res, err := fn(args)
		if err != nil {
			panic(inst.raise(err))
		}
		if res.Kind() == KindBool {
			return inst.vm.ToValue(res.b)
		}
		f, err := Real(res)
		if err != nil {
			panic(inst.raise(&EvalError{Callable: name, Err: err}))
		}
		return inst.vm.ToValue(f)
	}
}

func (p *jsProgram) eval(args []Value) (Value, error) {
	inst, err := p.instance()
	if err != nil {
		return Value{}, err
	}
	defer p.pool.Put(inst)

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		f, ok := a.Float64()
		if !ok {
			return Value{}, evalErrorf("javascript", "complex argument %s", a)
		}
		jsArgs[i] = inst.vm.ToValue(f)
	}
	inst.err = nil
	res, err := inst.fn(goja.Undefined(), jsArgs...)
	if err != nil {
		if inst.err != nil {
			err, inst.err = inst.err, nil
			return Value{}, err
		}
		return Value{}, &EvalError{Callable: "javascript", Err: err}
	}
	switch x := res.Export().(type) {
	case bool:
		return Bool(x), nil
	case int64:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	}
	return Float(res.ToFloat()), nil
}
