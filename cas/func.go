package cas

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// ============================================================
// Func: named function applications
// ============================================================

// Func applies a named function to its arguments. The name doubles as the tag.
type Func struct {
	name string
	args []Expr
}

// FuncOf builds an application of name. A few exact identities are applied.
func FuncOf(name string, args ...Expr) Expr {
	return (&Func{name: name, args: args}).Simplify()
}

func SinOf(arg Expr) Expr     { return FuncOf("sin", arg) }
func CosOf(arg Expr) Expr     { return FuncOf("cos", arg) }
func TanOf(arg Expr) Expr     { return FuncOf("tan", arg) }
func ExpOf(arg Expr) Expr     { return FuncOf("exp", arg) }
func LogOf(arg Expr) Expr     { return FuncOf("log", arg) }
func SqrtOf(arg Expr) Expr    { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr     { return FuncOf("Abs", arg) }
func AsinOf(arg Expr) Expr    { return FuncOf("asin", arg) }
func AcosOf(arg Expr) Expr    { return FuncOf("acos", arg) }
func AtanOf(arg Expr) Expr    { return FuncOf("atan", arg) }
func SinhOf(arg Expr) Expr    { return FuncOf("sinh", arg) }
func CoshOf(arg Expr) Expr    { return FuncOf("cosh", arg) }
func TanhOf(arg Expr) Expr    { return FuncOf("tanh", arg) }
func FloorOf(arg Expr) Expr   { return FuncOf("floor", arg) }
func CeilingOf(arg Expr) Expr { return FuncOf("ceiling", arg) }
func SignOf(arg Expr) Expr    { return FuncOf("sign", arg) }

func MinOf(args ...Expr) Expr   { return FuncOf("Min", args...) }
func MaxOf(args ...Expr) Expr   { return FuncOf("Max", args...) }
func Atan2Of(y, x Expr) Expr    { return FuncOf("atan2", y, x) }
func HeavisideOf(arg Expr) Expr { return FuncOf("Heaviside", arg) }
func AndOf(args ...Expr) Expr   { return FuncOf("And", args...) }
func OrOf(args ...Expr) Expr    { return FuncOf("Or", args...) }
func NotOf(arg Expr) Expr       { return FuncOf("Not", arg) }
func ModOf(a, b Expr) Expr      { return FuncOf("Mod", a, b) }
func FactorialOf(arg Expr) Expr { return FuncOf("factorial", arg) }
func ReOf(arg Expr) Expr        { return FuncOf("re", arg) }
func ImOf(arg Expr) Expr        { return FuncOf("im", arg) }

func (f *Func) Simplify() Expr {
	if len(f.args) != 1 {
		return f
	}
	arg := f.args[0]
	switch f.name {
	case "sin", "tan", "asin", "atan", "sinh", "tanh":
		if isNumEqual(arg, 0) {
			return N(0)
		}
	case "cos", "cosh":
		if isNumEqual(arg, 0) {
			return N(1)
		}
	case "log":
		if n, ok := arg.(*Num); ok && n.IsOne() {
			return N(0)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.args[0]
		}
	case "exp":
		if n, ok := arg.(*Num); ok && n.IsZero() {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "log" && len(inner.args) == 1 {
			return inner.args[0]
		}
	case "Abs":
		if n, ok := arg.(*Num); ok {
			return R(n.Rat().Abs(n.val))
		}
	}
	return f
}

func (f *Func) Tag() string      { return f.name }
func (f *Func) Args() []Expr     { return f.args }
func (f *Func) FuncName() string { return f.name }

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && equalAll(f.args, o.args)
}

func (f *Func) evalf(env map[string]float64, depth int) (float64, error) {
	fn, ok := floatFuncs[f.name]
	if !ok {
		return math.NaN(), fmt.Errorf("no numeric implementation for %s", f.name)
	}
	vals := make([]float64, len(f.args))
	for i, a := range f.args {
		v, err := evalChild(a, env, depth)
		if err != nil {
			return math.NaN(), err
		}
		vals[i] = v
	}
	return fn(vals)
}

func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "args": listJSON(f.args)}
}

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(N(v))
}

// ============================================================
// Const: named constants
// ============================================================

type Const struct {
	tag     string
	display string
	value   complex128
}

var (
	Pi          = &Const{tag: "Pi", display: "pi", value: math.Pi}
	E           = &Const{tag: "Exp1", display: "E", value: math.E}
	I           = &Const{tag: "ImaginaryUnit", display: "I", value: 1i}
	Oo          = &Const{tag: "Infinity", display: "oo", value: complex(math.Inf(1), 0)}
	NegOo       = &Const{tag: "NegativeInfinity", display: "-oo", value: complex(math.Inf(-1), 0)}
	Zoo         = &Const{tag: "ComplexInfinity", display: "zoo", value: cmplx.Inf()}
	NaN         = &Const{tag: "NaN", display: "nan", value: complex(math.NaN(), 0)}
	EulerGamma  = &Const{tag: "EulerGamma", display: "EulerGamma", value: 0.5772156649015329}
	GoldenRatio = &Const{tag: "GoldenRatio", display: "GoldenRatio", value: math.Phi}
	True        = &Const{tag: "BooleanTrue", display: "True", value: 1}
	False       = &Const{tag: "BooleanFalse", display: "False", value: 0}
)

var constByTag = map[string]*Const{}

func init() {
	for _, c := range []*Const{Pi, E, I, Oo, NegOo, Zoo, NaN, EulerGamma, GoldenRatio, True, False} {
		constByTag[c.tag] = c
	}
}

func (c *Const) Tag() string           { return c.tag }
func (c *Const) Args() []Expr          { return nil }
func (c *Const) String() string        { return c.display }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.tag == o.tag }

func (c *Const) evalf(map[string]float64, int) (float64, error) {
	if imag(c.value) != 0 {
		return math.NaN(), fmt.Errorf("%s is not real", c.display)
	}
	return real(c.value), nil
}

func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.tag}
}

// ============================================================
// Rel: relationals
// ============================================================

type Rel struct {
	op       string
	lhs, rhs Expr
}

var relSymbols = map[string]string{
	"Equality":          "==",
	"Unequality":        "!=",
	"StrictLessThan":    "<",
	"LessThan":          "<=",
	"StrictGreaterThan": ">",
	"GreaterThan":       ">=",
}

// RelOf builds a relational. op is a tag such as "StrictLessThan".
func RelOf(op string, lhs, rhs Expr) (*Rel, error) {
	if _, ok := relSymbols[op]; !ok {
		return nil, fmt.Errorf("unknown relational %q", op)
	}
	return &Rel{op: op, lhs: lhs, rhs: rhs}, nil
}

func Lt(lhs, rhs Expr) *Rel     { return &Rel{op: "StrictLessThan", lhs: lhs, rhs: rhs} }
func Le(lhs, rhs Expr) *Rel     { return &Rel{op: "LessThan", lhs: lhs, rhs: rhs} }
func Gt(lhs, rhs Expr) *Rel     { return &Rel{op: "StrictGreaterThan", lhs: lhs, rhs: rhs} }
func Ge(lhs, rhs Expr) *Rel     { return &Rel{op: "GreaterThan", lhs: lhs, rhs: rhs} }
func Equals(lhs, rhs Expr) *Rel { return &Rel{op: "Equality", lhs: lhs, rhs: rhs} }
func Ne(lhs, rhs Expr) *Rel     { return &Rel{op: "Unequality", lhs: lhs, rhs: rhs} }

func (r *Rel) Tag() string    { return r.op }
func (r *Rel) Args() []Expr   { return []Expr{r.lhs, r.rhs} }
func (r *Rel) String() string { return r.lhs.String() + " " + relSymbols[r.op] + " " + r.rhs.String() }

func (r *Rel) Equal(other Expr) bool {
	o, ok := other.(*Rel)
	return ok && r.op == o.op && r.lhs.Equal(o.lhs) && r.rhs.Equal(o.rhs)
}

func (r *Rel) evalf(env map[string]float64, depth int) (float64, error) {
	a, err := evalChild(r.lhs, env, depth)
	if err != nil {
		return math.NaN(), err
	}
	b, err := evalChild(r.rhs, env, depth)
	if err != nil {
		return math.NaN(), err
	}
	var ok bool
	switch r.op {
	case "Equality":
		ok = a == b
	case "Unequality":
		ok = a != b
	case "StrictLessThan":
		ok = a < b
	case "LessThan":
		ok = a <= b
	case "StrictGreaterThan":
		ok = a > b
	case "GreaterThan":
		ok = a >= b
	}
	return truth(ok), nil
}

func (r *Rel) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "rel", "op": r.op, "lhs": r.lhs.toJSON(), "rhs": r.rhs.toJSON()}
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ============================================================
// Piecewise
// ============================================================

// Pair is one branch of a piecewise expression.
type Pair struct{ Expr, Cond Expr }

// ExprCondPair is the node form of a Pair.
type ExprCondPair struct{ expr, cond Expr }

type Piecewise struct{ pieces []*ExprCondPair }

func PiecewiseOf(pairs ...Pair) *Piecewise {
	pieces := make([]*ExprCondPair, len(pairs))
	for i, p := range pairs {
		pieces[i] = &ExprCondPair{expr: p.Expr, cond: p.Cond}
	}
	return &Piecewise{pieces: pieces}
}

func (p *ExprCondPair) Tag() string    { return "ExprCondPair" }
func (p *ExprCondPair) Args() []Expr   { return []Expr{p.expr, p.cond} }
func (p *ExprCondPair) String() string { return "(" + p.expr.String() + ", " + p.cond.String() + ")" }

func (p *ExprCondPair) Equal(other Expr) bool {
	o, ok := other.(*ExprCondPair)
	return ok && p.expr.Equal(o.expr) && p.cond.Equal(o.cond)
}

func (p *ExprCondPair) evalf(env map[string]float64, depth int) (float64, error) {
	return evalChild(p.expr, env, depth)
}

func (p *ExprCondPair) toJSON() map[string]interface{} {
	return map[string]interface{}{"expr": p.expr.toJSON(), "cond": p.cond.toJSON()}
}

func (p *Piecewise) Tag() string { return "Piecewise" }

func (p *Piecewise) Args() []Expr {
	out := make([]Expr, len(p.pieces))
	for i, pc := range p.pieces {
		out[i] = pc
	}
	return out
}

func (p *Piecewise) String() string {
	parts := make([]string, len(p.pieces))
	for i, pc := range p.pieces {
		parts[i] = pc.String()
	}
	return "Piecewise(" + strings.Join(parts, ", ") + ")"
}

func (p *Piecewise) Equal(other Expr) bool {
	o, ok := other.(*Piecewise)
	if !ok || len(p.pieces) != len(o.pieces) {
		return false
	}
	for i := range p.pieces {
		if !p.pieces[i].Equal(o.pieces[i]) {
			return false
		}
	}
	return true
}

func (p *Piecewise) evalf(env map[string]float64, depth int) (float64, error) {
	for _, pc := range p.pieces {
		c, err := evalChild(pc.cond, env, depth)
		if err != nil {
			return math.NaN(), err
		}
		if c != 0 && !math.IsNaN(c) {
			return evalChild(pc.expr, env, depth)
		}
	}
	return math.NaN(), nil
}

func (p *Piecewise) toJSON() map[string]interface{} {
	pieces := make([]map[string]interface{}, len(p.pieces))
	for i, pc := range p.pieces {
		pieces[i] = pc.toJSON()
	}
	return map[string]interface{}{"type": "piecewise", "pieces": pieces}
}

// ============================================================
// Atom: opaque leaf
// ============================================================

// Atom is a childless node with an arbitrary tag, for objects the kernel does
// not model (sets, dummies, undefined functions).
type Atom struct{ tag, name string }

func AtomOf(tag, name string) *Atom { return &Atom{tag: tag, name: name} }

func (a *Atom) Tag() string           { return a.tag }
func (a *Atom) Args() []Expr          { return nil }
func (a *Atom) String() string        { return a.name }
func (a *Atom) Equal(other Expr) bool { o, ok := other.(*Atom); return ok && *a == *o }

func (a *Atom) evalf(map[string]float64, int) (float64, error) {
	return math.NaN(), fmt.Errorf("%s %s has no numeric value", a.tag, a.name)
}

func (a *Atom) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "atom", "tag": a.tag, "name": a.name}
}
