package cas

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
)

// ============================================================
// Numeric evaluation
// ============================================================

// MaxDepth bounds recursion in Evalf and FreeSymbols.
const MaxDepth = 10000

// Evalf evaluates e in float64 arithmetic with the symbols bound by env.
// It walks the tree on every call; compile with lambdify for repeated use.
func Evalf(e Expr, env map[string]float64) (float64, error) {
	if e == nil {
		return math.NaN(), fmt.Errorf("nil expression")
	}
	return e.evalf(env, 0)
}

func evalChild(e Expr, env map[string]float64, depth int) (float64, error) {
	if depth >= MaxDepth {
		return math.NaN(), fmt.Errorf("expression deeper than %d", MaxDepth)
	}
	return e.evalf(env, depth+1)
}

type floatFunc func([]float64) (float64, error)

func unary(fn func(float64) float64) floatFunc {
	return func(a []float64) (float64, error) {
		if len(a) != 1 {
			return math.NaN(), fmt.Errorf("expected 1 argument, got %d", len(a))
		}
		return fn(a[0]), nil
	}
}

func binary(fn func(float64, float64) float64) floatFunc {
	return func(a []float64) (float64, error) {
		if len(a) != 2 {
			return math.NaN(), fmt.Errorf("expected 2 arguments, got %d", len(a))
		}
		return fn(a[0], a[1]), nil
	}
}

func fold(fn func(float64, float64) float64) floatFunc {
	return func(a []float64) (float64, error) {
		if len(a) == 0 {
			return math.NaN(), fmt.Errorf("expected at least 1 argument")
		}
		acc := a[0]
		for _, v := range a[1:] {
			acc = fn(acc, v)
		}
		return acc, nil
	}
}

var floatFuncs = map[string]floatFunc{
	"sin":     unary(math.Sin),
	"cos":     unary(math.Cos),
	"tan":     unary(math.Tan),
	"asin":    unary(math.Asin),
	"acos":    unary(math.Acos),
	"atan":    unary(math.Atan),
	"sinh":    unary(math.Sinh),
	"cosh":    unary(math.Cosh),
	"tanh":    unary(math.Tanh),
	"asinh":   unary(math.Asinh),
	"acosh":   unary(math.Acosh),
	"atanh":   unary(math.Atanh),
	"exp":     unary(math.Exp),
	"Abs":     unary(math.Abs),
	"floor":   unary(math.Floor),
	"ceiling": unary(math.Ceil),
	"sign": unary(func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return v
	}),
	"gamma": unary(math.Gamma),
	"erf":   unary(math.Erf),
	"erfc":  unary(math.Erfc),
	"re":    unary(func(v float64) float64 { return v }),
	"im":    unary(func(float64) float64 { return 0 }),
	"log": func(a []float64) (float64, error) {
		switch len(a) {
		case 1:
			return math.Log(a[0]), nil
		case 2:
			return math.Log(a[0]) / math.Log(a[1]), nil
		}
		return math.NaN(), fmt.Errorf("expected 1 or 2 arguments, got %d", len(a))
	},
	"atan2": binary(math.Atan2),
	"Mod": binary(func(a, b float64) float64 {
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	}),
	"Heaviside": func(a []float64) (float64, error) {
		if len(a) < 1 || len(a) > 2 {
			return math.NaN(), fmt.Errorf("expected 1 or 2 arguments, got %d", len(a))
		}
		switch {
		case a[0] > 0:
			return 1, nil
		case a[0] < 0:
			return 0, nil
		case len(a) == 2:
			return a[1], nil
		}
		return 0.5, nil
	},
	"factorial": unary(func(v float64) float64 { return math.Gamma(v + 1) }),
	"digamma":   unary(mathext.Digamma),
	"zeta":      unary(func(v float64) float64 { return mathext.Zeta(v, 1) }),
	"beta":      binary(mathext.Beta),
	"Min":       fold(math.Min),
	"Max":       fold(math.Max),
	"And":       fold(func(a, b float64) float64 { return truth(a != 0 && b != 0) }),
	"Or":        fold(func(a, b float64) float64 { return truth(a != 0 || b != 0) }),
	"Not":       unary(func(v float64) float64 { return truth(v == 0) }),
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the distinct symbols of e sorted by name.
func FreeSymbols(e Expr) []*Sym {
	seen := map[string]*Sym{}
	collectSymbols(e, seen, 0)
	out := make([]*Sym, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func collectSymbols(e Expr, out map[string]*Sym, depth int) {
	if e == nil || depth > MaxDepth {
		return
	}
	if s, ok := e.(*Sym); ok {
		out[s.name] = s
		return
	}
	for _, a := range e.Args() {
		collectSymbols(a, out, depth+1)
	}
}

// Subs replaces every occurrence of the symbol name with value and rebuilds
// the tree through the simplifying constructors.
func Subs(e Expr, name string, value Expr) Expr {
	switch v := e.(type) {
	case *Sym:
		if v.name == name {
			return value
		}
		return v
	case *Add:
		return AddOf(subsAll(v.terms, name, value)...)
	case *Mul:
		return MulOf(subsAll(v.factors, name, value)...)
	case *Pow:
		return PowOf(Subs(v.base, name, value), Subs(v.exp, name, value))
	case *Func:
		return FuncOf(v.name, subsAll(v.args, name, value)...)
	case *Rel:
		return &Rel{op: v.op, lhs: Subs(v.lhs, name, value), rhs: Subs(v.rhs, name, value)}
	case *Piecewise:
		pairs := make([]Pair, len(v.pieces))
		for i, pc := range v.pieces {
			pairs[i] = Pair{Expr: Subs(pc.expr, name, value), Cond: Subs(pc.cond, name, value)}
		}
		return PiecewiseOf(pairs...)
	}
	return e
}

func subsAll(es []Expr, name string, value Expr) []Expr {
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = Subs(e, name, value)
	}
	return out
}
