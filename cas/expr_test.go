package cas_test

import (
	"math"
	"testing"

	"github.com/njchilds90/lambdify/cas"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := cas.N(42)
	if n.String() != "42" || n.Tag() != "Integer" {
		t.Errorf("want 42/Integer, got %s/%s", n, n.Tag())
	}
}

func TestNum_Rational(t *testing.T) {
	n := cas.F(2, 6)
	if n.String() != "1/3" || n.Tag() != "Rational" {
		t.Errorf("want 1/3/Rational, got %s/%s", n, n.Tag())
	}
}

func TestNum_RCopies(t *testing.T) {
	r := cas.F(1, 2).Rat()
	n := cas.R(r)
	r.SetInt64(5)
	if n.String() != "1/2" {
		t.Errorf("R must copy its argument, got %s", n)
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_String(t *testing.T) {
	x := cas.S("x")
	if x.String() != "x" || x.Tag() != "Symbol" {
		t.Errorf("want x/Symbol, got %s/%s", x, x.Tag())
	}
}

func TestSymbols(t *testing.T) {
	syms := cas.Symbols("x, y z")
	if len(syms) != 3 || syms[2].Name() != "z" {
		t.Errorf("want [x y z], got %v", syms)
	}
}

// ============================================================
// Add / Mul / Pow tests
// ============================================================

func TestSimplify(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	tests := []struct {
		name string
		expr cas.Expr
		want string
	}{
		{"add numbers last", cas.AddOf(cas.N(2), x, cas.N(3)), "x + 5"},
		{"add collapse", cas.AddOf(x, cas.N(1), cas.N(-1)), "x"},
		{"add like terms", cas.AddOf(x, x), "2*x"},
		{"add zero", cas.AddOf(cas.N(1), cas.N(-1)), "0"},
		{"add float", cas.AddOf(cas.NFloat(0.5), cas.N(1), x), "x + 1.5"},
		{"mul coefficient first", cas.MulOf(y, cas.N(3), x), "3*x*y"},
		{"mul zero", cas.MulOf(cas.N(0), x), "0"},
		{"mul one", cas.MulOf(cas.N(1), x), "x"},
		{"mul sum", cas.MulOf(cas.N(2), cas.AddOf(x, y)), "2*(x + y)"},
		{"pow", cas.PowOf(x, cas.N(2)), "x^2"},
		{"pow zero", cas.PowOf(x, cas.N(0)), "1"},
		{"pow one", cas.PowOf(x, cas.N(1)), "x"},
		{"pow exact", cas.PowOf(cas.N(2), cas.N(10)), "1024"},
		{"pow negative", cas.PowOf(cas.N(2), cas.N(-2)), "1/4"},
		{"pow nested", cas.PowOf(cas.PowOf(x, cas.N(2)), cas.N(3)), "x^6"},
		{"sqrt", cas.SqrtOf(x), "x^(1/2)"},
		{"sin zero", cas.SinOf(cas.N(0)), "0"},
		{"cos zero", cas.CosOf(cas.N(0)), "1"},
		{"log exp", cas.LogOf(cas.ExpOf(x)), "x"},
		{"exp log", cas.ExpOf(cas.LogOf(x)), "x"},
		{"abs", cas.AbsOf(cas.N(-3)), "3"},
		{"func", cas.Atan2Of(y, x), "atan2(y, x)"},
		{"rel", cas.Lt(x, cas.N(1)), "x < 1"},
		{"const", cas.MulOf(cas.N(2), cas.Pi), "2*pi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPiecewise_String(t *testing.T) {
	x := cas.S("x")
	pw := cas.PiecewiseOf(
		cas.Pair{Expr: cas.N(0), Cond: cas.Lt(x, cas.N(0))},
		cas.Pair{Expr: x, Cond: cas.True},
	)
	want := "Piecewise((0, x < 0), (x, True))"
	if pw.String() != want {
		t.Errorf("want %s, got %s", want, pw)
	}
	if len(pw.Args()) != 2 || pw.Args()[0].Tag() != "ExprCondPair" {
		t.Errorf("pieces should be ExprCondPair nodes, got %v", pw.Args())
	}
}

func TestEqual(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	a := cas.AddOf(cas.SinOf(x), cas.MulOf(cas.N(2), y))
	b := cas.AddOf(cas.SinOf(x), cas.MulOf(y, cas.N(2)))
	if !a.Equal(b) {
		t.Errorf("%s should equal %s", a, b)
	}
	if a.Equal(cas.AddOf(cas.CosOf(x), y)) {
		t.Errorf("different trees compared equal")
	}
}

// ============================================================
// Evalf tests
// ============================================================

func TestEvalf(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	env := map[string]float64{"x": 3, "y": -2}
	tests := []struct {
		name string
		expr cas.Expr
		want float64
	}{
		{"poly", cas.AddOf(cas.PowOf(x, cas.N(2)), cas.N(1)), 10},
		{"rational", cas.MulOf(cas.F(1, 2), x), 1.5},
		{"func", cas.CosOf(cas.N(0)), 1},
		{"abs", cas.AbsOf(y), 2},
		{"const", cas.Pi, math.Pi},
		{"mod", cas.ModOf(y, x), 1},
		{"max", cas.MaxOf(x, y, cas.N(7)), 7},
		{"rel", cas.Gt(x, y), 1},
		{"heaviside", cas.HeavisideOf(cas.N(0)), 0.5},
		{"piecewise", cas.PiecewiseOf(
			cas.Pair{Expr: cas.N(-1), Cond: cas.Lt(x, cas.N(0))},
			cas.Pair{Expr: cas.N(1), Cond: cas.True},
		), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cas.Evalf(tt.expr, env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvalf_Piecewise_NoBranch(t *testing.T) {
	x := cas.S("x")
	pw := cas.PiecewiseOf(cas.Pair{Expr: x, Cond: cas.Lt(x, cas.N(0))})
	got, err := cas.Evalf(pw, map[string]float64{"x": 1})
	if err != nil || !math.IsNaN(got) {
		t.Errorf("want NaN, got %v (%v)", got, err)
	}
}

func TestEvalf_Errors(t *testing.T) {
	tests := map[string]cas.Expr{
		"unbound":    cas.AddOf(cas.S("x"), cas.S("q")),
		"atom":       cas.AtomOf("EmptySet", "EmptySet"),
		"imaginary":  cas.I,
		"no numeric": cas.FuncOf("besselj", cas.N(0), cas.S("x")),
		"nil":        nil,
	}
	for name, e := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := cas.Evalf(e, map[string]float64{"x": 1}); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

// ============================================================
// FreeSymbols / Subs tests
// ============================================================

func TestFreeSymbols(t *testing.T) {
	e := cas.AddOf(cas.S("z"), cas.MulOf(cas.S("a"), cas.SinOf(cas.S("m"))), cas.Pi)
	syms := cas.FreeSymbols(e)
	got := make([]string, len(syms))
	for i, s := range syms {
		got[i] = s.Name()
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("want [a m z], got %v", got)
	}
}

func TestFreeSymbols_Constant(t *testing.T) {
	if syms := cas.FreeSymbols(cas.AddOf(cas.Pi, cas.N(1))); len(syms) != 0 {
		t.Errorf("want no symbols, got %v", syms)
	}
}

func TestSubs(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	got := cas.Subs(cas.AddOf(x, y, cas.N(1)), "x", cas.N(2))
	if got.String() != "y + 3" {
		t.Errorf("want y + 3, got %s", got)
	}
	got = cas.Subs(cas.SinOf(x), "x", cas.N(0))
	if got.String() != "0" {
		t.Errorf("want 0, got %s", got)
	}
	got = cas.Subs(cas.Lt(x, y), "y", cas.N(4))
	if got.String() != "x < 4" {
		t.Errorf("want x < 4, got %s", got)
	}
}
