package lambdify

import (
	"math"
	"math/big"
	"math/cmplx"

	"gonum.org/v1/gonum/mathext"
)

// ============================================================
// Native function registry
// ============================================================

// Builtin implements a callable identifier. Implementations must be pure and
// must not retain or modify args.
type Builtin func(args []Value) (Value, error)

// Functions maps callable identifiers to their implementations.
type Functions map[string]Builtin

// DefaultFunctions returns a copy of the built-in registry.
func DefaultFunctions() Functions { return defaultFunctions.Merge(nil) }

func (f Functions) Merge(over Functions) Functions {
	out := make(Functions, len(f)+len(over))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Special forms compiled by the backends rather than called.
const (
	callPiecewise = "piecewise"
	callPair      = "pair"
)

// maxExactExponent bounds integer powers computed exactly.
const maxExactExponent = 1024

var defaultFunctions = Functions{
	"+": add,
	"-": sub,
	"*": mul,
	"/": div,
	"^": pow,

	"==": equal(false),
	"!=": equal(true),
	"<":  compare("<", func(c int) bool { return c < 0 }),
	"<=": compare("<=", func(c int) bool { return c <= 0 }),
	">":  compare(">", func(c int) bool { return c > 0 }),
	">=": compare(">=", func(c int) bool { return c >= 0 }),
	"&":  and,
	"|":  or,
	"!":  not,

	"identity":  identity,
	"abs":       abs,
	"sign":      sign,
	"real":      realPart,
	"imag":      imagPart,
	"conj":      conj,
	"floor":     rounding("floor", math.Floor, (*big.Int).Div),
	"ceil":      rounding("ceil", math.Ceil, ceilDiv),
	"min":       extremum("min", func(c int) bool { return c < 0 }),
	"max":       extremum("max", func(c int) bool { return c > 0 }),
	"mod":       mod,
	"factorial": factorial,
	"atan2":     atan2,
	"heaviside": heaviside,
	"log":       logarithm,

	"sin":      unary("sin", math.Sin, cmplx.Sin),
	"cos":      unary("cos", math.Cos, cmplx.Cos),
	"tan":      unary("tan", math.Tan, cmplx.Tan),
	"cot":      unary("cot", func(x float64) float64 { return 1 / math.Tan(x) }, cmplx.Cot),
	"sec":      unary("sec", func(x float64) float64 { return 1 / math.Cos(x) }, func(z complex128) complex128 { return 1 / cmplx.Cos(z) }),
	"csc":      unary("csc", func(x float64) float64 { return 1 / math.Sin(x) }, func(z complex128) complex128 { return 1 / cmplx.Sin(z) }),
	"asin":     unary("asin", math.Asin, cmplx.Asin),
	"acos":     unary("acos", math.Acos, cmplx.Acos),
	"atan":     unary("atan", math.Atan, cmplx.Atan),
	"sinh":     unary("sinh", math.Sinh, cmplx.Sinh),
	"cosh":     unary("cosh", math.Cosh, cmplx.Cosh),
	"tanh":     unary("tanh", math.Tanh, cmplx.Tanh),
	"asinh":    unary("asinh", math.Asinh, cmplx.Asinh),
	"acosh":    unary("acosh", math.Acosh, cmplx.Acosh),
	"atanh":    unary("atanh", math.Atanh, cmplx.Atanh),
	"exp":      unary("exp", math.Exp, cmplx.Exp),
	"sqrt":     unary("sqrt", math.Sqrt, cmplx.Sqrt),
	"gamma":    unary("gamma", math.Gamma, nil),
	"loggamma": unary("loggamma", func(x float64) float64 { v, _ := math.Lgamma(x); return v }, nil),
	"erf":      unary("erf", math.Erf, nil),
	"erfc":     unary("erfc", math.Erfc, nil),
	"digamma":  unary("digamma", mathext.Digamma, nil),
	"zeta":     unary("zeta", func(x float64) float64 { return mathext.Zeta(x, 1) }, nil),
	"beta":     beta,
}

func arity(name string, args []Value, n int) error {
	if len(args) != n {
		return evalErrorf(name, "expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func realArgs(name string, args []Value) error {
	for _, a := range args {
		if a.rank() == KindComplex {
			return evalErrorf(name, "complex argument %s", a)
		}
	}
	return nil
}

// ============================================================
// arithmetic
// ============================================================

func add(args []Value) (Value, error) {
	switch widest(args) {
	case KindRational:
		acc := new(big.Rat)
		for _, a := range args {
			acc.Add(acc, a.asRat())
		}
		return Value{kind: KindRational, r: acc}, nil
	case KindFloat:
		var acc float64
		for _, a := range args {
			acc += a.asFloat()
		}
		return Float(acc), nil
	}
	var acc complex128
	for _, a := range args {
		acc += a.Complex128()
	}
	return Complex(acc), nil
}

func mul(args []Value) (Value, error) {
	switch widest(args) {
	case KindRational:
		acc := big.NewRat(1, 1)
		for _, a := range args {
			acc.Mul(acc, a.asRat())
		}
		return Value{kind: KindRational, r: acc}, nil
	case KindFloat:
		acc := 1.0
		for _, a := range args {
			acc *= a.asFloat()
		}
		return Float(acc), nil
	}
	acc := complex(1, 0)
	for _, a := range args {
		acc *= a.Complex128()
	}
	return Complex(acc), nil
}

// sub negates a single argument or subtracts the second from the first.
func sub(args []Value) (Value, error) {
	switch len(args) {
	case 1:
		return mul([]Value{Int(-1), args[0]})
	case 2:
		neg, err := mul([]Value{Int(-1), args[1]})
		if err != nil {
			return Value{}, err
		}
		return add([]Value{args[0], neg})
	}
	return Value{}, evalErrorf("-", "expected 1 or 2 arguments, got %d", len(args))
}

// div is exact for rationals; dividing by an exact zero follows IEEE rules.
func div(args []Value) (Value, error) {
	if err := arity("/", args, 2); err != nil {
		return Value{}, err
	}
	a, b := args[0], args[1]
	switch widest(args) {
	case KindRational:
		br := b.asRat()
		if br.Sign() == 0 {
			return Float(a.asFloat() / 0.0), nil
		}
		return Value{kind: KindRational, r: new(big.Rat).Quo(a.asRat(), br)}, nil
	case KindFloat:
		return Float(a.asFloat() / b.asFloat()), nil
	}
	return Complex(a.Complex128() / b.Complex128()), nil
}

func pow(args []Value) (Value, error) {
	if err := arity("^", args, 2); err != nil {
		return Value{}, err
	}
	b, e := args[0], args[1]
	switch widest(args) {
	case KindRational:
		br, er := b.asRat(), e.asRat()
		if er.IsInt() && er.Num().IsInt64() {
			n := er.Num().Int64()
			if n >= -maxExactExponent && n <= maxExactExponent && !(br.Sign() == 0 && n < 0) {
				return Value{kind: KindRational, r: ratPow(br, n)}, nil
			}
		}
		return Float(math.Pow(b.asFloat(), e.asFloat())), nil
	case KindFloat:
		return Float(math.Pow(b.asFloat(), e.asFloat())), nil
	}
	return Complex(cmplx.Pow(b.Complex128(), e.Complex128())), nil
}

func ratPow(r *big.Rat, n int64) *big.Rat {
	neg := n < 0
	if neg {
		n = -n
	}
	e := big.NewInt(n)
	num := new(big.Int).Exp(r.Num(), e, nil)
	den := new(big.Int).Exp(r.Denom(), e, nil)
	if neg {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den)
}

// ============================================================
// comparison and logic
// ============================================================

func cmpReal(a, b Value) int {
	if a.rank() == KindRational && b.rank() == KindRational {
		return a.asRat().Cmp(b.asRat())
	}
	x, y := a.asFloat(), b.asFloat()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func equal(negate bool) Builtin {
	name := "=="
	if negate {
		name = "!="
	}
	return func(args []Value) (Value, error) {
		if err := arity(name, args, 2); err != nil {
			return Value{}, err
		}
		a, b := args[0], args[1]
		var eq bool
		switch {
		case a.kind == KindBool && b.kind == KindBool:
			eq = a.b == b.b
		case widest(args) == KindComplex:
			eq = a.Complex128() == b.Complex128()
		case widest(args) == KindFloat:
			eq = a.asFloat() == b.asFloat()
		default:
			eq = cmpReal(a, b) == 0
		}
		return Bool(eq != negate), nil
	}
}

func compare(name string, ok func(int) bool) Builtin {
	return func(args []Value) (Value, error) {
		if err := arity(name, args, 2); err != nil {
			return Value{}, err
		}
		if err := realArgs(name, args); err != nil {
			return Value{}, err
		}
		x, y := args[0].asFloat(), args[1].asFloat()
		if math.IsNaN(x) || math.IsNaN(y) {
			return Bool(false), nil
		}
		return Bool(ok(cmpReal(args[0], args[1]))), nil
	}
}

func and(args []Value) (Value, error) {
	for _, a := range args {
		if !a.Truth() {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func or(args []Value) (Value, error) {
	for _, a := range args {
		if a.Truth() {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func not(args []Value) (Value, error) {
	if err := arity("!", args, 1); err != nil {
		return Value{}, err
	}
	return Bool(!args[0].Truth()), nil
}

// ============================================================
// elementary functions
// ============================================================

// unary lifts a float function. A nil complex variant rejects complex input.
func unary(name string, fn func(float64) float64, cfn func(complex128) complex128) Builtin {
	return func(args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		x := args[0]
		if x.rank() == KindComplex {
			if cfn == nil {
				return Value{}, evalErrorf(name, "complex argument %s", x)
			}
			return Complex(cfn(x.c)), nil
		}
		return Float(fn(x.asFloat())), nil
	}
}

func identity(args []Value) (Value, error) {
	if err := arity("identity", args, 1); err != nil {
		return Value{}, err
	}
	return args[0], nil
}

func abs(args []Value) (Value, error) {
	if err := arity("abs", args, 1); err != nil {
		return Value{}, err
	}
	switch x := args[0]; x.rank() {
	case KindRational:
		return Value{kind: KindRational, r: new(big.Rat).Abs(x.asRat())}, nil
	case KindFloat:
		return Float(math.Abs(x.f)), nil
	default:
		return Float(cmplx.Abs(x.c)), nil
	}
}

func sign(args []Value) (Value, error) {
	if err := arity("sign", args, 1); err != nil {
		return Value{}, err
	}
	switch x := args[0]; x.rank() {
	case KindRational:
		return Int(int64(x.asRat().Sign())), nil
	case KindFloat:
		switch {
		case math.IsNaN(x.f):
			return Float(math.NaN()), nil
		case x.f > 0:
			return Float(1), nil
		case x.f < 0:
			return Float(-1), nil
		}
		return Float(0), nil
	default:
		if x.c == 0 {
			return Int(0), nil
		}
		return Complex(x.c / complex(cmplx.Abs(x.c), 0)), nil
	}
}

func realPart(args []Value) (Value, error) {
	if err := arity("real", args, 1); err != nil {
		return Value{}, err
	}
	if x := args[0]; x.rank() == KindComplex {
		return Float(real(x.c)), nil
	}
	return args[0], nil
}

func imagPart(args []Value) (Value, error) {
	if err := arity("imag", args, 1); err != nil {
		return Value{}, err
	}
	if x := args[0]; x.rank() == KindComplex {
		return Float(imag(x.c)), nil
	}
	return Int(0), nil
}

func conj(args []Value) (Value, error) {
	if err := arity("conj", args, 1); err != nil {
		return Value{}, err
	}
	if x := args[0]; x.rank() == KindComplex {
		return Complex(cmplx.Conj(x.c)), nil
	}
	return args[0], nil
}

func ceilDiv(z, x, y *big.Int) *big.Int {
	z.Neg(x)
	z.Div(z, y)
	return z.Neg(z)
}

// rounding keeps exact inputs exact. intDiv must round like the float
// function for a positive divisor.
func rounding(name string, fn func(float64) float64, intDiv func(z, x, y *big.Int) *big.Int) Builtin {
	return func(args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Value{}, err
		}
		if err := realArgs(name, args); err != nil {
			return Value{}, err
		}
		x := args[0]
		if x.rank() == KindRational {
			r := x.asRat()
			q := intDiv(new(big.Int), r.Num(), r.Denom())
			return Value{kind: KindRational, r: new(big.Rat).SetInt(q)}, nil
		}
		return Float(fn(x.asFloat())), nil
	}
}

func extremum(name string, better func(int) bool) Builtin {
	return func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, evalErrorf(name, "no arguments")
		}
		if err := realArgs(name, args); err != nil {
			return Value{}, err
		}
		best := args[0]
		for _, a := range args[1:] {
			if math.IsNaN(a.asFloat()) {
				return a, nil
			}
			if better(cmpReal(a, best)) {
				best = a
			}
		}
		return best, nil
	}
}

// mod takes the sign of the divisor.
func mod(args []Value) (Value, error) {
	if err := arity("mod", args, 2); err != nil {
		return Value{}, err
	}
	if err := realArgs("mod", args); err != nil {
		return Value{}, err
	}
	a, b := args[0], args[1]
	if a.rank() == KindRational && b.rank() == KindRational && b.asRat().Sign() != 0 {
		ar, br := a.asRat(), b.asRat()
		q := new(big.Rat).Quo(ar, br)
		fl := new(big.Int).Div(q.Num(), q.Denom())
		prod := new(big.Rat).Mul(br, new(big.Rat).SetInt(fl))
		return Value{kind: KindRational, r: prod.Sub(ar, prod)}, nil
	}
	x, y := a.asFloat(), b.asFloat()
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return Float(m), nil
}

func factorial(args []Value) (Value, error) {
	if err := arity("factorial", args, 1); err != nil {
		return Value{}, err
	}
	if err := realArgs("factorial", args); err != nil {
		return Value{}, err
	}
	x := args[0]
	if x.IsInteger() {
		n := x.r.Num()
		if n.Sign() < 0 {
			return Value{}, evalErrorf("factorial", "negative argument %s", x)
		}
		if !n.IsInt64() || n.Int64() > 10000 {
			return Float(math.Inf(1)), nil
		}
		f := new(big.Int).MulRange(1, n.Int64())
		return Value{kind: KindRational, r: new(big.Rat).SetInt(f)}, nil
	}
	return Float(math.Gamma(x.asFloat() + 1)), nil
}

func atan2(args []Value) (Value, error) {
	if err := arity("atan2", args, 2); err != nil {
		return Value{}, err
	}
	if err := realArgs("atan2", args); err != nil {
		return Value{}, err
	}
	return Float(math.Atan2(args[0].asFloat(), args[1].asFloat())), nil
}

func beta(args []Value) (Value, error) {
	if err := arity("beta", args, 2); err != nil {
		return Value{}, err
	}
	if err := realArgs("beta", args); err != nil {
		return Value{}, err
	}
	return Float(mathext.Beta(args[0].asFloat(), args[1].asFloat())), nil
}

// heaviside is 1/2 at zero unless a second argument gives the value there.
func heaviside(args []Value) (Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return Value{}, evalErrorf("heaviside", "expected 1 or 2 arguments, got %d", len(args))
	}
	if err := realArgs("heaviside", args); err != nil {
		return Value{}, err
	}
	x := args[0]
	if math.IsNaN(x.asFloat()) {
		return Float(math.NaN()), nil
	}
	switch c := cmpReal(x, Int(0)); {
	case c < 0:
		return Int(0), nil
	case c > 0:
		return Int(1), nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return Rat(1, 2), nil
}

// logarithm is the natural log, or log base args[1] when given.
func logarithm(args []Value) (Value, error) {
	ln := unary("log", math.Log, cmplx.Log)
	switch len(args) {
	case 1:
		return ln(args)
	case 2:
		x, err := ln(args[:1])
		if err != nil {
			return Value{}, err
		}
		b, err := ln(args[1:])
		if err != nil {
			return Value{}, err
		}
		return div([]Value{x, b})
	}
	return Value{}, evalErrorf("log", "expected 1 or 2 arguments, got %d", len(args))
}
