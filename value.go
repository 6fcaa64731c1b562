package lambdify

import (
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"strconv"
)

// ============================================================
// Value: native numeric domain of compiled functions
// ============================================================

type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindRational
	KindFloat
	KindComplex
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindRational:
		return "rational"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	}
	return "invalid"
}

// Value is an immutable number or truth value. The zero Value is invalid.
// Rational values own their *big.Rat and never mutate it, so a Value can be
// shared between goroutines.
type Value struct {
	kind Kind
	b    bool
	r    *big.Rat
	f    float64
	c    complex128
}

func Int(n int64) Value { return Value{kind: KindRational, r: new(big.Rat).SetInt64(n)} }

// Rat returns the exact ratio p/q. It panics if q is zero.
func Rat(p, q int64) Value {
	if q == 0 {
		panic("lambdify: denominator is zero")
	}
	return Value{kind: KindRational, r: new(big.Rat).SetFrac64(p, q)}
}

// BigRat copies r.
func BigRat(r *big.Rat) Value    { return Value{kind: KindRational, r: new(big.Rat).Set(r)} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func Complex(c complex128) Value { return Value{kind: KindComplex, c: c} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Rat returns a copy of the exact value. ok is false for non-rational kinds.
func (v Value) Rat() (r *big.Rat, ok bool) {
	switch v.kind {
	case KindRational:
		return new(big.Rat).Set(v.r), true
	case KindBool:
		if v.b {
			return big.NewRat(1, 1), true
		}
		return new(big.Rat), true
	}
	return nil, false
}

// Float64 converts real kinds to float64. ok is false for complex values.
func (v Value) Float64() (f float64, ok bool) {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindRational:
		f, _ = v.r.Float64()
		return f, true
	case KindFloat:
		return v.f, true
	case KindComplex:
		return real(v.c), false
	}
	return math.NaN(), false
}

func (v Value) Complex128() complex128 {
	if v.kind == KindComplex {
		return v.c
	}
	f, _ := v.Float64()
	return complex(f, 0)
}

// Truth reports the boolean value. Numbers are true when non-zero.
func (v Value) Truth() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindRational:
		return v.r.Sign() != 0
	case KindFloat:
		return v.f != 0
	case KindComplex:
		return v.c != 0
	}
	return false
}

// IsInteger reports whether v is an exact integer.
func (v Value) IsInteger() bool { return v.kind == KindRational && v.r.IsInt() }

// Equal compares kind and value. NaN floats are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindRational:
		return v.r.Cmp(o.r) == 0
	case KindFloat:
		return v.f == o.f
	case KindComplex:
		return v.c == o.c
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindRational:
		if v.r.IsInt() {
			return v.r.Num().String()
		}
		return v.r.RatString()
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindComplex:
		if cmplx.IsInf(v.c) {
			return "zoo"
		}
		return fmt.Sprintf("%g", v.c)
	}
	return "<invalid>"
}

// ============================================================
// promotion
// ============================================================

// rank orders numeric kinds for promotion; bools count as rationals.
func (v Value) rank() Kind {
	if v.kind == KindBool {
		return KindRational
	}
	return v.kind
}

func widest(vs []Value) Kind {
	k := KindRational
	for _, v := range vs {
		if r := v.rank(); r > k {
			k = r
		}
	}
	return k
}

// asRat assumes v.rank() == KindRational.
func (v Value) asRat() *big.Rat {
	r, _ := v.Rat()
	return r
}

func (v Value) asFloat() float64 {
	f, _ := v.Float64()
	return f
}
