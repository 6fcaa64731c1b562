// Package cas is a small deterministic symbolic kernel. Its trees are the
// input to lambdify: every node reports a tag, ordered children and a string
// form, and numeric leaves expose their exact payload.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Light simplification on construction, stable output
//   - JSON wire format for tool servers
//   - Direct float evaluation as the slow path when compilation is impossible
package cas

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	String() string
	Equal(other Expr) bool
	// Tag names the node kind using SymPy class names.
	Tag() string
	// Args returns the ordered children.
	Args() []Expr
	evalf(env map[string]float64, depth int) (float64, error)
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("cas: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// R copies r.
func R(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Args() []Expr          { return nil }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(new(big.Rat).SetInt64(1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(new(big.Rat).SetInt64(-1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) Tag() string {
	if n.val.IsInt() {
		return "Integer"
	}
	return "Rational"
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) evalf(map[string]float64, int) (float64, error) { return n.Float64(), nil }

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("cas: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// ============================================================
// Float: inexact number
// ============================================================

type Float struct{ v float64 }

func NFloat(f float64) *Float { return &Float{v: f} }

func (f *Float) Tag() string           { return "Float" }
func (f *Float) Args() []Expr          { return nil }
func (f *Float) Value() float64        { return f.v }
func (f *Float) Equal(other Expr) bool { o, ok := other.(*Float); return ok && f.v == o.v }
func (f *Float) String() string        { return strconv.FormatFloat(f.v, 'g', -1, 64) }

func (f *Float) evalf(map[string]float64, int) (float64, error) { return f.v, nil }

func (f *Float) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "float", "value": f.v}
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym { return &Sym{name: name} }

// Symbols splits a space- or comma-separated list of names.
func Symbols(names string) []*Sym {
	fields := strings.FieldsFunc(names, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]*Sym, len(fields))
	for i, f := range fields {
		out[i] = S(f)
	}
	return out
}

func (s *Sym) Tag() string           { return "Symbol" }
func (s *Sym) Args() []Expr          { return nil }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }

func (s *Sym) evalf(env map[string]float64, _ int) (float64, error) {
	v, ok := env[s.name]
	if !ok {
		return math.NaN(), fmt.Errorf("unbound symbol %s", s.name)
	}
	return v, nil
}

func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numbers and collects repeated symbols.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		if inner, ok := t.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, t)
		}
	}
	numAccum := N(0)
	var floatAccum float64
	hasFloat := false
	symCoeffs := map[string]*Num{}
	symOrder := []string{}
	others := []Expr{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Float:
			floatAccum += v.v
			hasFloat = true
		case *Sym:
			if _, seen := symCoeffs[v.name]; !seen {
				symOrder = append(symOrder, v.name)
				symCoeffs[v.name] = N(0)
			}
			symCoeffs[v.name] = numAdd(symCoeffs[v.name], N(1))
		default:
			others = append(others, t)
		}
	}
	result := []Expr{}
	sort.Strings(symOrder)
	for _, name := range symOrder {
		coeff := symCoeffs[name]
		if coeff.IsOne() {
			result = append(result, S(name))
		} else {
			result = append(result, MulOf(coeff, S(name)))
		}
	}
	result = append(result, others...)
	switch {
	case hasFloat:
		if sum := floatAccum + numAccum.Float64(); sum != 0 {
			result = append(result, NFloat(sum))
		}
	case !numAccum.IsZero():
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		if hasFloat {
			return NFloat(0)
		}
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) Tag() string  { return "Add" }
func (a *Add) Args() []Expr { return a.terms }

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) evalf(env map[string]float64, depth int) (float64, error) {
	acc := 0.0
	for _, t := range a.terms {
		v, err := evalChild(t, env, depth)
		if err != nil {
			return math.NaN(), err
		}
		acc += v
	}
	return acc, nil
}

func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": listJSON(a.terms)}
}

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		if inner, ok := f.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, f)
		}
	}
	coeff := N(1)
	floatCoeff := 1.0
	hasFloat := false
	others := []Expr{}
	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Float:
			floatCoeff *= v.v
			hasFloat = true
		default:
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	var lead Expr
	switch {
	case hasFloat:
		lead = NFloat(floatCoeff * coeff.Float64())
		if len(others) == 0 {
			return lead
		}
	case len(others) == 0:
		return coeff
	case !coeff.IsOne():
		lead = coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sorted := make([]Expr, 0, len(ks)+1)
	if lead != nil {
		sorted = append(sorted, lead)
	}
	for i := range ks {
		sorted = append(sorted, ks[i].e)
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	return &Mul{factors: sorted}
}

func (m *Mul) Tag() string  { return "Mul" }
func (m *Mul) Args() []Expr { return m.factors }

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) evalf(env map[string]float64, depth int) (float64, error) {
	acc := 1.0
	for _, f := range m.factors {
		v, err := evalChild(f, env, depth)
		if err != nil {
			return math.NaN(), err
		}
		acc *= v
	}
	return acc, nil
}

func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": listJSON(m.factors)}
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base, exp := p.base, p.exp

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}

	// 0^0 is indeterminate; 0^negative is division by zero.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && en.IsNegative() {
			return &Pow{base: base, exp: exp}
		}
		return N(0)
	}

	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			e := en.val.Num().Int64()
			if e >= -20 && e <= 20 {
				result := N(1)
				for i := int64(0); i < abs64(e); i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}
	if inner, ok := base.(*Pow); ok {
		if _, ok := exp.(*Num); ok {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
	}
	return &Pow{base: base, exp: exp}
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func (p *Pow) Tag() string   { return "Pow" }
func (p *Pow) Args() []Expr  { return []Expr{p.base, p.exp} }
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	}
	switch p.exp.(type) {
	case *Add, *Mul, *Pow:
		expStr = "(" + expStr + ")"
	case *Num:
		if !p.exp.(*Num).IsInteger() || p.exp.(*Num).IsNegative() {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "^" + expStr
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) evalf(env map[string]float64, depth int) (float64, error) {
	b, err := evalChild(p.base, env, depth)
	if err != nil {
		return math.NaN(), err
	}
	e, err := evalChild(p.exp, env, depth)
	if err != nil {
		return math.NaN(), err
	}
	return math.Pow(b, e), nil
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

// ============================================================
// helpers
// ============================================================

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func listJSON(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}
