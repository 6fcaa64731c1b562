package lambdify

import (
	"math"
	"math/cmplx"
)

// ============================================================
// Constant table
// ============================================================

// Constants maps a leaf tag to the literal it translates to.
type Constants map[string]Value

// defaultConstants is never mutated after package initialization.
var defaultConstants = Constants{
	"Pi":               Float(math.Pi),
	"Exp1":             Float(math.E),
	"Infinity":         Float(math.Inf(1)),
	"NegativeInfinity": Float(math.Inf(-1)),
	"ComplexInfinity":  Complex(cmplx.Inf()),
	"ImaginaryUnit":    Complex(1i),
	"NaN":              Float(math.NaN()),
	"EulerGamma":       Float(0.5772156649015329),
	"GoldenRatio":      Float(math.Phi),
	"Catalan":          Float(0.915965594177219),
	"BooleanTrue":      Bool(true),
	"BooleanFalse":     Bool(false),
	"Half":             Rat(1, 2),
	"One":              Int(1),
	"Zero":             Int(0),
	"NegativeOne":      Int(-1),
}

// DefaultConstants returns a copy of the built-in constant table.
func DefaultConstants() Constants { return defaultConstants.Merge(nil) }

// Merge returns a new table holding c overlaid with over. Neither input is
// modified.
func (c Constants) Merge(over Constants) Constants {
	out := make(Constants, len(c)+len(over))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// ============================================================
// Operator table
// ============================================================

// Operators maps an interior-node tag to a callable identifier.
type Operators map[string]string

var defaultOperators = Operators{
	"Add":               "+",
	"Sub":               "-",
	"Mul":               "*",
	"Div":               "/",
	"Pow":               "^",
	"Abs":               "abs",
	"re":                "real",
	"im":                "imag",
	"conjugate":         "conj",
	"Min":               "min",
	"Max":               "max",
	"Poly":              "identity",
	"atan2":             "atan2",
	"Heaviside":         "heaviside",
	"ceiling":           "ceil",
	"log":               "log",
	"Mod":               "mod",
	"factorial":         "factorial",
	"Piecewise":         "piecewise",
	"ExprCondPair":      "pair",
	"Equality":          "==",
	"Unequality":        "!=",
	"StrictLessThan":    "<",
	"LessThan":          "<=",
	"StrictGreaterThan": ">",
	"GreaterThan":       ">=",
	"And":               "&",
	"Or":                "|",
	"Not":               "!",
}

// DefaultOperators returns a copy of the built-in operator table.
func DefaultOperators() Operators { return defaultOperators.Merge(nil) }

func (o Operators) Merge(over Operators) Operators {
	out := make(Operators, len(o)+len(over))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Resolve returns the callable for tag. Tags without an entry name the
// callable themselves.
func (o Operators) Resolve(tag string) string {
	if id, ok := o[tag]; ok {
		return id
	}
	return tag
}
