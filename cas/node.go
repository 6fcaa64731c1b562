package cas

import (
	"fmt"
	"math/big"

	"github.com/njchilds90/lambdify"
)

// ============================================================
// lambdify bridge
// ============================================================

// Node exposes e through the read-only accessor lambdify consumes.
func Node(e Expr) lambdify.Node { return node{e} }

// Nodes adapts each expression, typically symbols used as parameters.
func Nodes(es ...Expr) []lambdify.Node {
	out := make([]lambdify.Node, len(es))
	for i, e := range es {
		out[i] = Node(e)
	}
	return out
}

// Lambdify compiles e. Without lambdify.Params the parameters are the free
// symbols of e sorted by name.
func Lambdify(e Expr, opts ...lambdify.Option) (*lambdify.Function, error) {
	return lambdify.Lambdify(Node(e), opts...)
}

type node struct{ e Expr }

func (n node) Tag() string    { return n.e.Tag() }
func (n node) String() string { return n.e.String() }

func (n node) Args() ([]lambdify.Node, error) {
	args := n.e.Args()
	if len(args) == 0 {
		return nil, nil
	}
	return Nodes(args...), nil
}

func (n node) Integer() (*big.Int, error) {
	num, ok := n.e.(*Num)
	if !ok || !num.IsInteger() {
		return nil, fmt.Errorf("%s is not an integer", n.e)
	}
	return new(big.Int).Set(num.val.Num()), nil
}

func (n node) Ratio() (num, den *big.Int, err error) {
	v, ok := n.e.(*Num)
	if !ok {
		return nil, nil, fmt.Errorf("%s is not a rational", n.e)
	}
	return new(big.Int).Set(v.val.Num()), new(big.Int).Set(v.val.Denom()), nil
}

func (n node) Float() (float64, error) {
	switch v := n.e.(type) {
	case *Float:
		return v.v, nil
	case *Num:
		return v.Float64(), nil
	}
	return 0, fmt.Errorf("%s is not a number", n.e)
}

func (n node) FreeSymbols() ([]lambdify.Node, error) {
	syms := FreeSymbols(n.e)
	out := make([]lambdify.Node, len(syms))
	for i, s := range syms {
		out[i] = Node(s)
	}
	return out, nil
}
