package lambdify

import "math/big"

// ============================================================
// Node: read-only view of a foreign expression
// ============================================================

// Node is the accessor an algebra engine exposes for its expression trees.
// Implementations must not mutate the expression or any engine state, and
// repeated calls must return the same answers.
type Node interface {
	// Tag names the node kind, e.g. "Add", "Symbol" or "Integer".
	Tag() string
	// Args returns the ordered children; leaves return none.
	Args() ([]Node, error)
	// String renders the node. Symbol names are taken from it.
	String() string
}

// IntegerValue is implemented by "Integer" leaves.
type IntegerValue interface {
	Integer() (*big.Int, error)
}

// FloatValue is implemented by "Float" leaves, and optionally by "Integer"
// leaves that cannot provide an exact value.
type FloatValue interface {
	Float() (float64, error)
}

// RationalValue is implemented by "Rational" leaves.
type RationalValue interface {
	Ratio() (num, den *big.Int, err error)
}

// FreeSymboler lists the free symbols of an expression in the engine's order.
// It supplies the default parameter list.
type FreeSymboler interface {
	FreeSymbols() ([]Node, error)
}

// Leaf tags with a fixed meaning.
const (
	TagSymbol   = "Symbol"
	TagInteger  = "Integer"
	TagFloat    = "Float"
	TagRational = "Rational"
)

// FreeSymbols returns the names of the free symbols of n. Engines that
// implement FreeSymboler decide the order; otherwise symbols are listed in
// depth-first order of first occurrence.
func FreeSymbols(n Node) ([]string, error) { return freeSymbols(n, DefaultMaxDepth) }

func freeSymbols(n Node, maxDepth int) ([]string, error) {
	if fs, ok := n.(FreeSymboler); ok {
		syms, err := fs.FreeSymbols()
		if err != nil {
			return nil, err
		}
		names := make([]string, len(syms))
		for i, s := range syms {
			names[i] = s.String()
		}
		return names, nil
	}
	var (
		names []string
		seen  = map[string]struct{}{}
	)
	var walk func(Node, int) error
	walk = func(n Node, depth int) error {
		if depth > maxDepth {
			return &NotTranslatableError{Tag: n.Tag(), Reason: "expression nesting exceeds depth limit"}
		}
		if n.Tag() == TagSymbol {
			name := n.String()
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
			return nil
		}
		args, err := n.Args()
		if err != nil {
			return err
		}
		for _, a := range args {
			if err := walk(a, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(n, 0); err != nil {
		return nil, err
	}
	return names, nil
}
