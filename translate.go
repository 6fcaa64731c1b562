package lambdify

import (
	"math/big"
)

// DefaultMaxDepth bounds the nesting a translation will follow. Foreign trees
// are expected to be acyclic; the bound turns a cycle into an error.
const DefaultMaxDepth = 10000

// ============================================================
// Node classification
// ============================================================

type nodeKind uint8

const (
	kindSymbol nodeKind = iota
	kindInteger
	kindFloat
	kindRational
	kindConstant
	kindCall
	kindUnknown
)

// classify applies the translation precedence: named leaf kinds first, then
// the constant table, then generic application. A childless node that reaches
// the last rule is unknown.
func classify(tag string, consts Constants, nargs func() int) nodeKind {
	switch tag {
	case TagSymbol:
		return kindSymbol
	case TagInteger:
		return kindInteger
	case TagFloat:
		return kindFloat
	case TagRational:
		return kindRational
	}
	if _, ok := consts[tag]; ok {
		return kindConstant
	}
	if nargs() == 0 {
		return kindUnknown
	}
	return kindCall
}

// ============================================================
// Translator
// ============================================================

// Translate converts a foreign tree into a target expression using the given
// tables as-is. Use DefaultConstants().Merge(...) to layer overrides.
func Translate(n Node, consts Constants, ops Operators) (Expr, error) {
	t := translator{consts: consts, ops: ops, maxDepth: DefaultMaxDepth}
	return t.translate(n, 0)
}

type translator struct {
	consts   Constants
	ops      Operators
	maxDepth int
}

func (t *translator) translate(n Node, depth int) (Expr, error) {
	tag := n.Tag()
	if depth > t.maxDepth {
		return nil, &NotTranslatableError{Tag: tag, Reason: "expression nesting exceeds depth limit"}
	}

	var (
		args    []Node
		argsErr error
		fetched bool
	)
	nargs := func() int {
		if !fetched {
			args, argsErr = n.Args()
			fetched = true
		}
		return len(args)
	}

	switch classify(tag, t.consts, nargs) {
	case kindSymbol:
		return VarRef{Name: n.String()}, nil

	case kindInteger:
		return t.integer(n, tag)

	case kindFloat:
		fv, ok := n.(FloatValue)
		if !ok {
			return nil, &NotTranslatableError{Tag: tag, Reason: "node has no float payload"}
		}
		f, err := fv.Float()
		if err != nil {
			return nil, &NotTranslatableError{Tag: tag, Reason: "reading float payload", Err: err}
		}
		return Literal{Value: Float(f)}, nil

	case kindRational:
		return t.rational(n, tag)

	case kindConstant:
		return Literal{Value: t.consts[tag]}, nil

	case kindUnknown:
		if argsErr != nil {
			return nil, &NotTranslatableError{Tag: tag, Reason: "reading children", Err: argsErr}
		}
		return nil, &NotTranslatableError{Tag: tag, Reason: "no rule for leaf"}
	}

	// kindCall: args are already fetched by classify.
	if argsErr != nil {
		return nil, &NotTranslatableError{Tag: tag, Reason: "reading children", Err: argsErr}
	}
	out := make([]Expr, len(args))
	for i, a := range args {
		e, err := t.translate(a, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return &Call{Callable: t.ops.Resolve(tag), Args: out}, nil
}

func (t *translator) integer(n Node, tag string) (Expr, error) {
	if iv, ok := n.(IntegerValue); ok {
		i, err := iv.Integer()
		if err != nil {
			return nil, &NotTranslatableError{Tag: tag, Reason: "reading integer payload", Err: err}
		}
		return Literal{Value: Value{kind: KindRational, r: new(big.Rat).SetInt(i)}}, nil
	}
	if fv, ok := n.(FloatValue); ok {
		f, err := fv.Float()
		if err != nil {
			return nil, &NotTranslatableError{Tag: tag, Reason: "reading integer payload", Err: err}
		}
		return Literal{Value: Float(f)}, nil
	}
	return nil, &NotTranslatableError{Tag: tag, Reason: "node has no integer payload"}
}

// rational builds an exact ratio. Numerator and denominator must fit in an
// int64.
func (t *translator) rational(n Node, tag string) (Expr, error) {
	rv, ok := n.(RationalValue)
	if !ok {
		return nil, &NotTranslatableError{Tag: tag, Reason: "node has no rational payload"}
	}
	num, den, err := rv.Ratio()
	if err != nil {
		return nil, &NotTranslatableError{Tag: tag, Reason: "reading rational payload", Err: err}
	}
	if num == nil || den == nil || !num.IsInt64() || !den.IsInt64() {
		return nil, &NotTranslatableError{Tag: tag, Reason: "numerator or denominator is not a native integer"}
	}
	if den.Sign() == 0 {
		return nil, &NotTranslatableError{Tag: tag, Reason: "zero denominator"}
	}
	return Literal{Value: Rat(num.Int64(), den.Int64())}, nil
}
