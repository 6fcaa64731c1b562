// Package lambdify compiles symbolic expression trees from an algebra engine
// into native Go functions with a caller-chosen parameter order.
//
// Translation walks the foreign tree once through the Node accessor, resolving
// leaves against a constant table and interior nodes against an operator
// table. The result is a detached target expression that a Backend turns into
// an evaluator, so calling a compiled Function never touches the engine again.
//
// Design goals:
//   - Exact rational arithmetic where the inputs are exact (math/big.Rat)
//   - Immutable default tables with per-call overrides
//   - Compiled functions that are pure and safe for concurrent use
//   - One failure kind for callers: ErrNotLambdifiable
package lambdify

import "fmt"

// Lambdify translates n and compiles it. Without Params the parameters are
// the free symbols of n in the order the engine reports them.
//
// Every failure, including a panic inside the engine's accessors, is reported
// as an error matching ErrNotLambdifiable. No partial Function is returned.
func Lambdify(n Node, opts ...Option) (fn *Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			fn, err = nil, notLambdifiable(fmt.Errorf("panic: %v", r))
		}
	}()
	if n == nil {
		return nil, notLambdifiable(&NotTranslatableError{Reason: "nil node"})
	}

	o := newOptions(opts)
	params := o.params
	if !o.paramsSet {
		if params, err = freeSymbols(n, o.maxDepth); err != nil {
			return nil, notLambdifiable(err)
		}
	}

	t := translator{consts: o.constants, ops: o.operators, maxDepth: o.maxDepth}
	expr, err := t.translate(n, 0)
	if err != nil {
		return nil, notLambdifiable(err)
	}
	fn, err = o.compile(expr, params)
	if err != nil {
		return nil, notLambdifiable(err)
	}
	return fn, nil
}
