package lambdify

// Option configures Lambdify and Compile.
type Option func(*options)

type options struct {
	params    []string
	paramsSet bool
	constants Constants
	operators Operators
	functions Functions
	backend   Backend
	maxDepth  int
}

// newOptions starts from the shared default tables. Overrides are merged into
// fresh maps, so the defaults are never written.
func newOptions(opts []Option) *options {
	o := &options{
		constants: defaultConstants,
		operators: defaultOperators,
		functions: defaultFunctions,
		backend:   Interpreter(),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Params sets the ordered parameter names. Calling it with no names builds a
// zero-argument function.
func Params(names ...string) Option {
	return func(o *options) {
		o.params = append([]string(nil), names...)
		o.paramsSet = true
	}
}

// ParamNodes sets the parameters from symbol nodes, using their rendered names.
// Nil nodes are skipped.
func ParamNodes(nodes ...Node) Option {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			names = append(names, n.String())
		}
	}
	return Params(names...)
}

func WithConstants(c Constants) Option {
	return func(o *options) { o.constants = o.constants.Merge(c) }
}

func WithOperators(ops Operators) Option {
	return func(o *options) { o.operators = o.operators.Merge(ops) }
}

// WithFunctions registers native implementations for callable identifiers.
func WithFunctions(fns Functions) Option {
	return func(o *options) { o.functions = o.functions.Merge(fns) }
}

func WithBackend(b Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backend = b
		}
	}
}

func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}
