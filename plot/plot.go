// Package plot samples expressions and callables into chart primitives.
// Expressions are compiled once with lambdify and evaluated per point; when
// an expression cannot be compiled the plotter walks the tree directly.
package plot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/lambdify"
	"github.com/njchilds90/lambdify/cas"
)

// DefaultSamples is the number of points in a series when none is configured.
const DefaultSamples = 200

// Series is a sampled curve. Points where evaluation failed hold NaN.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// Bounds returns the extent of the finite Y values. ok is false when there
// are none.
func (s Series) Bounds() (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(s.Y))
	for _, y := range s.Y {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			finite = append(finite, y)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	return floats.Min(finite), floats.Max(finite), true
}

// Grid is a sampled surface. Z has one row per Y value and one column per X
// value.
type Grid struct {
	Label string
	X     []float64
	Y     []float64
	Z     *mat.Dense
}

// Plotter holds sampling settings shared by its methods.
type Plotter struct {
	log        *zap.Logger
	samples    int
	opts       []lambdify.Option
	onFallback func(e cas.Expr, err error)
}

type Option func(*Plotter)

func WithLogger(l *zap.Logger) Option {
	return func(p *Plotter) {
		if l != nil {
			p.log = l
		}
	}
}

func WithSamples(n int) Option {
	return func(p *Plotter) {
		if n > 0 {
			p.samples = n
		}
	}
}

// WithLambdifyOptions passes table overrides or a backend choice to every
// compilation. Parameter options are set by the plotter itself.
func WithLambdifyOptions(opts ...lambdify.Option) Option {
	return func(p *Plotter) { p.opts = append(p.opts, opts...) }
}

// OnFallback registers fn to be told about every expression sampled by direct
// evaluation.
func OnFallback(fn func(e cas.Expr, err error)) Option {
	return func(p *Plotter) { p.onFallback = fn }
}

func New(opts ...Option) *Plotter {
	p := &Plotter{log: zap.NewNop(), samples: DefaultSamples}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plotter) Samples() int { return p.samples }

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// ============================================================
// evaluation
// ============================================================

type evaluator func(args ...float64) (float64, error)

// compile lambdifies e over params, falling back to direct evaluation of the
// tree when lambdify rejects it.
func (p *Plotter) compile(e cas.Expr, params ...string) (evaluator, error) {
	if e == nil {
		return nil, errors.New("plot: nil expression")
	}
	opts := append(append([]lambdify.Option(nil), p.opts...), lambdify.Params(params...))
	fn, err := cas.Lambdify(e, opts...)
	if err == nil {
		return fn.Call, nil
	}
	if !errors.Is(err, lambdify.ErrNotLambdifiable) {
		return nil, err
	}
	p.log.Debug("expression not lambdifiable, evaluating directly",
		zap.String("expr", e.String()),
		zap.Error(err))
	if p.onFallback != nil {
		p.onFallback(e, err)
	}

	bound := make(map[string]struct{}, len(params))
	for _, name := range params {
		bound[name] = struct{}{}
	}
	for _, s := range cas.FreeSymbols(e) {
		if _, ok := bound[s.Name()]; !ok {
			return nil, &lambdify.UnboundVariableError{Name: s.Name()}
		}
	}
	return func(args ...float64) (float64, error) {
		if len(args) != len(params) {
			return math.NaN(), &lambdify.ArityError{Want: len(params), Got: len(args)}
		}
		env := make(map[string]float64, len(params))
		for i, name := range params {
			env[name] = args[i]
		}
		return cas.Evalf(e, env)
	}, nil
}

// fatal reports errors that would repeat at every point.
func fatal(err error) bool {
	var (
		arity   *lambdify.ArityError
		unbound *lambdify.UnboundVariableError
	)
	return errors.As(err, &arity) || errors.As(err, &unbound)
}

func point(eval evaluator, args ...float64) (float64, error) {
	y, err := eval(args...)
	if err != nil {
		if fatal(err) {
			return math.NaN(), err
		}
		return math.NaN(), nil
	}
	return y, nil
}

// soleParam picks the variable of a one-variable expression. Constant
// expressions are sampled over a variable named x.
func soleParam(e cas.Expr) (string, error) {
	syms := cas.FreeSymbols(e)
	switch len(syms) {
	case 0:
		return "x", nil
	case 1:
		return syms[0].Name(), nil
	}
	return "", fmt.Errorf("plot: %s has %d free symbols, want 1", e, len(syms))
}

// ============================================================
// sampling
// ============================================================

// Function samples a one-variable expression over [lo, hi].
func (p *Plotter) Function(e cas.Expr, lo, hi float64) (Series, error) {
	if e == nil {
		return Series{}, errors.New("plot: nil expression")
	}
	v, err := soleParam(e)
	if err != nil {
		return Series{}, err
	}
	eval, err := p.compile(e, v)
	if err != nil {
		return Series{}, err
	}
	xs := Linspace(lo, hi, p.samples)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		if ys[i], err = point(eval, x); err != nil {
			return Series{}, err
		}
	}
	return Series{Label: e.String(), X: xs, Y: ys}, nil
}

// Callable samples a user-supplied function over [lo, hi].
func (p *Plotter) Callable(label string, fn func(float64) float64, lo, hi float64) Series {
	xs := Linspace(lo, hi, p.samples)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = fn(x)
	}
	return Series{Label: label, X: xs, Y: ys}
}

// Parametric samples the curve (x(t), y(t)) for t in [lo, hi].
func (p *Plotter) Parametric(x, y cas.Expr, t string, lo, hi float64) (Series, error) {
	if x == nil || y == nil {
		return Series{}, errors.New("plot: nil expression")
	}
	fx, err := p.compile(x, t)
	if err != nil {
		return Series{}, err
	}
	fy, err := p.compile(y, t)
	if err != nil {
		return Series{}, err
	}
	ts := Linspace(lo, hi, p.samples)
	s := Series{
		Label: "(" + x.String() + ", " + y.String() + ")",
		X:     make([]float64, len(ts)),
		Y:     make([]float64, len(ts)),
	}
	for i, tv := range ts {
		if s.X[i], err = point(fx, tv); err != nil {
			return Series{}, err
		}
		if s.Y[i], err = point(fy, tv); err != nil {
			return Series{}, err
		}
	}
	return s, nil
}

// Surface samples e(x, y) on the grid xs × ys. Rows are evaluated
// concurrently; the compiled function is shared between them.
func (p *Plotter) Surface(ctx context.Context, e cas.Expr, x, y string, xs, ys []float64) (Grid, error) {
	if e == nil {
		return Grid{}, errors.New("plot: nil expression")
	}
	if len(xs) == 0 || len(ys) == 0 {
		return Grid{}, errors.New("plot: empty grid")
	}
	eval, err := p.compile(e, x, y)
	if err != nil {
		return Grid{}, err
	}
	z := mat.NewDense(len(ys), len(xs), nil)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range ys {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, len(xs))
			for j, xv := range xs {
				v, err := point(eval, xv, ys[i])
				if err != nil {
					return err
				}
				row[j] = v
			}
			// Each goroutine writes only its own row.
			z.SetRow(i, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Grid{}, err
	}
	p.log.Debug("surface sampled",
		zap.String("expr", e.String()),
		zap.Int("rows", len(ys)),
		zap.Int("cols", len(xs)))
	return Grid{Label: e.String(), X: xs, Y: ys, Z: z}, nil
}

// Broadcast evaluates f elementwise. Every argument slice must have the same
// length or length one; length-one slices are repeated.
func Broadcast(f *lambdify.Function, args ...[]float64) ([]float64, error) {
	if f == nil {
		return nil, errors.New("plot: nil function")
	}
	if want := len(f.Params()); len(args) != want {
		return nil, &lambdify.ArityError{Want: want, Got: len(args)}
	}
	n := 1
	for _, a := range args {
		switch {
		case len(a) == 0:
			return nil, errors.New("plot: empty argument")
		case len(a) == 1 || len(a) == n:
		case n == 1:
			n = len(a)
		default:
			return nil, fmt.Errorf("plot: cannot broadcast lengths %d and %d", n, len(a))
		}
	}
	out := make([]float64, n)
	at := make([]float64, len(args))
	for i := range out {
		for k, a := range args {
			if len(a) == 1 {
				at[k] = a[0]
			} else {
				at[k] = a[i]
			}
		}
		v, err := point(f.Call, at...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
