package plot_test

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/njchilds90/lambdify"
	"github.com/njchilds90/lambdify/cas"
	"github.com/njchilds90/lambdify/plot"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, plot.Linspace(0, 1, 5))
	assert.Equal(t, []float64{3}, plot.Linspace(3, 9, 1))
	assert.Nil(t, plot.Linspace(0, 1, 0))
}

func TestNew_Defaults(t *testing.T) {
	assert.Equal(t, plot.DefaultSamples, plot.New().Samples())
	assert.Equal(t, 7, plot.New(plot.WithSamples(7)).Samples())
	assert.Equal(t, plot.DefaultSamples, plot.New(plot.WithSamples(-1)).Samples())
}

func TestFunction(t *testing.T) {
	p := plot.New(plot.WithSamples(5), plot.WithLogger(zaptest.NewLogger(t)))
	x := cas.S("x")
	s, err := p.Function(cas.PowOf(x, cas.N(2)), -1, 1)
	require.NoError(t, err)
	assert.Equal(t, "x^2", s.Label)
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, s.X)
	assert.Equal(t, []float64{1, 0.25, 0, 0.25, 1}, s.Y)

	lo, hi, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestFunction_Constant(t *testing.T) {
	p := plot.New(plot.WithSamples(3))
	s, err := p.Function(cas.F(1, 2), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, s.Y)
}

func TestFunction_TooManySymbols(t *testing.T) {
	_, err := plot.New().Function(cas.AddOf(cas.S("x"), cas.S("y")), 0, 1)
	assert.Error(t, err)
}

func TestFunction_DomainErrorsAreNaN(t *testing.T) {
	p := plot.New(plot.WithSamples(3))
	s, err := p.Function(cas.FactorialOf(cas.S("n")), -2, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Y[0]), "factorial of a negative integer")
	assert.Equal(t, 1.0, s.Y[2])

	_, _, ok := plot.Series{Y: []float64{math.NaN(), math.Inf(1)}}.Bounds()
	assert.False(t, ok)
}

func TestFunction_Fallback(t *testing.T) {
	x := cas.S("x")
	huge := new(big.Rat).SetFrac(new(big.Int).Lsh(big.NewInt(1), 70), big.NewInt(3))
	e := cas.MulOf(cas.R(huge), x)

	var fallbacks []string
	p := plot.New(plot.WithSamples(3), plot.OnFallback(func(e cas.Expr, err error) {
		assert.ErrorIs(t, err, lambdify.ErrNotLambdifiable)
		fallbacks = append(fallbacks, e.String())
	}))
	s, err := p.Function(e, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{e.String()}, fallbacks)

	want, _ := huge.Float64()
	assert.InDelta(t, 0, s.Y[0], 0)
	assert.InEpsilon(t, want, s.Y[1], 1e-12)
	assert.InEpsilon(t, 2*want, s.Y[2], 1e-12)
}

func TestFunction_FallbackPointErrors(t *testing.T) {
	x := cas.S("x")
	e := cas.AddOf(x, cas.AtomOf("EmptySet", "EmptySet"))
	s, err := plot.New(plot.WithSamples(2)).Function(e, 0, 1)
	require.NoError(t, err)
	for _, y := range s.Y {
		assert.True(t, math.IsNaN(y))
	}
}

func TestCallable(t *testing.T) {
	s := plot.New(plot.WithSamples(3)).Callable("cos", math.Cos, 0, math.Pi)
	assert.Equal(t, "cos", s.Label)
	assert.InDelta(t, 1, s.Y[0], 1e-15)
	assert.InDelta(t, 0, s.Y[1], 1e-15)
	assert.InDelta(t, -1, s.Y[2], 1e-15)
}

func TestParametric(t *testing.T) {
	tt := cas.S("t")
	p := plot.New(plot.WithSamples(5))
	s, err := p.Parametric(cas.CosOf(tt), cas.SinOf(tt), "t", 0, 2*math.Pi)
	require.NoError(t, err)
	assert.Equal(t, "(cos(t), sin(t))", s.Label)
	for i := range s.X {
		assert.InDelta(t, 1, s.X[i]*s.X[i]+s.Y[i]*s.Y[i], 1e-12)
	}

	_, err = p.Parametric(cas.S("u"), tt, "t", 0, 1)
	var unbound *lambdify.UnboundVariableError
	assert.ErrorAs(t, err, &unbound)
}

func TestSurface(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	for _, b := range []lambdify.Backend{lambdify.Interpreter(), lambdify.JavaScript()} {
		t.Run(b.Name(), func(t *testing.T) {
			p := plot.New(plot.WithLambdifyOptions(lambdify.WithBackend(b)))
			xs, ys := plot.Linspace(0, 2, 3), plot.Linspace(0, 1, 4)
			g, err := p.Surface(context.Background(), cas.AddOf(cas.MulOf(x, y), cas.N(1)), "x", "y", xs, ys)
			require.NoError(t, err)

			rows, cols := g.Z.Dims()
			require.Equal(t, len(ys), rows)
			require.Equal(t, len(xs), cols)
			for i, yv := range ys {
				for j, xv := range xs {
					assert.InDelta(t, xv*yv+1, g.Z.At(i, j), 1e-12)
				}
			}
		})
	}
}

func TestSurface_Errors(t *testing.T) {
	p := plot.New()
	x, y := cas.S("x"), cas.S("y")

	_, err := p.Surface(context.Background(), cas.MulOf(x, y), "x", "y", nil, []float64{1})
	assert.Error(t, err)

	_, err = p.Surface(context.Background(), cas.MulOf(x, cas.S("z")), "x", "y", []float64{1}, []float64{1})
	var unbound *lambdify.UnboundVariableError
	assert.ErrorAs(t, err, &unbound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Surface(ctx, cas.MulOf(x, y), "x", "y", []float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBroadcast(t *testing.T) {
	x, y := cas.S("x"), cas.S("y")
	fn, err := cas.Lambdify(cas.AddOf(x, cas.MulOf(cas.N(10), y)))
	require.NoError(t, err)

	got, err := plot.Broadcast(fn, []float64{1, 2, 3}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13}, got)

	got, err = plot.Broadcast(fn, []float64{0}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, got)

	_, err = plot.Broadcast(fn, []float64{1, 2}, []float64{1, 2, 3})
	assert.Error(t, err)

	_, err = plot.Broadcast(fn, []float64{1})
	var arity *lambdify.ArityError
	assert.ErrorAs(t, err, &arity)
}
