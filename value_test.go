package lambdify_test

import (
	"math"
	"math/big"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/lambdify"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    lambdify.Value
		want string
	}{
		{lambdify.Int(-4), "-4"},
		{lambdify.Rat(6, 4), "3/2"},
		{lambdify.Float(0.25), "0.25"},
		{lambdify.Bool(true), "true"},
		{lambdify.Complex(complex(1, -2)), "(1-2i)"},
		{lambdify.Complex(cmplx.Inf()), "zoo"},
		{lambdify.Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestValue_Conversions(t *testing.T) {
	r, ok := lambdify.Rat(1, 3).Rat()
	require.True(t, ok)
	assert.Equal(t, "1/3", r.RatString())

	// Rat returns a copy.
	r.SetInt64(9)
	again, _ := lambdify.Rat(1, 3).Rat()
	assert.Equal(t, "1/3", again.RatString())

	_, ok = lambdify.Float(1).Rat()
	assert.False(t, ok)

	f, ok := lambdify.Bool(true).Float64()
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	_, ok = lambdify.Complex(1i).Float64()
	assert.False(t, ok)

	assert.Equal(t, complex(0.5, 0), lambdify.Rat(1, 2).Complex128())
	assert.True(t, lambdify.Int(4).IsInteger())
	assert.False(t, lambdify.Rat(1, 2).IsInteger())
	assert.False(t, lambdify.Float(4).IsInteger())
}

func TestValue_BigRatCopies(t *testing.T) {
	src := big.NewRat(5, 7)
	v := lambdify.BigRat(src)
	src.SetInt64(0)
	assert.Equal(t, "5/7", v.String())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, lambdify.Rat(2, 4).Equal(lambdify.Rat(1, 2)))
	assert.False(t, lambdify.Int(1).Equal(lambdify.Float(1)), "kinds differ")
	assert.False(t, lambdify.Float(math.NaN()).Equal(lambdify.Float(math.NaN())))
	assert.True(t, lambdify.Value{}.Equal(lambdify.Value{}))
}

func TestValue_Truth(t *testing.T) {
	assert.True(t, lambdify.Int(2).Truth())
	assert.False(t, lambdify.Rat(0, 1).Truth())
	assert.False(t, lambdify.Float(0).Truth())
	assert.True(t, lambdify.Complex(1i).Truth())
	assert.False(t, lambdify.Value{}.Truth())
}

func TestReal(t *testing.T) {
	f, err := lambdify.Real(lambdify.Complex(complex(3, 0)))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	f, err = lambdify.Real(lambdify.Bool(false))
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)

	_, err = lambdify.Real(lambdify.Complex(complex(3, 1)))
	assert.ErrorIs(t, err, lambdify.ErrNotReal)

	_, err = lambdify.Real(lambdify.Value{})
	assert.ErrorIs(t, err, lambdify.ErrNotReal)
}
