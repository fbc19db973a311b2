package helper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{float64(1.5), 1.5},
		{" 42.25 ", 42.25},
		{"7", 7},
		{true, 1},
		{false, 0},
	}
	for _, c := range cases {
		got, err := ToFloat(c.in)
		require.NoError(t, err, "%v", c.in)
		assert.Equal(t, c.want, got)
	}

	for _, bad := range []interface{}{nil, "abc", "", "NaN", "inf", []interface{}{1}, map[string]interface{}{}} {
		_, err := ToFloat(bad)
		assert.ErrorIs(t, err, ErrNotNumeric, "%v", bad)
	}
}

func TestToInt(t *testing.T) {
	got, err := ToInt(float64(8.9))
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	got, err = ToInt(" 9 ")
	require.NoError(t, err)
	assert.Equal(t, 9, got)

	got, err = ToInt(true)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = ToInt(1e300)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)

	got, err = ToInt(-1e20)
	require.NoError(t, err)
	assert.Equal(t, math.MinInt, got)

	for _, bad := range []interface{}{nil, "8.5", "high", math.NaN()} {
		_, err := ToInt(bad)
		assert.ErrorIs(t, err, ErrNotInteger, "%v", bad)
	}
}

func TestIntegerString(t *testing.T) {
	assert.Equal(t, "100000000000000000000", IntegerString(1e20))
	assert.Equal(t, "-3", IntegerString(-3.7))
	assert.Equal(t, "11", IntegerString(" 11 "))
	assert.Equal(t, "1", IntegerString(true))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "btc", ToString("btc"))
	assert.Equal(t, "123", ToString(float64(123)))
	assert.Equal(t, "true", ToString(true))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3.33, Round(10.0/3.0, 2))
	assert.Equal(t, 2.0, Round(2, 2))
	assert.Equal(t, 0.67, Round(2.0/3.0, 2))
}
