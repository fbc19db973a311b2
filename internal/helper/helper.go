package helper

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNotInteger = errors.New("value is not an integer")
)

// ToFloat coerces a decoded JSON value into a finite float64. Numeric
// strings are trimmed before parsing and booleans count as 1 or 0.
func ToFloat(v interface{}) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, ErrNotNumeric
		}
		f = parsed
	default:
		return 0, ErrNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// maxIntFloat is 2^63, the first float64 beyond math.MaxInt.
const maxIntFloat = float64(1 << 63)

// ToInt coerces a decoded JSON value into an int. Floats are truncated
// toward zero and clamped to the int range; strings must hold a base-10
// integer.
func ToInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		switch {
		case math.IsNaN(t) || math.IsInf(t, 0):
			return 0, ErrNotInteger
		case t >= maxIntFloat:
			return math.MaxInt, nil
		case t <= -maxIntFloat:
			return math.MinInt, nil
		}
		return int(t), nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, ErrNotInteger
		}
		return n, nil
	default:
		return 0, ErrNotInteger
	}
}

// IntegerString renders the integer part of a decoded value, without the
// clamping ToInt applies to large floats.
func IntegerString(v interface{}) string {
	if f, ok := v.(float64); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(math.Trunc(f), 'f', 0, 64)
	}
	n, err := ToInt(v)
	if err != nil {
		return ToString(v)
	}
	return strconv.Itoa(n)
}

// ToString renders a decoded JSON value as text; nil becomes "".
func ToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
