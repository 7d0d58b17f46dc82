package testutil

import (
	"math"
	"reflect"
	"slices"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

// ConvertToInt64 converts various numeric types to int64 for comparison.
// Returns the int64 value and a boolean indicating success.
func ConvertToInt64(i any) (int64, bool) {
	switch v := i.(type) {
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// NumericComparer compares decoded numbers regardless of their Go type,
// e.g. an int step against the float64 a structured message round trip yields.
// It applies only where both sides hold numbers.
var NumericComparer = cmp.FilterPath(func(p cmp.Path) bool {
	vx, vy := p.Last().Values()
	return isNumber(vx) && isNumber(vy)
}, cmp.Comparer(func(x, y any) bool {
	xInt, xOk := ConvertToInt64(x)
	yInt, yOk := ConvertToInt64(y)
	if xOk && yOk {
		return xInt == yInt
	}
	xFloat, xIsFloat := toFloat64(x)
	yFloat, yIsFloat := toFloat64(y)
	return xIsFloat && yIsFloat && math.Abs(xFloat-yFloat) < 1e-9
}))

func isNumber(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat64(i any) (float64, bool) {
	v := reflect.ValueOf(i)
	switch {
	case v.CanFloat():
		return v.Float(), true
	case v.CanInt():
		return float64(v.Int()), true
	case v.CanUint():
		return float64(v.Uint()), true
	}
	return 0, false
}

// BitwiseFloats treats two float64 values as equal only when their bit
// patterns match, so NaN payloads and signed zeros are compared exactly.
var BitwiseFloats = cmp.Comparer(func(x, y float64) bool {
	return math.Float64bits(x) == math.Float64bits(y)
})

// ApproxFloats compares float64 values within an absolute tolerance.
// Two NaNs are equal.
func ApproxFloats(tol float64) cmp.Option {
	return cmp.Comparer(func(x, y float64) bool {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.IsNaN(x) && math.IsNaN(y)
		}
		return math.Abs(x-y) <= tol
	})
}

// DenseRows returns the rows of m as nested slices for diffing with cmp.
func DenseRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// Seq returns n values counting up from start by step.
func Seq(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// GetMapKeys returns the sorted keys of a map.
func GetMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
