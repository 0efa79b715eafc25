package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalCubicSpline_TDPCurve(t *testing.T) {
	pts := DefaultTDPCurve.Points()
	s, err := NewNaturalCubicSpline(CurveUtilizations[:], pts[:])
	require.NoError(t, err)

	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0.12},
		{10, 0.32},
		{50, 0.75},
		{100, 1.02},
		{5, 0.22331783536585365},
		{25, 0.5403525152439025},
		{30, 0.5941219512195122},
		{75, 0.8944321646341463},
		// extrapolation follows the end segments
		{-5, 0.016682164634146342},
		{110, 1.0691707317073171},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.At(tt.x), 1e-12, "x=%v", tt.x)
	}
}

func TestNaturalCubicSpline_KnotsAreExact(t *testing.T) {
	xs := []float64{0, 10, 50, 100}
	ys := []float64{1.2748413710214186, 1.9435697915529846, 4.606254092546108, 7.934609468787513}
	s, err := NewNaturalCubicSpline(xs, ys)
	require.NoError(t, err)

	for i, x := range xs {
		assert.Equal(t, ys[i], s.At(x))
	}
}

func TestNaturalCubicSpline_TwoKnotsIsLinear(t *testing.T) {
	s, err := NewNaturalCubicSpline([]float64{0, 100}, []float64{10, 30})
	require.NoError(t, err)

	assert.InDelta(t, 20, s.At(50), 1e-12)
	assert.InDelta(t, 40, s.At(150), 1e-12)
}

func TestNewNaturalCubicSpline_Errors(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"length mismatch", []float64{0, 10}, []float64{1}},
		{"single knot", []float64{0}, []float64{1}},
		{"not increasing", []float64{0, 50, 10, 100}, []float64{1, 2, 3, 4}},
		{"duplicate x", []float64{0, 10, 10, 100}, []float64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNaturalCubicSpline(tt.xs, tt.ys)
			assert.Error(t, err)
		})
	}
}
