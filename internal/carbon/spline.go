package carbon

import (
	"fmt"
	"sort"
)

// NaturalCubicSpline interpolates through a set of knots with a piecewise cubic
// whose second derivative is zero at both ends.
type NaturalCubicSpline struct {
	xs []float64
	ys []float64

	// per-segment coefficients: y = ys[i] + b[i]t + c[i]t^2 + d[i]t^3, t = x - xs[i]
	b []float64
	c []float64
	d []float64
}

// NewNaturalCubicSpline fits a spline through (xs[i], ys[i]). xs must be
// strictly increasing and hold at least two knots.
func NewNaturalCubicSpline(xs, ys []float64) (*NaturalCubicSpline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("spline: %d x values but %d y values", n, len(ys))
	}
	if n < 2 {
		return nil, fmt.Errorf("spline: need at least 2 knots, got %d", n)
	}
	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		if h[i] <= 0 {
			return nil, fmt.Errorf("spline: x values must be strictly increasing (x[%d]=%v, x[%d]=%v)",
				i, xs[i], i+1, xs[i+1])
		}
	}

	// Second derivatives m[0..n-1], m[0] = m[n-1] = 0. Solve the interior
	// tridiagonal system with the Thomas algorithm.
	m := make([]float64, n)
	if n > 2 {
		size := n - 2
		diag := make([]float64, size)
		rhs := make([]float64, size)
		for k := 0; k < size; k++ {
			i := k + 1
			diag[k] = 2 * (h[i-1] + h[i])
			rhs[k] = 6 * ((ys[i+1]-ys[i])/h[i] - (ys[i]-ys[i-1])/h[i-1])
		}
		for k := 1; k < size; k++ {
			w := h[k] / diag[k-1]
			diag[k] -= w * h[k]
			rhs[k] -= w * rhs[k-1]
		}
		m[size] = rhs[size-1] / diag[size-1]
		for k := size - 2; k >= 0; k-- {
			m[k+1] = (rhs[k] - h[k+1]*m[k+2]) / diag[k]
		}
	}

	s := &NaturalCubicSpline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		b:  make([]float64, n-1),
		c:  make([]float64, n-1),
		d:  make([]float64, n-1),
	}
	for i := 0; i < n-1; i++ {
		s.b[i] = (ys[i+1]-ys[i])/h[i] - h[i]*(2*m[i]+m[i+1])/6
		s.c[i] = m[i] / 2
		s.d[i] = (m[i+1] - m[i]) / (6 * h[i])
	}
	return s, nil
}

// At evaluates the spline at x. A knot returns its y value exactly. Outside the
// knot range the first or last segment's cubic is extended.
func (s *NaturalCubicSpline) At(x float64) float64 {
	n := len(s.xs)
	i := sort.SearchFloat64s(s.xs, x)
	if i < n && s.xs[i] == x {
		return s.ys[i]
	}
	// segment index: the knot at or before x, bounded to [0, n-2]
	seg := i - 1
	if seg < 0 {
		seg = 0
	}
	if seg > n-2 {
		seg = n - 2
	}
	t := x - s.xs[seg]
	return s.ys[seg] + t*(s.b[seg]+t*(s.c[seg]+t*s.d[seg]))
}
