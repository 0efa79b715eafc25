package carbon

import (
	"fmt"
	"strings"
)

// Interpolation selects how wattage is estimated between curve breakpoints.
type Interpolation string

const (
	InterpolationSpline Interpolation = "spline"
	InterpolationLinear Interpolation = "linear"
)

// ParseInterpolation accepts "spline" or "linear" (case-insensitive). An empty
// string returns def.
func ParseInterpolation(s string, def Interpolation) (Interpolation, error) {
	switch m := Interpolation(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return def, nil
	case InterpolationSpline, InterpolationLinear:
		return m, nil
	}
	return "", UnsupportedValueError("interpolation", s, "interpolation method is not supported",
		[]string{string(InterpolationSpline), string(InterpolationLinear)})
}

// Consumption describes how an instance draws power as utilization changes.
// It is either a Curve or an Envelope.
type Consumption interface {
	consumption()
}

// Curve is a measured 4-point power curve in watts at 0, 10, 50 and 100 %
// utilization.
type Curve struct {
	Idle    float64
	Ten     float64
	Fifty   float64
	Hundred float64
}

// Envelope is a linear power range in watts between idle and full load.
type Envelope struct {
	MinWatts float64
	MaxWatts float64
}

func (Curve) consumption()    {}
func (Envelope) consumption() {}

// Points returns the curve's wattages in CurveUtilizations order.
func (c Curve) Points() [4]float64 {
	return [4]float64{c.Idle, c.Ten, c.Fifty, c.Hundred}
}

// Scale multiplies every point by f, turning a ratio curve into watts.
func (c Curve) Scale(f float64) Curve {
	return Curve{Idle: c.Idle * f, Ten: c.Ten * f, Fifty: c.Fifty * f, Hundred: c.Hundred * f}
}

// IsZero reports whether no point carries a measurement.
func (c Curve) IsZero() bool {
	return c == Curve{}
}

// Validate rejects negative or non-finite points.
func (c Curve) Validate() error {
	for i, w := range c.Points() {
		if w < 0 || isNonFinite(w) {
			return ConfigValidationError("curve",
				fmt.Sprintf("point at %s%% must be a finite non-negative number", formatFloat(CurveUtilizations[i])))
		}
	}
	return nil
}

// Scale multiplies both bounds by f (typically a vCPU count).
func (e Envelope) Scale(f float64) Envelope {
	return Envelope{MinWatts: e.MinWatts * f, MaxWatts: e.MaxWatts * f}
}
