package carbon

import (
	"fmt"
	"math"
)

// Wattage estimates the power draw in watts at utilizationPercent (0-100).
//
// A Curve is evaluated with the requested mode. An Envelope is always linear
// between its bounds, whatever the mode.
func Wattage(c Consumption, utilizationPercent float64, mode Interpolation) (float64, error) {
	switch v := c.(type) {
	case Curve:
		switch mode {
		case InterpolationSpline:
			return splineWattage(v, utilizationPercent)
		case InterpolationLinear:
			return linearWattage(v, utilizationPercent), nil
		default:
			return 0, UnsupportedValueError("interpolation", string(mode), "interpolation method is not supported",
				[]string{string(InterpolationSpline), string(InterpolationLinear)})
		}
	case Envelope:
		return EnvelopeWattage(v, utilizationPercent), nil
	default:
		return 0, fmt.Errorf("carbon: unknown consumption type %T", c)
	}
}

// EnvelopeWattage returns min + (max - min) x utilization/100.
func EnvelopeWattage(e Envelope, utilizationPercent float64) float64 {
	return e.MinWatts + (e.MaxWatts-e.MinWatts)*utilizationPercent/100
}

func splineWattage(c Curve, utilizationPercent float64) (float64, error) {
	ys := c.Points()
	s, err := NewNaturalCubicSpline(CurveUtilizations[:], ys[:])
	if err != nil {
		return 0, err
	}
	return s.At(utilizationPercent), nil
}

// linearWattage interpolates between the two breakpoints bracketing the
// utilization. Utilization outside [0, 100] is clamped to the nearest end.
func linearWattage(c Curve, utilizationPercent float64) float64 {
	ys := c.Points()
	xs := CurveUtilizations
	if math.IsNaN(utilizationPercent) {
		return math.NaN()
	}
	u := Clamp(utilizationPercent, xs[0], xs[len(xs)-1])
	for i := range xs {
		if u == xs[i] {
			return ys[i]
		}
	}
	for i := 0; i < len(xs)-1; i++ {
		if u < xs[i+1] {
			ratio := (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
			return ys[i] + (u-xs[i])*ratio
		}
	}
	return ys[len(ys)-1]
}
