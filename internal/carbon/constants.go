// Package carbon estimates instance energy and amortized embodied emissions
// using Cloud Carbon Footprint (CCF) reference data.
package carbon

const (
	// SecondsPerHour converts row durations to hours.
	SecondsPerHour = 3600.0

	// WattsPerKilowatt converts watt-hours to kWh.
	WattsPerKilowatt = 1000.0

	// GramsPerKilogram converts embodied totals (kgCO2e) to gCO2e.
	GramsPerKilogram = 1000.0

	// HoursPerYear is the lifespan unit used for amortization.
	HoursPerYear = 8760.0

	// DefaultLifespanYears is the hardware lifespan used when a row does not
	// supply expected-lifespan.
	// Source: CCF methodology (4 years).
	DefaultLifespanYears = 4.0

	// AverageArchitecture is the synthetic usage entry averaged over every
	// architecture a vendor reports. Used as the fallback bucket.
	AverageArchitecture = "Average"
)

// CurveUtilizations are the fixed utilization breakpoints (percent) of a
// 4-point consumption curve.
var CurveUtilizations = [4]float64{0, 10, 50, 100}

// DefaultTDPCurve is the TDP-relative power curve measured by Teads for
// generic CPUs: wattage = TDP x ratio at 0, 10, 50 and 100 % utilization.
var DefaultTDPCurve = Curve{Idle: 0.12, Ten: 0.32, Fifty: 0.75, Hundred: 1.02}
