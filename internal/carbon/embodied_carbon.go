package carbon

import "fmt"

// EmbodiedCarbonEstimator amortizes an instance's manufacturing emissions over
// the hardware lifespan and the share of the platform the workload reserves.
type EmbodiedCarbonEstimator struct {
	// LifespanYears is the expected hardware lifespan. Zero or negative means
	// DefaultLifespanYears.
	LifespanYears float64
}

// NewEmbodiedCarbonEstimator creates an estimator with the CCF 4-year lifespan.
func NewEmbodiedCarbonEstimator() *EmbodiedCarbonEstimator {
	return &EmbodiedCarbonEstimator{LifespanYears: DefaultLifespanYears}
}

// Share is the fraction of a platform's resources reserved by the workload.
type Share struct {
	Reserved float64
	Total    float64
}

// InstanceShare reserves an instance's vCPUs out of its platform's vCPUs.
func InstanceShare(rec InstanceRecord) Share {
	return Share{Reserved: float64(rec.VCPUs), Total: float64(rec.MaxVCPUs)}
}

// EstimateGrams returns the embodied emissions in gCO2e attributable to
// durationSeconds of use:
//
//	totalKg x 1000 x (durationHours / (8760 x lifespanYears)) x (reserved / total)
func (e *EmbodiedCarbonEstimator) EstimateGrams(totalKg, durationSeconds float64, share Share) float64 {
	durationHours := durationSeconds / SecondsPerHour
	lifespanHours := HoursPerYear * e.lifespan()
	return totalKg * GramsPerKilogram * (durationHours / lifespanHours) * (share.Reserved / share.Total)
}

// EstimateInstanceGrams amortizes rec's embodied total with its own vCPU share.
func (e *EmbodiedCarbonEstimator) EstimateInstanceGrams(rec InstanceRecord, durationSeconds float64) float64 {
	return e.EstimateGrams(rec.EmbodiedKg, durationSeconds, InstanceShare(rec))
}

// Detail returns a human-readable explanation of the amortization.
func (e *EmbodiedCarbonEstimator) Detail(totalKg, durationSeconds float64, share Share) string {
	return fmt.Sprintf("Embodied carbon: %s kgCO2e amortized over %s years, %s/%s vCPUs of platform for %.2f hours",
		formatFloat(totalKg), formatFloat(e.lifespan()), formatFloat(share.Reserved), formatFloat(share.Total),
		durationSeconds/SecondsPerHour)
}

func (e *EmbodiedCarbonEstimator) lifespan() float64 {
	if e.LifespanYears <= 0 {
		return DefaultLifespanYears
	}
	return e.LifespanYears
}

// LifespanYearsFromSeconds converts an expected-lifespan in seconds to years.
func LifespanYearsFromSeconds(seconds float64) float64 {
	return seconds / SecondsPerHour / HoursPerYear
}
