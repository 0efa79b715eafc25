package estimation

import (
	"math"

	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// observation holds the fields every strategy reads from a row.
type observation struct {
	durationSeconds    float64
	utilizationPercent float64
	lifespanYears      float64
}

// readObservation reads duration, utilization and the optional
// expected-lifespan. defaultLifespanSeconds applies when the row carries no
// lifespan; zero means the carbon default.
func readObservation(row Row, defaultLifespanSeconds float64) (observation, error) {
	duration, err := requiredNumber(row, FieldDuration)
	if err != nil {
		return observation{}, err
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return observation{}, carbon.InputValidationError(FieldDuration, "must be a positive number of seconds")
	}

	utilization, err := requiredNumber(row, FieldCPUUtilization)
	if err != nil {
		return observation{}, err
	}

	lifespan, ok, err := row.Number(FieldExpectedLifespan)
	if err != nil {
		return observation{}, err
	}
	if ok && !(lifespan > 0) {
		return observation{}, carbon.InputValidationError(FieldExpectedLifespan, "must be a positive number of seconds")
	}
	if !ok {
		lifespan = defaultLifespanSeconds
	}

	obs := observation{durationSeconds: duration, utilizationPercent: utilization}
	if lifespan > 0 {
		obs.lifespanYears = carbon.LifespanYearsFromSeconds(lifespan)
	}
	return obs, nil
}

func (o observation) embodiedEstimator() *carbon.EmbodiedCarbonEstimator {
	// LifespanYears of zero falls back to the default.
	return &carbon.EmbodiedCarbonEstimator{LifespanYears: o.lifespanYears}
}

func requiredNumber(row Row, key string) (float64, error) {
	v, ok, err := row.Number(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, carbon.InputValidationError(key, "is required")
	}
	return v, nil
}

// rowInterpolation returns the row's interpolation override, or def.
func rowInterpolation(row Row, def carbon.Interpolation) (carbon.Interpolation, error) {
	s, ok, err := row.String(FieldInterpolation)
	if err != nil || !ok {
		return def, err
	}
	return carbon.ParseInterpolation(s, def)
}

func validateLifespanOption(seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return carbon.ConfigValidationError("expected-lifespan", "must be a positive number of seconds")
	}
	return nil
}
