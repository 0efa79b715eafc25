package estimation

import (
	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// instanceEstimate is the energy and embodied share of one catalog instance
// over one observation.
type instanceEstimate struct {
	energyKWh     float64
	embodiedGrams float64
}

func estimateInstance(
	cat *carbon.Catalog,
	instanceType string,
	mode carbon.Interpolation,
	obs observation,
	logger zerolog.Logger,
) (instanceEstimate, error) {
	rec, err := cat.Lookup(instanceType)
	if err != nil {
		return instanceEstimate{}, err
	}
	watts, err := carbon.Wattage(rec.Consumption, obs.utilizationPercent, mode)
	if err != nil {
		return instanceEstimate{}, err
	}
	est := obs.embodiedEstimator()
	share := carbon.InstanceShare(rec)

	if e := logger.Debug(); e.Enabled() {
		e.Str("vendor", string(rec.Vendor)).
			Str("instance_type", rec.Name).
			Float64("watts", watts).
			Str("embodied", est.Detail(rec.EmbodiedKg, obs.durationSeconds, share)).
			Msg("instance estimated")
	}

	return instanceEstimate{
		energyKWh:     carbon.EnergyKWh(watts, obs.durationSeconds),
		embodiedGrams: est.EstimateGrams(rec.EmbodiedKg, obs.durationSeconds, share),
	}, nil
}
