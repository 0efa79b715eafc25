package estimation

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// TDPOptions configures a TDPStrategy.
type TDPOptions struct {
	// Interpolation is "spline" (default) or "linear".
	Interpolation string
	// Curve is the ratio of TDP drawn at 0/10/50/100 % utilization. Nil means
	// carbon.DefaultTDPCurve.
	Curve *carbon.Curve
	// ThermalDesignPower in watts, used for rows without
	// cpu/thermal-design-power.
	ThermalDesignPower float64
	// ExpectedLifespan in seconds. Zero means the 4-year default.
	ExpectedLifespan float64

	Logger  zerolog.Logger
	Metrics *Metrics
}

// TDPStrategy scales a generic power curve by the CPU's thermal design power,
// optionally prorated to a fraction of the vCPUs.
//
// Outputs: energy-cpu (kWh), and carbon-embodied (gCO2e) for rows carrying
// device/emissions-embodied.
type TDPStrategy struct {
	configured bool
	opts       TDPOptions
	mode       carbon.Interpolation
	curve      carbon.Curve
}

// NewTDPStrategy returns a configured TDPStrategy.
func NewTDPStrategy(opts TDPOptions) (*TDPStrategy, error) {
	s := &TDPStrategy{}
	if err := s.Configure(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements Strategy.
func (s *TDPStrategy) Name() string { return StrategyTDP }

// Configure validates opts. It must not run concurrently with Execute.
func (s *TDPStrategy) Configure(opts TDPOptions) error {
	mode, err := carbon.ParseInterpolation(opts.Interpolation, carbon.InterpolationSpline)
	if err != nil {
		return err
	}
	curve := carbon.DefaultTDPCurve
	if opts.Curve != nil {
		if err := opts.Curve.Validate(); err != nil {
			return err
		}
		curve = *opts.Curve
	}
	if opts.ThermalDesignPower < 0 {
		return carbon.ConfigValidationError(FieldThermalDesignPower, "must be a positive number of watts")
	}
	if err := validateLifespanOption(opts.ExpectedLifespan); err != nil {
		return err
	}
	*s = TDPStrategy{configured: true, opts: opts, mode: mode, curve: curve}
	return nil
}

// Execute implements Strategy.
func (s *TDPStrategy) Execute(ctx context.Context, rows []Row) ([]Row, error) {
	if !s.configured {
		return nil, errNotConfigured(StrategyTDP)
	}
	b := batch{strategy: StrategyTDP, logger: s.opts.Logger, metrics: s.opts.Metrics}
	return b.run(ctx, rows, s.estimate)
}

func (s *TDPStrategy) estimate(row Row) (Row, error) {
	tdp, ok, err := row.Number(FieldThermalDesignPower)
	if err != nil {
		return nil, err
	}
	if !ok {
		tdp = s.opts.ThermalDesignPower
	}
	if !(tdp > 0) {
		return nil, carbon.InputValidationError(FieldThermalDesignPower, "is required and must be a positive number of watts")
	}
	share, err := readAllocation(row)
	if err != nil {
		return nil, err
	}
	mode, err := rowInterpolation(row, s.mode)
	if err != nil {
		return nil, err
	}
	obs, err := readObservation(row, s.opts.ExpectedLifespan)
	if err != nil {
		return nil, err
	}

	watts, err := carbon.Wattage(s.curve.Scale(tdp), obs.utilizationPercent, mode)
	if err != nil {
		return nil, err
	}
	ratio := share.Reserved / share.Total

	out := row.Clone()
	out[FieldEnergyCPU] = carbon.EnergyKWh(watts*ratio, obs.durationSeconds)

	embodiedKg, ok, err := row.Number(FieldEmissionsEmbodied)
	if err != nil {
		return nil, err
	}
	if ok {
		if embodiedKg < 0 {
			return nil, carbon.InputValidationError(FieldEmissionsEmbodied, "must not be negative")
		}
		out[FieldCarbonEmbodied] = obs.embodiedEstimator().EstimateGrams(embodiedKg, obs.durationSeconds, share)
	}
	return out, nil
}

// readAllocation reads the vcpus-allocated/vcpus-total pair. Rows without
// the pair reserve the whole device.
func readAllocation(row Row) (carbon.Share, error) {
	allocated, hasAllocated, err := row.Number(FieldVCPUsAllocated)
	if err != nil {
		return carbon.Share{}, err
	}
	total, hasTotal, err := row.Number(FieldVCPUsTotal)
	if err != nil {
		return carbon.Share{}, err
	}
	switch {
	case !hasAllocated && !hasTotal:
		return carbon.Share{Reserved: 1, Total: 1}, nil
	case !hasTotal:
		return carbon.Share{}, carbon.InputValidationError(FieldVCPUsTotal, "is required when vcpus-allocated is set")
	case !hasAllocated:
		return carbon.Share{}, carbon.InputValidationError(FieldVCPUsAllocated, "is required when vcpus-total is set")
	}
	if !(total > 0) {
		return carbon.Share{}, carbon.InputValidationError(FieldVCPUsTotal, "must be a positive number")
	}
	if !(allocated >= 0) || allocated > total {
		return carbon.Share{}, carbon.InputValidationError(FieldVCPUsAllocated, "must be between 0 and vcpus-total")
	}
	return carbon.Share{Reserved: allocated, Total: total}, nil
}
