package estimation

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// AWSCurveOptions configures an AWSCurveStrategy.
type AWSCurveOptions struct {
	// InstanceType is used for rows without cloud/instance-type.
	InstanceType string
	// Interpolation is "spline" (default) or "linear".
	Interpolation string
	// ExpectedLifespan in seconds. Zero means the 4-year default.
	ExpectedLifespan float64

	LoadTables TableLoader
	Logger     zerolog.Logger
	Metrics    *Metrics
}

// AWSCurveStrategy estimates AWS instances from their measured 4-point power
// curves.
//
// Outputs: energy-cpu (kWh) and carbon-embodied (gCO2e).
type AWSCurveStrategy struct {
	configured bool
	opts       AWSCurveOptions
	mode       carbon.Interpolation
	catalog    *lazyCatalog
}

// NewAWSCurveStrategy returns a configured AWSCurveStrategy.
func NewAWSCurveStrategy(opts AWSCurveOptions) (*AWSCurveStrategy, error) {
	s := &AWSCurveStrategy{}
	if err := s.Configure(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements Strategy.
func (s *AWSCurveStrategy) Name() string { return StrategyAWSCurve }

// Configure validates opts. A default instance type must be listed in the AWS
// catalog. It must not run concurrently with Execute.
func (s *AWSCurveStrategy) Configure(opts AWSCurveOptions) error {
	mode, err := carbon.ParseInterpolation(opts.Interpolation, carbon.InterpolationSpline)
	if err != nil {
		return err
	}
	if err := validateLifespanOption(opts.ExpectedLifespan); err != nil {
		return err
	}
	catalog := newLazyCatalog(carbon.VendorAWS, opts.LoadTables)
	if opts.InstanceType != "" {
		if err := catalog.requireKnownInstance(opts.InstanceType, opts.Logger, opts.Metrics); err != nil {
			return err
		}
	}
	*s = AWSCurveStrategy{
		configured: true,
		opts:       opts,
		mode:       mode,
		catalog:    catalog,
	}
	return nil
}

// Execute implements Strategy.
func (s *AWSCurveStrategy) Execute(ctx context.Context, rows []Row) ([]Row, error) {
	if !s.configured {
		return nil, errNotConfigured(StrategyAWSCurve)
	}
	b := batch{strategy: StrategyAWSCurve, logger: s.opts.Logger, metrics: s.opts.Metrics}
	return b.run(ctx, rows, s.estimate)
}

func (s *AWSCurveStrategy) estimate(row Row) (Row, error) {
	instanceType, ok, err := row.String(FieldInstanceType)
	if err != nil {
		return nil, err
	}
	if !ok {
		if s.opts.InstanceType == "" {
			return nil, carbon.InputValidationError(FieldInstanceType, "is required")
		}
		instanceType = s.opts.InstanceType
	}
	mode, err := rowInterpolation(row, s.mode)
	if err != nil {
		return nil, err
	}
	obs, err := readObservation(row, s.opts.ExpectedLifespan)
	if err != nil {
		return nil, err
	}

	cat, err := s.catalog.get(s.opts.Logger, s.opts.Metrics)
	if err != nil {
		return nil, err
	}
	est, err := estimateInstance(cat, instanceType, mode, obs, s.opts.Logger)
	if err != nil {
		return nil, err
	}

	out := row.Clone()
	out[FieldEnergyCPU] = est.energyKWh
	out[FieldCarbonEmbodied] = est.embodiedGrams
	return out, nil
}
