package estimation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// CatalogOptions configures a CatalogStrategy.
type CatalogOptions struct {
	// Vendor is the default cloud vendor. Required.
	Vendor string
	// InstanceType is the default instance type. Required.
	InstanceType string
	// Interpolation is "linear" (default) or "spline". Spline needs measured
	// curves and is only accepted for AWS.
	Interpolation string
	// ExpectedLifespan in seconds. Zero means the 4-year default.
	ExpectedLifespan float64

	// LoadTables replaces the embedded reference data.
	LoadTables TableLoader
	Logger     zerolog.Logger
	Metrics    *Metrics
}

// CatalogStrategy estimates cloud instances from the multi-vendor reference
// catalog. Rows may override the vendor and instance type.
//
// Outputs: energy (kWh) and carbon-embodied (gCO2e).
type CatalogStrategy struct {
	configured bool
	opts       CatalogOptions
	vendor     carbon.Vendor
	mode       carbon.Interpolation
	catalogs   map[carbon.Vendor]*lazyCatalog
}

// NewCatalogStrategy returns a configured CatalogStrategy.
func NewCatalogStrategy(opts CatalogOptions) (*CatalogStrategy, error) {
	s := &CatalogStrategy{}
	if err := s.Configure(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements Strategy.
func (s *CatalogStrategy) Name() string { return StrategyCatalog }

// Configure validates opts, resets any previously built catalogs and builds the
// catalog of the default vendor. It must not run concurrently with Execute.
func (s *CatalogStrategy) Configure(opts CatalogOptions) error {
	if opts.Vendor == "" {
		return carbon.ConfigValidationError(FieldVendor, "vendor is required")
	}
	vendor, err := carbon.ParseVendor(opts.Vendor)
	if err != nil {
		return err
	}
	if opts.InstanceType == "" {
		return carbon.ConfigValidationError(FieldInstanceType, "instance type is required")
	}
	mode, err := carbon.ParseInterpolation(opts.Interpolation, carbon.InterpolationLinear)
	if err != nil {
		return err
	}
	if err := checkVendorMode(vendor, mode); err != nil {
		return err
	}
	if err := validateLifespanOption(opts.ExpectedLifespan); err != nil {
		return err
	}

	catalogs := make(map[carbon.Vendor]*lazyCatalog, len(carbon.SupportedVendors()))
	for _, name := range carbon.SupportedVendors() {
		v := carbon.Vendor(name)
		catalogs[v] = newLazyCatalog(v, opts.LoadTables)
	}
	if err := catalogs[vendor].requireKnownInstance(opts.InstanceType, opts.Logger, opts.Metrics); err != nil {
		return err
	}

	*s = CatalogStrategy{
		configured: true,
		opts:       opts,
		vendor:     vendor,
		mode:       mode,
		catalogs:   catalogs,
	}
	return nil
}

// Execute implements Strategy.
func (s *CatalogStrategy) Execute(ctx context.Context, rows []Row) ([]Row, error) {
	if !s.configured {
		return nil, errNotConfigured(StrategyCatalog)
	}
	b := batch{strategy: StrategyCatalog, logger: s.opts.Logger, metrics: s.opts.Metrics}
	return b.run(ctx, rows, s.estimate)
}

func (s *CatalogStrategy) estimate(row Row) (Row, error) {
	vendor := s.vendor
	if name, ok, err := row.String(FieldVendor); err != nil {
		return nil, err
	} else if ok {
		if vendor, err = carbon.ParseVendor(name); err != nil {
			return nil, err
		}
	}
	instanceType := s.opts.InstanceType
	if name, ok, err := row.String(FieldInstanceType); err != nil {
		return nil, err
	} else if ok {
		instanceType = name
	}
	mode, err := rowInterpolation(row, s.mode)
	if err != nil {
		return nil, err
	}
	if err := checkVendorMode(vendor, mode); err != nil {
		return nil, err
	}
	obs, err := readObservation(row, s.opts.ExpectedLifespan)
	if err != nil {
		return nil, err
	}

	cat, err := s.catalogs[vendor].get(s.opts.Logger, s.opts.Metrics)
	if err != nil {
		return nil, err
	}
	est, err := estimateInstance(cat, instanceType, mode, obs, s.opts.Logger)
	if err != nil {
		return nil, err
	}

	out := row.Clone()
	out[FieldEnergy] = est.energyKWh
	out[FieldCarbonEmbodied] = est.embodiedGrams
	return out, nil
}

// checkVendorMode rejects spline interpolation for vendors that only publish
// min/max envelopes.
func checkVendorMode(vendor carbon.Vendor, mode carbon.Interpolation) error {
	if mode == carbon.InterpolationSpline && !vendor.SupportsCurve() {
		return carbon.UnsupportedValueError(FieldInterpolation, string(mode),
			fmt.Sprintf("interpolation method is not supported for vendor %s", vendor),
			[]string{string(carbon.InterpolationLinear)})
	}
	return nil
}
