package config

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/rshade/finfocus-energy-engine/internal/estimation"
)

// Deps are the shared collaborators handed to every strategy.
type Deps struct {
	Logger     zerolog.Logger
	Metrics    *estimation.Metrics
	LoadTables estimation.TableLoader
}

// NewStrategy builds and configures the strategy the manifest selects. The
// manifest data-dir is used unless deps carries its own loader.
func NewStrategy(m *Manifest, deps Deps) (estimation.Strategy, error) {
	if deps.LoadTables == nil && m.DataDir != "" {
		deps.LoadTables = estimation.DirTableLoader(m.DataDir)
	}
	switch m.Strategy {
	case estimation.StrategyCatalog:
		s, err := estimation.NewCatalogStrategy(estimation.CatalogOptions{
			Vendor:           m.CCF.Vendor,
			InstanceType:     m.CCF.InstanceType,
			Interpolation:    m.CCF.Interpolation,
			ExpectedLifespan: m.CCF.ExpectedLifespan,
			LoadTables:       deps.LoadTables,
			Logger:           deps.Logger,
			Metrics:          deps.Metrics,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case estimation.StrategyAWSCurve:
		s, err := estimation.NewAWSCurveStrategy(estimation.AWSCurveOptions{
			InstanceType:     m.AWSCurve.InstanceType,
			Interpolation:    m.AWSCurve.Interpolation,
			ExpectedLifespan: m.AWSCurve.ExpectedLifespan,
			LoadTables:       deps.LoadTables,
			Logger:           deps.Logger,
			Metrics:          deps.Metrics,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case estimation.StrategyTDP:
		opts := estimation.TDPOptions{
			Interpolation:      m.TDP.Interpolation,
			ThermalDesignPower: m.TDP.ThermalDesignPower,
			ExpectedLifespan:   m.TDP.ExpectedLifespan,
			Logger:             deps.Logger,
			Metrics:            deps.Metrics,
		}
		if m.TDP.Curve != nil {
			curve, err := tdpCurve(m.TDP.Curve)
			if err != nil {
				return nil, err
			}
			opts.Curve = &curve
		}
		s, err := estimation.NewTDPStrategy(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "":
		return nil, carbon.ConfigValidationError("strategy", "strategy is required")
	default:
		return nil, carbon.UnsupportedValueError("strategy", m.Strategy, "strategy is not supported", estimation.Strategies())
	}
}

func tdpCurve(points []float64) (carbon.Curve, error) {
	if len(points) != len(carbon.CurveUtilizations) {
		return carbon.Curve{}, carbon.ConfigValidationError("curve",
			fmt.Sprintf("expected %d points at 0, 10, 50 and 100%%, got %d", len(carbon.CurveUtilizations), len(points)))
	}
	return carbon.Curve{Idle: points[0], Ten: points[1], Fifty: points[2], Hundred: points[3]}, nil
}
