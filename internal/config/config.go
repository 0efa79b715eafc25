// Package config loads estimation manifests: the strategy to run, its
// options, and the input rows.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/rshade/finfocus-energy-engine/internal/estimation"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the manifest is loaded.
const (
	EnvStrategy      = "ENERGY_ENGINE_STRATEGY"
	EnvInterpolation = "ENERGY_ENGINE_INTERPOLATION"
	EnvLogLevel      = "ENERGY_ENGINE_LOG_LEVEL"
	EnvDataDir       = "ENERGY_ENGINE_DATA_DIR"
)

// DefaultLogLevel applies when neither the manifest nor the environment sets
// one.
const DefaultLogLevel = "info"

// Manifest describes one estimation run.
type Manifest struct {
	Strategy string `yaml:"strategy"`
	LogLevel string `yaml:"log-level"`
	// DataDir holds refreshed reference sheets; empty means the embedded data.
	DataDir string `yaml:"data-dir"`

	CCF      CatalogConfig  `yaml:"ccf"`
	AWSCurve AWSCurveConfig `yaml:"aws-curve"`
	TDP      TDPConfig      `yaml:"tdp-curve"`

	Inputs []map[string]any `yaml:"inputs"`
}

// CatalogConfig holds the ccf strategy options.
type CatalogConfig struct {
	Vendor           string  `yaml:"vendor"`
	InstanceType     string  `yaml:"instance-type"`
	Interpolation    string  `yaml:"interpolation"`
	ExpectedLifespan float64 `yaml:"expected-lifespan"`
}

// AWSCurveConfig holds the aws-curve strategy options.
type AWSCurveConfig struct {
	InstanceType     string  `yaml:"instance-type"`
	Interpolation    string  `yaml:"interpolation"`
	ExpectedLifespan float64 `yaml:"expected-lifespan"`
}

// TDPConfig holds the tdp-curve strategy options. Curve, when set, lists the
// TDP ratios at 0, 10, 50 and 100 % utilization.
type TDPConfig struct {
	Interpolation      string    `yaml:"interpolation"`
	Curve              []float64 `yaml:"curve"`
	ThermalDesignPower float64   `yaml:"thermal-design-power"`
	ExpectedLifespan   float64   `yaml:"expected-lifespan"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, carbon.ConfigValidationError("manifest", err.Error())
	}
	m.Strategy = strings.ToLower(strings.TrimSpace(m.Strategy))
	return &m, nil
}

// ApplyEnv overrides manifest values from the environment. Invalid values are
// logged and ignored.
func (m *Manifest) ApplyEnv(lookup func(string) (string, bool), logger zerolog.Logger) {
	if v, ok := lookup(EnvStrategy); ok && strings.TrimSpace(v) != "" {
		name := strings.ToLower(strings.TrimSpace(v))
		if isStrategy(name) {
			m.Strategy = name
		} else {
			logger.Warn().Str("value", v).Strs("supported", estimation.Strategies()).
				Msg("invalid " + EnvStrategy + ", keeping manifest strategy")
		}
	}

	if v, ok := lookup(EnvInterpolation); ok && strings.TrimSpace(v) != "" {
		if mode, err := carbon.ParseInterpolation(v, ""); err == nil {
			m.CCF.Interpolation = string(mode)
			m.AWSCurve.Interpolation = string(mode)
			m.TDP.Interpolation = string(mode)
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvInterpolation + ", keeping manifest interpolation")
		}
	}

	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v))); err == nil {
			m.LogLevel = strings.ToLower(strings.TrimSpace(v))
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvLogLevel + ", keeping manifest log level")
		}
	}

	if v, ok := lookup(EnvDataDir); ok && strings.TrimSpace(v) != "" {
		m.DataDir = strings.TrimSpace(v)
	}

	logger.Debug().
		Str("strategy", m.Strategy).
		Str("data_dir", m.DataDir).
		Str("log_level", m.LogLevel).
		Msg("manifest configuration applied")
}

// Level returns the manifest's log level, DefaultLogLevel when unset.
func (m *Manifest) Level() (zerolog.Level, error) {
	s := m.LogLevel
	if s == "" {
		s = DefaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, carbon.ConfigValidationError("log-level", fmt.Sprintf("unknown log level %q", s))
	}
	return lvl, nil
}

// Rows returns the manifest inputs as estimation rows.
func (m *Manifest) Rows() []estimation.Row {
	rows := make([]estimation.Row, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		rows = append(rows, estimation.Row(in))
	}
	return rows
}

func isStrategy(name string) bool {
	for _, s := range estimation.Strategies() {
		if s == name {
			return true
		}
	}
	return false
}
