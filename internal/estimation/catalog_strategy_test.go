package estimation

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const m5nLargeEmbodiedHour = 0.9577090468036529

func TestCatalogStrategy_M5nLarge(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large"})
	require.NoError(t, err)

	got, err := s.Execute(context.Background(), utilizationRows(3600, 10, 50, 100))
	require.NoError(t, err)

	want := utilizationRows(3600, 10, 50, 100)
	energies := []float64{0.0019435697915529846, 0.0046062540925461085, 0.007934609468787513}
	for i := range want {
		want[i][FieldEnergy] = energies[i]
		want[i][FieldCarbonEmbodied] = m5nLargeEmbodiedHour
	}
	assertRows(t, want, got)
}

func TestCatalogStrategy_EmbodiedIndependentOfUtilization(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "gcp", InstanceType: "n2-standard-2"})
	require.NoError(t, err)

	got, err := s.Execute(context.Background(), utilizationRows(3600, 0, 37, 100))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, got[0][FieldCarbonEmbodied], got[1][FieldCarbonEmbodied])
	assert.Equal(t, got[0][FieldCarbonEmbodied], got[2][FieldCarbonEmbodied])
	assert.Less(t, got[0][FieldEnergy].(float64), got[2][FieldEnergy].(float64))
}

func TestCatalogStrategy_EnvelopeEnergy(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "gcp", InstanceType: "n2-standard-2"})
	require.NoError(t, err)

	got, err := s.Execute(context.Background(), utilizationRows(3600, 50))
	require.NoError(t, err)

	// Cascade Lake 0.64-3.97 W per vCPU, 2 vCPUs.
	watts := 2*0.64 + (2*3.97-2*0.64)*0.5
	assert.InDelta(t, watts/1000, got[0][FieldEnergy], 1e-12)
}

func TestCatalogStrategy_RowOverrides(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "gcp", InstanceType: "n2-standard-2"})
	require.NoError(t, err)

	rows := []Row{{
		FieldDuration:       "3600",
		FieldCPUUtilization: "10",
		FieldVendor:         "AWS",
		FieldInstanceType:   "m5n.large",
	}}
	got, err := s.Execute(context.Background(), rows)
	require.NoError(t, err)
	assert.InDelta(t, 0.0019435697915529846, got[0][FieldEnergy], 1e-12)
	assert.InDelta(t, m5nLargeEmbodiedHour, got[0][FieldCarbonEmbodied], 1e-12)
}

func TestCatalogStrategy_ExpectedLifespan(t *testing.T) {
	eightYears := 8 * carbon.HoursPerYear * carbon.SecondsPerHour

	t.Run("row field", func(t *testing.T) {
		s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large"})
		require.NoError(t, err)
		rows := utilizationRows(3600, 50)
		rows[0][FieldExpectedLifespan] = eightYears

		got, err := s.Execute(context.Background(), rows)
		require.NoError(t, err)
		assert.InDelta(t, m5nLargeEmbodiedHour/2, got[0][FieldCarbonEmbodied], 1e-12)
	})

	t.Run("option", func(t *testing.T) {
		s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large", ExpectedLifespan: eightYears})
		require.NoError(t, err)

		got, err := s.Execute(context.Background(), utilizationRows(3600, 50))
		require.NoError(t, err)
		assert.InDelta(t, m5nLargeEmbodiedHour/2, got[0][FieldCarbonEmbodied], 1e-12)
	})
}

func TestCatalogStrategy_Configure(t *testing.T) {
	tests := []struct {
		name    string
		opts    CatalogOptions
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing vendor",
			opts:    CatalogOptions{InstanceType: "m5.large"},
			wantErr: carbon.ErrConfigValidation,
			wantMsg: FieldVendor,
		},
		{
			name:    "missing instance type",
			opts:    CatalogOptions{Vendor: "aws"},
			wantErr: carbon.ErrConfigValidation,
			wantMsg: FieldInstanceType,
		},
		{
			name:    "unknown vendor",
			opts:    CatalogOptions{Vendor: "oracle", InstanceType: "x"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "aws, gcp, azure",
		},
		{
			name:    "spline for envelope vendor",
			opts:    CatalogOptions{Vendor: "azure", InstanceType: "Standard_B2s", Interpolation: "spline"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "azure",
		},
		{
			name:    "unknown interpolation",
			opts:    CatalogOptions{Vendor: "aws", InstanceType: "m5.large", Interpolation: "cubic"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "cubic",
		},
		{
			name:    "negative lifespan",
			opts:    CatalogOptions{Vendor: "aws", InstanceType: "m5.large", ExpectedLifespan: -1},
			wantErr: carbon.ErrConfigValidation,
		},
		{
			name:    "unknown instance type",
			opts:    CatalogOptions{Vendor: "aws", InstanceType: "z9.mega"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "z9.mega",
		},
		{
			name:    "instance type of another vendor",
			opts:    CatalogOptions{Vendor: "gcp", InstanceType: "m5n.large"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "gcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s CatalogStrategy
			err := s.Configure(tt.opts)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)

			_, err = s.Execute(context.Background(), utilizationRows(3600, 50))
			assert.ErrorIs(t, err, carbon.ErrConfigValidation, "failed Configure leaves the strategy unconfigured")
		})
	}
}

func TestCatalogStrategy_SplineAllowedForAWS(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large", Interpolation: "spline"})
	require.NoError(t, err)

	got, err := s.Execute(context.Background(), utilizationRows(3600, 50))
	require.NoError(t, err)
	assert.InDelta(t, 0.0046062540925461085, got[0][FieldEnergy], 1e-12)

	rows := utilizationRows(3600, 50)
	rows[0][FieldVendor] = "gcp"
	rows[0][FieldInstanceType] = "n2-standard-2"
	_, err = s.Execute(context.Background(), rows)
	assert.ErrorIs(t, err, carbon.ErrUnsupportedValue)
}

func TestCatalogStrategy_Unconfigured(t *testing.T) {
	var s CatalogStrategy
	_, err := s.Execute(context.Background(), utilizationRows(3600, 50))
	require.ErrorIs(t, err, carbon.ErrConfigValidation)
	assert.Contains(t, err.Error(), "not configured")
}

func TestCatalogStrategy_RowErrors(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing utilization",
			row:     Row{FieldDuration: 3600},
			wantErr: carbon.ErrInputValidation,
			wantMsg: FieldCPUUtilization,
		},
		{
			name:    "missing duration",
			row:     Row{FieldCPUUtilization: 50},
			wantErr: carbon.ErrInputValidation,
			wantMsg: FieldDuration,
		},
		{
			name:    "zero duration",
			row:     Row{FieldDuration: 0, FieldCPUUtilization: 50},
			wantErr: carbon.ErrInputValidation,
			wantMsg: FieldDuration,
		},
		{
			name:    "non-numeric utilization",
			row:     Row{FieldDuration: 3600, FieldCPUUtilization: "busy"},
			wantErr: carbon.ErrInputValidation,
			wantMsg: "busy",
		},
		{
			name:    "unknown instance type",
			row:     Row{FieldDuration: 3600, FieldCPUUtilization: 50, FieldInstanceType: "z9.mega"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "z9.mega",
		},
		{
			name:    "unknown vendor override",
			row:     Row{FieldDuration: 3600, FieldCPUUtilization: 50, FieldVendor: "oracle"},
			wantErr: carbon.ErrUnsupportedValue,
			wantMsg: "oracle",
		},
		{
			name:    "non-positive lifespan",
			row:     Row{FieldDuration: 3600, FieldCPUUtilization: 50, FieldExpectedLifespan: -5},
			wantErr: carbon.ErrInputValidation,
			wantMsg: FieldExpectedLifespan,
		},
	}

	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large"})
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Execute(context.Background(), []Row{tt.row})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCatalogStrategy_BatchAbortsOnFirstFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	logger, buf := bufferLogger()

	s, err := NewCatalogStrategy(CatalogOptions{
		Vendor:       "aws",
		InstanceType: "m5n.large",
		Logger:       logger,
		Metrics:      metrics,
	})
	require.NoError(t, err)

	rows := utilizationRows(3600, 10, 50, 100)
	delete(rows[1], FieldCPUUtilization)

	got, err := s.Execute(context.Background(), rows)
	require.ErrorIs(t, err, carbon.ErrInputValidation)
	assert.Nil(t, got, "no partial output")
	assert.Contains(t, err.Error(), "row 1")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BatchFailures.WithLabelValues(StrategyCatalog, "InputValidation")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RowsProcessed.WithLabelValues(StrategyCatalog)))
	assert.Contains(t, buf.String(), `"message":"estimation batch aborted"`)
	assert.Contains(t, buf.String(), `"kind":"InputValidation"`)

	// input rows are never mutated
	assert.NotContains(t, rows[0], FieldEnergy)
}

func TestCatalogStrategy_LogsAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	logger, buf := bufferLogger()

	s, err := NewCatalogStrategy(CatalogOptions{
		Vendor:       "aws",
		InstanceType: "m5n.large",
		Logger:       logger,
		Metrics:      metrics,
	})
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), utilizationRows(3600, 10, 50, 100))
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RowsProcessed.WithLabelValues(StrategyCatalog)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.CatalogBuildSeconds))

	logs := buf.String()
	assert.Contains(t, logs, `"batch_id":"`)
	assert.Contains(t, logs, `"strategy":"ccf"`)
	assert.Contains(t, logs, `"message":"estimation batch finished"`)
	assert.Contains(t, logs, `"message":"instance catalog built"`)
	assert.Equal(t, 3, strings.Count(logs, `"message":"instance estimated"`))
}

func TestCatalogStrategy_CatalogBuiltOnce(t *testing.T) {
	var calls atomic.Int32
	s, err := NewCatalogStrategy(CatalogOptions{
		Vendor:       "aws",
		InstanceType: "m5n.large",
		LoadTables:   countingLoader(&calls),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "Configure builds the default vendor catalog")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Execute(context.Background(), utilizationRows(3600, 10, 50))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	// reconfiguring drops the built catalogs
	require.NoError(t, s.Configure(CatalogOptions{Vendor: "aws", InstanceType: "m5.large", LoadTables: countingLoader(&calls)}))
	_, err = s.Execute(context.Background(), utilizationRows(3600, 50))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// other vendors stay lazy until a row asks for them
	rows := utilizationRows(3600, 50)
	rows[0][FieldVendor] = "gcp"
	rows[0][FieldInstanceType] = "n2-standard-2"
	_, err = s.Execute(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCatalogStrategy_CanceledContext(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Execute(ctx, utilizationRows(3600, 50))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogStrategy_EmptyBatch(t *testing.T) {
	s, err := NewCatalogStrategy(CatalogOptions{Vendor: "aws", InstanceType: "m5n.large"})
	require.NoError(t, err)

	got, err := s.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
