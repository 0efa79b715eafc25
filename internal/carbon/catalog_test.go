package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCatalog(t *testing.T, vendor Vendor) *Catalog {
	t.Helper()
	tables, err := LoadTables(vendor)
	require.NoError(t, err)
	c, err := BuildCatalog(tables)
	require.NoError(t, err)
	return c
}

func TestBuildCatalog_AllVendors(t *testing.T) {
	for _, name := range SupportedVendors() {
		t.Run(name, func(t *testing.T) {
			c := loadCatalog(t, Vendor(name))
			assert.Equal(t, Vendor(name), c.Vendor())
			assert.NotZero(t, c.Len())
			assert.Contains(t, c.Usage(), AverageArchitecture)

			for _, n := range c.Names() {
				rec, err := c.Lookup(n)
				require.NoError(t, err, n)
				assert.GreaterOrEqual(t, rec.MaxVCPUs, rec.VCPUs, n)
				assert.GreaterOrEqual(t, rec.VCPUs, 1, n)
				assert.Positive(t, rec.EmbodiedKg, n)
				assert.NotNil(t, rec.Consumption, n)
			}
		})
	}
}

func TestBuildCatalog_Idempotent(t *testing.T) {
	tables, err := LoadTables(VendorAWS)
	require.NoError(t, err)

	a, err := BuildCatalog(tables)
	require.NoError(t, err)
	b, err := BuildCatalog(tables)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCatalog_AWSMeasuredCurve(t *testing.T) {
	c := loadCatalog(t, VendorAWS)

	rec, err := c.Lookup("m5n.large")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.VCPUs)
	assert.Equal(t, 96, rec.MaxVCPUs)
	assert.Equal(t, 1610.79, rec.EmbodiedKg)
	assert.Equal(t, Curve{
		Idle:    1.2748413710214186,
		Ten:     1.9435697915529846,
		Fifty:   4.606254092546108,
		Hundred: 7.934609468787513,
	}, rec.Consumption)
	assert.Equal(t, []string{"Cascade Lake"}, rec.Architectures)
}

func TestCatalog_AWSUnmeasuredUsesAverageEnvelope(t *testing.T) {
	c := loadCatalog(t, VendorAWS)

	rec, err := c.Lookup("m1.small")
	require.NoError(t, err)
	env, ok := rec.Consumption.(Envelope)
	require.True(t, ok, "expected Envelope, got %T", rec.Consumption)
	assert.InDelta(t, 12.93/12, env.MinWatts, 1e-12)
	assert.InDelta(t, 49.82/12, env.MaxWatts, 1e-12)
	assert.Equal(t, []string{AverageArchitecture}, rec.Architectures)
}

func TestCatalog_MicroarchitectureVendors(t *testing.T) {
	t.Run("known microarchitecture", func(t *testing.T) {
		c := loadCatalog(t, VendorGCP)
		rec, err := c.Lookup("n2-standard-2")
		require.NoError(t, err)
		assert.Equal(t, []string{"Cascade Lake"}, rec.Architectures)
		assert.Equal(t, Envelope{MinWatts: 0.64 * 2, MaxWatts: 3.97 * 2}, rec.Consumption)
	})

	t.Run("unknown microarchitecture falls back to average", func(t *testing.T) {
		c := loadCatalog(t, VendorAzure)
		rec, err := c.Lookup("Standard_B2s")
		require.NoError(t, err)
		assert.Equal(t, []string{AverageArchitecture}, rec.Architectures)
		avg := c.Usage()[AverageArchitecture]
		assert.Equal(t, avg.Scale(2), rec.Consumption)
	})
}

func TestCatalog_LookupUnknownType(t *testing.T) {
	c := loadCatalog(t, VendorAWS)

	_, err := c.Lookup("z9.mega")
	require.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), "z9.mega")
	assert.Contains(t, err.Error(), "m5n.large")
	assert.False(t, c.Has("z9.mega"))
}

func customTables() RawTables {
	return RawTables{
		Vendor: VendorAWS,
		Usage: []UsageRow{
			{Architecture: "Graviton2", MinWatts: 0.47, MaxWatts: 1.69},
			{Architecture: "Cascade Lake", MinWatts: 0.64, MaxWatts: 3.97},
		},
		Instances: []InstanceRow{
			{Name: "m7g.large", VCPUs: 2, MaxVCPUs: 64},
			{Name: "m6g.large", VCPUs: 2, MaxVCPUs: 64},
			{Name: "c5.large", VCPUs: 2, MaxVCPUs: 96},
			{Name: "r5.large", VCPUs: 2, MaxVCPUs: 96},
		},
		Architectures: map[string][]string{
			"m7g.large": {"AWS Graviton3"},
			"m6g.large": {"AWS Graviton2"},
			"c5.large":  {"Cascade Lake"},
		},
		Embodied: []EmbodiedRow{
			{InstanceType: "m7g.large", TotalKg: 1200},
			{InstanceType: "m6g.large", TotalKg: 1100},
		},
	}
}

func TestCatalog_UnresolvedArchitecture(t *testing.T) {
	c, err := BuildCatalog(customTables())
	require.NoError(t, err)

	assert.True(t, c.Has("m7g.large"))
	_, err = c.Lookup("m7g.large")
	require.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), `"Graviton"`)
	assert.Contains(t, err.Error(), "m7g.large")

	_, err = c.Lookup("r5.large")
	assert.ErrorIs(t, err, ErrUnsupportedValue, "instances without mapping are unresolved")

	rec, err := c.Lookup("m6g.large")
	require.NoError(t, err)
	assert.Equal(t, Envelope{MinWatts: 0.94, MaxWatts: 3.38}, rec.Consumption)
}

func TestCatalog_MissingEmbodiedData(t *testing.T) {
	c, err := BuildCatalog(customTables())
	require.NoError(t, err)

	_, err = c.Lookup("c5.large")
	require.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), "no embodied emissions data")
}

func TestCatalog_DuplicateRowKeepsLast(t *testing.T) {
	tables := customTables()
	tables.Instances = append(tables.Instances, InstanceRow{Name: "m6g.large", VCPUs: 4, MaxVCPUs: 64})

	c, err := BuildCatalog(tables)
	require.NoError(t, err)
	rec, err := c.Lookup("m6g.large")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.VCPUs)
}

func TestBuildCatalog_Errors(t *testing.T) {
	t.Run("no usage rows", func(t *testing.T) {
		tables := customTables()
		tables.Usage = nil
		_, err := BuildCatalog(tables)
		assert.ErrorIs(t, err, ErrConfigValidation)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		tables := customTables()
		tables.Vendor = "oracle"
		_, err := BuildCatalog(tables)
		assert.ErrorIs(t, err, ErrUnsupportedValue)
	})
}
