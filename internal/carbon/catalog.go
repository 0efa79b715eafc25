package carbon

import (
	"fmt"
	"slices"
)

// InstanceRecord is the normalized view of one instance type. Records are
// immutable once the catalog is built.
type InstanceRecord struct {
	Name     string
	Vendor   Vendor
	VCPUs    int
	MaxVCPUs int

	// Architectures are the canonical architectures the envelope was derived from.
	Architectures []string

	// Consumption is the measured Curve when the vendor publishes one, otherwise
	// the architecture Envelope scaled to the instance's vCPUs.
	Consumption Consumption

	// EmbodiedKg is the total manufacturing footprint in kgCO2e.
	EmbodiedKg float64
}

// Catalog holds the instance records of one vendor.
type Catalog struct {
	vendor     Vendor
	usage      ArchitectureUsage
	records    map[string]InstanceRecord
	unresolved map[string]error
	noEmbodied map[string]struct{}
}

// BuildCatalog merges a vendor's usage, instance, architecture and embodied
// tables into instance records. Building from identical tables yields
// identical catalogs.
//
// Instances whose architecture cannot be resolved or that lack embodied data
// are still accepted; Lookup reports them.
func BuildCatalog(t RawTables) (*Catalog, error) {
	vendor, err := ParseVendor(string(t.Vendor))
	if err != nil {
		return nil, err
	}
	usage := AggregateUsage(t.Usage)
	if usage == nil {
		return nil, ConfigValidationError("usage", fmt.Sprintf("no architecture usage rows for vendor %s", vendor))
	}
	resolver := NewArchitectureResolver(usage)

	embodied := make(map[string]float64, len(t.Embodied))
	for _, e := range t.Embodied {
		embodied[e.InstanceType] = e.TotalKg
	}

	c := &Catalog{
		vendor:     vendor,
		usage:      usage,
		records:    make(map[string]InstanceRecord, len(t.Instances)),
		unresolved: make(map[string]error),
		noEmbodied: make(map[string]struct{}),
	}
	for _, row := range t.Instances {
		var (
			rec        InstanceRecord
			resolveErr error
		)
		if vendor.HasArchitectureMapping() {
			rec, resolveErr = mappedRecord(resolver, row, t.Architectures[row.Name])
		} else {
			rec = microarchitectureRecord(resolver, row)
		}
		if c.Has(row.Name) {
			logger.Warn().Str("vendor", string(vendor)).Str("instance_type", row.Name).Msg("duplicate instance row, keeping the last one")
			delete(c.records, row.Name)
			delete(c.unresolved, row.Name)
			delete(c.noEmbodied, row.Name)
		}
		if resolveErr != nil {
			c.unresolved[row.Name] = resolveErr
			continue
		}
		rec.Vendor = vendor
		if total, ok := embodied[row.Name]; ok {
			rec.EmbodiedKg = total
		} else {
			c.noEmbodied[row.Name] = struct{}{}
		}
		c.records[row.Name] = rec
	}
	return c, nil
}

// mappedRecord averages the envelopes of every mapped processor label.
func mappedRecord(resolver *ArchitectureResolver, row InstanceRow, labels []string) (InstanceRecord, error) {
	if len(labels) == 0 {
		return InstanceRecord{}, UnsupportedValueError("architecture", "", "no architecture mapping for instance type "+row.Name, nil)
	}
	var sum Envelope
	archs := make([]string, 0, len(labels))
	for _, label := range labels {
		arch, err := resolver.Resolve(label)
		if err != nil {
			return InstanceRecord{}, err
		}
		e, _ := resolver.Envelope(arch)
		sum.MinWatts += e.MinWatts
		sum.MaxWatts += e.MaxWatts
		archs = append(archs, arch)
	}
	n := float64(len(labels))
	env := Envelope{MinWatts: sum.MinWatts / n, MaxWatts: sum.MaxWatts / n}.Scale(float64(row.VCPUs))

	rec := InstanceRecord{
		Name:          row.Name,
		VCPUs:         row.VCPUs,
		MaxVCPUs:      row.MaxVCPUs,
		Architectures: archs,
		Consumption:   env,
	}
	if row.Measured != nil {
		rec.Consumption = *row.Measured
	}
	return rec, nil
}

// microarchitectureRecord uses the instance's single label, or the vendor
// average when the label has no usage entry.
func microarchitectureRecord(resolver *ArchitectureResolver, row InstanceRow) InstanceRecord {
	arch := row.Microarchitecture
	e, ok := resolver.Envelope(arch)
	if !ok {
		logger.Debug().Str("instance_type", row.Name).Str("microarchitecture", arch).
			Msg("microarchitecture has no usage entry, using vendor average")
		arch = AverageArchitecture
		e, _ = resolver.Envelope(arch)
	}
	return InstanceRecord{
		Name:          row.Name,
		VCPUs:         row.VCPUs,
		MaxVCPUs:      row.MaxVCPUs,
		Architectures: []string{arch},
		Consumption:   e.Scale(float64(row.VCPUs)),
	}
}

// Vendor returns the catalog's vendor.
func (c *Catalog) Vendor() Vendor { return c.vendor }

// Usage returns the aggregated architecture usage the catalog was built from.
func (c *Catalog) Usage() ArchitectureUsage { return c.usage }

// Len returns the number of usable instance records.
func (c *Catalog) Len() int { return len(c.records) }

// Names returns the usable instance types in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.records))
	for name := range c.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the record for instanceType. It fails with UnsupportedValue
// for unknown types, types whose architecture did not resolve, and types
// missing from the embodied table.
func (c *Catalog) Lookup(instanceType string) (InstanceRecord, error) {
	if err, ok := c.unresolved[instanceType]; ok {
		return InstanceRecord{}, fmt.Errorf("instance type %s: %w", instanceType, err)
	}
	rec, ok := c.records[instanceType]
	if !ok {
		return InstanceRecord{}, UnsupportedValueError("cloud/instance-type", instanceType,
			fmt.Sprintf("instance type is not supported by vendor %s", c.vendor), c.Names())
	}
	if _, missing := c.noEmbodied[instanceType]; missing {
		return InstanceRecord{}, UnsupportedValueError("cloud/instance-type", instanceType,
			fmt.Sprintf("no embodied emissions data for vendor %s", c.vendor), nil)
	}
	return rec, nil
}

// Has reports whether instanceType appears in the catalog's instance table,
// usable or not.
func (c *Catalog) Has(instanceType string) bool {
	_, ok := c.records[instanceType]
	if !ok {
		_, ok = c.unresolved[instanceType]
	}
	return ok
}
