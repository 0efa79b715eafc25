package carbon

// UsageRow is one measured power range for a processor architecture, in watts
// per vCPU.
type UsageRow struct {
	Architecture string
	MinWatts     float64
	MaxWatts     float64
}

// InstanceRow is one instance-type specification as published by a vendor.
type InstanceRow struct {
	Name     string
	VCPUs    int
	MaxVCPUs int

	// Microarchitecture is the single processor label of vendors without a
	// per-instance architecture mapping.
	Microarchitecture string

	// Measured is the instance-level 4-point curve, when the vendor publishes one.
	Measured *Curve
}

// EmbodiedRow is the total manufacturing footprint of an instance type.
type EmbodiedRow struct {
	InstanceType string
	TotalKg      float64
}

// RawTables is the unprocessed reference data for one vendor.
type RawTables struct {
	Vendor    Vendor
	Usage     []UsageRow
	Instances []InstanceRow

	// Architectures maps instance types to processor labels. Only vendors with
	// HasArchitectureMapping populate it.
	Architectures map[string][]string

	Embodied []EmbodiedRow
}
