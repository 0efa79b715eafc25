package carbon

import (
	"slices"
	"strings"
)

// ArchitectureUsage maps a canonical architecture name to its averaged per-vCPU
// power envelope, including the synthetic AverageArchitecture entry.
type ArchitectureUsage map[string]Envelope

// AggregateUsage averages the raw rows per architecture and adds the
// AverageArchitecture entry: the mean of min and max across every raw row.
// It returns nil for no rows.
func AggregateUsage(rows []UsageRow) ArchitectureUsage {
	if len(rows) == 0 {
		return nil
	}
	type acc struct {
		min, max float64
		n        int
	}
	byArch := make(map[string]*acc)
	var total acc
	for _, r := range rows {
		a, ok := byArch[r.Architecture]
		if !ok {
			a = &acc{}
			byArch[r.Architecture] = a
		}
		a.min += r.MinWatts
		a.max += r.MaxWatts
		a.n++
		total.min += r.MinWatts
		total.max += r.MaxWatts
		total.n++
	}

	usage := make(ArchitectureUsage, len(byArch)+1)
	for arch, a := range byArch {
		usage[arch] = Envelope{MinWatts: a.min / float64(a.n), MaxWatts: a.max / float64(a.n)}
	}
	usage[AverageArchitecture] = Envelope{
		MinWatts: total.min / float64(total.n),
		MaxWatts: total.max / float64(total.n),
	}
	return usage
}

// Names returns the architectures in sorted order.
func (u ArchitectureUsage) Names() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// architectureRule rewrites a raw processor label when match accepts it.
type architectureRule struct {
	match   func(label string) bool
	rewrite func(label string) string
}

// architectureRules are evaluated in order and the first match wins. Vendor
// prefix stripping must stay ahead of the family rewrites.
var architectureRules = []architectureRule{
	{
		match:   func(l string) bool { return strings.Contains(l, "AMD ") },
		rewrite: func(l string) string { return l[4:] },
	},
	{
		match:   func(l string) bool { return strings.Contains(l, "Skylake") },
		rewrite: func(string) string { return "Sky Lake" },
	},
	{
		match: func(l string) bool { return strings.Contains(l, "Graviton") },
		rewrite: func(l string) string {
			if strings.Contains(l, "2") {
				return "Graviton2"
			}
			return "Graviton"
		},
	},
	{
		match:   func(l string) bool { return strings.Contains(l, "Unknown") },
		rewrite: func(string) string { return AverageArchitecture },
	},
}

// CanonicalArchitecture applies the rewrite rules to a raw processor label.
// A label matching no rule is returned unchanged.
func CanonicalArchitecture(label string) string {
	for _, r := range architectureRules {
		if r.match(label) {
			return r.rewrite(label)
		}
	}
	return label
}

// ArchitectureResolver maps raw processor labels onto the buckets of one
// vendor's usage table.
type ArchitectureResolver struct {
	usage ArchitectureUsage
}

// NewArchitectureResolver resolves against usage.
func NewArchitectureResolver(usage ArchitectureUsage) *ArchitectureResolver {
	return &ArchitectureResolver{usage: usage}
}

// Resolve returns the canonical architecture for label. It fails with
// UnsupportedValue when the canonical name has no usage entry.
func (r *ArchitectureResolver) Resolve(label string) (string, error) {
	arch := CanonicalArchitecture(label)
	if _, ok := r.usage[arch]; !ok {
		return "", UnsupportedValueError("architecture", arch, "architecture is not supported", r.usage.Names())
	}
	return arch, nil
}

// Envelope returns the per-vCPU envelope of a canonical architecture.
func (r *ArchitectureResolver) Envelope(arch string) (Envelope, bool) {
	e, ok := r.usage[arch]
	return e, ok
}
