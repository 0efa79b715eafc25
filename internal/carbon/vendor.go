package carbon

import "strings"

// Vendor identifies a cloud provider namespace in the reference data.
type Vendor string

const (
	VendorAWS   Vendor = "aws"
	VendorGCP   Vendor = "gcp"
	VendorAzure Vendor = "azure"
)

// SupportedVendors lists the vendors with embedded reference data.
func SupportedVendors() []string {
	return []string{string(VendorAWS), string(VendorGCP), string(VendorAzure)}
}

// ParseVendor normalizes a vendor name and rejects unknown ones.
func ParseVendor(s string) (Vendor, error) {
	switch v := Vendor(strings.ToLower(strings.TrimSpace(s))); v {
	case VendorAWS, VendorGCP, VendorAzure:
		return v, nil
	}
	return "", UnsupportedValueError("cloud/vendor", s, "vendor is not supported", SupportedVendors())
}

// SupportsCurve reports whether the vendor publishes measured 4-point curves,
// the only data that can back spline interpolation.
func (v Vendor) SupportsCurve() bool {
	return v == VendorAWS
}

// HasArchitectureMapping reports whether the vendor maps each instance type to
// a list of processor labels rather than a single microarchitecture.
func (v Vendor) HasArchitectureMapping() bool {
	return v == VendorAWS
}
