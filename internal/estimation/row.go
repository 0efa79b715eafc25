package estimation

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"google.golang.org/protobuf/types/known/structpb"
)

// Input row fields.
const (
	FieldTimestamp          = "timestamp"
	FieldDuration           = "duration"
	FieldCPUUtilization     = "cpu/utilization"
	FieldExpectedLifespan   = "expected-lifespan"
	FieldInterpolation      = "interpolation"
	FieldVendor             = "cloud/vendor"
	FieldInstanceType       = "cloud/instance-type"
	FieldThermalDesignPower = "cpu/thermal-design-power"
	FieldVCPUsAllocated     = "vcpus-allocated"
	FieldVCPUsTotal         = "vcpus-total"
	FieldEmissionsEmbodied  = "device/emissions-embodied"
)

// Output row fields.
const (
	FieldEnergy         = "energy"
	FieldEnergyCPU      = "energy-cpu"
	FieldCarbonEmbodied = "carbon-embodied"
)

// Row is one observation of a time series. Output rows are a copy of the
// input row with the computed fields added.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r)+2)
	maps.Copy(out, r)
	return out
}

// Number extracts a numeric field. Go numbers and strings that parse as
// numbers are accepted; zero is a valid value.
//
// It returns (0, false, nil) when the key is missing or null and an
// InputValidation error when the value is neither.
func (r Row) Number(key string) (float64, bool, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int8:
		return float64(n), true, nil
	case int16:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case uint:
		return float64(n), true, nil
	case uint8:
		return float64(n), true, nil
	case uint16:
		return float64(n), true, nil
	case uint32:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false, carbon.InputValidationError(key, fmt.Sprintf("must be a number, got %q", n))
		}
		return f, true, nil
	default:
		return 0, false, carbon.InputValidationError(key, fmt.Sprintf("must be a number, got %T", v))
	}
}

// String extracts a string field. Empty strings count as missing.
func (r Row) String(key string) (string, bool, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, carbon.InputValidationError(key, fmt.Sprintf("must be a string, got %T", v))
	}
	s = strings.TrimSpace(s)
	return s, s != "", nil
}

// RowFromStruct converts a protobuf Struct into a Row. Numbers arrive as
// float64.
func RowFromStruct(s *structpb.Struct) Row {
	if s == nil {
		return Row{}
	}
	return Row(s.AsMap())
}

// ToStruct converts r into a protobuf Struct.
func (r Row) ToStruct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(r)
	if err != nil {
		return nil, fmt.Errorf("convert row to struct: %w", err)
	}
	return s, nil
}
