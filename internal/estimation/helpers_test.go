package estimation

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// approx compares float fields of output rows.
var approx = cmpopts.EquateApprox(0, 1e-12)

func assertRows(t *testing.T, want, got []Row) {
	t.Helper()
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

// bufferLogger returns a debug logger writing JSON lines to the buffer.
func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf).Level(zerolog.DebugLevel), &buf
}

// countingLoader wraps carbon.LoadTables and counts calls.
func countingLoader(calls *atomic.Int32) TableLoader {
	return func(v carbon.Vendor) (carbon.RawTables, error) {
		calls.Add(1)
		return carbon.LoadTables(v)
	}
}

// staticLoader serves fixed tables for AWS.
func staticLoader(tables carbon.RawTables) TableLoader {
	return func(carbon.Vendor) (carbon.RawTables, error) {
		return tables, nil
	}
}

func utilizationRows(duration float64, utilizations ...float64) []Row {
	rows := make([]Row, 0, len(utilizations))
	for i, u := range utilizations {
		rows = append(rows, Row{
			FieldTimestamp:      i,
			FieldDuration:       duration,
			FieldCPUUtilization: u,
		})
	}
	return rows
}
