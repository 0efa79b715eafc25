package carbon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatFloat formats a float for display.
// If the float is an integer, it is formatted as an integer.
// Otherwise, it is formatted with 2 decimal places.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && !isNonFinite(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// parseEuropeanFloat parses s as a float64 treating an optional comma as the
// decimal separator, as the CCF coefficient sheets do.
func parseEuropeanFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
