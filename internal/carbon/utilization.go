package carbon

// Clamp restricts a value to the range [min, max]. NaN is returned unchanged.
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
