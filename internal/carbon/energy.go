package carbon

// EnergyKWh converts a constant power draw over a duration into kWh:
//
//	energy = watts x durationSeconds / 3600 / 1000
//
// Non-finite inputs propagate unchanged.
func EnergyKWh(watts, durationSeconds float64) float64 {
	return watts * durationSeconds / SecondsPerHour / WattsPerKilowatt
}
