package domain

// MicrosToCurrency converts a micros amount (the Ads API wire unit, one
// millionth of a currency unit) to currency units.
func MicrosToCurrency(micros int64) float64 {
	return float64(micros) / 1_000_000
}

// CurrencyToMicros converts currency units to micros, truncating toward
// zero.
func CurrencyToMicros(amount float64) int64 {
	return int64(amount * 1_000_000)
}
