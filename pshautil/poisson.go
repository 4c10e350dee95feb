package pshautil

import "math"

// RateToProbability converts an annual occurrence rate to a one-year
// Poisson probability of exceedance: P = 1 - exp(-rate).
func RateToProbability(rate float64) float64 {
	return -math.Expm1(-rate)
}

// ProbabilityToRate inverts RateToProbability: rate = -ln(1 - P).
func ProbabilityToRate(p float64) float64 {
	return -math.Log1p(-p)
}

// ReturnPeriodToRate converts a return period in years to an annual rate:
// rate = 1 / returnPeriod.
func ReturnPeriodToRate(returnPeriodYears float64) float64 {
	return 1 / returnPeriodYears
}

// RateToReturnPeriod converts an annual rate to a return period in years:
// returnPeriod = 1 / rate.
func RateToReturnPeriod(rate float64) float64 {
	return 1 / rate
}
