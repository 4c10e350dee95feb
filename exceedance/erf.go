package exceedance

import "math"

// erf approximates the error function using the Abramowitz & Stegun 7.1.26
// polynomial approximation, giving deterministic, portable exceedance
// values independent of any particular statistics package's erf
// implementation. Maximum error is about 1.5e-7.
func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)
	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}

// stdNormalCCDF returns P(Z >= z) for a standard normal variable Z, using
// the erf approximation above.
func stdNormalCCDF(z float64) float64 {
	return 0.5 * (1 - erf(z/math.Sqrt2))
}
