package pshautil

import (
	"math"

	"github.com/openpsha/pshacalc/xyseq"
)

// LogYInterp linearly interpolates seq's y-value at x, in log-y space: it
// interpolates log(y) against x and exponentiates the result. This is the
// interpolation hazard curves need, since exceedance rate decays
// log-linearly between neighboring IMLs far more often than it decays
// linearly.
//
// seq's x-axis must be monotone; it may be increasing (ordinary model
// curves) or decreasing (a curve re-sorted by descending rate for
// target-IML lookups). x outside seq's range is clamped to the nearest
// endpoint's y-value.
func LogYInterp(seq *xyseq.Sequence, x float64) float64 {
	n := seq.Len()
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return seq.Y(0)
	}
	increasing := seq.X(1) > seq.X(0)

	lo, hi := 0, n-1
	if increasing {
		if x <= seq.X(0) {
			return seq.Y(0)
		}
		if x >= seq.X(n-1) {
			return seq.Y(n - 1)
		}
	} else {
		if x >= seq.X(0) {
			return seq.Y(0)
		}
		if x <= seq.X(n-1) {
			return seq.Y(n - 1)
		}
	}

	for lo < hi-1 {
		mid := (lo + hi) / 2
		if increasing == (x >= seq.X(mid)) {
			lo = mid
		} else {
			hi = mid
		}
	}

	x0, x1 := seq.X(lo), seq.X(hi)
	y0, y1 := seq.Y(lo), seq.Y(hi)
	if y0 <= 0 || y1 <= 0 {
		// Fall back to linear interpolation when either endpoint is
		// non-positive, since log(y) is undefined there.
		frac := (x - x0) / (x1 - x0)
		return y0 + frac*(y1-y0)
	}
	logY0, logY1 := math.Log(y0), math.Log(y1)
	frac := (x - x0) / (x1 - x0)
	return math.Exp(logY0 + frac*(logY1-logY0))
}

// TargetIML returns the IML x at which a hazard curve equals the target
// annual rate (or probability) targetY, by inverting LogYInterp: it
// interpolates x against log(y), the mirror image of the usual lookup.
// curve's y-values must be monotone non-increasing in x, which every
// built hazard curve satisfies.
func TargetIML(seq *xyseq.Sequence, targetY float64) float64 {
	n := seq.Len()
	if n == 0 {
		return math.NaN()
	}
	if targetY >= seq.Y(0) {
		return seq.X(0)
	}
	if targetY <= seq.Y(n-1) {
		return seq.X(n - 1)
	}
	lo, hi := 0, n-1
	for lo < hi-1 {
		mid := (lo + hi) / 2
		if seq.Y(mid) >= targetY {
			lo = mid
		} else {
			hi = mid
		}
	}
	x0, x1 := seq.X(lo), seq.X(hi)
	y0, y1 := seq.Y(lo), seq.Y(hi)
	if y0 <= 0 || y1 <= 0 || targetY <= 0 {
		frac := (targetY - y0) / (y1 - y0)
		return x0 + frac*(x1-x0)
	}
	logY0, logY1 := math.Log(y0), math.Log(y1)
	logTarget := math.Log(targetY)
	frac := (logTarget - logY0) / (logY1 - logY0)
	return x0 + frac*(x1-x0)
}
