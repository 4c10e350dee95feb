// Package deagg implements hazard deaggregation: binning each rupture's
// contribution to a site's exceedance rate at a target intensity level
// into a 3-D grid of distance, magnitude, and epsilon, and building the
// per-source/per-source-set contributor tree used to report which
// sources dominate the hazard at that level.
package deagg

import (
	"math"

	"github.com/openpsha/pshacalc"
	"github.com/openpsha/pshacalc/pshaerr"
)

// binCfg wraps pshacalc.DeaggConfig locally so the bin-index helpers below
// can be declared as methods; Go forbids adding methods to a type alias
// of another package's type.
type binCfg struct {
	pshacalc.DeaggConfig
}

func (c binCfg) nBins(min, max, delta float64) int {
	return int(math.Ceil((max-min)/delta)) + 1
}

func (c binCfg) distanceBins() int  { return c.nBins(c.RMin, c.RMax, c.DeltaR) }
func (c binCfg) magnitudeBins() int { return c.nBins(c.MMin, c.MMax, c.DeltaM) }
func (c binCfg) epsilonBins() int   { return c.nBins(c.EMin, c.EMax, c.DeltaE) }

// DistanceIndex returns the bin index for distance r, and whether r falls
// within the configured range.
func (c binCfg) DistanceIndex(r float64) (int, bool) {
	return binIndex(r, c.RMin, c.RMax, c.DeltaR, c.distanceBins())
}

// MagnitudeIndex returns the bin index for magnitude m, and whether m
// falls within the configured range.
func (c binCfg) MagnitudeIndex(m float64) (int, bool) {
	return binIndex(m, c.MMin, c.MMax, c.DeltaM, c.magnitudeBins())
}

// EpsilonIndex returns the bin index for epsilon eps. Unlike distance and
// magnitude, epsilon always clamps into range ([0, n-1]) rather than
// falling out to the residual bucket, so it always reports ok=true.
func (c binCfg) EpsilonIndex(eps float64) (int, bool) {
	return clampedBinIndex(eps, c.EMin, c.EMax, c.DeltaE, c.epsilonBins()), true
}

func binIndex(v, min, max, delta float64, n int) (int, bool) {
	if v < min || v > max {
		return 0, false
	}
	idx := int((v - min) / delta)
	if idx >= n {
		idx = n - 1
	}
	return idx, true
}

func clampedBinIndex(v, min, max, delta float64, n int) int {
	idx := int((v - min) / delta)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Dataset is an immutable 3-D binned accumulation of exceedance-rate
// contributions over distance, magnitude, and epsilon, plus a residual
// bucket for contributions whose bin indices fall outside the configured
// ranges.
type Dataset struct {
	cfg        binCfg
	nr, nm, ne int
	rates      []float64 // flattened [nr][nm][ne]
	residual   float64
	total      float64

	// rScaled/mScaled/eScaled are sum(value*rate) over every bin-credited
	// AddRate call, used to compute true rate-weighted means instead of
	// approximating from bin edges.
	rScaled, mScaled, eScaled float64
}

// DatasetBuilder accumulates binned rate contributions. It is a one-shot
// builder: Build may be called exactly once.
type DatasetBuilder struct {
	cfg                       binCfg
	rates                     []float64
	residual                  float64
	total                     float64
	rScaled, mScaled, eScaled float64
	built                     bool
}

// NewDatasetBuilder allocates a builder for the given bin configuration.
func NewDatasetBuilder(cfg pshacalc.DeaggConfig) *DatasetBuilder {
	bc := binCfg{cfg}
	nr, nm, ne := bc.distanceBins(), bc.magnitudeBins(), bc.epsilonBins()
	return &DatasetBuilder{cfg: bc, rates: make([]float64, nr*nm*ne)}
}

func (b *DatasetBuilder) index(rIdx, mIdx, eIdx int) int {
	nm, ne := b.cfg.magnitudeBins(), b.cfg.epsilonBins()
	return (rIdx*nm+mIdx)*ne + eIdx
}

// AddRate accumulates rate into the (r, m, eps) bin identified by the
// given distance, magnitude, and epsilon values, or into the residual
// bucket if the distance or magnitude falls outside the configured range.
// Epsilon always clamps into its range rather than ever routing to
// residual.
func (b *DatasetBuilder) AddRate(r, m, eps, rate float64) error {
	if b.built {
		return pshaerr.New(pshaerr.BuilderExhausted, "DatasetBuilder already built")
	}
	rIdx, ok1 := b.cfg.DistanceIndex(r)
	mIdx, ok2 := b.cfg.MagnitudeIndex(m)
	eIdx, _ := b.cfg.EpsilonIndex(eps)
	if !ok1 || !ok2 {
		b.AddResidual(rate)
		return nil
	}
	b.total += rate
	b.rates[b.index(rIdx, mIdx, eIdx)] += rate
	b.rScaled += r * rate
	b.mScaled += m * rate
	b.eScaled += eps * rate
	return nil
}

// AddResidual adds rate directly to the residual bucket without crediting
// any bin, and to the running total.
func (b *DatasetBuilder) AddResidual(rate float64) {
	b.residual += rate
	b.total += rate
}

// Multiply scales every accumulated rate, including the residual and
// total, by v. Used to apply a source-set or Gmm weight after
// accumulation.
func (b *DatasetBuilder) Multiply(v float64) {
	for i := range b.rates {
		b.rates[i] *= v
	}
	b.residual *= v
	b.total *= v
	b.rScaled *= v
	b.mScaled *= v
	b.eScaled *= v
}

// Build returns the finished, immutable Dataset. A second call returns an
// error.
func (b *DatasetBuilder) Build() (*Dataset, error) {
	if b.built {
		return nil, pshaerr.New(pshaerr.BuilderExhausted, "DatasetBuilder already built")
	}
	b.built = true
	return &Dataset{
		cfg:      b.cfg,
		nr:       b.cfg.distanceBins(),
		nm:       b.cfg.magnitudeBins(),
		ne:       b.cfg.epsilonBins(),
		rates:    b.rates,
		residual: b.residual,
		total:    b.total,
		rScaled:  b.rScaled,
		mScaled:  b.mScaled,
		eScaled:  b.eScaled,
	}, nil
}

// Rate returns the accumulated rate in bin (rIdx, mIdx, eIdx).
func (d *Dataset) Rate(rIdx, mIdx, eIdx int) float64 {
	return d.rates[(rIdx*d.nm+mIdx)*d.ne+eIdx]
}

// Residual returns the rate that fell outside every bin.
func (d *Dataset) Residual() float64 { return d.residual }

// Total returns the total accumulated rate, bin contributions plus
// residual.
func (d *Dataset) Total() float64 { return d.total }

// Dims returns the (distance, magnitude, epsilon) bin counts.
func (d *Dataset) Dims() (int, int, int) { return d.nr, d.nm, d.ne }

// RMCollapse returns the 2-D (distance, magnitude) marginal, summing over
// every epsilon bin.
func (d *Dataset) RMCollapse() [][]float64 {
	out := make([][]float64, d.nr)
	for r := 0; r < d.nr; r++ {
		out[r] = make([]float64, d.nm)
		for m := 0; m < d.nm; m++ {
			var sum float64
			for e := 0; e < d.ne; e++ {
				sum += d.Rate(r, m, e)
			}
			out[r][m] = sum
		}
	}
	return out
}

// creditedTotal is the rate actually credited to a bin (excludes residual,
// which carries no distance/magnitude/epsilon value to average in).
func (d *Dataset) creditedTotal() float64 {
	return d.total - d.residual
}

// WeightedMeanDistance returns the rate-weighted mean of the actual
// distance values passed to AddRate for every bin-credited contribution.
func (d *Dataset) WeightedMeanDistance() float64 {
	den := d.creditedTotal()
	if den == 0 {
		return math.NaN()
	}
	return d.rScaled / den
}

// WeightedMeanMagnitude returns the rate-weighted mean of the actual
// magnitude values passed to AddRate for every bin-credited contribution.
func (d *Dataset) WeightedMeanMagnitude() float64 {
	den := d.creditedTotal()
	if den == 0 {
		return math.NaN()
	}
	return d.mScaled / den
}

// WeightedMeanEpsilon returns the rate-weighted mean of the actual epsilon
// values passed to AddRate for every bin-credited contribution.
func (d *Dataset) WeightedMeanEpsilon() float64 {
	den := d.creditedTotal()
	if den == 0 {
		return math.NaN()
	}
	return d.eScaled / den
}

// DatasetConsolidator merges b into a, summing every bin, the residual,
// the total, and the weighted-mean accumulators. a and b must share the
// same bin layout. A nil a or b returns the other unchanged.
func DatasetConsolidator(a, b *Dataset) (*Dataset, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if a.nr != b.nr || a.nm != b.nm || a.ne != b.ne {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "cannot consolidate datasets with different bin layouts")
	}
	rates := make([]float64, len(a.rates))
	for i := range rates {
		rates[i] = a.rates[i] + b.rates[i]
	}
	return &Dataset{
		cfg:      a.cfg,
		nr:       a.nr,
		nm:       a.nm,
		ne:       a.ne,
		rates:    rates,
		residual: a.residual + b.residual,
		total:    a.total + b.total,
		rScaled:  a.rScaled + b.rScaled,
		mScaled:  a.mScaled + b.mScaled,
		eScaled:  a.eScaled + b.eScaled,
	}, nil
}
