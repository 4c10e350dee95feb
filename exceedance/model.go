// Package exceedance implements the closed set of exceedance-model
// variants (untruncated/truncated normal, mixture, clamped, and joint
// cluster exceedance) that the curve-building transform
// (GroundMotionsToCurves, in the root package) uses to convert a
// rupture's (μ, σ) into a probability-of-exceedance curve.
//
// Each variant is a small concrete type satisfying the Model interface,
// dispatched by concrete type rather than by a type switch on behavior.
package exceedance

import (
	"math"

	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/xyseq"
)

// Model computes exceedance probabilities from a ground-motion model's
// (μ, σ) for a given IMT. All values are in natural-log IMT units.
type Model interface {
	// Exceedance returns P(ground motion >= x) for a single (μ, σ), where
	// n is the truncation level in standard deviations (ignored by
	// variants that don't truncate).
	Exceedance(mu, sigma, n float64, im imt.IMT, x float64) float64

	// ExceedanceSeq fills a copy of seq's y-values with Exceedance(mu,
	// sigma, n, im, x) evaluated at each of seq's x-values, and returns it.
	ExceedanceSeq(mu, sigma, n float64, im imt.IMT, seq *xyseq.Sequence) *xyseq.Sequence

	// ExceedanceMulti handles a multi-scalar ground motion: parallel
	// weighted arrays of means and sigmas representing a GMM-internal
	// logic tree. The default behavior (embedded via base) is the
	// weighted sum over every (mean, sigma) combination;
	// NSHM_CEUS_MAX_INTENSITY overrides it
	ExceedanceMulti(means, meanWeights, sigmas, sigmaWeights []float64, n float64, im imt.IMT, seq *xyseq.Sequence) *xyseq.Sequence
}

// base supplies the default ExceedanceSeq and ExceedanceMulti
// implementations in terms of the embedding type's Exceedance, so each
// variant only needs to define the single-point formula.
type base struct {
	self Model
}

func (b base) ExceedanceSeq(mu, sigma, n float64, im imt.IMT, seq *xyseq.Sequence) *xyseq.Sequence {
	out := seq.Copy()
	for i := 0; i < out.Len(); i++ {
		out.SetY(i, b.self.Exceedance(mu, sigma, n, im, out.X(i)))
	}
	return out
}

func (b base) ExceedanceMulti(means, meanWeights, sigmas, sigmaWeights []float64, n float64, im imt.IMT, seq *xyseq.Sequence) *xyseq.Sequence {
	out := xyseq.NewZero(seq.Xs())
	for mi, mu := range means {
		for si, sigma := range sigmas {
			w := meanWeights[mi] * sigmaWeights[si]
			if w == 0 {
				continue
			}
			part := b.self.ExceedanceSeq(mu, sigma, n, im, seq)
			part.MultiplyScalar(w)
			out.Add(part)
		}
	}
	return out
}

// None is the step-function exceedance model: y=1 for x<μ, y=0 otherwise.
// σ, n, and im are ignored.
type None struct{ base }

// NewNone constructs the NONE exceedance model.
func NewNone() *None {
	m := &None{}
	m.base = base{self: m}
	return m
}

func (m *None) Exceedance(mu, _, _ float64, _ imt.IMT, x float64) float64 {
	if x < mu {
		return 1
	}
	return 0
}

// TruncationOff is the unbounded normal CCDF.
type TruncationOff struct{ base }

func NewTruncationOff() *TruncationOff {
	m := &TruncationOff{}
	m.base = base{self: m}
	return m
}

func (m *TruncationOff) Exceedance(mu, sigma, _ float64, _ imt.IMT, x float64) float64 {
	return stdNormalCCDF((x - mu) / sigma)
}

// renormalize rescales the untruncated CCDF p so that it is 0 at pHi
// (upper truncation edge) and 1 at pLo (lower truncation edge), clamped to
// [0, 1].
func renormalize(p, pLo, pHi float64) float64 {
	v := (p - pHi) / (pLo - pHi)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TruncationUpperOnly renormalizes the normal CCDF so that y=0 at x=μ+nσ.
type TruncationUpperOnly struct{ base }

func NewTruncationUpperOnly() *TruncationUpperOnly {
	m := &TruncationUpperOnly{}
	m.base = base{self: m}
	return m
}

func (m *TruncationUpperOnly) Exceedance(mu, sigma, n float64, _ imt.IMT, x float64) float64 {
	p := stdNormalCCDF((x - mu) / sigma)
	pHi := stdNormalCCDF(n)
	return renormalize(p, 1, pHi)
}

// TruncationLowerUpper renormalizes the normal CCDF on [μ-nσ, μ+nσ].
type TruncationLowerUpper struct{ base }

func NewTruncationLowerUpper() *TruncationLowerUpper {
	m := &TruncationLowerUpper{}
	m.base = base{self: m}
	return m
}

func (m *TruncationLowerUpper) Exceedance(mu, sigma, n float64, _ imt.IMT, x float64) float64 {
	p := stdNormalCCDF((x - mu) / sigma)
	pLo := stdNormalCCDF(-n)
	pHi := stdNormalCCDF(n)
	return renormalize(p, pLo, pHi)
}

// truncation3SigmaTable is a lookup table for TRUNCATION_UPPER_ONLY with
// n=3, sampled over epsilon = (x-mu)/sigma in [-3, 3] at a fine resolution,
// trading a small interpolation error for avoiding the erf evaluation on
// every hot-loop call.
const (
	table3SigmaMin  = -3.0
	table3SigmaMax  = 3.0
	table3SigmaStep = 0.001
)

var truncation3SigmaTable []float64

func init() {
	n := int((table3SigmaMax-table3SigmaMin)/table3SigmaStep) + 1
	truncation3SigmaTable = make([]float64, n)
	pHi := stdNormalCCDF(3)
	for i := 0; i < n; i++ {
		eps := table3SigmaMin + float64(i)*table3SigmaStep
		p := stdNormalCCDF(eps)
		truncation3SigmaTable[i] = renormalize(p, 1, pHi)
	}
}

// Truncation3SigmaUpper is the fast lookup-table variant of
// TruncationUpperOnly with a hard-fixed truncation level of 3σ.
type Truncation3SigmaUpper struct{ base }

func NewTruncation3SigmaUpper() *Truncation3SigmaUpper {
	m := &Truncation3SigmaUpper{}
	m.base = base{self: m}
	return m
}

func (m *Truncation3SigmaUpper) Exceedance(mu, sigma, _ float64, _ imt.IMT, x float64) float64 {
	eps := (x - mu) / sigma
	if eps <= table3SigmaMin {
		return 1
	}
	if eps >= table3SigmaMax {
		return 0
	}
	idx := (eps - table3SigmaMin) / table3SigmaStep
	lo := int(math.Floor(idx))
	hi := lo + 1
	if hi >= len(truncation3SigmaTable) {
		return truncation3SigmaTable[len(truncation3SigmaTable)-1]
	}
	frac := idx - float64(lo)
	return truncation3SigmaTable[lo]*(1-frac) + truncation3SigmaTable[hi]*frac
}

// PeerMixtureModel is an equal-weight mixture of two untruncated CCDFs with
// σ scaled by 0.8 and 1.2; σ is hard-fixed at 0.65 regardless of the
// supplied sigma
type PeerMixtureModel struct{ base }

func NewPeerMixtureModel() *PeerMixtureModel {
	m := &PeerMixtureModel{}
	m.base = base{self: m}
	return m
}

const peerMixtureSigma = 0.65

func (m *PeerMixtureModel) Exceedance(mu, _, _ float64, _ imt.IMT, x float64) float64 {
	pLow := stdNormalCCDF((x - mu) / (peerMixtureSigma * 0.8))
	pHigh := stdNormalCCDF((x - mu) / (peerMixtureSigma * 1.2))
	return 0.5*pLow + 0.5*pHigh
}

// NshmCeusMaxIntensity upper-truncates at min(μ+nσ, log(clamp(imt))) and,
// for multi-scalar ground motions, iterates every (mean, sigma) pair with
// its weight rather than using the default ExceedanceMulti.
type NshmCeusMaxIntensity struct{ base }

func NewNshmCeusMaxIntensity() *NshmCeusMaxIntensity {
	m := &NshmCeusMaxIntensity{}
	m.base = base{self: m}
	return m
}

func (m *NshmCeusMaxIntensity) Exceedance(mu, sigma, n float64, im imt.IMT, x float64) float64 {
	p := stdNormalCCDF((x - mu) / sigma)
	clampX := math.Log(im.ClampValue())
	upperX := math.Min(mu+n*sigma, clampX)
	pHi := stdNormalCCDF((upperX - mu) / sigma)
	return renormalize(p, 1, pHi)
}

func (m *NshmCeusMaxIntensity) ExceedanceMulti(means, meanWeights, sigmas, sigmaWeights []float64, n float64, im imt.IMT, seq *xyseq.Sequence) *xyseq.Sequence {
	out := xyseq.NewZero(seq.Xs())
	for mi, mu := range means {
		for si, sigma := range sigmas {
			w := meanWeights[mi] * sigmaWeights[si]
			if w == 0 {
				continue
			}
			part := m.ExceedanceSeq(mu, sigma, n, im, seq)
			part.MultiplyScalar(w)
			out.Add(part)
		}
	}
	return out
}

// ClusterExceedance combines the curves of temporally-exclusive cluster
// faults via joint exceedance: 1 - ∏(1 - curve_i). It returns a new
// sequence; inputs are left untouched.
func ClusterExceedance(curves []*xyseq.Sequence) *xyseq.Sequence {
	if len(curves) == 0 {
		panic("exceedance: ClusterExceedance requires at least one curve")
	}
	product := curves[0].Copy().Complement()
	for _, c := range curves[1:] {
		product.Multiply(c.Copy().Complement())
	}
	return product.Complement()
}
