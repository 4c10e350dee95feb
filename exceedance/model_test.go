package exceedance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/xyseq"
)

func TestNoneIsStepFunction(t *testing.T) {
	m := NewNone()
	assert.Equal(t, 1.0, m.Exceedance(0, 1, 3, imt.PGA(), -0.5))
	assert.Equal(t, 0.0, m.Exceedance(0, 1, 3, imt.PGA(), 0.5))
}

func TestTruncationOffMatchesNormalCCDFAtMean(t *testing.T) {
	m := NewTruncationOff()
	assert.InDelta(t, 0.5, m.Exceedance(0, 1, 3, imt.PGA(), 0), 1e-6)
}

func TestTruncationUpperOnlyIsZeroAtUpperEdge(t *testing.T) {
	m := NewTruncationUpperOnly()
	got := m.Exceedance(0, 1, 3, imt.PGA(), 3)
	assert.InDelta(t, 0, got, 1e-6)
	// at the mean, renormalized probability should still be close to 0.5
	// since the upper truncation only trims a small high tail.
	got = m.Exceedance(0, 1, 3, imt.PGA(), 0)
	assert.InDelta(t, 0.5, got, 1e-3)
}

func TestTruncationLowerUpperIsOneAtLowerEdgeAndZeroAtUpperEdge(t *testing.T) {
	m := NewTruncationLowerUpper()
	assert.InDelta(t, 1, m.Exceedance(0, 1, 3, imt.PGA(), -3), 1e-6)
	assert.InDelta(t, 0, m.Exceedance(0, 1, 3, imt.PGA(), 3), 1e-6)
	assert.InDelta(t, 0.5, m.Exceedance(0, 1, 3, imt.PGA(), 0), 1e-6)
}

func TestTruncation3SigmaUpperMatchesTruncationUpperOnly(t *testing.T) {
	fast := NewTruncation3SigmaUpper()
	ref := NewTruncationUpperOnly()
	for _, eps := range []float64{-2.9, -1, 0, 1, 2, 2.99} {
		want := ref.Exceedance(0, 1, 3, imt.PGA(), eps)
		got := fast.Exceedance(0, 1, 3, imt.PGA(), eps)
		assert.InDelta(t, want, got, 1e-3, "eps=%v", eps)
	}
	assert.Equal(t, 1.0, fast.Exceedance(0, 1, 3, imt.PGA(), -10))
	assert.Equal(t, 0.0, fast.Exceedance(0, 1, 3, imt.PGA(), 10))
}

func TestPeerMixtureModelIgnoresSuppliedSigma(t *testing.T) {
	m := NewPeerMixtureModel()
	a := m.Exceedance(0, 0.1, 3, imt.PGA(), 0.5)
	b := m.Exceedance(0, 5.0, 3, imt.PGA(), 0.5)
	assert.Equal(t, a, b)
}

func TestNshmCeusMaxIntensityClampsUpperEdge(t *testing.T) {
	m := NewNshmCeusMaxIntensity()
	clampX := math.Log(imt.PGA().ClampValue())
	// far beyond the clamp, probability must be exactly zero
	got := m.Exceedance(0, 1, 10, imt.PGA(), clampX+1)
	assert.Equal(t, 0.0, got)
}

func TestExceedanceSeqEvaluatesEveryPoint(t *testing.T) {
	m := NewTruncationOff()
	seq, err := xyseq.New([]float64{-1, 0, 1}, []float64{0, 0, 0})
	require.NoError(t, err)
	out := m.ExceedanceSeq(0, 1, 3, imt.PGA(), seq)
	assert.InDelta(t, m.Exceedance(0, 1, 3, imt.PGA(), -1), out.Y(0), 1e-9)
	assert.InDelta(t, m.Exceedance(0, 1, 3, imt.PGA(), 0), out.Y(1), 1e-9)
	assert.InDelta(t, m.Exceedance(0, 1, 3, imt.PGA(), 1), out.Y(2), 1e-9)
	// seq itself must be untouched
	assert.Equal(t, []float64{0, 0, 0}, seq.Ys())
}

func TestExceedanceMultiIsWeightedSumOverBranches(t *testing.T) {
	m := NewTruncationOff()
	seq, err := xyseq.New([]float64{0}, []float64{0})
	require.NoError(t, err)
	out := m.ExceedanceMulti([]float64{-1, 1}, []float64{0.5, 0.5}, []float64{1}, []float64{1}, 3, imt.PGA(), seq)
	want := 0.5*m.Exceedance(-1, 1, 3, imt.PGA(), 0) + 0.5*m.Exceedance(1, 1, 3, imt.PGA(), 0)
	assert.InDelta(t, want, out.Y(0), 1e-9)
}

func TestClusterExceedanceIsJointProbability(t *testing.T) {
	a, _ := xyseq.New([]float64{0}, []float64{0.2})
	b, _ := xyseq.New([]float64{0}, []float64{0.5})
	joint := ClusterExceedance([]*xyseq.Sequence{a, b})
	want := 1 - (1-0.2)*(1-0.5)
	assert.InDelta(t, want, joint.Y(0), 1e-12)
	// inputs must be left untouched
	assert.Equal(t, 0.2, a.Y(0))
	assert.Equal(t, 0.5, b.Y(0))
}

func TestClusterExceedanceSingleCurve(t *testing.T) {
	a, _ := xyseq.New([]float64{0}, []float64{0.3})
	joint := ClusterExceedance([]*xyseq.Sequence{a})
	assert.InDelta(t, 0.3, joint.Y(0), 1e-12)
}

func TestClusterExceedancePanicsOnEmptyInput(t *testing.T) {
	assert.Panics(t, func() { ClusterExceedance(nil) })
}
