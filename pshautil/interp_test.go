package pshautil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpsha/pshacalc/xyseq"
)

func mustSeq(t *testing.T, x, y []float64) *xyseq.Sequence {
	t.Helper()
	s, err := xyseq.New(x, y)
	require.NoError(t, err)
	return s
}

func TestLogYInterpMidpointIsGeometricMean(t *testing.T) {
	s := mustSeq(t, []float64{0, 1}, []float64{1, 0.01})
	got := LogYInterp(s, 0.5)
	assert.InDelta(t, math.Sqrt(1*0.01), got, 1e-9)
}

func TestLogYInterpClampsOutOfRange(t *testing.T) {
	s := mustSeq(t, []float64{0, 1}, []float64{1, 0.01})
	assert.Equal(t, 1.0, LogYInterp(s, -5))
	assert.Equal(t, 0.01, LogYInterp(s, 5))
}

func TestLogYInterpSinglePointReturnsItsY(t *testing.T) {
	s := mustSeq(t, []float64{0}, []float64{0.5})
	assert.Equal(t, 0.5, LogYInterp(s, 100))
}

func TestLogYInterpFallsBackToLinearForNonPositiveY(t *testing.T) {
	s := mustSeq(t, []float64{0, 1}, []float64{0, 1})
	assert.InDelta(t, 0.5, LogYInterp(s, 0.5), 1e-9)
}

func TestTargetIMLInvertsLogYInterp(t *testing.T) {
	s := mustSeq(t, []float64{0, 1, 2}, []float64{1, 0.1, 0.01})
	for _, x := range []float64{0.2, 0.7, 1.3, 1.9} {
		y := LogYInterp(s, x)
		gotX := TargetIML(s, y)
		assert.InDelta(t, x, gotX, 1e-6)
	}
}

func TestTargetIMLClampsOutOfRangeTargets(t *testing.T) {
	s := mustSeq(t, []float64{0, 1}, []float64{1, 0.01})
	assert.Equal(t, 0.0, TargetIML(s, 5))
	assert.Equal(t, 1.0, TargetIML(s, 0.0001))
}
