package xyseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedLengths(t *testing.T) {
	_, err := New([]float64{1, 2}, []float64{1})
	require.Error(t, err)
}

func TestNewRejectsNonMonotoneX(t *testing.T) {
	_, err := New([]float64{1, 1, 2}, []float64{0, 0, 0})
	require.Error(t, err)

	_, err = New([]float64{2, 1, 3}, []float64{0, 0, 0})
	require.Error(t, err)
}

func TestNewAcceptsStrictlyIncreasingX(t *testing.T) {
	s, err := New([]float64{1, 2, 3}, []float64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2.0, s.X(1))
	assert.Equal(t, 20.0, s.Y(1))
}

func TestAddSumsYPointwise(t *testing.T) {
	a, _ := New([]float64{1, 2}, []float64{1, 2})
	b, _ := New([]float64{1, 2}, []float64{10, 20})
	a.Add(b)
	assert.Equal(t, []float64{11, 22}, a.Ys())
}

func TestAddPanicsOnLengthMismatch(t *testing.T) {
	a, _ := New([]float64{1, 2}, []float64{1, 2})
	b, _ := New([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.Panics(t, func() { a.Add(b) })
}

func TestMultiplyScalarAndMultiply(t *testing.T) {
	a, _ := New([]float64{1, 2}, []float64{2, 4})
	a.MultiplyScalar(0.5)
	assert.Equal(t, []float64{1.0, 2.0}, a.Ys())

	b, _ := New([]float64{1, 2}, []float64{3, 3})
	a.Multiply(b)
	assert.Equal(t, []float64{3.0, 6.0}, a.Ys())
}

func TestComplement(t *testing.T) {
	a, _ := New([]float64{1, 2}, []float64{0.2, 0.9})
	a.Complement()
	assert.InDeltaSlice(t, []float64{0.8, 0.1}, a.Ys(), 1e-12)
}

func TestCopyIsIndependent(t *testing.T) {
	a, _ := New([]float64{1, 2}, []float64{1, 2})
	b := a.Copy()
	b.SetY(0, 99)
	assert.Equal(t, 1.0, a.Y(0))
	assert.Equal(t, 99.0, b.Y(0))
	assert.True(t, a.SameXAs(b))
}

func TestNewZero(t *testing.T) {
	x := []float64{1, 2, 3}
	s := NewZero(x)
	assert.Equal(t, []float64{0, 0, 0}, s.Ys())
	assert.Equal(t, 3, s.Len())
}
