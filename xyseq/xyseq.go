// Package xyseq implements XySequence, the ordered (x, y) curve container
// used for hazard curves and exceedance curves throughout the pipeline.
//
// The x-axis is shared and immutable so that many curves (built against
// the same configured IMLs) can reference one backing array without
// copying it, while each curve owns and mutates its own y-axis.
package xyseq

import "fmt"

// Sequence is an ordered, strictly-monotone-x curve with a mutable y-axis.
// The x-slice is shared (never mutated in place) across every curve derived
// from the same model x-axis; only y is ever mutated.
type Sequence struct {
	x []float64 // shared, immutable
	y []float64 // owned
}

// New creates a Sequence from x (strictly monotone increasing) and y of
// equal length. x is retained by reference and must not be mutated by the
// caller afterward.
func New(x, y []float64) (*Sequence, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("xyseq: x and y must have equal length (%d != %d)", len(x), len(y))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("xyseq: x values must be strictly monotone increasing (x[%d]=%g <= x[%d]=%g)", i, x[i], i-1, x[i-1])
		}
	}
	return &Sequence{x: x, y: y}, nil
}

// NewZero creates a Sequence with the given shared x-axis and all y-values
// equal to zero. x is retained by reference.
func NewZero(x []float64) *Sequence {
	return &Sequence{x: x, y: make([]float64, len(x))}
}

// Len returns the number of points in the sequence.
func (s *Sequence) Len() int { return len(s.x) }

// X returns the x-value at index i.
func (s *Sequence) X(i int) float64 { return s.x[i] }

// Y returns the y-value at index i.
func (s *Sequence) Y(i int) float64 { return s.y[i] }

// SetY sets the y-value at index i.
func (s *Sequence) SetY(i int, v float64) { s.y[i] = v }

// Xs returns the shared x-axis slice. Callers must not mutate it.
func (s *Sequence) Xs() []float64 { return s.x }

// Ys returns the owned y-axis slice. Callers must not retain it past further
// mutation of the sequence.
func (s *Sequence) Ys() []float64 { return s.y }

// SameXAs reports whether s and other share the same x-axis (by identity,
// the way curves derived from one model's x-axis are expected to).
func (s *Sequence) SameXAs(other *Sequence) bool {
	if len(s.x) != len(other.x) {
		return false
	}
	if len(s.x) > 0 && &s.x[0] == &other.x[0] {
		return true
	}
	for i := range s.x {
		if s.x[i] != other.x[i] {
			return false
		}
	}
	return true
}

// Add adds other's y-values into s's y-values pointwise. Panics if the
// sequences are not the same length.
func (s *Sequence) Add(other *Sequence) *Sequence {
	if s.Len() != other.Len() {
		panic(fmt.Sprintf("xyseq: length mismatch in Add (%d != %d)", s.Len(), other.Len()))
	}
	for i := range s.y {
		s.y[i] += other.y[i]
	}
	return s
}

// MultiplyScalar scales every y-value by v.
func (s *Sequence) MultiplyScalar(v float64) *Sequence {
	for i := range s.y {
		s.y[i] *= v
	}
	return s
}

// Multiply multiplies s's y-values by other's y-values pointwise.
func (s *Sequence) Multiply(other *Sequence) *Sequence {
	if s.Len() != other.Len() {
		panic(fmt.Sprintf("xyseq: length mismatch in Multiply (%d != %d)", s.Len(), other.Len()))
	}
	for i := range s.y {
		s.y[i] *= other.y[i]
	}
	return s
}

// Complement replaces every y-value v with 1-v.
func (s *Sequence) Complement() *Sequence {
	for i := range s.y {
		s.y[i] = 1 - s.y[i]
	}
	return s
}

// Copy returns a mutable deep copy of s: the x-axis is shared by reference
// (it is immutable) and the y-axis is cloned, so callers can mutate the
// result without affecting s or any other sequence sharing its x-axis.
func (s *Sequence) Copy() *Sequence {
	y := make([]float64, len(s.y))
	copy(y, s.y)
	return &Sequence{x: s.x, y: y}
}

// ImmutableCopy returns a copy intended to be handed to a caller as a
// read-only result; it is a plain Copy since Go has no const slices, but the
// name documents the caller's contract not to mutate it further.
func (s *Sequence) ImmutableCopy() *Sequence {
	return s.Copy()
}
