// Package imt defines the intensity measure type tag used throughout the
// hazard pipeline: PGA, PGV, or spectral acceleration at a given period.
//
// It is kept as its own leaf package: a small, self-contained,
// dependency-free concept that every other package can import without
// pulling in the rest of the model.
package imt

import (
	"fmt"
	"math"
)

// Kind distinguishes broadband intensity measures from spectral ones.
type Kind int

const (
	// PGAKind is peak ground acceleration.
	PGAKind Kind = iota
	// PGVKind is peak ground velocity.
	PGVKind
	// SAKind is spectral acceleration at a period.
	SAKind
)

// IMT identifies a spectral period or broadband ground-motion measure.
// IMTs are comparable (usable as map keys) and ordered by period.
type IMT struct {
	kind   Kind
	period float64 // seconds; zero for PGA/PGV
}

// PGA returns the peak-ground-acceleration IMT.
func PGA() IMT { return IMT{kind: PGAKind} }

// PGV returns the peak-ground-velocity IMT.
func PGV() IMT { return IMT{kind: PGVKind} }

// SA returns the spectral-acceleration IMT at the given period, in seconds.
func SA(period float64) IMT { return IMT{kind: SAKind, period: period} }

// Kind returns the IMT's kind.
func (i IMT) Kind() Kind { return i.kind }

// Period returns the spectral period in seconds, or 0 for PGA/PGV.
func (i IMT) Period() float64 { return i.period }

// String renders the IMT the way hazard-curve output keys typically do,
// e.g. "PGA", "PGV", "SA(0.2)".
func (i IMT) String() string {
	switch i.kind {
	case PGAKind:
		return "PGA"
	case PGVKind:
		return "PGV"
	default:
		return fmt.Sprintf("SA(%g)", i.period)
	}
}

// Less orders IMTs by kind first (PGA, PGV, SA), then by increasing period,
// matching the "IMTs are enumerable and comparable by period" invariant.
func (i IMT) Less(other IMT) bool {
	if i.kind != other.kind {
		return i.kind < other.kind
	}
	return i.period < other.period
}

// clampValues holds the NSHM_CEUS_MAX_INTENSITY ceiling, in g for PGA/SA and
// cm/s for PGV
var (
	pgaClamp = 3.0     // g
	pgvClamp = 400.0   // cm/s
	saClamp  = 6.0      // g, for SA periods below 0.75s
)

// ClampValue returns the NSHM_CEUS_MAX_INTENSITY ceiling for this IMT, or
// +Inf if the IMT has no ceiling (SA at period >= 0.75s).
func (i IMT) ClampValue() float64 {
	switch i.kind {
	case PGAKind:
		return pgaClamp
	case PGVKind:
		return pgvClamp
	default:
		if i.period < 0.75 {
			return saClamp
		}
		return math.Inf(1)
	}
}
