// Package modelapi defines the contracts the hazard core consumes but does
// not implement: the seismic source model, the site geometry library, and
// ground-motion models. Source-model parsing, the concrete geometric
// surface library, and GMM formulae are all external collaborators
// supplied by the caller.
//
// The hazard core depends only on these interfaces and never imports a
// concrete source-model or GMM package; the inversion lets the core stay
// ignorant of any one source model or GMM library.
package modelapi

import "github.com/openpsha/pshacalc/imt"

// SourceType enumerates the kinds of source set the model may contain.
type SourceType int

const (
	Fault SourceType = iota
	Grid
	Slab
	Cluster
	System
	Area
)

func (t SourceType) String() string {
	switch t {
	case Fault:
		return "FAULT"
	case Grid:
		return "GRID"
	case Slab:
		return "SLAB"
	case Cluster:
		return "CLUSTER"
	case System:
		return "SYSTEM"
	case Area:
		return "AREA"
	default:
		return "UNKNOWN"
	}
}

// Location is a site or rupture location in geographic coordinates.
type Location struct {
	Lon, Lat float64
}

// Distance holds the three distance metrics the geometry library computes
// between a rupture surface and a site.
type Distance struct {
	RJB  float64 // Joyner-Boore distance, km
	RRup float64 // closest distance to rupture, km
	RX   float64 // horizontal distance from the surface projection of the
	// top edge of the rupture, measured perpendicular to strike, km
}

// RuptureSurface is the geometric contract satisfied by the external
// surface library. The core never constructs a RuptureSurface; it only
// calls DistanceTo and reads the scalar geometry fields.
type RuptureSurface interface {
	// DistanceTo computes the rupture-to-site distance metrics.
	DistanceTo(loc Location) (Distance, error)

	// Dip is the rupture dip angle in degrees.
	Dip() float64

	// Width is the down-dip rupture width in km.
	Width() float64

	// Depth is the depth to the top of the rupture (zTop) in km.
	Depth() float64
}

// Rupture is a single earthquake rupture within a Source.
type Rupture interface {
	// Rate is the annual occurrence rate of the rupture, in events/year.
	// For cluster-source faults, this field instead carries a
	// magnitude-variant weight; see HazardInput's doc comment.
	Rate() float64

	// Mag is the rupture moment magnitude.
	Mag() float64

	// Rake is the rupture rake angle in degrees.
	Rake() float64

	// Surface returns the rupture's geometric surface.
	Surface() RuptureSurface
}

// Source is a single fault, grid cell, or other seismogenic feature that
// produces ruptures.
type Source interface {
	ID() string
	Name() string
	Type() SourceType

	// Ruptures returns the ruptures produced by this source, in a stable,
	// deterministic order.
	Ruptures() []Rupture
}

// SourceSet is a group of sources sharing a ground-motion model set and a
// source-type-level weight.
type SourceSet interface {
	Name() string
	Type() SourceType

	// Weight is the source set's overall weight in a logic tree, applied
	// when reducing per-set curves into a site total.
	Weight() float64

	// GroundMotionModels returns the GmmSet used to evaluate this set's
	// ruptures.
	GroundMotionModels() GmmSet

	// SourcesNear returns the sources in this set that are within the
	// GmmSet's maximum applicable distance of loc; farther sources are
	// omitted
	SourcesNear(loc Location) []Source
}

// HazardModel is an iterable collection of source sets.
type HazardModel interface {
	SourceSets() []SourceSet
}

// ClusterFault is a single fault within a cluster source. Cluster ruptures
// carry magnitude-variant weights (in Rate) rather than annual rates.
type ClusterFault interface {
	ID() string
	Ruptures() []Rupture
}

// ClusterSource is a set of temporally-exclusive faults whose curves are
// combined by joint exceedance rather than simple summation.
type ClusterSource interface {
	ID() string
	Name() string

	// Rate is the cluster's overall annual occurrence rate, applied to the
	// jointly-exceeded curve.
	Rate() float64

	Faults() []ClusterFault
}

// ClusterSourceSet is a source set whose elements are ClusterSources
// rather than ordinary Sources. SourcesNear (inherited from SourceSet)
// is unused for this type and may return nil; callers dispatch on
// Type() == Cluster and use ClusterSourcesNear instead.
type ClusterSourceSet interface {
	SourceSet

	// ClusterSourcesNear returns the cluster sources in this set within
	// the GmmSet's maximum applicable distance of loc.
	ClusterSourcesNear(loc Location) []ClusterSource
}

// SystemSection identifies a fault section contributing to a System source
// set, used to key deaggregation SystemContributors.
type SystemSection interface {
	ID() string
	Name() string
}

// SystemSourceSet is a large interconnected fault network whose rupture
// inputs are gathered into a single InputList for the whole set
type SystemSourceSet interface {
	SourceSet

	// Sections returns the fault sections making up the system, used to
	// attribute deaggregation contributions.
	Sections() []SystemSection
}

// Gmm is a single ground-motion model for one IMT: a pure function from a
// GmmInput to a predicted ground motion in natural-log IMT units.
type Gmm interface {
	Name() string

	// Calc evaluates the model for the given input and IMT, returning
	// either a singular or multi-scalar ground motion.
	Calc(in GmmInput, im imt.IMT) (ScalarGroundMotion, error)
}

// GmmInput is the rupture/site record a Gmm evaluates.
type GmmInput struct {
	Mw          float64
	RJB         float64
	RRup        float64
	RX          float64
	Dip         float64
	Width       float64
	ZTop        float64
	ZHyp        float64
	Rake        float64
	Vs30        float64
	VsInferred  bool
	Z1p0        float64
	Z2p5        float64
}

// ScalarGroundMotion is the result of evaluating a Gmm. A singular result
// has len(Means) == len(Sigmas) == 1 and weight 1; a multi-scalar result
// carries parallel arrays of means and sigmas with their own weights,
// representing a GMM-internal logic tree.
type ScalarGroundMotion struct {
	Means       []float64
	MeanWeights []float64
	Sigmas      []float64
	SigmaWeights []float64
}

// Multi reports whether this is a multi-scalar result.
func (s ScalarGroundMotion) Multi() bool {
	return len(s.Means) > 1 || len(s.Sigmas) > 1
}

// GmmSet is a set of Gmms with per-Gmm, distance-dependent weights and an
// optional epistemic-uncertainty model.
type GmmSet interface {
	Gmms() []Gmm

	// WeightMap returns the Gmm weights applicable at the given minimum
	// source-to-site distance.
	WeightMap(minDistance float64) map[string]float64

	// MaxDistance is the distance beyond which sources are omitted from
	// SourceSet.SourcesNear.
	MaxDistance() float64

	// SupportsEpistemic reports whether this set has an epistemic GMM
	// uncertainty model.
	SupportsEpistemic() bool

	// EpiValue returns the epistemic mean offset Δ for the given magnitude
	// and Joyner-Boore distance.
	EpiValue(mw, rJB float64) float64

	// EpiWeights returns the three weights (lower, central, upper) applied
	// to the epistemic mean variants (μ-Δ, μ, μ+Δ).
	EpiWeights() [3]float64
}
