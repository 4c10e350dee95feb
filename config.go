// Package pshacalc is the core of a probabilistic seismic hazard analysis
// (PSHA) engine: it turns a seismic source model, a ground-motion model
// set, a calculation configuration, and one or more sites into hazard
// curves and, optionally, deaggregations.
//
// The package is organized as a handful of files holding the shared,
// immutable configuration and data model (config.go, hazardinput.go,
// groundmotions.go, curves.go) plus the pure per-stage transform functions
// (transforms.go, cluster.go) that map one stage's output to the next,
// generalized from "mutate a value in place" to "map one immutable value
// to the next."
package pshacalc

import (
	"math"
	"runtime"

	"github.com/openpsha/pshacalc/exceedance"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/pshaerr"
	"github.com/openpsha/pshacalc/xyseq"
)

// ExceedanceModelType selects the exceedance model family used when
// building curves
type ExceedanceModelType int

const (
	ExceedanceNone ExceedanceModelType = iota
	TruncationOff
	TruncationUpperOnly
	TruncationLowerUpper
	Truncation3SigmaUpper
	PeerMixtureModel
	NshmCeusMaxIntensity
)

// Model returns the exceedance.Model implementation for this type.
func (t ExceedanceModelType) Model() exceedance.Model {
	switch t {
	case ExceedanceNone:
		return exceedance.NewNone()
	case TruncationOff:
		return exceedance.NewTruncationOff()
	case TruncationUpperOnly:
		return exceedance.NewTruncationUpperOnly()
	case TruncationLowerUpper:
		return exceedance.NewTruncationLowerUpper()
	case Truncation3SigmaUpper:
		return exceedance.NewTruncation3SigmaUpper()
	case PeerMixtureModel:
		return exceedance.NewPeerMixtureModel()
	case NshmCeusMaxIntensity:
		return exceedance.NewNshmCeusMaxIntensity()
	default:
		return exceedance.NewTruncationOff()
	}
}

func (t ExceedanceModelType) valid() bool {
	return t >= ExceedanceNone && t <= NshmCeusMaxIntensity
}

// ValueType selects whether Hazard curves are reported as annual rates or
// as Poisson probabilities of exceedance
type ValueType int

const (
	AnnualRate ValueType = iota
	PoissonProbability
)

// ThreadCount selects how many processors the concurrent pipeline uses.
type ThreadCount int

const (
	ThreadsOne ThreadCount = iota
	ThreadsHalf
	ThreadsNMinus2
	ThreadsAll
)

// Resolve returns the number of goroutines to use for a given setting.
func (t ThreadCount) Resolve() int {
	n := runtime.GOMAXPROCS(0)
	switch t {
	case ThreadsOne:
		return 1
	case ThreadsHalf:
		if n/2 > 0 {
			return n / 2
		}
		return 1
	case ThreadsNMinus2:
		if n-2 > 0 {
			return n - 2
		}
		return 1
	default:
		return n
	}
}

// CurveConfig holds the curve-building settings: exceedance model choice,
// truncation level, the configured IMTs, and IML discretization.
type CurveConfig struct {
	ExceedanceModel ExceedanceModelType
	TruncationLevel float64 // standard deviations, default 3.0
	Imts            []imt.IMT
	GmmUncertainty  bool
	ValueType       ValueType
	DefaultImls     []float64            // in IMT units (linear space)
	CustomImls      map[imt.IMT][]float64 // in IMT units (linear space)
}

// SiteDefaults holds the default site parameters applied when a site
// request omits them.
type SiteDefaults struct {
	Vs30       float64
	VsInferred bool
	Z1p0       float64 // NaN => GMM default
	Z2p5       float64 // NaN => GMM default
}

// PerformanceConfig holds concurrency and optimization settings.
type PerformanceConfig struct {
	OptimizeGrids    bool
	CollapseMfds     bool
	SystemPartition  int
	ThreadCount      ThreadCount
}

// OutputConfig holds curve-output settings.
type OutputConfig struct {
	Directory  string
	CurveTypes []string // TOTAL is always included
	FlushLimit int
}

// DeaggConfig holds the deaggregation bin layout (the distance, magnitude,
// and epsilon ranges and bin widths) plus the target level being
// deaggregated and the reporting threshold for the contributor tree.
type DeaggConfig struct {
	RMin, RMax, DeltaR float64
	MMin, MMax, DeltaM float64
	EMin, EMax, DeltaE float64

	// TargetImt is the IMT the deaggregation is performed for.
	TargetImt imt.IMT
	// TargetLogIML is the natural-log intensity level the rate is
	// deaggregated at, as produced by deagg.TargetLogIML.
	TargetLogIML float64
	// TargetRate is the annual exceedance rate TargetLogIML corresponds
	// to. ReturnPeriod is 1/TargetRate, in years, reported alongside it.
	TargetRate   float64
	ReturnPeriod float64

	// ContributorLimit is the fraction of the total contributing rate
	// (e.g. 0.001 for 0.1%) below which a contributor is folded into a
	// single summarized "other" entry rather than reported individually.
	// Zero disables summarization.
	ContributorLimit float64
}

// CalcConfig is the immutable calculation configuration produced by
// pshautil's ConfigBuilder. Curve x-axes are precomputed and cached here
// ('s "Curve x-axes ... are cached (immutable) inside
// configuration objects").
type CalcConfig struct {
	Curve       CurveConfig
	Site        SiteDefaults
	Performance PerformanceConfig
	Output      OutputConfig
	Deagg       DeaggConfig

	modelCurves    map[imt.IMT]*xyseq.Sequence // linear x
	logModelCurves map[imt.IMT]*xyseq.Sequence // log x
}

// ModelCurve returns the cached linear-x template curve for im, or nil if
// im was not configured.
func (c *CalcConfig) ModelCurve(im imt.IMT) *xyseq.Sequence {
	if s, ok := c.modelCurves[im]; ok {
		return s.Copy()
	}
	return nil
}

// LogModelCurve returns the cached natural-log-x template curve for im, or
// nil if im was not configured. Hazard curves are always built in this
// space's "Invariants."
func (c *CalcConfig) LogModelCurve(im imt.IMT) *xyseq.Sequence {
	if s, ok := c.logModelCurves[im]; ok {
		return s.Copy()
	}
	return nil
}

// imls returns the configured IMLs for im, preferring a custom override.
func (c *CalcConfig) imls(im imt.IMT) []float64 {
	if v, ok := c.Curve.CustomImls[im]; ok && len(v) > 0 {
		return v
	}
	return c.Curve.DefaultImls
}

// Finalize precomputes the shared model-curve x-axes for every configured
// IMT. Callers constructing a CalcConfig directly (outside
// pshautil.ConfigBuilder) must call Finalize once before using
// ModelCurve/LogModelCurve.
func (c *CalcConfig) Finalize() error {
	return c.buildModelCurves()
}

// buildModelCurves precomputes the shared x-axes for every configured IMT.
func (c *CalcConfig) buildModelCurves() error {
	c.modelCurves = make(map[imt.IMT]*xyseq.Sequence, len(c.Curve.Imts))
	c.logModelCurves = make(map[imt.IMT]*xyseq.Sequence, len(c.Curve.Imts))
	for _, im := range c.Curve.Imts {
		x := c.imls(im)
		if len(x) == 0 {
			return pshaerr.New(pshaerr.ConfigInvalid, "no IMLs configured for %s", im)
		}
		linX := make([]float64, len(x))
		copy(linX, x)
		lin, err := xyseq.New(linX, make([]float64, len(x)))
		if err != nil {
			return pshaerr.Wrap(pshaerr.ConfigInvalid, err, "building model curve for %s", im)
		}
		logX := make([]float64, len(x))
		for i, v := range x {
			if v <= 0 {
				return pshaerr.New(pshaerr.ConfigInvalid, "IML for %s must be > 0, got %g", im, v)
			}
			logX[i] = math.Log(v)
		}
		logSeq, err := xyseq.New(logX, make([]float64, len(x)))
		if err != nil {
			return pshaerr.Wrap(pshaerr.ConfigInvalid, err, "building log model curve for %s", im)
		}
		c.modelCurves[im] = lin
		c.logModelCurves[im] = logSeq
	}
	return nil
}
