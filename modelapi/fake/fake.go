// Package fake provides minimal, hand-wired implementations of every
// modelapi interface for use in tests: a source model, a GMM set, and a
// rupture geometry, each with just enough behavior (often a settable
// function field) to drive the transform chain under test.
package fake

import (
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
)

// Surface is a fake modelapi.RuptureSurface. DistanceFn defaults to
// returning a zero Distance.
type Surface struct {
	DistanceFn func(loc modelapi.Location) (modelapi.Distance, error)
	DipVal     float64
	WidthVal   float64
	DepthVal   float64
}

func (s *Surface) DistanceTo(loc modelapi.Location) (modelapi.Distance, error) {
	if s.DistanceFn != nil {
		return s.DistanceFn(loc)
	}
	return modelapi.Distance{}, nil
}

func (s *Surface) Dip() float64   { return s.DipVal }
func (s *Surface) Width() float64 { return s.WidthVal }
func (s *Surface) Depth() float64 { return s.DepthVal }

// Rupture is a fake modelapi.Rupture.
type Rupture struct {
	RateVal float64
	MagVal  float64
	RakeVal float64
	Surf    modelapi.RuptureSurface
}

func (r *Rupture) Rate() float64                    { return r.RateVal }
func (r *Rupture) Mag() float64                     { return r.MagVal }
func (r *Rupture) Rake() float64                    { return r.RakeVal }
func (r *Rupture) Surface() modelapi.RuptureSurface { return r.Surf }

// Source is a fake modelapi.Source.
type Source struct {
	IDVal   string
	NameVal string
	TypeVal modelapi.SourceType
	Rups    []modelapi.Rupture
}

func (s *Source) ID() string                   { return s.IDVal }
func (s *Source) Name() string                 { return s.NameVal }
func (s *Source) Type() modelapi.SourceType    { return s.TypeVal }
func (s *Source) Ruptures() []modelapi.Rupture { return s.Rups }

// Gmm is a fake modelapi.Gmm. CalcFn defaults to a fixed (mu=0,
// sigma=0.6) singular ground motion for every input and IMT.
type Gmm struct {
	NameVal string
	CalcFn  func(in modelapi.GmmInput, im imt.IMT) (modelapi.ScalarGroundMotion, error)
}

func (g *Gmm) Name() string { return g.NameVal }

func (g *Gmm) Calc(in modelapi.GmmInput, im imt.IMT) (modelapi.ScalarGroundMotion, error) {
	if g.CalcFn != nil {
		return g.CalcFn(in, im)
	}
	return modelapi.ScalarGroundMotion{
		Means:        []float64{0},
		MeanWeights:  []float64{1},
		Sigmas:       []float64{0.6},
		SigmaWeights: []float64{1},
	}, nil
}

// GmmSet is a fake modelapi.GmmSet.
type GmmSet struct {
	GmmList    []modelapi.Gmm
	Weights    map[string]float64
	MaxDist    float64
	Epistemic  bool
	EpiValueFn func(mw, rJB float64) float64
	EpiW       [3]float64
}

func (g *GmmSet) Gmms() []modelapi.Gmm { return g.GmmList }

func (g *GmmSet) WeightMap(minDistance float64) map[string]float64 { return g.Weights }

func (g *GmmSet) MaxDistance() float64 { return g.MaxDist }

func (g *GmmSet) SupportsEpistemic() bool { return g.Epistemic }

func (g *GmmSet) EpiValue(mw, rJB float64) float64 {
	if g.EpiValueFn != nil {
		return g.EpiValueFn(mw, rJB)
	}
	return 0
}

func (g *GmmSet) EpiWeights() [3]float64 { return g.EpiW }

// SourceSet is a fake modelapi.SourceSet.
type SourceSet struct {
	NameVal   string
	TypeVal   modelapi.SourceType
	WeightVal float64
	Gmms      modelapi.GmmSet
	Sources   []modelapi.Source
}

func (s *SourceSet) Name() string                        { return s.NameVal }
func (s *SourceSet) Type() modelapi.SourceType            { return s.TypeVal }
func (s *SourceSet) Weight() float64                      { return s.WeightVal }
func (s *SourceSet) GroundMotionModels() modelapi.GmmSet   { return s.Gmms }
func (s *SourceSet) SourcesNear(loc modelapi.Location) []modelapi.Source { return s.Sources }

// ClusterFault is a fake modelapi.ClusterFault.
type ClusterFault struct {
	IDVal string
	Rups  []modelapi.Rupture
}

func (f *ClusterFault) ID() string                   { return f.IDVal }
func (f *ClusterFault) Ruptures() []modelapi.Rupture { return f.Rups }

// ClusterSource is a fake modelapi.ClusterSource.
type ClusterSource struct {
	IDVal     string
	NameVal   string
	RateVal   float64
	FaultList []modelapi.ClusterFault
}

func (c *ClusterSource) ID() string                        { return c.IDVal }
func (c *ClusterSource) Name() string                      { return c.NameVal }
func (c *ClusterSource) Rate() float64                      { return c.RateVal }
func (c *ClusterSource) Faults() []modelapi.ClusterFault    { return c.FaultList }

// ClusterSourceSet is a fake modelapi.ClusterSourceSet. It embeds
// SourceSet so the ordinary SourceSet methods are promoted, and adds
// ClusterSourcesNear on top.
type ClusterSourceSet struct {
	SourceSet
	Clusters []modelapi.ClusterSource
}

func (c *ClusterSourceSet) ClusterSourcesNear(loc modelapi.Location) []modelapi.ClusterSource {
	return c.Clusters
}

// SystemSection is a fake modelapi.SystemSection.
type SystemSection struct {
	IDVal   string
	NameVal string
}

func (s *SystemSection) ID() string   { return s.IDVal }
func (s *SystemSection) Name() string { return s.NameVal }

// SystemSourceSet is a fake modelapi.SystemSourceSet. It embeds
// SourceSet so the ordinary SourceSet methods are promoted, and adds
// Sections on top.
type SystemSourceSet struct {
	SourceSet
	SectionList []modelapi.SystemSection
}

func (s *SystemSourceSet) Sections() []modelapi.SystemSection { return s.SectionList }

// HazardModel is a fake modelapi.HazardModel.
type HazardModel struct {
	Sets []modelapi.SourceSet
}

func (m *HazardModel) SourceSets() []modelapi.SourceSet { return m.Sets }
