package pshacalc

import (
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
)

// gmmKey identifies one Gmm's results within a GroundMotions record.
type gmmKey struct {
	imt imt.IMT
	gmm string
}

// GroundMotions holds, for every (IMT, Gmm) pair evaluated for one
// InputList, the per-rupture scalar ground motions produced by each Gmm,
// plus the rupture rates (or cluster weights) and rupture magnitudes
// needed downstream for deaggregation binning.
type GroundMotions struct {
	values map[gmmKey][]modelapi.ScalarGroundMotion
	order  []gmmKey

	// Inputs is the HazardInput list these ground motions were computed
	// from, index-aligned with every slice in values.
	Inputs []HazardInput

	// GmmWeights is the weight assigned to each Gmm by the GmmSet at the
	// list's minimum distance.
	GmmWeights map[string]float64
}

// NewGroundMotions creates an empty GroundMotions for the given inputs.
func NewGroundMotions(inputs []HazardInput, gmmWeights map[string]float64) *GroundMotions {
	return &GroundMotions{
		values:     make(map[gmmKey][]modelapi.ScalarGroundMotion),
		Inputs:     inputs,
		GmmWeights: gmmWeights,
	}
}

// Set stores the per-rupture ground motions computed by gmm for im.
func (g *GroundMotions) Set(im imt.IMT, gmm string, vals []modelapi.ScalarGroundMotion) {
	k := gmmKey{imt: im, gmm: gmm}
	if _, ok := g.values[k]; !ok {
		g.order = append(g.order, k)
	}
	g.values[k] = vals
}

// Get returns the per-rupture ground motions for (im, gmm), and whether
// they were present.
func (g *GroundMotions) Get(im imt.IMT, gmm string) ([]modelapi.ScalarGroundMotion, bool) {
	v, ok := g.values[gmmKey{imt: im, gmm: gmm}]
	return v, ok
}

// GmmNames returns the names of every Gmm with ground motions stored for
// im, in the order they were added.
func (g *GroundMotions) GmmNames(im imt.IMT) []string {
	var names []string
	for _, k := range g.order {
		if k.imt == im {
			names = append(names, k.gmm)
		}
	}
	return names
}

// Imts returns the distinct IMTs with ground motions stored, in the order
// first added.
func (g *GroundMotions) Imts() []imt.IMT {
	seen := make(map[imt.IMT]bool)
	var out []imt.IMT
	for _, k := range g.order {
		if !seen[k.imt] {
			seen[k.imt] = true
			out = append(out, k.imt)
		}
	}
	return out
}
