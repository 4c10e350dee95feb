package pshacalc

import (
	"math"

	"github.com/openpsha/pshacalc/modelapi"
)

// HazardInput is a single rupture-site pairing reduced to the scalar
// values a ground-motion model needs plus the rate (or cluster weight)
// that will scale its curve. It is the output of SourceToInputs and the
// input to InputsToGroundMotions.
//
// For an ordinary source, Rate is the rupture's annual occurrence rate in
// events/year. For a cluster-source fault, the same field instead carries
// the magnitude-variant weight described on modelapi.Rupture: the fault's
// own annual rate lives on the enclosing ClusterSource and is applied
// once, after the fault curves have been jointly exceeded, rather than
// once per fault.
type HazardInput struct {
	Mag    float64
	Dist   modelapi.Distance
	Rake   float64
	Dip    float64
	Width  float64
	ZTop   float64
	ZHyp   float64
	Rate   float64
	SourceID   string
	SourceName string
}

// Gmm builds the GmmInput record a Gmm evaluates, applying the site
// defaults from a CalcConfig for any field the source model doesn't
// carry.
func (h HazardInput) Gmm(cfg *CalcConfig) modelapi.GmmInput {
	z1p0, z2p5 := cfg.Site.Z1p0, cfg.Site.Z2p5
	return modelapi.GmmInput{
		Mw:         h.Mag,
		RJB:        h.Dist.RJB,
		RRup:       h.Dist.RRup,
		RX:         h.Dist.RX,
		Dip:        h.Dip,
		Width:      h.Width,
		ZTop:       h.ZTop,
		ZHyp:       h.ZHyp,
		Rake:       h.Rake,
		Vs30:       cfg.Site.Vs30,
		VsInferred: cfg.Site.VsInferred,
		Z1p0:       z1p0,
		Z2p5:       z2p5,
	}
}

// InputList is an ordered collection of HazardInputs awaiting ground
// motion calculation, along with the minimum rupture-to-site distance
// seen across the list. The minimum distance is threaded through so the
// concurrent pipeline can look up a GmmSet's distance-dependent model
// weights once per list instead of once per rupture.
type InputList struct {
	Inputs      []HazardInput
	MinDistance float64
}

// NewInputList returns an empty InputList with MinDistance initialized to
// +Inf, so the first Add always lowers it.
func NewInputList() *InputList {
	return &InputList{MinDistance: math.Inf(1)}
}

// Add appends in to the list and updates MinDistance.
func (l *InputList) Add(in HazardInput) {
	l.Inputs = append(l.Inputs, in)
	if d := in.Dist.RRup; d < l.MinDistance {
		l.MinDistance = d
	}
}

// Len reports the number of inputs in the list.
func (l *InputList) Len() int { return len(l.Inputs) }

// Partition splits the list into contiguous chunks of at most batchSize
// inputs each, every chunk an independent InputList with its own
// MinDistance, for concurrent system-source processing. The partitions
// preserve input order so that results can be reassembled deterministically.
func (l *InputList) Partition(batchSize int) []*InputList {
	if batchSize < 1 {
		batchSize = 1
	}
	total := len(l.Inputs)
	if total == 0 {
		return []*InputList{NewInputList()}
	}
	var out []*InputList
	for idx := 0; idx < total; idx += batchSize {
		end := idx + batchSize
		if end > total {
			end = total
		}
		part := NewInputList()
		for _, in := range l.Inputs[idx:end] {
			part.Add(in)
		}
		out = append(out, part)
	}
	return out
}
