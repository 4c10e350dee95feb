package pshacalc

import (
	"github.com/openpsha/pshacalc/exceedance"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
	"github.com/openpsha/pshacalc/xyseq"
)

// ClusterSourceToInputs reduces a cluster source's faults to one
// InputList per fault, keyed by fault ID. Each fault's ruptures carry a
// magnitude-variant weight in HazardInput.Rate rather than an annual
// rate; the cluster's own annual rate is applied later, once, after the
// faults' curves have been jointly exceeded.
func ClusterSourceToInputs(cs modelapi.ClusterSource, loc modelapi.Location) (map[string]*InputList, error) {
	out := make(map[string]*InputList)
	for _, fault := range cs.Faults() {
		list := NewInputList()
		for _, rup := range fault.Ruptures() {
			surf := rup.Surface()
			dist, err := surf.DistanceTo(loc)
			if err != nil {
				return nil, pshaerr.Wrap(pshaerr.ComputationFailed, err, "computing distance for cluster fault %s", fault.ID())
			}
			list.Add(HazardInput{
				Mag:        rup.Mag(),
				Dist:       dist,
				Rake:       rup.Rake(),
				Dip:        surf.Dip(),
				Width:      surf.Width(),
				ZTop:       surf.Depth(),
				ZHyp:       surf.Depth(),
				Rate:       rup.Rate(),
				SourceID:   fault.ID(),
				SourceName: fault.ID(),
			})
		}
		out[fault.ID()] = list
	}
	return out, nil
}

// ClusterInputsToGroundMotions evaluates gmms against every fault's
// InputList independently.
func ClusterInputsToGroundMotions(faultInputs map[string]*InputList, gmms modelapi.GmmSet, imts []imt.IMT, cfg *CalcConfig) (map[string]*GroundMotions, error) {
	out := make(map[string]*GroundMotions, len(faultInputs))
	for faultID, list := range faultInputs {
		if list.Len() == 0 {
			continue
		}
		gm, err := InputsToGroundMotions(list, gmms, imts, cfg)
		if err != nil {
			return nil, pshaerr.Wrap(pshaerr.ComputationFailed, err, "computing ground motions for cluster fault %s", faultID)
		}
		out[faultID] = gm
	}
	return out, nil
}

// faultExceedanceCurve combines one fault's weighted rupture variants into
// a single exceedance curve, the weighted sum across ground-motion models
// and rupture variants (weight, not annual rate, drives the sum here).
func faultExceedanceCurve(gm *GroundMotions, im imt.IMT, model exceedance.Model, n float64, template *xyseq.Sequence) *xyseq.Sequence {
	total := template.Copy()
	for _, gmmName := range gm.GmmNames(im) {
		vals, _ := gm.Get(im, gmmName)
		gmmWeight := gm.GmmWeights[gmmName]
		if gmmWeight == 0 {
			continue
		}
		for i, sgm := range vals {
			weight := gm.Inputs[i].Rate
			if weight == 0 {
				continue
			}
			var curve *xyseq.Sequence
			if sgm.Multi() {
				curve = model.ExceedanceMulti(sgm.Means, sgm.MeanWeights, sgm.Sigmas, sgm.SigmaWeights, n, im, template)
			} else {
				curve = model.ExceedanceSeq(sgm.Means[0], sgm.Sigmas[0], n, im, template)
			}
			curve.MultiplyScalar(weight * gmmWeight)
			total = total.Add(curve)
		}
	}
	return total
}

// ClusterGroundMotionsToCurves combines every fault's exceedance curve via
// joint exceedance, then scales the result by the cluster's own annual
// rate and the enclosing source set's weight.
func ClusterGroundMotionsToCurves(faultGm map[string]*GroundMotions, cs modelapi.ClusterSource, ss modelapi.SourceSet, im imt.IMT, cfg *CalcConfig) (*HazardCurves, error) {
	model := cfg.Curve.ExceedanceModel.Model()
	n := cfg.Curve.TruncationLevel
	template := cfg.LogModelCurve(im)
	if template == nil {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "no model curve configured for %s", im)
	}
	if len(faultGm) == 0 {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "cluster source %s has no fault ground motions", cs.ID())
	}

	var faultCurves []*xyseq.Sequence
	for _, gm := range faultGm {
		faultCurves = append(faultCurves, faultExceedanceCurve(gm, im, model, n, template))
	}

	joint := exceedance.ClusterExceedance(faultCurves)
	joint.MultiplyScalar(cs.Rate())

	builder := NewHazardCurvesBuilder(im)
	if err := builder.Add(modelapi.Cluster.String(), joint); err != nil {
		return nil, err
	}
	hc, err := builder.Build()
	if err != nil {
		return nil, err
	}
	hc.applyWeight(ss.Weight())
	return hc, nil
}
