package pshacalc

import (
	"math"

	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
	"github.com/openpsha/pshacalc/xyseq"
)

// SourceToInputs reduces every rupture of every source in ss within range
// of loc to a HazardInput, computing the rupture-to-site distance via the
// rupture's own geometric surface.
func SourceToInputs(ss modelapi.SourceSet, loc modelapi.Location) (*InputList, error) {
	list := NewInputList()
	for _, src := range ss.SourcesNear(loc) {
		for _, rup := range src.Ruptures() {
			surf := rup.Surface()
			dist, err := surf.DistanceTo(loc)
			if err != nil {
				return nil, pshaerr.Wrap(pshaerr.ComputationFailed, err, "computing distance for source %s", src.ID())
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
				SourceID:   src.ID(),
				SourceName: src.Name(),
			})
		}
	}
	return list, nil
}

// epiExpand expands a singular ScalarGroundMotion into the three epistemic
// mean variants (μ-Δ, μ, μ+Δ) with the GmmSet's epistemic weights, when
// gmms supports it; otherwise it returns sgm unchanged.
func epiExpand(sgm modelapi.ScalarGroundMotion, gmms modelapi.GmmSet, mw, rJB float64) modelapi.ScalarGroundMotion {
	if !gmms.SupportsEpistemic() || sgm.Multi() {
		return sgm
	}
	delta := gmms.EpiValue(mw, rJB)
	if delta == 0 {
		return sgm
	}
	w := gmms.EpiWeights()
	mu := sgm.Means[0]
	return modelapi.ScalarGroundMotion{
		Means:        []float64{mu - delta, mu, mu + delta},
		MeanWeights:  []float64{w[0], w[1], w[2]},
		Sigmas:       sgm.Sigmas,
		SigmaWeights: sgm.SigmaWeights,
	}
}

// InputsToGroundMotions evaluates every Gmm in gmms, for every configured
// IMT, against every input in list, optionally expanding each singular
// result into its epistemic mean variants when cfg enables GMM
// uncertainty.
func InputsToGroundMotions(list *InputList, gmms modelapi.GmmSet, imts []imt.IMT, cfg *CalcConfig) (*GroundMotions, error) {
	weights := gmms.WeightMap(list.MinDistance)
	gm := NewGroundMotions(list.Inputs, weights)
	for _, im := range imts {
		for _, g := range gmms.Gmms() {
			vals := make([]modelapi.ScalarGroundMotion, len(list.Inputs))
			for i, in := range list.Inputs {
				sgm, err := g.Calc(in.Gmm(cfg), im)
				if err != nil {
					return nil, pshaerr.Wrap(pshaerr.ComputationFailed, err, "evaluating gmm %s for source %s", g.Name(), in.SourceID)
				}
				if cfg.Curve.GmmUncertainty {
					sgm = epiExpand(sgm, gmms, in.Mag, in.Dist.RJB)
				}
				vals[i] = sgm
			}
			gm.Set(im, g.Name(), vals)
		}
	}
	return gm, nil
}

// rateToProbability converts an annual occurrence rate to a one-year
// Poisson probability of exceedance: P = 1 - exp(-rate).
func rateToProbability(rate float64) float64 {
	return -math.Expm1(-rate)
}

// GroundMotionsToCurves converts computed ground motions into hazard
// curves for a single source type, weighting each rupture's exceedance
// curve by its rate (or cluster weight), each Gmm's curve by its
// distance-weight, and the source type's own curve by ss.Weight(). Curves
// are always accumulated and returned in annual-rate space;
// cfg.Curve.ValueType is not applied here but later, by FinalizeCurveSet.
func GroundMotionsToCurves(gm *GroundMotions, ss modelapi.SourceSet, cfg *CalcConfig) (*HazardCurves, error) {
	imts := gm.Imts()
	if len(imts) != 1 {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "GroundMotionsToCurves requires ground motions for exactly one IMT, got %d", len(imts))
	}
	im := imts[0]
	model := cfg.Curve.ExceedanceModel.Model()
	n := cfg.Curve.TruncationLevel
	template := cfg.LogModelCurve(im)
	if template == nil {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "no model curve configured for %s", im)
	}

	builder := NewHazardCurvesBuilder(im)
	curveType := ss.Type().String()

	for _, gmmName := range gm.GmmNames(im) {
		vals, _ := gm.Get(im, gmmName)
		w := gm.GmmWeights[gmmName]
		if w == 0 {
			continue
		}
		total := template.Copy()
		for i, sgm := range vals {
			rate := gm.Inputs[i].Rate
			if rate == 0 {
				continue
			}
			var curve *xyseq.Sequence
			if sgm.Multi() {
				curve = model.ExceedanceMulti(sgm.Means, sgm.MeanWeights, sgm.Sigmas, sgm.SigmaWeights, n, im, template)
			} else {
				curve = model.ExceedanceSeq(sgm.Means[0], sgm.Sigmas[0], n, im, template)
			}
			curve.MultiplyScalar(rate)
			total = total.Add(curve)
		}
		total.MultiplyScalar(w)
		if err := builder.AddGmm(curveType, gmmName, total); err != nil {
			return nil, err
		}
	}

	hc, err := builder.Build()
	if err != nil {
		return nil, err
	}
	hc.applyWeight(ss.Weight())
	return hc, nil
}

// applyWeight scales every curve in hc, including every per-Gmm curve, by
// w in place.
func (h *HazardCurves) applyWeight(w float64) {
	if w == 1 {
		return
	}
	for k, c := range h.curves {
		h.curves[k] = c.MultiplyScalar(w)
	}
	for curveType, inner := range h.gmmCurves {
		for gmmName, c := range inner {
			inner[gmmName] = c.MultiplyScalar(w)
		}
		h.gmmCurves[curveType] = inner
	}
}

// ApplyValueType converts every curve's y-values from annual rate to
// Poisson probability in place, if requested. Curves are accumulated in
// annual-rate space throughout SourceToCurves/ClusterGroundMotionsToCurves/
// CurveConsolidator so that combining multiple source sets is a simple
// sum; ApplyValueType should be called exactly once, after every source
// set's contribution has been consolidated into the final curve, since
// the rate-to-probability conversion is not linear.
func (h *HazardCurves) ApplyValueType(vt ValueType) {
	if vt != PoissonProbability {
		return
	}
	for _, c := range h.curves {
		for i := 0; i < c.Len(); i++ {
			c.SetY(i, rateToProbability(c.Y(i)))
		}
	}
	for _, inner := range h.gmmCurves {
		for _, c := range inner {
			for i := 0; i < c.Len(); i++ {
				c.SetY(i, rateToProbability(c.Y(i)))
			}
		}
	}
}

// SourceToCurves composes SourceToInputs, InputsToGroundMotions, and
// GroundMotionsToCurves for a single source set and site, for one IMT.
func SourceToCurves(ss modelapi.SourceSet, loc modelapi.Location, im imt.IMT, cfg *CalcConfig) (*HazardCurves, error) {
	list, err := SourceToInputs(ss, loc)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	gm, err := InputsToGroundMotions(list, ss.GroundMotionModels(), []imt.IMT{im}, cfg)
	if err != nil {
		return nil, err
	}
	return GroundMotionsToCurves(gm, ss, cfg)
}

// CurveConsolidator merges b into a, returning a new HazardCurves whose
// curve for each type is the sum of a's and b's (treating a missing type
// as all-zero). a and b must share the same IMT.
func CurveConsolidator(a, b *HazardCurves) (*HazardCurves, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if a.Imt != b.Imt {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "cannot consolidate curves for different IMTs: %s vs %s", a.Imt, b.Imt)
	}
	builder := NewHazardCurvesBuilder(a.Imt)
	for _, t := range a.Types() {
		if t == TotalCurveType {
			continue
		}
		if c := a.Curve(t); c != nil {
			if err := builder.Add(t, c); err != nil {
				return nil, err
			}
		}
	}
	for _, t := range b.Types() {
		if t == TotalCurveType {
			continue
		}
		if c := b.Curve(t); c != nil {
			if err := builder.Add(t, c); err != nil {
				return nil, err
			}
		}
	}
	return builder.Build()
}

// CurveSetConsolidator merges b into a across every IMT, combining each
// shared IMT's curves with CurveConsolidator and carrying over any IMT
// present in only one of the two sets.
func CurveSetConsolidator(a, b *HazardCurveSet) (*HazardCurveSet, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	builder := NewHazardCurveSetBuilder()
	seen := make(map[imt.IMT]bool)
	for _, im := range a.Imts() {
		seen[im] = true
		merged, err := CurveConsolidator(a.Curves(im), b.Curves(im))
		if err != nil {
			return nil, err
		}
		if merged != nil {
			if err := builder.Add(merged); err != nil {
				return nil, err
			}
		}
	}
	for _, im := range b.Imts() {
		if seen[im] {
			continue
		}
		if err := builder.Add(b.Curves(im)); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}
