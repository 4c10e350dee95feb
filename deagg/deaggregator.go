package deagg

import (
	"github.com/sirupsen/logrus"

	"github.com/openpsha/pshacalc"
	"github.com/openpsha/pshacalc/exceedance"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
	"github.com/openpsha/pshacalc/pshautil"
)

// Deaggregator breaks a site's hazard at one target intensity level down
// into a binned distance/magnitude/epsilon Dataset, per-Gmm variants of
// that same Dataset, and a ranked Contributor tree, using the same
// SourceToInputs/InputsToGroundMotions transform chain as ordinary
// curve-building but evaluating every rupture's exceedance at a single
// x-value instead of across a curve.
type Deaggregator struct {
	Config *pshacalc.CalcConfig

	// Log receives a debug entry for every source set that contributes
	// zero rate at the target level. A nil Log discards these entries.
	Log logrus.FieldLogger
}

// NewDeaggregator constructs a Deaggregator with a standard logrus logger.
func NewDeaggregator(cfg *pshacalc.CalcConfig) *Deaggregator {
	return &Deaggregator{Config: cfg, Log: logrus.StandardLogger()}
}

func (d *Deaggregator) log() logrus.FieldLogger {
	if d.Log != nil {
		return d.Log
	}
	return logrus.New()
}

// TargetLogIML locates the natural-log intensity level at which totalCurve
// (the TOTAL curve from a prior, fully-consolidated hazard calculation for
// the same site and IMT) equals targetRate, an annual rate. Callers
// deaggregating a return period or a Poisson probability must convert to
// an annual rate first, with pshautil.ReturnPeriodToRate or
// pshautil.ProbabilityToRate.
func TargetLogIML(totalCurve *pshacalc.HazardCurves, targetRate float64) float64 {
	return pshautil.TargetIML(totalCurve.Curve(pshacalc.TotalCurveType), targetRate)
}

// Deaggregate attributes the rate crossing targetLogIML (in natural-log
// IMT units, as returned by TargetLogIML) across every source set in
// model. It returns the binned Dataset totaled across every Gmm, the same
// Dataset broken out per Gmm name, and the per-source-set Contributor
// tree sorted by descending rate. Each Gmm name has one DatasetBuilder
// shared by every source set, so the returned per-Gmm map reflects every
// Gmm used by any source set in model; DatasetConsolidator combines the
// per-Gmm Datasets into the total.
func (d *Deaggregator) Deaggregate(model modelapi.HazardModel, loc modelapi.Location, im imt.IMT, targetLogIML float64) (*Dataset, map[string]*Dataset, []Contributor, error) {
	gmmBuilders := make(map[string]*DatasetBuilder)

	var setContributors []Contributor
	for _, ss := range model.SourceSets() {
		var ssc *SourceSetContributor
		var err error
		switch ss.Type() {
		case modelapi.Cluster:
			css, ok := ss.(modelapi.ClusterSourceSet)
			if !ok {
				return nil, nil, nil, pshaerr.New(pshaerr.ConfigInvalid, "source set %s declares type CLUSTER but does not implement ClusterSourceSet", ss.Name())
			}
			ssc, err = d.deaggregateClusterSourceSet(gmmBuilders, css, loc, im, targetLogIML)
		case modelapi.System:
			sss, ok := ss.(modelapi.SystemSourceSet)
			if !ok {
				return nil, nil, nil, pshaerr.New(pshaerr.ConfigInvalid, "source set %s declares type SYSTEM but does not implement SystemSourceSet", ss.Name())
			}
			ssc, err = d.deaggregateSystemSourceSet(gmmBuilders, sss, loc, im, targetLogIML)
		default:
			ssc, err = d.deaggregateSourceSet(gmmBuilders, ss, loc, im, targetLogIML)
		}
		if err != nil {
			return nil, nil, nil, err
		}
		if ssc == nil {
			d.log().WithFields(logrus.Fields{"sourceSet": ss.Name(), "imt": im.String()}).Debug("source set contributes no rate at target level; skipping")
			continue
		}
		setContributors = SourceSetConsolidator(setContributors, []Contributor{ssc})
	}

	var topTotal float64
	for _, c := range setContributors {
		topTotal += c.Rate()
	}
	setContributors = ApplyContributorLimit(setContributors, topTotal, d.Config.Deagg.ContributorLimit)

	gmmDatasets := make(map[string]*Dataset, len(gmmBuilders))
	var total *Dataset
	for name, b := range gmmBuilders {
		ds, err := b.Build()
		if err != nil {
			return nil, nil, nil, err
		}
		gmmDatasets[name] = ds
		total, err = DatasetConsolidator(total, ds)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if total == nil {
		empty, err := NewDatasetBuilder(d.Config.Deagg).Build()
		if err != nil {
			return nil, nil, nil, err
		}
		total = empty
	}
	return total, gmmDatasets, setContributors, nil
}

// gmmBuilder returns the DatasetBuilder accumulating gmmName's contributions
// across every source set, allocating one on first use.
func gmmBuilder(cfg pshacalc.DeaggConfig, builders map[string]*DatasetBuilder, gmmName string) *DatasetBuilder {
	b, ok := builders[gmmName]
	if !ok {
		b = NewDatasetBuilder(cfg)
		builders[gmmName] = b
	}
	return b
}

// binContribution evaluates model's exceedance at targetLogIML for a
// single rupture's ground motion (expanding a multi-scalar result across
// every mean/sigma branch), bins each branch's contribution by
// (distance, magnitude, epsilon) into builder, and reports the total
// contributed rate via tag.
func binContribution(builder *DatasetBuilder, in pshacalc.HazardInput, sgm modelapi.ScalarGroundMotion, scale float64, model exceedance.Model, n float64, im imt.IMT, targetLogIML float64, tag func(rate float64)) {
	if sgm.Multi() {
		for mi, mu := range sgm.Means {
			for si, sigma := range sgm.Sigmas {
				w := sgm.MeanWeights[mi] * sgm.SigmaWeights[si]
				if w == 0 {
					continue
				}
				p := model.Exceedance(mu, sigma, n, im, targetLogIML)
				contribRate := scale * w * p
				if contribRate == 0 {
					continue
				}
				eps := (mu - targetLogIML) / sigma
				builder.AddRate(in.Dist.RRup, in.Mag, eps, contribRate)
				tag(contribRate)
			}
		}
		return
	}
	mu, sigma := sgm.Means[0], sgm.Sigmas[0]
	p := model.Exceedance(mu, sigma, n, im, targetLogIML)
	contribRate := scale * p
	if contribRate == 0 {
		return
	}
	eps := (mu - targetLogIML) / sigma
	builder.AddRate(in.Dist.RRup, in.Mag, eps, contribRate)
	tag(contribRate)
}

func (d *Deaggregator) deaggregateSourceSet(gmmBuilders map[string]*DatasetBuilder, ss modelapi.SourceSet, loc modelapi.Location, im imt.IMT, targetLogIML float64) (*SourceSetContributor, error) {
	list, err := pshacalc.SourceToInputs(ss, loc)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	gm, err := pshacalc.InputsToGroundMotions(list, ss.GroundMotionModels(), []imt.IMT{im}, d.Config)
	if err != nil {
		return nil, err
	}
	model := d.Config.Curve.ExceedanceModel.Model()
	n := d.Config.Curve.TruncationLevel

	acc := newContributorAccumulator()
	for _, gmmName := range gm.GmmNames(im) {
		vals, _ := gm.Get(im, gmmName)
		gmmWeight := gm.GmmWeights[gmmName]
		if gmmWeight == 0 {
			continue
		}
		builder := gmmBuilder(d.Config.Deagg, gmmBuilders, gmmName)
		for i, sgm := range vals {
			in := gm.Inputs[i]
			if in.Rate == 0 {
				continue
			}
			binContribution(builder, in, sgm, in.Rate*gmmWeight, model, n, im, targetLogIML, func(rate float64) {
				acc.addSource(in.SourceID, in.SourceName, rate)
			})
		}
	}
	children, total := acc.build()
	if total == 0 {
		return nil, nil
	}
	children = ApplyContributorLimit(children, total, d.Config.Deagg.ContributorLimit)
	return &SourceSetContributor{SourceSetName: ss.Name(), rate: total, Children: children}, nil
}

// deaggregateClusterSourceSet attributes rate per cluster source by
// summing each fault's own weighted exceedance at the target level,
// scaled by the cluster's annual rate. This approximates the true joint
// exceedance's marginal attribution (exact per-fault partitioning of a
// 1-∏(1-p_i) product has no closed form); it is exact when at most one
// fault in a cluster has non-negligible probability at the target level,
// the common case for temporally-exclusive faults far out on the curve.
func (d *Deaggregator) deaggregateClusterSourceSet(gmmBuilders map[string]*DatasetBuilder, css modelapi.ClusterSourceSet, loc modelapi.Location, im imt.IMT, targetLogIML float64) (*SourceSetContributor, error) {
	sources := css.ClusterSourcesNear(loc)
	if len(sources) == 0 {
		return nil, nil
	}
	model := d.Config.Curve.ExceedanceModel.Model()
	n := d.Config.Curve.TruncationLevel

	acc := newContributorAccumulator()
	for _, cs := range sources {
		faultInputs, err := pshacalc.ClusterSourceToInputs(cs, loc)
		if err != nil {
			return nil, err
		}
		faultGm, err := pshacalc.ClusterInputsToGroundMotions(faultInputs, css.GroundMotionModels(), []imt.IMT{im}, d.Config)
		if err != nil {
			return nil, err
		}
		if len(faultGm) == 0 {
			continue
		}
		var clusterRate float64
		for _, gm := range faultGm {
			for _, gmmName := range gm.GmmNames(im) {
				vals, _ := gm.Get(im, gmmName)
				gmmWeight := gm.GmmWeights[gmmName]
				if gmmWeight == 0 {
					continue
				}
				builder := gmmBuilder(d.Config.Deagg, gmmBuilders, gmmName)
				for i, sgm := range vals {
					in := gm.Inputs[i]
					weight := in.Rate // magnitude-variant weight, not annual rate
					if weight == 0 {
						continue
					}
					binContribution(builder, in, sgm, cs.Rate()*gmmWeight*weight, model, n, im, targetLogIML, func(rate float64) {
						clusterRate += rate
					})
				}
			}
		}
		if clusterRate > 0 {
			acc.addCluster(cs.ID(), cs.Name(), clusterRate)
		}
	}
	children, total := acc.build()
	if total == 0 {
		return nil, nil
	}
	children = ApplyContributorLimit(children, total, d.Config.Deagg.ContributorLimit)
	return &SourceSetContributor{SourceSetName: css.Name(), rate: total, Children: children}, nil
}

func (d *Deaggregator) deaggregateSystemSourceSet(gmmBuilders map[string]*DatasetBuilder, sss modelapi.SystemSourceSet, loc modelapi.Location, im imt.IMT, targetLogIML float64) (*SourceSetContributor, error) {
	list, err := pshacalc.SystemSourceToInputs(sss, loc)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	gm, err := pshacalc.InputsToGroundMotions(list, sss.GroundMotionModels(), []imt.IMT{im}, d.Config)
	if err != nil {
		return nil, err
	}
	sectionNames := make(map[string]string, len(sss.Sections()))
	for _, sec := range sss.Sections() {
		sectionNames[sec.ID()] = sec.Name()
	}
	model := d.Config.Curve.ExceedanceModel.Model()
	n := d.Config.Curve.TruncationLevel

	acc := newContributorAccumulator()
	for _, gmmName := range gm.GmmNames(im) {
		vals, _ := gm.Get(im, gmmName)
		gmmWeight := gm.GmmWeights[gmmName]
		if gmmWeight == 0 {
			continue
		}
		builder := gmmBuilder(d.Config.Deagg, gmmBuilders, gmmName)
		for i, sgm := range vals {
			in := gm.Inputs[i]
			if in.Rate == 0 {
				continue
			}
			name := sectionNames[in.SourceID]
			if name == "" {
				name = in.SourceName
			}
			binContribution(builder, in, sgm, in.Rate*gmmWeight, model, n, im, targetLogIML, func(rate float64) {
				acc.addSystemSection(in.SourceID, name, rate)
			})
		}
	}
	children, total := acc.build()
	if total == 0 {
		return nil, nil
	}
	children = ApplyContributorLimit(children, total, d.Config.Deagg.ContributorLimit)
	return &SourceSetContributor{SourceSetName: sss.Name(), rate: total, Children: children}, nil
}
