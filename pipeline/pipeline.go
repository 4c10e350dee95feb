// Package pipeline orchestrates a full-model hazard calculation: fanning
// a site's hazard request out across every source set in a
// modelapi.HazardModel, running each source set's transform chain
// concurrently, and folding the results into a single Hazard. Ordinary
// and cluster source sets are dispatched with golang.org/x/sync/errgroup,
// the same "one goroutine per independent unit of work, first error wins
// and cancels the rest" shape used across the Go ecosystem for bounded
// fan-out; system source sets additionally partition their own rupture
// set and use the striped-goroutine pattern (one goroutine per
// processor, every Nth item) for the bulk-generated rupture list.
package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openpsha/pshacalc"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
)

// Graph runs a hazard calculation for a set of sites against a
// modelapi.HazardModel.
type Graph struct {
	Model  modelapi.HazardModel
	Config *pshacalc.CalcConfig

	// Log receives a structured entry for every source set skipped
	// because it produced no ruptures near a site. A nil Log discards
	// these entries.
	Log logrus.FieldLogger
}

// NewGraph constructs a Graph with a standard logrus logger.
func NewGraph(model modelapi.HazardModel, cfg *pshacalc.CalcConfig) *Graph {
	return &Graph{Model: model, Config: cfg, Log: logrus.StandardLogger()}
}

func (g *Graph) log() logrus.FieldLogger {
	if g.Log != nil {
		return g.Log
	}
	return logrus.New()
}

// Compute runs the full calculation for loc across every configured IMT
// and every source set in the model, fanning out across source sets with
// an errgroup bounded by cfg.Performance.ThreadCount. The result's curves
// are finalized (ValueType conversion applied) before return.
func (g *Graph) Compute(ctx context.Context, loc modelapi.Location) (*pshacalc.HazardCurveSet, error) {
	sets := g.Model.SourceSets()
	results := make([]*pshacalc.HazardCurveSet, len(sets))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.Config.Performance.ThreadCount.Resolve())

	for i, ss := range sets {
		i, ss := i, ss
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return pshaerr.Wrap(pshaerr.PipelineCancelled, ctx.Err(), "source set %s cancelled", ss.Name())
			default:
			}
			set, err := g.computeSourceSet(ss, loc)
			if err != nil {
				return pshaerr.Wrap(pshaerr.ComputationFailed, err, "computing source set %s", ss.Name())
			}
			results[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var total *pshacalc.HazardCurveSet
	for _, r := range results {
		if r == nil {
			continue
		}
		merged, err := pshacalc.CurveSetConsolidator(total, r)
		if err != nil {
			return nil, err
		}
		total = merged
	}
	if total == nil {
		total = mustEmptySet()
	}
	pshacalc.FinalizeCurveSet(total, g.Config)
	return total, nil
}

func mustEmptySet() *pshacalc.HazardCurveSet {
	set, _ := pshacalc.NewHazardCurveSetBuilder().Build()
	return set
}

// computeSourceSet dispatches on source set type: cluster sets use
// ClusterSourceToInputs/ClusterGroundMotionsToCurves, system sets use the
// partitioned pipeline, and everything else uses the plain
// SourceToCurves chain.
func (g *Graph) computeSourceSet(ss modelapi.SourceSet, loc modelapi.Location) (*pshacalc.HazardCurveSet, error) {
	builder := pshacalc.NewHazardCurveSetBuilder()
	for _, im := range g.Config.Curve.Imts {
		var hc *pshacalc.HazardCurves
		var err error
		switch ss.Type() {
		case modelapi.System:
			sss, ok := ss.(modelapi.SystemSourceSet)
			if !ok {
				err = pshaerr.New(pshaerr.ConfigInvalid, "source set %s declares type SYSTEM but does not implement SystemSourceSet", ss.Name())
				break
			}
			hc, err = g.computeSystemSourceSet(sss, loc, im)
		case modelapi.Cluster:
			css, ok := ss.(modelapi.ClusterSourceSet)
			if !ok {
				err = pshaerr.New(pshaerr.ConfigInvalid, "source set %s declares type CLUSTER but does not implement ClusterSourceSet", ss.Name())
				break
			}
			hc, err = g.computeClusterSourceSet(css, loc, im)
		default:
			hc, err = pshacalc.SourceToCurves(ss, loc, im, g.Config)
		}
		if err != nil {
			return nil, err
		}
		if hc == nil {
			g.log().WithFields(logrus.Fields{"sourceSet": ss.Name(), "imt": im.String()}).Debug("no ruptures within range; skipping")
			continue
		}
		if err := builder.Add(hc); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// computeClusterSourceSet runs ClusterSourceToInputs/
// ClusterInputsToGroundMotions/ClusterGroundMotionsToCurves for every
// cluster source in css near loc and sums the resulting curves (every
// cluster source shares the CLUSTER curve-type key, so
// HazardCurvesBuilder.Add sums them directly).
func (g *Graph) computeClusterSourceSet(css modelapi.ClusterSourceSet, loc modelapi.Location, im imt.IMT) (*pshacalc.HazardCurves, error) {
	sources := css.ClusterSourcesNear(loc)
	if len(sources) == 0 {
		return nil, nil
	}
	var total *pshacalc.HazardCurves
	for _, cs := range sources {
		faultInputs, err := pshacalc.ClusterSourceToInputs(cs, loc)
		if err != nil {
			return nil, err
		}
		faultGm, err := pshacalc.ClusterInputsToGroundMotions(faultInputs, css.GroundMotionModels(), []imt.IMT{im}, g.Config)
		if err != nil {
			return nil, err
		}
		if len(faultGm) == 0 {
			continue
		}
		hc, err := pshacalc.ClusterGroundMotionsToCurves(faultGm, cs, css, im, g.Config)
		if err != nil {
			return nil, err
		}
		total, err = pshacalc.CurveConsolidator(total, hc)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

// computeSystemSourceSet partitions sss's bulk rupture list and runs each
// partition concurrently, the same GOMAXPROCS-striped shape as a
// sequential grid calculation but applied to rupture partitions instead
// of grid cells.
func (g *Graph) computeSystemSourceSet(sss modelapi.SystemSourceSet, loc modelapi.Location, im imt.IMT) (*pshacalc.HazardCurves, error) {
	list, err := pshacalc.SystemSourceToInputs(sss, loc)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	partitions := pshacalc.SystemPartitionInputs(list, g.Config)

	results := make([]pshacalc.SystemPartitionResult, len(partitions))
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > len(partitions) {
		nprocs = len(partitions)
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		pp := pp
		go func() {
			defer wg.Done()
			for i := pp; i < len(partitions); i += nprocs {
				hc, err := pshacalc.SystemPartitionToCurves(partitions[i], sss, im, g.Config)
				results[i] = pshacalc.SystemPartitionResult{Curves: hc, Err: err}
			}
		}()
	}
	wg.Wait()

	var total *pshacalc.HazardCurves
	for i, r := range results {
		if r.Err != nil {
			return nil, pshaerr.Wrap(pshaerr.ComputationFailed, r.Err, "system source %s partition %d", sss.Name(), i)
		}
		merged, err := pshacalc.CurveConsolidator(total, r.Curves)
		if err != nil {
			return nil, err
		}
		total = merged
	}
	return total, nil
}
