package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpsha/pshacalc"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/modelapi/fake"
)

func testCalcConfig(t *testing.T) *pshacalc.CalcConfig {
	t.Helper()
	cfg := &pshacalc.CalcConfig{
		Curve: pshacalc.CurveConfig{
			ExceedanceModel: pshacalc.ExceedanceNone,
			TruncationLevel: 3,
			Imts:            []imt.IMT{imt.PGA()},
			ValueType:       pshacalc.AnnualRate,
			DefaultImls:     []float64{1, 10},
		},
		Performance: pshacalc.PerformanceConfig{ThreadCount: pshacalc.ThreadsOne},
	}
	require.NoError(t, cfg.Finalize())
	return cfg
}

func stepGmm(mu float64) modelapi.GmmSet {
	gmm := &fake.Gmm{
		NameVal: "G",
		CalcFn: func(in modelapi.GmmInput, im imt.IMT) (modelapi.ScalarGroundMotion, error) {
			return modelapi.ScalarGroundMotion{
				Means: []float64{mu}, MeanWeights: []float64{1},
				Sigmas: []float64{0.6}, SigmaWeights: []float64{1},
			}, nil
		},
	}
	return &fake.GmmSet{GmmList: []modelapi.Gmm{gmm}, Weights: map[string]float64{"G": 1}}
}

func faultSourceSet(name string, weight float64, gmms modelapi.GmmSet) *fake.SourceSet {
	rup := &fake.Rupture{RateVal: 0.01, MagVal: 6.5, Surf: &fake.Surface{}}
	src := &fake.Source{IDVal: name, Rups: []modelapi.Rupture{rup}}
	return &fake.SourceSet{
		NameVal:   name,
		TypeVal:   modelapi.Fault,
		WeightVal: weight,
		Gmms:      gmms,
		Sources:   []modelapi.Source{src},
	}
}

func TestGraphComputeSumsAcrossSourceSets(t *testing.T) {
	cfg := testCalcConfig(t)
	mu := math.Log(5)
	fault1 := faultSourceSet("F1", 1, stepGmm(mu))
	fault2 := faultSourceSet("F2", 1, stepGmm(mu))
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{fault1, fault2}}

	g := NewGraph(model, cfg)
	set, err := g.Compute(context.Background(), modelapi.Location{})
	require.NoError(t, err)

	total := set.Curves(imt.PGA()).Curve(pshacalc.TotalCurveType)
	require.NotNil(t, total)
	assert.InDelta(t, 0.02, total.Y(0), 1e-12)
	assert.InDelta(t, 0, total.Y(1), 1e-12)
}

func TestGraphComputeSkipsSourceSetsWithNoRupturesNearby(t *testing.T) {
	cfg := testCalcConfig(t)
	empty := &fake.SourceSet{NameVal: "EMPTY", TypeVal: modelapi.Fault, WeightVal: 1, Gmms: stepGmm(0)}
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{empty}}

	g := NewGraph(model, cfg)
	set, err := g.Compute(context.Background(), modelapi.Location{})
	require.NoError(t, err)
	assert.Nil(t, set.Curves(imt.PGA()))
}

func TestGraphComputeFinalizesPoissonConversionOnce(t *testing.T) {
	cfg := testCalcConfig(t)
	cfg.Curve.ValueType = pshacalc.PoissonProbability
	mu := math.Log(5)
	fault := faultSourceSet("F1", 1, stepGmm(mu))
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{fault}}

	g := NewGraph(model, cfg)
	set, err := g.Compute(context.Background(), modelapi.Location{})
	require.NoError(t, err)

	total := set.Curves(imt.PGA()).Curve(pshacalc.TotalCurveType)
	assert.InDelta(t, 1-math.Exp(-0.01), total.Y(0), 1e-12)
}

func TestGraphComputePropagatesSourceSetErrors(t *testing.T) {
	cfg := testCalcConfig(t)
	surf := &fake.Surface{
		DistanceFn: func(loc modelapi.Location) (modelapi.Distance, error) {
			return modelapi.Distance{}, errors.New("bad geometry")
		},
	}
	rup := &fake.Rupture{Surf: surf}
	src := &fake.Source{Rups: []modelapi.Rupture{rup}}
	ss := &fake.SourceSet{NameVal: "BAD", TypeVal: modelapi.Fault, Gmms: stepGmm(0), Sources: []modelapi.Source{src}}
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{ss}}

	g := NewGraph(model, cfg)
	_, err := g.Compute(context.Background(), modelapi.Location{})
	assert.Error(t, err)
}

func TestComputeClusterSourceSetCombinesFaultsJointly(t *testing.T) {
	cfg := testCalcConfig(t)
	mu := math.Log(5)
	surf := &fake.Surface{}
	rupA := &fake.Rupture{RateVal: 0.5, MagVal: 7, Surf: surf}
	rupB := &fake.Rupture{RateVal: 0.5, MagVal: 7, Surf: surf}
	fA := &fake.ClusterFault{IDVal: "A", Rups: []modelapi.Rupture{rupA}}
	fB := &fake.ClusterFault{IDVal: "B", Rups: []modelapi.Rupture{rupB}}
	cs := &fake.ClusterSource{IDVal: "CS1", RateVal: 0.02, FaultList: []modelapi.ClusterFault{fA, fB}}

	css := &fake.ClusterSourceSet{
		SourceSet: fake.SourceSet{NameVal: "CLUSTER1", TypeVal: modelapi.Cluster, WeightVal: 1, Gmms: stepGmm(mu)},
		Clusters:  []modelapi.ClusterSource{cs},
	}
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{css}}

	g := NewGraph(model, cfg)
	set, err := g.Compute(context.Background(), modelapi.Location{})
	require.NoError(t, err)

	total := set.Curves(imt.PGA()).Curve(pshacalc.TotalCurveType)
	require.NotNil(t, total)
	assert.InDelta(t, 0.75*0.02, total.Y(0), 1e-12)
}

func TestComputeSystemSourceSetPartitionsAndConsolidates(t *testing.T) {
	cfg := testCalcConfig(t)
	cfg.Performance.SystemPartition = 3
	mu := math.Log(5)

	var rups []modelapi.Rupture
	for i := 0; i < 6; i++ {
		rups = append(rups, &fake.Rupture{RateVal: 0.01, MagVal: 6.5, Surf: &fake.Surface{}})
	}
	src := &fake.Source{IDVal: "SEC", Rups: rups}
	sss := &fake.SystemSourceSet{
		SourceSet: fake.SourceSet{NameVal: "SYS1", TypeVal: modelapi.System, WeightVal: 1, Gmms: stepGmm(mu), Sources: []modelapi.Source{src}},
	}
	model := &fake.HazardModel{Sets: []modelapi.SourceSet{sss}}

	g := NewGraph(model, cfg)
	set, err := g.Compute(context.Background(), modelapi.Location{})
	require.NoError(t, err)

	total := set.Curves(imt.PGA()).Curve(pshacalc.TotalCurveType)
	require.NotNil(t, total)
	assert.InDelta(t, 0.06, total.Y(0), 1e-12)
}
