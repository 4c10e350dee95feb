package pshacalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/modelapi/fake"
)

func systemSourceSet(t *testing.T, gmms modelapi.GmmSet, weight float64) *fake.SystemSourceSet {
	t.Helper()
	surf := &fake.Surface{}
	rup := &fake.Rupture{RateVal: 0.01, MagVal: 7, Surf: surf}
	src := &fake.Source{IDVal: "SEC1", Rups: []modelapi.Rupture{rup}}
	return &fake.SystemSourceSet{
		SourceSet: fake.SourceSet{
			TypeVal:   modelapi.System,
			WeightVal: weight,
			Gmms:      gmms,
			Sources:   []modelapi.Source{src},
		},
		SectionList: []modelapi.SystemSection{&fake.SystemSection{IDVal: "SEC1", NameVal: "Section One"}},
	}
}

func stepGmmSet(mu float64) modelapi.GmmSet {
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

func TestSystemSourceToInputsDelegatesToSourceToInputs(t *testing.T) {
	sss := systemSourceSet(t, stepGmmSet(0), 1)
	list, err := SystemSourceToInputs(sss, modelapi.Location{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, "SEC1", list.Inputs[0].SourceID)
}

func TestSystemPartitionInputsChunksBySize(t *testing.T) {
	list := NewInputList()
	for i := 0; i < 4; i++ {
		list.Add(HazardInput{})
	}
	cfg := &CalcConfig{Performance: PerformanceConfig{SystemPartition: 2}}
	parts := SystemPartitionInputs(list, cfg)
	require.Len(t, parts, 2)
	assert.Equal(t, 2, parts[0].Len())
	assert.Equal(t, 2, parts[1].Len())
}

func TestSystemPartitionInputsChunksUnevenBatch(t *testing.T) {
	list := NewInputList()
	for i := 0; i < 4; i++ {
		list.Add(HazardInput{})
	}
	cfg := &CalcConfig{Performance: PerformanceConfig{SystemPartition: 3}}
	parts := SystemPartitionInputs(list, cfg)
	require.Len(t, parts, 2)
	assert.Equal(t, 3, parts[0].Len())
	assert.Equal(t, 1, parts[1].Len())
}

func TestSystemPartitionToCurvesReturnsNilForEmptyPartition(t *testing.T) {
	cfg := noneConfig(t)
	sss := systemSourceSet(t, stepGmmSet(0), 1)
	hc, err := SystemPartitionToCurves(NewInputList(), sss, imt.PGA(), cfg)
	require.NoError(t, err)
	assert.Nil(t, hc)
}

func TestSystemSourceToCurvesSyncMatchesDirectComputation(t *testing.T) {
	cfg := noneConfig(t)
	cfg.Performance.ThreadCount = ThreadsOne
	mu := math.Log(5)
	sss := systemSourceSet(t, stepGmmSet(mu), 0.8)

	got, err := SystemSourceToCurvesSync(sss, modelapi.Location{}, imt.PGA(), cfg)
	require.NoError(t, err)
	require.NotNil(t, got)

	want, err := SourceToCurves(sss, modelapi.Location{}, imt.PGA(), cfg)
	require.NoError(t, err)

	assert.Equal(t, want.Curve(TotalCurveType).Ys(), got.Curve(TotalCurveType).Ys())
}

func TestSystemSourceToCurvesSyncReturnsNilWhenNoInputs(t *testing.T) {
	cfg := noneConfig(t)
	sss := &fake.SystemSourceSet{SourceSet: fake.SourceSet{Gmms: stepGmmSet(0)}}
	hc, err := SystemSourceToCurvesSync(sss, modelapi.Location{}, imt.PGA(), cfg)
	require.NoError(t, err)
	assert.Nil(t, hc)
}
