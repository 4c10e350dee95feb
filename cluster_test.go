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

func TestClusterSourceToInputsKeysByFault(t *testing.T) {
	surf := &fake.Surface{}
	rupA := &fake.Rupture{RateVal: 0.3, MagVal: 7, Surf: surf}
	rupB := &fake.Rupture{RateVal: 0.7, MagVal: 7.2, Surf: surf}
	faultA := &fake.ClusterFault{IDVal: "A", Rups: []modelapi.Rupture{rupA}}
	faultB := &fake.ClusterFault{IDVal: "B", Rups: []modelapi.Rupture{rupB}}
	cs := &fake.ClusterSource{IDVal: "CS1", FaultList: []modelapi.ClusterFault{faultA, faultB}}

	out, err := ClusterSourceToInputs(cs, modelapi.Location{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out["A"].Len())
	assert.Equal(t, 0.3, out["A"].Inputs[0].Rate)
	assert.Equal(t, 1, out["B"].Len())
	assert.Equal(t, 0.7, out["B"].Inputs[0].Rate)
}

func TestClusterInputsToGroundMotionsSkipsEmptyFaults(t *testing.T) {
	faultInputs := map[string]*InputList{
		"A": NewInputList(),
		"B": {},
	}
	faultInputs["B"].Add(HazardInput{SourceID: "B"})

	gmm := &fake.Gmm{NameVal: "G"}
	gmms := &fake.GmmSet{GmmList: []modelapi.Gmm{gmm}, Weights: map[string]float64{"G": 1}}
	cfg := noneConfig(t)

	out, err := ClusterInputsToGroundMotions(faultInputs, gmms, []imt.IMT{imt.PGA()}, cfg)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, ok := out["A"]
	assert.False(t, ok)
	_, ok = out["B"]
	assert.True(t, ok)
}

func TestClusterGroundMotionsToCurvesJointExceedsAndScales(t *testing.T) {
	cfg := noneConfig(t)
	mu := math.Log(5)
	gmm := &fake.Gmm{
		NameVal: "G",
		CalcFn: func(in modelapi.GmmInput, im imt.IMT) (modelapi.ScalarGroundMotion, error) {
			return modelapi.ScalarGroundMotion{
				Means: []float64{mu}, MeanWeights: []float64{1},
				Sigmas: []float64{0.6}, SigmaWeights: []float64{1},
			}, nil
		},
	}
	gmms := &fake.GmmSet{GmmList: []modelapi.Gmm{gmm}, Weights: map[string]float64{"G": 1}}

	faultA := NewInputList()
	faultA.Add(HazardInput{SourceID: "A", Rate: 0.5})
	faultB := NewInputList()
	faultB.Add(HazardInput{SourceID: "B", Rate: 0.5})

	faultInputs := map[string]*InputList{"A": faultA, "B": faultB}
	gmOut, err := ClusterInputsToGroundMotions(faultInputs, gmms, []imt.IMT{imt.PGA()}, cfg)
	require.NoError(t, err)

	cs := &fake.ClusterSource{IDVal: "CS1", RateVal: 0.02}
	ss := &fake.SourceSet{WeightVal: 0.5}

	hc, err := ClusterGroundMotionsToCurves(gmOut, cs, ss, imt.PGA(), cfg)
	require.NoError(t, err)

	curve := hc.Curve(modelapi.Cluster.String())
	require.NotNil(t, curve)
	// Both faults fully exceed at x=0 (< mu) with weight 0.5 each, so each
	// fault curve is 0.5 there; joint exceedance 1-(1-0.5)(1-0.5) = 0.75,
	// scaled by the cluster's rate (0.02) and the source set's weight (0.5).
	assert.InDelta(t, 0.75*0.02*0.5, curve.Y(0), 1e-12)
	// At x=ln(10), neither fault exceeds (mu < x), so the joint curve is 0.
	assert.InDelta(t, 0, curve.Y(1), 1e-12)
}

func TestClusterGroundMotionsToCurvesRejectsEmptyFaultSet(t *testing.T) {
	cfg := noneConfig(t)
	cs := &fake.ClusterSource{IDVal: "CS1"}
	ss := &fake.SourceSet{}
	_, err := ClusterGroundMotionsToCurves(map[string]*GroundMotions{}, cs, ss, imt.PGA(), cfg)
	assert.Error(t, err)
}
