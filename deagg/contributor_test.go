package deagg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByRateOrdersDescendingThenByID(t *testing.T) {
	cs := []Contributor{
		&SourceContributor{SourceID: "B", rate: 1},
		&SourceContributor{SourceID: "A", rate: 1},
		&SourceContributor{SourceID: "C", rate: 5},
	}
	sortByRate(cs)
	require.Len(t, cs, 3)
	assert.Equal(t, "C", cs[0].ID())
	assert.Equal(t, "A", cs[1].ID())
	assert.Equal(t, "B", cs[2].ID())
}

func TestContributorAccumulatorMergesRepeatedIDs(t *testing.T) {
	acc := newContributorAccumulator()
	acc.addSource("S1", "Source One", 0.01)
	acc.addSource("S1", "Source One", 0.02)
	acc.addSource("S2", "Source Two", 0.05)

	children, total := acc.build()
	require.Len(t, children, 2)
	assert.InDelta(t, 0.08, total, 1e-12)
	assert.Equal(t, "S2", children[0].ID())
	assert.InDelta(t, 0.05, children[0].Rate(), 1e-12)
	assert.Equal(t, "S1", children[1].ID())
	assert.InDelta(t, 0.03, children[1].Rate(), 1e-12)
}

func TestContributorAccumulatorHandlesAllKinds(t *testing.T) {
	acc := newContributorAccumulator()
	acc.addSource("S1", "Source", 0.01)
	acc.addCluster("C1", "Cluster", 0.02)
	acc.addSystemSection("SEC1", "Section", 0.03)

	children, total := acc.build()
	require.Len(t, children, 3)
	assert.InDelta(t, 0.06, total, 1e-12)

	var sawSource, sawCluster, sawSystem bool
	for _, c := range children {
		switch c.(type) {
		case *SourceContributor:
			sawSource = true
		case *ClusterContributor:
			sawCluster = true
		case *SystemContributor:
			sawSystem = true
		}
	}
	assert.True(t, sawSource)
	assert.True(t, sawCluster)
	assert.True(t, sawSystem)
}

func TestSourceConsolidatorHandlesNils(t *testing.T) {
	a := &SourceSetContributor{SourceSetName: "SET1", rate: 1}
	assert.Equal(t, a, SourceConsolidator(a, nil))
	assert.Equal(t, a, SourceConsolidator(nil, a))
}

func TestSourceConsolidatorMergesChildrenAndSums(t *testing.T) {
	a := &SourceSetContributor{
		SourceSetName: "SET1",
		rate:          0.03,
		Children: []Contributor{
			&SourceContributor{SourceID: "S1", SourceName: "Source One", rate: 0.01},
			&SourceContributor{SourceID: "S2", SourceName: "Source Two", rate: 0.02},
		},
	}
	b := &SourceSetContributor{
		SourceSetName: "SET1",
		rate:          0.015,
		Children: []Contributor{
			&SourceContributor{SourceID: "S1", SourceName: "Source One", rate: 0.005},
			&SourceContributor{SourceID: "S3", SourceName: "Source Three", rate: 0.01},
		},
	}

	merged := SourceConsolidator(a, b)
	assert.Equal(t, "SET1", merged.SourceSetName)
	assert.InDelta(t, 0.045, merged.Rate(), 1e-12)
	require.Len(t, merged.Children, 3)

	byID := make(map[string]float64)
	for _, c := range merged.Children {
		byID[c.ID()] = c.Rate()
	}
	assert.InDelta(t, 0.015, byID["S1"], 1e-12)
	assert.InDelta(t, 0.02, byID["S2"], 1e-12)
	assert.InDelta(t, 0.01, byID["S3"], 1e-12)
}

func TestSourceSetConsolidatorConcatenatesWithoutMergingByID(t *testing.T) {
	a := []Contributor{&SourceContributor{SourceID: "F1", rate: 0.02}}
	b := []Contributor{&SystemContributor{SectionID: "F1", rate: 0.01}}

	merged := SourceSetConsolidator(a, b)
	require.Len(t, merged, 2)
	assert.Same(t, a[0], merged[0])
	assert.Same(t, b[0], merged[1])
}

func TestSourceSetConsolidatorHandlesEmpty(t *testing.T) {
	a := []Contributor{&SourceContributor{SourceID: "F1", rate: 0.02}}
	assert.Equal(t, a, SourceSetConsolidator(a, nil))
	assert.Equal(t, a, SourceSetConsolidator(nil, a))
}

func TestApplyContributorLimitFoldsSmallContributorsIntoOther(t *testing.T) {
	cs := []Contributor{
		&SourceContributor{SourceID: "BIG", rate: 0.9},
		&SourceContributor{SourceID: "SMALL1", rate: 0.005},
		&SourceContributor{SourceID: "SMALL2", rate: 0.003},
	}
	out := ApplyContributorLimit(cs, 1.0, 0.01)
	require.Len(t, out, 2)
	assert.Equal(t, "BIG", out[0].ID())
	other, ok := out[1].(*OtherContributor)
	require.True(t, ok)
	assert.InDelta(t, 0.008, other.Rate(), 1e-12)
	assert.Equal(t, 2, other.n)
}

func TestApplyContributorLimitDisabledByZero(t *testing.T) {
	cs := []Contributor{
		&SourceContributor{SourceID: "BIG", rate: 0.9},
		&SourceContributor{SourceID: "SMALL1", rate: 0.005},
	}
	out := ApplyContributorLimit(cs, 1.0, 0)
	require.Len(t, out, 2)
}
