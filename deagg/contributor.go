package deagg

import (
	"fmt"
	"sort"
)

// Contributor is one node in the deaggregation attribution tree: a single
// source, cluster source, system fault section, or the source set that
// groups them, each carrying the rate it contributes at the target
// intensity level.
type Contributor interface {
	ID() string
	Name() string
	Rate() float64
}

// SourceContributor attributes rate to a single ordinary source.
type SourceContributor struct {
	SourceID   string
	SourceName string
	rate       float64
}

func (c *SourceContributor) ID() string      { return c.SourceID }
func (c *SourceContributor) Name() string    { return c.SourceName }
func (c *SourceContributor) Rate() float64   { return c.rate }

// ClusterContributor attributes rate to a single cluster source.
type ClusterContributor struct {
	ClusterID   string
	ClusterName string
	rate        float64
}

func (c *ClusterContributor) ID() string    { return c.ClusterID }
func (c *ClusterContributor) Name() string  { return c.ClusterName }
func (c *ClusterContributor) Rate() float64 { return c.rate }

// SystemContributor attributes rate to a single fault section within a
// system source set.
type SystemContributor struct {
	SectionID   string
	SectionName string
	rate        float64
}

func (c *SystemContributor) ID() string    { return c.SectionID }
func (c *SystemContributor) Name() string  { return c.SectionName }
func (c *SystemContributor) Rate() float64 { return c.rate }

// SourceSetContributor groups the contributors within one source set,
// sorted by descending rate.
type SourceSetContributor struct {
	SourceSetName string
	rate          float64
	Children      []Contributor
}

func (c *SourceSetContributor) ID() string    { return c.SourceSetName }
func (c *SourceSetContributor) Name() string  { return c.SourceSetName }
func (c *SourceSetContributor) Rate() float64 { return c.rate }

// sortByRate orders contributors by descending rate, breaking ties by ID
// for determinism.
func sortByRate(cs []Contributor) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Rate() != cs[j].Rate() {
			return cs[i].Rate() > cs[j].Rate()
		}
		return cs[i].ID() < cs[j].ID()
	})
}

// contributorAccumulator merges repeated contributions to the same ID
// (e.g. a source hit by more than one Gmm branch) before the final sort.
type contributorAccumulator struct {
	order []string
	byID  map[string]Contributor
	add   map[string]float64
}

func newContributorAccumulator() *contributorAccumulator {
	return &contributorAccumulator{byID: make(map[string]Contributor), add: make(map[string]float64)}
}

func (a *contributorAccumulator) addSource(id, name string, rate float64) {
	a.accumulate(id, rate, func() Contributor {
		return &SourceContributor{SourceID: id, SourceName: name}
	})
}

func (a *contributorAccumulator) addCluster(id, name string, rate float64) {
	a.accumulate(id, rate, func() Contributor {
		return &ClusterContributor{ClusterID: id, ClusterName: name}
	})
}

func (a *contributorAccumulator) addSystemSection(id, name string, rate float64) {
	a.accumulate(id, rate, func() Contributor {
		return &SystemContributor{SectionID: id, SectionName: name}
	})
}

func (a *contributorAccumulator) accumulate(id string, rate float64, newFn func() Contributor) {
	if _, ok := a.byID[id]; !ok {
		a.byID[id] = newFn()
		a.order = append(a.order, id)
	}
	a.add[id] += rate
}

// build finalizes the accumulated rates onto their contributors, sorted by
// descending rate, and returns the total rate across all of them.
func (a *contributorAccumulator) build() ([]Contributor, float64) {
	var total float64
	out := make([]Contributor, 0, len(a.order))
	for _, id := range a.order {
		rate := a.add[id]
		total += rate
		switch c := a.byID[id].(type) {
		case *SourceContributor:
			c.rate = rate
			out = append(out, c)
		case *ClusterContributor:
			c.rate = rate
			out = append(out, c)
		case *SystemContributor:
			c.rate = rate
			out = append(out, c)
		}
	}
	sortByRate(out)
	return out, total
}

// SourceConsolidator merges b's children into a, summing rates for
// contributors sharing an ID, and re-sorts the result. a and b describe
// the SAME source set (e.g. its per-Gmm contributions being combined into
// one view of that source set). A nil a or b returns the other unchanged.
func SourceConsolidator(a, b *SourceSetContributor) *SourceSetContributor {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	acc := newContributorAccumulator()
	for _, c := range a.Children {
		addChild(acc, c)
	}
	for _, c := range b.Children {
		addChild(acc, c)
	}
	children, total := acc.build()
	return &SourceSetContributor{SourceSetName: a.SourceSetName, rate: total, Children: children}
}

// SourceSetConsolidator concatenates b onto a without merging by identity.
// Unlike SourceConsolidator, a and b here are contributions from DISTINCT
// source sets: a fault named "F1" in one source set and a system section
// named "F1" in another are unrelated, so their rates are never summed
// together, only listed side by side.
func SourceSetConsolidator(a, b []Contributor) []Contributor {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]Contributor, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// OtherContributor summarizes every contributor whose own rate fell below
// a configured contributor limit, rather than reporting each individually.
type OtherContributor struct {
	rate float64
	n    int
}

func (c *OtherContributor) ID() string { return "OTHER" }
func (c *OtherContributor) Name() string {
	return fmt.Sprintf("Other (%d contributors below limit)", c.n)
}
func (c *OtherContributor) Rate() float64 { return c.rate }

// ApplyContributorLimit sorts cs by descending rate and folds every
// contributor whose rate is below limit*total into a single trailing
// OtherContributor. limit <= 0 disables summarization; cs is still
// returned sorted.
func ApplyContributorLimit(cs []Contributor, total, limit float64) []Contributor {
	sortByRate(cs)
	if limit <= 0 || total == 0 {
		return cs
	}
	threshold := limit * total
	var kept []Contributor
	var otherRate float64
	var otherN int
	for _, c := range cs {
		if c.Rate() < threshold {
			otherRate += c.Rate()
			otherN++
			continue
		}
		kept = append(kept, c)
	}
	if otherN > 0 {
		kept = append(kept, &OtherContributor{rate: otherRate, n: otherN})
	}
	return kept
}

func addChild(acc *contributorAccumulator, c Contributor) {
	switch v := c.(type) {
	case *SourceContributor:
		acc.addSource(v.SourceID, v.SourceName, v.rate)
	case *ClusterContributor:
		acc.addCluster(v.ClusterID, v.ClusterName, v.rate)
	case *SystemContributor:
		acc.addSystemSection(v.SectionID, v.SectionName, v.rate)
	}
}
