package pshacalc

import (
	"sort"

	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
	"github.com/openpsha/pshacalc/xyseq"
)

// TotalCurveType is the reserved curve-type key for the sum across every
// contributing source type; it is always present in a built HazardCurves.
const TotalCurveType = "TOTAL"

// HazardCurves holds one site's hazard curves for a single IMT, broken
// down by source type plus the TOTAL across all of them, and — for every
// curve type built up per-Gmm (GroundMotionsToCurves) — the individual
// per-(curveType, gmm) curves that were summed to produce it.
type HazardCurves struct {
	Imt       imt.IMT
	curves    map[string]*xyseq.Sequence
	gmmCurves map[string]map[string]*xyseq.Sequence // curveType -> gmm name -> curve
}

// Curve returns the curve for the given type key ("TOTAL" or a
// modelapi.SourceType.String()), or nil if absent.
func (h *HazardCurves) Curve(curveType string) *xyseq.Sequence {
	if c, ok := h.curves[curveType]; ok {
		return c
	}
	return nil
}

// GmmCurve returns the individual curve contributed by gmmName to
// curveType, before it was weighted-summed with the other Gmms in the
// set, or nil if curveType was never built per-Gmm or gmmName is absent.
func (h *HazardCurves) GmmCurve(curveType, gmmName string) *xyseq.Sequence {
	if inner, ok := h.gmmCurves[curveType]; ok {
		if c, ok := inner[gmmName]; ok {
			return c
		}
	}
	return nil
}

// GmmNames returns the Gmm names that contributed a per-Gmm curve to
// curveType, in sorted order, or nil if curveType has no per-Gmm
// breakdown.
func (h *HazardCurves) GmmNames(curveType string) []string {
	inner, ok := h.gmmCurves[curveType]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(inner))
	for k := range inner {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Types returns the curve-type keys present, in sorted order with TOTAL
// first.
func (h *HazardCurves) Types() []string {
	var out []string
	for k := range h.curves {
		if k != TotalCurveType {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return append([]string{TotalCurveType}, out...)
}

// HazardCurvesBuilder assembles a HazardCurves from per-source-type
// contributions and computes the TOTAL on Build. It is a one-shot
// builder: Build may be called exactly once.
type HazardCurvesBuilder struct {
	im        imt.IMT
	curves    map[string]*xyseq.Sequence
	gmmCurves map[string]map[string]*xyseq.Sequence
	built     bool
}

// NewHazardCurvesBuilder starts a builder for the given IMT.
func NewHazardCurvesBuilder(im imt.IMT) *HazardCurvesBuilder {
	return &HazardCurvesBuilder{im: im, curves: make(map[string]*xyseq.Sequence)}
}

// Add folds curve into the running total for curveType (typically a
// modelapi.SourceType.String()), combining by addition if one is already
// present for that type. The underlying invariant (curves built in
// log-x, rate space) is the caller's responsibility; Add never
// reinterprets the curve's axes. Use Add for curves that have no
// meaningful per-Gmm decomposition (a cluster's jointly-exceeded curve, or
// a curveType-level curve already combined by a child computation); use
// AddGmm when curve is one Gmm's own weighted contribution.
func (b *HazardCurvesBuilder) Add(curveType string, curve *xyseq.Sequence) error {
	if b.built {
		return pshaerr.New(pshaerr.BuilderExhausted, "HazardCurvesBuilder already built")
	}
	b.addCollapsed(curveType, curve)
	return nil
}

// AddGmm folds curve — one Gmm's own weighted contribution to curveType —
// into both the per-(curveType, gmmName) breakdown retrievable later via
// HazardCurves.GmmCurve, and the same running curveType total Add
// maintains. Calling Add and AddGmm for the same curveType is safe; they
// share the same collapsed total.
func (b *HazardCurvesBuilder) AddGmm(curveType, gmmName string, curve *xyseq.Sequence) error {
	if b.built {
		return pshaerr.New(pshaerr.BuilderExhausted, "HazardCurvesBuilder already built")
	}
	if b.gmmCurves == nil {
		b.gmmCurves = make(map[string]map[string]*xyseq.Sequence)
	}
	inner, ok := b.gmmCurves[curveType]
	if !ok {
		inner = make(map[string]*xyseq.Sequence)
		b.gmmCurves[curveType] = inner
	}
	if existing, ok := inner[gmmName]; ok {
		inner[gmmName] = existing.Add(curve)
	} else {
		inner[gmmName] = curve.Copy()
	}
	b.addCollapsed(curveType, curve)
	return nil
}

func (b *HazardCurvesBuilder) addCollapsed(curveType string, curve *xyseq.Sequence) {
	if existing, ok := b.curves[curveType]; ok {
		b.curves[curveType] = existing.Add(curve)
	} else {
		b.curves[curveType] = curve.Copy()
	}
}

// Build computes TOTAL as the sum of every added curve type and returns
// the finished HazardCurves. A second call returns an error.
func (b *HazardCurvesBuilder) Build() (*HazardCurves, error) {
	if b.built {
		return nil, pshaerr.New(pshaerr.BuilderExhausted, "HazardCurvesBuilder already built")
	}
	b.built = true
	if len(b.curves) == 0 {
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "HazardCurvesBuilder: no curves added")
	}
	var total *xyseq.Sequence
	for _, c := range b.curves {
		if total == nil {
			total = c.Copy()
		} else {
			total = total.Add(c)
		}
	}
	out := make(map[string]*xyseq.Sequence, len(b.curves)+1)
	for k, v := range b.curves {
		out[k] = v
	}
	out[TotalCurveType] = total
	return &HazardCurves{Imt: b.im, curves: out, gmmCurves: b.gmmCurves}, nil
}

// HazardCurveSet holds one site's HazardCurves for every configured IMT.
type HazardCurveSet struct {
	curves map[imt.IMT]*HazardCurves
}

// Curves returns the HazardCurves for im, or nil if absent.
func (s *HazardCurveSet) Curves(im imt.IMT) *HazardCurves {
	if c, ok := s.curves[im]; ok {
		return c
	}
	return nil
}

// Imts returns the IMTs present in the set.
func (s *HazardCurveSet) Imts() []imt.IMT {
	out := make([]imt.IMT, 0, len(s.curves))
	for k := range s.curves {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// HazardCurveSetBuilder assembles a HazardCurveSet one IMT at a time. It
// is a one-shot builder: Build may be called exactly once.
type HazardCurveSetBuilder struct {
	curves map[imt.IMT]*HazardCurves
	built  bool
}

// NewHazardCurveSetBuilder starts an empty builder.
func NewHazardCurveSetBuilder() *HazardCurveSetBuilder {
	return &HazardCurveSetBuilder{curves: make(map[imt.IMT]*HazardCurves)}
}

// Add stores hc under its own IMT, overwriting any curves previously
// added for that IMT.
func (b *HazardCurveSetBuilder) Add(hc *HazardCurves) error {
	if b.built {
		return pshaerr.New(pshaerr.BuilderExhausted, "HazardCurveSetBuilder already built")
	}
	b.curves[hc.Imt] = hc
	return nil
}

// Build returns the finished HazardCurveSet. A second call returns an
// error.
func (b *HazardCurveSetBuilder) Build() (*HazardCurveSet, error) {
	if b.built {
		return nil, pshaerr.New(pshaerr.BuilderExhausted, "HazardCurveSetBuilder already built")
	}
	b.built = true
	return &HazardCurveSet{curves: b.curves}, nil
}

// FinalizeCurveSet applies cfg.Curve.ValueType to every HazardCurves in
// set in place. This is the single point where curves are converted from
// annual rate to Poisson probability (if requested); callers must do this
// exactly once, after every source set's contribution has been folded
// into set via CurveSetConsolidator.
func FinalizeCurveSet(set *HazardCurveSet, cfg *CalcConfig) {
	for _, im := range set.Imts() {
		set.Curves(im).ApplyValueType(cfg.Curve.ValueType)
	}
}

// Hazard is the top-level result of a multi-site calculation: one
// HazardCurveSet per requested site location.
type Hazard struct {
	Sites map[modelapi.Location]*HazardCurveSet
}

// NewHazard creates an empty Hazard result.
func NewHazard() *Hazard {
	return &Hazard{Sites: make(map[modelapi.Location]*HazardCurveSet)}
}

// Set stores the curve set computed for loc.
func (h *Hazard) Set(loc modelapi.Location, set *HazardCurveSet) {
	h.Sites[loc] = set
}
