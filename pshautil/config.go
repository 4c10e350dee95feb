// Package pshautil holds the configuration loader and small numerical
// helpers that sit around the hazard core: a one-shot config builder that
// loads a TOML/YAML/JSON file through viper and validates every field
// with its own checkX function, log-interpolation for target-IML and
// deaggregation lookups, and annual-rate/Poisson-probability conversion.
package pshautil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"

	"github.com/openpsha/pshacalc"
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/pshaerr"
)

// ConfigBuilder loads and validates a CalcConfig from a configuration
// file. It is a one-shot builder: Build may be called exactly once, after
// which the builder is exhausted.
type ConfigBuilder struct {
	v      *viper.Viper
	built  bool
	errs   []error
}

// NewConfigBuilder creates a builder reading defaults from v, which the
// caller has already pointed at a config file (or populated directly via
// v.Set for tests).
func NewConfigBuilder(v *viper.Viper) *ConfigBuilder {
	return &ConfigBuilder{v: v}
}

// LoadFile is a convenience constructor that reads the config file at
// path (TOML, YAML, or JSON, inferred from its extension by viper) and
// returns a builder.
func LoadFile(path string) (*ConfigBuilder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, pshaerr.Wrap(pshaerr.ConfigInvalid, err, "reading config file %s", path)
	}
	return NewConfigBuilder(v), nil
}

func (b *ConfigBuilder) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *ConfigBuilder) checkExceedanceModel() pshacalc.ExceedanceModelType {
	s := strings.ToUpper(os.ExpandEnv(b.v.GetString("ExceedanceModel")))
	switch s {
	case "", "TRUNCATION_UPPER_ONLY":
		return pshacalc.TruncationUpperOnly
	case "NONE":
		return pshacalc.ExceedanceNone
	case "TRUNCATION_OFF":
		return pshacalc.TruncationOff
	case "TRUNCATION_LOWER_UPPER":
		return pshacalc.TruncationLowerUpper
	case "TRUNCATION_3SIGMA_UPPER":
		return pshacalc.Truncation3SigmaUpper
	case "PEER_MIXTURE_MODEL":
		return pshacalc.PeerMixtureModel
	case "NSHM_CEUS_MAX_INTENSITY":
		return pshacalc.NshmCeusMaxIntensity
	default:
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "unrecognized ExceedanceModel %q", s))
		return pshacalc.TruncationUpperOnly
	}
}

func (b *ConfigBuilder) checkTruncationLevel() float64 {
	if !b.v.IsSet("TruncationLevel") {
		return 3.0
	}
	n := b.v.GetFloat64("TruncationLevel")
	if n <= 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "TruncationLevel must be > 0, got %g", n))
	}
	return n
}

func (b *ConfigBuilder) checkValueType() pshacalc.ValueType {
	s := strings.ToUpper(os.ExpandEnv(b.v.GetString("ValueType")))
	switch s {
	case "", "ANNUAL_RATE":
		return pshacalc.AnnualRate
	case "POISSON_PROBABILITY":
		return pshacalc.PoissonProbability
	default:
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "unrecognized ValueType %q", s))
		return pshacalc.AnnualRate
	}
}

func (b *ConfigBuilder) checkThreadCount() pshacalc.ThreadCount {
	s := strings.ToUpper(os.ExpandEnv(b.v.GetString("ThreadCount")))
	switch s {
	case "", "ALL":
		return pshacalc.ThreadsAll
	case "ONE":
		return pshacalc.ThreadsOne
	case "HALF":
		return pshacalc.ThreadsHalf
	case "N_MINUS_2":
		return pshacalc.ThreadsNMinus2
	default:
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "unrecognized ThreadCount %q", s))
		return pshacalc.ThreadsAll
	}
}

func (b *ConfigBuilder) checkImts() []imt.IMT {
	raw := b.v.GetStringSlice("Imts")
	if len(raw) == 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "no Imts configured"))
		return nil
	}
	out := make([]imt.IMT, 0, len(raw))
	for _, s := range raw {
		s = os.ExpandEnv(strings.TrimSpace(s))
		switch {
		case s == "PGA":
			out = append(out, imt.PGA())
		case s == "PGV":
			out = append(out, imt.PGV())
		case strings.HasPrefix(s, "SA(") && strings.HasSuffix(s, ")"):
			var period float64
			if _, err := fmt.Sscanf(s, "SA(%f)", &period); err != nil {
				b.fail(pshaerr.Wrap(pshaerr.ConfigInvalid, err, "parsing IMT %q", s))
				continue
			}
			out = append(out, imt.SA(period))
		default:
			b.fail(pshaerr.New(pshaerr.ConfigInvalid, "unrecognized IMT %q", s))
		}
	}
	return out
}

func (b *ConfigBuilder) checkDefaultImls() []float64 {
	raw := b.v.GetStringSlice("DefaultImls")
	if len(raw) == 0 {
		vals := b.v.Get("DefaultImls")
		if fs, ok := vals.([]float64); ok {
			return fs
		}
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "no DefaultImls configured"))
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, s := range raw {
		var v float64
		if _, err := fmt.Sscanf(os.ExpandEnv(s), "%f", &v); err != nil {
			b.fail(pshaerr.Wrap(pshaerr.ConfigInvalid, err, "parsing IML %q", s))
			continue
		}
		if v <= 0 {
			b.fail(pshaerr.New(pshaerr.ConfigInvalid, "IML must be > 0, got %g", v))
			continue
		}
		out = append(out, v)
	}
	return out
}

func (b *ConfigBuilder) checkVs30() float64 {
	v := b.v.GetFloat64("Vs30")
	if v <= 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "Vs30 must be > 0, got %g", v))
	}
	return v
}

func (b *ConfigBuilder) checkSystemPartition() int {
	if !b.v.IsSet("SystemPartition") {
		return 1000
	}
	n := b.v.GetInt("SystemPartition")
	if n < 1 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "SystemPartition must be >= 1, got %d", n))
		return 1000
	}
	return n
}

func (b *ConfigBuilder) checkFlushLimit() int {
	if !b.v.IsSet("FlushLimit") {
		return 1000
	}
	n := b.v.GetInt("FlushLimit")
	if n <= 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "FlushLimit must be > 0, got %d", n))
	}
	return n
}

// checkDeaggTargetImt parses the optional Deagg.TargetImt key using the
// same syntax as Imts. An unset key returns the zero IMT; Deaggregator
// callers that need a target IMT typically supply it directly rather than
// relying on this default.
func (b *ConfigBuilder) checkDeaggTargetImt() imt.IMT {
	s := os.ExpandEnv(strings.TrimSpace(b.v.GetString("Deagg.TargetImt")))
	if s == "" {
		return imt.IMT{}
	}
	switch {
	case s == "PGA":
		return imt.PGA()
	case s == "PGV":
		return imt.PGV()
	case strings.HasPrefix(s, "SA(") && strings.HasSuffix(s, ")"):
		var period float64
		if _, err := fmt.Sscanf(s, "SA(%f)", &period); err != nil {
			b.fail(pshaerr.Wrap(pshaerr.ConfigInvalid, err, "parsing Deagg.TargetImt %q", s))
			return imt.IMT{}
		}
		return imt.SA(period)
	default:
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "unrecognized Deagg.TargetImt %q", s))
		return imt.IMT{}
	}
}

// checkDeaggReturnPeriod parses the optional Deagg.ReturnPeriod key (in
// years) and derives the matching annual rate. An unset key leaves both
// zero; TargetLogIML itself is always computed at deaggregation time by
// deagg.TargetLogIML, not configured statically.
func (b *ConfigBuilder) checkDeaggReturnPeriod() (rate, returnPeriod float64) {
	if !b.v.IsSet("Deagg.ReturnPeriod") {
		return 0, 0
	}
	returnPeriod = b.v.GetFloat64("Deagg.ReturnPeriod")
	if returnPeriod <= 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "Deagg.ReturnPeriod must be > 0, got %g", returnPeriod))
		return 0, 0
	}
	return ReturnPeriodToRate(returnPeriod), returnPeriod
}

// checkContributorLimit parses the optional Deagg.ContributorLimit
// fraction (e.g. 0.001 for 0.1%), defaulting to 0 (no summarization).
func (b *ConfigBuilder) checkContributorLimit() float64 {
	if !b.v.IsSet("Deagg.ContributorLimit") {
		return 0
	}
	v := b.v.GetFloat64("Deagg.ContributorLimit")
	if v < 0 || v >= 1 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "Deagg.ContributorLimit must be in [0, 1), got %g", v))
		return 0
	}
	return v
}

func (b *ConfigBuilder) checkDeaggRange(minKey, maxKey, deltaKey string) (min, max, delta float64) {
	min = b.v.GetFloat64(minKey)
	max = b.v.GetFloat64(maxKey)
	delta = b.v.GetFloat64(deltaKey)
	if delta <= 0 {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "%s must be > 0, got %g", deltaKey, delta))
		return
	}
	if max <= min {
		b.fail(pshaerr.New(pshaerr.ConfigInvalid, "%s must be greater than %s (%g <= %g)", maxKey, minKey, max, min))
	}
	return
}

// Build validates every configured field and returns the finished,
// immutable CalcConfig. A second call, or a call after validation errors
// accumulated, returns an error.
func (b *ConfigBuilder) Build() (*pshacalc.CalcConfig, error) {
	if b.built {
		return nil, pshaerr.New(pshaerr.BuilderExhausted, "ConfigBuilder already built")
	}
	b.built = true

	cfg := &pshacalc.CalcConfig{}
	cfg.Curve.ExceedanceModel = b.checkExceedanceModel()
	cfg.Curve.TruncationLevel = b.checkTruncationLevel()
	cfg.Curve.Imts = b.checkImts()
	cfg.Curve.GmmUncertainty = b.v.GetBool("GmmUncertainty")
	cfg.Curve.ValueType = b.checkValueType()
	cfg.Curve.DefaultImls = b.checkDefaultImls()
	cfg.Curve.CustomImls = make(map[imt.IMT][]float64)

	cfg.Site.Vs30 = b.checkVs30()
	cfg.Site.VsInferred = b.v.GetBool("VsInferred")
	cfg.Site.Z1p0 = b.v.GetFloat64("Z1p0")
	cfg.Site.Z2p5 = b.v.GetFloat64("Z2p5")

	cfg.Performance.OptimizeGrids = b.v.GetBool("OptimizeGrids")
	cfg.Performance.CollapseMfds = b.v.GetBool("CollapseMfds")
	cfg.Performance.SystemPartition = b.checkSystemPartition()
	cfg.Performance.ThreadCount = b.checkThreadCount()

	cfg.Output.Directory = os.ExpandEnv(b.v.GetString("OutputDirectory"))
	cfg.Output.CurveTypes = b.v.GetStringSlice("CurveTypes")
	cfg.Output.FlushLimit = b.checkFlushLimit()

	cfg.Deagg.RMin, cfg.Deagg.RMax, cfg.Deagg.DeltaR = b.checkDeaggRange("Deagg.RMin", "Deagg.RMax", "Deagg.DeltaR")
	cfg.Deagg.MMin, cfg.Deagg.MMax, cfg.Deagg.DeltaM = b.checkDeaggRange("Deagg.MMin", "Deagg.MMax", "Deagg.DeltaM")
	cfg.Deagg.EMin, cfg.Deagg.EMax, cfg.Deagg.DeltaE = b.checkDeaggRange("Deagg.EMin", "Deagg.EMax", "Deagg.DeltaE")
	cfg.Deagg.TargetImt = b.checkDeaggTargetImt()
	cfg.Deagg.TargetRate, cfg.Deagg.ReturnPeriod = b.checkDeaggReturnPeriod()
	cfg.Deagg.ContributorLimit = b.checkContributorLimit()

	if len(b.errs) > 0 {
		msg := make([]string, len(b.errs))
		for i, e := range b.errs {
			msg[i] = e.Error()
		}
		return nil, pshaerr.New(pshaerr.ConfigInvalid, "%s", strings.Join(msg, "; "))
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
