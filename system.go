package pshacalc

import (
	"github.com/openpsha/pshacalc/imt"
	"github.com/openpsha/pshacalc/modelapi"
	"github.com/openpsha/pshacalc/pshaerr"
)

// SystemSourceToInputs generates the full rupture-input list for a system
// source set as a single InputList. It delegates to SourceToInputs, which
// iterates the set's sources near loc; there is no separate bulk path.
func SystemSourceToInputs(sss modelapi.SystemSourceSet, loc modelapi.Location) (*InputList, error) {
	return SourceToInputs(sss, loc)
}

// SystemPartitionInputs splits a system source's InputList into
// contiguous partitions of at most cfg.Performance.SystemPartition inputs
// each, for concurrent processing. SystemPartition is a batch size, not a
// partition count: a list of 2500 inputs with SystemPartition=1000 yields
// three partitions of 1000, 1000, and 500. pshautil.ConfigBuilder defaults
// SystemPartition to 1000 when unset.
func SystemPartitionInputs(list *InputList, cfg *CalcConfig) []*InputList {
	return list.Partition(cfg.Performance.SystemPartition)
}

// SystemPartitionResult pairs one partition's computed curves with any
// error encountered while computing it, so a concurrent caller can
// collect results from multiple goroutines without racing on a shared
// error value.
type SystemPartitionResult struct {
	Curves *HazardCurves
	Err    error
}

// SystemPartitionToCurves runs the InputsToGroundMotions/
// GroundMotionsToCurves transforms for a single partition. It is the unit
// of work a concurrent system-source pipeline fans out over; callers
// needing concurrency call this once per partition from their own
// goroutines and combine the results with CurveConsolidator.
func SystemPartitionToCurves(partition *InputList, sss modelapi.SystemSourceSet, im imt.IMT, cfg *CalcConfig) (*HazardCurves, error) {
	if partition.Len() == 0 {
		return nil, nil
	}
	gm, err := InputsToGroundMotions(partition, sss.GroundMotionModels(), []imt.IMT{im}, cfg)
	if err != nil {
		return nil, pshaerr.Wrap(pshaerr.ComputationFailed, err, "computing ground motions for system source %s partition", sss.Name())
	}
	return GroundMotionsToCurves(gm, sss, cfg)
}

// SystemSourceToCurvesSync computes a system source set's hazard curves
// for one IMT by partitioning its inputs and processing every partition
// sequentially on the calling goroutine, then consolidating. It is the
// single-threaded reference path; pipeline.Graph runs the same
// per-partition work concurrently.
func SystemSourceToCurvesSync(sss modelapi.SystemSourceSet, loc modelapi.Location, im imt.IMT, cfg *CalcConfig) (*HazardCurves, error) {
	list, err := SystemSourceToInputs(sss, loc)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	partitions := SystemPartitionInputs(list, cfg)
	var total *HazardCurves
	for _, p := range partitions {
		curves, err := SystemPartitionToCurves(p, sss, im, cfg)
		if err != nil {
			return nil, err
		}
		total, err = CurveConsolidator(total, curves)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}
