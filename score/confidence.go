// File: confidence.go
// Role: Static per-step confidence (spec §4.4): "a function of the
// producing step only... hash-equality ≈ 1.0; name-equality ≈ 0.9;
// MD-index ≈ 0.8; propagation ≈ 0.6; fuzzy ≈ 0.3".
package score

import "github.com/whicun/bindiff/match"

// ConfidenceTable maps an interned step name to its static confidence in
// [0,1].
type ConfidenceTable map[match.StepName]float64

// Confidence returns the configured confidence for step, or 0.5 if step is
// not present in the table (an unrecognized or custom step: treated as
// moderately, not maximally, trustworthy).
func (t ConfidenceTable) Confidence(step match.StepName) float64 {
	if v, ok := t[step]; ok {
		return v
	}

	return 0.5
}

// DefaultConfidence returns the confidence table spec §4.4 describes,
// keyed by the canonical step names in package match: exact-equality steps
// at ≈1.0, name-based steps at ≈0.9, MD-index-based steps at ≈0.8,
// propagation-based steps at ≈0.6, and fuzzy/heuristic steps at ≈0.3.
func DefaultConfidence() ConfidenceTable {
	return ConfidenceTable{
		// Function-level steps.
		match.StepHashEquality:          1.0,
		match.StepExtendedMDIndex:       0.8,
		match.StepMDIndex:               0.8,
		match.StepCountBucket:           0.3,
		match.StepSymbolName:            0.9,
		match.StepDemangledName:         0.9,
		match.StepEdgesOnlyMDIndex:      0.8,
		match.StepAddress:               0.6,
		match.StepCallGraphNeighborhood: 0.6,
		match.StepStringReferences:      0.3,
		match.StepLoopHead:              0.6,

		// Basic-block-level steps.
		match.StepEntryBlock:               1.0,
		match.StepPrimeProductBucket:        1.0,
		match.StepMDIndexBlock:              0.8,
		match.StepInstructionCountNeighbor:  0.6,
		match.StepEdgePropagation:           0.6,
		match.StepSelfLoop:                  0.6,
	}
}
