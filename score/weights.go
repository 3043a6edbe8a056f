// File: weights.go
// Role: Weights, the ten-feature weighting scheme for FixedPoint similarity
// (spec §4.4), validated the way the teacher validates dtw.Options — a
// single Validate method, a sentinel error, a fixed float epsilon.
package score

import (
	"errors"

	"github.com/whicun/bindiff/flowgraph"
)

// ErrWeightsMustSumToOne indicates a Weights value's fields do not sum to 1
// within the fixed tolerance (ε = 1e-9, matching flowgraph.FloatEqual).
var ErrWeightsMustSumToOne = errors.New("score: weights must sum to 1")

// ErrNameWeightTooLarge indicates NameEquality leaves no structural weight
// for Compute to normalize by (see NameEquality's doc comment).
var ErrNameWeightTooLarge = errors.New("score: name_equality weight must leave room for the structural features")

// Weights holds the ten feature weights from spec §4.4's table. Fields must
// sum to 1; Validate enforces this.
//
// NameEquality is published and validated like the other nine, but
// Compute does not fold it into the similarity sum: a function renamed with
// every other feature unchanged must still score a similarity of 1.0 (spec
// §8), which a direct weighted sum cannot give while also docking points for
// the very feature that demonstrates nothing structural changed. Name
// equality instead only drives classify.Name — similarity is the remaining
// nine features' weighted sum renormalized by 1-NameEquality, so similarity
// depends only on the nine structural weights' proportions to each other
// and name never caps the achievable maximum.
type Weights struct {
	MatchedBasicBlocksRatio    float64
	MatchedInstructionsRatio   float64
	MatchedEdgesRatio          float64
	MDIndexSimilarity          float64
	CallGraphMDIndexSimilarity float64
	PrimeProductEquality       float64
	SizeRatio                  float64
	LoopCountRatio             float64
	EntryPointMatch            float64
	NameEquality               float64
}

// DefaultWeights returns the weights published in spec §4.4's table.
func DefaultWeights() Weights {
	return Weights{
		MatchedBasicBlocksRatio:    0.15,
		MatchedInstructionsRatio:   0.10,
		MatchedEdgesRatio:          0.20,
		MDIndexSimilarity:          0.10,
		CallGraphMDIndexSimilarity: 0.05,
		PrimeProductEquality:       0.10,
		SizeRatio:                  0.05,
		LoopCountRatio:             0.05,
		EntryPointMatch:            0.05,
		NameEquality:               0.15,
	}
}

// sum returns the sum of all ten fields.
func (w Weights) sum() float64 {
	return w.MatchedBasicBlocksRatio + w.MatchedInstructionsRatio + w.MatchedEdgesRatio +
		w.MDIndexSimilarity + w.CallGraphMDIndexSimilarity + w.PrimeProductEquality +
		w.SizeRatio + w.LoopCountRatio + w.EntryPointMatch + w.NameEquality
}

// Validate reports ErrWeightsMustSumToOne if w's fields do not sum to 1
// within tolerance. Implementations may tune individual weights (spec
// §4.4: "Implementations may tune weights but must expose them in
// configuration"), but the sum invariant is never relaxed.
func (w Weights) Validate() error {
	if !flowgraph.FloatEqual(w.sum(), 1) {
		return ErrWeightsMustSumToOne
	}
	if w.NameEquality >= 1 {
		return ErrNameWeightTooLarge
	}

	return nil
}
