// Package score computes the similarity and confidence of a confirmed
// FixedPoint (spec §4.4): Compute aggregates nine normalized structural
// features into a single weighted similarity (name equality is reported
// but not summed), while confidence is read
// directly off the FixedPoint's producing step via ConfidenceTable.
//
// See weights.go for Weights and its validation, compute.go for Compute and
// Result, and confidence.go for ConfidenceTable/DefaultConfidence.
package score
