// File: compute.go
// Role: Compute evaluates the ten features from spec §4.4's table and
// aggregates the nine structural ones into a single weighted similarity. Grounded on the teacher's
// DefaultWeightFn/NormalWeightFn idiom of small, named, independently
// testable computations composed by one entry point.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/match"
)

// Warning reports a degenerate feature computation (a zero denominator):
// the feature contributed 0 to the weighted sum instead of failing the
// whole comparison, per spec §7's ScoringWarning.
type Warning struct {
	Feature string
	Reason  string
}

func (w Warning) Error() string {
	return fmt.Sprintf("score: feature %q: %s", w.Feature, w.Reason)
}

// Result is the outcome of scoring one FixedPoint.
type Result struct {
	Similarity float64
	// Features holds each feature's individual [0,1] contribution, keyed by
	// the same names used in Warning.Feature, for diagnostics.
	Features map[string]float64
}

// Compute scores fp's similarity as the weighted sum of spec §4.4's
// features other than name equality, renormalized by 1-weights.NameEquality,
// given the two flow graphs fp pairs and the MD-index weights and
// call-graph extension values used to compute their extended MD-indices.
//
// Compute never fails: a degenerate feature (zero denominator) contributes 0
// and is reported as a Warning rather than aborting the computation.
func Compute(
	fp *match.FixedPoint,
	primary, secondary *flowgraph.FlowGraph,
	weights Weights,
	mdWeights flowgraph.MDWeights,
	primaryCalleeExt, secondaryCalleeExt float64,
) (Result, []Warning) {
	features := make(map[string]float64, 10)
	var warnings []Warning

	record := func(name string, value float64, ok bool) {
		if !ok {
			warnings = append(warnings, Warning{Feature: name, Reason: "zero denominator"})
			value = 0
		}
		features[name] = value
	}

	bbs := fp.BasicBlockFixedPoints()

	record("matched_basic_blocks_ratio", matchedBasicBlocksRatio(bbs, primary, secondary), true)

	instrRatio, ok := matchedInstructionsRatio(bbs, primary, secondary)
	record("matched_instructions_ratio", instrRatio, ok)

	edgeRatio, ok := matchedEdgesRatio(fp, primary, secondary)
	record("matched_edges_ratio", edgeRatio, ok)

	mdSim, ok, err := mdIndexSimilarity(primary, secondary, mdWeights)
	if err != nil {
		warnings = append(warnings, Warning{Feature: "md_index_similarity", Reason: err.Error()})
	}
	record("md_index_similarity", mdSim, ok)

	extSim, ok, err := extendedMDIndexSimilarity(primary, secondary, mdWeights, primaryCalleeExt, secondaryCalleeExt)
	if err != nil {
		warnings = append(warnings, Warning{Feature: "call_graph_md_index_similarity", Reason: err.Error()})
	}
	record("call_graph_md_index_similarity", extSim, ok)

	record("prime_product_equality", primeProductEquality(primary, secondary), true)

	szRatio, ok := instructionSizeRatio(primary, secondary)
	record("size_ratio", szRatio, ok)

	loopRatio, ok, err := loopCountRatio(primary, secondary)
	if err != nil {
		warnings = append(warnings, Warning{Feature: "loop_count_ratio", Reason: err.Error()})
	}
	record("loop_count_ratio", loopRatio, ok)

	entryMatch, err := entryPointMatch(fp, primary, secondary)
	if err != nil {
		warnings = append(warnings, Warning{Feature: "entry_point_match", Reason: err.Error()})
	}
	record("entry_point_match", entryMatch, true)

	record("name_equality", nameEquality(primary, secondary), true)

	// name_equality is reported in Features for diagnostics but excluded
	// from the similarity sum: classify.Classify already flags a name
	// change on its own, and a FixedPoint that is identical in every
	// structural feature but renamed must still score a similarity of 1.0
	// (spec §8). The remaining nine weights are renormalized by their own
	// sum (1-weights.NameEquality, enforced positive by Weights.Validate)
	// so the achievable maximum stays 1.0 regardless of how NameEquality is
	// tuned. See score.Weights' doc comment and DESIGN.md.
	structural := weights.MatchedBasicBlocksRatio*features["matched_basic_blocks_ratio"] +
		weights.MatchedInstructionsRatio*features["matched_instructions_ratio"] +
		weights.MatchedEdgesRatio*features["matched_edges_ratio"] +
		weights.MDIndexSimilarity*features["md_index_similarity"] +
		weights.CallGraphMDIndexSimilarity*features["call_graph_md_index_similarity"] +
		weights.PrimeProductEquality*features["prime_product_equality"] +
		weights.SizeRatio*features["size_ratio"] +
		weights.LoopCountRatio*features["loop_count_ratio"] +
		weights.EntryPointMatch*features["entry_point_match"]

	similarity := structural / (1 - weights.NameEquality)

	return Result{Similarity: clip(similarity), Features: features}, warnings
}

func matchedBasicBlocksRatio(bbs []*match.BasicBlockFixedPoint, primary, secondary *flowgraph.FlowGraph) float64 {
	denom := maxInt(primary.VertexCount(), secondary.VertexCount())
	if denom == 0 {
		return 0
	}

	return float64(len(bbs)) / float64(denom)
}

func matchedInstructionsRatio(bbs []*match.BasicBlockFixedPoint, primary, secondary *flowgraph.FlowGraph) (float64, bool) {
	denom := maxInt(primary.InstructionCount(), secondary.InstructionCount())
	if denom == 0 {
		return 0, false
	}
	matched := 0
	for _, bb := range bbs {
		matched += len(bb.InstructionMatches())
	}

	return float64(matched) / float64(denom), true
}

func matchedEdgesRatio(fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph) (float64, bool) {
	maxEdges := maxInt(primary.EdgeCount(), secondary.EdgeCount())
	if maxEdges == 0 {
		return 0, false
	}

	countMatchedEdges := func(g *flowgraph.FlowGraph, matched func(flowgraph.VertexID) bool) int {
		count := 0
		for v := flowgraph.VertexID(0); int(v) < g.VertexCount(); v++ {
			if !matched(v) {
				continue
			}
			for _, succ := range g.Successors(v) {
				if matched(succ) {
					count++
				}
			}
		}

		return count
	}

	primaryMatched := countMatchedEdges(primary, func(v flowgraph.VertexID) bool {
		_, ok := fp.BasicBlockByPrimary(v)
		return ok
	})
	secondaryMatched := countMatchedEdges(secondary, func(v flowgraph.VertexID) bool {
		_, ok := fp.BasicBlockBySecondary(v)
		return ok
	})

	ratio := float64(primaryMatched+secondaryMatched) / float64(2*maxEdges)

	return clip(ratio), true
}

func mdIndexSimilarity(primary, secondary *flowgraph.FlowGraph, weights flowgraph.MDWeights) (float64, bool, error) {
	p, err := primary.MDIndex(weights)
	if err != nil {
		return 0, false, err
	}
	s, err := secondary.MDIndex(weights)
	if err != nil {
		return 0, false, err
	}

	return relativeSimilarity(p, s)
}

func extendedMDIndexSimilarity(primary, secondary *flowgraph.FlowGraph, weights flowgraph.MDWeights, primaryExt, secondaryExt float64) (float64, bool, error) {
	p, err := primary.ExtendedMDIndex(weights, primaryExt)
	if err != nil {
		return 0, false, err
	}
	s, err := secondary.ExtendedMDIndex(weights, secondaryExt)
	if err != nil {
		return 0, false, err
	}

	return relativeSimilarity(p, s)
}

// relativeSimilarity implements "1 - clip(|a-b|/max(a,b), 0, 1)" from spec
// §4.4, treating a==b==0 as perfect similarity (both graphs are trivially
// edge-free) rather than an undefined ratio.
func relativeSimilarity(a, b float64) (float64, bool, error) {
	denom := math.Max(a, b)
	if denom == 0 {
		if a == b {
			return 1, true, nil
		}

		return 0, false, nil
	}

	return clip(1 - math.Abs(a-b)/denom), true, nil
}

// primeProductEquality compares the multiset of basic-block prime products
// between primary and secondary: 1 if the multisets are identical, else the
// ratio of intersecting elements to the larger multiset's size (Design
// Notes Open Question (c): resolved in favor of the original engine's
// multiset-intersection wording in spec.md §4.4).
func primeProductEquality(primary, secondary *flowgraph.FlowGraph) float64 {
	p := blockPrimeProducts(primary)
	s := blockPrimeProducts(secondary)

	if len(p) == len(s) {
		equal := true
		for i := range p {
			if p[i] != s[i] {
				equal = false
				break
			}
		}
		if equal {
			return 1
		}
	}

	denom := maxInt(len(p), len(s))
	if denom == 0 {
		return 1
	}

	return float64(intersectionSize(p, s)) / float64(denom)
}

func blockPrimeProducts(g *flowgraph.FlowGraph) []uint64 {
	out := make([]uint64, 0, g.VertexCount())
	for _, b := range g.Blocks() {
		out = append(out, b.PrimeProductCached())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func intersectionSize(a, b []uint64) int {
	count := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}

	return count
}

func instructionSizeRatio(primary, secondary *flowgraph.FlowGraph) (float64, bool) {
	denom := maxInt(primary.InstructionCount(), secondary.InstructionCount())
	if denom == 0 {
		return 0, false
	}

	return float64(minInt(primary.InstructionCount(), secondary.InstructionCount())) / float64(denom), true
}

func loopCountRatio(primary, secondary *flowgraph.FlowGraph) (float64, bool, error) {
	p, err := primary.LoopCount()
	if err != nil {
		return 0, false, err
	}
	s, err := secondary.LoopCount()
	if err != nil {
		return 0, false, err
	}
	denom := maxInt(p, s)
	if denom == 0 {
		return 1, true, nil
	}

	return float64(minInt(p, s)) / float64(denom), true, nil
}

func entryPointMatch(fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph) (float64, error) {
	primaryEntry, err := primary.Entry()
	if err != nil {
		return 0, err
	}
	secondaryEntry, err := secondary.Entry()
	if err != nil {
		return 0, err
	}
	bb, ok := fp.BasicBlockByPrimary(primaryEntry)
	if !ok || bb.SecondaryVertex() != secondaryEntry {
		return 0, nil
	}

	return 1, nil
}

func nameEquality(primary, secondary *flowgraph.FlowGraph) float64 {
	if primary.Name() != secondary.Name() {
		return 0
	}
	if primary.IsAutoName() || secondary.IsAutoName() {
		return 0.5
	}

	return 1
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
