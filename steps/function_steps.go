// File: function_steps.go
// Role: The eleven function-level steps of spec §4.2, in canonical order:
// exact-equality first, then structural, name-based, propagation-based,
// then fuzzy.
package steps

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/match"
)

// FunctionRegistry maps every function-step name to its factory, in
// canonical pipeline order.
var FunctionRegistry = &FunctionStepRegistry{}

func init() {
	FunctionRegistry.register(match.StepHashEquality.String(), func(c float64, _ StepOptions) FunctionStep { return hashEqualityStep{confidence: c} })
	FunctionRegistry.register(match.StepExtendedMDIndex.String(), func(c float64, _ StepOptions) FunctionStep { return extendedMDIndexStep{confidence: c} })
	FunctionRegistry.register(match.StepMDIndex.String(), func(c float64, _ StepOptions) FunctionStep { return mdIndexStep{confidence: c} })
	FunctionRegistry.register(match.StepCountBucket.String(), func(c float64, _ StepOptions) FunctionStep { return countBucketStep{confidence: c} })
	FunctionRegistry.register(match.StepSymbolName.String(), func(c float64, _ StepOptions) FunctionStep { return symbolNameStep{confidence: c} })
	FunctionRegistry.register(match.StepDemangledName.String(), func(c float64, _ StepOptions) FunctionStep { return demangledNameStep{confidence: c} })
	FunctionRegistry.register(match.StepEdgesOnlyMDIndex.String(), func(c float64, _ StepOptions) FunctionStep { return edgesOnlyMDIndexStep{confidence: c} })
	FunctionRegistry.register(match.StepAddress.String(), func(c float64, _ StepOptions) FunctionStep { return addressStep{confidence: c} })
	FunctionRegistry.register(match.StepCallGraphNeighborhood.String(), func(c float64, _ StepOptions) FunctionStep { return callGraphNeighborhoodStep{confidence: c} })
	FunctionRegistry.register(match.StepStringReferences.String(), func(c float64, opts StepOptions) FunctionStep {
		return stringReferencesStep{confidence: c, threshold: opts.StringRefThreshold}
	})
	FunctionRegistry.register(match.StepLoopHead.String(), func(c float64, _ StepOptions) FunctionStep { return loopHeadStep{confidence: c} })
}

// hashEqualityStep matches functions whose normalized-instruction-byte
// hashes are identical.
type hashEqualityStep struct{ confidence float64 }

func (s hashEqualityStep) Name() match.StepName { return match.StepHashEquality }
func (s hashEqualityStep) Confidence() float64  { return s.confidence }

func (s hashEqualityStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			h := fg.Hash()
			if len(h) == 0 {
				h = fg.ComputeHash()
			}

			return hex.EncodeToString(h), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// extendedMDIndexStep matches functions by (call-graph-extended MD-index,
// function-level prime product) equality.
type extendedMDIndexStep struct{ confidence float64 }

func (s extendedMDIndexStep) Name() match.StepName { return match.StepExtendedMDIndex }
func (s extendedMDIndexStep) Confidence() float64  { return s.confidence }

func (s extendedMDIndexStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			ext, err := cg.CalleeExtension(id)
			if err != nil {
				return "", false
			}
			md, err := fg.ExtendedMDIndex(flowgraph.DefaultMDWeights, ext)
			if err != nil {
				return "", false
			}

			return fmt.Sprintf("%s|%d", floatKey(md), fg.FunctionPrimeProduct()), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// mdIndexStep matches functions by MD-index on the flow graph alone.
type mdIndexStep struct{ confidence float64 }

func (s mdIndexStep) Name() match.StepName { return match.StepMDIndex }
func (s mdIndexStep) Confidence() float64  { return s.confidence }

func (s mdIndexStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			md, err := fg.MDIndex(flowgraph.DefaultMDWeights)
			if err != nil {
				return "", false
			}

			return floatKey(md), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// countBucketStep matches functions by instruction count and basic-block
// count equality within a prime-product bucket.
type countBucketStep struct{ confidence float64 }

func (s countBucketStep) Name() match.StepName { return match.StepCountBucket }
func (s countBucketStep) Confidence() float64  { return s.confidence }

func (s countBucketStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), countBucketKey(ctx.Primary()),
		ctx.UnmatchedSecondary(), countBucketKey(ctx.Secondary()),
	), nil
}

func countBucketKey(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
	return func(id callgraph.FuncID) (string, bool) {
		fg, err := cg.Function(id)
		if err != nil {
			return "", false
		}

		return fmt.Sprintf("%d|%d|%d", fg.FunctionPrimeProduct(), fg.InstructionCount(), fg.VertexCount()), true
	}
}

// symbolNameStep matches functions by exact, non-auto-generated symbol
// name equality.
type symbolNameStep struct{ confidence float64 }

func (s symbolNameStep) Name() match.StepName { return match.StepSymbolName }
func (s symbolNameStep) Confidence() float64  { return s.confidence }

func (s symbolNameStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil || fg.IsAutoName() {
				return "", false
			}

			return fg.Name(), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// demangledNameStep matches functions by name equality after stripping the
// lightweight decorations a loader may leave in place (a leading run of
// underscores, a trailing "@N" stdcall suffix) — this module's flow graph
// carries a single Name field rather than separate mangled/demangled
// strings, so "demangled" here means canonicalized rather than a second
// name source.
type demangledNameStep struct{ confidence float64 }

func (s demangledNameStep) Name() match.StepName { return match.StepDemangledName }
func (s demangledNameStep) Confidence() float64  { return s.confidence }

func (s demangledNameStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil || fg.IsAutoName() {
				return "", false
			}

			return canonicalizeName(fg.Name()), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

func canonicalizeName(name string) string {
	name = strings.TrimLeft(name, "_")
	if at := strings.LastIndexByte(name, '@'); at >= 0 {
		suffix := name[at+1:]
		if suffix != "" && strings.Trim(suffix, "0123456789") == "" {
			name = name[:at]
		}
	}

	return name
}

// edgesOnlyMDIndexStep matches functions by a loop-invariant MD-index
// variant that ignores vertex in/out-degree weighting.
type edgesOnlyMDIndexStep struct{ confidence float64 }

func (s edgesOnlyMDIndexStep) Name() match.StepName { return match.StepEdgesOnlyMDIndex }
func (s edgesOnlyMDIndexStep) Confidence() float64  { return s.confidence }

func (s edgesOnlyMDIndexStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			md, err := fg.EdgesOnlyMDIndex()
			if err != nil {
				return "", false
			}

			return floatKey(md), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// addressStep matches functions by identical entry address (relocated but
// aligned builds).
type addressStep struct{ confidence float64 }

func (s addressStep) Name() match.StepName { return match.StepAddress }
func (s addressStep) Confidence() float64  { return s.confidence }

func (s addressStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			addr, err := fg.EntryAddress()
			if err != nil {
				return "", false
			}

			return fmt.Sprintf("%d", addr), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}

// callGraphNeighborhoodStep matches an unmatched primary function to an
// unmatched secondary function when every one of its callers and callees
// is already matched, and all of them agree on a single secondary
// counterpart.
type callGraphNeighborhoodStep struct{ confidence float64 }

func (s callGraphNeighborhoodStep) Name() match.StepName { return match.StepCallGraphNeighborhood }
func (s callGraphNeighborhoodStep) Confidence() float64  { return s.confidence }

func (s callGraphNeighborhoodStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	var candidates []match.FunctionCandidate

	for _, pid := range ctx.UnmatchedPrimary() {
		neighbors := append(append([]callgraph.FuncID{}, ctx.Primary().Callers(pid)...), ctx.Primary().Callees(pid)...)
		if len(neighbors) == 0 {
			continue
		}

		secondarySet := make(map[callgraph.FuncID]bool)
		allMatched := true
		for _, n := range neighbors {
			fp, ok := ctx.FixedPointByPrimary(n)
			if !ok {
				allMatched = false

				break
			}
			secondarySet[fp.Secondary()] = true
		}
		if !allMatched || len(secondarySet) != 1 {
			continue
		}

		var sid callgraph.FuncID
		for k := range secondarySet {
			sid = k
		}
		if ctx.IsSecondaryMatched(sid) {
			continue
		}

		secondaryNeighbors := append(append([]callgraph.FuncID{}, ctx.Secondary().Callers(sid)...), ctx.Secondary().Callees(sid)...)
		if len(secondaryNeighbors) == 0 {
			continue
		}
		primarySet := make(map[callgraph.FuncID]bool)
		allMatchedBack := true
		for _, n := range secondaryNeighbors {
			fp, ok := ctx.FixedPointBySecondary(n)
			if !ok {
				allMatchedBack = false

				break
			}
			primarySet[fp.Primary()] = true
		}
		if !allMatchedBack || len(primarySet) != 1 || !primarySet[pid] {
			continue
		}

		candidates = append(candidates, match.FunctionCandidate{Primary: pid, Secondary: sid})
	}

	sortFunctionCandidates(candidates)

	return candidates, nil
}

// stringReferencesStep matches functions whose sorted StringRefs multisets
// intersect above a configurable threshold ratio (SPEC_FULL.md §4.2's
// refinement of "if both functions reference the same literal string
// constants"): intersection size over the larger side's multiset size, not
// exact-key equality, since two functions can share most of their string
// constants while still differing by a handful (a log message, a format
// string) without being a different function. A pair is proposed only when
// it is the best-scoring candidate for both of its endpoints, so the step
// still only ever commits an unambiguous match (spec §4.2 rule 2).
type stringReferencesStep struct {
	confidence float64
	threshold  float64
}

func (s stringReferencesStep) Name() match.StepName { return match.StepStringReferences }
func (s stringReferencesStep) Confidence() float64  { return s.confidence }

func (s stringReferencesStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	primaryRefs, err := sortedStringRefs(ctx.Primary(), ctx.UnmatchedPrimary())
	if err != nil {
		return nil, err
	}
	secondaryRefs, err := sortedStringRefs(ctx.Secondary(), ctx.UnmatchedSecondary())
	if err != nil {
		return nil, err
	}

	type bestMatch struct {
		id    callgraph.FuncID
		ratio float64
	}
	bestForPrimary := make(map[callgraph.FuncID]bestMatch)
	bestForSecondary := make(map[callgraph.FuncID]bestMatch)

	for pid, prefs := range primaryRefs {
		for sid, srefs := range secondaryRefs {
			ratio := sortedMultisetIntersectionRatio(prefs, srefs)
			if ratio < s.threshold {
				continue
			}
			if cur, ok := bestForPrimary[pid]; !ok || ratio > cur.ratio || (ratio == cur.ratio && sid < cur.id) {
				bestForPrimary[pid] = bestMatch{id: sid, ratio: ratio}
			}
			if cur, ok := bestForSecondary[sid]; !ok || ratio > cur.ratio || (ratio == cur.ratio && pid < cur.id) {
				bestForSecondary[sid] = bestMatch{id: pid, ratio: ratio}
			}
		}
	}

	var candidates []match.FunctionCandidate
	for pid, best := range bestForPrimary {
		mutual, ok := bestForSecondary[best.id]
		if ok && mutual.id == pid {
			candidates = append(candidates, match.FunctionCandidate{Primary: pid, Secondary: best.id})
		}
	}
	sortFunctionCandidates(candidates)

	return candidates, nil
}

// sortedStringRefs resolves each id's non-empty StringRefs into a sorted
// copy, skipping functions with no string references at all (they can
// never clear a positive threshold).
func sortedStringRefs(cg *callgraph.CallGraph, ids []callgraph.FuncID) (map[callgraph.FuncID][]uint64, error) {
	out := make(map[callgraph.FuncID][]uint64, len(ids))
	for _, id := range ids {
		fg, err := cg.Function(id)
		if err != nil {
			return nil, err
		}
		refs := fg.StringRefs()
		if len(refs) == 0 {
			continue
		}
		sorted := append([]uint64{}, refs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		out[id] = sorted
	}

	return out, nil
}

// sortedMultisetIntersectionRatio returns |a ∩ b| (as multisets) divided by
// the larger of |a|, |b|, computed by a single merge pass over the two
// sorted slices.
func sortedMultisetIntersectionRatio(a, b []uint64) float64 {
	var i, j, inter int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom == 0 {
		return 0
	}

	return float64(inter) / float64(denom)
}

// loopHeadStep matches unmatched functions that are each the head of their
// own single loop, using instruction/block counts restricted to that
// narrower population as the deciding bucket — a conservative reading of
// "the head of the only loop of a matched function", since this module's
// flow graph does not carry a separate "owning function of a loop head"
// link distinct from the function itself.
type loopHeadStep struct{ confidence float64 }

func (s loopHeadStep) Name() match.StepName { return match.StepLoopHead }
func (s loopHeadStep) Confidence() float64  { return s.confidence }

func (s loopHeadStep) Candidates(ctx *match.Context) ([]match.FunctionCandidate, error) {
	keyFn := func(cg *callgraph.CallGraph) func(callgraph.FuncID) (string, bool) {
		return func(id callgraph.FuncID) (string, bool) {
			fg, err := cg.Function(id)
			if err != nil {
				return "", false
			}
			if _, ok, err := fg.SingleLoopHead(); err != nil || !ok {
				return "", false
			}

			return fmt.Sprintf("%d|%d", fg.InstructionCount(), fg.VertexCount()), true
		}
	}

	return uniqueFunctionPairsByKey(
		ctx.UnmatchedPrimary(), keyFn(ctx.Primary()),
		ctx.UnmatchedSecondary(), keyFn(ctx.Secondary()),
	), nil
}
