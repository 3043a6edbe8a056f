// File: support.go
// Role: Bucketing and unmatched-set helpers shared by every step
// implementation, keeping each step's Candidates method a short, readable
// application of one matching rule.
package steps

import (
	"sort"
	"strconv"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/match"
)

// floatKey renders a float64 to a string with enough precision that two
// values equal under flowgraph.FloatEqual from identical deterministic
// computations render identically; it is a bucketing convenience, not a
// general epsilon-equality substitute.
func floatKey(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// uniqueFunctionPairsByKey buckets primary and secondary function ids by
// key and returns one candidate per key present with exactly one id on
// each side (spec §4.2's uniqueness rule), sorted by (primary, secondary)
// id for determinism.
func uniqueFunctionPairsByKey(
	primaryIDs []callgraph.FuncID, primaryKey func(callgraph.FuncID) (string, bool),
	secondaryIDs []callgraph.FuncID, secondaryKey func(callgraph.FuncID) (string, bool),
) []match.FunctionCandidate {
	primaryBuckets := make(map[string][]callgraph.FuncID)
	for _, id := range primaryIDs {
		if k, ok := primaryKey(id); ok {
			primaryBuckets[k] = append(primaryBuckets[k], id)
		}
	}
	secondaryBuckets := make(map[string][]callgraph.FuncID)
	for _, id := range secondaryIDs {
		if k, ok := secondaryKey(id); ok {
			secondaryBuckets[k] = append(secondaryBuckets[k], id)
		}
	}

	var candidates []match.FunctionCandidate
	for k, pids := range primaryBuckets {
		if len(pids) != 1 {
			continue
		}
		sids, ok := secondaryBuckets[k]
		if !ok || len(sids) != 1 {
			continue
		}
		candidates = append(candidates, match.FunctionCandidate{Primary: pids[0], Secondary: sids[0]})
	}
	sortFunctionCandidates(candidates)

	return candidates
}

func sortFunctionCandidates(c []match.FunctionCandidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Primary != c[j].Primary {
			return c[i].Primary < c[j].Primary
		}

		return c[i].Secondary < c[j].Secondary
	})
}

// uniqueBlockPairsByKey is the basic-block analogue of
// uniqueFunctionPairsByKey.
func uniqueBlockPairsByKey(
	primaryIDs []flowgraph.VertexID, primaryKey func(flowgraph.VertexID) (string, bool),
	secondaryIDs []flowgraph.VertexID, secondaryKey func(flowgraph.VertexID) (string, bool),
) []match.BasicBlockCandidate {
	primaryBuckets := make(map[string][]flowgraph.VertexID)
	for _, id := range primaryIDs {
		if k, ok := primaryKey(id); ok {
			primaryBuckets[k] = append(primaryBuckets[k], id)
		}
	}
	secondaryBuckets := make(map[string][]flowgraph.VertexID)
	for _, id := range secondaryIDs {
		if k, ok := secondaryKey(id); ok {
			secondaryBuckets[k] = append(secondaryBuckets[k], id)
		}
	}

	var candidates []match.BasicBlockCandidate
	for k, pids := range primaryBuckets {
		if len(pids) != 1 {
			continue
		}
		sids, ok := secondaryBuckets[k]
		if !ok || len(sids) != 1 {
			continue
		}
		candidates = append(candidates, match.BasicBlockCandidate{Primary: pids[0], Secondary: sids[0]})
	}
	sortBlockCandidates(candidates)

	return candidates
}

func sortBlockCandidates(c []match.BasicBlockCandidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Primary != c[j].Primary {
			return c[i].Primary < c[j].Primary
		}

		return c[i].Secondary < c[j].Secondary
	})
}

// unmatchedVertices returns every vertex of g not yet present in fp's
// basic-block fixed points on the given side, sorted by entry address.
func unmatchedVertices(fp *match.FixedPoint, g *flowgraph.FlowGraph, primarySide bool) ([]flowgraph.VertexID, error) {
	var out []flowgraph.VertexID
	for v := flowgraph.VertexID(0); int(v) < g.VertexCount(); v++ {
		var matched bool
		if primarySide {
			_, matched = fp.BasicBlockByPrimary(v)
		} else {
			_, matched = fp.BasicBlockBySecondary(v)
		}
		if !matched {
			out = append(out, v)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		bi, err := g.Block(out[i])
		if err != nil {
			return false
		}
		bj, err := g.Block(out[j])
		if err != nil {
			return false
		}

		return bi.EntryAddress() < bj.EntryAddress()
	})

	return out, nil
}

// functionGraphs resolves a FixedPoint's two flow graphs.
func functionGraphs(ctx *match.Context, fp *match.FixedPoint) (primary, secondary *flowgraph.FlowGraph, err error) {
	primary, err = ctx.Primary().Function(fp.Primary())
	if err != nil {
		return nil, nil, err
	}
	secondary, err = ctx.Secondary().Function(fp.Secondary())
	if err != nil {
		return nil, nil, err
	}

	return primary, secondary, nil
}
