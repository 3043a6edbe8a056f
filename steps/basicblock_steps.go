// File: basicblock_steps.go
// Role: The six basic-block-level steps of spec §4.2, run inside one
// confirmed FixedPoint until its own fixed point.
package steps

import (
	"fmt"

	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/match"
)

// BasicBlockRegistry maps every basic-block-step name to its factory, in
// canonical pipeline order.
var BasicBlockRegistry = &BasicBlockStepRegistry{}

func init() {
	BasicBlockRegistry.register(match.StepEntryBlock.String(), func(c float64) BasicBlockStep { return entryBlockStep{confidence: c} })
	BasicBlockRegistry.register(match.StepPrimeProductBucket.String(), func(c float64) BasicBlockStep { return primeProductBucketStep{confidence: c} })
	BasicBlockRegistry.register(match.StepMDIndexBlock.String(), func(c float64) BasicBlockStep { return mdIndexBlockStep{confidence: c} })
	BasicBlockRegistry.register(match.StepInstructionCountNeighbor.String(), func(c float64) BasicBlockStep { return instructionCountNeighborStep{confidence: c} })
	BasicBlockRegistry.register(match.StepEdgePropagation.String(), func(c float64) BasicBlockStep { return edgePropagationStep{confidence: c} })
	BasicBlockRegistry.register(match.StepSelfLoop.String(), func(c float64) BasicBlockStep { return selfLoopStep{confidence: c} })
}

// entryBlockStep always pairs the two flow graph entries, if both exist
// and are still unmatched.
type entryBlockStep struct{ confidence float64 }

func (s entryBlockStep) Name() match.StepName { return match.StepEntryBlock }
func (s entryBlockStep) Confidence() float64  { return s.confidence }

func (s entryBlockStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}

	pEntry, err := primary.Entry()
	if err != nil {
		return nil, nil
	}
	sEntry, err := secondary.Entry()
	if err != nil {
		return nil, nil
	}

	if _, ok := fp.BasicBlockByPrimary(pEntry); ok {
		return nil, nil
	}
	if _, ok := fp.BasicBlockBySecondary(sEntry); ok {
		return nil, nil
	}

	return []match.BasicBlockCandidate{{Primary: pEntry, Secondary: sEntry}}, nil
}

// primeProductBucketStep matches unmatched blocks by prime-product
// equality, restricted to buckets of size one on each side.
type primeProductBucketStep struct{ confidence float64 }

func (s primeProductBucketStep) Name() match.StepName { return match.StepPrimeProductBucket }
func (s primeProductBucketStep) Confidence() float64  { return s.confidence }

func (s primeProductBucketStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}
	pUnmatched, err := unmatchedVertices(fp, primary, true)
	if err != nil {
		return nil, err
	}
	sUnmatched, err := unmatchedVertices(fp, secondary, false)
	if err != nil {
		return nil, err
	}

	return uniqueBlockPairsByKey(
		pUnmatched, primeProductKey(primary),
		sUnmatched, primeProductKey(secondary),
	), nil
}

func primeProductKey(g *flowgraph.FlowGraph) func(flowgraph.VertexID) (string, bool) {
	return func(v flowgraph.VertexID) (string, bool) {
		b, err := g.Block(v)
		if err != nil {
			return "", false
		}

		return fmt.Sprintf("%d", b.PrimeProductCached()), true
	}
}

// mdIndexBlockStep matches unmatched blocks by their local (in-degree,
// out-degree, instruction count) signature — the vertex-level analogue of the function-level
// MD-index's core discriminator, since MD-index itself is defined only at
// flow-graph granularity.
type mdIndexBlockStep struct{ confidence float64 }

func (s mdIndexBlockStep) Name() match.StepName { return match.StepMDIndexBlock }
func (s mdIndexBlockStep) Confidence() float64  { return s.confidence }

func (s mdIndexBlockStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}
	pUnmatched, err := unmatchedVertices(fp, primary, true)
	if err != nil {
		return nil, err
	}
	sUnmatched, err := unmatchedVertices(fp, secondary, false)
	if err != nil {
		return nil, err
	}

	return uniqueBlockPairsByKey(
		pUnmatched, degreeKey(primary),
		sUnmatched, degreeKey(secondary),
	), nil
}

func degreeKey(g *flowgraph.FlowGraph) func(flowgraph.VertexID) (string, bool) {
	return func(v flowgraph.VertexID) (string, bool) {
		b, err := g.Block(v)
		if err != nil {
			return "", false
		}

		return fmt.Sprintf("%d|%d|%d", g.InDegree(v), g.OutDegree(v), len(b.Instructions())), true
	}
}

// instructionCountNeighborStep matches an unmatched primary block to an
// unmatched secondary block of equal instruction count when the primary
// block is a successor of an already-matched predecessor whose secondary
// counterpart has exactly one unmatched successor of that same count.
type instructionCountNeighborStep struct{ confidence float64 }

func (s instructionCountNeighborStep) Name() match.StepName { return match.StepInstructionCountNeighbor }
func (s instructionCountNeighborStep) Confidence() float64  { return s.confidence }

func (s instructionCountNeighborStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}
	pUnmatched, err := unmatchedVertices(fp, primary, true)
	if err != nil {
		return nil, err
	}

	var candidates []match.BasicBlockCandidate

	for _, pv := range pUnmatched {
		pBlock, err := primary.Block(pv)
		if err != nil {
			return nil, err
		}
		count := len(pBlock.Instructions())

		candidateSet := make(map[flowgraph.VertexID]bool)
		for _, pred := range primary.Predecessors(pv) {
			matchedPred, ok := fp.BasicBlockByPrimary(pred)
			if !ok {
				continue
			}
			for _, succ := range secondary.Successors(matchedPred.SecondaryVertex()) {
				if _, already := fp.BasicBlockBySecondary(succ); already {
					continue
				}
				sBlock, err := secondary.Block(succ)
				if err != nil {
					return nil, err
				}
				if len(sBlock.Instructions()) == count {
					candidateSet[succ] = true
				}
			}
		}
		if len(candidateSet) != 1 {
			continue
		}
		var sv flowgraph.VertexID
		for k := range candidateSet {
			sv = k
		}

		candidates = append(candidates, match.BasicBlockCandidate{Primary: pv, Secondary: sv})
	}

	sortBlockCandidates(candidates)

	return candidates, nil
}

// edgePropagationStep commits (B, B') when all of B's predecessors are
// matched to predecessors of a unique B' (or, symmetrically, all of B's
// successors are matched to successors of a unique B').
type edgePropagationStep struct{ confidence float64 }

func (s edgePropagationStep) Name() match.StepName { return match.StepEdgePropagation }
func (s edgePropagationStep) Confidence() float64  { return s.confidence }

func (s edgePropagationStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}
	pUnmatched, err := unmatchedVertices(fp, primary, true)
	if err != nil {
		return nil, err
	}

	var candidates []match.BasicBlockCandidate

	for _, pv := range pUnmatched {
		if sv, ok := uniquePropagatedNeighbor(fp, primary.Predecessors(pv), secondary.Successors); ok {
			candidates = append(candidates, match.BasicBlockCandidate{Primary: pv, Secondary: sv})

			continue
		}
		if sv, ok := uniquePropagatedNeighbor(fp, primary.Successors(pv), secondary.Predecessors); ok {
			candidates = append(candidates, match.BasicBlockCandidate{Primary: pv, Secondary: sv})
		}
	}

	sortBlockCandidates(candidates)

	return candidates, nil
}

// uniquePropagatedNeighbor requires every id in primaryNeighbors to be
// matched, and every matched secondary counterpart's neighborSet(v) (via
// secondaryNeighborFn) to agree on exactly one unmatched secondary vertex.
func uniquePropagatedNeighbor(
	fp *match.FixedPoint,
	primaryNeighbors []flowgraph.VertexID,
	secondaryNeighborFn func(flowgraph.VertexID) []flowgraph.VertexID,
) (flowgraph.VertexID, bool) {
	if len(primaryNeighbors) == 0 {
		return 0, false
	}

	var candidateSet map[flowgraph.VertexID]bool
	for _, pn := range primaryNeighbors {
		matchedPN, ok := fp.BasicBlockByPrimary(pn)
		if !ok {
			return 0, false
		}

		neighbors := secondaryNeighborFn(matchedPN.SecondaryVertex())
		set := make(map[flowgraph.VertexID]bool, len(neighbors))
		for _, n := range neighbors {
			if _, already := fp.BasicBlockBySecondary(n); !already {
				set[n] = true
			}
		}

		if candidateSet == nil {
			candidateSet = set
		} else {
			for k := range candidateSet {
				if !set[k] {
					delete(candidateSet, k)
				}
			}
		}
		if len(candidateSet) == 0 {
			return 0, false
		}
	}

	if len(candidateSet) != 1 {
		return 0, false
	}
	for k := range candidateSet {
		return k, true
	}

	return 0, false
}

// selfLoopStep matches unmatched blocks that each carry a self-loop,
// restricting the prime-product bucketing to that
// narrower population as stronger structural evidence.
type selfLoopStep struct{ confidence float64 }

func (s selfLoopStep) Name() match.StepName { return match.StepSelfLoop }
func (s selfLoopStep) Confidence() float64  { return s.confidence }

func (s selfLoopStep) Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error) {
	primary, secondary, err := functionGraphs(ctx, fp)
	if err != nil {
		return nil, err
	}
	pUnmatched, err := unmatchedVertices(fp, primary, true)
	if err != nil {
		return nil, err
	}
	sUnmatched, err := unmatchedVertices(fp, secondary, false)
	if err != nil {
		return nil, err
	}

	pSelfLoops := filterSelfLoops(primary, pUnmatched)
	sSelfLoops := filterSelfLoops(secondary, sUnmatched)

	return uniqueBlockPairsByKey(
		pSelfLoops, primeProductKey(primary),
		sSelfLoops, primeProductKey(secondary),
	), nil
}

func filterSelfLoops(g *flowgraph.FlowGraph, vertices []flowgraph.VertexID) []flowgraph.VertexID {
	var out []flowgraph.VertexID
	for _, v := range vertices {
		for _, succ := range g.Successors(v) {
			if succ == v {
				out = append(out, v)

				break
			}
		}
	}

	return out
}
