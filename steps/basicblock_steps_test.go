package steps_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/match"
	"github.com/whicun/bindiff/steps"
)

// chainGraph builds a 3-block chain entry -> mid -> tail, each block a
// single instruction with the given mnemonics.
func chainGraph(t *testing.T, cache *instruction.Cache, name string, base uint64, mnemonics [3]string) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New(name)

	var verts [3]flowgraph.VertexID
	for i, mnemonic := range mnemonics {
		ins, err := instruction.New(cache, base+uint64(i), mnemonic, "")
		require.NoError(t, err)
		block, err := flowgraph.NewBasicBlock(instruction.Instructions{ins})
		require.NoError(t, err)
		verts[i] = fg.AddBlock(block)
	}
	require.NoError(t, fg.SetEntry(verts[0]))
	require.NoError(t, fg.AddEdge(verts[0], verts[1], flowgraph.Unconditional))
	require.NoError(t, fg.AddEdge(verts[1], verts[2], flowgraph.Unconditional))

	return fg
}

func commitChainFunction(t *testing.T, primary, secondary *flowgraph.FlowGraph, cache *instruction.Cache) (*match.Context, *match.FixedPoint) {
	t.Helper()
	cgPrimary := callgraph.New(callgraph.Metadata{})
	cgPrimary.AddFunction(primary)
	cgSecondary := callgraph.New(callgraph.Metadata{})
	cgSecondary.AddFunction(secondary)

	ctx := match.NewContext(cgPrimary, cgSecondary, cache)
	fp, ok := ctx.CommitFunction(match.FunctionCandidate{Primary: 0, Secondary: 0}, match.StepHashEquality)
	require.True(t, ok)

	return ctx, fp
}

func TestEntryBlockStepAlwaysPairsEntries(t *testing.T) {
	cache := instruction.NewCache()
	primary := chainGraph(t, cache, "f", 0x1000, [3]string{"push", "mov", "ret"})
	secondary := chainGraph(t, cache, "f", 0x2000, [3]string{"push", "mov", "ret"})
	ctx, fp := commitChainFunction(t, primary, secondary, cache)

	step, ok := steps.BasicBlockRegistry.Build(match.StepEntryBlock.String(), 1.0)
	require.True(t, ok)

	candidates, err := step.Candidates(ctx, fp)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, flowgraph.VertexID(0), candidates[0].Primary)
	require.Equal(t, flowgraph.VertexID(0), candidates[0].Secondary)
}

func TestEdgePropagationStepPropagatesFromMatchedPredecessor(t *testing.T) {
	cache := instruction.NewCache()
	primary := chainGraph(t, cache, "f", 0x1000, [3]string{"push", "mov", "ret"})
	secondary := chainGraph(t, cache, "f", 0x2000, [3]string{"push", "xor", "ret"})
	ctx, fp := commitChainFunction(t, primary, secondary, cache)

	_, ok := fp.Add(0, 0, match.StepEntryBlock)
	require.True(t, ok)

	step, ok := steps.BasicBlockRegistry.Build(match.StepEdgePropagation.String(), 0.6)
	require.True(t, ok)

	candidates, err := step.Candidates(ctx, fp)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, flowgraph.VertexID(1), candidates[0].Primary)
	require.Equal(t, flowgraph.VertexID(1), candidates[0].Secondary)
}

func TestPrimeProductBucketStepMatchesUniqueBucket(t *testing.T) {
	cache := instruction.NewCache()
	primary := chainGraph(t, cache, "f", 0x1000, [3]string{"push", "mov", "ret"})
	secondary := chainGraph(t, cache, "f", 0x2000, [3]string{"push", "mov", "ret"})
	ctx, fp := commitChainFunction(t, primary, secondary, cache)

	step, ok := steps.BasicBlockRegistry.Build(match.StepPrimeProductBucket.String(), 0.7)
	require.True(t, ok)

	candidates, err := step.Candidates(ctx, fp)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
}
