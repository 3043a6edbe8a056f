package flowgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
)

func block(t *testing.T, cache *instruction.Cache, addr uint64, mnemonics ...string) *flowgraph.BasicBlock {
	t.Helper()
	seq := make(instruction.Instructions, 0, len(mnemonics))
	for i, m := range mnemonics {
		ins, err := instruction.New(cache, addr+uint64(i), m, "")
		require.NoError(t, err)
		seq = append(seq, ins)
	}
	b, err := flowgraph.NewBasicBlock(seq)
	require.NoError(t, err)

	return b
}

// linearGraph builds entry -> mid -> tail, a simple three-block chain.
func linearGraph(t *testing.T, cache *instruction.Cache) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New("f")
	entry := fg.AddBlock(block(t, cache, 0x1000, "push", "mov"))
	mid := fg.AddBlock(block(t, cache, 0x2000, "cmp", "jz"))
	tail := fg.AddBlock(block(t, cache, 0x3000, "ret"))
	require.NoError(t, fg.SetEntry(entry))
	require.NoError(t, fg.AddEdge(entry, mid, flowgraph.Unconditional))
	require.NoError(t, fg.AddEdge(mid, tail, flowgraph.TrueBranch))

	return fg
}

func TestPrimeProductReorderInvariant(t *testing.T) {
	cache := instruction.NewCache()
	a, err := instruction.New(cache, 1, "mov", "eax,1")
	require.NoError(t, err)
	b, err := instruction.New(cache, 2, "push", "eax")
	require.NoError(t, err)
	c, err := instruction.New(cache, 3, "ret", "")
	require.NoError(t, err)

	forward := flowgraph.PrimeProduct(instruction.Instructions{a, b, c})
	reversed := flowgraph.PrimeProduct(instruction.Instructions{c, b, a})
	shuffled := flowgraph.PrimeProduct(instruction.Instructions{b, a, c})

	require.Equal(t, forward, reversed)
	require.Equal(t, forward, shuffled)
}

func TestMDIndexIsomorphicGraphsEqual(t *testing.T) {
	cache := instruction.NewCache()
	g1 := linearGraph(t, cache)
	g2 := linearGraph(t, cache)

	md1, err := g1.MDIndex(flowgraph.DefaultMDWeights)
	require.NoError(t, err)
	md2, err := g2.MDIndex(flowgraph.DefaultMDWeights)
	require.NoError(t, err)
	require.True(t, flowgraph.FloatEqual(md1, md2))
}

func TestMDIndexCached(t *testing.T) {
	cache := instruction.NewCache()
	g := linearGraph(t, cache)
	first, err := g.MDIndex(flowgraph.DefaultMDWeights)
	require.NoError(t, err)
	second, err := g.MDIndex(flowgraph.MDWeights{A: 99, B: 99, C: 99, D: 99, E: 99})
	require.NoError(t, err)
	require.Equal(t, first, second, "MD-index must be computed once and cached")
}

func TestLoopCount(t *testing.T) {
	cache := instruction.NewCache()
	fg := flowgraph.New("loopy")
	entry := fg.AddBlock(block(t, cache, 0x1000, "mov"))
	head := fg.AddBlock(block(t, cache, 0x2000, "cmp", "jl"))
	tail := fg.AddBlock(block(t, cache, 0x3000, "ret"))
	require.NoError(t, fg.SetEntry(entry))
	require.NoError(t, fg.AddEdge(entry, head, flowgraph.Unconditional))
	require.NoError(t, fg.AddEdge(head, tail, flowgraph.FalseBranch))
	require.NoError(t, fg.AddEdge(head, head, flowgraph.TrueBranch)) // self-loop back edge

	count, err := fg.LoopCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	single, ok, err := fg.SingleLoopHead()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, head, single)
}

func TestUnreachableBlocks(t *testing.T) {
	cache := instruction.NewCache()
	fg := flowgraph.New("f")
	entry := fg.AddBlock(block(t, cache, 0x1000, "mov"))
	reachable := fg.AddBlock(block(t, cache, 0x2000, "ret"))
	orphan := fg.AddBlock(block(t, cache, 0x3000, "nop"))
	require.NoError(t, fg.SetEntry(entry))
	require.NoError(t, fg.AddEdge(entry, reachable, flowgraph.Unconditional))

	unreachable, err := fg.UnreachableBlocks()
	require.NoError(t, err)
	require.Equal(t, []flowgraph.VertexID{orphan}, unreachable)
}

func TestEmptyBasicBlockRejected(t *testing.T) {
	_, err := flowgraph.NewBasicBlock(nil)
	require.ErrorIs(t, err, flowgraph.ErrEmptyInstructions)
}
