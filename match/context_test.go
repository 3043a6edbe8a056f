package match_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/match"
)

func leafFlowGraph(t *testing.T, cache *instruction.Cache, name string, entry uint64) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New(name)
	ins, err := instruction.New(cache, entry, "ret", "")
	require.NoError(t, err)
	block, err := flowgraph.NewBasicBlock(instruction.Instructions{ins})
	require.NoError(t, err)
	v := fg.AddBlock(block)
	require.NoError(t, fg.SetEntry(v))

	return fg
}

func twoSidedGraph(t *testing.T) (*callgraph.CallGraph, *callgraph.CallGraph, *instruction.Cache) {
	t.Helper()
	cache := instruction.NewCache()
	primary := callgraph.New(callgraph.Metadata{ExecutableID: "primary.exe"})
	secondary := callgraph.New(callgraph.Metadata{ExecutableID: "secondary.exe"})

	primary.AddFunction(leafFlowGraph(t, cache, "p_high", 0x2000))
	primary.AddFunction(leafFlowGraph(t, cache, "p_low", 0x1000))
	secondary.AddFunction(leafFlowGraph(t, cache, "s_high", 0x4000))
	secondary.AddFunction(leafFlowGraph(t, cache, "s_low", 0x3000))

	return primary, secondary, cache
}

func TestNewContextStartsFullyUnmatched(t *testing.T) {
	primary, secondary, cache := twoSidedGraph(t)
	ctx := match.NewContext(primary, secondary, cache)

	require.Len(t, ctx.UnmatchedPrimary(), 2)
	require.Len(t, ctx.UnmatchedSecondary(), 2)
	require.Empty(t, ctx.FixedPoints())
}

func TestUnmatchedSortedByEntryAddress(t *testing.T) {
	primary, secondary, cache := twoSidedGraph(t)
	ctx := match.NewContext(primary, secondary, cache)

	ids := ctx.UnmatchedPrimary()
	require.Len(t, ids, 2)
	first, err := primary.Function(ids[0])
	require.NoError(t, err)
	second, err := primary.Function(ids[1])
	require.NoError(t, err)
	firstAddr, err := first.EntryAddress()
	require.NoError(t, err)
	secondAddr, err := second.EntryAddress()
	require.NoError(t, err)
	require.Less(t, firstAddr, secondAddr)
}

func TestCommitFunctionEnforcesConflictFreeRule(t *testing.T) {
	primary, secondary, cache := twoSidedGraph(t)
	ctx := match.NewContext(primary, secondary, cache)

	p := ctx.UnmatchedPrimary()[0]
	s := ctx.UnmatchedSecondary()[0]
	step := match.InternStep("hashMatching")

	fp, ok := ctx.CommitFunction(match.FunctionCandidate{Primary: p, Secondary: s}, step)
	require.True(t, ok)
	require.NotNil(t, fp)
	require.True(t, ctx.IsPrimaryMatched(p))
	require.True(t, ctx.IsSecondaryMatched(s))
	require.Len(t, ctx.UnmatchedPrimary(), 1)
	require.Len(t, ctx.UnmatchedSecondary(), 1)

	other := ctx.UnmatchedSecondary()[0]
	_, ok = ctx.CommitFunction(match.FunctionCandidate{Primary: p, Secondary: other}, step)
	require.False(t, ok, "primary already matched, candidate must be rejected")

	got, ok := ctx.FixedPointByPrimary(p)
	require.True(t, ok)
	require.Same(t, fp, got)
	gotBySecondary, ok := ctx.FixedPointBySecondary(s)
	require.True(t, ok)
	require.Same(t, fp, gotBySecondary)
}

func TestCommitBasicBlockEnforcesNestedBijection(t *testing.T) {
	primary, secondary, cache := twoSidedGraph(t)
	ctx := match.NewContext(primary, secondary, cache)

	p := ctx.UnmatchedPrimary()[0]
	s := ctx.UnmatchedSecondary()[0]
	step := match.InternStep("hashMatching")
	fp, ok := ctx.CommitFunction(match.FunctionCandidate{Primary: p, Secondary: s}, step)
	require.True(t, ok)

	bbStep := match.InternStep("basicBlockEntry")
	bb, ok := ctx.CommitBasicBlock(fp, match.BasicBlockCandidate{Primary: 0, Secondary: 0}, bbStep)
	require.True(t, ok)
	require.NotNil(t, bb)

	_, ok = ctx.CommitBasicBlock(fp, match.BasicBlockCandidate{Primary: 0, Secondary: 1}, bbStep)
	require.False(t, ok, "primary vertex 0 already matched within fp")
}

func TestStepNameInterningIsPointerStable(t *testing.T) {
	a := match.InternStep("hashMatching")
	b := match.InternStep("hashMatching")
	c := match.InternStep("callGraphMatching")

	require.True(t, a == b)
	require.False(t, a == c)
	require.Equal(t, "hashMatching", a.String())
}
