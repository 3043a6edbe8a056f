package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
)

func leafFlowGraph(t *testing.T, cache *instruction.Cache, name string) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New(name)
	ins, err := instruction.New(cache, 0x1000, "ret", "")
	require.NoError(t, err)
	block, err := flowgraph.NewBasicBlock(instruction.Instructions{ins})
	require.NoError(t, err)
	entry := fg.AddBlock(block)
	require.NoError(t, fg.SetEntry(entry))

	return fg
}

func TestAddCallEdgeAccumulatesMultiplicity(t *testing.T) {
	cache := instruction.NewCache()
	cg := callgraph.New(callgraph.Metadata{ExecutableID: "a.exe"})
	caller := cg.AddFunction(leafFlowGraph(t, cache, "main"))
	callee := cg.AddFunction(leafFlowGraph(t, cache, "helper"))

	require.NoError(t, cg.AddCallEdge(caller, callee, 1))
	require.NoError(t, cg.AddCallEdge(caller, callee, 2))

	require.Equal(t, 3, cg.CallCount(caller, callee))
	require.Equal(t, []callgraph.FuncID{callee}, cg.Callees(caller))
	require.Equal(t, []callgraph.FuncID{caller}, cg.Callers(callee))
}

func TestCalleeExtensionLeafIsZero(t *testing.T) {
	cache := instruction.NewCache()
	cg := callgraph.New(callgraph.Metadata{})
	leaf := cg.AddFunction(leafFlowGraph(t, cache, "leaf"))

	ext, err := cg.CalleeExtension(leaf)
	require.NoError(t, err)
	require.Zero(t, ext)
}

func TestUnknownFuncIDRejected(t *testing.T) {
	cg := callgraph.New(callgraph.Metadata{})
	err := cg.AddCallEdge(0, 1, 1)
	require.ErrorIs(t, err, callgraph.ErrFuncNotFound)
}
