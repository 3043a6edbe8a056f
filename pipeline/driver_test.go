package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/classify"
	"github.com/whicun/bindiff/config"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/pipeline"
)

func chainFlowGraph(t *testing.T, cache *instruction.Cache, name string, base uint64, mnemonics []string) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New(name)

	verts := make([]flowgraph.VertexID, len(mnemonics))
	for i, mnemonic := range mnemonics {
		ins, err := instruction.New(cache, base+uint64(i), mnemonic, "")
		require.NoError(t, err)
		block, err := flowgraph.NewBasicBlock(instruction.Instructions{ins})
		require.NoError(t, err)
		verts[i] = fg.AddBlock(block)
	}
	require.NoError(t, fg.SetEntry(verts[0]))
	for i := 0; i+1 < len(verts); i++ {
		require.NoError(t, fg.AddEdge(verts[i], verts[i+1], flowgraph.Unconditional))
	}

	return fg
}

func TestDriverRunMatchesIdenticalCallGraphsPerfectly(t *testing.T) {
	cache := instruction.NewCache()

	primary := callgraph.New(callgraph.Metadata{ExecutableID: "a.exe"})
	primary.AddFunction(chainFlowGraph(t, cache, "main", 0x1000, []string{"push", "mov", "ret"}))

	secondary := callgraph.New(callgraph.Metadata{ExecutableID: "b.exe"})
	secondary.AddFunction(chainFlowGraph(t, cache, "main", 0x1000, []string{"push", "mov", "ret"}))

	cfg, err := config.New()
	require.NoError(t, err)

	driver := pipeline.New(cfg)
	result, err := driver.Run(context.Background(), primary, secondary, cache)
	require.NoError(t, err)

	require.Len(t, result.FixedPoints, 1)
	fp := result.FixedPoints[0]
	require.InDelta(t, 1.0, fp.Similarity(), 1e-6)
	require.Zero(t, fp.FlagBits())
}

func TestDriverRunFlagsRenamedFunction(t *testing.T) {
	cache := instruction.NewCache()

	primary := callgraph.New(callgraph.Metadata{ExecutableID: "a.exe"})
	primary.AddFunction(chainFlowGraph(t, cache, "compute_checksum", 0x1000, []string{"push", "mov", "ret"}))

	secondary := callgraph.New(callgraph.Metadata{ExecutableID: "b.exe"})
	secondary.AddFunction(chainFlowGraph(t, cache, "compute_crc", 0x1000, []string{"push", "mov", "ret"}))

	cfg, err := config.New()
	require.NoError(t, err)

	driver := pipeline.New(cfg)
	result, err := driver.Run(context.Background(), primary, secondary, cache)
	require.NoError(t, err)
	require.Len(t, result.FixedPoints, 1)

	fp := result.FixedPoints[0]
	require.InDelta(t, 1.0, fp.Similarity(), 1e-6)
	require.True(t, fp.HasFlag(classify.Name), "renamed function should carry the Name change flag")
}

func TestDriverRunRespectsCancellation(t *testing.T) {
	cache := instruction.NewCache()
	primary := callgraph.New(callgraph.Metadata{})
	primary.AddFunction(chainFlowGraph(t, cache, "f", 0x1000, []string{"push", "ret"}))
	secondary := callgraph.New(callgraph.Metadata{})
	secondary.AddFunction(chainFlowGraph(t, cache, "f", 0x1000, []string{"push", "ret"}))

	cfg, err := config.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := pipeline.New(cfg)
	_, err = driver.Run(ctx, primary, secondary, cache)
	require.Error(t, err)
}
