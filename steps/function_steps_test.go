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

func leafGraph(t *testing.T, cache *instruction.Cache, name string, entry uint64, mnemonic string) *flowgraph.FlowGraph {
	t.Helper()
	fg := flowgraph.New(name)
	ins, err := instruction.New(cache, entry, mnemonic, "")
	require.NoError(t, err)
	block, err := flowgraph.NewBasicBlock(instruction.Instructions{ins})
	require.NoError(t, err)
	v := fg.AddBlock(block)
	require.NoError(t, fg.SetEntry(v))

	return fg
}

func TestHashEqualityStepMatchesIdenticalFunctions(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})
	primaryCG.AddFunction(leafGraph(t, cache, "f1", 0x1000, "ret"))
	secondaryCG.AddFunction(leafGraph(t, cache, "f2", 0x2000, "ret"))

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepHashEquality.String(), 1.0, steps.StepOptions{})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, callgraph.FuncID(0), candidates[0].Primary)
	require.Equal(t, callgraph.FuncID(0), candidates[0].Secondary)
}

func TestHashEqualityStepSkipsDistinctFunctions(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})
	primaryCG.AddFunction(leafGraph(t, cache, "f1", 0x1000, "ret"))
	secondaryCG.AddFunction(leafGraph(t, cache, "f2", 0x2000, "nop"))

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepHashEquality.String(), 1.0, steps.StepOptions{})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestAddressStepMatchesIdenticalEntryAddress(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})
	primaryCG.AddFunction(leafGraph(t, cache, "f1", 0x1000, "ret"))
	secondaryCG.AddFunction(leafGraph(t, cache, "f2", 0x1000, "nop"))

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepAddress.String(), 0.5, steps.StepOptions{})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

func TestSymbolNameStepIgnoresAutoGeneratedNames(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})
	primaryCG.AddFunction(leafGraph(t, cache, "sub_401000", 0x1000, "ret"))
	secondaryCG.AddFunction(leafGraph(t, cache, "sub_401000", 0x2000, "nop"))

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepSymbolName.String(), 0.9, steps.StepOptions{})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestStringReferencesStepMatchesAboveThreshold(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})

	primary := leafGraph(t, cache, "f1", 0x1000, "ret")
	primary.SetStringRefs([]uint64{10, 20, 30, 40, 50})
	primaryCG.AddFunction(primary)

	secondary := leafGraph(t, cache, "f2", 0x2000, "nop")
	secondary.SetStringRefs([]uint64{10, 20, 30, 40, 99}) // 4/5 intersect
	secondaryCG.AddFunction(secondary)

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepStringReferences.String(), 0.3, steps.StepOptions{StringRefThreshold: 0.8})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, callgraph.FuncID(0), candidates[0].Primary)
	require.Equal(t, callgraph.FuncID(0), candidates[0].Secondary)
}

func TestStringReferencesStepSkipsBelowThreshold(t *testing.T) {
	cache := instruction.NewCache()
	primaryCG := callgraph.New(callgraph.Metadata{})
	secondaryCG := callgraph.New(callgraph.Metadata{})

	primary := leafGraph(t, cache, "f1", 0x1000, "ret")
	primary.SetStringRefs([]uint64{10, 20, 30, 40, 50})
	primaryCG.AddFunction(primary)

	secondary := leafGraph(t, cache, "f2", 0x2000, "nop")
	secondary.SetStringRefs([]uint64{10, 20, 99, 98, 97}) // 2/5 intersect
	secondaryCG.AddFunction(secondary)

	ctx := match.NewContext(primaryCG, secondaryCG, cache)
	step, ok := steps.FunctionRegistry.Build(match.StepStringReferences.String(), 0.3, steps.StepOptions{StringRefThreshold: 0.8})
	require.True(t, ok)

	candidates, err := step.Candidates(ctx)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestDefaultFunctionOrderMatchesCanonicalPipeline(t *testing.T) {
	order := steps.DefaultFunctionOrder()
	require.Equal(t, match.StepHashEquality.String(), order[0])
	require.Equal(t, match.StepLoopHead.String(), order[len(order)-1])
	require.Len(t, order, 11)
}

func TestDefaultBasicBlockOrderMatchesCanonicalPipeline(t *testing.T) {
	order := steps.DefaultBasicBlockOrder()
	require.Equal(t, match.StepEntryBlock.String(), order[0])
	require.Equal(t, match.StepSelfLoop.String(), order[len(order)-1])
	require.Len(t, order, 6)
}
