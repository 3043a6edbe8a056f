// File: candidate.go
// Role: Candidate pair shapes emitted by matching steps. Steps are pure
// readers of a Context (spec §4.2); they return candidates, and only the
// driver commits them through Context.CommitFunction / CommitBasicBlock.
package match

import (
	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
)

// FunctionCandidate is one proposed primary/secondary function pairing
// produced by a function-level step.
type FunctionCandidate struct {
	Primary   callgraph.FuncID
	Secondary callgraph.FuncID
}

// BasicBlockCandidate is one proposed primary/secondary basic-block pairing
// produced by a basic-block-level step, scoped to one FixedPoint's two flow
// graphs.
type BasicBlockCandidate struct {
	Primary   flowgraph.VertexID
	Secondary flowgraph.VertexID
}
