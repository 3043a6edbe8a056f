// File: basicblock.go
// Role: BasicBlockFixedPoint and InstructionMatch, the innermost level of a
// confirmed correspondence (spec §3).
package match

import (
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
)

// InstructionMatch is one aligned pair of instructions, produced by the LCS
// aligner (lcs.Align) over a matched basic-block pair's instruction
// sequences.
type InstructionMatch struct {
	Primary   instruction.Instruction
	Secondary instruction.Instruction
}

// BasicBlockFixedPoint is a confirmed pairing of one primary basic block
// with one secondary basic block within an enclosing FixedPoint.
type BasicBlockFixedPoint struct {
	primaryVertex   flowgraph.VertexID
	secondaryVertex flowgraph.VertexID
	matchingStep    StepName

	instructionMatches []InstructionMatch
}

// newBasicBlockFixedPoint constructs a BasicBlockFixedPoint. Unexported:
// callers create these only through FixedPoint.Add, so that an enclosing
// FixedPoint's invariants (no basic block matched twice) are always
// enforced at the single point of construction.
func newBasicBlockFixedPoint(primaryVertex, secondaryVertex flowgraph.VertexID, step StepName) *BasicBlockFixedPoint {
	return &BasicBlockFixedPoint{
		primaryVertex:   primaryVertex,
		secondaryVertex: secondaryVertex,
		matchingStep:    step,
	}
}

// PrimaryVertex returns the matched primary basic block's VertexID.
func (b *BasicBlockFixedPoint) PrimaryVertex() flowgraph.VertexID { return b.primaryVertex }

// SecondaryVertex returns the matched secondary basic block's VertexID.
func (b *BasicBlockFixedPoint) SecondaryVertex() flowgraph.VertexID { return b.secondaryVertex }

// MatchingStep returns the step that produced this pairing.
func (b *BasicBlockFixedPoint) MatchingStep() StepName { return b.matchingStep }

// SetInstructionMatches replaces this pairing's instruction alignment,
// normally called exactly once by the driver after running the LCS aligner
// (step 3 of the driver algorithm in spec §4.2).
func (b *BasicBlockFixedPoint) SetInstructionMatches(matches []InstructionMatch) {
	b.instructionMatches = matches
}

// InstructionMatches returns the aligned instruction pairs. The caller must
// not mutate the returned slice.
func (b *BasicBlockFixedPoint) InstructionMatches() []InstructionMatch { return b.instructionMatches }

// Less orders two BasicBlockFixedPoints by (primary vertex id, secondary
// vertex id), per spec §3.
func (b *BasicBlockFixedPoint) Less(other *BasicBlockFixedPoint) bool {
	if b.primaryVertex != other.primaryVertex {
		return b.primaryVertex < other.primaryVertex
	}

	return b.secondaryVertex < other.secondaryVertex
}
