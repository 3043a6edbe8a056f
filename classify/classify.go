// File: classify.go
// Role: Classify sets every applicable bit in spec §4.5's change-flag
// bitset for one confirmed FixedPoint.
package classify

import (
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/match"
)

// Classify inspects fp against its two flow graphs and returns the
// change-flag bitset described in spec §4.5. It does not mutate fp; the
// caller (pipeline.Driver) is responsible for calling fp.SetFlags with the
// result.
func Classify(fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph) (Flags, error) {
	var flags Flags

	bbs := fp.BasicBlockFixedPoints()
	if len(bbs) < primary.VertexCount() || len(bbs) < secondary.VertexCount() {
		flags |= Structural
	}

	for _, bb := range bbs {
		pBlock, err := primary.Block(bb.PrimaryVertex())
		if err != nil {
			return 0, err
		}
		sBlock, err := secondary.Block(bb.SecondaryVertex())
		if err != nil {
			return 0, err
		}

		matched := len(bb.InstructionMatches())
		total := maxInt(len(pBlock.Instructions()), len(sBlock.Instructions()))
		if matched < total {
			flags |= Instructions
		}

		for _, im := range bb.InstructionMatches() {
			if im.Primary.Prime() == im.Secondary.Prime() && im.Primary.Operands() != im.Secondary.Operands() {
				flags |= Operands
			}
		}

		if !labelsIsomorphic(
			primary.OutgoingEdgeLabels(bb.PrimaryVertex()),
			secondary.OutgoingEdgeLabels(bb.SecondaryVertex()),
		) {
			flags |= Branches
		}
	}

	entryMatched, err := entryPointsMatched(fp, primary, secondary)
	if err != nil {
		return 0, err
	}
	if !entryMatched {
		flags |= Entrypoint
	}

	pLoops, err := primary.LoopCount()
	if err != nil {
		return 0, err
	}
	sLoops, err := secondary.LoopCount()
	if err != nil {
		return 0, err
	}
	if pLoops != sLoops {
		flags |= Loops
	}

	if primary.Name() != secondary.Name() && !primary.IsAutoName() && !secondary.IsAutoName() {
		flags |= Name
	}

	return flags, nil
}

func entryPointsMatched(fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph) (bool, error) {
	primaryEntry, err := primary.Entry()
	if err != nil {
		return false, err
	}
	secondaryEntry, err := secondary.Entry()
	if err != nil {
		return false, err
	}
	bb, ok := fp.BasicBlockByPrimary(primaryEntry)

	return ok && bb.SecondaryVertex() == secondaryEntry, nil
}

// labelsIsomorphic compares two outgoing-edge-label multisets by sorted
// equality, treating a differently-shaped branch (e.g. a conditional
// replaced by an unconditional jump) as non-isomorphic.
func labelsIsomorphic(a, b []flowgraph.EdgeLabel) bool {
	if len(a) != len(b) {
		return false
	}

	countA := make(map[flowgraph.EdgeLabel]int, len(a))
	for _, l := range a {
		countA[l]++
	}
	countB := make(map[flowgraph.EdgeLabel]int, len(b))
	for _, l := range b {
		countB[l]++
	}
	if len(countA) != len(countB) {
		return false
	}
	for label, n := range countA {
		if countB[label] != n {
			return false
		}
	}

	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
