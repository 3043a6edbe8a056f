// File: fixedpoint.go
// Role: FixedPoint — a confirmed pairing of one primary function with one
// secondary function (spec §3), modeled directly on the original engine's
// fixed_points.h.
package match

import (
	"sort"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
)

// Flags is a bitset of change-classification flags, set by package classify
// after a FixedPoint's basic-block matches and instruction alignment are
// complete. Defined here (rather than in classify) because it is part of
// FixedPoint's own immutable-after-scoring data model (spec §3).
type Flags uint8

// FixedPoint is a confirmed pairing of one primary function with one
// secondary function.
//
// Once committed by a Context, a FixedPoint's producing step and endpoints
// are immutable (spec §3); only its nested basic-block matches, score,
// confidence, flags, and comments-ported marker may be extended afterward.
type FixedPoint struct {
	primary   callgraph.FuncID
	secondary callgraph.FuncID
	// primaryEntry/secondaryEntry are captured at creation time so
	// FixedPoints can be ordered without re-resolving through a CallGraph.
	primaryEntry   uint64
	secondaryEntry uint64

	matchingStep StepName

	basicBlocks     []*BasicBlockFixedPoint
	byPrimaryVertex map[flowgraph.VertexID]int
	bySecondaryVertex map[flowgraph.VertexID]int

	similarity     float64
	confidence     float64
	flags          Flags
	commentsPorted bool
}

// newFixedPoint constructs a FixedPoint for the given primary/secondary
// function pair, tagged with the producing step. Unexported: FixedPoints
// are created only through Context.CommitFunction, which enforces the partial
// bijection invariant at the single point of construction.
func newFixedPoint(primary, secondary callgraph.FuncID, primaryEntry, secondaryEntry uint64, step StepName) *FixedPoint {
	return &FixedPoint{
		primary:           primary,
		secondary:         secondary,
		primaryEntry:      primaryEntry,
		secondaryEntry:    secondaryEntry,
		matchingStep:      step,
		byPrimaryVertex:   make(map[flowgraph.VertexID]int),
		bySecondaryVertex: make(map[flowgraph.VertexID]int),
	}
}

// Primary returns the matched primary function's FuncID.
func (fp *FixedPoint) Primary() callgraph.FuncID { return fp.primary }

// Secondary returns the matched secondary function's FuncID.
func (fp *FixedPoint) Secondary() callgraph.FuncID { return fp.secondary }

// PrimaryEntry returns the primary function's entry address.
func (fp *FixedPoint) PrimaryEntry() uint64 { return fp.primaryEntry }

// SecondaryEntry returns the secondary function's entry address.
func (fp *FixedPoint) SecondaryEntry() uint64 { return fp.secondaryEntry }

// MatchingStep returns the step that produced this FixedPoint.
func (fp *FixedPoint) MatchingStep() StepName { return fp.matchingStep }

// Add commits a basic-block pairing into this FixedPoint, enforcing that
// neither primaryVertex nor secondaryVertex is already matched within it
// (spec §3's nested bijection invariant). Returns the new
// BasicBlockFixedPoint and true, or (nil, false) if either vertex was
// already matched.
func (fp *FixedPoint) Add(primaryVertex, secondaryVertex flowgraph.VertexID, step StepName) (*BasicBlockFixedPoint, bool) {
	if _, ok := fp.byPrimaryVertex[primaryVertex]; ok {
		return nil, false
	}
	if _, ok := fp.bySecondaryVertex[secondaryVertex]; ok {
		return nil, false
	}

	bb := newBasicBlockFixedPoint(primaryVertex, secondaryVertex, step)
	idx := len(fp.basicBlocks)
	fp.basicBlocks = append(fp.basicBlocks, bb)
	fp.byPrimaryVertex[primaryVertex] = idx
	fp.bySecondaryVertex[secondaryVertex] = idx

	return bb, true
}

// BasicBlockFixedPoints returns the confirmed basic-block pairings, ordered
// by (primary vertex id, secondary vertex id) per spec §3.
func (fp *FixedPoint) BasicBlockFixedPoints() []*BasicBlockFixedPoint {
	out := make([]*BasicBlockFixedPoint, len(fp.basicBlocks))
	copy(out, fp.basicBlocks)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}

// BasicBlockByPrimary returns the BasicBlockFixedPoint matched to
// primaryVertex, if any.
func (fp *FixedPoint) BasicBlockByPrimary(primaryVertex flowgraph.VertexID) (*BasicBlockFixedPoint, bool) {
	idx, ok := fp.byPrimaryVertex[primaryVertex]
	if !ok {
		return nil, false
	}

	return fp.basicBlocks[idx], true
}

// BasicBlockBySecondary returns the BasicBlockFixedPoint matched to
// secondaryVertex, if any.
func (fp *FixedPoint) BasicBlockBySecondary(secondaryVertex flowgraph.VertexID) (*BasicBlockFixedPoint, bool) {
	idx, ok := fp.bySecondaryVertex[secondaryVertex]
	if !ok {
		return nil, false
	}

	return fp.basicBlocks[idx], true
}

// SetSimilarity sets the [0,1] similarity score (spec §4.4).
func (fp *FixedPoint) SetSimilarity(v float64) { fp.similarity = v }

// Similarity returns the similarity score.
func (fp *FixedPoint) Similarity() float64 { return fp.similarity }

// SetConfidence sets the [0,1] confidence score (spec §4.4).
func (fp *FixedPoint) SetConfidence(v float64) { fp.confidence = v }

// Confidence returns the confidence score.
func (fp *FixedPoint) Confidence() float64 { return fp.confidence }

// SetFlags replaces the change-flag bitset (spec §4.5).
func (fp *FixedPoint) SetFlags(f Flags) { fp.flags = f }

// FlagBits returns the change-flag bitset.
func (fp *FixedPoint) FlagBits() Flags { return fp.flags }

// HasFlag reports whether bit is set in the change-flag bitset.
func (fp *FixedPoint) HasFlag(bit Flags) bool { return fp.flags&bit != 0 }

// SetCommentsPorted records whether annotations have been transferred for
// this pairing (an external, UI-driven marker; the engine itself never sets
// this to true on its own).
func (fp *FixedPoint) SetCommentsPorted(v bool) { fp.commentsPorted = v }

// CommentsPorted reports the comments-ported marker.
func (fp *FixedPoint) CommentsPorted() bool { return fp.commentsPorted }

// Less orders two FixedPoints by (primary function entry address, secondary
// function entry address), per spec §3.
func (fp *FixedPoint) Less(other *FixedPoint) bool {
	if fp.primaryEntry != other.primaryEntry {
		return fp.primaryEntry < other.primaryEntry
	}

	return fp.secondaryEntry < other.secondaryEntry
}
