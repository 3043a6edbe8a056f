// Package flowgraph models one function as a directed control-flow graph of
// basic blocks, and derives the structural fingerprints (prime product,
// MD-index) that the matching engine's steps and scoring depend on.
//
// FlowGraph stores its basic blocks in an arena (a slice) and refers to them
// by VertexID, an integer index — never by pointer-to-owner — so FlowGraph
// and its blocks can be freely shared across the primary/secondary call
// graphs without cyclic ownership (Design Notes §9).
package flowgraph

import (
	"errors"
	"strings"

	"github.com/whicun/bindiff/instruction"
)

// VertexID indexes a basic block within a FlowGraph's arena.
type VertexID int

// invalidVertex is returned by lookups that find nothing; it is never a
// valid arena index.
const invalidVertex VertexID = -1

// EdgeLabel classifies one intra-procedural control-flow edge.
type EdgeLabel int

const (
	// Unconditional is an unconditional jump or fallthrough edge.
	Unconditional EdgeLabel = iota
	// TrueBranch is the taken side of a conditional branch.
	TrueBranch
	// FalseBranch is the not-taken side of a conditional branch.
	FalseBranch
	// Switch is one arm of a multi-way (jump-table) branch.
	Switch
	// Call marks an intra-procedural call-site edge (rare; most calls are
	// represented at the CallGraph level, not here).
	Call
)

// String returns a human-readable label name, useful for diagnostics.
func (l EdgeLabel) String() string {
	switch l {
	case Unconditional:
		return "unconditional"
	case TrueBranch:
		return "true-branch"
	case FalseBranch:
		return "false-branch"
	case Switch:
		return "switch"
	case Call:
		return "call"
	default:
		return "unknown"
	}
}

// Sentinel errors for the flowgraph package.
var (
	// ErrEmptyInstructions indicates a BasicBlock was constructed with no
	// instructions; basic blocks are non-empty by data-model invariant.
	ErrEmptyInstructions = errors.New("flowgraph: basic block has no instructions")

	// ErrNoEntry indicates SetEntry was never called (or was given an
	// out-of-range vertex) before the flow graph was used.
	ErrNoEntry = errors.New("flowgraph: no entry vertex set")

	// ErrVertexNotFound indicates an operation referenced a VertexID outside
	// the arena.
	ErrVertexNotFound = errors.New("flowgraph: vertex not found")
)

// edge is one control-flow arc, stored by arena index on both ends.
type edge struct {
	from, to VertexID
	label    EdgeLabel
}

// FlowGraph is the intra-procedural control-flow graph of one function.
//
// Not safe for concurrent mutation; once built by the loader, a FlowGraph is
// treated as immutable input to the matching engine (§5: steps are pure
// readers).
type FlowGraph struct {
	name      string
	library   bool
	stub      bool
	hash      []byte   // SHA-256 of normalized instruction bytes, if available
	stringRefs []uint64 // sorted multiset of referenced string-literal addresses

	blocks []*BasicBlock
	edges  []edge
	out    map[VertexID][]VertexID
	in     map[VertexID][]VertexID

	entry VertexID

	mdIndex         *float64 // cached on first MDIndex() call
	extendedMDIndex *float64 // cached on first ExtendedMDIndex() call
	loopCount       *int     // cached on first LoopCount() call
}

// New creates an empty FlowGraph for a function named name.
func New(name string) *FlowGraph {
	return &FlowGraph{
		name:  name,
		out:   make(map[VertexID][]VertexID),
		in:    make(map[VertexID][]VertexID),
		entry: invalidVertex,
	}
}

// Name returns the function's symbol name (possibly demangled, possibly
// auto-generated — callers distinguish via IsAutoName).
func (f *FlowGraph) Name() string { return f.name }

// autoNamePrefixes lists the conventional prefixes a loader uses when it
// synthesizes a name instead of reading one from symbol information.
var autoNamePrefixes = []string{"sub_", "fcn_", "loc_"}

// IsAutoName reports whether Name looks like a loader-synthesized name
// (e.g. "sub_401000") rather than a real symbol, following the disassembler
// convention the loaders in this engine use. Used by the name-equality
// scoring feature (spec §4.4) to tell a confirmed symbol match from two
// addresses that merely happen to share a synthesized label shape.
func (f *FlowGraph) IsAutoName() bool {
	for _, prefix := range autoNamePrefixes {
		if strings.HasPrefix(f.name, prefix) {
			return true
		}
	}

	return false
}

// SetLibrary marks this function as belonging to a statically linked
// library (as opposed to user code).
func (f *FlowGraph) SetLibrary(v bool) { f.library = v }

// IsLibrary reports the library flag.
func (f *FlowGraph) IsLibrary() bool { return f.library }

// SetStub marks this function as a thunk/stub (single-block trampoline).
func (f *FlowGraph) SetStub(v bool) { f.stub = v }

// IsStub reports the stub flag.
func (f *FlowGraph) IsStub() bool { return f.stub }

// SetHash sets the SHA-256 of the function's normalized instruction bytes,
// used only by the equality-by-hash function-matching step.
func (f *FlowGraph) SetHash(h []byte) { f.hash = h }

// Hash returns the function hash, or nil if the loader did not supply one.
func (f *FlowGraph) Hash() []byte { return f.hash }

// SetStringRefs sets the sorted multiset of string-literal addresses this
// function references, used by the string-reference matching step.
func (f *FlowGraph) SetStringRefs(refs []uint64) { f.stringRefs = refs }

// StringRefs returns the function's referenced string-literal addresses.
func (f *FlowGraph) StringRefs() []uint64 { return f.stringRefs }

// AddBlock appends block to the arena and returns its VertexID.
//
// Complexity: O(1) amortized.
func (f *FlowGraph) AddBlock(block *BasicBlock) VertexID {
	id := VertexID(len(f.blocks))
	f.blocks = append(f.blocks, block)

	return id
}

// SetEntry designates v as the flow graph's single entry vertex.
func (f *FlowGraph) SetEntry(v VertexID) error {
	if int(v) < 0 || int(v) >= len(f.blocks) {
		return ErrVertexNotFound
	}
	f.entry = v

	return nil
}

// Entry returns the entry VertexID, or an error if none was set.
func (f *FlowGraph) Entry() (VertexID, error) {
	if f.entry == invalidVertex {
		return invalidVertex, ErrNoEntry
	}

	return f.entry, nil
}

// EntryAddress returns the address of the entry block's first instruction.
func (f *FlowGraph) EntryAddress() (uint64, error) {
	v, err := f.Entry()
	if err != nil {
		return 0, err
	}

	return f.blocks[v].EntryAddress(), nil
}

// AddEdge records a control-flow edge from `from` to `to` labeled label.
//
// Complexity: O(1) amortized.
func (f *FlowGraph) AddEdge(from, to VertexID, label EdgeLabel) error {
	if int(from) < 0 || int(from) >= len(f.blocks) || int(to) < 0 || int(to) >= len(f.blocks) {
		return ErrVertexNotFound
	}
	f.edges = append(f.edges, edge{from: from, to: to, label: label})
	f.out[from] = append(f.out[from], to)
	f.in[to] = append(f.in[to], from)

	return nil
}

// Block returns the basic block at v.
func (f *FlowGraph) Block(v VertexID) (*BasicBlock, error) {
	if int(v) < 0 || int(v) >= len(f.blocks) {
		return nil, ErrVertexNotFound
	}

	return f.blocks[v], nil
}

// Blocks returns the arena of basic blocks, in insertion order. The caller
// must not mutate the returned slice.
func (f *FlowGraph) Blocks() []*BasicBlock { return f.blocks }

// VertexCount returns the number of basic blocks.
func (f *FlowGraph) VertexCount() int { return len(f.blocks) }

// EdgeCount returns the number of control-flow edges.
func (f *FlowGraph) EdgeCount() int { return len(f.edges) }

// InstructionCount returns the total instruction count across all blocks.
func (f *FlowGraph) InstructionCount() int {
	total := 0
	for _, b := range f.blocks {
		total += len(b.Instructions())
	}

	return total
}

// FunctionPrimeProduct is the commutative fingerprint of the whole
// function: the wrapping product of every block's PrimeProductCached,
// order-independent for the same reason PrimeProduct is (blocks contribute
// by value, not by arena position).
func (f *FlowGraph) FunctionPrimeProduct() uint64 {
	var product uint64 = 1
	for _, b := range f.blocks {
		product *= b.PrimeProductCached()
	}

	return product
}

// Successors returns the out-neighbors of v, in edge-insertion order.
func (f *FlowGraph) Successors(v VertexID) []VertexID { return f.out[v] }

// Predecessors returns the in-neighbors of v, in edge-insertion order.
func (f *FlowGraph) Predecessors(v VertexID) []VertexID { return f.in[v] }

// OutDegree returns the number of outgoing edges of v.
func (f *FlowGraph) OutDegree(v VertexID) int { return len(f.out[v]) }

// InDegree returns the number of incoming edges of v.
func (f *FlowGraph) InDegree(v VertexID) int { return len(f.in[v]) }

// EdgeLabels returns the label of every edge from `from` to `to` (there may
// be more than one if the edge set has parallel edges, e.g. a switch with
// two arms targeting the same block).
func (f *FlowGraph) EdgeLabels(from, to VertexID) []EdgeLabel {
	var labels []EdgeLabel
	for _, e := range f.edges {
		if e.from == from && e.to == to {
			labels = append(labels, e.label)
		}
	}

	return labels
}

// OutgoingEdgeLabels returns the label of every edge leaving v, in
// edge-insertion order, used by the change classifier to detect
// non-isomorphic branch shapes between two matched basic blocks (spec
// §4.5's BRANCHES flag).
func (f *FlowGraph) OutgoingEdgeLabels(v VertexID) []EdgeLabel {
	var labels []EdgeLabel
	for _, e := range f.edges {
		if e.from == v {
			labels = append(labels, e.label)
		}
	}

	return labels
}

// UnreachableBlocks returns the VertexIDs not reachable from the entry
// vertex via a forward BFS, per the data-model invariant that every
// non-entry vertex should be reachable unless explicitly marked otherwise.
func (f *FlowGraph) UnreachableBlocks() ([]VertexID, error) {
	entry, err := f.Entry()
	if err != nil {
		return nil, err
	}

	reached := f.reachableFrom(entry)
	var unreachable []VertexID
	for v := VertexID(0); int(v) < len(f.blocks); v++ {
		if !reached[v] {
			unreachable = append(unreachable, v)
		}
	}

	return unreachable, nil
}

// reachableFrom performs a BFS from start and returns the set of reached
// vertices (including start itself).
func (f *FlowGraph) reachableFrom(start VertexID) map[VertexID]bool {
	reached := map[VertexID]bool{start: true}
	queue := []VertexID{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, nbr := range f.out[v] {
			if !reached[nbr] {
				reached[nbr] = true
				queue = append(queue, nbr)
			}
		}
	}

	return reached
}

// BasicBlock is a vertex in a FlowGraph: a maximal straight-line sequence of
// instructions, its entry address, and its cached prime product.
type BasicBlock struct {
	instructions instruction.Instructions
	primeProduct uint64
}

// NewBasicBlock constructs a BasicBlock from a non-empty instruction
// sequence, computing and caching its prime product once.
func NewBasicBlock(instructions instruction.Instructions) (*BasicBlock, error) {
	if len(instructions) == 0 {
		return nil, ErrEmptyInstructions
	}

	return &BasicBlock{
		instructions: instructions,
		primeProduct: PrimeProduct(instructions),
	}, nil
}

// Instructions returns the block's ordered instruction sequence. The caller
// must not mutate the returned slice.
func (b *BasicBlock) Instructions() instruction.Instructions { return b.instructions }

// EntryAddress returns the address of the block's first instruction.
func (b *BasicBlock) EntryAddress() uint64 { return b.instructions[0].Address() }

// PrimeProductCached returns the block's precomputed prime product.
func (b *BasicBlock) PrimeProductCached() uint64 { return b.primeProduct }

// PrimeProduct computes the commutative instruction-set fingerprint of seq:
// the product of each instruction's prime, taken as unsigned 64-bit
// multiplication with silent wraparound.
//
// Because multiplication is commutative, any permutation of the same
// instruction multiset yields an equal product (Testable Property 6).
//
// Complexity: O(len(seq)).
func PrimeProduct(seq instruction.Instructions) uint64 {
	var product uint64 = 1
	for _, ins := range seq {
		product *= ins.Prime()
	}

	return product
}
