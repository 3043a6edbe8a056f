// Package callgraph models the directed graph of functions whose vertices
// are flowgraph.FlowGraphs and whose edges are call sites (with
// multiplicity), along with the executable-level metadata spec §3 requires.
//
// Like flowgraph.FlowGraph, CallGraph is an arena indexed by FuncID — never
// a web of pointers back to the owning CallGraph — so a FlowGraph can be
// shared read-only between the primary and secondary sides of a comparison
// without caring which CallGraph(s) reference it.
package callgraph

import (
	"errors"

	"github.com/whicun/bindiff/flowgraph"
)

// FuncID indexes a function within a CallGraph's arena.
type FuncID int

// ErrFuncNotFound indicates an operation referenced a FuncID outside the
// arena.
var ErrFuncNotFound = errors.New("callgraph: function not found")

// Metadata carries executable-level identification for one side of a
// comparison.
type Metadata struct {
	// ExecutableID is the loader-assigned identifier for this binary
	// (e.g. a path or a content hash).
	ExecutableID string
	// Architecture names the target ISA, e.g. "x86-64", "arm64".
	Architecture string
	// LittleEndian reports the executable's byte order.
	LittleEndian bool
	// Hash is an executable-level content hash (distinct from any single
	// function's hash).
	Hash []byte
}

// callEdge is one call site, from caller to callee, with multiplicity
// (number of distinct call instructions at that site pair).
type callEdge struct {
	caller, callee FuncID
	count          int
}

// CallGraph is the directed graph of functions for one side of a
// comparison.
type CallGraph struct {
	meta      Metadata
	functions []*flowgraph.FlowGraph
	edges     []callEdge
	callees   map[FuncID][]FuncID
	callers   map[FuncID][]FuncID
}

// New creates an empty CallGraph carrying the given executable metadata.
func New(meta Metadata) *CallGraph {
	return &CallGraph{
		meta:    meta,
		callees: make(map[FuncID][]FuncID),
		callers: make(map[FuncID][]FuncID),
	}
}

// Metadata returns the executable-level metadata.
func (c *CallGraph) Metadata() Metadata { return c.meta }

// AddFunction appends fg to the arena and returns its FuncID.
//
// Complexity: O(1) amortized.
func (c *CallGraph) AddFunction(fg *flowgraph.FlowGraph) FuncID {
	id := FuncID(len(c.functions))
	c.functions = append(c.functions, fg)

	return id
}

// AddCallEdge records count calls from caller to callee. If the pair
// already has an edge, the counts accumulate (matching "edges are call
// sites (with multiplicity)" in spec §3).
//
// Complexity: O(callees at caller) to find an existing edge to merge into.
func (c *CallGraph) AddCallEdge(caller, callee FuncID, count int) error {
	if int(caller) < 0 || int(caller) >= len(c.functions) {
		return ErrFuncNotFound
	}
	if int(callee) < 0 || int(callee) >= len(c.functions) {
		return ErrFuncNotFound
	}

	for i := range c.edges {
		if c.edges[i].caller == caller && c.edges[i].callee == callee {
			c.edges[i].count += count
			return nil
		}
	}
	c.edges = append(c.edges, callEdge{caller: caller, callee: callee, count: count})
	c.callees[caller] = append(c.callees[caller], callee)
	c.callers[callee] = append(c.callers[callee], caller)

	return nil
}

// Function returns the FlowGraph at id.
func (c *CallGraph) Function(id FuncID) (*flowgraph.FlowGraph, error) {
	if int(id) < 0 || int(id) >= len(c.functions) {
		return nil, ErrFuncNotFound
	}

	return c.functions[id], nil
}

// Functions returns the arena of functions, in insertion order. The caller
// must not mutate the returned slice.
func (c *CallGraph) Functions() []*flowgraph.FlowGraph { return c.functions }

// FuncCount returns the number of functions in the arena.
func (c *CallGraph) FuncCount() int { return len(c.functions) }

// Callees returns the distinct functions called directly by caller.
func (c *CallGraph) Callees(caller FuncID) []FuncID { return dedupe(c.callees[caller]) }

// Callers returns the distinct functions that call callee directly.
func (c *CallGraph) Callers(callee FuncID) []FuncID { return dedupe(c.callers[callee]) }

// CallCount returns the call-site multiplicity between caller and callee (0
// if there is no edge).
func (c *CallGraph) CallCount(caller, callee FuncID) int {
	for _, e := range c.edges {
		if e.caller == caller && e.callee == callee {
			return e.count
		}
	}

	return 0
}

// dedupe returns ids with duplicates removed, preserving first-seen order.
func dedupe(ids []FuncID) []FuncID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[FuncID]bool, len(ids))
	out := make([]FuncID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}
