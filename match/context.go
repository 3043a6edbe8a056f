// File: context.go
// Role: Matching Context — shared state of all confirmed matches; mediates
// step-to-step data flow (spec §3). During the function-level pipeline the
// Context is single-writer (the driver); steps only read it (spec §5), so
// the locking here exists to make concurrent *reads* during the
// per-FixedPoint fan-out (phase 2 onward) safe without contention, not to
// serialize steps against each other.
package match

import (
	"sort"
	"sync"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/instruction"
)

// Context holds references to both call graphs and the instruction cache,
// the confirmed FixedPoints, lookup indices by primary/secondary FuncID,
// and the working "unmatched on each side" sets.
type Context struct {
	mu sync.RWMutex

	primary   *callgraph.CallGraph
	secondary *callgraph.CallGraph
	cache     *instruction.Cache

	fixedPoints []*FixedPoint
	byPrimary   map[callgraph.FuncID]*FixedPoint
	bySecondary map[callgraph.FuncID]*FixedPoint

	unmatchedPrimary   map[callgraph.FuncID]bool
	unmatchedSecondary map[callgraph.FuncID]bool
}

// NewContext creates a fresh Context over primary and secondary, with every
// function on both sides initially unmatched.
func NewContext(primary, secondary *callgraph.CallGraph, cache *instruction.Cache) *Context {
	ctx := &Context{
		primary:            primary,
		secondary:          secondary,
		cache:              cache,
		byPrimary:          make(map[callgraph.FuncID]*FixedPoint),
		bySecondary:        make(map[callgraph.FuncID]*FixedPoint),
		unmatchedPrimary:   make(map[callgraph.FuncID]bool, primary.FuncCount()),
		unmatchedSecondary: make(map[callgraph.FuncID]bool, secondary.FuncCount()),
	}
	for id := callgraph.FuncID(0); int(id) < primary.FuncCount(); id++ {
		ctx.unmatchedPrimary[id] = true
	}
	for id := callgraph.FuncID(0); int(id) < secondary.FuncCount(); id++ {
		ctx.unmatchedSecondary[id] = true
	}

	return ctx
}

// Primary returns the primary call graph.
func (c *Context) Primary() *callgraph.CallGraph { return c.primary }

// Secondary returns the secondary call graph.
func (c *Context) Secondary() *callgraph.CallGraph { return c.secondary }

// Cache returns the shared instruction cache.
func (c *Context) Cache() *instruction.Cache { return c.cache }

// UnmatchedPrimary returns the currently-unmatched primary FuncIDs, sorted
// by entry address ascending (Ordering Guarantees, spec §5: iteration order
// must not depend on container/map ordering).
func (c *Context) UnmatchedPrimary() []callgraph.FuncID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sortedUnmatched(c.unmatchedPrimary, c.primary)
}

// UnmatchedSecondary returns the currently-unmatched secondary FuncIDs,
// sorted by entry address ascending.
func (c *Context) UnmatchedSecondary() []callgraph.FuncID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sortedUnmatched(c.unmatchedSecondary, c.secondary)
}

func (c *Context) sortedUnmatched(set map[callgraph.FuncID]bool, cg *callgraph.CallGraph) []callgraph.FuncID {
	ids := make([]callgraph.FuncID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return entryAddressOf(cg, ids[i]) < entryAddressOf(cg, ids[j])
	})

	return ids
}

func entryAddressOf(cg *callgraph.CallGraph, id callgraph.FuncID) uint64 {
	fg, err := cg.Function(id)
	if err != nil {
		return 0
	}
	addr, err := fg.EntryAddress()
	if err != nil {
		return 0
	}

	return addr
}

// IsPrimaryMatched reports whether id already participates in a FixedPoint.
func (c *Context) IsPrimaryMatched(id callgraph.FuncID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.unmatchedPrimary[id]
}

// IsSecondaryMatched reports whether id already participates in a
// FixedPoint.
func (c *Context) IsSecondaryMatched(id callgraph.FuncID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.unmatchedSecondary[id]
}

// FixedPointByPrimary returns the FixedPoint matching primary function id,
// if any.
func (c *Context) FixedPointByPrimary(id callgraph.FuncID) (*FixedPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fp, ok := c.byPrimary[id]

	return fp, ok
}

// FixedPointBySecondary returns the FixedPoint matching secondary function
// id, if any.
func (c *Context) FixedPointBySecondary(id callgraph.FuncID) (*FixedPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fp, ok := c.bySecondary[id]

	return fp, ok
}

// FixedPoints returns all confirmed FixedPoints, ordered by (primary entry
// address, secondary entry address) per spec §3.
func (c *Context) FixedPoints() []*FixedPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*FixedPoint, len(c.fixedPoints))
	copy(out, c.fixedPoints)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}

// CommitFunction attempts to commit candidate as a new FixedPoint tagged
// with step, applying the conflict-free rule (spec §4.2 rule 1): if either
// endpoint is already matched, the candidate is dropped and ok is false.
// The first step to successfully commit a pair wins (rule 3); later steps
// proposing the same pair will simply find both endpoints already matched.
//
// Complexity: O(1) amortized plus the cost of resolving entry addresses.
func (c *Context) CommitFunction(candidate FunctionCandidate, step StepName) (*FixedPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.unmatchedPrimary[candidate.Primary] || !c.unmatchedSecondary[candidate.Secondary] {
		return nil, false
	}

	primaryFG, err := c.primary.Function(candidate.Primary)
	if err != nil {
		return nil, false
	}
	secondaryFG, err := c.secondary.Function(candidate.Secondary)
	if err != nil {
		return nil, false
	}
	primaryEntry, err := primaryFG.EntryAddress()
	if err != nil {
		return nil, false
	}
	secondaryEntry, err := secondaryFG.EntryAddress()
	if err != nil {
		return nil, false
	}

	fp := newFixedPoint(candidate.Primary, candidate.Secondary, primaryEntry, secondaryEntry, step)
	c.fixedPoints = append(c.fixedPoints, fp)
	c.byPrimary[candidate.Primary] = fp
	c.bySecondary[candidate.Secondary] = fp
	delete(c.unmatchedPrimary, candidate.Primary)
	delete(c.unmatchedSecondary, candidate.Secondary)

	return fp, true
}

// CommitBasicBlock attempts to commit candidate as a new basic-block pairing
// nested within fp, tagged with step. It delegates to FixedPoint.Add, which
// enforces the nested bijection invariant (spec §3): neither vertex may
// already be matched within fp.
//
// fp must belong to this Context; CommitBasicBlock does not itself verify
// that (the per-FixedPoint basic-block pipeline runs with exclusive access
// to its own fp, so no additional locking is needed here).
func (c *Context) CommitBasicBlock(fp *FixedPoint, candidate BasicBlockCandidate, step StepName) (*BasicBlockFixedPoint, bool) {
	return fp.Add(candidate.Primary, candidate.Secondary, step)
}
