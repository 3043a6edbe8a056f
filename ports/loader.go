// File: loader.go
// Role: The module's only loader/writer-facing surface (spec §6): an
// executable factory the caller implements to produce a CallGraph, and a
// visitor-style walk over the produced results.
package ports

import (
	"context"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/match"
)

// ExecutableFactory loads one executable's disassembly into a CallGraph and
// the Cache its instructions were interned against. Implementations live
// outside this module (a disassembler adapter, a JSON fixture reader, a
// database client); nothing in this module reads executable files directly.
type ExecutableFactory interface {
	Load(ctx context.Context, path string) (*callgraph.CallGraph, *instruction.Cache, error)
}

// ResultVisitor receives the confirmed matches of a comparison run, in
// order, via Walk. Implementations live outside this module (a results-DB
// writer, a UI adapter, a report renderer).
type ResultVisitor interface {
	VisitFixedPoint(fp *match.FixedPoint) error
	VisitBasicBlockFixedPoint(parent *match.FixedPoint, bb *match.BasicBlockFixedPoint) error
}

// Walk visits every FixedPoint in results, and within each, every nested
// BasicBlockFixedPoint, stopping at the first error either visit method
// returns.
func Walk(results []*match.FixedPoint, v ResultVisitor) error {
	for _, fp := range results {
		if err := v.VisitFixedPoint(fp); err != nil {
			return err
		}
		for _, bb := range fp.BasicBlockFixedPoints() {
			if err := v.VisitBasicBlockFixedPoint(fp, bb); err != nil {
				return err
			}
		}
	}

	return nil
}
