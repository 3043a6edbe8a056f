// File: report.go
// Role: A stdout ResultVisitor, the CLI's stand-in for a results-database
// writer (spec §6's "interface to the writer").
package main

import (
	"fmt"
	"io"

	"github.com/whicun/bindiff/classify"
	"github.com/whicun/bindiff/match"
)

// textReport writes one line per FixedPoint and one indented line per
// BasicBlockFixedPoint to Out.
type textReport struct {
	Out io.Writer
}

func (r textReport) VisitFixedPoint(fp *match.FixedPoint) error {
	_, err := fmt.Fprintf(r.Out, "function %d <-> %d  step=%q similarity=%.3f confidence=%.3f flags=%s\n",
		fp.Primary(), fp.Secondary(), fp.MatchingStep(), fp.Similarity(), fp.Confidence(), classify.String(fp.FlagBits()))

	return err
}

func (r textReport) VisitBasicBlockFixedPoint(_ *match.FixedPoint, bb *match.BasicBlockFixedPoint) error {
	_, err := fmt.Fprintf(r.Out, "  block %d <-> %d  step=%q instructions_matched=%d\n",
		bb.PrimaryVertex(), bb.SecondaryVertex(), bb.MatchingStep(), len(bb.InstructionMatches()))

	return err
}
