// Package match holds the shared matching state threaded through the
// pipeline (spec §3): FixedPoint and BasicBlockFixedPoint, the confirmed
// correspondences between two binaries' functions and basic blocks; Context,
// which mediates step-to-step data flow and enforces the partial-bijection
// invariant at commit time; and StepName, the interned, pointer-comparable
// step-name handles attached to every confirmed pairing.
//
// See context.go for Context, fixedpoint.go/basicblock.go for the confirmed
// pairings, candidate.go for the uncommitted shapes steps return, and
// stepname.go for step interning.
package match
