// Package steps implements every function-level and basic-block-level
// matching heuristic as a variant of a common capability (FunctionStep /
// BasicBlockStep), registered by name in a step registry — generalizing
// the teacher's builder registry pattern (builder/config.go) from
// constructing graphs to generating candidate correspondences.
//
// Every step is a pure candidate generator: it reads match.Context (and,
// for basic-block steps, the enclosing match.FixedPoint) and returns
// proposed pairs. It never commits anything itself; pipeline.Driver commits
// through match.Context.CommitFunction / CommitBasicBlock, which enforce
// the conflict-free rule.
package steps
