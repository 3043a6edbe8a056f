// File: wellknown.go
// Role: Canonical interned names for every built-in matching step (spec
// §4.2), defined once here so package score's default confidence table and
// package steps's concrete step implementations always tag FixedPoints with
// the exact same StepName values.
package match

// Function-level step names, in the canonical pipeline order from spec
// §4.2: exact-equality steps first, then structural, then name-based, then
// propagation-based, then fuzzy.
var (
	StepHashEquality          = InternStep("function: hash equality")
	StepExtendedMDIndex       = InternStep("function: extended md-index + prime product")
	StepMDIndex               = InternStep("function: md-index")
	StepCountBucket           = InternStep("function: instruction/block count in prime bucket")
	StepSymbolName            = InternStep("function: symbol name equality")
	StepDemangledName         = InternStep("function: demangled name equality")
	StepEdgesOnlyMDIndex      = InternStep("function: edges-only md-index")
	StepAddress               = InternStep("function: entry address equality")
	StepCallGraphNeighborhood = InternStep("function: call graph neighborhood propagation")
	StepStringReferences      = InternStep("function: string reference overlap")
	StepLoopHead              = InternStep("function: loop head of matched function")
)

// Basic-block-level step names, in canonical order.
var (
	StepEntryBlock             = InternStep("block: entry pairing")
	StepPrimeProductBucket     = InternStep("block: prime product in singleton bucket")
	StepMDIndexBlock           = InternStep("block: md-index")
	StepInstructionCountNeighbor = InternStep("block: instruction count on matched neighbor")
	StepEdgePropagation        = InternStep("block: edge propagation")
	StepSelfLoop               = InternStep("block: self-loop preservation")
)
