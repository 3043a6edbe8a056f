// Package bindiff is a structural binary diffing engine: given two
// disassembled executables' call graphs, it matches functions, basic blocks,
// and instructions across the pair, scores the confidence and similarity of
// each match, and classifies what changed.
//
// 🚀 What is bindiff?
//
//	A deterministic, thread-safe, low-dependency engine that brings together:
//
//	  • Graph model: arena-indexed call graphs of flow graphs of basic blocks
//	  • Step pipeline: an ordered, configurable set of pure candidate-generating
//	    matching heuristics run to a fixed point
//	  • Scoring & classification: weighted similarity, per-step confidence,
//	    and a change-flag bitset for every confirmed function match
//
// Under the hood, everything is organized under package-per-concern
// subpackages:
//
//	instruction/ — mnemonic interning, prime assignment, instruction equality
//	flowgraph/   — BasicBlock/FlowGraph, MD-index, prime products, loop analysis
//	callgraph/   — arena of flow graphs + call edges with multiplicity
//	match/       — Context, FixedPoint, BasicBlockFixedPoint, step interning
//	steps/       — the concrete function- and basic-block-level matching steps
//	lcs/         — the instruction aligner (§4.3's LCS)
//	score/       — similarity and confidence computation
//	classify/    — the change-flag classifier
//	pipeline/    — the driver: fixed-point iteration and worker-pool fan-out
//	config/      — functional-option configuration and validation
//	ports/       — ExecutableFactory/ResultVisitor boundary + error types
//	diaglog/     — the minimal diagnostic logger
//	cmd/bindiffcore/ — a JSON-fixture CLI exercising the whole pipeline
//
// Quick sketch of one matched pair:
//
//	primary func foo @0x401000  <-->  secondary func foo @0x403040
//	  entry block 0 <-> 0, block 1 <-> 2, ...
//
// represents two functions whose flow graphs were matched block by block.
package bindiff
