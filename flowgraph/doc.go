// Package flowgraph implements the intra-procedural control-flow graph of a
// single function: basic blocks, control-flow edges, and the structural
// fingerprints (prime product, MD-index, function hash, loop count) that
// drive most of the matching engine's function- and basic-block-level
// steps.
//
// See types.go for FlowGraph/BasicBlock, mdindex.go for the MD-index
// family, loops.go for back-edge detection, and hash.go for the optional
// function hash.
package flowgraph
