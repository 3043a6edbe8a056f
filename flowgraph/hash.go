// File: hash.go
// Role: Function hash — SHA-256 over normalized instruction bytes, used only
// by the equality-by-hash function-matching step (spec §4.1, §4.2).
package flowgraph

import "crypto/sha256"

// ComputeHash returns the SHA-256 digest of the concatenation of every
// instruction's normalized bytes across blocks, in block-arena then
// in-block order. "Normalized" here means mnemonic + operand string,
// joined with a separator byte that cannot appear in either — the loader is
// expected to have already stripped relocations/addresses from operand
// strings where the original tool would.
//
// This is a convenience for loaders that do not already carry a precomputed
// hash; FlowGraph.SetHash accepts any byte slice, so a loader free to use a
// different normalization may do so.
func (f *FlowGraph) ComputeHash() []byte {
	h := sha256.New()
	for _, b := range f.blocks {
		for _, ins := range b.Instructions() {
			h.Write([]byte(ins.Mnemonic()))
			h.Write([]byte{0})
			h.Write([]byte(ins.Operands()))
			h.Write([]byte{0})
		}
	}

	return h.Sum(nil)
}
