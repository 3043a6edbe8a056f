// Package instruction models a single disassembled instruction and the
// per-comparison interning cache that backs it. See types.go for the full
// contract; primes.go implements the deterministic prime stream used to
// fingerprint mnemonics.
package instruction
