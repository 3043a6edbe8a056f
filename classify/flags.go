// File: flags.go
// Role: Change-flag bitset, following the teacher's dtw.MemoryMode iota-enum
// idiom (a small closed set of named constants plus a String method).
package classify

import "github.com/whicun/bindiff/match"

// Flags is an alias of match.Flags: the bit constants live here (the
// classifier's natural home), while the underlying type lives in match to
// avoid an import cycle (match.FixedPoint carries a Flags field and must not
// import classify).
type Flags = match.Flags

// Change-flag bits, per spec §4.5.
const (
	// Structural marks that unmatched basic blocks exist on either side.
	Structural Flags = 1 << iota
	// Instructions marks that some matched basic block has unmatched
	// instructions.
	Instructions
	// Operands marks that some matched instruction pair has equal primes
	// but unequal operand strings.
	Operands
	// Branches marks that some matched basic block pair has non-isomorphic
	// outgoing edge labels.
	Branches
	// Entrypoint marks that the two function entries are not matched to
	// each other.
	Entrypoint
	// Loops marks that loop count differs between the two functions.
	Loops
	// Name marks that non-auto-generated names differ.
	Name
)

// String returns a human-readable, stable rendering of set bits, least
// significant (STRUCTURAL) first, joined by "|"; "NONE" when no bit is set.
func String(f Flags) string {
	names := []struct {
		bit  Flags
		text string
	}{
		{Structural, "STRUCTURAL"},
		{Instructions, "INSTRUCTIONS"},
		{Operands, "OPERANDS"},
		{Branches, "BRANCHES"},
		{Entrypoint, "ENTRYPOINT"},
		{Loops, "LOOPS"},
		{Name, "NAME"},
	}

	out := ""
	for _, n := range names {
		if f&n.bit == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += n.text
	}
	if out == "" {
		return "NONE"
	}

	return out
}
