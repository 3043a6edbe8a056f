package lcs_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/lcs"
)

func mustInstruction(t *testing.T, cache *instruction.Cache, addr uint64, mnemonic, operands string) instruction.Instruction {
	t.Helper()
	ins, err := instruction.New(cache, addr, mnemonic, operands)
	require.NoError(t, err)

	return ins
}

// TestAlignDisambiguatesRepeatedMnemonics mirrors the aligner scenario from
// the original engine's instruction_test.cc: sequence two repeats the "one"
// and "three" mnemonics with different operand encodings, and only the
// exact (prime, operands) matches to sequence one should survive.
func TestAlignDisambiguatesRepeatedMnemonics(t *testing.T) {
	cache := instruction.NewCache()

	seq1 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000000010000000, "one", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000001, "two", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000005, "three", "47, 11"),
	}

	seq2 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000000010012000, "one", "99, 99"),
		mustInstruction(t, cache, 0x1000000010012302, "one", "47, 11"),
		mustInstruction(t, cache, 0x1000000010033300, "one", "11, 99"),
		mustInstruction(t, cache, 0x1000000010112334, "two", "47, 11"),
		mustInstruction(t, cache, 0x1000000010234205, "three", "99, 11"),
		mustInstruction(t, cache, 0x1000000010234206, "three", "11, 99"),
		mustInstruction(t, cache, 0x1000000010234207, "three", "47, 11"),
	}

	matches := lcs.Align(seq1, seq2)
	require.Len(t, matches, 3)

	require.Equal(t, uint64(0x1000000010000000), seq1[matches[0].A].Address())
	require.Equal(t, uint64(0x1000000010012302), seq2[matches[0].B].Address())
	require.Equal(t, uint64(0x1000000010000001), seq1[matches[1].A].Address())
	require.Equal(t, uint64(0x1000000010112334), seq2[matches[1].B].Address())
	require.Equal(t, uint64(0x1000000010000005), seq1[matches[2].A].Address())
	require.Equal(t, uint64(0x1000000010234207), seq2[matches[2].B].Address())
}

func TestAlignEmptySequences(t *testing.T) {
	require.Empty(t, lcs.Align(nil, nil))
}

func TestAlignOneSidedEmpty(t *testing.T) {
	cache := instruction.NewCache()
	seq1 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000000010000000, "one", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000001, "two", "47, 11"),
	}

	require.Empty(t, lcs.Align(seq1, nil))
}

// TestAlignCommonPrefix mirrors the CommonPrefix case from
// instruction_test.cc: a shared prefix followed by a single divergent
// mnemonic at the tail, which must not be matched.
func TestAlignCommonPrefix(t *testing.T) {
	cache := instruction.NewCache()

	seq1 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000000010000000, "one", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000001, "two", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000005, "three", "47, 11"),
	}
	seq2 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000000010000000, "one", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000001, "two", "47, 11"),
		mustInstruction(t, cache, 0x1000000010000005, "unmatched", "47, 11"),
	}

	matches := lcs.Align(seq1, seq2)
	require.Len(t, matches, 2)
	require.Equal(t, lcs.Match{A: 0, B: 0}, matches[0])
	require.Equal(t, lcs.Match{A: 1, B: 1}, matches[1])
}

func TestAlignIndicesStrictlyIncreasing(t *testing.T) {
	cache := instruction.NewCache()
	seq1 := instruction.Instructions{
		mustInstruction(t, cache, 0x1000, "mov", "eax, 1"),
		mustInstruction(t, cache, 0x1001, "add", "eax, 2"),
		mustInstruction(t, cache, 0x1002, "mov", "eax, 1"),
		mustInstruction(t, cache, 0x1003, "ret", ""),
	}
	seq2 := instruction.Instructions{
		mustInstruction(t, cache, 0x2000, "push", "ebp"),
		mustInstruction(t, cache, 0x2001, "mov", "eax, 1"),
		mustInstruction(t, cache, 0x2002, "mov", "eax, 1"),
		mustInstruction(t, cache, 0x2003, "ret", ""),
	}

	matches := lcs.Align(seq1, seq2)
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		require.Less(t, matches[i-1].A, matches[i].A)
		require.Less(t, matches[i-1].B, matches[i].B)
	}
}
