package instruction_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/instruction"
)

func TestInstructionBasics(t *testing.T) {
	cache := instruction.NewCache()
	ins, err := instruction.New(cache, 0xbaadf00dbaadf00d, "mov", "eax, 47011")
	require.NoError(t, err)
	require.Equal(t, "mov", ins.Mnemonic())
	require.Equal(t, "eax, 47011", ins.Operands())
	require.Equal(t, uint64(0xbaadf00dbaadf00d), ins.Address())
}

func TestSameMnemonicSharesPrime(t *testing.T) {
	cache := instruction.NewCache()
	a, err := instruction.New(cache, 1, "mov", "eax, 1")
	require.NoError(t, err)
	b, err := instruction.New(cache, 2, "mov", "eax, 2")
	require.NoError(t, err)
	require.Equal(t, a.Prime(), b.Prime())
	require.Equal(t, 1, cache.Len())
}

func TestDistinctMnemonicsGetDistinctPrimes(t *testing.T) {
	cache := instruction.NewCache()
	a, err := instruction.New(cache, 1, "mov", "eax, 1")
	require.NoError(t, err)
	b, err := instruction.New(cache, 2, "push", "eax")
	require.NoError(t, err)
	require.NotEqual(t, a.Prime(), b.Prime())
	require.Equal(t, 2, cache.Len())
}

func TestEqualByPrimeAndOperands(t *testing.T) {
	cache := instruction.NewCache()
	a, err := instruction.New(cache, 1, "mov", "eax, 47011")
	require.NoError(t, err)
	b, err := instruction.New(cache, 99, "mov", "eax, 47011")
	require.NoError(t, err)
	require.True(t, a.Equal(b), "same mnemonic and operands must compare equal regardless of address")

	c, err := instruction.New(cache, 1, "mov", "ebx, 1")
	require.NoError(t, err)
	require.False(t, a.Equal(c), "differing operands must not compare equal")
}

func TestEmptyMnemonicRejected(t *testing.T) {
	cache := instruction.NewCache()
	_, err := instruction.New(cache, 0, "", "")
	require.ErrorIs(t, err, instruction.ErrEmptyMnemonic)
}

func TestFindInstructionByAddress(t *testing.T) {
	cache := instruction.NewCache()
	one, err := instruction.New(cache, 0x1000000010000000, "one", "47, 11")
	require.NoError(t, err)
	two, err := instruction.New(cache, 0x1000000010000001, "two", "47, 11")
	require.NoError(t, err)
	three, err := instruction.New(cache, 0x1000000010000005, "three", "47, 11")
	require.NoError(t, err)
	seq := instruction.Instructions{one, two, three}

	found := instruction.Find(seq, 0x1000000010000001)
	require.NotNil(t, found)
	require.Equal(t, uint64(0x1000000010000001), found.Address())

	found = instruction.Find(seq, 0x1000000010000005)
	require.NotNil(t, found)
	require.Equal(t, "three", found.Mnemonic())

	require.Nil(t, instruction.Find(seq, 0xdeadbeef))
}
