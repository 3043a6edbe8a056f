// Package instruction defines the immutable Instruction record and the
// per-comparison mnemonic interning cache described by the matching engine's
// data model.
//
// An Instruction is identified by its address, mnemonic, operand string, and
// a small "prime" assigned deterministically per distinct mnemonic by the
// owning Cache. Equality between two instructions is defined by (prime,
// operand string) alone — address is positional metadata, not identity.
package instruction

import (
	"errors"
	"sync"
)

// ErrEmptyMnemonic indicates New was called with an empty mnemonic.
var ErrEmptyMnemonic = errors.New("instruction: mnemonic is empty")

// Instruction is an immutable disassembled instruction.
//
// Mnemonic is stored once per distinct value in the owning Cache; Instruction
// only keeps the interned pointer, keeping memory proportional to the number
// of distinct mnemonics rather than the number of instructions.
type Instruction struct {
	address  uint64
	mnemonic *cacheEntry
	operands string
}

// New constructs an Instruction against cache, interning mnemonic if this is
// the first time cache has seen it.
//
// Complexity: O(1) amortized (interning is a map lookup/insert).
func New(cache *Cache, address uint64, mnemonic string, operands string) (Instruction, error) {
	entry, err := cache.intern(mnemonic)
	if err != nil {
		return Instruction{}, err
	}

	return Instruction{address: address, mnemonic: entry, operands: operands}, nil
}

// Address returns the instruction's address.
func (i Instruction) Address() uint64 { return i.address }

// Mnemonic returns the interned mnemonic string.
func (i Instruction) Mnemonic() string { return i.mnemonic.text }

// Prime returns the mnemonic's deterministically assigned prime.
func (i Instruction) Prime() uint64 { return i.mnemonic.prime }

// Operands returns the operand string.
func (i Instruction) Operands() string { return i.operands }

// Equal reports whether two instructions are equal by (prime, operand
// string), per the data model in spec §3.
func (i Instruction) Equal(other Instruction) bool {
	return i.mnemonic.prime == other.mnemonic.prime && i.operands == other.operands
}

// Instructions is an ordered sequence of Instruction, as carried by a basic
// block.
type Instructions []Instruction

// Find returns a pointer to the first instruction in seq with the given
// address, or nil if none matches.
//
// Complexity: O(n).
func Find(seq Instructions, address uint64) *Instruction {
	for idx := range seq {
		if seq[idx].address == address {
			return &seq[idx]
		}
	}

	return nil
}

// cacheEntry is the canonical, shared representation of one distinct
// mnemonic: its interned text and its assigned prime.
type cacheEntry struct {
	text  string
	prime uint64
}

// Equal reports whether two cache entries represent the same mnemonic
// identity, i.e. same prime and same text. Mirrors the C++ CacheEntry
// equality used by the original engine's tests.
func (c cacheEntry) Equal(other cacheEntry) bool {
	return c.prime == other.prime && c.text == other.text
}

// Cache is a process-local interning table mapping mnemonic strings to a
// canonical stored copy and a deterministically assigned prime.
//
// Lifetime: a Cache is scoped to exactly one comparison run. Every
// Instruction created against a Cache must not outlive that Cache's owning
// comparison; Cache itself never outlives a single CallGraph pair.
//
// Cache is safe for concurrent use: interning may be invoked from multiple
// loader goroutines, and reads (Mnemonic/Prime lookups via Instruction) never
// touch the Cache after construction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	primes  *primeStream
}

// NewCache returns an empty interning Cache with a fresh deterministic prime
// stream.
//
// Complexity: O(1).
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		primes:  newPrimeStream(),
	}
}

// Len reports the number of distinct mnemonics interned so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// intern returns the canonical cacheEntry for mnemonic, assigning the next
// prime in the deterministic stream the first time mnemonic is seen.
func (c *Cache) intern(mnemonic string) (*cacheEntry, error) {
	if mnemonic == "" {
		return nil, ErrEmptyMnemonic
	}

	c.mu.RLock()
	if entry, ok := c.entries[mnemonic]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the write lock: another goroutine may have interned
	// this mnemonic between the RUnlock above and this Lock.
	if entry, ok := c.entries[mnemonic]; ok {
		return entry, nil
	}

	entry := &cacheEntry{text: mnemonic, prime: c.primes.next()}
	c.entries[mnemonic] = entry

	return entry, nil
}
