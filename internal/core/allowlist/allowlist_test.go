package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

func testAddr(b byte) types.Address {
	var addr types.Address
	addr[19] = b
	return addr
}

func testEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Address:      testAddr(byte(i + 1)),
			MaxAllowance: uint64(i + 1),
			Price:        amount.New(uint64(10 * i)),
		}
	}
	return entries
}

func TestEmptyAllowlist(t *testing.T) {
	_, err := NewTree(nil)
	assert.ErrorIs(t, err, ErrEmptyAllowlist)
}

func TestSingleEntryTree(t *testing.T) {
	entries := testEntries(1)
	tree, err := NewTree(entries)
	require.NoError(t, err)

	// A single leaf is its own root; the proof is empty.
	assert.Equal(t, Leaf(entries[0].Address, 1, amount.New(0)), tree.Root())

	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, Verify(tree.Root(), entries[0].Address, 1, amount.New(0), proof))
}

func TestRootIndependentOfInputOrder(t *testing.T) {
	entries := testEntries(7)
	tree, err := NewTree(entries)
	require.NoError(t, err)

	reversed := make([]Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	tree2, err := NewTree(reversed)
	require.NoError(t, err)

	assert.Equal(t, tree.Root(), tree2.Root())
}

func TestEveryProofVerifies(t *testing.T) {
	// Both even and odd leaf counts, including the promoted-node case.
	for _, n := range []int{2, 3, 4, 5, 8, 9} {
		tree, err := NewTree(testEntries(n))
		require.NoError(t, err)

		for i, e := range tree.Entries() {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			assert.True(t, Verify(tree.Root(), e.Address, e.MaxAllowance, e.Price, proof),
				"n=%d entry=%d", n, i)
		}
	}
}

func TestTamperedClaimFailsVerification(t *testing.T) {
	tree, err := NewTree(testEntries(5))
	require.NoError(t, err)

	entry, proof, ok := tree.ProofFor(testAddr(3))
	require.True(t, ok)
	require.True(t, Verify(tree.Root(), entry.Address, entry.MaxAllowance, entry.Price, proof))

	assert.False(t, Verify(tree.Root(), entry.Address, entry.MaxAllowance+1, entry.Price, proof))
	assert.False(t, Verify(tree.Root(), entry.Address, entry.MaxAllowance, entry.Price.Add(amount.New(1)), proof))
	assert.False(t, Verify(tree.Root(), testAddr(99), entry.MaxAllowance, entry.Price, proof))

	// A truncated proof fails too.
	if len(proof) > 0 {
		assert.False(t, Verify(tree.Root(), entry.Address, entry.MaxAllowance, entry.Price, proof[1:]))
	}
}

func TestProofForUnknownAddress(t *testing.T) {
	tree, err := NewTree(testEntries(3))
	require.NoError(t, err)

	_, _, ok := tree.ProofFor(testAddr(99))
	assert.False(t, ok)

	_, err = tree.Proof(3)
	assert.Error(t, err)
	_, err = tree.Proof(-1)
	assert.Error(t, err)
}

func TestLeafLayout(t *testing.T) {
	// The leaf hashes the abi.encode(address,uint256,uint256) layout, so
	// equal claims hash equal and any field change reshapes the leaf.
	a := Leaf(testAddr(1), 3, amount.New(5))
	assert.Equal(t, a, Leaf(testAddr(1), 3, amount.New(5)))
	assert.NotEqual(t, a, Leaf(testAddr(2), 3, amount.New(5)))
	assert.NotEqual(t, a, Leaf(testAddr(1), 4, amount.New(5)))
	assert.NotEqual(t, a, Leaf(testAddr(1), 3, amount.New(6)))
}
