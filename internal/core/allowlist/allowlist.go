// Package allowlist implements the presale allow-list commitment: a Merkle
// root over (address, maxAllowance, pricePerUnit) claims, with O(log n)
// inclusion proofs. Leaf and node hashing match the drop contracts:
// leaves are keccak256 over abi.encode of the claim, inner nodes hash the
// sorted pair of children.
package allowlist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Entry is one allow-list claim.
type Entry struct {
	Address      types.Address
	MaxAllowance uint64
	Price        amount.Amount
}

// Leaf computes the commitment leaf for a claim. Fields are encoded as
// three 32-byte words (address left-padded, integers big-endian), the
// layout produced by abi.encode(address,uint256,uint256).
func Leaf(addr types.Address, maxAllowance uint64, price amount.Amount) [32]byte {
	var buf [96]byte
	copy(buf[12:32], addr[:])
	binary.BigEndian.PutUint64(buf[56:64], maxAllowance)
	binary.BigEndian.PutUint64(buf[88:96], price.Wei())
	return types.Keccak256(buf[:])
}

// Verify walks a proof path from the claim leaf up to root, combining the
// running hash with each sibling in sorted order. Returns true only if the
// recomputed root equals the committed root.
func Verify(root [32]byte, addr types.Address, maxAllowance uint64, price amount.Amount, proof [][32]byte) bool {
	node := Leaf(addr, maxAllowance, price)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return types.Keccak256(a[:], b[:])
}

// Tree is the full allow-list Merkle tree. It lives off-chain with the
// drop author; the engine only ever sees Root() and per-claim proofs.
type Tree struct {
	entries []Entry
	// levels[0] holds the leaves, the last level holds the single root
	levels [][][32]byte
}

var ErrEmptyAllowlist = errors.New("allowlist has no entries")

// NewTree builds the commitment tree. Leaves are sorted so identical entry
// sets always commit to the same root regardless of input order.
func NewTree(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAllowlist
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	leaves := make([][32]byte, len(sorted))
	for i, e := range sorted {
		leaves[i] = Leaf(e.Address, e.MaxAllowance, e.Price)
	}
	sort.Sort(&bySortedLeaf{entries: sorted, leaves: leaves})

	levels := [][][32]byte{leaves}
	for len(levels[len(levels)-1]) > 1 {
		prev := levels[len(levels)-1]
		next := make([][32]byte, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			if i+1 < len(prev) {
				next = append(next, hashPair(prev[i], prev[i+1]))
			} else {
				// Odd node is promoted unchanged.
				next = append(next, prev[i])
			}
		}
		levels = append(levels, next)
	}

	return &Tree{entries: sorted, levels: levels}, nil
}

// Root returns the commitment hash published to the drop engine.
func (t *Tree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path for the claim at the given entry index.
func (t *Tree) Proof(index int) ([][32]byte, error) {
	if index < 0 || index >= len(t.entries) {
		return nil, errors.New("allowlist proof index out of range")
	}

	var proof [][32]byte
	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		pos /= 2
	}
	return proof, nil
}

// ProofFor returns the proof for an address's claim, along with the claim
// itself. The second return is false when the address is not committed.
func (t *Tree) ProofFor(addr types.Address) (Entry, [][32]byte, bool) {
	for i, e := range t.entries {
		if e.Address == addr {
			proof, err := t.Proof(i)
			if err != nil {
				return Entry{}, nil, false
			}
			return e, proof, true
		}
	}
	return Entry{}, nil, false
}

// Entries returns the committed claims in leaf order.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

type bySortedLeaf struct {
	entries []Entry
	leaves  [][32]byte
}

func (s *bySortedLeaf) Len() int { return len(s.leaves) }

func (s *bySortedLeaf) Less(i, j int) bool {
	return bytes.Compare(s.leaves[i][:], s.leaves[j][:]) < 0
}

func (s *bySortedLeaf) Swap(i, j int) {
	s.leaves[i], s.leaves[j] = s.leaves[j], s.leaves[i]
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
}
