package token

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database/memory"
)

func testAddr(b byte) types.Address {
	var addr types.Address
	addr[19] = b
	return addr
}

func TestMintSequentialIdentifiers(t *testing.T) {
	ctx := context.Background()
	ledger, err := Open(ctx, memory.New())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), ledger.NextID())
	assert.Equal(t, uint64(0), ledger.TotalMinted())

	first, err := ledger.Mint(ctx, testAddr(1), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)

	second, err := ledger.Mint(ctx, testAddr(2), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), second)

	assert.Equal(t, uint64(6), ledger.NextID())
	assert.Equal(t, uint64(5), ledger.TotalMinted())
	assert.Equal(t, uint64(3), ledger.NumberMinted(testAddr(1)))
	assert.Equal(t, uint64(2), ledger.NumberMinted(testAddr(2)))
}

func TestMintValidation(t *testing.T) {
	ctx := context.Background()
	ledger, err := Open(ctx, memory.New())
	require.NoError(t, err)

	_, err = ledger.Mint(ctx, testAddr(1), 0)
	assert.ErrorIs(t, err, ErrZeroQuantity)

	_, err = ledger.Mint(ctx, types.Address{}, 1)
	assert.ErrorIs(t, err, ErrZeroRecipient)
}

func TestOwnerOf(t *testing.T) {
	ctx := context.Background()
	ledger, err := Open(ctx, memory.New())
	require.NoError(t, err)

	_, err = ledger.Mint(ctx, testAddr(1), 2)
	require.NoError(t, err)
	_, err = ledger.Mint(ctx, testAddr(2), 1)
	require.NoError(t, err)

	owner, ok := ledger.OwnerOf(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, testAddr(1), owner)

	owner, ok = ledger.OwnerOf(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, testAddr(2), owner)

	// Identifier 0 never exists; neither do unissued ones.
	_, ok = ledger.OwnerOf(ctx, 0)
	assert.False(t, ok)
	_, ok = ledger.OwnerOf(ctx, 4)
	assert.False(t, ok)
}

func TestReopenResumesState(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	ledger, err := Open(ctx, db)
	require.NoError(t, err)
	_, err = ledger.Mint(ctx, testAddr(1), 4)
	require.NoError(t, err)

	reopened, err := Open(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), reopened.NextID())
	assert.Equal(t, uint64(4), reopened.NumberMinted(testAddr(1)))

	// Owner lookups come from disk, not the warm cache.
	owner, ok := reopened.OwnerOf(ctx, 2)
	require.True(t, ok)
	assert.Equal(t, testAddr(1), owner)

	// Issuance continues from the persisted head.
	next, err := reopened.Mint(ctx, testAddr(2), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next)
}

func TestMintIdentifierSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	var head [8]byte
	binary.BigEndian.PutUint64(head[:], math.MaxUint64-1)
	require.NoError(t, db.Write(ctx, keyNextID, head[:]))

	ledger, err := Open(ctx, db)
	require.NoError(t, err)

	_, err = ledger.Mint(ctx, testAddr(1), 2)
	assert.ErrorIs(t, err, ErrIDExhausted)

	// The last representable identifier can still be issued.
	first, err := ledger.Mint(ctx, testAddr(1), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), first)
}
