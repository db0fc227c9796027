// Package token implements the sequential-identifier ownership ledger the
// drop engine mints against. Identifiers start at 1 and grow by one per
// minted entry. The ledger persists owner records and per-address mint
// counts through the storage/database interface, with an LRU cache in
// front of owner lookups.
package token

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrZeroQuantity  = errors.New("mint quantity must be positive")
	ErrZeroRecipient = errors.New("mint recipient must not be the zero address")
	ErrIDExhausted   = errors.New("token identifier space exhausted")
)

const ownerCacheSize = 4096

// Key layout under the backing database.
var (
	keyNextID      = []byte("token/next")
	ownerKeyPrefix = []byte("token/owner/")
	countKeyPrefix = []byte("token/minted/")
)

// Ledger is the persistent ownership ledger.
type Ledger struct {
	mu sync.RWMutex

	db     database.DB
	owners *lru.Cache[uint64, types.Address]

	// nextID is the identifier the next minted entry will receive.
	nextID uint64
	// minted holds cumulative mint counts per address, loaded at open.
	minted map[types.Address]uint64
}

// Open loads (or initializes) a ledger backed by db.
func Open(ctx context.Context, db database.DB) (*Ledger, error) {
	cache, err := lru.New[uint64, types.Address](ownerCacheSize)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		db:     db,
		owners: cache,
		nextID: 1,
		minted: make(map[types.Address]uint64),
	}

	raw, err := db.Read(ctx, keyNextID)
	switch {
	case err == nil:
		l.nextID = binary.BigEndian.Uint64(raw)
	case errors.Is(err, database.ErrKeyNotFound):
		// Fresh ledger.
	default:
		return nil, fmt.Errorf("failed to load ledger head: %w", err)
	}

	if err := l.loadCounts(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) loadCounts(ctx context.Context) error {
	end := append(append([]byte(nil), countKeyPrefix...), 0xff)
	iter, err := l.db.Iterator(ctx, countKeyPrefix, end)
	if err != nil {
		return fmt.Errorf("failed to iterate mint counts: %w", err)
	}
	defer iter.Close()

	for iter.Next() {
		key := iter.Key()
		if len(key) != len(countKeyPrefix)+20 {
			continue
		}
		var addr types.Address
		copy(addr[:], key[len(countKeyPrefix):])
		l.minted[addr] = binary.BigEndian.Uint64(iter.Value())
	}
	return iter.Error()
}

// Mint issues quantity sequential entries to the recipient and returns the
// identifier of the first entry issued. The write is a single batch: all
// owner records, the updated count and the new head commit together.
func (l *Ledger) Mint(ctx context.Context, to types.Address, quantity uint64) (uint64, error) {
	if quantity == 0 {
		return 0, ErrZeroQuantity
	}
	if to.IsZero() {
		return 0, ErrZeroRecipient
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	firstID := l.nextID
	newNext, carry := bits.Add64(l.nextID, quantity, 0)
	newCount, countCarry := bits.Add64(l.minted[to], quantity, 0)
	if carry != 0 || countCarry != 0 {
		return 0, ErrIDExhausted
	}

	ops := make([]database.BatchOperation, 0, quantity+2)
	for id := firstID; id < newNext; id++ {
		ops = append(ops, database.BatchOperation{
			Type:  database.BatchPut,
			Key:   ownerKey(id),
			Value: append([]byte(nil), to[:]...),
		})
	}
	ops = append(ops,
		database.BatchOperation{Type: database.BatchPut, Key: countKey(to), Value: be64(newCount)},
		database.BatchOperation{Type: database.BatchPut, Key: keyNextID, Value: be64(newNext)},
	)

	if err := l.db.Batch(ctx, ops); err != nil {
		return 0, fmt.Errorf("failed to persist mint batch: %w", err)
	}

	l.nextID = newNext
	l.minted[to] = newCount
	for id := firstID; id < newNext; id++ {
		l.owners.Add(id, to)
	}
	return firstID, nil
}

// NumberMinted returns the cumulative number of entries minted to addr.
func (l *Ledger) NumberMinted(addr types.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minted[addr]
}

// NextID returns the identifier the next minted entry will receive.
func (l *Ledger) NextID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID
}

// TotalMinted returns the number of entries issued so far.
func (l *Ledger) TotalMinted() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID - 1
}

// OwnerOf returns the owner of an entry, or false if it was never issued.
func (l *Ledger) OwnerOf(ctx context.Context, id uint64) (types.Address, bool) {
	l.mu.RLock()
	if id == 0 || id >= l.nextID {
		l.mu.RUnlock()
		return types.Address{}, false
	}
	l.mu.RUnlock()

	if addr, ok := l.owners.Get(id); ok {
		return addr, true
	}

	raw, err := l.db.Read(ctx, ownerKey(id))
	if err != nil || len(raw) != 20 {
		return types.Address{}, false
	}
	var addr types.Address
	copy(addr[:], raw)
	l.owners.Add(id, addr)
	return addr, true
}

func ownerKey(id uint64) []byte {
	return append(append([]byte(nil), ownerKeyPrefix...), be64(id)...)
}

func countKey(addr types.Address) []byte {
	return append(append([]byte(nil), countKeyPrefix...), addr[:]...)
}

func be64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
