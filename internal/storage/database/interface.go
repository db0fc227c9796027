// Package database defines the key-value store the drop persists through:
// the engine's mutable state, per-address presale counts and the token
// ownership ledger all commit their writes here. Accepted operations
// persist as a single Batch so a crash never leaves a half-applied
// operation behind.
package database

import (
	"context"
)

// DB is the store contract the drop state and the token ledger are
// written against.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies the operations atomically, in order.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks the keys in [start, end) in ascending order.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator traverses a key range. Key and Value are only valid after a
// Next that returned true.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation is one write within an atomic batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)
