// Package roles provides the role registry consumed by the drop engine.
// It stores grants per (role, address); the engine layers its own
// "admin satisfies everything" rule on top of plain membership checks.
package roles

import (
	"sync"

	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Role identifies one capability tier.
type Role uint8

const (
	// Admin is the distinguished superset role granted to the initial
	// owner at construction.
	Admin Role = iota
	// Minter gates administrative minting and airdrops.
	Minter
	// SalesManager gates sales configuration, collection metadata,
	// funds-recipient updates and open-edition finalization.
	SalesManager
)

func (r Role) String() string {
	switch r {
	case Admin:
		return "ADMIN"
	case Minter:
		return "MINTER"
	case SalesManager:
		return "SALES_MANAGER"
	default:
		return "UNKNOWN"
	}
}

// Registry answers role membership queries.
type Registry interface {
	HasRole(role Role, addr types.Address) bool
}

// MemoryRegistry is the in-process registry implementation. Grant and
// revoke are management-plane operations; the engine itself only reads.
type MemoryRegistry struct {
	mu     sync.RWMutex
	grants map[Role]map[types.Address]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{grants: make(map[Role]map[types.Address]struct{})}
}

func (r *MemoryRegistry) HasRole(role Role, addr types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[role][addr]
	return ok
}

func (r *MemoryRegistry) Grant(role Role, addr types.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grants[role] == nil {
		r.grants[role] = make(map[types.Address]struct{})
	}
	r.grants[role][addr] = struct{}{}
}

func (r *MemoryRegistry) Revoke(role Role, addr types.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants[role], addr)
}

// Members returns the addresses holding a role, for inspection tooling.
func (r *MemoryRegistry) Members(role Role) []types.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Address, 0, len(r.grants[role]))
	for addr := range r.grants[role] {
		out = append(out, addr)
	}
	return out
}
