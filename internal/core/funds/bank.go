// Package funds abstracts outward value transfers from the drop engine.
// A transfer hands control to the recipient's environment, so it can fail
// or attempt to re-enter the engine; the engine's reentrancy guard and
// payout policy deal with both cases.
package funds

import (
	"errors"
	"sync"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Bank sends value out of the engine's custody.
type Bank interface {
	// Transfer sends amt to the recipient. A non-nil error means no value
	// moved.
	Transfer(to types.Address, amt amount.Amount) error
}

var ErrTransferRejected = errors.New("transfer rejected by recipient")

// TransferHook runs inside MemoryBank.Transfer before the balance is
// credited. Returning an error makes the transfer fail. Tests use it to
// model recipients that reject payment or re-enter the engine.
type TransferHook func(to types.Address, amt amount.Amount) error

// MemoryBank is an in-process bank keeping per-address balances. It backs
// tests and the standalone server mode.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[types.Address]amount.Amount
	hook     TransferHook
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[types.Address]amount.Amount)}
}

// SetTransferHook installs a hook for subsequent transfers. A nil hook
// restores plain behavior.
func (b *MemoryBank) SetTransferHook(hook TransferHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = hook
}

func (b *MemoryBank) Transfer(to types.Address, amt amount.Amount) error {
	b.mu.Lock()
	hook := b.hook
	b.mu.Unlock()

	if hook != nil {
		if err := hook(to, amt); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[to] = b.balances[to].Add(amt)
	return nil
}

// BalanceOf returns the value delivered to addr so far.
func (b *MemoryBank) BalanceOf(addr types.Address) amount.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[addr]
}
