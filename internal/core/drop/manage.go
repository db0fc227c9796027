package drop

import (
	"context"
	"log"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
)

// SetSaleConfiguration replaces the sales configuration (windows, price,
// per-address limit, allow-list root).
func (e *Engine) SetSaleConfiguration(ctx context.Context, caller types.Address, cfg SalesConfiguration) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.SalesManager, caller) {
		return missingRole(roles.SalesManager)
	}

	prev := e.sales
	e.sales = cfg
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		e.sales = prev
		log.Printf("drop: failed to persist sales configuration: %v", err)
		return failure(InternalError)
	}

	e.publish(SalesConfigChangedEvent{By: caller})
	return Outcome{Result: OK}
}

// SetCollectionMeta replaces the descriptive collection fields.
func (e *Engine) SetCollectionMeta(ctx context.Context, caller types.Address, meta CollectionMeta) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.SalesManager, caller) {
		return missingRole(roles.SalesManager)
	}

	prev := e.meta
	e.meta = meta
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		e.meta = prev
		log.Printf("drop: failed to persist collection meta: %v", err)
		return failure(InternalError)
	}

	e.publish(CollectionMetaChangedEvent{By: caller, Meta: meta})
	return Outcome{Result: OK}
}

// SetFundsRecipient changes where sale proceeds are swept.
func (e *Engine) SetFundsRecipient(ctx context.Context, caller, recipient types.Address) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.SalesManager, caller) {
		return missingRole(roles.SalesManager)
	}
	if recipient.IsZero() {
		return failure(InvalidQuantity)
	}

	prev := e.config.FundsRecipient
	e.config.FundsRecipient = recipient
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		e.config.FundsRecipient = prev
		log.Printf("drop: failed to persist funds recipient: %v", err)
		return failure(InternalError)
	}

	e.publish(FundsRecipientChangedEvent{NewAddress: recipient, By: caller})
	return Outcome{Result: OK}
}

// Withdraw sweeps the drop's entire balance to the funds recipient.
// Unlike the mint-fee payout, a failed transfer aborts the sweep and
// leaves the balance untouched.
func (e *Engine) Withdraw(ctx context.Context, caller types.Address) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entered {
		return failure(ReentrantCall)
	}
	e.entered = true
	defer func() { e.entered = false }()

	if !e.canWithdraw(caller) {
		return failure(WithdrawNotAllowed)
	}

	swept := e.balance
	recipient := e.config.FundsRecipient
	if err := e.transferOut(recipient, swept); err != nil {
		log.Printf("drop: withdraw transfer to %s failed: %v", recipient, err)
		return failure(FundsSendFailure)
	}

	// Subtract rather than zero: the transfer releases the mutex, and
	// Receive is unguarded, so funds can arrive mid-sweep and must
	// survive it.
	e.balance = e.balance.Sub(swept)
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		log.Printf("drop: failed to persist withdraw: %v", err)
	}

	e.publish(FundsWithdrawnEvent{
		By:           caller,
		To:           recipient,
		Amount:       swept,
		FeeRecipient: e.mintFeeRecipient,
		FeeAmount:    amount.New(0),
	})
	return Outcome{Result: OK, Amount: swept}
}
