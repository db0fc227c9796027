package drop

import (
	"context"
	"log"

	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
)

// AdminMint issues quantity entries to a recipient, bypassing sale
// windows and payment. The global capacity cap still applies.
func (e *Engine) AdminMint(ctx context.Context, caller, recipient types.Address, quantity uint64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.Minter, caller) {
		return missingRole(roles.Minter)
	}
	if quantity == 0 || recipient.IsZero() {
		return failure(InvalidQuantity)
	}
	if !e.capacityLeft(quantity) {
		return failure(SoldOut)
	}

	firstID, err := e.issue(ctx, recipient, quantity)
	if err != nil {
		log.Printf("drop: admin mint failed: %v", err)
		return failure(InternalError)
	}
	return Outcome{Result: OK, FirstTokenID: firstID, Quantity: quantity}
}

// AdminMintAirdrop issues exactly one entry to each listed recipient, in
// list order.
func (e *Engine) AdminMintAirdrop(ctx context.Context, caller types.Address, recipients []types.Address) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.Minter, caller) {
		return missingRole(roles.Minter)
	}
	if len(recipients) == 0 {
		return failure(InvalidQuantity)
	}
	for _, r := range recipients {
		if r.IsZero() {
			return failure(InvalidQuantity)
		}
	}
	if !e.capacityLeft(uint64(len(recipients))) {
		return failure(SoldOut)
	}

	var firstID uint64
	for i, r := range recipients {
		id, err := e.issue(ctx, r, 1)
		if err != nil {
			// Capacity was checked up front, so mid-list failure means the
			// backing store failed; earlier list entries stand.
			log.Printf("drop: airdrop failed at recipient %d: %v", i, err)
			return failure(InternalError)
		}
		if i == 0 {
			firstID = id
		}
	}
	return Outcome{Result: OK, FirstTokenID: firstID, Quantity: uint64(len(recipients))}
}

// FinalizeOpenEdition closes an open edition at the current total issued
// count. One-shot and irreversible; editions created with a fixed cap
// reject it.
func (e *Engine) FinalizeOpenEdition(ctx context.Context, caller types.Address) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasRoleOrAdmin(roles.SalesManager, caller) {
		return missingRole(roles.SalesManager)
	}
	if !e.config.EditionSize.IsOpen() {
		return failure(NotOpenEdition)
	}

	final := e.tokens.TotalMinted()
	prev := e.config.EditionSize
	e.config.EditionSize = CappedEdition(final)
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		e.config.EditionSize = prev
		log.Printf("drop: failed to persist finalization: %v", err)
		return failure(InternalError)
	}

	e.publish(OpenMintFinalizedEvent{By: caller, FinalCount: final})
	return Outcome{Result: OK, Quantity: final}
}
