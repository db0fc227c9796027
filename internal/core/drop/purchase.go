package drop

import (
	"context"
	"log"
	"math/bits"

	"github.com/0xHustling/ERC721-Drops/internal/core/allowlist"
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
)

// requiredPayment computes (price + fee) * quantity, reporting false when
// the total does not fit in uint64. A wrapped total must never be
// compared against a caller's payment.
func requiredPayment(price, fee amount.Amount, quantity uint64) (amount.Amount, bool) {
	perUnit, overflow := price.AddChecked(fee)
	if overflow {
		return 0, false
	}
	total, overflow := perUnit.MulChecked(quantity)
	if overflow {
		return 0, false
	}
	return total, true
}

// Purchase buys quantity entries for the caller during the public sale.
// Payment must equal (public sale price + mint fee) * quantity exactly.
func (e *Engine) Purchase(ctx context.Context, caller types.Address, quantity uint64, payment amount.Amount) Outcome {
	return e.PurchaseWithRecipient(ctx, caller, caller, quantity, payment)
}

// PurchaseWithRecipient is Purchase crediting the entries (and the
// per-address accounting) to another address.
func (e *Engine) PurchaseWithRecipient(ctx context.Context, caller, recipient types.Address, quantity uint64, payment amount.Amount) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entered {
		return failure(ReentrantCall)
	}
	e.entered = true
	defer func() { e.entered = false }()

	if quantity == 0 || recipient.IsZero() {
		return failure(InvalidQuantity)
	}

	now := e.clock.Now().Unix()
	if !e.publicSaleActive(now) {
		return failure(SaleInactive)
	}
	if !e.capacityLeft(quantity) {
		return failure(SoldOut)
	}

	// Public-sale limit counts only public mints: total minted minus the
	// recipient's accumulated presale mints.
	if limit := e.sales.MaxSalePurchasePerAddress; limit != 0 {
		publicMinted := e.tokens.NumberMinted(recipient) - e.presaleMints[recipient]
		total, carry := bits.Add64(publicMinted, quantity, 0)
		if carry != 0 || total > limit {
			return failure(PurchaseTooManyForAddress)
		}
	}

	required, ok := requiredPayment(e.sales.PublicSalePrice, e.mintFee, quantity)
	if !ok {
		return failure(InvalidQuantity)
	}
	if payment != required {
		return wrongPrice(required)
	}

	firstID, err := e.issue(ctx, recipient, quantity)
	if err != nil {
		log.Printf("drop: public sale issuance failed: %v", err)
		return failure(InternalError)
	}

	e.balance = e.balance.Add(payment)
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		log.Printf("drop: failed to persist purchase state: %v", err)
	}

	e.publish(SaleEvent{
		To:            recipient,
		Quantity:      quantity,
		PricePerToken: e.sales.PublicSalePrice,
		FirstTokenID:  firstID,
	})

	e.payMintFee(ctx, quantity)

	return Outcome{Result: OK, FirstTokenID: firstID, Quantity: quantity}
}

// PurchasePresale buys quantity entries for the caller during the
// presale. The caller proves its (maxAllowance, pricePerUnit) claim
// against the committed allow-list root; cumulative presale purchases may
// never exceed the proven allowance.
func (e *Engine) PurchasePresale(ctx context.Context, caller types.Address, quantity, maxAllowance uint64, pricePerUnit amount.Amount, proof [][32]byte, payment amount.Amount) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entered {
		return failure(ReentrantCall)
	}
	e.entered = true
	defer func() { e.entered = false }()

	if quantity == 0 {
		return failure(InvalidQuantity)
	}

	now := e.clock.Now().Unix()
	if !e.presaleActive(now) {
		return failure(PresaleInactive)
	}
	if !e.capacityLeft(quantity) {
		return failure(SoldOut)
	}

	if !allowlist.Verify([32]byte(e.sales.PresaleMerkleRoot), caller, maxAllowance, pricePerUnit, proof) {
		return failure(AllowlistNotApproved)
	}

	// The tentative count includes every previously accepted presale
	// purchase, so repeated claims against a shrinking remaining
	// allowance are rejected here.
	newCount, carry := bits.Add64(e.presaleMints[caller], quantity, 0)
	if carry != 0 || newCount > maxAllowance {
		return failure(PresaleTooManyForAddress)
	}

	required, ok := requiredPayment(pricePerUnit, e.mintFee, quantity)
	if !ok {
		return failure(InvalidQuantity)
	}
	if payment != required {
		return wrongPrice(required)
	}

	firstID, err := e.issue(ctx, caller, quantity)
	if err != nil {
		log.Printf("drop: presale issuance failed: %v", err)
		return failure(InternalError)
	}

	e.presaleMints[caller] = newCount
	e.balance = e.balance.Add(payment)
	if err := e.db.Batch(ctx, []database.BatchOperation{
		presaleOp(caller, newCount),
		e.stateOp(),
	}); err != nil {
		log.Printf("drop: failed to persist presale state: %v", err)
	}

	e.publish(SaleEvent{
		To:            caller,
		Quantity:      quantity,
		PricePerToken: pricePerUnit,
		FirstTokenID:  firstID,
	})

	e.payMintFee(ctx, quantity)

	return Outcome{Result: OK, FirstTokenID: firstID, Quantity: quantity}
}

// payMintFee transfers the protocol fee for an accepted purchase. A
// failed transfer leaves the fee in the drop's balance and is recorded in
// the MintFeePayout event; it does not undo the purchase.
func (e *Engine) payMintFee(ctx context.Context, quantity uint64) {
	if e.mintFee.IsZero() || e.mintFeeRecipient.IsZero() {
		return
	}

	feeTotal := e.mintFee.Mul(quantity)
	err := e.transferOut(e.mintFeeRecipient, feeTotal)
	if err == nil {
		e.balance = e.balance.Sub(feeTotal)
		if perr := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); perr != nil {
			log.Printf("drop: failed to persist fee payout: %v", perr)
		}
	} else {
		log.Printf("drop: mint fee payout to %s failed: %v", e.mintFeeRecipient, err)
	}

	e.publish(MintFeePayoutEvent{
		Amount:    feeTotal,
		Recipient: e.mintFeeRecipient,
		Success:   err == nil,
	})
}
