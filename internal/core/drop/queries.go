package drop

import (
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// SaleDetails returns the public sale snapshot. Window flags are
// evaluated against a single clock reading.
func (e *Engine) SaleDetails() SaleDetails {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now().Unix()
	maxSupply, _ := e.config.EditionSize.Cap()

	return SaleDetails{
		PublicSaleActive:          e.publicSaleActive(now),
		PresaleActive:             e.presaleActive(now),
		PublicSalePrice:           e.sales.PublicSalePrice,
		PublicSaleStart:           e.sales.PublicSaleStart,
		PublicSaleEnd:             e.sales.PublicSaleEnd,
		PresaleStart:              e.sales.PresaleStart,
		PresaleEnd:                e.sales.PresaleEnd,
		PresaleMerkleRoot:         e.sales.PresaleMerkleRoot,
		MaxSalePurchasePerAddress: e.sales.MaxSalePurchasePerAddress,
		TotalMinted:               e.tokens.TotalMinted(),
		MaxSupply:                 maxSupply,
		Open:                      e.config.EditionSize.IsOpen(),
	}
}

// MintedPerAddress returns the mint accounting for one address.
func (e *Engine) MintedPerAddress(addr types.Address) AddressMintStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.tokens.NumberMinted(addr)
	presale := e.presaleMints[addr]
	return AddressMintStats{
		TotalMints:   total,
		PresaleMints: presale,
		PublicMints:  total - presale,
	}
}

// FeeForAmount returns the protocol fee recipient and the total fee for
// minting quantity entries.
func (e *Engine) FeeForAmount(quantity uint64) (types.Address, amount.Amount) {
	return e.mintFeeRecipient, e.mintFee.Mul(quantity)
}

// IsAdmin reports whether addr holds the admin role.
func (e *Engine) IsAdmin(addr types.Address) bool {
	return e.isAdmin(addr)
}

// RoyaltyInfo reports the royalty a marketplace should honor for a
// secondary sale at salePrice: the funds recipient and
// salePrice * royaltyBPS / 10000. Read-only; no funds move.
func (e *Engine) RoyaltyInfo(salePrice amount.Amount) (types.Address, amount.Amount) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.FundsRecipient, salePrice.BPSShare(e.config.RoyaltyBPS)
}

// Config returns the drop configuration record.
func (e *Engine) Config() Configuration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SalesConfig returns the current sales configuration.
func (e *Engine) SalesConfig() SalesConfiguration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sales
}

// Meta returns the current collection metadata.
func (e *Engine) Meta() CollectionMeta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}
