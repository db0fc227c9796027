package drop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/allowlist"
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/droptest"
)

func presaleEntries() []allowlist.Entry {
	return []allowlist.Entry{
		{Address: droptest.Addr("alice"), MaxAllowance: 3, Price: amount.New(5)},
		{Address: droptest.Addr("bob"), MaxAllowance: 1, Price: amount.New(8)},
		{Address: droptest.Addr("carol"), MaxAllowance: 5, Price: amount.New(0)},
	}
}

func TestPresaleOutsideWindow(t *testing.T) {
	env := droptest.New(t)
	alice := droptest.Addr("alice")

	outcome := env.Engine.PurchasePresale(env.Ctx(), alice, 1, 3, amount.New(5), nil, amount.New(5))
	assert.Equal(t, drop.PresaleInactive, outcome.Result)
}

func TestPresaleAcceptsProvenClaim(t *testing.T) {
	env := droptest.New(t)
	alice := droptest.Addr("alice")
	tree := env.OpenPresale(presaleEntries())

	entry, proof := env.Proof(tree, alice)
	outcome := env.RequireOK(env.Engine.PurchasePresale(
		env.Ctx(), alice, 2, entry.MaxAllowance, entry.Price, proof, amount.New(10)))
	assert.Equal(t, uint64(1), outcome.FirstTokenID)

	stats := env.Engine.MintedPerAddress(alice)
	assert.Equal(t, uint64(2), stats.PresaleMints)
	assert.Equal(t, uint64(2), stats.TotalMints)
	assert.Equal(t, uint64(0), stats.PublicMints)

	events := env.Events.ByName("Sale")
	require.Len(t, events, 1)
	sale := events[0].(drop.SaleEvent)
	assert.Equal(t, alice, sale.To)
	assert.Equal(t, amount.New(5), sale.PricePerToken)
}

func TestPresaleRejectsTamperedClaims(t *testing.T) {
	env := droptest.New(t)
	alice := droptest.Addr("alice")
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, alice)

	tests := []struct {
		name         string
		caller       string
		maxAllowance uint64
		price        amount.Amount
	}{
		{"inflated allowance", "alice", entry.MaxAllowance + 7, entry.Price},
		{"discounted price", "alice", entry.MaxAllowance, amount.New(1)},
		{"borrowed proof", "mallory", entry.MaxAllowance, entry.Price},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := env.Engine.PurchasePresale(
				env.Ctx(), droptest.Addr(tt.caller), 1, tt.maxAllowance, tt.price, proof, tt.price)
			assert.Equal(t, drop.AllowlistNotApproved, outcome.Result)
		})
	}

	// Not committed at all.
	outcome := env.Engine.PurchasePresale(
		env.Ctx(), droptest.Addr("mallory"), 1, 100, amount.New(0), nil, amount.New(0))
	assert.Equal(t, drop.AllowlistNotApproved, outcome.Result)
}

func TestPresaleAllowanceIsCumulative(t *testing.T) {
	env := droptest.New(t)
	alice := droptest.Addr("alice")
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, alice)

	env.RequireOK(env.Engine.PurchasePresale(
		env.Ctx(), alice, 2, entry.MaxAllowance, entry.Price, proof, amount.New(10)))
	env.RequireOK(env.Engine.PurchasePresale(
		env.Ctx(), alice, 1, entry.MaxAllowance, entry.Price, proof, amount.New(5)))

	// The allowance is spent; a fresh proof of the same claim cannot
	// reset it.
	outcome := env.Engine.PurchasePresale(
		env.Ctx(), alice, 1, entry.MaxAllowance, entry.Price, proof, amount.New(5))
	assert.Equal(t, drop.PresaleTooManyForAddress, outcome.Result)
	assert.Equal(t, uint64(3), env.Engine.MintedPerAddress(alice).PresaleMints)
}

func TestPresaleOverAllowanceInOneCall(t *testing.T) {
	env := droptest.New(t)
	bob := droptest.Addr("bob")
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, bob)

	outcome := env.Engine.PurchasePresale(
		env.Ctx(), bob, 2, entry.MaxAllowance, entry.Price, proof, amount.New(16))
	assert.Equal(t, drop.PresaleTooManyForAddress, outcome.Result)
	assert.Equal(t, uint64(0), env.Engine.MintedPerAddress(bob).PresaleMints)
}

func TestPresaleExactPaymentIncludesFee(t *testing.T) {
	env := droptest.New(t, func(p *drop.Params) {
		p.MintFee = amount.New(2)
		p.MintFeeRecipient = droptest.Addr("fee")
	})
	alice := droptest.Addr("alice")
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, alice)

	// (claim price 5 + fee 2) * 2 = 14.
	outcome := env.Engine.PurchasePresale(
		env.Ctx(), alice, 2, entry.MaxAllowance, entry.Price, proof, amount.New(10))
	require.Equal(t, drop.WrongPrice, outcome.Result)
	assert.Equal(t, amount.New(14), outcome.CorrectPrice)

	env.RequireOK(env.Engine.PurchasePresale(
		env.Ctx(), alice, 2, entry.MaxAllowance, entry.Price, proof, amount.New(14)))
	assert.Equal(t, amount.New(4), env.Bank.BalanceOf(droptest.Addr("fee")))
}

func TestPresaleRespectsCapacity(t *testing.T) {
	env := droptest.New(t, func(p *drop.Params) {
		p.EditionSize = drop.CappedEdition(2)
	})
	carol := droptest.Addr("carol")
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, carol)

	outcome := env.Engine.PurchasePresale(
		env.Ctx(), carol, 5, entry.MaxAllowance, entry.Price, proof, amount.New(0))
	assert.Equal(t, drop.SoldOut, outcome.Result)

	env.RequireOK(env.Engine.PurchasePresale(
		env.Ctx(), carol, 2, entry.MaxAllowance, entry.Price, proof, amount.New(0)))
}

func TestPresaleZeroQuantity(t *testing.T) {
	env := droptest.New(t)
	tree := env.OpenPresale(presaleEntries())
	entry, proof := env.Proof(tree, droptest.Addr("alice"))

	outcome := env.Engine.PurchasePresale(
		env.Ctx(), droptest.Addr("alice"), 0, entry.MaxAllowance, entry.Price, proof, amount.New(0))
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)
}

func TestPresalePaymentOverflowRejected(t *testing.T) {
	env := droptest.New(t)
	alice := droptest.Addr("alice")
	tree := env.OpenPresale([]allowlist.Entry{
		{Address: alice, MaxAllowance: 2, Price: amount.New(1 << 63)},
		{Address: droptest.Addr("bob"), MaxAllowance: 1, Price: amount.New(8)},
	})
	entry, proof := env.Proof(tree, alice)

	// The proven claim is genuine, but (price+fee)*2 wraps to zero; a
	// zero payment must not match the wrapped total.
	outcome := env.Engine.PurchasePresale(env.Ctx(), alice, 2, entry.MaxAllowance, entry.Price, proof, amount.New(0))
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)
	assert.Equal(t, uint64(0), env.Tokens.TotalMinted())
}
