package drop_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/droptest"
)

func TestAdminMintRequiresMinterOrAdmin(t *testing.T) {
	env := droptest.New(t)
	minter := droptest.Addr("minter")
	recipient := droptest.Addr("recipient")

	outcome := env.Engine.AdminMint(env.Ctx(), minter, recipient, 1)
	require.Equal(t, drop.MissingRoleOrAdmin, outcome.Result)
	assert.Equal(t, roles.Minter, outcome.Role)

	env.Roles.Grant(roles.Minter, minter)
	env.RequireOK(env.Engine.AdminMint(env.Ctx(), minter, recipient, 2))
	env.RequireOK(env.Engine.AdminMint(env.Ctx(), env.Owner, recipient, 1))

	assert.Equal(t, uint64(3), env.Engine.MintedPerAddress(recipient).TotalMints)
	// No payment, no Sale event.
	assert.Empty(t, env.Events.ByName("Sale"))
	assert.Equal(t, amount.New(0), env.Engine.Balance())
}

func TestAdminMintChecksCapacityAndQuantity(t *testing.T) {
	env := droptest.New(t) // capped at 10
	recipient := droptest.Addr("recipient")

	outcome := env.Engine.AdminMint(env.Ctx(), env.Owner, recipient, 11)
	assert.Equal(t, drop.SoldOut, outcome.Result)

	outcome = env.Engine.AdminMint(env.Ctx(), env.Owner, recipient, 0)
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)

	outcome = env.Engine.AdminMint(env.Ctx(), env.Owner, types.Address{}, 1)
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)
}

func TestAirdropMintsOneEachInOrder(t *testing.T) {
	env := droptest.New(t)
	a, b, c := droptest.Addr("a"), droptest.Addr("b"), droptest.Addr("c")

	outcome := env.RequireOK(env.Engine.AdminMintAirdrop(env.Ctx(), env.Owner, []types.Address{a, b, c}))
	assert.Equal(t, uint64(1), outcome.FirstTokenID)
	assert.Equal(t, uint64(3), outcome.Quantity)

	for i, want := range []types.Address{a, b, c} {
		owner, ok := env.Tokens.OwnerOf(env.Ctx(), uint64(i+1))
		require.True(t, ok)
		assert.Equal(t, want, owner)
	}
}

func TestAirdropValidation(t *testing.T) {
	env := droptest.New(t)

	outcome := env.Engine.AdminMintAirdrop(env.Ctx(), env.Owner, nil)
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)

	outcome = env.Engine.AdminMintAirdrop(env.Ctx(), env.Owner,
		[]types.Address{droptest.Addr("a"), {}})
	assert.Equal(t, drop.InvalidQuantity, outcome.Result)

	recipients := make([]types.Address, 11)
	for i := range recipients {
		recipients[i] = droptest.Addr(string(rune('a' + i)))
	}
	outcome = env.Engine.AdminMintAirdrop(env.Ctx(), env.Owner, recipients)
	assert.Equal(t, drop.SoldOut, outcome.Result)
}

func TestFinalizeOpenEdition(t *testing.T) {
	env := droptest.New(t, func(p *drop.Params) {
		p.EditionSize = drop.OpenEdition()
	})
	recipient := droptest.Addr("recipient")

	env.RequireOK(env.Engine.AdminMint(env.Ctx(), env.Owner, recipient, 4))

	outcome := env.Engine.FinalizeOpenEdition(env.Ctx(), droptest.Addr("stranger"))
	require.Equal(t, drop.MissingRoleOrAdmin, outcome.Result)
	assert.Equal(t, roles.SalesManager, outcome.Role)

	env.RequireOK(env.Engine.FinalizeOpenEdition(env.Ctx(), env.Owner))

	details := env.Engine.SaleDetails()
	assert.False(t, details.Open)
	assert.Equal(t, uint64(4), details.MaxSupply)

	events := env.Events.ByName("OpenMintFinalized")
	require.Len(t, events, 1)
	assert.Equal(t, uint64(4), events[0].(drop.OpenMintFinalizedEvent).FinalCount)

	// One-shot: a second finalize rejects, and the cap now binds.
	outcome = env.Engine.FinalizeOpenEdition(env.Ctx(), env.Owner)
	assert.Equal(t, drop.NotOpenEdition, outcome.Result)

	outcome = env.Engine.AdminMint(env.Ctx(), env.Owner, recipient, 1)
	assert.Equal(t, drop.SoldOut, outcome.Result)
}

func TestFinalizeRejectsCappedEdition(t *testing.T) {
	env := droptest.New(t)

	outcome := env.Engine.FinalizeOpenEdition(env.Ctx(), env.Owner)
	assert.Equal(t, drop.NotOpenEdition, outcome.Result)
}

func TestSetFundsRecipient(t *testing.T) {
	env := droptest.New(t)
	treasury := droptest.Addr("treasury")

	outcome := env.Engine.SetFundsRecipient(env.Ctx(), droptest.Addr("stranger"), treasury)
	assert.Equal(t, drop.MissingRoleOrAdmin, outcome.Result)

	env.RequireOK(env.Engine.SetFundsRecipient(env.Ctx(), env.Owner, treasury))

	receiver, _ := env.Engine.RoyaltyInfo(amount.New(100))
	assert.Equal(t, treasury, receiver)

	events := env.Events.ByName("FundsRecipientChanged")
	require.Len(t, events, 1)
	ev := events[0].(drop.FundsRecipientChangedEvent)
	assert.Equal(t, treasury, ev.NewAddress)
	assert.Equal(t, env.Owner, ev.By)

	// A sales manager may change it too.
	manager := droptest.Addr("manager")
	env.Roles.Grant(roles.SalesManager, manager)
	env.RequireOK(env.Engine.SetFundsRecipient(env.Ctx(), manager, droptest.Addr("funds")))
}

func TestSetCollectionMeta(t *testing.T) {
	env := droptest.New(t)

	meta := drop.CollectionMeta{
		ThumbnailURI: "ipfs://thumb",
		Description:  "a drop",
		ExternalLink: "https://example.com",
	}
	outcome := env.Engine.SetCollectionMeta(env.Ctx(), droptest.Addr("stranger"), meta)
	assert.Equal(t, drop.MissingRoleOrAdmin, outcome.Result)

	env.RequireOK(env.Engine.SetCollectionMeta(env.Ctx(), env.Owner, meta))
	assert.Equal(t, meta, env.Engine.Meta())

	events := env.Events.ByName("CollectionMetaChanged")
	require.Len(t, events, 1)
	assert.Equal(t, meta, events[0].(drop.CollectionMetaChangedEvent).Meta)
}

func TestWithdraw(t *testing.T) {
	env := droptest.New(t)
	buyer := droptest.Addr("buyer")
	env.OpenPublicSale(amount.New(10), 0)
	env.RequireOK(env.Engine.Purchase(env.Ctx(), buyer, 3, amount.New(30)))

	outcome := env.Engine.Withdraw(env.Ctx(), droptest.Addr("stranger"))
	assert.Equal(t, drop.WithdrawNotAllowed, outcome.Result)

	// The funds recipient itself may sweep.
	outcome = env.RequireOK(env.Engine.Withdraw(env.Ctx(), droptest.Addr("funds")))
	assert.Equal(t, amount.New(30), outcome.Amount)
	assert.Equal(t, amount.New(0), env.Engine.Balance())
	assert.Equal(t, amount.New(30), env.Bank.BalanceOf(droptest.Addr("funds")))

	events := env.Events.ByName("FundsWithdrawn")
	require.Len(t, events, 1)
	ev := events[0].(drop.FundsWithdrawnEvent)
	assert.Equal(t, droptest.Addr("funds"), ev.To)
	assert.Equal(t, amount.New(30), ev.Amount)
	assert.Equal(t, amount.New(0), ev.FeeAmount)
}

func TestWithdrawTransferFailureKeepsBalance(t *testing.T) {
	env := droptest.New(t)
	buyer := droptest.Addr("buyer")
	env.OpenPublicSale(amount.New(10), 0)
	env.RequireOK(env.Engine.Purchase(env.Ctx(), buyer, 2, amount.New(20)))

	env.Bank.SetTransferHook(func(to types.Address, amt amount.Amount) error {
		return errors.New("recipient rejects payment")
	})

	outcome := env.Engine.Withdraw(env.Ctx(), env.Owner)
	assert.Equal(t, drop.FundsSendFailure, outcome.Result)
	assert.Equal(t, amount.New(20), env.Engine.Balance())
	assert.Empty(t, env.Events.ByName("FundsWithdrawn"))

	// Atomic: the retry after the recipient recovers sweeps everything.
	env.Bank.SetTransferHook(nil)
	outcome = env.RequireOK(env.Engine.Withdraw(env.Ctx(), env.Owner))
	assert.Equal(t, amount.New(20), outcome.Amount)
}

func TestWithdrawReentrancyBlocked(t *testing.T) {
	env := droptest.New(t)
	buyer := droptest.Addr("buyer")
	env.OpenPublicSale(amount.New(10), 0)
	env.RequireOK(env.Engine.Purchase(env.Ctx(), buyer, 1, amount.New(10)))

	var nested drop.Outcome
	env.Bank.SetTransferHook(func(to types.Address, amt amount.Amount) error {
		nested = env.Engine.Withdraw(env.Ctx(), env.Owner)
		return nil
	})

	env.RequireOK(env.Engine.Withdraw(env.Ctx(), env.Owner))
	assert.Equal(t, drop.ReentrantCall, nested.Result)
}

func TestWithdrawKeepsFundsReceivedMidSweep(t *testing.T) {
	env := droptest.New(t)
	buyer := droptest.Addr("buyer")
	env.OpenPublicSale(amount.New(10), 0)
	env.RequireOK(env.Engine.Purchase(env.Ctx(), buyer, 10, amount.New(100)))

	// The recipient's environment pays new funds in while the sweep's
	// transfer is in flight; they must survive the sweep.
	env.Bank.SetTransferHook(func(to types.Address, amt amount.Amount) error {
		return env.Engine.Receive(env.Ctx(), droptest.Addr("late-buyer"), amount.New(40))
	})

	outcome := env.RequireOK(env.Engine.Withdraw(env.Ctx(), env.Owner))
	assert.Equal(t, amount.New(100), outcome.Amount)
	assert.Equal(t, amount.New(40), env.Engine.Balance())
}
