// Package droptest provides a ready-wired drop engine environment for
// tests: in-memory storage, a manual clock, deterministic addresses and
// an event capture sink.
package droptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/0xHustling/ERC721-Drops/internal/core/allowlist"
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/funds"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/token"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database/memory"
)

// Addr derives a deterministic test address from a name.
func Addr(name string) types.Address {
	h := types.Keccak256([]byte("droptest:" + name))
	var addr types.Address
	copy(addr[:], h[12:])
	return addr
}

// CaptureSink records every published event for assertions.
type CaptureSink struct {
	mu     sync.Mutex
	events []drop.Event
}

func (s *CaptureSink) Publish(ev drop.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// All returns the captured events in publish order.
func (s *CaptureSink) All() []drop.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]drop.Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByName returns the captured events with the given name.
func (s *CaptureSink) ByName(name string) []drop.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []drop.Event
	for _, ev := range s.events {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards the captured events.
func (s *CaptureSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Env is a fully wired drop engine over in-memory collaborators.
type Env struct {
	t *testing.T

	Clock  *ManualClock
	DB     database.DB
	Tokens *token.Ledger
	Roles  *roles.MemoryRegistry
	Bank   *funds.MemoryBank
	Events *CaptureSink
	Engine *drop.Engine

	// Owner is the initial owner and sole admin.
	Owner types.Address
}

// DefaultParams returns the baseline drop used by New: a 10-entry
// edition, no fee, no royalty, both sale windows closed.
func DefaultParams() drop.Params {
	return drop.Params{
		Name:           "Test Drop",
		Symbol:         "TEST",
		MetadataURI:    "ipfs://metadata",
		InitialOwner:   Addr("owner"),
		FundsRecipient: Addr("funds"),
		EditionSize:    drop.CappedEdition(10),
	}
}

// New builds the environment. Modifiers adjust the default parameters
// before construction.
func New(t *testing.T, modify ...func(*drop.Params)) *Env {
	t.Helper()

	params := DefaultParams()
	for _, m := range modify {
		m(&params)
	}

	clock := NewManualClock()
	db := memory.New()
	sink := &CaptureSink{}
	registry := roles.NewMemoryRegistry()
	bank := funds.NewMemoryBank()

	tokens, err := token.Open(context.Background(), db)
	if err != nil {
		t.Fatalf("failed to open token ledger: %v", err)
	}

	engine, err := drop.New(context.Background(), params, drop.Dependencies{
		Tokens: tokens,
		Roles:  registry,
		Bank:   bank,
		Clock:  clock,
		DB:     db,
		Sinks:  []drop.EventSink{sink},
	})
	if err != nil {
		t.Fatalf("failed to construct drop engine: %v", err)
	}

	return &Env{
		t:      t,
		Clock:  clock,
		DB:     db,
		Tokens: tokens,
		Roles:  registry,
		Bank:   bank,
		Events: sink,
		Engine: engine,
		Owner:  params.InitialOwner,
	}
}

// Ctx returns the context used for engine calls.
func (e *Env) Ctx() context.Context {
	return context.Background()
}

// OpenPublicSale configures a public sale window around the current
// clock time, keeping the rest of the sales configuration.
func (e *Env) OpenPublicSale(price amount.Amount, perAddressLimit uint64) {
	e.t.Helper()

	cfg := e.Engine.SalesConfig()
	now := e.Clock.Now()
	cfg.PublicSalePrice = price
	cfg.MaxSalePurchasePerAddress = perAddressLimit
	cfg.PublicSaleStart = now.Add(-time.Hour).Unix()
	cfg.PublicSaleEnd = now.Add(time.Hour).Unix()
	e.setSales(cfg)
}

// OpenPresale commits an allow-list and opens a presale window around
// the current clock time. Returns the tree for proof generation.
func (e *Env) OpenPresale(entries []allowlist.Entry) *allowlist.Tree {
	e.t.Helper()

	tree, err := allowlist.NewTree(entries)
	if err != nil {
		e.t.Fatalf("failed to build allow-list: %v", err)
	}

	cfg := e.Engine.SalesConfig()
	now := e.Clock.Now()
	cfg.PresaleStart = now.Add(-time.Hour).Unix()
	cfg.PresaleEnd = now.Add(time.Hour).Unix()
	cfg.PresaleMerkleRoot = drop.Root(tree.Root())
	e.setSales(cfg)
	return tree
}

// CloseSales zeroes both sale windows.
func (e *Env) CloseSales() {
	e.t.Helper()

	cfg := e.Engine.SalesConfig()
	cfg.PublicSaleStart, cfg.PublicSaleEnd = 0, 0
	cfg.PresaleStart, cfg.PresaleEnd = 0, 0
	e.setSales(cfg)
}

func (e *Env) setSales(cfg drop.SalesConfiguration) {
	e.t.Helper()

	outcome := e.Engine.SetSaleConfiguration(e.Ctx(), e.Owner, cfg)
	if !outcome.OK() {
		e.t.Fatalf("failed to set sales configuration: %s", outcome.Result)
	}
}

// Proof returns the claim and proof for an allow-listed address.
func (e *Env) Proof(tree *allowlist.Tree, addr types.Address) (allowlist.Entry, [][32]byte) {
	e.t.Helper()

	entry, proof, ok := tree.ProofFor(addr)
	if !ok {
		e.t.Fatalf("address %s not in allow-list", addr)
	}
	return entry, proof
}

// RequireOK fails the test when the outcome is not OK.
func (e *Env) RequireOK(outcome drop.Outcome) drop.Outcome {
	e.t.Helper()

	if !outcome.OK() {
		e.t.Fatalf("operation rejected: %s (%s)", outcome.Result, outcome.Result.Message())
	}
	return outcome
}
