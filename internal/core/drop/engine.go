// Package drop implements the sale/minting state machine of a drop: sale
// windows, allow-list proof checks, mint accounting, batched issuance,
// fee payout and the administrative operations. The engine mirrors the
// ERC721Drop contract semantics while consuming the token ownership
// ledger, role registry and bank as external collaborators.
package drop

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/bits"
	"sync"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/roles"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/database"
)

// MaxMintBatchSize bounds a single mint call against the token ledger.
// Larger quantities are issued in chunks of this size.
const MaxMintBatchSize = 8

// TokenLedger is the sequential-identifier ownership ledger the engine
// issues against. Identifiers start at 1.
type TokenLedger interface {
	Mint(ctx context.Context, to types.Address, quantity uint64) (firstID uint64, err error)
	NumberMinted(addr types.Address) uint64
	NextID() uint64
	TotalMinted() uint64
}

// RoleRegistry is the role store consumed by the access gate. The engine
// grants Admin to the initial owner during construction and only reads
// afterwards.
type RoleRegistry interface {
	HasRole(role roles.Role, addr types.Address) bool
	Grant(role roles.Role, addr types.Address)
}

// Bank sends value out of the engine's custody (fee payout, withdraw).
type Bank interface {
	Transfer(to types.Address, amt amount.Amount) error
}

// Params are the construction parameters of a drop.
type Params struct {
	Name        string
	Symbol      string
	MetadataURI string

	InitialOwner   types.Address
	FundsRecipient types.Address

	EditionSize EditionSize
	RoyaltyBPS  uint16

	// MintFee is the fixed per-unit protocol fee; both fee fields are
	// immutable after construction.
	MintFee          amount.Amount
	MintFeeRecipient types.Address

	Sales SalesConfiguration
	Meta  CollectionMeta
}

// Dependencies are the external collaborators and ambient services.
type Dependencies struct {
	Tokens TokenLedger
	Roles  RoleRegistry
	Bank   Bank
	Clock  Clock

	// DB persists the drop's mutable state. Every accepted operation
	// commits its writes in one batch; failed operations write nothing.
	DB database.DB

	// Sinks receive events after an operation commits.
	Sinks []EventSink
}

var (
	ErrNilTokenLedger = errors.New("drop: token ledger is required")
	ErrNilRoles       = errors.New("drop: role registry is required")
	ErrNilBank        = errors.New("drop: bank is required")
	ErrNilDB          = errors.New("drop: state database is required")
	ErrZeroOwner      = errors.New("drop: initial owner must not be the zero address")
	ErrRoyaltyTooHigh = errors.New("drop: royalty must not exceed 5000 basis points")
)

// Engine is the drop state machine. All public entry points run one at a
// time under the engine mutex; the surrounding environment is sequential,
// so the mutex only protects against misuse, not designed-for parallelism.
type Engine struct {
	mu sync.Mutex

	name        string
	symbol      string
	metadataURI string

	config Configuration
	sales  SalesConfiguration
	meta   CollectionMeta

	mintFee          amount.Amount
	mintFeeRecipient types.Address

	// presaleMints accumulates per-address presale purchases. Monotone,
	// never reset.
	presaleMints map[types.Address]uint64

	// balance is the value currently held by the drop.
	balance amount.Amount

	tokens TokenLedger
	roles  RoleRegistry
	bank   Bank
	clock  Clock
	db     database.DB
	sinks  []EventSink

	// entered is the reentrancy guard, held across every payable mutating
	// entry point including its outward transfers.
	entered bool
}

// New constructs a drop engine. If the database already holds drop state
// (a restarted process), the mutable state is resumed from it and the
// mutable parts of params are ignored.
func New(ctx context.Context, params Params, deps Dependencies) (*Engine, error) {
	switch {
	case deps.Tokens == nil:
		return nil, ErrNilTokenLedger
	case deps.Roles == nil:
		return nil, ErrNilRoles
	case deps.Bank == nil:
		return nil, ErrNilBank
	case deps.DB == nil:
		return nil, ErrNilDB
	}
	if params.InitialOwner.IsZero() {
		return nil, ErrZeroOwner
	}
	if params.RoyaltyBPS > MaxRoyaltyBPS {
		return nil, ErrRoyaltyTooHigh
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}

	e := &Engine{
		name:        params.Name,
		symbol:      params.Symbol,
		metadataURI: params.MetadataURI,
		config: Configuration{
			EditionSize:    params.EditionSize,
			RoyaltyBPS:     params.RoyaltyBPS,
			FundsRecipient: params.FundsRecipient,
		},
		sales:            params.Sales,
		meta:             params.Meta,
		mintFee:          params.MintFee,
		mintFeeRecipient: params.MintFeeRecipient,
		presaleMints:     make(map[types.Address]uint64),
		tokens:           deps.Tokens,
		roles:            deps.Roles,
		bank:             deps.Bank,
		clock:            deps.Clock,
		db:               deps.DB,
		sinks:            deps.Sinks,
	}

	deps.Roles.Grant(roles.Admin, params.InitialOwner)

	resumed, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if !resumed {
		if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
			return nil, fmt.Errorf("drop: failed to persist initial state: %w", err)
		}
	}
	return e, nil
}

// Name returns the collection name.
func (e *Engine) Name() string { return e.name }

// Symbol returns the collection symbol.
func (e *Engine) Symbol() string { return e.symbol }

// MetadataURI returns the collection metadata URI.
func (e *Engine) MetadataURI() string { return e.metadataURI }

// Receive accepts incoming funds unconditionally and emits FundsReceived.
func (e *Engine) Receive(ctx context.Context, source types.Address, amt amount.Amount) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.balance = e.balance.Add(amt)
	if err := e.db.Batch(ctx, []database.BatchOperation{e.stateOp()}); err != nil {
		e.balance = e.balance.Sub(amt)
		return fmt.Errorf("drop: failed to persist received funds: %w", err)
	}
	e.publish(FundsReceivedEvent{Source: source, Amount: amt})
	return nil
}

// Balance returns the value currently held by the drop.
func (e *Engine) Balance() amount.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// publish delivers an event to every sink. Callers must only publish
// after the operation's writes have committed.
func (e *Engine) publish(events ...Event) {
	for _, ev := range events {
		for _, sink := range e.sinks {
			sink.Publish(ev)
		}
	}
}

// transferOut releases the engine mutex for the duration of an outward
// transfer: the recipient's environment may run arbitrary code, including
// attempts to call back in. The reentrancy guard stays set, so guarded
// entry points reject any such nested call.
func (e *Engine) transferOut(to types.Address, amt amount.Amount) error {
	e.mu.Unlock()
	defer e.mu.Lock()
	return e.bank.Transfer(to, amt)
}

// issue mints quantity entries to the recipient in chunks of
// MaxMintBatchSize and returns the identifier of the first entry issued.
// Capacity and eligibility must already have been checked.
func (e *Engine) issue(ctx context.Context, to types.Address, quantity uint64) (uint64, error) {
	var firstID uint64

	remaining := quantity
	for remaining > 0 {
		chunk := remaining
		if chunk > MaxMintBatchSize {
			chunk = MaxMintBatchSize
		}
		id, err := e.tokens.Mint(ctx, to, chunk)
		if err != nil {
			return 0, err
		}
		if firstID == 0 {
			firstID = id
		}
		remaining -= chunk
	}
	return firstID, nil
}

// capacityLeft reports whether quantity more entries fit under the
// edition size. A quantity that overflows the running total never fits.
func (e *Engine) capacityLeft(quantity uint64) bool {
	cap, capped := e.config.EditionSize.Cap()
	if !capped {
		return true
	}
	total, carry := bits.Add64(e.tokens.TotalMinted(), quantity, 0)
	return carry == 0 && total <= cap
}

// State persistence. The drop's mutable state serializes into a single
// record; presale counts get one record per address so commits stay
// proportional to what changed.

var (
	keyDropState     = []byte("drop/state")
	presaleKeyPrefix = []byte("drop/presale/")
)

type persistedState struct {
	EditionOpen    bool               `json:"editionOpen"`
	EditionCap     uint64             `json:"editionCap"`
	RoyaltyBPS     uint16             `json:"royaltyBPS"`
	FundsRecipient types.Address      `json:"fundsRecipient"`
	Sales          SalesConfiguration `json:"sales"`
	Meta           CollectionMeta     `json:"meta"`
	Balance        uint64             `json:"balance"`
}

// stateOp returns the batch operation writing the current mutable state.
func (e *Engine) stateOp() database.BatchOperation {
	cap, _ := e.config.EditionSize.Cap()
	blob, err := json.Marshal(persistedState{
		EditionOpen:    e.config.EditionSize.IsOpen(),
		EditionCap:     cap,
		RoyaltyBPS:     e.config.RoyaltyBPS,
		FundsRecipient: e.config.FundsRecipient,
		Sales:          e.sales,
		Meta:           e.meta,
		Balance:        e.balance.Wei(),
	})
	if err != nil {
		// persistedState marshals unconditionally; reaching this is a bug.
		log.Printf("drop: state marshal failed: %v", err)
	}
	return database.BatchOperation{Type: database.BatchPut, Key: keyDropState, Value: blob}
}

// presaleOp returns the batch operation writing one address's presale
// count.
func presaleOp(addr types.Address, count uint64) database.BatchOperation {
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], count)
	key := append(append([]byte(nil), presaleKeyPrefix...), addr[:]...)
	return database.BatchOperation{Type: database.BatchPut, Key: key, Value: val[:]}
}

// loadState resumes mutable state from the database. Returns false when
// no prior state exists.
func (e *Engine) loadState(ctx context.Context) (bool, error) {
	raw, err := e.db.Read(ctx, keyDropState)
	if errors.Is(err, database.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("drop: failed to load state: %w", err)
	}

	var st persistedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return false, fmt.Errorf("drop: corrupt state record: %w", err)
	}

	if st.EditionOpen {
		e.config.EditionSize = OpenEdition()
	} else {
		e.config.EditionSize = CappedEdition(st.EditionCap)
	}
	e.config.RoyaltyBPS = st.RoyaltyBPS
	e.config.FundsRecipient = st.FundsRecipient
	e.sales = st.Sales
	e.meta = st.Meta
	e.balance = amount.New(st.Balance)

	end := append(append([]byte(nil), presaleKeyPrefix...), 0xff)
	iter, err := e.db.Iterator(ctx, presaleKeyPrefix, end)
	if err != nil {
		return false, fmt.Errorf("drop: failed to load presale counts: %w", err)
	}
	defer iter.Close()

	for iter.Next() {
		key := iter.Key()
		if len(key) != len(presaleKeyPrefix)+20 {
			continue
		}
		var addr types.Address
		copy(addr[:], key[len(presaleKeyPrefix):])
		e.presaleMints[addr] = binary.BigEndian.Uint64(iter.Value())
	}
	if err := iter.Error(); err != nil {
		return false, fmt.Errorf("drop: failed to load presale counts: %w", err)
	}
	return true, nil
}
