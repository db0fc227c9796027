package drop

import (
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Event is one state-change notification. Events are buffered while an
// operation runs and delivered to sinks only after it commits; a failed
// operation publishes nothing.
type Event interface {
	EventName() string
}

// EventSink receives committed events. Sinks must not call back into the
// engine.
type EventSink interface {
	Publish(Event)
}

// SaleEvent records an accepted purchase (public or presale).
type SaleEvent struct {
	To            types.Address `json:"to"`
	Quantity      uint64        `json:"quantity"`
	PricePerToken amount.Amount `json:"pricePerToken"`
	FirstTokenID  uint64        `json:"firstTokenId"`
}

func (SaleEvent) EventName() string { return "Sale" }

// SalesConfigChangedEvent records a sales-configuration update.
type SalesConfigChangedEvent struct {
	By types.Address `json:"by"`
}

func (SalesConfigChangedEvent) EventName() string { return "SalesConfigChanged" }

// CollectionMetaChangedEvent records a metadata update.
type CollectionMetaChangedEvent struct {
	By   types.Address  `json:"by"`
	Meta CollectionMeta `json:"meta"`
}

func (CollectionMetaChangedEvent) EventName() string { return "CollectionMetaChanged" }

// FundsRecipientChangedEvent records a funds-recipient change.
type FundsRecipientChangedEvent struct {
	NewAddress types.Address `json:"newAddress"`
	By         types.Address `json:"by"`
}

func (FundsRecipientChangedEvent) EventName() string { return "FundsRecipientChanged" }

// FundsWithdrawnEvent records a successful treasury sweep.
type FundsWithdrawnEvent struct {
	By           types.Address `json:"by"`
	To           types.Address `json:"to"`
	Amount       amount.Amount `json:"amount"`
	FeeRecipient types.Address `json:"feeRecipient"`
	FeeAmount    amount.Amount `json:"feeAmount"`
}

func (FundsWithdrawnEvent) EventName() string { return "FundsWithdrawn" }

// FundsReceivedEvent records unconditional incoming funds.
type FundsReceivedEvent struct {
	Source types.Address `json:"source"`
	Amount amount.Amount `json:"amount"`
}

func (FundsReceivedEvent) EventName() string { return "FundsReceived" }

// MintFeePayoutEvent records the protocol-fee transfer attempt after a
// purchase. Success=false means the fee stayed in the drop's balance; the
// purchase itself stands either way.
type MintFeePayoutEvent struct {
	Amount    amount.Amount `json:"amount"`
	Recipient types.Address `json:"recipient"`
	Success   bool          `json:"success"`
}

func (MintFeePayoutEvent) EventName() string { return "MintFeePayout" }

// OpenMintFinalizedEvent records an open edition being closed.
type OpenMintFinalizedEvent struct {
	By         types.Address `json:"by"`
	FinalCount uint64        `json:"finalCount"`
}

func (OpenMintFinalizedEvent) EventName() string { return "OpenMintFinalized" }
