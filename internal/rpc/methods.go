package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
	"github.com/0xHustling/ERC721-Drops/internal/storage/eventlog"
)

// Service binds RPC methods to the drop engine and the event journal.
type Service struct {
	engine  *drop.Engine
	journal eventlog.Journal
	started time.Time
}

// NewService wraps the engine for RPC exposure. journal may be nil, in
// which case journal-backed methods report unavailability.
func NewService(engine *drop.Engine, journal eventlog.Journal) *Service {
	return &Service{
		engine:  engine,
		journal: journal,
		started: time.Now(),
	}
}

func (s *Service) registerMethods(registry *MethodRegistry) {
	registry.Register("drop_info", s.DropInfo)
	registry.Register("sale_details", s.GetSaleDetails)
	registry.Register("mint_stats", s.MintStats)
	registry.Register("royalty_info", s.GetRoyaltyInfo)
	registry.Register("mint_fee", s.MintFee)
	registry.Register("is_admin", s.CheckAdmin)

	registry.Register("purchase", s.DoPurchase)
	registry.Register("purchase_presale", s.DoPurchasePresale)

	registry.Register("admin_mint", s.DoAdminMint)
	registry.Register("admin_airdrop", s.DoAdminAirdrop)
	registry.Register("finalize_open_edition", s.DoFinalizeOpenEdition)
	registry.Register("set_sale_configuration", s.DoSetSaleConfiguration)
	registry.Register("set_collection_meta", s.DoSetCollectionMeta)
	registry.Register("set_funds_recipient", s.DoSetFundsRecipient)
	registry.Register("withdraw", s.DoWithdraw)

	registry.Register("recent_events", s.RecentEvents)
}

// unmarshalParams decodes the single params object, treating absent
// params as an empty object.
func unmarshalParams(params json.RawMessage, dst interface{}) *RpcError {
	if params == nil {
		params = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// outcomeError converts a rejected outcome into the RPC error object.
// The engine's result code is carried through unchanged.
func outcomeError(o drop.Outcome) *RpcError {
	msg := o.Result.Message()
	switch o.Result {
	case drop.WrongPrice:
		msg = fmt.Sprintf("%s Required payment: %d.", msg, o.CorrectPrice)
	case drop.MissingRoleOrAdmin:
		msg = fmt.Sprintf("%s Required role: %s.", msg, o.Role)
	}
	return NewRpcError(int(o.Result), o.Result.String(), msg)
}

// parseProof decodes hex-encoded proof nodes into the 32-byte hashes the
// engine verifies against.
func parseProof(encoded []string) ([][32]byte, *RpcError) {
	proof := make([][32]byte, len(encoded))
	for i, s := range encoded {
		b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, RpcErrorInvalidParams(fmt.Sprintf("proof[%d] is not valid hex", i))
		}
		if len(b) != 32 {
			return nil, RpcErrorInvalidParams(fmt.Sprintf("proof[%d] must be 32 bytes", i))
		}
		copy(proof[i][:], b)
	}
	return proof, nil
}

// DropInfo reports the collection identity and server status.
func (s *Service) DropInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	details := s.engine.SaleDetails()
	feeRecipient, feePerMint := s.engine.FeeForAmount(1)

	return map[string]interface{}{
		"name":               s.engine.Name(),
		"symbol":             s.engine.Symbol(),
		"metadata_uri":       s.engine.MetadataURI(),
		"total_minted":       details.TotalMinted,
		"max_supply":         details.MaxSupply,
		"open_edition":       details.Open,
		"balance":            s.engine.Balance(),
		"mint_fee":           feePerMint,
		"mint_fee_recipient": feeRecipient,
		"uptime_seconds":     int64(time.Since(s.started).Seconds()),
	}, nil
}

// GetSaleDetails returns the full sale snapshot.
func (s *Service) GetSaleDetails(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{
		"sale_details": s.engine.SaleDetails(),
		"meta":         s.engine.Meta(),
	}, nil
}

type mintStatsParams struct {
	Address types.Address `json:"address"`
}

// MintStats returns per-address mint accounting.
func (s *Service) MintStats(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p mintStatsParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Address.IsZero() {
		return nil, RpcErrorInvalidParams("Missing address field")
	}

	return map[string]interface{}{
		"address": p.Address,
		"stats":   s.engine.MintedPerAddress(p.Address),
	}, nil
}

type royaltyParams struct {
	SalePrice amount.Amount `json:"sale_price"`
}

// GetRoyaltyInfo computes the royalty routing for a secondary sale price.
func (s *Service) GetRoyaltyInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p royaltyParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	receiver, royalty := s.engine.RoyaltyInfo(p.SalePrice)
	return map[string]interface{}{
		"receiver":       receiver,
		"royalty_amount": royalty,
	}, nil
}

type mintFeeParams struct {
	Quantity uint64 `json:"quantity"`
}

// MintFee reports the protocol fee for minting a quantity.
func (s *Service) MintFee(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	p := mintFeeParams{Quantity: 1}
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	recipient, fee := s.engine.FeeForAmount(p.Quantity)
	return map[string]interface{}{
		"recipient": recipient,
		"fee":       fee,
	}, nil
}

type isAdminParams struct {
	Address types.Address `json:"address"`
}

// CheckAdmin reports whether an address holds the admin role.
func (s *Service) CheckAdmin(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p isAdminParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	return map[string]interface{}{
		"address":  p.Address,
		"is_admin": s.engine.IsAdmin(p.Address),
	}, nil
}

type purchaseParams struct {
	Caller    types.Address `json:"caller"`
	Recipient types.Address `json:"recipient"`
	Quantity  uint64        `json:"quantity"`
	Payment   amount.Amount `json:"payment"`
}

// DoPurchase executes a public sale purchase. An absent recipient
// credits the caller.
func (s *Service) DoPurchase(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p purchaseParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	recipient := p.Recipient
	if recipient.IsZero() {
		recipient = p.Caller
	}

	outcome := s.engine.PurchaseWithRecipient(ctx.Context, p.Caller, recipient, p.Quantity, p.Payment)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"first_token_id": outcome.FirstTokenID,
		"quantity":       outcome.Quantity,
	}, nil
}

type presaleParams struct {
	Caller        types.Address `json:"caller"`
	Quantity      uint64        `json:"quantity"`
	MaxAllowance  uint64        `json:"max_allowance"`
	PricePerToken amount.Amount `json:"price_per_token"`
	Proof         []string      `json:"proof"`
	Payment       amount.Amount `json:"payment"`
}

// DoPurchasePresale executes an allow-listed presale purchase.
func (s *Service) DoPurchasePresale(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p presaleParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	proof, rpcErr := parseProof(p.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.PurchasePresale(ctx.Context, p.Caller, p.Quantity, p.MaxAllowance, p.PricePerToken, proof, p.Payment)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"first_token_id": outcome.FirstTokenID,
		"quantity":       outcome.Quantity,
	}, nil
}

type adminMintParams struct {
	Caller    types.Address `json:"caller"`
	Recipient types.Address `json:"recipient"`
	Quantity  uint64        `json:"quantity"`
}

// DoAdminMint mints without payment for minter-or-admin callers.
func (s *Service) DoAdminMint(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p adminMintParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.AdminMint(ctx.Context, p.Caller, p.Recipient, p.Quantity)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"first_token_id": outcome.FirstTokenID,
		"quantity":       outcome.Quantity,
	}, nil
}

type airdropParams struct {
	Caller     types.Address   `json:"caller"`
	Recipients []types.Address `json:"recipients"`
}

// DoAdminAirdrop mints one entry to each listed recipient.
func (s *Service) DoAdminAirdrop(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p airdropParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if len(p.Recipients) == 0 {
		return nil, RpcErrorInvalidParams("Missing recipients field")
	}

	outcome := s.engine.AdminMintAirdrop(ctx.Context, p.Caller, p.Recipients)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"first_token_id": outcome.FirstTokenID,
		"quantity":       outcome.Quantity,
	}, nil
}

type callerParams struct {
	Caller types.Address `json:"caller"`
}

// DoFinalizeOpenEdition caps an open edition at its current supply.
func (s *Service) DoFinalizeOpenEdition(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p callerParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.FinalizeOpenEdition(ctx.Context, p.Caller)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"final_count": s.engine.SaleDetails().MaxSupply,
	}, nil
}

type salesConfigParams struct {
	Caller types.Address           `json:"caller"`
	Config drop.SalesConfiguration `json:"config"`
}

// DoSetSaleConfiguration replaces the sale windows, price, limit and
// allow-list root.
func (s *Service) DoSetSaleConfiguration(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p salesConfigParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.SetSaleConfiguration(ctx.Context, p.Caller, p.Config)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{"updated": true}, nil
}

type collectionMetaParams struct {
	Caller types.Address       `json:"caller"`
	Meta   drop.CollectionMeta `json:"meta"`
}

// DoSetCollectionMeta replaces the descriptive collection fields.
func (s *Service) DoSetCollectionMeta(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p collectionMetaParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.SetCollectionMeta(ctx.Context, p.Caller, p.Meta)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{"updated": true}, nil
}

type fundsRecipientParams struct {
	Caller    types.Address `json:"caller"`
	Recipient types.Address `json:"recipient"`
}

// DoSetFundsRecipient changes where proceeds are swept.
func (s *Service) DoSetFundsRecipient(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p fundsRecipientParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.SetFundsRecipient(ctx.Context, p.Caller, p.Recipient)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{"updated": true}, nil
}

// DoWithdraw sweeps the full balance to the funds recipient.
func (s *Service) DoWithdraw(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p callerParams
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	outcome := s.engine.Withdraw(ctx.Context, p.Caller)
	if !outcome.OK() {
		return nil, outcomeError(outcome)
	}

	return map[string]interface{}{
		"amount": outcome.Amount,
	}, nil
}

type recentEventsParams struct {
	Limit int `json:"limit"`
}

// RecentEvents returns the newest journaled events.
func (s *Service) RecentEvents(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	if s.journal == nil {
		return nil, NewRpcError(-32000, "noJournal", "Event journal is not configured")
	}

	p := recentEventsParams{Limit: 20}
	if rpcErr := unmarshalParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Limit <= 0 || p.Limit > 1000 {
		return nil, RpcErrorInvalidParams("limit must be between 1 and 1000")
	}

	records, err := s.journal.Recent(ctx.Context, p.Limit)
	if err != nil {
		return nil, RpcErrorInternal("Failed to read event journal: " + err.Error())
	}

	return map[string]interface{}{
		"events": records,
	}, nil
}
