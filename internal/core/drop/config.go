package drop

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// MaxRoyaltyBPS is the ceiling on the royalty rate, checked once at
// construction.
const MaxRoyaltyBPS = 5000

// EditionSize is the supply cap of a drop. An edition is either capped at
// a fixed count or open (unbounded until finalized); the two states are
// explicit rather than a numeric sentinel.
type EditionSize struct {
	open bool
	cap  uint64
}

// OpenEdition returns the unbounded edition size.
func OpenEdition() EditionSize {
	return EditionSize{open: true}
}

// CappedEdition returns an edition capped at n entries.
func CappedEdition(n uint64) EditionSize {
	return EditionSize{cap: n}
}

// IsOpen reports whether the edition is still unbounded.
func (s EditionSize) IsOpen() bool { return s.open }

// Cap returns the supply cap; ok is false while the edition is open.
func (s EditionSize) Cap() (uint64, bool) {
	if s.open {
		return 0, false
	}
	return s.cap, true
}

func (s EditionSize) String() string {
	if s.open {
		return "open"
	}
	return fmt.Sprintf("%d", s.cap)
}

// Root is the presale allow-list commitment hash.
type Root [32]byte

func (r Root) IsZero() bool { return r == Root{} }

func (r Root) String() string { return "0x" + hex.EncodeToString(r[:]) }

func (r Root) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Root) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid merkle root hex: %w", err)
	}
	if len(b) != 32 {
		return errors.New("merkle root must be 32 bytes")
	}
	copy(r[:], b)
	return nil
}

// Configuration is the per-drop record fixed at construction except for
// the funds recipient (SetFundsRecipient) and the edition size
// (FinalizeOpenEdition).
type Configuration struct {
	EditionSize    EditionSize
	RoyaltyBPS     uint16
	FundsRecipient types.Address
}

// SalesConfiguration is the mutable sale setup, replaced wholesale by
// SetSaleConfiguration. Timestamps are unix seconds; a window is active
// while start <= now < end.
type SalesConfiguration struct {
	PublicSalePrice           amount.Amount `json:"publicSalePrice"`
	MaxSalePurchasePerAddress uint64        `json:"maxSalePurchasePerAddress"`
	PublicSaleStart           int64         `json:"publicSaleStart"`
	PublicSaleEnd             int64         `json:"publicSaleEnd"`
	PresaleStart              int64         `json:"presaleStart"`
	PresaleEnd                int64         `json:"presaleEnd"`
	PresaleMerkleRoot         Root          `json:"presaleMerkleRoot"`
}

// CollectionMeta holds the descriptive fields of a drop. No behavioral
// invariants; replaced wholesale by SetCollectionMeta.
type CollectionMeta struct {
	ThumbnailURI string `json:"thumbnailURI"`
	Description  string `json:"description"`
	ExternalLink string `json:"externalLink"`
}

// SaleDetails is the public snapshot returned by the engine.
type SaleDetails struct {
	PublicSaleActive          bool          `json:"publicSaleActive"`
	PresaleActive             bool          `json:"presaleActive"`
	PublicSalePrice           amount.Amount `json:"publicSalePrice"`
	PublicSaleStart           int64         `json:"publicSaleStart"`
	PublicSaleEnd             int64         `json:"publicSaleEnd"`
	PresaleStart              int64         `json:"presaleStart"`
	PresaleEnd                int64         `json:"presaleEnd"`
	PresaleMerkleRoot         Root          `json:"presaleMerkleRoot"`
	MaxSalePurchasePerAddress uint64        `json:"maxSalePurchasePerAddress"`
	TotalMinted               uint64        `json:"totalMinted"`
	// MaxSupply is 0 with Open=true while the edition is unbounded.
	MaxSupply uint64 `json:"maxSupply"`
	Open      bool   `json:"openEdition"`
}

// AddressMintStats is the per-address view of mint accounting.
type AddressMintStats struct {
	TotalMints   uint64 `json:"totalMints"`
	PresaleMints uint64 `json:"presaleMints"`
	PublicMints  uint64 `json:"publicMints"`
}
