// Package config loads the dropd configuration from its TOML file,
// layered over built-in defaults and under DROPD_-prefixed environment
// variables.
package config

import (
	"fmt"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// Config is the complete dropd configuration, mirroring dropd.toml.
type Config struct {
	Drop     DropConfig     `toml:"drop" mapstructure:"drop"`
	Sales    SalesConfig    `toml:"sales" mapstructure:"sales"`
	Meta     MetaConfig     `toml:"meta" mapstructure:"meta"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Journal  JournalConfig  `toml:"journal" mapstructure:"journal"`

	configPath string `toml:"-" mapstructure:"-"`
}

// DropConfig fixes the collection identity and economics at startup.
type DropConfig struct {
	Name        string `toml:"name" mapstructure:"name"`
	Symbol      string `toml:"symbol" mapstructure:"symbol"`
	MetadataURI string `toml:"metadata_uri" mapstructure:"metadata_uri"`

	InitialOwner   string `toml:"initial_owner" mapstructure:"initial_owner"`
	FundsRecipient string `toml:"funds_recipient" mapstructure:"funds_recipient"`

	// EditionSize is the supply cap; ignored when OpenEdition is true.
	EditionSize uint64 `toml:"edition_size" mapstructure:"edition_size"`
	OpenEdition bool   `toml:"open_edition" mapstructure:"open_edition"`

	RoyaltyBPS uint16 `toml:"royalty_bps" mapstructure:"royalty_bps"`

	MintFee          uint64 `toml:"mint_fee" mapstructure:"mint_fee"`
	MintFeeRecipient string `toml:"mint_fee_recipient" mapstructure:"mint_fee_recipient"`
}

// SalesConfig is the initial sale setup. Timestamps are unix seconds; a
// zeroed window never activates.
type SalesConfig struct {
	PublicSalePrice           uint64 `toml:"public_sale_price" mapstructure:"public_sale_price"`
	MaxSalePurchasePerAddress uint64 `toml:"max_sale_purchase_per_address" mapstructure:"max_sale_purchase_per_address"`
	PublicSaleStart           int64  `toml:"public_sale_start" mapstructure:"public_sale_start"`
	PublicSaleEnd             int64  `toml:"public_sale_end" mapstructure:"public_sale_end"`
	PresaleStart              int64  `toml:"presale_start" mapstructure:"presale_start"`
	PresaleEnd                int64  `toml:"presale_end" mapstructure:"presale_end"`
	PresaleMerkleRoot         string `toml:"presale_merkle_root" mapstructure:"presale_merkle_root"`
}

// MetaConfig holds the descriptive collection fields.
type MetaConfig struct {
	ThumbnailURI string `toml:"thumbnail_uri" mapstructure:"thumbnail_uri"`
	Description  string `toml:"description" mapstructure:"description"`
	ExternalLink string `toml:"external_link" mapstructure:"external_link"`
}

// ServerConfig configures the RPC surface.
type ServerConfig struct {
	Host             string `toml:"host" mapstructure:"host"`
	Port             int    `toml:"port" mapstructure:"port"`
	WebsocketEnabled bool   `toml:"websocket_enabled" mapstructure:"websocket_enabled"`
	// RequestTimeout is in seconds.
	RequestTimeout int `toml:"request_timeout" mapstructure:"request_timeout"`
}

// DatabaseConfig selects the drop-state key-value backend.
type DatabaseConfig struct {
	// Backend is pebble, leveldb or memory.
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
}

// JournalConfig selects the event journal backend.
type JournalConfig struct {
	// Backend is sqlite, postgres or none.
	Backend string `toml:"backend" mapstructure:"backend"`
	// Path is the sqlite file; ":memory:" for ephemeral.
	Path string `toml:"path" mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// GetConfigPath returns the file this configuration was loaded from, or
// empty when running on defaults only.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// EngineParams converts the file representation into engine parameters.
// Called after validation, so address and root parsing only fails on
// bugs, not on user input.
func (c *Config) EngineParams() (drop.Params, error) {
	owner, err := types.ParseAddress(c.Drop.InitialOwner)
	if err != nil {
		return drop.Params{}, fmt.Errorf("invalid initial_owner: %w", err)
	}
	fundsRecipient, err := types.ParseAddress(c.Drop.FundsRecipient)
	if err != nil {
		return drop.Params{}, fmt.Errorf("invalid funds_recipient: %w", err)
	}

	var feeRecipient types.Address
	if c.Drop.MintFeeRecipient != "" {
		feeRecipient, err = types.ParseAddress(c.Drop.MintFeeRecipient)
		if err != nil {
			return drop.Params{}, fmt.Errorf("invalid mint_fee_recipient: %w", err)
		}
	}

	var root drop.Root
	if c.Sales.PresaleMerkleRoot != "" {
		if err := root.UnmarshalText([]byte(c.Sales.PresaleMerkleRoot)); err != nil {
			return drop.Params{}, fmt.Errorf("invalid presale_merkle_root: %w", err)
		}
	}

	editionSize := drop.CappedEdition(c.Drop.EditionSize)
	if c.Drop.OpenEdition {
		editionSize = drop.OpenEdition()
	}

	return drop.Params{
		Name:             c.Drop.Name,
		Symbol:           c.Drop.Symbol,
		MetadataURI:      c.Drop.MetadataURI,
		InitialOwner:     owner,
		FundsRecipient:   fundsRecipient,
		EditionSize:      editionSize,
		RoyaltyBPS:       c.Drop.RoyaltyBPS,
		MintFee:          amount.New(c.Drop.MintFee),
		MintFeeRecipient: feeRecipient,
		Sales: drop.SalesConfiguration{
			PublicSalePrice:           amount.New(c.Sales.PublicSalePrice),
			MaxSalePurchasePerAddress: c.Sales.MaxSalePurchasePerAddress,
			PublicSaleStart:           c.Sales.PublicSaleStart,
			PublicSaleEnd:             c.Sales.PublicSaleEnd,
			PresaleStart:              c.Sales.PresaleStart,
			PresaleEnd:                c.Sales.PresaleEnd,
			PresaleMerkleRoot:         root,
		},
		Meta: drop.CollectionMeta{
			ThumbnailURI: c.Meta.ThumbnailURI,
			Description:  c.Meta.Description,
			ExternalLink: c.Meta.ExternalLink,
		},
	}, nil
}

// ListenAddr returns the host:port the RPC server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
