package config

import (
	"fmt"

	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// ValidateConfig checks the loaded configuration before it reaches the
// engine, so startup failures name the offending field.
func ValidateConfig(c *Config) error {
	if c.Drop.Name == "" {
		return fmt.Errorf("drop.name must not be empty")
	}
	if c.Drop.Symbol == "" {
		return fmt.Errorf("drop.symbol must not be empty")
	}

	if _, err := types.ParseAddress(c.Drop.InitialOwner); err != nil {
		return fmt.Errorf("drop.initial_owner: %w", err)
	}
	if _, err := types.ParseAddress(c.Drop.FundsRecipient); err != nil {
		return fmt.Errorf("drop.funds_recipient: %w", err)
	}
	if c.Drop.MintFeeRecipient != "" {
		if _, err := types.ParseAddress(c.Drop.MintFeeRecipient); err != nil {
			return fmt.Errorf("drop.mint_fee_recipient: %w", err)
		}
	}
	if c.Drop.MintFee > 0 && c.Drop.MintFeeRecipient == "" {
		return fmt.Errorf("drop.mint_fee_recipient is required when drop.mint_fee is set")
	}

	if c.Drop.RoyaltyBPS > drop.MaxRoyaltyBPS {
		return fmt.Errorf("drop.royalty_bps %d exceeds the %d cap", c.Drop.RoyaltyBPS, drop.MaxRoyaltyBPS)
	}
	if !c.Drop.OpenEdition && c.Drop.EditionSize == 0 {
		return fmt.Errorf("drop.edition_size must be positive unless drop.open_edition is set")
	}

	if err := validateWindow("sales.public_sale", c.Sales.PublicSaleStart, c.Sales.PublicSaleEnd); err != nil {
		return err
	}
	if err := validateWindow("sales.presale", c.Sales.PresaleStart, c.Sales.PresaleEnd); err != nil {
		return err
	}

	if c.Sales.PresaleMerkleRoot != "" {
		var root drop.Root
		if err := root.UnmarshalText([]byte(c.Sales.PresaleMerkleRoot)); err != nil {
			return fmt.Errorf("sales.presale_merkle_root: %w", err)
		}
	}

	switch c.Database.Backend {
	case "pebble", "leveldb", "memory":
	default:
		return fmt.Errorf("database.backend must be pebble, leveldb or memory, got %q", c.Database.Backend)
	}
	if c.Database.Backend != "memory" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the %s backend", c.Database.Backend)
	}

	switch c.Journal.Backend {
	case "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for the sqlite backend")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn is required for the postgres backend")
		}
	case "none":
	default:
		return fmt.Errorf("journal.backend must be sqlite, postgres or none, got %q", c.Journal.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	return nil
}

func validateWindow(name string, start, end int64) error {
	if start == 0 && end == 0 {
		return nil
	}
	if end <= start {
		return fmt.Errorf("%s window end %d must be after start %d", name, end, start)
	}
	return nil
}
