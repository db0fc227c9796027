package config

import "github.com/spf13/viper"

// setDefaults installs the built-in defaults, overridden by the config
// file and environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("drop.name", "Drop")
	v.SetDefault("drop.symbol", "DROP")
	v.SetDefault("drop.metadata_uri", "")
	v.SetDefault("drop.edition_size", 0)
	v.SetDefault("drop.open_edition", false)
	v.SetDefault("drop.royalty_bps", 0)
	v.SetDefault("drop.mint_fee", 0)
	v.SetDefault("drop.mint_fee_recipient", "")

	// Zeroed sale windows keep both phases inactive until configured.
	v.SetDefault("sales.public_sale_price", 0)
	v.SetDefault("sales.max_sale_purchase_per_address", 0)
	v.SetDefault("sales.public_sale_start", 0)
	v.SetDefault("sales.public_sale_end", 0)
	v.SetDefault("sales.presale_start", 0)
	v.SetDefault("sales.presale_end", 0)
	v.SetDefault("sales.presale_merkle_root", "")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7117)
	v.SetDefault("server.websocket_enabled", true)
	v.SetDefault("server.request_timeout", 30)

	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "dropdb")

	v.SetDefault("journal.backend", "sqlite")
	v.SetDefault("journal.path", "events.db")
	v.SetDefault("journal.dsn", "")
}
