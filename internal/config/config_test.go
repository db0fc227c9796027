package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
)

const testOwner = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
const testFunds = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dropd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() string {
	return `
[drop]
name = "Test Drop"
symbol = "TEST"
metadata_uri = "ipfs://metadata"
initial_owner = "` + testOwner + `"
funds_recipient = "` + testFunds + `"
edition_size = 100
royalty_bps = 250
mint_fee = 2
mint_fee_recipient = "` + testFunds + `"

[sales]
public_sale_price = 10
max_sale_purchase_per_address = 4
public_sale_start = 1700000000
public_sale_end = 1800000000

[server]
port = 9000

[database]
backend = "memory"

[journal]
backend = "sqlite"
path = ":memory:"
`
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "Test Drop", cfg.Drop.Name)
	assert.Equal(t, uint64(100), cfg.Drop.EditionSize)
	assert.Equal(t, uint16(250), cfg.Drop.RoyaltyBPS)
	assert.Equal(t, path, cfg.GetConfigPath())

	// Defaults fill in what the file omits.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.WebsocketEnabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())

	params, err := cfg.EngineParams()
	require.NoError(t, err)
	assert.Equal(t, "Test Drop", params.Name)
	assert.Equal(t, amount.New(2), params.MintFee)
	assert.Equal(t, amount.New(10), params.Sales.PublicSalePrice)
	assert.False(t, params.EditionSize.IsOpen())
	cap, ok := params.EditionSize.Cap()
	require.True(t, ok)
	assert.Equal(t, uint64(100), cap)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, validConfig())
	t.Setenv("DROPD_SERVER_PORT", "7443")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7443, cfg.Server.Port)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{
			name: "royalty above cap",
			old:  "royalty_bps = 250",
			new:  "royalty_bps = 5001",
		},
		{
			name: "inverted public window",
			old:  "public_sale_end = 1800000000",
			new:  "public_sale_end = 1600000000",
		},
		{
			name: "bad database backend",
			old:  `backend = "memory"`,
			new:  `backend = "redis"`,
		},
		{
			name: "bad merkle root",
			old:  "public_sale_price = 10",
			new:  "public_sale_price = 10\npresale_merkle_root = \"0x1234\"",
		},
		{
			name: "bad owner address",
			old:  `initial_owner = "` + testOwner + `"`,
			new:  `initial_owner = "not-an-address"`,
		},
		{
			name: "port out of range",
			old:  "port = 9000",
			new:  "port = 99000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validConfig(), tt.old, tt.new, 1)
			require.NotEqual(t, validConfig(), content)

			path := writeConfig(t, content)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateOpenEdition(t *testing.T) {
	cfg := `
[drop]
name = "Open Drop"
symbol = "OPEN"
initial_owner = "` + testOwner + `"
funds_recipient = "` + testFunds + `"
open_edition = true

[database]
backend = "memory"

[journal]
backend = "none"
`
	path := writeConfig(t, cfg)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	params, err := loaded.EngineParams()
	require.NoError(t, err)
	assert.True(t, params.EditionSize.IsOpen())
}

func TestFeeRequiresRecipient(t *testing.T) {
	cfg := `
[drop]
name = "Drop"
symbol = "D"
initial_owner = "` + testOwner + `"
funds_recipient = "` + testFunds + `"
edition_size = 10
mint_fee = 5

[database]
backend = "memory"

[journal]
backend = "none"
`
	path := writeConfig(t, cfg)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
