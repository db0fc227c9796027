package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xHustling/ERC721-Drops/internal/config"
)

// inspectCmd validates the configuration and prints the resolved engine
// parameters without starting the server.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Validate and print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		params, err := cfg.EngineParams()
		if err != nil {
			return err
		}

		out := map[string]interface{}{
			"config_file":      cfg.GetConfigPath(),
			"name":             params.Name,
			"symbol":           params.Symbol,
			"metadata_uri":     params.MetadataURI,
			"initial_owner":    params.InitialOwner,
			"funds_recipient":  params.FundsRecipient,
			"edition_size":     params.EditionSize.String(),
			"royalty_bps":      params.RoyaltyBPS,
			"mint_fee":         params.MintFee,
			"sales":            params.Sales,
			"meta":             params.Meta,
			"listen_addr":      cfg.ListenAddr(),
			"database_backend": cfg.Database.Backend,
			"journal_backend":  cfg.Journal.Backend,
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
