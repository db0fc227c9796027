package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xHustling/ERC721-Drops/internal/core/allowlist"
	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/types"
)

// allowlistCmd builds the presale commitment from a claims file and
// prints the root plus one proof per claim. The output root goes into
// sales.presale_merkle_root; each claimant gets their own proof.
var allowlistCmd = &cobra.Command{
	Use:   "allowlist <claims.json>",
	Short: "Build the presale allow-list commitment",
	Long: `Build the presale Merkle commitment from a JSON claims file:

  [{"address": "0x...", "max_allowance": 3, "price": 10}, ...]

Prints the root and the proof for every claim.`,
	Args: cobra.ExactArgs(1),
	RunE: runAllowlist,
}

func init() {
	rootCmd.AddCommand(allowlistCmd)
}

type claimFileEntry struct {
	Address      types.Address `json:"address"`
	MaxAllowance uint64        `json:"max_allowance"`
	Price        uint64        `json:"price"`
}

type claimOutput struct {
	Address      types.Address `json:"address"`
	MaxAllowance uint64        `json:"max_allowance"`
	Price        uint64        `json:"price"`
	Proof        []string      `json:"proof"`
}

func runAllowlist(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read claims file: %w", err)
	}

	var claims []claimFileEntry
	if err := json.Unmarshal(raw, &claims); err != nil {
		return fmt.Errorf("failed to parse claims file: %w", err)
	}

	entries := make([]allowlist.Entry, len(claims))
	for i, c := range claims {
		entries[i] = allowlist.Entry{
			Address:      c.Address,
			MaxAllowance: c.MaxAllowance,
			Price:        amount.New(c.Price),
		}
	}

	tree, err := allowlist.NewTree(entries)
	if err != nil {
		return err
	}

	root := tree.Root()
	out := struct {
		Root   string        `json:"root"`
		Claims []claimOutput `json:"claims"`
	}{
		Root: "0x" + hex.EncodeToString(root[:]),
	}

	for i, e := range tree.Entries() {
		proof, err := tree.Proof(i)
		if err != nil {
			return err
		}
		encoded := make([]string, len(proof))
		for j, node := range proof {
			encoded[j] = "0x" + hex.EncodeToString(node[:])
		}
		out.Claims = append(out.Claims, claimOutput{
			Address:      e.Address,
			MaxAllowance: e.MaxAllowance,
			Price:        e.Price.Wei(),
			Proof:        encoded,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
