package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/cmd/cardforge/commands"
	"github.com/harulab/cardforge/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cardforge",
	Short: "cardforge - game catalog lookups and card rendering",
	Long: `cardforge resolves natural-language queries against the game catalog and
renders the answers as cached card artifacts.

Available commands:
  search   - Resolve a query against the catalog
  card     - Build a card artifact for an operator
  glossary - Look up game terms
  alias    - Manage nickname aliases
  sync     - Update the gamedata from its git repository
  serve    - Serve cached card artifacts over HTTP
  mcp      - Run the MCP tool server on stdio

Examples:
  cardforge search 阿米娅
  cardforge card 阿米娅 --skill 2 --level 10 --format png
  cardforge glossary 攻击力,法术抗性
  cardforge alias add 兔兔 阿米娅
  cardforge sync`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetDebug()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.CardCmd)
	rootCmd.AddCommand(commands.GlossaryCmd)
	rootCmd.AddCommand(commands.AliasCmd)
	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
