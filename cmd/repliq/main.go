package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vantor-labs/repliq/internal/cli"
	"github.com/vantor-labs/repliq/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "repliq",
		Short: "Repliq CLI - Ask the customer support knowledge base",
		Long: `Repliq CLI talks to a repliqd server to answer customer questions
from its knowledge base.

Environment variables:
  REPLIQ_SERVER   Server address (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("server", "", "Server address (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.ItemsCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.ReloadCmd())
	rootCmd.AddCommand(client.HistoryCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
