package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vantor-labs/repliq/internal/cli"
	"github.com/vantor-labs/repliq/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repliqd",
		Short: "Repliq daemon and CLI",
		Long:  "Repliq daemon for running the API server and managing knowledge documents",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.KnowledgeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
