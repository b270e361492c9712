package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ReloadCmd creates the reload command.
func ReloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload the knowledge base from its source",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runReload(api, outputJSON)
		},
	}

	return cmd
}

func runReload(api *APIClient, outputJSON bool) error {
	resp, err := api.Post("/api/v1/knowledge/reload", nil)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	var report LoadReport
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		return fmt.Errorf("failed to parse reload report: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		if !report.Loaded {
			return fmt.Errorf("reload failed")
		}
		return nil
	}

	if !report.Loaded {
		return fmt.Errorf("reload failed: %s", report.Error)
	}

	fmt.Printf("Reloaded %d items (%d with embeddings, %d skipped) from %s\n",
		report.Items, report.Embedded, report.Skipped, report.Source)

	return nil
}
