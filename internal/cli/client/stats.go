package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// LoadReport represents the outcome of the last knowledge load.
type LoadReport struct {
	Source   string `json:"source"`
	Loaded   bool   `json:"loaded"`
	Items    int    `json:"items"`
	Skipped  int    `json:"skipped"`
	Embedded int    `json:"embedded"`
	Error    string `json:"error,omitempty"`
	LoadedAt string `json:"loaded_at"`
}

// Stats represents the knowledge base statistics.
type Stats struct {
	Loaded        bool       `json:"loaded"`
	Items         int        `json:"items"`
	Embedded      int        `json:"embedded"`
	Categories    int        `json:"categories"`
	SubCategories int        `json:"sub_categories"`
	Intents       int        `json:"intents"`
	Keywords      int        `json:"keywords"`
	LastLoad      LoadReport `json:"last_load"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runStats(api, outputJSON)
		},
	}

	return cmd
}

func runStats(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/api/v1/knowledge/stats")
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse stats: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if !stats.Loaded {
		fmt.Println("Knowledge base is not loaded.")
		if stats.LastLoad.Error != "" {
			fmt.Printf("Last load failed: %s\n", stats.LastLoad.Error)
		}
		return nil
	}

	fmt.Printf("Items: %d (%d with embeddings)\n", stats.Items, stats.Embedded)
	fmt.Printf("Categories: %d, sub-categories: %d\n", stats.Categories, stats.SubCategories)
	fmt.Printf("Intents: %d, keywords: %d\n", stats.Intents, stats.Keywords)
	fmt.Printf("Last load: %s from %s (%d skipped)\n", stats.LastLoad.LoadedAt, stats.LastLoad.Source, stats.LastLoad.Skipped)

	return nil
}
