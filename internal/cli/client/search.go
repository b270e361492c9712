package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	DetectedIntent string  `json:"detected_intent,omitempty"`
	IsProcedural   bool    `json:"is_procedural"`
	Department     string  `json:"department,omitempty"`
	Matches        []Match `json:"matches"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  "Ranks knowledge items against the query without generating an answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSearch(api, args[0], limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default: server setting)")

	return cmd
}

func runSearch(api *APIClient, query string, limit int, outputJSON bool) error {
	resp, err := api.Post("/api/v1/search", SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Matches) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Matches))
	for i, m := range searchResp.Matches {
		fmt.Printf("%d. %s (%.2f)\n", i+1, m.Question, m.FinalScore)
		fmt.Printf("   %s\n", truncate(m.Answer, 100))
		fmt.Printf("   Category: %s/%s", m.Category, m.SubCategory)
		if m.Intent != "" {
			fmt.Printf("  Intent: %s", m.Intent)
		}
		if m.Priority != "" {
			fmt.Printf("  Priority: %s", m.Priority)
		}
		fmt.Println()
		if i < len(searchResp.Matches)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}

// truncate shortens s to at most n runes, appending "..." when it cuts.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
