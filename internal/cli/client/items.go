package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Item represents a knowledge item as listed by the API.
type Item struct {
	Index        int    `json:"index"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	Intent       string `json:"intent,omitempty"`
	Priority     string `json:"priority,omitempty"`
	Keywords     int    `json:"keywords"`
	HasEmbedding bool   `json:"has_embedding"`
}

// ItemsResponse represents one page of knowledge items.
type ItemsResponse struct {
	Items   []Item `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// ItemsCmd creates the items command.
func ItemsCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:     "items",
		Short:   "List loaded knowledge items",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runItems(api, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of items per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runItems(api *APIClient, limit int, cursor string, outputJSON bool) error {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	resp, err := api.Get("/api/v1/knowledge/items?" + params.Encode())
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	var itemsResp ItemsResponse
	if err := json.Unmarshal(resp.Data, &itemsResp); err != nil {
		return fmt.Errorf("failed to parse items: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(itemsResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(itemsResp.Items) == 0 {
		fmt.Println("No items loaded.")
		return nil
	}

	for _, item := range itemsResp.Items {
		embedded := " "
		if item.HasEmbedding {
			embedded = "*"
		}
		fmt.Printf("%4d %s %s\n", item.Index, embedded, truncate(item.Question, 70))
		fmt.Printf("       %s/%s", item.Category, item.SubCategory)
		if item.Intent != "" {
			fmt.Printf("  intent=%s", item.Intent)
		}
		if item.Priority != "" {
			fmt.Printf("  priority=%s", item.Priority)
		}
		fmt.Println()
	}

	if itemsResp.HasMore && itemsResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More items available. Use --cursor %s\n", itemsResp.Cursor)
	}

	return nil
}
