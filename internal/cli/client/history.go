package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// Turn represents one question and answer exchange in a session.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Intent   string `json:"intent,omitempty"`
	AskedAt  string `json:"asked_at"`
}

// HistoryResponse represents the session history API response.
type HistoryResponse struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show the conversation history of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runHistory(api, args[0], limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of turns to show")

	return cmd
}

func runHistory(api *APIClient, sessionID string, limit int, outputJSON bool) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/history?limit=%d", url.PathEscape(sessionID), limit)
	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	var histResp HistoryResponse
	if err := json.Unmarshal(resp.Data, &histResp); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(histResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for i, turn := range histResp.Turns {
		fmt.Printf("[%s] %s\n", turn.AskedAt, turn.Question)
		fmt.Printf("  %s\n", truncate(turn.Answer, 200))
		if i < len(histResp.Turns)-1 {
			fmt.Println()
		}
	}

	return nil
}
