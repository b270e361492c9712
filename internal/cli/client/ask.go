package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the answer API request.
type AskRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// BoostDetail represents the per-signal score bonuses of a match.
type BoostDetail struct {
	Keyword    float64 `json:"keyword"`
	Intent     float64 `json:"intent"`
	Category   float64 `json:"category"`
	Procedural float64 `json:"procedural"`
	Priority   float64 `json:"priority"`
	Continuity float64 `json:"continuity"`
	Total      float64 `json:"total"`
}

// Match represents a ranked knowledge match.
type Match struct {
	Index       int         `json:"index"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Category    string      `json:"category"`
	SubCategory string      `json:"sub_category"`
	Intent      string      `json:"intent,omitempty"`
	Priority    string      `json:"priority,omitempty"`
	BaseScore   float64     `json:"base_score"`
	FinalScore  float64     `json:"final_score"`
	Boosts      BoostDetail `json:"boosts"`
}

// RelatedItem represents a supplementary knowledge item attached to an answer.
type RelatedItem struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// AskResponse represents the answer API response.
type AskResponse struct {
	Answer         string        `json:"answer"`
	SessionID      string        `json:"session_id,omitempty"`
	Cached         bool          `json:"cached"`
	DetectedIntent string        `json:"detected_intent,omitempty"`
	IsProcedural   bool          `json:"is_procedural"`
	Department     string        `json:"department,omitempty"`
	ContextText    string        `json:"context_text,omitempty"`
	ContextUsed    bool          `json:"context_used"`
	Matches        []Match       `json:"matches"`
	RelatedContent []RelatedItem `json:"related_content,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		sessionID   string
		showMatches bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the knowledge base a question",
		Long:  "Sends a question to the server and prints the generated answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAsk(api, args[0], sessionID, showMatches, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue a conversation")
	cmd.Flags().BoolVar(&showMatches, "show-matches", false, "Print the matched items and their scores")

	return cmd
}

func runAsk(api *APIClient, query, sessionID string, showMatches, outputJSON bool) error {
	resp, err := api.Post("/api/v1/answer", AskRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)

	var meta []string
	if askResp.DetectedIntent != "" {
		meta = append(meta, "intent: "+askResp.DetectedIntent)
	}
	if askResp.Department != "" {
		meta = append(meta, "department: "+askResp.Department)
	}
	if askResp.Cached {
		meta = append(meta, "cached")
	}
	if len(meta) > 0 {
		fmt.Printf("\n[%s]\n", strings.Join(meta, " | "))
	}

	if showMatches && len(askResp.Matches) > 0 {
		fmt.Println()
		for i, m := range askResp.Matches {
			fmt.Printf("%d. %s (%.2f)\n", i+1, m.Question, m.FinalScore)
			fmt.Printf("   %s/%s", m.Category, m.SubCategory)
			if m.Intent != "" {
				fmt.Printf("  intent=%s", m.Intent)
			}
			fmt.Println()
		}
	}

	if len(askResp.RelatedContent) > 0 {
		fmt.Println("\nRelated:")
		for _, r := range askResp.RelatedContent {
			fmt.Printf("  - %s\n", r.Question)
		}
	}

	if askResp.SessionID != "" && sessionID == "" {
		fmt.Printf("\nSession: %s (pass --session to continue this conversation)\n", askResp.SessionID)
	}

	return nil
}
