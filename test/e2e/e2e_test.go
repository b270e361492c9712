//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchResult struct {
	Index       int     `json:"index"`
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Intent      string  `json:"intent"`
	Priority    string  `json:"priority"`
	BaseScore   float64 `json:"base_score"`
	FinalScore  float64 `json:"final_score"`
	Boosts      struct {
		Keyword  float64 `json:"keyword"`
		Intent   float64 `json:"intent"`
		Priority float64 `json:"priority"`
		Total    float64 `json:"total"`
	} `json:"boosts"`
}

type answerResult struct {
	Answer         string        `json:"answer"`
	SessionID      string        `json:"session_id"`
	Cached         bool          `json:"cached"`
	DetectedIntent string        `json:"detected_intent"`
	IsProcedural   bool          `json:"is_procedural"`
	Department     string        `json:"department"`
	ContextText    string        `json:"context_text"`
	ContextUsed    bool          `json:"context_used"`
	Matches        []matchResult `json:"matches"`
	RelatedContent []struct {
		Index    int    `json:"index"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Source   string `json:"source"`
	} `json:"related_content"`
}

// TestE2E_AnswerFlow exercises the full answer pipeline from HTTP request
// to generated answer, including context assembly and the response cache
func TestE2E_AnswerFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var sessionID string

	t.Run("procedural question returns the top ranked answer", func(t *testing.T) {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query": "How to reset my password?",
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Equal(t, "Open the sign-in page, choose Forgot password and follow the link we email you.", result.Answer)
		assert.Equal(t, "account_recovery", result.DetectedIntent)
		assert.True(t, result.IsProcedural)
		assert.False(t, result.Cached)
		assert.True(t, result.ContextUsed)
		assert.NotEmpty(t, result.SessionID, "server should mint a session when the caller sends none")

		require.NotEmpty(t, result.Matches)
		top := result.Matches[0]
		assert.Equal(t, 0, top.Index)
		assert.Equal(t, "How do I reset my password?", top.Question)
		assert.InDelta(t, 1.0, top.BaseScore, 0.001)
		assert.Greater(t, top.Boosts.Total, 0.0)
		assert.GreaterOrEqual(t, top.FinalScore, top.BaseScore)

		sessionID = result.SessionID
	})

	t.Run("context block carries the matched items", func(t *testing.T) {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query": "How to change my password safely?",
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Contains(t, result.ContextText, "Q: How do I reset my password?")
		assert.Contains(t, result.ContextText, "intent: account_recovery")
		assert.Contains(t, result.ContextText, "Related information:")
	})

	t.Run("procedural question pulls related content from the category", func(t *testing.T) {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query":      "What are the steps to reset a password?",
			"session_id": sessionID,
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Equal(t, sessionID, result.SessionID)
		require.NotEmpty(t, result.RelatedContent)
		assert.Equal(t, "How do I enable two-factor authentication?", result.RelatedContent[0].Question)
		assert.Equal(t, "category", result.RelatedContent[0].Source)
	})

	t.Run("same question again is served from the cache", func(t *testing.T) {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query":      "How to reset my password?",
			"session_id": sessionID,
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.True(t, result.Cached)
		assert.Equal(t, "Open the sign-in page, choose Forgot password and follow the link we email you.", result.Answer)
		assert.Equal(t, sessionID, result.SessionID)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := env.Post("/api/v1/answer", map[string]string{"query": "   "})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 400")
	})
}

// TestE2E_SearchFlow exercises ranked retrieval without answer generation
func TestE2E_SearchFlow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("search returns scored matches with boost breakdown", func(t *testing.T) {
		resp, err := env.Post("/api/v1/search", map[string]interface{}{
			"query": "I want to cancel my subscription",
		})
		require.NoError(t, err)

		var result struct {
			DetectedIntent string        `json:"detected_intent"`
			IsProcedural   bool          `json:"is_procedural"`
			Matches        []matchResult `json:"matches"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Equal(t, "cancel_service", result.DetectedIntent)
		assert.False(t, result.IsProcedural)

		require.NotEmpty(t, result.Matches)
		top := result.Matches[0]
		assert.Equal(t, 2, top.Index)
		assert.Equal(t, "How do I cancel my subscription?", top.Question)
		assert.Equal(t, "billing", top.Category)
		assert.Equal(t, "cancel_service", top.Intent)
		assert.InDelta(t, 1.0, top.BaseScore, 0.001)
		assert.InDelta(t, 0.2, top.Boosts.Keyword, 0.001)
		assert.InDelta(t, 0.2, top.Boosts.Intent, 0.001)
		assert.InDelta(t, 0.2, top.Boosts.Priority, 0.001)
		assert.InDelta(t, 1.0, top.FinalScore, 0.001)
	})

	t.Run("limit bounds the match list", func(t *testing.T) {
		resp, err := env.Post("/api/v1/search", map[string]interface{}{
			"query": "please cancel my plan entirely",
			"limit": 1,
		})
		require.NoError(t, err)

		var result struct {
			Matches []matchResult `json:"matches"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Len(t, result.Matches, 1)
	})

	t.Run("missing query is rejected", func(t *testing.T) {
		_, err := env.Post("/api/v1/search", map[string]interface{}{"limit": 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 400")
	})
}

// TestE2E_KnowledgeLifecycle covers stats, item listing with cursor
// pagination, item lookup and reload against a live S3 source
func TestE2E_KnowledgeLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("stats reflect the loaded document", func(t *testing.T) {
		resp, err := env.Get("/api/v1/knowledge/stats")
		require.NoError(t, err)

		var stats struct {
			Loaded        bool `json:"loaded"`
			Items         int  `json:"items"`
			Embedded      int  `json:"embedded"`
			Categories    int  `json:"categories"`
			SubCategories int  `json:"sub_categories"`
			Intents       int  `json:"intents"`
			Keywords      int  `json:"keywords"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &stats))

		assert.True(t, stats.Loaded)
		assert.Equal(t, 4, stats.Items)
		assert.Equal(t, 4, stats.Embedded)
		assert.Equal(t, 3, stats.Categories)
		assert.Equal(t, 3, stats.SubCategories)
		assert.Equal(t, 4, stats.Intents)
		assert.Equal(t, 8, stats.Keywords)
	})

	var cursor string

	t.Run("list items returns the first page", func(t *testing.T) {
		resp, err := env.Get("/api/v1/knowledge/items?limit=2")
		require.NoError(t, err)

		var page struct {
			Items []struct {
				Index        int    `json:"index"`
				Question     string `json:"question"`
				HasEmbedding bool   `json:"has_embedding"`
			} `json:"items"`
			Cursor  string `json:"cursor"`
			HasMore bool   `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))

		require.Len(t, page.Items, 2)
		assert.Equal(t, 0, page.Items[0].Index)
		assert.Equal(t, "How do I reset my password?", page.Items[0].Question)
		assert.True(t, page.Items[0].HasEmbedding)
		assert.True(t, page.HasMore)
		assert.NotEmpty(t, page.Cursor)

		cursor = page.Cursor
	})

	t.Run("cursor fetches the remaining page", func(t *testing.T) {
		resp, err := env.Get("/api/v1/knowledge/items?limit=2&cursor=" + cursor)
		require.NoError(t, err)

		var page struct {
			Items []struct {
				Index int `json:"index"`
			} `json:"items"`
			HasMore bool `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &page))

		require.Len(t, page.Items, 2)
		assert.Equal(t, 2, page.Items[0].Index)
		assert.Equal(t, 3, page.Items[1].Index)
		assert.False(t, page.HasMore)
	})

	t.Run("get item by index", func(t *testing.T) {
		resp, err := env.Get("/api/v1/knowledge/items/2")
		require.NoError(t, err)

		var item struct {
			Index    int    `json:"index"`
			Question string `json:"question"`
			Category string `json:"category"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &item))

		assert.Equal(t, 2, item.Index)
		assert.Equal(t, "How do I cancel my subscription?", item.Question)
		assert.Equal(t, "billing", item.Category)
	})

	t.Run("get item out of range returns 404", func(t *testing.T) {
		_, err := env.Get("/api/v1/knowledge/items/99")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("reload reports the document it read", func(t *testing.T) {
		resp, err := env.Post("/api/v1/knowledge/reload", nil)
		require.NoError(t, err)

		var report struct {
			Source   string `json:"source"`
			Loaded   bool   `json:"loaded"`
			Items    int    `json:"items"`
			Embedded int    `json:"embedded"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &report))

		assert.True(t, report.Loaded)
		assert.Equal(t, 4, report.Items)
		assert.Equal(t, 4, report.Embedded)
		assert.Equal(t, fmt.Sprintf("s3://%s/%s", knowledgeBucket, knowledgeKey), report.Source)
	})
}

// TestE2E_SessionHistory verifies that answered questions accumulate per
// session and can be read back in order
func TestE2E_SessionHistory(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	const session = "e2e-history-session"

	ask := func(t *testing.T, query string) answerResult {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query":      query,
			"session_id": session,
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		return result
	}

	t.Run("turns accumulate in ask order", func(t *testing.T) {
		first := ask(t, "I forgot my password, what should I do?")
		assert.Equal(t, session, first.SessionID)
		assert.Equal(t, "Open the sign-in page, choose Forgot password and follow the link we email you.", first.Answer)

		second := ask(t, "Where is my order right now?")
		assert.Equal(t, "Track your parcel from the Orders page using the tracking number in your confirmation email.", second.Answer)

		resp, err := env.Get("/api/v1/sessions/" + session + "/history")
		require.NoError(t, err)

		var hist struct {
			SessionID string `json:"session_id"`
			Turns     []struct {
				Question string `json:"question"`
				Answer   string `json:"answer"`
				Intent   string `json:"intent"`
				AskedAt  string `json:"asked_at"`
			} `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &hist))

		assert.Equal(t, session, hist.SessionID)
		require.Len(t, hist.Turns, 2)
		assert.Equal(t, "I forgot my password, what should I do?", hist.Turns[0].Question)
		assert.Equal(t, "account_recovery", hist.Turns[0].Intent)
		assert.Equal(t, "Where is my order right now?", hist.Turns[1].Question)
		assert.Equal(t, "shipping_status", hist.Turns[1].Intent)
		assert.NotEmpty(t, hist.Turns[0].AskedAt)
	})

	t.Run("cache hits still record a turn", func(t *testing.T) {
		repeat := ask(t, "I forgot my password, what should I do?")
		assert.True(t, repeat.Cached)

		resp, err := env.Get("/api/v1/sessions/" + session + "/history")
		require.NoError(t, err)

		var hist struct {
			Turns []struct {
				Question string `json:"question"`
			} `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &hist))

		require.Len(t, hist.Turns, 3)
		assert.Equal(t, "I forgot my password, what should I do?", hist.Turns[2].Question)
	})

	t.Run("limit returns only the most recent turns", func(t *testing.T) {
		resp, err := env.Get("/api/v1/sessions/" + session + "/history?limit=1")
		require.NoError(t, err)

		var hist struct {
			Turns []struct {
				Question string `json:"question"`
			} `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &hist))

		require.Len(t, hist.Turns, 1)
		assert.Equal(t, "I forgot my password, what should I do?", hist.Turns[0].Question)
	})

	t.Run("unknown session returns 404", func(t *testing.T) {
		_, err := env.Get("/api/v1/sessions/never-used/history")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})
}

// TestE2E_DegradedKnowledge verifies the server keeps answering when the
// stored document breaks and recovers after it is fixed
func TestE2E_DegradedKnowledge(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	t.Run("corrupt document degrades the reload", func(t *testing.T) {
		require.NoError(t, env.S3Client.Upload(env.Ctx, knowledgeKey, []byte(`{"items":`), "application/json"))

		resp, err := env.Post("/api/v1/knowledge/reload", nil)
		require.NoError(t, err)

		var report struct {
			Loaded bool   `json:"loaded"`
			Items  int    `json:"items"`
			Error  string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &report))

		assert.False(t, report.Loaded)
		assert.Zero(t, report.Items)
		assert.NotEmpty(t, report.Error)
	})

	t.Run("unloaded store falls back instead of failing", func(t *testing.T) {
		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query": "Help, I still cannot reset my password",
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Contains(t, result.Answer, "couldn't find anything")
		assert.Contains(t, result.Answer, "support team")
		assert.Equal(t, "support", result.Department)
		assert.Equal(t, "account_recovery", result.DetectedIntent)
		assert.Empty(t, result.Matches)
		assert.False(t, result.ContextUsed)
		assert.False(t, result.Cached)
	})

	t.Run("restored document recovers the pipeline", func(t *testing.T) {
		env.ResetKnowledge(knowledgeDoc)

		resp, err := env.Post("/api/v1/answer", map[string]string{
			"query": "Help, I still cannot reset my password",
		})
		require.NoError(t, err)

		var result answerResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))

		assert.Equal(t, "Open the sign-in page, choose Forgot password and follow the link we email you.", result.Answer)
		require.NotEmpty(t, result.Matches)
		assert.Equal(t, 0, result.Matches[0].Index)
		assert.False(t, result.Cached)
	})
}
