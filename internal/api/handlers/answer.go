package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vantor-labs/repliq/internal/api"
	"github.com/vantor-labs/repliq/internal/domain"
)

// AnswerProvider runs the full question answering pipeline.
type AnswerProvider interface {
	Answer(ctx context.Context, query, sessionID string) (domain.AnswerResult, error)
}

type AnswerHandler struct {
	svc           AnswerProvider
	maxQueryChars int
}

func NewAnswerHandler(svc AnswerProvider, maxQueryChars int) *AnswerHandler {
	if maxQueryChars <= 0 {
		maxQueryChars = 1000
	}
	return &AnswerHandler{svc: svc, maxQueryChars: maxQueryChars}
}

type AnswerRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type BoostResponse struct {
	Keyword    float64 `json:"keyword"`
	Intent     float64 `json:"intent"`
	Category   float64 `json:"category"`
	Procedural float64 `json:"procedural"`
	Priority   float64 `json:"priority"`
	Continuity float64 `json:"continuity"`
	Total      float64 `json:"total"`
}

type MatchResponse struct {
	Index       int           `json:"index"`
	Question    string        `json:"question"`
	Answer      string        `json:"answer"`
	Category    string        `json:"category"`
	SubCategory string        `json:"sub_category"`
	Intent      string        `json:"intent,omitempty"`
	Priority    string        `json:"priority,omitempty"`
	BaseScore   float64       `json:"base_score"`
	FinalScore  float64       `json:"final_score"`
	Boosts      BoostResponse `json:"boosts"`
}

type RelatedResponse struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

type AnswerResponse struct {
	Answer         string            `json:"answer"`
	SessionID      string            `json:"session_id,omitempty"`
	Cached         bool              `json:"cached"`
	DetectedIntent string            `json:"detected_intent,omitempty"`
	IsProcedural   bool              `json:"is_procedural"`
	Department     string            `json:"department,omitempty"`
	ContextText    string            `json:"context_text,omitempty"`
	ContextUsed    bool              `json:"context_used"`
	Matches        []MatchResponse   `json:"matches"`
	RelatedContent []RelatedResponse `json:"related_content,omitempty"`
}

func matchToResponse(m domain.ScoredMatch) MatchResponse {
	return MatchResponse{
		Index:       m.Index,
		Question:    m.Item.Question,
		Answer:      m.Item.Answer,
		Category:    m.Item.Category,
		SubCategory: m.Item.SubCategory,
		Intent:      m.Item.Metadata.Intent,
		Priority:    string(m.Item.Metadata.Priority),
		BaseScore:   m.BaseScore,
		FinalScore:  m.FinalScore,
		Boosts: BoostResponse{
			Keyword:    m.Boosts.Keyword,
			Intent:     m.Boosts.Intent,
			Category:   m.Boosts.Category,
			Procedural: m.Boosts.Procedural,
			Priority:   m.Boosts.Priority,
			Continuity: m.Boosts.Continuity,
			Total:      m.Boosts.Total,
		},
	}
}

func answerToResponse(result domain.AnswerResult) AnswerResponse {
	matches := make([]MatchResponse, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = matchToResponse(m)
	}

	var related []RelatedResponse
	for _, r := range result.RelatedContent {
		related = append(related, RelatedResponse{
			Index:    r.Index,
			Question: r.Question,
			Answer:   r.Answer,
			Source:   r.Source,
		})
	}

	return AnswerResponse{
		Answer:         result.Answer,
		SessionID:      result.SessionID,
		Cached:         result.Cached,
		DetectedIntent: result.DetectedIntent,
		IsProcedural:   result.IsProcedural,
		Department:     result.Department,
		ContextText:    result.ContextText,
		ContextUsed:    result.ContextUsed,
		Matches:        matches,
		RelatedContent: related,
	}
}

func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query, err := sanitizeQuery(req.Query, h.maxQueryChars)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	// A caller without a session gets a fresh one so follow-up questions
	// can carry conversation context.
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.svc.Answer(r.Context(), query, sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answerToResponse(result))
}

// sanitizeQuery strips control runes, trims whitespace and enforces the
// rune length cap. Newlines and tabs survive so multi-line questions keep
// their shape.
func sanitizeQuery(raw string, maxChars int) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, raw)

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", domain.ErrEmptyQuery
	}
	if utf8.RuneCountInString(cleaned) > maxChars {
		return "", domain.ErrQueryTooLong
	}
	return cleaned, nil
}
