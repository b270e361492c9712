package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vantor-labs/repliq/internal/api"
	"github.com/vantor-labs/repliq/internal/domain"
)

// MatchFinder runs retrieval and ranking without answer generation.
type MatchFinder interface {
	FindTopMatches(ctx context.Context, query string, limit int) (domain.EngineResult, error)
}

type SearchHandler struct {
	svc           MatchFinder
	maxQueryChars int
}

func NewSearchHandler(svc MatchFinder, maxQueryChars int) *SearchHandler {
	if maxQueryChars <= 0 {
		maxQueryChars = 1000
	}
	return &SearchHandler{svc: svc, maxQueryChars: maxQueryChars}
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	DetectedIntent string          `json:"detected_intent,omitempty"`
	IsProcedural   bool            `json:"is_procedural"`
	Department     string          `json:"department,omitempty"`
	Matches        []MatchResponse `json:"matches"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query, err := sanitizeQuery(req.Query, h.maxQueryChars)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.svc.FindTopMatches(r.Context(), query, req.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	matches := make([]MatchResponse, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = matchToResponse(m)
	}

	api.Success(w, http.StatusOK, SearchResponse{
		DetectedIntent: result.DetectedIntent,
		IsProcedural:   result.IsProcedural,
		Department:     result.Department,
		Matches:        matches,
	})
}
