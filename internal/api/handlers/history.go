package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vantor-labs/repliq/internal/api"
	"github.com/vantor-labs/repliq/internal/domain"
)

// HistoryProvider returns recorded turns for a session, oldest first.
type HistoryProvider interface {
	History(sessionID string, n int) []domain.Turn
}

type HistoryHandler struct {
	svc HistoryProvider
}

func NewHistoryHandler(svc HistoryProvider) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type TurnResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Intent   string `json:"intent,omitempty"`
	AskedAt  string `json:"asked_at"`
}

type HistoryResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []TurnResponse `json:"turns"`
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	turns := h.svc.History(sessionID, limit)
	if len(turns) == 0 {
		api.HandleError(w, domain.ErrSessionNotFound)
		return
	}

	out := make([]TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = TurnResponse{
			Question: t.Question,
			Answer:   t.Answer,
			Intent:   t.Intent,
			AskedAt:  t.AskedAt.UTC().Format(time.RFC3339),
		}
	}

	api.Success(w, http.StatusOK, HistoryResponse{SessionID: sessionID, Turns: out})
}
