package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vantor-labs/repliq/internal/api"
	"github.com/vantor-labs/repliq/internal/api/handlers"
	"github.com/vantor-labs/repliq/internal/api/middleware"
)

type RouterConfig struct {
	AnswerHandler    *handlers.AnswerHandler
	SearchHandler    *handlers.SearchHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	HistoryHandler   *handlers.HistoryHandler
	MaxBodyBytes     int64
	RateLimitRPS     float64
	RateLimitBurst   int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(cfg.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Per-client limiting covers the API surface only; health probes
	// must never be throttled.
	rl := middleware.NewRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rl.Handler)

		r.Post("/answer", cfg.AnswerHandler.Answer)
		r.Post("/search", cfg.SearchHandler.Search)

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/stats", cfg.KnowledgeHandler.Stats)
			r.Post("/reload", cfg.KnowledgeHandler.Reload)
			r.Get("/items", cfg.KnowledgeHandler.ListItems)
			r.Get("/items/{index}", cfg.KnowledgeHandler.GetItem)
		})

		r.Get("/sessions/{sessionID}/history", cfg.HistoryHandler.Get)
	})

	return r
}
