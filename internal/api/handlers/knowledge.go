package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vantor-labs/repliq/internal/api"
	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/knowledge"
	"github.com/vantor-labs/repliq/internal/pagination"
)

const (
	defaultItemsPerPage = 20
	maxItemsPerPage     = 100
)

// KnowledgeHandler exposes the operational surface of the knowledge store:
// stats, reload and item inspection. It talks to the store directly since
// the store is the in-memory source of truth.
type KnowledgeHandler struct {
	store  *knowledge.Store
	source knowledge.Source
}

func NewKnowledgeHandler(store *knowledge.Store, source knowledge.Source) *KnowledgeHandler {
	return &KnowledgeHandler{store: store, source: source}
}

func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.store.Stats())
}

// Reload re-fetches the knowledge document and swaps the store contents.
// A failed load degrades the store to unloaded; the outcome lands in the
// returned report either way, so the status is 200 for both.
func (h *KnowledgeHandler) Reload(w http.ResponseWriter, r *http.Request) {
	report := h.store.Load(r.Context(), h.source)
	api.Success(w, http.StatusOK, report)
}

type ItemResponse struct {
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

func itemToResponse(index int, item *domain.KnowledgeItem) ItemResponse {
	return ItemResponse{
		Index:        index,
		Question:     item.Question,
		Answer:       item.Answer,
		Category:     item.Category,
		SubCategory:  item.SubCategory,
		Intent:       item.Metadata.Intent,
		Priority:     string(item.Metadata.Priority),
		Keywords:     len(item.Metadata.Keywords),
		HasEmbedding: item.HasEmbedding(),
	}
}

// ListItems pages through the loaded items. Cursors embed the load
// timestamp, so a reload between pages invalidates outstanding cursors
// instead of silently shifting offsets.
func (h *KnowledgeHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	if !h.store.IsLoaded() {
		api.HandleError(w, domain.ErrNotLoaded)
		return
	}

	limit := defaultItemsPerPage
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxItemsPerPage {
		limit = maxItemsPerPage
	}

	loadedAt := h.store.LastReport().LoadedAt

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}
	offset, err := cursor.Resolve(loadedAt)
	if err != nil {
		if errors.Is(err, pagination.ErrStaleCursor) {
			api.Error(w, http.StatusBadRequest, "cursor is stale, the knowledge base was reloaded")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	items := h.store.Items()
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := make([]ItemResponse, 0, end-offset)
	for i := offset; i < end; i++ {
		page = append(page, itemToResponse(i, items[i]))
	}

	next := pagination.NextCursor(end, len(items), loadedAt)
	api.Success(w, http.StatusOK, pagination.PageResult[ItemResponse]{
		Items:   page,
		Cursor:  next,
		HasMore: next != "",
	})
}

// GetItem returns a single item by its load-order index.
func (h *KnowledgeHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	item := h.store.Item(index)
	if item == nil {
		api.HandleError(w, domain.ErrItemNotFound)
		return
	}

	api.Success(w, http.StatusOK, itemToResponse(index, item))
}
