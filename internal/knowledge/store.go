// Package knowledge holds the in-memory knowledge base: loading from a
// source, precomputed magnitudes, and the secondary indexes the scoring
// pipeline reads.
package knowledge

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/telemetry"
	"github.com/vantor-labs/repliq/internal/vecmath"
)

// LoadReport describes the outcome of one Load call. It is the side-channel
// record of a load; failures land here instead of propagating to callers.
type LoadReport struct {
	Source   string    `json:"source"`
	Loaded   bool      `json:"loaded"`
	Items    int       `json:"items"`
	Skipped  int       `json:"skipped"`
	Embedded int       `json:"embedded"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// snapshot is an immutable view of the knowledge base. A load builds a
// complete snapshot off to the side and swaps it in under the write lock,
// so readers never observe half-built indexes.
type snapshot struct {
	items            []*domain.KnowledgeItem
	magnitudes       []float64
	keywordIndex     map[string][]int
	intentIndex      map[string][]int
	categoryIndex    map[string][]int
	subCategoryIndex map[string][]int
}

// Store owns the knowledge items and all derived state for its lifetime.
// It is read-only between loads and safe for unlimited concurrent readers.
type Store struct {
	mu         sync.RWMutex
	snap       *snapshot
	lastReport LoadReport
}

// NewStore creates an empty, unloaded Store
func NewStore() *Store {
	return &Store{}
}

// Load reads a knowledge document from source and replaces the store
// contents. It never propagates failure to the caller: on any error the
// store resets to the unloaded state, the condition is logged and captured,
// and the returned report carries the detail. Matching then degrades to
// "no results" instead of crashing the process.
func (s *Store) Load(ctx context.Context, source Source) LoadReport {
	report := LoadReport{
		Source:   source.Name(),
		LoadedAt: time.Now().UTC(),
	}

	ctx, span := telemetry.StartSpan(ctx, "Store.Load", telemetry.SpanAttributes{
		Source:    report.Source,
		Operation: "load",
	})
	defer span.End()

	data, err := source.Fetch(ctx)
	if err != nil {
		return s.failLoad(ctx, report, fmt.Errorf("fetch: %w", err))
	}

	items, skipped, err := parseItems(data)
	if err != nil {
		return s.failLoad(ctx, report, fmt.Errorf("parse: %w", err))
	}
	if len(items) == 0 {
		return s.failLoad(ctx, report, fmt.Errorf("no usable knowledge items in %s", source.Name()))
	}

	snap := buildSnapshot(items)

	report.Loaded = true
	report.Items = len(items)
	report.Skipped = skipped
	for _, mag := range snap.magnitudes {
		if mag > 0 {
			report.Embedded++
		}
	}

	s.mu.Lock()
	s.snap = snap
	s.lastReport = report
	s.mu.Unlock()

	log.Printf("[knowledge] loaded %d items (%d embedded, %d skipped) from %s",
		report.Items, report.Embedded, report.Skipped, report.Source)
	return report
}

// failLoad resets the store to unloaded and reports through the side channel
func (s *Store) failLoad(ctx context.Context, report LoadReport, err error) LoadReport {
	report.Loaded = false
	report.Error = err.Error()

	log.Printf("[knowledge] load failed for %s: %v", report.Source, err)
	telemetry.CaptureError(ctx, fmt.Errorf("knowledge load failed for %s: %w", report.Source, err))

	s.mu.Lock()
	s.snap = nil
	s.lastReport = report
	s.mu.Unlock()

	return report
}

// buildSnapshot computes magnitudes and rebuilds all four indexes from
// scratch. Indexes are never patched incrementally.
func buildSnapshot(items []*domain.KnowledgeItem) *snapshot {
	snap := &snapshot{
		items:            items,
		magnitudes:       make([]float64, len(items)),
		keywordIndex:     make(map[string][]int),
		intentIndex:      make(map[string][]int),
		categoryIndex:    make(map[string][]int),
		subCategoryIndex: make(map[string][]int),
	}

	for i, item := range items {
		if item.HasEmbedding() {
			snap.magnitudes[i] = vecmath.Magnitude(item.Embedding)
		}

		for _, kw := range item.Metadata.Keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" {
				continue
			}
			snap.keywordIndex[key] = append(snap.keywordIndex[key], i)
		}
		if item.Metadata.Intent != "" {
			snap.intentIndex[item.Metadata.Intent] = append(snap.intentIndex[item.Metadata.Intent], i)
		}
		snap.categoryIndex[item.Category] = append(snap.categoryIndex[item.Category], i)
		snap.subCategoryIndex[item.SubCategory] = append(snap.subCategoryIndex[item.SubCategory], i)
	}

	return snap
}

// IsLoaded is the single source of truth for whether matching is possible
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil
}

// LastReport returns the report of the most recent Load call
func (s *Store) LastReport() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// Len returns the number of loaded items
func (s *Store) Len() int {
	if snap := s.snapshot(); snap != nil {
		return len(snap.items)
	}
	return 0
}

// Items returns the loaded items in source order. The slice and the items
// are owned by the store and must not be mutated.
func (s *Store) Items() []*domain.KnowledgeItem {
	if snap := s.snapshot(); snap != nil {
		return snap.items
	}
	return nil
}

// Item returns the item at index i, or nil when out of range or unloaded
func (s *Store) Item(i int) *domain.KnowledgeItem {
	snap := s.snapshot()
	if snap == nil || i < 0 || i >= len(snap.items) {
		return nil
	}
	return snap.items[i]
}

// Magnitude returns the precomputed embedding magnitude of item i
func (s *Store) Magnitude(i int) float64 {
	snap := s.snapshot()
	if snap == nil || i < 0 || i >= len(snap.magnitudes) {
		return 0
	}
	return snap.magnitudes[i]
}

// ByKeyword returns the indexes of items tagged with the given keyword
func (s *Store) ByKeyword(keyword string) []int {
	if snap := s.snapshot(); snap != nil {
		return snap.keywordIndex[strings.ToLower(strings.TrimSpace(keyword))]
	}
	return nil
}

// ByIntent returns the indexes of items tagged with the given intent
func (s *Store) ByIntent(intent string) []int {
	if snap := s.snapshot(); snap != nil {
		return snap.intentIndex[intent]
	}
	return nil
}

// ByCategory returns the indexes of items in the given category
func (s *Store) ByCategory(category string) []int {
	if snap := s.snapshot(); snap != nil {
		return snap.categoryIndex[category]
	}
	return nil
}

// BySubCategory returns the indexes of items in the given sub-category
func (s *Store) BySubCategory(subCategory string) []int {
	if snap := s.snapshot(); snap != nil {
		return snap.subCategoryIndex[subCategory]
	}
	return nil
}

// Stats summarizes the loaded knowledge base for operational endpoints
type Stats struct {
	Loaded        bool       `json:"loaded"`
	Items         int        `json:"items"`
	Embedded      int        `json:"embedded"`
	Categories    int        `json:"categories"`
	SubCategories int        `json:"sub_categories"`
	Intents       int        `json:"intents"`
	Keywords      int        `json:"keywords"`
	LastLoad      LoadReport `json:"last_load"`
}

// Stats returns a summary of the current snapshot
func (s *Store) Stats() Stats {
	s.mu.RLock()
	snap := s.snap
	report := s.lastReport
	s.mu.RUnlock()

	stats := Stats{LastLoad: report}
	if snap == nil {
		return stats
	}

	stats.Loaded = true
	stats.Items = len(snap.items)
	stats.Embedded = report.Embedded
	stats.Categories = len(snap.categoryIndex)
	stats.SubCategories = len(snap.subCategoryIndex)
	stats.Intents = len(snap.intentIndex)
	stats.Keywords = len(snap.keywordIndex)
	return stats
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
