// Package service implements the retrieval-and-ranking engine: scoring,
// ranking, context assembly, and the answer pipeline that ties them to the
// knowledge store, the response cache, and the two providers.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vantor-labs/repliq/internal/cache"
	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/history"
	"github.com/vantor-labs/repliq/internal/knowledge"
	"github.com/vantor-labs/repliq/internal/query"
	"github.com/vantor-labs/repliq/internal/telemetry"
)

// EmbeddingProvider defines the interface for turning query text into a
// vector
type EmbeddingProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// GenerationRequest carries everything the text generator needs for one
// answer
type GenerationRequest struct {
	Query        string
	ContextText  string
	TopAnswer    string
	Department   string
	IsProcedural bool
}

// GenerationProvider defines the interface for producing answer text from
// an assembled context
type GenerationProvider interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// AnswerServiceConfig collects the tunable policy of the answer pipeline
type AnswerServiceConfig struct {
	Ranker    RankerConfig
	Assembler AssemblerConfig
	Weights   BoostWeights
	// Contacts maps a detected department to its contact line, used when no
	// knowledge matches the query
	Contacts map[string]string
}

// DefaultAnswerServiceConfig returns the stock pipeline policy
func DefaultAnswerServiceConfig() AnswerServiceConfig {
	return AnswerServiceConfig{
		Ranker:    DefaultRankerConfig(),
		Assembler: DefaultAssemblerConfig(),
		Weights:   DefaultBoostWeights(),
	}
}

// AnswerService owns the full answer pipeline for one knowledge base. It is
// constructed once at startup and shared by all request handlers; the store
// is read-only between loads and the cache carries its own lock, so the
// service itself holds no mutable state.
type AnswerService struct {
	store     *knowledge.Store
	cache     *cache.ResponseCache
	history   *history.Store
	analyzer  *query.Analyzer
	scorer    *Scorer
	ranker    *Ranker
	assembler *Assembler
	embedder  EmbeddingProvider
	generator GenerationProvider
	cfg       AnswerServiceConfig
}

// NewAnswerService creates an AnswerService with the default configuration
func NewAnswerService(
	store *knowledge.Store,
	responseCache *cache.ResponseCache,
	embedder EmbeddingProvider,
	generator GenerationProvider,
) *AnswerService {
	return NewAnswerServiceWithHistory(store, responseCache, nil, embedder, generator, DefaultAnswerServiceConfig())
}

// NewAnswerServiceWithConfig creates an AnswerService with explicit
// configuration
func NewAnswerServiceWithConfig(
	store *knowledge.Store,
	responseCache *cache.ResponseCache,
	embedder EmbeddingProvider,
	generator GenerationProvider,
	cfg AnswerServiceConfig,
) *AnswerService {
	return NewAnswerServiceWithHistory(store, responseCache, nil, embedder, generator, cfg)
}

// NewAnswerServiceWithHistory creates an AnswerService that also records
// session turns and can apply the continuity boost
func NewAnswerServiceWithHistory(
	store *knowledge.Store,
	responseCache *cache.ResponseCache,
	sessions *history.Store,
	embedder EmbeddingProvider,
	generator GenerationProvider,
	cfg AnswerServiceConfig,
) *AnswerService {
	return &AnswerService{
		store:     store,
		cache:     responseCache,
		history:   sessions,
		analyzer:  query.NewAnalyzer(),
		scorer:    NewScorer(cfg.Weights),
		ranker:    NewRanker(cfg.Ranker),
		assembler: NewAssembler(cfg.Assembler),
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer runs the full pipeline for one query: cache lookup, analysis,
// embedding, scoring, ranking, assembly, generation. Only successful
// answers with at least one match are cached; provider failures propagate
// typed and are never cached.
func (s *AnswerService) Answer(ctx context.Context, rawQuery, sessionID string) (domain.AnswerResult, error) {
	queryText := strings.TrimSpace(rawQuery)
	if queryText == "" {
		return domain.AnswerResult{}, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "answer",
	})
	defer span.End()

	if s.cache != nil {
		if hit, ok := s.cache.Get(queryText); ok {
			hit.Cached = true
			hit.SessionID = sessionID
			s.recordTurn(sessionID, queryText, hit.Answer, hit.DetectedIntent)
			return hit, nil
		}
	}

	analysis := s.analyzer.Analyze(queryText)
	result := domain.AnswerResult{
		EngineResult: domain.EngineResult{
			DetectedIntent: analysis.Intent,
			IsProcedural:   analysis.IsProcedural,
			Department:     analysis.Department,
		},
		SessionID: sessionID,
	}

	if !s.store.IsLoaded() {
		result.Answer = s.fallbackAnswer(analysis)
		s.recordTurn(sessionID, queryText, result.Answer, analysis.Intent)
		return result, nil
	}

	embedding, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		span.SetError(err)
		return domain.AnswerResult{}, fmt.Errorf("embed query: %w", err)
	}

	ranked := s.ranker.Rank(s.scoreAll(embedding, analysis, s.sessionIntents(sessionID)), analysis.IsProcedural)
	contextText, related, contextUsed := s.assembler.Assemble(s.store, ranked, analysis)

	result.Matches = ranked
	result.ContextText = contextText
	result.RelatedContent = related
	result.ContextUsed = contextUsed

	if len(ranked) == 0 {
		result.Answer = s.fallbackAnswer(analysis)
		s.recordTurn(sessionID, queryText, result.Answer, analysis.Intent)
		return result, nil
	}

	answer, err := s.generator.Generate(ctx, GenerationRequest{
		Query:        queryText,
		ContextText:  contextText,
		TopAnswer:    ranked[0].Item.Answer,
		Department:   analysis.Department,
		IsProcedural: analysis.IsProcedural,
	})
	if err != nil {
		span.SetError(err)
		return domain.AnswerResult{}, fmt.Errorf("generate answer: %w", err)
	}

	result.Answer = answer
	s.recordTurn(sessionID, queryText, answer, analysis.Intent)

	if s.cache != nil {
		s.cache.Set(queryText, result)
	}
	return result, nil
}

// FindTopMatches runs retrieval only: no generation, no cache write. A
// limit of zero keeps the configured maximum. An unloaded store yields an
// empty result, never an error.
func (s *AnswerService) FindTopMatches(ctx context.Context, rawQuery string, limit int) (domain.EngineResult, error) {
	queryText := strings.TrimSpace(rawQuery)
	if queryText == "" {
		return domain.EngineResult{}, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.FindTopMatches", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	analysis := s.analyzer.Analyze(queryText)
	result := domain.EngineResult{
		DetectedIntent: analysis.Intent,
		IsProcedural:   analysis.IsProcedural,
		Department:     analysis.Department,
	}

	if !s.store.IsLoaded() {
		result.Matches = []domain.ScoredMatch{}
		return result, nil
	}

	embedding, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		span.SetError(err)
		return domain.EngineResult{}, fmt.Errorf("embed query: %w", err)
	}

	ranker := s.ranker
	if limit > 0 {
		cfg := s.cfg.Ranker
		cfg.MaxItems = limit
		ranker = NewRanker(cfg)
	}

	result.Matches = ranker.Rank(s.scoreAll(embedding, analysis, nil), analysis.IsProcedural)
	return result, nil
}

// scoreAll scores every loaded item. Items without an embedding come back
// at -1 and fall to the threshold filter.
func (s *AnswerService) scoreAll(
	embedding []float64,
	analysis domain.QueryAnalysis,
	sessionIntents map[string]struct{},
) []domain.ScoredMatch {
	items := s.store.Items()
	matches := make([]domain.ScoredMatch, 0, len(items))
	for i, item := range items {
		matches = append(matches, s.scorer.Score(item, i, embedding, s.store.Magnitude(i), analysis, sessionIntents))
	}
	return matches
}

// sessionIntents returns the intents seen earlier in the session when the
// continuity boost is enabled
func (s *AnswerService) sessionIntents(sessionID string) map[string]struct{} {
	if s.history == nil || sessionID == "" || s.cfg.Weights.Continuity <= 0 {
		return nil
	}
	intents := s.history.Intents(sessionID)
	if len(intents) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(intents))
	for _, intent := range intents {
		set[intent] = struct{}{}
	}
	return set
}

// recordTurn stores the exchange in session history
func (s *AnswerService) recordTurn(sessionID, question, answer, intent string) {
	if s.history == nil || sessionID == "" {
		return
	}
	s.history.Record(sessionID, domain.Turn{
		Question: question,
		Answer:   answer,
		Intent:   intent,
		AskedAt:  time.Now().UTC(),
	})
}

// fallbackAnswer is returned when nothing in the knowledge base matches.
// A detected department adds its contact line so the caller still gets a
// routing hint.
func (s *AnswerService) fallbackAnswer(analysis domain.QueryAnalysis) string {
	msg := "I couldn't find anything about that in the knowledge base."
	if analysis.Department == "" {
		return msg
	}
	if contact, ok := s.cfg.Contacts[analysis.Department]; ok && contact != "" {
		return fmt.Sprintf("%s Our %s team can help: %s", msg, analysis.Department, contact)
	}
	return fmt.Sprintf("%s Our %s team can help with this.", msg, analysis.Department)
}

// History returns the recorded turns for a session, most recent last
func (s *AnswerService) History(sessionID string, n int) []domain.Turn {
	if s.history == nil {
		return nil
	}
	return s.history.Recent(sessionID, n)
}
