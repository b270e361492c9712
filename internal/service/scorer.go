package service

import (
	"math"
	"strings"

	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/vecmath"
)

const (
	// keywordBoostCap bounds the keyword component regardless of how many
	// keywords match; the final clamp still applies on top
	keywordBoostCap = 0.3
	maxFinalScore   = 1.0
)

// proceduralMarkers are the step words that mark an answer as containing a
// procedure
var proceduralMarkers = []string{"step", "first", "next", "then", "finally"}

// processCategoryMarkers mark a category as process oriented
var processCategoryMarkers = []string{"process", "procedure"}

// BoostWeights configures the additive boost units layered on top of the
// cosine base score
type BoostWeights struct {
	KeywordUnit    float64
	Intent         float64
	Category       float64
	Procedural     float64
	PriorityHigh   float64
	PriorityMedium float64
	PriorityLow    float64
	Continuity     float64
}

// DefaultBoostWeights returns the stock boost units. Continuity defaults to
// zero so session history does not affect ranking unless enabled.
func DefaultBoostWeights() BoostWeights {
	return BoostWeights{
		KeywordUnit:    0.1,
		Intent:         0.2,
		Category:       0.1,
		Procedural:     0.15,
		PriorityHigh:   0.2,
		PriorityMedium: 0.1,
		PriorityLow:    0.05,
	}
}

// priorityBoost returns the flat bonus for a metadata priority
func (w BoostWeights) priorityBoost(p domain.Priority) float64 {
	switch p {
	case domain.PriorityHigh:
		return w.PriorityHigh
	case domain.PriorityMedium:
		return w.PriorityMedium
	case domain.PriorityLow:
		return w.PriorityLow
	}
	return 0
}

// Scorer combines cosine similarity with metadata boosts into one bounded
// score per item
type Scorer struct {
	weights BoostWeights
}

// NewScorer creates a Scorer with the given boost weights
func NewScorer(weights BoostWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Score scores one item against the query embedding and analysis. A base
// score at or below zero is returned as-is: boosts never rescue a
// non-positive similarity. sessionIntents may be nil; it feeds the optional
// continuity bonus for follow-up questions.
func (s *Scorer) Score(
	item *domain.KnowledgeItem,
	index int,
	queryEmbedding []float64,
	itemMagnitude float64,
	analysis domain.QueryAnalysis,
	sessionIntents map[string]struct{},
) domain.ScoredMatch {
	base := vecmath.CosineSimilarity(queryEmbedding, item.Embedding, itemMagnitude)

	match := domain.ScoredMatch{
		Item:      item,
		Index:     index,
		BaseScore: base,
	}
	if base <= 0 {
		match.FinalScore = base
		return match
	}

	boosts := domain.BoostBreakdown{
		Keyword:  s.keywordBoost(item.Metadata.Keywords, analysis.Tokens),
		Priority: s.weights.priorityBoost(item.Metadata.Priority),
	}

	if item.Metadata.Intent != "" && item.Metadata.Intent == analysis.Intent {
		boosts.Intent = s.weights.Intent
	}

	if analysis.IsProcedural {
		if hasProcessCategory(item) {
			boosts.Category = s.weights.Category
		}
		if containsProceduralMarkers(item.Answer) {
			boosts.Procedural = s.weights.Procedural
		}
	}

	if s.weights.Continuity > 0 && item.Metadata.Intent != "" {
		if _, ok := sessionIntents[item.Metadata.Intent]; ok {
			boosts.Continuity = s.weights.Continuity
		}
	}

	boosts.Total = boosts.Keyword + boosts.Intent + boosts.Category +
		boosts.Procedural + boosts.Priority + boosts.Continuity

	match.Boosts = boosts
	match.FinalScore = math.Min(maxFinalScore, base+boosts.Total)
	return match
}

// keywordBoost counts a metadata keyword as matching when it is a substring
// of any query token or the token is a substring of the keyword, then caps
// the component at keywordBoostCap
func (s *Scorer) keywordBoost(keywords, tokens []string) float64 {
	if len(keywords) == 0 || len(tokens) == 0 {
		return 0
	}

	matches := 0
	for _, kw := range keywords {
		keyword := strings.ToLower(strings.TrimSpace(kw))
		if keyword == "" {
			continue
		}
		for _, token := range tokens {
			if strings.Contains(token, keyword) || strings.Contains(keyword, token) {
				matches++
				break
			}
		}
	}

	return math.Min(keywordBoostCap, float64(matches)*s.weights.KeywordUnit)
}

// containsProceduralMarkers reports whether answer text carries step
// language
func containsProceduralMarkers(answer string) bool {
	lower := strings.ToLower(answer)
	for _, marker := range proceduralMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// hasProcessCategory reports whether either category field reads as
// process oriented
func hasProcessCategory(item *domain.KnowledgeItem) bool {
	category := strings.ToLower(item.Category)
	subCategory := strings.ToLower(item.SubCategory)
	for _, marker := range processCategoryMarkers {
		if strings.Contains(category, marker) || strings.Contains(subCategory, marker) {
			return true
		}
	}
	return false
}
