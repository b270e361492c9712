package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/vecmath"
)

func scoredItem(t *testing.T, scorer *Scorer, item *domain.KnowledgeItem, queryEmbedding []float64, analysis domain.QueryAnalysis) domain.ScoredMatch {
	t.Helper()
	return scorer.Score(item, 0, queryEmbedding, vecmath.Magnitude(item.Embedding), analysis, nil)
}

func TestScorerBaseScore(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())

	t.Run("identical embeddings give base one", func(t *testing.T) {
		item := &domain.KnowledgeItem{Question: "q", Answer: "a", Embedding: []float64{1, 2, 3}}
		match := scoredItem(t, scorer, item, []float64{1, 2, 3}, domain.QueryAnalysis{})

		assert.InDelta(t, 1.0, match.BaseScore, 1e-9)
		assert.InDelta(t, 1.0, match.FinalScore, 1e-9)
	})

	t.Run("missing embedding scores minus one", func(t *testing.T) {
		item := &domain.KnowledgeItem{Question: "q", Answer: "a"}
		match := scoredItem(t, scorer, item, []float64{1, 0}, domain.QueryAnalysis{})

		assert.Equal(t, -1.0, match.BaseScore)
		assert.Equal(t, -1.0, match.FinalScore)
	})

	t.Run("dimension mismatch scores minus one", func(t *testing.T) {
		item := &domain.KnowledgeItem{Question: "q", Answer: "a", Embedding: []float64{1, 0, 0}}
		match := scoredItem(t, scorer, item, []float64{1, 0}, domain.QueryAnalysis{})

		assert.Equal(t, -1.0, match.BaseScore)
	})
}

func TestScorerSkipsBoostsOnNonPositiveBase(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())

	// Everything about this item would boost, but the opposite embedding
	// pins the base score below zero.
	item := &domain.KnowledgeItem{
		Question:    "how to file a refund",
		Answer:      "Step one: open the form. Then submit it.",
		Category:    "refund process",
		SubCategory: "general",
		Metadata: domain.ItemMetadata{
			Keywords: []string{"refund", "form"},
			Intent:   "refund_request",
			Priority: domain.PriorityHigh,
		},
		Embedding: []float64{-1, 0},
	}
	analysis := domain.QueryAnalysis{
		Tokens:       []string{"refund", "form"},
		Intent:       "refund_request",
		IsProcedural: true,
	}

	match := scoredItem(t, scorer, item, []float64{1, 0}, analysis)

	assert.Equal(t, -1.0, match.BaseScore)
	assert.Equal(t, -1.0, match.FinalScore)
	assert.Zero(t, match.Boosts.Total)
}

func TestScorerKeywordBoost(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())
	embedding := []float64{1, 0}

	t.Run("substring match in either direction", func(t *testing.T) {
		item := &domain.KnowledgeItem{
			Question:  "q",
			Answer:    "a",
			Metadata:  domain.ItemMetadata{Keywords: []string{"pass", "passwords"}},
			Embedding: embedding,
		}
		analysis := domain.QueryAnalysis{Tokens: []string{"password"}}

		match := scoredItem(t, scorer, item, embedding, analysis)

		// "pass" is inside "password" and "password" is inside "passwords"
		assert.InDelta(t, 0.2, match.Boosts.Keyword, 1e-9)
	})

	t.Run("component capped at 0.3", func(t *testing.T) {
		item := &domain.KnowledgeItem{
			Question:  "q",
			Answer:    "a",
			Metadata:  domain.ItemMetadata{Keywords: []string{"alpha", "beta", "gamma", "delta", "omega"}},
			Embedding: embedding,
		}
		analysis := domain.QueryAnalysis{Tokens: []string{"alpha", "beta", "gamma", "delta", "omega"}}

		match := scoredItem(t, scorer, item, embedding, analysis)

		assert.InDelta(t, 0.3, match.Boosts.Keyword, 1e-9)
	})

	t.Run("no tokens means no boost", func(t *testing.T) {
		item := &domain.KnowledgeItem{
			Question:  "q",
			Answer:    "a",
			Metadata:  domain.ItemMetadata{Keywords: []string{"alpha"}},
			Embedding: embedding,
		}

		match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{})
		assert.Zero(t, match.Boosts.Keyword)
	})
}

func TestScorerIntentBoost(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())
	embedding := []float64{1, 0}
	item := &domain.KnowledgeItem{
		Question:  "q",
		Answer:    "a",
		Metadata:  domain.ItemMetadata{Intent: "billing_question"},
		Embedding: embedding,
	}

	t.Run("exact match earns the bonus", func(t *testing.T) {
		match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{Intent: "billing_question"})
		assert.InDelta(t, 0.2, match.Boosts.Intent, 1e-9)
	})

	t.Run("near match earns nothing", func(t *testing.T) {
		match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{Intent: "Billing_Question"})
		assert.Zero(t, match.Boosts.Intent)
	})
}

func TestScorerProceduralBoosts(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())
	embedding := []float64{1, 0}

	item := &domain.KnowledgeItem{
		Question:    "how do I return an item",
		Answer:      "First print the label, then drop the parcel off.",
		Category:    "returns process",
		SubCategory: "general",
		Embedding:   embedding,
	}

	t.Run("procedural query earns category and content bonuses", func(t *testing.T) {
		match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{IsProcedural: true})

		assert.InDelta(t, 0.1, match.Boosts.Category, 1e-9)
		assert.InDelta(t, 0.15, match.Boosts.Procedural, 1e-9)
	})

	t.Run("factual query earns neither", func(t *testing.T) {
		match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{IsProcedural: false})

		assert.Zero(t, match.Boosts.Category)
		assert.Zero(t, match.Boosts.Procedural)
	})

	t.Run("sub-category marker counts too", func(t *testing.T) {
		sub := &domain.KnowledgeItem{
			Question:    "q",
			Answer:      "plain answer",
			Category:    "billing",
			SubCategory: "dispute procedure",
			Embedding:   embedding,
		}
		match := scoredItem(t, scorer, sub, embedding, domain.QueryAnalysis{IsProcedural: true})

		assert.InDelta(t, 0.1, match.Boosts.Category, 1e-9)
		assert.Zero(t, match.Boosts.Procedural)
	})
}

func TestScorerPriorityBoost(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())
	embedding := []float64{1, 0}

	tests := []struct {
		name     string
		priority domain.Priority
		expected float64
	}{
		{"high", domain.PriorityHigh, 0.2},
		{"medium", domain.PriorityMedium, 0.1},
		{"low", domain.PriorityLow, 0.05},
		{"absent", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &domain.KnowledgeItem{
				Question:  "q",
				Answer:    "a",
				Metadata:  domain.ItemMetadata{Priority: tt.priority},
				Embedding: embedding,
			}
			match := scoredItem(t, scorer, item, embedding, domain.QueryAnalysis{})
			assert.InDelta(t, tt.expected, match.Boosts.Priority, 1e-9)
		})
	}
}

func TestScorerFinalScoreClamp(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())
	embedding := []float64{1, 0}

	item := &domain.KnowledgeItem{
		Question:    "how to reset the router",
		Answer:      "First unplug it. Then wait. Finally plug it back in.",
		Category:    "setup procedure",
		SubCategory: "general",
		Metadata: domain.ItemMetadata{
			Keywords: []string{"router", "reset"},
			Intent:   "technical_support",
			Priority: domain.PriorityHigh,
		},
		Embedding: embedding,
	}
	analysis := domain.QueryAnalysis{
		Tokens:       []string{"reset", "router"},
		Intent:       "technical_support",
		IsProcedural: true,
	}

	match := scoredItem(t, scorer, item, embedding, analysis)

	// base 1.0 plus every bonus still clamps to exactly 1.0
	assert.Equal(t, 1.0, match.FinalScore)
	assert.Greater(t, match.Boosts.Total, 0.0)
	assert.GreaterOrEqual(t, match.FinalScore, match.BaseScore)
}

func TestScorerBoostedScoreNeverBelowBase(t *testing.T) {
	scorer := NewScorer(DefaultBoostWeights())

	query := []float64{1, 0}
	items := []*domain.KnowledgeItem{
		{Question: "a", Answer: "b", Embedding: []float64{0.9, 0.4358898943540674}},
		{Question: "c", Answer: "d", Embedding: []float64{0.5, 0.8660254037844386}, Metadata: domain.ItemMetadata{Priority: domain.PriorityLow}},
		{Question: "e", Answer: "f", Embedding: []float64{0.05, 0.9987492177719089}},
	}

	for _, item := range items {
		match := scoredItem(t, scorer, item, query, domain.QueryAnalysis{})
		require.Greater(t, match.BaseScore, 0.0)
		assert.GreaterOrEqual(t, match.FinalScore, match.BaseScore)
		assert.LessOrEqual(t, match.FinalScore, 1.0)
	}
}

func TestScorerKeywordPriorityScenario(t *testing.T) {
	// An item with high priority and two of its three keywords matched by
	// the query tokens: the boosted score is base + min(0.3, 2*unit) +
	// priority(high).
	scorer := NewScorer(DefaultBoostWeights())

	item := &domain.KnowledgeItem{
		Question: "how does billing work",
		Answer:   "We bill monthly.",
		Metadata: domain.ItemMetadata{
			Keywords: []string{"alpha", "beta", "gamma"},
			Priority: domain.PriorityHigh,
		},
		Embedding: []float64{0.35, 0.9367496997597597},
	}
	analysis := domain.QueryAnalysis{Tokens: []string{"alpha", "beta", "unrelated"}}

	match := scoredItem(t, scorer, item, []float64{1, 0}, analysis)

	require.InDelta(t, 0.35, match.BaseScore, 1e-9)
	assert.InDelta(t, 0.2, match.Boosts.Keyword, 1e-9)
	assert.InDelta(t, 0.2, match.Boosts.Priority, 1e-9)
	assert.InDelta(t, 0.4, match.Boosts.Total, 1e-9)
	assert.InDelta(t, 0.75, match.FinalScore, 1e-9)
}

func TestScorerContinuityBoost(t *testing.T) {
	weights := DefaultBoostWeights()
	weights.Continuity = 0.1
	scorer := NewScorer(weights)
	embedding := []float64{1, 0}

	item := &domain.KnowledgeItem{
		Question:  "q",
		Answer:    "a",
		Metadata:  domain.ItemMetadata{Intent: "billing_question"},
		Embedding: embedding,
	}

	t.Run("session intent match earns the bonus", func(t *testing.T) {
		sessionIntents := map[string]struct{}{"billing_question": {}}
		match := scorer.Score(item, 0, embedding, vecmath.Magnitude(embedding), domain.QueryAnalysis{}, sessionIntents)
		assert.InDelta(t, 0.1, match.Boosts.Continuity, 1e-9)
	})

	t.Run("disabled weight earns nothing", func(t *testing.T) {
		stock := NewScorer(DefaultBoostWeights())
		sessionIntents := map[string]struct{}{"billing_question": {}}
		match := stock.Score(item, 0, embedding, vecmath.Magnitude(embedding), domain.QueryAnalysis{}, sessionIntents)
		assert.Zero(t, match.Boosts.Continuity)
	})
}
