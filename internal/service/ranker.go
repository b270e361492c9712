package service

import (
	"sort"

	"github.com/vantor-labs/repliq/internal/domain"
)

// RankerConfig bounds and orders the candidate list
type RankerConfig struct {
	// MaxItems truncates the sorted list before the threshold filter runs
	MaxItems int
	// Threshold is the similarity floor; only scores strictly above it
	// survive
	Threshold float64
	// ProceduralTieBreakFirst applies the procedural-marker override before
	// the score comparison. When false the override runs between score and
	// priority instead.
	ProceduralTieBreakFirst bool
}

// DefaultRankerConfig returns the stock ranking policy
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		MaxItems:                8,
		Threshold:               0.4,
		ProceduralTieBreakFirst: true,
	}
}

// Ranker sorts scored candidates, truncates to the top K, and applies the
// similarity floor
type Ranker struct {
	cfg RankerConfig
}

// NewRanker creates a Ranker with the given policy
func NewRanker(cfg RankerConfig) *Ranker {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultRankerConfig().MaxItems
	}
	return &Ranker{cfg: cfg}
}

// Rank orders matches best-first and bounds the result. Truncation to
// MaxItems happens before the threshold filter and the two bounds stay
// independent: a low score inside the window is still dropped by the
// filter, and a high score beyond the window is dropped by truncation.
func (r *Ranker) Rank(matches []domain.ScoredMatch, procedural bool) []domain.ScoredMatch {
	ranked := make([]domain.ScoredMatch, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		return r.ranksBefore(ranked[i], ranked[j], procedural)
	})

	if len(ranked) > r.cfg.MaxItems {
		ranked = ranked[:r.cfg.MaxItems]
	}

	out := ranked[:0]
	for _, m := range ranked {
		if m.FinalScore > r.cfg.Threshold {
			out = append(out, m)
		}
	}
	return out
}

// ranksBefore reports whether a should be ordered ahead of b
func (r *Ranker) ranksBefore(a, b domain.ScoredMatch, procedural bool) bool {
	if procedural && r.cfg.ProceduralTieBreakFirst {
		if before, decided := proceduralOrder(a, b); decided {
			return before
		}
	}

	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}

	if procedural && !r.cfg.ProceduralTieBreakFirst {
		if before, decided := proceduralOrder(a, b); decided {
			return before
		}
	}

	return a.Item.Metadata.Priority.Weight() > b.Item.Metadata.Priority.Weight()
}

// proceduralOrder ranks an answer carrying step language above one without.
// The second return value reports whether the check decided the order.
func proceduralOrder(a, b domain.ScoredMatch) (bool, bool) {
	aHas := containsProceduralMarkers(a.Item.Answer)
	bHas := containsProceduralMarkers(b.Item.Answer)
	if aHas == bHas {
		return false, false
	}
	return aHas, true
}
