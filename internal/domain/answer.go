package domain

import "time"

// BoostBreakdown itemizes the additive score adjustments applied on top of
// the cosine base score
type BoostBreakdown struct {
	Keyword    float64
	Intent     float64
	Category   float64
	Procedural float64
	Priority   float64
	Continuity float64
	Total      float64
}

// ScoredMatch represents one knowledge item scored against a query.
// BaseScore is the raw cosine similarity; FinalScore is clamped to 1.0.
type ScoredMatch struct {
	Item       *KnowledgeItem
	Index      int
	BaseScore  float64
	Boosts     BoostBreakdown
	FinalScore float64
}

// RelatedItem represents a knowledge item pulled in as related content for a
// procedural query. Source names the rule that selected it.
type RelatedItem struct {
	Index    int
	Question string
	Answer   string
	Source   string
}

// Related content sources
const (
	RelatedSourceLinked      = "linked"
	RelatedSourceCategory    = "category"
	RelatedSourceSubCategory = "sub_category"
)

// EngineResult represents the full output of the retrieval pipeline for one
// query, before any text generation happens
type EngineResult struct {
	Matches        []ScoredMatch
	ContextText    string
	RelatedContent []RelatedItem
	DetectedIntent string
	IsProcedural   bool
	Department     string
	ContextUsed    bool
}

// AnswerResult represents the end-to-end outcome handed to the transport
// layer: the retrieval result plus the generated answer text
type AnswerResult struct {
	EngineResult
	Answer    string
	SessionID string
	Cached    bool
}

// Turn represents one recorded question/answer exchange in a session
type Turn struct {
	Question string
	Answer   string
	Intent   string
	AskedAt  time.Time
}
