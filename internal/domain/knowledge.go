package domain

import "fmt"

// Priority represents the ranking priority of a knowledge item
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Default classification values applied when the source omits them
const (
	DefaultCategory    = "uncategorized"
	DefaultSubCategory = "general"
)

// ItemMetadata carries the optional ranking signals attached to a knowledge item
type ItemMetadata struct {
	Keywords         []string
	Intent           string
	Priority         Priority
	RelatedQuestions []int
	Context          string
}

// KnowledgeItem represents one question/answer record in the knowledge base.
// Items are immutable after load; the store owns all derived state.
type KnowledgeItem struct {
	Question    string
	Answer      string
	Category    string
	SubCategory string
	Metadata    ItemMetadata
	Embedding   []float64
}

// NewKnowledgeItem creates a KnowledgeItem, filling in default
// category values when the source left them blank
func NewKnowledgeItem(question, answer, category, subCategory string) *KnowledgeItem {
	if category == "" {
		category = DefaultCategory
	}
	if subCategory == "" {
		subCategory = DefaultSubCategory
	}
	return &KnowledgeItem{
		Question:    question,
		Answer:      answer,
		Category:    category,
		SubCategory: subCategory,
	}
}

// HasEmbedding reports whether the item carries an embedding and is
// therefore scorable
func (k *KnowledgeItem) HasEmbedding() bool {
	return len(k.Embedding) > 0
}

// Weight returns the numeric tie-break weight for a priority.
// Unknown or absent priorities weigh the same as low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 1
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return fmt.Errorf("knowledge item cannot be nil")
	}

	if k.Question == "" && k.Answer == "" {
		return fmt.Errorf("knowledge item needs a question or an answer")
	}

	if k.Metadata.Priority != "" && !isValidPriority(k.Metadata.Priority) {
		return fmt.Errorf("knowledge item priority is invalid: %s", k.Metadata.Priority)
	}

	return nil
}

// isValidPriority checks if a Priority is valid
func isValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
