package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vantor-labs/repliq/internal/domain"
)

// rawItem mirrors the on-disk knowledge format. Sources in the wild use
// either the short or the long field names, so both are accepted.
type rawItem struct {
	Q              string       `json:"Q"`
	Question       string       `json:"question"`
	A              string       `json:"A"`
	Answer         string       `json:"answer"`
	Text           string       `json:"text"`
	Category       string       `json:"category"`
	SubCategory    string       `json:"sub_category"`
	SubCategoryAlt string       `json:"subCategory"`
	Embedding      []float64    `json:"embedding"`
	Metadata       *rawMetadata `json:"metadata"`
}

type rawMetadata struct {
	Keywords         []string `json:"keywords"`
	Intent           string   `json:"intent"`
	Priority         string   `json:"priority"`
	RelatedQuestions []int    `json:"related_questions"`
	Context          string   `json:"context"`
}

// parseItems decodes a knowledge-base document. The document is either a
// bare array of items or an object wrapping one under "items".
func parseItems(data []byte) ([]*domain.KnowledgeItem, int, error) {
	raw, err := decodeRawItems(data)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*domain.KnowledgeItem, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		item := r.toDomain()
		if item.Question == "" && item.Answer == "" {
			skipped++
			continue
		}
		items = append(items, item)
	}

	return items, skipped, nil
}

func decodeRawItems(data []byte) ([]rawItem, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("knowledge document is empty")
	}

	var raw []rawItem
	if err := json.Unmarshal(data, &raw); err == nil {
		return raw, nil
	}

	var wrapped struct {
		Items []rawItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge document: %w", err)
	}
	if wrapped.Items == nil {
		return nil, fmt.Errorf("knowledge document has no items array")
	}
	return wrapped.Items, nil
}

func (r rawItem) toDomain() *domain.KnowledgeItem {
	question := firstNonEmpty(r.Q, r.Question)
	answer := firstNonEmpty(r.A, r.Answer, r.Text)
	subCategory := firstNonEmpty(r.SubCategory, r.SubCategoryAlt)

	item := domain.NewKnowledgeItem(question, answer, r.Category, subCategory)
	item.Embedding = r.Embedding

	if r.Metadata != nil {
		item.Metadata = domain.ItemMetadata{
			Keywords:         r.Metadata.Keywords,
			Intent:           r.Metadata.Intent,
			Priority:         domain.Priority(strings.ToLower(r.Metadata.Priority)),
			RelatedQuestions: r.Metadata.RelatedQuestions,
			Context:          r.Metadata.Context,
		}
	}

	return item
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
