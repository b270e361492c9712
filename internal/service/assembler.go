package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vantor-labs/repliq/internal/domain"
	"github.com/vantor-labs/repliq/internal/knowledge"
)

const (
	// duplicateIntentScoreBar lets a repeated intent through once the match
	// is confident enough to add complementary detail
	duplicateIntentScoreBar = 0.7
	// earlyStopScoreBar is the confidence at which an over-budget context
	// stops growing
	earlyStopScoreBar = 0.8

	relatedSnippetMaxChars = 220
)

// AssemblerConfig bounds the assembled context block
type AssemblerConfig struct {
	// MaxContextLength is the rune budget checked by the early-stop rule
	MaxContextLength int
	// RelatedPerSource caps each related-content source independently
	RelatedPerSource int
}

// DefaultAssemblerConfig returns the stock assembly bounds
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxContextLength: 2000,
		RelatedPerSource: 2,
	}
}

// Assembler turns ranked matches into the deduplicated, length-bounded
// context block handed to the text generator
type Assembler struct {
	cfg AssemblerConfig
}

// NewAssembler creates an Assembler with the given bounds
func NewAssembler(cfg AssemblerConfig) *Assembler {
	defaults := DefaultAssemblerConfig()
	if cfg.MaxContextLength <= 0 {
		cfg.MaxContextLength = defaults.MaxContextLength
	}
	if cfg.RelatedPerSource <= 0 {
		cfg.RelatedPerSource = defaults.RelatedPerSource
	}
	return &Assembler{cfg: cfg}
}

// Assemble visits ranked matches in order and appends one formatted block
// per item. An item whose intent was already emitted is skipped unless its
// score clears the duplicate bar, and assembly stops early once the text is
// over budget and the current item scores above the early-stop bar. For
// procedural queries the top match's related content is appended as a
// trailing section.
func (a *Assembler) Assemble(
	store *knowledge.Store,
	matches []domain.ScoredMatch,
	analysis domain.QueryAnalysis,
) (string, []domain.RelatedItem, bool) {
	if len(matches) == 0 {
		return "", nil, false
	}

	var b strings.Builder
	seenIntents := make(map[string]struct{})
	length := 0

	for _, m := range matches {
		if length > a.cfg.MaxContextLength && m.FinalScore > earlyStopScoreBar {
			break
		}

		intent := m.Item.Metadata.Intent
		if intent != "" {
			if _, dup := seenIntents[intent]; dup && m.FinalScore <= duplicateIntentScoreBar {
				continue
			}
			seenIntents[intent] = struct{}{}
		}

		block := formatMatchBlock(m)
		b.WriteString(block)
		length += utf8.RuneCountInString(block)
	}

	var related []domain.RelatedItem
	if analysis.IsProcedural {
		related = a.relatedContent(store, matches[0])
		if len(related) > 0 {
			b.WriteString(formatRelatedSection(related))
		}
	}

	text := strings.TrimRight(b.String(), "\n")
	return text, related, text != ""
}

// formatMatchBlock renders one knowledge item: a tag line, the question and
// answer, then any free-text metadata context
func formatMatchBlock(m domain.ScoredMatch) string {
	var b strings.Builder

	var tags []string
	if m.Item.Metadata.Intent != "" {
		tags = append(tags, "intent: "+m.Item.Metadata.Intent)
	}
	if m.Item.Metadata.Priority != "" {
		tags = append(tags, "priority: "+string(m.Item.Metadata.Priority))
	}
	tags = append(tags, fmt.Sprintf("category: %s/%s", m.Item.Category, m.Item.SubCategory))
	b.WriteString("[" + strings.Join(tags, " | ") + "]\n")

	if m.Item.Question != "" {
		b.WriteString("Q: " + m.Item.Question + "\n")
	}
	if m.Item.Answer != "" {
		b.WriteString("A: " + m.Item.Answer + "\n")
	}
	if m.Item.Metadata.Context != "" {
		b.WriteString("Note: " + m.Item.Metadata.Context + "\n")
	}
	b.WriteString("\n")

	return b.String()
}

// formatRelatedSection renders the related-content trailer
func formatRelatedSection(related []domain.RelatedItem) string {
	var b strings.Builder
	b.WriteString("Related information:\n")
	for _, r := range related {
		b.WriteString("- Q: " + r.Question + "\n")
		if r.Answer != "" {
			b.WriteString("  A: " + makeSnippet(r.Answer) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// relatedContent pulls siblings of the top match from its explicit
// related-question links, its category, and its sub-category. Each source is
// capped independently and items are deduplicated by index across sources.
func (a *Assembler) relatedContent(store *knowledge.Store, top domain.ScoredMatch) []domain.RelatedItem {
	if store == nil {
		return nil
	}

	seen := map[int]struct{}{top.Index: {}}
	var related []domain.RelatedItem

	collect := func(indexes []int, source string) {
		added := 0
		for _, idx := range indexes {
			if added >= a.cfg.RelatedPerSource {
				break
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			item := store.Item(idx)
			if item == nil {
				continue
			}
			seen[idx] = struct{}{}
			related = append(related, domain.RelatedItem{
				Index:    idx,
				Question: item.Question,
				Answer:   item.Answer,
				Source:   source,
			})
			added++
		}
	}

	collect(top.Item.Metadata.RelatedQuestions, domain.RelatedSourceLinked)
	collect(store.ByCategory(top.Item.Category), domain.RelatedSourceCategory)
	collect(store.BySubCategory(top.Item.SubCategory), domain.RelatedSourceSubCategory)

	return related
}

// makeSnippet collapses whitespace and truncates long text for the related
// trailer
func makeSnippet(content string) string {
	if content == "" {
		return ""
	}
	clean := strings.Join(strings.Fields(content), " ")
	if len(clean) <= relatedSnippetMaxChars {
		return clean
	}
	return clean[:relatedSnippetMaxChars-3] + "..."
}
