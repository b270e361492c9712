package service

import (
	"context"
	"fmt"
	"strings"
)

// ChatCompleter defines the interface for chat-backed answer generation
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatGenerator turns assembled context into prompts for a chat completion
// backend
type ChatGenerator struct {
	chat ChatCompleter
}

// NewChatGenerator creates a new ChatGenerator instance
func NewChatGenerator(chat ChatCompleter) *ChatGenerator {
	return &ChatGenerator{chat: chat}
}

// Generate produces the customer-facing answer text. An empty completion
// falls back to the top match's stored answer so the caller always gets
// usable text.
func (g *ChatGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	answer, err := g.chat.Complete(ctx, buildSystemPrompt(req), buildUserPrompt(req))
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return req.TopAnswer, nil
	}
	return answer, nil
}

func buildSystemPrompt(req GenerationRequest) string {
	var parts []string

	parts = append(parts, "You are a customer support assistant. Answer using only the knowledge base excerpts provided.")
	if req.IsProcedural {
		parts = append(parts, "The customer asked how to do something, so lay the answer out as numbered steps.")
	}
	if req.Department != "" {
		parts = append(parts, fmt.Sprintf("If the excerpts do not cover the question, point the customer to the %s team.", req.Department))
	}
	parts = append(parts, "Never invent details that are not in the excerpts.")

	return strings.Join(parts, " ")
}

func buildUserPrompt(req GenerationRequest) string {
	var parts []string

	if req.ContextText != "" {
		parts = append(parts, "Knowledge base excerpts:\n\n"+req.ContextText)
	}
	parts = append(parts, "Customer question: "+req.Query)

	return strings.Join(parts, "\n\n")
}
