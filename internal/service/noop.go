package service

import (
	"context"

	"github.com/vantor-labs/repliq/internal/domain"
)

// NoopEmbedder stands in when no embedding provider is configured. Every
// call fails typed so the transport layer reports the provider as
// unavailable instead of crashing.
type NoopEmbedder struct{}

// EmbedQuery always returns the unavailable error
func (NoopEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return nil, domain.NewDomainErrorWithCause(
		domain.ErrCodeProviderUnavailable,
		"embedding provider not configured",
		domain.ErrProviderUnavailable,
	)
}

// NoopGenerator stands in when no generation provider is configured. It
// echoes the top-ranked answer so retrieval keeps working end to end.
type NoopGenerator struct{}

// Generate returns the top answer verbatim
func (NoopGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if req.TopAnswer != "" {
		return req.TopAnswer, nil
	}
	return "No answer is available for this question.", nil
}
