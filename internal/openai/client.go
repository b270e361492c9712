package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vantor-labs/repliq/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for query embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the OpenAI model used for answer generation
	DefaultChatModel = openai.GPT4oMini
	// DefaultMaxTokens bounds the generated answer length
	DefaultMaxTokens = 512
	// DefaultTemperature keeps generated answers close to the supplied context
	DefaultTemperature = 0.2
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, system, user string) (string, error)
}

// Client wraps the OpenAI API for both embeddings and completions
type Client struct {
	api        EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// ChatAdapter calls the OpenAI chat completion API
type ChatAdapter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewChatAdapter(apiKey, model string, maxTokens int, temperature float32) *ChatAdapter {
	if model == "" {
		model = DefaultChatModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &ChatAdapter{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// CreateChatCompletion calls the OpenAI API with a system and user message
func (a *ChatAdapter) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChatModel           string
	MaxTokens           int
	Temperature         float32
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, openai.EmbeddingModel(cfg.EmbeddingModel)),
		chat:       NewChatAdapter(cfg.APIKey, cfg.ChatModel, cfg.MaxTokens, cfg.Temperature),
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", classifyProviderError(err))
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// EmbedQuery generates an embedding and widens it for the scoring pipeline
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	embedding, err := c.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(embedding))
	for i, v := range embedding {
		out[i] = float64(v)
	}
	return out, nil
}

// Complete generates answer text from a system and user prompt
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if user == "" {
		return "", ErrEmptyText
	}

	content, err := c.chat.CreateChatCompletion(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", classifyProviderError(err))
	}
	return content, nil
}

// classifyProviderError maps an OpenAI failure onto the domain provider
// error taxonomy. A 429 carrying the insufficient_quota code is a quota
// failure, any other 429 is a rate limit, everything else is a generic
// outage.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "openai request failed", err)
	}

	if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		if isInsufficientQuota(apiErr) {
			return domain.NewDomainErrorWithCause(domain.ErrCodeProviderQuota, "openai quota exhausted", err)
		}
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderRateLimit, "openai rate limit exceeded", err)
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeProviderUnavailable, "openai request failed", err)
}

func isInsufficientQuota(apiErr *openai.APIError) bool {
	if apiErr.Type == "insufficient_quota" {
		return true
	}
	code, ok := apiErr.Code.(string)
	return ok && code == "insufficient_quota"
}
