package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Knowledge source. A local file path wins over S3 when both are set.
	KnowledgePath string `envconfig:"KNOWLEDGE_PATH"`

	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"repliq-knowledge"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3KnowledgeKey string `envconfig:"S3_KNOWLEDGE_KEY" default:"knowledge.json"`

	OpenAIAPIKey   string  `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string  `envconfig:"EMBEDDING_MODEL"`
	ChatModel      string  `envconfig:"CHAT_MODEL"`
	MaxTokens      int     `envconfig:"MAX_TOKENS" default:"512"`
	Temperature    float32 `envconfig:"TEMPERATURE" default:"0.2"`

	// Retrieval tuning. Out-of-range values are clamped, not rejected.
	ScoreThreshold   float64 `envconfig:"SCORE_THRESHOLD" default:"0.4"`
	MaxContextItems  int     `envconfig:"MAX_CONTEXT_ITEMS" default:"8"`
	MaxContextLength int     `envconfig:"MAX_CONTEXT_LENGTH" default:"2000"`
	RelatedPerSource int     `envconfig:"RELATED_PER_SOURCE" default:"2"`
	ProceduralFirst  bool    `envconfig:"PROCEDURAL_FIRST" default:"true"`

	BoostKeywordUnit    float64 `envconfig:"BOOST_KEYWORD_UNIT" default:"0.1"`
	BoostIntent         float64 `envconfig:"BOOST_INTENT" default:"0.2"`
	BoostCategory       float64 `envconfig:"BOOST_CATEGORY" default:"0.1"`
	BoostProcedural     float64 `envconfig:"BOOST_PROCEDURAL" default:"0.15"`
	BoostPriorityHigh   float64 `envconfig:"BOOST_PRIORITY_HIGH" default:"0.2"`
	BoostPriorityMedium float64 `envconfig:"BOOST_PRIORITY_MEDIUM" default:"0.1"`
	BoostPriorityLow    float64 `envconfig:"BOOST_PRIORITY_LOW" default:"0.05"`
	BoostContinuity     float64 `envconfig:"BOOST_CONTINUITY" default:"0"`

	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	SessionMaxTurns int           `envconfig:"SESSION_MAX_TURNS" default:"20"`
	SessionIdleTTL  time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
	MaxBodyBytes   int64   `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	MaxQueryChars  int     `envconfig:"MAX_QUERY_CHARS" default:"1000"`

	// Contacts maps a department to its contact line for fallback answers,
	// e.g. "billing:billing@example.com,sales:+1-555-0100"
	Contacts map[string]string `envconfig:"CONTACTS"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("REPLIQ", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.normalize()
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// normalize clamps tuning values into their working ranges
func (c *Config) normalize() {
	c.ScoreThreshold = clampFloat(c.ScoreThreshold, 0.1, 1.0)
	c.MaxContextItems = clampInt(c.MaxContextItems, 1, 20)

	if c.MaxContextLength <= 0 {
		c.MaxContextLength = 2000
	}
	if c.RelatedPerSource <= 0 {
		c.RelatedPerSource = 2
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.SessionMaxTurns <= 0 {
		c.SessionMaxTurns = 20
	}
	if c.SessionIdleTTL <= 0 {
		c.SessionIdleTTL = 30 * time.Minute
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 5
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.MaxQueryChars <= 0 {
		c.MaxQueryChars = 1000
	}
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasKnowledgeFile() bool {
	return c.KnowledgePath != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
