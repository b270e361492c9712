package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantor-labs/repliq/internal/api/handlers"
	"github.com/vantor-labs/repliq/internal/cache"
	"github.com/vantor-labs/repliq/internal/config"
	"github.com/vantor-labs/repliq/internal/history"
	"github.com/vantor-labs/repliq/internal/jobs"
	"github.com/vantor-labs/repliq/internal/knowledge"
	"github.com/vantor-labs/repliq/internal/openai"
	"github.com/vantor-labs/repliq/internal/server"
	"github.com/vantor-labs/repliq/internal/service"
	"github.com/vantor-labs/repliq/internal/storage"
	"github.com/vantor-labs/repliq/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the repliq answering server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-load", false, "Skip the initial knowledge base load on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling outside development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	source, err := knowledgeSource(ctx, cfg)
	if err != nil {
		return err
	}

	store := knowledge.NewStore()
	noLoad, _ := cmd.Flags().GetBool("no-load")
	switch {
	case noLoad:
		log.Println("skipping initial knowledge load (--no-load)")
	case source == nil:
		log.Println("no knowledge source configured; serving degraded until one is set and /knowledge/reload is called")
	default:
		// A failed load is not fatal: the store degrades to unloaded and
		// the server answers with fallbacks until a reload succeeds.
		if report := store.Load(ctx, source); !report.Loaded {
			log.Printf("initial knowledge load failed (serving degraded): %s", report.Error)
		}
	}
	if source == nil {
		source = unconfiguredSource{}
	}

	var embedder service.EmbeddingProvider
	var generator service.GenerationProvider
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.ChatModel,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
		})
		embedder = client
		generator = service.NewChatGenerator(client)
	} else {
		embedder = service.NoopEmbedder{}
		generator = service.NoopGenerator{}
		log.Println("REPLIQ_OPENAI_API_KEY not set; query matching is unavailable")
	}

	responseCache := cache.NewResponseCache(cfg.CacheTTL)
	sessions := history.NewStore(cfg.SessionMaxTurns, cfg.SessionIdleTTL)

	answerSvc := service.NewAnswerServiceWithHistory(
		store, responseCache, sessions, embedder, generator, answerConfig(cfg))

	sweeper := jobs.NewWorker(cfg.SweepInterval,
		jobs.NewSweepTask("response cache", responseCache),
		jobs.NewSweepTask("sessions", sessions),
	)
	go sweeper.Start(ctx)

	routerCfg := server.RouterConfig{
		AnswerHandler:    handlers.NewAnswerHandler(answerSvc, cfg.MaxQueryChars),
		SearchHandler:    handlers.NewSearchHandler(answerSvc, cfg.MaxQueryChars),
		KnowledgeHandler: handlers.NewKnowledgeHandler(store, source),
		HistoryHandler:   handlers.NewHistoryHandler(answerSvc),
		MaxBodyBytes:     cfg.MaxBodyBytes,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// knowledgeSource picks where the knowledge document comes from. A local
// file wins over S3; neither configured returns nil.
func knowledgeSource(ctx context.Context, cfg *config.Config) (knowledge.Source, error) {
	if cfg.HasKnowledgeFile() {
		return knowledge.NewFileSource(cfg.KnowledgePath), nil
	}

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		return knowledge.NewS3Source(s3Client, cfg.S3KnowledgeKey), nil
	}

	return nil, nil
}

// answerConfig maps the flat environment config onto the pipeline policy
func answerConfig(cfg *config.Config) service.AnswerServiceConfig {
	return service.AnswerServiceConfig{
		Ranker: service.RankerConfig{
			MaxItems:                cfg.MaxContextItems,
			Threshold:               cfg.ScoreThreshold,
			ProceduralTieBreakFirst: cfg.ProceduralFirst,
		},
		Assembler: service.AssemblerConfig{
			MaxContextLength: cfg.MaxContextLength,
			RelatedPerSource: cfg.RelatedPerSource,
		},
		Weights: service.BoostWeights{
			KeywordUnit:    cfg.BoostKeywordUnit,
			Intent:         cfg.BoostIntent,
			Category:       cfg.BoostCategory,
			Procedural:     cfg.BoostProcedural,
			PriorityHigh:   cfg.BoostPriorityHigh,
			PriorityMedium: cfg.BoostPriorityMedium,
			PriorityLow:    cfg.BoostPriorityLow,
			Continuity:     cfg.BoostContinuity,
		},
		Contacts: cfg.Contacts,
	}
}

// unconfiguredSource stands in when no knowledge source is set, so a reload
// attempt reports a clear failure instead of crashing.
type unconfiguredSource struct{}

func (unconfiguredSource) Fetch(ctx context.Context) ([]byte, error) {
	return nil, fmt.Errorf("no knowledge source configured: set REPLIQ_KNOWLEDGE_PATH or the REPLIQ_S3_* variables")
}

func (unconfiguredSource) Name() string { return "unconfigured" }
