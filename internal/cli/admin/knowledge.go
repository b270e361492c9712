package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vantor-labs/repliq/internal/config"
	"github.com/vantor-labs/repliq/internal/knowledge"
	"github.com/vantor-labs/repliq/internal/storage"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage knowledge documents",
		Long:  "Validate and publish knowledge-base documents",
	}

	cmd.AddCommand(KnowledgeValidateCmd())
	cmd.AddCommand(KnowledgePushCmd())

	return cmd
}

func KnowledgeValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a knowledge document",
		Long:  "Parse a knowledge document and report what the server would load from it",
		Args:  cobra.ExactArgs(1),
		RunE:  runKnowledgeValidate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runKnowledgeValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	store := knowledge.NewStore()
	report := store.Load(ctx, knowledge.NewFileSource(path))
	if !report.Loaded {
		return fmt.Errorf("knowledge document is not usable: %s", report.Error)
	}

	stats := store.Stats()

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Knowledge document OK: %s\n", path)
		fmt.Printf("  Items: %d (%d with embeddings, %d skipped)\n", report.Items, report.Embedded, report.Skipped)
		fmt.Printf("  Categories: %d, sub-categories: %d\n", stats.Categories, stats.SubCategories)
		fmt.Printf("  Intents: %d, keywords: %d\n", stats.Intents, stats.Keywords)
		if report.Embedded < report.Items {
			fmt.Printf("\n⚠️  %d items have no embedding and can never match a query\n", report.Items-report.Embedded)
		}
	}

	return nil
}

func KnowledgePushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Publish a knowledge document to S3",
		Long:  "Validate a local knowledge document and upload it to the configured S3 bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runKnowledgePush,
	}

	cmd.Flags().StringP("key", "k", "", "Object key to upload to (defaults to REPLIQ_S3_KNOWLEDGE_KEY)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runKnowledgePush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("S3 is not configured: set REPLIQ_S3_ENDPOINT, REPLIQ_S3_ACCESS_KEY_ID and REPLIQ_S3_SECRET_ACCESS_KEY")
	}

	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = cfg.S3KnowledgeKey
	}

	// Refuse to publish a document the server could not load.
	store := knowledge.NewStore()
	report := store.Load(ctx, knowledge.NewFileSource(path))
	if !report.Loaded {
		return fmt.Errorf("refusing to push: %s", report.Error)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge file: %w", err)
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}

	if err := s3Client.Upload(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("failed to upload knowledge document: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", cfg.S3Bucket, key)
	if outputFormat == "json" {
		out := map[string]interface{}{
			"location": location,
			"bytes":    len(data),
			"items":    report.Items,
			"embedded": report.Embedded,
		}
		jsonBytes, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Pushed %d items (%d bytes) to %s\n", report.Items, len(data), location)
		fmt.Println("Call POST /api/v1/knowledge/reload on the server to pick it up")
	}

	return nil
}
