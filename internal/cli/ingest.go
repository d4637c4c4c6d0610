package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaporlogic/manualqa/internal/config"
	"github.com/vaporlogic/manualqa/internal/ingest"
	"github.com/vaporlogic/manualqa/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index manual files into the collection",
		Long:  "Extract, chunk, embed and index documents from a directory or an S3-compatible bucket",
		RunE:  runIngest,
	}

	cmd.Flags().StringP("input", "i", "", "Directory of manuals to ingest")
	cmd.Flags().Int("chunk-size", 0, "Chunk size in characters (default from config)")
	cmd.Flags().Int("overlap", -1, "Chunk overlap in characters (default from config)")
	cmd.Flags().BoolP("watch", "w", false, "Keep watching the input directory and re-ingest on change")
	cmd.Flags().String("s3-bucket", "", "Ingest from this S3 bucket instead of a local directory")
	cmd.Flags().String("s3-prefix", "", "Only ingest bucket objects under this key prefix")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry()
	defer shutdownTelemetry()

	input, _ := cmd.Flags().GetString("input")
	watch, _ := cmd.Flags().GetBool("watch")
	bucket, _ := cmd.Flags().GetString("s3-bucket")
	prefix, _ := cmd.Flags().GetString("s3-prefix")

	if input == "" && bucket == "" {
		input = cfg.CorpusDir
	}
	if input == "" && bucket == "" {
		return fmt.Errorf("either --input, --s3-bucket or MANUALQA_CORPUS_DIR is required")
	}

	if size, _ := cmd.Flags().GetInt("chunk-size"); size > 0 {
		cfg.ChunkSize = size
	}
	if overlap, _ := cmd.Flags().GetInt("overlap"); overlap >= 0 {
		cfg.ChunkOverlap = overlap
	}

	// Ingestion only embeds and indexes; the generation model stays unloaded.
	idx, pool, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	ingestor := ingest.New(idx, cfg.ChunkSize, cfg.ChunkOverlap)

	if bucket != "" {
		if !cfg.HasS3() {
			return fmt.Errorf("S3 ingestion requires MANUALQA_S3_ENDPOINT, MANUALQA_S3_ACCESS_KEY_ID and MANUALQA_S3_SECRET_ACCESS_KEY")
		}
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}

		summary, err := ingestor.ProcessBucket(ctx, s3Client, prefix)
		if err != nil {
			return err
		}
		log.Printf("ingested %d files (%d chunks, %d skipped) from s3://%s/%s",
			summary.Files, summary.Chunks, summary.Skipped, bucket, prefix)
		return nil
	}

	summary, err := ingestor.ProcessDirectory(ctx, input)
	if err != nil {
		return err
	}
	log.Printf("ingested %d files (%d chunks, %d skipped) from %s",
		summary.Files, summary.Chunks, summary.Skipped, input)

	if !watch {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := ingestor.Watch(watchCtx, input); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
