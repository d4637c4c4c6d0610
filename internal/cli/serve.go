package cli

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

	"github.com/vaporlogic/manualqa/internal/api/handlers"
	"github.com/vaporlogic/manualqa/internal/config"
	"github.com/vaporlogic/manualqa/internal/ingest"
	"github.com/vaporlogic/manualqa/internal/jobs"
	"github.com/vaporlogic/manualqa/internal/llm"
	"github.com/vaporlogic/manualqa/internal/preflight"
	"github.com/vaporlogic/manualqa/internal/server"
	"github.com/vaporlogic/manualqa/internal/service"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the question-answering API server",
		Long:  "Load the generation model, open the index collection and serve the HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry := initTelemetry()
	defer shutdownTelemetry()

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.SkipPreflight {
		quant, err := llm.ParseQuantization(cfg.Quantization)
		if err != nil {
			return err
		}
		if err := preflight.CheckMemory(quant); err != nil {
			return err
		}
	}

	idx, pool, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	pipeline := service.NewPipeline(generator, idx, service.PipelineConfig{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Sampling:    cfg.Sampling,
		DefaultK:    cfg.RetrievalK,
	})

	log.Printf("loading model %s (%s quantization)...", cfg.GenerationModel, cfg.Quantization)
	if err := pipeline.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	ingestor := ingest.New(idx, cfg.ChunkSize, cfg.ChunkOverlap)

	var rescanWorker *jobs.Worker
	if cfg.CorpusDir != "" {
		interval := cfg.RescanInterval
		if interval <= 0 {
			interval = time.Minute
		}
		rescanWorker = jobs.NewWorker(jobs.NewRescanProcessor(ingestor, cfg.CorpusDir), interval)
		go rescanWorker.Start(ctx)
		log.Printf("corpus rescan worker started for %s", cfg.CorpusDir)
	}

	router := server.NewRouter(server.RouterConfig{
		QueryHandler: handlers.NewQueryHandler(pipeline, ingestor, idx),
	})

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

	if rescanWorker != nil {
		rescanWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
