// Package cli implements the manualqa commands: serve, ingest, chat and
// collection maintenance.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/vaporlogic/manualqa/internal/config"
	"github.com/vaporlogic/manualqa/internal/database"
	"github.com/vaporlogic/manualqa/internal/index"
	"github.com/vaporlogic/manualqa/internal/llm"
	"github.com/vaporlogic/manualqa/internal/openai"
	"github.com/vaporlogic/manualqa/internal/repository"
	"github.com/vaporlogic/manualqa/internal/telemetry"
)

// initTelemetry enables Sentry tracing when SENTRY_DSN is set. Returns a
// flush function; a no-op one when telemetry is disabled.
func initTelemetry() func() {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return func() {}
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	sampleRate := 0.1
	if environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}

// buildIndex wires the embedding client and the configured store into a
// vector index. The returned pool is nil for the memory store.
func buildIndex(ctx context.Context, cfg *config.Config) (*index.VectorIndex, *pgxpool.Pool, error) {
	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.EmbeddingAPIKey,
		BaseURL:             cfg.EmbeddingBaseURL,
		EmbeddingModel:      openaiapi.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.VectorDim,
	})

	if !cfg.UsesPgvector() {
		return index.NewVectorIndex(embedder, index.NewMemoryStore()), nil, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("MANUALQA_DATABASE_URL is required for the pgvector store")
	}
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, err
	}
	log.Println("connected to database")

	store := repository.NewChunkStore(pool, cfg.Collection, cfg.VectorDim)
	return index.NewVectorIndex(embedder, store), pool, nil
}

func newGenerator(cfg *config.Config) (*llm.Generator, error) {
	quant, err := llm.ParseQuantization(cfg.Quantization)
	if err != nil {
		return nil, err
	}
	return llm.NewGenerator(llm.Config{
		BaseURL:      cfg.GenerationBaseURL,
		APIKey:       cfg.GenerationAPIKey,
		Model:        cfg.GenerationModel,
		Quantization: quant,
	}), nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
