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

	// Vector store backend: "pgvector" (persistent) or "memory" (dev/testing).
	Store       string `envconfig:"STORE" default:"pgvector"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Collection string `envconfig:"COLLECTION" default:"documents"`
	VectorDim  int    `envconfig:"VECTOR_DIM" default:"1536"`

	// Embedding service (OpenAI-compatible endpoint; BaseURL empty = api.openai.com).
	EmbeddingAPIKey  string `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel   string `envconfig:"EMBEDDING_MODEL"`

	// Generation service: a locally hosted completion server speaking the
	// OpenAI completions API (llama.cpp, vLLM, TGI in OpenAI mode).
	GenerationBaseURL string  `envconfig:"GENERATION_BASE_URL" default:"http://localhost:8000/v1"`
	GenerationAPIKey  string  `envconfig:"GENERATION_API_KEY"`
	GenerationModel   string  `envconfig:"GENERATION_MODEL" default:"meta-llama/Llama-3.1-8B-Instruct"`
	Quantization      string  `envconfig:"QUANTIZATION" default:"4bit"`
	MaxTokens         int     `envconfig:"MAX_TOKENS" default:"512"`
	Temperature       float32 `envconfig:"TEMPERATURE" default:"0.7"`
	Sampling          bool    `envconfig:"SAMPLING" default:"true"`

	RetrievalK   int `envconfig:"RETRIEVAL_K" default:"5"`
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	// Optional corpus directory rescanned by the background worker in serve mode.
	CorpusDir      string        `envconfig:"CORPUS_DIR"`
	RescanInterval time.Duration `envconfig:"RESCAN_INTERVAL" default:"0"`

	// Skip the memory preflight check before loading the model.
	SkipPreflight bool `envconfig:"SKIP_PREFLIGHT" default:"false"`

	// S3-compatible bucket holding corpus documents for ingestion.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"manualqa-corpus"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MANUALQA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) UsesPgvector() bool {
	return c.Store != "memory"
}
