package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/telemetry"
)

// GeneratorClient wraps the causal language model service.
type GeneratorClient interface {
	Load(ctx context.Context) error
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32, sampling bool) (string, error)
}

// PipelineIndex is the slice of the embedding index the pipeline composes.
type PipelineIndex interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, chunks []domain.Chunk, ids []string) error
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
}

// PipelineState tracks orchestrator lifecycle.
type PipelineState int

const (
	StateUninitialized PipelineState = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s PipelineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PipelineConfig holds generation and retrieval parameters.
type PipelineConfig struct {
	MaxTokens   int
	Temperature float32
	Sampling    bool
	DefaultK    int
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxTokens:   512,
		Temperature: 0.7,
		Sampling:    true,
		DefaultK:    5,
	}
}

// Pipeline composes retrieval, context assembly, prompt construction and
// generation into a single query operation, and chunk insertion for ingestion.
//
// Query is only valid once Initialize has succeeded. A failed initialization
// is permanent: the instance stays failed and a fresh Pipeline is required.
type Pipeline struct {
	generator GeneratorClient
	index     PipelineIndex
	retriever *Retriever
	cfg       PipelineConfig

	mu    sync.Mutex
	state PipelineState
}

func NewPipeline(generator GeneratorClient, index PipelineIndex, cfg PipelineConfig) *Pipeline {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultPipelineConfig().MaxTokens
	}
	return &Pipeline{
		generator: generator,
		index:     index,
		retriever: NewRetriever(index, cfg.DefaultK),
		cfg:       cfg,
		state:     StateUninitialized,
	}
}

// State reports the current lifecycle state.
func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Initialize loads the generation model and opens the index collection. The
// pipeline becomes Ready only when both succeed.
func (p *Pipeline) Initialize(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateReady:
		p.mu.Unlock()
		return nil
	case StateInitializing:
		p.mu.Unlock()
		return domain.ErrPipelineNotReady
	case StateFailed:
		p.mu.Unlock()
		return domain.ErrPipelineFailed
	}
	p.state = StateInitializing
	p.mu.Unlock()

	fail := func(err error) error {
		p.mu.Lock()
		p.state = StateFailed
		p.mu.Unlock()
		return err
	}

	if err := p.generator.Load(ctx); err != nil {
		return fail(fmt.Errorf("failed to load generation model: %w", err))
	}
	if err := p.index.Initialize(ctx); err != nil {
		return fail(fmt.Errorf("failed to initialize index: %w", err))
	}

	p.mu.Lock()
	p.state = StateReady
	p.mu.Unlock()
	log.Println("pipeline ready")
	return nil
}

// Query retrieves the top-k chunks for the question, assembles them into a
// grounding context, and generates an answer from it. Zero retrieval results
// short-circuit to a fixed no-information answer without calling the model.
func (p *Pipeline) Query(ctx context.Context, question string, k int) (*domain.QueryResult, error) {
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	p.mu.Lock()
	if p.state != StateReady {
		state := p.state
		p.mu.Unlock()
		if state == StateFailed {
			return nil, domain.ErrPipelineFailed
		}
		return nil, domain.ErrPipelineNotReady
	}
	p.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "pipeline.query", telemetry.SpanAttributes{Operation: "query"})
	defer span.End()

	retrieved, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if len(retrieved) == 0 {
		return &domain.QueryResult{
			Answer:        NoAnswerMessage,
			Sources:       []string{},
			RetrievedDocs: []domain.RetrievalResult{},
		}, nil
	}

	docContext := FormatContext(retrieved)
	prompt := BuildPrompt(question, docContext)

	answer, err := p.generator.Generate(ctx, prompt, p.cfg.MaxTokens, p.cfg.Temperature, p.cfg.Sampling)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "answer generation failed", err)
	}

	return &domain.QueryResult{
		Answer:        answer,
		Sources:       dedupSources(retrieved),
		RetrievedDocs: retrieved,
	}, nil
}

// AddDocuments passes pre-chunked texts through to the embedding index. The
// caller chunks upstream and supplies aligned texts, metadatas and ids.
func (p *Pipeline) AddDocuments(ctx context.Context, texts []string, metadatas []domain.ChunkMetadata, ids []string) error {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return domain.ErrLengthMismatch
	}
	chunks := make([]domain.Chunk, len(texts))
	for i := range texts {
		chunks[i] = domain.Chunk{Content: texts[i], Metadata: metadatas[i]}
	}
	return p.index.Add(ctx, chunks, ids)
}

// dedupSources collapses retrieved chunk sources to set semantics, keeping
// first-seen order.
func dedupSources(results []domain.RetrievalResult) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		source := r.Metadata.Source
		if source == "" {
			source = "Unknown"
		}
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
