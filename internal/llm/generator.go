// Package llm wraps a locally hosted causal language model exposed through an
// OpenAI-compatible completions endpoint (llama.cpp server, vLLM, TGI).
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// Quantization selects the model weight precision. Lower precision trades
// answer quality for device memory; "none" needs the most memory.
type Quantization string

const (
	Quant4Bit Quantization = "4bit"
	Quant8Bit Quantization = "8bit"
	QuantNone Quantization = "none"
)

// ParseQuantization validates a quantization mode string.
func ParseQuantization(s string) (Quantization, error) {
	switch Quantization(s) {
	case Quant4Bit, Quant8Bit, QuantNone:
		return Quantization(s), nil
	default:
		return "", domain.ErrInvalidQuantization
	}
}

// MinMemoryBytes returns the minimum available system memory required to
// host an 8B-parameter instruct model at this precision.
func (q Quantization) MinMemoryBytes() uint64 {
	const gib = 1 << 30
	switch q {
	case Quant8Bit:
		return 10 * gib
	case QuantNone:
		return 18 * gib
	default:
		return 6 * gib
	}
}

// CompletionAPI is the completion slice of the OpenAI client, extracted so
// tests can substitute a fake decoder.
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, request openai.CompletionRequest) (openai.CompletionResponse, error)
}

// Config holds generator connection settings.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Quantization Quantization
}

// Generator executes constrained-decoding text generation against a loaded
// model. Load must be called once before Generate. The underlying model call
// is not reentrant, so Generate serializes: one in-flight generation at a
// time per Generator.
type Generator struct {
	api          CompletionAPI
	model        string
	quantization Quantization

	genMu sync.Mutex // serializes calls into the model

	stateMu sync.Mutex
	loaded  bool
}

func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	quant := cfg.Quantization
	if quant == "" {
		quant = Quant4Bit
	}
	return &Generator{
		api:          openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		quantization: quant,
	}
}

// NewGeneratorWithAPI builds a Generator on an explicit completion API.
func NewGeneratorWithAPI(api CompletionAPI, model string) *Generator {
	return &Generator{api: api, model: model, quantization: Quant4Bit}
}

// Quantization reports the configured weight precision.
func (g *Generator) Quantization() Quantization {
	return g.quantization
}

// Load verifies the model server is reachable and forces weight load on
// servers that load lazily, by issuing a single-token warmup completion.
// Loading can take seconds to minutes on cold servers.
func (g *Generator) Load(ctx context.Context) error {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	if g.loaded {
		return nil
	}

	_, err := g.api.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     g.model,
		Prompt:    "warmup",
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("model %q not reachable: %w", g.model, err)
	}

	g.loaded = true
	return nil
}

// Generate runs bounded-length generation capped at maxTokens newly generated
// tokens and returns only the trimmed continuation; any prompt echo from the
// server is stripped. sampling=false requests deterministic greedy decoding
// (temperature has no effect in that case).
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32, sampling bool) (string, error) {
	g.stateMu.Lock()
	loaded := g.loaded
	g.stateMu.Unlock()
	if !loaded {
		return "", domain.ErrModelNotLoaded
	}

	if !sampling {
		temperature = 0
	}

	g.genMu.Lock()
	defer g.genMu.Unlock()

	resp, err := g.api.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeGeneration, "completion returned no choices")
	}

	text := resp.Choices[0].Text
	// Some servers echo the prompt ahead of the continuation.
	text = strings.TrimPrefix(text, prompt)
	return strings.TrimSpace(text), nil
}
