package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlogic/manualqa/internal/domain"
)

type fakeCompletionAPI struct {
	lastRequest openai.CompletionRequest
	response    string
	err         error
	calls       int
}

func (f *fakeCompletionAPI) CreateCompletion(ctx context.Context, req openai.CompletionRequest) (openai.CompletionResponse, error) {
	f.lastRequest = req
	f.calls++
	if f.err != nil {
		return openai.CompletionResponse{}, f.err
	}
	return openai.CompletionResponse{
		Choices: []openai.CompletionChoice{{Text: f.response}},
	}, nil
}

func TestParseQuantization(t *testing.T) {
	for _, valid := range []string{"4bit", "8bit", "none"} {
		q, err := ParseQuantization(valid)
		require.NoError(t, err)
		assert.Equal(t, Quantization(valid), q)
	}

	_, err := ParseQuantization("2bit")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantization)
}

func TestQuantization_MemoryOrdering(t *testing.T) {
	assert.Less(t, Quant4Bit.MinMemoryBytes(), Quant8Bit.MinMemoryBytes())
	assert.Less(t, Quant8Bit.MinMemoryBytes(), QuantNone.MinMemoryBytes())
}

func TestGenerator_GenerateBeforeLoad(t *testing.T) {
	g := NewGeneratorWithAPI(&fakeCompletionAPI{}, "test-model")

	_, err := g.Generate(context.Background(), "prompt", 10, 0.7, true)
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
}

func TestGenerator_LoadIsIdempotent(t *testing.T) {
	api := &fakeCompletionAPI{response: "ok"}
	g := NewGeneratorWithAPI(api, "test-model")

	require.NoError(t, g.Load(context.Background()))
	require.NoError(t, g.Load(context.Background()))
	assert.Equal(t, 1, api.calls)
}

func TestGenerator_LoadFailurePropagates(t *testing.T) {
	api := &fakeCompletionAPI{err: errors.New("connection refused")}
	g := NewGeneratorWithAPI(api, "test-model")

	err := g.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestGenerator_GenerateParameters(t *testing.T) {
	api := &fakeCompletionAPI{response: "an answer"}
	g := NewGeneratorWithAPI(api, "test-model")
	require.NoError(t, g.Load(context.Background()))

	out, err := g.Generate(context.Background(), "the prompt", 128, 0.7, true)
	require.NoError(t, err)
	assert.Equal(t, "an answer", out)
	assert.Equal(t, "test-model", api.lastRequest.Model)
	assert.Equal(t, 128, api.lastRequest.MaxTokens)
	assert.Equal(t, float32(0.7), api.lastRequest.Temperature)
}

func TestGenerator_GreedyDecodingZeroesTemperature(t *testing.T) {
	api := &fakeCompletionAPI{response: "deterministic"}
	g := NewGeneratorWithAPI(api, "test-model")
	require.NoError(t, g.Load(context.Background()))

	_, err := g.Generate(context.Background(), "p", 10, 0.9, false)
	require.NoError(t, err)
	assert.Equal(t, float32(0), api.lastRequest.Temperature)
}

func TestGenerator_StripsPromptEchoAndWhitespace(t *testing.T) {
	prompt := "Question: what is dew point?"
	api := &fakeCompletionAPI{response: prompt + "\n  The dew point is the saturation temperature.  "}
	g := NewGeneratorWithAPI(api, "test-model")
	require.NoError(t, g.Load(context.Background()))

	out, err := g.Generate(context.Background(), prompt, 64, 0.7, true)
	require.NoError(t, err)
	assert.Equal(t, "The dew point is the saturation temperature.", out)
	assert.NotContains(t, out, prompt)
}

func TestGenerator_GenerationFailureIsTyped(t *testing.T) {
	api := &fakeCompletionAPI{response: "ok"}
	g := NewGeneratorWithAPI(api, "test-model")
	require.NoError(t, g.Load(context.Background()))

	api.err = errors.New("CUDA out of memory")
	_, err := g.Generate(context.Background(), "p", 10, 0.7, true)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeGeneration, derr.Code)
}
