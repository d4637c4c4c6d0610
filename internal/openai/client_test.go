package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingAPI struct {
	lastTexts []string
	result    [][]float32
	err       error
	calls     int
}

func (f *fakeEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.lastTexts = texts
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func embeddingsOfDim(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		out[i][0] = float32(i + 1)
	}
	return out
}

func TestEmbedTexts_EmptyInput(t *testing.T) {
	c := &Client{api: &fakeEmbeddingAPI{}, dimensions: 4}

	_, err := c.EmbedTexts(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbedTexts_BatchedSingleCall(t *testing.T) {
	api := &fakeEmbeddingAPI{result: embeddingsOfDim(3, 4)}
	c := &Client{api: api, dimensions: 4}

	got, err := c.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, []string{"a", "b", "c"}, api.lastTexts)
}

func TestEmbedTexts_WrongDimensions(t *testing.T) {
	api := &fakeEmbeddingAPI{result: embeddingsOfDim(1, 3)}
	c := &Client{api: api, dimensions: 4}

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestEmbedTexts_APIErrorWrapped(t *testing.T) {
	api := &fakeEmbeddingAPI{err: errors.New("rate limited")}
	c := &Client{api: api, dimensions: 4}

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create embeddings")
}

func TestNewClientWithConfig_DefaultsDimensions(t *testing.T) {
	c := NewClientWithConfig(Config{APIKey: "k"})
	assert.Equal(t, DefaultEmbeddingDimensions, c.dimensions)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
