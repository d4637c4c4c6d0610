package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/index"
)

type fakePipeline struct {
	result       *domain.QueryResult
	err          error
	lastQuestion string
	lastK        int
}

func (f *fakePipeline) Query(ctx context.Context, question string, k int) (*domain.QueryResult, error) {
	f.lastQuestion = question
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIngestor struct {
	lastDoc *domain.Document
	chunks  int
	err     error
}

func (f *fakeIngestor) ProcessDocument(ctx context.Context, doc *domain.Document) (int, error) {
	f.lastDoc = doc
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

type fakeStats struct {
	stats index.Stats
	err   error
}

func (f *fakeStats) Stats(ctx context.Context) (index.Stats, error) {
	return f.stats, f.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestQuery_Success(t *testing.T) {
	pipeline := &fakePipeline{result: &domain.QueryResult{
		Answer:  "Set the humidistat to 45%.",
		Sources: []string{"manual.pdf"},
		RetrievedDocs: []domain.RetrievalResult{
			{Content: "humidistat section", Metadata: domain.ChunkMetadata{Source: "manual.pdf", ChunkID: 2}, Score: 0.91},
		},
	}}
	h := NewQueryHandler(pipeline, &fakeIngestor{}, &fakeStats{})

	rec := postJSON(t, h.Query, QueryRequest{Question: "What humidity should I set?", K: 3})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What humidity should I set?", pipeline.lastQuestion)
	assert.Equal(t, 3, pipeline.lastK)

	var resp struct {
		Data QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Set the humidistat to 45%.", resp.Data.Answer)
	assert.Equal(t, []string{"manual.pdf"}, resp.Data.Sources)
	require.Len(t, resp.Data.Retrieved, 1)
	assert.Equal(t, 2, resp.Data.Retrieved[0].ChunkID)
	assert.InDelta(t, 0.91, float64(resp.Data.Retrieved[0].Score), 1e-6)
}

func TestQuery_BlankQuestion(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, &fakeIngestor{}, &fakeStats{})

	rec := postJSON(t, h.Query, QueryRequest{Question: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_InvalidBody(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, &fakeIngestor{}, &fakeStats{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Query(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_PipelineNotReadyMapsTo503(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{err: domain.ErrPipelineNotReady}, &fakeIngestor{}, &fakeStats{})

	rec := postJSON(t, h.Query, QueryRequest{Question: "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQuery_GenerationFailureMapsTo502(t *testing.T) {
	err := domain.NewDomainError(domain.ErrCodeGeneration, "model crashed")
	h := NewQueryHandler(&fakePipeline{err: err}, &fakeIngestor{}, &fakeStats{})

	rec := postJSON(t, h.Query, QueryRequest{Question: "anything"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadDocument_PlainText(t *testing.T) {
	ing := &fakeIngestor{chunks: 4}
	h := NewQueryHandler(&fakePipeline{}, ing, &fakeStats{})

	rec := postJSON(t, h.UploadDocument, UploadDocumentRequest{
		FileName: "manual.txt",
		Text:     "Drain hose must slope downward.",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, ing.lastDoc)
	assert.Equal(t, "manual.txt", ing.lastDoc.Source)
	assert.Equal(t, ".txt", ing.lastDoc.FileType)

	var resp struct {
		Data UploadDocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Data.Chunks)
}

func TestUploadDocument_Base64Extraction(t *testing.T) {
	ing := &fakeIngestor{chunks: 1}
	h := NewQueryHandler(&fakePipeline{}, ing, &fakeStats{})

	encoded := base64.StdEncoding.EncodeToString([]byte("Filter cleaning instructions."))
	rec := postJSON(t, h.UploadDocument, UploadDocumentRequest{
		FileName:      "notes.txt",
		ContentBase64: encoded,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, ing.lastDoc)
	assert.Equal(t, "Filter cleaning instructions.", ing.lastDoc.Content)
}

func TestUploadDocument_UnsupportedTypeMapsTo422(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, &fakeIngestor{}, &fakeStats{})

	encoded := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50})
	rec := postJSON(t, h.UploadDocument, UploadDocumentRequest{
		FileName:      "image.png",
		ContentBase64: encoded,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadDocument_MissingContent(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, &fakeIngestor{}, &fakeStats{})

	rec := postJSON(t, h.UploadDocument, UploadDocumentRequest{FileName: "manual.txt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectionStats(t *testing.T) {
	h := NewQueryHandler(&fakePipeline{}, &fakeIngestor{}, &fakeStats{stats: index.Stats{Chunks: 42, Sources: 3}})

	req := httptest.NewRequest(http.MethodGet, "/collection/stats", nil)
	rec := httptest.NewRecorder()
	h.CollectionStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.Data.Chunks)
	assert.Equal(t, 3, resp.Data.Sources)
}
