package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/vaporlogic/manualqa/internal/api"
	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/extract"
	"github.com/vaporlogic/manualqa/internal/index"
)

// QueryPipeline answers questions over the indexed corpus.
type QueryPipeline interface {
	Query(ctx context.Context, question string, k int) (*domain.QueryResult, error)
}

// DocumentIngestor chunks and indexes one extracted document.
type DocumentIngestor interface {
	ProcessDocument(ctx context.Context, doc *domain.Document) (int, error)
}

// StatsProvider reports collection content counts.
type StatsProvider interface {
	Stats(ctx context.Context) (index.Stats, error)
}

type QueryHandler struct {
	pipeline QueryPipeline
	ingestor DocumentIngestor
	stats    StatsProvider
}

func NewQueryHandler(pipeline QueryPipeline, ingestor DocumentIngestor, stats StatsProvider) *QueryHandler {
	return &QueryHandler{pipeline: pipeline, ingestor: ingestor, stats: stats}
}

type QueryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

type RetrievedChunkResponse struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Score   float32 `json:"score"`
}

type QueryResponse struct {
	Answer    string                   `json:"answer"`
	Sources   []string                 `json:"sources"`
	Retrieved []RetrievedChunkResponse `json:"retrieved"`
}

type UploadDocumentRequest struct {
	FileName string `json:"file_name"`
	// Text carries already-extracted plain text. ContentBase64 carries raw
	// file bytes to run through extraction; exactly one must be set.
	Text          string `json:"text,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
}

type UploadDocumentResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type StatsResponse struct {
	Chunks  int `json:"chunks"`
	Sources int `json:"sources"`
}

// Query answers a question against the indexed manuals.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := h.pipeline.Query(r.Context(), req.Question, req.K)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	retrieved := make([]RetrievedChunkResponse, len(result.RetrievedDocs))
	for i, doc := range result.RetrievedDocs {
		retrieved[i] = RetrievedChunkResponse{
			Content: doc.Content,
			Source:  doc.Metadata.Source,
			ChunkID: doc.Metadata.ChunkID,
			Score:   doc.Score,
		}
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Answer:    result.Answer,
		Sources:   result.Sources,
		Retrieved: retrieved,
	})
}

// UploadDocument ingests one document into the collection.
func (h *QueryHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	var req UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FileName == "" {
		api.Error(w, http.StatusBadRequest, "file_name is required")
		return
	}

	var doc *domain.Document
	switch {
	case req.Text != "":
		doc = &domain.Document{
			Source:   req.FileName,
			FileName: req.FileName,
			FileType: strings.ToLower(filepath.Ext(req.FileName)),
			Content:  req.Text,
		}
	case req.ContentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "content_base64 is not valid base64")
			return
		}
		doc, err = extract.ExtractBytes(req.FileName, data)
		if err != nil {
			api.HandleError(w, err)
			return
		}
	default:
		api.Error(w, http.StatusBadRequest, "either text or content_base64 is required")
		return
	}

	chunks, err := h.ingestor.ProcessDocument(r.Context(), doc)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, UploadDocumentResponse{
		Source: doc.Source,
		Chunks: chunks,
	})
}

// CollectionStats reports the chunk and source counts of the collection.
func (h *QueryHandler) CollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatsResponse{
		Chunks:  stats.Chunks,
		Sources: stats.Sources,
	})
}
