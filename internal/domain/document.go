package domain

import "fmt"

// Document is a source file after text extraction. It is created once per
// ingestion run and never mutated; re-ingesting the same source supersedes
// the chunks previously derived from it.
type Document struct {
	Source   string
	FileName string
	FileType string
	Content  string
}

// ChunkMetadata carries the fields the retrieval core reads, plus an open
// extension map for caller-supplied values.
type ChunkMetadata struct {
	Source      string            `json:"source"`
	FileName    string            `json:"file_name,omitempty"`
	FileType    string            `json:"file_type,omitempty"`
	ChunkID     int               `json:"chunk_id"`
	TotalChunks int               `json:"total_chunks"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Chunk is a contiguous segment of a document's text, the unit of retrieval.
type Chunk struct {
	Content  string
	Metadata ChunkMetadata
}

// Key returns the storage key for the chunk. Keys are unique within a
// collection; inserting the same key again overwrites the prior entry.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s_%d", c.Metadata.Source, c.Metadata.ChunkID)
}

// RetrievalResult is a per-query value produced by similarity search.
// Score is a similarity in a bounded range; higher means more relevant.
type RetrievalResult struct {
	Content  string
	Metadata ChunkMetadata
	Score    float32
}

// QueryResult is the outcome of one pipeline query.
type QueryResult struct {
	Answer        string
	Sources       []string
	RetrievedDocs []RetrievalResult
}
