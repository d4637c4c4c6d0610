// Package ingest turns source files into indexed chunks: extract text, split
// it, attach provenance metadata and hand the chunks to the embedding index.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vaporlogic/manualqa/internal/domain"
	"github.com/vaporlogic/manualqa/internal/extract"
	"github.com/vaporlogic/manualqa/internal/service"
)

// Sink receives chunk batches; it is satisfied by the embedding index.
type Sink interface {
	Add(ctx context.Context, chunks []domain.Chunk, ids []string) error
}

// ObjectSource lists and fetches corpus objects from remote storage.
type ObjectSource interface {
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	FetchObject(ctx context.Context, key string) ([]byte, error)
}

// Summary reports what one ingestion run did.
type Summary struct {
	Files   int
	Chunks  int
	Skipped int
}

// Ingestor chunks extracted documents and feeds them to a sink. Re-ingesting
// a source replaces its previous chunks, since chunk keys derive from the
// source name and chunk index.
type Ingestor struct {
	sink      Sink
	chunkSize int
	overlap   int
}

func New(sink Sink, chunkSize, overlap int) *Ingestor {
	return &Ingestor{sink: sink, chunkSize: chunkSize, overlap: overlap}
}

// ProcessDocument splits a document and inserts its chunks. Returns the
// number of chunks produced.
func (in *Ingestor) ProcessDocument(ctx context.Context, doc *domain.Document) (int, error) {
	texts, err := service.ChunkText(doc.Content, in.chunkSize, in.overlap)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk %s: %w", doc.Source, err)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	ids := make([]string, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Content: text,
			Metadata: domain.ChunkMetadata{
				Source:      doc.Source,
				FileName:    doc.FileName,
				FileType:    doc.FileType,
				ChunkID:     i,
				TotalChunks: len(texts),
			},
		}
		ids[i] = chunks[i].Key()
	}

	if err := in.sink.Add(ctx, chunks, ids); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", doc.Source, err)
	}
	return len(texts), nil
}

// ProcessFile extracts one file and ingests it.
func (in *Ingestor) ProcessFile(ctx context.Context, path string) (int, error) {
	doc, err := extract.ExtractFile(path)
	if err != nil {
		return 0, err
	}
	return in.ProcessDocument(ctx, doc)
}

// ProcessDirectory ingests every supported file under dir. Files that fail
// extraction are logged and skipped; the run keeps going.
func (in *Ingestor) ProcessDirectory(ctx context.Context, dir string) (Summary, error) {
	var summary Summary

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !extract.Supported(path) {
			return nil
		}

		n, err := in.ProcessFile(ctx, path)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", path, err)
			summary.Skipped++
			return nil
		}
		summary.Files++
		summary.Chunks += n
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return summary, nil
}

// ProcessBucket ingests every supported object under prefix from an
// S3-compatible corpus bucket.
func (in *Ingestor) ProcessBucket(ctx context.Context, src ObjectSource, prefix string) (Summary, error) {
	var summary Summary

	keys, err := src.ListObjects(ctx, prefix)
	if err != nil {
		return summary, err
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if !extract.Supported(key) {
			continue
		}

		data, err := src.FetchObject(ctx, key)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", key, err)
			summary.Skipped++
			continue
		}
		doc, err := extract.ExtractBytes(key, data)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", key, err)
			summary.Skipped++
			continue
		}
		n, err := in.ProcessDocument(ctx, doc)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", key, err)
			summary.Skipped++
			continue
		}
		summary.Files++
		summary.Chunks += n
	}

	return summary, nil
}

// Watch re-ingests files as they are created or modified under dir, until
// the context is cancelled. Writes are debounced per path so editors that
// emit bursts of write events trigger one ingestion.
func (in *Ingestor) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	const debounce = 500 * time.Millisecond
	pending := make(map[string]*time.Timer)
	ingested := make(chan string)
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	log.Printf("ingest: watching %s", dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-ingested:
			delete(pending, path)
			if n, err := in.ProcessFile(ctx, path); err != nil {
				log.Printf("ingest: skipping %s: %v", path, err)
			} else {
				log.Printf("ingest: re-indexed %s (%d chunks)", path, n)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !extract.Supported(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			path := event.Name
			if timer, ok := pending[path]; ok {
				timer.Reset(debounce)
				continue
			}
			pending[path] = time.AfterFunc(debounce, func() {
				select {
				case ingested <- path:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("ingest: watch error: %v", err)
		}
	}
}
