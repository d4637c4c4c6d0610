package jobs

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/vaporlogic/manualqa/internal/extract"
)

// FileIngestor ingests a single corpus file.
type FileIngestor interface {
	ProcessFile(ctx context.Context, path string) (int, error)
}

// RescanProcessor walks the corpus directory and re-ingests files whose
// modification time changed since the last run. New files are picked up,
// modified files replace their previous chunks through key-based upserts.
type RescanProcessor struct {
	ingestor FileIngestor
	dir      string

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewRescanProcessor(ingestor FileIngestor, dir string) *RescanProcessor {
	return &RescanProcessor{
		ingestor: ingestor,
		dir:      dir,
		seen:     make(map[string]time.Time),
	}
}

// ProcessJobs implements Processor.
func (p *RescanProcessor) ProcessJobs(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !extract.Supported(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if last, ok := p.seen[path]; ok && !info.ModTime().After(last) {
			return nil
		}

		n, err := p.ingestor.ProcessFile(ctx, path)
		if err != nil {
			log.Printf("jobs: rescan skipping %s: %v", path, err)
			return nil
		}
		p.seen[path] = info.ModTime()
		log.Printf("jobs: rescan indexed %s (%d chunks)", path, n)
		return nil
	})
}
