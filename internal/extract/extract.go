// Package extract converts source manual files into plain text documents.
// Each file type has an ordered chain of extraction strategies; the first
// strategy that yields text wins, and a chain where every strategy fails
// reports the aggregated failures.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vaporlogic/manualqa/internal/domain"
)

// Strategy attempts one way of pulling text out of raw file bytes.
type Strategy func(data []byte) (string, error)

var chains = map[string][]Strategy{
	".txt":  {extractPlainText},
	".md":   {extractPlainText},
	".pdf":  {extractPDF},
	".docx": {extractDocx},
	// Legacy .doc files are frequently DOCX archives with the wrong
	// extension; true OLE binaries fail the whole chain.
	".doc":  {extractDocx},
	".html": {extractHTML},
	".htm":  {extractHTML},
}

// SupportedExtensions lists the file extensions extraction understands,
// lower-cased with leading dot.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(chains))
	for ext := range chains {
		exts = append(exts, ext)
	}
	return exts
}

// Supported reports whether the path's extension has an extraction chain.
func Supported(path string) bool {
	_, ok := chains[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractFile reads a file and extracts its text content.
func ExtractFile(path string) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	chain, ok := chains[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content, err := runChain(chain, data)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction,
			fmt.Sprintf("failed to extract text from %s", filepath.Base(path)), err)
	}

	return &domain.Document{
		Source:   filepath.Base(path),
		FileName: filepath.Base(path),
		FileType: ext,
		Content:  content,
	}, nil
}

// ExtractBytes extracts text from in-memory file data, used for uploads and
// object storage where no local path exists. name supplies the extension.
func ExtractBytes(name string, data []byte) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	chain, ok := chains[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, ext)
	}

	content, err := runChain(chain, data)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction,
			fmt.Sprintf("failed to extract text from %s", filepath.Base(name)), err)
	}

	return &domain.Document{
		Source:   filepath.Base(name),
		FileName: filepath.Base(name),
		FileType: ext,
		Content:  content,
	}, nil
}

func runChain(chain []Strategy, data []byte) (string, error) {
	var failures []error
	for _, strategy := range chain {
		content, err := strategy(data)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			failures = append(failures, errors.New("extraction produced no text"))
			continue
		}
		return content, nil
	}
	return "", errors.Join(failures...)
}

func extractPlainText(data []byte) (string, error) {
	return string(data), nil
}
