package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlogic/manualqa/internal/domain"
)

func writeDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		doc += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	doc += `</w:body></w:document>`

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestExtractFile_Txt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.txt")
	require.NoError(t, os.WriteFile(path, []byte("Set the humidistat to 45% RH."), 0o644))

	doc, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "manual.txt", doc.Source)
	assert.Equal(t, ".txt", doc.FileType)
	assert.Equal(t, "Set the humidistat to 45% RH.", doc.Content)
}

func TestExtractFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01}, 0o644))

	_, err := ExtractFile(path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestExtractFile_MissingFile(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestExtractBytes_Docx(t *testing.T) {
	data := writeDocx(t, []string{"Drain hose installation.", "Slope at least 2 degrees."})

	doc, err := ExtractBytes("install.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Drain hose installation.\nSlope at least 2 degrees.", doc.Content)
	assert.Equal(t, ".docx", doc.FileType)
}

func TestExtractBytes_DocFallsBackToDocxArchive(t *testing.T) {
	data := writeDocx(t, []string{"Compressor maintenance schedule."})

	doc, err := ExtractBytes("legacy.doc", data)
	require.NoError(t, err)
	assert.Equal(t, "Compressor maintenance schedule.", doc.Content)
}

func TestExtractBytes_DocBinaryAggregatesFailures(t *testing.T) {
	// OLE compound file magic, not a zip archive.
	data := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	_, err := ExtractBytes("legacy.doc", data)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeExtraction, derr.Code)
	assert.Contains(t, err.Error(), "not a docx archive")
}

func TestExtractBytes_HTML(t *testing.T) {
	page := []byte(`<html><head><title>Manual</title><style>body{}</style></head>
<body><h1>Filter Cleaning</h1><p>Rinse the filter &amp; dry it.</p>
<script>alert("x")</script></body></html>`)

	doc, err := ExtractBytes("guide.html", page)
	require.NoError(t, err)
	assert.Contains(t, doc.Content, "Filter Cleaning")
	assert.Contains(t, doc.Content, "Rinse the filter & dry it.")
	assert.NotContains(t, doc.Content, "alert")
	assert.NotContains(t, doc.Content, "<p>")
}

func TestExtractBytes_EmptyContentFailsChain(t *testing.T) {
	data := writeDocx(t, nil)

	_, err := ExtractBytes("empty.docx", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b/manual.PDF"))
	assert.True(t, Supported("notes.txt"))
	assert.False(t, Supported("image.png"))
}
