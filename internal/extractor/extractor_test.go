package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRejectsNonPDFName(t *testing.T) {
	// The extension gate runs before any filesystem access, so the file
	// does not even need to exist.
	res := Extract(filepath.Join(t.TempDir(), "notes.txt"))
	assert.Equal(t, StatusNotPDF, res.Status)
	assert.Empty(t, res.Text)
	assert.NoError(t, res.Err)
}

func TestExtractExtensionCheckIsCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.PDF")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	res := Extract(path)
	assert.NotEqual(t, StatusNotPDF, res.Status)
}

func TestExtractRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	// Sparse file: reported size exceeds the cap without writing 50MB.
	require.NoError(t, f.Truncate(MaxFileSize+1))
	require.NoError(t, f.Close())

	res := Extract(path)
	assert.Equal(t, StatusTooLarge, res.Status)
}

func TestExtractMissingFile(t *testing.T) {
	res := Extract(filepath.Join(t.TempDir(), "gone.pdf"))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestExtractCorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 this is not really a pdf"), 0o644))

	res := Extract(path)
	assert.Equal(t, StatusFailed, res.Status)
	assert.False(t, res.OK())
	assert.Error(t, res.Err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "not a pdf", StatusNotPDF.String())
	assert.Equal(t, "file too large", StatusTooLarge.String())
	assert.Equal(t, "extraction failed", StatusFailed.String())
	assert.Equal(t, "empty result", StatusEmpty.String())
}
