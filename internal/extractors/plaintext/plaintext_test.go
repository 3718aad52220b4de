package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestSupports(t *testing.T) {
	e := New()

	assert.True(t, e.Supports(".txt"))
	assert.True(t, e.Supports(".md"))
	assert.True(t, e.Supports(".TXT"))
	assert.False(t, e.Supports(".pdf"))
	assert.False(t, e.Supports(""))
}

func TestExtract(t *testing.T) {
	e := New()
	path := writeFile(t, "doc.txt", []byte("  The parties agree as follows.  \n"))

	result, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "The parties agree as follows.", result.Text)
}

func TestExtract_MissingFile(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestExtract_EmptyFile(t *testing.T) {
	e := New()
	path := writeFile(t, "empty.txt", []byte("   \n\t  "))

	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	e := New()
	path := writeFile(t, "binary.txt", []byte{0xff, 0xfe, 0x00, 0x41})

	_, err := e.Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestExtract_CancelledContext(t *testing.T) {
	e := New()
	path := writeFile(t, "doc.txt", []byte("content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
