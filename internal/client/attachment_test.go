package client

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportchat/pkg/errors"
)

func writeTempFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestResolveAttachment(t *testing.T) {
	path := writeTempFile(t, "receipt.png", 128)

	r := NewFileAttachmentResolver(1024)
	att, err := r.Resolve(path)
	require.NoError(t, err)
	defer att.Close()

	assert.Equal(t, "receipt.png", att.FileName)
	assert.Equal(t, int64(128), att.Size)

	raw, err := io.ReadAll(att.Reader)
	require.NoError(t, err)
	assert.Len(t, raw, 128)
}

func TestResolveAttachmentRejectsOversize(t *testing.T) {
	path := writeTempFile(t, "huge.bin", 2048)

	r := NewFileAttachmentResolver(1024)
	_, err := r.Resolve(path)
	require.Error(t, err)
	assert.Equal(t, "BAD_REQUEST", errors.Code(err))
}

func TestResolveAttachmentMissingFile(t *testing.T) {
	r := NewFileAttachmentResolver(0)
	_, err := r.Resolve(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestResolveFileURL(t *testing.T) {
	assert.Equal(t, "http://localhost:5000/uploads/a.png",
		ResolveFileURL("http://localhost:5000", "/uploads/a.png"))
	assert.Equal(t, "http://localhost:5000/uploads/a.png",
		ResolveFileURL("http://localhost:5000/", "uploads/a.png"))
	assert.Equal(t, "https://cdn.example.com/a.png",
		ResolveFileURL("http://localhost:5000", "https://cdn.example.com/a.png"))
	assert.Empty(t, ResolveFileURL("http://localhost:5000", ""))
}
