package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"invoice.pdf":         "invoice.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\a\bill.png`: "bill.png",
		"my receipt (1).pdf":  "my_receipt_1_.pdf",
		"":                    "proof",
		"...":                 "proof",
		"नमस्ते.pdf":          "pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFilename(long)
	assert.Len(t, got, MaxFilenameLength)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestNewRef(t *testing.T) {
	ref := NewRef("O002", "inv 1.pdf")
	assert.Regexp(t, regexp.MustCompile(`^proofs/O002/[0-9a-f-]{36}-inv_1\.pdf$`), ref)
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	ref, err := s.Put(ctx, "O001", "a.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, ref))
	assert.ErrorIs(t, s.Delete(ctx, ref), ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestFileSystem(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileSystem(root)
	require.NoError(t, err)

	ref, err := s.Put(ctx, "O002", "../evil.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "proofs/O002/"))
	assert.True(t, strings.HasSuffix(ref, "-evil.pdf"))

	rel := strings.TrimPrefix(ref, "proofs/")
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	assert.ErrorIs(t, s.Delete(ctx, ref), ErrNotFound)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	for _, bad := range []string{"proofs/../secret", "proofs/O002/../../x", "other/O002/x", "proofs/O002"} {
		err := s.Delete(ctx, bad)
		assert.Error(t, err, bad)
		assert.NotErrorIs(t, err, ErrNotFound, bad)
	}
}

func TestNewFileSystem_RequiresRoot(t *testing.T) {
	_, err := NewFileSystem("  ")
	assert.Error(t, err)
}
