package service

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fileshare/media-api/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZipRoot(t *testing.T) (*storage.Root, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := storage.NewRoot(dir, 5*time.Second)
	require.NoError(t, err)

	return root, root.Base()
}

func seedZipFile(t *testing.T, base, rel, content string) {
	t.Helper()
	abs := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestStreamZipRoundTrip(t *testing.T) {
	root, base := newZipRoot(t)
	seedZipFile(t, base, "one.txt", "first")
	seedZipFile(t, base, "sub/two.txt", "second")

	entries, err := BuildArchiveEntries(root, []string{"/one.txt", "/sub/two.txt"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, StreamZip(&buf, entries))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}

	assert.Equal(t, "first", contents["one.txt"])
	assert.Equal(t, "second", contents["two.txt"])
}

func TestStreamZipDeduplicatesNames(t *testing.T) {
	root, base := newZipRoot(t)
	seedZipFile(t, base, "a/dup.txt", "from a")
	seedZipFile(t, base, "b/dup.txt", "from b")
	seedZipFile(t, base, "c/dup.txt", "from c")

	entries, err := BuildArchiveEntries(root, []string{"/a/dup.txt", "/b/dup.txt", "/c/dup.txt"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, StreamZip(&buf, entries))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"dup.txt", "dup (1).txt", "dup (2).txt"}, names)
}

func TestBuildArchiveEntriesFailsWholeBatch(t *testing.T) {
	root, base := newZipRoot(t)
	seedZipFile(t, base, "good.txt", "fine")

	_, err := BuildArchiveEntries(root, []string{"/good.txt", "/missing.txt"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = BuildArchiveEntries(root, []string{"/good.txt", "/../escape.txt"})
	assert.Error(t, err)
}
