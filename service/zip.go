package service

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"fileshare/media-api/storage"

	"go.uber.org/zap"
)

// ArchiveEntry is one file destined for a bulk-download archive.
type ArchiveEntry struct {
	// Name inside the archive, already deduplicated
	Name string
	Abs  string
}

// BuildArchiveEntries resolves every requested virtual path up front and
// fails the whole batch on the first one that escapes the root or doesn't
// exist. Nothing is streamed until the full selection has been vetted, so
// the client can still get a clean error status.
func BuildArchiveEntries(root *storage.Root, virtualPaths []string) ([]ArchiveEntry, error) {
	entries := make([]ArchiveEntry, 0, len(virtualPaths))
	seen := map[string]int{}

	for _, vp := range virtualPaths {
		abs, _, err := root.ResolveFile(vp)
		if err != nil {
			return nil, err
		}

		entries = append(entries, ArchiveEntry{
			Name: dedupeName(seen, path.Base(vp)),
			Abs:  abs,
		})
	}

	return entries, nil
}

// dedupeName makes colliding base names unique with an " (n)" suffix so
// the archive never silently overwrites an entry.
func dedupeName(seen map[string]int, name string) string {
	n, ok := seen[name]
	if !ok {
		seen[name] = 0
		return name
	}

	seen[name] = n + 1
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n+1, ext)
}

// StreamZip writes the archive straight into w, one file at a time, so
// selections bigger than memory still work. A read failure mid-stream
// stops without closing the zip writer: the client receives a truncated,
// invalid archive instead of a silently incomplete one.
func StreamZip(w io.Writer, entries []ArchiveEntry) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		f, err := os.Open(entry.Abs)
		if err != nil {
			zap.L().Error("Archive entry became unreadable mid-stream", zap.Error(err))
			return fmt.Errorf("failed to open archive entry, %w", err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to stat archive entry, %w", err)
		}

		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: info.ModTime(),
		}

		ew, err := zw.CreateHeader(header)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create archive header, %w", err)
		}

		_, err = io.Copy(ew, f)
		f.Close()
		if err != nil {
			zap.L().Error("Failed to stream archive entry", zap.Error(err))
			return fmt.Errorf("failed to stream archive entry, %w", err)
		}
	}

	return zw.Close()
}
