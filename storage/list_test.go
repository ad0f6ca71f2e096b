package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTree builds the canonical test layout:
//
//	a.jpg (3 bytes), b.mp4 (5 bytes), c.txt (1 byte)
//	sub/one.jpg, sub/two.txt
func seedTree(t *testing.T) (*Root, string) {
	t.Helper()
	root, base := newTestRoot(t)

	writeFile(t, filepath.Join(base, "a.jpg"), []byte("aaa"))
	writeFile(t, filepath.Join(base, "b.mp4"), []byte("bbbbb"))
	writeFile(t, filepath.Join(base, "c.txt"), []byte("c"))
	writeFile(t, filepath.Join(base, "sub", "one.jpg"), []byte("1"))
	writeFile(t, filepath.Join(base, "sub", "two.txt"), []byte("22"))

	return root, base
}

func TestListSeededTree(t *testing.T) {
	root, _ := seedTree(t)

	listing, err := root.List("/", ListOptions{Sort: "name"})
	require.NoError(t, err)

	require.Len(t, listing.Folders, 1)
	assert.Equal(t, "sub", listing.Folders[0].Name)
	assert.Equal(t, "/sub", listing.Folders[0].Path)
	assert.Equal(t, 2, listing.Folders[0].ItemCount)

	require.Len(t, listing.Files, 3)
	assert.Equal(t, "a.jpg", listing.Files[0].Name)
	assert.Equal(t, FileImage, listing.Files[0].Type)
	assert.Equal(t, "b.mp4", listing.Files[1].Name)
	assert.Equal(t, FileVideo, listing.Files[1].Type)
	assert.Equal(t, "c.txt", listing.Files[2].Name)
	assert.Equal(t, FileOther, listing.Files[2].Type)
}

func TestListRoundTrip(t *testing.T) {
	root, _ := seedTree(t)

	listing, err := root.List("/", ListOptions{Sort: "name"})
	require.NoError(t, err)
	require.Len(t, listing.Folders, 1)

	inner, err := root.List(listing.Folders[0].Path, ListOptions{Sort: "name"})
	require.NoError(t, err)

	assert.Empty(t, inner.Folders)
	require.Len(t, inner.Files, 2)
	assert.Equal(t, "one.jpg", inner.Files[0].Name)
	assert.Equal(t, "/sub/one.jpg", inner.Files[0].Path)
	assert.Equal(t, "two.txt", inner.Files[1].Name)
}

func TestListSearch(t *testing.T) {
	root, _ := seedTree(t)

	listing, err := root.List("/", ListOptions{Search: "A.JP", Sort: "name"})
	require.NoError(t, err)

	assert.Empty(t, listing.Folders)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "a.jpg", listing.Files[0].Name)

	// Search is scoped to the listed directory, sub/one.jpg must not
	// leak into a root listing
	listing, err = root.List("/", ListOptions{Search: "one", Sort: "name"})
	require.NoError(t, err)
	assert.Empty(t, listing.Files)
}

func TestListTypeFilter(t *testing.T) {
	root, _ := seedTree(t)

	listing, err := root.List("/", ListOptions{Type: FileVideo, Sort: "name"})
	require.NoError(t, err)

	require.Len(t, listing.Files, 1)
	assert.Equal(t, "b.mp4", listing.Files[0].Name)

	// Folders stay navigable while a filter is active
	assert.Len(t, listing.Folders, 1)
}

func TestListSortKeys(t *testing.T) {
	root, base := seedTree(t)

	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(base, "a.jpg"), now, now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(base, "b.mp4"), now, now.Add(-1*time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(base, "c.txt"), now, now))

	names := func(l *Listing) []string {
		out := make([]string, 0, len(l.Files))
		for _, f := range l.Files {
			out = append(out, f.Name)
		}
		return out
	}

	listing, err := root.List("/", ListOptions{Sort: "newest"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt", "b.mp4", "a.jpg"}, names(listing))

	listing, err = root.List("/", ListOptions{Sort: "oldest"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.mp4", "c.txt"}, names(listing))

	// Size sorts descending; b.mp4 (5) > a.jpg (3) > c.txt (1)
	listing, err = root.List("/", ListOptions{Sort: "size"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.mp4", "a.jpg", "c.txt"}, names(listing))
}

func TestListNeverScansOtherDirectories(t *testing.T) {
	root, base := seedTree(t)
	writeFile(t, filepath.Join(base, "other", "deep", "x.txt"), []byte("x"))

	var mu sync.Mutex
	read := map[string]int{}
	inner := root.readDirFn
	root.readDirFn = func(p string) ([]os.DirEntry, error) {
		mu.Lock()
		read[p]++
		mu.Unlock()
		return inner(p)
	}

	// Listing a subfolder touches that subfolder and nothing else
	_, err := root.List("/sub", ListOptions{Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{filepath.Join(base, "sub"): 1}, read)

	// Listing the root additionally reads each immediate subfolder once
	// for its item count, but never descends further
	read = map[string]int{}
	_, err = root.List("/", ListOptions{Sort: "name"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		base:                         1,
		filepath.Join(base, "sub"):   1,
		filepath.Join(base, "other"): 1,
	}, read)
}

func TestListMissingDirectory(t *testing.T) {
	root, _ := seedTree(t)

	_, err := root.List("/nope", ListOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	root, _ := seedTree(t)

	stats, err := root.Stats("/")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalFiles)
	assert.EqualValues(t, 9, stats.TotalSize)
	assert.Equal(t, 1, stats.ByType[FileImage])
	assert.Equal(t, 1, stats.ByType[FileVideo])
	assert.Equal(t, 1, stats.ByType[FileOther])
}

func TestStatsCacheInvalidatesOnMtimeChange(t *testing.T) {
	root, base := seedTree(t)

	stats, err := root.Stats("/sub")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)

	writeFile(t, filepath.Join(base, "sub", "three.txt"), []byte("3"))

	// Force a visibly different directory mtime so the cached entry
	// can't be confused with the current state
	bumped := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "sub"), bumped, bumped))

	stats, err = root.Stats("/sub")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalFiles)
}
