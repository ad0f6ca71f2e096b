package service

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestGetGeneratesAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestImage(t, src, 800, 600, color.RGBA{R: 255, A: 255})

	th := NewThumbnailer(t.TempDir())

	first, err := th.Get(src)
	require.NoError(t, err)
	assert.FileExists(t, first)

	second, err := th.Get(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Second call must be a cache hit
	assert.EqualValues(t, 1, th.generated.Load())
}

func TestConcurrentRequestsCoalesce(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestImage(t, src, 800, 600, color.RGBA{G: 255, A: 255})

	th := NewThumbnailer(t.TempDir())

	const callers = 50

	var wg sync.WaitGroup
	paths := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = th.Get(src)
		}(i)
	}
	wg.Wait()

	want, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		got, err := os.ReadFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.EqualValues(t, 1, th.generated.Load(), "coalescing must run exactly one generation")
}

func TestReplacedSourceInvalidatesKey(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeTestImage(t, src, 800, 600, color.RGBA{B: 255, A: 255})

	th := NewThumbnailer(t.TempDir())

	first, err := th.Get(src)
	require.NoError(t, err)

	// Replace the file at the same virtual path with different content
	// and a visibly different mtime
	writeTestImage(t, src, 640, 480, color.RGBA{R: 255, G: 255, A: 255})
	bumped := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, bumped, bumped))

	second, err := th.Get(src)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "changed source must map to a new cache key")
	assert.EqualValues(t, 2, th.generated.Load())
}

func TestCorruptImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(src, []byte("this is not an image"), 0o644))

	th := NewThumbnailer(t.TempDir())

	_, err := th.Get(src)
	assert.ErrorIs(t, err, ErrThumbnailUnavailable)
}

func TestMissingSource(t *testing.T) {
	th := NewThumbnailer(t.TempDir())

	_, err := th.Get(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrThumbnailUnavailable)
}
