// Package service contains the media processing parts of the application:
// thumbnail generation, codec probing, transcoding and archive assembly
package service

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrThumbnailUnavailable means the source can't be thumbnailed (corrupt,
// unsupported format, or not an image). Callers fall back to a type icon.
var ErrThumbnailUnavailable = errors.New("thumbnail unavailable")

const thumbMaxDim = 400

// Thumbnailer generates and caches scaled-down JPEG previews of images.
//
// The cache key is derived from (source path, mtime, size), so replacing a
// file at the same path invalidates its thumbnail without any purge step.
// Concurrent requests for the same missing thumbnail coalesce onto one
// generation; every waiter gets the same result.
type Thumbnailer struct {
	cacheDir string
	group    singleflight.Group

	// generation count, observed by tests
	generated atomic.Int64
}

func NewThumbnailer(cacheDir string) *Thumbnailer {
	return &Thumbnailer{cacheDir: cacheDir}
}

// Get returns the path of the cached thumbnail for the image at abs,
// generating it first if needed.
func (t *Thumbnailer) Get(abs string) (string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return "", ErrThumbnailUnavailable
	}

	key := cacheKey(abs, info.ModTime(), info.Size())
	cached := filepath.Join(t.cacheDir, key+".jpg")

	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	_, err, _ = t.group.Do(key, func() (any, error) {
		// A waiter that lost the race may find the file already written
		if _, err := os.Stat(cached); err == nil {
			return nil, nil
		}
		return nil, t.generate(abs, cached)
	})
	if err != nil {
		return "", err
	}

	return cached, nil
}

func (t *Thumbnailer) generate(src, dst string) error {
	start := time.Now()
	t.generated.Add(1)

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		zap.L().Debug("Failed to decode image for thumbnail", zap.Error(err))
		return ErrThumbnailUnavailable
	}

	img = imaging.Fit(img, thumbMaxDim, thumbMaxDim, imaging.Lanczos)

	// Write to a temp file first so a crashed generation never leaves a
	// half-written thumbnail under the final key
	tmp, err := os.CreateTemp(t.cacheDir, "thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create temp thumbnail, %w", err)
	}

	err = imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(85))
	tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		zap.L().Debug("Failed to encode thumbnail", zap.Error(err))
		return ErrThumbnailUnavailable
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store thumbnail, %w", err)
	}

	zap.L().Debug("Generated thumbnail",
		zap.String("src", src),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func cacheKey(abs string, mtime time.Time, size int64) string {
	h := sha1.Sum(fmt.Appendf(nil, "%s|%d|%d", abs, mtime.UnixNano(), size))
	return hex.EncodeToString(h[:])
}
