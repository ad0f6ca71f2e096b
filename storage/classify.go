package storage

import (
	"path"
	"strings"
)

// FileType is the closed classification used across listings, stats
// and filters
type FileType string

const (
	FileImage FileType = "image"
	FileVideo FileType = "video"
	FileOther FileType = "other"
)

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".webp": {}, ".bmp": {}, ".tiff": {}, ".svg": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".webm": {}, ".ogg": {}, ".mov": {},
	".avi": {}, ".mkv": {}, ".m4v": {},
}

// Classify buckets a filename into image/video/other by extension
func Classify(name string) FileType {
	ext := strings.ToLower(path.Ext(name))

	if _, ok := imageExts[ext]; ok {
		return FileImage
	}
	if _, ok := videoExts[ext]; ok {
		return FileVideo
	}
	return FileOther
}
