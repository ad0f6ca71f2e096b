package storage

import "time"

type Stats struct {
	TotalFiles int              `json:"total_files"`
	TotalSize  int64            `json:"total_size"`
	ByType     map[FileType]int `json:"by_type"`
}

type cachedStats struct {
	mtime time.Time
	stats *Stats
}

// Stats aggregates the immediate children of one directory. Results are
// cached per (directory, mtime); a changed directory is a plain miss and
// the stale entry gets overwritten, never swept.
func (r *Root) Stats(virtual string) (*Stats, error) {
	abs, info, err := r.ResolveDir(virtual)
	if err != nil {
		return nil, err
	}

	if v, ok := r.stats.Load(abs); ok {
		cached := v.(cachedStats)
		if cached.mtime.Equal(info.ModTime()) {
			return cached.stats, nil
		}
	}

	entries, err := r.readDir(abs)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ByType: map[FileType]int{},
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		stats.TotalFiles++
		stats.TotalSize += fi.Size()
		stats.ByType[Classify(entry.Name())]++
	}

	r.stats.Store(abs, cachedStats{mtime: info.ModTime(), stats: stats})
	return stats, nil
}
