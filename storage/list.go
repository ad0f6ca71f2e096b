package storage

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

type FolderEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	ItemCount  int       `json:"item_count"`
	ModifiedAt time.Time `json:"modified_at"`
}

type FileEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Type       FileType  `json:"file_type"`
}

type Listing struct {
	Folders []FolderEntry `json:"folders"`
	Files   []FileEntry   `json:"files"`
}

// ValidSortOpts are the accepted values for the sort query parameter
var ValidSortOpts = []string{"name", "newest", "oldest", "size"}

type ListOptions struct {
	// Case-insensitive substring match on names, current directory only
	Search string
	// Restricts files to one FileType; folders stay visible so the
	// directory remains navigable while filtered
	Type FileType
	Sort string
}

// List reads exactly one directory and returns its classified children.
// Folder item counts cost one extra directory read per subfolder, never
// a recursive walk.
func (r *Root) List(virtual string, opts ListOptions) (*Listing, error) {
	abs, _, err := r.ResolveDir(virtual)
	if err != nil {
		return nil, err
	}

	entries, err := r.readDir(abs)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(opts.Search)
	listing := &Listing{
		Folders: []FolderEntry{},
		Files:   []FileEntry{},
	}

	for _, entry := range entries {
		name := entry.Name()

		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and stat, skip it
			zap.L().Debug("Skipping unreadable entry", zap.Error(err))
			continue
		}

		vpath := path.Join(r.Virtual(abs), name)

		if entry.IsDir() {
			listing.Folders = append(listing.Folders, FolderEntry{
				Name:       name,
				Path:       vpath,
				ItemCount:  r.childCount(abs, name),
				ModifiedAt: info.ModTime(),
			})
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		ftype := Classify(name)
		if opts.Type != "" && ftype != opts.Type {
			continue
		}

		listing.Files = append(listing.Files, FileEntry{
			Name:       name,
			Path:       vpath,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			Type:       ftype,
		})
	}

	sortListing(listing, opts.Sort)
	return listing, nil
}

// childCount is the number of immediate children of a subfolder. A folder
// that can't be read right now just reports zero instead of failing the
// whole listing.
func (r *Root) childCount(parent, name string) int {
	children, err := r.readDir(filepath.Join(parent, name))
	if err != nil {
		return 0
	}
	return len(children)
}

func sortListing(l *Listing, key string) {
	switch key {
	case "oldest":
		sort.SliceStable(l.Folders, func(i, j int) bool {
			return l.Folders[i].ModifiedAt.Before(l.Folders[j].ModifiedAt)
		})
		sort.SliceStable(l.Files, func(i, j int) bool {
			return l.Files[i].ModifiedAt.Before(l.Files[j].ModifiedAt)
		})
	case "newest":
		sort.SliceStable(l.Folders, func(i, j int) bool {
			return l.Folders[i].ModifiedAt.After(l.Folders[j].ModifiedAt)
		})
		sort.SliceStable(l.Files, func(i, j int) bool {
			return l.Files[i].ModifiedAt.After(l.Files[j].ModifiedAt)
		})
	case "size":
		// Folders have no meaningful byte size, keep them alphabetical
		sortByName(l.Folders, func(f FolderEntry) string { return f.Name })
		sort.SliceStable(l.Files, func(i, j int) bool {
			return l.Files[i].Size > l.Files[j].Size
		})
	default: // name
		sortByName(l.Folders, func(f FolderEntry) string { return f.Name })
		sortByName(l.Files, func(f FileEntry) string { return f.Name })
	}
}

func sortByName[T any](s []T, name func(T) string) {
	sort.SliceStable(s, func(i, j int) bool {
		return strings.ToLower(name(s[i])) < strings.ToLower(name(s[j]))
	})
}
