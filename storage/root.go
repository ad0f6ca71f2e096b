// Package storage resolves client-facing virtual paths against the media
// root and reads directory contents lazily, one directory per call.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound means the virtual path doesn't resolve to anything on disk
	ErrNotFound = errors.New("path not found")
	// ErrForbidden means the resolved path would land outside the media root
	ErrForbidden = errors.New("path escapes media root")
	// ErrStorageUnavailable covers any other I/O failure, including reads
	// that exceed the probe timeout (unresponsive removable media)
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Root is the single directory the server is allowed to read from.
// Every virtual path handed in by a client resolves relative to it.
type Root struct {
	base         string
	probeTimeout time.Duration
	readDirFn    func(string) ([]os.DirEntry, error)
	stats        sync.Map // abs dir path -> cachedStats
}

func NewRoot(base string, probeTimeout time.Duration) (*Root, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}

	// Resolve the root itself so symlinked mount points still compare
	// correctly against resolved children
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, errors.New("media root is not a directory")
	}

	return &Root{
		base:         abs,
		probeTimeout: probeTimeout,
		readDirFn:    os.ReadDir,
	}, nil
}

func (r *Root) Base() string {
	return r.base
}

// Resolve turns a client-supplied virtual path into an absolute filesystem
// path, canonicalized and verified to still be a descendant of the root.
// The returned error never contains the real filesystem path.
func (r *Root) Resolve(virtual string) (string, error) {
	// Anchoring at "/" before cleaning means ".." segments can never climb
	// above the root portion of the joined path
	vp := path.Clean("/" + strings.TrimSpace(virtual))
	abs := filepath.Join(r.base, filepath.FromSlash(vp))

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", ErrStorageUnavailable
	}

	if resolved != r.base && !strings.HasPrefix(resolved, r.base+string(os.PathSeparator)) {
		return "", ErrForbidden
	}

	return resolved, nil
}

// ResolveFile is Resolve restricted to regular files.
func (r *Root) ResolveFile(virtual string) (string, fs.FileInfo, error) {
	abs, err := r.Resolve(virtual)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, ErrStorageUnavailable
	}

	if !info.Mode().IsRegular() {
		return "", nil, ErrNotFound
	}

	return abs, info, nil
}

// ResolveDir is Resolve restricted to directories.
func (r *Root) ResolveDir(virtual string) (string, fs.FileInfo, error) {
	abs, err := r.Resolve(virtual)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, ErrStorageUnavailable
	}

	if !info.IsDir() {
		return "", nil, ErrNotFound
	}

	return abs, info, nil
}

// Virtual maps an absolute path under the root back to its virtual form.
func (r *Root) Virtual(abs string) string {
	rel, err := filepath.Rel(r.base, abs)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

// readDir reads one directory with a bounded wait so an unresponsive
// mount surfaces as ErrStorageUnavailable instead of hanging the request.
func (r *Root) readDir(abs string) ([]os.DirEntry, error) {
	type result struct {
		entries []os.DirEntry
		err     error
	}

	ch := make(chan result, 1)
	go func() {
		entries, err := r.readDirFn(abs)
		ch <- result{entries, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if os.IsNotExist(res.err) {
				return nil, ErrNotFound
			}
			return nil, ErrStorageUnavailable
		}
		return res.entries, nil
	case <-time.After(r.probeTimeout):
		return nil, ErrStorageUnavailable
	}
}
