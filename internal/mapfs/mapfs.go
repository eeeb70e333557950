/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mapfs provides an in-memory filesystem implementation for testing.
package mapfs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// maxLinkHops bounds symlink evaluation, like ELOOP on real systems.
const maxLinkHops = 40

// MapFileSystem implements fs.FileSystem over an fstest.MapFS, with a
// separate symlink table so linked workspace packages can be modelled.
type MapFileSystem struct {
	mu      sync.RWMutex
	mapFS   fstest.MapFS
	links   map[string]string
	modTime time.Time
}

// New creates a new in-memory filesystem for testing.
func New() *MapFileSystem {
	return &MapFileSystem{
		mapFS:   make(fstest.MapFS),
		links:   make(map[string]string),
		modTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile adds a file to the in-memory filesystem.
func (mfs *MapFileSystem) AddFile(p string, content string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	mfs.mapFS[p] = &fstest.MapFile{
		Data:    []byte(content),
		Mode:    mode,
		ModTime: mfs.modTime,
	}
}

// AddFiles adds several files at once, all with mode 0644.
func (mfs *MapFileSystem) AddFiles(files map[string]string) {
	for p, content := range files {
		mfs.AddFile(p, content, 0644)
	}
}

// AddDir adds a directory to the in-memory filesystem.
func (mfs *MapFileSystem) AddDir(p string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	mfs.mapFS[p+"/.keep"] = &fstest.MapFile{
		Data:    []byte(""),
		Mode:    mode.Perm(),
		ModTime: mfs.modTime,
	}
}

// AddSymlink makes link resolve to target. Both are absolute paths; target
// may point at a file or a directory.
func (mfs *MapFileSystem) AddSymlink(link, target string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.links[cleanPath(link)] = cleanPath(target)
}

// ReadFile implements fs.FileSystem.
func (mfs *MapFileSystem) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(mfs.mapFS, p)
}

// Stat implements fs.FileSystem. Symlinks are followed.
func (mfs *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return fs.Stat(mfs.mapFS, ".")
	}
	return fs.Stat(mfs.mapFS, p)
}

// Exists implements fs.FileSystem.
func (mfs *MapFileSystem) Exists(name string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return false
	}
	if _, exists := mfs.mapFS[p]; exists {
		return true
	}

	prefix := p + "/"
	for filePath := range mfs.mapFS {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

// ReadDir implements fs.FileSystem. Symlinks living directly in the
// directory are listed as entries of their targets.
func (mfs *MapFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	dir := p
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(mfs.mapFS, dir)
	linked := mfs.linkedEntriesLocked(cleanPath(name))
	if err != nil {
		if len(linked) == 0 {
			return nil, err
		}
		entries = nil
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name()] = true
	}
	for _, e := range linked {
		if !seen[e.Name()] {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// RealPath implements fs.FileSystem.
func (mfs *MapFileSystem) RealPath(name string) (string, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return "", err
	}
	if p != "" {
		if _, err := fs.Stat(mfs.mapFS, p); err != nil {
			return "", &fs.PathError{Op: "realpath", Path: name, Err: fs.ErrNotExist}
		}
	}
	return "/" + p, nil
}

// Open implements fs.FileSystem.
func (mfs *MapFileSystem) Open(name string) (fs.File, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	if p == "" {
		p = "."
	}
	return mfs.mapFS.Open(p)
}

// ListFiles returns all files in the MapFS for debugging.
func (mfs *MapFileSystem) ListFiles() map[string]string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	result := make(map[string]string)
	for p, file := range mfs.mapFS {
		// Directories are stored as .keep files
		if strings.HasSuffix(p, "/.keep") || p == ".keep" {
			dirPath := path.Dir(p)
			if dirPath == "." {
				dirPath = "/"
			}
			result["/"+strings.TrimPrefix(dirPath, "/")] = "directory"
		} else {
			result["/"+p] = fmt.Sprintf("file (%d bytes)", len(file.Data))
		}
	}
	for link, target := range mfs.links {
		result["/"+link] = "symlink -> /" + target
	}
	return result
}

// resolveLocked rewrites every symlinked prefix of name until none is left.
func (mfs *MapFileSystem) resolveLocked(name string) (string, error) {
	p := cleanPath(name)
	for hops := 0; ; hops++ {
		if hops > maxLinkHops {
			return "", &fs.PathError{Op: "resolve", Path: name, Err: fmt.Errorf("too many levels of symbolic links")}
		}
		link, target, ok := mfs.longestLinkLocked(p)
		if !ok {
			return p, nil
		}
		p = target + strings.TrimPrefix(p, link)
	}
}

func (mfs *MapFileSystem) longestLinkLocked(p string) (string, string, bool) {
	var best string
	for link := range mfs.links {
		if (p == link || strings.HasPrefix(p, link+"/")) && len(link) > len(best) {
			best = link
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, mfs.links[best], true
}

func (mfs *MapFileSystem) linkedEntriesLocked(dir string) []fs.DirEntry {
	var entries []fs.DirEntry
	for link, target := range mfs.links {
		parent := path.Dir(link)
		if parent == "." {
			parent = ""
		}
		if parent != dir {
			continue
		}
		info, err := fs.Stat(mfs.mapFS, target)
		if err != nil {
			continue
		}
		entries = append(entries, linkEntry{name: path.Base(link), info: info})
	}
	return entries
}

func cleanPath(p string) string {
	cleaned := path.Clean("/" + strings.TrimPrefix(p, "/"))
	return strings.TrimPrefix(cleaned, "/")
}

// linkEntry presents a symlink under its own name with its target's info.
type linkEntry struct {
	name string
	info fs.FileInfo
}

func (e linkEntry) Name() string               { return e.name }
func (e linkEntry) IsDir() bool                { return e.info.IsDir() }
func (e linkEntry) Type() fs.FileMode          { return e.info.Mode().Type() }
func (e linkEntry) Info() (fs.FileInfo, error) { return e.info, nil }
