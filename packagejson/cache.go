/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"fmt"
	"path"

	"github.com/dgraph-io/ristretto"

	"expo.dev/metroresolve/fs"
)

// FileName is the package manifest name.
const FileName = "package.json"

// Cache memoizes parsed package.json files for one session. Entries are
// never invalidated; a new session starts with a new cache.
type Cache struct {
	fsys  fs.FileSystem
	cache *ristretto.Cache
}

// NewCache creates a cache holding up to maxEntries parsed manifests.
func NewCache(fsys fs.FileSystem, maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 1 << 14
	}
	impl, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating package.json cache: %w", err)
	}
	return &Cache{fsys: fsys, cache: impl}, nil
}

// Read returns the parsed package.json at file. Missing files return an
// error satisfying fs.IsNotExist; malformed files wrap ErrMalformed.
func (c *Cache) Read(file string) (*PackageJSON, error) {
	if cached, ok := c.cache.Get(file); ok {
		return cached.(*PackageJSON), nil
	}

	data, err := c.fsys.ReadFile(file)
	if err != nil {
		return nil, err
	}
	pkg, err := Parse(file, data)
	if err != nil {
		return nil, err
	}
	if c.cache.Set(file, pkg, 1) {
		c.cache.Wait()
	}
	return pkg, nil
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.cache.Close()
}

// Reader reads package.json files, typically a Cache's Read method.
type Reader func(file string) (*PackageJSON, error)

// FindPackageOf walks up from file to the nearest directory containing a
// package.json and returns that manifest. It returns nil when none exists.
func FindPackageOf(fsys fs.FileSystem, read Reader, file string) (*PackageJSON, error) {
	dir := path.Dir(file)
	for {
		candidate := path.Join(dir, FileName)
		if fs.IsFile(fsys, candidate) {
			return read(candidate)
		}
		parent := path.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}
