/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package testutil provides fixtures and resolution contexts for tests.
package testutil

import (
	"bufio"
	"bytes"
	"flag"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"expo.dev/metroresolve/assets"
	"expo.dev/metroresolve/internal/mapfs"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
)

// updateGolden enables updating golden files with actual output when -update flag is set.
var updateGolden = flag.Bool("update", false, "update golden files with actual output")

// symlinksFile lists "link -> target" pairs, relative to the fixture root.
const symlinksFile = ".symlinks"

// NewFixtureFS loads testdata/fixtures/<fixtureDir> into a MapFileSystem
// rooted at rootPath. A .symlinks file in the fixture adds symlinks.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()

	fixturePath := findTestdata(filepath.Join("fixtures", fixtureDir))
	if fixturePath == "" {
		t.Fatalf("Could not find fixtures at %s (tried all paths)", fixtureDir)
	}

	mfs := mapfs.New()
	var links []byte
	err := filepath.WalkDir(fixturePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(fixturePath, p)
		if err != nil {
			return err
		}
		if relPath == symlinksFile {
			links = content
			return nil
		}
		mfs.AddFile(path.Join(rootPath, filepath.ToSlash(relPath)), string(content), 0644)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to load fixtures from %s: %v", fixtureDir, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(links))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		link, target, ok := strings.Cut(line, "->")
		if !ok {
			t.Fatalf("Malformed symlink line in %s: %q", fixtureDir, line)
		}
		mfs.AddSymlink(path.Join(rootPath, strings.TrimSpace(link)), path.Join(rootPath, strings.TrimSpace(target)))
	}

	return mfs
}

// NewContext returns a client context over mfs importing from origin, with
// the source and asset extensions and main fields the CLI uses for platform.
func NewContext(t *testing.T, mfs *mapfs.MapFileSystem, origin string, platform resolution.Platform) *resolution.Context {
	t.Helper()

	cache, err := packagejson.NewCache(mfs, 0)
	if err != nil {
		t.Fatalf("Failed to create package cache: %v", err)
	}
	t.Cleanup(cache.Close)

	mainFields := []string{"react-native", "browser", "main"}
	if platform == resolution.PlatformWeb {
		mainFields = []string{"browser", "module", "main"}
	}
	return &resolution.Context{
		OriginModulePath:     origin,
		SourceExts:           []string{"ts", "tsx", "js", "jsx", "json"},
		AssetExts:            []string{"png", "jpg", "gif", "ttf"},
		MainFields:           mainFields,
		PreferNativePlatform: platform.IsNative(),
		CustomOptions:        map[string]string{},
		FileSystem:           mfs,
		ReadPackage:          cache.Read,
		ResolveAsset: func(dir, name, ext string) ([]string, error) {
			return assets.Resolve(mfs, dir, name, ext)
		},
	}
}

// LoadFixtureFile reads a single testdata file and returns its content.
func LoadFixtureFile(t *testing.T, fixturePath string) []byte {
	t.Helper()

	p := findTestdata(fixturePath)
	if p == "" {
		t.Fatalf("Failed to read fixture %s (tried all paths)", fixturePath)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", fixturePath, err)
	}
	return content
}

// UpdateGoldenFile writes actual output to the golden file when -update flag is set.
func UpdateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	if !*updateGolden {
		return
	}

	targetPath := findTestdata(goldenPath)
	if targetPath == "" {
		dir := findTestdata(filepath.Dir(goldenPath))
		if dir == "" {
			dir = filepath.Join("testdata", filepath.Dir(goldenPath))
		}
		targetPath = filepath.Join(dir, filepath.Base(goldenPath))
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		t.Fatalf("Failed to create directory for golden file %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(targetPath, actual, 0644); err != nil {
		t.Fatalf("Failed to write golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", targetPath)
}

// findTestdata looks for rel under testdata, walking up since go test runs
// in the package directory.
func findTestdata(rel string) string {
	for _, prefix := range []string{".", "..", filepath.Join("..", "..")} {
		p := filepath.Join(prefix, "testdata", rel)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
