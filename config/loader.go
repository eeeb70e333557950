/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	mrfs "expo.dev/metroresolve/fs"
)

// ConfigFileName is the base name of the config file without extension.
const ConfigFileName = "metroresolve"

// ConfigDir is the directory where config files are stored.
const ConfigDir = ".config"

// configExtensions are the supported config file extensions in priority order.
var configExtensions = []string{".yaml", ".yml", ".json"}

// Load searches for .config/metroresolve.{yaml,yml,json} from rootDir and
// fills unset fields with defaults. Returns nil if no config found (not an
// error). JSON configs may contain comments and trailing commas.
func Load(filesystem mrfs.FileSystem, rootDir string) (*Config, error) {
	for _, ext := range configExtensions {
		configPath := path.Join(rootDir, ConfigDir, ConfigFileName+ext)
		if !filesystem.Exists(configPath) {
			continue
		}

		data, err := filesystem.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		cfg := &Config{}
		switch ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configPath, err)
			}
		case ".json":
			if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configPath, err)
			}
		}

		return cfg.withDefaults(), nil
	}

	return nil, nil
}

// LoadOrDefault returns config or defaults if not found.
func LoadOrDefault(filesystem mrfs.FileSystem, rootDir string) *Config {
	cfg, err := Load(filesystem, rootDir)
	if err != nil || cfg == nil {
		return Default()
	}
	return cfg
}

// ExpandWatchFolders expands WatchFolders into absolute directories, sorted.
// Relative entries are joined to rootDir. Directories that do not exist are
// dropped.
func (c *Config) ExpandWatchFolders(filesystem mrfs.FileSystem, rootDir string) ([]string, error) {
	seen := map[string]bool{}
	var result []string

	for _, pattern := range c.WatchFolders {
		expanded, err := expandDirPattern(filesystem, rootDir, pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range expanded {
			if !seen[dir] {
				seen[dir] = true
				result = append(result, dir)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

// ResolvePath makes p absolute against rootDir.
func ResolvePath(rootDir, p string) string {
	if p == "" || path.IsAbs(p) {
		return p
	}
	return path.Join(rootDir, p)
}

// expandDirPattern expands a single directory pattern which may contain globs.
func expandDirPattern(filesystem mrfs.FileSystem, rootDir, pattern string) ([]string, error) {
	pattern = ResolvePath(rootDir, pattern)

	if !containsGlob(pattern) {
		if mrfs.IsDir(filesystem, pattern) {
			return []string{path.Clean(pattern)}, nil
		}
		return nil, nil
	}

	return expandGlob(filesystem, pattern)
}

// containsGlob returns true if the pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob walks the non-glob prefix of pattern and returns the matching
// directories. node_modules is never descended into.
func expandGlob(filesystem mrfs.FileSystem, pattern string) ([]string, error) {
	baseDir := pattern
	for containsGlob(baseDir) {
		baseDir = path.Dir(baseDir)
	}
	relPattern := strings.TrimPrefix(strings.TrimPrefix(pattern, baseDir), "/")
	if !doublestar.ValidatePattern(relPattern) {
		return nil, fmt.Errorf("invalid watch folder pattern %q", pattern)
	}

	var matches []string
	err := fs.WalkDir(filesystem, baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "node_modules" {
			return fs.SkipDir
		}

		relPath := strings.TrimPrefix(strings.TrimPrefix(p, baseDir), "/")
		if relPath == "" {
			return nil
		}
		if matched, _ := doublestar.Match(relPattern, relPath); matched {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		if mrfs.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return matches, nil
}
