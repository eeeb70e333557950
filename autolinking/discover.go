/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package autolinking discovers installed native modules and pins imports of
// them to the autolinked install, per platform.
package autolinking

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/jsonc"

	"expo.dev/metroresolve/fs"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
)

// ConfigFileName marks a package as an Expo module.
const ConfigFileName = "expo-module.config.json"

// ErrInvalidConfig is returned for module configs that cannot be parsed.
var ErrInvalidConfig = errors.New("invalid expo module config")

// ModuleConfig is the part of expo-module.config.json that decides linking.
type ModuleConfig struct {
	Platforms []string `json:"platforms"`
}

// ParseModuleConfig parses an expo-module.config.json, comments allowed.
func ParseModuleConfig(data []byte) (*ModuleConfig, error) {
	var cfg ModuleConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// ResolutionPlatforms maps config platform names onto bundle platforms.
// "apple" and the Apple OS names link on ios.
func (c *ModuleConfig) ResolutionPlatforms() []resolution.Platform {
	var platforms []resolution.Platform
	add := func(p resolution.Platform) {
		if !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}
	for _, name := range c.Platforms {
		switch strings.ToLower(name) {
		case "apple", "ios", "macos", "tvos":
			add(resolution.PlatformIOS)
		case "android":
			add(resolution.PlatformAndroid)
		case "web":
			add(resolution.PlatformWeb)
		}
	}
	return platforms
}

// Package is a linked native module.
type Package struct {
	Name      string                `yaml:"name" json:"name"`
	Path      string                `yaml:"path" json:"path"`
	Version   string                `yaml:"version,omitempty" json:"version,omitempty"`
	Platforms []resolution.Platform `yaml:"platforms" json:"platforms"`
}

// Supports reports whether p links on platform.
func (p Package) Supports(platform resolution.Platform) bool {
	return slices.Contains(p.Platforms, platform)
}

// Options tune discovery.
type Options struct {
	// SearchPaths are node_modules directories, highest priority first.
	SearchPaths []string

	// Exclude lists package names that are never linked.
	Exclude []string

	// Constraints maps package names to semver ranges; linked versions
	// outside their range are reported.
	Constraints map[string]string
}

// Discover scans the search paths for packages shipping an
// expo-module.config.json. When a package is installed more than once, the
// first one found wins.
func Discover(fsys fs.FileSystem, read packagejson.Reader, opts Options) ([]Package, error) {
	found := map[string]Package{}

	for _, dir := range opts.SearchPaths {
		candidates, err := packageDirs(fsys, dir)
		if err != nil {
			return nil, err
		}
		for _, pkgDir := range candidates {
			pkg, ok, err := loadPackage(fsys, read, pkgDir)
			if err != nil {
				return nil, err
			}
			if !ok || slices.Contains(opts.Exclude, pkg.Name) {
				continue
			}
			if existing, dup := found[pkg.Name]; dup {
				warnIfNewer(existing, pkg)
				continue
			}
			found[pkg.Name] = pkg
		}
	}

	packages := make([]Package, 0, len(found))
	for _, pkg := range found {
		if err := checkConstraint(pkg, opts.Constraints[pkg.Name]); err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	return packages, nil
}

// packageDirs lists the package directories inside a node_modules
// directory, descending into @scopes.
func packageDirs(fsys fs.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, "@") {
			scoped, err := fsys.ReadDir(path.Join(dir, name))
			if err != nil {
				continue
			}
			for _, s := range scoped {
				if s.IsDir() {
					dirs = append(dirs, path.Join(dir, name, s.Name()))
				}
			}
			continue
		}
		dirs = append(dirs, path.Join(dir, name))
	}
	return dirs, nil
}

func loadPackage(fsys fs.FileSystem, read packagejson.Reader, pkgDir string) (Package, bool, error) {
	configPath := path.Join(pkgDir, ConfigFileName)
	if !fs.IsFile(fsys, configPath) {
		return Package{}, false, nil
	}
	data, err := fsys.ReadFile(configPath)
	if err != nil {
		return Package{}, false, fmt.Errorf("reading %s: %w", configPath, err)
	}
	cfg, err := ParseModuleConfig(data)
	if err != nil {
		return Package{}, false, fmt.Errorf("%s: %w", configPath, err)
	}

	pkg := Package{
		Name:      path.Base(pkgDir),
		Path:      fs.RealPathOrSelf(fsys, pkgDir),
		Platforms: cfg.ResolutionPlatforms(),
	}
	if scope := path.Base(path.Dir(pkgDir)); strings.HasPrefix(scope, "@") {
		pkg.Name = scope + "/" + pkg.Name
	}
	if manifest, err := read(path.Join(pkgDir, packagejson.FileName)); err == nil {
		if manifest.Name != "" {
			pkg.Name = manifest.Name
		}
		pkg.Version = manifest.Version
	} else if !fs.IsNotExist(err) {
		return Package{}, false, err
	}
	return pkg, true, nil
}

func warnIfNewer(kept, ignored Package) {
	keptVersion, err1 := semver.NewVersion(kept.Version)
	ignoredVersion, err2 := semver.NewVersion(ignored.Version)
	if err1 != nil || err2 != nil {
		logger.Debug("ignoring duplicate %s at %s", ignored.Name, ignored.Path)
		return
	}
	if ignoredVersion.GreaterThan(keptVersion) {
		logger.Warn("%s@%s at %s is linked, but %s has the newer %s",
			kept.Name, kept.Version, kept.Path, ignored.Path, ignored.Version)
	}
}

func checkConstraint(pkg Package, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version range %q for %s: %w", constraint, pkg.Name, err)
	}
	v, err := semver.NewVersion(pkg.Version)
	if err != nil {
		logger.Warn("%s has no valid version; cannot check %q", pkg.Name, constraint)
		return nil
	}
	if !c.Check(v) {
		logger.Warn("linked %s@%s does not satisfy %s", pkg.Name, pkg.Version, constraint)
	}
	return nil
}
