/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolution

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"expo.dev/metroresolve/fs"
	"expo.dev/metroresolve/packagejson"
)

// Platform is a bundle target. The empty platform means none was requested.
type Platform string

const (
	PlatformNone    Platform = ""
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// IsNative reports whether p is a native mobile target.
func (p Platform) IsNative() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// ParsePlatform converts a flag value into a Platform. "none" and the empty
// string both mean no platform.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return PlatformNone, true
	case "ios":
		return PlatformIOS, true
	case "android":
		return PlatformAndroid, true
	case "web":
		return PlatformWeb, true
	}
	return PlatformNone, false
}

// Environment values carried by the "environment" custom option.
const (
	EnvironmentClient      = "client"
	EnvironmentNode        = "node"
	EnvironmentReactServer = "react-server"
)

// EnvironmentOption is the custom option key selecting the environment.
const EnvironmentOption = "environment"

// PackageReader reads and parses the package.json at path.
type PackageReader func(path string) (*packagejson.PackageJSON, error)

// AssetResolver lists the density variants of the asset name+ext inside dir.
// It returns absolute paths, or nil when none exist.
type AssetResolver func(dir, name, ext string) ([]string, error)

// Context is the per-request resolution state. Resolvers treat it as
// immutable: to change something they derive a copy with Clone or one of the
// With helpers and pass the copy on.
type Context struct {
	// OriginModulePath is the absolute path of the importing file.
	OriginModulePath string

	// SourceExts are the base source extensions without leading dots, in
	// priority order.
	SourceExts []string

	// AssetExts are extensions treated as assets rather than code.
	AssetExts []string

	// MainFields is the ordered list of package.json entry fields.
	MainFields []string

	// NodeModulesPaths are searched after hierarchical node_modules lookup.
	NodeModulesPaths []string

	DisableHierarchicalLookup bool
	PreferNativePlatform      bool
	EnablePackageExports      bool
	UnstableConditionNames    []string

	// CustomOptions is an opaque map that partitions caches.
	CustomOptions map[string]string

	FileSystem   fs.FileSystem
	ReadPackage  PackageReader
	ResolveAsset AssetResolver
}

// Clone returns a shallow copy of c.
func (c *Context) Clone() *Context {
	clone := *c
	return &clone
}

// WithOrigin returns a copy of c importing from origin.
func (c *Context) WithOrigin(origin string) *Context {
	clone := c.Clone()
	clone.OriginModulePath = origin
	return clone
}

// WithNodeModulesPaths returns a copy of c with paths searched before the
// existing NodeModulesPaths.
func (c *Context) WithNodeModulesPaths(paths ...string) *Context {
	clone := c.Clone()
	clone.NodeModulesPaths = append(slices.Clone(paths), c.NodeModulesPaths...)
	return clone
}

// WithPreferNativePlatform returns a copy of c with the native preference set.
func (c *Context) WithPreferNativePlatform(prefer bool) *Context {
	clone := c.Clone()
	clone.PreferNativePlatform = prefer
	return clone
}

// Environment returns the environment custom option, defaulting to client.
func (c *Context) Environment() string {
	if env := c.CustomOptions[EnvironmentOption]; env != "" {
		return env
	}
	return EnvironmentClient
}

// IsServer reports whether the request targets a server environment.
func (c *Context) IsServer() bool {
	env := c.Environment()
	return env == EnvironmentNode || env == EnvironmentReactServer
}

// CustomOptionsKey returns a stable hash of the custom options, suitable as a
// cache partition key. Requests without options share the key "0".
func (c *Context) CustomOptionsKey() string {
	if len(c.CustomOptions) == 0 {
		return "0"
	}
	keys := make([]string, 0, len(c.CustomOptions))
	for k := range c.CustomOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(c.CustomOptions[k])
		_, _ = d.WriteString("\x00")
	}
	return strconv.FormatUint(d.Sum64(), 36)
}

// IsSourceExt reports whether ext (with or without a leading dot) is a source extension.
func (c *Context) IsSourceExt(ext string) bool {
	return ext != "" && slices.Contains(c.SourceExts, strings.TrimPrefix(ext, "."))
}

// IsAssetExt reports whether ext (with or without a leading dot) is an asset extension.
func (c *Context) IsAssetExt(ext string) bool {
	return slices.Contains(c.AssetExts, strings.TrimPrefix(ext, "."))
}

// Package reads the package.json at path through ReadPackage. It returns
// nil and no error when the context has no reader.
func (c *Context) Package(path string) (*packagejson.PackageJSON, error) {
	if c.ReadPackage == nil {
		return nil, nil
	}
	return c.ReadPackage(path)
}
