/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration loading for module resolution.
package config

import (
	"slices"

	"expo.dev/metroresolve/alias"
	"expo.dev/metroresolve/fallback"
	"expo.dev/metroresolve/importstack"
	"expo.dev/metroresolve/sticky"
)

// Config represents the resolver configuration of a project.
type Config struct {
	// SourceExts are the script extensions, without dots, in priority order.
	SourceExts []string `yaml:"sourceExts" json:"sourceExts"`

	// AssetExts are the extensions resolved as scaled assets.
	AssetExts []string `yaml:"assetExts" json:"assetExts"`

	// WatchFolders are directories (globs allowed) outside the project
	// root that belong to the workspace.
	WatchFolders []string `yaml:"watchFolders" json:"watchFolders"`

	// WorkspaceRoot is the monorepo root; defaults to the project root.
	WorkspaceRoot string `yaml:"workspaceRoot" json:"workspaceRoot"`

	// NodeModulesPaths are searched after the hierarchical lookup.
	NodeModulesPaths []string `yaml:"nodeModulesPaths" json:"nodeModulesPaths"`

	DisableHierarchicalLookup bool     `yaml:"disableHierarchicalLookup" json:"disableHierarchicalLookup"`
	EnablePackageExports      bool     `yaml:"enablePackageExports" json:"enablePackageExports"`
	ConditionNames            []string `yaml:"unstableConditionNames" json:"unstableConditionNames"`

	// Alias substitutes packages per platform, keyed by platform name. An
	// empty map disables the default react-native-web alias.
	Alias alias.Table `yaml:"alias" json:"alias"`

	// Sticky replaces the default sticky modules when set.
	Sticky []sticky.Module `yaml:"sticky" json:"sticky"`

	Fallback    FallbackConfig    `yaml:"fallback" json:"fallback"`
	Autolinking AutolinkingConfig `yaml:"autolinking" json:"autolinking"`
	ImportStack ImportStackConfig `yaml:"importStack" json:"importStack"`
}

// FallbackConfig selects the packages whose dependencies serve as a last
// resort search path.
type FallbackConfig struct {
	Origins  []string `yaml:"origins" json:"origins"`
	Denylist []string `yaml:"denylist" json:"denylist"`
}

// AutolinkingConfig tunes native module discovery.
type AutolinkingConfig struct {
	// Manifest is a YAML or JSON package list used instead of discovery.
	Manifest string `yaml:"manifest" json:"manifest"`

	// SearchPaths are extra node_modules directories to scan.
	SearchPaths []string `yaml:"searchPaths" json:"searchPaths"`

	Exclude []string `yaml:"exclude" json:"exclude"`

	// Constraints maps package names to semver ranges.
	Constraints map[string]string `yaml:"constraints" json:"constraints"`
}

// ImportStackConfig bounds the import stack search.
type ImportStackConfig struct {
	MaxDepth  int `yaml:"maxDepth" json:"maxDepth"`
	MaxStacks int `yaml:"maxStacks" json:"maxStacks"`
}

// DefaultSourceExts are the script extensions of an Expo project.
var DefaultSourceExts = []string{"ts", "tsx", "mjs", "js", "jsx", "json", "cjs"}

// DefaultAssetExts are the asset extensions Metro bundles.
var DefaultAssetExts = []string{
	"bmp", "gif", "jpg", "jpeg", "png", "psd", "svg", "webp", "xml",
	"m4v", "mov", "mp4", "mpeg", "mpg", "webm",
	"aac", "aiff", "caf", "m4a", "mp3", "wav",
	"html", "pdf", "otf", "ttf", "zip",
}

// Default returns a config with default values.
func Default() *Config {
	return (&Config{}).withDefaults()
}

// withDefaults fills unset fields.
func (c *Config) withDefaults() *Config {
	if len(c.SourceExts) == 0 {
		c.SourceExts = slices.Clone(DefaultSourceExts)
	}
	if len(c.AssetExts) == 0 {
		c.AssetExts = slices.Clone(DefaultAssetExts)
	}
	if c.Alias == nil {
		c.Alias = alias.DefaultTable()
	}
	if len(c.Sticky) == 0 {
		c.Sticky = slices.Clone(sticky.DefaultModules)
	}
	if c.Fallback.Origins == nil {
		c.Fallback.Origins = slices.Clone(fallback.DefaultOrigins)
	}
	if c.Fallback.Denylist == nil {
		c.Fallback.Denylist = slices.Clone(fallback.DefaultDenylist)
	}
	if c.ImportStack.MaxDepth <= 0 {
		c.ImportStack.MaxDepth = importstack.DefaultMaxDepth
	}
	if c.ImportStack.MaxStacks <= 0 {
		c.ImportStack.MaxStacks = importstack.DefaultMaxStacks
	}
	return c
}
