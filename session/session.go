/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package session builds the state of one resolution run and wires the
// resolver chain over it.
package session

import (
	"context"
	"fmt"
	"path"

	"expo.dev/metroresolve/alias"
	"expo.dev/metroresolve/assets"
	"expo.dev/metroresolve/autolinking"
	"expo.dev/metroresolve/config"
	"expo.dev/metroresolve/crawl"
	"expo.dev/metroresolve/extensions"
	"expo.dev/metroresolve/fallback"
	"expo.dev/metroresolve/fs"
	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/importstack"
	"expo.dev/metroresolve/internal/lazy"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/resolver"
	"expo.dev/metroresolve/sticky"
)

// Options configure a session.
type Options struct {
	// ProjectRoot is the absolute app directory.
	ProjectRoot string

	// Config is the project configuration; nil loads it from ProjectRoot.
	Config *config.Config

	Flags config.Flags

	// FileSystem defaults to the OS filesystem.
	FileSystem fs.FileSystem

	// PackageCacheSize bounds the package.json cache; zero means the default.
	PackageCacheSize int64
}

// Session owns the caches of one run: the extension negotiator, the
// package.json cache, the sticky root map and the dependency graph. Every
// resolver of the chain receives them through its constructor.
type Session struct {
	root          string
	workspaceRoot string
	cfg           *config.Config
	flags         config.Flags
	fsys          fs.FileSystem

	negotiator *extensions.Negotiator
	packages   *packagejson.Cache
	roots      *sticky.RootMap
	graph      *importstack.DepGraph

	base        *fsresolver.Resolver
	autolinking *autolinking.Resolver
	linked      *lazy.Cell[[]autolinking.Package]
	chain       resolver.Config
	resolve     resolution.ResolveFunc
}

// New creates a session. Call Close when done.
func New(opts Options) (*Session, error) {
	if opts.ProjectRoot == "" || !path.IsAbs(opts.ProjectRoot) {
		return nil, fmt.Errorf("project root must be an absolute path, got %q", opts.ProjectRoot)
	}
	fsys := opts.FileSystem
	if fsys == nil {
		fsys = fs.NewOSFileSystem()
	}
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(fsys, opts.ProjectRoot)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if cfg == nil {
			cfg = config.Default()
		}
	}

	packages, err := packagejson.NewCache(fsys, opts.PackageCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		root:          path.Clean(opts.ProjectRoot),
		workspaceRoot: path.Clean(opts.ProjectRoot),
		cfg:           cfg,
		flags:         opts.Flags,
		fsys:          fsys,
		negotiator:    extensions.New(),
		packages:      packages,
		roots:         sticky.NewRootMap(),
		graph:         importstack.NewDepGraph(),
	}
	if cfg.WorkspaceRoot != "" {
		s.workspaceRoot = config.ResolvePath(s.root, cfg.WorkspaceRoot)
	}

	if opts.Flags.FastResolver && !cfg.EnablePackageExports {
		s.base = fsresolver.NewFast(s.negotiator)
	} else {
		s.base = fsresolver.NewDefault(s.negotiator)
	}

	descriptions, err := fallback.Describe(fsys, packages.Read, s.root, cfg.Fallback.Origins, cfg.Fallback.Denylist)
	if err != nil {
		packages.Close()
		return nil, err
	}

	s.linked = lazy.New(s.discoverLinked)
	s.autolinking = autolinking.New(s.linkedModules, s.base.Resolve)

	base := resolver.Config{ResolveRequest: s.base.Resolve}
	pinned := sticky.New(s.roots, s.base.Resolve, cfg.Sticky...).WithAliases(cfg.Alias)
	origins := fallback.New(descriptions, s.base.Resolve)

	// Aliased names re-enter the chain below the alias resolver, so the
	// replacement package is still autolinked, pinned and given fallbacks.
	// The terminal base honours aliases too, so a missing replacement is
	// reported instead of silently linking the original package.
	unaliased := resolver.WithResolvers(base, s.autolinking, pinned, origins)
	s.chain = resolver.WithResolvers(
		resolver.Config{ResolveRequest: alias.Wrap(cfg.Alias, s.base.Resolve)},
		alias.New(cfg.Alias, unaliased.ResolveRequest),
		s.autolinking,
		pinned,
		origins,
	)

	s.resolve = s.chain.ResolveRequest
	if opts.Flags.ErrorReporting {
		reporter := importstack.NewReporter(s.graph, importstack.Options{
			ProjectRoot:   s.root,
			WorkspaceRoot: s.workspaceRoot,
			MaxDepth:      cfg.ImportStack.MaxDepth,
			MaxStacks:     cfg.ImportStack.MaxStacks,
			NoColor:       opts.Flags.NoColor,
		})
		s.resolve = reporter.Wrap(s.resolve)
	}

	logger.Debug("session at %s: base=%s resolvers=%d", s.root, s.base.Mode(), len(s.chain.Resolvers()))
	return s, nil
}

// Close releases the session's caches.
func (s *Session) Close() {
	s.packages.Close()
}

// ProjectRoot returns the project directory.
func (s *Session) ProjectRoot() string {
	return s.root
}

// WorkspaceRoot returns the workspace directory.
func (s *Session) WorkspaceRoot() string {
	return s.workspaceRoot
}

// BaseMode reports which filesystem resolver terminates the chain.
func (s *Session) BaseMode() fsresolver.Mode {
	return s.base.Mode()
}

// Chain returns the resolver chain configuration.
func (s *Session) Chain() resolver.Config {
	return s.chain
}

// ResolveRequest returns the session's entry point, including import stack
// reporting when enabled.
func (s *Session) ResolveRequest() resolution.ResolveFunc {
	return s.resolve
}

// Graph returns the recorded dependency graph.
func (s *Session) Graph() *importstack.DepGraph {
	return s.graph
}

// StickyRoots returns the sticky roots pinned so far.
func (s *Session) StickyRoots() map[string]string {
	return s.roots.Snapshot()
}

// Extensions returns the negotiated source extensions of platform.
func (s *Session) Extensions(platform resolution.Platform) []string {
	return s.negotiator.Get(extensions.Options{
		BaseExtensions:       s.cfg.SourceExts,
		Platform:             platform,
		PreferNativePlatform: platform.IsNative(),
	})
}

// MainFields returns the package entry fields for a platform and environment.
func MainFields(platform resolution.Platform, environment string) []string {
	switch {
	case environment == resolution.EnvironmentNode || environment == resolution.EnvironmentReactServer:
		return []string{"main", "module"}
	case platform == resolution.PlatformWeb:
		return []string{"browser", "module", "main"}
	case platform.IsNative():
		return []string{"react-native", "browser", "main"}
	}
	return []string{"main"}
}

// Context returns a request context for platform and environment,
// originating at the project's package.json. Use WithOrigin per importer.
func (s *Session) Context(platform resolution.Platform, environment string) *resolution.Context {
	ctx := &resolution.Context{
		OriginModulePath:          path.Join(s.root, packagejson.FileName),
		SourceExts:                s.cfg.SourceExts,
		AssetExts:                 s.cfg.AssetExts,
		MainFields:                MainFields(platform, environment),
		DisableHierarchicalLookup: s.cfg.DisableHierarchicalLookup,
		PreferNativePlatform:      platform.IsNative(),
		EnablePackageExports:      s.cfg.EnablePackageExports,
		UnstableConditionNames:    s.cfg.ConditionNames,
		CustomOptions:             map[string]string{},
		FileSystem:                s.fsys,
		ReadPackage:               s.packages.Read,
		ResolveAsset: func(dir, name, ext string) ([]string, error) {
			return assets.Resolve(s.fsys, dir, name, ext)
		},
	}
	for _, p := range s.cfg.NodeModulesPaths {
		ctx.NodeModulesPaths = append(ctx.NodeModulesPaths, config.ResolvePath(s.root, p))
	}
	if environment != "" && environment != resolution.EnvironmentClient {
		ctx.CustomOptions[resolution.EnvironmentOption] = environment
	}
	return ctx
}

// Resolve resolves moduleName imported from origin.
func (s *Session) Resolve(origin, moduleName string, platform resolution.Platform, environment string) (resolution.Resolution, error) {
	return s.resolve(s.Context(platform, environment).WithOrigin(origin), moduleName, platform)
}

// Crawl resolves the import graph reachable from entries.
func (s *Session) Crawl(ctx context.Context, platform resolution.Platform, environment string, concurrency int, entries ...string) (*crawl.Result, error) {
	return crawl.Crawl(ctx, s.Context(platform, environment), s.resolve, crawl.Options{
		Platform:    platform,
		Concurrency: concurrency,
	}, entries...)
}
