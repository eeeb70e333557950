/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fsresolver is the base resolver: Node-style node_modules lookup
// with platform extension negotiation, package main-field selection, the
// browser field, asset density expansion and Node builtin handling.
//
// The fast mode skips package export maps and refuses requests that enable
// them. The default mode resolves export maps first and falls back to file
// lookup when a subpath is not exported.
package fsresolver

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"expo.dev/metroresolve/extensions"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

var (
	// ErrExportsUnsupported is returned by the fast resolver when a request
	// enables package exports.
	ErrExportsUnsupported = errors.New("package exports are not supported by the fast resolver")

	// ErrExternalBuiltin marks a Node builtin requested from a server
	// environment. Hosts externalize these instead of bundling them.
	ErrExternalBuiltin = errors.New("node builtin is external on the server")

	// ErrRedirectLoop is returned when browser field redirects never settle.
	ErrRedirectLoop = errors.New("browser field redirect loop")
)

// maxRedirects bounds chained browser field redirects to other packages.
const maxRedirects = 8

// Mode selects export map handling.
type Mode int

const (
	// ModeFast ignores export maps.
	ModeFast Mode = iota
	// ModeDefault resolves export maps before file lookup.
	ModeDefault
)

func (m Mode) String() string {
	if m == ModeDefault {
		return "default"
	}
	return "fast"
}

// Resolver resolves requests against the filesystem of the context.
type Resolver struct {
	mode       Mode
	negotiator *extensions.Negotiator
}

// NewFast creates a fast resolver. A nil negotiator gets a private one.
func NewFast(negotiator *extensions.Negotiator) *Resolver {
	return newResolver(ModeFast, negotiator)
}

// NewDefault creates an export map capable resolver.
func NewDefault(negotiator *extensions.Negotiator) *Resolver {
	return newResolver(ModeDefault, negotiator)
}

func newResolver(mode Mode, negotiator *extensions.Negotiator) *Resolver {
	if negotiator == nil {
		negotiator = extensions.New()
	}
	return &Resolver{mode: mode, negotiator: negotiator}
}

// Mode returns the resolver mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve implements resolution.ResolveFunc.
func (r *Resolver) Resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Resolution, error) {
	if ctx.FileSystem == nil {
		return resolution.Resolution{}, resolution.Fatalf(ctx.OriginModulePath, moduleName, "resolution context has no filesystem")
	}
	if r.mode == ModeFast && ctx.EnablePackageExports {
		return resolution.Resolution{}, resolution.Fatal(ctx.OriginModulePath, moduleName,
			fmt.Errorf("%w; disable package exports or EXPO_USE_FAST_RESOLVER", ErrExportsUnsupported))
	}
	return r.resolve(ctx, moduleName, platform, 0)
}

func (r *Resolver) resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform, depth int) (resolution.Resolution, error) {
	if depth > maxRedirects {
		return resolution.Resolution{}, resolution.Fatal(ctx.OriginModulePath, moduleName, ErrRedirectLoop)
	}

	l := &lookup{
		r:        r,
		ctx:      ctx,
		name:     moduleName,
		platform: platform,
		depth:    depth,
		exts: r.negotiator.Get(extensions.Options{
			BaseExtensions:       ctx.SourceExts,
			Platform:             platform,
			PreferNativePlatform: ctx.PreferNativePlatform,
		}),
	}

	spec := specifier.Parse(moduleName)
	switch spec.Kind {
	case specifier.KindRelative:
		return l.resolvePath(path.Join(path.Dir(ctx.OriginModulePath), moduleName))
	case specifier.KindAbsolute:
		return l.resolvePath(path.Clean(moduleName))
	case specifier.KindBuiltin:
		return l.resolveBuiltin(spec)
	}

	if res, handled, err := l.originRedirect(); handled || err != nil {
		return res, err
	}
	return l.resolvePackage(spec)
}

// conditions returns the export conditions active for a request.
func conditions(ctx *resolution.Context, platform resolution.Platform) []string {
	conds := ctx.UnstableConditionNames
	if conds == nil {
		conds = []string{"require", "import"}
	}
	conds = append([]string(nil), conds...)

	switch {
	case ctx.IsServer():
		conds = append(conds, "node")
		if ctx.Environment() == resolution.EnvironmentReactServer {
			conds = append(conds, "react-server")
		}
	case platform == resolution.PlatformWeb:
		conds = append(conds, "browser")
	case platform.IsNative():
		conds = append(conds, "react-native")
	}
	return conds
}

// nodeModulesDirs lists the node_modules directories searched from dir:
// each ancestor's node_modules unless hierarchical lookup is disabled, then
// the context's extra paths.
func nodeModulesDirs(ctx *resolution.Context, dir string) []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	if !ctx.DisableHierarchicalLookup {
		for _, d := range NodeModulesAncestors(dir) {
			add(d)
		}
	}
	for _, d := range ctx.NodeModulesPaths {
		add(path.Clean(d))
	}
	return dirs
}

// NodeModulesAncestors lists the node_modules directory of dir and of each
// of its ancestors, nearest first. Directories that are themselves named
// node_modules contribute nothing.
func NodeModulesAncestors(dir string) []string {
	var dirs []string
	for {
		if path.Base(dir) != "node_modules" {
			dirs = append(dirs, path.Join(dir, "node_modules"))
		}
		parent := path.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

func isMalformed(err error) bool {
	return errors.Is(err, packagejson.ErrMalformed)
}

func debugf(format string, args ...any) {
	if logger.DebugEnabled() {
		logger.Debug(format, args...)
	}
}

// relativeTo returns p as a "./"-prefixed path relative to dir.
func relativeTo(dir, p string) (string, bool) {
	rel, ok := strings.CutPrefix(p, strings.TrimSuffix(dir, "/")+"/")
	if !ok || rel == "" {
		return "", false
	}
	return "./" + rel, true
}
