/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fallback resolves dependencies of well-known origin packages
// (expo, expo-router, ...) from those packages' own install location, for
// monorepos where a dependency is hoisted under a sibling package instead of
// under the package that imports it.
package fallback

import (
	"fmt"
	"path"
	"regexp"
	"slices"

	"expo.dev/metroresolve/fs"
	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

// DefaultOrigins are consulted in order.
var DefaultOrigins = []string{"expo", "expo-router", "@expo/metro-runtime"}

// DefaultDenylist keeps shared infrastructure from being substituted, which
// would otherwise loop between origins that depend on each other.
var DefaultDenylist = []string{"expo", "expo-modules-core", "react", "react-native", "react-dom"}

// ModuleDescription decides whether a bare specifier belongs to the
// dependency closure of an origin package.
type ModuleDescription struct {
	OriginPackageName string
	OriginPackagePath string
	TestRegex         *regexp.Regexp
}

// Describe builds a description for each origin package installed for
// projectRoot. Origins that are not installed, or that declare no usable
// dependencies, are left out.
func Describe(fsys fs.FileSystem, read packagejson.Reader, projectRoot string, origins, denylist []string) ([]ModuleDescription, error) {
	var descriptions []ModuleDescription
	for _, origin := range origins {
		pkgDir, ok := findInstalled(fsys, projectRoot, origin)
		if !ok {
			logger.Debug("fallback origin %s is not installed", origin)
			continue
		}
		pkg, err := read(path.Join(pkgDir, packagejson.FileName))
		if err != nil {
			return nil, fmt.Errorf("reading fallback origin %s: %w", origin, err)
		}

		var deps []string
		for _, dep := range pkg.DependencyNames(true) {
			if dep != origin && !slices.Contains(denylist, dep) {
				deps = append(deps, dep)
			}
		}
		re := specifier.PackagesPattern(deps)
		if re == nil {
			continue
		}
		descriptions = append(descriptions, ModuleDescription{
			OriginPackageName: origin,
			OriginPackagePath: fs.RealPathOrSelf(fsys, pkgDir),
			TestRegex:         re,
		})
	}
	return descriptions, nil
}

// findInstalled looks for name in the node_modules of projectRoot and its
// ancestors.
func findInstalled(fsys fs.FileSystem, projectRoot, name string) (string, bool) {
	for _, dir := range fsresolver.NodeModulesAncestors(projectRoot) {
		pkgDir := path.Join(dir, name)
		if fs.IsFile(fsys, path.Join(pkgDir, packagejson.FileName)) {
			return pkgDir, true
		}
	}
	return "", false
}

// Resolver re-resolves matching bare specifiers with the origin package's
// node_modules added to the search paths.
type Resolver struct {
	descriptions []ModuleDescription
	upstream     resolution.ResolveFunc
}

// New creates a fallback resolver.
func New(descriptions []ModuleDescription, upstream resolution.ResolveFunc) *Resolver {
	return &Resolver{descriptions: slices.Clone(descriptions), upstream: upstream}
}

// Name implements resolution.Resolver.
func (r *Resolver) Name() string {
	return "fallback"
}

// Descriptions returns the origin descriptions in consultation order.
func (r *Resolver) Descriptions() []ModuleDescription {
	return slices.Clone(r.descriptions)
}

// Resolve implements resolution.Resolver. Only the first matching origin is
// consulted; relative, absolute and builtin specifiers are skipped.
func (r *Resolver) Resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Outcome, error) {
	if specifier.Parse(moduleName).Kind != specifier.KindBare {
		return resolution.Skip(), nil
	}
	for _, d := range r.descriptions {
		if !d.TestRegex.MatchString(moduleName) {
			continue
		}
		extended := ctx.WithNodeModulesPaths(fsresolver.NodeModulesAncestors(d.OriginPackagePath)...)
		res, err := r.upstream(extended, moduleName, platform)
		if err != nil {
			return resolution.Skip(), err
		}
		logger.DebugFields("fallback resolved",
			"module", moduleName,
			"origin", d.OriginPackageName,
			"result", res.String())
		return resolution.Resolved(res), nil
	}
	return resolution.Skip(), nil
}
