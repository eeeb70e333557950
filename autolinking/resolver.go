/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package autolinking

import (
	"path"
	"regexp"

	"expo.dev/metroresolve/internal/lazy"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

// Platforms are the targets autolinking applies to.
var Platforms = []resolution.Platform{
	resolution.PlatformIOS,
	resolution.PlatformAndroid,
	resolution.PlatformWeb,
}

// PlatformModules are the linked modules of one platform.
type PlatformModules struct {
	// TestRegex matches specifiers of linked packages. Group 1 is the
	// package name, group 2 the sub-path. Nil when nothing is linked.
	TestRegex *regexp.Regexp

	// ResolvedModulePaths maps package names to their install directory.
	ResolvedModulePaths map[string]string
}

// ForPlatform selects the packages linked on platform.
func ForPlatform(packages []Package, platform resolution.Platform) *PlatformModules {
	mods := &PlatformModules{ResolvedModulePaths: map[string]string{}}
	var names []string
	for _, pkg := range packages {
		if pkg.Supports(platform) {
			names = append(names, pkg.Name)
			mods.ResolvedModulePaths[pkg.Name] = pkg.Path
		}
	}
	mods.TestRegex = specifier.PackagesPattern(names)
	return mods
}

// Loader computes the linked modules of a platform.
type Loader func(platform resolution.Platform) (*PlatformModules, error)

// Resolver pins imports of linked packages to their linked directory.
// Linked modules are loaded once per platform, on the first request for it.
type Resolver struct {
	cells    map[resolution.Platform]*lazy.Cell[*PlatformModules]
	upstream resolution.ResolveFunc
}

// New creates a resolver that loads platform modules through load.
func New(load Loader, upstream resolution.ResolveFunc) *Resolver {
	r := &Resolver{
		cells:    make(map[resolution.Platform]*lazy.Cell[*PlatformModules], len(Platforms)),
		upstream: upstream,
	}
	for _, p := range Platforms {
		r.cells[p] = lazy.New(func() (*PlatformModules, error) {
			return load(p)
		})
	}
	return r
}

// Name implements resolution.Resolver.
func (r *Resolver) Name() string {
	return "autolinking"
}

// Modules returns the linked modules of platform, loading them if needed.
// Unsupported platforms return nil.
func (r *Resolver) Modules(platform resolution.Platform) (*PlatformModules, error) {
	cell, ok := r.cells[platform]
	if !ok {
		return nil, nil
	}
	return cell.Load()
}

// Resolve implements resolution.Resolver.
func (r *Resolver) Resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Outcome, error) {
	mods, err := r.Modules(platform)
	if err != nil {
		return resolution.Skip(), resolution.Fatal(ctx.OriginModulePath, moduleName, err)
	}
	if mods == nil || mods.TestRegex == nil {
		return resolution.Skip(), nil
	}
	m := mods.TestRegex.FindStringSubmatch(moduleName)
	if m == nil {
		return resolution.Skip(), nil
	}
	dir, ok := mods.ResolvedModulePaths[m[1]]
	if !ok {
		return resolution.Skip(), nil
	}

	target := dir
	if m[2] != "" {
		target = path.Join(dir, m[2])
	}
	res, err := r.upstream(ctx, target, platform)
	if err != nil {
		return resolution.Skip(), err
	}
	return resolution.Resolved(res), nil
}
