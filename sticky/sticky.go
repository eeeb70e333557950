/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package sticky pins singleton packages such as react-native to one root
// directory for a whole session, whichever node_modules copy an importer
// would otherwise reach.
package sticky

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"sync"

	"expo.dev/metroresolve/alias"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

// Module is a sticky package. A module with a Parent is discovered relative
// to the parent's root first, so coupled singletons come from one install.
type Module struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// DefaultModules are the packages that must exist once per bundle.
var DefaultModules = []Module{
	{Name: "react-native"},
	{Name: "react"},
	{Name: "react-dom"},
	{Name: "react-native-web"},
	{Name: "@react-native/assets-registry", Parent: "react-native"},
}

// RootMap records the root directory chosen for each sticky module. Entries
// are written once and never replaced.
type RootMap struct {
	roots sync.Map // string -> string
}

// NewRootMap creates an empty root map.
func NewRootMap() *RootMap {
	return &RootMap{}
}

// Get returns the root recorded for name.
func (m *RootMap) Get(name string) (string, bool) {
	root, ok := m.roots.Load(name)
	if !ok {
		return "", false
	}
	return root.(string), true
}

// SetIfAbsent records root for name unless one exists, and returns the root
// now in effect.
func (m *RootMap) SetIfAbsent(name, root string) string {
	actual, _ := m.roots.LoadOrStore(name, root)
	return actual.(string)
}

// Snapshot copies the current roots.
func (m *RootMap) Snapshot() map[string]string {
	result := map[string]string{}
	m.roots.Range(func(k, v any) bool {
		result[k.(string)] = v.(string)
		return true
	})
	return result
}

// Names returns the names with a recorded root, sorted.
func (m *RootMap) Names() []string {
	var names []string
	m.roots.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Resolver rewrites sticky specifiers onto their pinned root.
type Resolver struct {
	modules  map[string]Module
	names    []string
	roots    *RootMap
	aliases  alias.Table
	upstream resolution.ResolveFunc
}

// New creates a sticky resolver over upstream. With no modules, the
// defaults are used.
func New(roots *RootMap, upstream resolution.ResolveFunc, modules ...Module) *Resolver {
	if len(modules) == 0 {
		modules = DefaultModules
	}
	r := &Resolver{
		modules:  make(map[string]Module, len(modules)),
		roots:    roots,
		upstream: upstream,
	}
	for _, m := range modules {
		if _, dup := r.modules[m.Name]; !dup {
			r.names = append(r.names, m.Name)
		}
		r.modules[m.Name] = m
	}
	return r
}

// WithAliases makes r pin the alias target of a specifier instead of the
// specifier itself, so react-native on web shares react-native-web's root.
// Call it before the first Resolve.
func (r *Resolver) WithAliases(table alias.Table) *Resolver {
	r.aliases = table.Clone()
	return r
}

// Modules returns the sticky package names in registration order.
func (r *Resolver) Modules() []string {
	return slices.Clone(r.names)
}

// Name implements resolution.Resolver.
func (r *Resolver) Name() string {
	return "sticky"
}

// Resolve implements resolution.Resolver. Requests without a platform and
// non-sticky names are skipped without touching the root map.
func (r *Resolver) Resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Outcome, error) {
	if platform == resolution.PlatformNone {
		return resolution.Skip(), nil
	}
	if target, ok := r.aliases.Rewrite(moduleName, platform); ok {
		moduleName = target
	}
	spec := specifier.Parse(moduleName)
	if spec.Kind != specifier.KindBare {
		return resolution.Skip(), nil
	}
	if _, ok := r.modules[spec.Package]; !ok {
		return resolution.Skip(), nil
	}

	root, err := r.root(ctx, spec.Package, platform, 0)
	if err != nil {
		return resolution.Skip(), err
	}

	target := root
	if spec.File != "" {
		target = path.Join(root, spec.File)
	}
	res, err := r.upstream(ctx, target, platform)
	if err != nil {
		return resolution.Skip(), err
	}
	return resolution.Resolved(res), nil
}

// root returns the pinned root of name, discovering it on first use.
func (r *Resolver) root(ctx *resolution.Context, name string, platform resolution.Platform, depth int) (string, error) {
	if root, ok := r.roots.Get(name); ok {
		return root, nil
	}
	if depth > len(r.modules) {
		return "", resolution.Fatalf(ctx.OriginModulePath, name, "sticky module parents form a cycle")
	}

	if parent := r.parentOf(name, platform); parent != "" {
		if _, sticky := r.modules[parent]; sticky {
			parentRoot, err := r.root(ctx, parent, platform, depth+1)
			if resolution.IsFatal(err) {
				return "", err
			}
			if err == nil {
				fromParent := ctx.WithOrigin(path.Join(parentRoot, packagejson.FileName))
				root, err := r.discover(fromParent, name, platform)
				if err == nil {
					return r.roots.SetIfAbsent(name, root), nil
				}
				if resolution.IsFatal(err) {
					return "", err
				}
			}
		}
	}

	root, err := r.discover(ctx, name, platform)
	if err != nil {
		return "", err
	}
	actual := r.roots.SetIfAbsent(name, root)
	logger.Debug("pinned %s to %s", name, actual)
	return actual, nil
}

// parentOf returns the parent of name, following its alias on platform.
func (r *Resolver) parentOf(name string, platform resolution.Platform) string {
	parent := r.modules[name].Parent
	if parent == "" {
		return ""
	}
	if target, ok := r.aliases.Rewrite(parent, platform); ok {
		return specifier.Parse(target).Package
	}
	return parent
}

// discover resolves name/package.json and returns its directory.
func (r *Resolver) discover(ctx *resolution.Context, name string, platform resolution.Platform) (string, error) {
	res, err := r.upstream(ctx, name+"/"+packagejson.FileName, platform)
	if err != nil {
		return "", err
	}
	if res.Type != resolution.TypeSourceFile {
		return "", resolution.Fatal(ctx.OriginModulePath, name,
			fmt.Errorf("expected %s/package.json to resolve to a file, got %s", name, res.Type))
	}
	return path.Dir(res.FilePath), nil
}
