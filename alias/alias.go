/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package alias substitutes one package for another on a given platform,
// such as react-native-web for react-native on web.
package alias

import (
	"strings"

	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

// Table maps specifiers to their replacements, per platform. A key matches
// the specifier itself and any sub-path below it; the longest key wins.
type Table map[resolution.Platform]map[string]string

// DefaultTable returns the aliases of an Expo project.
func DefaultTable() Table {
	return Table{
		resolution.PlatformWeb: {
			"react-native":       "react-native-web",
			"react-native/index": "react-native-web",
			"react-native/Libraries/Image/AssetRegistry": "@react-native/assets-registry/registry",
		},
	}
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	clone := make(Table, len(t))
	for platform, aliases := range t {
		m := make(map[string]string, len(aliases))
		for from, to := range aliases {
			m[from] = to
		}
		clone[platform] = m
	}
	return clone
}

// Rewrite returns the aliased form of moduleName on platform. Only bare
// package specifiers are rewritten.
func (t Table) Rewrite(moduleName string, platform resolution.Platform) (string, bool) {
	aliases := t[platform]
	if len(aliases) == 0 || specifier.Parse(moduleName).Kind != specifier.KindBare {
		return moduleName, false
	}

	best := ""
	for from := range aliases {
		if len(from) <= len(best) {
			continue
		}
		if moduleName == from || strings.HasPrefix(moduleName, from+"/") {
			best = from
		}
	}
	if best == "" {
		return moduleName, false
	}
	return aliases[best] + moduleName[len(best):], true
}

// Resolver resolves aliased specifiers under their replacement name.
type Resolver struct {
	table    Table
	upstream resolution.ResolveFunc
}

// New creates an alias resolver. Upstream receives the rewritten name, so it
// should be the rest of the chain for sticky pinning to see it.
func New(table Table, upstream resolution.ResolveFunc) *Resolver {
	return &Resolver{table: table.Clone(), upstream: upstream}
}

// Name implements resolution.Resolver.
func (r *Resolver) Name() string {
	return "alias"
}

// Resolve implements resolution.Resolver.
func (r *Resolver) Resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Outcome, error) {
	target, ok := r.table.Rewrite(moduleName, platform)
	if !ok {
		return resolution.Skip(), nil
	}
	res, err := r.upstream(ctx, target, platform)
	if err != nil {
		return resolution.Skip(), err
	}
	logger.DebugFields("alias resolved", "module", moduleName, "alias", target, "platform", platform)
	return resolution.Resolved(res), nil
}

// Wrap returns a resolve function that rewrites aliased names before
// calling next.
func Wrap(table Table, next resolution.ResolveFunc) resolution.ResolveFunc {
	table = table.Clone()
	return func(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Resolution, error) {
		target, _ := table.Rewrite(moduleName, platform)
		return next(ctx, target, platform)
	}
}
