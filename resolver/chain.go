/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver composes resolvers into a chain with fallback-on-miss
// semantics on top of a base resolver.
package resolver

import (
	"slices"

	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/resolution"
)

// Config is the resolution configuration surface. ResolveRequest is the
// single entry point; integrators add resolvers with WithResolvers, Prepend
// and Append instead of post-processing results.
type Config struct {
	ResolveRequest resolution.ResolveFunc

	chain *chain
}

// chain is an ordered list of resolvers over a terminal base resolver.
type chain struct {
	resolvers []resolution.Resolver
	base      resolution.ResolveFunc
}

// WithResolvers returns a config whose ResolveRequest tries resolvers in
// order and falls back to base.ResolveRequest, or to a fast filesystem
// resolver when base has none. The order is fixed once this returns.
func WithResolvers(base Config, resolvers ...resolution.Resolver) Config {
	upstream := base.ResolveRequest
	if upstream == nil {
		upstream = fsresolver.NewFast(nil).Resolve
	}
	c := &chain{
		resolvers: slices.Clone(resolvers),
		base:      upstream,
	}
	return Config{ResolveRequest: c.resolve, chain: c}
}

// Prepend returns a config with resolvers tried before the existing ones.
func Prepend(cfg Config, resolvers ...resolution.Resolver) Config {
	base, existing := cfg.parts()
	return WithResolvers(base, append(slices.Clone(resolvers), existing...)...)
}

// Append returns a config with resolvers tried after the existing ones.
func Append(cfg Config, resolvers ...resolution.Resolver) Config {
	base, existing := cfg.parts()
	return WithResolvers(base, append(existing, resolvers...)...)
}

// Resolvers returns the chain members in order.
func (cfg Config) Resolvers() []resolution.Resolver {
	if cfg.chain == nil {
		return nil
	}
	return slices.Clone(cfg.chain.resolvers)
}

// Base returns the terminal resolver of the chain.
func (cfg Config) Base() resolution.ResolveFunc {
	if cfg.chain == nil {
		return cfg.ResolveRequest
	}
	return cfg.chain.base
}

func (cfg Config) parts() (Config, []resolution.Resolver) {
	if cfg.chain == nil {
		return cfg, nil
	}
	return Config{ResolveRequest: cfg.chain.base}, slices.Clone(cfg.chain.resolvers)
}

func (c *chain) resolve(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Resolution, error) {
	for _, r := range c.resolvers {
		outcome, err := r.Resolve(ctx, moduleName, platform)
		if err != nil {
			if resolution.IsNotFound(err) {
				logger.DebugFields("resolver missed",
					"resolver", r.Name(),
					"module", moduleName,
					"platform", platform,
					"origin", ctx.OriginModulePath,
					"err", err.Error())
				continue
			}
			return resolution.Resolution{}, err
		}
		if res, ok := outcome.Resolution(); ok {
			logger.DebugFields("resolved",
				"resolver", r.Name(),
				"module", moduleName,
				"platform", platform,
				"result", res.String())
			return res, nil
		}
	}
	return c.base(ctx, moduleName, platform)
}
