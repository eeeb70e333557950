/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package importstack

import (
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/resolution"
)

// Options configure a Reporter.
type Options struct {
	ProjectRoot   string
	WorkspaceRoot string

	// MaxDepth and MaxStacks bound the walk; zero means the defaults.
	MaxDepth  int
	MaxStacks int

	NoColor bool
}

// Reporter records successful resolutions and attaches import stacks to
// not-found errors.
type Reporter struct {
	graph *DepGraph
	opts  Options
}

// NewReporter creates a reporter over graph.
func NewReporter(graph *DepGraph, opts Options) *Reporter {
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = opts.ProjectRoot
	}
	return &Reporter{graph: graph, opts: opts}
}

// Graph returns the reporter's dependency graph.
func (r *Reporter) Graph() *DepGraph {
	return r.graph
}

// Wrap returns a ResolveFunc that records every resolved path of next and
// enriches its not-found errors. Other errors pass through untouched.
func (r *Reporter) Wrap(next resolution.ResolveFunc) resolution.ResolveFunc {
	return func(ctx *resolution.Context, moduleName string, platform resolution.Platform) (resolution.Resolution, error) {
		res, err := next(ctx, moduleName, platform)
		if err == nil {
			key := ctx.CustomOptionsKey()
			for _, p := range res.Paths() {
				r.graph.Record(key, platform, ctx.OriginModulePath, moduleName, p)
			}
			return res, nil
		}
		if !resolution.IsNotFound(err) {
			return res, err
		}
		return res, r.Enrich(ctx, platform, err)
	}
}

// Enrich returns a copy of a not-found error with its ImportStack set. The
// message and kind are unchanged.
func (r *Reporter) Enrich(ctx *resolution.Context, platform resolution.Platform, err error) error {
	resErr, ok := resolution.AsError(err)
	if !ok {
		return err
	}
	stack := r.Find(ctx.CustomOptionsKey(), platform, ctx.OriginModulePath, resErr.ModuleName)
	if stack == nil {
		return err
	}
	enriched := *resErr
	enriched.ImportStack = Format(stack, r.opts.ProjectRoot, r.opts.NoColor)
	logger.Debug("import stack for %s: %d frames (circular=%t truncated=%t)",
		resErr.ModuleName, len(stack.Frames), stack.Circular, stack.Truncated)
	return &enriched
}

// Find returns the best stack leading to origin's failed request.
func (r *Reporter) Find(optionsKey string, platform resolution.Platform, origin, request string) *Stack {
	roots := Roots{Project: r.opts.ProjectRoot, Workspace: r.opts.WorkspaceRoot}
	return Find(r.graph, optionsKey, platform, roots, r.opts.MaxDepth, r.opts.MaxStacks, origin, request)
}
