/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package crawl follows the imports of entry files through a resolver, the
// way a bundler walks its module graph.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/imports"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/resolution"
)

// Failure is an import that could not be resolved.
type Failure struct {
	Origin    string `json:"origin"`
	Specifier string `json:"specifier"`
	Line      int    `json:"line"`
	Err       error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s:%d: %v", f.Origin, f.Line, f.Err)
}

// Dependency is a resolved import.
type Dependency struct {
	Specifier  string                `json:"specifier"`
	Resolution resolution.Resolution `json:"resolution"`
}

// Result is the crawled graph.
type Result struct {
	// Modules maps each visited file to its resolved imports.
	Modules map[string][]Dependency `json:"modules"`

	// Externals are server builtins left to the runtime, sorted.
	Externals []string `json:"externals,omitempty"`

	Failures []Failure `json:"-"`
}

// Files returns the visited files, sorted.
func (r *Result) Files() []string {
	files := make([]string, 0, len(r.Modules))
	for f := range r.Modules {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Options configure a crawl.
type Options struct {
	Platform resolution.Platform

	// Concurrency bounds the files processed at once; zero means GOMAXPROCS.
	Concurrency int
}

type crawler struct {
	base    *resolution.Context
	resolve resolution.ResolveFunc
	opts    Options

	mu        sync.Mutex
	result    *Result
	seen      map[string]bool
	externals map[string]bool
}

// Crawl visits entries and every source file reachable from them. Import
// failures are collected rather than returned; the error is only set when
// ctx ends or a file cannot be read.
func Crawl(ctx context.Context, base *resolution.Context, resolve resolution.ResolveFunc, opts Options, entries ...string) (*Result, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	c := &crawler{
		base:      base,
		resolve:   resolve,
		opts:      opts,
		result:    &Result{Modules: map[string][]Dependency{}},
		seen:      map[string]bool{},
		externals: map[string]bool{},
	}

	level := make([]string, 0, len(entries))
	for _, e := range entries {
		if !c.seen[e] {
			c.seen[e] = true
			level = append(level, e)
		}
	}

	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return c.finish(), err
		}
		logger.Debug("crawl level %d: %d files", depth, len(level))

		next, err := c.visitLevel(ctx, level)
		if err != nil {
			return c.finish(), err
		}
		level = next
	}
	return c.finish(), nil
}

func (c *crawler) visitLevel(ctx context.Context, level []string) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	var next []string
	for _, file := range level {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, err := c.visit(file)
			if err != nil {
				return err
			}
			c.mu.Lock()
			next = append(next, found...)
			c.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(next)
	return next, nil
}

// visit resolves the imports of file and returns the newly discovered files
// to crawl.
func (c *crawler) visit(file string) ([]string, error) {
	var deps []Dependency
	if imports.IsSource(file) {
		src, err := c.base.FileSystem.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		found, err := imports.Extract(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		ctx := c.base.WithOrigin(file)
		for _, imp := range found {
			res, err := c.resolve(ctx, imp.Specifier, c.opts.Platform)
			switch {
			case errors.Is(err, fsresolver.ErrExternalBuiltin):
				c.addExternal(imp.Specifier)
			case err != nil:
				c.addFailure(Failure{Origin: file, Specifier: imp.Specifier, Line: imp.Line, Err: err})
			default:
				deps = append(deps, Dependency{Specifier: imp.Specifier, Resolution: res})
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Modules[file] = deps
	var discovered []string
	for _, d := range deps {
		for _, p := range d.Resolution.Paths() {
			if !c.seen[p] {
				c.seen[p] = true
				discovered = append(discovered, p)
			}
		}
	}
	return discovered, nil
}

func (c *crawler) addExternal(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.externals[name] = true
}

func (c *crawler) addFailure(f Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Failures = append(c.result.Failures, f)
}

func (c *crawler) finish() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.result.Externals = c.result.Externals[:0]
	for name := range c.externals {
		c.result.Externals = append(c.result.Externals, name)
	}
	sort.Strings(c.result.Externals)
	sort.Slice(c.result.Failures, func(i, j int) bool {
		a, b := c.result.Failures[i], c.result.Failures[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Specifier < b.Specifier
	})
	return c.result
}
