/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package importstack

import (
	"strings"

	"expo.dev/metroresolve/resolution"
)

const (
	// DefaultMaxDepth bounds the number of frames in one stack.
	DefaultMaxDepth = 35
	// DefaultMaxStacks bounds the number of candidate stacks explored.
	DefaultMaxStacks = 2000
)

// RootKind ranks where a stack starts. Lower is better.
type RootKind int

const (
	// RootProject is a file in the project, outside node_modules.
	RootProject RootKind = iota
	// RootWorkspace is a file elsewhere in the workspace, outside node_modules.
	RootWorkspace
	// RootOther is anything else, usually a package in node_modules.
	RootOther
)

// Stack is a chain of imports ending at a failing request. Frames run from
// the outermost importer to the failing origin.
type Stack struct {
	Frames []Frame
	Root   RootKind

	// Circular is set when the walk came back to a file already on the stack.
	Circular bool
	// Truncated is set when the walk hit the depth limit.
	Truncated bool
}

// better reports whether s should replace other as the reported stack.
func (s *Stack) better(other *Stack) bool {
	if other == nil {
		return true
	}
	if s.Root != other.Root {
		return s.Root < other.Root
	}
	if s.Circular != other.Circular {
		return !s.Circular
	}
	if s.Truncated != other.Truncated {
		return !s.Truncated
	}
	return len(s.Frames) < len(other.Frames)
}

func (s *Stack) ideal() bool {
	return s.Root == RootProject && !s.Circular && !s.Truncated
}

type searchState int

const (
	stateNone searchState = iota
	stateFound
	stateFinal
)

// Roots classify the files a stack can start from.
type Roots struct {
	Project   string
	Workspace string
}

// Classify ranks file against the roots.
func (r Roots) Classify(file string) RootKind {
	if strings.Contains(file, "/node_modules/") {
		return RootOther
	}
	if within(file, r.Project) {
		return RootProject
	}
	if within(file, r.Workspace) {
		return RootWorkspace
	}
	return RootOther
}

func within(file, dir string) bool {
	if dir == "" {
		return false
	}
	return file == dir || strings.HasPrefix(file, strings.TrimSuffix(dir, "/")+"/")
}

type walker struct {
	graph      *DepGraph
	optionsKey string
	platform   resolution.Platform
	roots      Roots
	maxDepth   int
	maxStacks  int

	explored int
	state    searchState
	best     *Stack
}

// Find walks importers backwards from origin, which failed to resolve
// request, and returns the best stack. The innermost frame is always
// {origin, request}.
func Find(graph *DepGraph, optionsKey string, platform resolution.Platform, roots Roots, maxDepth, maxStacks int, origin, request string) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxStacks <= 0 {
		maxStacks = DefaultMaxStacks
	}
	w := &walker{
		graph:      graph,
		optionsKey: optionsKey,
		platform:   platform,
		roots:      roots,
		maxDepth:   maxDepth,
		maxStacks:  maxStacks,
	}
	chain := []Frame{{Origin: origin, Request: request}}
	w.visit(origin, chain, map[string]bool{origin: true})
	return w.best
}

// visit extends chain, which is ordered innermost first, with the
// importers of file.
func (w *walker) visit(file string, chain []Frame, onStack map[string]bool) {
	if w.done() {
		return
	}
	if len(chain) >= w.maxDepth {
		w.consider(chain, file, false, true)
		return
	}

	importers := w.graph.Importers(w.optionsKey, w.platform, file)
	if len(importers) == 0 {
		w.consider(chain, file, false, false)
		return
	}

	for _, imp := range importers {
		if w.done() {
			return
		}
		next := append(chain[:len(chain):len(chain)], imp)
		if onStack[imp.Origin] {
			w.consider(next, imp.Origin, true, false)
			continue
		}
		onStack[imp.Origin] = true
		w.visit(imp.Origin, next, onStack)
		delete(onStack, imp.Origin)
	}
}

func (w *walker) done() bool {
	return w.state == stateFinal || w.explored >= w.maxStacks
}

func (w *walker) consider(chain []Frame, root string, circular, truncated bool) {
	w.explored++

	frames := make([]Frame, len(chain))
	for i, f := range chain {
		frames[len(chain)-1-i] = f
	}
	candidate := &Stack{
		Frames:    frames,
		Root:      w.roots.Classify(root),
		Circular:  circular,
		Truncated: truncated,
	}
	if !candidate.better(w.best) {
		return
	}
	w.best = candidate
	w.state = stateFound
	if candidate.ideal() {
		w.state = stateFinal
	}
}
