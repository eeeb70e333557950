/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package importstack records the dependency edges of successful
// resolutions and, when a resolution fails, walks them backwards to explain
// how the failing file was reached.
package importstack

import (
	"sort"
	"sync"

	"expo.dev/metroresolve/resolution"
)

// Frame is one import: Origin requested Request.
type Frame struct {
	Origin  string `json:"origin"`
	Request string `json:"request"`
}

// Edge is a resolved import out of an origin.
type Edge struct {
	ResolvedPath string `json:"resolvedPath"`
	Request      string `json:"request"`
}

type partitionKey struct {
	optionsKey string
	platform   resolution.Platform
}

type partition struct {
	// forward maps an origin to its resolved imports.
	forward map[string]map[Edge]struct{}
	// inverse maps a resolved path to its importers and what they asked for.
	inverse map[string]map[Frame]struct{}
}

// DepGraph is the append-only graph of resolved imports, partitioned by
// custom options key and platform. It is safe for concurrent use.
type DepGraph struct {
	mu         sync.RWMutex
	partitions map[partitionKey]*partition
}

// NewDepGraph creates an empty graph.
func NewDepGraph() *DepGraph {
	return &DepGraph{partitions: make(map[partitionKey]*partition)}
}

// Record adds the edge origin --request--> resolvedPath.
func (g *DepGraph) Record(optionsKey string, platform resolution.Platform, origin, request, resolvedPath string) {
	key := partitionKey{optionsKey, platform}

	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.partitions[key]
	if !ok {
		p = &partition{
			forward: make(map[string]map[Edge]struct{}),
			inverse: make(map[string]map[Frame]struct{}),
		}
		g.partitions[key] = p
	}
	if p.forward[origin] == nil {
		p.forward[origin] = make(map[Edge]struct{})
	}
	p.forward[origin][Edge{ResolvedPath: resolvedPath, Request: request}] = struct{}{}
	if p.inverse[resolvedPath] == nil {
		p.inverse[resolvedPath] = make(map[Frame]struct{})
	}
	p.inverse[resolvedPath][Frame{Origin: origin, Request: request}] = struct{}{}
}

// Dependencies returns the resolved imports of origin, sorted.
func (g *DepGraph) Dependencies(optionsKey string, platform resolution.Platform, origin string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.partitions[partitionKey{optionsKey, platform}]
	if !ok {
		return nil
	}
	edges := make([]Edge, 0, len(p.forward[origin]))
	for e := range p.forward[origin] {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Request != edges[j].Request {
			return edges[i].Request < edges[j].Request
		}
		return edges[i].ResolvedPath < edges[j].ResolvedPath
	})
	return edges
}

// Importers returns the frames importing resolvedPath, sorted by origin so
// walks are deterministic.
func (g *DepGraph) Importers(optionsKey string, platform resolution.Platform, resolvedPath string) []Frame {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.partitions[partitionKey{optionsKey, platform}]
	if !ok {
		return nil
	}
	frames := make([]Frame, 0, len(p.inverse[resolvedPath]))
	for f := range p.inverse[resolvedPath] {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool {
		if frames[i].Origin != frames[j].Origin {
			return frames[i].Origin < frames[j].Origin
		}
		return frames[i].Request < frames[j].Request
	})
	return frames
}

// Origins returns every origin with recorded imports in a partition, sorted.
func (g *DepGraph) Origins(optionsKey string, platform resolution.Platform) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.partitions[partitionKey{optionsKey, platform}]
	if !ok {
		return nil
	}
	origins := make([]string, 0, len(p.forward))
	for o := range p.forward {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	return origins
}
