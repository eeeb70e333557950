/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package extensions computes the ordered candidate file extensions for a
// platform, so that "Button.ios.js" wins over "Button.native.js", which wins
// over "Button.js".
package extensions

import (
	"encoding/json"
	"strings"
	"sync"

	"expo.dev/metroresolve/resolution"
)

// Options are the inputs of a negotiation. They also form the cache key.
type Options struct {
	BaseExtensions       []string            `json:"baseExtensions"`
	Platform             resolution.Platform `json:"platform"`
	PreferNativePlatform bool                `json:"preferNativePlatform"`
}

// Negotiator memoizes negotiated extension lists for one session.
// The zero value is ready to use and safe for concurrent use.
type Negotiator struct {
	cache sync.Map // string -> []string
}

// New creates a negotiator with an empty cache.
func New() *Negotiator {
	return &Negotiator{}
}

// Get returns the dotted candidate extensions for opts. Identical options
// return the same slice, which callers must not modify.
func (n *Negotiator) Get(opts Options) []string {
	key := cacheKey(opts)
	if cached, ok := n.cache.Load(key); ok {
		return cached.([]string)
	}
	actual, _ := n.cache.LoadOrStore(key, Compute(opts))
	return actual.([]string)
}

// Compute negotiates extensions without caching.
func Compute(opts Options) []string {
	seen := make(map[string]bool, len(opts.BaseExtensions)*3)
	result := make([]string, 0, len(opts.BaseExtensions)*3)

	add := func(ext string) {
		if seen[ext] {
			return
		}
		seen[ext] = true
		result = append(result, "."+ext)
	}

	for _, base := range opts.BaseExtensions {
		ext := strings.TrimPrefix(base, ".")
		if opts.Platform != resolution.PlatformNone {
			add(string(opts.Platform) + "." + ext)
		}
		if opts.PreferNativePlatform {
			add("native." + ext)
		}
		add(ext)
	}
	return result
}

func cacheKey(opts Options) string {
	data, err := json.Marshal(opts)
	if err != nil {
		// Options only hold strings and a bool.
		panic(err)
	}
	return string(data)
}
