/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// nodePrefix marks an explicit Node.js core module import.
const nodePrefix = "node:"

// nodeBuiltinModules is the set of top-level Node.js core modules, from
// require('module').builtinModules without private or sub-path entries.
var nodeBuiltinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// nodeBuiltinSubpaths are the core modules Node exposes below a top-level
// name. Other sub-paths of a builtin name belong to npm packages.
var nodeBuiltinSubpaths = map[string]bool{
	"assert/strict":      true,
	"dns/promises":       true,
	"fs/promises":        true,
	"inspector/promises": true,
	"path/posix":         true,
	"path/win32":         true,
	"readline/promises":  true,
	"stream/consumers":   true,
	"stream/promises":    true,
	"stream/web":         true,
	"timers/promises":    true,
	"util/types":         true,
}

// IsNodeBuiltin reports whether spec names a Node.js core module: anything
// with the "node:" prefix, a top-level core name, or one of Node's core
// sub-paths like "fs/promises". A trailing slash ("string_decoder/") asks
// for the npm package of that name.
func IsNodeBuiltin(spec string) bool {
	if strings.HasPrefix(spec, nodePrefix) {
		return true
	}
	return nodeBuiltinModules[spec] || nodeBuiltinSubpaths[spec]
}

// StripNodePrefix removes a leading "node:" scheme.
func StripNodePrefix(spec string) string {
	return strings.TrimPrefix(spec, nodePrefix)
}
