/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package packagejson decodes the package.json fields that module resolution
// reads. Decoding is tolerant: fields of an unexpected type are ignored
// instead of failing the whole file.
package packagejson

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// ErrMalformed is returned when a package.json cannot be parsed at all.
var ErrMalformed = errors.New("malformed package.json")

// rawPackageJSON is the loosely typed shape of package.json.
type rawPackageJSON struct {
	Name                 string          `json:"name"`
	Version              string          `json:"version"`
	Type                 string          `json:"type"`
	Browser              json.RawMessage `json:"browser"`
	Dependencies         any             `json:"dependencies"`
	PeerDependencies     any             `json:"peerDependencies"`
	PeerDependenciesMeta any             `json:"peerDependenciesMeta"`
	Exports              json.RawMessage `json:"exports"`
}

// PackageJSON holds the resolution-relevant parts of a package.json.
type PackageJSON struct {
	Name    string
	Version string
	Type    string

	// Path is the absolute path of the package.json file; Dir its directory.
	Path string
	Dir  string

	// Browser maps specifiers or package-relative paths to their browser
	// replacement. An empty value means the module is excluded (false).
	Browser map[string]string

	Dependencies     map[string]string
	PeerDependencies map[string]string

	// OptionalPeers lists peer dependencies marked optional in
	// peerDependenciesMeta, sorted.
	OptionalPeers []string

	// Exports is the decoded "exports" value: a string, []any, Object, or
	// nil. HasExports distinguishes an absent field from "exports": null.
	Exports    any
	HasExports bool

	fields map[string]json.RawMessage
}

// Parse decodes a package.json located at file. Files that are not strict
// JSON are retried as JSON with comments before giving up.
func Parse(file string, data []byte) (*PackageJSON, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		data = jsonc.ToJSON(data)
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrMalformed, file, err)
		}
	}

	var raw rawPackageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		// A field of the wrong type; keep what the loose decode found.
		raw = rawPackageJSON{}
		_ = json.Unmarshal(fields["name"], &raw.Name)
		_ = json.Unmarshal(fields["version"], &raw.Version)
	}

	pkg := &PackageJSON{
		Name:             raw.Name,
		Version:          raw.Version,
		Type:             raw.Type,
		Path:             file,
		Dir:              path.Dir(file),
		Browser:          decodeBrowser(raw.Browser),
		Dependencies:     toStringMap(raw.Dependencies),
		PeerDependencies: toStringMap(raw.PeerDependencies),
		OptionalPeers:    optionalPeers(raw.PeerDependenciesMeta),
		fields:           fields,
	}

	if raw.Exports != nil && string(raw.Exports) != "null" {
		exports, err := decodeOrdered(raw.Exports)
		if err != nil {
			return nil, fmt.Errorf("%w %s: exports: %v", ErrMalformed, file, err)
		}
		pkg.Exports = exports
		pkg.HasExports = true
	}
	return pkg, nil
}

// MainField returns the string value of a top-level entry field such as
// "main", "module", "react-native" or "browser". Non-string values are
// reported as absent.
func (p *PackageJSON) MainField(name string) (string, bool) {
	raw, ok := p.fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Redirect is a browser map replacement.
type Redirect struct {
	// Target is the replacement specifier or package-relative path.
	Target string
	// Excluded is set when the map value is false.
	Excluded bool
}

// BrowserRedirect looks up name in the browser map. Package-relative paths
// ("./lib/a") also match keys written without the "./" prefix and keys that
// carry one of exts.
func (p *PackageJSON) BrowserRedirect(name string, exts []string) (Redirect, bool) {
	if len(p.Browser) == 0 {
		return Redirect{}, false
	}

	candidates := []string{name}
	if rel, ok := strings.CutPrefix(name, "./"); ok {
		candidates = append(candidates, rel)
		for _, ext := range exts {
			candidates = append(candidates, name+ext, rel+ext)
		}
	}

	for _, c := range candidates {
		if target, ok := p.Browser[c]; ok {
			return Redirect{Target: target, Excluded: target == ""}, true
		}
	}
	return Redirect{}, false
}

// DependencyNames returns the declared dependencies, plus optional peers when
// withOptionalPeers is set, sorted and deduplicated.
func (p *PackageJSON) DependencyNames(withOptionalPeers bool) []string {
	seen := make(map[string]bool, len(p.Dependencies)+len(p.OptionalPeers))
	var names []string
	for name := range p.Dependencies {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if withOptionalPeers {
		for _, name := range p.OptionalPeers {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// decodeBrowser normalizes the browser field. A string value replaces the
// package entry and is keyed as ".".
func decodeBrowser(raw json.RawMessage) map[string]string {
	if raw == nil {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s == "" {
			return nil
		}
		return map[string]string{".": s}
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	browser := make(map[string]string, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case string:
			browser[k] = v
		case bool:
			if !v {
				browser[k] = ""
			}
		}
	}
	return browser
}

func toStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && k != "" {
			result[k] = s
		}
	}
	return result
}

func optionalPeers(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var names []string
	for name, meta := range m {
		fields, ok := meta.(map[string]any)
		if !ok {
			continue
		}
		if optional, _ := fields["optional"].(bool); optional {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
