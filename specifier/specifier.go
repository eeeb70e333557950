/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier classifies import specifiers and splits bare specifiers
// into a package name and a sub-path.
package specifier

import (
	"regexp"
	"strings"
)

// Kind indicates the type of specifier.
type Kind int

const (
	// KindRelative is a specifier starting with "." ("./a", "../b", ".").
	KindRelative Kind = iota
	// KindAbsolute is an absolute filesystem path.
	KindAbsolute
	// KindBare is a package specifier resolved through node_modules.
	KindBare
	// KindBuiltin is a Node.js core module ("fs", "node:path").
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindRelative:
		return "relative"
	case KindAbsolute:
		return "absolute"
	case KindBare:
		return "bare"
	case KindBuiltin:
		return "builtin"
	}
	return "unknown"
}

// Specifier represents a parsed import specifier.
type Specifier struct {
	Kind Kind

	// Package is the package name for bare and builtin specifiers
	// (e.g., "@scope/pkg" or "pkg"). Empty for paths.
	Package string

	// File is the sub-path within the package, without a leading slash.
	File string

	// Raw is the original specifier string.
	Raw string
}

// packagePattern matches @scope/pkg/path, pkg/path, or bare pkg
var packagePattern = regexp.MustCompile(`^(@[^/]+/[^/]+|[^/@][^/]*)(/.*)?$`)

// Parse parses a specifier string into a Specifier struct.
func Parse(spec string) *Specifier {
	if IsRelative(spec) {
		return &Specifier{Kind: KindRelative, File: spec, Raw: spec}
	}
	if strings.HasPrefix(spec, "/") {
		return &Specifier{Kind: KindAbsolute, File: spec, Raw: spec}
	}

	name := StripNodePrefix(spec)
	kind := KindBare
	if IsNodeBuiltin(spec) {
		kind = KindBuiltin
	}

	if matches := packagePattern.FindStringSubmatch(name); len(matches) == 3 {
		return &Specifier{
			Kind:    kind,
			Package: matches[1],
			File:    strings.TrimPrefix(matches[2], "/"),
			Raw:     spec,
		}
	}

	// Malformed scope such as "@scope" alone: treat the whole thing as the name.
	return &Specifier{Kind: kind, Package: name, Raw: spec}
}

// IsRelative reports whether spec is relative to the importing file.
func IsRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// IsPath reports whether spec is a relative or absolute path rather than a package.
func IsPath(spec string) bool {
	return IsRelative(spec) || strings.HasPrefix(spec, "/")
}

// IsBare returns true if this specifier goes through node_modules lookup.
func (s *Specifier) IsBare() bool {
	return s.Kind == KindBare || s.Kind == KindBuiltin
}

// SubPath returns the package-relative export key: "." for the package
// root, "./file" otherwise.
func (s *Specifier) SubPath() string {
	if s.File == "" {
		return "."
	}
	return "./" + s.File
}

// PackagesPattern builds a regexp matching any of names exactly or with a
// "/sub/path" suffix. Group 1 is the package name and group 2 the suffix
// including its leading slash. Returns nil when names is empty.
func PackagesPattern(names []string) *regexp.Regexp {
	if len(names) == 0 {
		return nil
	}
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)(/.*)?$`)
}
