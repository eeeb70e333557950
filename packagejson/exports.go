/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrNotExported means the subpath is not listed in the export map, or
	// is mapped to null.
	ErrNotExported = errors.New("subpath is not exported")

	// ErrInvalidTarget means the export map points outside the package or
	// is structurally invalid.
	ErrInvalidTarget = errors.New("invalid package target")

	// errNoCondition means no condition of an object target matched.
	errNoCondition = errors.New("no matching condition")
)

// ResolveExports maps subpath ("." or "./feature") through the exports value
// with the given active conditions. "default" always matches. The result is
// a package-relative path starting with "./".
func ResolveExports(exports any, subpath string, conditions []string) (string, error) {
	resolved, err := resolveExports(exports, subpath, conditions)
	if errors.Is(err, errNoCondition) {
		return "", fmt.Errorf("%w: %s (conditions: %s)", ErrNotExported, subpath, strings.Join(conditions, ", "))
	}
	return resolved, err
}

func resolveExports(exports any, subpath string, conditions []string) (string, error) {
	exportMap := normalizeExports(exports)

	if target, ok := exportMap.Get(subpath); ok && !strings.Contains(subpath, "*") {
		return resolveTarget(target, "", conditions, subpath)
	}

	key, match, ok := matchPattern(exportMap, subpath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotExported, subpath)
	}
	target, _ := exportMap.Get(key)
	if strings.HasSuffix(key, "/") {
		// Legacy folder mapping: "./lib/": "./dist/lib/".
		resolved, err := resolveTarget(target, "", conditions, subpath)
		if err != nil {
			return "", err
		}
		return resolved + match, nil
	}
	return resolveTarget(target, match, conditions, subpath)
}

// normalizeExports turns sugar forms ("exports": "./index.js", arrays, and
// condition-only objects) into a subpath map.
func normalizeExports(exports any) Object {
	if obj, ok := exports.(Object); ok {
		for _, k := range obj.Keys() {
			if strings.HasPrefix(k, ".") {
				return obj
			}
		}
	}
	return NewObject([]string{"."}, map[string]any{".": exports})
}

// matchPattern finds the best "*" or trailing "/" key for subpath, preferring
// the longest prefix before the wildcard.
func matchPattern(exportMap Object, subpath string) (key, match string, ok bool) {
	bestPrefix := -1
	for _, k := range exportMap.Keys() {
		if star := strings.Index(k, "*"); star >= 0 {
			if strings.Count(k, "*") != 1 {
				continue
			}
			prefix, suffix := k[:star], k[star+1:]
			if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
				continue
			}
			if len(subpath) < len(prefix)+len(suffix) {
				continue
			}
			if len(prefix) > bestPrefix {
				bestPrefix = len(prefix)
				key, match, ok = k, subpath[len(prefix):len(subpath)-len(suffix)], true
			}
			continue
		}
		if strings.HasSuffix(k, "/") && strings.HasPrefix(subpath, k) && len(k) > bestPrefix {
			bestPrefix = len(k)
			key, match, ok = k, subpath[len(k):], true
		}
	}
	return key, match, ok
}

func resolveTarget(target any, match string, conditions []string, subpath string) (string, error) {
	switch t := target.(type) {
	case nil:
		return "", fmt.Errorf("%w: %s", ErrNotExported, subpath)

	case string:
		if !strings.HasPrefix(t, "./") {
			return "", fmt.Errorf("%w: %q for %s must start with \"./\"", ErrInvalidTarget, t, subpath)
		}
		resolved := strings.ReplaceAll(t, "*", match)
		for _, segment := range strings.Split(resolved, "/")[1:] {
			if segment == ".." || segment == "node_modules" {
				return "", fmt.Errorf("%w: %q for %s escapes the package", ErrInvalidTarget, resolved, subpath)
			}
		}
		return resolved, nil

	case []any:
		var lastErr error
		for _, alt := range t {
			resolved, err := resolveTarget(alt, match, conditions, subpath)
			if err == nil {
				return resolved, nil
			}
			lastErr = err
			if !errors.Is(err, ErrInvalidTarget) && !errors.Is(err, errNoCondition) {
				break
			}
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: %s", ErrNotExported, subpath)
		}
		return "", lastErr

	case Object:
		for _, cond := range t.Keys() {
			if cond != "default" && !slices.Contains(conditions, cond) {
				continue
			}
			value, _ := t.Get(cond)
			resolved, err := resolveTarget(value, match, conditions, subpath)
			if errors.Is(err, errNoCondition) {
				continue
			}
			return resolved, err
		}
		return "", errNoCondition
	}
	return "", fmt.Errorf("%w: unexpected %T for %s", ErrInvalidTarget, target, subpath)
}
