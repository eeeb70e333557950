/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package assets finds the resolution-density variants of an image asset,
// for example icon.png, icon@2x.png and icon@3x.png.
package assets

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"expo.dev/metroresolve/fs"
)

var scalePattern = regexp.MustCompile(`@(\d+(?:\.\d+)?)x\.[^.]+$`)

type variant struct {
	name  string
	scale float64
}

// Resolve lists the variants of name+ext in dir, lowest scale first. It
// returns absolute paths, or nil when no variant exists.
func Resolve(fsys fs.FileSystem, dir, name, ext string) ([]string, error) {
	ext = strings.TrimPrefix(ext, ".")
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing assets in %s: %w", dir, err)
	}

	base := escape(name)
	pattern := fmt.Sprintf("{%s.%s,%s@*x.%s}", base, escape(ext), base, escape(ext))

	var variants []variant
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("matching assets for %s: %w", name, err)
		}
		if !ok {
			continue
		}
		scale, ok := Scale(entry.Name())
		if !ok {
			continue
		}
		variants = append(variants, variant{name: entry.Name(), scale: scale})
	}

	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].scale != variants[j].scale {
			return variants[i].scale < variants[j].scale
		}
		return variants[i].name < variants[j].name
	})

	if len(variants) == 0 {
		return nil, nil
	}
	paths := make([]string, len(variants))
	for i, v := range variants {
		paths[i] = path.Join(dir, v.name)
	}
	return paths, nil
}

// Scale returns the density of an asset file name: 1 without a suffix, the
// number before "x" for "@Nx" files. Malformed suffixes report false.
func Scale(fileName string) (float64, bool) {
	m := scalePattern.FindStringSubmatch(fileName)
	if m == nil {
		if strings.Contains(fileName, "@") && strings.HasSuffix(strings.TrimSuffix(fileName, path.Ext(fileName)), "x") {
			return 0, false
		}
		return 1, true
	}
	scale, err := strconv.ParseFloat(m[1], 64)
	if err != nil || scale <= 0 {
		return 0, false
	}
	return scale, true
}

// SplitName splits an asset file name into its base name and extension,
// dropping any density suffix: "icon@2x.png" gives ("icon", "png").
func SplitName(fileName string) (name, ext string) {
	ext = strings.TrimPrefix(path.Ext(fileName), ".")
	name = strings.TrimSuffix(fileName, path.Ext(fileName))
	if m := scalePattern.FindStringIndex(fileName); m != nil {
		name = fileName[:m[0]]
	}
	return name, ext
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', ',', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
