/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package autolinking

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"expo.dev/metroresolve/fs"
)

// Manifest lists linked packages explicitly, replacing discovery. It is
// read from YAML, or from JSON when the file ends in .json.
type Manifest struct {
	Packages []Package `yaml:"packages" json:"packages"`
}

// LoadManifest reads a manifest. Relative package paths are resolved
// against the manifest's directory.
func LoadManifest(fsys fs.FileSystem, file string) ([]Package, error) {
	data, err := fsys.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading autolinking manifest: %w", err)
	}

	var m Manifest
	if path.Ext(file) == ".json" {
		err = json.Unmarshal(jsonc.ToJSON(data), &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing autolinking manifest %s: %w", file, err)
	}

	dir := path.Dir(file)
	for i := range m.Packages {
		pkg := &m.Packages[i]
		if pkg.Name == "" {
			return nil, fmt.Errorf("autolinking manifest %s: package %d has no name", file, i)
		}
		if pkg.Path == "" {
			return nil, fmt.Errorf("autolinking manifest %s: %s has no path", file, pkg.Name)
		}
		if !path.IsAbs(pkg.Path) {
			pkg.Path = path.Join(dir, pkg.Path)
		}
		pkg.Path = fs.RealPathOrSelf(fsys, pkg.Path)
	}
	sort.Slice(m.Packages, func(i, j int) bool { return m.Packages[i].Name < m.Packages[j].Name })
	return m.Packages, nil
}
