/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package session

import (
	"path"

	"expo.dev/metroresolve/autolinking"
	"expo.dev/metroresolve/config"
	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/resolution"
)

// LinkedPackages returns the autolinked packages of the project, discovering
// them on first use.
func (s *Session) LinkedPackages() ([]autolinking.Package, error) {
	return s.linked.Load()
}

// LinkedModules returns the modules autolinked on platform.
func (s *Session) LinkedModules(platform resolution.Platform) (*autolinking.PlatformModules, error) {
	return s.autolinking.Modules(platform)
}

func (s *Session) linkedModules(platform resolution.Platform) (*autolinking.PlatformModules, error) {
	packages, err := s.linked.Load()
	if err != nil {
		return nil, err
	}
	return autolinking.ForPlatform(packages, platform), nil
}

func (s *Session) discoverLinked() ([]autolinking.Package, error) {
	opts := s.cfg.Autolinking
	if opts.Manifest != "" {
		return autolinking.LoadManifest(s.fsys, config.ResolvePath(s.root, opts.Manifest))
	}

	searchPaths := fsresolver.NodeModulesAncestors(s.root)
	for _, p := range opts.SearchPaths {
		searchPaths = append(searchPaths, config.ResolvePath(s.root, p))
	}
	folders, err := s.cfg.ExpandWatchFolders(s.fsys, s.root)
	if err != nil {
		return nil, err
	}
	for _, dir := range folders {
		searchPaths = append(searchPaths, path.Join(dir, "node_modules"))
	}

	return autolinking.Discover(s.fsys, s.packages.Read, autolinking.Options{
		SearchPaths: searchPaths,
		Exclude:     opts.Exclude,
		Constraints: opts.Constraints,
	})
}
