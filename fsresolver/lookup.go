/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fsresolver

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"expo.dev/metroresolve/assets"
	"expo.dev/metroresolve/fs"
	"expo.dev/metroresolve/internal/logger"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/specifier"
)

// lookup is the state of one resolution request.
type lookup struct {
	r        *Resolver
	ctx      *resolution.Context
	name     string
	platform resolution.Platform
	depth    int
	exts     []string

	candidates []resolution.FileCandidates
	searched   []string
}

func (l *lookup) notFound() error {
	err := resolution.NotFound(l.ctx.OriginModulePath, l.name, l.candidates...)
	if len(l.searched) > 0 {
		err.Message = fmt.Sprintf("%s could not be found within the project or in these directories:\n  %s",
			l.name, strings.Join(l.searched, "\n  "))
	}
	return err
}

func (l *lookup) fatal(err error) error {
	return resolution.Fatal(l.ctx.OriginModulePath, l.name, err)
}

// resolvePath resolves an absolute path as a file, then as a directory.
func (l *lookup) resolvePath(target string) (resolution.Resolution, error) {
	res, ok, err := l.loadEntry(target)
	if err != nil {
		return resolution.Resolution{}, err
	}
	if ok {
		return res, nil
	}
	res, ok, err = l.loadDirectory(target)
	if err != nil {
		return resolution.Resolution{}, err
	}
	if ok {
		return res, nil
	}
	return resolution.Resolution{}, l.notFound()
}

// loadEntry applies the browser field to target and then loads it as a file.
func (l *lookup) loadEntry(target string) (resolution.Resolution, bool, error) {
	redirected, res, handled, err := l.pathRedirect(target)
	if err != nil || handled {
		return res, handled, err
	}
	return l.loadFile(redirected)
}

// loadFile tries target exactly and with each candidate extension. An exact
// match counts only when its extension is a source or asset extension.
func (l *lookup) loadFile(target string) (resolution.Resolution, bool, error) {
	fsys := l.ctx.FileSystem

	if ext := path.Ext(target); ext != "" && l.ctx.IsAssetExt(ext) {
		return l.loadAsset(target)
	}

	if fs.IsFile(fsys, target) {
		if l.ctx.IsSourceExt(path.Ext(target)) {
			return resolution.SourceFile(fs.RealPathOrSelf(fsys, target)), true, nil
		}
		debugf("%s is neither a source nor an asset file", target)
	}
	for _, ext := range l.exts {
		if candidate := target + ext; fs.IsFile(fsys, candidate) {
			return resolution.SourceFile(fs.RealPathOrSelf(fsys, candidate)), true, nil
		}
	}
	l.candidates = append(l.candidates, resolution.FileCandidates{
		FilePathPrefix: target,
		CandidateExts:  l.exts,
	})
	return resolution.Resolution{}, false, nil
}

// loadAsset resolves an asset file. Web gets the requested file only; other
// platforms get every density variant through the context's asset resolver.
func (l *lookup) loadAsset(target string) (resolution.Resolution, bool, error) {
	fsys := l.ctx.FileSystem

	if l.platform == resolution.PlatformWeb || l.ctx.ResolveAsset == nil {
		if fs.IsFile(fsys, target) {
			return resolution.AssetFiles(fs.RealPathOrSelf(fsys, target)), true, nil
		}
		l.candidates = append(l.candidates, resolution.FileCandidates{FilePathPrefix: target})
		return resolution.Resolution{}, false, nil
	}

	dir, file := path.Split(target)
	dir = path.Clean(dir)
	name, ext := assets.SplitName(file)
	paths, err := l.ctx.ResolveAsset(dir, name, ext)
	if err != nil {
		return resolution.Resolution{}, false, l.fatal(err)
	}
	if len(paths) == 0 {
		l.candidates = append(l.candidates, resolution.FileCandidates{FilePathPrefix: target})
		return resolution.Resolution{}, false, nil
	}
	real := make([]string, len(paths))
	for i, p := range paths {
		real[i] = fs.RealPathOrSelf(fsys, p)
	}
	return resolution.AssetFiles(real...), true, nil
}

// loadDirectory resolves dir through its package.json entry fields and then
// its index file.
func (l *lookup) loadDirectory(dir string) (resolution.Resolution, bool, error) {
	fsys := l.ctx.FileSystem
	if !fs.IsDir(fsys, dir) {
		return resolution.Resolution{}, false, nil
	}

	manifest := path.Join(dir, packagejson.FileName)
	if fs.IsFile(fsys, manifest) {
		pkg, err := l.ctx.Package(manifest)
		if err != nil {
			return resolution.Resolution{}, false, l.fatal(err)
		}
		if main := l.mainField(pkg); main != "" {
			entry := path.Join(dir, main)
			if entry != dir {
				res, ok, err := l.loadEntry(entry)
				if err != nil || ok {
					return res, ok, err
				}
				res, ok, err = l.loadEntry(path.Join(entry, "index"))
				if err != nil || ok {
					return res, ok, err
				}
			}
		}
	}
	return l.loadEntry(path.Join(dir, "index"))
}

// mainField picks the first string-valued entry field in context order.
func (l *lookup) mainField(pkg *packagejson.PackageJSON) string {
	if pkg == nil {
		return ""
	}
	fields := l.ctx.MainFields
	if len(fields) == 0 {
		fields = []string{"main"}
	}
	for _, field := range fields {
		if value, ok := pkg.MainField(field); ok {
			return value
		}
	}
	return ""
}

// pathRedirect applies the browser map of the package owning target. It
// returns the path to load, or a final resolution when handled is set.
func (l *lookup) pathRedirect(target string) (string, resolution.Resolution, bool, error) {
	if l.ctx.IsServer() || l.ctx.ReadPackage == nil {
		return target, resolution.Resolution{}, false, nil
	}
	owner, err := packagejson.FindPackageOf(l.ctx.FileSystem, packagejson.Reader(l.ctx.ReadPackage), target)
	if err != nil {
		if isMalformed(err) {
			return "", resolution.Resolution{}, false, l.fatal(err)
		}
		return target, resolution.Resolution{}, false, nil
	}
	if owner == nil || len(owner.Browser) == 0 {
		return target, resolution.Resolution{}, false, nil
	}
	rel, ok := relativeTo(owner.Dir, target)
	if !ok {
		return target, resolution.Resolution{}, false, nil
	}

	redirect, ok := owner.BrowserRedirect(rel, l.exts)
	if !ok {
		return target, resolution.Resolution{}, false, nil
	}
	if redirect.Excluded {
		debugf("browser field of %s excludes %s", owner.Name, rel)
		return "", resolution.Empty(), true, nil
	}
	if specifier.IsRelative(redirect.Target) {
		return path.Join(owner.Dir, redirect.Target), resolution.Resolution{}, false, nil
	}

	res, err := l.r.resolve(l.ctx.WithOrigin(owner.Path), redirect.Target, l.platform, l.depth+1)
	return "", res, true, err
}

// originRedirect applies the browser map of the importing package to a
// bare specifier.
func (l *lookup) originRedirect() (resolution.Resolution, bool, error) {
	if l.ctx.IsServer() || l.ctx.ReadPackage == nil || l.ctx.OriginModulePath == "" {
		return resolution.Resolution{}, false, nil
	}
	owner, err := packagejson.FindPackageOf(l.ctx.FileSystem, packagejson.Reader(l.ctx.ReadPackage), l.ctx.OriginModulePath)
	if err != nil {
		if isMalformed(err) {
			return resolution.Resolution{}, false, l.fatal(err)
		}
		return resolution.Resolution{}, false, nil
	}
	if owner == nil {
		return resolution.Resolution{}, false, nil
	}
	redirect, ok := owner.BrowserRedirect(l.name, nil)
	if !ok {
		return resolution.Resolution{}, false, nil
	}
	if redirect.Excluded {
		debugf("browser field of %s excludes %s", owner.Name, l.name)
		return resolution.Empty(), true, nil
	}
	if redirect.Target == l.name {
		return resolution.Resolution{}, false, nil
	}
	if specifier.IsRelative(redirect.Target) {
		res, err := l.r.resolve(l.ctx.WithOrigin(owner.Path), redirect.Target, l.platform, l.depth+1)
		return res, true, err
	}
	res, err := l.r.resolve(l.ctx, redirect.Target, l.platform, l.depth+1)
	return res, true, err
}

// resolveBuiltin handles Node core modules. Clients get a same-named
// polyfill package when one is installed and the empty module otherwise.
func (l *lookup) resolveBuiltin(spec *specifier.Specifier) (resolution.Resolution, error) {
	if l.ctx.IsServer() {
		return resolution.Resolution{}, l.fatal(fmt.Errorf("%w: %s", ErrExternalBuiltin, l.name))
	}

	if !strings.HasPrefix(l.name, "node:") {
		if res, handled, err := l.originRedirect(); handled || err != nil {
			return res, err
		}
	}

	polyfill := specifier.Parse(specifier.StripNodePrefix(l.name))
	polyfill.Kind = specifier.KindBare
	res, err := l.resolvePackage(polyfill)
	if err == nil {
		return res, nil
	}
	if !resolution.IsNotFound(err) {
		return resolution.Resolution{}, err
	}
	debugf("no polyfill for %s on %s, using the empty module", l.name, l.platform)
	return resolution.Empty(), nil
}

// resolvePackage resolves a bare specifier through node_modules.
func (l *lookup) resolvePackage(spec *specifier.Specifier) (resolution.Resolution, error) {
	fsys := l.ctx.FileSystem
	from := path.Dir(l.ctx.OriginModulePath)

	for _, dir := range nodeModulesDirs(l.ctx, from) {
		l.searched = append(l.searched, dir)
		pkgDir := path.Join(dir, spec.Package)
		if !fs.IsDir(fsys, pkgDir) {
			continue
		}

		if l.r.mode == ModeDefault && l.ctx.EnablePackageExports {
			res, ok, err := l.loadExports(pkgDir, spec)
			if err != nil || ok {
				return res, err
			}
		}

		target := pkgDir
		if spec.File != "" {
			target = path.Join(pkgDir, spec.File)
		}
		res, ok, err := l.loadEntry(target)
		if err != nil || ok {
			return res, err
		}
		res, ok, err = l.loadDirectory(target)
		if err != nil || ok {
			return res, err
		}
	}
	return resolution.Resolution{}, l.notFound()
}

// loadExports resolves spec through the export map of the package in
// pkgDir. Subpaths that are not exported fall back to file lookup.
func (l *lookup) loadExports(pkgDir string, spec *specifier.Specifier) (resolution.Resolution, bool, error) {
	manifest := path.Join(pkgDir, packagejson.FileName)
	if !fs.IsFile(l.ctx.FileSystem, manifest) {
		return resolution.Resolution{}, false, nil
	}
	pkg, err := l.ctx.Package(manifest)
	if err != nil {
		return resolution.Resolution{}, false, l.fatal(err)
	}
	if pkg == nil || !pkg.HasExports {
		return resolution.Resolution{}, false, nil
	}

	subpath := spec.SubPath()
	target, err := packagejson.ResolveExports(pkg.Exports, subpath, conditions(l.ctx, l.platform))
	if err != nil {
		if errors.Is(err, packagejson.ErrInvalidTarget) {
			logger.Warn("%s: %v; falling back to file-based resolution", pkg.Name, err)
		} else {
			debugf("%s: %v; falling back to file-based resolution", pkg.Name, err)
		}
		return resolution.Resolution{}, false, nil
	}

	file := path.Join(pkgDir, target)
	if !fs.IsFile(l.ctx.FileSystem, file) {
		logger.Warn("%s exports %s as %s, which does not exist; falling back to file-based resolution", pkg.Name, subpath, target)
		return resolution.Resolution{}, false, nil
	}
	if l.ctx.IsAssetExt(path.Ext(file)) {
		return l.loadAsset(file)
	}
	return resolution.SourceFile(fs.RealPathOrSelf(l.ctx.FileSystem, file)), true, nil
}
