/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package autolinking_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expo.dev/metroresolve/autolinking"
	"expo.dev/metroresolve/fsresolver"
	"expo.dev/metroresolve/internal/mapfs"
	"expo.dev/metroresolve/packagejson"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/testutil"
)

const root = "/proj"

func discover(t *testing.T, mfs *mapfs.MapFileSystem, opts autolinking.Options) []autolinking.Package {
	t.Helper()
	cache, err := packagejson.NewCache(mfs, 0)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	if opts.SearchPaths == nil {
		opts.SearchPaths = []string{root + "/node_modules", root + "/vendor/node_modules"}
	}
	packages, err := autolinking.Discover(mfs, cache.Read, opts)
	require.NoError(t, err)
	return packages
}

func names(packages []autolinking.Package) []string {
	var out []string
	for _, p := range packages {
		out = append(out, p.Name)
	}
	return out
}

func TestParseModuleConfig(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []resolution.Platform
	}{
		{"apple aliases collapse", `{"platforms": ["apple", "ios", "macos", "tvos"]}`, []resolution.Platform{resolution.PlatformIOS}},
		{"android and web", `{"platforms": ["android", "web"]}`, []resolution.Platform{resolution.PlatformAndroid, resolution.PlatformWeb}},
		{"comments and trailing comma", "{\n// linked\n\"platforms\": [\"Android\",],\n}", []resolution.Platform{resolution.PlatformAndroid}},
		{"unknown platform", `{"platforms": ["windows"]}`, nil},
		{"no platforms", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := autolinking.ParseModuleConfig([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.ResolutionPlatforms())
		})
	}

	_, err := autolinking.ParseModuleConfig([]byte(`{"platforms": "ios"}`))
	assert.True(t, errors.Is(err, autolinking.ErrInvalidConfig))
}

func TestDiscover(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	packages := discover(t, mfs, autolinking.Options{})

	assert.Equal(t, []string{"@expo/web-browser", "expo-camera", "expo-sensors"}, names(packages))

	camera := packages[1]
	assert.Equal(t, root+"/node_modules/expo-camera", camera.Path, "first search path wins")
	assert.Equal(t, "15.0.0", camera.Version)
	assert.True(t, camera.Supports(resolution.PlatformIOS))
	assert.True(t, camera.Supports(resolution.PlatformAndroid))
	assert.False(t, camera.Supports(resolution.PlatformWeb))
}

func TestDiscoverExclude(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	packages := discover(t, mfs, autolinking.Options{Exclude: []string{"expo-camera"}})
	assert.Equal(t, []string{"@expo/web-browser", "expo-sensors"}, names(packages))
}

func TestDiscoverMissingSearchPath(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	packages := discover(t, mfs, autolinking.Options{SearchPaths: []string{"/nowhere/node_modules"}})
	assert.Empty(t, packages)
}

func TestDiscoverConstraints(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)

	packages := discover(t, mfs, autolinking.Options{Constraints: map[string]string{"expo-camera": "^16.0.0"}})
	assert.Len(t, packages, 3, "an unsatisfied range only warns")

	cache, err := packagejson.NewCache(mfs, 0)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	_, err = autolinking.Discover(mfs, cache.Read, autolinking.Options{
		SearchPaths: []string{root + "/node_modules"},
		Constraints: map[string]string{"expo-camera": "not a range"},
	})
	assert.Error(t, err)
}

func TestForPlatform(t *testing.T) {
	packages := []autolinking.Package{
		{Name: "expo-camera", Path: "/a/expo-camera", Platforms: []resolution.Platform{resolution.PlatformIOS, resolution.PlatformAndroid}},
		{Name: "@expo/web-browser", Path: "/a/web-browser", Platforms: []resolution.Platform{resolution.PlatformWeb}},
	}

	ios := autolinking.ForPlatform(packages, resolution.PlatformIOS)
	require.NotNil(t, ios.TestRegex)
	assert.True(t, ios.TestRegex.MatchString("expo-camera/build/Camera"))
	assert.False(t, ios.TestRegex.MatchString("@expo/web-browser"))
	assert.Equal(t, map[string]string{"expo-camera": "/a/expo-camera"}, ios.ResolvedModulePaths)

	none := autolinking.ForPlatform(nil, resolution.PlatformAndroid)
	assert.Nil(t, none.TestRegex)
	assert.Empty(t, none.ResolvedModulePaths)
}

func TestLoadManifest(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFiles(map[string]string{
		"/proj/.config/autolinking.yaml": `packages:
  - name: expo-camera
    path: ../node_modules/expo-camera
    platforms: [ios, android]
  - name: abs
    path: /opt/abs
    platforms: [web]
`,
		"/proj/autolinking.json": `{
  // generated
  "packages": [{ "name": "expo-sensors", "path": "native/sensors", "platforms": ["android"] }]
}`,
		"/proj/bad.yaml": "packages:\n  - path: ./x\n",
	})

	packages, err := autolinking.LoadManifest(mfs, "/proj/.config/autolinking.yaml")
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "abs", packages[0].Name)
	assert.Equal(t, "/opt/abs", packages[0].Path)
	assert.Equal(t, "/proj/node_modules/expo-camera", packages[1].Path)
	assert.True(t, packages[1].Supports(resolution.PlatformAndroid))

	packages, err = autolinking.LoadManifest(mfs, "/proj/autolinking.json")
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, "/proj/native/sensors", packages[0].Path)

	_, err = autolinking.LoadManifest(mfs, "/proj/bad.yaml")
	assert.Error(t, err)

	_, err = autolinking.LoadManifest(mfs, "/proj/missing.yaml")
	assert.Error(t, err)
}

func TestResolverPinsLinkedPackage(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	packages := discover(t, mfs, autolinking.Options{})

	var loads atomic.Int32
	r := autolinking.New(func(p resolution.Platform) (*autolinking.PlatformModules, error) {
		loads.Add(1)
		return autolinking.ForPlatform(packages, p), nil
	}, fsresolver.NewFast(nil).Resolve)
	assert.Equal(t, "autolinking", r.Name())

	ctx := testutil.NewContext(t, mfs, root+"/app/index.js", resolution.PlatformIOS)

	tests := []struct {
		spec string
		want string
	}{
		{"expo-camera", root + "/node_modules/expo-camera/build/index.js"},
		{"expo-camera/build/Camera", root + "/node_modules/expo-camera/build/Camera.js"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			outcome, err := r.Resolve(ctx, tt.spec, resolution.PlatformIOS)
			require.NoError(t, err)
			res, ok := outcome.Resolution()
			require.True(t, ok)
			assert.Equal(t, tt.want, res.FilePath)
		})
	}

	// Without autolinking the app's nested copy would be picked.
	plain, err := fsresolver.NewFast(nil).Resolve(ctx, "expo-camera", resolution.PlatformIOS)
	require.NoError(t, err)
	assert.Equal(t, root+"/app/node_modules/expo-camera/index.js", plain.FilePath)

	assert.Equal(t, int32(1), loads.Load(), "modules load once per platform")
}

func TestResolverSkips(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	packages := discover(t, mfs, autolinking.Options{})
	r := autolinking.New(func(p resolution.Platform) (*autolinking.PlatformModules, error) {
		return autolinking.ForPlatform(packages, p), nil
	}, fsresolver.NewFast(nil).Resolve)

	tests := []struct {
		name     string
		spec     string
		platform resolution.Platform
	}{
		{"not linked", "lodash", resolution.PlatformIOS},
		{"linked on another platform", "expo-sensors", resolution.PlatformIOS},
		{"no platform", "expo-camera", resolution.PlatformNone},
		{"relative", "./expo-camera", resolution.PlatformAndroid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.NewContext(t, mfs, root+"/app/index.js", tt.platform)
			outcome, err := r.Resolve(ctx, tt.spec, tt.platform)
			require.NoError(t, err)
			assert.True(t, outcome.Skipped())
		})
	}
}

func TestResolverLoadFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	r := autolinking.New(func(resolution.Platform) (*autolinking.PlatformModules, error) {
		return nil, boom
	}, nil)

	mfs := testutil.NewFixtureFS(t, "autolinking", root)
	ctx := testutil.NewContext(t, mfs, root+"/app/index.js", resolution.PlatformAndroid)
	_, err := r.Resolve(ctx, "expo-sensors", resolution.PlatformAndroid)
	require.Error(t, err)
	assert.False(t, resolution.IsNotFound(err))
	assert.True(t, errors.Is(err, boom))
}
