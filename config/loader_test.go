/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"expo.dev/metroresolve/alias"
	"expo.dev/metroresolve/importstack"
	"expo.dev/metroresolve/internal/mapfs"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/sticky"
	"expo.dev/metroresolve/testutil"
)

func TestLoad_YAML(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/yaml", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if !reflect.DeepEqual(cfg.SourceExts, []string{"ts", "tsx", "js"}) {
		t.Errorf("SourceExts = %v", cfg.SourceExts)
	}
	if !reflect.DeepEqual(cfg.AssetExts, DefaultAssetExts) {
		t.Errorf("expected default asset exts, got %v", cfg.AssetExts)
	}
	if cfg.WorkspaceRoot != "../.." {
		t.Errorf("WorkspaceRoot = %q", cfg.WorkspaceRoot)
	}
	if !cfg.DisableHierarchicalLookup || !cfg.EnablePackageExports {
		t.Error("expected lookup flags to be set")
	}
	if !reflect.DeepEqual(cfg.ConditionNames, []string{"react-native"}) {
		t.Errorf("ConditionNames = %v", cfg.ConditionNames)
	}

	wantAlias := alias.Table{resolution.PlatformWeb: {"react-native": "react-native-web", "lodash": "lodash-es"}}
	if !reflect.DeepEqual(cfg.Alias, wantAlias) {
		t.Errorf("Alias = %v", cfg.Alias)
	}

	wantSticky := []sticky.Module{{Name: "react-native"}, {Name: "react-native-svg", Parent: "react-native"}}
	if !reflect.DeepEqual(cfg.Sticky, wantSticky) {
		t.Errorf("Sticky = %+v", cfg.Sticky)
	}

	if !reflect.DeepEqual(cfg.Fallback.Origins, []string{"expo"}) {
		t.Errorf("Fallback.Origins = %v", cfg.Fallback.Origins)
	}
	if len(cfg.Fallback.Denylist) == 0 {
		t.Error("expected default denylist")
	}

	if cfg.Autolinking.Manifest != "./autolinking.yaml" {
		t.Errorf("Autolinking.Manifest = %q", cfg.Autolinking.Manifest)
	}
	if cfg.Autolinking.Constraints["expo-camera"] != ">=15" {
		t.Errorf("Autolinking.Constraints = %v", cfg.Autolinking.Constraints)
	}
	if !reflect.DeepEqual(cfg.Autolinking.Exclude, []string{"expo-dev-client"}) {
		t.Errorf("Autolinking.Exclude = %v", cfg.Autolinking.Exclude)
	}

	if cfg.ImportStack.MaxDepth != 12 {
		t.Errorf("ImportStack.MaxDepth = %d", cfg.ImportStack.MaxDepth)
	}
	if cfg.ImportStack.MaxStacks != importstack.DefaultMaxStacks {
		t.Errorf("ImportStack.MaxStacks = %d", cfg.ImportStack.MaxStacks)
	}
}

func TestLoad_JSONWithComments(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/json", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if !reflect.DeepEqual(cfg.AssetExts, []string{"png", "lottie"}) {
		t.Errorf("AssetExts = %v", cfg.AssetExts)
	}
	if !reflect.DeepEqual(cfg.SourceExts, DefaultSourceExts) {
		t.Errorf("expected default source exts, got %v", cfg.SourceExts)
	}
	if !reflect.DeepEqual(cfg.NodeModulesPaths, []string{"../shared/node_modules"}) {
		t.Errorf("NodeModulesPaths = %v", cfg.NodeModulesPaths)
	}
	if cfg.Fallback.Denylist == nil || len(cfg.Fallback.Denylist) != 0 {
		t.Errorf("expected an explicit empty denylist, got %v", cfg.Fallback.Denylist)
	}
}

func TestLoad_NotFound(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/none", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config when not found, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/metroresolve.yaml", "sourceExts: {", 0644)

	if _, err := Load(mfs, "/project"); err == nil {
		t.Error("expected an error for malformed YAML")
	}
	if cfg := LoadOrDefault(mfs, "/project"); !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOrDefault_NotFound(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/none", "/project")

	cfg := LoadOrDefault(mfs, "/project")
	if !reflect.DeepEqual(cfg.SourceExts, DefaultSourceExts) {
		t.Errorf("SourceExts = %v", cfg.SourceExts)
	}
	if !reflect.DeepEqual(cfg.Sticky, sticky.DefaultModules) {
		t.Errorf("Sticky = %v", cfg.Sticky)
	}
	if cfg.ImportStack.MaxDepth != importstack.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d", cfg.ImportStack.MaxDepth)
	}
	if got, _ := cfg.Alias.Rewrite("react-native", resolution.PlatformWeb); got != "react-native-web" {
		t.Errorf("expected the default web alias, got %q", got)
	}
}

func TestDefault_DoesNotAlias(t *testing.T) {
	cfg := Default()
	cfg.SourceExts[0] = "changed"
	if DefaultSourceExts[0] == "changed" {
		t.Error("Default shares its slices with the package defaults")
	}
}

func TestExpandWatchFolders(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/watch", "/repo")
	cfg := LoadOrDefault(mfs, "/repo")

	dirs, err := cfg.ExpandWatchFolders(mfs, "/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/repo/packages/icons", "/repo/packages/ui", "/repo/tools/lint"}
	if !reflect.DeepEqual(dirs, want) {
		t.Errorf("ExpandWatchFolders = %v, want %v", dirs, want)
	}
}

func TestExpandWatchFolders_Doublestar(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "config/watch", "/repo")
	cfg := &Config{WatchFolders: []string{"/repo/**/ui", "/repo/packages/ui"}}

	dirs, err := cfg.ExpandWatchFolders(mfs, "/elsewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(dirs, []string{"/repo/packages/ui"}) {
		t.Errorf("ExpandWatchFolders = %v", dirs)
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct{ root, p, want string }{
		{"/a/b", "../c", "/a/c"},
		{"/a/b", "/abs", "/abs"},
		{"/a/b", "", ""},
		{"/a/b", "./x/", "/a/b/x"},
	}
	for _, tt := range tests {
		if got := ResolvePath(tt.root, tt.p); got != tt.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tt.root, tt.p, got, tt.want)
		}
	}
}

func TestLoadFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		flags := LoadFlags(viper.New())
		if !flags.FastResolver || !flags.ErrorReporting || flags.NoColor {
			t.Errorf("unexpected defaults: %+v", flags)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("EXPO_USE_FAST_RESOLVER", "false")
		t.Setenv("EXPO_USE_METRO_ERROR_REPORTING", "0")
		t.Setenv("EXPO_NO_COLOR", "1")

		flags := LoadFlags(viper.New())
		if flags.FastResolver || flags.ErrorReporting || !flags.NoColor {
			t.Errorf("environment not applied: %+v", flags)
		}
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Setenv("EXPO_NO_COLOR", "1")
		v := viper.New()
		v.Set(KeyNoColor, false)

		if LoadFlags(v).NoColor {
			t.Error("expected the explicit value to override the environment")
		}
	})
}
