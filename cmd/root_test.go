/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRoot(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "testdata", "fixtures", name))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(abs)
	require.NoError(t, err)
	return filepath.ToSlash(resolved)
}

// resetFlags restores every flag to its default so commands can run more
// than once per process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("EXPO_NO_COLOR", "")
	t.Setenv("EXPO_USE_FAST_RESOLVER", "")
	t.Setenv("EXPO_USE_METRO_ERROR_REPORTING", "")
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestResolveCommand(t *testing.T) {
	root := fixtureRoot(t, "sticky-project")

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-r", root, "--from", "app/index.js", "react-native", "some-dep")
		require.NoError(t, err)
		assert.Contains(t, out, "react-native -> node_modules/react-native/index.js\n")
		assert.Contains(t, out, "some-dep -> node_modules/some-dep/index.js\n")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-r", root, "--from", "app/index.js", "-f", "json", "react-native")
		require.NoError(t, err)

		var got []struct {
			Specifier  string `json:"specifier"`
			Resolution struct {
				Type     string `json:"type"`
				FilePath string `json:"filePath"`
			} `json:"resolution"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "sourceFile", got[0].Resolution.Type)
		assert.Equal(t, root+"/node_modules/react-native/index.js", got[0].Resolution.FilePath)
	})

	t.Run("not found", func(t *testing.T) {
		_, stderr, err := execute(t, "resolve", "-r", root, "--from", "app/index.js", "--no-color", "does-not-exist")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 specifier failed")
		assert.Contains(t, stderr, "Error: ")
		assert.Contains(t, stderr, "does-not-exist")
	})

	t.Run("invalid platform", func(t *testing.T) {
		_, _, err := execute(t, "resolve", "-r", root, "-p", "windows", "react-native")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid platform")
	})

	t.Run("invalid environment", func(t *testing.T) {
		_, _, err := execute(t, "resolve", "-r", root, "-e", "edge", "react-native")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid environment")
	})
}

func TestExtensionsCommand(t *testing.T) {
	root := fixtureRoot(t, "sticky-project")

	out, _, err := execute(t, "extensions", "-r", root, "-p", "android")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.NotEmpty(t, fields)
	assert.Equal(t, ".android.ts", fields[0])
	assert.Contains(t, fields, ".native.js")
	assert.NotContains(t, fields, ".ios.js")
}

func TestGraphCommand(t *testing.T) {
	root := fixtureRoot(t, "sticky-project")

	out, _, err := execute(t, "graph", "-r", root, "-j", "2")
	require.NoError(t, err)
	assert.Contains(t, out, root+"/app/index.js\n")
	assert.Contains(t, out, root+"/node_modules/some-dep/index.js\n")
	assert.Contains(t, out, "0 failures")
}

func TestAutolinkingCommand(t *testing.T) {
	root := fixtureRoot(t, "autolinking")

	out, _, err := execute(t, "autolinking", "-r", root, "-p", "web", "-f", "json")
	require.NoError(t, err)

	var linked map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &linked))
	assert.Equal(t, root+"/node_modules/@expo/web-browser", linked["@expo/web-browser"])
	assert.NotContains(t, linked, "expo-camera")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "metroresolve "))
}

func TestUnknownLogLevel(t *testing.T) {
	_, _, err := execute(t, "version", "--log-level", "verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}
