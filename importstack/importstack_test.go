/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package importstack_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expo.dev/metroresolve/importstack"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/testutil"
)

const (
	project   = "/repo/apps/mobile"
	workspace = "/repo"
	ios       = resolution.PlatformIOS
)

var roots = importstack.Roots{Project: project, Workspace: workspace}

func TestCircularStackTerminates(t *testing.T) {
	g := importstack.NewDepGraph()
	a, b, c := project+"/A.js", project+"/B.js", project+"/C.js"
	g.Record("0", ios, a, "./B", b)
	g.Record("0", ios, b, "./C", c)
	g.Record("0", ios, c, "./A", a)

	stack := importstack.Find(g, "0", ios, roots, 0, 0, c, "missing")
	require.NotNil(t, stack)
	assert.True(t, stack.Circular)
	assert.False(t, stack.Truncated)
	assert.Equal(t, []importstack.Frame{
		{Origin: c, Request: "./A"},
		{Origin: a, Request: "./B"},
		{Origin: b, Request: "./C"},
		{Origin: c, Request: "missing"},
	}, stack.Frames)

	out := importstack.Format(stack, project, true)
	assert.Contains(t, out, "circular import: C.js")
}

func TestPrefersNonCircularProjectRoot(t *testing.T) {
	g := importstack.NewDepGraph()
	entry := project + "/index.js"
	a, b := project+"/A.js", project+"/B.js"
	g.Record("0", ios, a, "./B", b)
	g.Record("0", ios, b, "./A", a)
	g.Record("0", ios, entry, "./B", b)

	stack := importstack.Find(g, "0", ios, roots, 0, 0, b, "missing")
	require.NotNil(t, stack)
	assert.False(t, stack.Circular)
	assert.Equal(t, importstack.RootProject, stack.Root)
	assert.Equal(t, entry, stack.Frames[0].Origin)
}

func TestRootPreference(t *testing.T) {
	g := importstack.NewDepGraph()
	failing := workspace + "/node_modules/lib/index.js"

	// A long chain rooted in the project beats short ones from node_modules
	// and the workspace.
	g.Record("0", ios, workspace+"/node_modules/other/index.js", "lib", failing)
	g.Record("0", ios, workspace+"/packages/ui/index.js", "lib", failing)
	mid := workspace + "/node_modules/mid/index.js"
	g.Record("0", ios, mid, "lib", failing)
	g.Record("0", ios, project+"/src/deep.js", "mid", mid)
	g.Record("0", ios, project+"/index.js", "./src/deep", project+"/src/deep.js")

	stack := importstack.Find(g, "0", ios, roots, 0, 0, failing, "./missing")
	require.NotNil(t, stack)
	assert.Equal(t, importstack.RootProject, stack.Root)
	assert.Len(t, stack.Frames, 4)
	assert.Equal(t, project+"/index.js", stack.Frames[0].Origin)
}

func TestWorkspaceBeatsNodeModules(t *testing.T) {
	g := importstack.NewDepGraph()
	failing := workspace + "/node_modules/lib/index.js"
	g.Record("0", ios, workspace+"/node_modules/other/index.js", "lib", failing)
	g.Record("0", ios, workspace+"/packages/ui/index.js", "lib", failing)

	stack := importstack.Find(g, "0", ios, roots, 0, 0, failing, "./missing")
	require.NotNil(t, stack)
	assert.Equal(t, importstack.RootWorkspace, stack.Root)
}

func TestDepthTruncation(t *testing.T) {
	g := importstack.NewDepGraph()
	for i := 0; i < 50; i++ {
		from := fmt.Sprintf("%s/node_modules/m%d/index.js", workspace, i+1)
		to := fmt.Sprintf("%s/node_modules/m%d/index.js", workspace, i)
		g.Record("0", ios, from, fmt.Sprintf("m%d", i), to)
	}
	failing := workspace + "/node_modules/m0/index.js"

	stack := importstack.Find(g, "0", ios, roots, 10, 0, failing, "gone")
	require.NotNil(t, stack)
	assert.True(t, stack.Truncated)
	assert.Len(t, stack.Frames, 10)
	assert.Contains(t, importstack.Format(stack, "", true), "truncated at 10 frames")
}

func TestStackBudget(t *testing.T) {
	g := importstack.NewDepGraph()
	failing := workspace + "/node_modules/hub/index.js"
	// Many node_modules importers; none is ideal so the walk would try
	// every one without a budget.
	for i := 0; i < 100; i++ {
		g.Record("0", ios, fmt.Sprintf("%s/node_modules/p%03d/index.js", workspace, i), "hub", failing)
	}

	stack := importstack.Find(g, "0", ios, roots, 0, 5, failing, "gone")
	require.NotNil(t, stack)
	assert.Equal(t, workspace+"/node_modules/p000/index.js", stack.Frames[0].Origin)
}

func TestNoImporters(t *testing.T) {
	g := importstack.NewDepGraph()
	stack := importstack.Find(g, "0", ios, roots, 0, 0, project+"/index.js", "missing")
	require.NotNil(t, stack)
	assert.Equal(t, []importstack.Frame{{Origin: project + "/index.js", Request: "missing"}}, stack.Frames)
}

func TestPartitions(t *testing.T) {
	g := importstack.NewDepGraph()
	g.Record("0", ios, "/a.js", "./b", "/b.js")
	g.Record("k1", ios, "/x.js", "./b", "/b.js")
	g.Record("0", resolution.PlatformWeb, "/y.js", "./b", "/b.js")

	assert.Equal(t, []importstack.Frame{{Origin: "/a.js", Request: "./b"}}, g.Importers("0", ios, "/b.js"))
	assert.Equal(t, []importstack.Frame{{Origin: "/x.js", Request: "./b"}}, g.Importers("k1", ios, "/b.js"))
	assert.Empty(t, g.Importers("k2", ios, "/b.js"))
	assert.Equal(t, []importstack.Edge{{ResolvedPath: "/b.js", Request: "./b"}}, g.Dependencies("0", ios, "/a.js"))
	assert.Equal(t, []string{"/a.js"}, g.Origins("0", ios))
}

func TestConcurrentRecord(t *testing.T) {
	g := importstack.NewDepGraph()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Record("0", ios, fmt.Sprintf("/f%d.js", i), "./shared", "/shared.js")
			g.Importers("0", ios, "/shared.js")
		}(i)
	}
	wg.Wait()
	assert.Len(t, g.Importers("0", ios, "/shared.js"), 20)
}

func TestFormatGolden(t *testing.T) {
	g := importstack.NewDepGraph()
	g.Record("0", ios, project+"/index.js", "./App", project+"/App.tsx")
	g.Record("0", ios, project+"/App.tsx", "./screens/Home", project+"/screens/Home.tsx")
	stack := importstack.Find(g, "0", ios, roots, 0, 0, project+"/screens/Home.tsx", "react-native-missing")

	actual := importstack.Format(stack, project, true)
	testutil.UpdateGoldenFile(t, "importstack/basic.golden", []byte(actual))
	expected := testutil.LoadFixtureFile(t, "importstack/basic.golden")
	assert.Equal(t, string(expected), actual)
}

func TestStripANSI(t *testing.T) {
	styled := "\x1b[1mImport stack:\x1b[0m\n \x1b[38;5;196mimport \"x\"\x1b[0m"
	assert.Equal(t, "Import stack:\n import \"x\"", importstack.StripANSI(styled))
}

func TestReporterWrap(t *testing.T) {
	files := map[string]string{
		"./App":   project + "/App.js",
		"./Other": project + "/Other.js",
	}
	var calls int
	base := func(ctx *resolution.Context, name string, platform resolution.Platform) (resolution.Resolution, error) {
		calls++
		switch name {
		case "fatal":
			return resolution.Resolution{}, resolution.Fatalf(ctx.OriginModulePath, name, "broken")
		case "plain":
			return resolution.Resolution{}, errors.New("plain failure")
		case "./empty":
			return resolution.Empty(), nil
		}
		if p, ok := files[name]; ok {
			return resolution.SourceFile(p), nil
		}
		return resolution.Resolution{}, resolution.NotFound(ctx.OriginModulePath, name)
	}

	r := importstack.NewReporter(importstack.NewDepGraph(), importstack.Options{
		ProjectRoot: project,
		NoColor:     true,
	})
	resolve := r.Wrap(base)

	entry := &resolution.Context{OriginModulePath: project + "/index.js"}
	_, err := resolve(entry, "./App", ios)
	require.NoError(t, err)
	_, err = resolve(entry, "./empty", ios)
	require.NoError(t, err)

	app := entry.WithOrigin(project + "/App.js")
	_, err = resolve(app, "missing-pkg", ios)
	require.Error(t, err)

	original := resolution.NotFound(app.OriginModulePath, "missing-pkg")
	resErr, ok := resolution.AsError(err)
	require.True(t, ok)
	assert.True(t, resolution.IsNotFound(err), "kind is preserved")
	assert.Equal(t, original.Error(), err.Error(), "message is preserved")
	assert.Contains(t, resErr.ImportStack, "Import stack:")
	assert.Contains(t, resErr.ImportStack, "index.js")
	assert.Contains(t, resErr.ImportStack, `import "missing-pkg"`)

	_, err = resolve(app, "fatal", ios)
	resErr, ok = resolution.AsError(err)
	require.True(t, ok)
	assert.Empty(t, resErr.ImportStack, "fatal errors pass through")

	_, err = resolve(app, "plain", ios)
	assert.EqualError(t, err, "plain failure")

	// Partitioned by options: a different environment sees no edges.
	server := entry.Clone()
	server.CustomOptions = map[string]string{resolution.EnvironmentOption: resolution.EnvironmentNode}
	assert.Empty(t, r.Graph().Importers(server.CustomOptionsKey(), ios, project+"/App.js"))
	assert.Len(t, r.Graph().Importers(entry.CustomOptionsKey(), ios, project+"/App.js"), 1)
	assert.Equal(t, 5, calls)
	assert.False(t, strings.Contains(resErr.Error(), "Import stack"))
}
