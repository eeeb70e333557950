/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package graph provides the graph command for metroresolve.
package graph

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"expo.dev/metroresolve/cmd/internal/cliutil"
	"expo.dev/metroresolve/crawl"
)

// Cmd is the graph cobra command.
var Cmd = &cobra.Command{
	Use:   "graph [entries...]",
	Short: "Crawl the import graph from entry files",
	Long: `Resolve every import reachable from the entry files (the project's main by
default) and report the files visited and the imports that failed, with
their import stacks.`,
	RunE: run,
}

func init() {
	Cmd.Flags().IntP("concurrency", "j", 0, "Files processed at once (defaults to GOMAXPROCS)")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return fmt.Errorf("error reading concurrency flag: %w", err)
	}

	target, err := cliutil.TargetFlags(cmd)
	if err != nil {
		return err
	}
	s, flags, err := cliutil.OpenSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := entryFiles(args, func(name string) (string, error) {
		res, err := s.Resolve(path.Join(s.ProjectRoot(), "package.json"), name, target.Platform, target.Environment)
		if err != nil {
			return "", err
		}
		return res.FilePath, nil
	})
	if err != nil {
		return err
	}

	result, err := s.Crawl(cmd.Context(), target.Platform, target.Environment, concurrency, entries...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling graph: %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		printSummary(cmd, result)
	}

	for _, f := range result.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%s:%d\n", f.Origin, f.Line)
		cliutil.PrintError(cmd.ErrOrStderr(), f.Err, flags.NoColor)
	}
	if n := len(result.Failures); n > 0 {
		return fmt.Errorf("%d imports failed to resolve", n)
	}
	return nil
}

// entryFiles resolves each argument relative to the project; with no arguments the
// project itself is the entry, resolved through its package.json.
func entryFiles(args []string, resolveEntry func(string) (string, error)) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	entries := make([]string, 0, len(args))
	for _, arg := range args {
		spec := arg
		if !path.IsAbs(spec) && spec != "." && !isRelative(spec) {
			spec = "./" + spec
		}
		file, err := resolveEntry(spec)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", arg, err)
		}
		entries = append(entries, file)
	}
	return entries, nil
}

func isRelative(spec string) bool {
	return len(spec) > 1 && spec[0] == '.' && (spec[1] == '/' || spec[1] == '.')
}

func printSummary(cmd *cobra.Command, result *crawl.Result) {
	out := cmd.OutOrStdout()
	edges := 0
	for _, deps := range result.Modules {
		edges += len(deps)
	}
	for _, f := range result.Files() {
		fmt.Fprintln(out, f)
	}
	fmt.Fprintf(out, "\n%d modules, %d imports, %d externals, %d failures\n",
		len(result.Modules), edges, len(result.Externals), len(result.Failures))
}
