/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolve provides the resolve command for metroresolve.
package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"expo.dev/metroresolve/cmd/internal/cliutil"
	"expo.dev/metroresolve/resolution"
)

// Cmd is the resolve cobra command.
var Cmd = &cobra.Command{
	Use:   "resolve <specifier>...",
	Short: "Resolve import specifiers",
	Long: `Resolve one or more import specifiers as if imported from --from, printing the
file (or asset variants) each resolves to.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("from", "", "Importing file, relative to the project root (defaults to package.json)")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

type entry struct {
	Specifier  string                 `json:"specifier"`
	Resolution *resolution.Resolution `json:"resolution,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return fmt.Errorf("error reading from flag: %w", err)
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

	origin := path.Join(s.ProjectRoot(), "package.json")
	if from != "" {
		origin = from
		if !path.IsAbs(origin) {
			origin = path.Join(s.ProjectRoot(), from)
		}
	}

	out := cmd.OutOrStdout()
	var entries []entry
	var failed int
	for _, spec := range args {
		res, err := s.Resolve(origin, spec, target.Platform, target.Environment)
		if err != nil {
			failed++
			entries = append(entries, entry{Specifier: spec, Error: err.Error()})
			if format != "json" {
				cliutil.PrintError(cmd.ErrOrStderr(), err, flags.NoColor)
			}
			continue
		}
		entries = append(entries, entry{Specifier: spec, Resolution: &res})
		if format != "json" {
			fmt.Fprintf(out, "%s -> %s\n", spec, describe(res, s.ProjectRoot()))
		}
	}

	if format == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling results: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}
	if failed > 0 {
		return errors.New(pluralize(failed, "specifier") + " failed to resolve")
	}
	return nil
}

func describe(res resolution.Resolution, root string) string {
	switch res.Type {
	case resolution.TypeEmpty:
		return "(empty module)"
	case resolution.TypeAssetFiles:
		paths := make([]string, len(res.FilePaths))
		for i, p := range res.FilePaths {
			paths[i] = relative(p, root)
		}
		return strings.Join(paths, ", ")
	}
	return relative(res.FilePath, root)
}

func relative(p, root string) string {
	if rest, ok := strings.CutPrefix(p, strings.TrimSuffix(root, "/")+"/"); ok {
		return rest
	}
	return p
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
