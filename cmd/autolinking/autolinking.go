/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package autolinking provides the autolinking command for metroresolve.
package autolinking

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"expo.dev/metroresolve/cmd/internal/cliutil"
)

// Cmd is the autolinking cobra command.
var Cmd = &cobra.Command{
	Use:   "autolinking",
	Short: "List the native modules autolinked on a platform",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}
	target, err := cliutil.TargetFlags(cmd)
	if err != nil {
		return err
	}
	s, _, err := cliutil.OpenSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	mods, err := s.LinkedModules(target.Platform)
	if err != nil {
		return err
	}
	linked := map[string]string{}
	if mods != nil {
		linked = mods.ResolvedModulePaths
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := json.MarshalIndent(linked, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling modules: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	names := make([]string, 0, len(linked))
	for name := range linked {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%-40s %s\n", name, linked[name])
	}
	return nil
}
