/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package extensions provides the extensions command for metroresolve.
package extensions

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"expo.dev/metroresolve/cmd/internal/cliutil"
)

// Cmd is the extensions cobra command.
var Cmd = &cobra.Command{
	Use:   "extensions",
	Short: "Print the negotiated source extensions for a platform",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	target, err := cliutil.TargetFlags(cmd)
	if err != nil {
		return err
	}
	s, _, err := cliutil.OpenSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(s.Extensions(target.Platform), " "))
	return nil
}
