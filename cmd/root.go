/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for metroresolve.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"expo.dev/metroresolve/cmd/autolinking"
	"expo.dev/metroresolve/cmd/extensions"
	"expo.dev/metroresolve/cmd/graph"
	"expo.dev/metroresolve/cmd/resolve"
	"expo.dev/metroresolve/cmd/version"
	"expo.dev/metroresolve/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "metroresolve",
	Short: "Resolve React Native and web imports the way Expo's Metro does",
	Long: `metroresolve resolves import specifiers across ios, android, web and server
targets from one source tree, applying platform extensions, sticky singleton
packages, monorepo fallbacks and autolinked native modules.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return fmt.Errorf("error reading log-level flag: %w", err)
		}
		if !logger.SetLevel(level) {
			return fmt.Errorf("unknown log level %q", level)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("root", "r", "", "Project root (defaults to the working directory)")
	rootCmd.PersistentFlags().StringP("platform", "p", "ios", "Target platform (ios, android, web, none)")
	rootCmd.PersistentFlags().StringP("environment", "e", "client", "Bundle environment (client, node, react-server)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output (or set EXPO_NO_COLOR)")
	rootCmd.PersistentFlags().Bool("fast-resolver", true, "Use the fast filesystem resolver (or set EXPO_USE_FAST_RESOLVER)")

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(extensions.Cmd)
	rootCmd.AddCommand(graph.Cmd)
	rootCmd.AddCommand(autolinking.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
