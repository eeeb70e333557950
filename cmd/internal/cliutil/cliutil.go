/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cliutil turns the root command's persistent flags into a
// resolution session.
package cliutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"expo.dev/metroresolve/config"
	"expo.dev/metroresolve/importstack"
	"expo.dev/metroresolve/resolution"
	"expo.dev/metroresolve/session"
)

var environments = []string{
	resolution.EnvironmentClient,
	resolution.EnvironmentNode,
	resolution.EnvironmentReactServer,
}

// Target is the platform and environment selected on the command line.
type Target struct {
	Platform    resolution.Platform
	Environment string
}

// TargetFlags reads --platform and --environment.
func TargetFlags(cmd *cobra.Command) (Target, error) {
	platformFlag, err := cmd.Flags().GetString("platform")
	if err != nil {
		return Target{}, fmt.Errorf("error reading platform flag: %w", err)
	}
	envFlag, err := cmd.Flags().GetString("environment")
	if err != nil {
		return Target{}, fmt.Errorf("error reading environment flag: %w", err)
	}

	platform, ok := resolution.ParsePlatform(platformFlag)
	if !ok {
		return Target{}, fmt.Errorf("invalid platform: %s", platformFlag)
	}
	if !slices.Contains(environments, envFlag) {
		return Target{}, fmt.Errorf("invalid environment: %s", envFlag)
	}
	return Target{Platform: platform, Environment: envFlag}, nil
}

// Root returns the absolute project root from --root or the working directory.
func Root(cmd *cobra.Command) (string, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return "", fmt.Errorf("error reading root flag: %w", err)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// Flags reads the feature flags, letting --no-color and --fast-resolver
// override the environment when given.
func Flags(cmd *cobra.Command) (config.Flags, error) {
	v := viper.New()
	bindings := []struct{ key, flag string }{
		{config.KeyNoColor, "no-color"},
		{config.KeyFastResolver, "fast-resolver"},
	}
	for _, b := range bindings {
		f := cmd.Flags().Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return config.Flags{}, fmt.Errorf("error binding %s flag: %w", b.flag, err)
		}
	}
	return config.LoadFlags(v), nil
}

// OpenSession creates a session for the command's project root.
func OpenSession(cmd *cobra.Command) (*session.Session, config.Flags, error) {
	root, err := Root(cmd)
	if err != nil {
		return nil, config.Flags{}, err
	}
	flags, err := Flags(cmd)
	if err != nil {
		return nil, config.Flags{}, err
	}
	s, err := session.New(session.Options{ProjectRoot: root, Flags: flags})
	if err != nil {
		return nil, flags, err
	}
	return s, flags, nil
}

// PrintError writes a resolution error with its import stack, unstyled when
// noColor is set.
func PrintError(w io.Writer, err error, noColor bool) {
	fmt.Fprintf(w, "Error: %v\n", err)
	resErr, ok := resolution.AsError(err)
	if !ok || resErr.ImportStack == "" {
		return
	}
	stack := resErr.ImportStack
	if noColor {
		stack = importstack.StripANSI(stack)
	}
	fmt.Fprintf(w, "\n%s", stack)
}
