/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package cliutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expo.dev/metroresolve/resolution"
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("root", "", "")
	cmd.Flags().String("platform", "ios", "")
	cmd.Flags().String("environment", "client", "")
	cmd.Flags().Bool("no-color", false, "")
	cmd.Flags().Bool("fast-resolver", true, "")
	return cmd
}

func TestFlagsPrecedence(t *testing.T) {
	t.Setenv("EXPO_NO_COLOR", "true")
	t.Setenv("EXPO_USE_FAST_RESOLVER", "false")

	cmd := newCommand()
	flags, err := Flags(cmd)
	require.NoError(t, err)
	assert.True(t, flags.NoColor, "environment applies when the flag is unset")
	assert.False(t, flags.FastResolver)

	require.NoError(t, cmd.Flags().Set("fast-resolver", "true"))
	flags, err = Flags(cmd)
	require.NoError(t, err)
	assert.True(t, flags.FastResolver, "an explicit flag wins")
	assert.True(t, flags.NoColor)
}

func TestTargetFlags(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("platform", "web"))
	require.NoError(t, cmd.Flags().Set("environment", "react-server"))

	target, err := TargetFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, Target{Platform: resolution.PlatformWeb, Environment: resolution.EnvironmentReactServer}, target)

	_, err = TargetFlags(&cobra.Command{Use: "bare"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading platform flag")
}

func TestRoot(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("root", "/tmp/../srv/app"))
	root, err := Root(cmd)
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", root)

	_, err = Root(&cobra.Command{Use: "bare"})
	assert.ErrorContains(t, err, "error reading root flag")
}
