/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the feature flag environment variables.
const EnvPrefix = "EXPO"

// Flag keys. With the prefix they read EXPO_USE_FAST_RESOLVER and so on.
const (
	KeyFastResolver   = "use_fast_resolver"
	KeyErrorReporting = "use_metro_error_reporting"
	KeyNoColor        = "no_color"
)

// Flags are the environment feature flags of a run.
type Flags struct {
	// FastResolver selects the fast filesystem resolver as the chain base.
	FastResolver bool
	// ErrorReporting attaches import stacks to not-found errors.
	ErrorReporting bool
	// NoColor disables terminal styling.
	NoColor bool
}

// LoadFlags reads the feature flags once. Values already set on v, such as
// bound CLI flags, take precedence over the environment.
func LoadFlags(v *viper.Viper) Flags {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFastResolver, true)
	v.SetDefault(KeyErrorReporting, true)
	v.SetDefault(KeyNoColor, false)

	return Flags{
		FastResolver:   v.GetBool(KeyFastResolver),
		ErrorReporting: v.GetBool(KeyErrorReporting),
		NoColor:        v.GetBool(KeyNoColor),
	}
}
