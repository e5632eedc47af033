// SPDX-License-Identifier: MPL-2.0

// Package config resolves the bootstrapper configuration: which runtime
// distribution to provision, how to bootstrap pip, which dashboard
// dependencies to install, and which entry script to launch.
//
// Download URLs, the package list, and the path-configuration filename
// all live here as an explicit, injectable Config so tests can point
// the provisioner at fixture servers without touching stage logic.
//
// Precedence, lowest to highest: built-in defaults, an optional
// config.cue file in the tool root (validated against the embedded CUE
// schema), DASHSTRAP_* environment variables, and the --config flag.
package config
