// SPDX-License-Identifier: MPL-2.0

// Package launch starts the target dashboard application with the
// provisioned Python runtime and propagates its exit status.
//
// The launcher inherits the parent's stdin/stdout/stderr so interactive
// output (including the local URL the dashboard prints once it is
// listening) reaches the operator directly. Run blocks until the child
// exits and reports the child's exit code verbatim.
package launch
