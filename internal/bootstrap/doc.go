// SPDX-License-Identifier: MPL-2.0

// Package bootstrap sequences the four provisioning stages: runtime,
// package-manager activation, dependency install, application launch.
//
// Control flows strictly top to bottom; each stage is a precondition for
// the next. Stage failures in provisioning and activation abort the run,
// the install loop is best-effort by default, and the launch stage's exit
// code is the bootstrapper's own. The stages sit behind narrow interfaces
// so the sequencing can be tested without network or real interpreters.
package bootstrap
