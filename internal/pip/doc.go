// SPDX-License-Identifier: MPL-2.0

// Package pip activates and drives the runtime's package manager.
//
// Embeddable runtime distributions ship with library lookup disabled: a
// path-configuration file (python311._pth) lists the search paths and
// comments out the "import site" entry that enables site-packages
// discovery. Until that line is flipped, pip appears to install packages
// the interpreter can never find. The activation step therefore re-runs
// on every invocation: the patch is idempotent, and a prior partial run
// or manual edit may have left the file disabled.
//
// Pip itself is bootstrapped with the standard get-pip.py script and then
// driven one package at a time, in list order, with "install --upgrade"
// semantics so an already-current package is a safe no-op.
package pip
