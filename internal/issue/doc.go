// SPDX-License-Identifier: MPL-2.0

// Package issue builds user-facing errors for bootstrap failures.
//
// Stage failures (download errors, unpack errors, pip bootstrap errors)
// are technical but almost always have a short list of operator fixes:
// check the network, delete the runtime directory, rerun. ActionableError
// carries that list alongside the cause so the CLI can print a concise
// one-liner by default and a full diagnostic card in verbose mode.
package issue
