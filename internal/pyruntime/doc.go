// SPDX-License-Identifier: MPL-2.0

// Package pyruntime provisions the private Python runtime under the tool
// root.
//
// Provisioning is cache-shaped: the runtime directory is created once and
// reused forever unless manually deleted. Existence of the interpreter
// executable is the sole "already provisioned" signal; no version or
// integrity check is performed on a cache hit. An optional SHA-256 digest
// in the configuration verifies fresh downloads only.
//
// The download and unpack paths mirror the upgrade flow this tool family
// uses for its own binaries: stream to a temp file in the destination
// filesystem, verify, unpack with size-limited readers, clean up the
// temp file regardless of outcome.
package pyruntime
