// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrProvision is the sentinel error wrapped by ProvisionError.
	ErrProvision = errors.New("runtime provisioning failed")

	// ErrChecksumMismatch indicates the downloaded archive does not match
	// the configured SHA-256 digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

type (
	// ProvisionError is returned when the runtime could not be downloaded
	// or unpacked. It wraps ErrProvision for errors.Is classification.
	ProvisionError struct {
		URL   string
		Cause error
	}

	// Provisioner ensures the private runtime exists under the tool root,
	// downloading and unpacking the fixed distribution archive on a cache
	// miss. All failures are fatal; there is no retry or fallback mirror.
	Provisioner struct {
		layout  Layout
		url     string // resolved distribution archive URL
		sha256  string // optional expected digest, empty = no verification
		fetcher *Fetcher
		logger  *log.Logger
	}

	// ProvisionerOption configures a Provisioner during construction.
	ProvisionerOption func(*Provisioner)
)

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning runtime from %s: %v", redactURL(e.URL), e.Cause)
}

// Unwrap returns ErrProvision so callers can use errors.Is.
func (e *ProvisionError) Unwrap() error { return ErrProvision }

// WithFetcher overrides the default Fetcher.
func WithFetcher(f *Fetcher) ProvisionerOption {
	return func(p *Provisioner) {
		p.fetcher = f
	}
}

// WithArchiveSHA256 enables digest verification of fresh downloads.
func WithArchiveSHA256(hexDigest string) ProvisionerOption {
	return func(p *Provisioner) {
		p.sha256 = hexDigest
	}
}

// NewProvisioner creates a Provisioner for the given layout. An empty
// archiveURL selects the platform default for layout.Version.
func NewProvisioner(layout Layout, archiveURL string, logger *log.Logger, opts ...ProvisionerOption) *Provisioner {
	if archiveURL == "" {
		archiveURL = DefaultDistributionURL(layout.Version, layout.GOOS, runtime.GOARCH)
	}
	p := &Provisioner{
		layout:  layout,
		url:     archiveURL,
		fetcher: NewFetcher(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure returns the runtime interpreter path, provisioning it first if
// the executable is absent. A present executable is trusted as-is: no
// hash or version check on the cached runtime.
func (p *Provisioner) Ensure(ctx context.Context) (string, error) {
	interp := p.layout.Interpreter()
	if fileExists(interp) {
		p.logger.Debug("runtime already provisioned", "interpreter", interp)
		return interp, nil
	}

	p.logger.Info("provisioning runtime", "version", p.layout.Version, "url", redactURL(p.url))

	archivePath, err := p.fetcher.FetchToFile(ctx, p.url, p.layout.ToolRoot, archivePattern(p.url))
	if err != nil {
		return "", &ProvisionError{URL: p.url, Cause: err}
	}
	// The temp archive is transient state, removed on success and failure
	// alike so an aborted run never leaves a partial download behind.
	defer func() { _ = os.Remove(archivePath) }()

	if p.sha256 != "" {
		if err := verifyFileSHA256(archivePath, p.sha256); err != nil {
			return "", &ProvisionError{URL: p.url, Cause: err}
		}
	}

	runtimeDir := p.layout.RuntimeDir()
	if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
		return "", &ProvisionError{URL: p.url, Cause: fmt.Errorf("creating runtime directory: %w", err)}
	}

	if err := Unpack(archivePath, runtimeDir); err != nil {
		return "", &ProvisionError{URL: p.url, Cause: err}
	}

	if !fileExists(interp) {
		return "", &ProvisionError{
			URL:   p.url,
			Cause: fmt.Errorf("archive unpacked but interpreter %s is missing", interp),
		}
	}

	p.logger.Info("runtime provisioned", "interpreter", interp)
	return interp, nil
}

// archivePattern builds an os.CreateTemp pattern that preserves the
// archive's extension, which Unpack dispatches on.
func archivePattern(rawURL string) string {
	base := filepath.Base(rawURL)
	switch {
	case strings.HasSuffix(base, ".tar.gz"):
		return "dashstrap-runtime-*.tar.gz"
	case strings.HasSuffix(base, ".tgz"):
		return "dashstrap-runtime-*.tgz"
	default:
		return "dashstrap-runtime-*.zip"
	}
}

// verifyFileSHA256 computes the file's SHA-256 digest and compares it to
// the expected lowercase hex value.
func verifyFileSHA256(path, expected string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive for verification: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hashing archive: %w", err)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, expected) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, got)
	}
	return nil
}

// fileExists reports whether path names an existing file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
