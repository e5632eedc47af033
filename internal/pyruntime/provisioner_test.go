// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// testDistribution builds an in-memory install_only style tarball whose
// interpreter is a real shell script, plus an httptest server serving it
// and a counter of download requests.
func testDistribution(t *testing.T) (url string, downloads *atomic.Int64) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "python/bin/python3",
		Mode:     0o755,
		Size:     int64(len(script)),
		Typeflag: tar.TypeReg,
	}))
	_, err := io.WriteString(tw, script)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	archive := buf.Bytes()

	downloads = &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	return srv.URL + "/cpython-test.tar.gz", downloads
}

func testLayout(t *testing.T) Layout {
	t.Helper()
	return Layout{
		ToolRoot:       t.TempDir(),
		RuntimeDirName: "python-runtime",
		Version:        "3.11.9",
		GOOS:           "linux",
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestEnsureFreshRootDownloadsAndUnpacks(t *testing.T) {
	url, downloads := testDistribution(t)
	layout := testLayout(t)

	p := NewProvisioner(layout, url, testLogger())
	interp, err := p.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, layout.Interpreter(), interp)
	require.EqualValues(t, 1, downloads.Load())

	// The transient archive must be gone from the tool root.
	entries, err := os.ReadDir(layout.ToolRoot)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), "dashstrap-runtime-")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	url, downloads := testDistribution(t)
	layout := testLayout(t)
	p := NewProvisioner(layout, url, testLogger())

	_, err := p.Ensure(context.Background())
	require.NoError(t, err)
	_, err = p.Ensure(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 1, downloads.Load(), "second run must not download")
}

func TestEnsureExistingInterpreterSuppressesDownload(t *testing.T) {
	url, downloads := testDistribution(t)
	layout := testLayout(t)

	// Even an empty stub file at the expected path counts as provisioned:
	// existence is the sole signal.
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.Interpreter()), 0o755))
	require.NoError(t, os.WriteFile(layout.Interpreter(), nil, 0o755))

	p := NewProvisioner(layout, url, testLogger())
	interp, err := p.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, layout.Interpreter(), interp)
	require.Zero(t, downloads.Load())
}

func TestEnsureDownloadFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	layout := testLayout(t)
	p := NewProvisioner(layout, srv.URL+"/cpython-test.tar.gz", testLogger())

	_, err := p.Ensure(context.Background())
	require.True(t, errors.Is(err, ErrProvision))

	var provErr *ProvisionError
	require.True(t, errors.As(err, &provErr))
}

func TestEnsureChecksumMismatchIsFatal(t *testing.T) {
	url, _ := testDistribution(t)
	layout := testLayout(t)

	p := NewProvisioner(layout, url, testLogger(),
		WithArchiveSHA256("deadbeef"))

	_, err := p.Ensure(context.Background())
	require.True(t, errors.Is(err, ErrProvision))
	require.True(t, errors.Is(err, ErrChecksumMismatch))

	// A failed verification must not leave the temp archive behind.
	entries, err2 := os.ReadDir(layout.ToolRoot)
	require.NoError(t, err2)
	for _, e := range entries {
		require.NotContains(t, e.Name(), "dashstrap-runtime-")
	}
}

func TestEnsureChecksumMatchSucceeds(t *testing.T) {
	// Serve a fixed archive so the digest is stable across requests.
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "python/bin/python3", Mode: 0o755, Size: int64(len(script)), Typeflag: tar.TypeReg,
	}))
	_, err := io.WriteString(tw, script)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	archive := buf.Bytes()

	digest := sha256.Sum256(archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	layout := testLayout(t)
	p := NewProvisioner(layout, srv.URL+"/cpython-test.tar.gz", testLogger(),
		WithArchiveSHA256(hex.EncodeToString(digest[:])))

	interp, err := p.Ensure(context.Background())
	require.NoError(t, err)
	require.FileExists(t, interp)
}
