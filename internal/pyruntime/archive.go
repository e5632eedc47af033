// SPDX-License-Identifier: MPL-2.0

package pyruntime

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntryBytes is the upper bound on a single extracted file (1 GB).
// Prevents decompression bombs in a hostile archive.
const maxEntryBytes = 1 << 30

// ErrUnsupportedArchive is returned when the archive extension is not
// recognized.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

// installOnlyTopDir is the single top-level directory python-build-standalone
// install_only tarballs wrap their tree in. It is stripped on extraction so
// the runtime lands directly in the runtime directory.
const installOnlyTopDir = "python"

// Unpack extracts the archive at archivePath into destDir, dispatching on
// the file extension. Supported formats: .zip (the python.org embeddable
// distribution) and .tar.gz/.tgz (python-build-standalone tarballs).
func Unpack(archivePath, destDir string) error {
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return unpackZip(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		return unpackTarGz(archivePath, destDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(archivePath))
	}
}

// unpackZip extracts a zip archive. The embeddable distribution is flat,
// so entries are written relative to destDir as-is.
func unpackZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = r.Close() }() // read-only archive handle

	for _, f := range r.File {
		rel, err := sanitizeEntryName(f.Name)
		if err != nil {
			return err
		}
		if rel == "" {
			continue
		}
		target := filepath.Join(destDir, rel)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", rel, err)
			}
			continue
		}

		if err := writeZipEntry(f, target); err != nil {
			return err
		}
	}

	return nil
}

// writeZipEntry extracts a single regular file from the zip archive.
func writeZipEntry(f *zip.File, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }() // read-only entry handle

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(dst, io.LimitReader(src, maxEntryBytes)); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return nil
}

// unpackTarGz extracts a gzipped tarball. A leading "python/" path
// component (the install_only layout) is stripped so bin/python3 lands
// directly under destDir.
func unpackTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only archive handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		rel, err := sanitizeEntryName(hdr.Name)
		if err != nil {
			return err
		}
		rel = stripTopDir(rel, installOnlyTopDir)
		if rel == "" {
			continue
		}
		target := filepath.Join(destDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeTarEntry(tr, hdr, target); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// install_only tarballs use relative symlinks (python3 ->
			// python3.11). Reject anything that would escape destDir.
			if filepath.IsAbs(hdr.Linkname) || strings.Contains(hdr.Linkname, "..") {
				return fmt.Errorf("unsafe symlink %s -> %s in archive", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", rel, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s: %w", rel, err)
			}
		default:
			// Hard links, devices, FIFOs: nothing a runtime distribution
			// legitimately contains.
		}
	}

	return nil
}

// writeTarEntry extracts a single regular file from the tar stream.
func writeTarEntry(tr *tar.Reader, hdr *tar.Header, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", hdr.Name, err)
	}

	mode := os.FileMode(hdr.Mode).Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(dst, io.LimitReader(tr, maxEntryBytes)); err != nil {
		return fmt.Errorf("extracting %s: %w", hdr.Name, err)
	}
	return nil
}

// sanitizeEntryName normalizes an archive entry name and rejects absolute
// paths and parent-directory traversal. Returns "" for entries that
// resolve to the destination root itself.
func sanitizeEntryName(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." {
		return "", nil
	}
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("unsafe path %q in archive", name)
	}
	return clean, nil
}

// stripTopDir removes a single leading path component when it equals top.
func stripTopDir(rel, top string) string {
	if rel == top {
		return ""
	}
	prefix := top + string(filepath.Separator)
	return strings.TrimPrefix(rel, prefix)
}
