// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive unpacks uploaded project archives into a scratch
// directory and scans the result for script-like source files. It is
// the input side of the explorer pipeline: everything downstream works
// on the relative paths this package produces.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedArchive is returned for formats other than .zip
	// and .tar.gz.
	ErrUnsupportedArchive = errors.New("unsupported archive format")

	// ErrArchiveTooLarge is returned when cumulative decompressed size
	// exceeds the configured limit.
	ErrArchiveTooLarge = errors.New("archive exceeds size limit")

	// ErrTooManyFiles is returned when the archive holds more entries
	// than the configured limit.
	ErrTooManyFiles = errors.New("archive exceeds file count limit")

	// ErrUnsafePath is returned for entries that would escape the
	// destination directory.
	ErrUnsafePath = errors.New("archive entry has unsafe path")
)

// UnpackLimits bounds what an uploaded archive may expand into.
type UnpackLimits struct {
	// MaxFiles is the maximum number of regular file entries.
	MaxFiles int

	// MaxTotalBytes is the maximum cumulative decompressed size.
	MaxTotalBytes int64

	// MaxFileBytes is the maximum size of any single entry.
	MaxFileBytes int64
}

// DefaultUnpackLimits returns limits sized for source trees, not media
// dumps.
func DefaultUnpackLimits() UnpackLimits {
	return UnpackLimits{
		MaxFiles:      20_000,
		MaxTotalBytes: 512 * 1024 * 1024,
		MaxFileBytes:  32 * 1024 * 1024,
	}
}

// Unpack extracts the archive at archivePath into destDir. The format
// is chosen by extension: .zip, .tar.gz, or .tgz. Entry paths are
// validated against destDir before any write, so a hostile archive
// cannot plant files outside it.
func Unpack(ctx context.Context, archivePath, destDir string, limits UnpackLimits) error {
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return unpackZip(ctx, archivePath, destDir, limits)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		return unpackTarGz(ctx, archivePath, destDir, limits)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(archivePath))
	}
}

// unpackZip extracts a zip archive.
func unpackZip(ctx context.Context, archivePath, destDir string, limits UnpackLimits) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	files := 0
	var total int64
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		files++
		if files > limits.MaxFiles {
			return fmt.Errorf("%w: limit %d", ErrTooManyFiles, limits.MaxFiles)
		}

		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		written, err := writeEntry(target, rc, limits.MaxFileBytes)
		rc.Close()
		if err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}

		total += written
		if total > limits.MaxTotalBytes {
			return fmt.Errorf("%w: limit %d bytes", ErrArchiveTooLarge, limits.MaxTotalBytes)
		}
	}
	return nil
}

// unpackTarGz extracts a gzip-compressed tarball.
func unpackTarGz(ctx context.Context, archivePath, destDir string, limits UnpackLimits) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening tarball: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	files := 0
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			// Symlinks, devices, and directories are skipped; only
			// regular files feed the scanner.
			continue
		}
		files++
		if files > limits.MaxFiles {
			return fmt.Errorf("%w: limit %d", ErrTooManyFiles, limits.MaxFiles)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}
		written, err := writeEntry(target, tr, limits.MaxFileBytes)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", header.Name, err)
		}

		total += written
		if total > limits.MaxTotalBytes {
			return fmt.Errorf("%w: limit %d bytes", ErrArchiveTooLarge, limits.MaxTotalBytes)
		}
	}
	return nil
}

// safeJoin joins name under destDir and rejects any result that
// escapes it.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(destDir, cleaned)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// writeEntry streams one entry to disk, bounded by maxBytes.
func writeEntry(target string, r io.Reader, maxBytes int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(r, maxBytes+1))
	if err != nil {
		return written, err
	}
	if written > maxBytes {
		return written, fmt.Errorf("%w: entry larger than %d bytes", ErrArchiveTooLarge, maxBytes)
	}
	return written, nil
}
