// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip builds a zip archive from a name -> content map.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

// writeTarGz builds a .tar.gz archive from a name -> content map.
func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestUnpackZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "project.zip")
	writeZip(t, archivePath, map[string]string{
		"src/a.js": "function foo() {}",
		"README":   "hello",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Unpack(context.Background(), archivePath, dest, DefaultUnpackLimits()))

	content, err := os.ReadFile(filepath.Join(dest, "src", "a.js"))
	require.NoError(t, err)
	assert.Equal(t, "function foo() {}", string(content))
}

func TestUnpackTarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "project.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"src/b.ts": "export function bar() {}",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Unpack(context.Background(), archivePath, dest, DefaultUnpackLimits()))

	content, err := os.ReadFile(filepath.Join(dest, "src", "b.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export function bar() {}", string(content))
}

func TestUnpackRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../escape.js": "nope",
	})

	err := Unpack(context.Background(), archivePath, filepath.Join(dir, "out"), DefaultUnpackLimits())
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestUnpackEnforcesLimits(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "many.zip")
	writeZip(t, archivePath, map[string]string{
		"a.js": "1",
		"b.js": "2",
		"c.js": "3",
	})

	limits := DefaultUnpackLimits()
	limits.MaxFiles = 2
	err := Unpack(context.Background(), archivePath, filepath.Join(dir, "out"), limits)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestUnpackUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "project.rar")
	require.NoError(t, os.WriteFile(archivePath, []byte("junk"), 0o644))

	err := Unpack(context.Background(), archivePath, filepath.Join(dir, "out"), DefaultUnpackLimits())
	assert.ErrorIs(t, err, ErrUnsupportedArchive)
}

func TestScanFindsScriptFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	mustWrite("src/a.js", "function a() {}")
	mustWrite("src/b.tsx", "export const B = () => null;")
	mustWrite("docs/readme.md", "# nope")
	mustWrite("node_modules/lib/index.js", "skip me")
	mustWrite(".git/config", "skip me")

	files, err := Scan(context.Background(), root)
	require.NoError(t, err)

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.Equal(t, []string{"src/a.js", "src/b.tsx"}, rels, "sorted, filtered scan")
}

func TestScanHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor/\nignored.js\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "v.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept.js"), []byte("x"), 0o644))

	files, err := Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "kept.js", files[0].RelPath)
}
