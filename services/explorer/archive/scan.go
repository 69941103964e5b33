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
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs are directory names never worth scanning regardless of
// gitignore rules.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".next":        {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
	"__pycache__":  {},
}

// scriptExtensions are the extensions the explorer treats as
// script-like and feeds to extraction.
var scriptExtensions = map[string]struct{}{
	".js":     {},
	".jsx":    {},
	".mjs":    {},
	".cjs":    {},
	".ts":     {},
	".tsx":    {},
	".mts":    {},
	".cts":    {},
	".vue":    {},
	".svelte": {},
}

// ScannedFile is one source file found under the project root.
type ScannedFile struct {
	// RelPath is the forward-slash path relative to the root; this is
	// the path identity used everywhere downstream.
	RelPath string

	// AbsPath locates the file on disk for reading.
	AbsPath string

	// Size in bytes.
	Size int64
}

// Scan walks root and returns every script-like file, honoring the
// project's top-level .gitignore when present. Results are sorted by
// RelPath so path identity and resolver "first match" order are stable
// across runs.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	matcher := loadGitignore(root)

	var files []ScannedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree; skip rather than abort the scan.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := scriptExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		files = append(files, ScannedFile{
			RelPath: rel,
			AbsPath: path,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// loadGitignore compiles the root .gitignore if one exists.
func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return matcher
}
