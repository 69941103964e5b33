// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "strings"

// resolveSuffixes is the probe order for relative specifiers. Order
// matters: an exact path wins over extension guesses, and script
// extensions win over index files.
var resolveSuffixes = []string{
	"",
	".js",
	".jsx",
	".ts",
	".tsx",
	".json",
	"/index.js",
	"/index.ts",
}

// importResolver maps raw import specifiers to project file paths. It
// is built once per build from the full path set and is immutable
// afterwards.
//
// Resolution is heuristic. The resolver never consults disk or any
// package manifest; it only matches against the uploaded paths, so a
// bare specifier like "react" resolves only if the project vendors a
// file whose path mentions it.
type importResolver struct {
	// sortedPaths is every file path in lexicographic order. "First
	// match" for bare specifiers is defined by this order so results
	// are reproducible.
	sortedPaths []string
	pathSet     map[string]struct{}
}

// newImportResolver builds a resolver over paths, which must already
// be sorted lexicographically.
func newImportResolver(sortedPaths []string) *importResolver {
	set := make(map[string]struct{}, len(sortedPaths))
	for _, p := range sortedPaths {
		set[p] = struct{}{}
	}
	return &importResolver{sortedPaths: sortedPaths, pathSet: set}
}

// Resolve maps specifier, written in the file at sourcePath, to a
// project path. The second return is false when no uploaded file
// matched; in that case the returned string is a best-guess path for
// relative specifiers (normalized plus ".js") and empty for bare
// specifiers. Callers drop edges for unresolved results.
func (r *importResolver) Resolve(specifier, sourcePath string) (string, bool) {
	if specifier == "" {
		return "", false
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".." {
		return r.resolveRelative(specifier, sourcePath)
	}
	return r.resolveBare(specifier)
}

// resolveRelative normalizes the specifier against the directory of
// sourcePath, then probes resolveSuffixes in order. When nothing
// matches it returns the normalized path with ".js" appended and
// false, preserving a plausible target for diagnostics.
func (r *importResolver) resolveRelative(specifier, sourcePath string) (string, bool) {
	base := normalizeRelative(specifier, sourcePath)
	for _, suffix := range resolveSuffixes {
		candidate := base + suffix
		if _, ok := r.pathSet[candidate]; ok {
			return candidate, true
		}
	}
	return base + ".js", false
}

// resolveBare matches a package-style specifier against the uploaded
// paths: any path containing the specifier, or ending in a
// conventional module layout for it. First match in sorted order wins.
func (r *importResolver) resolveBare(specifier string) (string, bool) {
	suffixes := []string{
		"/" + specifier + ".js",
		"/" + specifier + ".ts",
		"/" + specifier + "/index.js",
		"/" + specifier + "/index.ts",
	}
	for _, p := range r.sortedPaths {
		if strings.Contains(p, specifier) {
			return p, true
		}
		for _, s := range suffixes {
			if strings.HasSuffix(p, s) {
				return p, true
			}
		}
	}
	return "", false
}

// normalizeRelative applies "." / ".." segment semantics to specifier
// relative to the directory containing sourcePath. The result is a
// forward-slash path with no dot segments and no extension probing
// applied yet.
func normalizeRelative(specifier, sourcePath string) string {
	var stack []string
	if i := strings.LastIndexByte(sourcePath, '/'); i >= 0 {
		for _, seg := range strings.Split(sourcePath[:i], "/") {
			if seg != "" {
				stack = append(stack, seg)
			}
		}
	}
	for _, seg := range strings.Split(specifier, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return strings.Join(stack, "/")
}
