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

import "sort"

// declaredFunction is one function declaration as seen by the call
// resolver: just enough identity to form a NodeID and order by line.
type declaredFunction struct {
	id   NodeID
	name string
	line int
}

// functionIndex answers the two questions the call pass asks: "where
// is a function with this name?" and "which function declaration in
// this file contains line L?". Built once per build, immutable after.
type functionIndex struct {
	// byFile holds each file's declarations sorted ascending by line.
	byFile map[string][]declaredFunction

	// byName holds, per function name, every declaration in a stable
	// global order: file path lexicographic, then line. "First match"
	// for cross-file resolution is defined by this order.
	byName map[string][]declaredFunction
}

// newFunctionIndex builds the index from per-file declarations. The
// files map may be in any order; the index imposes its own ordering.
func newFunctionIndex(files map[string][]declaredFunction) *functionIndex {
	idx := &functionIndex{
		byFile: make(map[string][]declaredFunction, len(files)),
		byName: make(map[string][]declaredFunction),
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		decls := make([]declaredFunction, len(files[path]))
		copy(decls, files[path])
		sort.SliceStable(decls, func(i, j int) bool { return decls[i].line < decls[j].line })
		idx.byFile[path] = decls
		for _, d := range decls {
			idx.byName[d.name] = append(idx.byName[d.name], d)
		}
	}
	return idx
}

// resolveCallee finds the target of a call to name made from
// sourcePath. Same-file declarations win; otherwise the first
// declaration of that name in the stable global order is used. The
// second return is false when no declaration of name exists anywhere.
//
// This favors local shadowing over global ambiguity but does not
// disambiguate multiple same-named globals beyond "first found".
func (idx *functionIndex) resolveCallee(name, sourcePath string) (declaredFunction, bool) {
	if name == "" {
		return declaredFunction{}, false
	}
	for _, d := range idx.byFile[sourcePath] {
		if d.name == name {
			return d, true
		}
	}
	for _, d := range idx.byName[name] {
		return d, true
	}
	return declaredFunction{}, false
}

// containingFunction picks the declaration in sourcePath that encloses
// call line L: the declaration with the greatest line <= L, treating
// the next declaration's line as an exclusive upper bound. If every
// declaration starts after L, the last declaration is used as a
// fallback so a file with at least one function always yields a
// caller. A file with zero declarations yields no caller.
func (idx *functionIndex) containingFunction(sourcePath string, line int) (declaredFunction, bool) {
	decls := idx.byFile[sourcePath]
	if len(decls) == 0 {
		return declaredFunction{}, false
	}

	// decls is sorted by line; binary search for the last decl whose
	// line is <= the call line.
	i := sort.Search(len(decls), func(i int) bool { return decls[i].line > line })
	if i == 0 {
		// Call precedes every declaration; attribute it to the last
		// declared function rather than dropping it.
		return decls[len(decls)-1], true
	}
	return decls[i-1], true
}
