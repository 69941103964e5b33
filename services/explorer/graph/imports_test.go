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

import (
	"sort"
	"testing"
)

func resolverOver(paths ...string) *importResolver {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	return newImportResolver(sorted)
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name       string
		specifier  string
		sourcePath string
		paths      []string
		want       string
		wantOK     bool
	}{
		{
			name:       "exact path",
			specifier:  "./util.js",
			sourcePath: "src/a.js",
			paths:      []string{"src/a.js", "src/util.js"},
			want:       "src/util.js",
			wantOK:     true,
		},
		{
			name:       "js extension appended",
			specifier:  "./util",
			sourcePath: "src/a.js",
			paths:      []string{"src/a.js", "src/util.js"},
			want:       "src/util.js",
			wantOK:     true,
		},
		{
			name:       "ts extension appended",
			specifier:  "./util",
			sourcePath: "src/a.ts",
			paths:      []string{"src/a.ts", "src/util.ts"},
			want:       "src/util.ts",
			wantOK:     true,
		},
		{
			name:       "index file",
			specifier:  "./lib",
			sourcePath: "src/a.js",
			paths:      []string{"src/a.js", "src/lib/index.js"},
			want:       "src/lib/index.js",
			wantOK:     true,
		},
		{
			name:       "parent directory",
			specifier:  "../shared/fmt",
			sourcePath: "src/deep/a.js",
			paths:      []string{"src/deep/a.js", "src/shared/fmt.js"},
			want:       "src/shared/fmt.js",
			wantOK:     true,
		},
		{
			name:       "no match returns js guess",
			specifier:  "./missing",
			sourcePath: "src/a.js",
			paths:      []string{"src/a.js"},
			want:       "src/missing.js",
			wantOK:     false,
		},
		{
			name:       "js wins over index when both exist",
			specifier:  "./lib",
			sourcePath: "src/a.js",
			paths:      []string{"src/a.js", "src/lib.js", "src/lib/index.js"},
			want:       "src/lib.js",
			wantOK:     true,
		},
		{
			name:       "dotdot past root stops at root",
			specifier:  "../../x",
			sourcePath: "a.js",
			paths:      []string{"a.js", "x.js"},
			want:       "x.js",
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolverOver(tt.paths...).Resolve(tt.specifier, tt.sourcePath)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q, %q) = (%q, %v), want (%q, %v)",
					tt.specifier, tt.sourcePath, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveBare(t *testing.T) {
	tests := []struct {
		name      string
		specifier string
		paths     []string
		want      string
		wantOK    bool
	}{
		{
			name:      "substring match",
			specifier: "parser",
			paths:     []string{"lib/parser.js", "src/main.js"},
			want:      "lib/parser.js",
			wantOK:    true,
		},
		{
			name:      "first match in sorted order",
			specifier: "util",
			paths:     []string{"z/util.js", "a/util.js"},
			want:      "a/util.js",
			wantOK:    true,
		},
		{
			name:      "no match",
			specifier: "react",
			paths:     []string{"src/main.js"},
			want:      "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolverOver(tt.paths...).Resolve(tt.specifier, "src/main.js")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)",
					tt.specifier, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := resolverOver("a/util.js", "b/util.js", "src/main.js")
	first, ok1 := r.Resolve("util", "src/main.js")
	second, ok2 := r.Resolve("util", "src/main.js")
	if first != second || ok1 != ok2 {
		t.Errorf("resolution not deterministic: %q vs %q", first, second)
	}
}

func TestNormalizeRelative(t *testing.T) {
	tests := []struct {
		specifier  string
		sourcePath string
		want       string
	}{
		{"./b", "a.js", "b"},
		{"./b", "src/a.js", "src/b"},
		{"../b", "src/a.js", "b"},
		{"../lib/./x", "src/deep/a.js", "src/lib/x"},
		{"./x/../y", "src/a.js", "src/y"},
	}

	for _, tt := range tests {
		if got := normalizeRelative(tt.specifier, tt.sourcePath); got != tt.want {
			t.Errorf("normalizeRelative(%q, %q) = %q, want %q",
				tt.specifier, tt.sourcePath, got, tt.want)
		}
	}
}
