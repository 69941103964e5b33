// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionNames(rec *SourceRecord) []string {
	names := make([]string, 0, len(rec.Functions))
	for _, f := range rec.Functions {
		names = append(names, f.Name)
	}
	return names
}

func importSpecifiers(rec *SourceRecord) []string {
	specs := make([]string, 0, len(rec.Imports))
	for _, i := range rec.Imports {
		specs = append(specs, i.Specifier)
	}
	return specs
}

func callNames(rec *SourceRecord) []string {
	names := make([]string, 0, len(rec.Calls))
	for _, c := range rec.Calls {
		names = append(names, c.Callee)
	}
	return names
}

func TestJavaScriptExtractor(t *testing.T) {
	source := `import util from './util';
const fmt = require('./fmt');

function greet(name) {
  return fmt.pad(name);
}

const shout = (name) => {
  return greet(name).toUpperCase();
};
`
	rec, err := NewJavaScriptExtractor().Extract(context.Background(), "src/a.js", []byte(source))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "src/a.js", rec.Path)
	assert.Equal(t, "javascript", rec.Language)

	assert.Contains(t, functionNames(rec), "greet")
	assert.Contains(t, functionNames(rec), "shout")

	specs := importSpecifiers(rec)
	assert.Contains(t, specs, "./util")
	assert.Contains(t, specs, "./fmt")

	calls := callNames(rec)
	assert.Contains(t, calls, "pad", "member call records final property name")
	assert.Contains(t, calls, "greet")
	assert.NotContains(t, calls, "require", "require is an import, not a call")

	for _, f := range rec.Functions {
		if f.Name == "greet" {
			assert.Equal(t, 4, f.Line)
			assert.Equal(t, FunctionKindDeclaration, f.Kind)
		}
		if f.Name == "shout" {
			assert.Equal(t, FunctionKindArrow, f.Kind)
		}
	}
}

func TestJavaScriptExtractorClassMethods(t *testing.T) {
	source := `class Greeter {
  greet(name) {
    return name;
  }
}
`
	rec, err := NewJavaScriptExtractor().Extract(context.Background(), "src/c.js", []byte(source))
	require.NoError(t, err)

	names := functionNames(rec)
	assert.Contains(t, names, "greet")
}

func TestJavaScriptExtractorBrokenSourceStillRecords(t *testing.T) {
	// tree-sitter is error tolerant; a half-written file still yields
	// whatever declarations parse.
	source := "function ok() {}\nfunction broken( {\n"
	rec, err := NewJavaScriptExtractor().Extract(context.Background(), "src/b.js", []byte(source))
	require.NoError(t, err)
	assert.Contains(t, functionNames(rec), "ok")
}

func TestJavaScriptExtractorLimits(t *testing.T) {
	e := NewJavaScriptExtractor(WithMaxFileSize(8))
	_, err := e.Extract(context.Background(), "big.js", []byte("function f() {}"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = NewJavaScriptExtractor().Extract(context.Background(), "bad.js", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrInvalidContent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewJavaScriptExtractor().Extract(ctx, "c.js", []byte("function f() {}"))
	assert.Error(t, err)
}

func TestTypeScriptExtractor(t *testing.T) {
	source := `import { pad } from './fmt';

export function greet(name: string): string {
  return pad(name);
}
`
	rec, err := NewTypeScriptExtractor().Extract(context.Background(), "src/a.ts", []byte(source))
	require.NoError(t, err)

	assert.Equal(t, "typescript", rec.Language)
	assert.Contains(t, functionNames(rec), "greet")
	assert.Contains(t, importSpecifiers(rec), "./fmt")
	assert.Contains(t, callNames(rec), "pad")
}

func TestPatternExtractor(t *testing.T) {
	source := `import header from './header';
const util = require('./util');

function render(data) {
  return format(data);
}

const helper = (x) => process(x);
`
	rec, err := NewPatternExtractor().Extract(context.Background(), "legacy.vue", []byte(source))
	require.NoError(t, err)

	names := functionNames(rec)
	assert.Contains(t, names, "render")
	assert.Contains(t, names, "helper")

	specs := importSpecifiers(rec)
	assert.Contains(t, specs, "./header")
	assert.Contains(t, specs, "./util")

	calls := callNames(rec)
	assert.Contains(t, calls, "format")
	assert.Contains(t, calls, "process")
	assert.NotContains(t, calls, "render", "declaration line must not record a self call")
	assert.NotContains(t, calls, "require")
}

func TestPatternExtractorIgnoresKeywords(t *testing.T) {
	source := "if (x) {\n  while (y) {\n    doWork();\n  }\n}\n"
	rec, err := NewPatternExtractor().Extract(context.Background(), "k.js", []byte(source))
	require.NoError(t, err)

	calls := callNames(rec)
	assert.Equal(t, []string{"doWork"}, calls)
}

func TestRegistryRouting(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		path string
		lang string
	}{
		{"a.js", "javascript"},
		{"a.jsx", "javascript"},
		{"a.mjs", "javascript"},
		{"a.ts", "typescript"},
		{"a.tsx", "typescript"},
		{"a.vue", "pattern"},
	}
	for _, tt := range tests {
		e, err := r.ForPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.lang, e.Language(), tt.path)
	}
}

func TestRegistryNoFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(NewJavaScriptExtractor())

	_, err := r.ForPath("a.py")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestExtractFileRoutes(t *testing.T) {
	r := DefaultRegistry()
	rec, err := r.ExtractFile(context.Background(), "a.js", []byte("function f() {}"))
	require.NoError(t, err)
	assert.Equal(t, "javascript", rec.Language)
	require.True(t, strings.HasSuffix(rec.Path, "a.js"))
}
