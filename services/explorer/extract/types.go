// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract turns source files into the flat per-file records the
// graph builder consumes: declared functions, import references, and
// call sites. Extraction is lossy on purpose. Anything a parser cannot
// attribute (dynamic requires, computed member calls) is simply absent
// from the record, and the builder treats absence as "no edge".
//
// # Ownership Model
//
// SourceRecord and its slices are owned by the caller once returned.
// Extractors never retain references to returned records.
//
// # Thread Safety
//
// Extractor implementations must be safe for concurrent use; the
// explorer service extracts files from a worker pool.
package extract

import "context"

// FunctionKind classifies how a function was declared in source.
type FunctionKind int

const (
	// FunctionKindDeclaration is a standalone `function foo() {}`.
	FunctionKindDeclaration FunctionKind = iota

	// FunctionKindMethod is a method inside a class body.
	FunctionKindMethod

	// FunctionKindArrow is an arrow or function expression bound to a
	// name (`const foo = () => {}`).
	FunctionKindArrow
)

var functionKindNames = map[FunctionKind]string{
	FunctionKindDeclaration: "declaration",
	FunctionKindMethod:      "method",
	FunctionKindArrow:       "arrow",
}

// String returns the human-readable name of the function kind.
func (k FunctionKind) String() string {
	if name, ok := functionKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ImportKind distinguishes static import statements from require-style
// and dynamic imports.
type ImportKind int

const (
	// ImportKindStatic is an ES `import ... from "x"` statement.
	ImportKindStatic ImportKind = iota

	// ImportKindRequire is a CommonJS `require("x")` call.
	ImportKindRequire

	// ImportKindDynamic is a dynamic `import("x")` expression.
	ImportKindDynamic
)

var importKindNames = map[ImportKind]string{
	ImportKindStatic:  "static",
	ImportKindRequire: "require",
	ImportKindDynamic: "dynamic",
}

// String returns the human-readable name of the import kind.
func (k ImportKind) String() string {
	if name, ok := importKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// AnonymousFunctionName is substituted for function declarations whose
// name cannot be recovered from source (anonymous default exports,
// IIFEs bound to nothing).
const AnonymousFunctionName = "anonymous"

// FunctionDecl is one function declared in a file.
//
// Line is 1-indexed. Extractors clamp non-positive lines to 1 so the
// rest of the pipeline can assume Line >= 1.
type FunctionDecl struct {
	Name string       `json:"name"`
	Line int          `json:"line"`
	Kind FunctionKind `json:"kind"`
}

// ImportRef is one import reference found in a file. Specifier is the
// raw module string exactly as written ("./util", "react",
// "../lib/parse.js").
type ImportRef struct {
	Specifier string     `json:"specifier"`
	Kind      ImportKind `json:"kind"`
	Line      int        `json:"line"`
}

// CallSite is one call expression found in a file. Callee is the bare
// name being invoked; for member calls (`obj.run()`) it is the final
// property name ("run").
type CallSite struct {
	Callee string `json:"callee"`
	Line   int    `json:"line"`
}

// SourceRecord is the extraction result for a single file. Path is the
// project-relative, forward-slash path of the file. A record with empty
// Functions, Imports, and Calls is valid and still produces a file
// node.
type SourceRecord struct {
	Path      string         `json:"path"`
	Language  string         `json:"language"`
	Functions []FunctionDecl `json:"functions"`
	Imports   []ImportRef    `json:"imports"`
	Calls     []CallSite     `json:"calls"`
}

// Extractor parses one source language into SourceRecords.
type Extractor interface {
	// Language returns the canonical language name ("javascript").
	Language() string

	// Extensions returns the file extensions this extractor claims,
	// including the leading dot.
	Extensions() []string

	// Extract parses content and returns the record for path. A
	// syntactically broken file returns a best-effort record, not an
	// error; errors are reserved for parser-level failures
	// (cancellation, oversized or non-UTF-8 input).
	Extract(ctx context.Context, path string, content []byte) (*SourceRecord, error)
}
