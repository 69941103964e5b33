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
	"bufio"
	"bytes"
	"context"
	"regexp"
	"unicode/utf8"
)

// Line-oriented patterns for script-like source. Deliberately loose:
// the pattern extractor is the fallback for grammars tree-sitter does
// not cover, and false positives downstream just become unresolved
// references.
var (
	patFunctionDecl = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)?\s*\(`)
	patBoundArrow   = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`)
	patBoundFunc    = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?function\b`)
	patMethodDecl   = regexp.MustCompile(`^\s*(?:static\s+)?(?:async\s+)?([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`)
	patImportFrom   = regexp.MustCompile(`import\s+(?:[^'"]*\s+from\s+)?['"]([^'"]+)['"]`)
	patRequire      = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	patDynImport    = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	patCall         = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)
)

// callKeywords are identifiers patCall matches that are never function
// calls worth recording.
var callKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "function": {}, "require": {}, "import": {},
	"typeof": {}, "constructor": {},
}

// PatternExtractor is the regex fallback used when no grammar-backed
// extractor claims a file. It scans line by line and never fails on
// malformed syntax.
//
// Thread Safety: safe for concurrent use; the extractor holds no
// per-call state.
type PatternExtractor struct {
	options ExtractorOptions
}

// NewPatternExtractor creates the fallback extractor.
func NewPatternExtractor(opts ...ExtractorOption) *PatternExtractor {
	options := DefaultExtractorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &PatternExtractor{options: options}
}

// Language returns "pattern".
func (e *PatternExtractor) Language() string { return "pattern" }

// Extensions returns nil: the registry uses this extractor only as an
// explicit fallback, never by extension match.
func (e *PatternExtractor) Extensions() []string { return nil }

// Extract scans content line by line.
func (e *PatternExtractor) Extract(ctx context.Context, path string, content []byte) (*SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(content) > e.options.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}

	rec := &SourceRecord{
		Path:      path,
		Language:  "pattern",
		Functions: make([]FunctionDecl, 0),
		Imports:   make([]ImportRef, 0),
		Calls:     make([]CallSite, 0),
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), e.options.MaxFileSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		e.scanLine(rec, line, lineNo)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// scanLine applies every pattern to one line. Declarations suppress
// the call scan for their own name so `function foo(` does not also
// record a call to foo.
func (e *PatternExtractor) scanLine(rec *SourceRecord, line string, lineNo int) {
	declared := ""

	if m := patFunctionDecl.FindStringSubmatch(line); m != nil {
		name := m[1]
		if name == "" {
			name = AnonymousFunctionName
		}
		rec.Functions = append(rec.Functions, FunctionDecl{Name: name, Line: lineNo, Kind: FunctionKindDeclaration})
		declared = name
	} else if m := patBoundArrow.FindStringSubmatch(line); m != nil {
		rec.Functions = append(rec.Functions, FunctionDecl{Name: m[1], Line: lineNo, Kind: FunctionKindArrow})
		declared = m[1]
	} else if m := patBoundFunc.FindStringSubmatch(line); m != nil {
		rec.Functions = append(rec.Functions, FunctionDecl{Name: m[1], Line: lineNo, Kind: FunctionKindArrow})
		declared = m[1]
	} else if m := patMethodDecl.FindStringSubmatch(line); m != nil {
		if _, kw := callKeywords[m[1]]; !kw {
			rec.Functions = append(rec.Functions, FunctionDecl{Name: m[1], Line: lineNo, Kind: FunctionKindMethod})
			declared = m[1]
		}
	}

	for _, m := range patImportFrom.FindAllStringSubmatch(line, -1) {
		rec.Imports = append(rec.Imports, ImportRef{Specifier: m[1], Kind: ImportKindStatic, Line: lineNo})
	}
	for _, m := range patRequire.FindAllStringSubmatch(line, -1) {
		rec.Imports = append(rec.Imports, ImportRef{Specifier: m[1], Kind: ImportKindRequire, Line: lineNo})
	}
	for _, m := range patDynImport.FindAllStringSubmatch(line, -1) {
		rec.Imports = append(rec.Imports, ImportRef{Specifier: m[1], Kind: ImportKindDynamic, Line: lineNo})
	}

	for _, m := range patCall.FindAllStringSubmatch(line, -1) {
		name := m[1]
		if name == declared {
			continue
		}
		if _, kw := callKeywords[name]; kw {
			continue
		}
		rec.Calls = append(rec.Calls, CallSite{Callee: name, Line: lineNo})
	}
}
