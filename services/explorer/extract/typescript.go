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

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptExtractor extracts functions, imports, and call sites from
// TypeScript and TSX source. The TSX grammar is selected by extension
// since JSX syntax is invalid under the plain TypeScript grammar.
//
// Thread Safety: safe for concurrent use.
type TypeScriptExtractor struct {
	options ExtractorOptions
}

// NewTypeScriptExtractor creates a TypeScript extractor.
func NewTypeScriptExtractor(opts ...ExtractorOption) *TypeScriptExtractor {
	options := DefaultExtractorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &TypeScriptExtractor{options: options}
}

// Language returns "typescript".
func (e *TypeScriptExtractor) Language() string { return "typescript" }

// Extensions returns the extensions this extractor claims.
func (e *TypeScriptExtractor) Extensions() []string {
	return []string{".ts", ".mts", ".cts", ".tsx"}
}

// Extract parses content and returns the record for path.
func (e *TypeScriptExtractor) Extract(ctx context.Context, path string, content []byte) (*SourceRecord, error) {
	lang := typescript.GetLanguage()
	if strings.HasSuffix(path, ".tsx") {
		lang = tsx.GetLanguage()
	}
	return runExtraction(ctx, lang, e.options, path, content, "typescript")
}
