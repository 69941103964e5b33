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
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptExtractor extracts functions, imports, and call sites from
// JavaScript source using tree-sitter.
//
// Thread Safety:
//
//	Safe for concurrent use. Each Extract call creates its own
//	tree-sitter parser instance.
type JavaScriptExtractor struct {
	options ExtractorOptions
}

// ExtractorOptions configures the script extractors.
type ExtractorOptions struct {
	// MaxFileSize is the largest content length accepted, in bytes.
	// Larger files return ErrFileTooLarge. Default: 10MB.
	MaxFileSize int
}

// DefaultExtractorOptions returns the baseline configuration.
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{MaxFileSize: 10 * 1024 * 1024}
}

// ExtractorOption is a functional option for the script extractors.
type ExtractorOption func(*ExtractorOptions)

// WithMaxFileSize overrides the content size limit.
func WithMaxFileSize(size int) ExtractorOption {
	return func(o *ExtractorOptions) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// NewJavaScriptExtractor creates a JavaScript extractor.
func NewJavaScriptExtractor(opts ...ExtractorOption) *JavaScriptExtractor {
	options := DefaultExtractorOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaScriptExtractor{options: options}
}

// Language returns "javascript".
func (e *JavaScriptExtractor) Language() string { return "javascript" }

// Extensions returns the extensions this extractor claims.
func (e *JavaScriptExtractor) Extensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx"}
}

// Extract parses content and returns the record for path.
func (e *JavaScriptExtractor) Extract(ctx context.Context, path string, content []byte) (*SourceRecord, error) {
	return runExtraction(ctx, javascript.GetLanguage(), e.options, path, content, "javascript")
}

// runExtraction is the shared parse-then-walk pipeline behind the
// script extractors.
func runExtraction(ctx context.Context, lang *sitter.Language, options ExtractorOptions, path string, content []byte, language string) (*SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s extraction canceled before start: %w", language, err)
	}
	if len(content) > options.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s extraction canceled after parse: %w", language, err)
	}

	return collectRecord(tree.RootNode(), content, path, language), nil
}
