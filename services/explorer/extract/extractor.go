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
	"path/filepath"
	"strings"
)

// Registry routes files to extractors by extension, with an optional
// fallback for extensions nothing claims.
//
// Thread Safety: Register is not safe concurrently with ExtractFile;
// register everything up front, then share freely.
type Registry struct {
	byExtension map[string]Extractor
	fallback    Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry with the grammar-backed script
// extractors registered and the pattern extractor as fallback.
func DefaultRegistry(opts ...ExtractorOption) *Registry {
	r := NewRegistry()
	r.Register(NewJavaScriptExtractor(opts...))
	r.Register(NewTypeScriptExtractor(opts...))
	r.SetFallback(NewPatternExtractor(opts...))
	return r
}

// Register claims the extractor's extensions. Later registrations win
// on conflict.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
}

// SetFallback installs the extractor used for script-like files whose
// extension no registered extractor claims.
func (r *Registry) SetFallback(e Extractor) {
	r.fallback = e
}

// ForPath returns the extractor responsible for path.
func (r *Registry) ForPath(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := r.byExtension[ext]; ok {
		return e, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
}

// ExtractFile routes path to its extractor and runs it.
func (r *Registry) ExtractFile(ctx context.Context, path string, content []byte) (*SourceRecord, error) {
	e, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, path, content)
}
