// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explorer is the HTTP service around the graph engine: it
// accepts project archive uploads, drives extraction and the graph
// build, and serves the tree, graph, reachability, stats, and
// question-answering endpoints the UI consumes.
package explorer

import "errors"

var (
	// ErrProjectNotFound is returned when a project ID is unknown or
	// already evicted.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidUpload is returned for uploads that are not usable
	// archives.
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrUploadTooLarge is returned when the uploaded archive exceeds
	// the configured size limit.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrNoSourceFiles is returned when an archive contains no
	// script-like files at all.
	ErrNoSourceFiles = errors.New("archive contains no script files")

	// ErrFileNotInProject is returned by the file endpoint for paths
	// outside the scanned file set.
	ErrFileNotInProject = errors.New("file not part of project")

	// ErrServiceClosed is returned after Close.
	ErrServiceClosed = errors.New("explorer service is closed")
)
