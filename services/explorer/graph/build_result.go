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

import "fmt"

// FileNote records something the builder absorbed instead of failing
// the build: a record it skipped, a duplicate it ignored, an import it
// could not resolve. Notes are diagnostics only; a build with notes is
// still a successful build.
type FileNote struct {
	FilePath string
	Reason   string
}

// String renders the note for logs.
func (n FileNote) String() string {
	return fmt.Sprintf("%s: %s", n.FilePath, n.Reason)
}

// BuildStats summarizes one build for logging and the stats endpoint.
type BuildStats struct {
	FilesProcessed    int   `json:"filesProcessed"`
	FilesSkipped      int   `json:"filesSkipped"`
	NodesCreated      int   `json:"nodesCreated"`
	EdgesCreated      int   `json:"edgesCreated"`
	ImportsResolved   int   `json:"importsResolved"`
	ImportsUnresolved int   `json:"importsUnresolved"`
	CallsResolved     int   `json:"callsResolved"`
	CallsUnresolved   int   `json:"callsUnresolved"`
	DurationMilli     int64 `json:"durationMs"`
	DurationMicro     int64 `json:"durationUs"`
}

// BuildResult is what Build returns. Graph is always non-nil and
// frozen on success; FileNotes carry everything that was absorbed
// along the way.
type BuildResult struct {
	Graph     *Graph
	FileNotes []FileNote
	Stats     BuildStats

	// Incomplete is true when the build hit a hard limit and stopped
	// early. The graph is still frozen and queryable.
	Incomplete bool
}

// HasNotes reports whether anything was absorbed during the build.
func (r *BuildResult) HasNotes() bool {
	return len(r.FileNotes) > 0
}

// note appends a diagnostic for filePath.
func (r *BuildResult) note(filePath, format string, args ...any) {
	r.FileNotes = append(r.FileNotes, FileNote{
		FilePath: filePath,
		Reason:   fmt.Sprintf(format, args...),
	})
}
