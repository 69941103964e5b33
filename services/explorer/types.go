// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explorer

import (
	"github.com/wavecrest-ai/ripple/services/explorer/graph"
	"github.com/wavecrest-ai/ripple/services/explorer/qa"
)

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// UploadResponse is returned after a successful project upload and
// build.
type UploadResponse struct {
	ProjectID  string           `json:"projectId"`
	Name       string           `json:"name"`
	Files      int              `json:"files"`
	Stats      graph.Stats      `json:"stats"`
	Build      graph.BuildStats `json:"build"`
	Notes      []string         `json:"notes,omitempty"`
	Incomplete bool             `json:"incomplete,omitempty"`
}

// TreeEntry is one file in the project tree listing.
type TreeEntry struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Functions int    `json:"functions"`
}

// TreeResponse lists the scanned files of a project.
type TreeResponse struct {
	ProjectID string      `json:"projectId"`
	Files     []TreeEntry `json:"files"`
}

// FileResponse carries one file's content for the code viewer.
type FileResponse struct {
	ProjectID string `json:"projectId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// RippleResponse is the reachable set for one clicked node.
type RippleResponse struct {
	ProjectID  string   `json:"projectId"`
	Node       string   `json:"node"`
	Downstream []string `json:"downstream"`
	Upstream   []string `json:"upstream"`
	Ripple     []string `json:"ripple"`
}

// StatsResponse is the summary panel payload.
type StatsResponse struct {
	ProjectID string           `json:"projectId"`
	Stats     graph.Stats      `json:"stats"`
	Build     graph.BuildStats `json:"build"`
}

// AskRequest is the question body for the QA endpoint.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	Limit    int    `json:"limit"`
}

// AskResponse carries best-effort answers. Available is false when the
// vector store is down; Answers is empty then, and that is not an
// error.
type AskResponse struct {
	ProjectID string      `json:"projectId"`
	Question  string      `json:"question"`
	Available bool        `json:"available"`
	Answers   []qa.Answer `json:"answers"`
}

// ProgressEvent is one build progress message on the events socket.
type ProgressEvent struct {
	ProjectID string `json:"projectId"`
	Phase     string `json:"phase"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}
