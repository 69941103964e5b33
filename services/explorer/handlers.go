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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wavecrest-ai/ripple/services/explorer/graph"
)

// uploadBurst allows a short spike of uploads before the per-second
// rate applies. Builds are CPU-heavy, so the ceiling is low.
const uploadBurst = 4

// Handlers holds the HTTP handlers for the explorer service.
//
// Thread Safety: all handlers are safe for concurrent use; they only
// touch the Service, which owns its own synchronization.
type Handlers struct {
	svc           *Service
	upgrader      websocket.Upgrader
	uploadLimiter *rate.Limiter
}

// NewHandlers creates handlers bound to a service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{
		svc:           svc,
		uploadLimiter: rate.NewLimiter(rate.Every(time.Second), uploadBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The events socket carries no client state; origin checks
			// belong to the deployment's reverse proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// getOrCreateRequestID returns the inbound X-Request-ID header or mints
// a fresh one, echoing it on the response either way.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// writeServiceError maps service-layer sentinels onto HTTP responses.
func writeServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "project not found",
			Code:  "PROJECT_NOT_FOUND",
		})
	case errors.Is(err, ErrFileNotInProject):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "file is not part of this project",
			Code:  "FILE_NOT_FOUND",
		})
	case errors.Is(err, ErrInvalidUpload):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "archive could not be unpacked: " + err.Error(),
			Code:  "INVALID_ARCHIVE",
		})
	case errors.Is(err, ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "upload exceeds the size limit",
			Code:  "UPLOAD_TOO_LARGE",
		})
	case errors.Is(err, ErrNoSourceFiles):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "archive contains no recognized source files",
			Code:  "NO_SOURCE_FILES",
		})
	case errors.Is(err, ErrServiceClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "service is shutting down",
			Code:  "SERVICE_CLOSED",
		})
	case errors.Is(err, graph.ErrInvalidNode):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "malformed node id: " + err.Error(),
			Code:  "INVALID_NODE_ID",
		})
	default:
		logger.Error("request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

// HandleUpload handles POST /v1/ripple/projects.
//
// Description:
//
//	Accepts a multipart upload of a project archive (.zip, .tar.gz, or
//	.tgz), runs the full pipeline (unpack, scan, extract, build), and
//	returns the new project id with its graph statistics. The build is
//	synchronous; progress events stream on the events socket while it
//	runs.
//
// Form Fields:
//
//	archive: The archive file (required)
//	name: Display name for the project (optional, defaults to the filename)
//
// Response:
//
//	201 Created: UploadResponse
//	400 Bad Request: Missing file or unreadable archive
//	413 Request Entity Too Large: Upload exceeds the configured limit
//	422 Unprocessable Entity: No recognized source files in the archive
//	429 Too Many Requests: Upload rate limit hit
func (h *Handlers) HandleUpload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpload")

	if !h.uploadLimiter.Allow() {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "too many uploads, retry shortly",
			Code:  "RATE_LIMITED",
		})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.svc.MaxUploadBytes())

	file, header, err := c.Request.FormFile("archive")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(c, logger, ErrUploadTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "archive form file is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}

	archivePath, err := h.saveUpload(file, header.Filename)
	if err != nil {
		logger.Error("saving upload failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to persist upload",
			Code:  "UPLOAD_FAILED",
		})
		return
	}
	defer os.Remove(archivePath)

	start := time.Now()
	project, err := h.svc.CreateProject(c.Request.Context(), archivePath, name)
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}

	notes := make([]string, 0, len(project.Result.FileNotes))
	for _, n := range project.Result.FileNotes {
		notes = append(notes, n.FilePath+": "+n.Reason)
	}

	logger.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("name", name),
		slog.Int("files", len(project.Files)),
		slog.Duration("elapsed", time.Since(start)),
	)

	c.JSON(http.StatusCreated, UploadResponse{
		ProjectID:  project.ID,
		Name:       project.Name,
		Files:      len(project.Files),
		Stats:      project.Graph.Stats(),
		Build:      project.Result.Stats,
		Notes:      notes,
		Incomplete: project.Result.Incomplete,
	})
}

// saveUpload spools the multipart part to a temp file so the archive
// layer can seek it.
func (h *Handlers) saveUpload(src io.Reader, filename string) (string, error) {
	ext := ".zip"
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"):
		ext = ".tar.gz"
	case strings.HasSuffix(lower, ".tgz"):
		ext = ".tgz"
	}

	tmp, err := os.CreateTemp("", "ripple-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return tmp.Name(), nil
}

// HandleTree handles GET /v1/ripple/projects/:id/tree.
//
// Response:
//
//	200 OK: TreeResponse
//	404 Not Found: Unknown project
func (h *Handlers) HandleTree(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTree")

	tree, err := h.svc.Tree(c.Param("id"))
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// HandleFile handles GET /v1/ripple/projects/:id/file.
//
// Query Parameters:
//
//	path: Project-relative file path (required)
//
// Response:
//
//	200 OK: FileResponse
//	400 Bad Request: Missing path parameter
//	404 Not Found: Unknown project or file outside the project
func (h *Handlers) HandleFile(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleFile")

	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	resp, err := h.svc.FileContent(c.Param("id"), path)
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGraph handles GET /v1/ripple/projects/:id/graph.
//
// Description:
//
//	Returns the full serialized graph for the visualization layer:
//	deterministically sorted nodes and edges, build stats, schema
//	version, and the structural hash.
//
// Response:
//
//	200 OK: graph.SerializableGraph
//	404 Not Found: Unknown project
func (h *Handlers) HandleGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraph")

	sg, err := h.svc.GraphJSON(c.Param("id"))
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, sg)
}

// HandleStats handles GET /v1/ripple/projects/:id/stats.
//
// Response:
//
//	200 OK: StatsResponse
//	404 Not Found: Unknown project
func (h *Handlers) HandleStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStats")

	stats, err := h.svc.StatsFor(c.Param("id"))
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleRipple handles GET /v1/ripple/projects/:id/ripple.
//
// Description:
//
//	Computes the downstream, upstream, and combined reachable sets for
//	one node. An id that parses but names no node in the graph returns
//	empty sets, so a click racing a rebuild degrades to "no highlight"
//	instead of an error.
//
// Query Parameters:
//
//	node: Node id, "file:<path>" or "func:<path>:<name>:<line>" (required)
//
// Response:
//
//	200 OK: RippleResponse
//	400 Bad Request: Missing or malformed node id
//	404 Not Found: Unknown project
func (h *Handlers) HandleRipple(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRipple")

	nodeID := c.Query("node")
	if nodeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "node parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	resp, err := h.svc.RippleSet(c.Request.Context(), c.Param("id"), nodeID)
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}

	logger.Info("ripple computed",
		slog.String("node", nodeID),
		slog.Int("downstream", len(resp.Downstream)),
		slog.Int("upstream", len(resp.Upstream)),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleAsk handles POST /v1/ripple/projects/:id/ask.
//
// Description:
//
//	Forwards a natural-language question to the vector store. When the
//	store is not configured or unreachable the response carries
//	available=false with empty answers; that is a normal outcome, not
//	an error.
//
// Request Body:
//
//	AskRequest (question required, limit optional)
//
// Response:
//
//	200 OK: AskResponse
//	400 Bad Request: Missing question
//	404 Not Found: Unknown project
func (h *Handlers) HandleAsk(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAsk")

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "question is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	resp, err := h.svc.Ask(c.Request.Context(), c.Param("id"), req.Question, req.Limit)
	if err != nil {
		writeServiceError(c, logger, err)
		return
	}

	logger.Info("question answered",
		slog.Bool("available", resp.Available),
		slog.Int("answers", len(resp.Answers)),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleEvents handles GET /v1/ripple/projects/:id/events.
//
// Description:
//
//	Upgrades to a websocket and streams build progress events for one
//	project as JSON until the client disconnects or the service shuts
//	down. The project does not have to exist yet: clients may subscribe
//	with a provisional id before the build that mints it finishes.
func (h *Handlers) HandleEvents(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleEvents")

	projectID := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	events, cancel := h.svc.Progress().Subscribe()
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but
	// reading is how gorilla surfaces close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.ProjectID != projectID {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// HandleHealth handles GET /v1/ripple/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/ripple/ready.
//
// Description:
//
//	Reports readiness plus whether the optional QA vector store is
//	reachable. QA being down does not fail readiness; the core graph
//	endpoints work without it.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"qa_ready": h.svc.QAReady(c.Request.Context()),
	})
}
