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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all explorer routes with the router.
//
// Description:
//
//	Registers all /v1/ripple/* endpoints with the given Gin router
//	group. The router group should already have any required middleware
//	applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Project Endpoints:
//
//	POST /v1/ripple/projects - Upload an archive and build its graph
//	GET  /v1/ripple/projects/:id/tree - List the project's source files
//	GET  /v1/ripple/projects/:id/file - Fetch one file's content
//	GET  /v1/ripple/projects/:id/graph - Export the full serialized graph
//	GET  /v1/ripple/projects/:id/stats - Graph and build statistics
//	GET  /v1/ripple/projects/:id/ripple - Reachable sets for one node
//	POST /v1/ripple/projects/:id/ask - Best-effort natural-language Q&A
//	GET  /v1/ripple/projects/:id/events - Websocket stream of build progress
//
// Health Endpoints:
//
//	GET  /v1/ripple/health - Health check
//	GET  /v1/ripple/ready - Readiness check (includes QA store status)
//
// Example:
//
//	service, _ := explorer.NewService(explorer.ServiceConfig{}, qaStore)
//	handlers := explorer.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	explorer.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	ripple := rg.Group("/ripple")
	{
		projects := ripple.Group("/projects")
		{
			projects.POST("", handlers.HandleUpload)
			projects.GET("/:id/tree", handlers.HandleTree)
			projects.GET("/:id/file", handlers.HandleFile)
			projects.GET("/:id/graph", handlers.HandleGraph)
			projects.GET("/:id/stats", handlers.HandleStats)
			projects.GET("/:id/ripple", handlers.HandleRipple)
			projects.POST("/:id/ask", handlers.HandleAsk)

			// Build progress stream
			projects.GET("/:id/events", handlers.HandleEvents)
		}

		// Health checks
		ripple.GET("/health", handlers.HandleHealth)
		ripple.GET("/ready", handlers.HandleReady)
	}
}
