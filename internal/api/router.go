// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api is the HTTP facade of the tagging service.
//
// Routes:
//   - POST /api/subir: upload a video in the multipart field "video" and tag it.
//   - GET /api/buscar?consulta=: rank videos by matching tags.
//   - GET /api/videos/:name/etiquetas: the stored tags of one video.
//   - GET /api/estadisticas: store statistics.
//   - GET /videos/:name: the stored video file.
//   - GET /healthz: liveness.
package api

import (
	"context"
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

// Uploader stores and tags one uploaded file. *services.TaggingService
// implements it.
type Uploader interface {
	TagUpload(ctx context.Context, name string, src io.Reader) (*model.TaggingResult, error)
}

// Handler serves the routes above.
type Handler struct {
	Uploader       Uploader
	Tags           services.TagStore
	Videos         services.VideoStore
	MaxUploadBytes int64 // Zero disables the limit.
}

// Register adds every route to r.
func (h *Handler) Register(r gin.IRouter) {
	apiGroup := r.Group("/api")
	{
		MediaRouter(apiGroup, h)
		SearchRouter(apiGroup, h)
		Dashboard(apiGroup, h)
	}
	r.GET("/videos/:name", h.serveVideo)
	r.GET("/healthz", healthz)
}

// NewRouter builds the gin engine with tracing, CORS for every origin,
// request IDs and access logs in front of the handler.
func NewRouter(serviceName string, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())
	r.Use(RequestID(), AccessLog())
	h.Register(r)
	return r
}
