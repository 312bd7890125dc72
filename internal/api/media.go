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

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

const (
	UploadField = "video"

	msgUploaded        = "Video subido y procesado con éxito."
	msgNoVideo         = "No se proporcionó ningún video."
	msgInvalidName     = "Nombre de video no válido."
	msgTooLarge        = "El video supera el tamaño máximo permitido."
	msgProcessFailed   = "No se pudo procesar el video."
	msgVideoNotFound   = "Video no encontrado."
	msgInternalFailure = "Error interno del servidor."
)

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message string   `json:"mensaje"`
	Tags    []string `json:"etiquetas"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// MediaRouter registers the upload and per-video routes.
func MediaRouter(r *gin.RouterGroup, h *Handler) {
	r.POST("/subir", h.upload)
	r.GET("/videos/:name/etiquetas", h.videoTags)
}

func (h *Handler) upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, err := c.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, msgNoVideo)
		return
	}

	src, err := file.Open()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to open upload", "file", file.Filename, "error", err)
		abortWithError(c, http.StatusInternalServerError, msgInternalFailure)
		return
	}
	defer func() { _ = src.Close() }()

	res, err := h.Uploader.TagUpload(c.Request.Context(), file.Filename, src)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidName):
		abortWithError(c, http.StatusBadRequest, msgInvalidName)
		return
	default:
		slog.ErrorContext(c.Request.Context(), "failed to tag upload", "file", file.Filename, "error", err)
		abortWithError(c, http.StatusInternalServerError, msgProcessFailed)
		return
	}

	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, UploadResponse{Message: msgUploaded, Tags: tags})
}

func (h *Handler) videoTags(c *gin.Context) {
	record, err := h.Tags.Get(c.Request.Context(), c.Param("name"))
	if errors.Is(err, services.ErrVideoNotFound) {
		abortWithError(c, http.StatusNotFound, msgVideoNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to read tags", "name", c.Param("name"), "error", err)
		abortWithError(c, http.StatusInternalServerError, msgInternalFailure)
		return
	}
	c.JSON(http.StatusOK, record)
}

// serveVideo streams a local file or redirects to a signed URL.
func (h *Handler) serveVideo(c *gin.Context) {
	loc, err := h.Videos.Locate(c.Request.Context(), c.Param("name"))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidName):
		abortWithError(c, http.StatusBadRequest, msgInvalidName)
		return
	case errors.Is(err, services.ErrVideoNotFound):
		abortWithError(c, http.StatusNotFound, msgVideoNotFound)
		return
	default:
		slog.ErrorContext(c.Request.Context(), "failed to locate video", "name", c.Param("name"), "error", err)
		abortWithError(c, http.StatusInternalServerError, msgInternalFailure)
		return
	}

	if loc.URL != "" {
		c.Redirect(http.StatusFound, loc.URL)
		return
	}
	c.File(loc.Path)
}
