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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

const QueryParam = "consulta"

// SearchRouter registers GET /buscar. An absent or empty query yields an
// empty array, never null.
func SearchRouter(r *gin.RouterGroup, h *Handler) {
	r.GET("/buscar", func(c *gin.Context) {
		results, err := h.Tags.Search(c.Request.Context(), c.Query(QueryParam))
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "search failed", "error", err)
			abortWithError(c, http.StatusInternalServerError, msgInternalFailure)
			return
		}
		if results == nil {
			results = []model.SearchResult{}
		}
		c.JSON(http.StatusOK, results)
	})
}
