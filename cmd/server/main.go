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

// Package main runs the video tagging server: a gin HTTP API for uploads,
// search and playback, plus optional Pub/Sub listeners that tag videos
// finalized in a Cloud Storage bucket.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "go.uber.org/automaxprocs"

	"github.com/jaycherian/gcp-go-video-tagging/internal/api"
	"github.com/jaycherian/gcp-go-video-tagging/internal/telemetry"
)

func main() {
	config := GetConfig()

	closeLog, err := telemetry.SetupLogging(config.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("failed to setup OpenTelemetry", "error", err)
		os.Exit(1)
	}

	if err := InitState(ctx); err != nil {
		slog.Error("failed to initialize state", "error", err)
		state.Close()
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(config.Application.Name, &api.Handler{
		Uploader:       state.tagging,
		Tags:           state.tags,
		Videos:         state.videos,
		MaxUploadBytes: config.Server.MaxUploadBytes(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: config.Server.ReadHeaderTimeout(),
		ReadTimeout:       config.Server.ReadTimeout(),
		WriteTimeout:      config.Server.WriteTimeout(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("server ready", "port", config.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	cancel()
	state.Close()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}
	slog.Info("server exiting")
}
