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

package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/telemetry"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := telemetry.ParseLevel(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestJSONHandlerUsesCloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	handler, err := telemetry.NewHandler(cloud.Logging{Format: "json", Level: "debug"}, &buf)
	require.NoError(t, err)

	slog.New(handler).Warn("frame skipped", "frame", 3)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARNING", line["severity"])
	assert.Equal(t, "frame skipped", line["message"])
	assert.Contains(t, line, "timestamp")
	assert.EqualValues(t, 3, line["frame"])
	assert.NotContains(t, line, "logging.googleapis.com/trace")
}

func TestHandlerAddsTraceFields(t *testing.T) {
	shutdown, err := telemetry.SetupOpenTelemetry(context.Background(), cloud.NewConfig())
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	var buf bytes.Buffer
	handler, err := telemetry.NewHandler(cloud.Logging{}, &buf)
	require.NoError(t, err)

	ctx, span := otel.Tracer("telemetry-test").Start(context.Background(), "op")
	slog.New(handler).With("component", "test").InfoContext(ctx, "inside span")
	span.End()

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, span.SpanContext().TraceID().String(), line["logging.googleapis.com/trace"])
	assert.Equal(t, span.SpanContext().SpanID().String(), line["logging.googleapis.com/spanId"])
	assert.Equal(t, "test", line["component"])
}

func TestTextHandlerAndFile(t *testing.T) {
	var buf bytes.Buffer
	handler, err := telemetry.NewHandler(cloud.Logging{Format: "text", Level: "warn"}, &buf)
	require.NoError(t, err)
	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = telemetry.NewHandler(cloud.Logging{Format: "xml"}, &buf)
	assert.Error(t, err)

	previous := slog.Default()
	defer slog.SetDefault(previous)

	path := filepath.Join(t.TempDir(), "app.log")
	closeLog, err := telemetry.SetupLogging(cloud.Logging{File: path})
	require.NoError(t, err)
	slog.Info("written to file")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestSetupOpenTelemetryRejectsUnknownExporter(t *testing.T) {
	config := cloud.NewConfig()
	config.Telemetry.Exporter = "jaeger"
	_, err := telemetry.SetupOpenTelemetry(context.Background(), config)
	assert.Error(t, err)

	// The bridge logger works against whatever provider is installed.
	otelslog.NewLogger("telemetry-test").Info("exporter rejected", "exporter", config.Telemetry.Exporter)
}
