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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	test "github.com/jaycherian/gcp-go-video-tagging/internal/testutil"
)

func TestLoadTestRuntime(t *testing.T) {
	config := test.GetConfig()

	assert.Equal(t, "gcs", config.Storage.Backend)
	assert.Equal(t, "video-tagging-test", config.Storage.Bucket)
	assert.Equal(t, "postgres", config.Metadata.Backend)
	assert.Equal(t, int32(8), config.Metadata.MaxConns)
	assert.Equal(t, "gemini", config.Vision.Captioner)
	assert.Equal(t, 0.35, config.Vision.MinConfidence)
	assert.Equal(t, "debug", config.Logging.Level)

	// Values only present in the base file survive the overlay.
	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Server.ReadHeaderTimeout())
	assert.Equal(t, 900*time.Second, config.Server.ReadTimeout())
	assert.Greater(t, config.Server.WriteTimeout(), config.Server.ReadTimeout()+config.Server.ProcessTimeout(),
		"the write deadline spans the upload and the tagging run")
	assert.Equal(t, 30, config.Vision.MaxFrames)
	require.Len(t, config.Vision.Palette, 3)
	assert.Equal(t, "rojo", config.Vision.Palette[0].Name)
	assert.Equal(t, [3]int{126, 255, 255}, config.Vision.Palette[2].Upper)
	assert.Equal(t, "gemini-2.0-flash", config.AgentModels["vision-flash"].Model)
	assert.Equal(t, "video-tagging-upload-sub", config.TopicSubscriptions["UploadTopic"].Name)
	assert.NotEmpty(t, config.PromptTemplates.DetectionPrompt)
}

func TestLoadLocalRuntime(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, test.ConfigDir())
	t.Setenv(cloud.EnvConfigRuntime, "local")

	config := cloud.NewConfig()
	test.HandleErr(cloud.LoadConfig(config), t)

	assert.Equal(t, "local", config.Storage.Backend)
	assert.Equal(t, "json", config.Metadata.Backend)
	assert.Equal(t, "static", config.Vision.Captioner)
	assert.Equal(t, "none", config.Telemetry.Exporter)
	assert.Equal(t, "text", config.Logging.Format)
	assert.Empty(t, config.TopicSubscriptions)
	assert.False(t, config.NeedsStorage())
	assert.False(t, config.NeedsGenAI())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "staging")

	writeFile(t, filepath.Join(dir, ".env.toml"), "[server]\nport = 8080\nmax_upload_mb = 64\n")
	writeFile(t, filepath.Join(dir, ".env.staging.toml"), "[server]\nport = 9090\n")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, int64(64<<20), config.Server.MaxUploadBytes())
	assert.Equal(t, 900*time.Second, config.Server.ReadTimeout(), "default kept")

	base, overlay := cloud.ConfigFiles()
	assert.Equal(t, filepath.Join(dir, ".env.toml"), base)
	assert.Equal(t, filepath.Join(dir, ".env.staging.toml"), overlay)
}

func TestLoadConfigMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "test")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config), "missing files are skipped")
	assert.Equal(t, cloud.NewConfig(), config)

	writeFile(t, filepath.Join(dir, ".env.toml"), "[server\nport = ")
	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func TestConfigNeeds(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *cloud.Config)
		wantStorage bool
		wantGenAI   bool
	}{
		{name: "defaults", mutate: func(c *cloud.Config) {}},
		{name: "gcs videos", mutate: func(c *cloud.Config) { c.Storage.Backend = "gcs" }, wantStorage: true},
		{
			name: "bucket subscription",
			mutate: func(c *cloud.Config) {
				c.TopicSubscriptions["UploadTopic"] = cloud.TopicSubscription{Name: "sub"}
			},
			wantStorage: true,
		},
		{name: "gemini captions", mutate: func(c *cloud.Config) { c.Vision.Captioner = "gemini" }, wantGenAI: true},
		{name: "gemini detections", mutate: func(c *cloud.Config) { c.Vision.Detector = "gemini" }, wantGenAI: true},
		{name: "openai captions", mutate: func(c *cloud.Config) { c.Vision.Captioner = "openai" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := cloud.NewConfig()
			tt.mutate(config)
			assert.Equal(t, tt.wantStorage, config.NeedsStorage())
			assert.Equal(t, tt.wantGenAI, config.NeedsGenAI())
		})
	}
}
