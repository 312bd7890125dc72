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

// Package test provides helpers shared by the test suites: configuration
// loading for the "test" runtime, synthetic frames, an in-memory frame
// source and canned Cloud Storage notifications.
package test

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
)

// StateManager caches the test configuration across tests.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestUploadMessageText is a finalize notification for a video uploaded to
// the tagging bucket.
func GetTestUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "video_tagging_uploads/clips/street-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/video_tagging_uploads/o/clips%2Fstreet-001.mp4",
  "name": "clips/street-001.mp4",
  "bucket": "video_tagging_uploads",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "metadata": { "source": "camera-7" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// GetTestNonVideoMessageText is a finalize notification for a file that is
// not a video.
func GetTestNonVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "name": "clips/readme.txt",
  "bucket": "video_tagging_uploads",
  "contentType": "text/plain",
  "size": "12"
}`
}

// ConfigDir finds the repository's configs directory by walking up from the
// working directory, which is the package directory under go test.
func ConfigDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "configs"
	}
	for {
		candidate := filepath.Join(dir, "configs")
		if _, err := os.Stat(filepath.Join(candidate, cloud.ConfigFileBaseName+cloud.ConfigFileExtension)); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "configs"
		}
		dir = parent
	}
}

// SetupOS points the configuration loader at configs/.env.test.toml.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once and caches it. Missing files
// leave the defaults of cloud.NewConfig in place.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}
