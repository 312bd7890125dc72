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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

// StateManager holds the dependencies shared by the HTTP handlers and the
// Pub/Sub listeners.
type StateManager struct {
	config  *cloud.Config
	cloud   *cloud.ServiceClients
	tags    services.TagStore
	videos  services.VideoStore
	tagging *services.TaggingService
}

var state = &StateManager{}

// SetupOS defaults the configuration directory to "configs" and the runtime
// overlay to "local", unless the environment already names them.
func SetupOS() error {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		return os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the configuration once.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os for configuration: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState opens the cloud clients and stores, loads the metadata and
// starts the bucket listeners. A metadata file that cannot be parsed stops
// startup here.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	tags, err := services.NewTagStore(ctx, config, cloudClients)
	if err != nil {
		return err
	}
	if err := tags.Load(ctx); err != nil {
		_ = tags.Close()
		return fmt.Errorf("failed to load metadata: %w", err)
	}
	state.tags = tags

	videos, err := services.NewVideoStore(config, cloudClients)
	if err != nil {
		return err
	}
	state.videos = videos

	sampler, err := services.NewSampler(config, cloudClients)
	if err != nil {
		return err
	}
	state.tagging = services.NewTaggingService(videos, tags, sampler, config.Server.ProcessTimeout())
	slog.Info("tagging pipeline ready",
		"metadata", config.Metadata.Backend,
		"storage", config.Storage.Backend,
		"captioner", config.Vision.Captioner,
		"detector", config.Vision.Detector,
		"max_frames", sampler.MaxFrames())

	return SetupListeners(ctx, config, cloudClients, state.tagging)
}

// Close releases the stores and clients.
func (s *StateManager) Close() {
	if s.tags != nil {
		if err := s.tags.Close(); err != nil {
			slog.Warn("failed to close tag store", "error", err)
		}
	}
	if s.cloud != nil {
		s.cloud.Close()
	}
}
