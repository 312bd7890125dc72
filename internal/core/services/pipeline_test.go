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

package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/inference"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/vision"
)

func TestNewPalette(t *testing.T) {
	p, err := services.NewPalette(nil)
	require.NoError(t, err)
	assert.Equal(t, vision.DefaultPalette().Ranges(), p.Ranges())

	p, err = services.NewPalette([]cloud.PaletteColor{
		{Name: "amarillo", Lower: [3]int{20, 100, 100}, Upper: [3]int{30, 255, 255}},
	})
	require.NoError(t, err)
	assert.Equal(t, []vision.ColorRange{{
		Name:  "amarillo",
		Lower: vision.HSV{H: 20, S: 100, V: 100},
		Upper: vision.HSV{H: 30, S: 255, V: 255},
	}}, p.Ranges())

	_, err = services.NewPalette([]cloud.PaletteColor{{Name: "x", Upper: [3]int{10, 300, 255}}})
	assert.Error(t, err)
	_, err = services.NewPalette([]cloud.PaletteColor{{Name: "x", Upper: [3]int{190, 255, 255}}})
	assert.Error(t, err)
}

func TestNewDetectorAndCaptioner(t *testing.T) {
	config := cloud.NewConfig()
	config.Vision.StaticCaption = "a quiet street"

	det, err := services.NewDetector(config, nil)
	require.NoError(t, err)
	assert.IsType(t, inference.NoopDetector{}, det)

	capt, err := services.NewCaptioner(config, nil)
	require.NoError(t, err)
	out, err := capt.Caption(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a quiet street", out)

	config.Vision.Detector = "gemini"
	config.Vision.AgentModel = "vision-flash"
	_, err = services.NewDetector(config, &cloud.ServiceClients{})
	assert.ErrorContains(t, err, "vision-flash")

	clients := &cloud.ServiceClients{AgentModels: map[string]*cloud.QuotaAwareGenerativeAIModel{
		"vision-flash": cloud.NewQuotaAwareModel(nil, "gemini-2.0-flash", nil, 0),
	}}
	det, err = services.NewDetector(config, clients)
	require.NoError(t, err)
	assert.IsType(t, &inference.GeminiDetector{}, det)

	config.Vision.Captioner = "openai"
	_, err = services.NewCaptioner(config, nil)
	assert.Error(t, err, "openai captioner needs a model")
	config.OpenAI.Model = "llava"
	capt, err = services.NewCaptioner(config, nil)
	require.NoError(t, err)
	assert.IsType(t, &inference.OpenAICaptioner{}, capt)

	config.Vision.Captioner = "telepathy"
	_, err = services.NewCaptioner(config, nil)
	assert.Error(t, err)
	config.Vision.Detector = "yolo"
	_, err = services.NewDetector(config, nil)
	assert.Error(t, err)
}

func TestNewSamplerFromConfig(t *testing.T) {
	config := cloud.NewConfig()
	config.Vision.MaxFrames = 12

	sampler, err := services.NewSampler(config, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, sampler.MaxFrames())

	config.Vision.Palette = []cloud.PaletteColor{{Name: vision.Unknown, Upper: [3]int{10, 255, 255}}}
	_, err = services.NewSampler(config, nil)
	assert.Error(t, err)
}

func TestNewStoresFromConfig(t *testing.T) {
	ctx := context.Background()
	config := cloud.NewConfig()
	config.Metadata.File = filepath.Join(t.TempDir(), "metadata.json")
	config.Storage.VideoDir = filepath.Join(t.TempDir(), "videos")

	tags, err := services.NewTagStore(ctx, config, nil)
	require.NoError(t, err)
	assert.IsType(t, &services.JSONTagStore{}, tags)

	videos, err := services.NewVideoStore(config, nil)
	require.NoError(t, err)
	assert.IsType(t, &services.LocalVideoStore{}, videos)

	config.Metadata.Backend = "bigquery"
	_, err = services.NewTagStore(ctx, config, nil)
	assert.Error(t, err)
	config.Metadata.Backend = "sqlite"
	_, err = services.NewTagStore(ctx, config, nil)
	assert.Error(t, err)

	config.Storage.Backend = "gcs"
	_, err = services.NewVideoStore(config, nil)
	assert.Error(t, err)
}
