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

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/inference"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/video"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/vision"
)

// Builders that turn the configuration into pipeline components. Both
// binaries and the bucket workflow share them.

// NewPalette converts the configured palette; an empty list means the default.
func NewPalette(colors []cloud.PaletteColor) (*vision.Palette, error) {
	if len(colors) == 0 {
		return vision.DefaultPalette(), nil
	}
	ranges := make([]vision.ColorRange, 0, len(colors))
	for _, c := range colors {
		lower, err := toHSV(c.Name, c.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := toHSV(c.Name, c.Upper)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, vision.ColorRange{Name: c.Name, Lower: lower, Upper: upper})
	}
	return vision.NewPalette(ranges...)
}

func toHSV(name string, v [3]int) (vision.HSV, error) {
	for _, c := range v {
		if c < 0 || c > 255 {
			return vision.HSV{}, fmt.Errorf("color %q: channel value %d outside 0-255", name, c)
		}
	}
	return vision.HSV{H: uint8(v[0]), S: uint8(v[1]), V: uint8(v[2])}, nil
}

func agentModel(config *cloud.Config, clients *cloud.ServiceClients) (*cloud.QuotaAwareGenerativeAIModel, error) {
	if clients == nil {
		return nil, fmt.Errorf("agent model %q requested without cloud clients", config.Vision.AgentModel)
	}
	m, ok := clients.AgentModels[config.Vision.AgentModel]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", config.Vision.AgentModel)
	}
	return m, nil
}

// NewDetector selects the detector named by vision.detector.
func NewDetector(config *cloud.Config, clients *cloud.ServiceClients) (vision.Detector, error) {
	switch config.Vision.Detector {
	case "", "none":
		return inference.NoopDetector{}, nil
	case "gemini":
		m, err := agentModel(config, clients)
		if err != nil {
			return nil, err
		}
		return inference.NewGeminiDetector(m, config.PromptTemplates.DetectionPrompt), nil
	default:
		return nil, fmt.Errorf("unknown detector %q", config.Vision.Detector)
	}
}

// NewCaptioner selects the captioner named by vision.captioner.
func NewCaptioner(config *cloud.Config, clients *cloud.ServiceClients) (vision.Captioner, error) {
	switch config.Vision.Captioner {
	case "", "static":
		return inference.StaticCaptioner(config.Vision.StaticCaption), nil
	case "gemini":
		m, err := agentModel(config, clients)
		if err != nil {
			return nil, err
		}
		return inference.NewGeminiCaptioner(m, config.PromptTemplates.CaptionPrompt), nil
	case "openai":
		if config.OpenAI.Model == "" {
			return nil, fmt.Errorf("openai captioner needs openai.model")
		}
		return inference.NewOpenAICaptioner(inference.NewOpenAIClient(config.OpenAI), config.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown captioner %q", config.Vision.Captioner)
	}
}

// NewFrameTagger wires the detector, captioner and palette.
func NewFrameTagger(config *cloud.Config, clients *cloud.ServiceClients) (*vision.FrameTagger, error) {
	detector, err := NewDetector(config, clients)
	if err != nil {
		return nil, err
	}
	captioner, err := NewCaptioner(config, clients)
	if err != nil {
		return nil, err
	}
	palette, err := NewPalette(config.Vision.Palette)
	if err != nil {
		return nil, err
	}
	colors := vision.NewColorClassifier(palette, config.Vision.MatchPercent)
	return vision.NewFrameTagger(detector, captioner, colors, vision.WithMinConfidence(config.Vision.MinConfidence)), nil
}

// NewSampler builds the ffmpeg backed sampler.
func NewSampler(config *cloud.Config, clients *cloud.ServiceClients) (*vision.Sampler, error) {
	tagger, err := NewFrameTagger(config, clients)
	if err != nil {
		return nil, err
	}
	opener := video.NewFFmpegOpener(config.Vision.FFmpegPath, config.Vision.FFProbePath, config.Vision.MaxFrames)
	if config.Vision.Width > 0 && config.Vision.Height > 0 {
		opener.Width, opener.Height = config.Vision.Width, config.Vision.Height
	}
	return vision.NewSampler(opener, tagger,
		vision.WithMaxFrames(config.Vision.MaxFrames),
		vision.WithWorkingSize(config.Vision.Width, config.Vision.Height),
	), nil
}

// NewTagStore opens the metadata backend named by metadata.backend. The
// store is not loaded yet.
func NewTagStore(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (TagStore, error) {
	switch config.Metadata.Backend {
	case "", "json":
		return NewJSONTagStore(config.Metadata.File), nil
	case "postgres":
		pool, err := NewPostgresPool(ctx, config.Metadata)
		if err != nil {
			return nil, err
		}
		return NewPostgresTagStore(pool), nil
	case "bigquery":
		if clients == nil || clients.BiqQueryClient == nil {
			return nil, fmt.Errorf("bigquery backend needs a bigquery client")
		}
		return NewBigQueryTagStore(clients.BiqQueryClient, config.Metadata.Dataset, config.Metadata.Table), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", config.Metadata.Backend)
	}
}

// NewVideoStore opens the file backend named by storage.backend.
func NewVideoStore(config *cloud.Config, clients *cloud.ServiceClients) (VideoStore, error) {
	switch config.Storage.Backend {
	case "", "local":
		return NewLocalVideoStore(config.Storage.VideoDir)
	case "gcs":
		if clients == nil || clients.StorageClient == nil {
			return nil, fmt.Errorf("gcs backend needs a storage client")
		}
		store := NewGCSVideoStore(clients.StorageClient, clients.IAMClient,
			config.Application.SignerServiceAccountEmail, config.Storage.Bucket,
			time.Duration(config.Storage.SignedURLTTLMinutes)*time.Minute)
		store.TempDir = config.Storage.TempDir
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
}
