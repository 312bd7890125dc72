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

// Package inference adapts hosted vision models to the vision.Detector and
// vision.Captioner interfaces. Frames are sent inline as JPEG.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

const (
	meterName = "github.com/jaycherian/gcp-go-video-tagging/inference"

	JPEGMimeType = "image/jpeg"

	DefaultCaptionPrompt = "Describe this image in one short sentence in plain English. " +
		"Reply with the sentence only."

	DefaultDetectionPrompt = "Detect the prominent objects in this image. Return a JSON array " +
		"where each entry has \"label\" (a short lowercase noun), \"box_2d\" as " +
		"[ymin, xmin, ymax, xmax] normalized to 0-1000 and \"confidence\" between 0 and 1. " +
		"Return [] when there are no objects."
)

// EncodeJPEG encodes a frame for inline upload.
func EncodeJPEG(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// geminiCounters tracks token usage and retries per adapter.
type geminiCounters struct {
	input  metric.Int64Counter
	output metric.Int64Counter
	retry  metric.Int64Counter
}

func newGeminiCounters(prefix string) geminiCounters {
	meter := otel.Meter(meterName)
	var c geminiCounters
	c.input, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.input", prefix))
	c.output, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.output", prefix))
	c.retry, _ = meter.Int64Counter(fmt.Sprintf("%s.gemini.token.retry", prefix))
	return c
}

// GeminiCaptioner captions frames with a Gemini model.
type GeminiCaptioner struct {
	model    *cloud.QuotaAwareGenerativeAIModel
	prompt   string
	counters geminiCounters
}

func NewGeminiCaptioner(model *cloud.QuotaAwareGenerativeAIModel, prompt string) *GeminiCaptioner {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultCaptionPrompt
	}
	return &GeminiCaptioner{model: model, prompt: prompt, counters: newGeminiCounters("captioner")}
}

func (g *GeminiCaptioner) Caption(ctx context.Context, frame image.Image) (string, error) {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return "", err
	}
	out, err := cloud.GenerateMultiModalResponse(ctx, g.counters.input, g.counters.output, g.counters.retry,
		g.model, cloud.NewImageContent(g.prompt, data, JPEGMimeType))
	if err != nil {
		return "", fmt.Errorf("gemini caption request failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// GeminiDetector asks a Gemini model for labelled bounding boxes.
type GeminiDetector struct {
	model    *cloud.QuotaAwareGenerativeAIModel
	prompt   string
	counters geminiCounters
}

func NewGeminiDetector(model *cloud.QuotaAwareGenerativeAIModel, prompt string) *GeminiDetector {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultDetectionPrompt
	}
	return &GeminiDetector{model: model, prompt: prompt, counters: newGeminiCounters("detector")}
}

func (g *GeminiDetector) Detect(ctx context.Context, frame image.Image) ([]model.Detection, error) {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return nil, err
	}
	out, err := cloud.GenerateMultiModalResponse(ctx, g.counters.input, g.counters.output, g.counters.retry,
		g.model, cloud.NewImageContent(g.prompt, data, JPEGMimeType))
	if err != nil {
		return nil, fmt.Errorf("gemini detection request failed: %w", err)
	}
	b := frame.Bounds()
	return ParseDetections(out, b.Dx(), b.Dy())
}
