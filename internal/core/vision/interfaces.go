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

package vision

import (
	"context"
	"image"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// Detector finds objects in a frame. Boxes must be in the pixel space of the
// frame passed in.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]model.Detection, error)
}

// Captioner describes a frame with one free-text sentence.
type Captioner interface {
	Caption(ctx context.Context, frame image.Image) (string, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame image.Image) ([]model.Detection, error)

func (f DetectorFunc) Detect(ctx context.Context, frame image.Image) ([]model.Detection, error) {
	return f(ctx, frame)
}

// CaptionerFunc adapts a function to the Captioner interface.
type CaptionerFunc func(ctx context.Context, frame image.Image) (string, error)

func (f CaptionerFunc) Caption(ctx context.Context, frame image.Image) (string, error) {
	return f(ctx, frame)
}
