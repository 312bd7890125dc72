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

package inference

import (
	"context"
	"image"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// StaticCaptioner returns the same caption for every frame.
type StaticCaptioner string

func (s StaticCaptioner) Caption(context.Context, image.Image) (string, error) {
	return string(s), nil
}

// NoopDetector never finds anything.
type NoopDetector struct{}

func (NoopDetector) Detect(context.Context, image.Image) ([]model.Detection, error) {
	return nil, nil
}
