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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// boxScale is the range Gemini normalizes box_2d coordinates to.
const boxScale = 1000

type rawDetection struct {
	Label      string   `json:"label"`
	Box2D      []int    `json:"box_2d"`
	Confidence *float64 `json:"confidence"`
}

// ParseDetections converts a model reply into detections in the pixel space of
// a width x height frame. Entries without a label or a four value box are
// dropped. A missing confidence counts as 1.
func ParseDetections(raw string, width, height int) ([]model.Detection, error) {
	raw = cloud.TrimCodeFence(raw)
	if raw == "" {
		return []model.Detection{}, nil
	}
	var entries []rawDetection
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse detections: %w", err)
	}

	out := make([]model.Detection, 0, len(entries))
	for _, e := range entries {
		label := strings.TrimSpace(e.Label)
		if label == "" || len(e.Box2D) != 4 {
			continue
		}
		ymin, xmin, ymax, xmax := e.Box2D[0], e.Box2D[1], e.Box2D[2], e.Box2D[3]
		box := model.NewBoundingBox(
			scale(xmin, width), scale(ymin, height),
			scale(xmax, width), scale(ymax, height),
		)
		confidence := 1.0
		if e.Confidence != nil {
			confidence = min(max(*e.Confidence, 0), 1)
		}
		out = append(out, model.Detection{Label: label, Box: box, Confidence: confidence})
	}
	return out, nil
}

func scale(v, size int) int {
	v = min(max(v, 0), boxScale)
	return v * size / boxScale
}
