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

// Package model holds the data types shared by the tagging pipeline, the
// metadata stores and the HTTP layer. Types in this file are transient: they
// are produced while a video is processed and are never persisted.
package model

import "image"

// BoundingBox is an axis-aligned box in frame pixel coordinates.
// A well formed box satisfies X1 <= X2 and Y1 <= Y2.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewBoundingBox builds a box from two corners in any order.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Rect converts the box to an image.Rectangle. The upper corner is exclusive,
// matching slice semantics for cropping.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Detection is a single object found in a frame by a Detector.
type Detection struct {
	Label      string      `json:"label"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// TaggingResult is the outcome of running the sampler over one video.
type TaggingResult struct {
	Name         string   // Identifier of the video, usually the file name.
	Tags         []string // Tag tokens in first-seen order.
	FramesTotal  int      // Frame count reported by the container.
	FramesTagged int      // Frames that were decoded and tagged.
}
