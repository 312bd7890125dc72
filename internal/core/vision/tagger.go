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
	"fmt"
	"image"
	"strings"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"golang.org/x/image/draw"
)

// FrameTagger turns one frame into tag tokens: an "<object> <color>" token per
// detection plus every word of the frame's caption.
type FrameTagger struct {
	detector      Detector
	captioner     Captioner
	colors        *ColorClassifier
	minConfidence float64
}

// TaggerOption customises a FrameTagger.
type TaggerOption func(*FrameTagger)

// WithMinConfidence drops detections below threshold. The default of zero
// keeps every detection the model returns.
func WithMinConfidence(threshold float64) TaggerOption {
	return func(t *FrameTagger) {
		t.minConfidence = threshold
	}
}

// NewFrameTagger wires the two model boundaries and a color classifier.
func NewFrameTagger(detector Detector, captioner Captioner, colors *ColorClassifier, opts ...TaggerOption) *FrameTagger {
	if colors == nil {
		colors = NewColorClassifier(nil, 0)
	}
	t := &FrameTagger{detector: detector, captioner: captioner, colors: colors}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tag adds the frame's tokens to set. Model errors are returned unchanged in
// meaning, wrapped with the stage that failed.
func (t *FrameTagger) Tag(ctx context.Context, frame image.Image, set *model.TagSet) error {
	detections, err := t.detector.Detect(ctx, frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	for _, d := range detections {
		if d.Confidence < t.minConfidence {
			continue
		}
		color := t.colors.Classify(crop(frame, d.Box))
		set.Add(ObjectToken(d.Label, color))
	}

	caption, err := t.captioner.Caption(ctx, frame)
	if err != nil {
		return fmt.Errorf("caption: %w", err)
	}
	set.AddAll(CaptionWords(caption)...)
	return nil
}

// ObjectToken builds "<label> <color>", or just the label for Unknown.
func ObjectToken(label, color string) string {
	label = strings.TrimSpace(label)
	if color == Unknown || color == "" {
		return model.NormalizeTag(label)
	}
	return model.NormalizeTag(label + " " + color)
}

// CaptionWords lowercases a caption and splits it on whitespace. Punctuation
// stays attached to its word and no stopwords are removed.
func CaptionWords(caption string) []string {
	return strings.Fields(strings.ToLower(caption))
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// crop returns the part of frame inside box, clamped to the frame bounds. The
// result may be empty.
func crop(frame image.Image, box model.BoundingBox) image.Image {
	r := box.Rect().Intersect(frame.Bounds())
	if r.Empty() {
		return image.NewRGBA(image.Rectangle{})
	}
	if si, ok := frame.(subImager); ok {
		return si.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), frame, r.Min, draw.Src)
	return out
}
