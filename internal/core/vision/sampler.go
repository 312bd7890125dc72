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
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/video"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
)

const (
	// DefaultMaxFrames caps how many frames of a video are analysed.
	DefaultMaxFrames = 30
	DefaultWidth     = 640
	DefaultHeight    = 360

	meterName = "github.com/jaycherian/gcp-go-video-tagging/vision"
)

// Sampler reads the first frames of a video and drives a FrameTagger over
// each one, unioning the tokens into one set.
type Sampler struct {
	opener    video.Opener
	tagger    *FrameTagger
	maxFrames int
	width     int
	height    int

	tracer     trace.Tracer
	frames     metric.Int64Counter
	unopenable metric.Int64Counter
	earlyStops metric.Int64Counter
}

// SamplerOption customises a Sampler.
type SamplerOption func(*Sampler)

// WithMaxFrames overrides DefaultMaxFrames.
func WithMaxFrames(n int) SamplerOption {
	return func(s *Sampler) {
		if n > 0 {
			s.maxFrames = n
		}
	}
}

// WithWorkingSize overrides the 640x360 resolution frames are resized to.
func WithWorkingSize(width, height int) SamplerOption {
	return func(s *Sampler) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

func NewSampler(opener video.Opener, tagger *FrameTagger, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		opener:    opener,
		tagger:    tagger,
		maxFrames: DefaultMaxFrames,
		width:     DefaultWidth,
		height:    DefaultHeight,
		tracer:    otel.Tracer("video-sampler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(meterName)
	var err error
	if s.frames, err = meter.Int64Counter("sampler.frames"); err != nil {
		slog.Warn("failed to create sampler counter", "error", err)
	}
	if s.unopenable, err = meter.Int64Counter("sampler.unopenable"); err != nil {
		slog.Warn("failed to create sampler counter", "error", err)
	}
	if s.earlyStops, err = meter.Int64Counter("sampler.early_stop"); err != nil {
		slog.Warn("failed to create sampler counter", "error", err)
	}
	return s
}

// MaxFrames returns the sampling cap.
func (s *Sampler) MaxFrames() int {
	return s.maxFrames
}

// Process tags the video at path. A video that cannot be opened yields an
// empty result and no error. A frame that fails to decode ends sampling and
// keeps what was gathered so far. Detector and captioner errors abort the
// run.
func (s *Sampler) Process(ctx context.Context, path string) (*model.TaggingResult, error) {
	ctx, span := s.tracer.Start(ctx, "sample-video")
	defer span.End()
	span.SetAttributes(attribute.String("video.path", path))

	result := &model.TaggingResult{Name: filepath.Base(path), Tags: []string{}}

	src, err := s.opener.Open(ctx, path)
	if err != nil {
		slog.WarnContext(ctx, "unable to open video, returning no tags", "path", path, "error", err)
		s.add(ctx, s.unopenable, 1)
		span.SetStatus(codes.Ok, "video not opened")
		return result, nil
	}
	defer func() {
		if err := src.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close frame source", "path", path, "error", err)
		}
	}()

	result.FramesTotal = src.FrameCount()
	n := min(result.FramesTotal, s.maxFrames)
	set := model.NewTagSet()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}
		frame, err := src.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.WarnContext(ctx, "frame read failed, stopping early", "path", path, "frame", i, "error", err)
			}
			s.add(ctx, s.earlyStops, 1)
			break
		}
		if err := s.tagger.Tag(ctx, s.resize(frame), set); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("frame %d of %s: %w", i, result.Name, err)
		}
		result.FramesTagged++
		s.add(ctx, s.frames, 1)
	}

	result.Tags = set.Slice()
	span.SetAttributes(
		attribute.Int("video.frames_total", result.FramesTotal),
		attribute.Int("video.frames_tagged", result.FramesTagged),
		attribute.Int("video.tags", len(result.Tags)),
	)
	span.SetStatus(codes.Ok, "sampled")
	return result, nil
}

// resize scales frame to the working size unless it is already there.
func (s *Sampler) resize(frame image.Image) image.Image {
	b := frame.Bounds()
	if b.Min == (image.Point{}) && b.Dx() == s.width && b.Dy() == s.height {
		return frame
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.BiLinear.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
	return dst
}

func (s *Sampler) add(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}
