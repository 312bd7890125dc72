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
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// Processor turns a local video file into tags. *vision.Sampler implements it.
type Processor interface {
	Process(ctx context.Context, path string) (*model.TaggingResult, error)
}

// TaggingService runs the upload flow: store the file, sample it, persist the
// tags under the upload name.
type TaggingService struct {
	Videos    VideoStore
	Tags      TagStore
	Processor Processor
	Timeout   time.Duration // Bound for one Process call, zero for none.

	tracer trace.Tracer
}

func NewTaggingService(videos VideoStore, tags TagStore, processor Processor, timeout time.Duration) *TaggingService {
	return &TaggingService{
		Videos:    videos,
		Tags:      tags,
		Processor: processor,
		Timeout:   timeout,
		tracer:    otel.Tracer("tagging-service"),
	}
}

// TagUpload stores an uploaded file and tags it. The store is only updated
// when processing succeeds.
func (s *TaggingService) TagUpload(ctx context.Context, name string, src io.Reader) (_ *model.TaggingResult, err error) {
	ctx, span := s.tracer.Start(ctx, "tag-upload")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload failed")
		}
	}()

	stored, err := s.Videos.Save(ctx, name, src)
	if err != nil {
		return nil, err
	}
	defer stored.Release()
	span.SetAttributes(attribute.String("video.name", stored.Name), attribute.Int64("video.bytes", stored.Size))

	return s.tag(ctx, stored.Name, stored.Path)
}

// TagFile tags a video that is already on local disk and stores the result
// under the file's base name.
func (s *TaggingService) TagFile(ctx context.Context, path string) (*model.TaggingResult, error) {
	return s.TagFileAs(ctx, filepath.Base(path), path)
}

// TagFileAs tags a local file and stores the result under name.
func (s *TaggingService) TagFileAs(ctx context.Context, name, path string) (*model.TaggingResult, error) {
	ctx, span := s.tracer.Start(ctx, "tag-file")
	defer span.End()
	span.SetAttributes(attribute.String("video.name", name))

	res, err := s.tag(ctx, name, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tagging failed")
	}
	return res, err
}

func (s *TaggingService) tag(ctx context.Context, name, path string) (*model.TaggingResult, error) {
	processCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		processCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.Processor.Process(processCtx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", name, err)
	}
	res.Name = name

	if err := s.Tags.Upsert(ctx, name, res.Tags); err != nil {
		return nil, fmt.Errorf("failed to store tags of %s: %w", name, err)
	}
	slog.InfoContext(ctx, "tagged video",
		"name", name,
		"tags", len(res.Tags),
		"frames_tagged", res.FramesTagged,
		"frames_total", res.FramesTotal,
		"elapsed", time.Since(start).String())
	return res, nil
}
