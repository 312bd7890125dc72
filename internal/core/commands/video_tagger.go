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

package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// FileTagger tags a local file and stores the result under name.
// *services.TaggingService implements it.
type FileTagger interface {
	TagFileAs(ctx context.Context, name, path string) (*model.TaggingResult, error)
}

// VideoTagger tags the local file in its input and outputs the
// *model.TaggingResult. The record is named after the triggering object's
// base name, falling back to the file name.
type VideoTagger struct {
	cor.BaseCommand
	tagger FileTagger
}

func NewVideoTagger(name string, tagger FileTagger) *VideoTagger {
	return &VideoTagger{BaseCommand: *cor.NewBaseCommand(name), tagger: tagger}
}

func (c *VideoTagger) Execute(context cor.Context) {
	path, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("expected a file path, got %T", context.Get(c.GetInputParam())))
		return
	}

	name := filepath.Base(path)
	if obj, ok := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject); ok && obj != nil {
		name = obj.BaseName()
	}

	res, err := c.tagger.TagFileAs(context.GetContext(), name, path)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), res)
}
