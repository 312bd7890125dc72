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

// Package commands holds the Chain of Responsibility steps used by the
// bucket-triggered tagging workflow.
//
// Logic Flow:
//  1. VideoTriggerToGCSObject parses the Cloud Storage notification that
//     Pub/Sub delivers and keeps only bucket, object name and content type.
//  2. GCSToTempFile downloads the object into a local temporary file.
//  3. VideoTagger samples the file and stores the tags under the object's
//     base name.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
)

// VideoTriggerToGCSObject turns a raw notification into a *cloud.GCSObject.
// Objects that are not videos produce no output, so the rest of the chain
// is skipped without an error.
type VideoTriggerToGCSObject struct {
	cor.BaseCommand
}

func NewVideoTriggerToGCSObject(name string) *VideoTriggerToGCSObject {
	return &VideoTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *VideoTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("expected a notification string, got %T", context.Get(c.GetInputParam())))
		return
	}

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if out.Bucket == "" || out.Name == "" {
		c.Fail(context, fmt.Errorf("notification without bucket or object name"))
		return
	}

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	c.Succeed(context)

	if !msg.IsVideo() {
		slog.InfoContext(context.GetContext(), "ignoring non-video object", "object", msg.URI(), "content_type", msg.MIMEType)
		return
	}
	context.Add(c.GetOutputParam(), msg)
}
