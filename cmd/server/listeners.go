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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/workflow"
)

// UploadTopic is the subscription key whose messages trigger bucket tagging.
const UploadTopic = "UploadTopic"

// SetupListeners attaches the tagging workflow to the upload subscription and
// starts receiving. Without that subscription nothing is started.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, tagger commands.FileTagger) error {
	listener, ok := cloudClients.PubSubListeners[UploadTopic]
	if !ok {
		slog.Info("no upload subscription configured, bucket tagging disabled")
		return nil
	}
	videoTagging, err := workflow.NewVideoTaggingPipeline(config, cloudClients, tagger)
	if err != nil {
		return err
	}
	listener.SetCommand(videoTagging)
	listener.Listen(ctx)
	return nil
}
