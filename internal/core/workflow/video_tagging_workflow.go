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

// Package workflow assembles commands into the chains run by the Pub/Sub
// listeners.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
)

// VideoTaggingWorkflow tags videos finalized in a watched bucket:
// parse the notification, download the object, tag it and store the result.
// Notifications for non-video objects end the chain early without an error.
type VideoTaggingWorkflow struct {
	cor.BaseCommand
	open    commands.ObjectOpener
	tagger  commands.FileTagger
	tempDir string
	chain   cor.Chain
}

func (w *VideoTaggingWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *VideoTaggingWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewVideoTriggerToGCSObject("video-trigger-to-gcs-object"))
	out.AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", w.open, w.tempDir, "video-tagging-"))
	out.AddCommand(commands.NewVideoTagger("tag-video", w.tagger))
	w.chain = out
}

// NewVideoTaggingWorkflow builds the chain from its collaborators.
func NewVideoTaggingWorkflow(open commands.ObjectOpener, tagger commands.FileTagger, tempDir string) *VideoTaggingWorkflow {
	w := &VideoTaggingWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-tagging-workflow"),
		open:        open,
		tagger:      tagger,
		tempDir:     tempDir,
	}
	w.initializeChain()
	return w
}

// NewVideoTaggingPipeline wires the workflow to the Cloud Storage client.
func NewVideoTaggingPipeline(config *cloud.Config, serviceClients *cloud.ServiceClients, tagger commands.FileTagger) (*VideoTaggingWorkflow, error) {
	if serviceClients == nil || serviceClients.StorageClient == nil {
		return nil, fmt.Errorf("video tagging workflow needs a storage client")
	}
	return NewVideoTaggingWorkflow(commands.StorageObjectOpener(serviceClients.StorageClient), tagger, config.Storage.TempDir), nil
}
