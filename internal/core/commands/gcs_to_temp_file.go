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
	"io"
	"log/slog"
	"os"
	"path"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
)

// ObjectOpener opens a bucket object for reading.
type ObjectOpener func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// StorageObjectOpener reads objects through a Cloud Storage client.
func StorageObjectOpener(client *storage.Client) ObjectOpener {
	return func(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
		return client.Bucket(bucket).Object(object).NewReader(ctx)
	}
}

// GCSToTempFile downloads the *cloud.GCSObject in its input to a temporary
// file and outputs the file path. The file is registered with the context
// so it is removed when the context is closed.
type GCSToTempFile struct {
	cor.BaseCommand
	open           ObjectOpener
	tempDir        string
	tempFilePrefix string
}

// NewGCSToTempFile creates the command. An empty tempDir uses the OS default.
func NewGCSToTempFile(name string, open ObjectOpener, tempDir, tempFilePrefix string) *GCSToTempFile {
	return &GCSToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		open:           open,
		tempDir:        tempDir,
		tempFilePrefix: tempFilePrefix,
	}
}

func (c *GCSToTempFile) Execute(context cor.Context) {
	msg, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, fmt.Errorf("expected *cloud.GCSObject, got %T", context.Get(c.GetInputParam())))
		return
	}

	reader, err := c.open(context.GetContext(), msg.Bucket, msg.Name)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to create GCS reader for %s: %w", msg.URI(), err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.WarnContext(context.GetContext(), "failed to close GCS reader", "object", msg.URI(), "error", err)
		}
	}()

	// Keep the extension so the decoder can use it as a format hint.
	tempFile, err := os.CreateTemp(c.tempDir, c.tempFilePrefix+"*"+path.Ext(msg.Name))
	if err != nil {
		c.Fail(context, fmt.Errorf("could not create temp file: %w", err))
		return
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		_ = tempFile.Close()
		c.Fail(context, fmt.Errorf("failed to copy %s after %d bytes: %w", msg.URI(), written, err))
		return
	}
	if err := tempFile.Close(); err != nil {
		c.Fail(context, fmt.Errorf("failed to flush %s: %w", tempFile.Name(), err))
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "downloaded object",
		"object", msg.URI(), "file", tempFile.Name(), "bytes", written)
	context.Add(c.GetOutputParam(), tempFile.Name())
}
