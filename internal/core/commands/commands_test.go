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

package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-tagging/internal/cloud"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-tagging/internal/testutil"
)

func newContext(in interface{}) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, in)
	return chainCtx
}

func TestVideoTriggerToGCSObject(t *testing.T) {
	tests := []struct {
		name       string
		message    interface{}
		wantErr    bool
		wantOutput *cloud.GCSObject
		wantObject *cloud.GCSObject
	}{
		{
			name:    "video upload",
			message: test.GetTestUploadMessageText(),
			wantOutput: &cloud.GCSObject{
				Bucket: "video_tagging_uploads", Name: "clips/street-001.mp4", MIMEType: "video/mp4",
			},
			wantObject: &cloud.GCSObject{
				Bucket: "video_tagging_uploads", Name: "clips/street-001.mp4", MIMEType: "video/mp4",
			},
		},
		{
			name:    "non-video object is recorded but not forwarded",
			message: test.GetTestNonVideoMessageText(),
			wantObject: &cloud.GCSObject{
				Bucket: "video_tagging_uploads", Name: "clips/readme.txt", MIMEType: "text/plain",
			},
		},
		{name: "malformed json", message: "{not json", wantErr: true},
		{name: "missing object name", message: `{"bucket":"b","contentType":"video/mp4"}`, wantErr: true},
		{name: "wrong input type", message: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := commands.NewVideoTriggerToGCSObject("trigger")
			chainCtx := newContext(tt.message)
			cmd.Execute(chainCtx)

			assert.Equal(t, tt.wantErr, chainCtx.HasErrors())
			if tt.wantOutput == nil {
				assert.Nil(t, chainCtx.Get(cor.CtxOut))
			} else {
				assert.Equal(t, tt.wantOutput, chainCtx.Get(cor.CtxOut))
			}
			if tt.wantObject == nil {
				assert.Nil(t, chainCtx.Get(cloud.GetGCSObjectName()))
			} else {
				assert.Equal(t, tt.wantObject, chainCtx.Get(cloud.GetGCSObjectName()))
			}
		})
	}
}

type fakeBucket struct {
	objects map[string][]byte
	opened  []string
}

func (b *fakeBucket) open(_ context.Context, bucket, object string) (io.ReadCloser, error) {
	b.opened = append(b.opened, bucket+"/"+object)
	data, ok := b.objects[object]
	if !ok {
		return nil, errors.New("storage: object doesn't exist")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestGCSToTempFile(t *testing.T) {
	dir := t.TempDir()
	bucket := &fakeBucket{objects: map[string][]byte{"clips/street-001.mp4": test.FakeMP4(2048)}}
	cmd := commands.NewGCSToTempFile("download", bucket.open, dir, "tagging-")

	chainCtx := newContext(&cloud.GCSObject{Bucket: "uploads", Name: "clips/street-001.mp4", MIMEType: "video/mp4"})
	cmd.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors(), "%v", chainCtx.Err())

	path, ok := chainCtx.Get(cor.CtxOut).(string)
	require.True(t, ok)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "tagging-"))
	assert.Equal(t, ".mp4", filepath.Ext(path))
	assert.Equal(t, []string{"uploads/clips/street-001.mp4"}, bucket.opened)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, test.FakeMP4(2048), data)

	assert.Equal(t, []string{path}, chainCtx.GetTempFiles())
	chainCtx.Close()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGCSToTempFileMissingObject(t *testing.T) {
	bucket := &fakeBucket{}
	cmd := commands.NewGCSToTempFile("download", bucket.open, t.TempDir(), "tagging-")

	chainCtx := newContext(&cloud.GCSObject{Bucket: "uploads", Name: "gone.mp4"})
	cmd.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
	assert.Empty(t, chainCtx.GetTempFiles())
}

type recordingTagger struct {
	names []string
	paths []string
	err   error
}

func (r *recordingTagger) TagFileAs(_ context.Context, name, path string) (*model.TaggingResult, error) {
	r.names = append(r.names, name)
	r.paths = append(r.paths, path)
	if r.err != nil {
		return nil, r.err
	}
	return &model.TaggingResult{Name: name, Tags: []string{"car"}}, nil
}

func TestVideoTagger(t *testing.T) {
	tagger := &recordingTagger{}
	cmd := commands.NewVideoTagger("tag", tagger)

	chainCtx := newContext("/tmp/tagging-123.mp4")
	chainCtx.Add(cloud.GetGCSObjectName(), &cloud.GCSObject{Bucket: "b", Name: "clips/street-001.mp4"})
	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.Equal(t, []string{"street-001.mp4"}, tagger.names)
	assert.Equal(t, []string{"/tmp/tagging-123.mp4"}, tagger.paths)
	assert.Equal(t, &model.TaggingResult{Name: "street-001.mp4", Tags: []string{"car"}}, chainCtx.Get(cor.CtxOut))

	// Without a triggering object the file name is used.
	chainCtx = newContext("/tmp/local.mp4")
	cmd.Execute(chainCtx)
	assert.Equal(t, "local.mp4", tagger.names[1])

	tagger.err = test.ErrModelUnavailable
	chainCtx = newContext("/tmp/local.mp4")
	cmd.Execute(chainCtx)
	assert.ErrorIs(t, chainCtx.Err(), test.ErrModelUnavailable)
}
