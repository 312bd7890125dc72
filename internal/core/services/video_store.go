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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// sniffLen is the header size filetype needs to match every known type.
const sniffLen = 262

// VideoStore keeps uploaded video files.
type VideoStore interface {
	// Save stores src under name. The returned video has a local path the
	// sampler can read until Release is called.
	Save(ctx context.Context, name string, src io.Reader) (*StoredVideo, error)
	// Locate tells where a stored video can be downloaded from, or returns
	// ErrVideoNotFound.
	Locate(ctx context.Context, name string) (*VideoLocation, error)
}

// StoredVideo is the result of VideoStore.Save.
type StoredVideo struct {
	Name        string
	Path        string // Local file holding the video.
	ContentType string
	Size        int64
	release     func()
}

// Release drops local resources held for processing. Safe to call twice.
func (v *StoredVideo) Release() {
	if v.release != nil {
		v.release()
		v.release = nil
	}
}

// VideoLocation points to a stored video: a local Path or a download URL.
type VideoLocation struct {
	Path string
	URL  string
}

// DefaultContentType is reported for uploads filetype does not recognize.
const DefaultContentType = "application/octet-stream"

// SniffContentType reads the head of src and reports its MIME type and
// whether it looks like a video. Unknown content is not an error: ffmpeg
// decodes streams filetype has no signature for, and an unreadable file
// ends up with an empty tag set. The returned reader replays the consumed
// bytes.
func SniffContentType(src io.Reader) (contentType string, isVideo bool, out io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", false, nil, err
	}
	head = head[:n]
	out = io.MultiReader(bytes.NewReader(head), src)

	kind, err := filetype.Match(head)
	if err != nil || kind.MIME.Value == "" {
		return DefaultContentType, false, out, nil
	}
	return kind.MIME.Value, filetype.IsVideo(head), out, nil
}

// sniffUpload wraps SniffContentType and warns about uploads that do not
// look like a video.
func sniffUpload(ctx context.Context, name string, src io.Reader) (string, io.Reader, error) {
	contentType, isVideo, out, err := SniffContentType(src)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	if !isVideo {
		slog.WarnContext(ctx, "upload is not a recognized video, storing it anyway", "name", name, "content_type", contentType)
	}
	return contentType, out, nil
}

// LocalVideoStore keeps videos in a directory, the way the service always
// has: the file stays there after processing.
type LocalVideoStore struct {
	dir string
}

func NewLocalVideoStore(dir string) (*LocalVideoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create video directory %s: %w", dir, err)
	}
	return &LocalVideoStore{dir: dir}, nil
}

func (s *LocalVideoStore) Dir() string {
	return s.dir
}

func (s *LocalVideoStore) Save(ctx context.Context, name string, src io.Reader) (*StoredVideo, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	contentType, src, err := sniffUpload(ctx, name, src)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := io.Copy(tmp, src)
	if err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write upload %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write upload %s: %w", name, err)
	}
	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("failed to store upload %s: %w", name, err)
	}
	slog.InfoContext(ctx, "stored video", "name", name, "path", target, "bytes", written, "content_type", contentType)
	return &StoredVideo{Name: name, Path: target, ContentType: contentType, Size: written}, nil
}

func (s *LocalVideoStore) Locate(_ context.Context, name string) (*VideoLocation, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &VideoLocation{Path: path}, nil
}
