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

// Package video decodes video files into a stream of frames. Decoding is
// delegated to the ffmpeg and ffprobe executables; frames come back as raw
// rgb24 over a pipe and are exposed as image.Image values.
package video

import (
	"context"
	"image"
)

// FrameSource yields decoded frames in presentation order.
type FrameSource interface {
	// FrameCount is the total number of frames the container reports.
	FrameCount() int
	// Next returns the next frame. Any error ends the stream; io.EOF means the
	// decoder simply ran out of frames.
	Next() (image.Image, error)
	// Close releases the decoder.
	Close() error
}

// Opener opens a FrameSource for a file on the local filesystem.
type Opener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}
