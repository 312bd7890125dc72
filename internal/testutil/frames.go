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

package test

import (
	"context"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/video"
)

var (
	Red   = color.RGBA{R: 255, A: 255}
	Green = color.RGBA{G: 255, A: 255}
	Blue  = color.RGBA{B: 255, A: 255}
	Gray  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// SolidFrame returns a width x height frame filled with c.
func SolidFrame(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	FillRect(img, img.Bounds(), c)
	return img
}

// FillRect paints r (clipped to img) with c.
func FillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// RepeatFrames returns n references to frame.
func RepeatFrames(frame image.Image, n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = frame
	}
	return out
}

// FakeFrameSource serves frames from memory.
type FakeFrameSource struct {
	Frames  []image.Image
	Count   int   // Reported frame count.
	FailAt  int   // Index whose read returns ReadErr.
	ReadErr error // Nil disables the failure.

	mu     sync.Mutex
	next   int
	reads  int
	closed bool
}

// NewFakeFrameSource reports len(frames) as its frame count.
func NewFakeFrameSource(frames []image.Image) *FakeFrameSource {
	return &FakeFrameSource{Frames: frames, Count: len(frames)}
}

func (f *FakeFrameSource) FrameCount() int {
	return f.Count
}

func (f *FakeFrameSource) Next() (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.ReadErr != nil && f.next == f.FailAt {
		return nil, f.ReadErr
	}
	if f.next >= len(f.Frames) {
		return nil, io.EOF
	}
	frame := f.Frames[f.next]
	f.next++
	return frame, nil
}

func (f *FakeFrameSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Reads is the number of Next calls.
func (f *FakeFrameSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *FakeFrameSource) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeOpener hands out Source, or fails with Err.
type FakeOpener struct {
	Source video.FrameSource
	Err    error

	mu     sync.Mutex
	opened []string
}

func (o *FakeOpener) Open(_ context.Context, path string) (video.FrameSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, path)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Source, nil
}

// Opened lists the paths passed to Open.
func (o *FakeOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}
