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

package video

import (
	"fmt"
	"image"
	"io"
)

// RawFrameReader decodes packed rgb24 frames of a fixed size from a reader,
// which is what ffmpeg writes for `-f rawvideo -pix_fmt rgb24`.
type RawFrameReader struct {
	r      io.Reader
	width  int
	height int
	buf    []byte
}

// NewRawFrameReader returns a reader for frames of width x height pixels.
func NewRawFrameReader(r io.Reader, width, height int) (*RawFrameReader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	return &RawFrameReader{r: r, width: width, height: height, buf: make([]byte, width*height*3)}, nil
}

// FrameSize is the number of bytes per frame.
func (f *RawFrameReader) FrameSize() int {
	return len(f.buf)
}

// Next reads exactly one frame. A stream that ends on a frame boundary yields
// io.EOF, a truncated frame yields io.ErrUnexpectedEOF.
func (f *RawFrameReader) Next() (image.Image, error) {
	if _, err := io.ReadFull(f.r, f.buf); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for src, dst := 0, 0; src < len(f.buf); src, dst = src+3, dst+4 {
		img.Pix[dst] = f.buf[src]
		img.Pix[dst+1] = f.buf[src+1]
		img.Pix[dst+2] = f.buf[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img, nil
}
