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
	"bytes"
	"context"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawFrameReader(t *testing.T) {
	// Two 2x1 frames: red|green, then blue|white, then a truncated third frame.
	data := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 255,
		1, 2, 3,
	}
	r, err := NewRawFrameReader(bytes.NewReader(data), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, r.FrameSize())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), first.Bounds())
	rgba := first.(*image.RGBA)
	assert.Equal(t, []uint8{255, 0, 0, 255, 0, 255, 0, 255}, rgba.Pix)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 255, 255, 255, 255, 255, 255}, second.(*image.RGBA).Pix)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRawFrameReaderEOF(t *testing.T) {
	r, err := NewRawFrameReader(bytes.NewReader(nil), 4, 4)
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRawFrameReaderRejectsBadSize(t *testing.T) {
	_, err := NewRawFrameReader(bytes.NewReader(nil), 0, 360)
	assert.Error(t, err)
}

func TestParseProbeOutput(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    *Info
		wantErr error
	}{
		{
			name: "nb_frames present",
			in:   `{"programs":[],"streams":[{"width":1920,"height":1080,"nb_frames":"45"}]}`,
			want: &Info{Width: 1920, Height: 1080, Frames: 45},
		},
		{
			name: "counted packets",
			in:   `{"streams":[{"width":640,"height":360,"nb_frames":"N/A","nb_read_packets":"12"}]}`,
			want: &Info{Width: 640, Height: 360, Frames: 12},
		},
		{
			name: "unknown count",
			in:   `{"streams":[{"width":640,"height":360}]}`,
			want: &Info{Width: 640, Height: 360},
		},
		{
			name:    "no stream",
			in:      `{"streams":[]}`,
			wantErr: ErrNoVideoStream,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeOutput([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProbeOutputMalformed(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestFFmpegArgs(t *testing.T) {
	o := NewFFmpegOpener("", "", 30)
	assert.Equal(t, DefaultFFmpegPath, o.FFmpegPath)
	assert.Equal(t, DefaultFFProbePath, o.Probe.Path)
	assert.Equal(t, []string{
		"-v", "error", "-nostdin", "-i", "clip.mp4",
		"-frames:v", "30",
		"-vf", "scale=640:360",
		"-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1",
	}, o.args("clip.mp4"))
}

func TestFFmpegOpenMissingFile(t *testing.T) {
	o := NewFFmpegOpener("", "", 30)
	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}

// startShell runs a shell script in place of ffmpeg, emitting 2x1 frames.
func startShell(t *testing.T, script string) *ffmpegSource {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	o := &FFmpegOpener{Width: 2, Height: 1}
	src, err := o.start(context.Background(), sh, []string{"-c", script}, "clip.mp4", 1)
	require.NoError(t, err)
	return src
}

func TestFFmpegSourceClose(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		drain   bool
		wantErr bool
	}{
		{name: "clean exit", script: "printf abcdef", drain: true},
		{name: "decoder failure", script: "printf abcdef; echo 'invalid data' >&2; exit 3", drain: true, wantErr: true},
		{name: "stopped early", script: "while :; do printf abcdef; done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := startShell(t, tt.script)
			_, err := src.Next()
			require.NoError(t, err)
			if tt.drain {
				_, err = src.Next()
				assert.ErrorIs(t, err, io.EOF)
			}
			err = src.Close()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
