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
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

const (
	DefaultFFmpegPath = "ffmpeg"
	DefaultWidth      = 640
	DefaultHeight     = 360
)

// FFmpegOpener decodes files by piping `ffmpeg -f rawvideo -pix_fmt rgb24`.
// Frames are scaled by ffmpeg to Width x Height, and at most MaxFrames are
// decoded when MaxFrames is positive.
type FFmpegOpener struct {
	FFmpegPath string
	Probe      *FFProbe
	Width      int
	Height     int
	MaxFrames  int
}

// NewFFmpegOpener returns an opener using the default 640x360 working size.
func NewFFmpegOpener(ffmpegPath, ffprobePath string, maxFrames int) *FFmpegOpener {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	return &FFmpegOpener{
		FFmpegPath: ffmpegPath,
		Probe:      NewFFProbe(ffprobePath),
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		MaxFrames:  maxFrames,
	}
}

func (o *FFmpegOpener) args(path string) []string {
	args := []string{"-v", "error", "-nostdin", "-i", path}
	if o.MaxFrames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(o.MaxFrames))
	}
	return append(args,
		"-vf", fmt.Sprintf("scale=%d:%d", o.Width, o.Height),
		"-f", "rawvideo", "-pix_fmt", "rgb24", "pipe:1")
}

// Open probes the file and starts the decoder. The returned source must be
// closed to reap the ffmpeg process.
func (o *FFmpegOpener) Open(ctx context.Context, path string) (FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	info, err := o.Probe.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	return o.start(ctx, o.FFmpegPath, o.args(path), path, info.Frames)
}

// start runs name with args and reads rgb24 frames from its stdout.
func (o *FFmpegOpener) start(ctx context.Context, name string, args []string, path string, frames int) (*ffmpegSource, error) {
	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	reader, err := NewRawFrameReader(stdout, o.Width, o.Height)
	if err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, err
	}
	return &ffmpegSource{
		cmd:     cmd,
		procCtx: procCtx,
		cancel:  cancel,
		stderr:  stderr,
		reader:  reader,
		frames:  frames,
		path:    path,
	}, nil
}

type ffmpegSource struct {
	cmd     *exec.Cmd
	procCtx context.Context
	cancel  context.CancelFunc
	stderr  *bytes.Buffer
	reader  *RawFrameReader
	frames  int
	path    string
	drained bool // ffmpeg closed its output
}

func (s *ffmpegSource) FrameCount() int {
	return s.frames
}

func (s *ffmpegSource) Next() (image.Image, error) {
	frame, err := s.reader.Next()
	if err != nil {
		s.drained = true
	}
	return frame, err
}

// Close reaps ffmpeg. A decoder that is still writing frames nobody will
// read is killed, and so is one whose context was cancelled; their exit
// status is ignored. Any other non-zero exit is a decoder failure.
func (s *ffmpegSource) Close() error {
	if !s.drained {
		s.cancel()
	}
	err := s.cmd.Wait()
	killed := s.procCtx.Err() != nil
	s.cancel()
	if err == nil {
		if s.stderr.Len() > 0 {
			slog.Debug("ffmpeg stderr", "path", s.path, "output", s.stderr.String())
		}
		return nil
	}
	if killed {
		return nil
	}
	slog.Warn("ffmpeg failed", "path", s.path, "error", err, "stderr", s.stderr.String())
	return fmt.Errorf("ffmpeg %s: %w", s.path, err)
}
