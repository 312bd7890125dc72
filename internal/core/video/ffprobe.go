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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// DefaultFFProbePath is used when no explicit path is configured.
const DefaultFFProbePath = "ffprobe"

// ErrNoVideoStream is returned when the container has no video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Info describes the first video stream of a file.
type Info struct {
	Width  int
	Height int
	Frames int
}

// FFProbe reads stream information with the ffprobe executable.
type FFProbe struct {
	Path string
}

// NewFFProbe returns a prober that runs the executable at path.
func NewFFProbe(path string) *FFProbe {
	if path == "" {
		path = DefaultFFProbePath
	}
	return &FFProbe{Path: path}
}

// Probe returns the size and frame count of the first video stream. When the
// container does not record nb_frames, packets are counted instead, which
// requires a full demux of the file.
func (p *FFProbe) Probe(ctx context.Context, path string) (*Info, error) {
	out, err := p.run(ctx, path, false)
	if err != nil {
		return nil, err
	}
	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, err
	}
	if info.Frames > 0 {
		return info, nil
	}

	out, err = p.run(ctx, path, true)
	if err != nil {
		return nil, err
	}
	return parseProbeOutput(out)
}

func (p *FFProbe) run(ctx context.Context, path string, countPackets bool) ([]byte, error) {
	args := []string{"-v", "error", "-select_streams", "v:0"}
	if countPackets {
		args = append(args, "-count_packets")
	}
	args = append(args,
		"-show_entries", "stream=width,height,nb_frames,nb_read_packets",
		"-of", "json", path)

	out, err := exec.CommandContext(ctx, p.Path, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return out, nil
}

type probeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

func parseProbeOutput(data []byte) (*Info, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, ErrNoVideoStream
	}
	s := probe.Streams[0]
	info := &Info{Width: s.Width, Height: s.Height}
	for _, raw := range []string{s.NbFrames, s.NbReadPackets} {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			info.Frames = n
			break
		}
	}
	return info, nil
}
