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
	"errors"
	"sync"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
)

// mp4Header is an ISO base media "ftyp" box with the isom brand.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x20, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	'a', 'v', 'c', '1', 'm', 'p', '4', '1',
}

// FakeMP4 returns size bytes that sniff as video/mp4. Only the header is
// meaningful; ffmpeg would reject the file.
func FakeMP4(size int) []byte {
	out := make([]byte, max(size, len(mp4Header)))
	copy(out, mp4Header)
	return out
}

// FakeProcessor returns canned tags for every path it processes.
type FakeProcessor struct {
	Tags []string
	Err  error

	mu    sync.Mutex
	paths []string
}

func (p *FakeProcessor) Process(ctx context.Context, path string) (*model.TaggingResult, error) {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	tags := append([]string{}, p.Tags...)
	return &model.TaggingResult{Tags: tags, FramesTotal: 30, FramesTagged: 30}, nil
}

// Paths lists the files passed to Process.
func (p *FakeProcessor) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

// ErrModelUnavailable is a stand-in failure for model backends.
var ErrModelUnavailable = errors.New("model unavailable")
