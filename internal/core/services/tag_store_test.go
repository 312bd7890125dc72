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

package services_test

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/services"
)

// TestCleanName checks that upload names are reduced to a safe base name.
func TestCleanName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "clip.mp4", want: "clip.mp4"},
		{in: "  clip.mp4 ", want: "clip.mp4"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: "C:\\Users\\me\\holiday.mov", want: "holiday.mov"},
		{in: "nested/dir/video.webm", want: "video.webm"},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: "/", wantErr: true},
		{in: ".clip.mp4", want: ".clip.mp4"},
		{in: ".", wantErr: true},
		{in: "dir/..", wantErr: true},
	}
	for _, tt := range tests {
		got, err := services.CleanName(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			assert.That(t, errors.Is(err, services.ErrInvalidName))
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, got, tt.want)
	}
}

// TestValidateName rejects anything that is not already a clean base name.
func TestValidateName(t *testing.T) {
	assert.NoError(t, services.ValidateName("clip.mp4"))
	assert.Error(t, services.ValidateName("../clip.mp4"))
	assert.Error(t, services.ValidateName("dir/clip.mp4"))
	assert.Error(t, services.ValidateName(" clip.mp4"))
	assert.Error(t, services.ValidateName(".."))
}
