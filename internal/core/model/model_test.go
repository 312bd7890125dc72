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

package model_test

import (
	"image"
	"testing"

	"github.com/jaycherian/gcp-go-video-tagging/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestTagSet(t *testing.T) {
	s := model.NewTagSet()
	assert.True(t, s.Add("  Car Rojo "))
	assert.False(t, s.Add("car rojo"))
	assert.False(t, s.Add("   "))
	s.AddAll("a", "Street", "a")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"car rojo", "a", "street"}, s.Slice())
	assert.True(t, s.Contains("STREET"))

	// Slice must hand out a copy.
	out := s.Slice()
	out[0] = "mutated"
	assert.Equal(t, "car rojo", s.Slice()[0])
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"car", "car rojo"}, model.NormalizeTags([]string{"car", "car", "Car ", " CAR ROJO", ""}))
	assert.Equal(t, []string{}, model.NormalizeTags(nil))
}

func TestNewBoundingBoxOrdersCorners(t *testing.T) {
	b := model.NewBoundingBox(50, 40, 10, 20)
	assert.Equal(t, model.BoundingBox{X1: 10, Y1: 20, X2: 50, Y2: 40}, b)
	assert.Equal(t, image.Rect(10, 20, 50, 40), b.Rect())
}

func TestVideoRecordCountMatches(t *testing.T) {
	r := model.NewVideoRecord("clip.mp4", []string{"car rojo", "Car", "street", "carpet"})
	assert.Equal(t, 3, r.CountMatches("car"))
	assert.Equal(t, 0, r.CountMatches("bus"))
}

func TestNewVideoRecordCopiesTags(t *testing.T) {
	tags := []string{"a", "b"}
	r := model.NewVideoRecord("clip.mp4", tags)
	tags[0] = "z"
	assert.Equal(t, []string{"a", "b"}, r.Tags)
}
