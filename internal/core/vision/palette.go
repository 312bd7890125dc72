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

// Package vision turns decoded video frames into tag tokens. It owns the
// color classifier, the per-frame tagger and the video sampler, and defines
// the Detector and Captioner boundaries that concrete model adapters satisfy.
//
// Colors are expressed in the 8-bit HSV space used by OpenCV: hue is stored
// as degrees/2 (0-179), saturation and value span 0-255.
package vision

import (
	"errors"
	"fmt"
	"math"
)

// Unknown is returned by the classifier when no palette color covers enough
// of a region.
const Unknown = "desconocido"

// DefaultMatchPercent is the share of pixels, in percent, that a color must
// strictly exceed to be considered dominant.
const DefaultMatchPercent = 5.0

// MaxHue is the largest hue value in the 8-bit HSV space.
const MaxHue = 179

// HSV is a color in 8-bit OpenCV HSV space.
type HSV struct {
	H, S, V uint8
}

// ColorRange is a named, inclusive HSV box.
type ColorRange struct {
	Name  string
	Lower HSV
	Upper HSV
}

// Contains reports whether c falls inside the range on all three channels.
func (r ColorRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Palette is an ordered list of color ranges. Order is priority: the first
// range over the threshold wins even if a later one covers more pixels.
type Palette struct {
	ranges []ColorRange
}

// DefaultPalette returns rojo, verde and azul, in that priority.
func DefaultPalette() *Palette {
	return &Palette{ranges: []ColorRange{
		{Name: "rojo", Lower: HSV{0, 70, 50}, Upper: HSV{10, 255, 255}},
		{Name: "verde", Lower: HSV{36, 25, 25}, Upper: HSV{86, 255, 255}},
		{Name: "azul", Lower: HSV{94, 80, 2}, Upper: HSV{126, 255, 255}},
	}}
}

var errEmptyPalette = errors.New("palette must define at least one color")

// NewPalette validates ranges and keeps them in the given order.
func NewPalette(ranges ...ColorRange) (*Palette, error) {
	if len(ranges) == 0 {
		return nil, errEmptyPalette
	}
	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if r.Name == "" {
			return nil, errors.New("palette color without a name")
		}
		if r.Name == Unknown {
			return nil, fmt.Errorf("palette color may not be named %q", Unknown)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate palette color %q", r.Name)
		}
		seen[r.Name] = true
		if r.Lower.H > MaxHue || r.Upper.H > MaxHue {
			return nil, fmt.Errorf("color %q: hue must be within 0-%d", r.Name, MaxHue)
		}
		if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
			return nil, fmt.Errorf("color %q: lower bound exceeds upper bound", r.Name)
		}
	}
	out := make([]ColorRange, len(ranges))
	copy(out, ranges)
	return &Palette{ranges: out}, nil
}

// Ranges returns a copy of the palette in priority order.
func (p *Palette) Ranges() []ColorRange {
	out := make([]ColorRange, len(p.ranges))
	copy(out, p.ranges)
	return out
}

// RGBToHSV converts an 8-bit RGB triple using OpenCV's COLOR_RGB2HSV rules.
func RGBToHSV(r, g, b uint8) HSV {
	rf, gf, bf := float64(r), float64(g), float64(b)
	v := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	diff := v - lo

	var s float64
	if v > 0 {
		s = diff * 255 / v
	}

	var h float64
	if diff > 0 {
		switch v {
		case rf:
			h = 60 * (gf - bf) / diff
		case gf:
			h = 120 + 60*(bf-rf)/diff
		default:
			h = 240 + 60*(rf-gf)/diff
		}
		if h < 0 {
			h += 360
		}
	}

	hue := math.Round(h / 2)
	if hue > MaxHue {
		hue -= MaxHue + 1
	}
	return HSV{H: uint8(hue), S: uint8(math.Round(s)), V: uint8(v)}
}
