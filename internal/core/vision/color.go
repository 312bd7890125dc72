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

package vision

import (
	"image"
)

// ColorClassifier assigns a coarse dominant color to an image region.
type ColorClassifier struct {
	palette      *Palette
	matchPercent float64
}

// NewColorClassifier uses DefaultMatchPercent when matchPercent is not positive.
func NewColorClassifier(palette *Palette, matchPercent float64) *ColorClassifier {
	if palette == nil {
		palette = DefaultPalette()
	}
	if matchPercent <= 0 {
		matchPercent = DefaultMatchPercent
	}
	return &ColorClassifier{palette: palette, matchPercent: matchPercent}
}

// Classify returns the name of the first palette color whose share of the
// region's pixels is strictly greater than the match threshold, or Unknown.
// An empty region is Unknown.
func (c *ColorClassifier) Classify(region image.Image) string {
	if region == nil {
		return Unknown
	}
	bounds := region.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return Unknown
	}

	counts := make([]int, len(c.palette.ranges))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(region, x, y)
			hsv := RGBToHSV(r, g, b)
			for i, cr := range c.palette.ranges {
				if cr.Contains(hsv) {
					counts[i]++
				}
			}
		}
	}

	for i, cr := range c.palette.ranges {
		if float64(counts[i])*100/float64(total) > c.matchPercent {
			return cr.Name
		}
	}
	return Unknown
}

// rgb8 reads a pixel as 8-bit RGB. RGBA and NRGBA images skip the generic
// color.Color path since frames are classified pixel by pixel.
func rgb8(img image.Image, x, y int) (uint8, uint8, uint8) {
	switch im := img.(type) {
	case *image.RGBA:
		i := im.PixOffset(x, y)
		return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
	case *image.NRGBA:
		i := im.PixOffset(x, y)
		return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}
