package app

import (
	"image/color"
	"math"

	"samplemap/atlas"
)

var (
	noiseTexture = texturePair{
		fill:   color.NRGBA{R: 0x6e, G: 0x6e, B: 0x6e, A: 0xff},
		stroke: color.NRGBA{R: 0x4a, G: 0x4a, B: 0x4a, A: 0xff},
	}
	selectionColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// texturePair is the cached per-cluster appearance: fill plus a darker
// stroke derived from the same hue.
type texturePair struct {
	fill   color.NRGBA
	stroke color.NRGBA
}

// textureCache computes a cluster's appearance once and reuses it for every
// sprite in that cluster. Keys are sentinel cluster ids; noise has a fixed
// gray pair.
type textureCache struct {
	pairs map[int]texturePair
}

func newTextureCache() *textureCache {
	return &textureCache{pairs: make(map[int]texturePair)}
}

func (c *textureCache) forCluster(l atlas.Label) texturePair {
	if l.IsNoise() {
		return noiseTexture
	}
	key := l.Sentinel()
	if pair, ok := c.pairs[key]; ok {
		return pair
	}
	// Golden-angle hue rotation keeps neighboring cluster ids visually far
	// apart without a fixed palette size.
	hue := math.Mod(float64(key)*137.508, 360)
	fill := hsvColor(hue, 0.65, 0.92)
	stroke := hsvColor(hue, 0.75, 0.55)
	pair := texturePair{fill: fill, stroke: stroke}
	c.pairs[key] = pair
	return pair
}

func hsvColor(h, s, v float64) color.NRGBA {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.NRGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 0xff,
	}
}
