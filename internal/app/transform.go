package app

import (
	"math"
	"sort"

	"fyne.io/fyne/v2"

	"samplemap/atlas"
)

const (
	surfacePad = 24.0
	// declumpCell is the grid pitch in pixels; points landing in the same
	// cell get redistributed so they stay individually selectable.
	declumpCell = 6.0
)

// viewTransform maps the logical [-1,1] square onto the padded drawable
// rectangle, preserving aspect ratio by using the shorter side.
type viewTransform struct {
	side fyne.Size
	span float32
	offX float32
	offY float32
}

func newViewTransform(size fyne.Size, pad float32) (viewTransform, bool) {
	span := size.Width
	if size.Height < span {
		span = size.Height
	}
	span -= 2 * pad
	if span <= 0 {
		return viewTransform{}, false
	}
	return viewTransform{
		side: size,
		span: span,
		offX: (size.Width - span) / 2,
		offY: (size.Height - span) / 2,
	}, true
}

// apply converts a logical coordinate to a screen position. Logical +Y is
// up, screen +Y is down.
func (t viewTransform) apply(x, y float64) (float32, float32) {
	sx := t.offX + float32((x+1)/2)*t.span
	sy := t.offY + float32((1-y)/2)*t.span
	return sx, sy
}

// origin is the screen position of the logical center, where sprites enter
// from and exit to.
func (t viewTransform) origin() (float32, float32) {
	return t.apply(0, 0)
}

// spriteTarget is the declumped screen-space destination for one point.
type spriteTarget struct {
	point atlas.SamplePoint
	x, y  float32
}

// computeTargets transforms every point and then redistributes groups whose
// screen positions round to the same grid cell evenly on a small circle
// around their shared centroid. Group order is fixed by id so the layout is
// deterministic across updates.
func computeTargets(points []atlas.SamplePoint, t viewTransform) []spriteTarget {
	targets := make([]spriteTarget, len(points))
	cells := make(map[[2]int][]int, len(points))
	for i, p := range points {
		x, y := t.apply(p.X, p.Y)
		targets[i] = spriteTarget{point: p, x: x, y: y}
		key := [2]int{int(math.Round(float64(x) / declumpCell)), int(math.Round(float64(y) / declumpCell))}
		cells[key] = append(cells[key], i)
	}
	for _, group := range cells {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(a, b int) bool {
			return targets[group[a]].point.ID < targets[group[b]].point.ID
		})
		var cx, cy float32
		for _, i := range group {
			cx += targets[i].x
			cy += targets[i].y
		}
		cx /= float32(len(group))
		cy /= float32(len(group))
		radius := float32(declumpCell) * 0.9
		for k, i := range group {
			angle := 2 * math.Pi * float64(k) / float64(len(group))
			targets[i].x = cx + radius*float32(math.Cos(angle))
			targets[i].y = cy + radius*float32(math.Sin(angle))
		}
	}
	return targets
}

// easeOutCubic is the interpolation curve shared by every animation task.
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

func lerp32(from, to float32, p float64) float32 {
	return from + float32(p)*(to-from)
}
