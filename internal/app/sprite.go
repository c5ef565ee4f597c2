package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"samplemap/atlas"
)

const (
	baseRadius    = 5.0
	ringSpan      = 3.0
	hoverStroke   = 2.0
	defaultStroke = 1.0
)

// spritePhase is the lifecycle state of a rendered point. Transitions go
// through the table below; anything else is a bug and is refused, which
// keeps "one active animation per id" structural rather than conventional.
type spritePhase int

const (
	phaseEntering spritePhase = iota
	phaseSteady
	phaseMoving
	phaseExiting
	phaseRemoved
)

func (p spritePhase) String() string {
	switch p {
	case phaseEntering:
		return "entering"
	case phaseSteady:
		return "steady"
	case phaseMoving:
		return "moving"
	case phaseExiting:
		return "exiting"
	default:
		return "removed"
	}
}

var phaseTransitions = map[spritePhase][]spritePhase{
	phaseEntering: {phaseSteady, phaseEntering, phaseMoving, phaseExiting},
	phaseSteady:   {phaseMoving, phaseExiting, phaseSteady},
	phaseMoving:   {phaseSteady, phaseMoving, phaseExiting},
	phaseExiting:  {phaseRemoved, phaseExiting, phaseMoving},
	phaseRemoved:  {},
}

func canTransition(from, to spritePhase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sprite is the renderer-owned visual state for one point id.
type sprite struct {
	id      string
	x, y    float32 // current screen center
	radius  float32
	scale   float32
	alpha   float32
	phase   spritePhase
	cluster atlas.Label
	tex     texturePair

	circle *canvas.Circle
	ring   *canvas.Circle

	hovered  bool
	selected bool

	// last-known logical point, kept for hit-test callbacks and previews.
	point atlas.SamplePoint
}

func newSprite(p atlas.SamplePoint, tex texturePair, x, y float32) *sprite {
	s := &sprite{
		id:      p.ID,
		x:       x,
		y:       y,
		radius:  baseRadius,
		phase:   phaseEntering,
		cluster: p.Cluster,
		tex:     tex,
		circle:  canvas.NewCircle(color.Transparent),
		ring:    canvas.NewCircle(color.Transparent),
		point:   p,
	}
	s.ring.StrokeWidth = hoverStroke
	s.ring.Hide()
	s.applyVisual()
	return s
}

// transition moves the sprite to a new phase if the table allows it.
func (s *sprite) transition(to spritePhase) bool {
	if !canTransition(s.phase, to) {
		return false
	}
	s.phase = to
	return true
}

// currentRadius is the effective pick radius, shrunk while animating in/out.
func (s *sprite) currentRadius() float32 {
	return s.radius * s.scale
}

// applyVisual pushes position, scale, alpha and texture onto the canvas
// objects. The texture pair itself only changes in setTexture.
func (s *sprite) applyVisual() {
	r := s.radius * s.scale
	if r < 0 {
		r = 0
	}
	s.circle.FillColor = withAlpha(s.tex.fill, s.alpha)
	s.circle.StrokeColor = withAlpha(s.tex.stroke, s.alpha)
	s.circle.StrokeWidth = defaultStroke
	s.circle.Move(fyne.NewPos(s.x-r, s.y-r))
	s.circle.Resize(fyne.NewSize(2*r, 2*r))

	if s.hovered || s.selected {
		ringR := r + ringSpan
		ringColor := s.tex.stroke
		if s.selected {
			ringColor = selectionColor
		}
		s.ring.StrokeColor = withAlpha(ringColor, s.alpha)
		s.ring.FillColor = color.Transparent
		s.ring.Move(fyne.NewPos(s.x-ringR, s.y-ringR))
		s.ring.Resize(fyne.NewSize(2*ringR, 2*ringR))
		s.ring.Show()
	} else {
		s.ring.Hide()
	}
	s.circle.Refresh()
	s.ring.Refresh()
}

// setTexture swaps the cached cluster appearance. Called only when the
// sprite's own cluster id changes, never mid-animation by coincidence.
func (s *sprite) setTexture(tex texturePair) {
	s.tex = tex
	s.applyVisual()
}

func withAlpha(c color.NRGBA, alpha float32) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	out := c
	out.A = uint8(float32(c.A) * alpha)
	return out
}
