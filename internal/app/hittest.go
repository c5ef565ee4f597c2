package app

import (
	"fyne.io/fyne/v2"

	"samplemap/atlas"
)

// hitTolerance widens every sprite's pick radius by a fixed pixel margin.
const hitTolerance = 6.0

// HitTestRouter resolves pointer positions against the reconciler's sprite
// set and emits hover transitions only when the resolved identity changes.
type HitTestRouter struct {
	rec *Reconciler

	// Overlay reports whether a position is covered by a non-canvas overlay
	// region; hit-testing and hover are suppressed there entirely.
	Overlay func(fyne.Position) bool

	OnHoverEnter func(p atlas.SamplePoint)
	OnHoverLeave func(id string)
	OnTap        func(p atlas.SamplePoint)

	hoverID string
}

func NewHitTestRouter(rec *Reconciler) *HitTestRouter {
	return &HitTestRouter{rec: rec}
}

// PointerMoved handles a pointer-move event in surface coordinates.
func (h *HitTestRouter) PointerMoved(pos fyne.Position) {
	if h.Overlay != nil && h.Overlay(pos) {
		h.clearHover()
		return
	}
	p, ok := h.rec.NearestSprite(pos.X, pos.Y, hitTolerance)
	if !ok {
		h.clearHover()
		return
	}
	if p.ID == h.hoverID {
		return
	}
	h.clearHover()
	h.hoverID = p.ID
	h.rec.SetHover(p.ID)
	if h.OnHoverEnter != nil {
		h.OnHoverEnter(p)
	}
}

// PointerGone handles the pointer leaving the surface.
func (h *HitTestRouter) PointerGone() {
	h.clearHover()
}

// PointerTapped resolves a tap to a sprite, if any.
func (h *HitTestRouter) PointerTapped(pos fyne.Position) {
	if h.Overlay != nil && h.Overlay(pos) {
		return
	}
	p, ok := h.rec.NearestSprite(pos.X, pos.Y, hitTolerance)
	if !ok {
		return
	}
	if h.OnTap != nil {
		h.OnTap(p)
	}
}

// HoverID returns the id currently hovered, or empty.
func (h *HitTestRouter) HoverID() string { return h.hoverID }

func (h *HitTestRouter) clearHover() {
	if h.hoverID == "" {
		return
	}
	prev := h.hoverID
	h.hoverID = ""
	h.rec.SetHover("")
	if h.OnHoverLeave != nil {
		h.OnHoverLeave(prev)
	}
}
