package app

import (
	"errors"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const resizeDebounceInterval = 120 * time.Millisecond

// mapSurface hosts the sample sprites and forwards pointer events to the
// hit-test router. Resize events are debounced so that a drag of the window
// edge produces a single relayout instead of one per intermediate size.
type mapSurface struct {
	widget.BaseWidget

	background *canvas.Rectangle
	content    *fyne.Container
	router     *HitTestRouter

	onResize func(fyne.Size)
	resizeCh chan fyne.Size
}

var _ desktop.Hoverable = (*mapSurface)(nil)
var _ fyne.Tappable = (*mapSurface)(nil)

func newMapSurface(content *fyne.Container, router *HitTestRouter, onResize func(fyne.Size)) (*mapSurface, error) {
	if content == nil || router == nil {
		return nil, errors.New("map surface requires a sprite container and a router")
	}
	s := &mapSurface{
		background: canvas.NewRectangle(color.NRGBA{R: 0x12, G: 0x14, B: 0x1a, A: 0xff}),
		content:    content,
		router:     router,
		onResize:   onResize,
		resizeCh:   make(chan fyne.Size, 1),
	}
	s.ExtendBaseWidget(s)
	go s.resizeLoop()
	return s, nil
}

func (s *mapSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(s.background, s.content))
}

func (s *mapSurface) Resize(size fyne.Size) {
	s.BaseWidget.Resize(size)
	select {
	case s.resizeCh <- size:
	default:
		select {
		case <-s.resizeCh:
		default:
		}
		s.resizeCh <- size
	}
}

func (s *mapSurface) resizeLoop() {
	timer := time.NewTimer(resizeDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	var pending fyne.Size
	for {
		select {
		case pending = <-s.resizeCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(resizeDebounceInterval)
		case <-timer.C:
			size := pending
			if s.onResize != nil {
				fyne.Do(func() { s.onResize(size) })
			}
		}
	}
}

func (s *mapSurface) MouseIn(ev *desktop.MouseEvent) {
	s.router.PointerMoved(ev.Position)
}

func (s *mapSurface) MouseMoved(ev *desktop.MouseEvent) {
	s.router.PointerMoved(ev.Position)
}

func (s *mapSurface) MouseOut() {
	s.router.PointerGone()
}

func (s *mapSurface) Tapped(ev *fyne.PointEvent) {
	s.router.PointerTapped(ev.Position)
}
