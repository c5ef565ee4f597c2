package app

import (
	"log"
	"time"

	"fyne.io/fyne/v2"

	"samplemap/atlas"
)

const (
	moveDuration  = 450 * time.Millisecond
	enterDuration = 300 * time.Millisecond
	exitDuration  = 300 * time.Millisecond
	// moveThreshold suppresses sub-pixel jitter: displacements at or below
	// it update sprites in place instead of animating.
	moveThreshold = 1.5
	frameInterval = 16 * time.Millisecond
)

// animationTask interpolates one sprite between two visual states. A nil
// point marks an exit animation; the sprite is freed when it completes.
type animationTask struct {
	id                   string
	fromX, fromY         float32
	toX, toY             float32
	fromScale, toScale   float32
	fromAlpha, toAlpha   float32
	duration             time.Duration
	start                time.Duration // batch-relative start offset
	point                *atlas.SamplePoint
	done                 bool
}

// frameDriver runs the per-frame step callback until it reports inactive or
// the driver is stopped. At most one driver is live per reconciler.
type frameDriver interface {
	startFrames(step func(now time.Time) bool)
	stopFrames()
}

// tickerDriver is the production driver: a ticker goroutine marshaling each
// step onto the UI thread.
type tickerDriver struct {
	quit chan struct{}
}

func (d *tickerDriver) startFrames(step func(now time.Time) bool) {
	d.quit = make(chan struct{})
	quit := d.quit
	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case now := <-ticker.C:
				// DoAndWait, not Do: the loop needs the step result before
				// deciding to keep ticking.
				active := true
				fyne.DoAndWait(func() { active = step(now) })
				if !active {
					return
				}
			}
		}
	}()
}

func (d *tickerDriver) stopFrames() {
	if d.quit != nil {
		close(d.quit)
		d.quit = nil
	}
}

// Reconciler owns the sprite map and the animation-task map. It diffs each
// incoming point list against rendered state and drives enter/move/exit
// animation instead of redrawing, so hover and selection never flicker.
// All methods must run on the UI thread; the production frame driver
// marshals its steps there.
type Reconciler struct {
	content  *fyne.Container
	textures *textureCache
	logger   *log.Logger

	sprites map[string]*sprite
	tasks   map[string]*animationTask

	lastPoints []atlas.SamplePoint
	lastSize   fyne.Size

	batchStart time.Time
	driver     frameDriver
	newDriver  func() frameDriver
	clock      func() time.Time

	hoverID    string
	selectedID string
}

// NewReconciler builds a reconciler rendering into content. A nil logger
// disables logging.
func NewReconciler(content *fyne.Container, logger *log.Logger) *Reconciler {
	return &Reconciler{
		content:   content,
		textures:  newTextureCache(),
		logger:    logger,
		sprites:   make(map[string]*sprite),
		tasks:     make(map[string]*animationTask),
		newDriver: func() frameDriver { return &tickerDriver{} },
		clock:     time.Now,
	}
}

// Reconcile transitions the rendered sprite set toward points. It reports
// whether any work was scheduled: an identical point list on an unchanged
// surface is a no-op, so calling it twice in a row mutates nothing.
func (r *Reconciler) Reconcile(points []atlas.SamplePoint, size fyne.Size) bool {
	if size == r.lastSize && !pointsChanged(r.lastPoints, points) {
		return false
	}
	tr, ok := newViewTransform(size, surfacePad)
	if !ok {
		// Surface too small to lay out; remember the input so the next real
		// resize re-triggers.
		r.rememberInput(points, size)
		return false
	}

	// A new batch always cancels the in-flight frame loop first.
	r.cancelLoop()
	r.tasks = make(map[string]*animationTask)

	targets := computeTargets(points, tr)
	originX, originY := tr.origin()
	seen := make(map[string]struct{}, len(targets))

	for i := range targets {
		tg := targets[i]
		p := tg.point
		seen[p.ID] = struct{}{}
		s, exists := r.sprites[p.ID]
		if !exists {
			s = newSprite(p, r.textures.forCluster(p.Cluster), originX, originY)
			r.sprites[p.ID] = s
			r.content.Add(s.circle)
			r.content.Add(s.ring)
			pt := p
			r.tasks[p.ID] = &animationTask{
				id:    p.ID,
				fromX: originX, fromY: originY, toX: tg.x, toY: tg.y,
				fromScale: 0, toScale: 1, fromAlpha: 0, toAlpha: 1,
				duration: enterDuration,
				point:    &pt,
			}
			continue
		}

		if p.Cluster != s.cluster {
			s.cluster = p.Cluster
			s.setTexture(r.textures.forCluster(p.Cluster))
		}
		s.point = p

		dx := tg.x - s.x
		dy := tg.y - s.y
		displaced := dx*dx+dy*dy > moveThreshold*moveThreshold
		if displaced || s.scale != 1 || s.alpha != 1 {
			if s.transition(phaseMoving) {
				pt := p
				r.tasks[p.ID] = &animationTask{
					id:    p.ID,
					fromX: s.x, fromY: s.y, toX: tg.x, toY: tg.y,
					fromScale: s.scale, toScale: 1, fromAlpha: s.alpha, toAlpha: 1,
					duration: moveDuration,
					point:    &pt,
				}
			}
			continue
		}
		// Below the threshold: place directly, no animation.
		s.x, s.y = tg.x, tg.y
		s.transition(phaseSteady)
		s.applyVisual()
	}

	for id, s := range r.sprites {
		if _, kept := seen[id]; kept {
			continue
		}
		if !s.transition(phaseExiting) {
			continue
		}
		r.tasks[id] = &animationTask{
			id:    id,
			fromX: s.x, fromY: s.y, toX: originX, toY: originY,
			fromScale: s.scale, toScale: 0, fromAlpha: s.alpha, toAlpha: 0,
			duration: exitDuration,
		}
	}

	r.rememberInput(points, size)
	r.batchStart = r.clock()
	if len(r.tasks) > 0 {
		r.driver = r.newDriver()
		r.driver.startFrames(r.Step)
	}
	return true
}

func (r *Reconciler) rememberInput(points []atlas.SamplePoint, size fyne.Size) {
	r.lastPoints = append(r.lastPoints[:0], points...)
	r.lastSize = size
}

// Step advances every task of the current batch against the shared batch
// clock and reports whether the batch is still active. A sprite lookup miss
// means the id was already removed and is skipped.
func (r *Reconciler) Step(now time.Time) bool {
	if len(r.tasks) == 0 {
		return false
	}
	elapsed := now.Sub(r.batchStart)
	active := false
	for id, task := range r.tasks {
		if task.done {
			continue
		}
		local := elapsed - task.start
		if local < 0 {
			active = true
			continue
		}
		t := float64(local) / float64(task.duration)
		if t > 1 {
			t = 1
		}
		s, ok := r.sprites[id]
		if !ok {
			task.done = true
			continue
		}
		p := easeOutCubic(t)
		s.x = lerp32(task.fromX, task.toX, p)
		s.y = lerp32(task.fromY, task.toY, p)
		s.scale = lerp32(task.fromScale, task.toScale, p)
		s.alpha = lerp32(task.fromAlpha, task.toAlpha, p)
		s.applyVisual()
		if t < 1 {
			active = true
			continue
		}
		task.done = true
		if task.point == nil {
			r.removeSprite(s)
		} else {
			s.transition(phaseSteady)
		}
	}
	if !active {
		r.tasks = make(map[string]*animationTask)
	}
	return active
}

func (r *Reconciler) removeSprite(s *sprite) {
	s.transition(phaseRemoved)
	r.content.Remove(s.circle)
	r.content.Remove(s.ring)
	delete(r.sprites, s.id)
	if r.hoverID == s.id {
		r.hoverID = ""
	}
	if r.selectedID == s.id {
		r.selectedID = ""
	}
}

func (r *Reconciler) cancelLoop() {
	if r.driver != nil {
		r.driver.stopFrames()
		r.driver = nil
	}
}

// SetHover updates hover decoration, touching only the sprites whose state
// actually changed.
func (r *Reconciler) SetHover(id string) {
	if id == r.hoverID {
		return
	}
	prev := r.hoverID
	r.hoverID = id
	if s, ok := r.sprites[prev]; ok {
		s.hovered = false
		s.applyVisual()
	}
	if s, ok := r.sprites[id]; ok {
		s.hovered = true
		s.applyVisual()
	}
}

// SetSelection updates selection decoration the same way.
func (r *Reconciler) SetSelection(id string) {
	if id == r.selectedID {
		return
	}
	prev := r.selectedID
	r.selectedID = id
	if s, ok := r.sprites[prev]; ok {
		s.selected = false
		s.applyVisual()
	}
	if s, ok := r.sprites[id]; ok {
		s.selected = true
		s.applyVisual()
	}
}

// NearestSprite resolves a screen position to the closest pickable sprite
// within its current radius plus tolerance.
func (r *Reconciler) NearestSprite(x, y, tolerance float32) (atlas.SamplePoint, bool) {
	var best *sprite
	var bestDist float32
	for _, s := range r.sprites {
		if s.phase == phaseExiting || s.phase == phaseRemoved {
			continue
		}
		dx := s.x - x
		dy := s.y - y
		dist := dx*dx + dy*dy
		reach := s.currentRadius() + tolerance
		if dist > reach*reach {
			continue
		}
		if best == nil || dist < bestDist {
			best = s
			bestDist = dist
		}
	}
	if best == nil {
		return atlas.SamplePoint{}, false
	}
	return best.point, true
}

// SpriteCount reports how many sprites are currently rendered.
func (r *Reconciler) SpriteCount() int { return len(r.sprites) }

// HasSprite reports whether id currently owns a sprite.
func (r *Reconciler) HasSprite(id string) bool {
	_, ok := r.sprites[id]
	return ok
}

// Animating reports whether a batch is still in flight.
func (r *Reconciler) Animating() bool { return len(r.tasks) > 0 }

func pointsChanged(prev, next []atlas.SamplePoint) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		if prev[i].ID != next[i].ID ||
			prev[i].X != next[i].X ||
			prev[i].Y != next[i].Y ||
			prev[i].Cluster != next[i].Cluster {
			return true
		}
	}
	return false
}
