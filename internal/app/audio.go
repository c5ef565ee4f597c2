package app

import (
	"log"
	"sync"
)

// Player is the platform audio primitive. It fetches and decodes the
// resource behind a locator itself; the arbiter never touches audio bytes.
type Player interface {
	// Start begins playback and calls onDone when the stream finishes on
	// its own. onDone may fire on any goroutine.
	Start(locator string, onDone func()) (PlaybackSession, error)
}

// PlaybackSession controls one running stream.
type PlaybackSession interface {
	Pause()
	Resume()
	Stop()
}

// PreviewArbiter owns the single playback session shared by hover preview
// and explicit play actions. It is an explicitly constructed instance, not
// a process-wide singleton; every component that needs playback holds a
// handle to the same arbiter.
//
// The mutex is never held across Player or PlaybackSession calls: those may
// block on the audio backend's own locks, and the backend's completion
// callback re-enters the arbiter. Session identity is tracked by a
// generation counter so a superseded stream's late completion can never
// clear a newer session, even when both play the same sample id.
type PreviewArbiter struct {
	mu      sync.Mutex
	player  Player
	logger  *log.Logger
	current string
	session PlaybackSession
	paused  bool
	gen     uint64
}

func NewPreviewArbiter(player Player, logger *log.Logger) *PreviewArbiter {
	return &PreviewArbiter{player: player, logger: logger}
}

// Play starts preview for id, stopping any other session first. A repeated
// request for the id already playing is a no-op returning false.
func (a *PreviewArbiter) Play(id, locator string) bool {
	a.mu.Lock()
	if a.session != nil && a.current == id {
		a.mu.Unlock()
		return false
	}
	prev := a.detachLocked()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	session, err := a.player.Start(locator, func() { a.finished(gen) })
	if err != nil {
		a.logf("preview start failed for %s: %v", id, err)
		return false
	}

	a.mu.Lock()
	if gen != a.gen {
		// A concurrent Play or Stop superseded this start.
		a.mu.Unlock()
		session.Stop()
		return false
	}
	a.current = id
	a.session = session
	a.paused = false
	a.mu.Unlock()
	return true
}

// Pause pauses the current session, reporting whether there was one.
func (a *PreviewArbiter) Pause() bool {
	a.mu.Lock()
	session := a.session
	if session == nil || a.paused {
		a.mu.Unlock()
		return false
	}
	a.paused = true
	a.mu.Unlock()
	session.Pause()
	return true
}

// Resume resumes a paused session, reporting whether there was one.
func (a *PreviewArbiter) Resume() bool {
	a.mu.Lock()
	session := a.session
	if session == nil || !a.paused {
		a.mu.Unlock()
		return false
	}
	a.paused = false
	a.mu.Unlock()
	session.Resume()
	return true
}

// Stop ends the current session, if any.
func (a *PreviewArbiter) Stop() {
	a.mu.Lock()
	prev := a.detachLocked()
	a.gen++
	a.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
}

// IsActive reports whether id is the live, unpaused session.
func (a *PreviewArbiter) IsActive(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.current == id && !a.paused
}

// IsPaused reports whether id is the paused session.
func (a *PreviewArbiter) IsPaused(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.current == id && a.paused
}

// HandleTap implements the tap contract: stop any preview, then hand the
// selection to the host.
func (a *PreviewArbiter) HandleTap(id string, selectFn func(string)) {
	a.Stop()
	if selectFn != nil {
		selectFn(id)
	}
}

// detachLocked clears the registration and returns the session for the
// caller to stop once the lock is released.
func (a *PreviewArbiter) detachLocked() PlaybackSession {
	prev := a.session
	a.session = nil
	a.current = ""
	a.paused = false
	return prev
}

// finished clears state when a stream runs out on its own. The generation
// captured at Start identifies the completing session; anything else, same
// sample id or not, already replaced it and stays untouched.
func (a *PreviewArbiter) finished(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.session = nil
	a.current = ""
	a.paused = false
}

func (a *PreviewArbiter) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
