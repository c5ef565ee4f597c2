package atlas

import (
	"log"
	"sync"
	"time"
)

// Scheduler defers a function past the current scheduling tick and returns a
// cancel func. The default implementation never runs the function
// synchronously, so slider drags and filter toggles stay responsive.
type Scheduler func(fn func()) (cancel func())

func deferScheduler(fn func()) func() {
	t := time.AfterFunc(time.Millisecond, fn)
	return func() { t.Stop() }
}

// Assigner wraps Assign with deferred, last-write-wins scheduling. A request
// superseded by a newer one is cancelled if still pending and its result is
// discarded if already running; only the newest request's result reaches the
// apply callback.
type Assigner struct {
	mu        sync.Mutex
	sched     Scheduler
	logger    *log.Logger
	gen       uint64
	computing bool
	cancel    func()
	// applyMu serializes the staleness check with the apply itself, so a
	// result verified current cannot land after a newer request's apply.
	applyMu sync.Mutex
}

// NewAssigner constructs an assigner. A nil scheduler uses timer deferral;
// a nil logger disables logging.
func NewAssigner(sched Scheduler, logger *log.Logger) *Assigner {
	if sched == nil {
		sched = deferScheduler
	}
	return &Assigner{sched: sched, logger: logger}
}

// Request schedules clustering for the given point set. apply runs with the
// result unless a newer request supersedes this one first.
func (a *Assigner) Request(points []Coord, method Method, p Params, apply func(Result)) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.computing = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.cancel = a.sched(func() {
		res := Assign(points, method, p)
		a.applyMu.Lock()
		defer a.applyMu.Unlock()
		a.mu.Lock()
		stale := gen != a.gen
		if !stale {
			a.computing = false
			a.cancel = nil
		}
		a.mu.Unlock()
		if stale {
			a.logf("discarding stale clustering result (gen %d)", gen)
			return
		}
		apply(res)
	})
	a.mu.Unlock()
}

// IsComputing reports whether a request is pending or running and its result
// has not been applied yet.
func (a *Assigner) IsComputing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.computing
}

func (a *Assigner) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
