package app

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samplemap/atlas"
)

type routerEvents struct {
	enters []string
	leaves []string
	taps   []string
}

func newRouterEnv(t *testing.T) (*reconcilerEnv, *HitTestRouter, *routerEvents) {
	t.Helper()
	env := newReconcilerEnv(t)
	points := []atlas.SamplePoint{
		pt("a", -0.5, 0, atlas.Member(0)),
		pt("b", 0.5, 0, atlas.Member(1)),
	}
	require.True(t, env.r.Reconcile(points, testSize))
	env.r.Step(env.now.Add(enterDuration))

	events := &routerEvents{}
	router := NewHitTestRouter(env.r)
	router.OnHoverEnter = func(p atlas.SamplePoint) { events.enters = append(events.enters, p.ID) }
	router.OnHoverLeave = func(id string) { events.leaves = append(events.leaves, id) }
	router.OnTap = func(p atlas.SamplePoint) { events.taps = append(events.taps, p.ID) }
	return env, router, events
}

func spritePos(env *reconcilerEnv, id string) fyne.Position {
	s := env.r.sprites[id]
	return fyne.NewPos(s.x, s.y)
}

func TestHoverEmitsOncePerIdentity(t *testing.T) {
	env, router, events := newRouterEnv(t)

	posA := spritePos(env, "a")
	router.PointerMoved(posA)
	router.PointerMoved(fyne.NewPos(posA.X+1, posA.Y+1))
	router.PointerMoved(fyne.NewPos(posA.X-1, posA.Y))

	assert.Equal(t, []string{"a"}, events.enters)
	assert.Empty(t, events.leaves)
	assert.Equal(t, "a", router.HoverID())
	assert.True(t, env.r.sprites["a"].hovered)
}

func TestHoverTransfersBetweenSprites(t *testing.T) {
	env, router, events := newRouterEnv(t)

	router.PointerMoved(spritePos(env, "a"))
	router.PointerMoved(spritePos(env, "b"))

	assert.Equal(t, []string{"a", "b"}, events.enters)
	assert.Equal(t, []string{"a"}, events.leaves)
	assert.False(t, env.r.sprites["a"].hovered)
	assert.True(t, env.r.sprites["b"].hovered)
}

func TestHoverClearsOnMissAndPointerGone(t *testing.T) {
	env, router, events := newRouterEnv(t)

	router.PointerMoved(spritePos(env, "a"))
	router.PointerMoved(fyne.NewPos(10, 10))
	assert.Equal(t, []string{"a"}, events.leaves)
	assert.Equal(t, "", router.HoverID())

	router.PointerMoved(spritePos(env, "b"))
	router.PointerGone()
	assert.Equal(t, []string{"a", "b"}, events.leaves)
	assert.Equal(t, "", router.HoverID())
}

func TestOverlaySuppressesHoverAndTap(t *testing.T) {
	env, router, events := newRouterEnv(t)
	covered := false
	router.Overlay = func(fyne.Position) bool { return covered }

	posA := spritePos(env, "a")
	router.PointerMoved(posA)
	require.Equal(t, "a", router.HoverID())

	covered = true
	router.PointerMoved(posA)
	assert.Equal(t, "", router.HoverID())
	assert.Equal(t, []string{"a"}, events.leaves)

	router.PointerTapped(posA)
	assert.Empty(t, events.taps)
}

func TestTapResolvesSprite(t *testing.T) {
	env, router, events := newRouterEnv(t)

	router.PointerTapped(spritePos(env, "b"))
	assert.Equal(t, []string{"b"}, events.taps)

	router.PointerTapped(fyne.NewPos(5, 5))
	assert.Equal(t, []string{"b"}, events.taps)
}
