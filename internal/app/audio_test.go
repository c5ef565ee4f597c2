package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	paused  int
	resumed int
	stopped int
}

func (s *fakeSession) Pause()  { s.paused++ }
func (s *fakeSession) Resume() { s.resumed++ }
func (s *fakeSession) Stop()   { s.stopped++ }

// fakePlayer hands back one session per Start and keeps the completion
// callbacks so tests can fire them after the fact, the way a real stream
// end would.
type fakePlayer struct {
	starts   []string
	onDones  []func()
	sessions []*fakeSession
	err      error
}

func (p *fakePlayer) Start(locator string, onDone func()) (PlaybackSession, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.starts = append(p.starts, locator)
	p.onDones = append(p.onDones, onDone)
	s := &fakeSession{}
	p.sessions = append(p.sessions, s)
	return s, nil
}

func TestPlaySingleFlight(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	assert.True(t, arb.Play("kick", "kick.wav"))
	assert.True(t, arb.IsActive("kick"))

	assert.True(t, arb.Play("snare", "snare.wav"))
	require.Len(t, player.sessions, 2)
	assert.Equal(t, 1, player.sessions[0].stopped)
	assert.False(t, arb.IsActive("kick"))
	assert.True(t, arb.IsActive("snare"))
}

func TestPlayRepeatIsNoOp(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	assert.True(t, arb.Play("kick", "kick.wav"))
	assert.False(t, arb.Play("kick", "kick.wav"))
	assert.Len(t, player.starts, 1)
	assert.Equal(t, 0, player.sessions[0].stopped)
}

func TestPlayStartFailure(t *testing.T) {
	player := &fakePlayer{err: errors.New("no device")}
	arb := NewPreviewArbiter(player, nil)

	assert.False(t, arb.Play("kick", "kick.wav"))
	assert.False(t, arb.IsActive("kick"))
}

func TestPauseResume(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	assert.False(t, arb.Pause()) // nothing playing

	require.True(t, arb.Play("kick", "kick.wav"))
	assert.True(t, arb.Pause())
	assert.False(t, arb.Pause()) // already paused
	assert.True(t, arb.IsPaused("kick"))
	assert.False(t, arb.IsActive("kick"))

	assert.True(t, arb.Resume())
	assert.False(t, arb.Resume())
	assert.True(t, arb.IsActive("kick"))
	assert.Equal(t, 1, player.sessions[0].paused)
	assert.Equal(t, 1, player.sessions[0].resumed)
}

func TestNaturalCompletionClearsSession(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	require.True(t, arb.Play("kick", "kick.wav"))
	player.onDones[0]()
	assert.False(t, arb.IsActive("kick"))

	// The same id is playable again afterwards.
	assert.True(t, arb.Play("kick", "kick.wav"))
}

func TestStaleCompletionIgnored(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	require.True(t, arb.Play("kick", "kick.wav"))
	require.True(t, arb.Play("snare", "snare.wav"))

	// The first stream's completion arrives after it was superseded.
	player.onDones[0]()
	assert.True(t, arb.IsActive("snare"))
	assert.Equal(t, 0, player.sessions[1].stopped)
}

func TestLateCompletionAfterRestartOfSameSample(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	require.True(t, arb.Play("kick", "kick.wav"))
	arb.Stop()
	require.True(t, arb.Play("kick", "kick.wav"))

	// The stopped first stream drains late. Same id, different session: the
	// rerun must stay registered.
	player.onDones[0]()
	assert.True(t, arb.IsActive("kick"))

	// And switching away must still stop it: exactly one live stream.
	require.True(t, arb.Play("snare", "snare.wav"))
	require.Len(t, player.sessions, 3)
	assert.Equal(t, 1, player.sessions[1].stopped)
	assert.Equal(t, 0, player.sessions[2].stopped)
	assert.True(t, arb.IsActive("snare"))
}

// reentrantSession completes inline when stopped, the way a draining stream
// fires its completion callback during teardown.
type reentrantSession struct {
	fakeSession
	onDone func()
}

func (s *reentrantSession) Stop() {
	s.fakeSession.Stop()
	s.onDone()
}

type reentrantPlayer struct {
	sessions []*reentrantSession
}

func (p *reentrantPlayer) Start(locator string, onDone func()) (PlaybackSession, error) {
	s := &reentrantSession{onDone: onDone}
	p.sessions = append(p.sessions, s)
	return s, nil
}

func TestStopWithInlineCompletionDoesNotDeadlock(t *testing.T) {
	player := &reentrantPlayer{}
	arb := NewPreviewArbiter(player, nil)

	require.True(t, arb.Play("kick", "kick.wav"))
	require.True(t, arb.Play("snare", "snare.wav"))

	assert.Equal(t, 1, player.sessions[0].stopped)
	assert.True(t, arb.IsActive("snare"))

	arb.Stop()
	assert.False(t, arb.IsActive("snare"))
	assert.Equal(t, 1, player.sessions[1].stopped)
}

func TestStopEndsSession(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)

	require.True(t, arb.Play("kick", "kick.wav"))
	arb.Stop()
	assert.False(t, arb.IsActive("kick"))
	assert.Equal(t, 1, player.sessions[0].stopped)
	arb.Stop() // second stop is harmless
	assert.Equal(t, 1, player.sessions[0].stopped)
}

func TestHandleTapStopsThenSelects(t *testing.T) {
	player := &fakePlayer{}
	arb := NewPreviewArbiter(player, nil)
	require.True(t, arb.Play("kick", "kick.wav"))

	var selected string
	arb.HandleTap("snare", func(id string) {
		// Preview must already be stopped when selection runs.
		assert.False(t, arb.IsActive("kick"))
		selected = id
	})
	assert.Equal(t, "snare", selected)
	assert.Equal(t, 1, player.sessions[0].stopped)
}
