package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const speakerRate = beep.SampleRate(44100)

// beepPlayer backs the arbiter's Player interface with the system speaker.
// The speaker is initialized once, on first use.
type beepPlayer struct {
	once    sync.Once
	initErr error
}

func newBeepPlayer() *beepPlayer {
	return &beepPlayer{}
}

func (p *beepPlayer) Start(locator string, onDone func()) (PlaybackSession, error) {
	p.once.Do(func() {
		p.initErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return nil, fmt.Errorf("speaker init: %w", p.initErr)
	}
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	streamer, format, err := decode(f, locator)
	if err != nil {
		f.Close()
		return nil, err
	}
	var stream beep.Streamer = streamer
	if format.SampleRate != speakerRate {
		stream = beep.Resample(4, format.SampleRate, speakerRate, streamer)
	}
	ctrl := &beep.Ctrl{Streamer: stream}
	session := &beepSession{ctrl: ctrl, closer: streamer}
	// The callback runs under the speaker lock; completion is handed off so
	// onDone can take arbiter locks without ordering against the mixer.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go func() {
			session.close()
			onDone()
		}()
	})))
	return session, nil
}

func decode(f *os.File, locator string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Base(locator))
	}
}

type beepSession struct {
	ctrl      *beep.Ctrl
	closer    beep.StreamSeekCloser
	closeOnce sync.Once
}

func (s *beepSession) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *beepSession) Resume() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *beepSession) Stop() {
	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()
	s.close()
}

func (s *beepSession) close() {
	s.closeOnce.Do(func() { _ = s.closer.Close() })
}
