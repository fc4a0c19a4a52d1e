// Package module drives a single-message record/playback board (ISD1820
// class) through two GPIO lines: REC is held active while recording and
// PLAYE is pulsed to start one playback pass.
package module

import (
	"sync/atomic"
	"time"

	"parrot/gpio"
	"parrot/log"
)

// PlayPulse is how long PLAYE is held active to trigger playback.
const PlayPulse = 50 * time.Millisecond

type Module struct {
	record   gpio.Output
	play     gpio.Output
	readback gpio.Input
	sleep    func(time.Duration)

	recording atomic.Bool
}

type Option func(m *Module)

// WithReadback reports Recording from the REC line itself instead of the
// last commanded state.
func WithReadback(in gpio.Input) Option {
	return func(m *Module) { m.readback = in }
}

func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Module) { m.sleep = sleep }
}

func New(record, play gpio.Output, opts ...Option) *Module {
	m := &Module{record: record, play: play, sleep: time.Sleep}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) StartRecording() {
	if err := m.record.Write(true); err != nil {
		log.LineError("record", err)
	}
	m.recording.Store(true)
}

func (m *Module) StopRecording() {
	if err := m.record.Write(false); err != nil {
		log.LineError("record", err)
	}
	m.recording.Store(false)
}

func (m *Module) Recording() bool {
	if m.readback != nil {
		v, err := m.readback.Read()
		if err == nil {
			return v
		}
		log.LineError("record", err)
	}
	return m.recording.Load()
}

func (m *Module) TriggerPlayback() {
	if err := m.play.Write(true); err != nil {
		log.LineError("play", err)
		return
	}
	m.sleep(PlayPulse)
	if err := m.play.Write(false); err != nil {
		log.LineError("play", err)
	}
}
