// Package gpio turns physical lines into logical booleans. Active-low
// wiring is resolved here so that everything above speaks "true means
// active".
package gpio

import (
	"sync/atomic"

	"parrot/log"
)

type Input interface {
	Read() (bool, error)
}

type Output interface {
	Write(active bool) error
}

// Squelch reports receive activity from the carrier-detect line.
type Squelch struct {
	In Input
}

func (s Squelch) Receiving() bool {
	v, err := s.In.Read()
	if err != nil {
		log.LineError("rx", err)
		return false
	}
	return v
}

// KeySense reads an operator key line, for display only.
type KeySense struct {
	In Input
}

func (k KeySense) Keyed() bool {
	v, err := k.In.Read()
	if err != nil {
		log.LineError("key", err)
		return false
	}
	return v
}

// Transmitter drives the PTT line and remembers what it last asked for.
type Transmitter struct {
	out   Output
	keyed atomic.Bool
}

func NewTransmitter(out Output) *Transmitter {
	return &Transmitter{out: out}
}

func (t *Transmitter) SetKeyed(on bool) {
	if err := t.out.Write(on); err != nil {
		log.LineError("ptt", err)
	}
	t.keyed.Store(on)
}

func (t *Transmitter) Keyed() bool { return t.keyed.Load() }
